package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.mongodb.org/mongo-driver/mongo"

	"avenue/internal/addresses"
	"avenue/internal/auth"
	"avenue/internal/brands"
	"avenue/internal/cache"
	"avenue/internal/catalog"
	"avenue/internal/config"
	"avenue/internal/database"
	"avenue/internal/geo"
	"avenue/internal/handlers"
	"avenue/internal/logger"
	"avenue/internal/metrics"
	"avenue/internal/middleware"
	"avenue/internal/orders"
	"avenue/internal/push"
)

const serviceName = "avenue-api"

func main() {
	logg := logger.New(logger.Options{ServiceName: serviceName})

	if err := godotenv.Load(); err != nil {
		logg.Warn(context.Background(), ".env file not found, relying on environment", err)
	}

	cfg, err := config.Load()
	if err != nil {
		logg.Error(context.Background(), "failed to load config", err)
		os.Exit(1)
	}
	logg = logger.New(logger.Options{
		ServiceName: serviceName,
		Level:       logger.ParseLevel(cfg.App.LogLevel),
	})
	if cfg.App.IsProd() {
		gin.SetMode(gin.ReleaseMode)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	client, err := database.Connect(ctx, cfg.Mongo.URI, cfg.Mongo.Timeout)
	if err != nil {
		logg.Error(ctx, "failed to connect to mongo", err)
		os.Exit(1)
	}
	defer func() {
		if err := client.Disconnect(context.Background()); err != nil {
			logg.Error(context.Background(), "error closing mongo", err)
		}
	}()
	db := client.Database(cfg.Mongo.DBName)
	logg.Info(logg.WithField(ctx, "db", db.Name()), "mongo.connected")

	if err := database.EnsureSchemas(ctx, db, logg); err != nil {
		logg.Warn(ctx, "schema.ensure_failed", err)
	}

	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	httpMetrics := metrics.NewHTTPMetrics(reg)
	cacheMetrics := metrics.NewCacheMetrics(reg)
	pushMetrics := metrics.NewPushMetrics(reg)

	var (
		geoCache  geo.Cache = cache.Nop{}
		cachePing handlers.Pinger
	)
	if cfg.Redis.URL != "" {
		redisCache, err := cache.New(ctx, cfg.Redis.URL, cfg.Redis.CacheTTL)
		if err != nil {
			logg.Warn(ctx, "redis unavailable, geography cache disabled", err)
		} else {
			defer redisCache.Close()
			geoCache = redisCache
			cachePing = redisCache.Ping
		}
	}

	deps, err := buildDeps(cfg, db, logg, geoCache, cacheMetrics, pushMetrics)
	if err != nil {
		logg.Error(ctx, "failed to build services", err)
		os.Exit(1)
	}
	deps.CachePing = cachePing
	deps.Metrics = promhttp.HandlerFor(reg, promhttp.HandlerOpts{Registry: reg})

	r := gin.New()
	r.Use(
		middleware.RequestID(logg),
		middleware.Logging(logg, httpMetrics),
		middleware.Recoverer(logg),
	)
	r.LoadHTMLGlob(filepath.Join(cfg.App.TemplateDir, "**", "*"))
	r.Static("/public", cfg.App.PublicDir)
	r.GET("/pages/:slug", handlers.StaticPage())
	handlers.Routes(r, deps)

	server := &http.Server{
		Addr:              ":" + cfg.App.Port,
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := server.Shutdown(shutdownCtx); err != nil {
			logg.Error(shutdownCtx, "server shutdown failed", err)
		}
	}()

	logg.Info(logg.WithFields(ctx, map[string]any{
		"env":  cfg.App.Env,
		"addr": server.Addr,
		"push": cfg.Push.Enabled(),
	}), "starting api server")

	if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		logg.Error(ctx, "api server stopped unexpectedly", err)
		os.Exit(1)
	}
}

func buildDeps(
	cfg *config.Config,
	db *mongo.Database,
	logg *logger.Logger,
	geoCache geo.Cache,
	cacheMetrics *metrics.CacheMetrics,
	pushMetrics *metrics.PushMetrics,
) (handlers.Deps, error) {
	tokens := auth.NewTokens(cfg.JWT.Secret, cfg.JWT.AccessTTL)
	authService, err := auth.NewService(auth.NewUserStore(db), tokens)
	if err != nil {
		return handlers.Deps{}, err
	}
	if cfg.Admin.Enabled() {
		if err := authService.EnsureAdmin(context.Background(), cfg.Admin.Email, cfg.Admin.Password); err != nil {
			return handlers.Deps{}, err
		}
	}

	geoService, err := geo.NewService(geo.ServiceParams{
		Repo:    geo.NewRepository(db),
		Cache:   geoCache,
		Logger:  logg,
		Metrics: cacheMetrics,
	})
	if err != nil {
		return handlers.Deps{}, err
	}

	brandService, err := brands.NewService(brands.NewRepository(db), nil)
	if err != nil {
		return handlers.Deps{}, err
	}

	catalogService, err := catalog.NewService(catalog.NewRepository(db), brandService, nil)
	if err != nil {
		return handlers.Deps{}, err
	}

	addressService, err := addresses.NewService(addresses.NewRepository(db), geoService, nil)
	if err != nil {
		return handlers.Deps{}, err
	}

	pushStore := push.NewStore(db)
	registry, err := push.NewRegistry(pushStore, nil)
	if err != nil {
		return handlers.Deps{}, err
	}
	dispatcher := push.NewDispatcher(pushStore, push.VAPID{
		PublicKey:  cfg.Push.VAPIDPublicKey,
		PrivateKey: cfg.Push.VAPIDPrivateKey,
		Subscriber: cfg.Push.Subscriber,
		TTL:        cfg.Push.TTLSeconds,
	}, logg, pushMetrics)

	orderService, err := orders.NewService(orders.ServiceParams{
		Repo:     orders.NewRepository(db),
		Notifier: dispatcher,
		Logger:   logg,
		SiteURL:  cfg.Push.SiteURL,
	})
	if err != nil {
		return handlers.Deps{}, err
	}

	return handlers.Deps{
		Logger:    logg,
		Tokens:    tokens,
		Geo:       geoService,
		Brands:    brandService,
		Catalog:   catalogService,
		Addresses: addressService,
		Orders:    orderService,
		Push:      registry,
		Auth:      authService,
		VAPIDKey:  cfg.Push.VAPIDPublicKey,
		Uploads:   handlers.ImageUploads{PublicDir: cfg.App.PublicDir},
		MongoPing: func(ctx context.Context) error { return database.Ping(ctx, db) },
	}, nil
}
