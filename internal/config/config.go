package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/kelseyhightower/envconfig"
)

type Config struct {
	App   AppConfig
	Mongo MongoConfig
	JWT   JWTConfig
	Redis RedisConfig
	Push  PushConfig
	Admin AdminConfig
}

type AppConfig struct {
	Env      string `envconfig:"APP_ENV" default:"development"`
	Port     string `envconfig:"PORT" default:"8080"`
	LogLevel string `envconfig:"LOG_LEVEL" default:"info"`

	// PublicDir is served at /public; product uploads land below it.
	PublicDir   string `envconfig:"PUBLIC_DIR" default:"./public"`
	TemplateDir string `envconfig:"TEMPLATE_DIR" default:"./templates"`
}

func (a AppConfig) IsProd() bool {
	return strings.EqualFold(a.Env, "production")
}

type MongoConfig struct {
	URI     string        `envconfig:"MONGO_URI" required:"true"`
	DBName  string        `envconfig:"DB_NAME" default:"avenue"`
	Timeout time.Duration `envconfig:"MONGO_CONNECT_TIMEOUT" default:"10s"`
}

type JWTConfig struct {
	Secret    string        `envconfig:"JWT_SECRET" required:"true"`
	AccessTTL time.Duration `envconfig:"ACCESS_TOKEN_TTL" default:"20m"`
}

type RedisConfig struct {
	// Empty URL disables the geography cache.
	URL      string        `envconfig:"REDIS_URL"`
	CacheTTL time.Duration `envconfig:"GEO_CACHE_TTL" default:"10m"`
}

type PushConfig struct {
	VAPIDPublicKey  string `envconfig:"VAPID_PUBLIC_KEY"`
	VAPIDPrivateKey string `envconfig:"VAPID_PRIVATE_KEY"`
	Subscriber      string `envconfig:"VAPID_SUBSCRIBER" default:"mailto:support@avenuefashion.co.ke"`
	TTLSeconds      int    `envconfig:"PUSH_TTL_SECONDS" default:"3600"`
	SiteURL         string `envconfig:"SITE_URL" default:"http://localhost:3000"`
}

// Enabled reports whether both VAPID keys are configured.
func (p PushConfig) Enabled() bool {
	return p.VAPIDPublicKey != "" && p.VAPIDPrivateKey != ""
}

// AdminConfig seeds one admin account at startup when both are set.
type AdminConfig struct {
	Email    string `envconfig:"ADMIN_EMAIL"`
	Password string `envconfig:"ADMIN_PASSWORD"`
}

func (a AdminConfig) Enabled() bool {
	return strings.TrimSpace(a.Email) != "" && a.Password != ""
}

func Load() (*Config, error) {
	var cfg Config
	if err := envconfig.Process("", &cfg); err != nil {
		return nil, fmt.Errorf("parsing config: %w", err)
	}
	if strings.TrimSpace(cfg.Mongo.URI) == "" {
		return nil, fmt.Errorf("MONGO_URI must not be blank")
	}
	if strings.TrimSpace(cfg.JWT.Secret) == "" {
		return nil, fmt.Errorf("JWT_SECRET must not be blank")
	}
	return &cfg, nil
}
