package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"avenue/internal/addresses"
	"avenue/internal/brands"
	"avenue/internal/catalog"
	"avenue/internal/geo"
	"avenue/internal/logger"
	"avenue/internal/middleware"
	"avenue/internal/orders"
)

type Deps struct {
	Logger    *logger.Logger
	Tokens    middleware.TokenParser
	Geo       geo.Service
	Brands    brands.Service
	Catalog   catalog.Service
	Addresses addresses.Service
	Orders    orders.Service
	Push      PushRegistry
	Auth      Authenticator
	VAPIDKey  string
	Uploads   ImageUploads
	MongoPing Pinger
	CachePing Pinger
	Metrics   http.Handler
}

// Routes mounts the API on r. Pages and static assets are mounted by the
// caller because they depend on files on disk.
func Routes(r *gin.Engine, d Deps) {
	r.GET("/health", Health(d.MongoPing, d.CachePing))
	if d.Metrics != nil {
		r.GET("/metrics", gin.WrapH(d.Metrics))
	}
	r.GET("/", Home(d.Brands, d.Catalog))

	api := r.Group("/api")

	api.POST("/auth/register", Register(d.Auth))
	api.POST("/auth/login", Login(d.Auth))

	api.GET("/geo/countries", ListCountries(d.Geo))
	api.GET("/geo/countries/:id/counties", ListCounties(d.Geo))
	api.GET("/geo/counties/:id/cities", ListCities(d.Geo))

	api.GET("/brands", ListBrands(d.Brands))
	api.GET("/products", ListProducts(d.Catalog))
	api.GET("/push/vapid-key", VAPIDPublicKey(d.VAPIDKey))

	user := api.Group("/user")
	user.Use(middleware.UserAuth(d.Tokens, d.Logger))
	{
		user.GET("/addresses", GetUserAddresses(d.Addresses))
		user.POST("/addresses", CreateUserAddress(d.Addresses))
		user.PATCH("/addresses/:id/default", SetDefaultUserAddress(d.Addresses))
		user.DELETE("/addresses/:id", DeleteUserAddress(d.Addresses))

		user.GET("/orders/:id/timeline", GetOrderTimeline(d.Orders))

		user.POST("/push/subscriptions", SubscribePush(d.Push))
		user.DELETE("/push/subscriptions", UnsubscribePush(d.Push))
	}

	admin := api.Group("/admin")
	admin.Use(middleware.AdminOnly(d.Tokens, d.Logger))
	{
		admin.POST("/countries", CreateCountry(d.Geo))
		admin.PATCH("/countries/:id", UpdateCountry(d.Geo))
		admin.POST("/counties", CreateCounty(d.Geo))
		admin.PATCH("/counties/:id", UpdateCounty(d.Geo))
		admin.POST("/cities", CreateCity(d.Geo))
		admin.PATCH("/cities/:id", UpdateCity(d.Geo))

		admin.POST("/brands", CreateBrand(d.Brands))
		admin.POST("/products", CreateProduct(d.Catalog))
		admin.POST("/products/images", UploadProductImage(d.Uploads))

		admin.PATCH("/orders/:id/status", UpdateOrderStatus(d.Orders))
	}
}
