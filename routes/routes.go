package routes

import (
	"log/slog"
	"net/http"
	"strings"
	"time"

	"tripmind/handlers"
	"tripmind/middleware"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
)

// Deps is everything the router wires together.
type Deps struct {
	Handler     *handlers.Handler
	Tokens      middleware.TokenParser
	Database    middleware.Readiness
	PlanLimiter *middleware.IPRateLimiter
	LiveFeed    http.HandlerFunc
	// Empty reflects every request origin back.
	CORSOrigins []string
	Log         *slog.Logger
}

func SetupRouter(d Deps) *gin.Engine {
	router := gin.New()
	router.Use(
		gin.Recovery(),
		middleware.RequestID(),
		middleware.Logger(d.Log),
		cors.New(corsConfig(d.CORSOrigins)),
	)

	h := d.Handler
	router.GET("/health", h.Health)
	if d.LiveFeed != nil {
		router.GET("/ws/community", gin.WrapF(d.LiveFeed))
	}

	api := router.Group("/api")
	api.Use(middleware.OptionalAuth(d.Tokens))
	api.GET("/test", h.Test)
	api.GET("/health", h.Health)

	// Routes below need the store.
	db := middleware.RequireDatabase(d.Database)

	authGroup := api.Group("/auth", db)
	authGroup.POST("/register", h.Register)
	authGroup.POST("/login", h.Login)
	authGroup.GET("/users", h.ListUsers)

	trips := api.Group("/trips")
	trips.GET("", db, h.ListTrips)
	trips.POST("", db, h.CreateTrip)
	trips.POST("/plan", middleware.RateLimit(d.PlanLimiter), h.PlanTrip)

	community := api.Group("/community")
	community.POST("/create", db, h.CreatePost)
	community.POST("/upload", h.UploadImage)
	community.GET("", db, h.ListPosts)
	community.GET("/:country", db, h.ListPostsByCountry)
	community.PUT("/like/:id", db, h.LikePost)

	router.NoRoute(func(c *gin.Context) {
		if strings.HasPrefix(c.Request.URL.Path, "/api") {
			c.JSON(http.StatusNotFound, gin.H{
				"message": "Endpoint not found.",
				"path":    c.Request.URL.Path,
			})
			return
		}
		c.JSON(http.StatusNotFound, gin.H{"message": "Not found."})
	})

	return router
}

func corsConfig(origins []string) cors.Config {
	cfg := cors.Config{
		AllowMethods:     []string{"GET", "POST", "PUT", "DELETE", "OPTIONS", "PATCH"},
		AllowHeaders:     []string{"Origin", "Content-Type", "Authorization", "Accept", "X-Requested-With", middleware.RequestIDHeader},
		ExposeHeaders:    []string{"Content-Length", "Content-Type", middleware.RequestIDHeader},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	}
	if len(origins) == 0 {
		cfg.AllowOriginFunc = func(string) bool { return true }
	} else {
		cfg.AllowOrigins = origins
	}
	return cfg
}
