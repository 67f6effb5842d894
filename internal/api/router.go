package api

import (
	"net/http"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/nmang004/atlas-sub000/config"
	_ "github.com/nmang004/atlas-sub000/docs"
	adminReview "github.com/nmang004/atlas-sub000/internal/api/v1/admin/review"
	adminUser "github.com/nmang004/atlas-sub000/internal/api/v1/admin/user"
	"github.com/nmang004/atlas-sub000/internal/api/v1/auth"
	"github.com/nmang004/atlas-sub000/internal/api/v1/category"
	"github.com/nmang004/atlas-sub000/internal/api/v1/prompt"
	userRoutes "github.com/nmang004/atlas-sub000/internal/api/v1/user"
	"github.com/nmang004/atlas-sub000/internal/middleware"
	"github.com/nmang004/atlas-sub000/internal/utils"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
)

// NewRouter builds the HTTP surface. Storage connections are expected to be
// open already.
func NewRouter(cfg *config.Config) *gin.Engine {
	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(middleware.Logger())

	origins := cfg.CORSOrigins
	if len(origins) == 0 {
		origins = []string{"http://localhost:3000"}
	}
	router.Use(cors.New(cors.Config{
		AllowOrigins:     origins,
		AllowMethods:     []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Content-Type", "Accept", "Authorization", "X-Request-ID"},
		ExposeHeaders:    []string{"Content-Length", "X-Request-ID", "Retry-After"},
		AllowCredentials: true,
		MaxAge:           5 * time.Minute,
	}))
	router.Use(middleware.Throttle(middleware.NewIPThrottle(cfg.IPRatePerSecond, cfg.IPRateBurst)))

	router.GET("/healthz", func(c *gin.Context) {
		c.JSON(http.StatusOK, utils.NewSuccessResponse("ok", nil))
	})
	router.GET("/metrics", gin.WrapH(promhttp.Handler()))
	router.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))

	api := router.Group("/api")
	{
		auth.RegisterRoutes(api)
		category.RegisterRoutes(api)
		prompt.RegisterRoutes(api)
		userRoutes.RegisterRoutes(api)

		// Admin routes
		admin := api.Group("/admin")
		admin.Use(middleware.RequireAdmin())
		{
			adminReview.RegisterRoutes(admin)
			adminUser.RegisterRoutes(admin)
		}
	}

	return router
}
