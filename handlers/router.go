package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"tourismhub/api/middleware"
	"tourismhub/api/models"
	"tourismhub/api/utils"
)

type RouterConfig struct {
	Auth          *AuthHandlers
	Track         *TrackHandlers
	Stats         *StatsHandlers
	Issuer        *utils.JWTIssuer
	Origins       []string
	SecureCookies bool
}

// dashboardRoles may read aggregate analytics.
var dashboardRoles = []string{models.RoleMunicipality, models.RoleDeveloper, models.RoleAdmin}

func NewRouter(cfg RouterConfig) *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(middleware.CORSMiddleware(cfg.Origins))

	r.GET("/healthz", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))

	api := r.Group("/api")
	{
		api.POST("/signup", cfg.Auth.Signup)
		api.POST("/login", cfg.Auth.Login)
		api.POST("/logout", cfg.Auth.Logout)
		api.GET("/me", middleware.AuthRequired(cfg.Issuer), cfg.Auth.Me)

		track := api.Group("/track")
		track.Use(middleware.ClientIdentity(cfg.SecureCookies), middleware.OptionalAuth(cfg.Issuer))
		{
			track.POST("/page-view", cfg.Track.PageView)
			track.POST("/search", cfg.Track.Search)
			track.POST("/filter", cfg.Track.Filter)
			track.POST("/content-view", cfg.Track.ContentView)
			track.POST("/profile-view", cfg.Track.ProfileView)
			track.POST("/reload", cfg.Track.Reload)
		}

		stats := api.Group("/stats")
		stats.Use(middleware.AuthRequired(cfg.Issuer, dashboardRoles...))
		{
			stats.GET("/event-counts", cfg.Stats.GetEventCountsOverTime)
			stats.GET("/unique-sessions", cfg.Stats.GetUniqueSessionsOverTime)
			stats.GET("/top-paths", cfg.Stats.GetTopNPagePaths)
			stats.GET("/top-searches", cfg.Stats.GetTopSearches)
			stats.GET("/my-content-views", cfg.Stats.GetMyContentViews)
		}
	}

	return r
}
