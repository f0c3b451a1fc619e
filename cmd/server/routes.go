package main

import (
	"net/http"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog/log"

	"github.com/Nixie-Tech-LLC/iqamah/internal/app"
	"github.com/Nixie-Tech-LLC/iqamah/internal/http/api"
	authapi "github.com/Nixie-Tech-LLC/iqamah/internal/http/api/admin/auth/endpoints"
	adminapi "github.com/Nixie-Tech-LLC/iqamah/internal/http/api/admin/control/endpoints"
	mosqueapi "github.com/Nixie-Tech-LLC/iqamah/internal/http/api/mosques/endpoints"
)

// RegisterRoutes sets up all application routes
func RegisterRoutes(r *gin.Engine, a *app.App) {
	// CORS
	r.Use(cors.New(cors.Config{
		AllowOriginFunc: func(origin string) bool { return true },
		AllowMethods: []string{
			"GET",
			"POST",
			"PUT",
			"OPTIONS",
			"HEAD",
		},
		AllowHeaders: []string{
			"Origin",
			"Content-Type",
			"Authorization",
			"Accept",
			"X-Request-ID",
		},
		ExposeHeaders: []string{
			"Content-Length",
			"X-Request-ID",
		},
		AllowCredentials: false,
	}))

	r.GET("/healthz", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	api.MountGroup(r, api.GroupConfig{
		Prefix: "/api",
	},
		mosqueapi.TimetableModule(a.Service, a.Store),
	)

	cfg := a.Config
	if cfg.JWTSecret == "" {
		log.Warn().Msg("JWT_SECRET not set, admin endpoints disabled")
		return
	}

	api.MountGroup(r, api.GroupConfig{
		Prefix: "/api/admin",
		Auth:   false,
	},
		authapi.AuthPublicModule(cfg.JWTSecret, cfg.AdminPasswordHash),
	)

	api.MountGroup(r, api.GroupConfig{
		Prefix:    "/api/admin",
		Auth:      true,
		SecretKey: cfg.JWTSecret,
	},
		authapi.AuthSessionModule(cfg.JWTSecret, cfg.AdminPasswordHash),
		adminapi.CacheModule(a.Caches()),
		adminapi.CalendarModule(a.Store, a.Service),
	)
}
