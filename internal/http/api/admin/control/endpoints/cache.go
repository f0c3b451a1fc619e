package endpoints

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog/log"

	"github.com/Nixie-Tech-LLC/iqamah/internal/cache"
	"github.com/Nixie-Tech-LLC/iqamah/internal/http/api"
	"github.com/Nixie-Tech-LLC/iqamah/internal/http/api/admin/control/packets"
	"github.com/Nixie-Tech-LLC/iqamah/internal/http/middleware"
)

type CacheController struct {
	caches []cache.Managed
}

// CacheModule mounts the authenticated /cache maintenance endpoints.
func CacheModule(caches []cache.Managed) api.Module {
	ctl := &CacheController{caches: caches}
	return api.ModuleFunc(func(c *api.Controller) {
		c.POST("/cache/clear", ctl.clear)
		c.POST("/cache/sweep", ctl.sweep)
		c.GET("/cache/metrics", ctl.metrics)
	})
}

func (cc *CacheController) names() []string {
	out := make([]string, 0, len(cc.caches))
	for _, c := range cc.caches {
		out = append(out, c.Name())
	}
	return out
}

// POST /api/admin/cache/clear
func (cc *CacheController) clear(ctx *gin.Context, admin *middleware.Admin) (any, *api.APIError) {
	removed := 0
	for _, c := range cc.caches {
		removed += c.Metrics().Size
		if err := c.Clear(ctx.Request.Context()); err != nil {
			log.Error().Err(err).Str("cache", c.Name()).Msg("cache clear failed")
			return nil, &api.APIError{Code: http.StatusInternalServerError, Message: "could not clear " + c.Name()}
		}
	}
	log.Info().Str("admin", admin.Subject).Int("removed", removed).Msg("caches cleared")
	return packets.CacheActionResponse{Caches: cc.names(), Removed: removed}, nil
}

// POST /api/admin/cache/sweep
func (cc *CacheController) sweep(ctx *gin.Context, admin *middleware.Admin) (any, *api.APIError) {
	removed := 0
	for _, c := range cc.caches {
		removed += c.Sweep()
	}
	log.Debug().Str("admin", admin.Subject).Int("removed", removed).Msg("caches swept")
	return packets.CacheActionResponse{Caches: cc.names(), Removed: removed}, nil
}

// GET /api/admin/cache/metrics
func (cc *CacheController) metrics(ctx *gin.Context, _ *middleware.Admin) (any, *api.APIError) {
	out := make([]cache.Metrics, 0, len(cc.caches))
	for _, c := range cc.caches {
		out = append(out, c.Metrics())
	}
	return packets.CacheMetricsResponse{Caches: out}, nil
}
