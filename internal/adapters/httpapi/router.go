// Package httpapi wires every transport backend onto one gin engine.
package httpapi

import (
	"context"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog/log"

	"github.com/ShubhKirti62/interview-signaling/internal/adapters/poll"
	"github.com/ShubhKirti62/interview-signaling/internal/adapters/rawws"
	"github.com/ShubhKirti62/interview-signaling/internal/adapters/signal"
	"github.com/ShubhKirti62/interview-signaling/internal/app"
	"github.com/ShubhKirti62/interview-signaling/internal/config"
)

func SetupRouter(ctx context.Context, cfg *config.Config, rt *app.Router, buf *app.EventBuffer) *gin.Engine {
	if cfg.Mode == "release" {
		gin.SetMode(gin.ReleaseMode)
	}

	r := gin.New()
	if cfg.Mode == "debug" {
		r.Use(gin.Logger())
	}
	r.Use(gin.Recovery())

	sigCtl := signal.NewController(rt, cfg)
	rawCtl := rawws.NewController(rt)
	pollCtl := poll.NewController(rt, buf)

	r.GET("/ws", func(c *gin.Context) {
		sigCtl.Handle(ctx, c, rt.NewSessionID())
	})
	r.GET("/ws/raw", func(c *gin.Context) {
		rawCtl.Handle(ctx, c, rt.NewSessionID())
	})

	api := r.Group("/api/poll")
	api.POST("/rooms/:roomId", pollCtl.Submit)
	api.GET("/rooms/:roomId/users", pollCtl.Users)
	api.GET("/rooms/:roomId/events", pollCtl.Events)

	log.Info().Str("module", "adapters.httpapi").Msg("router setup")
	return r
}
