package main

import (
	"database/sql"
	"net/http"
	"time"

	"voice-receptionist/internal/agents"
	"voice-receptionist/internal/assistant"
	"voice-receptionist/internal/audit"
	"voice-receptionist/internal/auth"
	"voice-receptionist/internal/calls"
	"voice-receptionist/internal/config"
	"voice-receptionist/internal/httpapi"
	"voice-receptionist/internal/metrics"
	"voice-receptionist/internal/reconcile"
	"voice-receptionist/internal/reporting"
	"voice-receptionist/internal/telephony"
	"voice-receptionist/pkg/utils"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
)

type routeDeps struct {
	cfg     config.Config
	auth    *auth.Manager
	db      *sql.DB
	redis   *redis.Client
	metrics *metrics.Metrics

	agents     *agents.Service
	resolver   *agents.Resolver
	calls      calls.Store
	reconciler *reconcile.Service
	reports    *reporting.Service
	audit      *audit.Service
}

// registerRoutes wires HTTP routes to handlers.
// Keep this file free of business logic. Handlers should delegate to internal modules.
func registerRoutes(r *gin.Engine, d routeDeps) {
	// public
	r.GET("/healthz", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})
	r.GET("/readyz", func(c *gin.Context) {
		ctx := c.Request.Context()
		if err := utils.HealthCheck(ctx, d.db, 2*time.Second); err != nil {
			c.AbortWithStatusJSON(http.StatusServiceUnavailable, gin.H{"status": "postgres unavailable"})
			return
		}
		if err := d.redis.Ping(ctx).Err(); err != nil {
			c.AbortWithStatusJSON(http.StatusServiceUnavailable, gin.H{"status": "redis unavailable"})
			return
		}
		c.JSON(http.StatusOK, gin.H{"status": "ready"})
	})
	r.GET("/metrics", gin.WrapH(d.metrics.Handler()))

	// Voice platform webhook. Authenticated by shared secret or tool token.
	{
		h := telephony.VapiWebhookHandler{
			Resolver:   d.resolver,
			Reconciler: d.reconciler,
			Tokens:     d.auth,
			Flags:      d.audit,
			Metrics:    d.metrics,
			BaseURL:    d.cfg.App.BaseURL,
			Credentials: assistant.Credentials{
				OpenAI:     d.cfg.Credentials.OpenAIKey,
				Deepgram:   d.cfg.Credentials.DeepgramKey,
				ElevenLabs: d.cfg.Credentials.ElevenLabsKey,
			},
			DefaultLocation: d.cfg.Location(),
		}
		r.POST(assistant.WebhookPath,
			telephony.RequireSecret(d.cfg.Vapi.WebhookSecret, d.auth),
			telephony.Timeout(d.cfg.Vapi.WebhookTimeout),
			h.Handle,
		)
	}

	h := httpapi.Handlers{
		Auth:    d.auth,
		Agents:  d.agents,
		Calls:   d.calls,
		Reports: d.reports,
		Audit:   d.audit,
	}

	// Token issuance without credentials is for local testing only.
	if d.cfg.App.Env == "local" || d.cfg.App.Env == "dev" {
		r.POST("/v1/auth/dev-login", h.DevLogin)
	}

	// protected API group
	v1 := r.Group("/v1", auth.RequireAccessToken(d.auth))
	h.Register(v1)
}
