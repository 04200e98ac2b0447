// Package opshttp exposes the sidecar's operational surface (health,
// runtime metrics, a session debug dump) on a loopback HTTP port separate
// from the WebSocket control port, grounded on the teacher's
// internal/api/router.go + handlers package (gin.New() with a small
// middleware chain, one handler struct per concern).
package opshttp

import (
	"net/http"
	"time"

	sentrygin "github.com/getsentry/sentry-go/gin"
	"github.com/gin-gonic/gin"

	"github.com/tonebridge/reaper-sidecar/internal/sidecar"
)

const sentryFlushTimeout = 2 * time.Second

// SessionInspector is the narrow view the debug endpoint needs into the
// running sidecar; satisfied by *sidecar.MainLoop in production and a fake
// in tests.
type SessionInspector interface {
	DebugSnapshot() sidecar.DebugSnapshot
}

// NewRouter builds the ops HTTP surface: /health, /metrics, /debug/sessions.
// Grounded on the teacher's SetupRouter (gin.New() + explicit middleware
// chain rather than gin.Default()'s implicit logger/recovery).
func NewRouter(version string, inspector SessionInspector) *gin.Engine {
	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(sentrygin.New(sentrygin.Options{
		Repanic:         true,
		WaitForDelivery: false,
		Timeout:         sentryFlushTimeout,
	}))

	startTime := time.Now()

	router.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "healthy"})
	})

	metrics := newMetricsHandler(version, startTime)
	router.GET("/metrics", metrics.get)

	router.GET("/debug/sessions", func(c *gin.Context) {
		c.JSON(http.StatusOK, inspector.DebugSnapshot())
	})

	return router
}
