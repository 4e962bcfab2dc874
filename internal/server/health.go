package server

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
)

const healthProbeTimeout = 2 * time.Second

// registerHealthRoutes mounts liveness and readiness probes. Liveness
// only proves the process serves requests; readiness pings Postgres and
// MinIO so a broken dependency takes the instance out of rotation.
func registerHealthRoutes(router *gin.Engine, deps Dependencies) {
	router.GET("/health/live", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	router.GET("/health/ready", func(c *gin.Context) {
		ctx, cancel := context.WithTimeout(c.Request.Context(), healthProbeTimeout)
		defer cancel()

		checks := gin.H{"postgres": "ok", "minio": "ok"}
		healthy := true

		if err := deps.Pool.Ping(ctx); err != nil {
			checks["postgres"] = err.Error()
			healthy = false
		}

		if _, err := deps.MinIO.BucketExists(ctx, deps.Bucket); err != nil {
			checks["minio"] = err.Error()
			healthy = false
		}

		status := http.StatusOK
		if !healthy {
			status = http.StatusServiceUnavailable
		}
		c.JSON(status, gin.H{"checks": checks})
	})
}
