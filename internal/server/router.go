package server

import (
	"github.com/gin-gonic/gin"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/minio/minio-go/v7"
	"github.com/sharedrive/sharedrive/internal/auth"
	"github.com/sharedrive/sharedrive/internal/config"
	"github.com/sharedrive/sharedrive/internal/file"
	"github.com/sharedrive/sharedrive/internal/logger"
	"github.com/sharedrive/sharedrive/internal/metrics"
	"github.com/sharedrive/sharedrive/internal/share"
	"github.com/sharedrive/sharedrive/internal/team"
	"go.uber.org/zap"
)

// Services groups the domain services the router mounts.
type Services struct {
	Auth  *auth.Service
	File  *file.Service
	Team  *team.Service
	Share *share.Service
}

// Dependencies are the infrastructure handles the health endpoints probe.
type Dependencies struct {
	Pool   *pgxpool.Pool
	MinIO  *minio.Client
	Bucket string
}

// NewRouter assembles the full HTTP surface: health probes, metrics, the
// public share endpoint and the authenticated v1 API.
func NewRouter(cfg config.Config, log *zap.Logger, services Services, deps Dependencies) *gin.Engine {
	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(logger.Middleware())
	router.Use(logger.RequestLogger(log))
	router.Use(metrics.Middleware())

	metrics.Register(router, cfg.Metrics.PrometheusPath)
	registerHealthRoutes(router, deps)

	share.RegisterRoutes(router, services.Share)

	v1 := router.Group("/v1")
	auth.RegisterRoutes(v1, services.Auth)

	authed := v1.Group("")
	authed.Use(auth.AuthMiddleware(services.Auth))
	auth.RegisterProfileRoutes(authed, services.Auth)
	file.RegisterRoutes(authed, services.File)
	share.RegisterOwnerRoutes(authed, services.Share)
	team.RegisterRoutes(authed, services.Team)

	return router
}
