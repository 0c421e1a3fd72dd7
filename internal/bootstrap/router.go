package bootstrap

import (
	"database/sql"
	"strings"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"

	httpapi "github.com/windscape-energy/go-site-backend/internal/api/http"
	"github.com/windscape-energy/go-site-backend/internal/api/http/middleware"
	siteshttp "github.com/windscape-energy/go-site-backend/internal/sites/http"
	"github.com/windscape-energy/go-site-backend/internal/sites/repository"
	"github.com/windscape-energy/go-site-backend/internal/sites/service"
	"github.com/windscape-energy/go-site-backend/internal/sites/slug"
)

type RouterDeps struct {
	ServiceName string
	Version     string
	CORSOrigins string
	Redis       *redis.Client
	// DB is only set when the postgres store backend is selected.
	DB       *sql.DB
	RadiusKm float64
}

func BuildRouter(dep RouterDeps) *gin.Engine {
	r := gin.Default()

	corsCfg := cors.DefaultConfig()
	if dep.CORSOrigins == "" || dep.CORSOrigins == "*" {
		corsCfg.AllowAllOrigins = true
	} else {
		corsCfg.AllowOrigins = strings.Split(dep.CORSOrigins, ",")
	}
	corsCfg.AllowHeaders = append(corsCfg.AllowHeaders, "X-Session-ID", "X-Request-Id")
	r.Use(cors.New(corsCfg))
	r.Use(middleware.RequestIDMiddleware())

	healthHandler := httpapi.NewHealthHandler(dep.ServiceName, dep.Version, dep.Redis, dep.DB)
	healthHandler.RegisterRoutes(r)

	var store service.RecordStore
	if dep.DB != nil {
		store = repository.NewPGRecordRepository(dep.DB)
	} else {
		store = repository.NewRecordRepository(dep.Redis)
	}

	cache := repository.NewResolutionCache(dep.Redis)
	sessions := repository.NewSessionRepository(dep.Redis)
	scans := repository.NewScanRepository(dep.Redis)
	normalizer := slug.NewNormalizer(store)

	lifecycle := service.NewLifecycleService(store, cache, sessions, normalizer, dep.RadiusKm)
	dedup := service.NewDedupService(store, sessions, dep.RadiusKm)

	api := r.Group("/api/v1")

	sitesGroup := api.Group("/sites")
	sitesHandler := siteshttp.New(lifecycle, dedup, store, cache, scans)
	sitesHandler.Register(sitesGroup)

	return r
}
