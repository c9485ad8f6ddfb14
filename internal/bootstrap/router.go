package bootstrap

import (
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"
	"golang.org/x/time/rate"

	httpapi "github.com/decksmith/deck-backend/internal/api/http"
	"github.com/decksmith/deck-backend/internal/api/http/middleware"
	exphttp "github.com/decksmith/deck-backend/internal/exports/http"
	"github.com/decksmith/deck-backend/internal/exports/pdf"
	"github.com/decksmith/deck-backend/internal/exports/pptx"
	exprepo "github.com/decksmith/deck-backend/internal/exports/repository"
	expservice "github.com/decksmith/deck-backend/internal/exports/service"
	projhttp "github.com/decksmith/deck-backend/internal/projects/http"
	projrepo "github.com/decksmith/deck-backend/internal/projects/repository"
	projservice "github.com/decksmith/deck-backend/internal/projects/service"
	"github.com/decksmith/deck-backend/internal/storage"
)

type RouterDeps struct {
	ServiceName string
	Version     string
	DB          *pgxpool.Pool
	Redis       *redis.Client // optional: export records are skipped when nil
	Blobs       storage.BlobStore
	LocalRoot   string // serve /files from disk when set (local backend)
	BaseURL     string
	ExportTTL   time.Duration
	ExportRPS   float64
	ExportBurst int
}

func BuildRouter(dep RouterDeps) *gin.Engine {
	r := gin.Default()
	r.Use(cors.Default())
	r.Use(middleware.RequestID())

	healthHandler := httpapi.NewHealthHandler(dep.ServiceName, dep.Version, dep.DB, dep.Redis)
	healthHandler.RegisterRoutes(r)

	if dep.LocalRoot != "" {
		r.Static("/files", dep.LocalRoot)
	}

	api := r.Group("/api")

	projectRepo := projrepo.NewRepo(dep.DB)
	projectSvc := projservice.NewProjectService(projectRepo)

	projectsGroup := api.Group("/projects")
	projhttp.New(projectSvc).Register(projectsGroup)

	var records *exprepo.RecordRepository
	if dep.Redis != nil {
		records = exprepo.NewRecordRepository(dep.Redis, dep.ExportTTL)
	}

	exportSvc := expservice.NewExportService(
		projectRepo, dep.Blobs, records,
		pdf.NewRenderer(), pptx.NewRenderer(), dep.BaseURL)

	limiter := middleware.RateLimitMiddleware(rate.Limit(dep.ExportRPS), dep.ExportBurst)
	exphttp.New(exportSvc).Register(projectsGroup, limiter)

	return r
}
