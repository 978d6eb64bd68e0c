package http

import (
	"github.com/gin-gonic/gin"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"

	httpH "github.com/yungbote/casetree-backend/internal/http/handlers"
	httpMW "github.com/yungbote/casetree-backend/internal/http/middleware"
	"github.com/yungbote/casetree-backend/internal/observability"
	"github.com/yungbote/casetree-backend/internal/platform/logger"
)

type RouterConfig struct {
	Log            *logger.Logger
	ServiceName    string
	AllowedOrigins []string
	Metrics        *observability.Metrics

	AuthMiddleware *httpMW.AuthMiddleware
	ProjectAccess  *httpMW.ProjectAccess

	StepHandler   *httpH.StepHandler
	FolderHandler *httpH.FolderHandler
	CaseHandler   *httpH.CaseHandler
	HealthHandler *httpH.HealthHandler
}

func NewRouter(cfg RouterConfig) *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery())
	if cfg.ServiceName != "" {
		r.Use(otelgin.Middleware(cfg.ServiceName))
	}
	r.Use(httpMW.AttachTraceContext())
	r.Use(httpMW.RequestLogger(cfg.Log))
	r.Use(httpMW.Metrics(cfg.Metrics))
	r.Use(httpMW.CORS(cfg.AllowedOrigins...))

	// Health
	if cfg.HealthHandler != nil {
		r.GET("/healthcheck", cfg.HealthHandler.HealthCheck)
	}
	if cfg.Metrics != nil {
		r.GET("/metrics", gin.WrapF(cfg.Metrics.WriteHTTP))
	}

	api := r.Group("/api")
	if cfg.AuthMiddleware != nil {
		api.Use(cfg.AuthMiddleware.RequireAuth())
	}
	if cfg.ProjectAccess != nil {
		api.Use(cfg.ProjectAccess.Require())
	}
	{
		// Steps
		if cfg.StepHandler != nil {
			api.GET("/steps", cfg.StepHandler.ListSteps)
			api.POST("/steps/update", cfg.StepHandler.UpdateSteps)
		}

		// Folders
		if cfg.FolderHandler != nil {
			api.GET("/folders", cfg.FolderHandler.ListFolders)
			api.POST("/folders", cfg.FolderHandler.CreateFolder)
			api.PUT("/folders/:folderId", cfg.FolderHandler.MoveFolder)
			api.DELETE("/folders/:folderId", cfg.FolderHandler.DeleteFolder)
		}

		// Cases
		if cfg.CaseHandler != nil {
			api.GET("/cases", cfg.CaseHandler.ListByFolder)
			api.GET("/cases/recursive", cfg.CaseHandler.ListRecursive)
			api.GET("/cases/count", cfg.CaseHandler.Count)
			api.GET("/cases/search", cfg.CaseHandler.Search)
			api.POST("/cases/bulkdelete", cfg.CaseHandler.BulkDelete)
			api.POST("/cases/bulkrestore", cfg.CaseHandler.BulkRestore)
			api.POST("/cases/move", cfg.CaseHandler.MoveCases)
		}
	}

	return r
}
