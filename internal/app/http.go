package app

import (
	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"github.com/yungbote/casetree-backend/internal/http"
	httpH "github.com/yungbote/casetree-backend/internal/http/handlers"
	httpMW "github.com/yungbote/casetree-backend/internal/http/middleware"
	"github.com/yungbote/casetree-backend/internal/observability"
	"github.com/yungbote/casetree-backend/internal/platform/logger"
)

const serviceName = "casetree"

type Middleware struct {
	Auth          *httpMW.AuthMiddleware
	ProjectAccess *httpMW.ProjectAccess
}

type Handlers struct {
	Health *httpH.HealthHandler
	Steps  *httpH.StepHandler
	Folder *httpH.FolderHandler
	Case   *httpH.CaseHandler
}

func wireHandlers(log *logger.Logger, gdb *gorm.DB, services Services) Handlers {
	log.Info("Wiring handlers...")
	return Handlers{
		Health: httpH.NewHealthHandler(gdb),
		Steps:  httpH.NewStepHandler(services.Steps),
		Folder: httpH.NewFolderHandler(services.Folders),
		Case:   httpH.NewCaseHandler(services.Cases),
	}
}

func wireMiddleware(log *logger.Logger, services Services) Middleware {
	log.Info("Wiring middleware...")
	return Middleware{
		Auth:          httpMW.NewAuthMiddleware(log, services.Auth),
		ProjectAccess: httpMW.NewProjectAccess(log, services.Authorizer),
	}
}

func wireRouter(log *logger.Logger, cfg Config, metrics *observability.Metrics, handlers Handlers, middleware Middleware) *gin.Engine {
	return http.NewRouter(http.RouterConfig{
		Log:            log,
		ServiceName:    serviceName,
		AllowedOrigins: cfg.AllowedOrigins,
		Metrics:        metrics,
		AuthMiddleware: middleware.Auth,
		ProjectAccess:  middleware.ProjectAccess,
		StepHandler:    handlers.Steps,
		FolderHandler:  handlers.Folder,
		CaseHandler:    handlers.Case,
		HealthHandler:  handlers.Health,
	})
}
