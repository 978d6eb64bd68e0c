package app

import (
	"gorm.io/gorm"

	"github.com/yungbote/casetree-backend/internal/data/db"
	"github.com/yungbote/casetree-backend/internal/platform/logger"
	"github.com/yungbote/casetree-backend/internal/services"
)

type Services struct {
	Auth       services.AuthService
	Authorizer services.Authorizer
	Steps      services.StepService
	Folders    services.FolderService
	Cases      services.CaseService
}

func wireServices(gdb *gorm.DB, log *logger.Logger, cfg Config, r Repos) Services {
	log.Info("Wiring services...")
	toggle := db.NewConstraintToggle(gdb, log)
	folders := services.NewFolderService(gdb, log, r.Folder, r.Case, toggle)
	return Services{
		Auth:       services.NewAuthService(log, cfg.JWTSecretKey, cfg.AccessTokenTTL),
		Authorizer: services.NewAuthorizer(gdb, log, r.Project, r.Member, r.Folder, r.Case),
		Steps:      services.NewStepService(gdb, log, r.Case, r.Step, r.CaseStep),
		Folders:    folders,
		Cases:      services.NewCaseService(gdb, log, r.Project, r.Folder, r.Case, folders),
	}
}
