package app

import (
	"gorm.io/gorm"

	"github.com/yungbote/casetree-backend/internal/data/repos"
	"github.com/yungbote/casetree-backend/internal/platform/logger"
)

type Repos struct {
	Project  repos.ProjectRepo
	Member   repos.MemberRepo
	Folder   repos.FolderRepo
	Case     repos.CaseRepo
	Step     repos.StepRepo
	CaseStep repos.CaseStepRepo
}

func wireRepos(db *gorm.DB, log *logger.Logger) Repos {
	log.Info("Wiring repos...")
	return Repos{
		Project:  repos.NewProjectRepo(db, log),
		Member:   repos.NewMemberRepo(db, log),
		Folder:   repos.NewFolderRepo(db, log),
		Case:     repos.NewCaseRepo(db, log),
		Step:     repos.NewStepRepo(db, log),
		CaseStep: repos.NewCaseStepRepo(db, log),
	}
}
