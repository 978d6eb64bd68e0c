package repos

import (
	"gorm.io/gorm"

	"github.com/yungbote/casetree-backend/internal/data/repos/testmgmt"
	"github.com/yungbote/casetree-backend/internal/platform/logger"
)

type ProjectRepo = testmgmt.ProjectRepo
type MemberRepo = testmgmt.MemberRepo
type FolderRepo = testmgmt.FolderRepo
type CaseRepo = testmgmt.CaseRepo
type CaseFilter = testmgmt.CaseFilter

const MaxSearchTermLen = testmgmt.MaxSearchTermLen

type StepRepo = testmgmt.StepRepo
type CaseStepRepo = testmgmt.CaseStepRepo

func NewProjectRepo(db *gorm.DB, baseLog *logger.Logger) ProjectRepo {
	return testmgmt.NewProjectRepo(db, baseLog)
}

func NewMemberRepo(db *gorm.DB, baseLog *logger.Logger) MemberRepo {
	return testmgmt.NewMemberRepo(db, baseLog)
}

func NewFolderRepo(db *gorm.DB, baseLog *logger.Logger) FolderRepo {
	return testmgmt.NewFolderRepo(db, baseLog)
}

func NewCaseRepo(db *gorm.DB, baseLog *logger.Logger) CaseRepo {
	return testmgmt.NewCaseRepo(db, baseLog)
}

func NewStepRepo(db *gorm.DB, baseLog *logger.Logger) StepRepo {
	return testmgmt.NewStepRepo(db, baseLog)
}

func NewCaseStepRepo(db *gorm.DB, baseLog *logger.Logger) CaseStepRepo {
	return testmgmt.NewCaseStepRepo(db, baseLog)
}
