package services

import (
	"gorm.io/gorm"

	"github.com/yungbote/casetree-backend/internal/data/repos"
	"github.com/yungbote/casetree-backend/internal/platform/apierr"
	"github.com/yungbote/casetree-backend/internal/platform/dbctx"
	"github.com/yungbote/casetree-backend/internal/platform/logger"
)

// Authorizer answers project-level permission questions. The project owner
// and managers or developers may edit; reporters may view; anyone may view a
// public project.
type Authorizer interface {
	CanView(dbc dbctx.Context, userID, projectID int64) (bool, error)
	CanEdit(dbc dbctx.Context, userID, projectID int64) (bool, error)

	ProjectIDForFolder(dbc dbctx.Context, folderID int64) (int64, error)
	ProjectIDForCase(dbc dbctx.Context, caseID int64) (int64, error)
}

type authorizer struct {
	db       *gorm.DB
	log      *logger.Logger
	projects repos.ProjectRepo
	members  repos.MemberRepo
	folders  repos.FolderRepo
	cases    repos.CaseRepo
}

func NewAuthorizer(
	db *gorm.DB,
	baseLog *logger.Logger,
	projects repos.ProjectRepo,
	members repos.MemberRepo,
	folders repos.FolderRepo,
	cases repos.CaseRepo,
) Authorizer {
	return &authorizer{
		db:       db,
		log:      baseLog.With("service", "Authorizer"),
		projects: projects,
		members:  members,
		folders:  folders,
		cases:    cases,
	}
}

func (a *authorizer) CanView(dbc dbctx.Context, userID, projectID int64) (bool, error) {
	project, err := a.projects.GetByID(dbc, projectID)
	if err != nil {
		return false, err
	}
	if project == nil {
		return false, apierr.NotFound("project")
	}
	if project.IsPublic || project.UserID == userID {
		return true, nil
	}
	member, err := a.members.GetByProjectAndUser(dbc, projectID, userID)
	if err != nil {
		return false, err
	}
	return member != nil, nil
}

func (a *authorizer) CanEdit(dbc dbctx.Context, userID, projectID int64) (bool, error) {
	project, err := a.projects.GetByID(dbc, projectID)
	if err != nil {
		return false, err
	}
	if project == nil {
		return false, apierr.NotFound("project")
	}
	if project.UserID == userID {
		return true, nil
	}
	member, err := a.members.GetByProjectAndUser(dbc, projectID, userID)
	if err != nil {
		return false, err
	}
	return member != nil && member.Role.CanEdit(), nil
}

func (a *authorizer) ProjectIDForFolder(dbc dbctx.Context, folderID int64) (int64, error) {
	f, err := a.folders.GetByID(dbc, folderID)
	if err != nil {
		return 0, err
	}
	if f == nil {
		return 0, apierr.NotFound("folder")
	}
	return f.ProjectID, nil
}

func (a *authorizer) ProjectIDForCase(dbc dbctx.Context, caseID int64) (int64, error) {
	c, err := a.cases.GetByID(dbc, caseID)
	if err != nil {
		return 0, err
	}
	if c == nil {
		return 0, apierr.NotFound("case")
	}
	return a.ProjectIDForFolder(dbc, c.FolderID)
}
