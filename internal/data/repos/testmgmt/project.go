package testmgmt

import (
	"gorm.io/gorm"

	types "github.com/yungbote/casetree-backend/internal/domain"
	"github.com/yungbote/casetree-backend/internal/platform/dbctx"
	"github.com/yungbote/casetree-backend/internal/platform/logger"
)

type ProjectRepo interface {
	Create(dbc dbctx.Context, row *types.Project) (*types.Project, error)
	GetByID(dbc dbctx.Context, id int64) (*types.Project, error)
}

type projectRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewProjectRepo(db *gorm.DB, baseLog *logger.Logger) ProjectRepo {
	return &projectRepo{db: db, log: baseLog.With("repo", "ProjectRepo")}
}

func (r *projectRepo) Create(dbc dbctx.Context, row *types.Project) (*types.Project, error) {
	t := dbc.Tx
	if t == nil {
		t = r.db
	}
	if err := t.WithContext(dbc.Ctx).Create(row).Error; err != nil {
		return nil, err
	}
	return row, nil
}

func (r *projectRepo) GetByID(dbc dbctx.Context, id int64) (*types.Project, error) {
	t := dbc.Tx
	if t == nil {
		t = r.db
	}
	var out []*types.Project
	if err := t.WithContext(dbc.Ctx).Where("id = ?", id).Limit(1).Find(&out).Error; err != nil {
		return nil, err
	}
	if len(out) == 0 {
		return nil, nil
	}
	return out[0], nil
}

type MemberRepo interface {
	Create(dbc dbctx.Context, row *types.Member) (*types.Member, error)
	GetByProjectAndUser(dbc dbctx.Context, projectID, userID int64) (*types.Member, error)
}

type memberRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewMemberRepo(db *gorm.DB, baseLog *logger.Logger) MemberRepo {
	return &memberRepo{db: db, log: baseLog.With("repo", "MemberRepo")}
}

func (r *memberRepo) Create(dbc dbctx.Context, row *types.Member) (*types.Member, error) {
	t := dbc.Tx
	if t == nil {
		t = r.db
	}
	if err := t.WithContext(dbc.Ctx).Create(row).Error; err != nil {
		return nil, err
	}
	return row, nil
}

func (r *memberRepo) GetByProjectAndUser(dbc dbctx.Context, projectID, userID int64) (*types.Member, error) {
	t := dbc.Tx
	if t == nil {
		t = r.db
	}
	var out []*types.Member
	if err := t.WithContext(dbc.Ctx).
		Where("project_id = ? AND user_id = ?", projectID, userID).
		Limit(1).
		Find(&out).Error; err != nil {
		return nil, err
	}
	if len(out) == 0 {
		return nil, nil
	}
	return out[0], nil
}
