package testmgmt

import (
	"gorm.io/gorm"

	types "github.com/yungbote/casetree-backend/internal/domain"
	"github.com/yungbote/casetree-backend/internal/platform/dbctx"
	"github.com/yungbote/casetree-backend/internal/platform/logger"
)

type StepRepo interface {
	Create(dbc dbctx.Context, row *types.Step) (*types.Step, error)
	GetByIDs(dbc dbctx.Context, ids []int64) ([]*types.Step, error)
	UpdateFields(dbc dbctx.Context, id int64, updates map[string]interface{}) error
	FullDeleteByIDs(dbc dbctx.Context, ids []int64) (int64, error)
}

type stepRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewStepRepo(db *gorm.DB, baseLog *logger.Logger) StepRepo {
	return &stepRepo{db: db, log: baseLog.With("repo", "StepRepo")}
}

func (r *stepRepo) Create(dbc dbctx.Context, row *types.Step) (*types.Step, error) {
	t := dbc.Tx
	if t == nil {
		t = r.db
	}
	if err := t.WithContext(dbc.Ctx).Create(row).Error; err != nil {
		return nil, err
	}
	return row, nil
}

func (r *stepRepo) GetByIDs(dbc dbctx.Context, ids []int64) ([]*types.Step, error) {
	t := dbc.Tx
	if t == nil {
		t = r.db
	}
	var out []*types.Step
	if len(ids) == 0 {
		return out, nil
	}
	if err := t.WithContext(dbc.Ctx).Where("id IN ?", ids).Find(&out).Error; err != nil {
		return nil, err
	}
	return out, nil
}

func (r *stepRepo) UpdateFields(dbc dbctx.Context, id int64, updates map[string]interface{}) error {
	t := dbc.Tx
	if t == nil {
		t = r.db
	}
	if len(updates) == 0 {
		return nil
	}
	return t.WithContext(dbc.Ctx).
		Model(&types.Step{}).
		Where("id = ?", id).
		Updates(updates).Error
}

func (r *stepRepo) FullDeleteByIDs(dbc dbctx.Context, ids []int64) (int64, error) {
	t := dbc.Tx
	if t == nil {
		t = r.db
	}
	if len(ids) == 0 {
		return 0, nil
	}
	res := t.WithContext(dbc.Ctx).Where("id IN ?", ids).Delete(&types.Step{})
	return res.RowsAffected, res.Error
}
