package testmgmt

import (
	"gorm.io/gorm"

	types "github.com/yungbote/casetree-backend/internal/domain"
	"github.com/yungbote/casetree-backend/internal/platform/dbctx"
	"github.com/yungbote/casetree-backend/internal/platform/logger"
)

type CaseStepRepo interface {
	Create(dbc dbctx.Context, row *types.CaseStep) (*types.CaseStep, error)

	// ListByCase returns the case's links with their steps preloaded,
	// ordered by stepNo.
	ListByCase(dbc dbctx.Context, caseID int64) ([]*types.CaseStep, error)
	StepIDsForCase(dbc dbctx.Context, caseID int64) ([]int64, error)

	UpdateStepNo(dbc dbctx.Context, caseID, stepID int64, stepNo int) error
	UpdateStepNoByIDs(dbc dbctx.Context, stepNos map[int64]int) error
	DeleteByCaseAndStep(dbc dbctx.Context, caseID, stepID int64) (int64, error)
}

type caseStepRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewCaseStepRepo(db *gorm.DB, baseLog *logger.Logger) CaseStepRepo {
	return &caseStepRepo{db: db, log: baseLog.With("repo", "CaseStepRepo")}
}

func (r *caseStepRepo) Create(dbc dbctx.Context, row *types.CaseStep) (*types.CaseStep, error) {
	t := dbc.Tx
	if t == nil {
		t = r.db
	}
	if err := t.WithContext(dbc.Ctx).Create(row).Error; err != nil {
		return nil, err
	}
	return row, nil
}

func (r *caseStepRepo) ListByCase(dbc dbctx.Context, caseID int64) ([]*types.CaseStep, error) {
	t := dbc.Tx
	if t == nil {
		t = r.db
	}
	var out []*types.CaseStep
	if err := t.WithContext(dbc.Ctx).
		Preload("Step").
		Where("case_id = ?", caseID).
		Order("step_no ASC, step_id ASC").
		Find(&out).Error; err != nil {
		return nil, err
	}
	return out, nil
}

func (r *caseStepRepo) StepIDsForCase(dbc dbctx.Context, caseID int64) ([]int64, error) {
	t := dbc.Tx
	if t == nil {
		t = r.db
	}
	var out []int64
	if err := t.WithContext(dbc.Ctx).
		Model(&types.CaseStep{}).
		Where("case_id = ?", caseID).
		Pluck("step_id", &out).Error; err != nil {
		return nil, err
	}
	return out, nil
}

func (r *caseStepRepo) UpdateStepNo(dbc dbctx.Context, caseID, stepID int64, stepNo int) error {
	t := dbc.Tx
	if t == nil {
		t = r.db
	}
	return t.WithContext(dbc.Ctx).
		Model(&types.CaseStep{}).
		Where("case_id = ? AND step_id = ?", caseID, stepID).
		Update("step_no", stepNo).Error
}

// UpdateStepNoByIDs writes stepNo per case-step id.
func (r *caseStepRepo) UpdateStepNoByIDs(dbc dbctx.Context, stepNos map[int64]int) error {
	t := dbc.Tx
	if t == nil {
		t = r.db
	}
	for id, no := range stepNos {
		if err := t.WithContext(dbc.Ctx).
			Model(&types.CaseStep{}).
			Where("id = ?", id).
			Update("step_no", no).Error; err != nil {
			return err
		}
	}
	return nil
}

func (r *caseStepRepo) DeleteByCaseAndStep(dbc dbctx.Context, caseID, stepID int64) (int64, error) {
	t := dbc.Tx
	if t == nil {
		t = r.db
	}
	res := t.WithContext(dbc.Ctx).
		Where("case_id = ? AND step_id = ?", caseID, stepID).
		Delete(&types.CaseStep{})
	return res.RowsAffected, res.Error
}
