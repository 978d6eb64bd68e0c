package testmgmt

import (
	"strings"

	"gorm.io/gorm"

	types "github.com/yungbote/casetree-backend/internal/domain"
	"github.com/yungbote/casetree-backend/internal/platform/dbctx"
	"github.com/yungbote/casetree-backend/internal/platform/logger"
)

// MaxSearchTermLen caps the search term before it reaches the LIKE clause.
const MaxSearchTermLen = 100

// CaseFilter narrows a case listing. Zero fields match every case.
type CaseFilter struct {
	Term       string
	Priorities []int
	Types      []int
}

type CaseRepo interface {
	Create(dbc dbctx.Context, rows []*types.Case) ([]*types.Case, error)

	GetByID(dbc dbctx.Context, id int64) (*types.Case, error)
	GetByIDs(dbc dbctx.Context, ids []int64) ([]*types.Case, error)
	GetDeletedByIDs(dbc dbctx.Context, ids []int64) ([]*types.Case, error)
	ListByFolderIDs(dbc dbctx.Context, folderIDs []int64, filter CaseFilter) ([]*types.Case, error)

	CountByProject(dbc dbctx.Context, projectID int64) (int64, error)
	Search(dbc dbctx.Context, projectID int64, filter CaseFilter, isDeleted bool) ([]*types.Case, error)

	// SoftDeleteByIDs and SoftDeleteByFolderIDs record projectID on every case
	// they mark deleted.
	SoftDeleteByIDs(dbc dbctx.Context, projectID int64, ids []int64) (int64, error)
	SoftDeleteByFolderIDs(dbc dbctx.Context, projectID int64, folderIDs []int64) (int64, error)
	RestoreByIDs(dbc dbctx.Context, ids []int64) (int64, error)
	ReassignFolder(dbc dbctx.Context, ids []int64, folderID int64) error
}

type caseRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewCaseRepo(db *gorm.DB, baseLog *logger.Logger) CaseRepo {
	return &caseRepo{db: db, log: baseLog.With("repo", "CaseRepo")}
}

func (r *caseRepo) Create(dbc dbctx.Context, rows []*types.Case) ([]*types.Case, error) {
	t := dbc.Tx
	if t == nil {
		t = r.db
	}
	if len(rows) == 0 {
		return []*types.Case{}, nil
	}
	if err := t.WithContext(dbc.Ctx).Create(&rows).Error; err != nil {
		return nil, err
	}
	return rows, nil
}

func (r *caseRepo) GetByID(dbc dbctx.Context, id int64) (*types.Case, error) {
	if id <= 0 {
		return nil, nil
	}
	rows, err := r.GetByIDs(dbc, []int64{id})
	if err != nil {
		return nil, err
	}
	if len(rows) == 0 {
		return nil, nil
	}
	return rows[0], nil
}

func (r *caseRepo) GetByIDs(dbc dbctx.Context, ids []int64) ([]*types.Case, error) {
	t := dbc.Tx
	if t == nil {
		t = r.db
	}
	var out []*types.Case
	if len(ids) == 0 {
		return out, nil
	}
	if err := t.WithContext(dbc.Ctx).Where("id IN ?", ids).Order("id ASC").Find(&out).Error; err != nil {
		return nil, err
	}
	return out, nil
}

func (r *caseRepo) GetDeletedByIDs(dbc dbctx.Context, ids []int64) ([]*types.Case, error) {
	t := dbc.Tx
	if t == nil {
		t = r.db
	}
	var out []*types.Case
	if len(ids) == 0 {
		return out, nil
	}
	if err := t.WithContext(dbc.Ctx).
		Where("id IN ? AND is_deleted = ?", ids, true).
		Order("id ASC").
		Find(&out).Error; err != nil {
		return nil, err
	}
	return out, nil
}

// ListByFolderIDs returns the non-deleted cases of the given folders.
func (r *caseRepo) ListByFolderIDs(dbc dbctx.Context, folderIDs []int64, filter CaseFilter) ([]*types.Case, error) {
	t := dbc.Tx
	if t == nil {
		t = r.db
	}
	var out []*types.Case
	if len(folderIDs) == 0 {
		return out, nil
	}
	q := t.WithContext(dbc.Ctx).
		Model(&types.Case{}).
		Where("cases.folder_id IN ? AND cases.is_deleted = ?", folderIDs, false)
	if err := applyFilter(q, filter).Order("cases.id ASC").Find(&out).Error; err != nil {
		return nil, err
	}
	return out, nil
}

func (r *caseRepo) CountByProject(dbc dbctx.Context, projectID int64) (int64, error) {
	t := dbc.Tx
	if t == nil {
		t = r.db
	}
	var n int64
	err := t.WithContext(dbc.Ctx).
		Model(&types.Case{}).
		Joins("JOIN folders ON folders.id = cases.folder_id").
		Where("folders.project_id = ? AND cases.is_deleted = ?", projectID, false).
		Count(&n).Error
	return n, err
}

// Search matches title or description within a project. Deleted cases whose
// folder has been removed are found through the project they were deleted from.
func (r *caseRepo) Search(dbc dbctx.Context, projectID int64, filter CaseFilter, isDeleted bool) ([]*types.Case, error) {
	t := dbc.Tx
	if t == nil {
		t = r.db
	}
	q := t.WithContext(dbc.Ctx).
		Model(&types.Case{}).
		Joins("LEFT JOIN folders ON folders.id = cases.folder_id").
		Where("cases.is_deleted = ?", isDeleted).
		Where("(folders.project_id = ? OR (folders.id IS NULL AND cases.deleted_from_project_id = ?))", projectID, projectID)
	var out []*types.Case
	if err := applyFilter(q, filter).Order("cases.id ASC").Find(&out).Error; err != nil {
		return nil, err
	}
	return out, nil
}

// applyFilter trims the term to MaxSearchTermLen and adds the filter clauses.
func applyFilter(q *gorm.DB, f CaseFilter) *gorm.DB {
	term := strings.TrimSpace(f.Term)
	if len(term) > MaxSearchTermLen {
		term = term[:MaxSearchTermLen]
	}
	if term != "" {
		like := "%" + term + "%"
		q = q.Where("(cases.title LIKE ? OR cases.description LIKE ?)", like, like)
	}
	if len(f.Priorities) > 0 {
		q = q.Where("cases.priority IN ?", f.Priorities)
	}
	if len(f.Types) > 0 {
		q = q.Where("cases.type IN ?", f.Types)
	}
	return q
}

func (r *caseRepo) SoftDeleteByIDs(dbc dbctx.Context, projectID int64, ids []int64) (int64, error) {
	t := dbc.Tx
	if t == nil {
		t = r.db
	}
	if len(ids) == 0 {
		return 0, nil
	}
	res := t.WithContext(dbc.Ctx).
		Model(&types.Case{}).
		Where("id IN ? AND is_deleted = ?", ids, false).
		Updates(map[string]interface{}{"is_deleted": true, "deleted_from_project_id": projectID})
	return res.RowsAffected, res.Error
}

// SoftDeleteByFolderIDs also stamps projectID on cases of the folders that
// were deleted earlier without one, so they stay restorable once the folders
// are gone.
func (r *caseRepo) SoftDeleteByFolderIDs(dbc dbctx.Context, projectID int64, folderIDs []int64) (int64, error) {
	t := dbc.Tx
	if t == nil {
		t = r.db
	}
	if len(folderIDs) == 0 {
		return 0, nil
	}
	res := t.WithContext(dbc.Ctx).
		Model(&types.Case{}).
		Where("folder_id IN ? AND is_deleted = ?", folderIDs, false).
		Updates(map[string]interface{}{"is_deleted": true, "deleted_from_project_id": projectID})
	if res.Error != nil {
		return 0, res.Error
	}
	err := t.WithContext(dbc.Ctx).
		Model(&types.Case{}).
		Where("folder_id IN ? AND is_deleted = ? AND deleted_from_project_id IS NULL", folderIDs, true).
		Update("deleted_from_project_id", projectID).Error
	return res.RowsAffected, err
}

func (r *caseRepo) RestoreByIDs(dbc dbctx.Context, ids []int64) (int64, error) {
	t := dbc.Tx
	if t == nil {
		t = r.db
	}
	if len(ids) == 0 {
		return 0, nil
	}
	res := t.WithContext(dbc.Ctx).
		Model(&types.Case{}).
		Where("id IN ? AND is_deleted = ?", ids, true).
		Updates(map[string]interface{}{"is_deleted": false, "deleted_from_project_id": nil})
	return res.RowsAffected, res.Error
}

func (r *caseRepo) ReassignFolder(dbc dbctx.Context, ids []int64, folderID int64) error {
	t := dbc.Tx
	if t == nil {
		t = r.db
	}
	if len(ids) == 0 {
		return nil
	}
	return t.WithContext(dbc.Ctx).
		Model(&types.Case{}).
		Where("id IN ?", ids).
		Update("folder_id", folderID).Error
}
