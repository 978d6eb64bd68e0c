package testmgmt

import (
	"gorm.io/gorm"

	types "github.com/yungbote/casetree-backend/internal/domain"
	"github.com/yungbote/casetree-backend/internal/platform/dbctx"
	"github.com/yungbote/casetree-backend/internal/platform/logger"
)

type FolderRepo interface {
	Create(dbc dbctx.Context, rows []*types.Folder) ([]*types.Folder, error)

	GetByID(dbc dbctx.Context, id int64) (*types.Folder, error)
	GetByIDs(dbc dbctx.Context, ids []int64) ([]*types.Folder, error)
	ListByProject(dbc dbctx.Context, projectID int64) ([]*types.Folder, error)

	// ChildIDs returns the ids of every folder whose parent is in parentIDs.
	ChildIDs(dbc dbctx.Context, parentIDs []int64) ([]int64, error)
	// ParentOf returns the parent id of a folder; found is false when the
	// folder does not exist.
	ParentOf(dbc dbctx.Context, id int64) (parent *int64, found bool, err error)

	FindRoot(dbc dbctx.Context, projectID int64) (*types.Folder, error)
	FindAnyInProject(dbc dbctx.Context, projectID int64) (*types.Folder, error)

	UpdateFields(dbc dbctx.Context, id int64, updates map[string]interface{}) error
	FullDeleteByIDs(dbc dbctx.Context, ids []int64) (int64, error)
}

type folderRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewFolderRepo(db *gorm.DB, baseLog *logger.Logger) FolderRepo {
	return &folderRepo{db: db, log: baseLog.With("repo", "FolderRepo")}
}

func (r *folderRepo) Create(dbc dbctx.Context, rows []*types.Folder) ([]*types.Folder, error) {
	t := dbc.Tx
	if t == nil {
		t = r.db
	}
	if len(rows) == 0 {
		return []*types.Folder{}, nil
	}
	if err := t.WithContext(dbc.Ctx).Create(&rows).Error; err != nil {
		return nil, err
	}
	return rows, nil
}

func (r *folderRepo) GetByID(dbc dbctx.Context, id int64) (*types.Folder, error) {
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

func (r *folderRepo) GetByIDs(dbc dbctx.Context, ids []int64) ([]*types.Folder, error) {
	t := dbc.Tx
	if t == nil {
		t = r.db
	}
	var out []*types.Folder
	if len(ids) == 0 {
		return out, nil
	}
	if err := t.WithContext(dbc.Ctx).Where("id IN ?", ids).Find(&out).Error; err != nil {
		return nil, err
	}
	return out, nil
}

func (r *folderRepo) ListByProject(dbc dbctx.Context, projectID int64) ([]*types.Folder, error) {
	t := dbc.Tx
	if t == nil {
		t = r.db
	}
	var out []*types.Folder
	if err := t.WithContext(dbc.Ctx).
		Where("project_id = ?", projectID).
		Order("id ASC").
		Find(&out).Error; err != nil {
		return nil, err
	}
	return out, nil
}

func (r *folderRepo) ChildIDs(dbc dbctx.Context, parentIDs []int64) ([]int64, error) {
	t := dbc.Tx
	if t == nil {
		t = r.db
	}
	var out []int64
	if len(parentIDs) == 0 {
		return out, nil
	}
	if err := t.WithContext(dbc.Ctx).
		Model(&types.Folder{}).
		Where("parent_folder_id IN ?", parentIDs).
		Order("id ASC").
		Pluck("id", &out).Error; err != nil {
		return nil, err
	}
	return out, nil
}

func (r *folderRepo) ParentOf(dbc dbctx.Context, id int64) (*int64, bool, error) {
	row, err := r.GetByID(dbc, id)
	if err != nil {
		return nil, false, err
	}
	if row == nil {
		return nil, false, nil
	}
	return row.ParentFolderID, true, nil
}

func (r *folderRepo) FindRoot(dbc dbctx.Context, projectID int64) (*types.Folder, error) {
	t := dbc.Tx
	if t == nil {
		t = r.db
	}
	var out []*types.Folder
	if err := t.WithContext(dbc.Ctx).
		Where("project_id = ? AND parent_folder_id IS NULL", projectID).
		Order("id ASC").
		Limit(1).
		Find(&out).Error; err != nil {
		return nil, err
	}
	if len(out) == 0 {
		return nil, nil
	}
	return out[0], nil
}

func (r *folderRepo) FindAnyInProject(dbc dbctx.Context, projectID int64) (*types.Folder, error) {
	t := dbc.Tx
	if t == nil {
		t = r.db
	}
	var out []*types.Folder
	if err := t.WithContext(dbc.Ctx).
		Where("project_id = ?", projectID).
		Order("id ASC").
		Limit(1).
		Find(&out).Error; err != nil {
		return nil, err
	}
	if len(out) == 0 {
		return nil, nil
	}
	return out[0], nil
}

func (r *folderRepo) UpdateFields(dbc dbctx.Context, id int64, updates map[string]interface{}) error {
	t := dbc.Tx
	if t == nil {
		t = r.db
	}
	if len(updates) == 0 {
		return nil
	}
	return t.WithContext(dbc.Ctx).
		Model(&types.Folder{}).
		Where("id = ?", id).
		Updates(updates).Error
}

func (r *folderRepo) FullDeleteByIDs(dbc dbctx.Context, ids []int64) (int64, error) {
	t := dbc.Tx
	if t == nil {
		t = r.db
	}
	if len(ids) == 0 {
		return 0, nil
	}
	res := t.WithContext(dbc.Ctx).Where("id IN ?", ids).Delete(&types.Folder{})
	return res.RowsAffected, res.Error
}
