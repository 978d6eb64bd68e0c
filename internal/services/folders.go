package services

import (
	"context"
	"strings"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"gorm.io/gorm"

	"github.com/yungbote/casetree-backend/internal/data/db"
	"github.com/yungbote/casetree-backend/internal/data/repos"
	types "github.com/yungbote/casetree-backend/internal/domain"
	"github.com/yungbote/casetree-backend/internal/modules/casetree"
	"github.com/yungbote/casetree-backend/internal/observability"
	"github.com/yungbote/casetree-backend/internal/platform/apierr"
	"github.com/yungbote/casetree-backend/internal/platform/dbctx"
	"github.com/yungbote/casetree-backend/internal/platform/logger"
)

type FolderInput struct {
	Name           string `json:"name"`
	Detail         string `json:"detail"`
	ProjectID      int64  `json:"projectId"`
	ParentFolderID *int64 `json:"parentFolderId"`
}

type FolderService interface {
	ListFolders(dbc dbctx.Context, projectID int64) ([]*types.Folder, error)
	CreateFolder(dbc dbctx.Context, in FolderInput) (*types.Folder, error)
	MoveFolder(dbc dbctx.Context, folderID int64, in FolderInput) (*types.Folder, error)
	// DeleteFolder soft-deletes every case under the folder's subtree and
	// removes the subtree's folder rows. It always runs in its own
	// transaction because foreign keys are suspended for it.
	DeleteFolder(ctx context.Context, folderID int64) error
	DescendantIDs(dbc dbctx.Context, folderID int64) ([]int64, error)
}

type folderService struct {
	db      *gorm.DB
	log     *logger.Logger
	folders repos.FolderRepo
	cases   repos.CaseRepo
	toggle  db.ConstraintToggle
}

func NewFolderService(
	gdb *gorm.DB,
	baseLog *logger.Logger,
	folders repos.FolderRepo,
	cases repos.CaseRepo,
	toggle db.ConstraintToggle,
) FolderService {
	return &folderService{
		db:      gdb,
		log:     baseLog.With("service", "FolderService"),
		folders: folders,
		cases:   cases,
		toggle:  toggle,
	}
}

func (s *folderService) ListFolders(dbc dbctx.Context, projectID int64) ([]*types.Folder, error) {
	if projectID <= 0 {
		return nil, apierr.Validation("projectId is required")
	}
	return s.folders.ListByProject(dbc, projectID)
}

func (s *folderService) CreateFolder(dbc dbctx.Context, in FolderInput) (*types.Folder, error) {
	if err := validateFolderInput(in); err != nil {
		return nil, err
	}
	var out *types.Folder
	err := dbctx.Run(dbc, s.db, func(dbc dbctx.Context) error {
		if err := s.checkParent(dbc, in); err != nil {
			return err
		}
		rows, err := s.folders.Create(dbc, []*types.Folder{{
			Name:           strings.TrimSpace(in.Name),
			Detail:         in.Detail,
			ProjectID:      in.ProjectID,
			ParentFolderID: in.ParentFolderID,
		}})
		if err != nil {
			return err
		}
		out = rows[0]
		return nil
	})
	return out, err
}

func (s *folderService) MoveFolder(dbc dbctx.Context, folderID int64, in FolderInput) (out *types.Folder, err error) {
	ctx, span := observability.StartSpan(dbc.Ctx, "casetree.move_folder", attribute.Int64("folder_id", folderID))
	defer func() {
		outcome := "ok"
		if err != nil {
			outcome = apierr.CodeOf(err)
		}
		observability.Current().IncFolderMove(outcome)
		observability.EndSpan(span, err)
	}()
	dbc.Ctx = ctx

	if err := validateFolderInput(in); err != nil {
		return nil, err
	}
	if in.ParentFolderID != nil && *in.ParentFolderID == folderID {
		return nil, apierr.InvalidMove("a folder cannot be its own parent")
	}

	err = dbctx.Run(dbc, s.db, func(dbc dbctx.Context) error {
		folder, err := s.folders.GetByID(dbc, folderID)
		if err != nil {
			return err
		}
		if folder == nil {
			return apierr.NotFound("folder")
		}
		if in.ProjectID != folder.ProjectID {
			return apierr.Validation("folder %d cannot change project", folderID)
		}
		if err := s.checkParent(dbc, in); err != nil {
			return err
		}
		if in.ParentFolderID != nil {
			parentOf := func(ctx context.Context, id int64) (*int64, bool, error) {
				return s.folders.ParentOf(dbctx.Context{Ctx: ctx, Tx: dbc.Tx}, id)
			}
			inside, err := casetree.HasAncestor(dbc.Ctx, *in.ParentFolderID, folderID, parentOf)
			if err != nil {
				return err
			}
			if inside {
				return apierr.InvalidMove("a folder cannot move into its own descendant")
			}
		}

		if err := s.folders.UpdateFields(dbc, folderID, map[string]interface{}{
			"name":             strings.TrimSpace(in.Name),
			"detail":           in.Detail,
			"project_id":       in.ProjectID,
			"parent_folder_id": in.ParentFolderID,
		}); err != nil {
			return err
		}
		out, err = s.folders.GetByID(dbc, folderID)
		return err
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

func (s *folderService) DeleteFolder(ctx context.Context, folderID int64) (err error) {
	ctx, span := observability.StartSpan(ctx, "casetree.delete_folder", attribute.Int64("folder_id", folderID))
	defer func() {
		outcome := "ok"
		if err != nil {
			outcome = apierr.CodeOf(err)
		}
		observability.Current().IncFolderDelete(outcome)
		observability.EndSpan(span, err)
	}()

	var (
		ids         []int64
		softDeleted int64
	)
	start := time.Now()
	err = s.toggle.WithForeignKeysDisabled(ctx, func(tx *gorm.DB) error {
		dbc := dbctx.Context{Ctx: ctx, Tx: tx}
		folder, err := s.folders.GetByID(dbc, folderID)
		if err != nil {
			return err
		}
		if folder == nil {
			return apierr.NotFound("folder")
		}
		ids, err = s.DescendantIDs(dbc, folderID)
		if err != nil {
			return err
		}
		softDeleted, err = s.cases.SoftDeleteByFolderIDs(dbc, folder.ProjectID, ids)
		if err != nil {
			return err
		}
		_, err = s.folders.FullDeleteByIDs(dbc, ids)
		return err
	})
	observability.Current().ObserveConstraintToggle(time.Since(start), err)
	if err != nil {
		return err
	}
	observability.Current().AddCasesSoftDeleted("folder_delete", softDeleted)
	s.log.Info("folder subtree deleted", "folder_id", folderID, "folders", len(ids), "cases_soft_deleted", softDeleted)
	return nil
}

func (s *folderService) DescendantIDs(dbc dbctx.Context, folderID int64) ([]int64, error) {
	children := func(ctx context.Context, parents []int64) ([]int64, error) {
		return s.folders.ChildIDs(dbctx.Context{Ctx: ctx, Tx: dbc.Tx}, parents)
	}
	return casetree.Descendants(dbc.Ctx, folderID, children)
}

// checkParent requires a non-nil parent to exist in the same project.
func (s *folderService) checkParent(dbc dbctx.Context, in FolderInput) error {
	if in.ParentFolderID == nil {
		return nil
	}
	parent, err := s.folders.GetByID(dbc, *in.ParentFolderID)
	if err != nil {
		return err
	}
	if parent == nil {
		return apierr.NotFound("parent folder")
	}
	if parent.ProjectID != in.ProjectID {
		return apierr.Validation("parent folder %d belongs to another project", parent.ID)
	}
	return nil
}

func validateFolderInput(in FolderInput) error {
	if strings.TrimSpace(in.Name) == "" {
		return apierr.Validation("name is required")
	}
	if in.ProjectID <= 0 {
		return apierr.Validation("projectId is required")
	}
	return nil
}
