package services

import (
	"go.opentelemetry.io/otel/attribute"
	"gorm.io/gorm"

	"github.com/yungbote/casetree-backend/internal/data/repos"
	types "github.com/yungbote/casetree-backend/internal/domain"
	"github.com/yungbote/casetree-backend/internal/observability"
	"github.com/yungbote/casetree-backend/internal/platform/apierr"
	"github.com/yungbote/casetree-backend/internal/platform/dbctx"
	"github.com/yungbote/casetree-backend/internal/platform/logger"
)

const rootFolderDetail = "Auto-created root folder"

type CaseService interface {
	ListByFolder(dbc dbctx.Context, folderID int64, filter repos.CaseFilter) ([]*types.Case, error)
	ListRecursive(dbc dbctx.Context, folderID int64) ([]*types.Case, error)
	CountByProject(dbc dbctx.Context, projectID int64) (int64, error)
	Search(dbc dbctx.Context, projectID int64, filter repos.CaseFilter, isDeleted bool) ([]*types.Case, error)

	BulkDelete(dbc dbctx.Context, projectID int64, caseIDs []int64) error
	// BulkRestore clears the deleted flag of the given cases, moving cases
	// whose folder is gone into the project's root folder first. A case whose
	// folder is gone is only restored into the project it was deleted from.
	BulkRestore(dbc dbctx.Context, projectID int64, caseIDs []int64) error
	MoveCases(dbc dbctx.Context, projectID int64, caseIDs []int64, targetFolderID int64) error
}

type caseService struct {
	db       *gorm.DB
	log      *logger.Logger
	projects repos.ProjectRepo
	folders  repos.FolderRepo
	cases    repos.CaseRepo
	tree     FolderService
}

func NewCaseService(
	db *gorm.DB,
	baseLog *logger.Logger,
	projects repos.ProjectRepo,
	folders repos.FolderRepo,
	cases repos.CaseRepo,
	tree FolderService,
) CaseService {
	return &caseService{
		db:       db,
		log:      baseLog.With("service", "CaseService"),
		projects: projects,
		folders:  folders,
		cases:    cases,
		tree:     tree,
	}
}

func (s *caseService) ListByFolder(dbc dbctx.Context, folderID int64, filter repos.CaseFilter) ([]*types.Case, error) {
	if err := s.requireFolder(dbc, folderID); err != nil {
		return nil, err
	}
	return s.cases.ListByFolderIDs(dbc, []int64{folderID}, filter)
}

func (s *caseService) ListRecursive(dbc dbctx.Context, folderID int64) ([]*types.Case, error) {
	if err := s.requireFolder(dbc, folderID); err != nil {
		return nil, err
	}
	ids, err := s.tree.DescendantIDs(dbc, folderID)
	if err != nil {
		return nil, err
	}
	return s.cases.ListByFolderIDs(dbc, ids, repos.CaseFilter{})
}

func (s *caseService) CountByProject(dbc dbctx.Context, projectID int64) (int64, error) {
	if projectID <= 0 {
		return 0, apierr.Validation("projectId is required")
	}
	return s.cases.CountByProject(dbc, projectID)
}

func (s *caseService) Search(dbc dbctx.Context, projectID int64, filter repos.CaseFilter, isDeleted bool) ([]*types.Case, error) {
	if projectID <= 0 {
		return nil, apierr.Validation("projectId is required")
	}
	return s.cases.Search(dbc, projectID, filter, isDeleted)
}

func (s *caseService) BulkDelete(dbc dbctx.Context, projectID int64, caseIDs []int64) error {
	if projectID <= 0 {
		return apierr.Validation("projectId is required")
	}
	if len(caseIDs) == 0 {
		return nil
	}
	var n int64
	err := dbctx.Run(dbc, s.db, func(dbc dbctx.Context) error {
		rows, err := s.cases.GetByIDs(dbc, caseIDs)
		if err != nil {
			return err
		}
		inProject, err := s.filterByProject(dbc, projectID, rows)
		if err != nil {
			return err
		}
		n, err = s.cases.SoftDeleteByIDs(dbc, projectID, caseIDsOf(inProject))
		return err
	})
	if err != nil {
		return err
	}
	observability.Current().AddCasesSoftDeleted("bulk_delete", n)
	return nil
}

func (s *caseService) BulkRestore(dbc dbctx.Context, projectID int64, caseIDs []int64) (err error) {
	ctx, span := observability.StartSpan(dbc.Ctx, "casetree.bulk_restore",
		attribute.Int64("project_id", projectID),
		attribute.Int("cases", len(caseIDs)),
	)
	defer func() { observability.EndSpan(span, err) }()
	dbc.Ctx = ctx

	if projectID <= 0 {
		return apierr.Validation("projectId is required")
	}
	if len(caseIDs) == 0 {
		return nil
	}

	var restored, relocated int64
	err = dbctx.Run(dbc, s.db, func(dbc dbctx.Context) error {
		targets, err := s.cases.GetDeletedByIDs(dbc, caseIDs)
		if err != nil {
			return err
		}
		if len(targets) == 0 {
			return nil
		}

		folderIDs := make([]int64, 0, len(targets))
		seen := map[int64]struct{}{}
		for _, c := range targets {
			if _, dup := seen[c.FolderID]; !dup {
				seen[c.FolderID] = struct{}{}
				folderIDs = append(folderIDs, c.FolderID)
			}
		}
		existing, err := s.folders.GetByIDs(dbc, folderIDs)
		if err != nil {
			return err
		}
		folderProject := make(map[int64]int64, len(existing))
		for _, f := range existing {
			folderProject[f.ID] = f.ProjectID
		}

		var orphans, restore []int64
		for _, c := range targets {
			pid, ok := folderProject[c.FolderID]
			switch {
			case !ok && c.DeletedFromProjectID != nil && *c.DeletedFromProjectID == projectID:
				orphans = append(orphans, c.ID)
				restore = append(restore, c.ID)
			case !ok:
				s.log.Debug("skipping restore of orphaned case deleted from another project", "case_id", c.ID)
			case pid == projectID:
				restore = append(restore, c.ID)
			default:
				s.log.Debug("skipping restore of case from another project", "case_id", c.ID, "project_id", pid)
			}
		}

		if len(orphans) > 0 {
			root, err := s.resolveRoot(dbc, projectID)
			if err != nil {
				return err
			}
			if err := s.cases.ReassignFolder(dbc, orphans, root.ID); err != nil {
				return err
			}
			relocated = int64(len(orphans))
			s.log.Info("relocated orphaned cases to root folder",
				"project_id", projectID, "folder_id", root.ID, "cases", len(orphans))
		}

		restored, err = s.cases.RestoreByIDs(dbc, restore)
		return err
	})
	if err != nil {
		return err
	}
	observability.Current().AddCasesRestored(true, relocated)
	observability.Current().AddCasesRestored(false, restored-relocated)
	return nil
}

// resolveRoot picks the project's null-parent folder, else any folder of the
// project, else creates a root folder.
func (s *caseService) resolveRoot(dbc dbctx.Context, projectID int64) (*types.Folder, error) {
	root, err := s.folders.FindRoot(dbc, projectID)
	if err != nil {
		return nil, err
	}
	if root != nil {
		observability.Current().IncRootResolution("existing_root")
		return root, nil
	}
	root, err = s.folders.FindAnyInProject(dbc, projectID)
	if err != nil {
		return nil, err
	}
	if root != nil {
		observability.Current().IncRootResolution("any_folder")
		return root, nil
	}

	project, err := s.projects.GetByID(dbc, projectID)
	if err != nil {
		return nil, err
	}
	if project == nil {
		return nil, apierr.NotFound("project")
	}
	rows, err := s.folders.Create(dbc, []*types.Folder{{
		Name:      types.RootFolderName,
		Detail:    rootFolderDetail,
		ProjectID: projectID,
	}})
	if err != nil {
		return nil, err
	}
	observability.Current().IncRootResolution("created")
	return rows[0], nil
}

func (s *caseService) MoveCases(dbc dbctx.Context, projectID int64, caseIDs []int64, targetFolderID int64) error {
	if projectID <= 0 {
		return apierr.Validation("projectId is required")
	}
	if targetFolderID <= 0 {
		return apierr.Validation("targetFolderId is required")
	}
	if len(caseIDs) == 0 {
		return nil
	}
	return dbctx.Run(dbc, s.db, func(dbc dbctx.Context) error {
		target, err := s.folders.GetByID(dbc, targetFolderID)
		if err != nil {
			return err
		}
		if target == nil {
			return apierr.NotFound("folder")
		}
		if target.ProjectID != projectID {
			return apierr.Validation("folder %d belongs to another project", targetFolderID)
		}
		rows, err := s.cases.GetByIDs(dbc, caseIDs)
		if err != nil {
			return err
		}
		inProject, err := s.filterByProject(dbc, projectID, rows)
		if err != nil {
			return err
		}
		if len(inProject) != len(uniqueIDs(caseIDs)) {
			return apierr.Validation("every case must exist in project %d", projectID)
		}
		return s.cases.ReassignFolder(dbc, caseIDsOf(inProject), targetFolderID)
	})
}

func (s *caseService) requireFolder(dbc dbctx.Context, folderID int64) error {
	if folderID <= 0 {
		return apierr.Validation("folderId is required")
	}
	f, err := s.folders.GetByID(dbc, folderID)
	if err != nil {
		return err
	}
	if f == nil {
		return apierr.NotFound("folder")
	}
	return nil
}

// filterByProject keeps the cases whose folder exists in projectID.
func (s *caseService) filterByProject(dbc dbctx.Context, projectID int64, rows []*types.Case) ([]*types.Case, error) {
	folderIDs := make([]int64, 0, len(rows))
	for _, c := range rows {
		folderIDs = append(folderIDs, c.FolderID)
	}
	folders, err := s.folders.GetByIDs(dbc, uniqueIDs(folderIDs))
	if err != nil {
		return nil, err
	}
	ok := make(map[int64]bool, len(folders))
	for _, f := range folders {
		ok[f.ID] = f.ProjectID == projectID
	}
	out := make([]*types.Case, 0, len(rows))
	for _, c := range rows {
		if ok[c.FolderID] {
			out = append(out, c)
		}
	}
	return out, nil
}

func caseIDsOf(rows []*types.Case) []int64 {
	out := make([]int64, 0, len(rows))
	for _, c := range rows {
		out = append(out, c.ID)
	}
	return out
}

func uniqueIDs(ids []int64) []int64 {
	seen := make(map[int64]struct{}, len(ids))
	out := make([]int64, 0, len(ids))
	for _, id := range ids {
		if _, dup := seen[id]; dup {
			continue
		}
		seen[id] = struct{}{}
		out = append(out, id)
	}
	return out
}
