package testutil

import (
	"context"
	"testing"

	"gorm.io/gorm"

	types "github.com/yungbote/casetree-backend/internal/domain"
)

func SeedProject(tb testing.TB, ctx context.Context, tx *gorm.DB, ownerID int64) *types.Project {
	tb.Helper()
	p := &types.Project{Name: "project", UserID: ownerID}
	if err := tx.WithContext(ctx).Create(p).Error; err != nil {
		tb.Fatalf("seed project: %v", err)
	}
	return p
}

func SeedMember(tb testing.TB, ctx context.Context, tx *gorm.DB, projectID, userID int64, role types.MemberRole) *types.Member {
	tb.Helper()
	m := &types.Member{ProjectID: projectID, UserID: userID, Role: role}
	if err := tx.WithContext(ctx).Create(m).Error; err != nil {
		tb.Fatalf("seed member: %v", err)
	}
	return m
}

func SeedFolder(tb testing.TB, ctx context.Context, tx *gorm.DB, projectID int64, parentID *int64, name string) *types.Folder {
	tb.Helper()
	f := &types.Folder{Name: name, ProjectID: projectID, ParentFolderID: parentID}
	if err := tx.WithContext(ctx).Create(f).Error; err != nil {
		tb.Fatalf("seed folder: %v", err)
	}
	return f
}

func SeedCase(tb testing.TB, ctx context.Context, tx *gorm.DB, folderID int64, title string) *types.Case {
	tb.Helper()
	c := &types.Case{Title: title, FolderID: folderID}
	if err := tx.WithContext(ctx).Create(c).Error; err != nil {
		tb.Fatalf("seed case: %v", err)
	}
	return c
}

// SeedStep creates a step and links it to caseID at stepNo.
func SeedStep(tb testing.TB, ctx context.Context, tx *gorm.DB, caseID int64, text string, parentID *int64, stepNo int) *types.Step {
	tb.Helper()
	s := &types.Step{Step: text, Result: text + " ok", ParentStepID: parentID}
	if err := tx.WithContext(ctx).Create(s).Error; err != nil {
		tb.Fatalf("seed step: %v", err)
	}
	link := &types.CaseStep{CaseID: caseID, StepID: s.ID, StepNo: stepNo}
	if err := tx.WithContext(ctx).Create(link).Error; err != nil {
		tb.Fatalf("seed case step: %v", err)
	}
	return s
}

func Int64Ptr(v int64) *int64 { return &v }
