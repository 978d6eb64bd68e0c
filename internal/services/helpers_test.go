package services

import (
	"context"
	"testing"

	"gorm.io/gorm"

	"github.com/yungbote/casetree-backend/internal/data/db"
	"github.com/yungbote/casetree-backend/internal/data/repos"
	"github.com/yungbote/casetree-backend/internal/data/repos/testutil"
	types "github.com/yungbote/casetree-backend/internal/domain"
	"github.com/yungbote/casetree-backend/internal/platform/dbctx"
)

type testEnv struct {
	db  *gorm.DB
	ctx context.Context

	steps   StepService
	folders FolderService
	cases   CaseService
	auth    Authorizer
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	gdb := testutil.DB(t)
	log := testutil.Logger(t)

	projectRepo := repos.NewProjectRepo(gdb, log)
	memberRepo := repos.NewMemberRepo(gdb, log)
	folderRepo := repos.NewFolderRepo(gdb, log)
	caseRepo := repos.NewCaseRepo(gdb, log)
	stepRepo := repos.NewStepRepo(gdb, log)
	caseStepRepo := repos.NewCaseStepRepo(gdb, log)

	folders := NewFolderService(gdb, log, folderRepo, caseRepo, db.NewConstraintToggle(gdb, log))
	return &testEnv{
		db:      gdb,
		ctx:     context.Background(),
		steps:   NewStepService(gdb, log, caseRepo, stepRepo, caseStepRepo),
		folders: folders,
		cases:   NewCaseService(gdb, log, projectRepo, folderRepo, caseRepo, folders),
		auth:    NewAuthorizer(gdb, log, projectRepo, memberRepo, folderRepo, caseRepo),
	}
}

func (e *testEnv) dbc() dbctx.Context {
	return dbctx.Context{Ctx: e.ctx}
}

func (e *testEnv) reloadCase(t *testing.T, id int64) *types.Case {
	t.Helper()
	var c types.Case
	if err := e.db.First(&c, id).Error; err != nil {
		t.Fatalf("reload case %d: %v", id, err)
	}
	return &c
}

func (e *testEnv) folderExists(t *testing.T, id int64) bool {
	t.Helper()
	var n int64
	if err := e.db.Model(&types.Folder{}).Where("id = ?", id).Count(&n).Error; err != nil {
		t.Fatalf("count folder: %v", err)
	}
	return n == 1
}

func (e *testEnv) count(t *testing.T, model any) int64 {
	t.Helper()
	var n int64
	if err := e.db.Model(model).Count(&n).Error; err != nil {
		t.Fatalf("count: %v", err)
	}
	return n
}

// writeCounter counts create, update and delete statements issued through db.
type writeCounter struct{ n int }

func countWrites(t *testing.T, gdb *gorm.DB) *writeCounter {
	t.Helper()
	wc := &writeCounter{}
	inc := func(*gorm.DB) { wc.n++ }
	if err := gdb.Callback().Create().After("gorm:create").Register("test:count_create", inc); err != nil {
		t.Fatalf("register create callback: %v", err)
	}
	if err := gdb.Callback().Update().After("gorm:update").Register("test:count_update", inc); err != nil {
		t.Fatalf("register update callback: %v", err)
	}
	if err := gdb.Callback().Delete().After("gorm:delete").Register("test:count_delete", inc); err != nil {
		t.Fatalf("register delete callback: %v", err)
	}
	return wc
}

func ptr(v int64) *int64 { return &v }
