package db

import (
	"context"
	"errors"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
	gormLogger "gorm.io/gorm/logger"

	types "github.com/yungbote/casetree-backend/internal/domain"
	"github.com/yungbote/casetree-backend/internal/platform/apierr"
	"github.com/yungbote/casetree-backend/internal/platform/logger"
)

func openTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	gdb, err := Open(Config{
		Driver:     DriverSQLite,
		SQLitePath: filepath.Join(t.TempDir(), "casetree.db"),
	}, &gorm.Config{Logger: gormLogger.Default.LogMode(gormLogger.Silent)})
	require.NoError(t, err)
	require.NoError(t, AutoMigrateAll(gdb))
	sqlDB, err := gdb.DB()
	require.NoError(t, err)
	// one connection, so the pragma check sees the toggled connection
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = sqlDB.Close() })
	return gdb
}

func foreignKeysOn(t *testing.T, gdb *gorm.DB) bool {
	t.Helper()
	var on int
	require.NoError(t, gdb.Raw("PRAGMA foreign_keys").Scan(&on).Error)
	return on == 1
}

func TestSQLiteDSN(t *testing.T) {
	assert.Equal(t, "a.db?_foreign_keys=on", SQLiteDSN("a.db"))
	assert.Equal(t, "a.db?cache=shared&_foreign_keys=on", SQLiteDSN("a.db?cache=shared"))
	assert.Equal(t, "a.db?_foreign_keys=off", SQLiteDSN("a.db?_foreign_keys=off"))
}

func TestOpenRejectsUnknownDriver(t *testing.T) {
	_, err := Open(Config{Driver: "mysql"}, nil)
	require.Error(t, err)
}

func TestMigrationEnforcesForeignKeys(t *testing.T) {
	gdb := openTestDB(t)
	assert.True(t, foreignKeysOn(t, gdb))

	orphan := &types.Folder{Name: "x", ProjectID: 9999}
	assert.Error(t, gdb.Create(orphan).Error)
}

func TestSQLiteToggleSuspendsAndRestores(t *testing.T) {
	gdb := openTestDB(t)
	toggle := NewConstraintToggle(gdb, logger.Nop())

	err := toggle.WithForeignKeysDisabled(context.Background(), func(tx *gorm.DB) error {
		return tx.Create(&types.Folder{Name: "orphan", ProjectID: 4242}).Error
	})
	require.NoError(t, err)

	var n int64
	require.NoError(t, gdb.Model(&types.Folder{}).Where("project_id = ?", 4242).Count(&n).Error)
	assert.Equal(t, int64(1), n)
	assert.True(t, foreignKeysOn(t, gdb))
}

func TestSQLiteToggleRestoresAfterFailure(t *testing.T) {
	gdb := openTestDB(t)
	toggle := NewConstraintToggle(gdb, logger.Nop())

	boom := errors.New("boom")
	err := toggle.WithForeignKeysDisabled(context.Background(), func(tx *gorm.DB) error {
		if err := tx.Create(&types.Folder{Name: "orphan", ProjectID: 7}).Error; err != nil {
			return err
		}
		return boom
	})
	require.ErrorIs(t, err, boom)
	assert.Equal(t, apierr.CodeTransaction, apierr.CodeOf(err))

	var n int64
	require.NoError(t, gdb.Model(&types.Folder{}).Count(&n).Error)
	assert.Zero(t, n)

	assert.True(t, foreignKeysOn(t, gdb))
	assert.Error(t, gdb.Create(&types.Folder{Name: "orphan", ProjectID: 7}).Error)
}

func TestSQLiteToggleDiscardsConnectionWhenRestoreFails(t *testing.T) {
	gdb := openTestDB(t)
	toggle := NewConstraintToggle(gdb, logger.Nop())

	failed := false
	require.NoError(t, gdb.Callback().Raw().Before("gorm:raw").Register("test:fail_fk_restore", func(tx *gorm.DB) {
		if !failed && strings.Contains(tx.Statement.SQL.String(), "foreign_keys = ON") {
			failed = true
			_ = tx.AddError(errors.New("restore refused"))
		}
	}))

	err := toggle.WithForeignKeysDisabled(context.Background(), func(tx *gorm.DB) error { return nil })
	require.Error(t, err)
	require.True(t, failed)
	assert.Equal(t, apierr.CodeResourceToggle, apierr.CodeOf(err))

	// the pool holds one connection; a reused one would still have foreign keys off
	assert.True(t, foreignKeysOn(t, gdb))
	assert.Error(t, gdb.Create(&types.Folder{Name: "orphan", ProjectID: 7}).Error)
}

func TestSQLiteToggleRestoresAfterPanic(t *testing.T) {
	gdb := openTestDB(t)
	toggle := NewConstraintToggle(gdb, logger.Nop())

	assert.Panics(t, func() {
		_ = toggle.WithForeignKeysDisabled(context.Background(), func(tx *gorm.DB) error {
			panic("kaboom")
		})
	})
	assert.True(t, foreignKeysOn(t, gdb))
}
