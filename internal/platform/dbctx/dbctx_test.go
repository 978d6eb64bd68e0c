package dbctx

import (
	"context"
	"errors"
	"net/http"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormLogger "gorm.io/gorm/logger"

	"github.com/yungbote/casetree-backend/internal/platform/apierr"
)

type widget struct {
	ID   int64 `gorm:"primaryKey"`
	Name string
}

func openDB(t *testing.T) *gorm.DB {
	t.Helper()
	dsn := filepath.Join(t.TempDir(), "dbctx.db") + "?_foreign_keys=on"
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{Logger: gormLogger.Default.LogMode(gormLogger.Silent)})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(&widget{}))
	return db
}

func countWidgets(t *testing.T, db *gorm.DB) int64 {
	t.Helper()
	var n int64
	require.NoError(t, db.Model(&widget{}).Count(&n).Error)
	return n
}

func TestRunCommitsOnSuccess(t *testing.T) {
	db := openDB(t)
	err := Run(Context{Ctx: context.Background()}, db, func(dbc Context) error {
		return dbc.Tx.Create(&widget{Name: "a"}).Error
	})
	require.NoError(t, err)
	assert.EqualValues(t, 1, countWidgets(t, db))
}

func TestRunRollsBackAndWrapsStoreErrors(t *testing.T) {
	db := openDB(t)
	err := Run(Context{Ctx: context.Background()}, db, func(dbc Context) error {
		if err := dbc.Tx.Create(&widget{Name: "a"}).Error; err != nil {
			return err
		}
		return errors.New("constraint failed")
	})
	require.Error(t, err)
	assert.Equal(t, http.StatusInternalServerError, apierr.StatusOf(err))
	assert.EqualValues(t, 0, countWidgets(t, db))
}

func TestRunPassesDomainErrorsThrough(t *testing.T) {
	db := openDB(t)
	err := Run(Context{}, db, func(dbc Context) error {
		if err := dbc.Tx.Create(&widget{Name: "a"}).Error; err != nil {
			return err
		}
		return apierr.NotFound("folder")
	})
	assert.True(t, apierr.IsNotFound(err))
	assert.EqualValues(t, 0, countWidgets(t, db))
}

func TestRunDefaultsMissingContext(t *testing.T) {
	db := openDB(t)
	err := Run(Context{}, db, func(dbc Context) error {
		require.NotNil(t, dbc.Ctx)
		return dbc.Tx.Create(&widget{Name: "a"}).Error
	})
	require.NoError(t, err)
	assert.EqualValues(t, 1, countWidgets(t, db))
}

func TestRunRollsBackOnPanic(t *testing.T) {
	db := openDB(t)
	assert.Panics(t, func() {
		_ = Run(Context{}, db, func(dbc Context) error {
			dbc.Tx.Create(&widget{Name: "a"})
			panic("boom")
		})
	})
	assert.EqualValues(t, 0, countWidgets(t, db))
}

func TestRunJoinsOpenTransaction(t *testing.T) {
	db := openDB(t)
	tx := db.Begin()
	require.NoError(t, tx.Error)

	err := Run(Context{Ctx: context.Background(), Tx: tx}, db, func(dbc Context) error {
		assert.Same(t, tx, dbc.Tx)
		return dbc.Tx.Create(&widget{Name: "joined"}).Error
	})
	require.NoError(t, err)
	require.NoError(t, tx.Rollback().Error)
	assert.EqualValues(t, 0, countWidgets(t, db))
}
