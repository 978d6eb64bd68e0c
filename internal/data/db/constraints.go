package db

import (
	"context"
	"database/sql"
	"database/sql/driver"
	"errors"
	"fmt"
	"sync"

	"gorm.io/gorm"

	"github.com/yungbote/casetree-backend/internal/platform/apierr"
	"github.com/yungbote/casetree-backend/internal/platform/logger"
)

// ConstraintToggle runs fn in a transaction with foreign-key enforcement
// suspended. Enforcement is restored before the call returns, whether fn
// succeeds, fails or panics.
type ConstraintToggle interface {
	WithForeignKeysDisabled(ctx context.Context, fn func(tx *gorm.DB) error) error
}

func NewConstraintToggle(db *gorm.DB, baseLog *logger.Logger) ConstraintToggle {
	log := baseLog.With("service", "ConstraintToggle", "dialect", db.Dialector.Name())
	if db.Dialector.Name() == DriverPostgres {
		return &postgresToggle{db: db, log: log}
	}
	return &sqliteToggle{db: db, log: log}
}

// PRAGMA foreign_keys is ignored inside an open transaction, so the pragma is
// set on a pinned connection before BEGIN and reset on the same connection
// before it goes back to the pool.
type sqliteToggle struct {
	mu  sync.Mutex
	db  *gorm.DB
	log *logger.Logger
}

func (s *sqliteToggle) WithForeignKeysDisabled(ctx context.Context, fn func(tx *gorm.DB) error) (err error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.db.WithContext(ctx).Connection(func(conn *gorm.DB) error {
		if err := conn.Exec("PRAGMA foreign_keys = OFF").Error; err != nil {
			return apierr.ResourceToggle(fmt.Errorf("disable foreign keys: %w", err))
		}
		defer func() {
			restore := conn.WithContext(context.WithoutCancel(ctx)).Exec("PRAGMA foreign_keys = ON").Error
			if restore != nil {
				s.log.Error("failed to restore foreign keys, discarding connection", "error", restore)
				err = errors.Join(err, apierr.ResourceToggle(fmt.Errorf("restore foreign keys: %w", restore)))
				discardConn(conn)
			}
		}()
		return apierr.Transaction(conn.Transaction(fn))
	})
}

// discardConn closes the pinned connection instead of returning it to the
// pool. database/sql drops a connection whose Raw callback reports
// driver.ErrBadConn.
func discardConn(conn *gorm.DB) {
	sc, ok := conn.Statement.ConnPool.(*sql.Conn)
	if !ok {
		return
	}
	_ = sc.Raw(func(any) error { return driver.ErrBadConn })
}

// session_replication_role = replica skips FK triggers for the current
// transaction only; SET LOCAL is undone by COMMIT or ROLLBACK. Requires a role
// allowed to change it.
type postgresToggle struct {
	mu  sync.Mutex
	db  *gorm.DB
	log *logger.Logger
}

func (p *postgresToggle) WithForeignKeysDisabled(ctx context.Context, fn func(tx *gorm.DB) error) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	err := p.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Exec("SET LOCAL session_replication_role = 'replica'").Error; err != nil {
			return apierr.ResourceToggle(fmt.Errorf("disable foreign keys: %w", err))
		}
		if err := fn(tx); err != nil {
			return err
		}
		if err := tx.Exec("SET LOCAL session_replication_role = 'origin'").Error; err != nil {
			return apierr.ResourceToggle(fmt.Errorf("restore foreign keys: %w", err))
		}
		return nil
	})
	if err != nil {
		p.log.Warn("constraint-suspended transaction rolled back", "error", err)
	}
	return apierr.Transaction(err)
}
