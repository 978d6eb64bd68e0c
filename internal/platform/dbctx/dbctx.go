package dbctx

import (
	"context"

	"gorm.io/gorm"

	"github.com/yungbote/casetree-backend/internal/platform/apierr"
	"github.com/yungbote/casetree-backend/internal/platform/ctxutil"
)

// Context bundles a request context with an optional GORM transaction.
type Context struct {
	Ctx context.Context
	Tx  *gorm.DB
}

// DB returns the transaction when one is open, otherwise fallback, bound to Ctx.
func (c Context) DB(fallback *gorm.DB) *gorm.DB {
	t := c.Tx
	if t == nil {
		t = fallback
	}
	if c.Ctx == nil {
		return t
	}
	return t.WithContext(c.Ctx)
}

// Run executes fn as one unit of work. When dbc already carries a transaction
// fn joins it; otherwise a new transaction is opened on db, committed when fn
// returns nil and rolled back on error or panic. Failures that do not already
// carry an API status are reported as transaction errors.
func Run(dbc Context, db *gorm.DB, fn func(dbc Context) error) error {
	ctx := ctxutil.Default(dbc.Ctx)
	if dbc.Tx != nil {
		return apierr.Transaction(fn(Context{Ctx: ctx, Tx: dbc.Tx}))
	}
	err := db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return fn(Context{Ctx: ctx, Tx: tx})
	})
	return apierr.Transaction(err)
}
