package ctxutil

import "context"

// Default is the context handed to the store and the tracer when a caller
// left dbctx.Context.Ctx unset.
func Default(ctx context.Context) context.Context {
	if ctx != nil {
		return ctx
	}
	return context.Background()
}
