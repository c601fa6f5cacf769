package services

import (
	"context"
	"sync"

	"gorm.io/gorm"

	"github.com/learnpulse/learnpulse-backend/internal/platform/ctxutil"
	"github.com/learnpulse/learnpulse-backend/internal/platform/dbctx"
)

// commitHooks collects side effects (SSE, metrics) registered while a
// transaction is open. They run once the outermost transaction commits and
// are dropped when the transaction or savepoint that registered them rolls
// back.
type commitHooks struct {
	mu  sync.Mutex
	fns []func()
}

type commitHooksKey struct{}

func (h *commitHooks) add(fns ...func()) {
	h.mu.Lock()
	h.fns = append(h.fns, fns...)
	h.mu.Unlock()
}

func (h *commitHooks) take() []func() {
	h.mu.Lock()
	defer h.mu.Unlock()
	out := h.fns
	h.fns = nil
	return out
}

// afterCommit runs fn when the transaction carried by ctx commits, or right
// away when ctx carries none.
func afterCommit(ctx context.Context, fn func()) {
	if ctx != nil {
		if h, ok := ctx.Value(commitHooksKey{}).(*commitHooks); ok {
			h.add(fn)
			return
		}
	}
	fn()
}

// inTx runs fn in a new transaction, or in a savepoint when dbc already
// carries one so a failure rolls back only fn's writes.
func inTx(db *gorm.DB, dbc dbctx.Context, fn func(inner dbctx.Context) error) error {
	ctx := ctxutil.Default(dbc.Ctx)
	parent, _ := ctx.Value(commitHooksKey{}).(*commitHooks)
	local := &commitHooks{}
	innerCtx := context.WithValue(ctx, commitHooksKey{}, local)

	base := db
	if dbc.Tx != nil {
		base = dbc.Tx
	}
	err := base.WithContext(innerCtx).Transaction(func(tx *gorm.DB) error {
		return fn(dbctx.Context{Ctx: innerCtx, Tx: tx})
	})
	if err != nil {
		return err
	}
	// a released savepoint is still undone if the enclosing transaction fails
	if dbc.Tx != nil && parent != nil {
		parent.add(local.take()...)
		return nil
	}
	for _, f := range local.take() {
		f()
	}
	return nil
}
