package service

import (
	"context"
	"sync"
	"time"

	dErrors "switchboard/pkg/domainerrors"
)

// StoreTx is the transactional boundary for a reconciliation pass. A
// save touches contacts, companies, tags and join rows together;
// RunInTx guarantees either all of those writes land or none do.
// Implementations wrap a database transaction or, in-memory, a coarse
// lock.
type StoreTx interface {
	RunInTx(ctx context.Context, fn func(ctx context.Context) error) error
}

const defaultTxTimeout = 5 * time.Second

// memoryTx serializes reconciliation passes with a single mutex. The
// memory stores cannot roll back, so the service validates everything
// before its first write; the lock only has to prevent interleaving.
type memoryTx struct {
	mu      sync.Mutex
	timeout time.Duration
}

// NewMemoryTx returns the StoreTx used with the in-memory stores.
func NewMemoryTx() StoreTx {
	return &memoryTx{}
}

func (t *memoryTx) RunInTx(ctx context.Context, fn func(ctx context.Context) error) error {
	if err := ctx.Err(); err != nil {
		return dErrors.Wrap(err, dErrors.CodeTimeout, "transaction aborted: context cancelled")
	}

	timeout := t.timeout
	if timeout == 0 {
		timeout = defaultTxTimeout
	}
	if _, hasDeadline := ctx.Deadline(); !hasDeadline {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, timeout)
		defer cancel()
	}

	t.mu.Lock()
	defer t.mu.Unlock()

	if err := ctx.Err(); err != nil {
		return dErrors.Wrap(err, dErrors.CodeTimeout, "transaction aborted: context cancelled")
	}
	return fn(ctx)
}
