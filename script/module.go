package script

import (
	"context"
	"sync"
)

// Module is the cached compile result: a handle that settles exactly once
// with either the loaded module value or the load error. The orchestrator
// installs it before the load completes, so callers observe a pending handle
// immediately and await it when they need the value.
type Module struct {
	done chan struct{}
	once sync.Once
	val  any
	err  error
}

// NewModule returns an unsettled module handle.
func NewModule() *Module {
	return &Module{done: make(chan struct{})}
}

// Settle records the load outcome. Only the first call has any effect.
func (m *Module) Settle(val any, err error) {
	m.once.Do(func() {
		m.val = val
		m.err = err
		close(m.done)
	})
}

// Done returns a channel closed once the module has settled.
func (m *Module) Done() <-chan struct{} { return m.done }

// Settled reports whether the load outcome is available.
func (m *Module) Settled() bool {
	select {
	case <-m.done:
		return true
	default:
		return false
	}
}

// Await blocks until the module settles or ctx is cancelled, then returns the
// load outcome.
func (m *Module) Await(ctx context.Context) (any, error) {
	select {
	case <-m.done:
		return m.val, m.err
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}
