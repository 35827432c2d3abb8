// Package mgr is a trimmed worker-manager: supervised goroutines with
// named structured logging, panic recovery, and backoff-on-failure
// restart, the way the teacher's own service/mgr package runs its
// background workers.
package mgr

import (
	"context"
	"log/slog"
	"sync/atomic"
	"time"
)

// Manager supervises the named workers launched through it and owns the
// context that cancels them all at once.
type Manager struct {
	name   string
	logger *slog.Logger

	ctx       context.Context
	cancelCtx context.CancelFunc

	workerCnt   atomic.Int32
	workersDone chan struct{}
}

// New returns a new manager deriving its context from ctx.
func New(ctx context.Context, name string) *Manager {
	m := &Manager{
		name:        name,
		logger:      slog.Default().With("manager", name),
		workersDone: make(chan struct{}),
	}
	m.ctx, m.cancelCtx = context.WithCancel(ctx)
	return m
}

// Name returns the manager name.
func (m *Manager) Name() string {
	return m.name
}

// Ctx returns the manager's context, canceled by Cancel.
func (m *Manager) Ctx() context.Context {
	return m.ctx
}

// Cancel cancels the manager context, signaling every worker to stop.
func (m *Manager) Cancel() {
	m.cancelCtx()
}

// Done returns the manager context's Done channel.
func (m *Manager) Done() <-chan struct{} {
	return m.ctx.Done()
}

// IsDone reports whether the manager context has been canceled.
func (m *Manager) IsDone() bool {
	return m.ctx.Err() != nil
}

// WaitForWorkers blocks until every worker started through this manager
// has returned, or max elapses (a zero max means one minute).
func (m *Manager) WaitForWorkers(max time.Duration) (done bool) {
	if m.workerCnt.Load() == 0 {
		return true
	}

	recheckEvery := 100 * time.Millisecond
	if max <= 0 {
		max = time.Minute
	}
	recheck := time.NewTimer(recheckEvery)
	maxWait := time.NewTimer(max)
	defer recheck.Stop()
	defer maxWait.Stop()

	for {
		if m.workerCnt.Load() == 0 {
			return true
		}
		select {
		case <-m.workersDone:
			return true
		case <-recheck.C:
			recheckEvery *= 2
			recheck.Reset(recheckEvery)
		case <-maxWait.C:
			return m.workerCnt.Load() == 0
		}
	}
}

func (m *Manager) workerStart() {
	m.workerCnt.Add(1)
}

func (m *Manager) workerDone() {
	if m.workerCnt.Add(-1) == 0 {
		for {
			select {
			case m.workersDone <- struct{}{}:
			default:
				return
			}
		}
	}
}
