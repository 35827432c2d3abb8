package mgr

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"runtime/debug"
	"time"
)

// WorkerCtx is handed to a worker function: flow control plus named
// structured logging, both bound to a context canceled when the worker
// returns, regardless of outcome.
type WorkerCtx struct {
	name   string
	ctx    context.Context
	cancel context.CancelFunc
	logger *slog.Logger
}

// Ctx returns the worker's context.
func (w *WorkerCtx) Ctx() context.Context { return w.ctx }

// Done returns the worker context's Done channel.
func (w *WorkerCtx) Done() <-chan struct{} { return w.ctx.Done() }

// IsDone reports whether the worker context has been canceled.
func (w *WorkerCtx) IsDone() bool { return w.ctx.Err() != nil }

// Logger returns the worker's named logger.
func (w *WorkerCtx) Logger() *slog.Logger { return w.logger }

func (w *WorkerCtx) Debug(msg string, args ...any) { w.logger.DebugContext(w.ctx, msg, args...) }
func (w *WorkerCtx) Info(msg string, args ...any)  { w.logger.InfoContext(w.ctx, msg, args...) }
func (w *WorkerCtx) Warn(msg string, args ...any)  { w.logger.WarnContext(w.ctx, msg, args...) }
func (w *WorkerCtx) Error(msg string, args ...any) { w.logger.ErrorContext(w.ctx, msg, args...) }

// Go starts fn in a goroutine under the manager's supervision: on error it
// is restarted with exponential backoff (capped at one minute) until it
// returns nil, the manager context is canceled, or fn's own context is
// canceled/deadline-exceeded.
func (m *Manager) Go(name string, fn func(w *WorkerCtx) error) {
	go m.manageWorker(name, fn)
}

// Do runs fn once, synchronously, with the same panic recovery and logging
// as Go but without the restart loop. Used for one-shot startup/shutdown
// actions that still want a named worker context.
func (m *Manager) Do(name string, fn func(w *WorkerCtx) error) error {
	w := m.newWorkerCtx(name)
	m.workerStart()
	defer m.workerDone()
	defer w.cancel()

	_, err := m.runWorker(w, fn)
	if err != nil && !errors.Is(err, context.Canceled) && !errors.Is(err, context.DeadlineExceeded) {
		w.Error("worker failed", "err", err)
	}
	return err
}

func (m *Manager) newWorkerCtx(name string) *WorkerCtx {
	w := &WorkerCtx{
		name:   name,
		logger: m.logger.With("worker", name),
	}
	w.ctx, w.cancel = context.WithCancel(m.ctx)
	return w
}

func (m *Manager) manageWorker(name string, fn func(w *WorkerCtx) error) {
	w := m.newWorkerCtx(name)
	m.workerStart()
	defer m.workerDone()
	defer w.cancel()

	backoff := time.Second
	failures := 0

	for {
		panicInfo, err := m.runWorker(w, fn)
		switch {
		case err == nil:
			return
		case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
			return
		default:
			if m.IsDone() {
				w.Error("worker failed", "err", err, "panic", panicInfo)
				return
			}

			failures++
			backoff *= 2
			if backoff > time.Minute {
				backoff = time.Minute
			}
			w.Error("worker failed, restarting", "failures", failures, "backoff", backoff, "err", err, "panic", panicInfo)

			select {
			case <-time.After(backoff):
			case <-m.ctx.Done():
				return
			}
		}
	}
}

func (m *Manager) runWorker(w *WorkerCtx, fn func(w *WorkerCtx) error) (panicInfo string, err error) {
	w.ctx, w.cancel = context.WithCancel(m.ctx)
	defer w.cancel()

	defer func() {
		if p := recover(); p != nil {
			err = fmt.Errorf("panic: %v", p)
			fmt.Fprintf(os.Stderr, "===== PANIC in worker %q =====\n%v\n%s\n===== END =====\n", w.name, p, debug.Stack())
			panicInfo = w.name
		}
	}()

	err = fn(w)
	return
}
