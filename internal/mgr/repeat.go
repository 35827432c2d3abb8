package mgr

import "time"

// Repeat starts fn in a supervised worker that calls it once every period
// until the manager is canceled. fn errors are logged by the underlying
// Go worker's restart/backoff logic; a well-behaved periodic task returns
// nil every call and relies on the ticker, not its own return value, to
// keep running.
func (m *Manager) Repeat(name string, period time.Duration, fn func(w *WorkerCtx) error) {
	m.Go(name, func(w *WorkerCtx) error {
		ticker := time.NewTicker(period)
		defer ticker.Stop()

		for {
			select {
			case <-w.Done():
				return nil
			case <-ticker.C:
				if err := fn(w); err != nil {
					return err
				}
			}
		}
	})
}
