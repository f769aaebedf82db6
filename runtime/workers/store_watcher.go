package workers

import (
	"chat-presence/contract"
	"context"
	"log/slog"
	"time"
)

// StoreHealthName is the component the store watcher reports under.
const StoreHealthName = "store"

type Pinger interface {
	Ping(ctx context.Context) error
}

// StoreWatcher pings the store at a fixed interval and reports whether it answers.
type StoreWatcher struct {
	store    Pinger
	health   contract.IHealthReporter
	interval time.Duration
	timeout  time.Duration
	log      *slog.Logger
	healthy  bool
}

func NewStoreWatcher(log *slog.Logger, store Pinger, health contract.IHealthReporter, interval, timeout time.Duration) *StoreWatcher {
	return &StoreWatcher{store: store, health: health, interval: interval, timeout: timeout, log: log, healthy: true}
}

func (w *StoreWatcher) Run(ctx context.Context) error {
	w.Check(ctx)

	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			w.log.Debug("Context done, stopping store watcher")
			return nil
		case <-ticker.C:
			w.Check(ctx)
		}
	}
}

// Check pings once and reports the outcome. Only state changes are logged.
func (w *StoreWatcher) Check(ctx context.Context) {
	pingCtx, cancel := context.WithTimeout(ctx, w.timeout)
	err := w.store.Ping(pingCtx)
	cancel()
	if ctx.Err() != nil {
		return
	}

	healthy := err == nil
	switch {
	case !healthy && w.healthy:
		w.log.Error("Store unreachable", "error", err)
	case healthy && !w.healthy:
		w.log.Info("Store reachable again")
	}
	w.healthy = healthy
	w.health.SetServing(StoreHealthName, healthy)
}
