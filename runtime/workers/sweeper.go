package workers

import (
	"chat-presence/contract"
	"chat-presence/domain"
	"chat-presence/errors"
	"chat-presence/repositories"
	"context"
	stderrors "errors"
	"fmt"
	"log/slog"
	"time"
)

// PresenceSweeper periodically evicts participants whose heartbeat is older
// than the staleness threshold and announces their departure.
type PresenceSweeper struct {
	participants repositories.IParticipantRepository
	transactor   repositories.ITransactor
	policy       domain.PresencePolicy
	interval     time.Duration
	storeTimeout time.Duration
	clock        domain.Clock
	health       contract.IHealthReporter
	log          *slog.Logger
}

// SweeperHealthName is the component the sweeper reports under.
const SweeperHealthName = "sweeper"

type SweeperOption func(*PresenceSweeper)

// WithHealthReporter reports NOT_SERVING after an aborted cycle and SERVING after a complete one.
func WithHealthReporter(reporter contract.IHealthReporter) SweeperOption {
	return func(w *PresenceSweeper) { w.health = reporter }
}

func NewPresenceSweeper(
	log *slog.Logger,
	participants repositories.IParticipantRepository,
	transactor repositories.ITransactor,
	policy domain.PresencePolicy,
	interval time.Duration,
	storeTimeout time.Duration,
	clock domain.Clock,
	opts ...SweeperOption,
) *PresenceSweeper {
	w := &PresenceSweeper{
		participants: participants,
		transactor:   transactor,
		policy:       policy,
		interval:     interval,
		storeTimeout: storeTimeout,
		clock:        clock,
		log:          log,
	}
	for _, opt := range opts {
		opt(w)
	}
	return w
}

// Run sweeps once per interval. A cycle runs inside the loop, so a slow cycle
// delays the next tick instead of overlapping it.
func (w *PresenceSweeper) Run(ctx context.Context) error {
	w.log.Info("Starting presence sweeper", "interval", w.interval, "threshold", w.policy.StaleThreshold)
	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()
	w.report(true)

	for {
		select {
		case <-ctx.Done():
			w.log.Debug("Context done, stopping presence sweeper")
			return nil
		case <-ticker.C:
			// Shutdown lets the current cycle finish.
			err := w.Sweep(context.WithoutCancel(ctx))
			if err != nil {
				w.log.Error("Sweep cycle aborted", "error", err)
			}
			w.report(err == nil)
		}
	}
}

func (w *PresenceSweeper) report(serving bool) {
	if w.health != nil {
		w.health.SetServing(SweeperHealthName, serving)
	}
}

// Sweep runs one cycle. Each eviction is its own transaction; the first
// failure ends the cycle and the remaining participants wait for the next one.
func (w *PresenceSweeper) Sweep(ctx context.Context) error {
	now := w.clock()

	listCtx, cancel := context.WithTimeout(ctx, w.storeTimeout)
	participants, err := w.participants.ListParticipants(listCtx)
	cancel()
	if err != nil {
		return fmt.Errorf("list participants: %w", err)
	}

	stale := w.policy.Stale(participants, now)
	w.log.Debug("Sweep cycle", "scanned", len(participants), "stale", len(stale))

	for _, participant := range stale {
		if err = w.evict(ctx, participant.Name, now); err != nil {
			return fmt.Errorf("evict %s: %w", participant.Name, err)
		}
	}
	return nil
}

// evict reads the participant again inside the transaction: a heartbeat or a
// concurrent eviction since the listing cancels it.
func (w *PresenceSweeper) evict(ctx context.Context, name string, now time.Time) error {
	ctx, cancel := context.WithTimeout(ctx, w.storeTimeout)
	defer cancel()

	var idle time.Duration
	evicted := false
	err := w.transactor.Transact(ctx, func(repos repositories.Repositories) error {
		current, err := repos.Participants.GetParticipant(ctx, name)
		if stderrors.Is(err, errors.ErrParticipantNotFound) {
			return nil
		}
		if err != nil {
			return err
		}
		if !w.policy.IsStale(current, now) {
			return nil
		}
		if _, err = repos.Messages.StoreMessage(ctx, domain.NewDeparture(name, now)); err != nil {
			return err
		}
		if err = repos.Participants.DeleteParticipant(ctx, name); err != nil {
			return err
		}
		idle = current.IdleFor(now)
		evicted = true
		return nil
	})
	if err != nil {
		return err
	}
	if evicted {
		w.log.Info("Participant evicted", "name", name, "idle", idle)
	}
	return nil
}
