package domain

import (
	"time"

	"github.com/samber/lo"
)

const (
	DefaultSweepInterval  = 15 * time.Second
	DefaultStaleThreshold = 10 * time.Second
)

// PresencePolicy decides when a participant has been silent long enough to be evicted.
// The threshold is kept shorter than the sweep interval so that nobody outlives
// more than one missed interval past the threshold.
type PresencePolicy struct {
	StaleThreshold time.Duration
}

func NewPresencePolicy(threshold time.Duration) PresencePolicy {
	return PresencePolicy{StaleThreshold: threshold}
}

func (p PresencePolicy) IsStale(participant Participant, now time.Time) bool {
	return participant.IdleFor(now) >= p.StaleThreshold
}

// Stale keeps the participants that must be evicted at now.
func (p PresencePolicy) Stale(participants []Participant, now time.Time) []Participant {
	return lo.Filter(participants, func(item Participant, _ int) bool {
		return p.IsStale(item, now)
	})
}

// Clock returns the current time. Services and workers receive one so tests can freeze time.
type Clock func() time.Time
