package domain

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestPresencePolicy_Stale(t *testing.T) {
	req := require.New(t)
	now := time.Now()
	policy := NewPresencePolicy(DefaultStaleThreshold)

	// Given participants around the threshold
	fresh := NewParticipant("fresh", now.Add(-2*time.Second))
	edge := NewParticipant("edge", now.Add(-DefaultStaleThreshold))
	old := NewParticipant("old", now.Add(-time.Minute))

	// When computing the stale subset
	stale := policy.Stale([]Participant{fresh, edge, old}, now)

	// Then the threshold itself is already stale
	req.Equal([]Participant{edge, old}, stale)
	req.False(policy.IsStale(fresh, now))
}

func TestDefaults_ThresholdShorterThanInterval(t *testing.T) {
	require.Less(t, DefaultStaleThreshold, DefaultSweepInterval)
}
