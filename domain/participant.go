// Package domain contains core concepts of the chat room: participants, messages and presence.
// No storage, network or runtime logic should be added here.
package domain

import "time"

// Participant is an active chat identity. Name is unique among active participants.
type Participant struct {
	Name     string
	LastSeen time.Time
}

func NewParticipant(name string, now time.Time) Participant {
	return Participant{Name: name, LastSeen: now}
}

// IdleFor returns how long the participant has been silent at now.
func (p Participant) IdleFor(now time.Time) time.Duration {
	return now.Sub(p.LastSeen)
}
