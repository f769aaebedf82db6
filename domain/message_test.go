package domain

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestMessage_IsVisibleTo(t *testing.T) {
	tests := []struct {
		name     string
		message  Message
		user     string
		expected bool
	}{
		{
			name:     "Public message is visible to a bystander",
			message:  Message{From: "Ana", To: BroadcastTarget, Type: MessageTypePublic},
			user:     "Bruno",
			expected: true,
		},
		{
			name:     "Public message addressed to someone stays public",
			message:  Message{From: "Ana", To: "Carla", Type: MessageTypePublic},
			user:     "Bruno",
			expected: true,
		},
		{
			name:     "Private message is visible to its author",
			message:  Message{From: "Ana", To: "Carla", Type: MessageTypePrivate},
			user:     "Ana",
			expected: true,
		},
		{
			name:     "Private message is visible to its recipient",
			message:  Message{From: "Ana", To: "Carla", Type: MessageTypePrivate},
			user:     "Carla",
			expected: true,
		},
		{
			name:     "Private message is hidden from a bystander",
			message:  Message{From: "Ana", To: "Carla", Type: MessageTypePrivate},
			user:     "Bruno",
			expected: false,
		},
		{
			name:     "Private message to everyone is visible",
			message:  Message{From: "Ana", To: BroadcastTarget, Type: MessageTypePrivate},
			user:     "Bruno",
			expected: true,
		},
		{
			name:     "Status message is visible to everyone",
			message:  NewDeparture("Ana", time.Now()),
			user:     "Bruno",
			expected: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			require.Equal(t, tt.expected, tt.message.IsVisibleTo(tt.user))
		})
	}
}

func TestNewArrival(t *testing.T) {
	req := require.New(t)
	now := time.Date(2024, 3, 1, 20, 4, 37, 0, time.Local)

	message := NewArrival("Ana", now)

	req.Equal("Ana", message.From)
	req.Equal(BroadcastTarget, message.To)
	req.Equal(StatusEntered, message.Text)
	req.Equal(MessageTypeStatus, message.Type)
	req.Equal("20:04:37", message.Time)
	req.Empty(message.ID)
}

func TestMessageType_IsUserAuthored(t *testing.T) {
	req := require.New(t)
	req.True(MessageTypePublic.IsUserAuthored())
	req.True(MessageTypePrivate.IsUserAuthored())
	req.False(MessageTypeStatus.IsUserAuthored())
	req.False(MessageType("shout").IsUserAuthored())
}
