package domain

import "time"

// BroadcastTarget is the reserved recipient meaning "all participants".
const BroadcastTarget = "Todos"

// TimeLayout is the display format of Message.Time.
const TimeLayout = "15:04:05"

const (
	StatusEntered = "entered the room..."
	StatusLeft    = "left the room..."
)

type MessageType string

const (
	MessageTypePublic  MessageType = "message"
	MessageTypePrivate MessageType = "private_message"
	MessageTypeStatus  MessageType = "status"
)

// IsUserAuthored reports whether participants may send or edit messages of this type.
func (t MessageType) IsUserAuthored() bool {
	return t == MessageTypePublic || t == MessageTypePrivate
}

// Message is a chat entry. ID and From never change once stored.
// Seq preserves creation order; Time is only meant for display.
type Message struct {
	ID   string
	Seq  uint64
	From string
	To   string
	Text string
	Type MessageType
	Time string
}

func NewMessage(from, to, text string, messageType MessageType, now time.Time) Message {
	return Message{
		From: from,
		To:   to,
		Text: text,
		Type: messageType,
		Time: now.Format(TimeLayout),
	}
}

func NewArrival(name string, now time.Time) Message {
	return NewMessage(name, BroadcastTarget, StatusEntered, MessageTypeStatus, now)
}

func NewDeparture(name string, now time.Time) Message {
	return NewMessage(name, BroadcastTarget, StatusLeft, MessageTypeStatus, now)
}

// IsVisibleTo applies the audience rule. Every public message is visible to everyone,
// whatever its recipient. Private messages are only seen by their two ends.
func (m Message) IsVisibleTo(user string) bool {
	return m.From == user ||
		m.To == user ||
		m.To == BroadcastTarget ||
		m.Type == MessageTypePublic
}

func (m Message) OwnedBy(name string) bool {
	return m.From == name
}
