package httpapi

import (
	"chat-presence/domain"
	"time"

	"github.com/samber/lo"
)

type joinRequest struct {
	Name string `json:"name"`
}

type messageRequest struct {
	To   string `json:"to"`
	Text string `json:"text"`
	Type string `json:"type"`
}

type participantResponse struct {
	Name       string `json:"name"`
	LastStatus int64  `json:"lastStatus"`
}

type messageResponse struct {
	ID   string `json:"id"`
	From string `json:"from"`
	To   string `json:"to"`
	Text string `json:"text"`
	Type string `json:"type"`
	Time string `json:"time"`
}

type healthResponse struct {
	Status        string    `json:"status"`
	PID           int32     `json:"pid"`
	ProcessStatus string    `json:"processStatus"`
	RSSBytes      uint64    `json:"rssBytes"`
	CPUPercent    float64   `json:"cpuPercent"`
	SampledAt     time.Time `json:"sampledAt"`
}

type errorResponse struct {
	Error string `json:"error"`
}

func toParticipantResponse(p domain.Participant) participantResponse {
	return participantResponse{Name: p.Name, LastStatus: p.LastSeen.UnixMilli()}
}

func toMessageResponse(m domain.Message) messageResponse {
	return messageResponse{
		ID:   m.ID,
		From: m.From,
		To:   m.To,
		Text: m.Text,
		Type: string(m.Type),
		Time: m.Time,
	}
}

func toMessageResponses(messages []domain.Message) []messageResponse {
	return lo.Map(messages, func(m domain.Message, _ int) messageResponse {
		return toMessageResponse(m)
	})
}
