package httpapi

import (
	"chat-presence/domain"
	"context"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/samber/lo"
)

func (h *Handler) Join(c *gin.Context) {
	var body joinRequest
	if err := bindJSON(c, &body); err != nil {
		h.abortWithError(c, err)
		return
	}

	ctx, cancel := context.WithTimeout(c.Request.Context(), h.storeTimeout)
	defer cancel()

	if _, err := h.participants.Join(ctx, body.Name); err != nil {
		h.abortWithError(c, err)
		return
	}
	c.Status(http.StatusCreated)
}

func (h *Handler) ListParticipants(c *gin.Context) {
	ctx, cancel := context.WithTimeout(c.Request.Context(), h.storeTimeout)
	defer cancel()

	participants, err := h.participants.List(ctx)
	if err != nil {
		h.abortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, lo.Map(participants, func(p domain.Participant, _ int) participantResponse {
		return toParticipantResponse(p)
	}))
}

func (h *Handler) Heartbeat(c *gin.Context) {
	ctx, cancel := context.WithTimeout(c.Request.Context(), h.storeTimeout)
	defer cancel()

	if err := h.participants.Heartbeat(ctx, c.GetHeader(UserHeader)); err != nil {
		h.abortWithError(c, err)
		return
	}
	c.Status(http.StatusOK)
}

func (h *Handler) Health(c *gin.Context) {
	response := healthResponse{Status: "ok"}
	if h.stats != nil {
		stats := h.stats.Latest()
		response.PID = stats.PID
		response.ProcessStatus = stats.Status
		response.RSSBytes = stats.RSSBytes
		response.CPUPercent = stats.CPUPercent
		response.SampledAt = stats.SampledAt
	}
	c.JSON(http.StatusOK, response)
}
