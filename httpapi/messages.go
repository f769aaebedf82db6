package httpapi

import (
	"chat-presence/domain"
	"context"
	"net/http"

	"github.com/gin-gonic/gin"
)

func (h *Handler) SendMessage(c *gin.Context) {
	var body messageRequest
	if err := bindJSON(c, &body); err != nil {
		h.abortWithError(c, err)
		return
	}

	ctx, cancel := context.WithTimeout(c.Request.Context(), h.storeTimeout)
	defer cancel()

	message, err := h.messages.Send(ctx, domain.SendMessageCommand{
		From: c.GetHeader(UserHeader),
		To:   body.To,
		Text: body.Text,
		Type: body.Type,
	})
	if err != nil {
		h.abortWithError(c, err)
		return
	}
	c.JSON(http.StatusCreated, toMessageResponse(message))
}

func (h *Handler) ListMessages(c *gin.Context) {
	ctx, cancel := context.WithTimeout(c.Request.Context(), h.storeTimeout)
	defer cancel()

	messages, err := h.messages.ListVisible(ctx, domain.ListMessagesCommand{
		User:  c.GetHeader(UserHeader),
		Limit: parseLimit(c),
	})
	if err != nil {
		h.abortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, toMessageResponses(messages))
}

func (h *Handler) SearchMessages(c *gin.Context) {
	ctx, cancel := context.WithTimeout(c.Request.Context(), h.storeTimeout)
	defer cancel()

	messages, err := h.messages.Search(ctx, domain.SearchMessagesCommand{
		User:  c.GetHeader(UserHeader),
		Query: c.Query("q"),
		Limit: parseLimit(c),
	})
	if err != nil {
		h.abortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, toMessageResponses(messages))
}

func (h *Handler) EditMessage(c *gin.Context) {
	var body messageRequest
	if err := bindJSON(c, &body); err != nil {
		h.abortWithError(c, err)
		return
	}

	ctx, cancel := context.WithTimeout(c.Request.Context(), h.storeTimeout)
	defer cancel()

	err := h.messages.Edit(ctx, domain.EditMessageCommand{
		MessageID: c.Param("id"),
		From:      c.GetHeader(UserHeader),
		To:        body.To,
		Text:      body.Text,
		Type:      body.Type,
	})
	if err != nil {
		h.abortWithError(c, err)
		return
	}
	c.Status(http.StatusOK)
}

func (h *Handler) DeleteMessage(c *gin.Context) {
	ctx, cancel := context.WithTimeout(c.Request.Context(), h.storeTimeout)
	defer cancel()

	err := h.messages.Delete(ctx, domain.DeleteMessageCommand{
		MessageID: c.Param("id"),
		Caller:    c.GetHeader(UserHeader),
	})
	if err != nil {
		h.abortWithError(c, err)
		return
	}
	c.Status(http.StatusOK)
}
