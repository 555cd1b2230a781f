package handler

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"

	"enact/internal/chat"
	"enact/internal/gemini"
	"enact/internal/middleware"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

type ChatHandler interface {
	Chat(c *gin.Context)
}

type chatHandler struct {
	chatService *chat.Service
	logger      *zap.Logger
}

func NewChatHandler(chatService *chat.Service, logger *zap.Logger) ChatHandler {
	return &chatHandler{chatService: chatService, logger: logger}
}

type ChatRequest struct {
	ConversationID string `json:"conversation_id" binding:"required,uuid"`
	Message        string `json:"message" binding:"required"`
	Language       string `json:"language"`
}

// Chat streams the assistant's answer as server-sent events. Each event is a
// JSON payload on a "data:" line; the stream ends with a [DONE] sentinel.
func (h *chatHandler) Chat(c *gin.Context) {
	var req ChatRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	events, err := h.chatService.Stream(c.Request.Context(), middleware.UserID(c), req.ConversationID, req.Message, req.Language)
	if err != nil {
		if errors.Is(err, chat.ErrConversationNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "Conversation not found"})
			return
		}
		h.logger.Error("Failed to start chat stream", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to process message"})
		return
	}

	c.Header("Content-Type", "text/event-stream")
	c.Header("Cache-Control", "no-cache")
	c.Header("Connection", "keep-alive")
	c.Header("X-Accel-Buffering", "no")

	c.Stream(func(w io.Writer) bool {
		event, ok := <-events
		if !ok {
			c.SSEvent("", "[DONE]")
			return false
		}

		if event.Type == chat.EventError {
			h.writeStreamError(c, event.Err)
			return true
		}

		payload, err := json.Marshal(event)
		if err != nil {
			h.logger.Error("Failed to encode stream event", zap.Error(err))
			return false
		}
		c.SSEvent("", string(payload))
		return true
	})
}

// writeStreamError maps an upstream failure to a user-facing SSE error event.
// Headers are already sent at this point, so the status is carried in-band.
func (h *chatHandler) writeStreamError(c *gin.Context, err error) {
	message := "Something went wrong while generating the response. Please try again."

	var apiErr *gemini.APIError
	if errors.As(err, &apiErr) {
		switch apiErr.StatusCode {
		case http.StatusTooManyRequests:
			message = "The assistant is handling many requests right now. Please wait a moment and try again."
		case http.StatusPaymentRequired:
			message = "The legal assistant is temporarily unavailable. Please try again later."
		}
	}

	h.logger.Error("Chat stream failed", zap.Error(err))

	payload, _ := json.Marshal(gin.H{"type": chat.EventError, "error": message})
	c.SSEvent("", string(payload))
}
