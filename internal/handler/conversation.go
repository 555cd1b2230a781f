package handler

import (
	"errors"
	"net/http"
	"strconv"
	"time"

	"enact/internal/export"
	"enact/internal/middleware"
	"enact/internal/models"
	"enact/internal/repository"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

type ConversationHandler interface {
	List(c *gin.Context)
	Create(c *gin.Context)
	Get(c *gin.Context)
	Rename(c *gin.Context)
	Pin(c *gin.Context)
	Delete(c *gin.Context)
	ListMessages(c *gin.Context)
	EditMessage(c *gin.Context)
	DeleteMessage(c *gin.Context)
	Export(c *gin.Context)
}

type conversationHandler struct {
	convRepo repository.ConversationRepository
	msgRepo  repository.MessageRepository
	logger   *zap.Logger
}

func NewConversationHandler(convRepo repository.ConversationRepository, msgRepo repository.MessageRepository, logger *zap.Logger) ConversationHandler {
	return &conversationHandler{convRepo: convRepo, msgRepo: msgRepo, logger: logger}
}

const (
	defaultPageSize = 50
	maxPageSize     = 200
)

func pagination(c *gin.Context) (limit, offset int) {
	limit, _ = strconv.Atoi(c.DefaultQuery("limit", strconv.Itoa(defaultPageSize)))
	if limit < 1 || limit > maxPageSize {
		limit = defaultPageSize
	}
	offset, _ = strconv.Atoi(c.DefaultQuery("offset", "0"))
	if offset < 0 {
		offset = 0
	}
	return limit, offset
}

func (h *conversationHandler) List(c *gin.Context) {
	userID := middleware.UserID(c)
	limit, offset := pagination(c)

	conversations, err := h.convRepo.ListConversations(userID, limit, offset)
	if err != nil {
		h.logger.Error("Failed to list conversations", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to list conversations"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"conversations": conversations})
}

type CreateConversationRequest struct {
	Title string `json:"title"`
}

func (h *conversationHandler) Create(c *gin.Context) {
	// The request body is optional; an empty title falls back to the
	// database default.
	var req CreateConversationRequest
	_ = c.ShouldBindJSON(&req)

	conv := &models.Conversation{
		ID:     uuid.NewString(),
		UserID: middleware.UserID(c),
		Title:  req.Title,
	}
	if err := h.convRepo.CreateConversation(conv); err != nil {
		h.logger.Error("Failed to create conversation", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to create conversation"})
		return
	}

	c.JSON(http.StatusCreated, conv)
}

func (h *conversationHandler) Get(c *gin.Context) {
	conv, ok := h.ownedConversation(c)
	if !ok {
		return
	}
	c.JSON(http.StatusOK, conv)
}

type RenameConversationRequest struct {
	Title string `json:"title" binding:"required,max=200"`
}

func (h *conversationHandler) Rename(c *gin.Context) {
	var req RenameConversationRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	err := h.convRepo.UpdateTitle(c.Param("id"), middleware.UserID(c), req.Title)
	if err != nil {
		if errors.Is(err, repository.ErrNotOwned) {
			c.JSON(http.StatusNotFound, gin.H{"error": "Conversation not found"})
			return
		}
		h.logger.Error("Failed to rename conversation", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to rename conversation"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "Conversation renamed"})
}

type PinConversationRequest struct {
	Pinned *bool `json:"pinned" binding:"required"`
}

func (h *conversationHandler) Pin(c *gin.Context) {
	var req PinConversationRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	err := h.convRepo.UpdatePinned(c.Param("id"), middleware.UserID(c), *req.Pinned)
	if err != nil {
		if errors.Is(err, repository.ErrNotOwned) {
			c.JSON(http.StatusNotFound, gin.H{"error": "Conversation not found"})
			return
		}
		h.logger.Error("Failed to pin conversation", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to update conversation"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "Conversation updated"})
}

func (h *conversationHandler) Delete(c *gin.Context) {
	err := h.convRepo.DeleteConversation(c.Param("id"), middleware.UserID(c))
	if err != nil {
		if errors.Is(err, repository.ErrNotOwned) {
			c.JSON(http.StatusNotFound, gin.H{"error": "Conversation not found"})
			return
		}
		h.logger.Error("Failed to delete conversation", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to delete conversation"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "Conversation deleted"})
}

func (h *conversationHandler) ListMessages(c *gin.Context) {
	conv, ok := h.ownedConversation(c)
	if !ok {
		return
	}

	limit, offset := pagination(c)
	messages, err := h.msgRepo.ListMessages(conv.ID, limit, offset)
	if err != nil {
		h.logger.Error("Failed to list messages", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to list messages"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"messages": messages})
}

type EditMessageRequest struct {
	Content string `json:"content" binding:"required"`
}

func (h *conversationHandler) EditMessage(c *gin.Context) {
	conv, ok := h.ownedConversation(c)
	if !ok {
		return
	}

	var req EditMessageRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	err := h.msgRepo.UpdateContent(c.Param("messageId"), conv.ID, req.Content)
	if err != nil {
		if errors.Is(err, repository.ErrMessageNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "Message not found"})
			return
		}
		h.logger.Error("Failed to edit message", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to edit message"})
		return
	}

	h.touchConversation(conv.ID)

	c.JSON(http.StatusOK, gin.H{"message": "Message updated"})
}

func (h *conversationHandler) DeleteMessage(c *gin.Context) {
	conv, ok := h.ownedConversation(c)
	if !ok {
		return
	}

	err := h.msgRepo.DeleteMessage(c.Param("messageId"), conv.ID)
	if err != nil {
		if errors.Is(err, repository.ErrMessageNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "Message not found"})
			return
		}
		h.logger.Error("Failed to delete message", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to delete message"})
		return
	}

	h.touchConversation(conv.ID)

	c.JSON(http.StatusOK, gin.H{"message": "Message deleted"})
}

func (h *conversationHandler) Export(c *gin.Context) {
	conv, ok := h.ownedConversation(c)
	if !ok {
		return
	}

	format, err := export.ParseFormat(c.Query("format"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Unsupported format. Use json, markdown or text."})
		return
	}

	// Exports carry the whole thread, paging past the per-request cap.
	var messages []*models.Message
	for offset := 0; ; offset += maxPageSize {
		page, err := h.msgRepo.ListMessages(conv.ID, maxPageSize, offset)
		if err != nil {
			h.logger.Error("Failed to load messages for export", zap.Error(err))
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to export conversation"})
			return
		}
		messages = append(messages, page...)
		if len(page) < maxPageSize {
			break
		}
	}

	body, err := export.Render(format, conv, messages)
	if err != nil {
		h.logger.Error("Failed to render export", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to export conversation"})
		return
	}

	filename := export.Filename(format, conv, time.Now())
	c.Header("Content-Disposition", `attachment; filename="`+filename+`"`)
	c.Data(http.StatusOK, format.ContentType(), body)
}

// touchConversation bumps the conversation's updated_at after a message
// mutation. Best-effort: the mutation itself already succeeded.
func (h *conversationHandler) touchConversation(id string) {
	if err := h.convRepo.TouchConversation(id); err != nil {
		h.logger.Error("Failed to touch conversation", zap.String("conversation_id", id), zap.Error(err))
	}
}

// ownedConversation loads the conversation in the :id route parameter and
// replies 404 when it does not exist or belongs to another user.
func (h *conversationHandler) ownedConversation(c *gin.Context) (*models.Conversation, bool) {
	conv, err := h.convRepo.GetConversationByID(c.Param("id"), middleware.UserID(c))
	if err != nil {
		h.logger.Error("Failed to load conversation", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to load conversation"})
		return nil, false
	}
	if conv == nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "Conversation not found"})
		return nil, false
	}
	return conv, true
}
