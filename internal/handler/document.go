package handler

import (
	"errors"
	"net/http"

	"enact/internal/document"
	"enact/internal/gemini"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

type DocumentHandler interface {
	Generate(c *gin.Context)
}

type documentHandler struct {
	docService *document.Service
	logger     *zap.Logger
}

func NewDocumentHandler(docService *document.Service, logger *zap.Logger) DocumentHandler {
	return &documentHandler{docService: docService, logger: logger}
}

type GenerateDocumentRequest struct {
	DocumentType string         `json:"document_type" binding:"required"`
	Details      map[string]any `json:"details" binding:"required"`
}

func (h *documentHandler) Generate(c *gin.Context) {
	var req GenerateDocumentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	docType, err := document.ParseType(req.DocumentType)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid document type. Use fir, legal_notice or rti."})
		return
	}

	text, err := h.docService.Generate(c.Request.Context(), docType, req.Details)
	if err != nil {
		var apiErr *gemini.APIError
		if errors.As(err, &apiErr) && apiErr.StatusCode == http.StatusTooManyRequests {
			c.JSON(http.StatusTooManyRequests, gin.H{"error": "Too many requests. Please wait a moment before trying again."})
			return
		}
		h.logger.Error("Failed to generate document", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to generate document"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"document": text})
}
