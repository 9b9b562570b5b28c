package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"bizinsight-api/pkg/logger"
	"bizinsight-api/pkg/models"
	"bizinsight-api/pkg/services"
)

// AssistantHandler exposes the single-call conversational assistant.
type AssistantHandler struct {
	assistant *services.AssistantService
}

func NewAssistantHandler(assistant *services.AssistantService) *AssistantHandler {
	return &AssistantHandler{assistant: assistant}
}

// AskRequest is a question plus the summary of a previous analysis run.
type AskRequest struct {
	Question string                `json:"question" binding:"required"`
	Summary  models.DatasetSummary `json:"summary"`
}

// Ask answers one question. Nothing is stored between calls.
func (h *AssistantHandler) Ask(c *gin.Context) {
	var req AskRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"success": false, "code": "bad_request", "error": "question is required"})
		return
	}

	answer, err := h.assistant.Ask(c.Request.Context(), req.Question, req.Summary)
	switch {
	case errors.Is(err, services.ErrEmptyQuestion):
		c.JSON(http.StatusBadRequest, gin.H{"success": false, "code": "bad_request", "error": err.Error()})
		return
	case errors.Is(err, services.ErrAssistantUnavailable):
		c.JSON(http.StatusServiceUnavailable, gin.H{"success": false, "code": "assistant_unavailable", "error": err.Error()})
		return
	case err != nil:
		logger.FromContext(c.Request.Context()).Error("assistant failed", "error", err)
		c.JSON(http.StatusBadGateway, gin.H{"success": false, "code": "assistant_failed", "error": "the assistant did not answer"})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success":    true,
		"answer":     answer,
		"message_id": uuid.NewString(),
	})
}
