package handlers

import (
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/emilythestrangee/qa-forum/backend/internal/models"
	"github.com/emilythestrangee/qa-forum/backend/internal/service"
)

type AnswerHandler struct {
	svc forumService
	log *slog.Logger
}

func NewAnswerHandler(svc forumService, log *slog.Logger) *AnswerHandler {
	return &AnswerHandler{svc: svc, log: log}
}

// AddAnswer appends an answer to a question.
func (h *AnswerHandler) AddAnswer(c *gin.Context) {
	var input struct {
		QID string         `json:"qid"`
		Ans *models.Answer `json:"ans"`
	}

	if err := c.ShouldBindJSON(&input); err != nil {
		c.String(http.StatusBadRequest, "Invalid request")
		return
	}

	ans, err := h.svc.AddAnswer(c.Request.Context(), service.AddAnswerInput{QID: input.QID, Answer: input.Ans})
	if err != nil {
		status := mutationStatus(err)
		if status == http.StatusBadRequest {
			c.String(status, "Invalid answer")
			return
		}
		h.log.ErrorContext(c.Request.Context(), "add answer failed", slog.Any("error", err))
		c.String(status, "Error when adding answer: %s", err.Error())
		return
	}

	c.JSON(http.StatusOK, ans)
}
