package handlers

import (
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/emilythestrangee/qa-forum/backend/internal/models"
	"github.com/emilythestrangee/qa-forum/backend/internal/service"
)

type CommentHandler struct {
	svc forumService
	log *slog.Logger
}

func NewCommentHandler(svc forumService, log *slog.Logger) *CommentHandler {
	return &CommentHandler{svc: svc, log: log}
}

// AddComment adds a comment to a question or an answer. Error bodies are
// plain text to match what existing clients display.
func (h *CommentHandler) AddComment(c *gin.Context) {
	var req models.AddCommentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.String(http.StatusBadRequest, "Invalid request")
		return
	}

	input := service.AddCommentInput{
		TargetID:   req.ID,
		TargetType: req.Type,
		Comment:    req.Comment,
	}
	if err := input.ValidateRequest(); err != nil {
		c.String(http.StatusBadRequest, "Invalid request")
		return
	}
	if err := input.ValidateComment(); err != nil {
		c.String(http.StatusBadRequest, "Invalid comment")
		return
	}

	res, err := h.svc.AddComment(c.Request.Context(), input)
	if err != nil {
		status := mutationStatus(err)
		if status == http.StatusBadRequest {
			c.String(status, "Invalid comment")
			return
		}
		h.log.ErrorContext(c.Request.Context(), "add comment failed", slog.Any("error", err))
		c.String(status, "Error when adding comment: %s", err.Error())
		return
	}

	c.JSON(http.StatusOK, res.Comment)
}
