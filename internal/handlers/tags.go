package handlers

import (
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"
)

type TagHandler struct {
	svc forumService
	log *slog.Logger
}

func NewTagHandler(svc forumService, log *slog.Logger) *TagHandler {
	return &TagHandler{svc: svc, log: log}
}

// GetTagsWithQuestionNumber returns every tag with its question count.
func (h *TagHandler) GetTagsWithQuestionNumber(c *gin.Context) {
	tags, err := h.svc.TagsWithQuestionCount(c.Request.Context())
	if err != nil {
		h.log.ErrorContext(c.Request.Context(), "list tags failed", slog.Any("error", err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to fetch tags"})
		return
	}

	c.JSON(http.StatusOK, tags)
}

// GetTagByName returns a single tag.
func (h *TagHandler) GetTagByName(c *gin.Context) {
	tag, err := h.svc.TagByName(c.Request.Context(), c.Param("name"))
	if err != nil {
		status := readStatus(err)
		if status == http.StatusInternalServerError {
			h.log.ErrorContext(c.Request.Context(), "get tag failed", slog.Any("error", err))
			c.JSON(status, gin.H{"error": "Failed to fetch tag"})
			return
		}
		c.JSON(status, gin.H{"error": "Tag not found"})
		return
	}

	c.JSON(http.StatusOK, tag)
}
