package handlers

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/emilythestrangee/qa-forum/backend/internal/models"
	"github.com/emilythestrangee/qa-forum/backend/internal/service"
)

type QuestionHandler struct {
	svc forumService
	log *slog.Logger
}

func NewQuestionHandler(svc forumService, log *slog.Logger) *QuestionHandler {
	return &QuestionHandler{svc: svc, log: log}
}

// GetQuestions returns questions filtered by search and sorted by order.
func (h *QuestionHandler) GetQuestions(c *gin.Context) {
	order := service.ParseOrder(c.Query("order"))

	questions, err := h.svc.ListQuestions(c.Request.Context(), order, c.Query("search"))
	if err != nil {
		h.log.ErrorContext(c.Request.Context(), "list questions failed", slog.Any("error", err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to fetch questions"})
		return
	}

	c.JSON(http.StatusOK, questions)
}

// GetQuestionByID returns a single question and counts the view.
func (h *QuestionHandler) GetQuestionByID(c *gin.Context) {
	q, err := h.svc.GetQuestionByID(c.Request.Context(), c.Param("qid"))
	if err != nil {
		status := readStatus(err)
		switch status {
		case http.StatusNotFound:
			c.JSON(status, gin.H{"error": "Question not found"})
		case http.StatusBadRequest:
			c.JSON(status, validationBody(err))
		default:
			h.log.ErrorContext(c.Request.Context(), "get question failed", slog.Any("error", err))
			c.JSON(status, gin.H{"error": "Error when fetching question"})
		}
		return
	}

	c.JSON(http.StatusOK, q)
}

// AddQuestion creates a new question with its tags.
func (h *QuestionHandler) AddQuestion(c *gin.Context) {
	var input struct {
		Title       string       `json:"title"`
		Text        string       `json:"text"`
		Tags        []models.Tag `json:"tags"`
		AskedBy     string       `json:"askedBy"`
		AskDateTime time.Time    `json:"askDateTime"`
	}

	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request"})
		return
	}

	tags := make([]string, 0, len(input.Tags))
	for _, t := range input.Tags {
		tags = append(tags, t.Name)
	}

	q, err := h.svc.AddQuestion(c.Request.Context(), service.AddQuestionInput{
		Title:       input.Title,
		Text:        input.Text,
		Tags:        tags,
		AskedBy:     input.AskedBy,
		AskDateTime: input.AskDateTime,
	})
	if err != nil {
		status := mutationStatus(err)
		if status == http.StatusBadRequest {
			c.JSON(status, validationBody(err))
			return
		}
		h.log.ErrorContext(c.Request.Context(), "add question failed", slog.Any("error", err))
		c.JSON(status, gin.H{"error": "Error when saving question: " + err.Error()})
		return
	}

	c.JSON(http.StatusOK, q)
}

// UpvoteQuestion toggles the caller's upvote.
func (h *QuestionHandler) UpvoteQuestion(c *gin.Context) {
	h.vote(c, models.Upvote)
}

// DownvoteQuestion toggles the caller's downvote.
func (h *QuestionHandler) DownvoteQuestion(c *gin.Context) {
	h.vote(c, models.Downvote)
}

func (h *QuestionHandler) vote(c *gin.Context, dir models.VoteDirection) {
	var input struct {
		QID      string `json:"qid"`
		Username string `json:"username"`
	}

	if err := c.ShouldBindJSON(&input); err != nil {
		c.String(http.StatusBadRequest, "Invalid request")
		return
	}

	tally, err := h.svc.Vote(c.Request.Context(), service.VoteInput{
		QID:       input.QID,
		Username:  input.Username,
		Direction: dir,
	})
	if err != nil {
		status := mutationStatus(err)
		if status == http.StatusBadRequest {
			c.String(status, "Invalid request")
			return
		}
		h.log.ErrorContext(c.Request.Context(), "vote failed", slog.Any("error", err))
		c.String(status, "Error when voting: %s", err.Error())
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"msg":       "Question " + string(dir) + "d successfully",
		"upVotes":   tally.UpVotes,
		"downVotes": tally.DownVotes,
	})
}
