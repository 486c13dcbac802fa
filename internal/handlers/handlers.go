package handlers

import (
	"context"
	"errors"
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/emilythestrangee/qa-forum/backend/internal/models"
	"github.com/emilythestrangee/qa-forum/backend/internal/service"
)

type forumService interface {
	AddComment(ctx context.Context, input service.AddCommentInput) (*service.CommentResult, error)
	AddAnswer(ctx context.Context, input service.AddAnswerInput) (*models.Answer, error)
	Vote(ctx context.Context, input service.VoteInput) (models.VoteTally, error)
	AddQuestion(ctx context.Context, input service.AddQuestionInput) (*models.Question, error)
	GetQuestionByID(ctx context.Context, qid string) (*models.Question, error)
	ListQuestions(ctx context.Context, order service.Order, search string) ([]*models.Question, error)
	TagsWithQuestionCount(ctx context.Context) ([]models.TagData, error)
	TagByName(ctx context.Context, name string) (*models.Tag, error)
}

// Handler combines all handler types
type Handler struct {
	Comment  *CommentHandler
	Answer   *AnswerHandler
	Question *QuestionHandler
	Tag      *TagHandler
}

// NewHandler creates a unified handler with all sub-handlers
func NewHandler(svc forumService, log *slog.Logger) *Handler {
	log = log.With("component", "handlers")
	return &Handler{
		Comment:  NewCommentHandler(svc, log),
		Answer:   NewAnswerHandler(svc, log),
		Question: NewQuestionHandler(svc, log),
		Tag:      NewTagHandler(svc, log),
	}
}

// readStatus maps an error from a read to its HTTP status.
func readStatus(err error) int {
	switch {
	case errors.Is(err, models.ErrValidation):
		return http.StatusBadRequest
	case errors.Is(err, models.ErrNotFound):
		return http.StatusNotFound
	default:
		return http.StatusInternalServerError
	}
}

// mutationStatus maps an error from a mutation to its HTTP status. A missing
// target is a failed write, not a missing resource.
func mutationStatus(err error) int {
	if errors.Is(err, models.ErrValidation) {
		return http.StatusBadRequest
	}
	return http.StatusInternalServerError
}

func validationBody(err error) gin.H {
	var verr *models.ValidationError
	if errors.As(err, &verr) {
		return gin.H{"error": "Invalid request", "fields": verr.Errors}
	}
	return gin.H{"error": err.Error()}
}

// Register mounts the forum routes under their router prefixes.
func (h *Handler) Register(r gin.IRouter) {
	question := r.Group("/question")
	{
		question.GET("/getQuestion", h.Question.GetQuestions)
		question.GET("/getQuestionById/:qid", h.Question.GetQuestionByID)
		question.POST("/addQuestion", h.Question.AddQuestion)
		question.POST("/upvoteQuestion", h.Question.UpvoteQuestion)
		question.POST("/downvoteQuestion", h.Question.DownvoteQuestion)
	}

	answer := r.Group("/answer")
	answer.POST("/addAnswer", h.Answer.AddAnswer)

	comment := r.Group("/comment")
	comment.POST("/addComment", h.Comment.AddComment)

	tag := r.Group("/tag")
	{
		tag.GET("/getTagsWithQuestionNumber", h.Tag.GetTagsWithQuestionNumber)
		tag.GET("/getTagByName/:name", h.Tag.GetTagByName)
	}
}
