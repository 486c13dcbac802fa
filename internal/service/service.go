// Package service validates and applies forum mutations and publishes the
// committed results to connected clients.
package service

import (
	"context"
	"log/slog"

	"github.com/emilythestrangee/qa-forum/backend/internal/events"
	"github.com/emilythestrangee/qa-forum/backend/internal/models"
)

// DocumentStore persists questions, answers, comments and tags.
type DocumentStore interface {
	CreateQuestion(ctx context.Context, q *models.Question) (*models.Question, error)
	GetQuestion(ctx context.Context, id string) (*models.Question, error)
	IncrementViews(ctx context.Context, id string) (*models.Question, error)
	ListQuestions(ctx context.Context) ([]*models.Question, error)
	AddAnswer(ctx context.Context, qid string, a *models.Answer) (*models.Answer, error)
	GetAnswer(ctx context.Context, id string) (*models.Answer, error)
	AddComment(ctx context.Context, kind models.TargetKind, targetID string, c *models.Comment) (*models.Comment, error)
	ApplyVote(ctx context.Context, qid, username string, dir models.VoteDirection) (models.VoteTally, error)
	TagsWithQuestionCount(ctx context.Context) ([]models.TagData, error)
	TagByName(ctx context.Context, name string) (*models.Tag, error)
}

type publisher interface {
	Publish(e events.Event)
}

// Recorder observes mutation outcomes.
type Recorder interface {
	Mutation(op string, err error)
}

type nopRecorder struct{}

func (nopRecorder) Mutation(string, error) {}

// Service applies one logical mutation per call. Nothing is published unless
// the store call committed.
type Service struct {
	store    DocumentStore
	events   publisher
	recorder Recorder
	log      *slog.Logger
}

// New creates a Service. recorder may be nil.
func New(log *slog.Logger, store DocumentStore, events publisher, recorder Recorder) *Service {
	if recorder == nil {
		recorder = nopRecorder{}
	}
	return &Service{
		store:    store,
		events:   events,
		recorder: recorder,
		log:      log.With("service", "forum"),
	}
}
