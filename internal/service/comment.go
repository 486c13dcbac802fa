package service

import (
	"context"
	"log/slog"

	"github.com/emilythestrangee/qa-forum/backend/internal/events"
	"github.com/emilythestrangee/qa-forum/backend/internal/models"
)

// CommentResult is the persisted comment together with the populated
// document it was attached to.
type CommentResult struct {
	Comment *models.Comment
	Target  events.CommentTarget
}

// AddComment persists a comment on a question or answer and publishes the
// populated target as a commentUpdate.
func (s *Service) AddComment(ctx context.Context, input AddCommentInput) (res *CommentResult, err error) {
	defer func() { s.recorder.Mutation("add_comment", err) }()

	if err := input.Validate(); err != nil {
		return nil, err
	}

	comment, err := s.store.AddComment(ctx, input.TargetType, input.TargetID, input.Comment)
	if err != nil {
		return nil, models.NewStorageError("add comment", err)
	}

	target, err := s.populateTarget(ctx, input.TargetType, input.TargetID)
	if err != nil {
		return nil, err
	}

	s.events.Publish(events.CommentUpdate{Result: target, Type: input.TargetType})

	s.log.InfoContext(ctx, "comment added",
		slog.String("comment_id", comment.ID),
		slog.String("target_type", string(input.TargetType)),
		slog.String("target_id", input.TargetID),
		slog.String("comment_by", comment.CommentBy),
	)

	return &CommentResult{Comment: comment, Target: target}, nil
}

func (s *Service) populateTarget(ctx context.Context, kind models.TargetKind, id string) (events.CommentTarget, error) {
	if kind == models.TargetAnswer {
		a, err := s.store.GetAnswer(ctx, id)
		if err != nil {
			return events.CommentTarget{}, models.NewStorageError("populate answer", err)
		}
		return events.AnswerTarget(a), nil
	}

	q, err := s.store.GetQuestion(ctx, id)
	if err != nil {
		return events.CommentTarget{}, models.NewStorageError("populate question", err)
	}
	return events.QuestionTarget(q), nil
}
