package service

import (
	"context"
	"log/slog"

	"github.com/emilythestrangee/qa-forum/backend/internal/events"
	"github.com/emilythestrangee/qa-forum/backend/internal/models"
)

// AddAnswer appends an answer to a question and publishes an answerUpdate.
func (s *Service) AddAnswer(ctx context.Context, input AddAnswerInput) (ans *models.Answer, err error) {
	defer func() { s.recorder.Mutation("add_answer", err) }()

	if err := input.Validate(); err != nil {
		return nil, err
	}

	ans, err = s.store.AddAnswer(ctx, input.QID, input.Answer)
	if err != nil {
		return nil, models.NewStorageError("add answer", err)
	}

	s.events.Publish(events.AnswerUpdate{QID: input.QID, Answer: ans})

	s.log.InfoContext(ctx, "answer added",
		slog.String("question_id", input.QID),
		slog.String("answer_id", ans.ID),
		slog.String("ans_by", ans.AnsBy),
	)

	return ans, nil
}
