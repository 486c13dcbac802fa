package service

import (
	"context"
	"log/slog"

	"github.com/emilythestrangee/qa-forum/backend/internal/events"
	"github.com/emilythestrangee/qa-forum/backend/internal/models"
)

// Vote toggles a user's vote on a question and publishes the resulting sets.
func (s *Service) Vote(ctx context.Context, input VoteInput) (tally models.VoteTally, err error) {
	defer func() { s.recorder.Mutation(string(input.Direction), err) }()

	if err := input.Validate(); err != nil {
		return models.VoteTally{}, err
	}

	tally, err = s.store.ApplyVote(ctx, input.QID, input.Username, input.Direction)
	if err != nil {
		return models.VoteTally{}, models.NewStorageError("vote", err)
	}
	if tally.UpVotes == nil {
		tally.UpVotes = []string{}
	}
	if tally.DownVotes == nil {
		tally.DownVotes = []string{}
	}

	s.events.Publish(events.VoteUpdate{
		QID:       input.QID,
		UpVotes:   tally.UpVotes,
		DownVotes: tally.DownVotes,
	})

	s.log.InfoContext(ctx, "question voted",
		slog.String("question_id", input.QID),
		slog.String("username", input.Username),
		slog.String("direction", string(input.Direction)),
		slog.Int("score", models.VoteCount(tally.UpVotes, tally.DownVotes)),
	)

	return tally, nil
}
