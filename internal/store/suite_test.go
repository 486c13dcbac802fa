package store

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/emilythestrangee/qa-forum/backend/internal/models"
)

type documentStore interface {
	Ping(ctx context.Context) error
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

var (
	_ documentStore = (*Memory)(nil)
	_ documentStore = (*Postgres)(nil)
)

var baseTime = time.Date(2024, 10, 1, 12, 0, 0, 0, time.UTC)

func seedQuestion(t *testing.T, s documentStore, title string, askedAt time.Time, tags ...string) *models.Question {
	t.Helper()
	q := &models.Question{
		Title:       title,
		Text:        "text of " + title,
		AskedBy:     "alice",
		AskDateTime: askedAt,
	}
	for _, name := range tags {
		q.Tags = append(q.Tags, models.Tag{Name: name, Description: name + " questions"})
	}
	created, err := s.CreateQuestion(context.Background(), q)
	require.NoError(t, err)
	return created
}

// runStoreSuite checks the behaviour every store implementation must share.
func runStoreSuite(t *testing.T, newStore func(t *testing.T) documentStore) {
	ctx := context.Background()

	t.Run("create and get question", func(t *testing.T) {
		s := newStore(t)
		q := seedQuestion(t, s, "how do channels work", baseTime, "go", "concurrency")

		require.NotEmpty(t, q.ID)
		got, err := s.GetQuestion(ctx, q.ID)
		require.NoError(t, err)

		assert.Equal(t, "how do channels work", got.Title)
		assert.Equal(t, "alice", got.AskedBy)
		assert.True(t, baseTime.Equal(got.AskDateTime))
		assert.Len(t, got.Tags, 2)
		assert.Empty(t, got.Answers)
		assert.Empty(t, got.Comments)
		assert.NotNil(t, got.UpVotes)
		assert.NotNil(t, got.DownVotes)
	})

	t.Run("missing question", func(t *testing.T) {
		s := newStore(t)

		_, err := s.GetQuestion(ctx, uuid.NewString())
		assert.ErrorIs(t, err, models.ErrNotFound)

		_, err = s.GetQuestion(ctx, "not-a-uuid")
		assert.ErrorIs(t, err, models.ErrNotFound)
	})

	t.Run("tags are shared between questions", func(t *testing.T) {
		s := newStore(t)
		seedQuestion(t, s, "first", baseTime, "go", "sql")
		seedQuestion(t, s, "second", baseTime.Add(time.Hour), "go")

		tags, err := s.TagsWithQuestionCount(ctx)
		require.NoError(t, err)
		assert.Equal(t, []models.TagData{{Name: "go", Count: 2}, {Name: "sql", Count: 1}}, tags)

		tag, err := s.TagByName(ctx, "go")
		require.NoError(t, err)
		assert.Equal(t, "go questions", tag.Description)

		_, err = s.TagByName(ctx, "rust")
		assert.ErrorIs(t, err, models.ErrNotFound)
	})

	t.Run("increment views", func(t *testing.T) {
		s := newStore(t)
		q := seedQuestion(t, s, "views", baseTime, "go")

		_, err := s.IncrementViews(ctx, q.ID)
		require.NoError(t, err)
		got, err := s.IncrementViews(ctx, q.ID)
		require.NoError(t, err)
		assert.Equal(t, 2, got.Views)

		_, err = s.IncrementViews(ctx, uuid.NewString())
		assert.ErrorIs(t, err, models.ErrNotFound)
	})

	t.Run("answers keep insertion order", func(t *testing.T) {
		s := newStore(t)
		q := seedQuestion(t, s, "answers", baseTime, "go")

		a1, err := s.AddAnswer(ctx, q.ID, &models.Answer{Text: "one", AnsBy: "bob", AnsDateTime: baseTime})
		require.NoError(t, err)
		a2, err := s.AddAnswer(ctx, q.ID, &models.Answer{Text: "two", AnsBy: "cat", AnsDateTime: baseTime})
		require.NoError(t, err)

		got, err := s.GetQuestion(ctx, q.ID)
		require.NoError(t, err)
		require.Len(t, got.Answers, 2)
		assert.Equal(t, a1.ID, got.Answers[0].ID)
		assert.Equal(t, a2.ID, got.Answers[1].ID)

		_, err = s.AddAnswer(ctx, uuid.NewString(), &models.Answer{Text: "x", AnsBy: "y", AnsDateTime: baseTime})
		assert.ErrorIs(t, err, models.ErrNotFound)
	})

	t.Run("comments on question and answer", func(t *testing.T) {
		s := newStore(t)
		q := seedQuestion(t, s, "comments", baseTime, "go")
		a, err := s.AddAnswer(ctx, q.ID, &models.Answer{Text: "ans", AnsBy: "bob", AnsDateTime: baseTime})
		require.NoError(t, err)

		qc, err := s.AddComment(ctx, models.TargetQuestion, q.ID, &models.Comment{Text: "on q", CommentBy: "cat", CommentDateTime: baseTime})
		require.NoError(t, err)
		ac, err := s.AddComment(ctx, models.TargetAnswer, a.ID, &models.Comment{Text: "on a", CommentBy: "dan", CommentDateTime: baseTime})
		require.NoError(t, err)

		got, err := s.GetQuestion(ctx, q.ID)
		require.NoError(t, err)
		require.Len(t, got.Comments, 1)
		assert.Equal(t, qc.ID, got.Comments[0].ID)
		require.Len(t, got.Answers[0].Comments, 1)
		assert.Equal(t, ac.ID, got.Answers[0].Comments[0].ID)

		ans, err := s.GetAnswer(ctx, a.ID)
		require.NoError(t, err)
		require.Len(t, ans.Comments, 1)
		assert.Equal(t, "on a", ans.Comments[0].Text)

		_, err = s.AddComment(ctx, models.TargetAnswer, uuid.NewString(), &models.Comment{Text: "x", CommentBy: "y", CommentDateTime: baseTime})
		assert.ErrorIs(t, err, models.ErrNotFound)
	})

	t.Run("vote toggling", func(t *testing.T) {
		s := newStore(t)
		q := seedQuestion(t, s, "votes", baseTime, "go")

		tally, err := s.ApplyVote(ctx, q.ID, "bob", models.Upvote)
		require.NoError(t, err)
		assert.Equal(t, []string{"bob"}, tally.UpVotes)
		assert.Empty(t, tally.DownVotes)

		tally, err = s.ApplyVote(ctx, q.ID, "bob", models.Downvote)
		require.NoError(t, err)
		assert.Empty(t, tally.UpVotes)
		assert.Equal(t, []string{"bob"}, tally.DownVotes)

		tally, err = s.ApplyVote(ctx, q.ID, "bob", models.Downvote)
		require.NoError(t, err)
		assert.Empty(t, tally.UpVotes)
		assert.Empty(t, tally.DownVotes)

		got, err := s.GetQuestion(ctx, q.ID)
		require.NoError(t, err)
		assert.Empty(t, got.UpVotes)
		assert.Empty(t, got.DownVotes)
	})

	t.Run("list newest first", func(t *testing.T) {
		s := newStore(t)
		seedQuestion(t, s, "old", baseTime, "go")
		seedQuestion(t, s, "new", baseTime.Add(time.Hour), "go")

		qs, err := s.ListQuestions(ctx)
		require.NoError(t, err)
		require.Len(t, qs, 2)
		assert.Equal(t, "new", qs[0].Title)
		assert.Equal(t, "old", qs[1].Title)
	})
}
