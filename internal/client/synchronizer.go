package client

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"time"

	"github.com/emilythestrangee/qa-forum/backend/internal/events"
	"github.com/emilythestrangee/qa-forum/backend/internal/models"
)

// ErrNotMounted is returned by mutations when no question is being viewed.
var ErrNotMounted = errors.New("no question mounted")

type questionAPI interface {
	GetQuestionByID(ctx context.Context, qid string) (*models.Question, error)
	AddComment(ctx context.Context, targetID string, kind models.TargetKind, c models.Comment) (*models.Comment, error)
	AddAnswer(ctx context.Context, qid string, ans models.Answer) (*models.Answer, error)
	Upvote(ctx context.Context, qid, username string) (models.VoteTally, error)
	Downvote(ctx context.Context, qid, username string) (models.VoteTally, error)
}

type eventSource interface {
	Subscribe() *events.Subscription
}

// VoteStatus is the vote count of the viewed question and the current
// user's own vote on it.
type VoteStatus struct {
	Count int
	Voted models.VoteState
}

// Synchronizer holds the question currently on screen and keeps it in step
// with server events. Local state changes only through events: mutations go
// to the API and their responses are not merged.
type Synchronizer struct {
	api      questionAPI
	source   eventSource
	username string
	log      *slog.Logger

	mu       sync.Mutex
	gen      uint64
	qid      string
	question *models.Question
	sub      *events.Subscription
	onChange func(*models.Question)
}

// New creates a Synchronizer acting as username.
func New(api questionAPI, source eventSource, username string, log *slog.Logger) *Synchronizer {
	return &Synchronizer{
		api:      api,
		source:   source,
		username: username,
		log:      log.With("component", "synchronizer", "user", username),
	}
}

// OnChange registers fn to be called with a copy of the question after every
// state change. fn runs with no locks held.
func (s *Synchronizer) OnChange(fn func(*models.Question)) {
	s.mu.Lock()
	s.onChange = fn
	s.mu.Unlock()
}

// Mount starts viewing qid: it subscribes to events, then fetches the
// question. A failed fetch leaves no question loaded. A fetch that finishes
// after another Mount or Unmount is discarded.
func (s *Synchronizer) Mount(ctx context.Context, qid string) error {
	sub := s.source.Subscribe()

	s.mu.Lock()
	old := s.sub
	s.gen++
	gen := s.gen
	s.qid = qid
	s.question = nil
	s.sub = sub
	s.mu.Unlock()

	if old != nil {
		old.Unsubscribe()
	}
	go s.listen(gen, sub)

	q, err := s.api.GetQuestionByID(ctx, qid)

	s.mu.Lock()
	if gen != s.gen {
		s.mu.Unlock()
		s.log.Debug("discarding stale fetch", slog.String("qid", qid))
		return nil
	}
	if err != nil {
		s.question = nil
		s.mu.Unlock()
		s.log.Error("failed to fetch question", slog.String("qid", qid), slog.Any("error", err))
		return err
	}
	s.question = q
	s.mu.Unlock()

	s.changed()
	return nil
}

// Unmount stops viewing. Events still in flight are ignored.
func (s *Synchronizer) Unmount() {
	s.mu.Lock()
	s.gen++
	s.qid = ""
	s.question = nil
	sub := s.sub
	s.sub = nil
	s.mu.Unlock()

	if sub != nil {
		sub.Unsubscribe()
	}
}

// Question returns a copy of the viewed question, or nil.
func (s *Synchronizer) Question() *models.Question {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.question == nil {
		return nil
	}
	return s.question.Clone()
}

// VoteStatus reports the vote count and the user's own vote. It is zero
// when nothing is loaded.
func (s *Synchronizer) VoteStatus() VoteStatus {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.question == nil {
		return VoteStatus{}
	}
	return VoteStatus{
		Count: models.VoteCount(s.question.UpVotes, s.question.DownVotes),
		Voted: models.VoteStateOf(s.question.UpVotes, s.question.DownVotes, s.username),
	}
}

// Apply merges ev into the viewed question as if it came from the current
// subscription.
func (s *Synchronizer) Apply(ev events.Event) {
	s.mu.Lock()
	gen := s.gen
	s.mu.Unlock()
	s.apply(gen, ev)
}

func (s *Synchronizer) listen(gen uint64, sub *events.Subscription) {
	for ev := range sub.Events() {
		s.apply(gen, ev)
	}
}

func (s *Synchronizer) apply(gen uint64, ev events.Event) {
	s.mu.Lock()
	if gen != s.gen || s.question == nil {
		s.mu.Unlock()
		return
	}

	changed := false
	switch e := ev.(type) {
	case events.AnswerUpdate:
		changed = s.mergeAnswer(e)
	case events.CommentUpdate:
		changed = s.mergeComment(e)
	case events.ViewsUpdate:
		if e.Question != nil && e.Question.ID == s.question.ID {
			s.question = e.Question.Clone()
			changed = true
		}
	case events.VoteUpdate:
		if e.QID == s.question.ID {
			s.question.UpVotes = append([]string{}, e.UpVotes...)
			s.question.DownVotes = append([]string{}, e.DownVotes...)
			changed = true
		}
	}
	s.mu.Unlock()

	if changed {
		s.changed()
	}
}

func (s *Synchronizer) mergeAnswer(e events.AnswerUpdate) bool {
	if e.QID != s.question.ID || e.Answer == nil {
		return false
	}
	for i := range s.question.Answers {
		if s.question.Answers[i].ID == e.Answer.ID {
			s.question.Answers[i] = *e.Answer.Clone()
			return true
		}
	}
	s.question.Answers = append(s.question.Answers, *e.Answer.Clone())
	return true
}

func (s *Synchronizer) mergeComment(e events.CommentUpdate) bool {
	switch e.Result.Kind {
	case models.TargetQuestion:
		if e.Result.Question != nil && e.Result.Question.ID == s.question.ID {
			s.question = e.Result.Question.Clone()
			return true
		}
	case models.TargetAnswer:
		if e.Result.Answer == nil {
			return false
		}
		for i := range s.question.Answers {
			if s.question.Answers[i].ID == e.Result.Answer.ID {
				s.question.Answers[i] = *e.Result.Answer.Clone()
				return true
			}
		}
	}
	return false
}

func (s *Synchronizer) changed() {
	s.mu.Lock()
	fn := s.onChange
	var q *models.Question
	if fn != nil && s.question != nil {
		q = s.question.Clone()
	}
	s.mu.Unlock()

	if fn != nil {
		fn(q)
	}
}

func (s *Synchronizer) mountedID() (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.qid == "" {
		return "", ErrNotMounted
	}
	return s.qid, nil
}

// AddComment comments on the viewed question (kind question) or on one of
// its answers (kind answer, targetID the answer id).
func (s *Synchronizer) AddComment(ctx context.Context, kind models.TargetKind, targetID, text string) error {
	if _, err := s.mountedID(); err != nil {
		return err
	}
	_, err := s.api.AddComment(ctx, targetID, kind, models.Comment{
		Text:            text,
		CommentBy:       s.username,
		CommentDateTime: time.Now().UTC(),
	})
	return err
}

// AddAnswer answers the viewed question.
func (s *Synchronizer) AddAnswer(ctx context.Context, text string) error {
	qid, err := s.mountedID()
	if err != nil {
		return err
	}
	_, err = s.api.AddAnswer(ctx, qid, models.Answer{
		Text:        text,
		AnsBy:       s.username,
		AnsDateTime: time.Now().UTC(),
	})
	return err
}

// Upvote toggles the user's upvote on the viewed question.
func (s *Synchronizer) Upvote(ctx context.Context) error {
	qid, err := s.mountedID()
	if err != nil {
		return err
	}
	_, err = s.api.Upvote(ctx, qid, s.username)
	return err
}

// Downvote toggles the user's downvote on the viewed question.
func (s *Synchronizer) Downvote(ctx context.Context) error {
	qid, err := s.mountedID()
	if err != nil {
		return err
	}
	_, err = s.api.Downvote(ctx, qid, s.username)
	return err
}
