package store

import (
	"cmp"
	"context"
	"fmt"
	"slices"
	"strconv"
	"strings"
	"sync"

	"github.com/google/uuid"
	"github.com/lib/pq"

	"github.com/emilythestrangee/qa-forum/backend/internal/models"
)

// Memory keeps every document in process memory. It backs local development
// and tests; all data is lost on restart.
type Memory struct {
	mu        sync.Mutex
	questions map[string]*models.Question
	order     []string
	answerOf  map[string]string // answer id -> question id
	tags      map[string]*models.Tag
}

// NewMemory creates an empty in-memory store.
func NewMemory() *Memory {
	return &Memory{
		questions: make(map[string]*models.Question),
		answerOf:  make(map[string]string),
		tags:      make(map[string]*models.Tag),
	}
}

// Ping always succeeds.
func (m *Memory) Ping(context.Context) error { return nil }

// Health reports the store as up together with its document counts.
func (m *Memory) Health(context.Context) map[string]string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return map[string]string{
		"status":    "up",
		"store":     "memory",
		"questions": strconv.Itoa(len(m.questions)),
		"tags":      strconv.Itoa(len(m.tags)),
	}
}

func (m *Memory) question(id string) (*models.Question, error) {
	q, ok := m.questions[id]
	if !ok {
		return nil, fmt.Errorf("question %s: %w", id, models.ErrNotFound)
	}
	return q, nil
}

func (m *Memory) answer(id string) (*models.Answer, error) {
	qid, ok := m.answerOf[id]
	if !ok {
		return nil, fmt.Errorf("answer %s: %w", id, models.ErrNotFound)
	}
	q := m.questions[qid]
	for i := range q.Answers {
		if q.Answers[i].ID == id {
			return &q.Answers[i], nil
		}
	}
	return nil, fmt.Errorf("answer %s: %w", id, models.ErrNotFound)
}

// CreateQuestion stores q, creating any tags that do not exist yet.
func (m *Memory) CreateQuestion(_ context.Context, q *models.Question) (*models.Question, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	tags := make([]models.Tag, 0, len(q.Tags))
	for _, t := range q.Tags {
		tag, ok := m.tags[t.Name]
		if !ok {
			tag = &models.Tag{ID: uuid.NewString(), Name: t.Name, Description: t.Description}
			m.tags[t.Name] = tag
		}
		tags = append(tags, *tag)
	}
	slices.SortFunc(tags, func(a, b models.Tag) int { return cmp.Compare(a.Name, b.Name) })

	row := &models.Question{
		ID:          uuid.NewString(),
		Title:       q.Title,
		Text:        q.Text,
		Tags:        tags,
		AskedBy:     q.AskedBy,
		AskDateTime: q.AskDateTime,
		Answers:     []models.Answer{},
		UpVotes:     pq.StringArray{},
		DownVotes:   pq.StringArray{},
		Comments:    []models.Comment{},
	}
	m.questions[row.ID] = row
	m.order = append(m.order, row.ID)
	return row.Clone(), nil
}

// GetQuestion returns a copy of the populated question.
func (m *Memory) GetQuestion(_ context.Context, id string) (*models.Question, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	q, err := m.question(id)
	if err != nil {
		return nil, err
	}
	return q.Clone(), nil
}

// IncrementViews bumps the view counter and returns the populated question.
func (m *Memory) IncrementViews(_ context.Context, id string) (*models.Question, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	q, err := m.question(id)
	if err != nil {
		return nil, err
	}
	q.Views++
	return q.Clone(), nil
}

// ListQuestions returns every question, newest first.
func (m *Memory) ListQuestions(context.Context) ([]*models.Question, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	out := make([]*models.Question, 0, len(m.order))
	for _, id := range m.order {
		out = append(out, m.questions[id].Clone())
	}
	slices.SortStableFunc(out, func(a, b *models.Question) int {
		return b.AskDateTime.Compare(a.AskDateTime)
	})
	return out, nil
}

// AddAnswer appends a to question qid.
func (m *Memory) AddAnswer(_ context.Context, qid string, a *models.Answer) (*models.Answer, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	q, err := m.question(qid)
	if err != nil {
		return nil, err
	}
	row := models.Answer{
		ID:          uuid.NewString(),
		QuestionID:  qid,
		Text:        a.Text,
		AnsBy:       a.AnsBy,
		AnsDateTime: a.AnsDateTime,
		Comments:    []models.Comment{},
	}
	q.Answers = append(q.Answers, row)
	m.answerOf[row.ID] = qid
	return row.Clone(), nil
}

// GetAnswer returns a copy of the answer with its comments.
func (m *Memory) GetAnswer(_ context.Context, id string) (*models.Answer, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	a, err := m.answer(id)
	if err != nil {
		return nil, err
	}
	return a.Clone(), nil
}

// AddComment attaches c to the question or answer targetID.
func (m *Memory) AddComment(_ context.Context, kind models.TargetKind, targetID string, c *models.Comment) (*models.Comment, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	row := models.Comment{
		ID:              uuid.NewString(),
		Text:            c.Text,
		CommentBy:       c.CommentBy,
		CommentDateTime: c.CommentDateTime,
	}

	switch kind {
	case models.TargetQuestion:
		q, err := m.question(targetID)
		if err != nil {
			return nil, err
		}
		row.QuestionID = &targetID
		q.Comments = append(q.Comments, row)
	case models.TargetAnswer:
		a, err := m.answer(targetID)
		if err != nil {
			return nil, err
		}
		row.AnswerID = &targetID
		a.Comments = append(a.Comments, row)
	default:
		return nil, fmt.Errorf("unknown comment target %q", kind)
	}
	return &row, nil
}

// ApplyVote toggles username's vote on question qid.
func (m *Memory) ApplyVote(_ context.Context, qid, username string, dir models.VoteDirection) (models.VoteTally, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	q, err := m.question(qid)
	if err != nil {
		return models.VoteTally{}, err
	}
	return q.ApplyVote(username, dir), nil
}

// TagsWithQuestionCount lists every tag with the number of questions using it.
func (m *Memory) TagsWithQuestionCount(context.Context) ([]models.TagData, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	counts := make(map[string]int, len(m.tags))
	for _, q := range m.questions {
		for _, t := range q.Tags {
			counts[t.Name]++
		}
	}

	out := make([]models.TagData, 0, len(m.tags))
	for name := range m.tags {
		out = append(out, models.TagData{Name: name, Count: counts[name]})
	}
	slices.SortFunc(out, func(a, b models.TagData) int { return cmp.Compare(a.Name, b.Name) })
	return out, nil
}

// TagByName returns the tag called name.
func (m *Memory) TagByName(_ context.Context, name string) (*models.Tag, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	t, ok := m.tags[strings.TrimSpace(name)]
	if !ok {
		return nil, fmt.Errorf("tag %s: %w", name, models.ErrNotFound)
	}
	c := *t
	return &c, nil
}
