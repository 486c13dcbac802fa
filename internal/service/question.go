package service

import (
	"context"
	"log/slog"
	"slices"
	"strings"

	"github.com/emilythestrangee/qa-forum/backend/internal/events"
	"github.com/emilythestrangee/qa-forum/backend/internal/models"
)

// Order selects how ListQuestions sorts its result.
type Order string

const (
	OrderNewest     Order = "newest"
	OrderUnanswered Order = "unanswered"
	OrderActive     Order = "active"
	OrderMostViewed Order = "mostViewed"
)

// ParseOrder maps a query value to an Order. Unknown or empty values fall
// back to newest.
func ParseOrder(s string) Order {
	switch Order(s) {
	case OrderUnanswered, OrderActive, OrderMostViewed:
		return Order(s)
	default:
		return OrderNewest
	}
}

// AddQuestion stores a new question and publishes a questionUpdate.
func (s *Service) AddQuestion(ctx context.Context, input AddQuestionInput) (q *models.Question, err error) {
	defer func() { s.recorder.Mutation("add_question", err) }()

	if err := input.Validate(); err != nil {
		return nil, err
	}

	names := input.tagNames()
	tags := make([]models.Tag, 0, len(names))
	for _, name := range names {
		tags = append(tags, models.Tag{Name: name})
	}

	q, err = s.store.CreateQuestion(ctx, &models.Question{
		Title:       strings.TrimSpace(input.Title),
		Text:        input.Text,
		Tags:        tags,
		AskedBy:     input.AskedBy,
		AskDateTime: input.AskDateTime,
	})
	if err != nil {
		return nil, models.NewStorageError("add question", err)
	}

	s.events.Publish(events.QuestionUpdate{Question: q})

	s.log.InfoContext(ctx, "question added",
		slog.String("question_id", q.ID),
		slog.String("asked_by", q.AskedBy),
		slog.Int("tags", len(q.Tags)),
	)

	return q, nil
}

// GetQuestionByID records a view and returns the populated question. The
// new view count is published as a viewsUpdate.
func (s *Service) GetQuestionByID(ctx context.Context, qid string) (*models.Question, error) {
	if blank(qid) {
		return nil, models.NewValidationError("qid", "required")
	}

	q, err := s.store.IncrementViews(ctx, qid)
	if err != nil {
		return nil, models.NewStorageError("get question", err)
	}

	s.events.Publish(events.ViewsUpdate{Question: q})
	return q, nil
}

// ListQuestions returns questions filtered by search and sorted by order.
//
// Search terms in square brackets match tag names; other terms match words
// in the title or text. Matching is case-insensitive and a question matches
// if any term does.
func (s *Service) ListQuestions(ctx context.Context, order Order, search string) ([]*models.Question, error) {
	qs, err := s.store.ListQuestions(ctx)
	if err != nil {
		return nil, models.NewStorageError("list questions", err)
	}

	qs = orderQuestions(filterBySearch(qs, search), order)

	if qs == nil {
		qs = []*models.Question{}
	}
	return qs, nil
}

// orderQuestions sorts qs by order. Unanswered keeps only questions without
// answers.
func orderQuestions(qs []*models.Question, order Order) []*models.Question {
	newest := func(a, b *models.Question) int {
		return b.AskDateTime.Compare(a.AskDateTime)
	}

	switch order {
	case OrderUnanswered:
		qs = slices.DeleteFunc(qs, func(q *models.Question) bool { return len(q.Answers) > 0 })
		slices.SortStableFunc(qs, newest)
	case OrderActive:
		slices.SortStableFunc(qs, func(a, b *models.Question) int {
			if c := b.LatestAnswerTime().Compare(a.LatestAnswerTime()); c != 0 {
				return c
			}
			return newest(a, b)
		})
	case OrderMostViewed:
		slices.SortStableFunc(qs, func(a, b *models.Question) int {
			if a.Views != b.Views {
				return b.Views - a.Views
			}
			return newest(a, b)
		})
	default:
		slices.SortStableFunc(qs, newest)
	}
	return qs
}

func parseSearch(search string) (tags, words []string) {
	for _, term := range strings.Fields(strings.ToLower(search)) {
		if len(term) > 2 && strings.HasPrefix(term, "[") && strings.HasSuffix(term, "]") {
			tags = append(tags, term[1:len(term)-1])
			continue
		}
		words = append(words, term)
	}
	return tags, words
}

func filterBySearch(qs []*models.Question, search string) []*models.Question {
	tags, words := parseSearch(search)
	if len(tags) == 0 && len(words) == 0 {
		return qs
	}

	var out []*models.Question
	for _, q := range qs {
		if matchesTags(q, tags) || matchesWords(q, words) {
			out = append(out, q)
		}
	}
	return out
}

func matchesTags(q *models.Question, tags []string) bool {
	for _, t := range q.Tags {
		if slices.Contains(tags, strings.ToLower(t.Name)) {
			return true
		}
	}
	return false
}

func matchesWords(q *models.Question, words []string) bool {
	title := strings.ToLower(q.Title)
	text := strings.ToLower(q.Text)
	for _, w := range words {
		if strings.Contains(title, w) || strings.Contains(text, w) {
			return true
		}
	}
	return false
}
