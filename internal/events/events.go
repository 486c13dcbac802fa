// Package events defines the live-update events broadcast to connected
// clients and the process-wide bus that fans them out.
package events

import (
	"encoding/json"
	"fmt"

	"github.com/emilythestrangee/qa-forum/backend/internal/models"
)

// Kind names an event on the wire.
type Kind string

const (
	KindCommentUpdate  Kind = "commentUpdate"
	KindAnswerUpdate   Kind = "answerUpdate"
	KindVoteUpdate     Kind = "handleVoteUpdate"
	KindViewsUpdate    Kind = "viewsUpdate"
	KindQuestionUpdate Kind = "questionUpdate"
)

// Event is one of the concrete event types declared in this package.
type Event interface {
	Kind() Kind
	isEvent()
}

// AnswerUpdate announces a new answer on question QID.
type AnswerUpdate struct {
	QID    string         `json:"qid"`
	Answer *models.Answer `json:"answer"`
}

// CommentUpdate carries the populated document a comment was added to.
type CommentUpdate struct {
	Result CommentTarget     `json:"result"`
	Type   models.TargetKind `json:"type"`
}

// VoteUpdate carries the resulting vote sets of question QID.
type VoteUpdate struct {
	QID       string   `json:"qid"`
	UpVotes   []string `json:"upVotes"`
	DownVotes []string `json:"downVotes"`
}

// ViewsUpdate carries a question whose view counter changed. On the wire
// the payload is the question itself.
type ViewsUpdate struct {
	Question *models.Question
}

// QuestionUpdate announces a newly asked question. On the wire the payload
// is the question itself.
type QuestionUpdate struct {
	Question *models.Question
}

func (AnswerUpdate) Kind() Kind   { return KindAnswerUpdate }
func (CommentUpdate) Kind() Kind  { return KindCommentUpdate }
func (VoteUpdate) Kind() Kind     { return KindVoteUpdate }
func (ViewsUpdate) Kind() Kind    { return KindViewsUpdate }
func (QuestionUpdate) Kind() Kind { return KindQuestionUpdate }

func (AnswerUpdate) isEvent()   {}
func (CommentUpdate) isEvent()  {}
func (VoteUpdate) isEvent()     {}
func (ViewsUpdate) isEvent()    {}
func (QuestionUpdate) isEvent() {}

func (e ViewsUpdate) MarshalJSON() ([]byte, error)    { return json.Marshal(e.Question) }
func (e QuestionUpdate) MarshalJSON() ([]byte, error) { return json.Marshal(e.Question) }

func (e *ViewsUpdate) UnmarshalJSON(data []byte) error {
	return json.Unmarshal(data, &e.Question)
}

func (e *QuestionUpdate) UnmarshalJSON(data []byte) error {
	return json.Unmarshal(data, &e.Question)
}

// CommentTarget is the document a comment landed on, tagged by kind so
// receivers never have to guess the shape of the value.
type CommentTarget struct {
	Kind     models.TargetKind
	Question *models.Question
	Answer   *models.Answer
}

// QuestionTarget tags a populated question.
func QuestionTarget(q *models.Question) CommentTarget {
	return CommentTarget{Kind: models.TargetQuestion, Question: q}
}

// AnswerTarget tags a populated answer.
func AnswerTarget(a *models.Answer) CommentTarget {
	return CommentTarget{Kind: models.TargetAnswer, Answer: a}
}

type taggedValue struct {
	Kind  models.TargetKind `json:"kind"`
	Value json.RawMessage   `json:"value"`
}

func (t CommentTarget) MarshalJSON() ([]byte, error) {
	var (
		value []byte
		err   error
	)
	switch t.Kind {
	case models.TargetQuestion:
		value, err = json.Marshal(t.Question)
	case models.TargetAnswer:
		value, err = json.Marshal(t.Answer)
	default:
		return nil, fmt.Errorf("comment target: unknown kind %q", t.Kind)
	}
	if err != nil {
		return nil, err
	}
	return json.Marshal(taggedValue{Kind: t.Kind, Value: value})
}

func (t *CommentTarget) UnmarshalJSON(data []byte) error {
	var tv taggedValue
	if err := json.Unmarshal(data, &tv); err != nil {
		return err
	}
	*t = CommentTarget{Kind: tv.Kind}
	switch tv.Kind {
	case models.TargetQuestion:
		return json.Unmarshal(tv.Value, &t.Question)
	case models.TargetAnswer:
		return json.Unmarshal(tv.Value, &t.Answer)
	default:
		return fmt.Errorf("comment target: unknown kind %q", tv.Kind)
	}
}
