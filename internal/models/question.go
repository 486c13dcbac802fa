package models

import (
	"time"

	"github.com/lib/pq"
)

// Question is the root of the aggregate delivered to clients: the question
// itself together with its answers, tags and comments.
type Question struct {
	ID          string         `gorm:"primaryKey;type:uuid" json:"_id"`
	Title       string         `gorm:"not null" json:"title"`
	Text        string         `gorm:"not null" json:"text"`
	Tags        []Tag          `gorm:"many2many:question_tags" json:"tags"`
	AskedBy     string         `gorm:"not null" json:"askedBy"`
	AskDateTime time.Time      `json:"askDateTime"`
	Answers     []Answer       `gorm:"foreignKey:QuestionID" json:"answers"`
	Views       int            `gorm:"default:0" json:"views"`
	UpVotes     pq.StringArray `gorm:"type:text[]" json:"upVotes"`
	DownVotes   pq.StringArray `gorm:"type:text[]" json:"downVotes"`
	Comments    []Comment      `gorm:"foreignKey:QuestionID" json:"comments"`
}

// LatestAnswerTime returns the most recent answer date, or the zero time
// when the question is unanswered.
func (q *Question) LatestAnswerTime() time.Time {
	var latest time.Time
	for _, a := range q.Answers {
		if a.AnsDateTime.After(latest) {
			latest = a.AnsDateTime
		}
	}
	return latest
}

// Clone returns a deep copy so callers can hand the aggregate out without
// sharing slices with the owner.
func (q *Question) Clone() *Question {
	if q == nil {
		return nil
	}
	c := *q
	c.Tags = append([]Tag{}, q.Tags...)
	c.UpVotes = append(pq.StringArray{}, q.UpVotes...)
	c.DownVotes = append(pq.StringArray{}, q.DownVotes...)
	c.Comments = append([]Comment{}, q.Comments...)
	c.Answers = make([]Answer, len(q.Answers))
	for i := range q.Answers {
		c.Answers[i] = *q.Answers[i].Clone()
	}
	return &c
}
