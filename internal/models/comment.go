package models

import "time"

// TargetKind names the kind of document a comment is attached to.
type TargetKind string

const (
	TargetQuestion TargetKind = "question"
	TargetAnswer   TargetKind = "answer"
)

// Valid reports whether k is a known target kind.
func (k TargetKind) Valid() bool {
	return k == TargetQuestion || k == TargetAnswer
}

// Comment is owned by exactly one Question or one Answer, never both.
type Comment struct {
	ID              string    `gorm:"primaryKey;type:uuid" json:"_id"`
	QuestionID      *string   `gorm:"type:uuid;index" json:"-"`
	AnswerID        *string   `gorm:"type:uuid;index" json:"-"`
	Text            string    `gorm:"not null" json:"text"`
	CommentBy       string    `gorm:"not null" json:"commentBy"`
	CommentDateTime time.Time `json:"commentDateTime"`
	CreatedAt       time.Time `json:"-"`
}

// AddCommentRequest is the body of POST /comment/addComment.
type AddCommentRequest struct {
	ID      string     `json:"id"`
	Type    TargetKind `json:"type"`
	Comment *Comment   `json:"comment"`
}
