package models

import "time"

// Answer belongs to exactly one Question.
type Answer struct {
	ID          string    `gorm:"primaryKey;type:uuid" json:"_id"`
	QuestionID  string    `gorm:"type:uuid;index;not null" json:"-"`
	Text        string    `gorm:"not null" json:"text"`
	AnsBy       string    `gorm:"not null" json:"ansBy"`
	AnsDateTime time.Time `json:"ansDateTime"`
	Comments    []Comment `gorm:"foreignKey:AnswerID" json:"comments"`
	CreatedAt   time.Time `json:"-"`
}

// Clone returns a deep copy of the answer.
func (a *Answer) Clone() *Answer {
	if a == nil {
		return nil
	}
	c := *a
	c.Comments = append([]Comment{}, a.Comments...)
	return &c
}
