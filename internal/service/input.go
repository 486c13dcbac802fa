package service

import (
	"strings"
	"time"

	"github.com/emilythestrangee/qa-forum/backend/internal/models"
)

const (
	maxTitleLength   = 100
	maxTags          = 5
	maxTagNameLength = 20
)

func blank(s string) bool {
	return strings.TrimSpace(s) == ""
}

// AddCommentInput holds the parameters for commenting on a question or answer.
type AddCommentInput struct {
	TargetID   string
	TargetType models.TargetKind
	Comment    *models.Comment
}

// ValidateRequest checks the request shape: a target and a comment object.
func (i AddCommentInput) ValidateRequest() error {
	var errs []models.FieldError
	if blank(i.TargetID) {
		errs = append(errs, models.FieldError{Field: "id", Message: "required"})
	}
	if !i.TargetType.Valid() {
		errs = append(errs, models.FieldError{Field: "type", Message: "must be question or answer"})
	}
	if i.Comment == nil {
		errs = append(errs, models.FieldError{Field: "comment", Message: "required"})
	}
	if len(errs) > 0 {
		return &models.ValidationError{Errors: errs}
	}
	return nil
}

// ValidateComment checks the comment itself.
func (i AddCommentInput) ValidateComment() error {
	var errs []models.FieldError
	if blank(i.Comment.Text) {
		errs = append(errs, models.FieldError{Field: "text", Message: "required"})
	}
	if blank(i.Comment.CommentBy) {
		errs = append(errs, models.FieldError{Field: "commentBy", Message: "required"})
	}
	if i.Comment.CommentDateTime.IsZero() {
		errs = append(errs, models.FieldError{Field: "commentDateTime", Message: "required"})
	}
	if len(errs) > 0 {
		return &models.ValidationError{Errors: errs}
	}
	return nil
}

// Validate checks both the request shape and the comment.
func (i AddCommentInput) Validate() error {
	if err := i.ValidateRequest(); err != nil {
		return err
	}
	return i.ValidateComment()
}

// AddAnswerInput holds the parameters for answering a question.
type AddAnswerInput struct {
	QID    string
	Answer *models.Answer
}

// Validate checks all fields and collects all errors.
func (i AddAnswerInput) Validate() error {
	var errs []models.FieldError
	if blank(i.QID) {
		errs = append(errs, models.FieldError{Field: "qid", Message: "required"})
	}
	if i.Answer == nil {
		errs = append(errs, models.FieldError{Field: "ans", Message: "required"})
		return &models.ValidationError{Errors: errs}
	}
	if blank(i.Answer.Text) {
		errs = append(errs, models.FieldError{Field: "text", Message: "required"})
	}
	if blank(i.Answer.AnsBy) {
		errs = append(errs, models.FieldError{Field: "ansBy", Message: "required"})
	}
	if i.Answer.AnsDateTime.IsZero() {
		errs = append(errs, models.FieldError{Field: "ansDateTime", Message: "required"})
	}
	if len(errs) > 0 {
		return &models.ValidationError{Errors: errs}
	}
	return nil
}

// VoteInput holds the parameters for voting on a question.
type VoteInput struct {
	QID       string
	Username  string
	Direction models.VoteDirection
}

// Validate checks all fields and collects all errors.
func (i VoteInput) Validate() error {
	var errs []models.FieldError
	if blank(i.QID) {
		errs = append(errs, models.FieldError{Field: "qid", Message: "required"})
	}
	if blank(i.Username) {
		errs = append(errs, models.FieldError{Field: "username", Message: "required"})
	}
	if !i.Direction.Valid() {
		errs = append(errs, models.FieldError{Field: "direction", Message: "must be upvote or downvote"})
	}
	if len(errs) > 0 {
		return &models.ValidationError{Errors: errs}
	}
	return nil
}

// AddQuestionInput holds the parameters for asking a question.
type AddQuestionInput struct {
	Title       string
	Text        string
	Tags        []string
	AskedBy     string
	AskDateTime time.Time
}

// Validate checks all fields and collects all errors.
func (i AddQuestionInput) Validate() error {
	var errs []models.FieldError

	title := strings.TrimSpace(i.Title)
	if title == "" {
		errs = append(errs, models.FieldError{Field: "title", Message: "required"})
	}
	if len(title) > maxTitleLength {
		errs = append(errs, models.FieldError{Field: "title", Message: "max 100 characters"})
	}
	if blank(i.Text) {
		errs = append(errs, models.FieldError{Field: "text", Message: "required"})
	}
	if blank(i.AskedBy) {
		errs = append(errs, models.FieldError{Field: "askedBy", Message: "required"})
	}
	if i.AskDateTime.IsZero() {
		errs = append(errs, models.FieldError{Field: "askDateTime", Message: "required"})
	}

	tags := i.tagNames()
	if len(tags) == 0 {
		errs = append(errs, models.FieldError{Field: "tags", Message: "at least one tag required"})
	}
	if len(tags) > maxTags {
		errs = append(errs, models.FieldError{Field: "tags", Message: "max 5 tags"})
	}
	for _, name := range tags {
		if len(name) > maxTagNameLength {
			errs = append(errs, models.FieldError{Field: "tags", Message: "tag names are max 20 characters"})
			break
		}
	}

	if len(errs) > 0 {
		return &models.ValidationError{Errors: errs}
	}
	return nil
}

// tagNames returns the trimmed, lower-cased, de-duplicated tag names.
func (i AddQuestionInput) tagNames() []string {
	seen := make(map[string]bool, len(i.Tags))
	var names []string
	for _, t := range i.Tags {
		name := strings.ToLower(strings.TrimSpace(t))
		if name == "" || seen[name] {
			continue
		}
		seen[name] = true
		names = append(names, name)
	}
	return names
}
