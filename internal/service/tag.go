package service

import (
	"context"
	"strings"

	"github.com/emilythestrangee/qa-forum/backend/internal/models"
)

// TagsWithQuestionCount lists every tag with its number of questions.
func (s *Service) TagsWithQuestionCount(ctx context.Context) ([]models.TagData, error) {
	tags, err := s.store.TagsWithQuestionCount(ctx)
	if err != nil {
		return nil, models.NewStorageError("list tags", err)
	}
	if tags == nil {
		tags = []models.TagData{}
	}
	return tags, nil
}

// TagByName returns a single tag.
func (s *Service) TagByName(ctx context.Context, name string) (*models.Tag, error) {
	if strings.TrimSpace(name) == "" {
		return nil, models.NewValidationError("name", "required")
	}
	tag, err := s.store.TagByName(ctx, name)
	if err != nil {
		return nil, models.NewStorageError("get tag", err)
	}
	return tag, nil
}
