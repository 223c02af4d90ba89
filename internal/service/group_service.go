package service

import (
	"context"
	"strings"

	"yatube/internal/cache"
	"yatube/internal/models"
	"yatube/internal/repository"
	"yatube/internal/validation"
)

type GroupService struct {
	groupRepo repository.GroupRepository
	index     cache.PageCache
}

type CreateGroupInput struct {
	Title       string
	Slug        string
	Description string
}

func NewGroupService(groupRepo repository.GroupRepository, index cache.PageCache) *GroupService {
	return &GroupService{groupRepo: groupRepo, index: index}
}

func (s *GroupService) Create(ctx context.Context, in CreateGroupInput) (*models.Group, error) {
	title := strings.TrimSpace(in.Title)
	slug := strings.TrimSpace(in.Slug)
	if err := validation.ValidateTitle(title); err != nil {
		return nil, models.NewValidationError(err.Error())
	}
	if err := validation.ValidateSlug(slug); err != nil {
		return nil, models.NewValidationError(err.Error())
	}
	group := &models.Group{Title: title, Slug: slug, Description: strings.TrimSpace(in.Description)}
	if err := s.groupRepo.Create(ctx, group); err != nil {
		return nil, err
	}
	return group, nil
}

func (s *GroupService) GetBySlug(ctx context.Context, slug string) (*models.Group, error) {
	return s.groupRepo.GetBySlug(ctx, slug)
}

// GetByID satisfies forms.GroupLookup.
func (s *GroupService) GetByID(ctx context.Context, id uint) (*models.Group, error) {
	return s.groupRepo.GetByID(ctx, id)
}

func (s *GroupService) List(ctx context.Context) ([]*models.Group, error) {
	return s.groupRepo.List(ctx)
}

// Delete removes the group and leaves its posts ungrouped. Cached index
// pages link to the group, so they are dropped too.
func (s *GroupService) Delete(ctx context.Context, slug string) error {
	if err := s.groupRepo.Delete(ctx, slug); err != nil {
		return err
	}
	if s.index != nil {
		return s.index.Clear(ctx)
	}
	return nil
}
