package service

import (
	"context"

	"yatube/internal/models"
	"yatube/internal/observability"
	"yatube/internal/repository"
)

type FollowService struct {
	followRepo repository.FollowRepository
	userRepo   repository.UserRepository
}

func NewFollowService(followRepo repository.FollowRepository, userRepo repository.UserRepository) *FollowService {
	return &FollowService{followRepo: followRepo, userRepo: userRepo}
}

// Follow subscribes userID to the author named username. Following oneself
// or an author already followed changes nothing.
func (s *FollowService) Follow(ctx context.Context, userID uint, username string) (*models.User, error) {
	author, err := s.userRepo.GetByUsername(ctx, username)
	if err != nil {
		return nil, err
	}
	if author.ID == userID {
		return author, nil
	}
	created, err := s.followRepo.Create(ctx, userID, author.ID)
	if err != nil {
		return nil, err
	}
	if created {
		observability.FollowToggles.WithLabelValues("follow").Inc()
	}
	return author, nil
}

// Unfollow removes the subscription if it exists.
func (s *FollowService) Unfollow(ctx context.Context, userID uint, username string) (*models.User, error) {
	author, err := s.userRepo.GetByUsername(ctx, username)
	if err != nil {
		return nil, err
	}
	deleted, err := s.followRepo.Delete(ctx, userID, author.ID)
	if err != nil {
		return nil, err
	}
	if deleted {
		observability.FollowToggles.WithLabelValues("unfollow").Inc()
	}
	return author, nil
}

func (s *FollowService) IsFollowing(ctx context.Context, userID, authorID uint) (bool, error) {
	if userID == 0 || userID == authorID {
		return false, nil
	}
	return s.followRepo.Exists(ctx, userID, authorID)
}

// FollowStats is the follower/following count shown on a profile.
type FollowStats struct {
	Followers int64
	Following int64
}

func (s *FollowService) Stats(ctx context.Context, userID uint) (FollowStats, error) {
	followers, err := s.followRepo.CountFollowers(ctx, userID)
	if err != nil {
		return FollowStats{}, err
	}
	following, err := s.followRepo.CountFollowing(ctx, userID)
	if err != nil {
		return FollowStats{}, err
	}
	return FollowStats{Followers: followers, Following: following}, nil
}
