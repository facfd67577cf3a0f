package service

import (
	"context"

	"warbler/internal/models"
	"warbler/internal/repository"
)

// FollowService provides follow-edge business logic.
type FollowService struct {
	followRepo repository.FollowRepository
	userRepo   repository.UserRepository
}

// NewFollowService returns a new FollowService.
func NewFollowService(followRepo repository.FollowRepository, userRepo repository.UserRepository) *FollowService {
	return &FollowService{
		followRepo: followRepo,
		userRepo:   userRepo,
	}
}

// Follow makes followerID follow followedID. The target must exist,
// self-follows are rejected, and an existing edge is left untouched.
func (s *FollowService) Follow(ctx context.Context, followerID, followedID uint) error {
	if followerID == followedID {
		return models.NewValidationError("You cannot follow yourself")
	}
	if _, err := s.userRepo.GetByID(ctx, followedID); err != nil {
		return err
	}

	exists, err := s.followRepo.Exists(ctx, followerID, followedID)
	if err != nil {
		return err
	}
	if exists {
		return nil
	}
	return s.followRepo.Create(ctx, followerID, followedID)
}

// Unfollow removes the follower -> followed edge if present.
func (s *FollowService) Unfollow(ctx context.Context, followerID, followedID uint) error {
	if _, err := s.userRepo.GetByID(ctx, followedID); err != nil {
		return err
	}
	return s.followRepo.Delete(ctx, followerID, followedID)
}

// IsFollowing reports whether a follows b.
func (s *FollowService) IsFollowing(ctx context.Context, a, b uint) (bool, error) {
	return s.followRepo.Exists(ctx, a, b)
}

// IsFollowedBy reports whether b follows a.
func (s *FollowService) IsFollowedBy(ctx context.Context, a, b uint) (bool, error) {
	return s.followRepo.Exists(ctx, b, a)
}

// Following returns the users that userID follows.
func (s *FollowService) Following(ctx context.Context, userID uint) ([]models.User, error) {
	if _, err := s.userRepo.GetByID(ctx, userID); err != nil {
		return nil, err
	}
	return s.followRepo.Following(ctx, userID)
}

// Followers returns the users following userID.
func (s *FollowService) Followers(ctx context.Context, userID uint) ([]models.User, error) {
	if _, err := s.userRepo.GetByID(ctx, userID); err != nil {
		return nil, err
	}
	return s.followRepo.Followers(ctx, userID)
}
