package service

import (
	"context"
	"testing"

	"warbler/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// followRepoStub is a stub for repository.FollowRepository.
type followRepoStub struct {
	createFn    func(context.Context, uint, uint) error
	deleteFn    func(context.Context, uint, uint) error
	existsFn    func(context.Context, uint, uint) (bool, error)
	followingFn func(context.Context, uint) ([]models.User, error)
	followersFn func(context.Context, uint) ([]models.User, error)
}

func (s *followRepoStub) Create(ctx context.Context, followerID, followedID uint) error {
	return s.createFn(ctx, followerID, followedID)
}
func (s *followRepoStub) Delete(ctx context.Context, followerID, followedID uint) error {
	return s.deleteFn(ctx, followerID, followedID)
}
func (s *followRepoStub) Exists(ctx context.Context, followerID, followedID uint) (bool, error) {
	return s.existsFn(ctx, followerID, followedID)
}
func (s *followRepoStub) Following(ctx context.Context, userID uint) ([]models.User, error) {
	return s.followingFn(ctx, userID)
}
func (s *followRepoStub) Followers(ctx context.Context, userID uint) ([]models.User, error) {
	return s.followersFn(ctx, userID)
}

func noopFollowRepo() *followRepoStub {
	return &followRepoStub{
		createFn:    func(context.Context, uint, uint) error { return nil },
		deleteFn:    func(context.Context, uint, uint) error { return nil },
		existsFn:    func(context.Context, uint, uint) (bool, error) { return false, nil },
		followingFn: func(context.Context, uint) ([]models.User, error) { return nil, nil },
		followersFn: func(context.Context, uint) ([]models.User, error) { return nil, nil },
	}
}

func TestFollowService_Follow(t *testing.T) {
	ctx := context.Background()

	t.Run("self follow is rejected", func(t *testing.T) {
		repo := noopFollowRepo()
		repo.createFn = func(context.Context, uint, uint) error {
			t.Fatal("create should not be called")
			return nil
		}
		svc := NewFollowService(repo, noopUserRepo())

		err := svc.Follow(ctx, 1, 1)
		require.Error(t, err)
		assert.Equal(t, models.CodeValidation, models.ErrorCode(err))
	})

	t.Run("missing target propagates not found", func(t *testing.T) {
		users := noopUserRepo()
		users.getByIDFn = func(_ context.Context, id uint) (*models.User, error) {
			return nil, models.NewNotFoundError("User", id)
		}
		svc := NewFollowService(noopFollowRepo(), users)

		err := svc.Follow(ctx, 1, 99)
		require.Error(t, err)
		assert.Equal(t, models.CodeNotFound, models.ErrorCode(err))
	})

	t.Run("existing edge is a no-op", func(t *testing.T) {
		repo := noopFollowRepo()
		repo.existsFn = func(context.Context, uint, uint) (bool, error) { return true, nil }
		repo.createFn = func(context.Context, uint, uint) error {
			t.Fatal("create should not be called for an existing edge")
			return nil
		}
		svc := NewFollowService(repo, noopUserRepo())

		assert.NoError(t, svc.Follow(ctx, 1, 2))
	})

	t.Run("new edge is created", func(t *testing.T) {
		repo := noopFollowRepo()
		var gotFollower, gotFollowed uint
		repo.createFn = func(_ context.Context, followerID, followedID uint) error {
			gotFollower, gotFollowed = followerID, followedID
			return nil
		}
		svc := NewFollowService(repo, noopUserRepo())

		require.NoError(t, svc.Follow(ctx, 1, 2))
		assert.Equal(t, uint(1), gotFollower)
		assert.Equal(t, uint(2), gotFollowed)
	})
}

func TestFollowService_Directionality(t *testing.T) {
	repo := noopFollowRepo()
	repo.existsFn = func(_ context.Context, followerID, followedID uint) (bool, error) {
		return followerID == 1 && followedID == 2, nil
	}
	svc := NewFollowService(repo, noopUserRepo())
	ctx := context.Background()

	following, err := svc.IsFollowing(ctx, 1, 2)
	require.NoError(t, err)
	assert.True(t, following)

	followedBy, err := svc.IsFollowedBy(ctx, 1, 2)
	require.NoError(t, err)
	assert.False(t, followedBy)

	followedBy, err = svc.IsFollowedBy(ctx, 2, 1)
	require.NoError(t, err)
	assert.True(t, followedBy)
}
