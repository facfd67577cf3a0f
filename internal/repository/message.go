package repository

import (
	"context"
	"errors"

	"warbler/internal/models"

	"gorm.io/gorm"
)

// FeedLimit caps the number of messages returned by timeline queries.
const FeedLimit = 100

// MessageRepository defines persistence operations for messages and likes.
type MessageRepository interface {
	Create(ctx context.Context, message *models.Message) error
	GetByID(ctx context.Context, id, currentUserID uint) (*models.Message, error)
	Delete(ctx context.Context, id uint) error
	ByUser(ctx context.Context, userID uint, limit int, currentUserID uint) ([]models.Message, error)
	Feed(ctx context.Context, userID uint, limit int) ([]models.Message, error)

	Like(ctx context.Context, userID, messageID uint) error
	Unlike(ctx context.Context, userID, messageID uint) error
	IsLiked(ctx context.Context, userID, messageID uint) (bool, error)
	LikeCount(ctx context.Context, messageID uint) (int64, error)
	LikedBy(ctx context.Context, userID uint) ([]models.Message, error)
}

type messageRepository struct {
	db *gorm.DB
}

// NewMessageRepository returns a new MessageRepository implementation.
func NewMessageRepository(db *gorm.DB) MessageRepository {
	return &messageRepository{db: db}
}

func (r *messageRepository) Create(ctx context.Context, message *models.Message) error {
	if err := r.db.WithContext(ctx).Create(message).Error; err != nil {
		return models.NewInternalError(err)
	}
	return nil
}

func (r *messageRepository) GetByID(ctx context.Context, id, currentUserID uint) (*models.Message, error) {
	var message models.Message
	if err := r.db.WithContext(ctx).Preload("User").First(&message, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, models.NewNotFoundError("Message", id)
		}
		return nil, models.NewInternalError(err)
	}

	if err := r.populateDetails(ctx, []*models.Message{&message}, currentUserID); err != nil {
		return nil, err
	}
	return &message, nil
}

// Delete removes the message and its likes in one transaction.
func (r *messageRepository) Delete(ctx context.Context, id uint) error {
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("message_id = ?", id).Delete(&models.Like{}).Error; err != nil {
			return err
		}
		return tx.Delete(&models.Message{}, id).Error
	})
	if err != nil {
		return models.NewInternalError(err)
	}
	return nil
}

func (r *messageRepository) ByUser(ctx context.Context, userID uint, limit int, currentUserID uint) ([]models.Message, error) {
	var messages []models.Message
	if limit <= 0 || limit > FeedLimit {
		limit = FeedLimit
	}
	err := r.db.WithContext(ctx).
		Preload("User").
		Where("user_id = ?", userID).
		Order("created_at DESC").
		Limit(limit).
		Find(&messages).Error
	if err != nil {
		return nil, models.NewInternalError(err)
	}
	if err := r.populateDetailsSlice(ctx, messages, currentUserID); err != nil {
		return nil, err
	}
	return messages, nil
}

// Feed returns the newest messages owned by userID or by anyone userID
// follows, newest first, capped at limit.
func (r *messageRepository) Feed(ctx context.Context, userID uint, limit int) ([]models.Message, error) {
	var messages []models.Message
	if limit <= 0 || limit > FeedLimit {
		limit = FeedLimit
	}

	followedIDs := r.db.Model(&models.Follow{}).
		Select("followed_id").
		Where("follower_id = ?", userID)

	err := r.db.WithContext(ctx).
		Preload("User").
		Where("user_id = ? OR user_id IN (?)", userID, followedIDs).
		Order("created_at DESC").
		Limit(limit).
		Find(&messages).Error
	if err != nil {
		return nil, models.NewInternalError(err)
	}
	if err := r.populateDetailsSlice(ctx, messages, userID); err != nil {
		return nil, err
	}
	return messages, nil
}

// Like inserts a like edge. A duplicate like is a no-op: the unique index
// over (user_id, message_id) dedupes and the conflict is swallowed.
func (r *messageRepository) Like(ctx context.Context, userID, messageID uint) error {
	like := &models.Like{UserID: userID, MessageID: messageID}
	if err := r.db.WithContext(ctx).Create(like).Error; err != nil {
		if isUniqueConstraintError(err) {
			return nil
		}
		return models.NewInternalError(err)
	}
	return nil
}

func (r *messageRepository) Unlike(ctx context.Context, userID, messageID uint) error {
	err := r.db.WithContext(ctx).
		Where("user_id = ? AND message_id = ?", userID, messageID).
		Delete(&models.Like{}).Error
	if err != nil {
		return models.NewInternalError(err)
	}
	return nil
}

func (r *messageRepository) IsLiked(ctx context.Context, userID, messageID uint) (bool, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&models.Like{}).
		Where("user_id = ? AND message_id = ?", userID, messageID).
		Count(&count).Error
	if err != nil {
		return false, models.NewInternalError(err)
	}
	return count > 0, nil
}

func (r *messageRepository) LikeCount(ctx context.Context, messageID uint) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&models.Like{}).
		Where("message_id = ?", messageID).
		Count(&count).Error
	if err != nil {
		return 0, models.NewInternalError(err)
	}
	return count, nil
}

// LikedBy returns the messages userID has liked, newest like first.
func (r *messageRepository) LikedBy(ctx context.Context, userID uint) ([]models.Message, error) {
	var messages []models.Message
	err := r.db.WithContext(ctx).
		Preload("User").
		Joins("JOIN likes ON likes.message_id = messages.id").
		Where("likes.user_id = ?", userID).
		Order("likes.created_at DESC").
		Find(&messages).Error
	if err != nil {
		return nil, models.NewInternalError(err)
	}
	if err := r.populateDetailsSlice(ctx, messages, userID); err != nil {
		return nil, err
	}
	return messages, nil
}

func (r *messageRepository) populateDetailsSlice(ctx context.Context, messages []models.Message, currentUserID uint) error {
	ptrs := make([]*models.Message, len(messages))
	for i := range messages {
		ptrs[i] = &messages[i]
	}
	return r.populateDetails(ctx, ptrs, currentUserID)
}

// populateDetails fills the computed LikesCount and Liked fields in bulk.
func (r *messageRepository) populateDetails(ctx context.Context, messages []*models.Message, currentUserID uint) error {
	if len(messages) == 0 {
		return nil
	}

	ids := make([]uint, len(messages))
	for i, m := range messages {
		ids[i] = m.ID
	}

	type likeCount struct {
		MessageID uint
		Count     int64
	}
	var counts []likeCount
	err := r.db.WithContext(ctx).Model(&models.Like{}).
		Select("message_id, COUNT(*) AS count").
		Where("message_id IN ?", ids).
		Group("message_id").
		Scan(&counts).Error
	if err != nil {
		return models.NewInternalError(err)
	}
	countByID := make(map[uint]int64, len(counts))
	for _, c := range counts {
		countByID[c.MessageID] = c.Count
	}

	likedByID := make(map[uint]bool)
	if currentUserID != 0 {
		var likedIDs []uint
		err := r.db.WithContext(ctx).Model(&models.Like{}).
			Where("user_id = ? AND message_id IN ?", currentUserID, ids).
			Pluck("message_id", &likedIDs).Error
		if err != nil {
			return models.NewInternalError(err)
		}
		for _, id := range likedIDs {
			likedByID[id] = true
		}
	}

	for _, m := range messages {
		m.LikesCount = countByID[m.ID]
		m.Liked = likedByID[m.ID]
	}
	return nil
}
