package service

import (
	"context"
	"strings"
	"unicode/utf8"

	"warbler/internal/models"
	"warbler/internal/repository"
)

// MessageService provides message and like business logic.
type MessageService struct {
	messageRepo repository.MessageRepository
	userRepo    repository.UserRepository
}

// NewMessageService returns a new MessageService.
func NewMessageService(messageRepo repository.MessageRepository, userRepo repository.UserRepository) *MessageService {
	return &MessageService{
		messageRepo: messageRepo,
		userRepo:    userRepo,
	}
}

// Post creates a message owned by userID.
func (s *MessageService) Post(ctx context.Context, userID uint, text string) (*models.Message, error) {
	text = strings.TrimSpace(text)
	if text == "" {
		return nil, models.NewValidationError("Message text is required")
	}
	if utf8.RuneCountInString(text) > models.MaxMessageLen {
		return nil, models.NewValidationError("Message must be 140 characters or fewer")
	}

	message := &models.Message{Text: text, UserID: userID}
	if err := s.messageRepo.Create(ctx, message); err != nil {
		return nil, err
	}
	return message, nil
}

// Get returns the message with the given id. currentUserID (0 for
// anonymous) drives the computed Liked field.
func (s *MessageService) Get(ctx context.Context, id, currentUserID uint) (*models.Message, error) {
	return s.messageRepo.GetByID(ctx, id, currentUserID)
}

// Delete removes a message. Only the owner may delete; any other identity
// gets an unauthorized error and no row is removed.
func (s *MessageService) Delete(ctx context.Context, actingUserID, messageID uint) error {
	message, err := s.messageRepo.GetByID(ctx, messageID, actingUserID)
	if err != nil {
		return err
	}
	if message.UserID != actingUserID {
		return models.NewUnauthorizedError("Access unauthorized.")
	}
	return s.messageRepo.Delete(ctx, messageID)
}

// Feed returns the newest messages by userID and everyone userID follows,
// capped at the feed limit.
func (s *MessageService) Feed(ctx context.Context, userID uint) ([]models.Message, error) {
	return s.messageRepo.Feed(ctx, userID, repository.FeedLimit)
}

// ByUser returns the most recent messages owned by userID.
func (s *MessageService) ByUser(ctx context.Context, userID, currentUserID uint) ([]models.Message, error) {
	return s.messageRepo.ByUser(ctx, userID, repository.FeedLimit, currentUserID)
}

// Like marks the message as liked by userID. Liking a message twice is a
// no-op. The message must exist.
func (s *MessageService) Like(ctx context.Context, userID, messageID uint) error {
	if _, err := s.messageRepo.GetByID(ctx, messageID, userID); err != nil {
		return err
	}
	return s.messageRepo.Like(ctx, userID, messageID)
}

// Unlike removes userID's like on the message if present.
func (s *MessageService) Unlike(ctx context.Context, userID, messageID uint) error {
	if _, err := s.messageRepo.GetByID(ctx, messageID, userID); err != nil {
		return err
	}
	return s.messageRepo.Unlike(ctx, userID, messageID)
}

// LikedBy returns the messages userID has liked.
func (s *MessageService) LikedBy(ctx context.Context, userID uint) ([]models.Message, error) {
	if _, err := s.userRepo.GetByID(ctx, userID); err != nil {
		return nil, err
	}
	return s.messageRepo.LikedBy(ctx, userID)
}

// LikeCount returns the number of likes on a message.
func (s *MessageService) LikeCount(ctx context.Context, messageID uint) (int64, error) {
	return s.messageRepo.LikeCount(ctx, messageID)
}
