package repositories

import (
	"context"
	"time"

	"github.com/RocketHubAI/rocket-dispatch/internal/domain/models"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

type MessageRepository struct {
	*BaseRepository[models.ChatMessage]
}

func NewMessageRepository(db *gorm.DB) *MessageRepository {
	return &MessageRepository{
		BaseRepository: NewBaseRepository[models.ChatMessage](db),
	}
}

// FindVisible returns a user's feed rows for a channel, excluding
// pre-generated content whose deliver_at has not passed yet.
func (r *MessageRepository) FindVisible(ctx context.Context, userID uuid.UUID, channel string, opts *ListOptions) ([]models.ChatMessage, int64, error) {
	var messages []models.ChatMessage
	var total int64

	query := r.DB().WithContext(ctx).
		Where("user_id = ? AND channel = ? AND (deliver_at IS NULL OR deliver_at <= ?)",
			userID, channel, time.Now())
	query.Model(&models.ChatMessage{}).Count(&total)

	if opts != nil {
		query = query.Offset(opts.Offset).Limit(opts.Limit).Order(opts.OrderBy + " " + opts.Order)
	}

	err := query.Find(&messages).Error
	return messages, total, err
}

type NotificationRepository struct {
	*BaseRepository[models.Notification]
}

func NewNotificationRepository(db *gorm.DB) *NotificationRepository {
	return &NotificationRepository{
		BaseRepository: NewBaseRepository[models.Notification](db),
	}
}

func (r *NotificationRepository) FindUnread(ctx context.Context, userID uuid.UUID) ([]models.Notification, error) {
	var notifications []models.Notification
	err := r.DB().WithContext(ctx).
		Where("user_id = ? AND read_at IS NULL", userID).
		Order("created_at DESC").
		Find(&notifications).Error
	return notifications, err
}
