package repository

import (
	"time"

	"commune-backend/internal/notification/domain"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// notificationRepository implements NotificationRepository on gorm
type notificationRepository struct {
	db *gorm.DB
}

// NewNotificationRepository creates a new instance of notificationRepository
func NewNotificationRepository(db *gorm.DB) NotificationRepository {
	return &notificationRepository{
		db: db,
	}
}

func (r *notificationRepository) Create(notification *domain.Notification) error {
	notification.ID = uuid.New().String()
	notification.PublicID = uuid.New().String()
	notification.CreatedAt = time.Now()
	return r.db.Create(notification).Error
}

func (r *notificationRepository) MarkRead(publicID, userID string) error {
	result := r.db.Model(&domain.Notification{}).
		Where("public_id = ? AND recipient_id = ?", publicID, userID).
		Update("is_read", true)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *notificationRepository) MarkAllRead(userID string) error {
	return r.db.Model(&domain.Notification{}).
		Where("recipient_id = ? AND is_read = ?", userID, false).
		Update("is_read", true).Error
}

// ListForUser pages newest first. The secondary id ordering keeps page
// boundaries deterministic when creation timestamps collide.
func (r *notificationRepository) ListForUser(userID, communityID string, page, size int) ([]domain.Notification, error) {
	if page < 0 {
		page = 0
	}
	if size <= 0 {
		size = 20
	}

	query := r.db.Where("recipient_id = ?", userID)
	if communityID == "" {
		query = query.Where("scope = ?", domain.ScopeGlobal)
	} else {
		query = query.Where("community_id = ?", communityID)
	}

	var notifications []domain.Notification
	err := query.
		Order("created_at DESC, id DESC").
		Offset(page * size).
		Limit(size).
		Find(&notifications).Error
	if err != nil {
		return nil, err
	}
	return notifications, nil
}

func (r *notificationRepository) CountUnread(userID string) (int64, error) {
	var count int64
	err := r.db.Model(&domain.Notification{}).
		Where("recipient_id = ? AND is_read = ?", userID, false).
		Count(&count).Error
	return count, err
}

func (r *notificationRepository) UnreadByUser() ([]UnreadCount, error) {
	var counts []UnreadCount
	err := r.db.Model(&domain.Notification{}).
		Select("recipient_id, COUNT(*) AS count").
		Where("is_read = ?", false).
		Group("recipient_id").
		Scan(&counts).Error
	if err != nil {
		return nil, err
	}
	return counts, nil
}
