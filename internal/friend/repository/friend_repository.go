package repository

import (
	"errors"
	"time"

	"commune-backend/internal/friend/domain"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// FriendRepository defines friend request persistence operations
type FriendRepository interface {
	Create(request *domain.FriendRequest) error
	FindByID(id string) (*domain.FriendRequest, error)
	FindBetween(userA, userB string) (*domain.FriendRequest, error)
	UpdateStatus(id, status string) error
	PendingFor(recipientID string) ([]domain.FriendRequest, error)
	FriendIDs(userID string) ([]string, error)
	Unfriend(userA, userB string) error
}

type friendRepository struct {
	db *gorm.DB
}

// NewFriendRepository creates a new friend repository
func NewFriendRepository(db *gorm.DB) FriendRepository {
	return &friendRepository{db: db}
}

func (r *friendRepository) Create(request *domain.FriendRequest) error {
	if request.ID == "" {
		request.ID = uuid.New().String()
	}
	if request.Status == "" {
		request.Status = domain.RequestPending
	}
	now := time.Now()
	request.CreatedAt = now
	request.UpdatedAt = now
	return r.db.Create(request).Error
}

func (r *friendRepository) FindByID(id string) (*domain.FriendRequest, error) {
	var request domain.FriendRequest
	err := r.db.Where("id = ?", id).First(&request).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &request, nil
}

// FindBetween returns the pending or accepted request between two users,
// in either direction. Declined requests do not block a new one.
func (r *friendRepository) FindBetween(userA, userB string) (*domain.FriendRequest, error) {
	var request domain.FriendRequest
	err := r.db.Where(
		"((sender_id = ? AND recipient_id = ?) OR (sender_id = ? AND recipient_id = ?)) AND status IN ?",
		userA, userB, userB, userA,
		[]string{domain.RequestPending, domain.RequestAccepted},
	).First(&request).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &request, nil
}

func (r *friendRepository) UpdateStatus(id, status string) error {
	return r.db.Model(&domain.FriendRequest{}).
		Where("id = ?", id).
		Updates(map[string]interface{}{"status": status, "updated_at": time.Now()}).Error
}

func (r *friendRepository) PendingFor(recipientID string) ([]domain.FriendRequest, error) {
	var requests []domain.FriendRequest
	err := r.db.Where("recipient_id = ? AND status = ?", recipientID, domain.RequestPending).
		Order("created_at DESC").
		Find(&requests).Error
	return requests, err
}

func (r *friendRepository) FriendIDs(userID string) ([]string, error) {
	var requests []domain.FriendRequest
	err := r.db.Where(
		"(sender_id = ? OR recipient_id = ?) AND status = ?",
		userID, userID, domain.RequestAccepted,
	).Find(&requests).Error
	if err != nil {
		return nil, err
	}

	ids := make([]string, 0, len(requests))
	for _, request := range requests {
		if request.SenderID == userID {
			ids = append(ids, request.RecipientID)
		} else {
			ids = append(ids, request.SenderID)
		}
	}
	return ids, nil
}

func (r *friendRepository) Unfriend(userA, userB string) error {
	return r.db.Where(
		"((sender_id = ? AND recipient_id = ?) OR (sender_id = ? AND recipient_id = ?)) AND status = ?",
		userA, userB, userB, userA, domain.RequestAccepted,
	).Delete(&domain.FriendRequest{}).Error
}
