package repository

import (
	"errors"
	"time"

	"commune-backend/internal/community/domain"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type inviteRepository struct {
	db *gorm.DB
}

// NewInviteRepository creates a new invite repository
func NewInviteRepository(db *gorm.DB) InviteRepository {
	return &inviteRepository{db: db}
}

func (r *inviteRepository) Create(invite *domain.Invite) error {
	if invite.ID == "" {
		invite.ID = uuid.New().String()
	}
	if invite.Status == "" {
		invite.Status = domain.InvitePending
	}
	now := time.Now()
	invite.CreatedAt = now
	invite.UpdatedAt = now
	return r.db.Create(invite).Error
}

func (r *inviteRepository) FindByID(id string) (*domain.Invite, error) {
	var invite domain.Invite
	err := r.db.Where("id = ?", id).First(&invite).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &invite, nil
}

func (r *inviteRepository) FindPending(communityID, inviteeID string) (*domain.Invite, error) {
	var invite domain.Invite
	err := r.db.Where("community_id = ? AND invitee_id = ? AND status = ?",
		communityID, inviteeID, domain.InvitePending).
		First(&invite).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &invite, nil
}

func (r *inviteRepository) UpdateStatus(id, status string) error {
	return r.db.Model(&domain.Invite{}).
		Where("id = ?", id).
		Updates(map[string]interface{}{"status": status, "updated_at": time.Now()}).Error
}

func (r *inviteRepository) ListForInvitee(inviteeID string) ([]domain.Invite, error) {
	var invites []domain.Invite
	err := r.db.Where("invitee_id = ? AND status = ?", inviteeID, domain.InvitePending).
		Order("created_at DESC").
		Find(&invites).Error
	return invites, err
}
