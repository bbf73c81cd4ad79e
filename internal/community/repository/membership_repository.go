package repository

import (
	"time"

	"commune-backend/internal/community/domain"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type membershipRepository struct {
	db *gorm.DB
}

// NewMembershipRepository creates a new membership repository
func NewMembershipRepository(db *gorm.DB) MembershipRepository {
	return &membershipRepository{db: db}
}

func (r *membershipRepository) Add(membership *domain.Membership) error {
	if membership.ID == "" {
		membership.ID = uuid.New().String()
	}
	membership.JoinedAt = time.Now()
	// Joining twice is a no-op rather than an error.
	return r.db.Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "community_id"}, {Name: "user_id"}},
		DoNothing: true,
	}).Create(membership).Error
}

func (r *membershipRepository) Remove(communityID, userID string) error {
	return r.db.Where("community_id = ? AND user_id = ?", communityID, userID).
		Delete(&domain.Membership{}).Error
}

func (r *membershipRepository) RemoveAll(communityID string) error {
	return r.db.Where("community_id = ?", communityID).
		Delete(&domain.Membership{}).Error
}

func (r *membershipRepository) IsMember(communityID, userID string) (bool, error) {
	var count int64
	err := r.db.Model(&domain.Membership{}).
		Where("community_id = ? AND user_id = ?", communityID, userID).
		Count(&count).Error
	return count > 0, err
}

func (r *membershipRepository) MemberIDs(communityID string) ([]string, error) {
	var ids []string
	err := r.db.Model(&domain.Membership{}).
		Where("community_id = ?", communityID).
		Pluck("user_id", &ids).Error
	return ids, err
}

func (r *membershipRepository) Members(communityID string) ([]domain.Membership, error) {
	var memberships []domain.Membership
	err := r.db.Where("community_id = ?", communityID).
		Order("joined_at ASC").
		Find(&memberships).Error
	return memberships, err
}

func (r *membershipRepository) CountMembers(communityID string) (int64, error) {
	var count int64
	err := r.db.Model(&domain.Membership{}).
		Where("community_id = ?", communityID).
		Count(&count).Error
	return count, err
}

func (r *membershipRepository) CommunitiesOf(userID string) ([]string, error) {
	var ids []string
	err := r.db.Model(&domain.Membership{}).
		Where("user_id = ?", userID).
		Pluck("community_id", &ids).Error
	return ids, err
}
