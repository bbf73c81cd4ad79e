package repository

import (
	"errors"
	"time"

	"commune-backend/internal/community/domain"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type communityRepository struct {
	db *gorm.DB
}

// NewCommunityRepository creates a new community repository
func NewCommunityRepository(db *gorm.DB) CommunityRepository {
	return &communityRepository{db: db}
}

func (r *communityRepository) Create(community *domain.Community) error {
	if community.ID == "" {
		community.ID = uuid.New().String()
	}
	now := time.Now()
	community.CreatedAt = now
	community.UpdatedAt = now
	return r.db.Create(community).Error
}

func (r *communityRepository) FindByID(id string) (*domain.Community, error) {
	var community domain.Community
	err := r.db.Where("id = ?", id).First(&community).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &community, nil
}

func (r *communityRepository) List(page, size int) ([]domain.Community, error) {
	var communities []domain.Community
	err := r.db.Order("created_at DESC").
		Offset(page * size).
		Limit(size).
		Find(&communities).Error
	return communities, err
}

func (r *communityRepository) All() ([]domain.Community, error) {
	var communities []domain.Community
	err := r.db.Order("created_at DESC").Find(&communities).Error
	return communities, err
}

func (r *communityRepository) Update(community *domain.Community) error {
	community.UpdatedAt = time.Now()
	return r.db.Save(community).Error
}

func (r *communityRepository) Delete(id string) error {
	return r.db.Where("id = ?", id).Delete(&domain.Community{}).Error
}
