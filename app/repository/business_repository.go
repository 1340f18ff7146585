package repository

import (
	"gorm.io/gorm"

	"github.com/ManuelReschke/ReviewBoost/app/models"
)

type businessRepository struct {
	db *gorm.DB
}

func NewBusinessRepository(db *gorm.DB) BusinessRepository {
	return &businessRepository{db: db}
}

func (r *businessRepository) Create(business *models.Business) error {
	return r.db.Create(business).Error
}

func (r *businessRepository) GetByID(id string) (*models.Business, error) {
	var business models.Business
	if err := r.db.Where("id = ?", id).First(&business).Error; err != nil {
		return nil, err
	}
	return &business, nil
}

// GetByIDWithOwner loads the business together with its owner account
func (r *businessRepository) GetByIDWithOwner(id string) (*models.Business, error) {
	var business models.Business
	if err := r.db.Preload("Owner").Where("id = ?", id).First(&business).Error; err != nil {
		return nil, err
	}
	return &business, nil
}

func (r *businessRepository) GetBySlug(slug string) (*models.Business, error) {
	var business models.Business
	if err := r.db.Where("slug = ?", slug).First(&business).Error; err != nil {
		return nil, err
	}
	return &business, nil
}

func (r *businessRepository) GetByOwnerID(ownerID uint) ([]models.Business, error) {
	var businesses []models.Business
	err := r.db.Where("owner_id = ?", ownerID).Order("created_at ASC").Find(&businesses).Error
	return businesses, err
}

func (r *businessRepository) CountByOwnerID(ownerID uint) (int64, error) {
	var count int64
	err := r.db.Model(&models.Business{}).Where("owner_id = ?", ownerID).Count(&count).Error
	return count, err
}

func (r *businessRepository) Update(business *models.Business) error {
	return r.db.Save(business).Error
}

func (r *businessRepository) SlugExists(slug string) (bool, error) {
	var count int64
	err := r.db.Model(&models.Business{}).Where("slug = ?", slug).Count(&count).Error
	return count > 0, err
}

// ListWithStats returns every business with owner email and feedback count, newest first
func (r *businessRepository) ListWithStats() ([]BusinessWithStats, error) {
	var rows []BusinessWithStats
	err := r.db.Table("businesses b").
		Select(`b.id AS business_id, b.name AS business_name, u.email AS owner_email,
			b.is_pro AS is_pro, COUNT(f.id) AS feedback_count, b.created_at AS created_at`).
		Joins("JOIN users u ON u.id = b.owner_id").
		Joins("LEFT JOIN feedbacks f ON f.business_id = b.id").
		Group("b.id, b.name, u.email, b.is_pro, b.created_at").
		Order("b.created_at DESC").
		Scan(&rows).Error
	return rows, err
}
