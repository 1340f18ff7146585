package repository

import (
	"errors"
	"time"

	"gorm.io/gorm"

	"github.com/ManuelReschke/ReviewBoost/app/models"
)

type consentRepository struct {
	db *gorm.DB
}

func NewConsentRepository(db *gorm.DB) ConsentRepository {
	return &consentRepository{db: db}
}

func (r *consentRepository) Create(consent *models.MarketingConsent) error {
	return r.db.Create(consent).Error
}

// GetLatestByUserID returns nil without error when the user never answered.
func (r *consentRepository) GetLatestByUserID(userID uint) (*models.MarketingConsent, error) {
	var consent models.MarketingConsent
	err := r.db.Where("user_id = ?", userID).Order("created_at DESC, id DESC").First(&consent).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &consent, nil
}

func (r *consentRepository) Unsubscribe(userID uint, at time.Time) (int64, error) {
	res := r.db.Model(&models.MarketingConsent{}).
		Where("user_id = ? AND consent_given = ?", userID, true).
		Updates(map[string]any{"consent_given": false, "unsubscribed_at": at})
	return res.RowsAffected, res.Error
}

func (r *consentRepository) List() ([]models.MarketingConsent, error) {
	var consents []models.MarketingConsent
	err := r.db.Order("created_at DESC").Find(&consents).Error
	return consents, err
}

func (r *consentRepository) ListActive() ([]models.MarketingConsent, error) {
	var consents []models.MarketingConsent
	err := r.db.Where("consent_given = ? AND unsubscribed_at IS NULL", true).
		Order("created_at DESC").
		Find(&consents).Error
	return consents, err
}
