package models

import (
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/ManuelReschke/ReviewBoost/internal/pkg/ratinggate"
	"github.com/ManuelReschke/ReviewBoost/internal/pkg/reviewpolicy"
)

// Business is a tenant with its review routing policy and plan flag.
type Business struct {
	ID                   string    `gorm:"type:char(36);primaryKey" json:"id"`
	OwnerID              uint      `gorm:"not null;index" json:"owner_id"`
	Name                 string    `gorm:"type:varchar(150);not null" json:"name" validate:"required,min=2,max=150"`
	Slug                 string    `gorm:"type:varchar(16);uniqueIndex" json:"slug"`
	ReviewPlatform       string    `gorm:"type:varchar(20);not null;default:'google_maps'" json:"review_platform" validate:"required,oneof=google_maps trustpilot both"`
	GoogleMapsLink       string    `gorm:"type:varchar(500);not null;default:''" json:"google_maps_link" validate:"omitempty,url,max=500"`
	TrustpilotLink       string    `gorm:"type:varchar(500);not null;default:''" json:"trustpilot_link" validate:"omitempty,url,max=500"`
	IsPro                bool      `gorm:"not null;default:false;index" json:"is_pro"`
	StripeCustomerID     string    `gorm:"type:varchar(191);not null;default:''" json:"-"`
	StripeSubscriptionID string    `gorm:"type:varchar(191);not null;default:'';index" json:"-"`
	Owner                *User     `gorm:"foreignKey:OwnerID" json:"-" validate:"-"`
	CreatedAt            time.Time `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt            time.Time `gorm:"autoUpdateTime" json:"updated_at"`
}

func (b *Business) BeforeCreate(tx *gorm.DB) error {
	if b.ID == "" {
		b.ID = uuid.NewString()
	}
	return nil
}

func (b *Business) Validate() error {
	v := validator.New()

	return v.Struct(b)
}

// Policy returns the review routing policy of the business.
func (b *Business) Policy() reviewpolicy.Policy {
	return reviewpolicy.Policy{
		Platform:       reviewpolicy.Platform(strings.ToLower(b.ReviewPlatform)),
		GoogleMapsLink: b.GoogleMapsLink,
		TrustpilotLink: b.TrustpilotLink,
	}
}

// PublicBusiness is what anonymous customers may see about a business.
type PublicBusiness struct {
	ID               string `json:"id"`
	Slug             string `json:"slug"`
	Name             string `json:"name"`
	ReviewPlatform   string `json:"review_platform"`
	AcceptingReviews bool   `json:"accepting_reviews"`
}

func (b *Business) Public() PublicBusiness {
	return PublicBusiness{
		ID:               b.ID,
		Slug:             b.Slug,
		Name:             b.Name,
		ReviewPlatform:   b.ReviewPlatform,
		AcceptingReviews: ratinggate.CheckPolicy(b.Policy()) == nil,
	}
}
