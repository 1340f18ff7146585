package repository

import (
	"context"
	"time"

	"gorm.io/gorm"

	"github.com/ManuelReschke/ReviewBoost/app/models"
)

// UserRepository defines the interface for user-related database operations
type UserRepository interface {
	Create(user *models.User) error
	GetByID(id uint) (*models.User, error)
	GetByEmail(email string) (*models.User, error)
	Update(user *models.User) error
	SetRole(id uint, role string) error
	IsAdmin(ctx context.Context, id uint) (bool, error)
	List(offset, limit int) ([]models.User, error)
	Count() (int64, error)
}

// BusinessRepository defines the interface for business-related database operations
type BusinessRepository interface {
	Create(business *models.Business) error
	GetByID(id string) (*models.Business, error)
	GetByIDWithOwner(id string) (*models.Business, error)
	GetBySlug(slug string) (*models.Business, error)
	GetByOwnerID(ownerID uint) ([]models.Business, error)
	CountByOwnerID(ownerID uint) (int64, error)
	Update(business *models.Business) error
	SlugExists(slug string) (bool, error)
	ListWithStats() ([]BusinessWithStats, error)
}

// FeedbackRepository defines the interface for private feedback operations
type FeedbackRepository interface {
	Create(feedback *models.Feedback) error
	GetByID(id uint) (*models.Feedback, error)
	// ListUnreadByBusiness returns unread feedback with rating <= 3, newest first.
	ListUnreadByBusiness(businessID string) ([]models.Feedback, error)
	MarkRead(id uint, at time.Time) error
	CountByBusiness(businessID string) (int64, error)
	GetStatsByBusiness(businessID string) (*FeedbackStats, error)
	GetDailyStats(businessID string, startDate, endDate time.Time) ([]models.DailyStats, error)
}

// ConsentRepository defines the interface for marketing consent records
type ConsentRepository interface {
	Create(consent *models.MarketingConsent) error
	GetLatestByUserID(userID uint) (*models.MarketingConsent, error)
	// Unsubscribe withdraws every active consent of the user and returns how many rows changed.
	Unsubscribe(userID uint, at time.Time) (int64, error)
	List() ([]models.MarketingConsent, error)
	ListActive() ([]models.MarketingConsent, error)
}

// BusinessWithStats is one row of the admin overview.
type BusinessWithStats struct {
	BusinessID    string    `json:"business_id"`
	BusinessName  string    `json:"business_name"`
	OwnerEmail    string    `json:"owner_email"`
	IsPro         bool      `json:"is_pro"`
	FeedbackCount int64     `json:"feedback_count"`
	CreatedAt     time.Time `json:"created_at"`
}

// FeedbackStats aggregates all feedback of a business, read or not.
type FeedbackStats struct {
	Total         int64         `json:"total"`
	Unread        int64         `json:"unread"`
	AverageRating float64       `json:"average_rating"`
	ByRating      map[int]int64 `json:"by_rating"`
}

// Repositories struct holds all repository instances
type Repositories struct {
	User     UserRepository
	Business BusinessRepository
	Feedback FeedbackRepository
	Consent  ConsentRepository
}

// NewRepositories creates a new instance of all repositories
func NewRepositories(db *gorm.DB) *Repositories {
	return &Repositories{
		User:     NewUserRepository(db),
		Business: NewBusinessRepository(db),
		Feedback: NewFeedbackRepository(db),
		Consent:  NewConsentRepository(db),
	}
}
