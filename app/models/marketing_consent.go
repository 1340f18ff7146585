package models

import "time"

// MarketingConsent is an append-only audit record of a marketing opt-in.
// Opting out flips ConsentGiven and sets UnsubscribedAt, the row stays.
type MarketingConsent struct {
	ID             uint       `gorm:"primaryKey" json:"id"`
	UserID         uint       `gorm:"not null;index" json:"user_id"`
	Email          string     `gorm:"type:varchar(200);not null;index" json:"email"`
	ConsentGiven   bool       `gorm:"not null;default:false;index" json:"consent_given"`
	IPAddress      string     `gorm:"type:varchar(64);not null;default:''" json:"ip_address"`
	UserAgent      string     `gorm:"type:varchar(255);not null;default:''" json:"user_agent"`
	ConsentDate    time.Time  `gorm:"type:timestamp;not null" json:"consent_date"`
	UnsubscribedAt *time.Time `gorm:"type:timestamp;default:null" json:"unsubscribed_at,omitempty"`
	CreatedAt      time.Time  `gorm:"autoCreateTime;index" json:"created_at"`
	UpdatedAt      time.Time  `gorm:"autoUpdateTime" json:"updated_at"`
}

func (m *MarketingConsent) IsActive() bool {
	return m.ConsentGiven && m.UnsubscribedAt == nil
}

func (m *MarketingConsent) Unsubscribe(at time.Time) {
	m.ConsentGiven = false
	m.UnsubscribedAt = &at
}
