package models

import "time"

// Feedback is a private low rating left by a customer.
type Feedback struct {
	ID              uint       `gorm:"primaryKey" json:"id"`
	BusinessID      string     `gorm:"type:char(36);not null;index:idx_feedbacks_business_created,priority:1" json:"business_id"`
	Rating          int        `gorm:"type:tinyint;not null" json:"rating" validate:"min=1,max=3"`
	Comment         string     `gorm:"type:text;not null" json:"comment" validate:"required,max=5000"`
	CustomerContact string     `gorm:"type:varchar(200);not null" json:"customer_contact" validate:"required,max=200"`
	ReadAt          *time.Time `gorm:"type:timestamp;default:null;index" json:"read_at,omitempty"`
	CreatedAt       time.Time  `gorm:"autoCreateTime;index:idx_feedbacks_business_created,priority:2" json:"created_at"`
}

func (Feedback) TableName() string {
	return "feedbacks"
}

func (f *Feedback) IsRead() bool {
	return f.ReadAt != nil
}
