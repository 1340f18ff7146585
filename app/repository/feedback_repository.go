package repository

import (
	"fmt"
	"time"

	"gorm.io/gorm"

	"github.com/ManuelReschke/ReviewBoost/app/models"
)

type feedbackRepository struct {
	db *gorm.DB
}

func NewFeedbackRepository(db *gorm.DB) FeedbackRepository {
	return &feedbackRepository{db: db}
}

func (r *feedbackRepository) Create(feedback *models.Feedback) error {
	return r.db.Create(feedback).Error
}

func (r *feedbackRepository) GetByID(id uint) (*models.Feedback, error) {
	var feedback models.Feedback
	if err := r.db.First(&feedback, id).Error; err != nil {
		return nil, err
	}
	return &feedback, nil
}

func (r *feedbackRepository) ListUnreadByBusiness(businessID string) ([]models.Feedback, error) {
	var feedbacks []models.Feedback
	err := r.db.Where("business_id = ? AND rating <= ? AND read_at IS NULL", businessID, 3).
		Order("created_at DESC, id DESC").
		Find(&feedbacks).Error
	return feedbacks, err
}

func (r *feedbackRepository) MarkRead(id uint, at time.Time) error {
	res := r.db.Model(&models.Feedback{}).Where("id = ? AND read_at IS NULL", id).Update("read_at", at)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

func (r *feedbackRepository) CountByBusiness(businessID string) (int64, error) {
	var count int64
	err := r.db.Model(&models.Feedback{}).Where("business_id = ?", businessID).Count(&count).Error
	return count, err
}

func (r *feedbackRepository) GetStatsByBusiness(businessID string) (*FeedbackStats, error) {
	var rows []struct {
		Rating int
		Count  int64
		Unread int64
	}
	err := r.db.Model(&models.Feedback{}).
		Select("rating, COUNT(*) AS count, SUM(CASE WHEN read_at IS NULL THEN 1 ELSE 0 END) AS unread").
		Where("business_id = ?", businessID).
		Group("rating").
		Scan(&rows).Error
	if err != nil {
		return nil, fmt.Errorf("failed to get feedback stats: %w", err)
	}

	stats := &FeedbackStats{ByRating: make(map[int]int64, len(rows))}
	var sum int64
	for _, row := range rows {
		stats.ByRating[row.Rating] = row.Count
		stats.Total += row.Count
		stats.Unread += row.Unread
		sum += int64(row.Rating) * row.Count
	}
	if stats.Total > 0 {
		stats.AverageRating = float64(sum) / float64(stats.Total)
	}
	return stats, nil
}

// GetDailyStats returns daily feedback counts of a business for a date range
func (r *feedbackRepository) GetDailyStats(businessID string, startDate, endDate time.Time) ([]models.DailyStats, error) {
	var results []struct {
		Date  string
		Count int64
	}

	err := r.db.Model(&models.Feedback{}).
		Select("DATE_FORMAT(created_at, '%Y-%m-%d') as date, COUNT(*) as count").
		Where("business_id = ? AND created_at BETWEEN ? AND ?", businessID, startDate, endDate).
		Group("DATE_FORMAT(created_at, '%Y-%m-%d')").
		Order("date").
		Find(&results).Error
	if err != nil {
		return nil, fmt.Errorf("failed to get daily feedback stats: %w", err)
	}

	daily := make([]models.DailyStats, len(results))
	for i, result := range results {
		daily[i] = models.DailyStats{Date: result.Date, Count: int(result.Count)}
	}
	return daily, nil
}
