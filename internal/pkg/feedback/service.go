package feedback

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2/log"

	"github.com/ManuelReschke/ReviewBoost/app/models"
	"github.com/ManuelReschke/ReviewBoost/app/repository"
	"github.com/ManuelReschke/ReviewBoost/internal/pkg/entitlements"
	"github.com/ManuelReschke/ReviewBoost/internal/pkg/mail"
	"github.com/ManuelReschke/ReviewBoost/internal/pkg/metrics"
	"github.com/ManuelReschke/ReviewBoost/internal/pkg/ratinggate"
)

const defaultNotifyTimeout = 15 * time.Second

var (
	ErrMissingFeedbackDetails = errors.New("feedback comment and contact are required")
	ErrFeedbackNotFound       = errors.New("feedback not found")
)

// SubmitInput is a private low rating sent from the public review page.
type SubmitInput struct {
	BusinessID string `validate:"required"`
	Rating     int
	Comment    string `validate:"max=5000"`
	Contact    string `validate:"max=200"`
}

// List is the owner view of unread feedback. Hidden counts entries held back
// by the free plan.
type List struct {
	Items  []models.Feedback `json:"items"`
	Total  int               `json:"total"`
	Hidden int               `json:"hidden"`
	Plan   entitlements.Plan `json:"plan"`
}

type Config struct {
	DashboardURL  string
	NotifyTimeout time.Duration
}

// Service captures private feedback and notifies the business owner.
type Service struct {
	feedbacks  repository.FeedbackRepository
	businesses repository.BusinessRepository
	sender     mail.Sender
	cfg        Config
	validate   *validator.Validate
	now        func() time.Time
	inflight   sync.WaitGroup
}

func NewService(feedbacks repository.FeedbackRepository, businesses repository.BusinessRepository, sender mail.Sender, cfg Config) *Service {
	if cfg.NotifyTimeout <= 0 {
		cfg.NotifyTimeout = defaultNotifyTimeout
	}
	return &Service{
		feedbacks:  feedbacks,
		businesses: businesses,
		sender:     sender,
		cfg:        cfg,
		validate:   validator.New(),
		now:        time.Now,
	}
}

// Submit stores the feedback and dispatches the owner notification in the
// background. Notification failures never reach the caller.
func (s *Service) Submit(ctx context.Context, in SubmitInput) (*models.Feedback, error) {
	if err := ratinggate.ValidateRating(in.Rating); err != nil {
		return nil, err
	}
	if !ratinggate.IsPrivate(in.Rating) {
		return nil, fmt.Errorf("%w: only ratings up to %d are captured privately", ratinggate.ErrInvalidRating, ratinggate.PrivateThreshold)
	}

	in.Comment = strings.TrimSpace(in.Comment)
	in.Contact = strings.TrimSpace(in.Contact)
	if in.Comment == "" || in.Contact == "" {
		metrics.FeedbackSubmissionsTotal.WithLabelValues("rejected").Inc()
		return nil, ErrMissingFeedbackDetails
	}
	if err := s.validate.Struct(in); err != nil {
		metrics.FeedbackSubmissionsTotal.WithLabelValues("rejected").Inc()
		return nil, err
	}

	business, err := s.businesses.GetByIDWithOwner(in.BusinessID)
	if err != nil {
		return nil, err
	}

	fb := &models.Feedback{
		BusinessID:      business.ID,
		Rating:          in.Rating,
		Comment:         in.Comment,
		CustomerContact: in.Contact,
	}
	if err := s.feedbacks.Create(fb); err != nil {
		metrics.FeedbackSubmissionsTotal.WithLabelValues("error").Inc()
		return nil, fmt.Errorf("store feedback: %w", err)
	}
	metrics.FeedbackSubmissionsTotal.WithLabelValues("stored").Inc()
	log.Infof("[Feedback] stored %d-star feedback %d for business %s", fb.Rating, fb.ID, business.ID)

	s.inflight.Add(1)
	go func() {
		defer s.inflight.Done()
		s.notify(business, *fb)
	}()

	return fb, nil
}

// Wait blocks until all background notifications have finished.
func (s *Service) Wait() {
	s.inflight.Wait()
}

func (s *Service) notify(business *models.Business, fb models.Feedback) {
	if s.sender == nil || business.Owner == nil || business.Owner.Email == "" {
		metrics.NotificationsTotal.WithLabelValues("feedback", "skipped").Inc()
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), s.cfg.NotifyTimeout)
	defer cancel()

	msg, err := mail.RenderFeedbackEmail(business.Owner.Email, mail.FeedbackData{
		BusinessName: business.Name,
		Rating:       fb.Rating,
		Comment:      fb.Comment,
		Contact:      fb.CustomerContact,
		DashboardURL: s.cfg.DashboardURL,
	})
	if err == nil {
		err = s.sender.Send(ctx, msg)
	}
	if err != nil {
		metrics.NotificationsTotal.WithLabelValues("feedback", "failed").Inc()
		log.Warnf("[Feedback] notification for feedback %d failed: %v", fb.ID, err)
		return
	}
	metrics.NotificationsTotal.WithLabelValues("feedback", "sent").Inc()
}

// List returns unread feedback of a business newest first, truncated to the
// plan's visible limit.
func (s *Service) List(ctx context.Context, businessID string, entitled bool) (*List, error) {
	items, err := s.feedbacks.ListUnreadByBusiness(businessID)
	if err != nil {
		return nil, err
	}

	plan := entitlements.PlanFor(entitled)
	out := &List{Items: items, Total: len(items), Plan: plan}
	if limit := entitlements.VisibleFeedbackLimit(plan); limit > 0 && len(items) > limit {
		out.Items = items[:limit]
		out.Hidden = len(items) - limit
	}
	if out.Items == nil {
		out.Items = []models.Feedback{}
	}
	return out, nil
}

// MarkRead hides a feedback from the owner list. The record is kept.
func (s *Service) MarkRead(ctx context.Context, businessID string, feedbackID uint) error {
	fb, err := s.feedbacks.GetByID(feedbackID)
	if err != nil || fb.BusinessID != businessID {
		return ErrFeedbackNotFound
	}
	if err := s.feedbacks.MarkRead(feedbackID, s.now()); err != nil {
		return ErrFeedbackNotFound
	}
	return nil
}

// Stats returns aggregates for the analytics view.
func (s *Service) Stats(ctx context.Context, businessID string, days int) (*Stats, error) {
	agg, err := s.feedbacks.GetStatsByBusiness(businessID)
	if err != nil {
		return nil, err
	}
	if days <= 0 {
		days = 30
	}
	end := s.now()
	daily, err := s.feedbacks.GetDailyStats(businessID, end.AddDate(0, 0, -days), end)
	if err != nil {
		return nil, err
	}
	return &Stats{FeedbackStats: *agg, Daily: daily}, nil
}

type Stats struct {
	repository.FeedbackStats
	Daily []models.DailyStats `json:"daily"`
}
