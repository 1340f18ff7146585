package marketing

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"strings"
	"sync/atomic"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2/log"
	"golang.org/x/sync/errgroup"

	"github.com/ManuelReschke/ReviewBoost/app/models"
	"github.com/ManuelReschke/ReviewBoost/app/repository"
	"github.com/ManuelReschke/ReviewBoost/internal/pkg/mail"
	"github.com/ManuelReschke/ReviewBoost/internal/pkg/metrics"
	"github.com/ManuelReschke/ReviewBoost/internal/pkg/security"
)

const (
	defaultConcurrency = 5
	sendTimeout        = 20 * time.Second
)

var (
	ErrEmptyBroadcast = errors.New("subject and message are required")
	ErrNoConsent      = errors.New("no marketing consent on record")
)

type Config struct {
	BaseURL           string
	From              string
	UnsubscribeSecret string
	Concurrency       int
}

// ConsentInput is one opt-in or opt-out decision taken in the dashboard.
type ConsentInput struct {
	UserID       uint   `validate:"required"`
	Email        string `validate:"required,email,max=200"`
	ConsentGiven bool
	IPAddress    string `validate:"max=64"`
	UserAgent    string
}

type BroadcastResult struct {
	Total  int `json:"total"`
	Sent   int `json:"sent"`
	Failed int `json:"failed"`
}

// Service records marketing consent and sends campaign emails.
type Service struct {
	consents repository.ConsentRepository
	sender   mail.Sender
	cfg      Config
	validate *validator.Validate
	now      func() time.Time
}

func NewService(consents repository.ConsentRepository, sender mail.Sender, cfg Config) *Service {
	if cfg.Concurrency <= 0 {
		cfg.Concurrency = defaultConcurrency
	}
	cfg.BaseURL = strings.TrimRight(cfg.BaseURL, "/")
	return &Service{
		consents: consents,
		sender:   sender,
		cfg:      cfg,
		validate: validator.New(),
		now:      time.Now,
	}
}

// GiveConsent appends a consent record. A negative decision also retires the
// earlier opt-ins of the user so broadcasts skip them. A positive decision
// triggers a welcome email, whose failure is only logged.
func (s *Service) GiveConsent(ctx context.Context, in ConsentInput) (*models.MarketingConsent, error) {
	in.Email = strings.ToLower(strings.TrimSpace(in.Email))
	if len(in.UserAgent) > 255 {
		in.UserAgent = in.UserAgent[:255]
	}
	if err := s.validate.Struct(in); err != nil {
		return nil, err
	}

	now := s.now()
	if !in.ConsentGiven {
		if _, err := s.consents.Unsubscribe(in.UserID, now); err != nil {
			return nil, fmt.Errorf("withdraw consent of user %d: %w", in.UserID, err)
		}
	}

	consent := &models.MarketingConsent{
		UserID:       in.UserID,
		Email:        in.Email,
		ConsentGiven: in.ConsentGiven,
		IPAddress:    in.IPAddress,
		UserAgent:    in.UserAgent,
		ConsentDate:  now,
	}
	if err := s.consents.Create(consent); err != nil {
		return nil, fmt.Errorf("store consent: %w", err)
	}
	log.Infof("[Marketing] user %d consent=%t recorded", in.UserID, in.ConsentGiven)

	if in.ConsentGiven {
		s.sendWelcome(ctx, consent)
	}
	return consent, nil
}

func (s *Service) sendWelcome(ctx context.Context, consent *models.MarketingConsent) {
	if s.sender == nil {
		return
	}
	unsubscribeURL, err := s.unsubscribeURL(consent.UserID)
	if err != nil {
		log.Warnf("[Marketing] no unsubscribe link for user %d: %v", consent.UserID, err)
		unsubscribeURL = s.cfg.BaseURL + "/dashboard"
	}
	msg, err := mail.RenderWelcomeEmail(consent.Email, mail.WelcomeData{
		DashboardURL:   s.cfg.BaseURL + "/dashboard",
		UnsubscribeURL: unsubscribeURL,
	})
	if err == nil {
		msg.From = s.cfg.From
		sendCtx, cancel := context.WithTimeout(ctx, sendTimeout)
		err = s.sender.Send(sendCtx, msg)
		cancel()
	}
	if err != nil {
		metrics.NotificationsTotal.WithLabelValues("welcome", "failed").Inc()
		log.Warnf("[Marketing] welcome email to user %d failed: %v", consent.UserID, err)
		return
	}
	metrics.NotificationsTotal.WithLabelValues("welcome", "sent").Inc()
}

// Latest returns the newest consent record of the user.
func (s *Service) Latest(ctx context.Context, userID uint) (*models.MarketingConsent, error) {
	consent, err := s.consents.GetLatestByUserID(userID)
	if err != nil {
		return nil, err
	}
	if consent == nil {
		return nil, ErrNoConsent
	}
	return consent, nil
}

// Unsubscribe withdraws the user's consent. Records are kept for the audit trail.
func (s *Service) Unsubscribe(ctx context.Context, userID uint) error {
	n, err := s.consents.Unsubscribe(userID, s.now())
	if err != nil {
		return fmt.Errorf("unsubscribe user %d: %w", userID, err)
	}
	log.Infof("[Marketing] user %d unsubscribed (%d records)", userID, n)
	return nil
}

// UnsubscribeWithToken resolves a signed link from an email and unsubscribes its owner.
func (s *Service) UnsubscribeWithToken(ctx context.Context, token string) (uint, error) {
	userID, err := security.VerifyUnsubscribeToken(token, s.cfg.UnsubscribeSecret)
	if err != nil {
		return 0, err
	}
	return userID, s.Unsubscribe(ctx, userID)
}

func (s *Service) Subscribers(ctx context.Context) ([]models.MarketingConsent, error) {
	return s.consents.List()
}

// Broadcast emails every active subscriber once. Individual failures are
// logged and counted, the remaining recipients are still attempted.
func (s *Service) Broadcast(ctx context.Context, subject, message string) (*BroadcastResult, error) {
	subject = strings.TrimSpace(subject)
	message = strings.TrimSpace(message)
	if subject == "" || message == "" {
		return nil, ErrEmptyBroadcast
	}

	active, err := s.consents.ListActive()
	if err != nil {
		return nil, fmt.Errorf("list subscribers: %w", err)
	}
	recipients := dedupeByEmail(active)

	var sent, failed atomic.Int64
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(s.cfg.Concurrency)
	for _, r := range recipients {
		r := r
		g.Go(func() error {
			if err := s.sendCampaign(gctx, r, subject, message); err != nil {
				failed.Add(1)
				metrics.NotificationsTotal.WithLabelValues("marketing", "failed").Inc()
				log.Warnf("[Marketing] broadcast to user %d failed: %v", r.UserID, err)
				return nil
			}
			sent.Add(1)
			metrics.NotificationsTotal.WithLabelValues("marketing", "sent").Inc()
			return nil
		})
	}
	_ = g.Wait()

	result := &BroadcastResult{Total: len(recipients), Sent: int(sent.Load()), Failed: int(failed.Load())}
	log.Infof("[Marketing] broadcast %q: %d sent, %d failed", subject, result.Sent, result.Failed)
	return result, nil
}

func (s *Service) sendCampaign(ctx context.Context, r models.MarketingConsent, subject, message string) error {
	if s.sender == nil {
		return errors.New("no mail sender configured")
	}
	unsubscribeURL, err := s.unsubscribeURL(r.UserID)
	if err != nil {
		return err
	}
	msg, err := mail.RenderMarketingEmail(r.Email, mail.MarketingData{
		Subject:        subject,
		Body:           message,
		UnsubscribeURL: unsubscribeURL,
	})
	if err != nil {
		return err
	}
	msg.From = s.cfg.From
	sendCtx, cancel := context.WithTimeout(ctx, sendTimeout)
	defer cancel()
	return s.sender.Send(sendCtx, msg)
}

func (s *Service) unsubscribeURL(userID uint) (string, error) {
	token, err := security.GenerateUnsubscribeToken(userID, s.cfg.UnsubscribeSecret)
	if err != nil {
		return "", err
	}
	return s.cfg.BaseURL + "/api/v1/marketing/unsubscribe?token=" + url.QueryEscape(token), nil
}

// dedupeByEmail keeps the newest active record per address.
func dedupeByEmail(consents []models.MarketingConsent) []models.MarketingConsent {
	seen := make(map[string]int, len(consents))
	out := make([]models.MarketingConsent, 0, len(consents))
	for _, c := range consents {
		key := strings.ToLower(c.Email)
		if i, ok := seen[key]; ok {
			if c.ConsentDate.After(out[i].ConsentDate) {
				out[i] = c
			}
			continue
		}
		seen[key] = len(out)
		out = append(out, c)
	}
	return out
}
