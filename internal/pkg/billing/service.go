package billing

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/gofiber/fiber/v2/log"
	"github.com/stripe/stripe-go/v82"
	stripesession "github.com/stripe/stripe-go/v82/checkout/session"
	"github.com/stripe/stripe-go/v82/webhook"
	"gorm.io/gorm"

	"github.com/ManuelReschke/ReviewBoost/app/models"
	"github.com/ManuelReschke/ReviewBoost/internal/pkg/metrics"
)

// Config holds the Stripe settings used by the billing service.
type Config struct {
	SecretKey     string
	WebhookSecret string
	PriceID       string
	UnitAmount    int64
	Currency      string
	ProductName   string
	BaseURL       string
}

// TokenIssuer issues short-lived proofs of a completed checkout.
type TokenIssuer interface {
	Issue(businessID, sessionID string) (string, error)
}

// Service runs Stripe checkout and keeps the business plan flag in sync
// with webhook deliveries.
type Service struct {
	repo   Repository
	cfg    Config
	tokens TokenIssuer

	createCheckoutSession func(params *stripe.CheckoutSessionParams) (*stripe.CheckoutSession, error)
	getCheckoutSession    func(id string, params *stripe.CheckoutSessionParams) (*stripe.CheckoutSession, error)
}

// NewService creates a billing service from an injected repository.
func NewService(repo Repository, cfg Config, tokens TokenIssuer) *Service {
	if cfg.UnitAmount <= 0 {
		cfg.UnitAmount = 999
	}
	if cfg.Currency == "" {
		cfg.Currency = string(stripe.CurrencyUSD)
	}
	if cfg.ProductName == "" {
		cfg.ProductName = "Review Boost Pro"
	}
	cfg.BaseURL = strings.TrimRight(cfg.BaseURL, "/")
	return &Service{
		repo:                  repo,
		cfg:                   cfg,
		tokens:                tokens,
		createCheckoutSession: stripesession.New,
		getCheckoutSession:    stripesession.Get,
	}
}

// NewServiceFromDB creates a billing service from a GORM DB handle.
func NewServiceFromDB(db *gorm.DB, cfg Config, tokens TokenIssuer) *Service {
	return NewService(NewRepository(db), cfg, tokens)
}

// CreateCheckout starts a monthly Pro subscription checkout for a business
// and returns the hosted checkout URL.
func (s *Service) CreateCheckout(ctx context.Context, business *models.Business, email string) (string, error) {
	if strings.TrimSpace(s.cfg.SecretKey) == "" {
		return "", ErrStripeNotConfigured
	}
	if business.IsPro {
		return "", ErrAlreadyPro
	}
	stripe.Key = strings.TrimSpace(s.cfg.SecretKey)

	metadata := map[string]string{MetadataBusinessID: business.ID}
	params := &stripe.CheckoutSessionParams{
		Mode:       stripe.String(string(stripe.CheckoutSessionModeSubscription)),
		SuccessURL: stripe.String(s.cfg.BaseURL + "/dashboard?checkout=success&business_id=" + business.ID + "&session_id={CHECKOUT_SESSION_ID}"),
		CancelURL:  stripe.String(s.cfg.BaseURL + "/dashboard?checkout=cancelled&business_id=" + business.ID),
		LineItems:  []*stripe.CheckoutSessionLineItemParams{s.lineItem()},
		SubscriptionData: &stripe.CheckoutSessionSubscriptionDataParams{
			Metadata: metadata,
		},
		Metadata:          metadata,
		ClientReferenceID: stripe.String(business.ID),
	}
	if email = strings.TrimSpace(email); email != "" {
		params.CustomerEmail = stripe.String(email)
	}

	session, err := s.createCheckoutSession(params)
	if err != nil {
		return "", fmt.Errorf("create checkout session: %w", err)
	}
	if session == nil || strings.TrimSpace(session.URL) == "" {
		return "", errors.New("stripe returned a checkout session without url")
	}
	log.Infof("[Billing] checkout session %s created for business %s", session.ID, business.ID)
	return strings.TrimSpace(session.URL), nil
}

func (s *Service) lineItem() *stripe.CheckoutSessionLineItemParams {
	if s.cfg.PriceID != "" {
		return &stripe.CheckoutSessionLineItemParams{
			Price:    stripe.String(s.cfg.PriceID),
			Quantity: stripe.Int64(1),
		}
	}
	return &stripe.CheckoutSessionLineItemParams{
		PriceData: &stripe.CheckoutSessionLineItemPriceDataParams{
			Currency: stripe.String(s.cfg.Currency),
			ProductData: &stripe.CheckoutSessionLineItemPriceDataProductDataParams{
				Name:        stripe.String(s.cfg.ProductName),
				Description: stripe.String("Analytics, both review platforms and AI review drafts"),
			},
			UnitAmount: stripe.Int64(s.cfg.UnitAmount),
			Recurring: &stripe.CheckoutSessionLineItemPriceDataRecurringParams{
				Interval: stripe.String(string(stripe.PriceRecurringIntervalMonth)),
			},
		},
		Quantity: stripe.Int64(1),
	}
}

// ConfirmCheckout asks Stripe whether the session finished for this business
// and, if so, issues a checkout token that unlocks Pro until the webhook lands.
func (s *Service) ConfirmCheckout(ctx context.Context, businessID, sessionID string) (string, error) {
	businessID = strings.TrimSpace(businessID)
	sessionID = strings.TrimSpace(sessionID)
	if businessID == "" || sessionID == "" {
		return "", ErrMissingCheckoutParams
	}
	if strings.TrimSpace(s.cfg.SecretKey) == "" {
		return "", ErrStripeNotConfigured
	}
	stripe.Key = strings.TrimSpace(s.cfg.SecretKey)

	session, err := s.getCheckoutSession(sessionID, nil)
	if err != nil {
		return "", fmt.Errorf("get checkout session: %w", err)
	}
	if session == nil || session.Status != stripe.CheckoutSessionStatusComplete {
		return "", ErrCheckoutNotConfirmed
	}
	if session.Metadata[MetadataBusinessID] != businessID {
		return "", ErrCheckoutNotConfirmed
	}
	return s.tokens.Issue(businessID, session.ID)
}

// HandleWebhook verifies, records and applies a Stripe webhook delivery.
// Deliveries of an event that was already processed successfully are not applied again.
func (s *Service) HandleWebhook(ctx context.Context, payload []byte, sigHeader string) (WebhookOutcome, error) {
	if strings.TrimSpace(s.cfg.WebhookSecret) == "" {
		return "", ErrWebhookNotConfigured
	}
	if strings.TrimSpace(sigHeader) == "" {
		return "", ErrInvalidSignature
	}

	event, err := webhook.ConstructEventWithOptions(payload, sigHeader, s.cfg.WebhookSecret, webhook.ConstructEventOptions{
		IgnoreAPIVersionMismatch: true,
	})
	if err != nil {
		metrics.WebhookEventsTotal.WithLabelValues("unknown", "invalid_signature").Inc()
		return "", fmt.Errorf("%w: %v", ErrInvalidSignature, err)
	}
	eventType := string(event.Type)

	created, stored, err := s.RecordWebhookEvent(ctx, WebhookEventInput{
		Provider:        ProviderStripe,
		ProviderEventID: event.ID,
		EventType:       eventType,
		PayloadJSON:     string(payload),
	})
	if err != nil {
		return "", fmt.Errorf("record webhook event: %w", err)
	}
	if !created && stored.Done() {
		metrics.WebhookEventsTotal.WithLabelValues(eventType, string(OutcomeDuplicate)).Inc()
		log.Infof("[Billing] webhook %s (%s) already processed", event.ID, eventType)
		return OutcomeDuplicate, nil
	}

	outcome, procErr := s.ApplyEvent(ctx, &event)
	if err := s.MarkWebhookProcessed(ctx, stored.ID, procErr); err != nil {
		log.Errorf("[Billing] failed to mark webhook %s processed: %v", event.ID, err)
	}
	if procErr != nil {
		metrics.WebhookEventsTotal.WithLabelValues(eventType, "error").Inc()
		log.Errorf("[Billing] webhook %s (%s) failed: %v", event.ID, eventType, procErr)
		return "", procErr
	}
	metrics.WebhookEventsTotal.WithLabelValues(eventType, string(outcome)).Inc()
	return outcome, nil
}

// ApplyEvent maps a Stripe event onto the business plan flag.
func (s *Service) ApplyEvent(ctx context.Context, event *stripe.Event) (WebhookOutcome, error) {
	switch event.Type {
	case "checkout.session.completed":
		var session checkoutSessionPayload
		if err := json.Unmarshal(event.Data.Raw, &session); err != nil {
			return "", fmt.Errorf("decode checkout.session: %w", err)
		}
		businessID := strings.TrimSpace(session.Metadata[MetadataBusinessID])
		if businessID == "" {
			log.Infof("[Billing] checkout %s has no business id, ignored", session.ID)
			return OutcomeIgnored, nil
		}
		return s.setPro(businessID, true, session.Customer, session.Subscription)

	case "customer.subscription.created", "customer.subscription.updated", "customer.subscription.deleted":
		var sub subscriptionPayload
		if err := json.Unmarshal(event.Data.Raw, &sub); err != nil {
			return "", fmt.Errorf("decode subscription: %w", err)
		}
		if event.Type == "customer.subscription.deleted" {
			sub.Status = models.BillingStatusCanceled
		}
		// a new subscription waiting for its first payment must not undo a
		// completed checkout that was delivered earlier
		keepPlan := event.Type == "customer.subscription.created" && isPendingStatus(sub.Status)
		return s.syncSubscription(ctx, sub, string(event.Data.Raw), keepPlan)

	default:
		log.Infof("[Billing] webhook %s ignored (unhandled type %s)", event.ID, event.Type)
		return OutcomeIgnored, nil
	}
}

func (s *Service) syncSubscription(ctx context.Context, sub subscriptionPayload, raw string, keepPlan bool) (WebhookOutcome, error) {
	businessID := strings.TrimSpace(sub.Metadata[MetadataBusinessID])
	if businessID == "" && sub.ID != "" {
		found, err := s.repo.FindBusinessIDBySubscription(sub.ID)
		if err != nil {
			return "", fmt.Errorf("lookup subscription %s: %w", sub.ID, err)
		}
		businessID = found
	}
	if businessID == "" {
		log.Infof("[Billing] subscription %s has no business id, ignored", sub.ID)
		return OutcomeIgnored, nil
	}

	if _, err := s.SyncSubscription(ctx, NormalizedSubscription{
		BusinessID:             businessID,
		ProviderSubscriptionID: sub.ID,
		ProviderCustomerID:     sub.Customer,
		Status:                 sub.Status,
		CurrentPeriodEnd:       sub.periodEnd(),
		CancelAtPeriodEnd:      sub.CancelAtPeriodEnd,
		RawPayloadJSON:         raw,
	}); err != nil {
		return "", err
	}
	if keepPlan {
		log.Infof("[Billing] subscription %s of business %s is %s, plan unchanged", sub.ID, businessID, sub.Status)
		return OutcomeApplied, nil
	}

	return s.setPro(businessID, isEntitlingStatus(sub.Status), sub.Customer, sub.ID)
}

func (s *Service) setPro(businessID string, isPro bool, customerID, subscriptionID string) (WebhookOutcome, error) {
	found, err := s.repo.SetBusinessPro(businessID, isPro, customerID, subscriptionID)
	if err != nil {
		return "", fmt.Errorf("update business %s: %w", businessID, err)
	}
	if !found {
		log.Warnf("[Billing] business %s from webhook does not exist, ignored", businessID)
		return OutcomeIgnored, nil
	}
	log.Infof("[Billing] business %s is_pro=%t", businessID, isPro)
	return OutcomeApplied, nil
}

// SyncSubscription upserts the local mirror of a Stripe subscription.
func (s *Service) SyncSubscription(ctx context.Context, in NormalizedSubscription) (*models.BillingSubscription, error) {
	if in.BusinessID == "" || strings.TrimSpace(in.ProviderSubscriptionID) == "" {
		return nil, errors.New("business_id and provider_subscription_id are required")
	}
	status := normalizeStatus(in.Status)
	if status == "" {
		status = models.BillingStatusActive
	}
	sub := &models.BillingSubscription{
		BusinessID:             in.BusinessID,
		Provider:               ProviderStripe,
		ProviderSubscriptionID: strings.TrimSpace(in.ProviderSubscriptionID),
		ProviderCustomerID:     strings.TrimSpace(in.ProviderCustomerID),
		Status:                 status,
		CurrentPeriodEnd:       in.CurrentPeriodEnd,
		CancelAtPeriodEnd:      in.CancelAtPeriodEnd,
		RawPayloadJSON:         in.RawPayloadJSON,
	}
	if err := s.repo.UpsertSubscription(sub); err != nil {
		return nil, err
	}
	return sub, nil
}

// RecordWebhookEvent persists webhook payloads idempotently.
func (s *Service) RecordWebhookEvent(ctx context.Context, in WebhookEventInput) (bool, *models.BillingWebhookEvent, error) {
	provider := strings.ToLower(strings.TrimSpace(in.Provider))
	if provider == "" {
		return false, nil, errors.New("provider is required")
	}
	eventID := strings.TrimSpace(in.ProviderEventID)
	if eventID == "" {
		sum := sha256.Sum256([]byte(in.PayloadJSON))
		eventID = "hash:" + hex.EncodeToString(sum[:])
	}

	event := &models.BillingWebhookEvent{
		Provider:        provider,
		ProviderEventID: eventID,
		EventType:       strings.TrimSpace(in.EventType),
		PayloadJSON:     in.PayloadJSON,
	}
	return s.repo.CreateWebhookEventIfNotExists(event)
}

// MarkWebhookProcessed marks an event as processed and stores an optional error.
func (s *Service) MarkWebhookProcessed(ctx context.Context, webhookEventID uint, processingErr error) error {
	if webhookEventID == 0 {
		return errors.New("webhook_event_id is required")
	}
	errMsg := ""
	if processingErr != nil {
		errMsg = processingErr.Error()
	}
	return s.repo.MarkWebhookProcessed(webhookEventID, errMsg)
}

