package billing

import (
	"errors"
	"time"
)

const (
	ProviderStripe = "stripe"

	// MetadataBusinessID is the metadata key that ties Stripe objects to a business.
	MetadataBusinessID = "businessId"
)

var (
	ErrStripeNotConfigured   = errors.New("stripe is not configured")
	ErrWebhookNotConfigured  = errors.New("stripe webhook secret is not configured")
	ErrInvalidSignature      = errors.New("invalid stripe signature")
	ErrCheckoutNotConfirmed  = errors.New("checkout session is not complete for this business")
	ErrAlreadyPro            = errors.New("business is already on the pro plan")
	ErrMissingCheckoutParams = errors.New("business id and session id are required")
)

// WebhookOutcome describes what a webhook delivery did.
type WebhookOutcome string

const (
	OutcomeApplied   WebhookOutcome = "applied"
	OutcomeIgnored   WebhookOutcome = "ignored"
	OutcomeDuplicate WebhookOutcome = "duplicate"
)

// WebhookEventInput is the normalized input for webhook event persistence.
type WebhookEventInput struct {
	Provider        string
	ProviderEventID string
	EventType       string
	PayloadJSON     string
}

// NormalizedSubscription is the subscription state synced from Stripe.
type NormalizedSubscription struct {
	BusinessID             string
	ProviderSubscriptionID string
	ProviderCustomerID     string
	Status                 string
	CurrentPeriodEnd       *time.Time
	CancelAtPeriodEnd      bool
	RawPayloadJSON         string
}

// checkoutSessionPayload is a minimal representation of a checkout.session event.
type checkoutSessionPayload struct {
	ID            string            `json:"id"`
	Customer      string            `json:"customer"`
	Subscription  string            `json:"subscription"`
	PaymentStatus string            `json:"payment_status"`
	Metadata      map[string]string `json:"metadata"`
}

// subscriptionPayload is a minimal representation of a customer.subscription event.
type subscriptionPayload struct {
	ID                string            `json:"id"`
	Customer          string            `json:"customer"`
	Status            string            `json:"status"`
	CancelAtPeriodEnd bool              `json:"cancel_at_period_end"`
	Metadata          map[string]string `json:"metadata"`
	Items             struct {
		Data []struct {
			CurrentPeriodEnd int64 `json:"current_period_end"`
		} `json:"data"`
	} `json:"items"`
}

func (s subscriptionPayload) periodEnd() *time.Time {
	for _, item := range s.Items.Data {
		if item.CurrentPeriodEnd > 0 {
			t := time.Unix(item.CurrentPeriodEnd, 0).UTC()
			return &t
		}
	}
	return nil
}
