package billing

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/stripe/stripe-go/v82"
	"github.com/stripe/stripe-go/v82/webhook"

	"github.com/ManuelReschke/ReviewBoost/app/models"
	"github.com/ManuelReschke/ReviewBoost/internal/pkg/security"
)

const testWebhookSecret = "whsec_test"

type memoryRepo struct {
	mu         sync.Mutex
	businesses map[string]*models.Business
	subs       map[string]*models.BillingSubscription
	events     map[string]*models.BillingWebhookEvent
	nextID     uint
	failSetPro error
}

func newMemoryRepo(businessIDs ...string) *memoryRepo {
	r := &memoryRepo{
		businesses: map[string]*models.Business{},
		subs:       map[string]*models.BillingSubscription{},
		events:     map[string]*models.BillingWebhookEvent{},
	}
	for _, id := range businessIDs {
		r.businesses[id] = &models.Business{ID: id}
	}
	return r
}

func (r *memoryRepo) UpsertSubscription(sub *models.BillingSubscription) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	cp := *sub
	r.subs[sub.ProviderSubscriptionID] = &cp
	return nil
}

func (r *memoryRepo) FindBusinessIDBySubscription(id string) (string, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if sub, ok := r.subs[id]; ok {
		return sub.BusinessID, nil
	}
	return "", nil
}

func (r *memoryRepo) SetBusinessPro(id string, isPro bool, customerID, subscriptionID string) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.failSetPro != nil {
		return false, r.failSetPro
	}
	b, ok := r.businesses[id]
	if !ok {
		return false, nil
	}
	b.IsPro = isPro
	if customerID != "" {
		b.StripeCustomerID = customerID
	}
	if subscriptionID != "" {
		b.StripeSubscriptionID = subscriptionID
	}
	return true, nil
}

func (r *memoryRepo) CreateWebhookEventIfNotExists(event *models.BillingWebhookEvent) (bool, *models.BillingWebhookEvent, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	key := event.Provider + ":" + event.ProviderEventID
	if stored, ok := r.events[key]; ok {
		cp := *stored
		return false, &cp, nil
	}
	r.nextID++
	event.ID = r.nextID
	cp := *event
	r.events[key] = &cp
	return true, &cp, nil
}

func (r *memoryRepo) MarkWebhookProcessed(id uint, processingError string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, e := range r.events {
		if e.ID == id {
			now := time.Now()
			e.ProcessedAt = &now
			e.ProcessingError = processingError
			return nil
		}
	}
	return errors.New("not found")
}

func (r *memoryRepo) isPro(id string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.businesses[id].IsPro
}

func newTestService(repo Repository) *Service {
	return NewService(repo, Config{
		SecretKey:     "sk_test_123",
		WebhookSecret: testWebhookSecret,
		BaseURL:       "https://app.example.com/",
	}, security.CheckoutTokens{Secret: "token-secret", TTL: time.Minute})
}

func signed(t *testing.T, payload string) ([]byte, string) {
	t.Helper()
	s := webhook.GenerateTestSignedPayload(&webhook.UnsignedPayload{
		Payload:   []byte(payload),
		Secret:    testWebhookSecret,
		Timestamp: time.Now(),
		Scheme:    "v1",
	})
	return s.Payload, s.Header
}

func eventJSON(id, typ, object string) string {
	return fmt.Sprintf(`{"id":%q,"object":"event","type":%q,"data":{"object":%s}}`, id, typ, object)
}

func TestWebhookCheckoutCompletedSetsPro(t *testing.T) {
	repo := newMemoryRepo("biz-1")
	svc := newTestService(repo)

	payload, header := signed(t, eventJSON("evt_1", "checkout.session.completed",
		`{"id":"cs_1","customer":"cus_1","subscription":"sub_1","metadata":{"businessId":"biz-1"}}`))

	outcome, err := svc.HandleWebhook(context.Background(), payload, header)
	require.NoError(t, err)
	assert.Equal(t, OutcomeApplied, outcome)
	assert.True(t, repo.isPro("biz-1"))
	assert.Equal(t, "sub_1", repo.businesses["biz-1"].StripeSubscriptionID)
}

func TestWebhookSubscriptionLifecycle(t *testing.T) {
	repo := newMemoryRepo("biz-1")
	svc := newTestService(repo)
	ctx := context.Background()

	payload, header := signed(t, eventJSON("evt_a", "customer.subscription.updated",
		`{"id":"sub_1","customer":"cus_1","status":"active","metadata":{"businessId":"biz-1"},"items":{"data":[{"current_period_end":1767225600}]}}`))
	_, err := svc.HandleWebhook(ctx, payload, header)
	require.NoError(t, err)
	assert.True(t, repo.isPro("biz-1"))
	require.NotNil(t, repo.subs["sub_1"].CurrentPeriodEnd)

	payload, header = signed(t, eventJSON("evt_b", "customer.subscription.updated",
		`{"id":"sub_1","customer":"cus_1","status":"unpaid","metadata":{"businessId":"biz-1"}}`))
	_, err = svc.HandleWebhook(ctx, payload, header)
	require.NoError(t, err)
	assert.False(t, repo.isPro("biz-1"))

	payload, header = signed(t, eventJSON("evt_c", "customer.subscription.updated",
		`{"id":"sub_1","customer":"cus_1","status":"active"}`))
	_, err = svc.HandleWebhook(ctx, payload, header)
	require.NoError(t, err)
	assert.True(t, repo.isPro("biz-1"), "business resolved through the subscription mirror")

	payload, header = signed(t, eventJSON("evt_d", "customer.subscription.deleted",
		`{"id":"sub_1","customer":"cus_1","status":"active","metadata":{"businessId":"biz-1"}}`))
	outcome, err := svc.HandleWebhook(ctx, payload, header)
	require.NoError(t, err)
	assert.Equal(t, OutcomeApplied, outcome)
	assert.False(t, repo.isPro("biz-1"))
	assert.Equal(t, models.BillingStatusCanceled, repo.subs["sub_1"].Status)
}

func TestWebhookIncompleteCreatedKeepsPro(t *testing.T) {
	repo := newMemoryRepo("biz-1")
	svc := newTestService(repo)
	ctx := context.Background()

	payload, header := signed(t, eventJSON("evt_1", "checkout.session.completed",
		`{"id":"cs_1","customer":"cus_1","subscription":"sub_1","metadata":{"businessId":"biz-1"}}`))
	_, err := svc.HandleWebhook(ctx, payload, header)
	require.NoError(t, err)
	require.True(t, repo.isPro("biz-1"))

	// delivered after the checkout although Stripe created it first
	payload, header = signed(t, eventJSON("evt_2", "customer.subscription.created",
		`{"id":"sub_1","customer":"cus_1","status":"incomplete","metadata":{"businessId":"biz-1"}}`))
	outcome, err := svc.HandleWebhook(ctx, payload, header)
	require.NoError(t, err)
	assert.Equal(t, OutcomeApplied, outcome)
	assert.True(t, repo.isPro("biz-1"))
	assert.Equal(t, models.BillingStatusIncomplete, repo.subs["sub_1"].Status)

	// an update to a failing status still revokes
	payload, header = signed(t, eventJSON("evt_3", "customer.subscription.updated",
		`{"id":"sub_1","customer":"cus_1","status":"incomplete_expired","metadata":{"businessId":"biz-1"}}`))
	_, err = svc.HandleWebhook(ctx, payload, header)
	require.NoError(t, err)
	assert.False(t, repo.isPro("biz-1"))
}

func TestWebhookIgnoredEvents(t *testing.T) {
	repo := newMemoryRepo("biz-1")
	svc := newTestService(repo)

	tests := []struct {
		name    string
		payload string
	}{
		{"unknown type", eventJSON("evt_x", "invoice.paid", `{"id":"in_1"}`)},
		{"no business id", eventJSON("evt_y", "checkout.session.completed", `{"id":"cs_2","metadata":{}}`)},
		{"unknown business", eventJSON("evt_z", "checkout.session.completed", `{"id":"cs_3","metadata":{"businessId":"nope"}}`)},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			payload, header := signed(t, tt.payload)
			outcome, err := svc.HandleWebhook(context.Background(), payload, header)
			require.NoError(t, err)
			assert.Equal(t, OutcomeIgnored, outcome)
		})
	}
	assert.False(t, repo.isPro("biz-1"))
}

func TestWebhookDuplicateShortCircuits(t *testing.T) {
	repo := newMemoryRepo("biz-1")
	svc := newTestService(repo)
	payload, header := signed(t, eventJSON("evt_dup", "checkout.session.completed",
		`{"id":"cs_1","metadata":{"businessId":"biz-1"}}`))

	first, err := svc.HandleWebhook(context.Background(), payload, header)
	require.NoError(t, err)
	assert.Equal(t, OutcomeApplied, first)

	repo.businesses["biz-1"].IsPro = false
	second, err := svc.HandleWebhook(context.Background(), payload, header)
	require.NoError(t, err)
	assert.Equal(t, OutcomeDuplicate, second)
	assert.False(t, repo.isPro("biz-1"), "duplicate must not be applied again")
}

func TestWebhookFailedEventIsRetried(t *testing.T) {
	repo := newMemoryRepo("biz-1")
	repo.failSetPro = errors.New("deadlock")
	svc := newTestService(repo)
	payload, header := signed(t, eventJSON("evt_retry", "checkout.session.completed",
		`{"id":"cs_1","metadata":{"businessId":"biz-1"}}`))

	_, err := svc.HandleWebhook(context.Background(), payload, header)
	require.Error(t, err)

	repo.failSetPro = nil
	outcome, err := svc.HandleWebhook(context.Background(), payload, header)
	require.NoError(t, err)
	assert.Equal(t, OutcomeApplied, outcome)
	assert.True(t, repo.isPro("biz-1"))
}

func TestWebhookSignatureChecks(t *testing.T) {
	svc := newTestService(newMemoryRepo())
	payload, _ := signed(t, eventJSON("evt_1", "invoice.paid", `{}`))

	_, err := svc.HandleWebhook(context.Background(), payload, "")
	assert.ErrorIs(t, err, ErrInvalidSignature)

	_, err = svc.HandleWebhook(context.Background(), payload, "t=1,v1=deadbeef")
	assert.ErrorIs(t, err, ErrInvalidSignature)

	unconfigured := NewService(newMemoryRepo(), Config{}, nil)
	_, err = unconfigured.HandleWebhook(context.Background(), payload, "t=1,v1=deadbeef")
	assert.ErrorIs(t, err, ErrWebhookNotConfigured)
}

func TestCreateCheckout(t *testing.T) {
	svc := newTestService(newMemoryRepo())
	var got *stripe.CheckoutSessionParams
	svc.createCheckoutSession = func(params *stripe.CheckoutSessionParams) (*stripe.CheckoutSession, error) {
		got = params
		return &stripe.CheckoutSession{ID: "cs_1", URL: "https://checkout.stripe.com/c/cs_1"}, nil
	}

	url, err := svc.CreateCheckout(context.Background(), &models.Business{ID: "biz-1"}, "owner@example.com")
	require.NoError(t, err)
	assert.Equal(t, "https://checkout.stripe.com/c/cs_1", url)

	require.NotNil(t, got)
	assert.Equal(t, string(stripe.CheckoutSessionModeSubscription), *got.Mode)
	assert.Equal(t, "biz-1", got.Metadata[MetadataBusinessID])
	assert.Equal(t, "biz-1", got.SubscriptionData.Metadata[MetadataBusinessID])
	assert.Contains(t, *got.SuccessURL, "https://app.example.com/dashboard?checkout=success")
	assert.Contains(t, *got.SuccessURL, "{CHECKOUT_SESSION_ID}")
	require.Len(t, got.LineItems, 1)
	assert.Equal(t, int64(999), *got.LineItems[0].PriceData.UnitAmount)
	assert.Equal(t, "month", *got.LineItems[0].PriceData.Recurring.Interval)
	assert.Equal(t, "owner@example.com", *got.CustomerEmail)
}

func TestCreateCheckoutGuards(t *testing.T) {
	_, err := NewService(newMemoryRepo(), Config{}, nil).CreateCheckout(context.Background(), &models.Business{ID: "b"}, "")
	assert.ErrorIs(t, err, ErrStripeNotConfigured)

	_, err = newTestService(newMemoryRepo()).CreateCheckout(context.Background(), &models.Business{ID: "b", IsPro: true}, "")
	assert.ErrorIs(t, err, ErrAlreadyPro)
}

func TestConfirmCheckout(t *testing.T) {
	svc := newTestService(newMemoryRepo())
	tokens := security.CheckoutTokens{Secret: "token-secret"}

	sessions := map[string]*stripe.CheckoutSession{
		"cs_done":  {ID: "cs_done", Status: stripe.CheckoutSessionStatusComplete, Metadata: map[string]string{MetadataBusinessID: "biz-1"}},
		"cs_open":  {ID: "cs_open", Status: stripe.CheckoutSessionStatusOpen, Metadata: map[string]string{MetadataBusinessID: "biz-1"}},
		"cs_other": {ID: "cs_other", Status: stripe.CheckoutSessionStatusComplete, Metadata: map[string]string{MetadataBusinessID: "biz-2"}},
	}
	svc.getCheckoutSession = func(id string, _ *stripe.CheckoutSessionParams) (*stripe.CheckoutSession, error) {
		if s, ok := sessions[id]; ok {
			return s, nil
		}
		return nil, errors.New("no such checkout.session")
	}

	token, err := svc.ConfirmCheckout(context.Background(), "biz-1", "cs_done")
	require.NoError(t, err)
	assert.True(t, tokens.VerifyCheckout(token, "biz-1"))
	assert.False(t, tokens.VerifyCheckout(token, "biz-2"))

	_, err = svc.ConfirmCheckout(context.Background(), "biz-1", "cs_open")
	assert.ErrorIs(t, err, ErrCheckoutNotConfirmed)

	_, err = svc.ConfirmCheckout(context.Background(), "biz-1", "cs_other")
	assert.ErrorIs(t, err, ErrCheckoutNotConfirmed)

	_, err = svc.ConfirmCheckout(context.Background(), "biz-1", "")
	assert.ErrorIs(t, err, ErrMissingCheckoutParams)

	_, err = svc.ConfirmCheckout(context.Background(), "biz-1", "cs_missing")
	assert.Error(t, err)
}
