package router

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gofiber/fiber/v2"
	fibersession "github.com/gofiber/fiber/v2/middleware/session"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ManuelReschke/ReviewBoost/app/controllers"
	"github.com/ManuelReschke/ReviewBoost/app/models"
	"github.com/ManuelReschke/ReviewBoost/app/repository"
	"github.com/ManuelReschke/ReviewBoost/internal/pkg/billing"
	"github.com/ManuelReschke/ReviewBoost/internal/pkg/business"
	"github.com/ManuelReschke/ReviewBoost/internal/pkg/entitlements"
	"github.com/ManuelReschke/ReviewBoost/internal/pkg/feedback"
	"github.com/ManuelReschke/ReviewBoost/internal/pkg/hcaptcha"
	"github.com/ManuelReschke/ReviewBoost/internal/pkg/mail"
	"github.com/ManuelReschke/ReviewBoost/internal/pkg/marketing"
	"github.com/ManuelReschke/ReviewBoost/internal/pkg/metrics/counter"
	"github.com/ManuelReschke/ReviewBoost/internal/pkg/reviewflow"
	"github.com/ManuelReschke/ReviewBoost/internal/pkg/security"
	"github.com/ManuelReschke/ReviewBoost/internal/pkg/session"
)

type testApp struct {
	app   *fiber.App
	repos *repository.Repositories
	fb    *feedback.Service
}

func newTestApp(t *testing.T) *testApp {
	t.Helper()

	repos := repository.NewMemoryRepositories()
	tokens := security.CheckoutTokens{Secret: "checkout-secret"}
	resolver := entitlements.NewResolver(repos.User, tokens)
	sender := mail.LogSender{}
	var funnel *counter.Counter

	fb := feedback.NewService(repos.Feedback, repos.Business, sender, feedback.Config{DashboardURL: "http://localhost/dashboard"})
	ctrl := controllers.New(controllers.Deps{
		Repos:      repos,
		Resolver:   resolver,
		Businesses: business.NewService(repos.Business, resolver),
		Feedback:   fb,
		Flow:       reviewflow.New(repos.Business, resolver, nil, fb, funnel),
		Billing:    billing.NewService(nil, billing.Config{WebhookSecret: "whsec_test"}, tokens),
		Marketing: marketing.NewService(repos.Consent, sender, marketing.Config{
			BaseURL:           "http://localhost",
			UnsubscribeSecret: "unsubscribe-secret",
		}),
		Captcha: hcaptcha.NewVerifier(""),
		Funnel:  funnel,
	})

	session.SetSessionStore(fibersession.New())
	t.Cleanup(func() { session.SetSessionStore(nil) })

	app := fiber.New()
	InstallRouter(app, ctrl, Options{PublicRateLimit: 1000})
	t.Cleanup(fb.Wait)
	return &testApp{app: app, repos: repos, fb: fb}
}

func (ta *testApp) do(t *testing.T, method, path string, body any, cookies ...*http.Cookie) (*http.Response, map[string]any) {
	t.Helper()
	var reader io.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(raw)
	}
	req := httptest.NewRequest(method, path, reader)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	for _, c := range cookies {
		req.AddCookie(c)
	}
	resp, err := ta.app.Test(req, -1)
	require.NoError(t, err)

	out := map[string]any{}
	raw, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	if len(raw) > 0 {
		_ = json.Unmarshal(raw, &out)
	}
	return resp, out
}

func sessionCookie(t *testing.T, resp *http.Response) *http.Cookie {
	t.Helper()
	for _, c := range resp.Cookies() {
		if c.Name == "session_id" {
			return c
		}
	}
	t.Fatalf("no session cookie in response")
	return nil
}

func (ta *testApp) register(t *testing.T, email string) *http.Cookie {
	t.Helper()
	resp, _ := ta.do(t, fiber.MethodPost, "/api/v1/auth/register", fiber.Map{
		"name":     "Owner",
		"email":    email,
		"password": "supersecret",
	})
	require.Equal(t, fiber.StatusCreated, resp.StatusCode)
	return sessionCookie(t, resp)
}

func (ta *testApp) createBusiness(t *testing.T, cookie *http.Cookie) string {
	t.Helper()
	resp, body := ta.do(t, fiber.MethodPost, "/api/v1/businesses", fiber.Map{
		"name":             "Pizzeria Roma",
		"review_platform":  "google_maps",
		"google_maps_link": "https://maps.google.com/?cid=1",
	}, cookie)
	require.Equal(t, fiber.StatusCreated, resp.StatusCode, body)
	id, _ := body["id"].(string)
	require.NotEmpty(t, id)
	return id
}

func TestHealthz(t *testing.T) {
	ta := newTestApp(t)
	resp, body := ta.do(t, fiber.MethodGet, "/healthz", nil)
	assert.Equal(t, fiber.StatusOK, resp.StatusCode)
	assert.Equal(t, "ok", body["status"])
}

func TestOwnerRoutesRequireSession(t *testing.T) {
	ta := newTestApp(t)
	resp, body := ta.do(t, fiber.MethodGet, "/api/v1/businesses", nil)
	assert.Equal(t, fiber.StatusUnauthorized, resp.StatusCode)
	assert.Equal(t, "unauthorized", body["error"])
}

func TestAdminRoutesRequireAdmin(t *testing.T) {
	ta := newTestApp(t)

	resp, _ := ta.do(t, fiber.MethodGet, "/api/v1/admin/stats", nil)
	assert.Equal(t, fiber.StatusUnauthorized, resp.StatusCode)

	cookie := ta.register(t, "owner@example.com")
	resp, body := ta.do(t, fiber.MethodGet, "/api/v1/admin/stats", nil, cookie)
	assert.Equal(t, fiber.StatusForbidden, resp.StatusCode)
	assert.Equal(t, "forbidden", body["error"])
}

func TestAdminStatsAfterRoleChange(t *testing.T) {
	ta := newTestApp(t)
	cookie := ta.register(t, "admin@example.com")
	ta.createBusiness(t, cookie)

	user, err := ta.repos.User.GetByEmail("admin@example.com")
	require.NoError(t, err)
	require.NoError(t, ta.repos.User.SetRole(user.ID, models.ROLE_ADMIN))

	// the role is read at login
	resp, _ := ta.do(t, fiber.MethodPost, "/api/v1/auth/login", fiber.Map{
		"email":    "admin@example.com",
		"password": "supersecret",
	})
	require.Equal(t, fiber.StatusOK, resp.StatusCode)
	adminCookie := sessionCookie(t, resp)

	resp, body := ta.do(t, fiber.MethodGet, "/api/v1/admin/stats", nil, adminCookie)
	assert.Equal(t, fiber.StatusOK, resp.StatusCode)
	assert.EqualValues(t, 1, body["total_users"])
}

func TestLoginRejectsWrongPassword(t *testing.T) {
	ta := newTestApp(t)
	ta.register(t, "owner@example.com")

	resp, body := ta.do(t, fiber.MethodPost, "/api/v1/auth/login", fiber.Map{
		"email":    "owner@example.com",
		"password": "wrong-password",
	})
	assert.Equal(t, fiber.StatusUnauthorized, resp.StatusCode)
	assert.Equal(t, "invalid_credentials", body["error"])
}

func TestRegisterDuplicateEmail(t *testing.T) {
	ta := newTestApp(t)
	ta.register(t, "owner@example.com")

	resp, body := ta.do(t, fiber.MethodPost, "/api/v1/auth/register", fiber.Map{
		"name":     "Other",
		"email":    "OWNER@example.com",
		"password": "supersecret",
	})
	assert.Equal(t, fiber.StatusConflict, resp.StatusCode)
	assert.Equal(t, "conflict", body["error"])
}

func TestReviewFlowEndToEnd(t *testing.T) {
	ta := newTestApp(t)
	cookie := ta.register(t, "owner@example.com")
	id := ta.createBusiness(t, cookie)

	resp, body := ta.do(t, fiber.MethodGet, "/api/v1/review/"+id, nil)
	require.Equal(t, fiber.StatusOK, resp.StatusCode)
	assert.Equal(t, "Pizzeria Roma", body["name"])
	slug, _ := body["slug"].(string)
	require.NotEmpty(t, slug)

	resp, body = ta.do(t, fiber.MethodGet, "/r/"+slug, nil)
	require.Equal(t, fiber.StatusOK, resp.StatusCode)
	assert.Equal(t, id, body["id"])

	t.Run("high rating redirects on free plan", func(t *testing.T) {
		resp, body := ta.do(t, fiber.MethodPost, "/api/v1/review/"+id+"/rating", fiber.Map{"rating": 5})
		require.Equal(t, fiber.StatusOK, resp.StatusCode)
		assert.Equal(t, "auto_redirect", body["action"])
		assert.Equal(t, "https://maps.google.com/?cid=1", body["destination"])
	})

	t.Run("low rating captures feedback", func(t *testing.T) {
		resp, body := ta.do(t, fiber.MethodPost, "/api/v1/review/"+id+"/rating", fiber.Map{"rating": 2})
		require.Equal(t, fiber.StatusOK, resp.StatusCode)
		assert.Equal(t, "capture_private_feedback", body["action"])
	})

	t.Run("out of range rating", func(t *testing.T) {
		resp, body := ta.do(t, fiber.MethodPost, "/api/v1/review/"+id+"/rating", fiber.Map{"rating": 6})
		assert.Equal(t, fiber.StatusBadRequest, resp.StatusCode)
		assert.Equal(t, "invalid_rating", body["error"])
	})

	t.Run("unknown business", func(t *testing.T) {
		resp, _ := ta.do(t, fiber.MethodPost, "/api/v1/review/does-not-exist/rating", fiber.Map{"rating": 5})
		assert.Equal(t, fiber.StatusNotFound, resp.StatusCode)
	})

	t.Run("feedback without details", func(t *testing.T) {
		resp, body := ta.do(t, fiber.MethodPost, "/api/v1/review/"+id+"/feedback", fiber.Map{"rating": 1, "comment": " "})
		assert.Equal(t, fiber.StatusBadRequest, resp.StatusCode)
		assert.Equal(t, "missing_feedback_details", body["error"])
	})

	for i := 1; i <= 3; i++ {
		resp, _ := ta.do(t, fiber.MethodPost, "/api/v1/review/"+id+"/feedback", fiber.Map{
			"rating":  i,
			"comment": fmt.Sprintf("comment %d", i),
			"contact": "guest@example.com",
		})
		require.Equal(t, fiber.StatusCreated, resp.StatusCode)
	}

	t.Run("free plan shows two feedbacks", func(t *testing.T) {
		resp, body := ta.do(t, fiber.MethodGet, "/api/v1/businesses/"+id+"/feedback", nil, cookie)
		require.Equal(t, fiber.StatusOK, resp.StatusCode)
		items, _ := body["items"].([]any)
		assert.Len(t, items, 2)
		assert.EqualValues(t, 3, body["total"])
		assert.EqualValues(t, 1, body["hidden"])
		assert.Equal(t, "free", body["plan"])

		first, _ := items[0].(map[string]any)
		feedbackID := fmt.Sprintf("%.0f", first["id"])
		resp, _ = ta.do(t, fiber.MethodDelete, "/api/v1/businesses/"+id+"/feedback/"+feedbackID, nil, cookie)
		assert.Equal(t, fiber.StatusNoContent, resp.StatusCode)

		_, body = ta.do(t, fiber.MethodGet, "/api/v1/businesses/"+id+"/feedback", nil, cookie)
		assert.EqualValues(t, 2, body["total"])
		assert.EqualValues(t, 0, body["hidden"])
	})

	t.Run("analytics need pro", func(t *testing.T) {
		resp, body := ta.do(t, fiber.MethodGet, "/api/v1/businesses/"+id+"/analytics", nil, cookie)
		assert.Equal(t, fiber.StatusForbidden, resp.StatusCode)
		assert.Equal(t, "plan_restriction", body["error"])
	})
}

func TestOtherOwnerCannotSeeBusiness(t *testing.T) {
	ta := newTestApp(t)
	id := ta.createBusiness(t, ta.register(t, "owner@example.com"))
	other := ta.register(t, "other@example.com")

	resp, body := ta.do(t, fiber.MethodGet, "/api/v1/businesses/"+id, nil, other)
	assert.Equal(t, fiber.StatusForbidden, resp.StatusCode)
	assert.Equal(t, "forbidden", body["error"])
}

func TestFreePlanRejectsBothPlatforms(t *testing.T) {
	ta := newTestApp(t)
	cookie := ta.register(t, "owner@example.com")

	resp, body := ta.do(t, fiber.MethodPost, "/api/v1/businesses", fiber.Map{
		"name":             "Both",
		"review_platform":  "both",
		"google_maps_link": "https://maps.google.com/?cid=1",
		"trustpilot_link":  "https://trustpilot.com/review/x",
	}, cookie)
	assert.Equal(t, fiber.StatusForbidden, resp.StatusCode)
	assert.Equal(t, "plan_restriction", body["error"])
}

func TestStripeWebhookRejectsBadSignature(t *testing.T) {
	ta := newTestApp(t)
	req := httptest.NewRequest(fiber.MethodPost, "/webhooks/stripe", bytes.NewBufferString(`{"id":"evt_1"}`))
	req.Header.Set("Stripe-Signature", "t=1,v1=deadbeef")
	resp, err := ta.app.Test(req, -1)
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusBadRequest, resp.StatusCode)
}

func TestCheckoutConfirmRequiresSessionID(t *testing.T) {
	ta := newTestApp(t)
	cookie := ta.register(t, "owner@example.com")
	id := ta.createBusiness(t, cookie)

	resp, body := ta.do(t, fiber.MethodPost, "/api/v1/businesses/"+id+"/checkout/confirm", fiber.Map{}, cookie)
	assert.Equal(t, fiber.StatusBadRequest, resp.StatusCode)
	assert.Equal(t, "bad_request", body["error"])
}

func TestMarketingConsentRoundTrip(t *testing.T) {
	ta := newTestApp(t)
	cookie := ta.register(t, "owner@example.com")

	resp, body := ta.do(t, fiber.MethodGet, "/api/v1/marketing/consent", nil, cookie)
	require.Equal(t, fiber.StatusOK, resp.StatusCode)
	assert.Equal(t, false, body["consent_given"])

	resp, _ = ta.do(t, fiber.MethodPost, "/api/v1/marketing/consent", fiber.Map{"consent_given": true}, cookie)
	require.Equal(t, fiber.StatusCreated, resp.StatusCode)

	resp, body = ta.do(t, fiber.MethodGet, "/api/v1/marketing/consent", nil, cookie)
	require.Equal(t, fiber.StatusOK, resp.StatusCode)
	assert.Equal(t, true, body["consent_given"])

	resp, _ = ta.do(t, fiber.MethodDelete, "/api/v1/marketing/consent", nil, cookie)
	assert.Equal(t, fiber.StatusNoContent, resp.StatusCode)
}
