package controllers

import (
	"errors"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/log"
	"gorm.io/gorm"

	"github.com/ManuelReschke/ReviewBoost/app/models"
	"github.com/ManuelReschke/ReviewBoost/internal/pkg/billing"
	"github.com/ManuelReschke/ReviewBoost/internal/pkg/business"
	"github.com/ManuelReschke/ReviewBoost/internal/pkg/feedback"
	"github.com/ManuelReschke/ReviewBoost/internal/pkg/hcaptcha"
	"github.com/ManuelReschke/ReviewBoost/internal/pkg/marketing"
	"github.com/ManuelReschke/ReviewBoost/internal/pkg/ratinggate"
	"github.com/ManuelReschke/ReviewBoost/internal/pkg/reviewpolicy"
	"github.com/ManuelReschke/ReviewBoost/internal/pkg/security"
)

type apiError struct {
	status int
	code   string
}

// errorTable maps domain errors to HTTP responses. Order matters: the
// specific policy errors wrap ErrPolicyMisconfigured and must match first.
var errorTable = []struct {
	err error
	apiError
}{
	{ratinggate.ErrInvalidRating, apiError{fiber.StatusBadRequest, "invalid_rating"}},
	{reviewpolicy.ErrMissingBothLinks, apiError{fiber.StatusUnprocessableEntity, "missing_both_links"}},
	{reviewpolicy.ErrMissingGoogleMapsLink, apiError{fiber.StatusUnprocessableEntity, "missing_google_maps_link"}},
	{reviewpolicy.ErrMissingTrustpilotLink, apiError{fiber.StatusUnprocessableEntity, "missing_trustpilot_link"}},
	{reviewpolicy.ErrPolicyMisconfigured, apiError{fiber.StatusUnprocessableEntity, "policy_misconfigured"}},
	{reviewpolicy.ErrPlanRestriction, apiError{fiber.StatusForbidden, "plan_restriction"}},
	{reviewpolicy.ErrUnknownPlatform, apiError{fiber.StatusBadRequest, "unknown_platform"}},
	{feedback.ErrMissingFeedbackDetails, apiError{fiber.StatusBadRequest, "missing_feedback_details"}},
	{feedback.ErrFeedbackNotFound, apiError{fiber.StatusNotFound, "not_found"}},
	{business.ErrBusinessLimit, apiError{fiber.StatusForbidden, "business_limit"}},
	{business.ErrNotFound, apiError{fiber.StatusNotFound, "not_found"}},
	{business.ErrForbidden, apiError{fiber.StatusForbidden, "forbidden"}},
	{billing.ErrCheckoutNotConfirmed, apiError{fiber.StatusBadRequest, "invalid_checkout_token"}},
	{billing.ErrMissingCheckoutParams, apiError{fiber.StatusBadRequest, "bad_request"}},
	{billing.ErrAlreadyPro, apiError{fiber.StatusConflict, "already_pro"}},
	{billing.ErrStripeNotConfigured, apiError{fiber.StatusServiceUnavailable, "billing_unavailable"}},
	{billing.ErrWebhookNotConfigured, apiError{fiber.StatusServiceUnavailable, "billing_unavailable"}},
	{billing.ErrInvalidSignature, apiError{fiber.StatusBadRequest, "invalid_signature"}},
	{marketing.ErrEmptyBroadcast, apiError{fiber.StatusBadRequest, "bad_request"}},
	{marketing.ErrNoConsent, apiError{fiber.StatusNotFound, "not_found"}},
	{security.ErrTokenExpired, apiError{fiber.StatusBadRequest, "invalid_token"}},
	{security.ErrInvalidToken, apiError{fiber.StatusBadRequest, "invalid_token"}},
	{hcaptcha.ErrEmptyToken, apiError{fiber.StatusBadRequest, "captcha_failed"}},
	{hcaptcha.ErrRejected, apiError{fiber.StatusBadRequest, "captcha_failed"}},
	{models.ErrPasswordTooShort, apiError{fiber.StatusBadRequest, "password_too_short"}},
	{gorm.ErrRecordNotFound, apiError{fiber.StatusNotFound, "not_found"}},
	{gorm.ErrDuplicatedKey, apiError{fiber.StatusConflict, "conflict"}},
}

// respondError writes the JSON error body for err. Unknown errors are logged
// and hidden behind a 500.
func respondError(c *fiber.Ctx, err error) error {
	var verrs validator.ValidationErrors
	if errors.As(err, &verrs) {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error":   "validation_failed",
			"message": validationMessage(verrs),
		})
	}
	for _, e := range errorTable {
		if errors.Is(err, e.err) {
			return c.Status(e.status).JSON(fiber.Map{"error": e.code, "message": err.Error()})
		}
	}
	log.Errorf("[HTTP] %s %s failed: %v", c.Method(), c.Path(), err)
	return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
		"error":   "internal_server_error",
		"message": "something went wrong",
	})
}

func validationMessage(verrs validator.ValidationErrors) string {
	parts := make([]string, 0, len(verrs))
	for _, fe := range verrs {
		parts = append(parts, strings.ToLower(fe.Field())+" failed on "+fe.Tag())
	}
	return strings.Join(parts, ", ")
}

func badRequest(c *fiber.Ctx, message string) error {
	return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "bad_request", "message": message})
}

// GetClientIP returns the original client address behind Cloudflare or a
// reverse proxy.
func GetClientIP(c *fiber.Ctx) string {
	if ip := strings.TrimSpace(c.Get("CF-Connecting-IP")); ip != "" {
		return ip
	}
	if xff := c.Get("X-Forwarded-For"); xff != "" {
		if ip := strings.TrimSpace(strings.Split(xff, ",")[0]); ip != "" {
			return ip
		}
	}
	if ip := strings.TrimSpace(c.Get("X-Real-IP")); ip != "" {
		return ip
	}
	return strings.TrimPrefix(c.IP(), "::ffff:")
}
