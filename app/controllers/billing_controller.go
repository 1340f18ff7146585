package controllers

import (
	"errors"
	"strings"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/log"

	"github.com/ManuelReschke/ReviewBoost/app/repository"
	"github.com/ManuelReschke/ReviewBoost/internal/pkg/billing"
	"github.com/ManuelReschke/ReviewBoost/internal/pkg/business"
	"github.com/ManuelReschke/ReviewBoost/internal/pkg/session"
	"github.com/ManuelReschke/ReviewBoost/internal/pkg/usercontext"
)

type confirmCheckoutRequest struct {
	SessionID string `json:"session_id"`
}

// BillingController starts Stripe checkouts and receives Stripe webhooks.
type BillingController struct {
	businesses *business.Service
	billing    *billing.Service
	repos      *repository.Repositories
}

func NewBillingController(businesses *business.Service, svc *billing.Service, repos *repository.Repositories) *BillingController {
	return &BillingController{businesses: businesses, billing: svc, repos: repos}
}

// HandleCheckout returns the hosted Stripe checkout URL for the Pro plan.
func (bc *BillingController) HandleCheckout(c *fiber.Ctx) error {
	uc := usercontext.GetUserContext(c)
	b, err := bc.businesses.Owned(c.UserContext(), uc.UserID, false, c.Params("id"))
	if err != nil {
		return respondError(c, err)
	}

	email := ""
	if user, err := bc.repos.User.GetByID(uc.UserID); err == nil {
		email = user.Email
	}

	url, err := bc.billing.CreateCheckout(c.UserContext(), b, email)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(fiber.Map{"url": url})
}

// HandleCheckoutConfirm verifies the Stripe session from the success
// redirect and remembers the resulting checkout token in the session.
func (bc *BillingController) HandleCheckoutConfirm(c *fiber.Ctx) error {
	uc := usercontext.GetUserContext(c)
	b, err := bc.businesses.Owned(c.UserContext(), uc.UserID, false, c.Params("id"))
	if err != nil {
		return respondError(c, err)
	}

	var req confirmCheckoutRequest
	if err := c.BodyParser(&req); err != nil || strings.TrimSpace(req.SessionID) == "" {
		req.SessionID = c.Query("session_id")
	}

	token, err := bc.billing.ConfirmCheckout(c.UserContext(), b.ID, req.SessionID)
	if err != nil {
		return respondError(c, err)
	}
	if err := session.SetCheckoutToken(c, b.ID, token); err != nil {
		return respondError(c, err)
	}
	log.Infof("[Billing] checkout confirmed for business %s", b.ID)
	return c.JSON(fiber.Map{"business_id": b.ID, "entitled": true})
}

// HandleStripeWebhook applies a Stripe event. Processing errors answer 500 so
// Stripe redelivers the event.
func (bc *BillingController) HandleStripeWebhook(c *fiber.Ctx) error {
	outcome, err := bc.billing.HandleWebhook(c.UserContext(), c.Body(), c.Get("Stripe-Signature"))
	if err != nil {
		if errors.Is(err, billing.ErrInvalidSignature) || errors.Is(err, billing.ErrWebhookNotConfigured) {
			log.Warnf("[Billing] rejected webhook: %v", err)
		}
		return respondError(c, err)
	}
	return c.JSON(fiber.Map{"received": true, "outcome": outcome})
}
