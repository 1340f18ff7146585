package controllers

import (
	"errors"

	"github.com/gofiber/fiber/v2"

	"github.com/ManuelReschke/ReviewBoost/app/repository"
	"github.com/ManuelReschke/ReviewBoost/internal/pkg/marketing"
	"github.com/ManuelReschke/ReviewBoost/internal/pkg/usercontext"
)

type consentRequest struct {
	ConsentGiven bool `json:"consent_given"`
}

// MarketingController manages the owner's newsletter consent.
type MarketingController struct {
	marketing *marketing.Service
	repos     *repository.Repositories
}

func NewMarketingController(svc *marketing.Service, repos *repository.Repositories) *MarketingController {
	return &MarketingController{marketing: svc, repos: repos}
}

func (mc *MarketingController) HandleGetConsent(c *fiber.Ctx) error {
	consent, err := mc.marketing.Latest(c.UserContext(), usercontext.GetUserID(c))
	if errors.Is(err, marketing.ErrNoConsent) {
		return c.JSON(fiber.Map{"consent_given": false})
	}
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(consent)
}

// HandleGiveConsent records a new consent decision with its audit data.
func (mc *MarketingController) HandleGiveConsent(c *fiber.Ctx) error {
	var req consentRequest
	if err := c.BodyParser(&req); err != nil {
		return badRequest(c, "invalid request body")
	}
	user, err := mc.repos.User.GetByID(usercontext.GetUserID(c))
	if err != nil {
		return respondError(c, err)
	}

	consent, err := mc.marketing.GiveConsent(c.UserContext(), marketing.ConsentInput{
		UserID:       user.ID,
		Email:        user.Email,
		ConsentGiven: req.ConsentGiven,
		IPAddress:    GetClientIP(c),
		UserAgent:    c.Get(fiber.HeaderUserAgent),
	})
	if err != nil {
		return respondError(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(consent)
}

func (mc *MarketingController) HandleWithdrawConsent(c *fiber.Ctx) error {
	if err := mc.marketing.Unsubscribe(c.UserContext(), usercontext.GetUserID(c)); err != nil {
		return respondError(c, err)
	}
	return c.SendStatus(fiber.StatusNoContent)
}

// HandleUnsubscribeLink serves the signed opt-out link of marketing emails.
func (mc *MarketingController) HandleUnsubscribeLink(c *fiber.Ctx) error {
	token := c.Query("token")
	if token == "" {
		return badRequest(c, "token is required")
	}
	if _, err := mc.marketing.UnsubscribeWithToken(c.UserContext(), token); err != nil {
		return respondError(c, err)
	}
	return c.JSON(fiber.Map{"unsubscribed": true})
}
