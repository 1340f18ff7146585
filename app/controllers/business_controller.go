package controllers

import (
	"strconv"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/log"

	"github.com/ManuelReschke/ReviewBoost/app/models"
	"github.com/ManuelReschke/ReviewBoost/internal/pkg/business"
	"github.com/ManuelReschke/ReviewBoost/internal/pkg/entitlements"
	"github.com/ManuelReschke/ReviewBoost/internal/pkg/feedback"
	"github.com/ManuelReschke/ReviewBoost/internal/pkg/metrics/counter"
	"github.com/ManuelReschke/ReviewBoost/internal/pkg/reviewpolicy"
	"github.com/ManuelReschke/ReviewBoost/internal/pkg/session"
	"github.com/ManuelReschke/ReviewBoost/internal/pkg/usercontext"
)

// Features lists what the resolved plan unlocks for a business.
type Features struct {
	BothPlatforms        bool `json:"both_platforms"`
	AIAssist             bool `json:"ai_assist"`
	Analytics            bool `json:"analytics"`
	VisibleFeedbackLimit int  `json:"visible_feedback_limit"`
}

type entitlementResponse struct {
	BusinessID string            `json:"business_id"`
	Entitled   bool              `json:"entitled"`
	Plan       entitlements.Plan `json:"plan"`
	Features   Features          `json:"features"`
}

// BusinessController serves the owner dashboard API.
type BusinessController struct {
	businesses *business.Service
	feedback   *feedback.Service
	resolver   *entitlements.Resolver
	funnel     *counter.Counter
}

func NewBusinessController(businesses *business.Service, fb *feedback.Service, resolver *entitlements.Resolver, funnel *counter.Counter) *BusinessController {
	return &BusinessController{businesses: businesses, feedback: fb, resolver: resolver, funnel: funnel}
}

// checkoutTokens reads confirmed checkout tokens from the session.
func checkoutTokens(c *fiber.Ctx) entitlements.TokenLookup {
	return func(businessID string) string {
		return session.GetCheckoutToken(c, businessID)
	}
}

// owned loads the :id business for the current user and resolves its entitlement.
func (bc *BusinessController) owned(c *fiber.Ctx) (*models.Business, bool, error) {
	uc := usercontext.GetUserContext(c)
	b, err := bc.businesses.Owned(c.UserContext(), uc.UserID, uc.IsAdmin, c.Params("id"))
	if err != nil {
		return nil, false, err
	}
	entitled := bc.resolver.ForBusiness(c.UserContext(), b, uc.UserID, session.GetCheckoutToken(c, b.ID))
	return b, entitled, nil
}

func (bc *BusinessController) HandleList(c *fiber.Ctx) error {
	list, plan, err := bc.businesses.ListForOwner(c.UserContext(), usercontext.GetUserID(c), checkoutTokens(c))
	if err != nil {
		return respondError(c, err)
	}
	if list == nil {
		list = []models.Business{}
	}
	return c.JSON(fiber.Map{
		"businesses": list,
		"plan":       plan,
		"platforms":  reviewpolicy.Platforms(),
	})
}

func (bc *BusinessController) HandleCreate(c *fiber.Ctx) error {
	var in business.Input
	if err := c.BodyParser(&in); err != nil {
		return badRequest(c, "invalid request body")
	}
	b, err := bc.businesses.Create(c.UserContext(), usercontext.GetUserID(c), in, checkoutTokens(c))
	if err != nil {
		return respondError(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(b)
}

func (bc *BusinessController) HandleGet(c *fiber.Ctx) error {
	b, entitled, err := bc.owned(c)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(fiber.Map{
		"business":          b,
		"entitled":          entitled,
		"accepting_reviews": b.Public().AcceptingReviews,
	})
}

func (bc *BusinessController) HandleUpdate(c *fiber.Ctx) error {
	var in business.Input
	if err := c.BodyParser(&in); err != nil {
		return badRequest(c, "invalid request body")
	}
	b, err := bc.businesses.Update(c.UserContext(), usercontext.GetUserID(c), c.Params("id"), in, checkoutTokens(c))
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(b)
}

// HandleEntitlement reports the resolved plan and its features.
func (bc *BusinessController) HandleEntitlement(c *fiber.Ctx) error {
	b, entitled, err := bc.owned(c)
	if err != nil {
		return respondError(c, err)
	}
	plan := entitlements.PlanFor(entitled)
	return c.JSON(entitlementResponse{
		BusinessID: b.ID,
		Entitled:   entitled,
		Plan:       plan,
		Features: Features{
			BothPlatforms:        entitlements.CanUseBothPlatforms(plan),
			AIAssist:             entitlements.CanUseAIAssist(plan),
			Analytics:            entitlements.CanViewAnalytics(plan),
			VisibleFeedbackLimit: entitlements.VisibleFeedbackLimit(plan),
		},
	})
}

// HandleFeedbackList returns unread feedback, capped on the free plan.
func (bc *BusinessController) HandleFeedbackList(c *fiber.Ctx) error {
	b, entitled, err := bc.owned(c)
	if err != nil {
		return respondError(c, err)
	}
	list, err := bc.feedback.List(c.UserContext(), b.ID, entitled)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(list)
}

// HandleFeedbackRead marks a feedback as read so it leaves the list.
func (bc *BusinessController) HandleFeedbackRead(c *fiber.Ctx) error {
	b, _, err := bc.owned(c)
	if err != nil {
		return respondError(c, err)
	}
	feedbackID, err := strconv.ParseUint(c.Params("feedbackID"), 10, 64)
	if err != nil {
		return badRequest(c, "invalid feedback id")
	}
	if err := bc.feedback.MarkRead(c.UserContext(), b.ID, uint(feedbackID)); err != nil {
		return respondError(c, err)
	}
	return c.SendStatus(fiber.StatusNoContent)
}

// HandleAnalytics returns feedback aggregates and funnel counters. Pro only.
func (bc *BusinessController) HandleAnalytics(c *fiber.Ctx) error {
	b, entitled, err := bc.owned(c)
	if err != nil {
		return respondError(c, err)
	}
	if !entitlements.CanViewAnalytics(entitlements.PlanFor(entitled)) {
		return c.Status(fiber.StatusForbidden).JSON(fiber.Map{"error": "plan_restriction", "message": "analytics require the pro plan"})
	}

	stats, err := bc.feedback.Stats(c.UserContext(), b.ID, c.QueryInt("days", 30))
	if err != nil {
		return respondError(c, err)
	}
	funnel, err := bc.funnel.Funnel(c.UserContext(), b.ID)
	if err != nil {
		log.Warnf("[Business] funnel counters for %s unavailable: %v", b.ID, err)
	}
	return c.JSON(fiber.Map{
		"feedback": stats,
		"funnel":   funnel,
	})
}
