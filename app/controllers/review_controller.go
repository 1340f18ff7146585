package controllers

import (
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/log"

	"github.com/ManuelReschke/ReviewBoost/internal/pkg/business"
	"github.com/ManuelReschke/ReviewBoost/internal/pkg/feedback"
	"github.com/ManuelReschke/ReviewBoost/internal/pkg/hcaptcha"
	"github.com/ManuelReschke/ReviewBoost/internal/pkg/metrics/counter"
	"github.com/ManuelReschke/ReviewBoost/internal/pkg/reviewflow"
	"github.com/ManuelReschke/ReviewBoost/internal/pkg/session"
)

type ratingRequest struct {
	Rating int `json:"rating"`
}

type feedbackRequest struct {
	Rating       int    `json:"rating"`
	Comment      string `json:"comment"`
	Contact      string `json:"contact"`
	CaptchaToken string `json:"captcha_token"`
}

// ReviewController serves the anonymous customer review page.
type ReviewController struct {
	businesses *business.Service
	flow       *reviewflow.Flow
	captcha    *hcaptcha.Verifier
	funnel     *counter.Counter
}

func NewReviewController(businesses *business.Service, flow *reviewflow.Flow, captcha *hcaptcha.Verifier, funnel *counter.Counter) *ReviewController {
	return &ReviewController{businesses: businesses, flow: flow, captcha: captcha, funnel: funnel}
}

// HandleShow returns what the review page may show about a business. It
// accepts the business id or its short slug.
func (rc *ReviewController) HandleShow(c *fiber.Ctx) error {
	key := c.Params("businessID")
	if key == "" {
		key = c.Params("slug")
	}
	b, err := rc.businesses.Lookup(c.UserContext(), key)
	if err != nil {
		return respondError(c, err)
	}
	if err := rc.funnel.AddPageView(c.UserContext(), b.ID); err != nil {
		log.Warnf("[Review] page view counter for %s failed: %v", b.ID, err)
	}
	return c.JSON(b.Public())
}

// HandleRate routes a star rating.
func (rc *ReviewController) HandleRate(c *fiber.Ctx) error {
	var req ratingRequest
	if err := c.BodyParser(&req); err != nil {
		return badRequest(c, "invalid request body")
	}
	businessID := c.Params("businessID")
	out, err := rc.flow.Rate(c.UserContext(), businessID, req.Rating, session.GetCheckoutToken(c, businessID))
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(out)
}

// HandleFeedback stores the private comment of a low rating.
func (rc *ReviewController) HandleFeedback(c *fiber.Ctx) error {
	var req feedbackRequest
	if err := c.BodyParser(&req); err != nil {
		return badRequest(c, "invalid request body")
	}
	if err := rc.captcha.Verify(c.UserContext(), req.CaptchaToken, GetClientIP(c)); err != nil {
		return respondError(c, err)
	}

	fb, err := rc.flow.SubmitFeedback(c.UserContext(), feedback.SubmitInput{
		BusinessID: c.Params("businessID"),
		Rating:     req.Rating,
		Comment:    req.Comment,
		Contact:    req.Contact,
	})
	if err != nil {
		return respondError(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(fb)
}
