package controllers

import (
	"github.com/gofiber/fiber/v2"

	"github.com/ManuelReschke/ReviewBoost/app/repository"
	"github.com/ManuelReschke/ReviewBoost/internal/pkg/marketing"
)

type broadcastRequest struct {
	Subject string `json:"subject"`
	Message string `json:"message"`
}

// AdminController handles admin-related HTTP requests using repository pattern
type AdminController struct {
	repos     *repository.Repositories
	marketing *marketing.Service
}

// NewAdminController creates a new admin controller with repository dependencies
func NewAdminController(repos *repository.Repositories, svc *marketing.Service) *AdminController {
	return &AdminController{
		repos:     repos,
		marketing: svc,
	}
}

// HandleStats lists every business with owner, plan flag and feedback count, newest first.
func (ac *AdminController) HandleStats(c *fiber.Ctx) error {
	rows, err := ac.repos.Business.ListWithStats()
	if err != nil {
		return respondError(c, err)
	}
	totalUsers, err := ac.repos.User.Count()
	if err != nil {
		return respondError(c, err)
	}
	if rows == nil {
		rows = []repository.BusinessWithStats{}
	}
	return c.JSON(fiber.Map{
		"total_users": totalUsers,
		"businesses":  rows,
	})
}

func (ac *AdminController) HandleSubscribers(c *fiber.Ctx) error {
	subs, err := ac.marketing.Subscribers(c.UserContext())
	if err != nil {
		return respondError(c, err)
	}
	active := 0
	for i := range subs {
		if subs[i].IsActive() {
			active++
		}
	}
	return c.JSON(fiber.Map{
		"subscribers": subs,
		"total":       len(subs),
		"active":      active,
	})
}

// HandleBroadcast sends a marketing email to all active subscribers.
func (ac *AdminController) HandleBroadcast(c *fiber.Ctx) error {
	var req broadcastRequest
	if err := c.BodyParser(&req); err != nil {
		return badRequest(c, "invalid request body")
	}
	result, err := ac.marketing.Broadcast(c.UserContext(), req.Subject, req.Message)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(result)
}
