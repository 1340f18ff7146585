package router

import (
	"github.com/gofiber/fiber/v2"

	"github.com/ManuelReschke/ReviewBoost/internal/pkg/middleware"
)

func (a ApiRouter) registerAdminRoutes(v1 fiber.Router) {
	adminGroup := v1.Group("/admin", middleware.RequireAdmin)
	adminGroup.Get("/stats", a.ctrl.Admin.HandleStats)
	adminGroup.Get("/marketing/subscribers", a.ctrl.Admin.HandleSubscribers)
	adminGroup.Post("/marketing/broadcast", a.ctrl.Admin.HandleBroadcast)
}
