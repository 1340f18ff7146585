package router

import (
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"

	"github.com/ManuelReschke/ReviewBoost/app/controllers"
	"github.com/ManuelReschke/ReviewBoost/internal/pkg/middleware"
)

const defaultPublicRateLimit = 30

type ApiRouter struct {
	ctrl *controllers.Controllers
	opts Options
}

func (a ApiRouter) InstallRouter(app *fiber.App) {
	api := app.Group("/api", cors.New())
	api.Get("/", func(ctx *fiber.Ctx) error {
		return ctx.Status(fiber.StatusOK).JSON(fiber.Map{
			"message": "Hello from api",
		})
	})

	v1 := api.Group("/v1")
	a.registerPublicRoutes(v1)
	a.registerOwnerRoutes(v1)
	a.registerAdminRoutes(v1)
}

func (a ApiRouter) registerPublicRoutes(v1 fiber.Router) {
	limit := a.opts.PublicRateLimit
	if limit <= 0 {
		limit = defaultPublicRateLimit
	}
	throttle := middleware.PublicRateLimit(a.opts.LimiterStorage, limit, time.Minute)

	review := v1.Group("/review/:businessID")
	review.Get("/", a.ctrl.Review.HandleShow)
	review.Post("/rating", throttle, a.ctrl.Review.HandleRate)
	review.Post("/feedback", throttle, a.ctrl.Review.HandleFeedback)

	auth := v1.Group("/auth")
	auth.Post("/register", throttle, a.ctrl.Auth.HandleRegister)
	auth.Post("/login", throttle, a.ctrl.Auth.HandleLogin)
	auth.Post("/logout", middleware.RequireAPISessionAuth, a.ctrl.Auth.HandleLogout)
	auth.Get("/me", middleware.RequireAPISessionAuth, a.ctrl.Auth.HandleMe)

	v1.Get("/marketing/unsubscribe", a.ctrl.Marketing.HandleUnsubscribeLink)
}

func (a ApiRouter) registerOwnerRoutes(v1 fiber.Router) {
	b := v1.Group("/businesses", middleware.RequireAPISessionAuth)
	b.Get("/", a.ctrl.Business.HandleList)
	b.Post("/", a.ctrl.Business.HandleCreate)
	b.Get("/:id", a.ctrl.Business.HandleGet)
	b.Put("/:id", a.ctrl.Business.HandleUpdate)
	b.Get("/:id/entitlement", a.ctrl.Business.HandleEntitlement)
	b.Get("/:id/feedback", a.ctrl.Business.HandleFeedbackList)
	b.Delete("/:id/feedback/:feedbackID", a.ctrl.Business.HandleFeedbackRead)
	b.Get("/:id/analytics", a.ctrl.Business.HandleAnalytics)
	b.Post("/:id/checkout", a.ctrl.Billing.HandleCheckout)
	b.Post("/:id/checkout/confirm", a.ctrl.Billing.HandleCheckoutConfirm)

	m := v1.Group("/marketing/consent", middleware.RequireAPISessionAuth)
	m.Get("/", a.ctrl.Marketing.HandleGetConsent)
	m.Post("/", a.ctrl.Marketing.HandleGiveConsent)
	m.Delete("/", a.ctrl.Marketing.HandleWithdrawConsent)
}

func NewApiRouter(ctrl *controllers.Controllers, opts Options) *ApiRouter {
	return &ApiRouter{ctrl: ctrl, opts: opts}
}
