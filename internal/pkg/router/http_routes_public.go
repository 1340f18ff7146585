package router

import (
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/adaptor"
	"github.com/gofiber/fiber/v2/middleware/basicauth"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

func (h HttpRouter) registerPublicRoutes(app *fiber.App) {
	app.Get("/healthz", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{"status": "ok"})
	})

	// Short links printed on QR codes
	app.Get("/r/:slug", h.ctrl.Review.HandleShow)

	// Billing provider webhooks (no session, signature-verified in controller)
	app.Post("/webhooks/stripe", h.ctrl.Billing.HandleStripeWebhook)

	metricsHandler := adaptor.HTTPHandler(promhttp.Handler())
	if h.opts.MetricsUser != "" {
		app.Get("/metrics", basicauth.New(basicauth.Config{
			Users: map[string]string{
				h.opts.MetricsUser: h.opts.MetricsPassword,
			},
		}), metricsHandler)
	} else {
		app.Get("/metrics", metricsHandler)
	}
}
