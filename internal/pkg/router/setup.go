package router

import (
	"github.com/gofiber/fiber/v2"

	"github.com/ManuelReschke/ReviewBoost/app/controllers"
)

type Router interface {
	InstallRouter(app *fiber.App)
}

// Options configure the parts of the routing that depend on the environment.
type Options struct {
	// LimiterStorage backs the public rate limiter. Nil keeps counters in memory.
	LimiterStorage  fiber.Storage
	PublicRateLimit int
	MetricsUser     string
	MetricsPassword string
}

func InstallRouter(app *fiber.App, ctrl *controllers.Controllers, opts Options) {
	// HttpRouter installs the UserContext middleware the API routes rely on.
	setup(app, NewHttpRouter(ctrl, opts), NewApiRouter(ctrl, opts))
}

func setup(app *fiber.App, router ...Router) {
	for _, r := range router {
		r.InstallRouter(app)
	}
}
