package router

import (
	"github.com/gofiber/fiber/v2"

	"github.com/ManuelReschke/ReviewBoost/app/controllers"
	"github.com/ManuelReschke/ReviewBoost/internal/pkg/middleware"
	"github.com/ManuelReschke/ReviewBoost/internal/pkg/session"
)

type HttpRouter struct {
	ctrl *controllers.Controllers
	opts Options
}

func (h HttpRouter) InstallRouter(app *fiber.App) {
	if session.GetSessionStore() == nil {
		session.NewSessionStore()
	}

	// Apply UserContext middleware globally as first middleware
	app.Use(middleware.UserContextMiddleware)

	h.registerPublicRoutes(app)
}

func NewHttpRouter(ctrl *controllers.Controllers, opts Options) *HttpRouter {
	return &HttpRouter{ctrl: ctrl, opts: opts}
}
