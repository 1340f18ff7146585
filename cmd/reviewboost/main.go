package main

import (
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gofiber/contrib/swagger"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/log"
	"github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"

	"github.com/ManuelReschke/ReviewBoost/app/controllers"
	"github.com/ManuelReschke/ReviewBoost/app/repository"
	"github.com/ManuelReschke/ReviewBoost/internal/pkg/aiassist"
	"github.com/ManuelReschke/ReviewBoost/internal/pkg/billing"
	"github.com/ManuelReschke/ReviewBoost/internal/pkg/business"
	"github.com/ManuelReschke/ReviewBoost/internal/pkg/cache"
	"github.com/ManuelReschke/ReviewBoost/internal/pkg/config"
	"github.com/ManuelReschke/ReviewBoost/internal/pkg/database"
	"github.com/ManuelReschke/ReviewBoost/internal/pkg/entitlements"
	"github.com/ManuelReschke/ReviewBoost/internal/pkg/env"
	"github.com/ManuelReschke/ReviewBoost/internal/pkg/feedback"
	"github.com/ManuelReschke/ReviewBoost/internal/pkg/hcaptcha"
	"github.com/ManuelReschke/ReviewBoost/internal/pkg/mail"
	"github.com/ManuelReschke/ReviewBoost/internal/pkg/marketing"
	"github.com/ManuelReschke/ReviewBoost/internal/pkg/metrics/counter"
	"github.com/ManuelReschke/ReviewBoost/internal/pkg/reviewflow"
	"github.com/ManuelReschke/ReviewBoost/internal/pkg/router"
	"github.com/ManuelReschke/ReviewBoost/internal/pkg/security"
	"github.com/ManuelReschke/ReviewBoost/internal/pkg/session"
)

func main() {
	app, cfg, fb := NewApplication()

	go func() {
		if err := app.Listen(cfg.App.Addr()); err != nil {
			log.Fatalf("[Server] %v", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info("[Server] shutting down")
	if err := app.ShutdownWithTimeout(10 * time.Second); err != nil {
		log.Errorf("[Server] shutdown: %v", err)
	}
	// let pending owner notifications finish
	fb.Wait()
}

func NewApplication() (*fiber.App, config.Config, *feedback.Service) {
	env.SetupEnvFile()
	database.SetupDatabase()
	cache.SetupCache()
	cfg := config.Load()
	if env.IsDev() {
		log.SetLevel(log.LevelDebug)
	}

	repos := repository.NewRepositories(database.GetDB())

	checkoutTokens := security.CheckoutTokens{Secret: cfg.Secrets.CheckoutToken, TTL: cfg.Secrets.CheckoutTokenTTL}
	resolver := entitlements.NewResolver(repos.User, checkoutTokens)
	sender := mail.NewSender(cfg.SMTP)
	funnel := counter.New(cache.GetClient())

	feedbackSvc := feedback.NewService(repos.Feedback, repos.Business, sender, feedback.Config{
		DashboardURL: cfg.App.DashboardURL(),
	})
	assistant := aiassist.NewAssistant(
		aiassist.NewGeminiGenerator(aiassist.GeminiConfig{
			APIKey:   cfg.Gemini.APIKey,
			BaseURL:  cfg.Gemini.BaseURL,
			Model:    cfg.Gemini.Model,
			Language: cfg.Gemini.Language,
		}),
		cache.NewStore(cache.GetClient(), "review:suggestion:"),
		aiassist.Options{Language: cfg.Gemini.Language, Timeout: cfg.Gemini.Timeout, CacheTTL: cfg.Gemini.CacheTTL},
	)
	billingSvc := billing.NewServiceFromDB(database.GetDB(), billing.Config{
		SecretKey:     cfg.Stripe.SecretKey,
		WebhookSecret: cfg.Stripe.WebhookSecret,
		PriceID:       cfg.Stripe.PriceID,
		UnitAmount:    cfg.Stripe.UnitAmount,
		Currency:      cfg.Stripe.Currency,
		ProductName:   cfg.Stripe.ProductName,
		BaseURL:       cfg.App.BaseURL,
	}, checkoutTokens)
	marketingSvc := marketing.NewService(repos.Consent, sender, marketing.Config{
		BaseURL:           cfg.App.BaseURL,
		From:              cfg.Marketing.From,
		UnsubscribeSecret: cfg.Secrets.Unsubscribe,
		Concurrency:       cfg.Marketing.Concurrency,
	})
	businessSvc := business.NewService(repos.Business, resolver)

	if !cfg.Stripe.IsConfigured() {
		log.Warn("[Billing] STRIPE_SECRET_KEY not set, checkout is disabled")
	}
	if cfg.Secrets.CheckoutToken == "" {
		log.Warn("[Billing] CHECKOUT_TOKEN_SECRET not set, checkout confirmation is disabled")
	}

	ctrl := controllers.New(controllers.Deps{
		Repos:      repos,
		Resolver:   resolver,
		Businesses: businessSvc,
		Feedback:   feedbackSvc,
		Flow:       reviewflow.New(repos.Business, resolver, assistant, feedbackSvc, funnel),
		Billing:    billingSvc,
		Marketing:  marketingSvc,
		Captcha:    hcaptcha.NewVerifier(cfg.HCaptcha),
		Funnel:     funnel,
	})

	app := fiber.New(fiber.Config{
		AppName:   cfg.App.Name,
		BodyLimit: 1 << 20,
		// behind a reverse proxy in production
		ProxyHeader: env.GetEnv("PROXY_HEADER", ""),
	})

	// recovery and logging
	app.Use(recover.New(), logger.New())

	// SWAGGER / OPENAPI
	if specPath := findOpenAPISpec(); specPath != "" {
		app.Use(swagger.New(swagger.Config{
			BasePath: "/docs/api/",
			FilePath: specPath,
			Path:     "v1",
		}))
	} else {
		log.Warn("[Server] openapi.yml not found, /docs/api is disabled")
	}

	session.NewSessionStore()
	router.InstallRouter(app, ctrl, router.Options{
		LimiterStorage:  session.NewRedisStorage(2),
		PublicRateLimit: env.GetInt("PUBLIC_RATE_LIMIT", 30),
		MetricsUser:     cfg.Metrics.User,
		MetricsPassword: cfg.Metrics.Password,
	})

	log.Infof("[Server] %s listening on %s", cfg.App.Name, cfg.App.Addr())
	return app, cfg, feedbackSvc
}

func findOpenAPISpec() string {
	// Define possible base paths
	for _, base := range []string{"./", "../../", "../../../"} {
		p := base + "public/docs/v1/openapi.yml"
		if _, err := os.Stat(p); err == nil {
			return p
		}
	}
	return ""
}
