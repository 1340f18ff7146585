package controllers

import (
	"github.com/ManuelReschke/ReviewBoost/app/repository"
	"github.com/ManuelReschke/ReviewBoost/internal/pkg/billing"
	"github.com/ManuelReschke/ReviewBoost/internal/pkg/business"
	"github.com/ManuelReschke/ReviewBoost/internal/pkg/entitlements"
	"github.com/ManuelReschke/ReviewBoost/internal/pkg/feedback"
	"github.com/ManuelReschke/ReviewBoost/internal/pkg/hcaptcha"
	"github.com/ManuelReschke/ReviewBoost/internal/pkg/marketing"
	"github.com/ManuelReschke/ReviewBoost/internal/pkg/metrics/counter"
	"github.com/ManuelReschke/ReviewBoost/internal/pkg/reviewflow"
)

// Deps are the services behind the HTTP handlers.
type Deps struct {
	Repos      *repository.Repositories
	Resolver   *entitlements.Resolver
	Businesses *business.Service
	Feedback   *feedback.Service
	Flow       *reviewflow.Flow
	Billing    *billing.Service
	Marketing  *marketing.Service
	Captcha    *hcaptcha.Verifier
	Funnel     *counter.Counter
}

// Controllers bundles one controller per area.
type Controllers struct {
	Auth      *AuthController
	Review    *ReviewController
	Business  *BusinessController
	Billing   *BillingController
	Marketing *MarketingController
	Admin     *AdminController
}

func New(d Deps) *Controllers {
	return &Controllers{
		Auth:      NewAuthController(d.Repos),
		Review:    NewReviewController(d.Businesses, d.Flow, d.Captcha, d.Funnel),
		Business:  NewBusinessController(d.Businesses, d.Feedback, d.Resolver, d.Funnel),
		Billing:   NewBillingController(d.Businesses, d.Billing, d.Repos),
		Marketing: NewMarketingController(d.Marketing, d.Repos),
		Admin:     NewAdminController(d.Repos, d.Marketing),
	}
}
