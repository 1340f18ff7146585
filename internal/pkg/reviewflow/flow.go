package reviewflow

import (
	"context"

	"github.com/gofiber/fiber/v2/log"

	"github.com/ManuelReschke/ReviewBoost/app/models"
	"github.com/ManuelReschke/ReviewBoost/app/repository"
	"github.com/ManuelReschke/ReviewBoost/internal/pkg/aiassist"
	"github.com/ManuelReschke/ReviewBoost/internal/pkg/entitlements"
	"github.com/ManuelReschke/ReviewBoost/internal/pkg/feedback"
	"github.com/ManuelReschke/ReviewBoost/internal/pkg/metrics"
	"github.com/ManuelReschke/ReviewBoost/internal/pkg/ratinggate"
)

// Suggester produces review drafts for the assisted flow.
type Suggester interface {
	Suggest(ctx context.Context, businessName string) aiassist.Suggestion
}

// FunnelRecorder counts public flow events per business.
type FunnelRecorder interface {
	AddRedirect(ctx context.Context, businessID string) error
	AddAssist(ctx context.Context, businessID string) error
}

// Outcome tells the review page what to do after a rating.
type Outcome struct {
	Action        ratinggate.ActionKind `json:"action"`
	Destination   string                `json:"destination,omitempty"`
	DelaySeconds  int                   `json:"delay_seconds,omitempty"`
	SuggestedText string                `json:"suggested_text,omitempty"`
	Generated     bool                  `json:"generated"`
}

// Flow runs the customer side of a review: rating, routing and private feedback.
type Flow struct {
	businesses repository.BusinessRepository
	resolver   *entitlements.Resolver
	assistant  Suggester
	feedback   *feedback.Service
	funnel     FunnelRecorder
}

func New(businesses repository.BusinessRepository, resolver *entitlements.Resolver, assistant Suggester, fb *feedback.Service, funnel FunnelRecorder) *Flow {
	return &Flow{
		businesses: businesses,
		resolver:   resolver,
		assistant:  assistant,
		feedback:   fb,
		funnel:     funnel,
	}
}

// Rate decides what happens after a customer picked a star rating. It never
// stores anything for ratings of 4 and above.
func (f *Flow) Rate(ctx context.Context, businessID string, rating int, checkoutToken string) (*Outcome, error) {
	if err := ratinggate.ValidateRating(rating); err != nil {
		return nil, err
	}

	business, err := f.businesses.GetByID(businessID)
	if err != nil {
		return nil, err
	}

	entitled := f.entitled(ctx, business, checkoutToken)
	action, err := ratinggate.Decide(rating, business.Policy(), entitled)
	if err != nil {
		return nil, err
	}
	metrics.GateDecisionsTotal.WithLabelValues(string(action.Kind)).Inc()

	out := &Outcome{
		Action:       action.Kind,
		Destination:  action.Destination,
		DelaySeconds: int(action.Delay.Seconds()),
	}

	switch action.Kind {
	case ratinggate.ActionAIAssistFlow:
		if f.assistant != nil {
			s := f.assistant.Suggest(ctx, business.Name)
			out.SuggestedText = s.Text
			out.Generated = s.Generated
		}
		if f.funnel != nil {
			f.logFunnel(business.ID, f.funnel.AddAssist(ctx, business.ID))
		}
	case ratinggate.ActionAutoRedirect:
		if f.funnel != nil {
			f.logFunnel(business.ID, f.funnel.AddRedirect(ctx, business.ID))
		}
	case ratinggate.ActionCompleteSilently:
		log.Warnf("[ReviewFlow] business %s has no review destination configured", business.ID)
	}

	return out, nil
}

// SubmitFeedback stores the private comment of a low rating.
func (f *Flow) SubmitFeedback(ctx context.Context, in feedback.SubmitInput) (*models.Feedback, error) {
	return f.feedback.Submit(ctx, in)
}

func (f *Flow) entitled(ctx context.Context, b *models.Business, checkoutToken string) bool {
	if f.resolver == nil {
		return entitlements.Resolve(entitlements.Inputs{IsPro: b.IsPro})
	}
	return f.resolver.ForBusiness(ctx, b, 0, checkoutToken)
}

func (f *Flow) logFunnel(businessID string, err error) {
	if err != nil {
		log.Warnf("[ReviewFlow] funnel counter for %s failed: %v", businessID, err)
	}
}
