package entitlements

import (
	"context"

	"github.com/gofiber/fiber/v2/log"

	"github.com/ManuelReschke/ReviewBoost/app/models"
)

type Plan string

const (
	PlanFree Plan = "free"
	PlanPro  Plan = "pro"
)

const (
	FreeVisibleFeedback = 2
	FreeMaxBusinesses   = 1
)

// Inputs are the three independent grounds for Pro features.
type Inputs struct {
	IsPro             bool
	IsAdmin           bool
	CheckoutConfirmed bool
}

// Resolve reports whether Pro features are unlocked. Any single input suffices.
func Resolve(in Inputs) bool {
	return in.IsPro || in.IsAdmin || in.CheckoutConfirmed
}

func PlanFor(entitled bool) Plan {
	if entitled {
		return PlanPro
	}
	return PlanFree
}

func CanUseBothPlatforms(plan Plan) bool { return plan == PlanPro }

func CanUseAIAssist(plan Plan) bool { return plan == PlanPro }

func CanViewAnalytics(plan Plan) bool { return plan == PlanPro }

// VisibleFeedbackLimit returns how many feedback entries an owner may read.
// Zero means unlimited.
func VisibleFeedbackLimit(plan Plan) int {
	if plan == PlanPro {
		return 0
	}
	return FreeVisibleFeedback
}

// MaxBusinesses returns how many businesses an owner may create. Zero means unlimited.
func MaxBusinesses(plan Plan) int {
	if plan == PlanPro {
		return 0
	}
	return FreeMaxBusinesses
}

// RoleLookup answers whether a user carries the admin role.
type RoleLookup interface {
	IsAdmin(ctx context.Context, userID uint) (bool, error)
}

// CheckoutVerifier checks a server-issued post-checkout token for a business.
type CheckoutVerifier interface {
	VerifyCheckout(token, businessID string) bool
}

// Resolver gathers the entitlement inputs for a business.
type Resolver struct {
	roles    RoleLookup
	checkout CheckoutVerifier
}

func NewResolver(roles RoleLookup, checkout CheckoutVerifier) *Resolver {
	return &Resolver{roles: roles, checkout: checkout}
}

// ForBusiness resolves entitlement for a business. The admin override applies
// when either the owner of the business or the viewer is an admin; viewerID 0
// means an anonymous viewer. Role lookup failures are logged and treated as
// not admin, so the plan flag alone still decides.
func (r *Resolver) ForBusiness(ctx context.Context, b *models.Business, viewerID uint, checkoutToken string) bool {
	in := Inputs{IsPro: b.IsPro}
	if in.IsPro {
		return true
	}

	in.IsAdmin = r.isAdmin(ctx, b.OwnerID) || (viewerID != 0 && viewerID != b.OwnerID && r.isAdmin(ctx, viewerID))

	if checkoutToken != "" && r.checkout != nil {
		in.CheckoutConfirmed = r.checkout.VerifyCheckout(checkoutToken, b.ID)
	}

	return Resolve(in)
}

// TokenLookup returns the checkout token held for a business, or "".
type TokenLookup func(businessID string) string

// ForOwner resolves the plan of an owner across all of their businesses. One
// Pro business, a confirmed checkout on any of them or the admin role make
// the whole account Pro. tokens may be nil.
func (r *Resolver) ForOwner(ctx context.Context, ownerID uint, businesses []models.Business, tokens TokenLookup) Plan {
	if r.isAdmin(ctx, ownerID) {
		return PlanPro
	}
	for i := range businesses {
		if businesses[i].IsPro {
			return PlanPro
		}
		if tokens == nil || r.checkout == nil {
			continue
		}
		if token := tokens(businesses[i].ID); token != "" && r.checkout.VerifyCheckout(token, businesses[i].ID) {
			return PlanPro
		}
	}
	return PlanFree
}

func (r *Resolver) isAdmin(ctx context.Context, userID uint) bool {
	if r.roles == nil || userID == 0 {
		return false
	}
	ok, err := r.roles.IsAdmin(ctx, userID)
	if err != nil {
		log.Warnf("[Entitlements] role lookup failed for user %d: %v", userID, err)
		return false
	}
	return ok
}
