package business

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2/log"
	"gorm.io/gorm"

	"github.com/ManuelReschke/ReviewBoost/app/models"
	"github.com/ManuelReschke/ReviewBoost/app/repository"
	"github.com/ManuelReschke/ReviewBoost/internal/pkg/entitlements"
	"github.com/ManuelReschke/ReviewBoost/internal/pkg/reviewpolicy"
	"github.com/ManuelReschke/ReviewBoost/internal/pkg/shortener"
)

var (
	ErrBusinessLimit = errors.New("free plan is limited to one business")
	ErrNotFound      = errors.New("business not found")
	ErrForbidden     = errors.New("business belongs to another owner")
)

// Input is the owner supplied part of a business.
type Input struct {
	Name           string `json:"name" validate:"required,min=2,max=150"`
	ReviewPlatform string `json:"review_platform" validate:"required"`
	GoogleMapsLink string `json:"google_maps_link" validate:"omitempty,url,max=500"`
	TrustpilotLink string `json:"trustpilot_link" validate:"omitempty,url,max=500"`
}

func (in *Input) normalize() {
	in.Name = strings.TrimSpace(in.Name)
	in.ReviewPlatform = strings.ToLower(strings.TrimSpace(in.ReviewPlatform))
	in.GoogleMapsLink = strings.TrimSpace(in.GoogleMapsLink)
	in.TrustpilotLink = strings.TrimSpace(in.TrustpilotLink)
}

func (in Input) policy() reviewpolicy.Policy {
	return reviewpolicy.Policy{
		Platform:       reviewpolicy.Platform(in.ReviewPlatform),
		GoogleMapsLink: in.GoogleMapsLink,
		TrustpilotLink: in.TrustpilotLink,
	}
}

// Service manages the businesses of an owner.
type Service struct {
	businesses repository.BusinessRepository
	resolver   *entitlements.Resolver
	validate   *validator.Validate
}

func NewService(businesses repository.BusinessRepository, resolver *entitlements.Resolver) *Service {
	return &Service{
		businesses: businesses,
		resolver:   resolver,
		validate:   validator.New(),
	}
}

// ownerPlan loads the businesses of an owner and the plan they add up to.
// Create and Update both check the review policy against this plan.
func (s *Service) ownerPlan(ctx context.Context, ownerID uint, tokens entitlements.TokenLookup) ([]models.Business, entitlements.Plan, error) {
	list, err := s.businesses.GetByOwnerID(ownerID)
	if err != nil {
		return nil, entitlements.PlanFree, err
	}
	return list, s.resolver.ForOwner(ctx, ownerID, list, tokens), nil
}

// Create registers a new business for the owner. The review policy is checked
// against the owner's plan before anything is stored.
func (s *Service) Create(ctx context.Context, ownerID uint, in Input, tokens entitlements.TokenLookup) (*models.Business, error) {
	in.normalize()
	if err := s.validate.Struct(in); err != nil {
		return nil, err
	}

	existing, plan, err := s.ownerPlan(ctx, ownerID, tokens)
	if err != nil {
		return nil, err
	}
	if err := in.policy().ValidateForPlan(entitlements.CanUseBothPlatforms(plan)); err != nil {
		return nil, err
	}
	if limit := entitlements.MaxBusinesses(plan); limit > 0 && len(existing) >= limit {
		return nil, ErrBusinessLimit
	}

	slug, err := shortener.UniqueSlug(shortener.BusinessSlugLength, s.businesses.SlugExists)
	if err != nil {
		return nil, err
	}

	b := &models.Business{
		OwnerID:        ownerID,
		Name:           in.Name,
		Slug:           slug,
		ReviewPlatform: in.ReviewPlatform,
		GoogleMapsLink: in.GoogleMapsLink,
		TrustpilotLink: in.TrustpilotLink,
	}
	if err := b.Validate(); err != nil {
		return nil, err
	}
	if err := s.businesses.Create(b); err != nil {
		return nil, fmt.Errorf("create business: %w", err)
	}
	log.Infof("[Business] owner %d created business %s (%s)", ownerID, b.ID, b.ReviewPlatform)
	return b, nil
}

// Update replaces the review settings. A checkout token from tokens lets an
// owner who just paid pick both platforms before the webhook arrives.
func (s *Service) Update(ctx context.Context, ownerID uint, businessID string, in Input, tokens entitlements.TokenLookup) (*models.Business, error) {
	in.normalize()
	if err := s.validate.Struct(in); err != nil {
		return nil, err
	}

	b, err := s.Owned(ctx, ownerID, false, businessID)
	if err != nil {
		return nil, err
	}
	_, plan, err := s.ownerPlan(ctx, b.OwnerID, tokens)
	if err != nil {
		return nil, err
	}
	if err := in.policy().ValidateForPlan(entitlements.CanUseBothPlatforms(plan)); err != nil {
		return nil, err
	}

	b.Name = in.Name
	b.ReviewPlatform = in.ReviewPlatform
	b.GoogleMapsLink = in.GoogleMapsLink
	b.TrustpilotLink = in.TrustpilotLink
	if err := b.Validate(); err != nil {
		return nil, err
	}
	if err := s.businesses.Update(b); err != nil {
		return nil, fmt.Errorf("update business: %w", err)
	}
	log.Infof("[Business] business %s settings updated", b.ID)
	return b, nil
}

// Owned loads a business the viewer may manage. Admins may manage any business.
func (s *Service) Owned(ctx context.Context, viewerID uint, isAdmin bool, businessID string) (*models.Business, error) {
	b, err := s.businesses.GetByIDWithOwner(businessID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	if b.OwnerID != viewerID && !isAdmin {
		return nil, ErrForbidden
	}
	return b, nil
}

func (s *Service) ListForOwner(ctx context.Context, ownerID uint, tokens entitlements.TokenLookup) ([]models.Business, entitlements.Plan, error) {
	return s.ownerPlan(ctx, ownerID, tokens)
}

// Lookup finds a business by id or by its public slug.
func (s *Service) Lookup(ctx context.Context, idOrSlug string) (*models.Business, error) {
	idOrSlug = strings.TrimSpace(idOrSlug)
	if idOrSlug == "" {
		return nil, ErrNotFound
	}
	b, err := s.businesses.GetByID(idOrSlug)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		b, err = s.businesses.GetBySlug(idOrSlug)
	}
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return b, nil
}
