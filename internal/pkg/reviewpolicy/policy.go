package reviewpolicy

import (
	"errors"
	"fmt"
	"strings"
)

// Platform is the public review platform a business routes happy customers to.
type Platform string

const (
	PlatformGoogleMaps Platform = "google_maps"
	PlatformTrustpilot Platform = "trustpilot"
	PlatformBoth       Platform = "both"
)

var (
	ErrPolicyMisconfigured   = errors.New("review policy misconfigured")
	ErrMissingGoogleMapsLink = fmt.Errorf("%w: google maps link is required", ErrPolicyMisconfigured)
	ErrMissingTrustpilotLink = fmt.Errorf("%w: trustpilot link is required", ErrPolicyMisconfigured)
	ErrMissingBothLinks      = fmt.Errorf("%w: google maps and trustpilot links are required", ErrPolicyMisconfigured)

	ErrPlanRestriction = errors.New("using both platforms requires the pro plan")
	ErrUnknownPlatform = errors.New("unknown review platform")
)

// Platforms lists every supported platform in display order.
func Platforms() []Platform {
	return []Platform{PlatformGoogleMaps, PlatformTrustpilot, PlatformBoth}
}

// ParsePlatform normalizes user input into a known platform.
func ParsePlatform(raw string) (Platform, error) {
	p := Platform(strings.ToLower(strings.TrimSpace(raw)))
	switch p {
	case PlatformGoogleMaps, PlatformTrustpilot, PlatformBoth:
		return p, nil
	default:
		return "", fmt.Errorf("%w: %q", ErrUnknownPlatform, raw)
	}
}

// Policy is the review routing configuration of a single business.
type Policy struct {
	Platform       Platform
	GoogleMapsLink string
	TrustpilotLink string
}

func (p Policy) Validate() error {
	return Validate(p.Platform, p.GoogleMapsLink, p.TrustpilotLink)
}

func (p Policy) ValidateForPlan(entitled bool) error {
	return ValidateForPlan(p.Platform, p.GoogleMapsLink, p.TrustpilotLink, entitled)
}

func (p Policy) Destination() string {
	return ResolveDestination(p.Platform, p.GoogleMapsLink, p.TrustpilotLink)
}

// Validate checks that the links required by the platform are present.
func Validate(platform Platform, mapsLink, trustpilotLink string) error {
	hasMaps := strings.TrimSpace(mapsLink) != ""
	hasTrustpilot := strings.TrimSpace(trustpilotLink) != ""

	switch platform {
	case PlatformGoogleMaps:
		if !hasMaps {
			return ErrMissingGoogleMapsLink
		}
	case PlatformTrustpilot:
		if !hasTrustpilot {
			return ErrMissingTrustpilotLink
		}
	case PlatformBoth:
		switch {
		case !hasMaps && !hasTrustpilot:
			return ErrMissingBothLinks
		case !hasMaps:
			return ErrMissingGoogleMapsLink
		case !hasTrustpilot:
			return ErrMissingTrustpilotLink
		}
	default:
		return fmt.Errorf("%w: %q", ErrUnknownPlatform, string(platform))
	}
	return nil
}

// ValidateForPlan rejects the both option for non-entitled businesses before
// looking at the links at all.
func ValidateForPlan(platform Platform, mapsLink, trustpilotLink string, entitled bool) error {
	if platform == PlatformBoth && !entitled {
		return ErrPlanRestriction
	}
	return Validate(platform, mapsLink, trustpilotLink)
}

// ResolveDestination returns the public review link for the platform.
// With both platforms configured the Google Maps link wins.
func ResolveDestination(platform Platform, mapsLink, trustpilotLink string) string {
	switch platform {
	case PlatformGoogleMaps, PlatformBoth:
		return strings.TrimSpace(mapsLink)
	case PlatformTrustpilot:
		return strings.TrimSpace(trustpilotLink)
	default:
		return ""
	}
}
