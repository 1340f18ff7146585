package reviewpolicy

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const (
	mapsURL       = "https://maps.google.com/?cid=1"
	trustpilotURL = "https://www.trustpilot.com/review/example.com"
)

func TestValidate(t *testing.T) {
	tests := []struct {
		name       string
		platform   Platform
		maps       string
		trustpilot string
		want       error
	}{
		{"maps ok", PlatformGoogleMaps, mapsURL, "", nil},
		{"maps missing", PlatformGoogleMaps, "", trustpilotURL, ErrMissingGoogleMapsLink},
		{"maps whitespace only", PlatformGoogleMaps, "   ", "", ErrMissingGoogleMapsLink},
		{"trustpilot ok", PlatformTrustpilot, "", trustpilotURL, nil},
		{"trustpilot missing", PlatformTrustpilot, mapsURL, "", ErrMissingTrustpilotLink},
		{"both ok", PlatformBoth, mapsURL, trustpilotURL, nil},
		{"both missing", PlatformBoth, "", "", ErrMissingBothLinks},
		{"both missing maps", PlatformBoth, "", trustpilotURL, ErrMissingGoogleMapsLink},
		{"both missing trustpilot", PlatformBoth, mapsURL, "", ErrMissingTrustpilotLink},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := Validate(tt.platform, tt.maps, tt.trustpilot)
			if tt.want == nil {
				assert.NoError(t, err)
				return
			}
			assert.ErrorIs(t, err, tt.want)
			assert.ErrorIs(t, err, ErrPolicyMisconfigured)
		})
	}
}

func TestValidateUnknownPlatform(t *testing.T) {
	err := Validate(Platform("yelp"), mapsURL, trustpilotURL)
	assert.ErrorIs(t, err, ErrUnknownPlatform)
	assert.False(t, errors.Is(err, ErrPolicyMisconfigured))
}

func TestValidateForPlan(t *testing.T) {
	t.Run("both without entitlement is a plan restriction even with links", func(t *testing.T) {
		assert.ErrorIs(t, ValidateForPlan(PlatformBoth, mapsURL, trustpilotURL, false), ErrPlanRestriction)
	})
	t.Run("plan restriction comes before link checks", func(t *testing.T) {
		assert.ErrorIs(t, ValidateForPlan(PlatformBoth, "", "", false), ErrPlanRestriction)
	})
	t.Run("entitled both falls through to link validation", func(t *testing.T) {
		assert.ErrorIs(t, ValidateForPlan(PlatformBoth, "", trustpilotURL, true), ErrMissingGoogleMapsLink)
		assert.NoError(t, ValidateForPlan(PlatformBoth, mapsURL, trustpilotURL, true))
	})
	t.Run("single platforms ignore entitlement", func(t *testing.T) {
		assert.NoError(t, ValidateForPlan(PlatformTrustpilot, "", trustpilotURL, false))
	})
}

func TestResolveDestination(t *testing.T) {
	assert.Equal(t, mapsURL, ResolveDestination(PlatformGoogleMaps, mapsURL, trustpilotURL))
	assert.Equal(t, trustpilotURL, ResolveDestination(PlatformTrustpilot, mapsURL, trustpilotURL))
	assert.Equal(t, mapsURL, ResolveDestination(PlatformBoth, mapsURL, trustpilotURL))
	assert.Equal(t, "", ResolveDestination(PlatformTrustpilot, mapsURL, ""))
	assert.Equal(t, "", ResolveDestination(Platform("other"), mapsURL, trustpilotURL))
}

func TestParsePlatform(t *testing.T) {
	p, err := ParsePlatform("  Trustpilot ")
	require.NoError(t, err)
	assert.Equal(t, PlatformTrustpilot, p)

	_, err = ParsePlatform("facebook")
	assert.ErrorIs(t, err, ErrUnknownPlatform)
}

func TestPolicyMethods(t *testing.T) {
	p := Policy{Platform: PlatformBoth, GoogleMapsLink: mapsURL, TrustpilotLink: trustpilotURL}
	assert.NoError(t, p.Validate())
	assert.ErrorIs(t, p.ValidateForPlan(false), ErrPlanRestriction)
	assert.Equal(t, mapsURL, p.Destination())
}
