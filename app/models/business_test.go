package models

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestBusinessValidate(t *testing.T) {
	b := &Business{
		Name:           "Pizzeria Roma",
		ReviewPlatform: "google_maps",
		GoogleMapsLink: "https://maps.google.com/?cid=1",
		Owner:          &User{},
	}
	assert.NoError(t, b.Validate())

	b.ReviewPlatform = "yelp"
	assert.Error(t, b.Validate())

	b.ReviewPlatform = "trustpilot"
	b.TrustpilotLink = "not a url"
	assert.Error(t, b.Validate())
}

func TestBusinessPublic(t *testing.T) {
	b := &Business{
		ID:             "b-1",
		Slug:           "abcd1234",
		Name:           "Pizzeria Roma",
		ReviewPlatform: "both",
		GoogleMapsLink: "https://maps.google.com/?cid=1",
		TrustpilotLink: "https://www.trustpilot.com/review/example.com",
	}
	pub := b.Public()
	assert.Equal(t, "b-1", pub.ID)
	assert.Equal(t, "abcd1234", pub.Slug)
	assert.True(t, pub.AcceptingReviews)

	b.TrustpilotLink = ""
	assert.False(t, b.Public().AcceptingReviews)

	b.ReviewPlatform = "Google_Maps"
	assert.True(t, b.Public().AcceptingReviews)
}
