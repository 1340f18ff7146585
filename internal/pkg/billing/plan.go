package billing

import (
	"strings"

	"github.com/ManuelReschke/ReviewBoost/app/models"
)

// isEntitlingStatus reports whether a Stripe subscription status keeps Pro active.
func isEntitlingStatus(status string) bool {
	switch normalizeStatus(status) {
	case models.BillingStatusActive, models.BillingStatusTrialing:
		return true
	default:
		return false
	}
}

func normalizeStatus(status string) string {
	return strings.ToLower(strings.TrimSpace(status))
}

// isPendingStatus reports a subscription that is still waiting for its first
// payment to settle.
func isPendingStatus(status string) bool {
	return normalizeStatus(status) == models.BillingStatusIncomplete
}
