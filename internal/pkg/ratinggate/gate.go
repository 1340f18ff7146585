package ratinggate

import (
	"errors"
	"fmt"
	"time"

	"github.com/ManuelReschke/ReviewBoost/internal/pkg/reviewpolicy"
)

const (
	MinRating = 1
	MaxRating = 5
	// PrivateThreshold is the highest rating that stays private.
	PrivateThreshold = 3

	RedirectDelay = 2 * time.Second
)

var ErrInvalidRating = errors.New("rating must be an integer between 1 and 5")

type ActionKind string

const (
	ActionCapturePrivateFeedback ActionKind = "capture_private_feedback"
	ActionCompleteSilently       ActionKind = "complete_silently"
	ActionAIAssistFlow           ActionKind = "ai_assist_flow"
	ActionAutoRedirect           ActionKind = "auto_redirect"
)

// Action is the next step of the customer flow after a rating was given.
// Destination is only set for ActionAIAssistFlow and ActionAutoRedirect,
// Delay only for ActionAutoRedirect.
type Action struct {
	Kind        ActionKind
	Destination string
	Delay       time.Duration
}

func ValidateRating(rating int) error {
	if rating < MinRating || rating > MaxRating {
		return fmt.Errorf("%w: got %d", ErrInvalidRating, rating)
	}
	return nil
}

// IsPrivate reports whether a valid rating is captured as private feedback.
func IsPrivate(rating int) bool {
	return rating >= MinRating && rating <= PrivateThreshold
}

// Decide maps a rating to the next step of the flow. It performs no I/O.
func Decide(rating int, policy reviewpolicy.Policy, entitled bool) (Action, error) {
	if err := ValidateRating(rating); err != nil {
		return Action{}, err
	}

	if IsPrivate(rating) {
		return Action{Kind: ActionCapturePrivateFeedback}, nil
	}

	destination := policy.Destination()
	if destination == "" {
		return Action{Kind: ActionCompleteSilently}, nil
	}

	if entitled {
		return Action{Kind: ActionAIAssistFlow, Destination: destination}, nil
	}
	return Action{Kind: ActionAutoRedirect, Destination: destination, Delay: RedirectDelay}, nil
}

// CheckPolicy surfaces a misconfigured policy before customers reach the page.
func CheckPolicy(policy reviewpolicy.Policy) error {
	return policy.Validate()
}
