package security

import (
	"fmt"
	"time"
)

const DefaultCheckoutTokenTTL = 30 * time.Minute

// CheckoutTokenClaims proves that Stripe reported a completed checkout
// session for the business.
type CheckoutTokenClaims struct {
	BusinessID string `json:"business_id"`
	SessionID  string `json:"session_id"`
	ExpiresAt  int64  `json:"exp"`
}

func GenerateCheckoutToken(businessID, sessionID string, ttl time.Duration, secret string) (string, error) {
	if businessID == "" {
		return "", fmt.Errorf("%w: business id is empty", ErrInvalidToken)
	}
	if ttl <= 0 {
		ttl = DefaultCheckoutTokenTTL
	}
	return sign(CheckoutTokenClaims{
		BusinessID: businessID,
		SessionID:  sessionID,
		ExpiresAt:  time.Now().Add(ttl).Unix(),
	}, secret)
}

func VerifyCheckoutToken(token, secret string) (*CheckoutTokenClaims, error) {
	var claims CheckoutTokenClaims
	if err := verify(token, secret, &claims); err != nil {
		return nil, err
	}
	if time.Now().Unix() > claims.ExpiresAt {
		return nil, ErrTokenExpired
	}
	return &claims, nil
}

// CheckoutTokens verifies checkout tokens with a fixed secret.
type CheckoutTokens struct {
	Secret string
	TTL    time.Duration
}

func (c CheckoutTokens) Issue(businessID, sessionID string) (string, error) {
	return GenerateCheckoutToken(businessID, sessionID, c.TTL, c.Secret)
}

// VerifyCheckout reports whether token is valid and bound to businessID.
func (c CheckoutTokens) VerifyCheckout(token, businessID string) bool {
	claims, err := VerifyCheckoutToken(token, c.Secret)
	if err != nil {
		return false
	}
	return claims.BusinessID == businessID
}
