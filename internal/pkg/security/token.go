package security

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
)

var (
	ErrMissingSecret = errors.New("secret is required")
	ErrInvalidToken  = errors.New("invalid token")
	ErrTokenExpired  = errors.New("token expired")
)

// sign encodes claims as base64(payload).base64(hmac-sha256(payload)).
func sign(claims any, secret string) (string, error) {
	if secret == "" {
		return "", ErrMissingSecret
	}
	payload, err := json.Marshal(claims)
	if err != nil {
		return "", err
	}
	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write(payload)
	sig := mac.Sum(nil)
	return fmt.Sprintf("%s.%s", base64.RawURLEncoding.EncodeToString(payload), base64.RawURLEncoding.EncodeToString(sig)), nil
}

// verify checks the signature and decodes the payload into claims.
func verify(token, secret string, claims any) error {
	if secret == "" {
		return ErrMissingSecret
	}
	parts := strings.SplitN(token, ".", 2)
	if len(parts) != 2 {
		return fmt.Errorf("%w: format", ErrInvalidToken)
	}
	payload, err := base64.RawURLEncoding.DecodeString(parts[0])
	if err != nil {
		return fmt.Errorf("%w: payload encoding", ErrInvalidToken)
	}
	sig, err := base64.RawURLEncoding.DecodeString(parts[1])
	if err != nil {
		return fmt.Errorf("%w: signature encoding", ErrInvalidToken)
	}
	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write(payload)
	if !hmac.Equal(sig, mac.Sum(nil)) {
		return fmt.Errorf("%w: signature", ErrInvalidToken)
	}
	if err := json.Unmarshal(payload, claims); err != nil {
		return fmt.Errorf("%w: payload", ErrInvalidToken)
	}
	return nil
}
