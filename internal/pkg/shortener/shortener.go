package shortener

import (
	"crypto/rand"
	"errors"
	"fmt"
)

// Base62 alphabet: 0-9, a-z, A-Z
const alphabet = "0123456789abcdefghijklmnopqrstuvwxyzABCDEFGHIJKLMNOPQRSTUVWXYZ"

const (
	// BusinessSlugLength is the length of the public /r/:slug links printed on QR codes.
	BusinessSlugLength = 8

	maxSlugAttempts = 5
)

var ErrSlugExhausted = errors.New("could not find a free slug")

// GenerateSecureSlug creates a cryptographically secure random Base62 slug.
func GenerateSecureSlug(length int) (string, error) {
	if length <= 0 {
		return "", fmt.Errorf("invalid slug length: %d", length)
	}

	// Rejection sampling to avoid modulo bias.
	// 248 is the largest multiple of 62 below 256.
	const maxRandomByte = 248

	slug := make([]byte, length)
	buf := make([]byte, length*2)
	written := 0

	for written < length {
		if _, err := rand.Read(buf); err != nil {
			return "", fmt.Errorf("failed to read secure random bytes: %w", err)
		}

		for _, b := range buf {
			if b >= maxRandomByte {
				continue
			}
			slug[written] = alphabet[int(b)%len(alphabet)]
			written++
			if written == length {
				break
			}
		}
	}

	return string(slug), nil
}

// UniqueSlug generates slugs until exists reports a free one.
func UniqueSlug(length int, exists func(slug string) (bool, error)) (string, error) {
	for attempt := 0; attempt < maxSlugAttempts; attempt++ {
		slug, err := GenerateSecureSlug(length)
		if err != nil {
			return "", err
		}
		taken, err := exists(slug)
		if err != nil {
			return "", err
		}
		if !taken {
			return slug, nil
		}
	}
	return "", ErrSlugExhausted
}
