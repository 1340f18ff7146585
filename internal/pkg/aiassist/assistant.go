package aiassist

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"strings"
	"time"

	"github.com/gofiber/fiber/v2/log"

	"github.com/ManuelReschke/ReviewBoost/internal/pkg/metrics"
)

const (
	DefaultTimeout  = 4 * time.Second
	DefaultCacheTTL = 10 * time.Minute
)

// Cache stores generated drafts between requests.
type Cache interface {
	Get(ctx context.Context, key string) (string, error)
	Set(ctx context.Context, key, value string, ttl time.Duration) error
}

// Suggestion is a review draft. Generated is false for the static fallback.
type Suggestion struct {
	Text      string `json:"text"`
	Generated bool   `json:"generated"`
}

type Options struct {
	Language string
	Timeout  time.Duration
	CacheTTL time.Duration
}

// Assistant produces review drafts and never fails: any generation error
// degrades to FallbackText.
type Assistant struct {
	gen   Generator
	cache Cache
	opts  Options
}

func NewAssistant(gen Generator, cache Cache, opts Options) *Assistant {
	if opts.Timeout <= 0 {
		opts.Timeout = DefaultTimeout
	}
	if opts.CacheTTL <= 0 {
		opts.CacheTTL = DefaultCacheTTL
	}
	opts.Language = normalizeLanguage(opts.Language)
	return &Assistant{gen: gen, cache: cache, opts: opts}
}

func (a *Assistant) Suggest(ctx context.Context, businessName string) Suggestion {
	key := cacheKey(businessName, a.opts.Language)

	if a.cache != nil {
		if text, err := a.cache.Get(ctx, key); err == nil && text != "" {
			metrics.AISuggestionsTotal.WithLabelValues("cached").Inc()
			return Suggestion{Text: text, Generated: true}
		}
	}

	if a.gen != nil {
		genCtx, cancel := context.WithTimeout(ctx, a.opts.Timeout)
		start := time.Now()
		text, err := a.gen.Generate(genCtx, businessName)
		cancel()

		if err == nil && strings.TrimSpace(text) != "" {
			metrics.AIGenerationDuration.WithLabelValues("ok").Observe(time.Since(start).Seconds())
			metrics.AISuggestionsTotal.WithLabelValues("generated").Inc()
			if a.cache != nil {
				if cerr := a.cache.Set(ctx, key, text, a.opts.CacheTTL); cerr != nil {
					log.Warnf("[AIAssist] cache write failed: %v", cerr)
				}
			}
			return Suggestion{Text: text, Generated: true}
		}

		metrics.AIGenerationDuration.WithLabelValues("error").Observe(time.Since(start).Seconds())
		if err == nil || !errors.Is(err, ErrGenerationUnavailable) {
			err = errors.Join(ErrGenerationUnavailable, err)
		}
		log.Warnf("[AIAssist] generation for %q failed, using fallback: %v", businessName, err)
	}

	metrics.AISuggestionsTotal.WithLabelValues("fallback").Inc()
	return Suggestion{Text: FallbackText(businessName, a.opts.Language), Generated: false}
}

func cacheKey(businessName, lang string) string {
	sum := sha256.Sum256([]byte(strings.ToLower(strings.TrimSpace(businessName))))
	return "aiassist:" + lang + ":" + hex.EncodeToString(sum[:8])
}
