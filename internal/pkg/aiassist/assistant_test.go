package aiassist

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type stubGenerator struct {
	text  string
	err   error
	delay time.Duration
	calls int
}

func (s *stubGenerator) Generate(ctx context.Context, _ string) (string, error) {
	s.calls++
	if s.delay > 0 {
		select {
		case <-time.After(s.delay):
		case <-ctx.Done():
			return "", ctx.Err()
		}
	}
	return s.text, s.err
}

type mapCache struct {
	mu   sync.Mutex
	data map[string]string
}

func (m *mapCache) Get(_ context.Context, key string) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	v, ok := m.data[key]
	if !ok {
		return "", errors.New("miss")
	}
	return v, nil
}

func (m *mapCache) Set(_ context.Context, key, value string, _ time.Duration) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.data == nil {
		m.data = map[string]string{}
	}
	m.data[key] = value
	return nil
}

func TestSuggestGenerated(t *testing.T) {
	gen := &stubGenerator{text: "Ottimo caffè! ☕😍"}
	a := NewAssistant(gen, nil, Options{})

	s := a.Suggest(context.Background(), "Bar Roma")
	assert.True(t, s.Generated)
	assert.Equal(t, "Ottimo caffè! ☕😍", s.Text)
}

func TestSuggestFallsBackOnError(t *testing.T) {
	gen := &stubGenerator{err: errors.New("quota exceeded")}
	a := NewAssistant(gen, nil, Options{Language: "it"})

	s := a.Suggest(context.Background(), "Bar Roma")
	assert.False(t, s.Generated)
	assert.Equal(t, FallbackText("Bar Roma", "it"), s.Text)
	assert.Contains(t, s.Text, "Bar Roma")
}

func TestSuggestFallsBackOnEmptyText(t *testing.T) {
	a := NewAssistant(&stubGenerator{text: "   "}, nil, Options{Language: "en"})

	s := a.Suggest(context.Background(), "Corner Shop")
	assert.False(t, s.Generated)
	assert.Equal(t, FallbackText("Corner Shop", "en"), s.Text)
}

func TestSuggestFallsBackOnTimeout(t *testing.T) {
	gen := &stubGenerator{text: "late", delay: time.Second}
	a := NewAssistant(gen, nil, Options{Timeout: 20 * time.Millisecond})

	start := time.Now()
	s := a.Suggest(context.Background(), "Bar Roma")
	assert.False(t, s.Generated)
	assert.Less(t, time.Since(start), 500*time.Millisecond)
}

func TestSuggestWithoutGenerator(t *testing.T) {
	a := NewAssistant(nil, nil, Options{})
	s := a.Suggest(context.Background(), "Bar Roma")
	assert.False(t, s.Generated)
	assert.NotEmpty(t, s.Text)
}

func TestSuggestUsesCache(t *testing.T) {
	gen := &stubGenerator{text: "Bellissimo! 🎉"}
	cache := &mapCache{}
	a := NewAssistant(gen, cache, Options{})

	first := a.Suggest(context.Background(), "Bar Roma")
	second := a.Suggest(context.Background(), "bar roma ")
	require.True(t, first.Generated)
	assert.Equal(t, first, second)
	assert.Equal(t, 1, gen.calls)
}

func TestPromptLanguages(t *testing.T) {
	assert.Contains(t, Prompt("Bar Roma", "it"), "Italiano")
	assert.Contains(t, Prompt("Bar Roma", "en"), "English")
	assert.Equal(t, Prompt("Bar Roma", "it"), Prompt("Bar Roma", "klingon"))
	assert.Contains(t, Prompt("Bar Roma", "it"), "Non usare hashtag")
}
