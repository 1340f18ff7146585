package aiassist

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/go-resty/resty/v2"
)

var ErrGenerationUnavailable = errors.New("review text generation unavailable")

// Generator writes a short positive review draft for a business.
type Generator interface {
	Generate(ctx context.Context, businessName string) (string, error)
}

type GeminiConfig struct {
	APIKey   string
	BaseURL  string
	Model    string
	Language string
}

// GeminiGenerator calls the Gemini generateContent REST endpoint.
type GeminiGenerator struct {
	httpClient *resty.Client
	apiKey     string
	model      string
	language   string
}

type geminiPart struct {
	Text string `json:"text"`
}

type geminiContent struct {
	Role  string       `json:"role,omitempty"`
	Parts []geminiPart `json:"parts"`
}

type geminiGenerationConfig struct {
	Temperature     float64 `json:"temperature"`
	MaxOutputTokens int     `json:"maxOutputTokens"`
}

type geminiRequest struct {
	Contents         []geminiContent        `json:"contents"`
	GenerationConfig geminiGenerationConfig `json:"generationConfig"`
}

type geminiResponse struct {
	Candidates []struct {
		Content      geminiContent `json:"content"`
		FinishReason string        `json:"finishReason"`
	} `json:"candidates"`
	Error *struct {
		Code    int    `json:"code"`
		Message string `json:"message"`
	} `json:"error,omitempty"`
}

func NewGeminiGenerator(cfg GeminiConfig) *GeminiGenerator {
	if cfg.BaseURL == "" {
		cfg.BaseURL = "https://generativelanguage.googleapis.com/v1beta"
	}
	if cfg.Model == "" {
		cfg.Model = "gemini-1.5-flash"
	}
	client := resty.New().
		SetBaseURL(strings.TrimRight(cfg.BaseURL, "/")).
		SetTimeout(10*time.Second).
		SetRetryCount(1).
		SetRetryWaitTime(200*time.Millisecond).
		SetHeader("Content-Type", "application/json").
		SetHeader("Accept", "application/json")

	return &GeminiGenerator{
		httpClient: client,
		apiKey:     cfg.APIKey,
		model:      cfg.Model,
		language:   cfg.Language,
	}
}

func (g *GeminiGenerator) Generate(ctx context.Context, businessName string) (string, error) {
	if g.apiKey == "" {
		return "", fmt.Errorf("%w: api key missing", ErrGenerationUnavailable)
	}

	req := geminiRequest{
		Contents: []geminiContent{{Role: "user", Parts: []geminiPart{{Text: Prompt(businessName, g.language)}}}},
		GenerationConfig: geminiGenerationConfig{
			Temperature:     0.9,
			MaxOutputTokens: 200,
		},
	}

	var out geminiResponse
	resp, err := g.httpClient.R().
		SetContext(ctx).
		SetQueryParam("key", g.apiKey).
		SetBody(req).
		SetResult(&out).
		SetError(&out).
		Post(fmt.Sprintf("/models/%s:generateContent", g.model))
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrGenerationUnavailable, err)
	}
	if resp.IsError() {
		msg := resp.Status()
		if out.Error != nil {
			msg = out.Error.Message
		}
		return "", fmt.Errorf("%w: status %d: %s", ErrGenerationUnavailable, resp.StatusCode(), msg)
	}

	for _, c := range out.Candidates {
		var b strings.Builder
		for _, p := range c.Content.Parts {
			b.WriteString(p.Text)
		}
		if text := cleanText(b.String()); text != "" {
			return text, nil
		}
	}
	return "", fmt.Errorf("%w: empty response", ErrGenerationUnavailable)
}

func cleanText(s string) string {
	s = strings.TrimSpace(s)
	return strings.Trim(s, "\"“”")
}
