package config

import (
	"strings"
	"time"

	"github.com/ManuelReschke/ReviewBoost/internal/pkg/env"
	"github.com/ManuelReschke/ReviewBoost/internal/pkg/mail"
)

// Config groups the typed settings read from the environment at boot.
type Config struct {
	App       AppConfig
	Stripe    StripeConfig
	Gemini    GeminiConfig
	SMTP      mail.SMTPConfig
	Secrets   SecretsConfig
	Metrics   MetricsConfig
	Marketing MarketingConfig
	HCaptcha  string
}

type AppConfig struct {
	Name    string
	Host    string
	Port    string
	BaseURL string
	Env     string
}

func (a AppConfig) Addr() string {
	return a.Host + ":" + a.Port
}

func (a AppConfig) DashboardURL() string {
	return a.BaseURL + "/dashboard"
}

type StripeConfig struct {
	SecretKey     string
	WebhookSecret string
	PriceID       string
	UnitAmount    int64
	Currency      string
	ProductName   string
}

func (s StripeConfig) IsConfigured() bool {
	return s.SecretKey != ""
}

type GeminiConfig struct {
	APIKey   string
	BaseURL  string
	Model    string
	Language string
	Timeout  time.Duration
	CacheTTL time.Duration
}

type SecretsConfig struct {
	CheckoutToken    string
	CheckoutTokenTTL time.Duration
	Unsubscribe      string
}

type MetricsConfig struct {
	User     string
	Password string
}

type MarketingConfig struct {
	From        string
	Concurrency int
}

// Load reads the configuration. env.SetupEnvFile must have run before.
func Load() Config {
	return Config{
		App: AppConfig{
			Name:    env.GetEnv("APP_NAME", "ReviewBoost"),
			Host:    env.GetEnv("APP_HOST", "0.0.0.0"),
			Port:    env.GetEnv("APP_PORT", "4000"),
			BaseURL: strings.TrimRight(env.GetEnv("PUBLIC_DOMAIN", "http://localhost:4000"), "/"),
			Env:     env.GetEnv("APP_ENV", "prod"),
		},
		Stripe: StripeConfig{
			SecretKey:     env.GetEnv("STRIPE_SECRET_KEY", ""),
			WebhookSecret: env.GetEnv("STRIPE_WEBHOOK_SECRET", ""),
			PriceID:       env.GetEnv("STRIPE_PRICE_ID", ""),
			UnitAmount:    int64(env.GetInt("STRIPE_UNIT_AMOUNT", 999)),
			Currency:      env.GetEnv("STRIPE_CURRENCY", "usd"),
			ProductName:   env.GetEnv("STRIPE_PRODUCT_NAME", "Review Boost Pro"),
		},
		Gemini: GeminiConfig{
			APIKey:   env.GetEnv("GEMINI_API_KEY", ""),
			BaseURL:  env.GetEnv("GEMINI_BASE_URL", "https://generativelanguage.googleapis.com/v1beta"),
			Model:    env.GetEnv("GEMINI_MODEL", "gemini-1.5-flash"),
			Language: env.GetEnv("AI_REVIEW_LANGUAGE", "it"),
			Timeout:  env.GetDuration("AI_REVIEW_TIMEOUT", 4*time.Second),
			CacheTTL: env.GetDuration("AI_REVIEW_CACHE_TTL", 10*time.Minute),
		},
		SMTP: mail.SMTPConfig{
			Host:     env.GetEnv("SMTP_HOST", ""),
			Port:     env.GetEnv("SMTP_PORT", ""),
			Username: env.GetEnv("SMTP_USERNAME", ""),
			Password: env.GetEnv("SMTP_PASSWORD", ""),
			From:     env.GetEnv("SMTP_SENDER", ""),
		},
		Secrets: SecretsConfig{
			CheckoutToken:    env.GetEnv("CHECKOUT_TOKEN_SECRET", ""),
			CheckoutTokenTTL: env.GetDuration("CHECKOUT_TOKEN_TTL", 30*time.Minute),
			Unsubscribe:      env.GetEnv("UNSUBSCRIBE_TOKEN_SECRET", ""),
		},
		Metrics: MetricsConfig{
			User:     env.GetEnv("METRICS_USER", ""),
			Password: env.GetEnv("METRICS_PASSWORD", ""),
		},
		Marketing: MarketingConfig{
			From:        env.GetEnv("MARKETING_SENDER", ""),
			Concurrency: env.GetInt("MARKETING_CONCURRENCY", 5),
		},
		HCaptcha: env.GetEnv("HCAPTCHA_SECRET", ""),
	}
}
