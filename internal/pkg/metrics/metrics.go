package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// GateDecisionsTotal counts rating gate decisions by action.
	GateDecisionsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "reviewboost",
		Name:      "gate_decisions_total",
		Help:      "Rating gate decisions by resulting action.",
	}, []string{"action"})

	// FeedbackSubmissionsTotal counts private feedback submissions by outcome.
	FeedbackSubmissionsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "reviewboost",
		Name:      "feedback_submissions_total",
		Help:      "Private feedback submissions by outcome.",
	}, []string{"outcome"})

	// NotificationsTotal counts outgoing emails by kind and result.
	NotificationsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "reviewboost",
		Name:      "notifications_total",
		Help:      "Outgoing emails by kind (feedback, welcome, marketing) and result.",
	}, []string{"kind", "result"})

	// AISuggestionsTotal counts review suggestions by source.
	AISuggestionsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "reviewboost",
		Name:      "ai_suggestions_total",
		Help:      "Review text suggestions by source (generated, cached, fallback).",
	}, []string{"source"})

	// AIGenerationDuration tracks latency of the text generation backend.
	AIGenerationDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: "reviewboost",
		Name:      "ai_generation_duration_seconds",
		Help:      "Review text generation duration in seconds.",
		Buckets:   prometheus.DefBuckets,
	}, []string{"result"})

	// WebhookEventsTotal counts Stripe webhook events by type and outcome.
	WebhookEventsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "reviewboost",
		Name:      "webhook_events_total",
		Help:      "Stripe webhook events by event type and outcome.",
	}, []string{"event_type", "outcome"})
)
