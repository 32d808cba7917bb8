package telemetry

import (
	"errors"

	"github.com/prometheus/client_golang/prometheus"

	"notequiz/internal/domain"
)

// Metrics holds the service counters. Register them on a registry with MustRegister.
type Metrics struct {
	Generations      *prometheus.CounterVec
	GenerationTime   prometheus.Histogram
	SessionsStarted  prometheus.Counter
	SessionsComplete prometheus.Counter
	SessionScore     prometheus.Histogram
}

func NewMetrics() *Metrics {
	return &Metrics{
		Generations: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "notequiz",
			Name:      "generations_total",
			Help:      "Quiz module generations by result.",
		}, []string{"result"}),
		GenerationTime: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: "notequiz",
			Name:      "generation_duration_seconds",
			Help:      "Time spent generating a quiz module.",
			Buckets:   []float64{0.5, 1, 2, 5, 10, 20, 40, 80},
		}),
		SessionsStarted: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "notequiz",
			Name:      "game_sessions_started_total",
			Help:      "Game sessions started.",
		}),
		SessionsComplete: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "notequiz",
			Name:      "game_sessions_completed_total",
			Help:      "Game sessions played to completion.",
		}),
		SessionScore: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: "notequiz",
			Name:      "game_session_score",
			Help:      "Final score of completed sessions.",
			Buckets:   prometheus.LinearBuckets(0, 1500, 11),
		}),
	}
}

// MustRegister registers every collector on reg.
func (m *Metrics) MustRegister(reg prometheus.Registerer) {
	reg.MustRegister(m.Generations, m.GenerationTime, m.SessionsStarted, m.SessionsComplete, m.SessionScore)
}

// ObserveGeneration counts one generation attempt.
func (m *Metrics) ObserveGeneration(seconds float64, err error) {
	m.GenerationTime.Observe(seconds)
	m.Generations.WithLabelValues(GenerationResult(err)).Inc()
}

// ObserveCompletion counts one completed session.
func (m *Metrics) ObserveCompletion(result domain.SessionResult) {
	m.SessionsComplete.Inc()
	m.SessionScore.Observe(float64(result.Score))
}

// GenerationResult is the result label of a generation attempt.
func GenerationResult(err error) string {
	var genErr *domain.GenerationError
	switch {
	case err == nil:
		return "ok"
	case errors.As(err, &genErr):
		return genErr.Stage + "_error"
	case errors.Is(err, domain.ErrInvalidRequest), errors.Is(err, domain.ErrNotLoggedIn):
		return "rejected"
	default:
		return "error"
	}
}
