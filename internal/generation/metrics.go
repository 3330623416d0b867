package generation

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/push"
)

const metricsJobName = "chatfic_generation"

// Metrics - счетчики клиента генерации в собственном реестре (не в prometheus.DefaultRegistry).
type Metrics struct {
	registry     *prometheus.Registry
	attempts     *prometheus.CounterVec
	outcomes     *prometheus.CounterVec
	duration     *prometheus.HistogramVec
	promptTokens *prometheus.HistogramVec
}

// NewMetrics регистрирует метрики в новом реестре.
func NewMetrics() *Metrics {
	registry := prometheus.NewRegistry()
	factory := promauto.With(registry)
	return &Metrics{
		registry: registry,
		attempts: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "chatfic_generation_attempts_total",
				Help: "Total number of generation API attempts.",
			},
			[]string{"model", "status"},
		),
		outcomes: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "chatfic_generation_outcomes_total",
				Help: "Total number of generation calls by final outcome.",
			},
			[]string{"model", "outcome"},
		),
		duration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "chatfic_generation_request_duration_seconds",
				Help:    "Histogram of single generation API request durations.",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"model"},
		),
		promptTokens: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "chatfic_generation_prompt_tokens",
				Help:    "Histogram of prompt token counts (reported or estimated).",
				Buckets: prometheus.LinearBuckets(250, 250, 20), // 250, 500, ..., 5000
			},
			[]string{"model"},
		),
	}
}

// Registry возвращает реестр для тестов и отправки.
func (m *Metrics) Registry() *prometheus.Registry { return m.registry }

func (m *Metrics) observeAttempt(model, status string, elapsed time.Duration) {
	if m == nil {
		return
	}
	m.attempts.With(prometheus.Labels{"model": model, "status": status}).Inc()
	m.duration.With(prometheus.Labels{"model": model}).Observe(elapsed.Seconds())
}

func (m *Metrics) observeOutcome(model string, outcome Outcome) {
	if m == nil {
		return
	}
	m.outcomes.With(prometheus.Labels{"model": model, "outcome": outcome.String()}).Inc()
}

func (m *Metrics) observePromptTokens(model string, tokens int) {
	if m == nil || tokens <= 0 {
		return
	}
	m.promptTokens.With(prometheus.Labels{"model": model}).Observe(float64(tokens))
}

// Push отправляет текущие значения в Pushgateway. Порт не открывается.
func (m *Metrics) Push(ctx context.Context, pushgatewayURL string) error {
	if m == nil || pushgatewayURL == "" {
		return nil
	}
	hostname, err := os.Hostname()
	if err != nil {
		hostname = "unknown"
	}
	instanceID := fmt.Sprintf("%s-%d", hostname, os.Getpid())

	pusher := push.New(pushgatewayURL, metricsJobName).
		Gatherer(m.registry).
		Grouping("instance", instanceID)
	if err := pusher.PushContext(ctx); err != nil {
		return fmt.Errorf("failed to push metrics to %s: %w", pushgatewayURL, err)
	}
	return nil
}
