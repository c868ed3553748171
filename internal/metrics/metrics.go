// Package metrics регистрирует прометеевские счётчики сервиса.
package metrics

import (
	"strconv"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Исходы проверки платежа.
const (
	OutcomeUpgraded = "upgraded"
	OutcomeReplayed = "replayed"
	OutcomeRejected = "rejected"
	OutcomeFailed   = "failed"
)

// Metrics набор счётчиков сервиса.
type Metrics struct {
	ordersCreated *prometheus.CounterVec
	verifications *prometheus.CounterVec
	logins        *prometheus.CounterVec
	rateLimited   *prometheus.CounterVec
}

// New создаёт счётчики и регистрирует их в registry.
func New(registry prometheus.Registerer) *Metrics {
	return &Metrics{
		ordersCreated: promauto.With(registry).NewCounterVec(
			prometheus.CounterOpts{
				Name: "payment_orders_created_total",
				Help: "The total number of created payment orders",
			},
			[]string{"mock"},
		),
		verifications: promauto.With(registry).NewCounterVec(
			prometheus.CounterOpts{
				Name: "payment_verifications_total",
				Help: "The total number of payment verifications by outcome",
			},
			[]string{"outcome"},
		),
		logins: promauto.With(registry).NewCounterVec(
			prometheus.CounterOpts{
				Name: "auth_logins_total",
				Help: "The total number of login attempts by result",
			},
			[]string{"result"},
		),
		rateLimited: promauto.With(registry).NewCounterVec(
			prometheus.CounterOpts{
				Name: "http_rate_limited_total",
				Help: "The total number of requests rejected by the rate limiter",
			},
			[]string{"route"},
		),
	}
}

// OrderCreated учитывает созданный заказ.
func (m *Metrics) OrderCreated(mock bool) {
	m.ordersCreated.WithLabelValues(strconv.FormatBool(mock)).Inc()
}

// Verification учитывает исход проверки платежа.
func (m *Metrics) Verification(outcome string) {
	m.verifications.WithLabelValues(outcome).Inc()
}

// Login учитывает попытку входа.
func (m *Metrics) Login(success bool) {
	result := "failure"
	if success {
		result = "success"
	}
	m.logins.WithLabelValues(result).Inc()
}

// RateLimited учитывает отклонённый ограничителем запрос.
func (m *Metrics) RateLimited(route string) {
	m.rateLimited.WithLabelValues(route).Inc()
}
