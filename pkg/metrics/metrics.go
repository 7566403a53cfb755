package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// PaymentMetrics records checkout and reconciliation outcomes.
type PaymentMetrics struct {
	registry        *prometheus.Registry
	checkouts       *prometheus.CounterVec
	webhookEvents   *prometheus.CounterVec
	stockDecrements *prometheus.CounterVec
	emails          *prometheus.CounterVec
}

// NewPaymentMetrics registers the payment pipeline metrics on a fresh registry.
func NewPaymentMetrics() *PaymentMetrics {
	registry := prometheus.NewRegistry()

	checkouts := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "checkout_sessions_total",
		Help: "Checkout session attempts by outcome.",
	}, []string{"outcome"})
	webhookEvents := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "webhook_events_total",
		Help: "Stripe webhook events by type and outcome.",
	}, []string{"type", "outcome"})
	stockDecrements := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "stock_decrements_total",
		Help: "Post-payment stock decrements by outcome.",
	}, []string{"outcome"})
	emails := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "confirmation_emails_total",
		Help: "Order confirmation email dispatches by outcome.",
	}, []string{"outcome"})

	registry.MustRegister(checkouts, webhookEvents, stockDecrements, emails)

	return &PaymentMetrics{
		registry:        registry,
		checkouts:       checkouts,
		webhookEvents:   webhookEvents,
		stockDecrements: stockDecrements,
		emails:          emails,
	}
}

// Handler exposes the registry for scraping.
func (p *PaymentMetrics) Handler() http.Handler {
	if p == nil || p.registry == nil {
		return promhttp.Handler()
	}
	return promhttp.HandlerFor(p.registry, promhttp.HandlerOpts{})
}

// IncCheckout increments the checkout counter for the given outcome.
func (p *PaymentMetrics) IncCheckout(outcome string) {
	if p == nil || p.checkouts == nil {
		return
	}
	p.checkouts.WithLabelValues(normalizeLabel(outcome)).Inc()
}

// IncWebhookEvent increments the webhook counter for the given event type/outcome.
func (p *PaymentMetrics) IncWebhookEvent(eventType, outcome string) {
	if p == nil || p.webhookEvents == nil {
		return
	}
	p.webhookEvents.WithLabelValues(normalizeLabel(eventType), normalizeLabel(outcome)).Inc()
}

// IncStockDecrement increments the stock decrement counter for the given outcome.
func (p *PaymentMetrics) IncStockDecrement(outcome string) {
	if p == nil || p.stockDecrements == nil {
		return
	}
	p.stockDecrements.WithLabelValues(normalizeLabel(outcome)).Inc()
}

// IncEmail increments the confirmation email counter for the given outcome.
func (p *PaymentMetrics) IncEmail(outcome string) {
	if p == nil || p.emails == nil {
		return
	}
	p.emails.WithLabelValues(normalizeLabel(outcome)).Inc()
}

func normalizeLabel(value string) string {
	if value == "" {
		return "unknown"
	}
	return value
}
