package observability

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics is the set of measurements components report.
// Collector implements it over Prometheus; NopMetrics discards everything.
type Metrics interface {
	RecordDeliveryAttempt(provider string, success bool, duration time.Duration)
	RecordDeliveryResult(status string, provider string)
	RecordWebhookForward(outcome string)
	RecordHTTPRequest(method, route string, status int, duration time.Duration)
}

// Collector records metrics into a Prometheus registry
type Collector struct {
	deliveryAttempts *prometheus.CounterVec
	deliveryLatency  *prometheus.HistogramVec
	deliveryResults  *prometheus.CounterVec
	webhookForwards  *prometheus.CounterVec
	httpRequests     *prometheus.CounterVec
	httpLatency      *prometheus.HistogramVec
}

// NewCollector creates a Collector and registers its metrics with reg
func NewCollector(reg prometheus.Registerer) *Collector {
	c := &Collector{
		deliveryAttempts: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "hospital_notification_attempts_total",
			Help: "Provider delivery attempts by provider and outcome",
		}, []string{"provider", "outcome"}),
		deliveryLatency: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "hospital_notification_attempt_seconds",
			Help:    "Provider delivery attempt latency in seconds",
			Buckets: prometheus.DefBuckets,
		}, []string{"provider"}),
		deliveryResults: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "hospital_notification_results_total",
			Help: "Dispatch outcomes by status and provider used",
		}, []string{"status", "provider"}),
		webhookForwards: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "hospital_notification_webhook_forwards_total",
			Help: "Webhook forwards by outcome (sent, failed, dropped)",
		}, []string{"outcome"}),
		httpRequests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "hospital_http_requests_total",
			Help: "HTTP requests by method, route pattern and status code",
		}, []string{"method", "route", "status"}),
		httpLatency: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "hospital_http_request_seconds",
			Help:    "HTTP request latency in seconds",
			Buckets: prometheus.DefBuckets,
		}, []string{"method", "route"}),
	}

	reg.MustRegister(
		c.deliveryAttempts,
		c.deliveryLatency,
		c.deliveryResults,
		c.webhookForwards,
		c.httpRequests,
		c.httpLatency,
	)

	return c
}

// RecordDeliveryAttempt records one provider call
func (c *Collector) RecordDeliveryAttempt(provider string, success bool, duration time.Duration) {
	outcome := "failure"
	if success {
		outcome = "success"
	}
	c.deliveryAttempts.WithLabelValues(provider, outcome).Inc()
	c.deliveryLatency.WithLabelValues(provider).Observe(duration.Seconds())
}

// RecordDeliveryResult records the terminal outcome of one dispatch
func (c *Collector) RecordDeliveryResult(status string, provider string) {
	c.deliveryResults.WithLabelValues(status, provider).Inc()
}

// RecordWebhookForward records a webhook forward outcome
func (c *Collector) RecordWebhookForward(outcome string) {
	c.webhookForwards.WithLabelValues(outcome).Inc()
}

// RecordHTTPRequest records a served request
func (c *Collector) RecordHTTPRequest(method, route string, status int, duration time.Duration) {
	c.httpRequests.WithLabelValues(method, route, strconv.Itoa(status)).Inc()
	c.httpLatency.WithLabelValues(method, route).Observe(duration.Seconds())
}

// Handler returns the Prometheus scrape handler for gatherer
func Handler(gatherer prometheus.Gatherer) http.Handler {
	return promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{})
}

// NopMetrics discards all measurements
type NopMetrics struct{}

func (NopMetrics) RecordDeliveryAttempt(string, bool, time.Duration) {}
func (NopMetrics) RecordDeliveryResult(string, string) {}
func (NopMetrics) RecordWebhookForward(string) {}
func (NopMetrics) RecordHTTPRequest(string, string, int, time.Duration) {}
