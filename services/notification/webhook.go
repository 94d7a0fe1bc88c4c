package notification

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"net/url"
	"slices"
	"strconv"
	"sync"
	"time"

	"github.com/ZubbsZubbs/LAUTECH-sub002/internal/observability"
	"github.com/doyensec/safeurl"
	"go.uber.org/zap"
)

var (
	// ErrForwarderNotStarted is returned by Forward before Start or after Stop
	ErrForwarderNotStarted = errors.New("webhook forwarder not started")

	// ErrForwarderFull is returned when the queue is full and the failure was dropped
	ErrForwarderFull = errors.New("webhook forward buffer full")
)

// defaultWebhookPorts are the destination ports the outbound guard always allows
var defaultWebhookPorts = []int{80, 443, 8080, 8443}

// WebhookConfig holds configuration for the WebhookForwarder
type WebhookConfig struct {
	URL         string
	Timeout     time.Duration
	BufferSize  int // Size of the queue channel
	WorkerCount int // Number of concurrent workers

	// AllowedCIDRs, when set, is the only address space the client may reach.
	// Use it for an internal sink on a private network.
	AllowedCIDRs []string

	// AllowedPorts extends defaultWebhookPorts
	AllowedPorts []int
}

// DefaultWebhookConfig returns the default queue sizing
func DefaultWebhookConfig() WebhookConfig {
	return WebhookConfig{
		Timeout:     5 * time.Second,
		BufferSize:  256,
		WorkerCount: 2,
	}
}

// NewSafeClient returns an HTTP client that refuses private, loopback and
// link-local destinations, checked after DNS resolution. cfg.AllowedCIDRs
// replaces that rule with an explicit allowlist.
func NewSafeClient(cfg WebhookConfig) *http.Client {
	builder := safeurl.GetConfigBuilder().
		SetTimeout(cfg.Timeout).
		SetAllowedSchemes("http", "https").
		SetAllowedPorts(allowedPorts(cfg)...)
	if len(cfg.AllowedCIDRs) > 0 {
		builder = builder.SetAllowedIPsCIDR(cfg.AllowedCIDRs...)
	}

	wrappedClient := safeurl.Client(builder.Build())
	return wrappedClient.Client
}

// CheckDestination reports whether NewSafeClient(cfg) would refuse cfg.URL.
// Hostnames are resolved with ctx; a failed lookup is returned as an error.
func CheckDestination(ctx context.Context, cfg WebhookConfig) error {
	u, err := url.Parse(cfg.URL)
	if err != nil {
		return fmt.Errorf("invalid webhook URL: %w", err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return fmt.Errorf("webhook scheme %q is not http or https", u.Scheme)
	}

	port := u.Port()
	if port == "" {
		port = map[string]string{"http": "80", "https": "443"}[u.Scheme]
	}
	if p, _ := strconv.Atoi(port); !slices.Contains(allowedPorts(cfg), p) {
		return fmt.Errorf("webhook port %s is not allowed; add it to the allowed ports", port)
	}

	ips, err := net.DefaultResolver.LookupIP(ctx, "ip", u.Hostname())
	if err != nil {
		return fmt.Errorf("failed to resolve webhook host %q: %w", u.Hostname(), err)
	}

	var nets []*net.IPNet
	for _, cidr := range cfg.AllowedCIDRs {
		_, n, err := net.ParseCIDR(cidr)
		if err != nil {
			return fmt.Errorf("invalid allowed CIDR %q: %w", cidr, err)
		}
		nets = append(nets, n)
	}

	for _, ip := range ips {
		if len(nets) > 0 {
			if !slices.ContainsFunc(nets, func(n *net.IPNet) bool { return n.Contains(ip) }) {
				return fmt.Errorf("webhook address %s is outside the allowed CIDRs", ip)
			}
			continue
		}
		if ip.IsLoopback() || ip.IsPrivate() || ip.IsLinkLocalUnicast() || ip.IsUnspecified() {
			return fmt.Errorf("webhook address %s is internal; set allowed CIDRs to reach it", ip)
		}
	}
	return nil
}

func allowedPorts(cfg WebhookConfig) []int {
	ports := slices.Clone(defaultWebhookPorts)
	for _, p := range cfg.AllowedPorts {
		if p > 0 && p <= 65535 && !slices.Contains(ports, p) {
			ports = append(ports, p)
		}
	}
	return ports
}

// WebhookForwarder posts undeliverable notifications to a webhook in the background
type WebhookForwarder struct {
	url         string
	client      *http.Client
	metrics     observability.Metrics
	logger      *zap.Logger
	queue       chan *Failure
	workerCount int
	bufferSize  int
	timeout     time.Duration
	wg          sync.WaitGroup
	mu          sync.Mutex
	started     bool
	stopped     bool
}

// NewWebhookForwarder creates a forwarder. A nil client gets NewSafeClient.
func NewWebhookForwarder(cfg WebhookConfig, client *http.Client, metrics observability.Metrics, logger *zap.Logger) *WebhookForwarder {
	defaults := DefaultWebhookConfig()
	if cfg.Timeout <= 0 {
		cfg.Timeout = defaults.Timeout
	}
	if cfg.BufferSize <= 0 {
		cfg.BufferSize = defaults.BufferSize
	}
	if cfg.WorkerCount <= 0 {
		cfg.WorkerCount = defaults.WorkerCount
	}
	if client == nil {
		client = NewSafeClient(cfg)
	}
	if metrics == nil {
		metrics = observability.NopMetrics{}
	}

	return &WebhookForwarder{
		url:         cfg.URL,
		client:      client,
		metrics:     metrics,
		logger:      logger,
		queue:       make(chan *Failure, cfg.BufferSize),
		workerCount: cfg.WorkerCount,
		bufferSize:  cfg.BufferSize,
		timeout:     cfg.Timeout,
	}
}

// Start starts the background workers
func (f *WebhookForwarder) Start() error {
	f.mu.Lock()
	defer f.mu.Unlock()

	if f.started {
		return fmt.Errorf("webhook forwarder already started")
	}

	for i := 0; i < f.workerCount; i++ {
		f.wg.Add(1)
		go f.worker(i)
	}

	f.started = true
	f.logger.Info("started webhook forwarder",
		zap.Int("worker_count", f.workerCount),
		zap.Int("buffer_size", f.bufferSize))

	return nil
}

// Stop stops accepting failures and waits for queued ones to be posted
func (f *WebhookForwarder) Stop(timeout time.Duration) error {
	f.mu.Lock()
	if !f.started || f.stopped {
		f.mu.Unlock()
		return ErrForwarderNotStarted
	}
	f.stopped = true
	f.logger.Info("stopping webhook forwarder", zap.Int("pending", len(f.queue)))
	close(f.queue)
	f.mu.Unlock()

	done := make(chan struct{})
	go func() {
		f.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		f.logger.Info("webhook forwarder stopped gracefully")
		return nil
	case <-time.After(timeout):
		return fmt.Errorf("webhook forwarder stop timeout after %v", timeout)
	}
}

// Forward queues a failure without blocking. When the queue is full the
// failure is dropped with a warning.
func (f *WebhookForwarder) Forward(failure *Failure) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	if !f.started || f.stopped {
		return ErrForwarderNotStarted
	}

	select {
	case f.queue <- failure:
		return nil
	default:
		f.metrics.RecordWebhookForward("dropped")
		f.logger.Warn("webhook queue full, dropping notification",
			zap.String("to", failure.To),
			zap.String("subject", failure.Subject))
		return ErrForwarderFull
	}
}

func (f *WebhookForwarder) worker(id int) {
	defer f.wg.Done()

	f.logger.Debug("webhook worker started", zap.Int("worker_id", id))

	for failure := range f.queue {
		if err := f.post(failure); err != nil {
			f.metrics.RecordWebhookForward("failed")
			f.logger.Error("failed to forward notification to webhook",
				zap.Int("worker_id", id),
				zap.String("to", failure.To),
				zap.Error(err))
			continue
		}
		f.metrics.RecordWebhookForward("sent")
	}

	f.logger.Debug("webhook worker stopped", zap.Int("worker_id", id))
}

func (f *WebhookForwarder) post(failure *Failure) error {
	body, err := json.Marshal(failure)
	if err != nil {
		return fmt.Errorf("failed to marshal webhook payload: %w", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), f.timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, f.url, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("failed to create webhook request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := f.client.Do(req)
	if err != nil {
		return fmt.Errorf("webhook request failed: %w", err)
	}
	defer resp.Body.Close()
	_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, 4096))

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return fmt.Errorf("webhook returned status %d", resp.StatusCode)
	}
	return nil
}

// Stats returns queue statistics
func (f *WebhookForwarder) Stats() WebhookStats {
	f.mu.Lock()
	defer f.mu.Unlock()

	return WebhookStats{
		BufferSize:  f.bufferSize,
		Pending:     len(f.queue),
		WorkerCount: f.workerCount,
		Started:     f.started && !f.stopped,
	}
}

// WebhookStats represents forwarder statistics
type WebhookStats struct {
	BufferSize  int  `json:"buffer_size"`
	Pending     int  `json:"pending"`
	WorkerCount int  `json:"worker_count"`
	Started     bool `json:"started"`
}
