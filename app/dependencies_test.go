package app

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/ZubbsZubbs/LAUTECH-sub002/config"
	"github.com/ZubbsZubbs/LAUTECH-sub002/internal/observability"
	"github.com/ZubbsZubbs/LAUTECH-sub002/repositories/postgres"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest"
	"go.uber.org/zap/zaptest/observer"
)

func testConfig(t *testing.T) *config.Config {
	return &config.Config{
		Environment: "test",
		Auth: config.AuthConfig{
			JWTSecret:  "test-secret",
			Issuer:     "hospital-test",
			TokenTTL:   time.Hour,
			BcryptCost: 4,
		},
		Email: config.EmailConfig{
			From:         "noreply@hospital.test",
			ContactInbox: "inbox@hospital.test",
			LogBackend:   LogBackendFile,
			LogPath:      filepath.Join(t.TempDir(), "logs", "deliveries.jsonl"),
			Webhook:      config.WebhookConfig{Timeout: time.Second, BufferSize: 4, WorkerCount: 1},
		},
		Observability: config.ObservabilityConfig{
			LogLevel:  "debug",
			LogFormat: "json",
		},
	}
}

func newMockFactory(t *testing.T) (*postgres.RepositoryFactory, sqlmock.Sqlmock) {
	t.Helper()
	sqlDB, mock, err := sqlmock.New()
	require.NoError(t, err)
	return postgres.NewRepositoryFactoryFromDB(postgres.WrapDB(sqlDB, zap.NewNop()), zap.NewNop()), mock
}

func TestNewDependenciesFromFactory(t *testing.T) {
	t.Run("wires every service with no providers configured", func(t *testing.T) {
		factory, mock := newMockFactory(t)
		deps, err := NewDependenciesFromFactory(context.Background(), testConfig(t), factory, zaptest.NewLogger(t))
		require.NoError(t, err)

		assert.NotNil(t, deps.Accounts)
		assert.NotNil(t, deps.Users)
		assert.NotNil(t, deps.Patients)
		assert.NotNil(t, deps.Doctors)
		assert.NotNil(t, deps.Appointments)
		assert.NotNil(t, deps.Applications)
		assert.NotNil(t, deps.Settings)
		assert.NotNil(t, deps.Outreach)
		assert.NotNil(t, deps.AuthMiddleware)
		assert.Empty(t, deps.Dispatcher.Providers())
		assert.Nil(t, deps.Forwarder)
		assert.Nil(t, deps.RateLimiter)
		assert.Nil(t, deps.Registry)
		assert.IsType(t, observability.NopMetrics{}, deps.Metrics)

		mock.ExpectClose()
		assert.NoError(t, deps.Close(context.Background()))
	})

	t.Run("provider chain follows configuration order", func(t *testing.T) {
		cfg := testConfig(t)
		cfg.Email.Resend = config.ResendConfig{APIKey: "re_test", Timeout: time.Second}
		cfg.Email.SMTP = config.SMTPConfig{Host: "smtp.hospital.test", Port: 587, TLSMode: "starttls", Timeout: time.Second}

		factory, mock := newMockFactory(t)
		deps, err := NewDependenciesFromFactory(context.Background(), cfg, factory, zap.NewNop())
		require.NoError(t, err)

		assert.Equal(t, []string{"resend", "smtp"}, deps.Dispatcher.Providers())

		mock.ExpectClose()
		assert.NoError(t, deps.Close(context.Background()))
	})

	t.Run("postgres delivery log, webhook, metrics and rate limits", func(t *testing.T) {
		cfg := testConfig(t)
		cfg.Email.LogBackend = LogBackendPostgres
		cfg.Email.Webhook.URL = "https://hooks.hospital.test/email"
		cfg.RateLimit = config.RateLimitConfig{Enabled: true, RequestsPerMin: 5, Burst: 2}
		cfg.Observability.MetricsEnabled = true

		factory, mock := newMockFactory(t)
		deps, err := NewDependenciesFromFactory(context.Background(), cfg, factory, zap.NewNop())
		require.NoError(t, err)

		assert.Same(t, deps.Repos.DeliveryLogs, deps.DeliveryLog)
		assert.NotNil(t, deps.Forwarder)
		assert.NotNil(t, deps.RateLimiter)
		assert.NotNil(t, deps.Registry)
		assert.IsType(t, &observability.Collector{}, deps.Metrics)

		mock.ExpectClose()
		assert.NoError(t, deps.Close(context.Background()))
	})

	t.Run("warns when the webhook destination would be refused", func(t *testing.T) {
		cfg := testConfig(t)
		cfg.Email.Webhook.URL = "http://10.0.0.5:9000/email"

		core, logs := observer.New(zap.WarnLevel)
		factory, mock := newMockFactory(t)
		deps, err := NewDependenciesFromFactory(context.Background(), cfg, factory, zap.New(core))
		require.NoError(t, err)

		assert.Equal(t, 1, logs.FilterMessage("webhook destination will be refused by the outbound guard").Len())

		mock.ExpectClose()
		assert.NoError(t, deps.Close(context.Background()))
	})

	t.Run("allowlisted internal webhook starts quietly", func(t *testing.T) {
		cfg := testConfig(t)
		cfg.Email.Webhook.URL = "http://10.0.0.5:9000/email"
		cfg.Email.Webhook.AllowedCIDRs = []string{"10.0.0.0/8"}
		cfg.Email.Webhook.AllowedPorts = []int{9000}

		core, logs := observer.New(zap.WarnLevel)
		factory, mock := newMockFactory(t)
		deps, err := NewDependenciesFromFactory(context.Background(), cfg, factory, zap.New(core))
		require.NoError(t, err)

		assert.Zero(t, logs.FilterMessage("webhook destination will be refused by the outbound guard").Len())
		assert.NotNil(t, deps.Forwarder)

		mock.ExpectClose()
		assert.NoError(t, deps.Close(context.Background()))
	})

	t.Run("unknown delivery log backend", func(t *testing.T) {
		cfg := testConfig(t)
		cfg.Email.LogBackend = "s3"

		factory, _ := newMockFactory(t)
		deps, err := NewDependenciesFromFactory(context.Background(), cfg, factory, zap.NewNop())

		assert.Error(t, err)
		assert.Nil(t, deps)
		assert.Contains(t, err.Error(), "unknown delivery log backend")
	})
}

func TestDependenciesClose(t *testing.T) {
	factory, mock := newMockFactory(t)
	deps, err := NewDependenciesFromFactory(context.Background(), testConfig(t), factory, zap.NewNop())
	require.NoError(t, err)

	mock.ExpectClose()
	require.NoError(t, deps.Close(context.Background()))

	// Second close should not touch the closed database again
	assert.NoError(t, deps.Close(context.Background()))
	assert.NoError(t, mock.ExpectationsWereMet())
}
