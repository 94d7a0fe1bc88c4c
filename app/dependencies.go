package app

import (
	"context"
	"fmt"
	"time"

	"github.com/ZubbsZubbs/LAUTECH-sub002/auth"
	"github.com/ZubbsZubbs/LAUTECH-sub002/config"
	"github.com/ZubbsZubbs/LAUTECH-sub002/internal/observability"
	"github.com/ZubbsZubbs/LAUTECH-sub002/middleware"
	"github.com/ZubbsZubbs/LAUTECH-sub002/repositories"
	"github.com/ZubbsZubbs/LAUTECH-sub002/repositories/postgres"
	"github.com/ZubbsZubbs/LAUTECH-sub002/services/account"
	"github.com/ZubbsZubbs/LAUTECH-sub002/services/booking"
	"github.com/ZubbsZubbs/LAUTECH-sub002/services/directory"
	"github.com/ZubbsZubbs/LAUTECH-sub002/services/notification"
	"github.com/ZubbsZubbs/LAUTECH-sub002/services/outreach"
	"github.com/ZubbsZubbs/LAUTECH-sub002/services/providers"
	"github.com/ZubbsZubbs/LAUTECH-sub002/services/providers/resend"
	"github.com/ZubbsZubbs/LAUTECH-sub002/services/providers/smtp"
	"github.com/ZubbsZubbs/LAUTECH-sub002/services/ratelimit"
	"github.com/ZubbsZubbs/LAUTECH-sub002/services/settings"
	"github.com/ZubbsZubbs/LAUTECH-sub002/services/users"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"go.uber.org/zap"
)

// Delivery log backends
const (
	LogBackendFile     = "file"
	LogBackendPostgres = "postgres"
)

// Dependencies holds all application dependencies.
// This is the central wiring point for dependency injection.
type Dependencies struct {
	// Infrastructure
	Config *config.Config
	DB     *postgres.DB
	Logger *zap.Logger

	RepoFactory *postgres.RepositoryFactory
	Repos       *repositories.Repositories
	TxManager   repositories.TransactionManager

	// Observability
	Registry *prometheus.Registry
	Metrics  observability.Metrics

	// Notifications
	Providers   *providers.Registry
	DeliveryLog notification.DeliveryLog
	Forwarder   *notification.WebhookForwarder
	Dispatcher  *notification.Dispatcher
	Templates   *notification.TemplateStore

	// Auth
	Tokens         *auth.TokenManager
	Hasher         *auth.PasswordHasher
	AuthMiddleware *middleware.AuthMiddleware
	RateLimiter    *ratelimit.RateLimitService

	// Services
	Accounts     *account.AccountService
	Users        *users.UserService
	Patients     *directory.PatientService
	Doctors      *directory.DoctorService
	Appointments *booking.AppointmentService
	Applications *booking.ApplicationService
	Settings     *settings.SettingsService
	Outreach     *outreach.OutreachService

	fileLog *notification.FileLog
}

// NewDependencies connects to PostgreSQL and wires up all application dependencies.
func NewDependencies(ctx context.Context, cfg *config.Config, logger *zap.Logger) (*Dependencies, error) {
	factory, err := postgres.NewRepositoryFactory(cfg, logger)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize database: %w", err)
	}

	if err := factory.GetDB().HealthCheck(ctx); err != nil {
		_ = factory.Close()
		return nil, fmt.Errorf("failed to initialize database: %w", err)
	}
	logger.Info("database connection established",
		zap.String("connection", cfg.Database.LogString()))

	if cfg.Database.AutoMigrate {
		if err := postgres.RunMigrations(cfg.Database.URL(), logger); err != nil {
			_ = factory.Close()
			return nil, fmt.Errorf("failed to run migrations: %w", err)
		}
	}

	deps, err := NewDependenciesFromFactory(ctx, cfg, factory, logger)
	if err != nil {
		_ = factory.Close()
		return nil, err
	}
	return deps, nil
}

// NewDependenciesFromFactory wires everything on top of an open repository factory
func NewDependenciesFromFactory(ctx context.Context, cfg *config.Config, factory *postgres.RepositoryFactory, logger *zap.Logger) (*Dependencies, error) {
	deps := &Dependencies{
		Config:      cfg,
		Logger:      logger,
		RepoFactory: factory,
		DB:          factory.GetDB(),
		Repos:       factory.NewRepositories(),
		TxManager:   factory.GetTransactionManager(),
	}

	deps.initMetrics(cfg)

	if err := deps.initNotifications(ctx, cfg); err != nil {
		deps.closeNotifications()
		return nil, fmt.Errorf("failed to initialize notifications: %w", err)
	}

	deps.initAuth(cfg)
	deps.initServices(cfg)

	if cfg.Auth.AdminEmail != "" && cfg.Auth.AdminPassword != "" {
		if err := deps.Accounts.EnsureAdmin(ctx, "Administrator", cfg.Auth.AdminEmail, cfg.Auth.AdminPassword); err != nil {
			deps.closeNotifications()
			return nil, fmt.Errorf("failed to seed admin account: %w", err)
		}
	}

	logger.Info("all dependencies initialized successfully")
	return deps, nil
}

func (d *Dependencies) initMetrics(cfg *config.Config) {
	if !cfg.Observability.MetricsEnabled {
		d.Metrics = observability.NopMetrics{}
		return
	}
	d.Registry = prometheus.NewRegistry()
	d.Registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	d.Metrics = observability.NewCollector(d.Registry)
}

// initNotifications builds the provider chain: Resend, then SMTP, each only
// when configured. The log and the optional webhook sit behind the chain.
func (d *Dependencies) initNotifications(ctx context.Context, cfg *config.Config) error {
	var chain []providers.Provider
	if cfg.Email.ResendEnabled() {
		chain = append(chain, resend.NewResendAdapter(providers.ProviderConfig{
			APIKey:  cfg.Email.Resend.APIKey,
			BaseURL: cfg.Email.Resend.BaseURL,
			Timeout: cfg.Email.Resend.Timeout,
		}))
	}
	if cfg.Email.SMTPEnabled() {
		chain = append(chain, smtp.NewSMTPAdapter(smtp.Config{
			Host:     cfg.Email.SMTP.Host,
			Port:     cfg.Email.SMTP.Port,
			Username: cfg.Email.SMTP.Username,
			Password: cfg.Email.SMTP.Password,
			TLSMode:  cfg.Email.SMTP.TLSMode,
			Timeout:  cfg.Email.SMTP.Timeout,
		}))
	}

	registry, err := providers.NewRegistry(chain...)
	if err != nil {
		return err
	}
	d.Providers = registry
	if registry.GetProviderCount() == 0 {
		d.Logger.Warn("no email providers configured, notifications will only be logged")
	}

	switch cfg.Email.LogBackend {
	case LogBackendPostgres:
		d.DeliveryLog = d.Repos.DeliveryLogs
	case "", LogBackendFile:
		fileLog, err := notification.NewFileLog(cfg.Email.LogPath, d.Logger)
		if err != nil {
			return err
		}
		d.fileLog = fileLog
		d.DeliveryLog = fileLog
	default:
		return fmt.Errorf("unknown delivery log backend %q", cfg.Email.LogBackend)
	}

	var forwarder notification.Forwarder
	if cfg.Email.Webhook.URL != "" {
		webhookCfg := notification.WebhookConfig{
			URL:          cfg.Email.Webhook.URL,
			Timeout:      cfg.Email.Webhook.Timeout,
			BufferSize:   cfg.Email.Webhook.BufferSize,
			WorkerCount:  cfg.Email.Webhook.WorkerCount,
			AllowedCIDRs: cfg.Email.Webhook.AllowedCIDRs,
			AllowedPorts: cfg.Email.Webhook.AllowedPorts,
		}

		checkCtx, cancel := context.WithTimeout(ctx, 2*time.Second)
		if err := notification.CheckDestination(checkCtx, webhookCfg); err != nil {
			d.Logger.Warn("webhook destination will be refused by the outbound guard",
				zap.Error(err))
		}
		cancel()

		webhook := notification.NewWebhookForwarder(webhookCfg, nil, d.Metrics, d.Logger)
		if err := webhook.Start(); err != nil {
			return err
		}
		d.Forwarder = webhook
		forwarder = webhook
	}

	d.Dispatcher = notification.NewDispatcher(cfg.Email.From, registry, d.DeliveryLog, forwarder, d.Metrics, d.Logger)
	d.Templates = notification.NewTemplateStore()
	return nil
}

func (d *Dependencies) initAuth(cfg *config.Config) {
	d.Tokens = auth.NewTokenManager(cfg.Auth.JWTSecret, cfg.Auth.Issuer, cfg.Auth.TokenTTL)
	d.Hasher = auth.NewPasswordHasher(cfg.Auth.BcryptCost)
	d.AuthMiddleware = middleware.NewAuthMiddleware(d.Tokens, d.Repos.Users, d.Logger)

	if !d.Tokens.Configured() {
		d.Logger.Warn("JWT secret not configured, protected routes will answer 500")
	}

	if cfg.RateLimit.Enabled {
		d.RateLimiter = ratelimit.NewRateLimitService(ratelimit.Config{
			RequestsPerMinute: cfg.RateLimit.RequestsPerMin,
			Burst:             cfg.RateLimit.Burst,
			CleanupInterval:   cfg.RateLimit.CleanupInterval,
		}, d.Logger)
	}
}

func (d *Dependencies) initServices(cfg *config.Config) {
	repos := d.Repos

	d.Accounts = account.NewAccountService(
		repos.Users,
		repos.PasswordResets,
		d.TxManager,
		d.Tokens,
		d.Hasher,
		d.Dispatcher,
		d.Templates,
		account.Config{
			FrontEndURL:   cfg.Server.FrontEndURL,
			ResetTokenTTL: cfg.Auth.ResetTokenTTL,
		},
		d.Logger,
	)
	d.Users = users.NewUserService(repos.Users, d.Logger)
	d.Patients = directory.NewPatientService(repos.Patients, d.Logger)
	d.Doctors = directory.NewDoctorService(repos.Doctors, d.Logger)
	d.Appointments = booking.NewAppointmentService(repos.Appointments, repos.Doctors, d.Dispatcher, d.Templates, d.Logger)
	d.Applications = booking.NewApplicationService(repos.Applications, d.Dispatcher, d.Templates, d.Logger)
	d.Settings = settings.NewSettingsService(repos.Settings, d.Logger)
	d.Outreach = outreach.NewOutreachService(repos.Subscribers, d.Dispatcher, d.Templates, cfg.Email.ContactInbox, d.Logger)

	d.Logger.Info("services initialized")
}

func (d *Dependencies) closeNotifications() []error {
	var errs []error
	if d.Forwarder != nil {
		if err := d.Forwarder.Stop(5 * time.Second); err != nil {
			errs = append(errs, fmt.Errorf("failed to stop webhook forwarder: %w", err))
		}
		d.Forwarder = nil
	}
	if d.fileLog != nil {
		if err := d.fileLog.Close(); err != nil {
			errs = append(errs, fmt.Errorf("failed to close delivery log: %w", err))
		}
		d.fileLog = nil
	}
	return errs
}

// Close gracefully shuts down all dependencies: the rate limiter, the webhook
// queue, the delivery log and finally the database.
func (d *Dependencies) Close(ctx context.Context) error {
	d.Logger.Info("shutting down dependencies")

	if d.RateLimiter != nil {
		d.RateLimiter.Stop()
		d.RateLimiter = nil
	}

	errs := d.closeNotifications()

	if d.RepoFactory != nil {
		if err := d.RepoFactory.Close(); err != nil {
			errs = append(errs, fmt.Errorf("failed to close database: %w", err))
		} else {
			d.Logger.Info("database connection closed")
		}
		d.RepoFactory = nil
	}

	_ = d.Logger.Sync()

	if len(errs) > 0 {
		return fmt.Errorf("errors during shutdown: %v", errs)
	}
	return nil
}
