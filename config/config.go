package config

import (
	"context"
	"fmt"
	"net"
	"net/url"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Config represents the complete application configuration
type Config struct {
	Server        ServerConfig
	Database      DatabaseConfig
	Auth          AuthConfig
	Email         EmailConfig
	RateLimit     RateLimitConfig
	Observability ObservabilityConfig
	Environment   string
}

// ServerConfig holds HTTP server configuration
type ServerConfig struct {
	Host            string
	Port            int
	ReadTimeout     time.Duration
	WriteTimeout    time.Duration
	ShutdownTimeout time.Duration
	AllowedOrigins  []string
	FrontEndURL     string // Base URL of the public site, used in password reset links
}

// DatabaseConfig holds PostgreSQL database configuration.
// When ConnectionString (from DATABASE_URL) is set, it takes precedence over individual fields.
type DatabaseConfig struct {
	ConnectionString string // From DATABASE_URL when set
	Host             string
	Port             int
	User             string
	Password         string
	Database         string
	SSLMode          string
	MaxOpenConns     int
	MaxIdleConns     int
	ConnMaxLifetime  time.Duration
	AutoMigrate      bool
}

// AuthConfig holds token signing configuration
type AuthConfig struct {
	JWTSecret     string
	TokenTTL      time.Duration
	Issuer        string
	BcryptCost    int
	ResetTokenTTL time.Duration

	// Seed admin account, created at startup when both are set and the email is unused
	AdminEmail    string
	AdminPassword string
}

// EmailConfig holds notification provider configuration.
// A provider is eligible for the fallback chain only when its credentials are present.
type EmailConfig struct {
	From         string
	ContactInbox string // Receives contact form submissions
	Resend       ResendConfig
	SMTP         SMTPConfig
	Webhook      WebhookConfig
	LogBackend   string // file or postgres
	LogPath      string
}

// ResendConfig holds hosted email API configuration
type ResendConfig struct {
	APIKey  string
	BaseURL string
	Timeout time.Duration
}

// SMTPConfig holds SMTP transport configuration
type SMTPConfig struct {
	Host     string
	Port     int
	Username string
	Password string
	TLSMode  string // starttls, tls or none
	Timeout  time.Duration
}

// WebhookConfig holds the last-resort webhook sink configuration
type WebhookConfig struct {
	URL          string
	Timeout      time.Duration
	BufferSize   int
	WorkerCount  int
	AllowedCIDRs []string // lets the sink live on a private network
	AllowedPorts []int    // added to 80, 443, 8080 and 8443
}

// RateLimitConfig holds per-client rate limits for public write endpoints
type RateLimitConfig struct {
	Enabled         bool
	RequestsPerMin  int
	Burst           int
	CleanupInterval time.Duration
}

// ObservabilityConfig holds monitoring and logging configuration
type ObservabilityConfig struct {
	LogLevel       string
	LogFormat      string // json or text
	MetricsEnabled bool
}

// New creates a new Config instance by loading environment variables
func New(ctx context.Context) (*Config, error) {
	// Load .env file if it exists
	_ = godotenv.Load(".env")

	cfg := &Config{
		Environment: getEnv("ENVIRONMENT", "development"),
		Server: ServerConfig{
			Host:            getEnv("SERVER_HOST", "0.0.0.0"),
			Port:            getPort(),
			ReadTimeout:     getEnvAsDuration("SERVER_READ_TIMEOUT", 30*time.Second),
			WriteTimeout:    getEnvAsDuration("SERVER_WRITE_TIMEOUT", 30*time.Second),
			ShutdownTimeout: getEnvAsDuration("SERVER_SHUTDOWN_TIMEOUT", 10*time.Second),
			AllowedOrigins:  getEnvAsList("CORS_ALLOWED_ORIGINS", []string{"http://localhost:*", "https://*"}),
			FrontEndURL:     getEnv("FRONT_END_URL", "http://localhost:3000"),
		},
		Database: loadDatabaseConfig(),
		Auth: AuthConfig{
			JWTSecret:     getEnv("JWT_SECRET", ""),
			TokenTTL:      getEnvAsDuration("JWT_TTL", 24*time.Hour),
			Issuer:        getEnv("JWT_ISSUER", "hospital-api"),
			BcryptCost:    getEnvAsInt("BCRYPT_COST", 10),
			ResetTokenTTL: getEnvAsDuration("RESET_TOKEN_TTL", time.Hour),
			AdminEmail:    getEnv("ADMIN_EMAIL", ""),
			AdminPassword: getEnv("ADMIN_PASSWORD", ""),
		},
		Email:     loadEmailConfig(),
		RateLimit: RateLimitConfig{
			Enabled:         getEnvAsBool("RATE_LIMIT_ENABLED", true),
			RequestsPerMin:  getEnvAsInt("RATE_LIMIT_PER_MINUTE", 10),
			Burst:           getEnvAsInt("RATE_LIMIT_BURST", 5),
			CleanupInterval: getEnvAsDuration("RATE_LIMIT_CLEANUP_INTERVAL", 5*time.Minute),
		},
		Observability: ObservabilityConfig{
			LogLevel:       getEnv("LOG_LEVEL", "info"),
			LogFormat:      getEnv("LOG_FORMAT", "json"),
			MetricsEnabled: getEnvAsBool("METRICS_ENABLED", true),
		},
	}

	// Validate the configuration
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}

	return cfg, nil
}

// Validate checks if all required configuration fields are set
func (c *Config) Validate() error {
	// Database validation (DATABASE_URL or DB_* vars)
	if c.Database.ConnectionString == "" && c.Database.Host == "" {
		return fmt.Errorf("database configuration required: set DATABASE_URL or DB_HOST")
	}
	if c.Database.ConnectionString == "" {
		if c.Database.User == "" {
			return fmt.Errorf("database user is required")
		}
		if c.Database.Database == "" {
			return fmt.Errorf("database name is required")
		}
	}

	// A missing secret is tolerated outside production; protected routes then answer 500
	if c.IsProduction() && c.Auth.JWTSecret == "" {
		return fmt.Errorf("JWT secret is required in production")
	}
	if c.Auth.TokenTTL <= 0 {
		return fmt.Errorf("JWT TTL must be positive")
	}

	switch c.Email.LogBackend {
	case "file", "postgres":
	default:
		return fmt.Errorf("unsupported delivery log backend: %q", c.Email.LogBackend)
	}
	if c.Email.LogBackend == "file" && c.Email.LogPath == "" {
		return fmt.Errorf("delivery log path is required for the file backend")
	}

	switch c.Email.SMTP.TLSMode {
	case "starttls", "tls", "none":
	default:
		return fmt.Errorf("unsupported SMTP TLS mode: %q", c.Email.SMTP.TLSMode)
	}

	for _, cidr := range c.Email.Webhook.AllowedCIDRs {
		if _, _, err := net.ParseCIDR(cidr); err != nil {
			return fmt.Errorf("invalid webhook allowed CIDR %q: %w", cidr, err)
		}
	}
	for _, port := range c.Email.Webhook.AllowedPorts {
		if port <= 0 || port > 65535 {
			return fmt.Errorf("invalid webhook allowed port %d", port)
		}
	}

	// The whole provider chain must finish before the response deadline
	if budget := c.Email.ChainTimeout(); c.Server.WriteTimeout > 0 && budget >= c.Server.WriteTimeout {
		return fmt.Errorf("email provider timeouts (%s) must sum to less than the server write timeout (%s)",
			budget, c.Server.WriteTimeout)
	}

	// Observability validation
	if c.Observability.LogLevel == "" {
		return fmt.Errorf("log level is required")
	}

	return nil
}

// IsProduction returns true if running in production environment
func (c *Config) IsProduction() bool {
	return c.Environment == "production" || c.Environment == "prod"
}

// IsDevelopment returns true if running in development environment
func (c *Config) IsDevelopment() bool {
	return c.Environment == "development" || c.Environment == "dev"
}

// ResendEnabled reports whether the hosted email API is eligible
func (c *EmailConfig) ResendEnabled() bool {
	return c.Resend.APIKey != ""
}

// SMTPEnabled reports whether the SMTP transport is eligible
func (c *EmailConfig) SMTPEnabled() bool {
	return c.SMTP.Host != ""
}

// ChainTimeout is the worst-case time spent on the enabled providers in turn
func (c *EmailConfig) ChainTimeout() time.Duration {
	var total time.Duration
	if c.ResendEnabled() {
		total += c.Resend.Timeout
	}
	if c.SMTPEnabled() {
		total += c.SMTP.Timeout
	}
	return total
}

// Address returns host:port of the SMTP server
func (c *SMTPConfig) Address() string {
	return fmt.Sprintf("%s:%d", c.Host, c.Port)
}

// DSN returns the PostgreSQL connection string.
// Uses ConnectionString (from DATABASE_URL) when set; otherwise builds from individual fields.
func (c *DatabaseConfig) DSN() string {
	if c.ConnectionString != "" {
		return c.ConnectionString
	}
	return fmt.Sprintf(
		"host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		c.Host, c.Port, c.User, c.Password, c.Database, c.SSLMode,
	)
}

// URL returns the connection string in URL form, as required by the migrator
func (c *DatabaseConfig) URL() string {
	if c.ConnectionString != "" {
		return c.ConnectionString
	}
	u := url.URL{
		Scheme:   "postgres",
		User:     url.UserPassword(c.User, c.Password),
		Host:     fmt.Sprintf("%s:%d", c.Host, c.Port),
		Path:     "/" + c.Database,
		RawQuery: "sslmode=" + c.SSLMode,
	}
	return u.String()
}

// LogString returns a safe string for logging (no password). Parses ConnectionString when set.
func (c *DatabaseConfig) LogString() string {
	if c.ConnectionString != "" {
		u, err := url.Parse(c.ConnectionString)
		if err == nil {
			host := u.Hostname()
			port := u.Port()
			if port == "" {
				port = "5432"
			}
			db := strings.TrimPrefix(u.Path, "/")
			return fmt.Sprintf("host=%s port=%s database=%s", host, port, db)
		}
		return "host=<from DATABASE_URL>"
	}
	return fmt.Sprintf("host=%s port=%d database=%s", c.Host, c.Port, c.Database)
}

// loadDatabaseConfig loads database config from DATABASE_URL or DB_* env vars
func loadDatabaseConfig() DatabaseConfig {
	dbURL := getEnv("DATABASE_URL", "")
	if dbURL != "" {
		return DatabaseConfig{
			ConnectionString: dbURL,
			MaxOpenConns:     getEnvAsInt("DB_MAX_OPEN_CONNS", 25),
			MaxIdleConns:     getEnvAsInt("DB_MAX_IDLE_CONNS", 5),
			ConnMaxLifetime:  getEnvAsDuration("DB_CONN_MAX_LIFETIME", 5*time.Minute),
			AutoMigrate:      getEnvAsBool("DB_AUTO_MIGRATE", true),
		}
	}
	return DatabaseConfig{
		Host:            getEnv("DB_HOST", "localhost"),
		Port:            getEnvAsInt("DB_PORT", 5432),
		User:            getEnv("DB_USER", "hospital"),
		Password:        getEnv("DB_PASSWORD", "hospital"),
		Database:        getEnv("DB_NAME", "hospital"),
		SSLMode:         getEnv("DB_SSLMODE", "disable"),
		MaxOpenConns:    getEnvAsInt("DB_MAX_OPEN_CONNS", 25),
		MaxIdleConns:    getEnvAsInt("DB_MAX_IDLE_CONNS", 5),
		ConnMaxLifetime: getEnvAsDuration("DB_CONN_MAX_LIFETIME", 5*time.Minute),
		AutoMigrate:     getEnvAsBool("DB_AUTO_MIGRATE", true),
	}
}

// loadEmailConfig loads provider credentials. EMAIL_USER / EMAIL_PASS are accepted
// as aliases for the SMTP credentials and imply Gmail when no host is given.
func loadEmailConfig() EmailConfig {
	smtpUser := getEnv("SMTP_USER", getEnv("EMAIL_USER", ""))
	smtpHost := getEnv("SMTP_HOST", "")
	if smtpHost == "" && smtpUser != "" {
		smtpHost = "smtp.gmail.com"
	}

	from := getEnv("EMAIL_FROM", "")
	if from == "" {
		from = smtpUser
	}
	if from == "" {
		from = "no-reply@localhost"
	}

	return EmailConfig{
		From:         from,
		ContactInbox: getEnv("CONTACT_INBOX", from),
		Resend: ResendConfig{
			APIKey:  getEnv("RESEND_API_KEY", ""),
			BaseURL: getEnv("RESEND_BASE_URL", "https://api.resend.com"),
			Timeout: getEnvAsDuration("RESEND_TIMEOUT", 10*time.Second),
		},
		SMTP: SMTPConfig{
			Host:     smtpHost,
			Port:     getEnvAsInt("SMTP_PORT", 587),
			Username: smtpUser,
			Password: getEnv("SMTP_PASSWORD", getEnv("EMAIL_PASS", "")),
			TLSMode:  getEnv("SMTP_TLS", "starttls"),
			Timeout:  getEnvAsDuration("SMTP_TIMEOUT", 15*time.Second),
		},
		Webhook: WebhookConfig{
			URL:          getEnv("NOTIFY_WEBHOOK_URL", ""),
			Timeout:      getEnvAsDuration("NOTIFY_WEBHOOK_TIMEOUT", 5*time.Second),
			BufferSize:   getEnvAsInt("NOTIFY_WEBHOOK_BUFFER", 256),
			WorkerCount:  getEnvAsInt("NOTIFY_WEBHOOK_WORKERS", 2),
			AllowedCIDRs: getEnvAsList("NOTIFY_WEBHOOK_ALLOWED_CIDRS", nil),
			AllowedPorts: getEnvAsIntList("NOTIFY_WEBHOOK_ALLOWED_PORTS"),
		},
		LogBackend: getEnv("DELIVERY_LOG_BACKEND", "file"),
		LogPath:    getEnv("DELIVERY_LOG_PATH", "logs/email-delivery.log"),
	}
}

// Address returns the HTTP server address
func (c *ServerConfig) Address() string {
	return fmt.Sprintf("%s:%d", c.Host, c.Port)
}

// Helper functions

// getPort returns the server port from PORT or SERVER_PORT env vars (default: 5000)
func getPort() int {
	if value := os.Getenv("PORT"); value != "" {
		if p, err := strconv.Atoi(value); err == nil {
			return p
		}
	}
	if value := os.Getenv("SERVER_PORT"); value != "" {
		if p, err := strconv.Atoi(value); err == nil {
			return p
		}
	}
	return 5000
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvAsInt(key string, defaultValue int) int {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		return defaultValue
	}
	value, err := strconv.Atoi(valueStr)
	if err != nil {
		return defaultValue
	}
	return value
}

func getEnvAsBool(key string, defaultValue bool) bool {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		return defaultValue
	}
	value, err := strconv.ParseBool(valueStr)
	if err != nil {
		return defaultValue
	}
	return value
}

func getEnvAsDuration(key string, defaultValue time.Duration) time.Duration {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		return defaultValue
	}
	value, err := time.ParseDuration(valueStr)
	if err != nil {
		return defaultValue
	}
	return value
}

func getEnvAsList(key string, defaultValue []string) []string {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		return defaultValue
	}
	var out []string
	for _, part := range strings.Split(valueStr, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	if len(out) == 0 {
		return defaultValue
	}
	return out
}

// getEnvAsIntList parses a comma separated list. Malformed entries become 0 so Validate rejects them.
func getEnvAsIntList(key string) []int {
	var out []int
	for _, part := range getEnvAsList(key, nil) {
		n, err := strconv.Atoi(part)
		if err != nil {
			n = 0
		}
		out = append(out, n)
	}
	return out
}
