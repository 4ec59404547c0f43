package config

import (
	"errors"
	"flag"
	"fmt"
	"net/url"
	"os"
	"strings"
	"time"

	"github.com/Temutjin2k/authhub/internal/domain/types"
	"github.com/Temutjin2k/authhub/pkg/configparser"
	goredis "github.com/redis/go-redis/v9"
)

// Flags
var (
	modeFlag = flag.String("mode", "", "application mode: api or worker")
)

// Errors
var (
	ErrModeNotProvided = errors.New("mode flag not provided")
	ErrInvalidMode     = errors.New("mode must be api or worker")
	ErrNoSigningKey    = errors.New("AUTH_JWT_SECRET or AUTH_RSA_PRIVATE_KEY_PATH must be set")
)

// Config contains all configuration variables of the application
type (
	Config struct {
		Mode types.ServiceMode

		Database  DatabaseConfig
		Redis     RedisConfig
		RabbitMQ  RabbitMQConfig
		HTTP      HTTPConfig
		Auth      AuthConfig
		RateLimit RateLimitConfig
		Audit     AuditConfig
		Telemetry TelemetryConfig
		Log       LogConfig
		Seed      SeedConfig
	}

	DatabaseConfig struct {
		Host     string `env:"DATABASE_HOST" envDefault:"localhost"`
		Port     string `env:"DATABASE_PORT" envDefault:"5432"`
		User     string `env:"DATABASE_USER" envDefault:"authhub"`
		Password string `env:"DATABASE_PASSWORD" envDefault:"authhub"`
		Database string `env:"DATABASE_DATABASE" envDefault:"authhub"`
		SSLMode  string `env:"DATABASE_SSLMODE" envDefault:"disable"`

		MaxConns        int32         `env:"DATABASE_MAXCONNS" envDefault:"20"`
		MinConns        int32         `env:"DATABASE_MINCONNS" envDefault:"2"`
		MaxConnLifetime time.Duration `env:"DATABASE_MAXCONNLIFETIME" envDefault:"30m"`
		MaxConnIdleTime time.Duration `env:"DATABASE_MAXCONNIDLETIME" envDefault:"5m"`

		// AutoMigrate applies the embedded migrations on startup.
		AutoMigrate bool `env:"DATABASE_AUTO_MIGRATE" envDefault:"true"`
	}

	RedisConfig struct {
		Addr     string `env:"REDIS_ADDR" envDefault:"localhost:6379"`
		Password string `env:"REDIS_PASSWORD"`
		DB       int    `env:"REDIS_DB" envDefault:"0"`
	}

	RabbitMQConfig struct {
		Enabled  bool   `env:"RABBITMQ_ENABLED" envDefault:"true"`
		Host     string `env:"RABBITMQ_HOST" envDefault:"localhost"`
		Port     string `env:"RABBITMQ_PORT" envDefault:"5672"`
		User     string `env:"RABBITMQ_USER" envDefault:"guest"`
		Password string `env:"RABBITMQ_PASSWORD" envDefault:"guest"`
		// Concurrency bounds the audit messages the worker handles at once.
		Concurrency int `env:"RABBITMQ_CONCURRENCY" envDefault:"8"`
	}

	HTTPConfig struct {
		Host            string        `env:"HTTP_HOST" envDefault:"0.0.0.0"`
		Port            string        `env:"HTTP_PORT" envDefault:"8080"`
		ReadTimeout     time.Duration `env:"HTTP_READ_TIMEOUT" envDefault:"10s"`
		WriteTimeout    time.Duration `env:"HTTP_WRITE_TIMEOUT" envDefault:"15s"`
		IdleTimeout     time.Duration `env:"HTTP_IDLE_TIMEOUT" envDefault:"60s"`
		ShutdownTimeout time.Duration `env:"HTTP_SHUTDOWN_TIMEOUT" envDefault:"10s"`
	}

	AuthConfig struct {
		Issuer          string        `env:"AUTH_ISSUER" envDefault:"authhub"`
		AccessTokenTTL  time.Duration `env:"AUTH_ACCESS_TOKEN_TTL" envDefault:"15m"`
		RefreshTokenTTL time.Duration `env:"AUTH_REFRESH_TOKEN_TTL" envDefault:"168h"`
		JWTSecret       string        `env:"AUTH_JWT_SECRET"`
		// RSAPrivateKeyPath switches signing to RS256 and publishes the JWKS.
		RSAPrivateKeyPath string `env:"AUTH_RSA_PRIVATE_KEY_PATH"`
		KeyID             string `env:"AUTH_KEY_ID" envDefault:"authhub-1"`
		BcryptCost        int    `env:"AUTH_BCRYPT_COST" envDefault:"12"`

		ServiceTokens       []string `env:"AUTH_SERVICE_TOKENS" envSeparator:","`
		TrustGatewayHeaders bool     `env:"AUTH_TRUST_GATEWAY_HEADERS" envDefault:"false"`

		BlacklistCleanupInterval time.Duration `env:"AUTH_BLACKLIST_CLEANUP_INTERVAL" envDefault:"1h"`
		BlacklistCleanupBatch    int64         `env:"AUTH_BLACKLIST_CLEANUP_BATCH" envDefault:"500"`
	}

	RateLimitConfig struct {
		Enabled       bool          `env:"RATE_LIMIT_ENABLED" envDefault:"true"`
		Window        time.Duration `env:"RATE_LIMIT_WINDOW" envDefault:"60s"`
		IPLimit       int64         `env:"RATE_LIMIT_IP" envDefault:"100"`
		UserLimit     int64         `env:"RATE_LIMIT_USER" envDefault:"1000"`
		EndpointLimit int64         `env:"RATE_LIMIT_ENDPOINT" envDefault:"5000"`
	}

	AuditConfig struct {
		Enabled    bool `env:"AUDIT_ENABLED" envDefault:"true"`
		BufferSize int  `env:"AUDIT_BUFFER_SIZE" envDefault:"1024"`
	}

	TelemetryConfig struct {
		ServiceName  string  `env:"OTEL_SERVICE_NAME" envDefault:"authhub"`
		OTLPEndpoint string  `env:"OTEL_EXPORTER_OTLP_ENDPOINT"`
		SampleRatio  float64 `env:"OTEL_SAMPLE_RATIO" envDefault:"1"`
	}

	LogConfig struct {
		Level string `env:"LOG_LEVEL" envDefault:"info"`
	}

	// SeedConfig is read by the seed command only.
	SeedConfig struct {
		AdminEmail    string `env:"SEED_ADMIN_EMAIL" envDefault:"admin@authhub.local"`
		AdminPassword string `env:"SEED_ADMIN_PASSWORD"`
	}
)

func (c DatabaseConfig) GetDSN() string {
	u := url.URL{
		Scheme:   "postgres",
		User:     url.UserPassword(c.User, c.Password),
		Host:     c.Host + ":" + c.Port,
		Path:     c.Database,
		RawQuery: "sslmode=" + url.QueryEscape(c.SSLMode),
	}
	return u.String()
}

func (c DatabaseConfig) PoolLimits() (maxConns, minConns int32, maxLifetime, maxIdle time.Duration) {
	return c.MaxConns, c.MinConns, c.MaxConnLifetime, c.MaxConnIdleTime
}

func (c RedisConfig) Options() *goredis.Options {
	return &goredis.Options{
		Addr:     c.Addr,
		Password: c.Password,
		DB:       c.DB,
	}
}

func (c RabbitMQConfig) GetDSN() string {
	u := url.URL{
		Scheme: "amqp",
		User:   url.UserPassword(c.User, c.Password),
		Host:   c.Host + ":" + c.Port,
		Path:   "/",
	}
	return u.String()
}

func (c HTTPConfig) Addr() string {
	return c.Host + ":" + c.Port
}

// Load reads the YAML overlay and the environment without looking at flags.
func Load(filepath string) (*Config, error) {
	cfg := &Config{}

	// Loading enviromental variables and parsing to config struct.
	if err := configparser.LoadAndParse(filepath, cfg); err != nil {
		return nil, fmt.Errorf("failed to load and parse config: %w", err)
	}
	return cfg, nil
}

func NewConfig(filepath string) (*Config, error) {
	cfg, err := Load(filepath)
	if err != nil {
		return nil, err
	}

	// Parsing flags
	if err := parseFlags(cfg); err != nil {
		return nil, fmt.Errorf("failed to parse flags: %w", err)
	}

	if err := cfg.validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

func parseFlags(cfg *Config) error {
	mode := ""
	if modeFlag != nil {
		mode = *modeFlag
	}
	if mode == "" {
		mode = os.Getenv("APP_MODE")
	}
	if mode == "" {
		return ErrModeNotProvided
	}

	cfg.Mode = types.ServiceMode(strings.ToLower(mode))
	if !cfg.Mode.Valid() {
		return ErrInvalidMode
	}

	return nil
}

func (c *Config) validate() error {
	if c.Mode == types.APIMode && c.Auth.JWTSecret == "" && c.Auth.RSAPrivateKeyPath == "" {
		return ErrNoSigningKey
	}
	if c.Mode == types.APIMode && c.Auth.JWTSecret != "" && len(c.Auth.JWTSecret) < 32 {
		return errors.New("AUTH_JWT_SECRET must be at least 32 bytes")
	}
	if c.Audit.BufferSize <= 0 {
		c.Audit.BufferSize = 1024
	}
	if c.Auth.BlacklistCleanupInterval <= 0 {
		c.Auth.BlacklistCleanupInterval = time.Hour
	}
	if c.HTTP.ShutdownTimeout <= 0 {
		c.HTTP.ShutdownTimeout = 10 * time.Second
	}
	return nil
}

// PrintConfig writes the effective configuration with secrets masked.
func PrintConfig(cfg *Config) {
	fmt.Printf("mode=%s http=%s db=%s:%s/%s redis=%s rabbitmq=%t(%s:%s) rate_limit=%t audit=%t otel=%q log=%s\n",
		cfg.Mode,
		cfg.HTTP.Addr(),
		cfg.Database.Host, cfg.Database.Port, cfg.Database.Database,
		cfg.Redis.Addr,
		cfg.RabbitMQ.Enabled, cfg.RabbitMQ.Host, cfg.RabbitMQ.Port,
		cfg.RateLimit.Enabled,
		cfg.Audit.Enabled,
		cfg.Telemetry.OTLPEndpoint,
		cfg.Log.Level,
	)
}
