package config

import (
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/kelseyhightower/envconfig"
)

type Config struct {
	App          AppConfig
	DB           DBConfig
	Redis        RedisConfig
	JWT          JWTConfig
	RateLimit    RateLimitConfig
	Checkout     CheckoutConfig
	Stripe       StripeConfig
	Sendgrid     SendgridConfig
	Admin        AdminConfig
	FeatureFlags FeatureFlagsConfig
}

func Load() (*Config, error) {
	var cfg Config
	if err := envconfig.Process(EnvPrefix, &cfg); err != nil {
		return nil, fmt.Errorf("parsing config: %w", err)
	}
	if err := cfg.DB.ensureDSN(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

type AppConfig struct {
	Env          string `envconfig:"MARISCA_APP_ENV" required:"true"`
	Port         string `envconfig:"MARISCA_APP_PORT" default:"8080"`
	LogLevel     string `envconfig:"MARISCA_LOG_LEVEL" default:"info"`
	LogWarnStack bool   `envconfig:"MARISCA_LOG_WARN_STACK" default:"false"`
	BaseURL      string `envconfig:"MARISCA_APP_BASE_URL" default:"http://localhost:3000"`
}

func (a AppConfig) IsDev() bool {
	return strings.EqualFold(a.Env, AppEnvDev)
}

func (a AppConfig) IsProd() bool {
	return strings.EqualFold(a.Env, AppEnvProd)
}

type DBConfig struct {
	DSN    string `envconfig:"MARISCA_DB_DSN"`
	Driver string `envconfig:"MARISCA_DB_DRIVER" default:"postgres"`

	LegacyHost     string `envconfig:"MARISCA_DB_HOST"`
	LegacyPort     int    `envconfig:"MARISCA_DB_PORT" default:"5432"`
	LegacyUser     string `envconfig:"MARISCA_DB_USER"`
	LegacyPassword string `envconfig:"MARISCA_DB_PASSWORD"`
	LegacyName     string `envconfig:"MARISCA_DB_NAME"`
	LegacySSLMode  string `envconfig:"MARISCA_DB_SSLMODE" default:"disable"`

	MaxOpenConns    int           `envconfig:"MARISCA_DB_MAX_OPEN_CONNS" default:"20"`
	MaxIdleConns    int           `envconfig:"MARISCA_DB_MAX_IDLE_CONNS" default:"10"`
	ConnMaxLifetime time.Duration `envconfig:"MARISCA_DB_CONN_MAX_LIFETIME" default:"1h"`
	ConnMaxIdleTime time.Duration `envconfig:"MARISCA_DB_CONN_MAX_IDLE_TIME" default:"10m"`
}

type RedisConfig struct {
	URL          string        `envconfig:"MARISCA_REDIS_URL" required:"true"`
	Address      string        `envconfig:"MARISCA_REDIS_ADDR"`
	Password     string        `envconfig:"MARISCA_REDIS_PASSWORD"`
	DB           int           `envconfig:"MARISCA_REDIS_DB" default:"0"`
	PoolSize     int           `envconfig:"MARISCA_REDIS_POOL_SIZE" default:"10"`
	MinIdleConns int           `envconfig:"MARISCA_REDIS_MIN_IDLE_CONNS" default:"2"`
	DialTimeout  time.Duration `envconfig:"MARISCA_REDIS_DIAL_TIMEOUT" default:"5s"`
	ReadTimeout  time.Duration `envconfig:"MARISCA_REDIS_READ_TIMEOUT" default:"5s"`
	WriteTimeout time.Duration `envconfig:"MARISCA_REDIS_WRITE_TIMEOUT" default:"5s"`
}

type JWTConfig struct {
	Secret            string `envconfig:"MARISCA_JWT_SECRET"`
	Issuer            string `envconfig:"MARISCA_JWT_ISSUER" default:"marisca"`
	ExpirationMinutes int    `envconfig:"MARISCA_JWT_EXPIRATION_MINUTES" default:"60"`
}

type RateLimitConfig struct {
	CheckoutWindow  time.Duration `envconfig:"MARISCA_RATE_LIMIT_CHECKOUT_WINDOW" default:"1m"`
	CheckoutIPLimit int           `envconfig:"MARISCA_RATE_LIMIT_CHECKOUT_IP_LIMIT" default:"3"`
}

type CheckoutConfig struct {
	SuccessPath    string        `envconfig:"MARISCA_CHECKOUT_SUCCESS_PATH" default:"/payment-success"`
	CancelPath     string        `envconfig:"MARISCA_CHECKOUT_CANCEL_PATH" default:"/checkout"`
	IdempotencyTTL time.Duration `envconfig:"MARISCA_CHECKOUT_IDEMPOTENCY_TTL" default:"168h"`
}

type StripeConfig struct {
	APIKey        string `envconfig:"MARISCA_STRIPE_API_KEY"`
	WebhookSecret string `envconfig:"MARISCA_STRIPE_WEBHOOK_SECRET"`
	Env           string `envconfig:"MARISCA_STRIPE_ENV" default:"test"`

	EventDedupTTL time.Duration `envconfig:"MARISCA_STRIPE_EVENT_DEDUP_TTL" default:"72h"`
}

// Environment returns the normalized Stripe environment (test/live).
func (s StripeConfig) Environment() string {
	env := strings.TrimSpace(strings.ToLower(s.Env))
	if env == "" {
		return "test"
	}
	return env
}

type SendgridConfig struct {
	APIKey      string `envconfig:"MARISCA_SENDGRID_API_KEY"`
	DefaultFrom string `envconfig:"MARISCA_SENDGRID_FROM_EMAIL" default:"encomendas@marisca.pt"`
	FromName    string `envconfig:"MARISCA_SENDGRID_FROM_NAME" default:"Marisca"`
}

type AdminConfig struct {
	Token string `envconfig:"MARISCA_ADMIN_TOKEN"`
}

type FeatureFlagsConfig struct {
	AutoMigrate bool `envconfig:"MARISCA_AUTO_MIGRATE" default:"false"`
}

func (db *DBConfig) ensureDSN() error {
	if db.DSN != "" {
		return nil
	}

	missing := []string{}
	legacyValues := map[string]string{
		EnvDBHost: db.LegacyHost,
		EnvDBUser: db.LegacyUser,
		EnvDBName: db.LegacyName,
	}
	for _, env := range legacyDBEnvVars {
		if legacyValues[env] == "" {
			missing = append(missing, env)
		}
	}

	if len(missing) > 0 {
		return fmt.Errorf("either %s or %s are required", EnvDBDSN, strings.Join(missing, ", "))
	}

	userInfo := url.User(db.LegacyUser)
	if db.LegacyPassword != "" {
		userInfo = url.UserPassword(db.LegacyUser, db.LegacyPassword)
	}

	u := &url.URL{
		Scheme: "postgres",
		User:   userInfo,
		Host:   fmt.Sprintf("%s:%d", db.LegacyHost, db.LegacyPort),
		Path:   db.LegacyName,
	}

	if db.LegacySSLMode != "" {
		q := u.Query()
		q.Set("sslmode", db.LegacySSLMode)
		u.RawQuery = q.Encode()
	}

	db.DSN = u.String()
	return nil
}
