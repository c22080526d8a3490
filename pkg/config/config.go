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
	Service      ServiceConfig
	DB           DBConfig
	Redis        RedisConfig
	FeatureFlags FeatureFlagsConfig
	Eventing     EventingConfig
	GCP          GCPConfig
	GCS          GCSConfig
	PubSub       PubSubConfig
	BigQuery     BigQueryConfig
	Stripe       StripeConfig
	Sendgrid     SendgridConfig
	Outbox       OutboxConfig
	Billing      BillingConfig
	JWT          JWTConfig
}

func Load() (*Config, error) {
	var cfg Config
	if err := envconfig.Process(EnvPrefix, &cfg); err != nil {
		return nil, fmt.Errorf("parsing config: %w", err)
	}
	if err := cfg.DB.ensureDSN(); err != nil {
		return nil, err
	}
	if err := cfg.Billing.validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

type AppConfig struct {
	Env          string `envconfig:"WEDPLAN_APP_ENV" required:"true"`
	Port         string `envconfig:"WEDPLAN_APP_PORT" required:"true"`
	LogLevel     string `envconfig:"WEDPLAN_LOG_LEVEL" default:"info"`
	LogWarnStack bool   `envconfig:"WEDPLAN_LOG_WARN_STACK" default:"false"`

	// CORSAllowedOrigins is a comma separated list of browser origins.
	CORSAllowedOrigins []string `envconfig:"WEDPLAN_CORS_ALLOWED_ORIGINS" default:"http://localhost:3000"`
}

func (a AppConfig) IsDev() bool {
	return strings.EqualFold(a.Env, AppEnvDev)
}

func (a AppConfig) IsProd() bool {
	return strings.EqualFold(a.Env, AppEnvProd) || strings.EqualFold(a.Env, "production")
}

type ServiceConfig struct {
	Kind string `envconfig:"WEDPLAN_SERVICE_KIND" default:"api"`
}

type DBConfig struct {
	DSN    string `envconfig:"WEDPLAN_DB_DSN"`
	Driver string `envconfig:"WEDPLAN_DB_DRIVER" default:"postgres"`

	LegacyHost     string `envconfig:"WEDPLAN_DB_HOST"`
	LegacyPort     int    `envconfig:"WEDPLAN_DB_PORT" default:"5432"`
	LegacyUser     string `envconfig:"WEDPLAN_DB_USER"`
	LegacyPassword string `envconfig:"WEDPLAN_DB_PASSWORD"`
	LegacyName     string `envconfig:"WEDPLAN_DB_NAME"`
	LegacySSLMode  string `envconfig:"WEDPLAN_DB_SSLMODE" default:"disable"`

	SQLitePath string `envconfig:"WEDPLAN_SQLITE_PATH" default:"file:wedplan.db?cache=shared"`

	MaxOpenConns    int           `envconfig:"WEDPLAN_DB_MAX_OPEN_CONNS" default:"20"`
	MaxIdleConns    int           `envconfig:"WEDPLAN_DB_MAX_IDLE_CONNS" default:"10"`
	ConnMaxLifetime time.Duration `envconfig:"WEDPLAN_DB_CONN_MAX_LIFETIME" default:"1h"`
	ConnMaxIdleTime time.Duration `envconfig:"WEDPLAN_DB_CONN_MAX_IDLE_TIME" default:"10m"`
}

type RedisConfig struct {
	URL          string        `envconfig:"WEDPLAN_REDIS_URL" required:"true"`
	Address      string        `envconfig:"WEDPLAN_REDIS_ADDR"`
	Password     string        `envconfig:"WEDPLAN_REDIS_PASSWORD"`
	DB           int           `envconfig:"WEDPLAN_REDIS_DB" default:"0"`
	PoolSize     int           `envconfig:"WEDPLAN_REDIS_POOL_SIZE" default:"10"`
	MinIdleConns int           `envconfig:"WEDPLAN_REDIS_MIN_IDLE_CONNS" default:"2"`
	DialTimeout  time.Duration `envconfig:"WEDPLAN_REDIS_DIAL_TIMEOUT" default:"5s"`
	ReadTimeout  time.Duration `envconfig:"WEDPLAN_REDIS_READ_TIMEOUT" default:"5s"`
	WriteTimeout time.Duration `envconfig:"WEDPLAN_REDIS_WRITE_TIMEOUT" default:"5s"`
}

// JWTConfig verifies the operator access tokens that guard billing
// corrections. An empty secret rejects every token.
type JWTConfig struct {
	Secret            string `envconfig:"WEDPLAN_JWT_SECRET"`
	Issuer            string `envconfig:"WEDPLAN_JWT_ISSUER" default:"wedplan"`
	ExpirationMinutes int    `envconfig:"WEDPLAN_JWT_EXPIRATION_MINUTES" default:"60"`
}

// LoadJWT reads only the token settings, for tools that mint operator tokens
// without the rest of the service environment.
func LoadJWT() (JWTConfig, error) {
	var cfg JWTConfig
	if err := envconfig.Process(EnvPrefix, &cfg); err != nil {
		return JWTConfig{}, fmt.Errorf("parsing jwt config: %w", err)
	}
	return cfg, nil
}

type FeatureFlagsConfig struct {
	UseSQLite   bool `envconfig:"WEDPLAN_USE_SQLITE" default:"false"`
	AutoMigrate bool `envconfig:"WEDPLAN_AUTO_MIGRATE" default:"false"`
	// SkipAgreements disables agreement rendering, e.g. for local runs without GCS.
	SkipAgreements bool `envconfig:"WEDPLAN_SKIP_AGREEMENTS" default:"false"`
}

type EventingConfig struct {
	OutboxIdempotencyTTL time.Duration `envconfig:"WEDPLAN_EVENTING_IDEMPOTENCY_TTL" default:"720h"`
}

type GCPConfig struct {
	ProjectID              string `envconfig:"WEDPLAN_GCP_PROJECT_ID" required:"true"`
	CredentialsJSON        string `envconfig:"WEDPLAN_GCP_CREDENTIALS_JSON"`
	ApplicationCredentials string `envconfig:"WEDPLAN_GOOGLE_APPLICATION_CREDENTIALS"`
}

type GCSConfig struct {
	BucketName      string `envconfig:"WEDPLAN_GCS_BUCKET_NAME" required:"true"`
	AgreementPrefix string `envconfig:"WEDPLAN_GCS_AGREEMENT_PREFIX" default:"agreements"`
}

type PubSubConfig struct {
	BillingTopic               string `envconfig:"WEDPLAN_PUBSUB_BILLING_TOPIC" required:"true"`
	BillingSubscription        string `envconfig:"WEDPLAN_PUBSUB_BILLING_SUBSCRIPTION" required:"true"`
	FinalizationTopic          string `envconfig:"WEDPLAN_PUBSUB_FINALIZATION_TOPIC" required:"true"`
	FinalizationSubscription   string `envconfig:"WEDPLAN_PUBSUB_FINALIZATION_SUBSCRIPTION" required:"true"`
	DeadLetterAttemptThreshold int    `envconfig:"WEDPLAN_PUBSUB_MAX_DELIVERY_ATTEMPTS" default:"5"`
	MaxOutstandingMessages     int    `envconfig:"WEDPLAN_PUBSUB_MAX_OUTSTANDING_MESSAGES" default:"10"`
}

type BigQueryConfig struct {
	Dataset          string `envconfig:"WEDPLAN_BIGQUERY_DATASET" default:"wedplan"`
	BillingPlanTable string `envconfig:"WEDPLAN_BIGQUERY_BILLING_PLAN_TABLE" default:"billing_plans"`
}

type OutboxConfig struct {
	BatchSize      int `envconfig:"WEDPLAN_OUTBOX_PUBLISH_BATCH_SIZE" default:"50"`
	PollIntervalMS int `envconfig:"WEDPLAN_OUTBOX_PUBLISH_POLL_MS" default:"500"`
	MaxAttempts    int `envconfig:"WEDPLAN_OUTBOX_MAX_ATTEMPTS" default:"10"`
}

type StripeConfig struct {
	APIKey   string `envconfig:"WEDPLAN_STRIPE_API_KEY"`
	Secret   string `envconfig:"WEDPLAN_STRIPE_SECRET"`
	Env      string `envconfig:"WEDPLAN_STRIPE_ENV" default:"test"`
	Currency string `envconfig:"WEDPLAN_STRIPE_CURRENCY" default:"usd"`
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
	APIKey        string `envconfig:"WEDPLAN_SENDGRID_API_KEY"`
	DefaultFrom   string `envconfig:"WEDPLAN_SENDGRID_FROM_EMAIL"`
	FromName      string `envconfig:"WEDPLAN_SENDGRID_FROM_NAME" default:"Wedding Planner"`
	OperatorEmail string `envconfig:"WEDPLAN_SENDGRID_OPERATOR_EMAIL"`
}

// BillingConfig carries the installment plan parameters. Per-product maps use
// envconfig's "key:value,key:value" syntax, e.g. "venue-grand-hall:60".
type BillingConfig struct {
	DefaultDepositPercent     float64            `envconfig:"WEDPLAN_BILLING_DEFAULT_DEPOSIT_PERCENT" default:"0.25"`
	DefaultFinalDueOffsetDays int                `envconfig:"WEDPLAN_BILLING_DEFAULT_FINAL_DUE_OFFSET_DAYS" default:"35"`
	DepositPercentOverrides   map[string]float64 `envconfig:"WEDPLAN_BILLING_DEPOSIT_PERCENT_OVERRIDES"`
	FinalDueOffsetOverrides   map[string]int     `envconfig:"WEDPLAN_BILLING_FINAL_DUE_OFFSET_OVERRIDES"`
	FinalizationGuardTTL      time.Duration      `envconfig:"WEDPLAN_BILLING_FINALIZATION_GUARD_TTL" default:"720h"`
}

func (b BillingConfig) validate() error {
	if b.DefaultDepositPercent <= 0 || b.DefaultDepositPercent > 1 {
		return fmt.Errorf("%s must be in (0,1], got %v", EnvBillingDepositPercent, b.DefaultDepositPercent)
	}
	if b.DefaultFinalDueOffsetDays < 0 {
		return fmt.Errorf("%s must be >= 0", EnvBillingFinalDueOffset)
	}
	for key, pct := range b.DepositPercentOverrides {
		if pct <= 0 || pct > 1 {
			return fmt.Errorf("deposit percent override %q must be in (0,1], got %v", key, pct)
		}
	}
	for key, days := range b.FinalDueOffsetOverrides {
		if days < 0 {
			return fmt.Errorf("final due offset override %q must be >= 0", key)
		}
	}
	return nil
}

func (db *DBConfig) ensureDSN() error {
	if db.DSN != "" || strings.EqualFold(db.Driver, "sqlite") {
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
