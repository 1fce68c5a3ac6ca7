package config

import (
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/kelseyhightower/envconfig"
	"github.com/shopspring/decimal"
)

type Config struct {
	App          AppConfig
	DB           DBConfig
	Redis        RedisConfig
	JWT          JWTConfig
	Fees         FeeConfig
	Cashout      CashoutConfig
	Payment      PaymentConfig
	Push         PushConfig
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
	if _, err := cfg.Fees.CommissionRateDecimal(); err != nil {
		return nil, err
	}
	if _, err := cfg.Cashout.Location(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

type AppConfig struct {
	Env          string `envconfig:"PRATOEXPRESS_APP_ENV" required:"true"`
	Port         string `envconfig:"PRATOEXPRESS_APP_PORT" required:"true"`
	LogLevel     string `envconfig:"PRATOEXPRESS_LOG_LEVEL" default:"info"`
	LogWarnStack bool   `envconfig:"PRATOEXPRESS_LOG_WARN_STACK" default:"false"`
}

func (a AppConfig) IsDev() bool {
	return strings.EqualFold(a.Env, AppEnvDev)
}

func (a AppConfig) IsProd() bool {
	return strings.EqualFold(a.Env, AppEnvProd)
}

type DBConfig struct {
	DSN    string `envconfig:"PRATOEXPRESS_DB_DSN"`
	Driver string `envconfig:"PRATOEXPRESS_DB_DRIVER" default:"postgres"`

	LegacyHost     string `envconfig:"PRATOEXPRESS_DB_HOST"`
	LegacyPort     int    `envconfig:"PRATOEXPRESS_DB_PORT" default:"5432"`
	LegacyUser     string `envconfig:"PRATOEXPRESS_DB_USER"`
	LegacyPassword string `envconfig:"PRATOEXPRESS_DB_PASSWORD"`
	LegacyName     string `envconfig:"PRATOEXPRESS_DB_NAME"`
	LegacySSLMode  string `envconfig:"PRATOEXPRESS_DB_SSLMODE" default:"disable"`

	MaxOpenConns    int           `envconfig:"PRATOEXPRESS_DB_MAX_OPEN_CONNS" default:"20"`
	MaxIdleConns    int           `envconfig:"PRATOEXPRESS_DB_MAX_IDLE_CONNS" default:"10"`
	ConnMaxLifetime time.Duration `envconfig:"PRATOEXPRESS_DB_CONN_MAX_LIFETIME" default:"1h"`
	ConnMaxIdleTime time.Duration `envconfig:"PRATOEXPRESS_DB_CONN_MAX_IDLE_TIME" default:"10m"`
}

type RedisConfig struct {
	URL          string        `envconfig:"PRATOEXPRESS_REDIS_URL" required:"true"`
	Address      string        `envconfig:"PRATOEXPRESS_REDIS_ADDR"`
	Password     string        `envconfig:"PRATOEXPRESS_REDIS_PASSWORD"`
	DB           int           `envconfig:"PRATOEXPRESS_REDIS_DB" default:"0"`
	PoolSize     int           `envconfig:"PRATOEXPRESS_REDIS_POOL_SIZE" default:"10"`
	MinIdleConns int           `envconfig:"PRATOEXPRESS_REDIS_MIN_IDLE_CONNS" default:"2"`
	DialTimeout  time.Duration `envconfig:"PRATOEXPRESS_REDIS_DIAL_TIMEOUT" default:"5s"`
	ReadTimeout  time.Duration `envconfig:"PRATOEXPRESS_REDIS_READ_TIMEOUT" default:"5s"`
	WriteTimeout time.Duration `envconfig:"PRATOEXPRESS_REDIS_WRITE_TIMEOUT" default:"5s"`
}

type JWTConfig struct {
	Secret            string `envconfig:"PRATOEXPRESS_JWT_SECRET" required:"true"`
	Issuer            string `envconfig:"PRATOEXPRESS_JWT_ISSUER" required:"true"`
	ExpirationMinutes int    `envconfig:"PRATOEXPRESS_JWT_EXPIRATION_MINUTES" required:"true"`
}

// FeeConfig holds the settlement split knobs. The commission rate and the
// distance-tiered delivery fees moved around across deployments, so every
// value is configuration rather than a literal in the calculator.
type FeeConfig struct {
	CommissionRate  string  `envconfig:"PRATOEXPRESS_FEE_COMMISSION_RATE" default:"0.04"`
	ShortDistanceKm float64 `envconfig:"PRATOEXPRESS_FEE_SHORT_DISTANCE_KM" default:"5"`
	ShortFeeCents   int64   `envconfig:"PRATOEXPRESS_FEE_SHORT_CENTS" default:"500"`
	LongFeeCents    int64   `envconfig:"PRATOEXPRESS_FEE_LONG_CENTS" default:"800"`
}

// CommissionRateDecimal parses the configured commission rate.
func (f FeeConfig) CommissionRateDecimal() (decimal.Decimal, error) {
	rate, err := decimal.NewFromString(strings.TrimSpace(f.CommissionRate))
	if err != nil {
		return decimal.Zero, fmt.Errorf("invalid commission rate %q: %w", f.CommissionRate, err)
	}
	if rate.IsNegative() || rate.GreaterThanOrEqual(decimal.NewFromInt(1)) {
		return decimal.Zero, fmt.Errorf("commission rate %q must be in [0, 1)", f.CommissionRate)
	}
	return rate, nil
}

type CashoutConfig struct {
	MinCents        int64  `envconfig:"PRATOEXPRESS_CASHOUT_MIN_CENTS" default:"1000"`
	MaxCents        int64  `envconfig:"PRATOEXPRESS_CASHOUT_MAX_CENTS" default:"500000"`
	DailyLimitCents int64  `envconfig:"PRATOEXPRESS_CASHOUT_DAILY_LIMIT_CENTS" default:"1000000"`
	Timezone        string `envconfig:"PRATOEXPRESS_CASHOUT_TIMEZONE" default:"America/Sao_Paulo"`
}

// Location resolves the timezone used for the daily withdrawal window.
func (c CashoutConfig) Location() (*time.Location, error) {
	loc, err := time.LoadLocation(c.Timezone)
	if err != nil {
		return nil, fmt.Errorf("invalid cashout timezone %q: %w", c.Timezone, err)
	}
	return loc, nil
}

type PaymentConfig struct {
	BaseURL     string        `envconfig:"PRATOEXPRESS_PAYMENT_BASE_URL" required:"true"`
	AccessToken string        `envconfig:"PRATOEXPRESS_PAYMENT_ACCESS_TOKEN" required:"true"`
	Timeout     time.Duration `envconfig:"PRATOEXPRESS_PAYMENT_TIMEOUT" default:"10s"`
	PixExpiry   time.Duration `envconfig:"PRATOEXPRESS_PAYMENT_PIX_EXPIRY" default:"1h"`
}

type PushConfig struct {
	Endpoint  string        `envconfig:"PRATOEXPRESS_PUSH_ENDPOINT"`
	ServerKey string        `envconfig:"PRATOEXPRESS_PUSH_SERVER_KEY"`
	Timeout   time.Duration `envconfig:"PRATOEXPRESS_PUSH_TIMEOUT" default:"5s"`
}

// Enabled reports whether push delivery is configured. Notifications are a
// best-effort side channel, so an empty endpoint simply disables dispatch.
func (p PushConfig) Enabled() bool {
	return p.Endpoint != "" && p.ServerKey != ""
}

type FeatureFlagsConfig struct {
	UseSQLite   bool `envconfig:"PRATOEXPRESS_USE_SQLITE" default:"false"`
	AutoMigrate bool `envconfig:"PRATOEXPRESS_AUTO_MIGRATE" default:"false"`
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
