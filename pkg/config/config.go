package config

import (
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/kelseyhightower/envconfig"
)

type Config struct {
	App           AppConfig
	DB            DBConfig
	Redis         RedisConfig
	JWT           JWTConfig
	Password      PasswordConfig
	AuthRateLimit AuthRateLimitConfig
	OTP           OTPConfig
	Brevo         BrevoConfig
	Orders        OrdersConfig
	FeatureFlags  FeatureFlagsConfig
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
	Env          string `envconfig:"OAKLINE_APP_ENV" required:"true"`
	Port         string `envconfig:"OAKLINE_APP_PORT" required:"true"`
	LogLevel     string `envconfig:"OAKLINE_LOG_LEVEL" default:"info"`
	LogWarnStack bool   `envconfig:"OAKLINE_LOG_WARN_STACK" default:"false"`
}

func (a AppConfig) IsDev() bool {
	return strings.EqualFold(a.Env, AppEnvDev)
}

func (a AppConfig) IsProd() bool {
	return strings.EqualFold(a.Env, AppEnvProd)
}

type DBConfig struct {
	DSN    string `envconfig:"OAKLINE_DB_DSN"`
	Driver string `envconfig:"OAKLINE_DB_DRIVER" default:"postgres"`

	LegacyHost     string `envconfig:"OAKLINE_DB_HOST"`
	LegacyPort     int    `envconfig:"OAKLINE_DB_PORT" default:"5432"`
	LegacyUser     string `envconfig:"OAKLINE_DB_USER"`
	LegacyPassword string `envconfig:"OAKLINE_DB_PASSWORD"`
	LegacyName     string `envconfig:"OAKLINE_DB_NAME"`
	LegacySSLMode  string `envconfig:"OAKLINE_DB_SSLMODE" default:"disable"`

	MaxOpenConns    int           `envconfig:"OAKLINE_DB_MAX_OPEN_CONNS" default:"20"`
	MaxIdleConns    int           `envconfig:"OAKLINE_DB_MAX_IDLE_CONNS" default:"10"`
	ConnMaxLifetime time.Duration `envconfig:"OAKLINE_DB_CONN_MAX_LIFETIME" default:"1h"`
	ConnMaxIdleTime time.Duration `envconfig:"OAKLINE_DB_CONN_MAX_IDLE_TIME" default:"10m"`
}

type RedisConfig struct {
	URL          string        `envconfig:"OAKLINE_REDIS_URL" required:"true"`
	Address      string        `envconfig:"OAKLINE_REDIS_ADDR"`
	Password     string        `envconfig:"OAKLINE_REDIS_PASSWORD"`
	DB           int           `envconfig:"OAKLINE_REDIS_DB" default:"0"`
	PoolSize     int           `envconfig:"OAKLINE_REDIS_POOL_SIZE" default:"10"`
	MinIdleConns int           `envconfig:"OAKLINE_REDIS_MIN_IDLE_CONNS" default:"2"`
	DialTimeout  time.Duration `envconfig:"OAKLINE_REDIS_DIAL_TIMEOUT" default:"5s"`
	ReadTimeout  time.Duration `envconfig:"OAKLINE_REDIS_READ_TIMEOUT" default:"5s"`
	WriteTimeout time.Duration `envconfig:"OAKLINE_REDIS_WRITE_TIMEOUT" default:"5s"`
}

type JWTConfig struct {
	Secret                 string `envconfig:"OAKLINE_JWT_SECRET" required:"true"`
	Issuer                 string `envconfig:"OAKLINE_JWT_ISSUER" required:"true"`
	ExpirationMinutes      int    `envconfig:"OAKLINE_JWT_EXPIRATION_MINUTES" required:"true"`
	RefreshTokenTTLMinutes int    `envconfig:"OAKLINE_REFRESH_TOKEN_TTL_MINUTES" default:"43200"`
}

// RefreshTokenTTL returns the refresh token TTL configured in minutes.
func (j JWTConfig) RefreshTokenTTL() time.Duration {
	if j.RefreshTokenTTLMinutes <= 0 {
		return 0
	}
	return time.Duration(j.RefreshTokenTTLMinutes) * time.Minute
}

type PasswordConfig struct {
	ArgonMemoryKB    int `envconfig:"OAKLINE_ARGON_MEMORY_KB" default:"65536"`
	ArgonTime        int `envconfig:"OAKLINE_ARGON_TIME" default:"3"`
	ArgonParallelism int `envconfig:"OAKLINE_ARGON_PARALLELISM" default:"2"`
	ArgonSaltLen     int `envconfig:"OAKLINE_ARGON_SALT_LEN" default:"16"`
	ArgonKeyLen      int `envconfig:"OAKLINE_ARGON_KEY_LEN" default:"32"`
}

type AuthRateLimitConfig struct {
	LoginWindow        time.Duration `envconfig:"OAKLINE_AUTH_RATE_LIMIT_LOGIN_WINDOW" default:"1m"`
	LoginEmailLimit    int           `envconfig:"OAKLINE_AUTH_RATE_LIMIT_LOGIN_EMAIL_LIMIT" default:"5"`
	LoginIPLimit       int           `envconfig:"OAKLINE_AUTH_RATE_LIMIT_LOGIN_IP_LIMIT" default:"20"`
	RegisterWindow     time.Duration `envconfig:"OAKLINE_AUTH_RATE_LIMIT_REGISTER_WINDOW" default:"5m"`
	RegisterEmailLimit int           `envconfig:"OAKLINE_AUTH_RATE_LIMIT_REGISTER_EMAIL_LIMIT" default:"3"`
	RegisterIPLimit    int           `envconfig:"OAKLINE_AUTH_RATE_LIMIT_REGISTER_IP_LIMIT" default:"20"`
	OTPWindow          time.Duration `envconfig:"OAKLINE_AUTH_RATE_LIMIT_OTP_WINDOW" default:"5m"`
	OTPEmailLimit      int           `envconfig:"OAKLINE_AUTH_RATE_LIMIT_OTP_EMAIL_LIMIT" default:"3"`
	OTPIPLimit         int           `envconfig:"OAKLINE_AUTH_RATE_LIMIT_OTP_IP_LIMIT" default:"10"`
}

type OTPConfig struct {
	TTL time.Duration `envconfig:"OAKLINE_OTP_TTL" default:"10m"`
}

type BrevoConfig struct {
	APIKey                string `envconfig:"OAKLINE_BREVO_API_KEY"`
	BaseURL               string `envconfig:"OAKLINE_BREVO_BASE_URL" default:"https://api.brevo.com/v3"`
	RegisterTemplateID    int    `envconfig:"OAKLINE_BREVO_REGISTER_TEMPLATE_ID" default:"3"`
	ResetPasswordTemplate int    `envconfig:"OAKLINE_BREVO_RESET_TEMPLATE_ID" default:"4"`
}

type OrdersConfig struct {
	ServerTotals   bool `envconfig:"OAKLINE_ORDERS_SERVER_TOTALS" default:"false"`
	DecrementStock bool `envconfig:"OAKLINE_ORDERS_DECREMENT_STOCK" default:"false"`
}

type FeatureFlagsConfig struct {
	UseSQLite   bool `envconfig:"OAKLINE_USE_SQLITE" default:"false"`
	AutoMigrate bool `envconfig:"OAKLINE_AUTO_MIGRATE" default:"false"`
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
