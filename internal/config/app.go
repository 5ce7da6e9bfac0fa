package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"
	"github.com/spf13/viper"
)

// Config is the typed application configuration. Values come from an
// optional config.yaml, overridden by environment variables of the same
// name in upper case (server.port -> SERVER_PORT).
type Config struct {
	Server   ServerConfig   `mapstructure:"server"`
	Database DatabaseConfig `mapstructure:"db"`
	Redis    RedisConfig    `mapstructure:"redis"`
	Auth     AuthConfig     `mapstructure:"auth"`
	Fees     FeeConfig      `mapstructure:"fees"`
	Storage  StorageConfig  `mapstructure:"storage"`
	Gateway  GatewayConfig  `mapstructure:"gateway"`
	Logging  LoggingConfig  `mapstructure:"log"`
}

type ServerConfig struct {
	Port        string `mapstructure:"port"`
	Env         string `mapstructure:"env"`
	CORSOrigins string `mapstructure:"cors_origins"`
}

type DatabaseConfig struct {
	Host            string        `mapstructure:"host"`
	Port            int           `mapstructure:"port"`
	User            string        `mapstructure:"user"`
	Password        string        `mapstructure:"password"`
	Name            string        `mapstructure:"name"`
	SSLMode         string        `mapstructure:"sslmode"`
	MaxIdleConns    int           `mapstructure:"max_idle_conns"`
	MaxOpenConns    int           `mapstructure:"max_open_conns"`
	ConnMaxLifetime time.Duration `mapstructure:"conn_max_lifetime"`
	ConnMaxIdleTime time.Duration `mapstructure:"conn_max_idle_time"`
}

// DSN returns the PostgreSQL connection string.
func (d DatabaseConfig) DSN() string {
	return fmt.Sprintf("host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		d.Host, d.Port, d.User, d.Password, d.Name, d.SSLMode)
}

type RedisConfig struct {
	Host     string `mapstructure:"host"`
	Port     string `mapstructure:"port"`
	Password string `mapstructure:"password"`
	DB       int    `mapstructure:"db"`
}

type AuthConfig struct {
	JWTSecret        string        `mapstructure:"jwt_secret"`
	StudentTokenTTL  time.Duration `mapstructure:"student_token_ttl"`
	AdminTokenTTL    time.Duration `mapstructure:"admin_token_ttl"`
	MaxLoginAttempts int           `mapstructure:"max_login_attempts"`
	LockDuration     time.Duration `mapstructure:"lock_duration"`
}

type FeeConfig struct {
	ApplicationFee string `mapstructure:"application_fee"`
	Currency       string `mapstructure:"currency"`
	IDPrefix       string `mapstructure:"id_prefix"`
}

// Amount parses the configured fee.
func (f FeeConfig) Amount() (decimal.Decimal, error) {
	return decimal.NewFromString(f.ApplicationFee)
}

type StorageConfig struct {
	Driver    string `mapstructure:"driver"`
	UploadDir string `mapstructure:"upload_dir"`
	PublicURL string `mapstructure:"public_url"`
	S3Bucket  string `mapstructure:"s3_bucket"`
	AWSRegion string `mapstructure:"aws_region"`
}

type GatewayConfig struct {
	StripeSecretKey      string `mapstructure:"stripe_secret_key"`
	StripePublishableKey string `mapstructure:"stripe_publishable_key"`
	SigningSecret        string `mapstructure:"signing_secret"`
}

// Enabled reports whether gateway payments can be offered.
func (g GatewayConfig) Enabled() bool {
	return g.StripeSecretKey != "" && g.SigningSecret != ""
}

type LoggingConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
}

// envKeys maps flat environment names onto nested config keys.
var envKeys = map[string]string{
	"server.port":                    "PORT",
	"server.env":                     "ENV",
	"server.cors_origins":            "CORS_ORIGINS",
	"db.host":                        "DB_HOST",
	"db.port":                        "DB_PORT",
	"db.user":                        "DB_USER",
	"db.password":                    "DB_PASSWORD",
	"db.name":                        "DB_NAME",
	"db.sslmode":                     "DB_SSLMODE",
	"db.max_idle_conns":              "DB_MAX_IDLE_CONNS",
	"db.max_open_conns":              "DB_MAX_OPEN_CONNS",
	"db.conn_max_lifetime":           "DB_CONN_MAX_LIFETIME",
	"db.conn_max_idle_time":          "DB_CONN_MAX_IDLE_TIME",
	"redis.host":                     "REDIS_HOST",
	"redis.port":                     "REDIS_PORT",
	"redis.password":                 "REDIS_PASSWORD",
	"redis.db":                       "REDIS_DB",
	"auth.jwt_secret":                "JWT_SECRET",
	"auth.student_token_ttl":         "STUDENT_TOKEN_TTL",
	"auth.admin_token_ttl":           "ADMIN_TOKEN_TTL",
	"auth.max_login_attempts":        "ADMIN_MAX_LOGIN_ATTEMPTS",
	"auth.lock_duration":             "ADMIN_LOCK_DURATION",
	"fees.application_fee":           "APPLICATION_FEE",
	"fees.currency":                  "CURRENCY",
	"fees.id_prefix":                 "APPLICATION_ID_PREFIX",
	"storage.driver":                 "STORAGE_DRIVER",
	"storage.upload_dir":             "UPLOAD_DIR",
	"storage.public_url":             "UPLOAD_PUBLIC_URL",
	"storage.s3_bucket":              "S3_BUCKET",
	"storage.aws_region":             "AWS_REGION",
	"gateway.stripe_secret_key":      "STRIPE_SECRET_KEY",
	"gateway.stripe_publishable_key": "STRIPE_PUBLISHABLE_KEY",
	"gateway.signing_secret":         "GATEWAY_SIGNING_SECRET",
	"log.level":                      "LOG_LEVEL",
	"log.format":                     "LOG_FORMAT",
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("server.port", "3000")
	v.SetDefault("server.env", "development")
	v.SetDefault("server.cors_origins", "http://localhost:5173")
	v.SetDefault("db.host", "localhost")
	v.SetDefault("db.port", 5432)
	v.SetDefault("db.user", "postgres")
	v.SetDefault("db.password", "postgres")
	v.SetDefault("db.name", "admissions")
	v.SetDefault("db.sslmode", "disable")
	v.SetDefault("db.max_idle_conns", 10)
	v.SetDefault("db.max_open_conns", 100)
	v.SetDefault("db.conn_max_lifetime", time.Hour)
	v.SetDefault("db.conn_max_idle_time", 30*time.Minute)
	v.SetDefault("redis.host", "localhost")
	v.SetDefault("redis.port", "6379")
	v.SetDefault("redis.db", 0)
	v.SetDefault("auth.student_token_ttl", 7*24*time.Hour)
	v.SetDefault("auth.admin_token_ttl", 24*time.Hour)
	v.SetDefault("auth.max_login_attempts", 5)
	v.SetDefault("auth.lock_duration", 2*time.Hour)
	v.SetDefault("fees.application_fee", "500")
	v.SetDefault("fees.currency", "INR")
	v.SetDefault("fees.id_prefix", "SU")
	v.SetDefault("storage.driver", "local")
	v.SetDefault("storage.upload_dir", "./uploads")
	v.SetDefault("storage.public_url", "/uploads")
	v.SetDefault("storage.aws_region", "ap-south-1")
	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "console")
}

// Load reads .env, an optional config.yaml and the environment into Config.
func Load() (*Config, error) {
	LoadEnv()
	return load(viper.New())
}

func load(v *viper.Viper) (*Config, error) {
	setDefaults(v)

	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath("./configs")
	v.AddConfigPath(".")
	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("error reading config file: %w", err)
		}
	}

	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	for key, env := range envKeys {
		if err := v.BindEnv(key, env); err != nil {
			return nil, fmt.Errorf("failed to bind %s: %w", env, err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}
	if err := cfg.validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return &cfg, nil
}

func (c *Config) validate() error {
	if c.Server.Env == "production" && c.Auth.JWTSecret == "" {
		return errors.New("JWT_SECRET must be set in production")
	}
	if c.Auth.JWTSecret == "" {
		c.Auth.JWTSecret = "dev-secret-change-me"
	}
	fee, err := c.Fees.Amount()
	if err != nil || !fee.IsPositive() {
		return fmt.Errorf("APPLICATION_FEE must be a positive amount, got %q", c.Fees.ApplicationFee)
	}
	if len(c.Fees.Currency) != 3 {
		return fmt.Errorf("CURRENCY must be a 3-letter code, got %q", c.Fees.Currency)
	}
	switch c.Storage.Driver {
	case "local":
	case "s3":
		if c.Storage.S3Bucket == "" {
			return errors.New("S3_BUCKET is required when STORAGE_DRIVER=s3")
		}
	default:
		return fmt.Errorf("unknown STORAGE_DRIVER %q", c.Storage.Driver)
	}
	if c.Auth.MaxLoginAttempts <= 0 {
		c.Auth.MaxLoginAttempts = 5
	}
	return nil
}

// IsProduction reports whether the loaded configuration targets production.
func (c *Config) IsProduction() bool {
	return c.Server.Env == "production"
}
