package config

import (
	"fmt"
	"os"
	"time"

	"github.com/spf13/viper"
)

type Config struct {
	Server      ServerConfig
	Database    DatabaseConfig
	JWT         JWTConfig
	Storage     StorageConfig
	Tracing     TracingConfig `mapstructure:"tracing"`
	Redis       RedisConfig
	CORS        CORSConfig        `mapstructure:"cors"`
	RateLimit   RateLimitConfig   `mapstructure:"rate_limit"`
	Quiz        QuizConfig        `mapstructure:"quiz"`
	Certificate CertificateConfig `mapstructure:"certificate"`
	Timer       TimerConfig       `mapstructure:"timer"`

	// Runtime flags set from command line, not from the config file.
	// Set from the -migrate-only flag, never from the file.
	MigrateOnly bool `mapstructure:"-"`
}

type CORSConfig struct {
	AllowedOrigins []string `mapstructure:"allowed_origins"`
}

type RateLimitConfig struct {
	MaxRequests   int `mapstructure:"max_requests"`
	WindowMinutes int `mapstructure:"window_minutes"`
}

type ServerConfig struct {
	Port string
	Mode string
}

type DatabaseConfig struct {
	Host      string
	Port      int
	User      string
	Password  string
	DBName    string
	Charset   string
	ParseTime bool
}

type JWTConfig struct {
	Secret          string        `mapstructure:"secret"`
	ExpireTime      time.Duration `mapstructure:"expire_hours"`
	GuestExpireTime time.Duration `mapstructure:"guest_expire_hours"`
}

type StorageConfig struct {
	Type          string `mapstructure:"type"`
	LocalPath     string `mapstructure:"local_path"`
	MinioEndpoint string `mapstructure:"minio_endpoint"`
	MinioAccessID string `mapstructure:"minio_access_key"`
	MinioSecret   string `mapstructure:"minio_secret_key"`
	MinioBucket   string `mapstructure:"minio_bucket"`
}

type TracingConfig struct {
	Enabled           bool   `mapstructure:"enabled"`
	CollectorEndpoint string `mapstructure:"collector_endpoint"`
}

type RedisConfig struct {
	Host     string
	Port     int
	Password string
	DB       int
}

// QuizConfig holds the runtime knobs of the two quiz runners.
type QuizConfig struct {
	// Default pass threshold (percent) for stages that do not set their own.
	PassThreshold float64 `mapstructure:"pass_threshold"`
	// Countdown shown before a quick test starts, in seconds.
	StartCountdownSeconds int `mapstructure:"start_countdown_seconds"`
	// How long an abandoned quick-test session is kept before it expires.
	SessionTTLMinutes int `mapstructure:"session_ttl_minutes"`
}

type CertificateConfig struct {
	// Canonical eligibility threshold (percent). Every call site reads this
	// single value.
	ScoreThreshold float64 `mapstructure:"score_threshold"`
	Issuer         string  `mapstructure:"issuer"`
	// Public base URL embedded in the certificate QR code.
	PublicBaseURL string `mapstructure:"public_base_url"`
}

type TimerConfig struct {
	CheckpointSeconds int `mapstructure:"checkpoint_seconds"`
	DefaultSeconds    int `mapstructure:"default_seconds"`
}

func LoadConfig(path string) (*Config, error) {
	viper.AddConfigPath(path)
	viper.SetConfigName("config")
	viper.SetConfigType("yaml")

	viper.SetEnvPrefix("ACCOUNTING_ACADEMY")
	viper.AutomaticEnv()

	// Database
	viper.BindEnv("database.host", "DATABASE_HOST")
	viper.BindEnv("database.port", "DATABASE_PORT")
	viper.BindEnv("database.user", "DATABASE_USER")
	viper.BindEnv("database.password", "DATABASE_PASSWORD")
	viper.BindEnv("database.dbname", "DATABASE_NAME")

	// JWT
	viper.BindEnv("jwt.secret", "JWT_SECRET")

	// Redis
	viper.BindEnv("redis.host", "REDIS_HOST")
	viper.BindEnv("redis.port", "REDIS_PORT")
	viper.BindEnv("redis.password", "REDIS_PASSWORD")

	// Server
	viper.BindEnv("server.mode", "SERVER_MODE")

	// Storage
	viper.BindEnv("storage.type", "STORAGE_TYPE")
	viper.BindEnv("storage.minio_endpoint", "MINIO_ENDPOINT")
	viper.BindEnv("storage.minio_access_key", "MINIO_ACCESS_KEY")
	viper.BindEnv("storage.minio_secret_key", "MINIO_SECRET_KEY")
	viper.BindEnv("storage.minio_bucket", "MINIO_BUCKET")

	// Tracing
	viper.BindEnv("tracing.enabled", "TRACING_ENABLED")
	viper.BindEnv("tracing.collector_endpoint", "TRACING_COLLECTOR_ENDPOINT")

	// Certificate
	viper.BindEnv("certificate.public_base_url", "CERTIFICATE_PUBLIC_BASE_URL")

	if err := viper.ReadInConfig(); err != nil {
		return nil, err
	}

	var cfg Config
	if err := viper.Unmarshal(&cfg); err != nil {
		return nil, err
	}

	cfg.JWT.ExpireTime = cfg.JWT.ExpireTime * time.Hour
	if cfg.JWT.GuestExpireTime <= 0 {
		cfg.JWT.GuestExpireTime = 3
	}
	cfg.JWT.GuestExpireTime = cfg.JWT.GuestExpireTime * time.Hour

	if cfg.Quiz.PassThreshold <= 0 {
		cfg.Quiz.PassThreshold = 60
	}
	if cfg.Quiz.StartCountdownSeconds <= 0 {
		cfg.Quiz.StartCountdownSeconds = 3
	}
	if cfg.Quiz.SessionTTLMinutes <= 0 {
		cfg.Quiz.SessionTTLMinutes = 120
	}
	if cfg.Certificate.ScoreThreshold <= 0 {
		cfg.Certificate.ScoreThreshold = 80
	}
	if cfg.Certificate.Issuer == "" {
		cfg.Certificate.Issuer = "Accounting Academy"
	}
	if cfg.Timer.CheckpointSeconds <= 0 {
		cfg.Timer.CheckpointSeconds = 30
	}

	if cfg.Server.Mode == "release" && len(cfg.JWT.Secret) < 32 {
		return nil, fmt.Errorf("JWT secret is too short (%d chars), must be at least 32 characters in release mode", len(cfg.JWT.Secret))
	}

	if cfg.Storage.Type == "local" {
		if _, err := os.Stat(cfg.Storage.LocalPath); os.IsNotExist(err) {
			os.MkdirAll(cfg.Storage.LocalPath, 0755)
		}
	}

	return &cfg, nil
}
