package config

import (
	"fmt"
	"os"
	"time"

	"github.com/spf13/viper"
)

type Config struct {
	Server    ServerConfig
	Database  DatabaseConfig
	Redis     RedisConfig
	JWT       JWTConfig
	Auth      AuthConfig
	Storage   StorageConfig
	Tracing   TracingConfig `mapstructure:"tracing"`
	AI        AIConfig
	Forecast  ForecastConfig
	Analysis  AnalysisConfig
	CORS      CORSConfig      `mapstructure:"cors"`
	RateLimit RateLimitConfig `mapstructure:"rate_limit"`

	// 运行时标志（非配置文件，通过命令行参数设置）
	MigrateOnly bool `mapstructure:"-"`
}

type CORSConfig struct {
	AllowedOrigins []string `mapstructure:"allowed_origins"`
}

type RateLimitConfig struct {
	MaxRequests   int `mapstructure:"max_requests"`
	WindowMinutes int `mapstructure:"window_minutes"`
}

type AIConfig struct {
	BaseURL string        `mapstructure:"base_url"`
	APIKey  string        `mapstructure:"api_key"`
	Model   string        `mapstructure:"model"`
	Timeout time.Duration `mapstructure:"timeout"`
}

// ForecastConfig 外部预测服务
type ForecastConfig struct {
	Endpoint string        `mapstructure:"endpoint"`
	Horizon  int           `mapstructure:"horizon"`
	Timeout  time.Duration `mapstructure:"timeout"`
	// 本地 /forecast 端点的噪声比例，0 表示关闭
	NoiseScale float64 `mapstructure:"noise_scale"`
	// 本地 /forecast 端点允许的最大 periods
	MaxPeriods int `mapstructure:"max_periods"`
}

type AnalysisConfig struct {
	InsightCacheTTL time.Duration `mapstructure:"insight_cache_ttl"`
	MaxUploadMB     int64         `mapstructure:"max_upload_mb"`
}

type ServerConfig struct {
	Port string
	Mode string
}

type DatabaseConfig struct {
	Enabled   bool
	Host      string
	Port      int
	User      string
	Password  string
	DBName    string
	Charset   string
	ParseTime bool
}

type JWTConfig struct {
	Secret     string        `mapstructure:"secret"`
	ExpireTime time.Duration `mapstructure:"expire_hours"`
}

// AuthConfig 操作员登录，密码以 bcrypt 哈希形式保存
type AuthConfig struct {
	Enabled      bool   `mapstructure:"enabled"`
	Username     string `mapstructure:"username"`
	PasswordHash string `mapstructure:"password_hash"`
}

type StorageConfig struct {
	Type          string `mapstructure:"type"`
	LocalPath     string `mapstructure:"local_path"`
	MinioEndpoint string `mapstructure:"minio_endpoint"`
	MinioAccessID string `mapstructure:"minio_access_key"`
	MinioSecret   string `mapstructure:"minio_secret_key"`
	MinioBucket   string `mapstructure:"minio_bucket"`
	OSSEndpoint   string `mapstructure:"oss_endpoint"`
	OSSAccessKey  string `mapstructure:"oss_access_key"`
	OSSSecretKey  string `mapstructure:"oss_secret_key"`
	OSSBucket     string `mapstructure:"oss_bucket"`
}

type TracingConfig struct {
	Enabled           bool   `mapstructure:"enabled"`
	CollectorEndpoint string `mapstructure:"collector_endpoint"`
}

type RedisConfig struct {
	Enabled  bool
	Host     string
	Port     int
	Password string
	DB       int
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("server.port", "8080")
	v.SetDefault("server.mode", "debug")
	v.SetDefault("forecast.endpoint", "http://localhost:5000/forecast")
	v.SetDefault("forecast.horizon", 30)
	v.SetDefault("forecast.timeout", 15*time.Second)
	v.SetDefault("forecast.max_periods", 365)
	v.SetDefault("ai.base_url", "https://api.openai.com/v1")
	v.SetDefault("ai.model", "gpt-4o-mini")
	v.SetDefault("ai.timeout", 30*time.Second)
	v.SetDefault("analysis.insight_cache_ttl", 24*time.Hour)
	v.SetDefault("analysis.max_upload_mb", 20)
	v.SetDefault("storage.type", "local")
	v.SetDefault("storage.local_path", "uploads")
	v.SetDefault("jwt.expire_hours", 24)
	v.SetDefault("rate_limit.max_requests", 600)
	v.SetDefault("rate_limit.window_minutes", 1)
}

func LoadConfig(path string) (*Config, error) {
	v := viper.New()
	v.AddConfigPath(path)
	v.SetConfigName("config")
	v.SetConfigType("yaml")

	v.SetEnvPrefix("STUDENT_RISK")
	v.AutomaticEnv()
	setDefaults(v)

	// Database
	v.BindEnv("database.host", "DATABASE_HOST")
	v.BindEnv("database.port", "DATABASE_PORT")
	v.BindEnv("database.user", "DATABASE_USER")
	v.BindEnv("database.password", "DATABASE_PASSWORD")
	v.BindEnv("database.dbname", "DATABASE_NAME")

	// JWT
	v.BindEnv("jwt.secret", "JWT_SECRET")
	v.BindEnv("auth.password_hash", "AUTH_PASSWORD_HASH")

	// Redis
	v.BindEnv("redis.host", "REDIS_HOST")
	v.BindEnv("redis.port", "REDIS_PORT")
	v.BindEnv("redis.password", "REDIS_PASSWORD")

	// Server
	v.BindEnv("server.mode", "SERVER_MODE")

	// AI
	v.BindEnv("ai.base_url", "AI_BASE_URL")
	v.BindEnv("ai.api_key", "AI_API_KEY")
	v.BindEnv("ai.model", "AI_MODEL")

	// Forecast
	v.BindEnv("forecast.endpoint", "FORECAST_ENDPOINT")

	// Storage
	v.BindEnv("storage.type", "STORAGE_TYPE")
	v.BindEnv("storage.oss_endpoint", "OSS_ENDPOINT")
	v.BindEnv("storage.oss_access_key", "OSS_ACCESS_KEY")
	v.BindEnv("storage.oss_secret_key", "OSS_SECRET_KEY")
	v.BindEnv("storage.oss_bucket", "OSS_BUCKET")
	v.BindEnv("storage.minio_endpoint", "MINIO_ENDPOINT")
	v.BindEnv("storage.minio_access_key", "MINIO_ACCESS_KEY")
	v.BindEnv("storage.minio_secret_key", "MINIO_SECRET_KEY")
	v.BindEnv("storage.minio_bucket", "MINIO_BUCKET")

	// Tracing
	v.BindEnv("tracing.enabled", "TRACING_ENABLED")
	v.BindEnv("tracing.collector_endpoint", "TRACING_COLLECTOR_ENDPOINT")

	if err := v.ReadInConfig(); err != nil {
		return nil, err
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, err
	}

	cfg.JWT.ExpireTime = cfg.JWT.ExpireTime * time.Hour

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	if cfg.Storage.Type == "local" {
		if _, err := os.Stat(cfg.Storage.LocalPath); os.IsNotExist(err) {
			os.MkdirAll(cfg.Storage.LocalPath, 0755)
		}
	}

	return &cfg, nil
}

// Validate 生产环境下的必要校验
func (c *Config) Validate() error {
	if c.Server.Mode == "release" && len(c.JWT.Secret) < 32 {
		return fmt.Errorf("JWT secret is too short (%d chars), must be at least 32 characters in release mode", len(c.JWT.Secret))
	}
	if c.Auth.Enabled && c.Auth.PasswordHash == "" {
		return fmt.Errorf("auth is enabled but auth.password_hash is empty")
	}
	if c.Forecast.Horizon <= 0 {
		return fmt.Errorf("forecast.horizon must be positive, got %d", c.Forecast.Horizon)
	}
	if c.Forecast.MaxPeriods > 0 && c.Forecast.Horizon > c.Forecast.MaxPeriods {
		return fmt.Errorf("forecast.horizon (%d) exceeds forecast.max_periods (%d)", c.Forecast.Horizon, c.Forecast.MaxPeriods)
	}
	return nil
}
