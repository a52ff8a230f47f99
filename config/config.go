package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

type Config struct {
	Server    ServerConfig    `yaml:"server"`
	Database  DatabaseConfig  `yaml:"database"`
	Redis     RedisConfig     `yaml:"redis"`
	Training  TrainingConfig  `yaml:"training"`
	App       AppConfig       `yaml:"app"`
	RateLimit RateLimitConfig `yaml:"rate_limit"`

	// Warnings lists environment values that could not be parsed and were
	// replaced by their defaults.
	Warnings []string `yaml:"-"`
}

// ServerConfig configures the HTTP server. TrustedProxies lists the proxy
// addresses or CIDRs whose X-Forwarded-For is believed; empty means the peer
// address is the client.
type ServerConfig struct {
	Port            string        `yaml:"port"`
	ShutdownTimeout time.Duration `yaml:"shutdown_timeout"`
	CORSOrigins     []string      `yaml:"cors_origins"`
	TrustedProxies  []string      `yaml:"trusted_proxies"`
}

// DatabaseConfig points at the training run registry. The registry is
// disabled when neither URL nor Host is set.
type DatabaseConfig struct {
	URL          string `yaml:"url"`
	Driver       string `yaml:"driver"`
	Host         string `yaml:"host"`
	Port         int    `yaml:"port"`
	User         string `yaml:"user"`
	Password     string `yaml:"password"`
	Name         string `yaml:"name"`
	MaxOpenConns int    `yaml:"max_open_conns"`
	MaxIdleConns int    `yaml:"max_idle_conns"`
}

func (d DatabaseConfig) Enabled() bool {
	return d.URL != "" || d.Host != ""
}

// RedisConfig points at the prediction cache. The cache is disabled when
// Addr is empty.
type RedisConfig struct {
	Addr     string        `yaml:"addr"`
	Password string        `yaml:"password"`
	DB       int           `yaml:"db"`
	CacheTTL time.Duration `yaml:"cache_ttl"`
}

func (r RedisConfig) Enabled() bool {
	return r.Addr != ""
}

type TrainingConfig struct {
	DatasetPath     string  `yaml:"dataset_path"`
	ArtifactPath    string  `yaml:"artifact_path"`
	CleanedPath     string  `yaml:"cleaned_path"`
	TestRatio       float64 `yaml:"test_ratio"`
	Trials          int     `yaml:"trials"`
	PriceCeiling    int     `yaml:"price_ceiling"`
	RetrainSchedule string  `yaml:"retrain_schedule"`
}

type AppConfig struct {
	Environment string `yaml:"environment"`
	LogLevel    string `yaml:"log_level"`
	Version     string `yaml:"version"`
}

type RateLimitConfig struct {
	RPS   float64 `yaml:"rps"`
	Burst int     `yaml:"burst"`
}

func defaults() *Config {
	return &Config{
		Server: ServerConfig{
			Port:            "8080",
			ShutdownTimeout: 10 * time.Second,
		},
		Database: DatabaseConfig{
			Driver:       "pgx",
			Port:         5432,
			User:         "postgres",
			Name:         "carprice",
			MaxOpenConns: 25,
			MaxIdleConns: 5,
		},
		Redis: RedisConfig{
			CacheTTL: 24 * time.Hour,
		},
		Training: TrainingConfig{
			DatasetPath:  "data/quikr_car.csv",
			ArtifactPath: "models/pipeline.cpp",
			TestRatio:    0.2,
			Trials:       1000,
			PriceCeiling: 6000000,
		},
		App: AppConfig{
			Environment: "development",
			LogLevel:    "info",
			Version:     "1.0.0",
		},
		RateLimit: RateLimitConfig{
			RPS:   10,
			Burst: 20,
		},
	}
}

// Load builds the configuration from defaults, then the YAML file named by
// CONFIG_FILE if set, then environment variables (a .env file is read
// first when present).
func Load() (*Config, error) {
	// .env is optional
	_ = godotenv.Load()

	cfg := defaults()
	if path := os.Getenv("CONFIG_FILE"); path != "" {
		if err := loadFile(path, cfg); err != nil {
			return nil, err
		}
	}
	cfg.applyEnv()

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

func loadFile(path string, cfg *Config) error {
	file, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("failed to open config file: %w", err)
	}
	defer file.Close()

	if err := yaml.NewDecoder(file).Decode(cfg); err != nil {
		return fmt.Errorf("failed to decode config file: %w", err)
	}
	return nil
}

func (c *Config) applyEnv() {
	c.Server.Port = getEnv("PORT", c.Server.Port)
	c.Server.ShutdownTimeout = c.getEnvAsDuration("SHUTDOWN_TIMEOUT", c.Server.ShutdownTimeout)
	if v := os.Getenv("CORS_ORIGINS"); v != "" {
		c.Server.CORSOrigins = splitList(v)
	}
	if v := os.Getenv("TRUSTED_PROXIES"); v != "" {
		c.Server.TrustedProxies = splitList(v)
	}

	c.Database.URL = getEnv("DATABASE_URL", c.Database.URL)
	c.Database.Driver = getEnv("DB_DRIVER", c.Database.Driver)
	c.Database.Host = getEnv("DB_HOST", c.Database.Host)
	c.Database.Port = c.getEnvAsInt("DB_PORT", c.Database.Port)
	c.Database.User = getEnv("DB_USER", c.Database.User)
	c.Database.Password = getEnv("DB_PASSWORD", c.Database.Password)
	c.Database.Name = getEnv("DB_NAME", c.Database.Name)
	c.Database.MaxOpenConns = c.getEnvAsInt("DB_MAX_OPEN_CONNS", c.Database.MaxOpenConns)
	c.Database.MaxIdleConns = c.getEnvAsInt("DB_MAX_IDLE_CONNS", c.Database.MaxIdleConns)

	c.Redis.Addr = getEnv("REDIS_ADDR", c.Redis.Addr)
	c.Redis.Password = getEnv("REDIS_PASSWORD", c.Redis.Password)
	c.Redis.DB = c.getEnvAsInt("REDIS_DB", c.Redis.DB)
	c.Redis.CacheTTL = c.getEnvAsDuration("PREDICTION_CACHE_TTL", c.Redis.CacheTTL)

	c.Training.DatasetPath = getEnv("DATASET_PATH", c.Training.DatasetPath)
	c.Training.ArtifactPath = getEnv("ARTIFACT_PATH", c.Training.ArtifactPath)
	c.Training.CleanedPath = getEnv("CLEANED_DATASET_PATH", c.Training.CleanedPath)
	c.Training.TestRatio = c.getEnvAsFloat("TRAIN_TEST_RATIO", c.Training.TestRatio)
	c.Training.Trials = c.getEnvAsInt("TRAIN_TRIALS", c.Training.Trials)
	c.Training.PriceCeiling = c.getEnvAsInt("PRICE_CEILING", c.Training.PriceCeiling)
	c.Training.RetrainSchedule = getEnv("RETRAIN_SCHEDULE", c.Training.RetrainSchedule)

	c.App.Environment = getEnv("APP_ENV", c.App.Environment)
	c.App.LogLevel = getEnv("LOG_LEVEL", c.App.LogLevel)
	c.App.Version = getEnv("APP_VERSION", c.App.Version)

	c.RateLimit.RPS = c.getEnvAsFloat("RATE_LIMIT_RPS", c.RateLimit.RPS)
	c.RateLimit.Burst = c.getEnvAsInt("RATE_LIMIT_BURST", c.RateLimit.Burst)
}

func (c *Config) Validate() error {
	if c.Server.Port == "" {
		return fmt.Errorf("PORT is required")
	}
	if port, err := strconv.Atoi(c.Server.Port); err != nil || port < 1 || port > 65535 {
		return fmt.Errorf("PORT must be a number between 1 and 65535, got %q", c.Server.Port)
	}

	if c.Database.Driver != "pgx" && c.Database.Driver != "postgres" {
		return fmt.Errorf("DB_DRIVER must be pgx or postgres, got %q", c.Database.Driver)
	}

	if !(c.Training.TestRatio > 0 && c.Training.TestRatio < 1) {
		return fmt.Errorf("TRAIN_TEST_RATIO must be between 0 and 1 (exclusive), got %v", c.Training.TestRatio)
	}
	if c.Training.Trials < 1 {
		return fmt.Errorf("TRAIN_TRIALS must be at least 1, got %d", c.Training.Trials)
	}
	if c.Training.PriceCeiling <= 0 {
		return fmt.Errorf("PRICE_CEILING must be positive, got %d", c.Training.PriceCeiling)
	}
	if c.Training.ArtifactPath == "" {
		return fmt.Errorf("ARTIFACT_PATH is required")
	}

	if c.RateLimit.RPS < 0 {
		return fmt.Errorf("RATE_LIMIT_RPS must not be negative")
	}
	if c.RateLimit.RPS > 0 && c.RateLimit.Burst < 1 {
		return fmt.Errorf("RATE_LIMIT_BURST must be at least 1 when rate limiting is enabled")
	}

	return nil
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func (c *Config) getEnvAsInt(key string, defaultValue int) int {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		return defaultValue
	}

	value, err := strconv.Atoi(valueStr)
	if err != nil {
		c.warnf("invalid integer for %s, using default: %d", key, defaultValue)
		return defaultValue
	}

	return value
}

func (c *Config) getEnvAsFloat(key string, defaultValue float64) float64 {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		return defaultValue
	}

	value, err := strconv.ParseFloat(valueStr, 64)
	if err != nil {
		c.warnf("invalid number for %s, using default: %v", key, defaultValue)
		return defaultValue
	}

	return value
}

func (c *Config) getEnvAsDuration(key string, defaultValue time.Duration) time.Duration {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		return defaultValue
	}

	value, err := time.ParseDuration(valueStr)
	if err != nil {
		c.warnf("invalid duration for %s, using default: %s", key, defaultValue)
		return defaultValue
	}

	return value
}

func (c *Config) warnf(format string, args ...interface{}) {
	c.Warnings = append(c.Warnings, fmt.Sprintf(format, args...))
}

func splitList(v string) []string {
	var out []string
	for _, s := range strings.Split(v, ",") {
		if s = strings.TrimSpace(s); s != "" {
			out = append(out, s)
		}
	}
	return out
}
