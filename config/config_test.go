package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// chdirTemp keeps a developer's .env out of the test.
func chdirTemp(t *testing.T) {
	t.Helper()
	wd, err := os.Getwd()
	require.NoError(t, err)
	require.NoError(t, os.Chdir(t.TempDir()))
	t.Cleanup(func() { _ = os.Chdir(wd) })
}

func TestLoad_Defaults(t *testing.T) {
	chdirTemp(t)

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "8080", cfg.Server.Port)
	assert.Equal(t, 0.2, cfg.Training.TestRatio)
	assert.Equal(t, 1000, cfg.Training.Trials)
	assert.Equal(t, 6000000, cfg.Training.PriceCeiling)
	assert.Equal(t, 24*time.Hour, cfg.Redis.CacheTTL)
	assert.Equal(t, "pgx", cfg.Database.Driver)
	assert.False(t, cfg.Database.Enabled())
	assert.False(t, cfg.Redis.Enabled())
	assert.Empty(t, cfg.Warnings)
}

func TestLoad_EnvOverrides(t *testing.T) {
	chdirTemp(t)
	t.Setenv("PORT", "9090")
	t.Setenv("DATABASE_URL", "postgres://u:p@localhost:5432/carprice")
	t.Setenv("REDIS_ADDR", "localhost:6379")
	t.Setenv("PREDICTION_CACHE_TTL", "30m")
	t.Setenv("TRAIN_TRIALS", "50")
	t.Setenv("TRAIN_TEST_RATIO", "0.25")
	t.Setenv("CORS_ORIGINS", "http://localhost:3000, https://cars.example.com")
	t.Setenv("TRUSTED_PROXIES", "10.0.0.0/8")
	t.Setenv("RETRAIN_SCHEDULE", "0 0 3 * * *")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "9090", cfg.Server.Port)
	assert.True(t, cfg.Database.Enabled())
	assert.True(t, cfg.Redis.Enabled())
	assert.Equal(t, 30*time.Minute, cfg.Redis.CacheTTL)
	assert.Equal(t, 50, cfg.Training.Trials)
	assert.Equal(t, 0.25, cfg.Training.TestRatio)
	assert.Equal(t, []string{"http://localhost:3000", "https://cars.example.com"}, cfg.Server.CORSOrigins)
	assert.Equal(t, []string{"10.0.0.0/8"}, cfg.Server.TrustedProxies)
	assert.Equal(t, "0 0 3 * * *", cfg.Training.RetrainSchedule)
}

func TestLoad_ConfigFileThenEnv(t *testing.T) {
	chdirTemp(t)
	path := filepath.Join(t.TempDir(), "config.yml")
	require.NoError(t, os.WriteFile(path, []byte(`
server:
  port: "7000"
redis:
  addr: cache:6379
  cache_ttl: 2h
training:
  trials: 200
  price_ceiling: 5000000
app:
  environment: production
`), 0o644))
	t.Setenv("CONFIG_FILE", path)
	t.Setenv("TRAIN_TRIALS", "300")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "7000", cfg.Server.Port)
	assert.Equal(t, "cache:6379", cfg.Redis.Addr)
	assert.Equal(t, 2*time.Hour, cfg.Redis.CacheTTL)
	assert.Equal(t, 300, cfg.Training.Trials)
	assert.Equal(t, 5000000, cfg.Training.PriceCeiling)
	assert.Equal(t, "production", cfg.App.Environment)
	assert.Equal(t, 0.2, cfg.Training.TestRatio, "keys absent from the file keep their defaults")
}

func TestLoad_BadConfigFile(t *testing.T) {
	chdirTemp(t)
	t.Setenv("CONFIG_FILE", filepath.Join(t.TempDir(), "missing.yml"))

	_, err := Load()
	assert.Error(t, err)
}

func TestLoad_InvalidEnvFallsBackWithWarning(t *testing.T) {
	chdirTemp(t)
	t.Setenv("TRAIN_TRIALS", "many")
	t.Setenv("PREDICTION_CACHE_TTL", "tomorrow")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, 1000, cfg.Training.Trials)
	assert.Equal(t, 24*time.Hour, cfg.Redis.CacheTTL)
	assert.Len(t, cfg.Warnings, 2)
}

func TestValidate(t *testing.T) {
	cases := map[string]func(c *Config){
		"empty port":      func(c *Config) { c.Server.Port = "" },
		"bad port":        func(c *Config) { c.Server.Port = "http" },
		"unknown driver":  func(c *Config) { c.Database.Driver = "mysql" },
		"ratio too large": func(c *Config) { c.Training.TestRatio = 1 },
		"ratio zero":      func(c *Config) { c.Training.TestRatio = 0 },
		"no trials":       func(c *Config) { c.Training.Trials = 0 },
		"no ceiling":      func(c *Config) { c.Training.PriceCeiling = 0 },
		"no artifact":     func(c *Config) { c.Training.ArtifactPath = "" },
		"negative rps":    func(c *Config) { c.RateLimit.RPS = -1 },
		"zero burst":      func(c *Config) { c.RateLimit.Burst = 0 },
	}
	for name, mutate := range cases {
		t.Run(name, func(t *testing.T) {
			c := defaults()
			mutate(c)
			assert.Error(t, c.Validate())
		})
	}

	assert.NoError(t, defaults().Validate())
}
