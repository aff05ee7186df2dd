package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	return path
}

func validConfig() *Config {
	return &Config{
		Server: ServerConfig{BearerSecret: "secret"},
		Redis:  RedisConfig{Addr: "localhost:6379"},
		IPFS: IPFSConfig{
			JWT:     "jwt-token",
			Gateway: "gateway.pinata.cloud",
		},
		Signing:    SigningConfig{PrivateKey: "aa"},
		Aggregator: AggregatorConfig{MADThreshold: 2.0},
	}
}

func TestLoadExpandsEnvironment(t *testing.T) {
	t.Setenv("TEST_BEARER_SECRET", "from-env")

	path := writeConfig(t, `
server:
  bearer_secret: "${TEST_BEARER_SECRET}"
redis:
  addr: "localhost:6379"
`)

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "from-env", cfg.Server.BearerSecret)
	assert.Equal(t, "localhost:6379", cfg.Redis.Addr)
}

func TestLoadAppliesDefaults(t *testing.T) {
	path := writeConfig(t, `
redis:
  addr: "localhost:6379"
metrics:
  enabled: true
`)

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, ":8080", cfg.Server.Addr)
	assert.Equal(t, 15*time.Second, cfg.Fetcher.Timeout.ToDuration())
	assert.Equal(t, 2.0, cfg.Aggregator.MADThreshold)
	assert.Equal(t, 20*time.Minute, cfg.Scheduler.CycleInterval.ToDuration())
	assert.Equal(t, "https://api.pinata.cloud", cfg.IPFS.APIURL)
	assert.Equal(t, ":9091", cfg.Metrics.Addr)
	assert.Equal(t, "info", cfg.Logging.Level)
	assert.Equal(t, "json", cfg.Logging.Format)
	assert.Equal(t, "stdout", cfg.Logging.Output)
}

func TestLoadParsesDurations(t *testing.T) {
	path := writeConfig(t, `
fetcher:
  timeout: "30s"
scheduler:
  cycle_interval: "10m"
`)

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, 30*time.Second, cfg.Fetcher.Timeout.ToDuration())
	assert.Equal(t, 10*time.Minute, cfg.Scheduler.CycleInterval.ToDuration())
}

func TestLoadParsesAPIKeys(t *testing.T) {
	path := writeConfig(t, `
fetcher:
  api_keys:
    X-CMC_PRO_API_KEY: "cmc-key"
    "bearer:coincap": "coincap-key"
`)

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "cmc-key", cfg.Fetcher.APIKeys["X-CMC_PRO_API_KEY"])
	assert.Equal(t, "coincap-key", cfg.Fetcher.APIKeys["bearer:coincap"])
}

func TestLoadMissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "nope.yaml"))
	assert.Error(t, err)
}

func TestLoadMalformedYAML(t *testing.T) {
	path := writeConfig(t, "server: [not a mapping")
	_, err := Load(path)
	assert.Error(t, err)
}

func TestValidateAcceptsCompleteConfig(t *testing.T) {
	assert.NoError(t, Validate(validConfig()))
}

func TestValidateRequiredFields(t *testing.T) {
	cases := []struct {
		name   string
		mutate func(*Config)
		want   error
	}{
		{"bearer secret", func(c *Config) { c.Server.BearerSecret = "" }, ErrMissingBearerSecret},
		{"redis addr", func(c *Config) { c.Redis.Addr = "" }, ErrMissingRedisAddr},
		{"ipfs jwt", func(c *Config) { c.IPFS.JWT = "" }, ErrMissingIPFSJWT},
		{"ipfs gateway", func(c *Config) { c.IPFS.Gateway = "" }, ErrMissingIPFSGateway},
		{"signing key", func(c *Config) { c.Signing.PrivateKey = "" }, ErrMissingSigningKey},
		{"settlement url", func(c *Config) { c.Settlement.Enabled = true }, ErrMissingSettlementURL},
		{"mad threshold", func(c *Config) { c.Aggregator.MADThreshold = -1 }, ErrInvalidMADThreshold},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			cfg := validConfig()
			tc.mutate(cfg)
			assert.ErrorIs(t, Validate(cfg), tc.want)
		})
	}
}
