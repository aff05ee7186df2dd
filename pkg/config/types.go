package config

import "time"

// Config is the root configuration structure.
type Config struct {
	Server      ServerConfig      `yaml:"server"`
	Redis       RedisConfig       `yaml:"redis"`
	IPFS        IPFSConfig        `yaml:"ipfs"`
	ObjectStore ObjectStoreConfig `yaml:"object_store"`
	Fetcher     FetcherConfig     `yaml:"fetcher"`
	Aggregator  AggregatorConfig  `yaml:"aggregator"`
	Signing     SigningConfig     `yaml:"signing"`
	Settlement  SettlementConfig  `yaml:"settlement"`
	Scheduler   SchedulerConfig   `yaml:"scheduler"`
	Metrics     MetricsConfig     `yaml:"metrics"`
	Logging     LoggingConfig     `yaml:"logging"`
}

// ServerConfig configures the job-trigger HTTP server.
type ServerConfig struct {
	Addr         string   `yaml:"addr"`
	BearerSecret string   `yaml:"bearer_secret"` // required; task endpoints reject without it
	CORSOrigins  []string `yaml:"cors_origins"`
}

// RedisConfig configures the cache service client.
type RedisConfig struct {
	Addr     string `yaml:"addr"`
	Password string `yaml:"password"`
	DB       int    `yaml:"db"`
}

// IPFSConfig configures the content-addressed store client.
type IPFSConfig struct {
	APIURL  string `yaml:"api_url"` // pinning service REST endpoint
	JWT     string `yaml:"jwt"`     // pinning service bearer token
	Gateway string `yaml:"gateway"` // public gateway host, e.g. gateway.pinata.cloud
}

// ObjectStoreConfig configures the secondary object-store fallback.
type ObjectStoreConfig struct {
	BaseURL string `yaml:"base_url"`
	Bucket  string `yaml:"bucket"`
}

// FetcherConfig configures the multi-provider quote fetcher.
type FetcherConfig struct {
	Timeout Duration          `yaml:"timeout"`
	APIKeys map[string]string `yaml:"api_keys"` // auth header name -> secret
}

// AggregatorConfig configures the robust statistical aggregator.
type AggregatorConfig struct {
	MADThreshold float64 `yaml:"mad_threshold"`
}

// SigningConfig configures the local attestation signer.
type SigningConfig struct {
	PrivateKey string `yaml:"private_key"` // hex-encoded ed25519 seed
}

// SettlementConfig configures the opaque proof settlement service.
type SettlementConfig struct {
	Enabled bool   `yaml:"enabled"`
	URL     string `yaml:"url"`
	Secret  string `yaml:"secret"`
	Chain   string `yaml:"chain"` // settlement-target chain identifier
}

// SchedulerConfig configures the orchestration cycle.
type SchedulerConfig struct {
	CycleInterval Duration `yaml:"cycle_interval"`
}

// MetricsConfig configures Prometheus metrics.
type MetricsConfig struct {
	Enabled bool   `yaml:"enabled"`
	Addr    string `yaml:"addr"`
}

// LoggingConfig configures logging.
type LoggingConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
	Output string `yaml:"output"`
}

// Duration is a wrapper around time.Duration for YAML parsing.
type Duration time.Duration

// UnmarshalYAML implements yaml.Unmarshaler.
func (d *Duration) UnmarshalYAML(unmarshal func(interface{}) error) error {
	var s string
	if err := unmarshal(&s); err != nil {
		return err
	}
	td, err := time.ParseDuration(s)
	if err != nil {
		return err
	}
	*d = Duration(td)
	return nil
}

// ToDuration converts Duration to time.Duration.
func (d Duration) ToDuration() time.Duration {
	return time.Duration(d)
}
