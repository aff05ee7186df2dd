package config

// Validate checks that all required secrets and endpoints are present.
// A failure here must abort startup before any task can run.
func Validate(cfg *Config) error {
	if cfg.Server.BearerSecret == "" {
		return ErrMissingBearerSecret
	}
	if cfg.Redis.Addr == "" {
		return ErrMissingRedisAddr
	}
	if cfg.IPFS.JWT == "" {
		return ErrMissingIPFSJWT
	}
	if cfg.IPFS.Gateway == "" {
		return ErrMissingIPFSGateway
	}
	if cfg.Signing.PrivateKey == "" {
		return ErrMissingSigningKey
	}
	if cfg.Settlement.Enabled && cfg.Settlement.URL == "" {
		return ErrMissingSettlementURL
	}
	if cfg.Aggregator.MADThreshold < 0 {
		return ErrInvalidMADThreshold
	}
	return nil
}
