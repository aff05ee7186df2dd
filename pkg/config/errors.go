package config

import "errors"

var (
	// ErrMissingBearerSecret indicates the task-trigger bearer secret is not set.
	ErrMissingBearerSecret = errors.New("server.bearer_secret is required")
	// ErrMissingRedisAddr indicates the cache service address is not set.
	ErrMissingRedisAddr = errors.New("redis.addr is required")
	// ErrMissingIPFSJWT indicates the pinning service token is not set.
	ErrMissingIPFSJWT = errors.New("ipfs.jwt is required")
	// ErrMissingIPFSGateway indicates the public gateway host is not set.
	ErrMissingIPFSGateway = errors.New("ipfs.gateway is required")
	// ErrMissingSigningKey indicates the attestation signing key is not set.
	ErrMissingSigningKey = errors.New("signing.private_key is required")
	// ErrMissingSettlementURL indicates settlement is enabled without an endpoint.
	ErrMissingSettlementURL = errors.New("settlement.url is required when settlement is enabled")
	// ErrInvalidMADThreshold indicates a non-positive outlier threshold.
	ErrInvalidMADThreshold = errors.New("aggregator.mad_threshold must be positive")
)
