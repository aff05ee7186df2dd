package consensus

import "errors"

var (
	// ErrInvalidSignature indicates an attestation that fails verification
	// against its own fields.
	ErrInvalidSignature = errors.New("attestation signature does not verify")
	// ErrMissingPublicKey indicates a submission without an operator key.
	ErrMissingPublicKey = errors.New("submission missing operator public key")
)
