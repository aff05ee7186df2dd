package signing

import "errors"

var (
	// ErrInvalidKeyLength indicates a signing key of the wrong size.
	ErrInvalidKeyLength = errors.New("invalid signing key length")
	// ErrNoFields indicates an attempt to sign an empty field tuple.
	ErrNoFields = errors.New("no fields to sign")
)
