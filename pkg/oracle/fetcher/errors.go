package fetcher

import "errors"

var (
	// ErrRequestFailed indicates a transport-level failure or timeout.
	ErrRequestFailed = errors.New("provider request failed")
	// ErrUnexpectedStatus indicates a non-2xx HTTP status code.
	ErrUnexpectedStatus = errors.New("unexpected HTTP status code")
	// ErrMissingPriceField indicates the declared response path matched nothing.
	ErrMissingPriceField = errors.New("price field missing from response")
	// ErrMalformedPrice indicates a price field that is not a positive number.
	ErrMalformedPrice = errors.New("malformed price field")
)
