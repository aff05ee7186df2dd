package snapshot

import "errors"

var (
	// ErrNothingToPublish indicates a publish call with no per-token data.
	ErrNothingToPublish = errors.New("no per-token data to publish")
	// ErrPublishFailed indicates the pinning API rejected the payload.
	ErrPublishFailed = errors.New("snapshot publish failed")
	// ErrFetchFailed indicates the gateway could not serve a pointer.
	ErrFetchFailed = errors.New("snapshot fetch failed")
	// ErrVerificationFailed indicates the post-publish gateway check failed;
	// the previous pointer remains authoritative.
	ErrVerificationFailed = errors.New("snapshot verification failed")
	// ErrMalformedSnapshot indicates a payload without the expected shape.
	ErrMalformedSnapshot = errors.New("malformed snapshot payload")
	// ErrObjectNotFound indicates a missing object in the fallback store.
	ErrObjectNotFound = errors.New("object not found")
	// ErrFallbackExhausted indicates every fallback candidate failed.
	ErrFallbackExhausted = errors.New("all snapshot fallback candidates exhausted")
	// ErrNoSnapshot indicates no snapshot has ever been published.
	ErrNoSnapshot = errors.New("no snapshot published yet")
)
