// Package snapshot maintains the rolling historical archive as a
// content-addressed object.
//
// Mutation is publish-new-then-retire-old, never in-place: the previous
// pointer stays authoritative until the freshly published object has been
// re-fetched through the public gateway and structurally validated.
package snapshot

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/Doot-Foundation/doot-oracle/pkg/cache"
	"github.com/Doot-Foundation/doot-oracle/pkg/logging"
	"github.com/Doot-Foundation/doot-oracle/pkg/metrics"
	"github.com/Doot-Foundation/doot-oracle/pkg/oracle/aggregator"
	"github.com/Doot-Foundation/doot-oracle/pkg/oracle/token"
)

const (
	fetchAttempts   = 3
	defaultBackoff  = time.Second
	maxBackoffDelay = 10 * time.Second

	// pointerObjectName is the explicit pointer-file candidate in the
	// fallback object store; content-address-named objects come after it.
	pointerObjectName = "snapshot-latest.json"
)

// Payload is the merged latest+historical snapshot shape.
type Payload struct {
	Latest     Latest                                            `json:"latest"`
	Historical map[string]map[token.Token]aggregator.AggregatedPrice `json:"historical"`
}

// Latest holds the most recent per-token prices.
type Latest struct {
	Prices map[token.Token]aggregator.AggregatedPrice `json:"prices"`
}

// Valid reports whether the payload has the expected top-level shape.
func (p *Payload) Valid() bool {
	return p.Latest.Prices != nil && p.Historical != nil
}

func emptyPayload() Payload {
	return Payload{
		Latest:     Latest{Prices: make(map[token.Token]aggregator.AggregatedPrice)},
		Historical: make(map[string]map[token.Token]aggregator.AggregatedPrice),
	}
}

// Store drives the publish/verify/retire lifecycle for one logical archive.
type Store struct {
	cache      cache.Store
	ipfs       IPFS
	objects    ObjectStore
	bucket     string
	pointerKey string
	metaName   string
	backoff    time.Duration
	logger     *logging.Logger
}

// New creates a snapshot store. pointerKey is the cache key holding the
// archive's current content address; metaName labels published objects.
func New(cacheStore cache.Store, ipfs IPFS, objects ObjectStore, bucket, pointerKey, metaName string, logger *logging.Logger) *Store {
	return &Store{
		cache:      cacheStore,
		ipfs:       ipfs,
		objects:    objects,
		bucket:     bucket,
		pointerKey: pointerKey,
		metaName:   metaName,
		backoff:    defaultBackoff,
		logger:     logger,
	}
}

// Publish merges newPerTokenData into the archive and advances the pointer.
//
// Steps: resolve previous payload, merge (historical accumulates, latest
// replaces per token), publish, re-fetch through the gateway and validate,
// and only then retire the previous pointer. A failed verification aborts
// the publish with the old pointer untouched; a failed retirement is logged
// and ignored.
func (s *Store) Publish(ctx context.Context, newPerTokenData map[token.Token]aggregator.AggregatedPrice) (string, error) {
	if len(newPerTokenData) == 0 {
		return "", ErrNothingToPublish
	}

	prev, err := s.currentPointer(ctx)
	if err != nil {
		return "", err
	}

	payload := emptyPayload()
	if prev != "" {
		resolved, err := s.resolve(ctx, prev)
		if err != nil {
			metrics.RecordSnapshotPublish("error")
			return "", fmt.Errorf("resolve previous snapshot %s: %w", prev, err)
		}
		payload = resolved
	}

	merge(&payload, newPerTokenData)

	raw, err := json.Marshal(payload)
	if err != nil {
		return "", fmt.Errorf("encode snapshot: %w", err)
	}

	candidate, err := s.ipfs.Publish(ctx, raw, s.metaName)
	if err != nil {
		metrics.RecordSnapshotPublish("error")
		return "", fmt.Errorf("publish snapshot: %w", err)
	}

	if err := s.verify(ctx, candidate); err != nil {
		metrics.RecordSnapshotPublish("verify_failed")
		return "", fmt.Errorf("%w: %v", ErrVerificationFailed, err)
	}

	if prev != "" && prev != candidate {
		if err := s.ipfs.Unpin(ctx, prev); err != nil {
			// Retirement is best-effort; the new pointer is already durable.
			s.logger.Warn("Failed to retire previous snapshot pointer",
				"cid", prev, "error", err.Error())
		}
	}

	if err := s.cache.Set(ctx, s.pointerKey, []byte(candidate)); err != nil {
		metrics.RecordSnapshotPublish("error")
		return "", fmt.Errorf("store snapshot pointer: %w", err)
	}

	metrics.RecordSnapshotPublish("ok")
	s.logger.Info("Published snapshot",
		"cid", candidate,
		"previous", prev,
		"tokens", len(newPerTokenData))

	return candidate, nil
}

// GetHistoricalInfo resolves the archive's current payload, falling back to
// the secondary object store when the content-addressed network is down.
func (s *Store) GetHistoricalInfo(ctx context.Context) (Payload, string, error) {
	pointer, err := s.currentPointer(ctx)
	if err != nil {
		return Payload{}, "", err
	}
	if pointer == "" {
		return Payload{}, "", ErrNoSnapshot
	}

	payload, err := s.resolve(ctx, pointer)
	if err != nil {
		return Payload{}, "", err
	}
	return payload, pointer, nil
}

// currentPointer reads the archive pointer; a missing key means no snapshot
// has ever been published.
func (s *Store) currentPointer(ctx context.Context) (string, error) {
	raw, err := s.cache.Get(ctx, s.pointerKey)
	if err != nil {
		if isNotFound(err) {
			return "", nil
		}
		return "", fmt.Errorf("read snapshot pointer: %w", err)
	}
	return string(raw), nil
}

// verify re-fetches the just-published object through the public gateway and
// checks its top-level shape. The pointer is not advanced without this.
func (s *Store) verify(ctx context.Context, cid string) error {
	raw, err := s.ipfs.Fetch(ctx, cid)
	if err != nil {
		return err
	}

	var payload Payload
	if err := json.Unmarshal(raw, &payload); err != nil {
		return fmt.Errorf("decode published snapshot: %w", err)
	}
	if !payload.Valid() {
		return ErrMalformedSnapshot
	}
	return nil
}

// resolve fetches a pointer's payload: primary gateway with exponential
// backoff, then the fallback object store over its candidate paths.
func (s *Store) resolve(ctx context.Context, cid string) (Payload, error) {
	delay := s.backoff
	var lastErr error

	for attempt := 1; attempt <= fetchAttempts; attempt++ {
		raw, err := s.ipfs.Fetch(ctx, cid)
		if err == nil {
			var payload Payload
			if err := json.Unmarshal(raw, &payload); err == nil && payload.Valid() {
				return payload, nil
			}
			lastErr = ErrMalformedSnapshot
		} else {
			lastErr = err
		}

		if attempt < fetchAttempts {
			select {
			case <-time.After(delay):
			case <-ctx.Done():
				return Payload{}, ctx.Err()
			}
			delay *= 2
			if delay > maxBackoffDelay {
				delay = maxBackoffDelay
			}
		}
	}

	s.logger.Warn("Primary snapshot fetch exhausted, trying object store",
		"cid", cid, "error", lastErr.Error())

	payload, err := s.resolveFallback(ctx, cid)
	if err != nil {
		return Payload{}, fmt.Errorf("%w (primary: %v)", err, lastErr)
	}
	metrics.RecordSnapshotFallbackRead()
	return payload, nil
}

// resolveFallback walks the ordered candidate list in the object store; the
// first structurally valid payload wins, exhaustion is a hard failure.
func (s *Store) resolveFallback(ctx context.Context, cid string) (Payload, error) {
	candidates := []string{pointerObjectName, cid + ".json"}

	for _, path := range candidates {
		raw, err := s.objects.GetObject(ctx, s.bucket, path)
		if err != nil {
			s.logger.Debug("Fallback candidate miss", "path", path, "error", err.Error())
			continue
		}

		var payload Payload
		if err := json.Unmarshal(raw, &payload); err != nil || !payload.Valid() {
			s.logger.Debug("Fallback candidate malformed", "path", path)
			continue
		}
		return payload, nil
	}

	return Payload{}, ErrFallbackExhausted
}

// merge folds fresh per-token prices into the payload: the latest entries
// replace per token, the historical entries accumulate under the cycle
// timestamp.
func merge(payload *Payload, fresh map[token.Token]aggregator.AggregatedPrice) {
	bucket := strconv.FormatInt(time.Now().Unix(), 10)
	if payload.Historical[bucket] == nil {
		payload.Historical[bucket] = make(map[token.Token]aggregator.AggregatedPrice, len(fresh))
	}
	for t, price := range fresh {
		payload.Latest.Prices[t] = price
		payload.Historical[bucket][t] = price
	}
}

func isNotFound(err error) bool {
	return errors.Is(err, cache.ErrNotFound)
}
