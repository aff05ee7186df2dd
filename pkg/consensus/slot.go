// Package consensus tracks multi-operator endorsement slots per token.
//
// Independent operators submit signed attestations for a token; a slot
// accumulates them in a community map keyed by operator public key. A slot is
// promoted into a "max" cache only when its endorsement count strictly
// exceeds the incumbent's, so the published consensus value is never
// controlled by a single party and max-cache counts are monotonically
// non-decreasing.
package consensus

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/shopspring/decimal"

	"github.com/Doot-Foundation/doot-oracle/pkg/cache"
	"github.com/Doot-Foundation/doot-oracle/pkg/logging"
	"github.com/Doot-Foundation/doot-oracle/pkg/metrics"
	"github.com/Doot-Foundation/doot-oracle/pkg/oracle/aggregator"
	"github.com/Doot-Foundation/doot-oracle/pkg/oracle/attestor"
	"github.com/Doot-Foundation/doot-oracle/pkg/oracle/token"
)

// SlotRecord is the per-token consensus record. Community maps operator
// public keys to their signed attestations; resubmission by the same key
// overwrites rather than duplicates.
type SlotRecord struct {
	aggregator.AggregatedPrice
	Community map[string]attestor.SignedAttestation `json:"community"`
}

// Endorsements is the number of distinct public keys backing the slot.
func (r SlotRecord) Endorsements() int {
	return len(r.Community)
}

// Tracker applies endorsement submissions against the cache layer.
type Tracker struct {
	cache  cache.Store
	chain  string
	logger *logging.Logger
}

// New creates a tracker. chain identifies the settlement-target chain whose
// max cache is maintained alongside the historical one.
func New(cacheStore cache.Store, chain string, logger *logging.Logger) *Tracker {
	return &Tracker{cache: cacheStore, chain: chain, logger: logger}
}

// SubmitEndorsement folds one operator's attestation into the token's slot.
//
// The merge is computed fully in memory before any write, so a failed
// submission leaves no partial community-map mutation observable. The slot
// write and any triggered max-cache promotions fan out concurrently; this is
// an eventually-consistent cache layer, not a transactional ledger.
func (tr *Tracker) SubmitEndorsement(ctx context.Context, t token.Token, att attestor.SignedAttestation) error {
	if att.PublicKey == "" {
		metrics.RecordEndorsement(t.String(), "rejected")
		return ErrMissingPublicKey
	}
	if !attestor.Verify(att) {
		metrics.RecordEndorsement(t.String(), "rejected")
		return ErrInvalidSignature
	}

	slot, maxSlot, chainMax, err := tr.readState(ctx, t)
	if err != nil {
		metrics.RecordEndorsement(t.String(), "error")
		return err
	}

	merged := mergeSlot(t, slot, att)
	count := merged.Endorsements()

	writes := []write{{key: cache.KeySlot(t), record: merged}}
	if count > maxSlot.Endorsements() {
		writes = append(writes, write{key: cache.KeyMaxSlot(t), record: merged, promotion: "historical"})
	}
	if count > chainMax.Endorsements() {
		writes = append(writes, write{key: cache.KeyChainMaxSlot(tr.chain, t), record: merged, promotion: tr.chain})
	}

	if err := tr.fanOutWrites(ctx, t, writes); err != nil {
		metrics.RecordEndorsement(t.String(), "error")
		return err
	}

	metrics.RecordEndorsement(t.String(), "ok")
	tr.logger.Debug("Endorsement applied",
		"token", t.String(),
		"publicKey", att.PublicKey,
		"endorsements", count)
	return nil
}

// Slot returns a token's own slot record.
func (tr *Tracker) Slot(ctx context.Context, t token.Token) (SlotRecord, error) {
	var record SlotRecord
	if err := cache.GetJSON(ctx, tr.cache, cache.KeySlot(t), &record); err != nil {
		return SlotRecord{}, err
	}
	return record, nil
}

// MaxSlot returns the historical max-endorsement record for a token.
func (tr *Tracker) MaxSlot(ctx context.Context, t token.Token) (SlotRecord, error) {
	var record SlotRecord
	if err := cache.GetJSON(ctx, tr.cache, cache.KeyMaxSlot(t), &record); err != nil {
		return SlotRecord{}, err
	}
	return record, nil
}

type write struct {
	key       string
	record    SlotRecord
	promotion string // max-cache label, empty for the plain slot write
}

// readState fetches the slot and both max caches concurrently; the three
// reads are independent.
func (tr *Tracker) readState(ctx context.Context, t token.Token) (slot, maxSlot, chainMax SlotRecord, err error) {
	keys := []string{cache.KeySlot(t), cache.KeyMaxSlot(t), cache.KeyChainMaxSlot(tr.chain, t)}
	records := make([]SlotRecord, len(keys))
	errs := make([]error, len(keys))

	var wg sync.WaitGroup
	for i, key := range keys {
		wg.Add(1)
		go func(i int, key string) {
			defer wg.Done()
			errs[i] = cache.GetJSON(ctx, tr.cache, key, &records[i])
		}(i, key)
	}
	wg.Wait()

	for i, readErr := range errs {
		if readErr != nil && !errors.Is(readErr, cache.ErrNotFound) {
			return SlotRecord{}, SlotRecord{}, SlotRecord{}, fmt.Errorf("read consensus state %s: %w", keys[i], readErr)
		}
	}
	return records[0], records[1], records[2], nil
}

// fanOutWrites persists the merged slot and any promotions concurrently. Any
// failure aborts the submission; partial writes are acceptable.
func (tr *Tracker) fanOutWrites(ctx context.Context, t token.Token, writes []write) error {
	errs := make([]error, len(writes))

	var wg sync.WaitGroup
	for i, w := range writes {
		wg.Add(1)
		go func(i int, w write) {
			defer wg.Done()
			errs[i] = cache.SetJSON(ctx, tr.cache, w.key, w.record)
			if errs[i] == nil && w.promotion != "" {
				metrics.RecordSlotPromotion(t.String(), w.promotion)
			}
		}(i, w)
	}
	wg.Wait()

	for i, writeErr := range errs {
		if writeErr != nil {
			return fmt.Errorf("write consensus state %s: %w", writes[i].key, writeErr)
		}
	}
	return nil
}

// mergeSlot computes the post-submission record. A fresh slot is seeded from
// the attestation's price fields; an existing slot keeps its price fields and
// only extends the community map.
func mergeSlot(t token.Token, existing SlotRecord, att attestor.SignedAttestation) SlotRecord {
	merged := existing
	if merged.Community == nil {
		merged.AggregatedPrice = priceFromAttestation(t, att)
		merged.Community = make(map[string]attestor.SignedAttestation, 1)
	} else {
		// Copy-on-write so concurrent readers of the previous record never
		// observe the new key.
		community := make(map[string]attestor.SignedAttestation, len(merged.Community)+1)
		for k, v := range merged.Community {
			community[k] = v
		}
		merged.Community = community
	}
	merged.Community[att.PublicKey] = att
	return merged
}

// priceFromAttestation unscales the attestation's integer price back to the
// aggregated-price shape.
func priceFromAttestation(t token.Token, att attestor.SignedAttestation) aggregator.AggregatedPrice {
	price, err := decimal.NewFromString(att.Price)
	if err != nil {
		price = decimal.Zero
	}
	return aggregator.AggregatedPrice{
		Token:     t,
		Price:     price.Shift(-token.Decimals),
		Timestamp: att.Timestamp,
	}
}
