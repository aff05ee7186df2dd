// Package oracle wires the fetch -> aggregate -> attest pipeline and the
// snapshot and settlement jobs the orchestrator schedules.
package oracle

import (
	"context"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"

	"golang.org/x/crypto/blake2b"

	"github.com/Doot-Foundation/doot-oracle/pkg/cache"
	"github.com/Doot-Foundation/doot-oracle/pkg/logging"
	"github.com/Doot-Foundation/doot-oracle/pkg/metrics"
	"github.com/Doot-Foundation/doot-oracle/pkg/oracle/aggregator"
	"github.com/Doot-Foundation/doot-oracle/pkg/oracle/attestor"
	"github.com/Doot-Foundation/doot-oracle/pkg/oracle/fetcher"
	"github.com/Doot-Foundation/doot-oracle/pkg/oracle/token"
	"github.com/Doot-Foundation/doot-oracle/pkg/scheduler"
	"github.com/Doot-Foundation/doot-oracle/pkg/settlement"
	"github.com/Doot-Foundation/doot-oracle/pkg/snapshot"
)

// maxGraphEntries bounds the rolling per-token series kept in the cache.
const maxGraphEntries = 288

// CachedPrice is what the price-refresh job stores per token: the aggregated
// price plus its attestation.
type CachedPrice struct {
	aggregator.AggregatedPrice
	Attestation attestor.SignedAttestation `json:"attestation"`
}

// Service owns the per-token pipeline and the snapshot/settlement jobs. All
// service handles are constructed once at process start and injected here;
// nothing is torn down before process exit.
type Service struct {
	fetcher        *fetcher.Fetcher
	aggregator     *aggregator.Aggregator
	attestor       *attestor.Attestor
	cache          cache.Store
	snapshots      *snapshot.Store
	chainSnapshots *snapshot.Store
	settler        settlement.Settler
	chain          string
	logger         *logging.Logger
}

// New creates the pipeline service.
func New(
	f *fetcher.Fetcher,
	agg *aggregator.Aggregator,
	att *attestor.Attestor,
	cacheStore cache.Store,
	snapshots *snapshot.Store,
	chainSnapshots *snapshot.Store,
	settler settlement.Settler,
	chain string,
	logger *logging.Logger,
) *Service {
	return &Service{
		fetcher:        f,
		aggregator:     agg,
		attestor:       att,
		cache:          cacheStore,
		snapshots:      snapshots,
		chainSnapshots: chainSnapshots,
		settler:        settler,
		chain:          chain,
		logger:         logger,
	}
}

// RefreshPrices runs the fetch -> aggregate -> attest pipeline for every
// token. Per-token failures are collected, not fatal; the task fails as a
// whole only when every token failed.
func (s *Service) RefreshPrices(ctx context.Context) scheduler.Report {
	var failed []string

	for _, t := range token.All() {
		if err := s.refreshToken(ctx, t); err != nil {
			s.logger.Warn("Token refresh failed", "token", t.String(), "error", err.Error())
			failed = append(failed, t.String())
		}
	}

	return reportFor("price-refresh", failed)
}

// refreshToken runs the strictly sequential pipeline for one token:
// aggregation needs every quote, attestation needs the aggregated price.
func (s *Service) refreshToken(ctx context.Context, t token.Token) error {
	results := s.fetcher.FetchAll(ctx, t)
	quotes := fetcher.Quotes(results)

	agg, err := s.aggregator.Aggregate(t, quotes)
	if err != nil {
		return err
	}

	att, err := s.attestor.Attest(agg.Price, agg.Timestamp, QueryURL(t))
	if err != nil {
		return err
	}
	metrics.RecordAttestation(t.String())

	entry := CachedPrice{AggregatedPrice: agg, Attestation: att}
	if err := cache.SetJSON(ctx, s.cache, cache.KeyLatestPrice(t), entry); err != nil {
		return err
	}

	return s.appendGraphEntry(ctx, t, entry)
}

// appendGraphEntry extends the token's rolling series, trimming the oldest
// entries past the cap.
func (s *Service) appendGraphEntry(ctx context.Context, t token.Token, entry CachedPrice) error {
	var series []CachedPrice
	if err := cache.GetJSON(ctx, s.cache, cache.KeyGraphSeries(t), &series); err != nil && !errors.Is(err, cache.ErrNotFound) {
		return err
	}

	series = append(series, entry)
	if len(series) > maxGraphEntries {
		series = series[len(series)-maxGraphEntries:]
	}

	return cache.SetJSON(ctx, s.cache, cache.KeyGraphSeries(t), series)
}

// RefreshChainPrices mirrors the latest prices into the settlement chain's
// cache entries, publishes the chain archive, and hands the commitment to
// the settlement service.
func (s *Service) RefreshChainPrices(ctx context.Context) scheduler.Report {
	var failed []string
	latest := make(map[token.Token]aggregator.AggregatedPrice)

	for _, t := range token.All() {
		var entry CachedPrice
		if err := cache.GetJSON(ctx, s.cache, cache.KeyLatestPrice(t), &entry); err != nil {
			failed = append(failed, t.String())
			continue
		}
		if err := cache.SetJSON(ctx, s.cache, cache.KeyChainLatestPrice(s.chain, t), entry); err != nil {
			failed = append(failed, t.String())
			continue
		}
		latest[t] = entry.AggregatedPrice
	}

	if len(latest) == 0 {
		return scheduler.Report{
			Task:   "chain-refresh",
			Status: scheduler.StatusFailed,
			Failed: failed,
			Err:    ErrNoPricesAvailable,
		}
	}

	cid, err := s.chainSnapshots.Publish(ctx, latest)
	if err != nil {
		return scheduler.Report{
			Task:   "chain-refresh",
			Status: scheduler.StatusFailed,
			Failed: failed,
			Err:    err,
		}
	}

	ok, err := s.settler.Settle(ctx, commitment(latest), cid)
	if err != nil || !ok {
		// Settlement is asynchronous and retried next cycle; a refusal is
		// logged, not fatal to the task.
		s.logger.Warn("Settlement not accepted", "cid", cid, "error", errText(err))
	}

	return reportFor("chain-refresh", failed)
}

// PublishSnapshot publishes the historical archive from the per-token latest
// caches. Missing tokens are reported; the publish proceeds with what exists.
func (s *Service) PublishSnapshot(ctx context.Context) scheduler.Report {
	var failed []string
	latest := make(map[token.Token]aggregator.AggregatedPrice)

	for _, t := range token.All() {
		var entry CachedPrice
		if err := cache.GetJSON(ctx, s.cache, cache.KeyLatestPrice(t), &entry); err != nil {
			failed = append(failed, t.String())
			continue
		}
		latest[t] = entry.AggregatedPrice
	}

	if _, err := s.snapshots.Publish(ctx, latest); err != nil {
		return scheduler.Report{
			Task:   "snapshot-publish",
			Status: scheduler.StatusFailed,
			Failed: failed,
			Err:    err,
		}
	}

	return reportFor("snapshot-publish", failed)
}

// LatestPrice returns a token's cached pipeline output.
func (s *Service) LatestPrice(ctx context.Context, t token.Token) (CachedPrice, error) {
	var entry CachedPrice
	if err := cache.GetJSON(ctx, s.cache, cache.KeyLatestPrice(t), &entry); err != nil {
		return CachedPrice{}, err
	}
	return entry, nil
}

// HistoricalInfo returns the current historical snapshot payload.
func (s *Service) HistoricalInfo(ctx context.Context) (snapshot.Payload, string, error) {
	return s.snapshots.GetHistoricalInfo(ctx)
}

// QueryURL is the canonical public query URL an aggregated price attestation
// is bound to. Clients verify the attestation against the exact URL they
// queried.
func QueryURL(t token.Token) string {
	return fmt.Sprintf("https://doot.foundation/api/get/price?token=%s", t)
}

// commitment derives the snapshot commitment handed to the settlement
// service from the merged latest prices.
func commitment(latest map[token.Token]aggregator.AggregatedPrice) string {
	raw, err := json.Marshal(latest)
	if err != nil {
		return ""
	}
	sum := blake2b.Sum256(raw)
	return hex.EncodeToString(sum[:])
}

// reportFor builds a completed report unless every token failed.
func reportFor(task string, failed []string) scheduler.Report {
	status := scheduler.StatusCompleted
	var err error
	if len(failed) == len(token.All()) {
		status = scheduler.StatusFailed
		err = ErrAllTokensFailed
	}
	return scheduler.Report{Task: task, Status: status, Failed: failed, Err: err}
}

func errText(err error) string {
	if err == nil {
		return "settlement service refused commitment"
	}
	return err.Error()
}
