package oracle

import (
	"context"
	"fmt"
	"sync"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Doot-Foundation/doot-oracle/pkg/cache"
	"github.com/Doot-Foundation/doot-oracle/pkg/logging"
	"github.com/Doot-Foundation/doot-oracle/pkg/oracle/aggregator"
	"github.com/Doot-Foundation/doot-oracle/pkg/oracle/attestor"
	"github.com/Doot-Foundation/doot-oracle/pkg/oracle/token"
	"github.com/Doot-Foundation/doot-oracle/pkg/scheduler"
	"github.com/Doot-Foundation/doot-oracle/pkg/settlement"
	"github.com/Doot-Foundation/doot-oracle/pkg/signing"
	"github.com/Doot-Foundation/doot-oracle/pkg/snapshot"
)

type fakeCache struct {
	mu   sync.Mutex
	data map[string][]byte
}

func newFakeCache() *fakeCache {
	return &fakeCache{data: make(map[string][]byte)}
}

func (f *fakeCache) Get(_ context.Context, key string) ([]byte, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	val, ok := f.data[key]
	if !ok {
		return nil, fmt.Errorf("%w: %s", cache.ErrNotFound, key)
	}
	return val, nil
}

func (f *fakeCache) Set(_ context.Context, key string, value []byte) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.data[key] = value
	return nil
}

func (f *fakeCache) Ping(context.Context) error { return nil }

type fakeIPFS struct {
	mu      sync.Mutex
	objects map[string][]byte
	seq     int
}

func newFakeIPFS() *fakeIPFS {
	return &fakeIPFS{objects: make(map[string][]byte)}
}

func (f *fakeIPFS) Publish(_ context.Context, payload []byte, _ string) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.seq++
	cid := fmt.Sprintf("Qm%06d", f.seq)
	f.objects[cid] = payload
	return cid, nil
}

func (f *fakeIPFS) Fetch(_ context.Context, cid string) ([]byte, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	raw, ok := f.objects[cid]
	if !ok {
		return nil, snapshot.ErrFetchFailed
	}
	return raw, nil
}

func (f *fakeIPFS) Unpin(context.Context, string) error { return nil }

type fakeObjectStore struct{}

func (fakeObjectStore) GetObject(_ context.Context, _, path string) ([]byte, error) {
	return nil, fmt.Errorf("%w: %s", snapshot.ErrObjectNotFound, path)
}

type recordingSettler struct {
	mu          sync.Mutex
	commitments []string
	cids        []string
	accept      bool
}

func (r *recordingSettler) Settle(_ context.Context, commitment, cid string) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.commitments = append(r.commitments, commitment)
	r.cids = append(r.cids, cid)
	return r.accept, nil
}

func newTestService(t *testing.T, c cache.Store, settler settlement.Settler) *Service {
	t.Helper()

	signer, err := signing.NewEd25519Signer("2222222222222222222222222222222222222222222222222222222222222222")
	require.NoError(t, err)

	noop := logging.NewNoopLogger()
	snapshots := snapshot.New(c, newFakeIPFS(), fakeObjectStore{}, "snapshots",
		cache.KeySnapshotCID(), "test-historical", noop)
	chainSnapshots := snapshot.New(c, newFakeIPFS(), fakeObjectStore{}, "snapshots",
		cache.KeyChainSnapshotCID("mina"), "test-mina", noop)

	return New(nil, aggregator.New(2.0, noop), attestor.New(signer),
		c, snapshots, chainSnapshots, settler, "mina", noop)
}

func seedLatest(t *testing.T, c cache.Store, tok token.Token, price string) {
	t.Helper()
	entry := CachedPrice{
		AggregatedPrice: aggregator.AggregatedPrice{
			Token:         tok,
			Price:         decimal.RequireFromString(price),
			ProviderCount: 7,
			Timestamp:     1700000000,
		},
	}
	require.NoError(t, cache.SetJSON(context.Background(), c, cache.KeyLatestPrice(tok), entry))
}

func TestLatestPriceMissing(t *testing.T) {
	svc := newTestService(t, newFakeCache(), settlement.NoopSettler{})

	_, err := svc.LatestPrice(context.Background(), token.Mina)
	assert.ErrorIs(t, err, cache.ErrNotFound)
}

func TestLatestPriceRoundTrip(t *testing.T) {
	c := newFakeCache()
	svc := newTestService(t, c, settlement.NoopSettler{})
	seedLatest(t, c, token.Mina, "0.52")

	entry, err := svc.LatestPrice(context.Background(), token.Mina)
	require.NoError(t, err)
	assert.Equal(t, token.Mina, entry.Token)
	assert.True(t, entry.Price.Equal(decimal.RequireFromString("0.52")))
}

func TestPublishSnapshotWithNothingCached(t *testing.T) {
	svc := newTestService(t, newFakeCache(), settlement.NoopSettler{})

	report := svc.PublishSnapshot(context.Background())
	assert.Equal(t, scheduler.StatusFailed, report.Status)
	assert.Len(t, report.Failed, len(token.All()))
}

func TestPublishSnapshotPartial(t *testing.T) {
	c := newFakeCache()
	svc := newTestService(t, c, settlement.NoopSettler{})
	seedLatest(t, c, token.Mina, "0.52")
	seedLatest(t, c, token.Bitcoin, "42000")

	report := svc.PublishSnapshot(context.Background())
	assert.Equal(t, scheduler.StatusCompleted, report.Status)
	assert.Len(t, report.Failed, len(token.All())-2)

	payload, _, err := svc.HistoricalInfo(context.Background())
	require.NoError(t, err)
	assert.Contains(t, payload.Latest.Prices, token.Mina)
	assert.Contains(t, payload.Latest.Prices, token.Bitcoin)
}

func TestRefreshChainPricesMirrorsAndSettles(t *testing.T) {
	c := newFakeCache()
	settler := &recordingSettler{accept: true}
	svc := newTestService(t, c, settler)
	seedLatest(t, c, token.Mina, "0.52")

	report := svc.RefreshChainPrices(context.Background())
	assert.Equal(t, scheduler.StatusCompleted, report.Status)
	assert.Len(t, report.Failed, len(token.All())-1)

	// The latest entry is mirrored under the chain key.
	var mirrored CachedPrice
	require.NoError(t, cache.GetJSON(context.Background(), c,
		cache.KeyChainLatestPrice("mina", token.Mina), &mirrored))
	assert.True(t, mirrored.Price.Equal(decimal.RequireFromString("0.52")))

	// Exactly one settlement call carrying the published archive pointer.
	settler.mu.Lock()
	defer settler.mu.Unlock()
	require.Len(t, settler.cids, 1)
	assert.NotEmpty(t, settler.cids[0])
	assert.NotEmpty(t, settler.commitments[0])
}

func TestRefreshChainPricesSettlementRefusalIsNotFatal(t *testing.T) {
	c := newFakeCache()
	settler := &recordingSettler{accept: false}
	svc := newTestService(t, c, settler)
	seedLatest(t, c, token.Mina, "0.52")

	report := svc.RefreshChainPrices(context.Background())
	assert.Equal(t, scheduler.StatusCompleted, report.Status)
}

func TestRefreshChainPricesFailsWithoutAnyPrices(t *testing.T) {
	svc := newTestService(t, newFakeCache(), settlement.NoopSettler{})

	report := svc.RefreshChainPrices(context.Background())
	assert.Equal(t, scheduler.StatusFailed, report.Status)
	assert.ErrorIs(t, report.Err, ErrNoPricesAvailable)
}

func TestQueryURLIsCanonicalPerToken(t *testing.T) {
	assert.Equal(t,
		"https://doot.foundation/api/get/price?token=mina",
		QueryURL(token.Mina))
	assert.NotEqual(t, QueryURL(token.Mina), QueryURL(token.Bitcoin))
}

func TestCommitmentIsDeterministic(t *testing.T) {
	latest := map[token.Token]aggregator.AggregatedPrice{
		token.Mina: {Token: token.Mina, Price: decimal.RequireFromString("0.52")},
	}
	first := commitment(latest)
	second := commitment(latest)

	assert.Len(t, first, 64)
	assert.Equal(t, first, second)
}
