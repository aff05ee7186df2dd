package cache

import (
	"fmt"

	"github.com/Doot-Foundation/doot-oracle/pkg/oracle/token"
)

// Cache keys are deterministic, token-derived strings. One helper per cache
// purpose so callers never assemble keys by hand.

// KeyLatestPrice holds the most recent aggregated price for a token.
func KeyLatestPrice(t token.Token) string {
	return fmt.Sprintf("price:latest:%s", t)
}

// KeyGraphSeries holds the rolling series of aggregated prices for a token.
func KeyGraphSeries(t token.Token) string {
	return fmt.Sprintf("price:graph:%s", t)
}

// KeySlot holds a token's own consensus slot record.
func KeySlot(t token.Token) string {
	return fmt.Sprintf("slot:%s", t)
}

// KeyMaxSlot holds the historical max-endorsement slot for a token.
func KeyMaxSlot(t token.Token) string {
	return fmt.Sprintf("slot:max:%s", t)
}

// KeyChainMaxSlot holds the per-chain max-endorsement slot for a token.
func KeyChainMaxSlot(chain string, t token.Token) string {
	return fmt.Sprintf("slot:max:%s:%s", chain, t)
}

// KeySnapshotCID holds the content address of the latest historical snapshot.
func KeySnapshotCID() string {
	return "snapshot:cid"
}

// KeyChainSnapshotCID holds the snapshot pointer for a settlement-target chain.
func KeyChainSnapshotCID(chain string) string {
	return fmt.Sprintf("snapshot:cid:%s", chain)
}

// KeyChainLatestPrice holds the latest price mirrored for a settlement chain.
func KeyChainLatestPrice(chain string, t token.Token) string {
	return fmt.Sprintf("price:latest:%s:%s", chain, t)
}
