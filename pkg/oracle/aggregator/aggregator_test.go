package aggregator

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Doot-Foundation/doot-oracle/pkg/logging"
	"github.com/Doot-Foundation/doot-oracle/pkg/oracle/fetcher"
	"github.com/Doot-Foundation/doot-oracle/pkg/oracle/token"
)

func quotesFromFloats(t token.Token, prices ...float64) []fetcher.ProviderQuote {
	quotes := make([]fetcher.ProviderQuote, len(prices))
	for i, p := range prices {
		quotes[i] = fetcher.ProviderQuote{
			Token:     t,
			Provider:  "provider-" + decimal.NewFromInt(int64(i)).String(),
			Price:     decimal.NewFromFloat(p),
			Timestamp: int64(1700000000 + i),
		}
	}
	return quotes
}

func TestAggregateEmptyInput(t *testing.T) {
	agg := New(2.0, logging.NewNoopLogger())

	_, err := agg.Aggregate(token.Bitcoin, nil)
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrNoValidQuotes)
}

func TestAggregateSingleQuote(t *testing.T) {
	agg := New(2.0, logging.NewNoopLogger())

	result, err := agg.Aggregate(token.Mina, quotesFromFloats(token.Mina, 0.52))
	require.NoError(t, err)

	assert.Equal(t, token.Mina, result.Token)
	assert.True(t, result.Price.Equal(decimal.NewFromFloat(0.52)))
	assert.Equal(t, 1, result.ProviderCount)
}

func TestAggregateIdenticalQuotes(t *testing.T) {
	agg := New(2.0, logging.NewNoopLogger())

	// Identical quotes give MAD = 0; nothing may be discarded.
	result, err := agg.Aggregate(token.Ethereum, quotesFromFloats(token.Ethereum, 3000, 3000, 3000, 3000, 3000))
	require.NoError(t, err)

	assert.Equal(t, 5, result.ProviderCount)
	assert.True(t, result.Price.Equal(decimal.NewFromInt(3000)))
}

func TestAggregateDropsSingleOutlier(t *testing.T) {
	agg := New(2.0, logging.NewNoopLogger())

	prices := []float64{
		100.1, 99.8, 100.3, 100.0, 99.9,
		100.2, 100.05, 99.95, 100.15, 99.85,
	}
	// One provider reports roughly 50x the consensus price.
	prices = append(prices, 5000.0)

	quotes := quotesFromFloats(token.Solana, prices...)
	result, err := agg.Aggregate(token.Solana, quotes)
	require.NoError(t, err)

	assert.Equal(t, 10, result.ProviderCount)

	// The result must be the mean of the ten plausible quotes.
	sum := decimal.Zero
	for _, p := range prices[:10] {
		sum = sum.Add(decimal.NewFromFloat(p))
	}
	expected := sum.Div(decimal.NewFromInt(10))
	assert.True(t, result.Price.Equal(expected),
		"got %s, want %s", result.Price, expected)
}

func TestAggregateResultWithinKeptBounds(t *testing.T) {
	agg := New(2.0, logging.NewNoopLogger())

	quotes := quotesFromFloats(token.Cardano, 0.44, 0.45, 0.46, 0.47, 0.43, 0.45, 12.0)
	result, err := agg.Aggregate(token.Cardano, quotes)
	require.NoError(t, err)

	assert.True(t, result.Price.GreaterThanOrEqual(decimal.NewFromFloat(0.43)))
	assert.True(t, result.Price.LessThanOrEqual(decimal.NewFromFloat(0.47)))
}

func TestAggregateFilterNeverEmptiesInput(t *testing.T) {
	// A tight threshold with a bimodal price set discards every quote; the
	// aggregator must fall back to the full set instead of failing.
	agg := New(0.5, logging.NewNoopLogger())

	quotes := quotesFromFloats(token.Dogecoin, 1.0, 2.0, 100.0, 101.0)
	result, err := agg.Aggregate(token.Dogecoin, quotes)
	require.NoError(t, err)
	assert.Equal(t, 4, result.ProviderCount)
}

func TestAggregateUsesLatestTimestamp(t *testing.T) {
	agg := New(2.0, logging.NewNoopLogger())

	quotes := quotesFromFloats(token.Ripple, 0.6, 0.61, 0.59)
	quotes[1].Timestamp = 1800000000

	result, err := agg.Aggregate(token.Ripple, quotes)
	require.NoError(t, err)
	assert.Equal(t, int64(1800000000), result.Timestamp)
}

func TestMedianOddAndEven(t *testing.T) {
	odd := []decimal.Decimal{
		decimal.NewFromInt(3),
		decimal.NewFromInt(1),
		decimal.NewFromInt(2),
	}
	assert.True(t, median(odd).Equal(decimal.NewFromInt(2)))

	even := []decimal.Decimal{
		decimal.NewFromInt(4),
		decimal.NewFromInt(1),
		decimal.NewFromInt(3),
		decimal.NewFromInt(2),
	}
	assert.True(t, median(even).Equal(decimal.NewFromFloat(2.5)))
}

func TestNonPositiveThresholdFallsBackToDefault(t *testing.T) {
	agg := New(0, logging.NewNoopLogger())
	assert.True(t, agg.threshold.Equal(decimal.NewFromFloat(DefaultMADThreshold)))
}
