// Package aggregator reduces per-provider quotes to one robust price.
package aggregator

import (
	"fmt"
	"sort"
	"time"

	"github.com/shopspring/decimal"

	"github.com/Doot-Foundation/doot-oracle/pkg/logging"
	"github.com/Doot-Foundation/doot-oracle/pkg/metrics"
	"github.com/Doot-Foundation/doot-oracle/pkg/oracle/fetcher"
	"github.com/Doot-Foundation/doot-oracle/pkg/oracle/token"
)

// DefaultMADThreshold is the deviation multiple beyond which a quote is
// dropped as an outlier.
const DefaultMADThreshold = 2.0

// AggregatedPrice is the single representative price for one token in one
// aggregation cycle.
type AggregatedPrice struct {
	Token         token.Token     `json:"token"`
	Price         decimal.Decimal `json:"price"`
	ProviderCount int             `json:"providerCount"`
	Timestamp     int64           `json:"timestamp"`
}

// Aggregator filters outliers by median absolute deviation and averages the
// survivors. Median/MAD is used instead of mean/stddev because a single dead
// endpoint returning yesterday's price must not drag the result.
type Aggregator struct {
	threshold decimal.Decimal
	logger    *logging.Logger
}

// New creates an aggregator. A non-positive threshold falls back to the
// default.
func New(threshold float64, logger *logging.Logger) *Aggregator {
	if threshold <= 0 {
		threshold = DefaultMADThreshold
	}
	return &Aggregator{
		threshold: decimal.NewFromFloat(threshold),
		logger:    logger,
	}
}

// Aggregate reduces the successful quotes for one token to a single price.
// It fails only when there are no quotes at all; filtering alone never
// empties the input.
func (a *Aggregator) Aggregate(t token.Token, quotes []fetcher.ProviderQuote) (AggregatedPrice, error) {
	start := time.Now()
	defer func() {
		metrics.RecordAggregation(t.String(), time.Since(start))
	}()

	if len(quotes) == 0 {
		return AggregatedPrice{}, fmt.Errorf("%w: %s", ErrNoValidQuotes, t)
	}

	prices := make([]decimal.Decimal, len(quotes))
	for i, q := range quotes {
		prices[i] = q.Price
	}

	med := median(prices)
	mad := medianAbsoluteDeviation(prices, med)

	kept := quotes
	if !mad.IsZero() {
		limit := a.threshold.Mul(mad)
		filtered := make([]fetcher.ProviderQuote, 0, len(quotes))
		for _, q := range quotes {
			deviation := q.Price.Sub(med).Abs()
			if deviation.GreaterThan(limit) {
				a.logger.Debug("Rejecting outlier quote",
					"token", t.String(),
					"provider", q.Provider,
					"price", q.Price.String(),
					"median", med.String(),
					"deviation", deviation.String())
				metrics.RecordOutlierRejection(t.String())
				continue
			}
			filtered = append(filtered, q)
		}
		if len(filtered) > 0 {
			kept = filtered
		}
	}

	return AggregatedPrice{
		Token:         t,
		Price:         mean(kept),
		ProviderCount: len(kept),
		Timestamp:     latestTimestamp(kept),
	}, nil
}

// median returns the middle value of the prices (mean of the two middles for
// even counts). The input slice is not modified.
func median(prices []decimal.Decimal) decimal.Decimal {
	sorted := make([]decimal.Decimal, len(prices))
	copy(sorted, prices)
	sort.Slice(sorted, func(i, j int) bool {
		return sorted[i].LessThan(sorted[j])
	})

	mid := len(sorted) / 2
	if len(sorted)%2 == 1 {
		return sorted[mid]
	}
	return sorted[mid-1].Add(sorted[mid]).Div(decimal.NewFromInt(2))
}

// medianAbsoluteDeviation is the median of |p - center| over all prices.
func medianAbsoluteDeviation(prices []decimal.Decimal, center decimal.Decimal) decimal.Decimal {
	deviations := make([]decimal.Decimal, len(prices))
	for i, p := range prices {
		deviations[i] = p.Sub(center).Abs()
	}
	return median(deviations)
}

// mean is the arithmetic mean of the kept quotes.
func mean(quotes []fetcher.ProviderQuote) decimal.Decimal {
	sum := decimal.Zero
	for _, q := range quotes {
		sum = sum.Add(q.Price)
	}
	return sum.Div(decimal.NewFromInt(int64(len(quotes))))
}

// latestTimestamp returns the newest provider-asserted timestamp among the
// kept quotes.
func latestTimestamp(quotes []fetcher.ProviderQuote) int64 {
	var latest int64
	for _, q := range quotes {
		if q.Timestamp > latest {
			latest = q.Timestamp
		}
	}
	return latest
}
