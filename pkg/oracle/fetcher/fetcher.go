// Package fetcher pulls spot quotes from the provider catalog.
package fetcher

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"sync"
	"time"

	"github.com/shopspring/decimal"
	"github.com/tidwall/gjson"

	"github.com/Doot-Foundation/doot-oracle/pkg/logging"
	"github.com/Doot-Foundation/doot-oracle/pkg/metrics"
	"github.com/Doot-Foundation/doot-oracle/pkg/oracle/providers"
	"github.com/Doot-Foundation/doot-oracle/pkg/oracle/token"
)

const maxResponseBytes = 1 << 20

// ProviderQuote is one provider's reported price for one token. It lives only
// until aggregation; quotes are never persisted.
type ProviderQuote struct {
	Token     token.Token
	Provider  string
	Price     decimal.Decimal
	SourceURL string
	// Timestamp is taken from the HTTP Date response header, anchoring the
	// quote to provider-asserted time rather than the local clock.
	Timestamp int64
}

// Result is the outcome of one provider call: a quote or a typed failure.
type Result struct {
	Provider string
	Quote    ProviderQuote
	Err      error
}

// Fetcher issues one authenticated GET per provider per token.
type Fetcher struct {
	registry *providers.Registry
	client   *http.Client
	logger   *logging.Logger
}

// New creates a fetcher over the provider registry. timeout bounds each
// individual provider call.
func New(registry *providers.Registry, timeout time.Duration, logger *logging.Logger) *Fetcher {
	if timeout <= 0 {
		timeout = 15 * time.Second
	}
	return &Fetcher{
		registry: registry,
		client:   &http.Client{Timeout: timeout},
		logger:   logger,
	}
}

// FetchQuote fetches a single provider's quote for a token. Failures are
// isolated to this provider; the fetcher never retries.
func (f *Fetcher) FetchQuote(ctx context.Context, p providers.Provider, t token.Token) (ProviderQuote, error) {
	url, err := p.URL(t)
	if err != nil {
		return ProviderQuote{}, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return ProviderQuote{}, fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	switch p.Auth.Kind {
	case providers.AuthHeader:
		if p.APIKey != "" {
			req.Header.Set(p.Auth.Header, p.APIKey)
		}
	case providers.AuthBearer:
		if p.APIKey != "" {
			req.Header.Set("Authorization", "Bearer "+p.APIKey)
		}
	}

	resp, err := f.client.Do(req)
	if err != nil {
		return ProviderQuote{}, fmt.Errorf("%w: %s: %v", ErrRequestFailed, p.Name, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return ProviderQuote{}, fmt.Errorf("%w: %s returned %d", ErrUnexpectedStatus, p.Name, resp.StatusCode)
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes))
	if err != nil {
		return ProviderQuote{}, fmt.Errorf("read body: %w", err)
	}

	price, err := extractPrice(body, p.Path(t))
	if err != nil {
		return ProviderQuote{}, fmt.Errorf("%s: %w", p.Name, err)
	}
	price = price.Div(p.ScaleDivisor)

	return ProviderQuote{
		Token:     t,
		Provider:  p.Name,
		Price:     price,
		SourceURL: url,
		Timestamp: responseTimestamp(resp),
	}, nil
}

// FetchAll fans out one call per provider and collects every outcome. The
// caller decides what to do with failures; a single dead provider never
// aborts its siblings.
func (f *Fetcher) FetchAll(ctx context.Context, t token.Token) []Result {
	catalog := f.registry.Providers()
	results := make([]Result, len(catalog))

	var wg sync.WaitGroup
	for i, p := range catalog {
		wg.Add(1)
		go func(i int, p providers.Provider) {
			defer wg.Done()

			quote, err := f.FetchQuote(ctx, p, t)
			if err != nil {
				f.logger.Debug("Provider fetch failed",
					"provider", p.Name,
					"token", t.String(),
					"error", err.Error())
				metrics.RecordProviderFetch(p.Name, t.String(), "error")
				results[i] = Result{Provider: p.Name, Err: err}
				return
			}

			metrics.RecordProviderFetch(p.Name, t.String(), "ok")
			results[i] = Result{Provider: p.Name, Quote: quote}
		}(i, p)
	}
	wg.Wait()

	return results
}

// Quotes filters a result list down to the successful quotes.
func Quotes(results []Result) []ProviderQuote {
	quotes := make([]ProviderQuote, 0, len(results))
	for _, r := range results {
		if r.Err == nil {
			quotes = append(quotes, r.Quote)
		}
	}
	return quotes
}

// extractPrice pulls the price field out of the response body via the
// declared gjson path. Providers return numbers and numeric strings
// interchangeably.
func extractPrice(body []byte, path string) (decimal.Decimal, error) {
	value := gjson.GetBytes(body, path)
	if !value.Exists() {
		return decimal.Decimal{}, fmt.Errorf("%w: path %q", ErrMissingPriceField, path)
	}

	price, err := decimal.NewFromString(value.String())
	if err != nil {
		return decimal.Decimal{}, fmt.Errorf("%w: %q", ErrMalformedPrice, value.String())
	}
	if price.LessThanOrEqual(decimal.Zero) {
		return decimal.Decimal{}, fmt.Errorf("%w: %s", ErrMalformedPrice, price.String())
	}

	return price, nil
}

// responseTimestamp reads the provider-asserted time from the Date header,
// falling back to the local clock when the header is absent or malformed.
func responseTimestamp(resp *http.Response) int64 {
	if raw := resp.Header.Get("Date"); raw != "" {
		if ts, err := http.ParseTime(raw); err == nil {
			return ts.Unix()
		}
	}
	return time.Now().Unix()
}
