// Package providers holds the static registry of market-data providers.
//
// Each provider is pure data: a URL template, a response path into the JSON
// body, an auth strategy resolved at registry construction, and a total
// token -> provider-specific identifier table.
package providers

import (
	"fmt"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/Doot-Foundation/doot-oracle/pkg/oracle/token"
)

// AuthKind selects how a provider call is authenticated.
type AuthKind int

const (
	// AuthNone attaches no credentials.
	AuthNone AuthKind = iota
	// AuthHeader attaches the API key under a provider-specific header name.
	AuthHeader
	// AuthBearer attaches the API key as a standard bearer token.
	AuthBearer
)

// Auth is a tagged auth strategy variant. Header is only meaningful for
// AuthHeader.
type Auth struct {
	Kind   AuthKind
	Header string
}

// Provider describes one market-data provider.
type Provider struct {
	// Name is the unique provider identifier.
	Name string
	// URLTemplate is the request URL with an {id} placeholder for the
	// provider-specific token identifier.
	URLTemplate string
	// PricePath is the gjson path to the price field in the response body.
	// It may also carry an {id} placeholder for providers that key the
	// response by token identifier.
	PricePath string
	// Auth is the provider's auth strategy.
	Auth Auth
	// APIKey is the resolved key material; empty when no key is configured.
	APIKey string
	// ScaleDivisor divides the extracted price back to units. It is 1 for
	// every provider except the one that reports pre-scaled integers.
	ScaleDivisor decimal.Decimal
	// Symbols maps every supported token to this provider's identifier.
	Symbols map[token.Token]string
}

// URL returns the request URL for a token.
func (p Provider) URL(t token.Token) (string, error) {
	id, ok := p.Symbols[t]
	if !ok {
		return "", fmt.Errorf("%w: %s has no identifier for %s", ErrUnknownToken, p.Name, t)
	}
	return strings.ReplaceAll(p.URLTemplate, "{id}", id), nil
}

// Path returns the response price path for a token.
func (p Provider) Path(t token.Token) string {
	return strings.ReplaceAll(p.PricePath, "{id}", p.Symbols[t])
}

// Registry is the fixed set of providers the fetcher draws from.
type Registry struct {
	providers []Provider
}

// NewRegistry builds the provider catalog, resolving API keys from the
// configured header-name -> secret table. A provider whose header name has no
// configured key keeps an empty APIKey and is called unauthenticated.
func NewRegistry(apiKeys map[string]string) (*Registry, error) {
	catalog := defaultCatalog()

	for i := range catalog {
		p := &catalog[i]
		if p.ScaleDivisor.IsZero() {
			p.ScaleDivisor = decimal.NewFromInt(1)
		}
		switch p.Auth.Kind {
		case AuthHeader:
			p.APIKey = apiKeys[p.Auth.Header]
		case AuthBearer:
			p.APIKey = apiKeys["bearer:"+p.Name]
		}
	}

	r := &Registry{providers: catalog}
	if err := r.validate(); err != nil {
		return nil, err
	}
	return r, nil
}

// Providers returns the catalog in registration order.
func (r *Registry) Providers() []Provider {
	return r.providers
}

// Get returns a provider by name.
func (r *Registry) Get(name string) (Provider, bool) {
	for _, p := range r.providers {
		if p.Name == name {
			return p, true
		}
	}
	return Provider{}, false
}

// validate checks every symbol table is total over the token set. A missing
// entry is a build mistake, not a runtime condition.
func (r *Registry) validate() error {
	if len(r.providers) == 0 {
		return ErrEmptyCatalog
	}

	seen := make(map[string]bool, len(r.providers))
	for _, p := range r.providers {
		if seen[p.Name] {
			return fmt.Errorf("%w: %s", ErrDuplicateProvider, p.Name)
		}
		seen[p.Name] = true

		for _, t := range token.All() {
			if _, ok := p.Symbols[t]; !ok {
				return fmt.Errorf("%w: %s missing %s", ErrIncompleteSymbols, p.Name, t)
			}
		}
	}
	return nil
}
