// Package token defines the closed set of tokens tracked by the oracle.
package token

import "fmt"

// Token is one of the assets the oracle publishes prices for. The set is
// fixed at deploy time; new listings require a release.
type Token string

const (
	Mina      Token = "mina"
	Bitcoin   Token = "bitcoin"
	Ethereum  Token = "ethereum"
	Solana    Token = "solana"
	Ripple    Token = "ripple"
	Cardano   Token = "cardano"
	Avalanche Token = "avalanche"
	Polygon   Token = "polygon"
	Chainlink Token = "chainlink"
	Dogecoin  Token = "dogecoin"
)

// Decimals is the global scaling constant for attested prices:
// attested price = floor(price * 10^Decimals).
const Decimals = 10

// All returns every supported token in a stable order.
func All() []Token {
	return []Token{
		Mina,
		Bitcoin,
		Ethereum,
		Solana,
		Ripple,
		Cardano,
		Avalanche,
		Polygon,
		Chainlink,
		Dogecoin,
	}
}

// Parse converts a string to a Token, rejecting unknown symbols.
func Parse(s string) (Token, error) {
	for _, t := range All() {
		if string(t) == s {
			return t, nil
		}
	}
	return "", fmt.Errorf("unknown token: %q", s)
}

// String implements fmt.Stringer.
func (t Token) String() string {
	return string(t)
}
