// Package attestor turns aggregated prices into signed, URL-bound records.
package attestor

import (
	"fmt"
	"math/big"

	"github.com/shopspring/decimal"
	"golang.org/x/crypto/blake2b"

	"github.com/Doot-Foundation/doot-oracle/pkg/oracle/token"
	"github.com/Doot-Foundation/doot-oracle/pkg/signing"
)

// SignedAttestation is an immutable signed price record. The signature covers
// the ordered tuple [urlHash, scaledPrice, decimals, timestamp], binding the
// attestation to exactly one query URL so it cannot be replayed elsewhere.
type SignedAttestation struct {
	SourceURL string `json:"sourceUrl"`
	// Price is the scaled integer price, floor(price * 10^decimals), as a
	// decimal string.
	Price     string `json:"price"`
	Decimals  int    `json:"decimals"`
	Timestamp int64  `json:"timestamp"`
	Signature string `json:"signature"`
	PublicKey string `json:"publicKey"`
}

// Attestor signs aggregated prices via the delegated Signer.
type Attestor struct {
	signer signing.Signer
}

// New creates an attestor around a signer.
func New(signer signing.Signer) *Attestor {
	return &Attestor{signer: signer}
}

// Attest produces a signed attestation for a price at a timestamp, bound to
// the source URL. Deterministic given identical inputs and signing key.
func (a *Attestor) Attest(price decimal.Decimal, timestamp int64, sourceURL string) (SignedAttestation, error) {
	scaled := scalePrice(price)

	fields := Fields(sourceURL, scaled, timestamp)
	sig, err := a.signer.Sign(fields)
	if err != nil {
		return SignedAttestation{}, fmt.Errorf("sign attestation: %w", err)
	}

	return SignedAttestation{
		SourceURL: sourceURL,
		Price:     scaled.String(),
		Decimals:  token.Decimals,
		Timestamp: timestamp,
		Signature: sig.Signature,
		PublicKey: sig.PublicKey,
	}, nil
}

// Verify checks an attestation's signature against its own fields. An
// attestation whose URL, price or timestamp was altered fails here.
func Verify(att SignedAttestation) bool {
	scaled, ok := new(big.Int).SetString(att.Price, 10)
	if !ok {
		return false
	}
	if att.Decimals != token.Decimals {
		return false
	}

	sig := signing.Signature{Signature: att.Signature, PublicKey: att.PublicKey}
	return signing.Verify(sig, Fields(att.SourceURL, scaled, att.Timestamp))
}

// Fields builds the ordered field tuple the signature covers. The order is
// fixed; verification at the boundary recomputes the exact same tuple.
func Fields(sourceURL string, scaledPrice *big.Int, timestamp int64) []*big.Int {
	return []*big.Int{
		hashURL(sourceURL),
		scaledPrice,
		big.NewInt(token.Decimals),
		big.NewInt(timestamp),
	}
}

// scalePrice converts a decimal price to floor(price * 10^Decimals).
func scalePrice(price decimal.Decimal) *big.Int {
	return price.Shift(token.Decimals).Floor().BigInt()
}

// hashURL maps a source URL to a field-sized integer. The digest is truncated
// to 31 bytes so the value stays below the proving field modulus.
func hashURL(url string) *big.Int {
	sum := blake2b.Sum256([]byte(url))
	return new(big.Int).SetBytes(sum[:31])
}
