// Package signing provides the signature capability used to attest prices.
//
// The pipeline only depends on the Signer interface; the production proving
// system plugs its own field-native signer in behind it. The default
// implementation signs a deterministic serialization of the field tuple with
// ed25519, which is sufficient for transport-level authenticity.
package signing

import (
	"crypto/ed25519"
	"encoding/binary"
	"encoding/hex"
	"fmt"
	"math/big"
)

// Signature is a signature over an ordered tuple of field-sized integers,
// together with the public key that produced it.
type Signature struct {
	Signature string `json:"signature"`
	PublicKey string `json:"publicKey"`
}

// Signer signs ordered tuples of field-sized integers.
type Signer interface {
	// Sign produces a signature over the fields in the given order.
	// Reordering the fields produces a different signature.
	Sign(fields []*big.Int) (Signature, error)

	// PublicKey returns the hex-encoded public key of this signer.
	PublicKey() string
}

// Ed25519Signer is the default local Signer implementation.
type Ed25519Signer struct {
	priv ed25519.PrivateKey
	pub  string
}

var _ Signer = (*Ed25519Signer)(nil)

// NewEd25519Signer creates a signer from a hex-encoded 32-byte seed.
func NewEd25519Signer(seedHex string) (*Ed25519Signer, error) {
	seed, err := hex.DecodeString(seedHex)
	if err != nil {
		return nil, fmt.Errorf("invalid signing key: %w", err)
	}
	if len(seed) != ed25519.SeedSize {
		return nil, fmt.Errorf("%w: got %d bytes, want %d", ErrInvalidKeyLength, len(seed), ed25519.SeedSize)
	}

	priv := ed25519.NewKeyFromSeed(seed)
	pub := priv.Public().(ed25519.PublicKey)

	return &Ed25519Signer{
		priv: priv,
		pub:  hex.EncodeToString(pub),
	}, nil
}

// Sign signs the ordered field tuple.
func (s *Ed25519Signer) Sign(fields []*big.Int) (Signature, error) {
	if len(fields) == 0 {
		return Signature{}, ErrNoFields
	}

	msg := serializeFields(fields)
	sig := ed25519.Sign(s.priv, msg)

	return Signature{
		Signature: hex.EncodeToString(sig),
		PublicKey: s.pub,
	}, nil
}

// PublicKey returns the hex-encoded public key.
func (s *Ed25519Signer) PublicKey() string {
	return s.pub
}

// Verify checks a signature against the ordered field tuple it claims to cover.
func Verify(sig Signature, fields []*big.Int) bool {
	pub, err := hex.DecodeString(sig.PublicKey)
	if err != nil || len(pub) != ed25519.PublicKeySize {
		return false
	}
	raw, err := hex.DecodeString(sig.Signature)
	if err != nil {
		return false
	}

	return ed25519.Verify(ed25519.PublicKey(pub), serializeFields(fields), raw)
}

// serializeFields produces a deterministic, order-sensitive encoding of the
// field tuple: each field is length-prefixed so adjacent fields cannot be
// spliced into one another.
func serializeFields(fields []*big.Int) []byte {
	var out []byte
	for _, f := range fields {
		b := f.Bytes()
		var length [4]byte
		binary.BigEndian.PutUint32(length[:], uint32(len(b)))
		out = append(out, length[:]...)
		out = append(out, b...)
	}
	return out
}
