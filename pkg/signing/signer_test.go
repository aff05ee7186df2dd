package signing

import (
	"math/big"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testSeed = "4f3edf983ac636a65a842ce7c78d9aa706d3b113bce9c46f30d7d21715b23b1d"

func TestNewEd25519Signer(t *testing.T) {
	signer, err := NewEd25519Signer(testSeed)
	require.NoError(t, err)
	assert.Len(t, signer.PublicKey(), 64)
}

func TestNewEd25519SignerRejectsBadKeys(t *testing.T) {
	_, err := NewEd25519Signer("not-hex")
	assert.Error(t, err)

	_, err = NewEd25519Signer("abcd")
	assert.ErrorIs(t, err, ErrInvalidKeyLength)
}

func TestSignAndVerify(t *testing.T) {
	signer, err := NewEd25519Signer(testSeed)
	require.NoError(t, err)

	fields := []*big.Int{big.NewInt(42), big.NewInt(7), big.NewInt(1700000000)}
	sig, err := signer.Sign(fields)
	require.NoError(t, err)

	assert.Equal(t, signer.PublicKey(), sig.PublicKey)
	assert.True(t, Verify(sig, fields))
}

func TestSignRejectsEmptyTuple(t *testing.T) {
	signer, err := NewEd25519Signer(testSeed)
	require.NoError(t, err)

	_, err = signer.Sign(nil)
	assert.ErrorIs(t, err, ErrNoFields)
}

func TestVerifyIsOrderSensitive(t *testing.T) {
	signer, err := NewEd25519Signer(testSeed)
	require.NoError(t, err)

	fields := []*big.Int{big.NewInt(1), big.NewInt(2)}
	sig, err := signer.Sign(fields)
	require.NoError(t, err)

	swapped := []*big.Int{big.NewInt(2), big.NewInt(1)}
	assert.False(t, Verify(sig, swapped))
}

func TestVerifyRejectsTamperedField(t *testing.T) {
	signer, err := NewEd25519Signer(testSeed)
	require.NoError(t, err)

	fields := []*big.Int{big.NewInt(100), big.NewInt(200)}
	sig, err := signer.Sign(fields)
	require.NoError(t, err)

	tampered := []*big.Int{big.NewInt(100), big.NewInt(201)}
	assert.False(t, Verify(sig, tampered))
}

func TestVerifyRejectsMalformedSignature(t *testing.T) {
	fields := []*big.Int{big.NewInt(1)}

	assert.False(t, Verify(Signature{Signature: "zz", PublicKey: strings.Repeat("ab", 32)}, fields))
	assert.False(t, Verify(Signature{Signature: "abcd", PublicKey: "tooshort"}, fields))
}

func TestSerializeFieldsResistsSplicing(t *testing.T) {
	// [0x01, 0x0203] and [0x0102, 0x03] must not serialize identically.
	a := serializeFields([]*big.Int{big.NewInt(0x01), big.NewInt(0x0203)})
	b := serializeFields([]*big.Int{big.NewInt(0x0102), big.NewInt(0x03)})
	assert.NotEqual(t, a, b)
}
