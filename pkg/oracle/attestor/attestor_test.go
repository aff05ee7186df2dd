package attestor

import (
	"math/big"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Doot-Foundation/doot-oracle/pkg/oracle/token"
	"github.com/Doot-Foundation/doot-oracle/pkg/signing"
)

const testSeed = "1111111111111111111111111111111111111111111111111111111111111111"

const testURL = "https://doot.foundation/api/get/price?token=mina"

func newTestAttestor(t *testing.T) *Attestor {
	t.Helper()
	signer, err := signing.NewEd25519Signer(testSeed)
	require.NoError(t, err)
	return New(signer)
}

func TestAttestScalesPriceByFloor(t *testing.T) {
	a := newTestAttestor(t)

	// 0.5123456789123 * 10^10 = 5123456789.123, floored.
	att, err := a.Attest(decimal.RequireFromString("0.5123456789123"), 1700000000, testURL)
	require.NoError(t, err)

	assert.Equal(t, "5123456789", att.Price)
	assert.Equal(t, token.Decimals, att.Decimals)
	assert.Equal(t, int64(1700000000), att.Timestamp)
	assert.Equal(t, testURL, att.SourceURL)
}

func TestAttestIsDeterministic(t *testing.T) {
	a := newTestAttestor(t)
	price := decimal.RequireFromString("42000.12")

	first, err := a.Attest(price, 1700000000, testURL)
	require.NoError(t, err)
	second, err := a.Attest(price, 1700000000, testURL)
	require.NoError(t, err)

	assert.Equal(t, first, second)
}

func TestVerifyRoundTrip(t *testing.T) {
	a := newTestAttestor(t)

	att, err := a.Attest(decimal.RequireFromString("3000.5"), 1700000000, testURL)
	require.NoError(t, err)

	assert.True(t, Verify(att))
}

func TestVerifyRejectsTampering(t *testing.T) {
	a := newTestAttestor(t)

	att, err := a.Attest(decimal.RequireFromString("3000.5"), 1700000000, testURL)
	require.NoError(t, err)

	tamperedPrice := att
	tamperedPrice.Price = "30005000000001"
	assert.False(t, Verify(tamperedPrice))

	tamperedURL := att
	tamperedURL.SourceURL = "https://doot.foundation/api/get/price?token=bitcoin"
	assert.False(t, Verify(tamperedURL))

	tamperedTime := att
	tamperedTime.Timestamp++
	assert.False(t, Verify(tamperedTime))

	tamperedDecimals := att
	tamperedDecimals.Decimals = 9
	assert.False(t, Verify(tamperedDecimals))
}

func TestVerifyRejectsMalformedPrice(t *testing.T) {
	a := newTestAttestor(t)

	att, err := a.Attest(decimal.RequireFromString("1.0"), 1700000000, testURL)
	require.NoError(t, err)

	att.Price = "not-a-number"
	assert.False(t, Verify(att))
}

func TestFieldsOrderAndURLBinding(t *testing.T) {
	fields := Fields(testURL, big.NewInt(5000000000), 1700000000)
	require.Len(t, fields, 4)

	assert.Equal(t, int64(5000000000), fields[1].Int64())
	assert.Equal(t, int64(token.Decimals), fields[2].Int64())
	assert.Equal(t, int64(1700000000), fields[3].Int64())

	// The URL hash must stay below 2^248 so it fits a proving field element.
	limit := new(big.Int).Lsh(big.NewInt(1), 248)
	assert.True(t, fields[0].Cmp(limit) < 0)

	other := Fields("https://example.com/other", big.NewInt(5000000000), 1700000000)
	assert.NotEqual(t, fields[0], other[0])
}
