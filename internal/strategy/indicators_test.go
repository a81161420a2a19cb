package strategy

import (
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRSIStaysInRange(t *testing.T) {
	rnd := rand.New(rand.NewSource(7))
	for n := 0; n < 50; n++ {
		closes := make([]float64, 48)
		px := 10 + rnd.Float64()*100
		for i := range closes {
			px += (rnd.Float64() - 0.5) * px * 0.05
			if px <= 0 {
				px = 0.01
			}
			closes[i] = px
		}
		out := RSI(closes, 14)
		require.Len(t, out, len(closes))
		for i := 14; i < len(out); i++ {
			assert.GreaterOrEqual(t, out[i], 0.0)
			assert.LessOrEqual(t, out[i], 100.0)
		}
	}
}

func TestRSIFlatSeriesIsNeutral(t *testing.T) {
	closes := make([]float64, 15)
	for i := range closes {
		closes[i] = 42
	}
	out := RSI(closes, 14)
	require.Len(t, out, 15)
	assert.Equal(t, 50.0, out[14])
}

func TestRSIMonotonicExtremes(t *testing.T) {
	up := make([]float64, 30)
	down := make([]float64, 30)
	for i := range up {
		up[i] = 100 + float64(i)
		down[i] = 100 - float64(i)
	}
	assert.Equal(t, 100.0, RSI(up, 14)[29])
	assert.Equal(t, 0.0, RSI(down, 14)[29])
}

func TestRSITooShort(t *testing.T) {
	assert.Nil(t, RSI([]float64{1, 2, 3}, 14))
}

func TestBollingerEnvelopes(t *testing.T) {
	closes := sellOffCloses()
	bands, ok := Bollinger(closes, 20, 3)
	require.True(t, ok)

	last := len(closes) - 1
	assert.InDelta(t, 99.46, bands.Middle[last], 1e-6)
	assert.InDelta(t, 96.2242, bands.Lower[last], 1e-3)
	assert.InDelta(t, 102.6958, bands.Upper[last], 1e-3)
	assert.InDelta(t, bands.Upper[last]-bands.Middle[last], bands.Middle[last]-bands.Lower[last], 1e-9)

	_, ok = Bollinger(closes[:10], 20, 3)
	assert.False(t, ok)
}
