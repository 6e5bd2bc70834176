package market

import (
	"testing"

	"skinsignal-api/internal/model"

	"github.com/stretchr/testify/assert"
)

func listings(prices ...float64) []model.Listing {
	out := make([]model.Listing, len(prices))
	for i, p := range prices {
		out[i] = model.Listing{Price: model.FlexFloat(p)}
	}
	return out
}

func TestPositivePrices(t *testing.T) {
	assert.Equal(t, []float64{1, 2, 5}, PositivePrices(listings(5, 0, -1, 2, 1)))
	assert.Empty(t, PositivePrices(nil))
}

func TestLadderSpread(t *testing.T) {
	assert.InDelta(t, 0.25, LadderSpread(listings(12.5, 10, 30)), 1e-9)
	assert.Equal(t, 0.0, LadderSpread(listings(10)))
	assert.Equal(t, 0.0, LadderSpread(listings(10, 0)))
}

func TestSuggestPrice(t *testing.T) {
	p, ok := SuggestPrice(listings(10, 20, 15))
	assert.True(t, ok)
	assert.Equal(t, 14.93, p)

	_, ok = SuggestPrice(listings(10))
	assert.False(t, ok)
}
