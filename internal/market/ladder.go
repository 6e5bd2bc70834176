package market

import (
	"sort"

	"skinsignal-api/internal/model"

	"github.com/shopspring/decimal"
)

// undercut is applied to the second-lowest ask when suggesting a sale price.
var undercut = decimal.NewFromFloat(0.995)

// PositivePrices returns the listing prices above zero, ascending.
func PositivePrices(listings []model.Listing) []float64 {
	prices := make([]float64, 0, len(listings))
	for _, l := range listings {
		if p := l.Price.Float64(); p > 0 {
			prices = append(prices, p)
		}
	}
	sort.Float64s(prices)
	return prices
}

// LadderSpread is the relative gap between the two cheapest asks, or 0 with fewer than two.
func LadderSpread(listings []model.Listing) float64 {
	prices := PositivePrices(listings)
	if len(prices) < 2 {
		return 0
	}
	return (prices[1] - prices[0]) / prices[0]
}

// SuggestPrice undercuts the second-lowest ask by 0.5%, rounded to cents.
// ok is false when fewer than two positive prices exist.
func SuggestPrice(listings []model.Listing) (price float64, ok bool) {
	prices := PositivePrices(listings)
	if len(prices) < 2 {
		return 0, false
	}
	p, _ := decimal.NewFromFloat(prices[1]).Mul(undercut).Round(2).Float64()
	return p, true
}
