package service

import (
	"context"

	"skinsignal-api/internal/model"

	"go.uber.org/zap"
)

// cleanPremiumThreshold is the sticker premium below which a stickered listing still counts as clean.
const cleanPremiumThreshold = 0.02

// ListingProvider returns live listings for an item name.
type ListingProvider interface {
	GetListings(ctx context.Context, name string) ([]model.Listing, error)
}

// OverrideReader looks up a user's custom value for an item.
type OverrideReader interface {
	GetOverride(ctx context.Context, userID int64, itemName string) (*model.ItemOverride, error)
}

// Valuator turns listings and overrides into a ValuedItem.
type Valuator struct {
	listings  ListingProvider
	overrides OverrideReader
	log       *zap.Logger
}

// NewValuator creates a Valuator.
func NewValuator(listings ListingProvider, overrides OverrideReader, log *zap.Logger) *Valuator {
	return &Valuator{listings: listings, overrides: overrides, log: log.Named("valuator")}
}

// Value prices one aggregated item for userID. A listings failure degrades to an
// empty listing set; only an override lookup failure is returned.
func (v *Valuator) Value(ctx context.Context, userID int64, item model.InventoryItem) (model.ValuedItem, error) {
	listings, err := v.listings.GetListings(ctx, item.Name)
	if err != nil {
		v.log.Warn("listings unavailable, valuing from empty set",
			zap.String("item", item.Name), zap.Error(err))
		listings = nil
	}

	valued := PriceListings(item, listings)

	override, err := v.overrides.GetOverride(ctx, userID, item.Name)
	if err != nil {
		return model.ValuedItem{}, err
	}
	if override != nil && override.CustomValueUSD != nil {
		valued.ValuedPriceUSDEffective = *override.CustomValueUSD
		valued.OverrideApplied = true
	}
	return valued, nil
}

// PriceListings computes the market side of a valuation with no override applied.
func PriceListings(item model.InventoryItem, listings []model.Listing) model.ValuedItem {
	clean := make([]model.Listing, 0, len(listings))
	for _, l := range listings {
		if !l.HasStickers() || l.StickerPremiumPct.Float64() < cleanPremiumThreshold {
			clean = append(clean, l)
		}
	}
	candidates := clean
	if len(candidates) == 0 {
		candidates = listings
	}

	base := median(positive(candidates, func(l model.Listing) float64 { return l.Price.Float64() }))

	market := base
	if all := positive(listings, func(l model.Listing) float64 { return l.Price.Float64() }); len(all) > 0 {
		market = all[0]
		for _, p := range all[1:] {
			if p < market {
				market = p
			}
		}
	}

	valued := model.ValuedItem{
		Name:                    item.Name,
		Qty:                     item.Qty,
		Category:                Categorize(item.Name),
		BasePriceUSD:            base,
		ValuedPriceUSDMarket:    market,
		ValuedPriceUSDEffective: market,
	}

	if pcts := positive(listings, func(l model.Listing) float64 { return l.StickerPremiumPct.Float64() }); len(pcts) > 0 {
		pct := median(pcts)
		usd := base * pct
		valued.StickerPremiumPct = &pct
		valued.StickerPremiumUSD = &usd
	}
	return valued
}

func positive(listings []model.Listing, field func(model.Listing) float64) []float64 {
	out := make([]float64, 0, len(listings))
	for _, l := range listings {
		if v := field(l); v > 0 {
			out = append(out, v)
		}
	}
	return out
}
