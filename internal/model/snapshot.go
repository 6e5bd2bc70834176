package model

import "time"

// ValuedItem is the valuation of one aggregated item inside one snapshot.
type ValuedItem struct {
	Name                    string   `json:"name"`
	Qty                     int      `json:"qty"`
	Category                string   `json:"category"`
	BasePriceUSD            float64  `json:"base_price_usd"`
	StickerPremiumPct       *float64 `json:"sticker_premium_pct"`
	StickerPremiumUSD       *float64 `json:"sticker_premium_usd"`
	ValuedPriceUSDMarket    float64  `json:"valued_price_usd_market"`
	ValuedPriceUSDEffective float64  `json:"valued_price_usd_effective"`
	OverrideApplied         bool     `json:"override_applied"`
}

// LineValue is qty times the effective price.
func (v ValuedItem) LineValue() float64 {
	return float64(v.Qty) * v.ValuedPriceUSDEffective
}

// Snapshot is an immutable point-in-time valuation of a user's inventory.
type Snapshot struct {
	ID         int64        `json:"id"`
	UserID     int64        `json:"user_id"`
	TakenAt    time.Time    `json:"taken_at"`
	TotalValue float64      `json:"total_value"`
	Items      []ValuedItem `json:"items,omitempty"`
}

// SnapshotResult is returned to the caller of a snapshot trigger.
type SnapshotResult struct {
	SnapshotID int64        `json:"snapshot_id"`
	TotalValue float64      `json:"total_value"`
	Items      []ValuedItem `json:"items"`
}

// ItemOverride is a user-set custom value for one item name.
type ItemOverride struct {
	UserID         int64     `json:"user_id"`
	ItemName       string    `json:"item_name"`
	CustomValueUSD *float64  `json:"custom_value_usd"`
	Note           string    `json:"note,omitempty"`
	UpdatedAt      time.Time `json:"updated_at"`
}
