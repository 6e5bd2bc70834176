package model

import "time"

// HistoryPoint is one snapshot total on the portfolio timeline.
type HistoryPoint struct {
	TakenAt    time.Time `json:"taken_at"`
	TotalValue float64   `json:"total_value"`
}

// Mover is the USD and percent change of one item between the two latest snapshots.
type Mover struct {
	Name string  `json:"name"`
	USD  float64 `json:"usd"`
	Pct  float64 `json:"pct"`
}

// Movers holds the top gainers and losers.
type Movers struct {
	Gainers []Mover `json:"gainers"`
	Losers  []Mover `json:"losers"`
}

// AllocationSlice is the value held in one category.
type AllocationSlice struct {
	Label string  `json:"label"`
	Value float64 `json:"value"`
}

// SaleScore is the 0-100 desirability of selling an item now.
type SaleScore struct {
	Score         int      `json:"score"`
	Why           []string `json:"why"`
	LowConfidence bool     `json:"low_confidence"`
}

// SalePick is a scored item with an optional suggested price and selling window.
type SalePick struct {
	Name          string   `json:"name"`
	Score         int      `json:"score"`
	Why           []string `json:"why"`
	SuggestPrice  *float64 `json:"suggest_price"`
	Window        *string  `json:"window"`
	LowConfidence bool     `json:"low_confidence"`
}
