package model

import "time"

// Alert is a user-defined price rule. Only PriceLTE is evaluated today;
// the float/paint-seed fields are stored for future matching.
type Alert struct {
	ID        int64     `json:"id"`
	UserID    int64     `json:"user_id"`
	ItemName  string    `json:"item_name"`
	PriceLTE  *float64  `json:"price_lte"`
	FloatMin  *float64  `json:"float_min"`
	FloatMax  *float64  `json:"float_max"`
	PaintSeed *int      `json:"paint_seed"`
	Active    bool      `json:"active"`
	CreatedAt time.Time `json:"created_at"`
}

// AlertEvent records one firing of an alert. Append-only.
type AlertEvent struct {
	ID      int64        `json:"id"`
	AlertID int64        `json:"alert_id"`
	FiredAt time.Time    `json:"fired_at"`
	Payload AlertPayload `json:"payload"`
}

// AlertPayload is what triggered the event.
type AlertPayload struct {
	Item       string  `json:"item"`
	Market     float64 `json:"market"`
	SnapshotID int64   `json:"snapshotId"`
}
