package model

// InventoryPayload is the normalized inventory shape returned by the inventory source.
// Both lists must be present; an empty inventory is two empty lists.
type InventoryPayload struct {
	Assets       []Asset       `json:"assets" validate:"required"`
	Descriptions []Description `json:"descriptions" validate:"required"`
}

// Asset is one owned item instance. Each entry counts as quantity 1.
type Asset struct {
	ClassID    FlexString `json:"classid"`
	InstanceID FlexString `json:"instanceid"`
	Amount     FlexString `json:"amount,omitempty"`
}

// Key joins class and instance ids the same way descriptions are keyed.
func (a Asset) Key() string {
	return a.ClassID.String() + "_" + a.InstanceID.String()
}

// Description maps a class/instance key to a display name.
type Description struct {
	ClassID        FlexString `json:"classid"`
	InstanceID     FlexString `json:"instanceid"`
	MarketHashName string     `json:"market_hash_name,omitempty"`
	Name           string     `json:"name,omitempty"`
}

// Key joins class and instance ids.
func (d Description) Key() string {
	return d.ClassID.String() + "_" + d.InstanceID.String()
}

// DisplayName prefers the market hash name, which is what listings are keyed by.
func (d Description) DisplayName() string {
	if d.MarketHashName != "" {
		return d.MarketHashName
	}
	return d.Name
}

// InventoryItem is one aggregated line: a distinct item name and how many the user holds.
type InventoryItem struct {
	Name string `json:"name" validate:"required"`
	Qty  int    `json:"qty" validate:"gte=1"`
}
