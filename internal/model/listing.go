package model

import (
	"bytes"
	"encoding/json"
)

// Listing is one external market offer. Zero values mean "not provided".
type Listing struct {
	Price             FlexFloat         `json:"price,omitempty"`
	Stickers          []json.RawMessage `json:"stickers,omitempty"`
	StickerPremiumPct FlexFloat         `json:"sticker_premium_pct,omitempty"`
	Float             FlexFloat         `json:"float,omitempty"`
	PaintSeed         int               `json:"paintseed,omitempty"`
}

// HasStickers reports whether the listing carries any applied stickers.
func (l Listing) HasStickers() bool {
	return len(l.Stickers) > 0
}

// ListingPage accepts both `{"results":[...]}` and a bare array. Any other shape
// decodes to an empty page.
type ListingPage []Listing

// UnmarshalJSON implements the json.Unmarshaler interface.
func (p *ListingPage) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if len(data) == 0 || string(data) == "null" {
		*p = ListingPage{}
		return nil
	}

	if data[0] == '[' {
		var list []Listing
		if err := json.Unmarshal(data, &list); err != nil {
			return err
		}
		*p = ListingPage(list)
		return nil
	}

	var env struct {
		Results json.RawMessage `json:"results"`
	}
	if err := json.Unmarshal(data, &env); err != nil {
		return err
	}
	results := bytes.TrimSpace(env.Results)
	if len(results) == 0 || results[0] != '[' {
		*p = ListingPage{}
		return nil
	}
	var list []Listing
	if err := json.Unmarshal(results, &list); err != nil {
		return err
	}
	*p = ListingPage(list)
	return nil
}
