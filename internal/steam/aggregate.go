package steam

import "skinsignal-api/internal/model"

// Aggregate collapses assets into one line per resolved item name.
// Later descriptions overwrite earlier ones with the same key; assets with no
// matching description are dropped. Output order follows first appearance.
func Aggregate(payload *model.InventoryPayload) []model.InventoryItem {
	if payload == nil {
		return []model.InventoryItem{}
	}

	names := make(map[string]string, len(payload.Descriptions))
	for _, d := range payload.Descriptions {
		if name := d.DisplayName(); name != "" {
			names[d.Key()] = name
		}
	}

	counts := make(map[string]int)
	order := make([]string, 0)
	for _, a := range payload.Assets {
		name, ok := names[a.Key()]
		if !ok {
			continue
		}
		if _, seen := counts[name]; !seen {
			order = append(order, name)
		}
		counts[name]++
	}

	items := make([]model.InventoryItem, 0, len(order))
	for _, name := range order {
		items = append(items, model.InventoryItem{Name: name, Qty: counts[name]})
	}
	return items
}
