package steam

import (
	"testing"

	"skinsignal-api/internal/model"

	"github.com/stretchr/testify/assert"
)

func TestAggregate(t *testing.T) {
	payload := &model.InventoryPayload{
		Assets: []model.Asset{
			{ClassID: "1", InstanceID: "0"},
			{ClassID: "1", InstanceID: "0"},
			{ClassID: "2", InstanceID: "7"},
			{ClassID: "3", InstanceID: "0"}, // no description
			{ClassID: "4", InstanceID: "0"},
		},
		Descriptions: []model.Description{
			{ClassID: "1", InstanceID: "0", MarketHashName: "AK-47 | Slate (Minimal Wear)"},
			{ClassID: "2", InstanceID: "7", MarketHashName: "Old Name"},
			{ClassID: "2", InstanceID: "7", MarketHashName: "Sticker | Crown (Foil)"},
			{ClassID: "4", InstanceID: "0", Name: "AK-47 | Slate (Minimal Wear)"},
		},
	}

	items := Aggregate(payload)

	assert.Equal(t, []model.InventoryItem{
		{Name: "AK-47 | Slate (Minimal Wear)", Qty: 3},
		{Name: "Sticker | Crown (Foil)", Qty: 1},
	}, items)
}

func TestAggregate_Empty(t *testing.T) {
	assert.Empty(t, Aggregate(nil))
	assert.Empty(t, Aggregate(&model.InventoryPayload{Assets: []model.Asset{}, Descriptions: []model.Description{}}))
}

func TestAggregate_AllUnresolved(t *testing.T) {
	items := Aggregate(&model.InventoryPayload{
		Assets: []model.Asset{{ClassID: "1", InstanceID: "0"}},
	})
	assert.Empty(t, items)
}
