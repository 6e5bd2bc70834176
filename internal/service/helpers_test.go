package service

import (
	"context"
	"database/sql"
	"testing"
	"time"

	"skinsignal-api/internal/model"
	"skinsignal-api/internal/repository"

	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"
)

const testSteamID = "76561198000000001"

var t0 = time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

// MockInventorySource is a mock implementation of InventorySource.
type MockInventorySource struct {
	mock.Mock
}

func (m *MockInventorySource) FetchInventory(ctx context.Context, steamID string) (*model.InventoryPayload, error) {
	args := m.Called(ctx, steamID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.InventoryPayload), args.Error(1)
}

// MockListingProvider is a mock implementation of ListingProvider.
type MockListingProvider struct {
	mock.Mock
}

func (m *MockListingProvider) GetListings(ctx context.Context, name string) ([]model.Listing, error) {
	args := m.Called(ctx, name)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]model.Listing), args.Error(1)
}

// MockSender is a mock implementation of notify.Sender.
type MockSender struct {
	mock.Mock
	live bool
}

func (m *MockSender) Send(ctx context.Context, to, body string) error {
	args := m.Called(ctx, to, body)
	return args.Error(0)
}

func (m *MockSender) Live() bool { return m.live }

func newStore(t *testing.T) *repository.SQLStore {
	t.Helper()
	db, err := sql.Open("sqlite", ":memory:")
	require.NoError(t, err)
	db.SetMaxOpenConns(1)
	t.Cleanup(func() { db.Close() })

	s := repository.NewSQLStore(db, repository.SQLite, zaptest.NewLogger(t))
	require.NoError(t, s.Migrate(context.Background()))
	return s
}

func listings(prices ...float64) []model.Listing {
	out := make([]model.Listing, 0, len(prices))
	for _, p := range prices {
		out = append(out, model.Listing{Price: model.FlexFloat(p)})
	}
	return out
}

func payload(names ...string) *model.InventoryPayload {
	p := &model.InventoryPayload{Assets: []model.Asset{}, Descriptions: []model.Description{}}
	classes := map[string]string{}
	for _, n := range names {
		id, ok := classes[n]
		if !ok {
			id = string(rune('a' + len(classes)))
			classes[n] = id
			p.Descriptions = append(p.Descriptions, model.Description{
				ClassID: model.FlexString(id), InstanceID: "0", MarketHashName: n,
			})
		}
		p.Assets = append(p.Assets, model.Asset{ClassID: model.FlexString(id), InstanceID: "0"})
	}
	return p
}

func fptr(f float64) *float64 { return &f }
