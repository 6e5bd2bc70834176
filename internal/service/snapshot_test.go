package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"skinsignal-api/internal/apperror"
	"skinsignal-api/internal/model"
	"skinsignal-api/internal/notify"
	"skinsignal-api/internal/repository"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"
)

const (
	redline = "AK-47 | Redline (Field-Tested)"
	kase    = "Operation Breakout Weapon Case"
)

type snapshotFixture struct {
	store     *repository.SQLStore
	inventory *MockInventorySource
	market    *MockListingProvider
	runner    *DetachedRunner
	svc       *SnapshotService
}

func newSnapshotFixture(t *testing.T, store *repository.SQLStore, alerts AlertRunner) *snapshotFixture {
	t.Helper()
	if store == nil {
		store = newStore(t)
	}
	log := zaptest.NewLogger(t)
	f := &snapshotFixture{
		store:     store,
		inventory: new(MockInventorySource),
		market:    new(MockListingProvider),
		runner:    NewDetachedRunner(time.Second, log),
	}
	valuator := NewValuator(f.market, f.store, log)
	f.svc = NewSnapshotService(f.store, f.inventory, valuator, alerts, f.runner,
		SnapshotConfig{RateLimit: time.Minute, FanOut: 2}, log)
	f.svc.now = func() time.Time { return t0 }
	return f
}

func TestTakeSnapshot_ValuesAndStores(t *testing.T) {
	f := newSnapshotFixture(t, nil, nil)
	ctx := context.Background()

	f.inventory.On("FetchInventory", mock.Anything, testSteamID).Return(payload(redline, kase, redline), nil)
	f.market.On("GetListings", mock.Anything, redline).Return(listings(15, 12, 20), nil)
	f.market.On("GetListings", mock.Anything, kase).Return([]model.Listing{}, nil)

	res, err := f.svc.TakeSnapshot(ctx, " "+testSteamID+" ")
	require.NoError(t, err)

	require.Len(t, res.Items, 2)
	assert.Equal(t, redline, res.Items[0].Name)
	assert.Equal(t, 2, res.Items[0].Qty)
	assert.Equal(t, "Rifles", res.Items[0].Category)
	assert.Equal(t, 15.0, res.Items[0].BasePriceUSD)
	assert.Equal(t, 12.0, res.Items[0].ValuedPriceUSDMarket)
	assert.Equal(t, kase, res.Items[1].Name)
	assert.Equal(t, 0.0, res.Items[1].ValuedPriceUSDEffective)
	assert.Equal(t, 24.0, res.TotalValue)

	u, err := f.store.GetUserBySteamID(ctx, testSteamID)
	require.NoError(t, err)
	history, err := f.store.History(ctx, u.ID)
	require.NoError(t, err)
	require.Len(t, history, 1)
	assert.Equal(t, 24.0, history[0].TotalValue)

	f.inventory.AssertExpectations(t)
	f.market.AssertExpectations(t)
}

func TestTakeSnapshot_RateLimited(t *testing.T) {
	f := newSnapshotFixture(t, nil, nil)
	ctx := context.Background()

	f.inventory.On("FetchInventory", mock.Anything, testSteamID).Return(payload(kase), nil)
	f.market.On("GetListings", mock.Anything, kase).Return(listings(1), nil)

	_, err := f.svc.TakeSnapshot(ctx, testSteamID)
	require.NoError(t, err)

	f.svc.now = func() time.Time { return t0.Add(30 * time.Second) }
	_, err = f.svc.TakeSnapshot(ctx, testSteamID)
	require.Error(t, err)
	assert.True(t, errors.Is(err, apperror.ErrRateLimited))
	var rl *apperror.RateLimitError
	require.True(t, errors.As(err, &rl))
	assert.Equal(t, 30, rl.RetryAfterSeconds())

	f.svc.now = func() time.Time { return t0.Add(61 * time.Second) }
	_, err = f.svc.TakeSnapshot(ctx, testSteamID)
	assert.NoError(t, err)

	f.inventory.AssertNumberOfCalls(t, "FetchInventory", 2)
}

func TestTakeSnapshot_OverrideSetsEffectiveOnly(t *testing.T) {
	f := newSnapshotFixture(t, nil, nil)
	ctx := context.Background()

	u, err := f.store.UpsertUser(ctx, testSteamID)
	require.NoError(t, err)
	require.NoError(t, f.store.SetOverride(ctx, &model.ItemOverride{UserID: u.ID, ItemName: redline, CustomValueUSD: fptr(100)}))

	f.inventory.On("FetchInventory", mock.Anything, testSteamID).Return(payload(redline), nil)
	f.market.On("GetListings", mock.Anything, redline).Return(listings(40), nil)

	res, err := f.svc.TakeSnapshot(ctx, testSteamID)
	require.NoError(t, err)
	require.Len(t, res.Items, 1)
	assert.Equal(t, 40.0, res.Items[0].ValuedPriceUSDMarket)
	assert.Equal(t, 100.0, res.Items[0].ValuedPriceUSDEffective)
	assert.True(t, res.Items[0].OverrideApplied)
	assert.Equal(t, 100.0, res.TotalValue)
}

func TestTakeSnapshot_MarketFailureDegrades(t *testing.T) {
	f := newSnapshotFixture(t, nil, nil)

	f.inventory.On("FetchInventory", mock.Anything, testSteamID).Return(payload(redline), nil)
	f.market.On("GetListings", mock.Anything, redline).Return(nil, apperror.MarketFetch("CSFloat listings failed (500)", nil))

	res, err := f.svc.TakeSnapshot(context.Background(), testSteamID)
	require.NoError(t, err)
	assert.Equal(t, 0.0, res.TotalValue)
	assert.Equal(t, 0.0, res.Items[0].BasePriceUSD)
}

func TestTakeSnapshot_InventoryErrors(t *testing.T) {
	t.Run("source failure", func(t *testing.T) {
		f := newSnapshotFixture(t, nil, nil)
		f.inventory.On("FetchInventory", mock.Anything, testSteamID).
			Return(nil, apperror.InventoryUnavailable("steam inventory is private or unreachable", nil))

		_, err := f.svc.TakeSnapshot(context.Background(), testSteamID)
		assert.True(t, errors.Is(err, apperror.ErrInventoryUnavailable))
	})

	t.Run("missing descriptions", func(t *testing.T) {
		f := newSnapshotFixture(t, nil, nil)
		f.inventory.On("FetchInventory", mock.Anything, testSteamID).
			Return(&model.InventoryPayload{Assets: []model.Asset{}}, nil)

		_, err := f.svc.TakeSnapshot(context.Background(), testSteamID)
		assert.True(t, errors.Is(err, apperror.ErrInventoryUnavailable))
	})

	t.Run("invalid steam id", func(t *testing.T) {
		f := newSnapshotFixture(t, nil, nil)
		_, err := f.svc.TakeSnapshot(context.Background(), "123")
		assert.True(t, errors.Is(err, apperror.ErrValidation))
		f.inventory.AssertNotCalled(t, "FetchInventory", mock.Anything, mock.Anything)
	})
}

func TestTakeSnapshot_EmptyInventory(t *testing.T) {
	f := newSnapshotFixture(t, nil, nil)
	f.inventory.On("FetchInventory", mock.Anything, testSteamID).Return(payload(), nil)

	res, err := f.svc.TakeSnapshot(context.Background(), testSteamID)
	require.NoError(t, err)
	assert.Empty(t, res.Items)
	assert.Equal(t, 0.0, res.TotalValue)
	f.market.AssertNotCalled(t, "GetListings", mock.Anything, mock.Anything)
}

type failingAlerts struct{}

func (failingAlerts) Evaluate(context.Context, int64, []model.ValuedItem, int64) error {
	return errors.New("alert store down")
}

func TestTakeSnapshot_AlertFailureDoesNotFailSnapshot(t *testing.T) {
	f := newSnapshotFixture(t, nil, failingAlerts{})
	f.inventory.On("FetchInventory", mock.Anything, testSteamID).Return(payload(kase), nil)
	f.market.On("GetListings", mock.Anything, kase).Return(listings(2), nil)

	res, err := f.svc.TakeSnapshot(context.Background(), testSteamID)
	require.NoError(t, err)
	assert.NotZero(t, res.SnapshotID)

	require.NoError(t, f.runner.Wait(context.Background()))
	assert.Equal(t, int64(1), f.runner.Stats().Failed)
}

func TestTakeSnapshot_FiresAlertsAfterCommit(t *testing.T) {
	log := zaptest.NewLogger(t)
	store := newStore(t)
	ctx := context.Background()

	u, err := store.UpsertUser(ctx, testSteamID)
	require.NoError(t, err)
	_, err = store.CreateAlert(ctx, &model.Alert{UserID: u.ID, ItemName: redline, PriceLTE: fptr(13), Active: true})
	require.NoError(t, err)

	evaluator := NewAlertEvaluator(store, notify.NewLogSender(log), time.Hour, log)
	f := newSnapshotFixture(t, store, evaluator)

	f.inventory.On("FetchInventory", mock.Anything, testSteamID).Return(payload(redline), nil)
	f.market.On("GetListings", mock.Anything, redline).Return(listings(12.5), nil)

	res, err := f.svc.TakeSnapshot(ctx, testSteamID)
	require.NoError(t, err)
	require.NoError(t, f.runner.Wait(ctx))

	alerts, err := store.ListAlerts(ctx, u.ID)
	require.NoError(t, err)
	events, err := store.ListAlertEvents(ctx, alerts[0].ID, 10)
	require.NoError(t, err)
	require.Len(t, events, 1)
	assert.Equal(t, res.SnapshotID, events[0].Payload.SnapshotID)
	assert.Equal(t, 12.5, events[0].Payload.Market)
}

func TestPreviewInventory(t *testing.T) {
	f := newSnapshotFixture(t, nil, nil)
	f.inventory.On("FetchInventory", mock.Anything, testSteamID).Return(payload(kase, kase, redline), nil)

	items, err := f.svc.PreviewInventory(context.Background(), testSteamID)
	require.NoError(t, err)
	assert.Equal(t, []model.InventoryItem{{Name: kase, Qty: 2}, {Name: redline, Qty: 1}}, items)
}

func TestUserLocks_ReleasesEntries(t *testing.T) {
	var l userLocks
	unlock := l.lock("a")
	unlock()
	assert.Empty(t, l.locks)
}
