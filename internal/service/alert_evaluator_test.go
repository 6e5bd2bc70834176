package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"skinsignal-api/internal/model"
	"skinsignal-api/internal/repository"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest"
	"go.uber.org/zap/zaptest/observer"
)

const testPhone = "+15551234567"

func seedAlert(t *testing.T, store *repository.SQLStore, verified bool, a model.Alert) (*model.User, int64) {
	t.Helper()
	ctx := context.Background()
	u, err := store.UpsertUser(ctx, testSteamID)
	require.NoError(t, err)
	require.NoError(t, store.SetPhone(ctx, u.ID, testPhone))
	if verified {
		require.NoError(t, store.MarkPhoneVerified(ctx, u.ID))
	}
	a.UserID = u.ID
	a.Active = true
	id, err := store.CreateAlert(ctx, &a)
	require.NoError(t, err)
	return u, id
}

func valued(name string, market float64) model.ValuedItem {
	return model.ValuedItem{Name: name, Qty: 1, ValuedPriceUSDMarket: market, ValuedPriceUSDEffective: market}
}

func TestAlertEvaluator_Cooldown(t *testing.T) {
	store := newStore(t)
	ctx := context.Background()
	u, alertID := seedAlert(t, store, true, model.Alert{ItemName: redline, PriceLTE: fptr(20)})

	sender := &MockSender{live: true}
	sender.On("Send", mock.Anything, testPhone, "SkinSignal: "+redline+" is at $15.00 (≤ your $20.00)").Return(nil)

	e := NewAlertEvaluator(store, sender, 2*time.Hour, zaptest.NewLogger(t))
	items := []model.ValuedItem{valued(redline, 15)}

	e.now = func() time.Time { return t0 }
	require.NoError(t, e.Evaluate(ctx, u.ID, items, 1))

	e.now = func() time.Time { return t0.Add(time.Hour) }
	require.NoError(t, e.Evaluate(ctx, u.ID, items, 2))

	events, err := store.ListAlertEvents(ctx, alertID, 10)
	require.NoError(t, err)
	assert.Len(t, events, 1)

	e.now = func() time.Time { return t0.Add(3 * time.Hour) }
	require.NoError(t, e.Evaluate(ctx, u.ID, items, 3))

	events, err = store.ListAlertEvents(ctx, alertID, 10)
	require.NoError(t, err)
	require.Len(t, events, 2)
	assert.Equal(t, int64(3), events[0].Payload.SnapshotID)

	sender.AssertNumberOfCalls(t, "Send", 2)
}

func TestAlertEvaluator_ComparesMarketPrice(t *testing.T) {
	store := newStore(t)
	ctx := context.Background()
	u, alertID := seedAlert(t, store, true, model.Alert{ItemName: redline, PriceLTE: fptr(20)})

	sender := &MockSender{live: true}
	e := NewAlertEvaluator(store, sender, 0, zaptest.NewLogger(t))

	// an override pushes the effective value under the threshold but the market stays above it
	it := valued(redline, 25)
	it.ValuedPriceUSDEffective = 5
	it.OverrideApplied = true
	require.NoError(t, e.Evaluate(ctx, u.ID, []model.ValuedItem{it}, 1))

	events, err := store.ListAlertEvents(ctx, alertID, 10)
	require.NoError(t, err)
	assert.Empty(t, events)
	sender.AssertNotCalled(t, "Send", mock.Anything, mock.Anything, mock.Anything)
}

func TestAlertEvaluator_UnverifiedPhoneRecordsEventOnly(t *testing.T) {
	store := newStore(t)
	ctx := context.Background()
	u, alertID := seedAlert(t, store, false, model.Alert{ItemName: redline, PriceLTE: fptr(20)})

	sender := &MockSender{live: true}
	e := NewAlertEvaluator(store, sender, time.Hour, zaptest.NewLogger(t))
	require.NoError(t, e.Evaluate(ctx, u.ID, []model.ValuedItem{valued(redline, 20)}, 1))

	events, err := store.ListAlertEvents(ctx, alertID, 10)
	require.NoError(t, err)
	assert.Len(t, events, 1)
	sender.AssertNotCalled(t, "Send", mock.Anything, mock.Anything, mock.Anything)
}

func TestAlertEvaluator_SkipsInactiveAndMissingItems(t *testing.T) {
	store := newStore(t)
	ctx := context.Background()
	u, alertID := seedAlert(t, store, true, model.Alert{ItemName: redline, PriceLTE: fptr(20)})
	_, err := store.CreateAlert(ctx, &model.Alert{UserID: u.ID, ItemName: kase, PriceLTE: fptr(5), Active: true})
	require.NoError(t, err)
	require.NoError(t, store.SetAlertActive(ctx, u.ID, alertID, false))

	sender := &MockSender{live: true}
	e := NewAlertEvaluator(store, sender, time.Hour, zaptest.NewLogger(t))
	require.NoError(t, e.Evaluate(ctx, u.ID, []model.ValuedItem{valued(redline, 1)}, 1))

	events, err := store.ListAlertEvents(ctx, alertID, 10)
	require.NoError(t, err)
	assert.Empty(t, events)
	sender.AssertNotCalled(t, "Send", mock.Anything, mock.Anything, mock.Anything)
}

func TestAlertEvaluator_NotificationFailureIsIsolated(t *testing.T) {
	store := newStore(t)
	ctx := context.Background()
	u, first := seedAlert(t, store, true, model.Alert{ItemName: redline, PriceLTE: fptr(20)})
	second, err := store.CreateAlert(ctx, &model.Alert{UserID: u.ID, ItemName: kase, PriceLTE: fptr(5), Active: true})
	require.NoError(t, err)

	sender := &MockSender{live: true}
	sender.On("Send", mock.Anything, testPhone, mock.Anything).Return(errors.New("twilio down"))

	core, logs := observer.New(zapcore.WarnLevel)
	e := NewAlertEvaluator(store, sender, time.Hour, zap.New(core))
	require.NoError(t, e.Evaluate(ctx, u.ID, []model.ValuedItem{valued(redline, 15), valued(kase, 1)}, 1))

	for _, id := range []int64{first, second} {
		events, err := store.ListAlertEvents(ctx, id, 10)
		require.NoError(t, err)
		assert.Len(t, events, 1)
	}
	sender.AssertNumberOfCalls(t, "Send", 2)
	assert.Equal(t, 2, logs.FilterMessage("alert notification failed").Len())
}

func TestAlertMessage(t *testing.T) {
	assert.Equal(t, "SkinSignal: Case is at $1.50 (≤ your $2.00)",
		alertMessage(model.Alert{ItemName: "Case", PriceLTE: fptr(2)}, 1.5))
	assert.Equal(t, "SkinSignal: Case is at $1.50", alertMessage(model.Alert{ItemName: "Case"}, 1.5))
}
