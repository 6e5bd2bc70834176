package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"skinsignal-api/internal/model"
	"skinsignal-api/internal/notify"

	"go.uber.org/zap"
)

// DefaultAlertCooldown is the minimum gap between two firings of one alert.
const DefaultAlertCooldown = 2 * time.Hour

// AlertStore is the storage the evaluator needs.
type AlertStore interface {
	ListActiveAlerts(ctx context.Context, userID int64) ([]model.Alert, error)
	HasAlertEventSince(ctx context.Context, alertID int64, since time.Time) (bool, error)
	InsertAlertEvent(ctx context.Context, e *model.AlertEvent) (int64, error)
	GetUser(ctx context.Context, id int64) (*model.User, error)
}

// AlertEvaluator fires price alerts against a fresh valuation batch.
type AlertEvaluator struct {
	store    AlertStore
	sender   notify.Sender
	cooldown time.Duration
	now      func() time.Time
	log      *zap.Logger
}

// NewAlertEvaluator creates an evaluator. A zero cooldown uses DefaultAlertCooldown.
func NewAlertEvaluator(store AlertStore, sender notify.Sender, cooldown time.Duration, log *zap.Logger) *AlertEvaluator {
	if cooldown <= 0 {
		cooldown = DefaultAlertCooldown
	}
	return &AlertEvaluator{store: store, sender: sender, cooldown: cooldown, now: time.Now, log: log.Named("alerts")}
}

// Evaluate checks each active alert of userID against items. Thresholds compare
// the market price, never the override-aware effective price. Per-alert storage
// failures are collected; notification failures are only logged.
func (e *AlertEvaluator) Evaluate(ctx context.Context, userID int64, items []model.ValuedItem, snapshotID int64) error {
	alerts, err := e.store.ListActiveAlerts(ctx, userID)
	if err != nil {
		return fmt.Errorf("list active alerts: %w", err)
	}
	if len(alerts) == 0 {
		return nil
	}

	byName := make(map[string]model.ValuedItem, len(items))
	for _, it := range items {
		byName[it.Name] = it
	}

	var (
		user    *model.User
		userErr error
		loaded  bool
		errs    []error
		fired   int
	)

	for _, alert := range alerts {
		it, ok := byName[alert.ItemName]
		if !ok {
			continue
		}
		market := it.ValuedPriceUSDMarket
		if alert.PriceLTE != nil && market > *alert.PriceLTE {
			continue
		}

		now := e.now()
		recent, err := e.store.HasAlertEventSince(ctx, alert.ID, now.Add(-e.cooldown))
		if err != nil {
			errs = append(errs, fmt.Errorf("alert %d: %w", alert.ID, err))
			continue
		}
		if recent {
			e.log.Debug("alert in cooldown", zap.Int64("alert_id", alert.ID))
			continue
		}

		event := &model.AlertEvent{
			AlertID: alert.ID,
			FiredAt: now,
			Payload: model.AlertPayload{Item: it.Name, Market: market, SnapshotID: snapshotID},
		}
		if _, err := e.store.InsertAlertEvent(ctx, event); err != nil {
			errs = append(errs, fmt.Errorf("alert %d: %w", alert.ID, err))
			continue
		}
		fired++

		if !loaded {
			user, userErr = e.store.GetUser(ctx, userID)
			loaded = true
			if userErr != nil {
				e.log.Warn("alert owner lookup failed, skipping notifications", zap.Int64("user_id", userID), zap.Error(userErr))
			}
		}
		if !user.CanReceiveSMS() {
			continue
		}
		if err := e.sender.Send(ctx, user.PhoneE164, alertMessage(alert, market)); err != nil {
			e.log.Warn("alert notification failed",
				zap.Int64("alert_id", alert.ID), zap.Error(err))
		}
	}

	e.log.Info("alerts evaluated",
		zap.Int64("user_id", userID),
		zap.Int64("snapshot_id", snapshotID),
		zap.Int("active", len(alerts)),
		zap.Int("fired", fired))

	return errors.Join(errs...)
}

func alertMessage(alert model.Alert, market float64) string {
	if alert.PriceLTE == nil {
		return fmt.Sprintf("SkinSignal: %s is at $%.2f", alert.ItemName, market)
	}
	return fmt.Sprintf("SkinSignal: %s is at $%.2f (≤ your $%.2f)", alert.ItemName, market, *alert.PriceLTE)
}
