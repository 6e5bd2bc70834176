package service

import (
	"context"
	"strings"
	"time"

	"skinsignal-api/internal/model"
)

const maxEventsListed = 50

// AlertManageStore is the storage the alert CRUD service needs.
type AlertManageStore interface {
	GetUserBySteamID(ctx context.Context, steamID string) (*model.User, error)
	CreateAlert(ctx context.Context, a *model.Alert) (int64, error)
	ListAlerts(ctx context.Context, userID int64) ([]model.Alert, error)
	SetAlertActive(ctx context.Context, userID, alertID int64, active bool) error
	ListAlertEvents(ctx context.Context, alertID int64, limit int) ([]model.AlertEvent, error)
}

// CreateAlertInput describes a new alert rule.
type CreateAlertInput struct {
	SteamID   string   `json:"steam_id" validate:"steamid"`
	ItemName  string   `json:"item_name" validate:"required"`
	PriceLTE  *float64 `json:"price_lte" validate:"omitempty,gt=0"`
	FloatMin  *float64 `json:"float_min" validate:"omitempty,gte=0,lte=1"`
	FloatMax  *float64 `json:"float_max" validate:"omitempty,gte=0,lte=1"`
	PaintSeed *int     `json:"paint_seed" validate:"omitempty,gte=0"`
}

// PhoneStatus is the user's SMS readiness as shown next to their alerts.
type PhoneStatus struct {
	Verified bool   `json:"verified"`
	Number   string `json:"number,omitempty"`
}

// AlertList is a user's alerts plus phone status.
type AlertList struct {
	Alerts []model.Alert `json:"alerts"`
	Phone  PhoneStatus   `json:"phone"`
}

// AlertService manages alert rules.
type AlertService struct {
	store AlertManageStore
	now   func() time.Time
}

// NewAlertService creates an AlertService.
func NewAlertService(store AlertManageStore) *AlertService {
	return &AlertService{store: store, now: time.Now}
}

// Create stores a new active alert for an existing user.
func (s *AlertService) Create(ctx context.Context, in CreateAlertInput) (*model.Alert, error) {
	in.SteamID = strings.TrimSpace(in.SteamID)
	in.ItemName = strings.TrimSpace(in.ItemName)
	if err := model.Validate(in); err != nil {
		return nil, err
	}

	u, err := s.store.GetUserBySteamID(ctx, in.SteamID)
	if err != nil {
		return nil, err
	}

	a := &model.Alert{
		UserID:    u.ID,
		ItemName:  in.ItemName,
		PriceLTE:  in.PriceLTE,
		FloatMin:  in.FloatMin,
		FloatMax:  in.FloatMax,
		PaintSeed: in.PaintSeed,
		Active:    true,
		CreatedAt: s.now(),
	}
	if _, err := s.store.CreateAlert(ctx, a); err != nil {
		return nil, err
	}
	return a, nil
}

// List returns the user's alerts, or an empty list for unknown users.
func (s *AlertService) List(ctx context.Context, rawSteamID string) (*AlertList, error) {
	steamID, err := model.NormalizeSteamID(rawSteamID)
	if err != nil {
		return nil, err
	}

	out := &AlertList{Alerts: []model.Alert{}}
	u, err := s.store.GetUserBySteamID(ctx, steamID)
	if isNotFound(err) {
		return out, nil
	}
	if err != nil {
		return nil, err
	}

	if out.Alerts, err = s.store.ListAlerts(ctx, u.ID); err != nil {
		return nil, err
	}
	out.Phone = PhoneStatus{Verified: u.PhoneVerified, Number: u.PhoneE164}
	return out, nil
}

// SetActive toggles one of the user's alerts.
func (s *AlertService) SetActive(ctx context.Context, rawSteamID string, alertID int64, active bool) error {
	u, err := s.user(ctx, rawSteamID)
	if err != nil {
		return err
	}
	return s.store.SetAlertActive(ctx, u.ID, alertID, active)
}

// Events returns the recent firings of one of the user's alerts.
func (s *AlertService) Events(ctx context.Context, rawSteamID string, alertID int64) ([]model.AlertEvent, error) {
	u, err := s.user(ctx, rawSteamID)
	if err != nil {
		return nil, err
	}
	alerts, err := s.store.ListAlerts(ctx, u.ID)
	if err != nil {
		return nil, err
	}
	for _, a := range alerts {
		if a.ID == alertID {
			return s.store.ListAlertEvents(ctx, alertID, maxEventsListed)
		}
	}
	return nil, notFoundAlert(alertID)
}

func (s *AlertService) user(ctx context.Context, rawSteamID string) (*model.User, error) {
	steamID, err := model.NormalizeSteamID(rawSteamID)
	if err != nil {
		return nil, err
	}
	return s.store.GetUserBySteamID(ctx, steamID)
}
