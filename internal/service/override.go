package service

import (
	"context"
	"strings"
	"time"

	"skinsignal-api/internal/apperror"
	"skinsignal-api/internal/model"
)

// OverrideStore is the storage the override service needs.
type OverrideStore interface {
	UpsertUser(ctx context.Context, steamID string) (*model.User, error)
	GetUserBySteamID(ctx context.Context, steamID string) (*model.User, error)
	SetOverride(ctx context.Context, o *model.ItemOverride) error
	DeleteOverride(ctx context.Context, userID int64, itemName string) error
	ListOverrides(ctx context.Context, userID int64) ([]model.ItemOverride, error)
}

// SetOverrideInput is a request to pin an item's value.
type SetOverrideInput struct {
	ItemName       string   `json:"item_name" validate:"required"`
	CustomValueUSD *float64 `json:"custom_value_usd" validate:"required,gte=0"`
	Note           string   `json:"note" validate:"max=500"`
}

// OverrideService manages per-item user overrides. Overrides take effect on the next snapshot.
type OverrideService struct {
	store OverrideStore
	now   func() time.Time
}

// NewOverrideService creates an OverrideService.
func NewOverrideService(store OverrideStore) *OverrideService {
	return &OverrideService{store: store, now: time.Now}
}

// Set creates or replaces the override for one item.
func (s *OverrideService) Set(ctx context.Context, rawSteamID string, in SetOverrideInput) (*model.ItemOverride, error) {
	steamID, err := model.NormalizeSteamID(rawSteamID)
	if err != nil {
		return nil, err
	}
	in.ItemName = strings.TrimSpace(in.ItemName)
	if err := model.Validate(in); err != nil {
		return nil, err
	}

	u, err := s.store.UpsertUser(ctx, steamID)
	if err != nil {
		return nil, err
	}
	o := &model.ItemOverride{
		UserID:         u.ID,
		ItemName:       in.ItemName,
		CustomValueUSD: in.CustomValueUSD,
		Note:           in.Note,
		UpdatedAt:      s.now(),
	}
	if err := s.store.SetOverride(ctx, o); err != nil {
		return nil, err
	}
	return o, nil
}

// Clear removes the override for one item.
func (s *OverrideService) Clear(ctx context.Context, rawSteamID, itemName string) error {
	u, err := s.existingUser(ctx, rawSteamID)
	if err != nil {
		return err
	}
	itemName = strings.TrimSpace(itemName)
	if itemName == "" {
		return apperror.Validation("item_name", "item_name is required")
	}
	return s.store.DeleteOverride(ctx, u.ID, itemName)
}

// List returns all overrides of the user.
func (s *OverrideService) List(ctx context.Context, rawSteamID string) ([]model.ItemOverride, error) {
	u, err := s.existingUser(ctx, rawSteamID)
	if err != nil {
		return nil, err
	}
	return s.store.ListOverrides(ctx, u.ID)
}

func (s *OverrideService) existingUser(ctx context.Context, rawSteamID string) (*model.User, error) {
	steamID, err := model.NormalizeSteamID(rawSteamID)
	if err != nil {
		return nil, err
	}
	return s.store.GetUserBySteamID(ctx, steamID)
}
