package repository

import (
	"context"
	"time"

	"skinsignal-api/internal/model"
)

// UserRepository defines user data access methods.
type UserRepository interface {
	// UpsertUser returns the user for steamID, creating it on first sight.
	UpsertUser(ctx context.Context, steamID string) (*model.User, error)

	// GetUser returns a not-found error when id is unknown.
	GetUser(ctx context.Context, id int64) (*model.User, error)

	// GetUserBySteamID returns a not-found error when steamID is unknown.
	GetUserBySteamID(ctx context.Context, steamID string) (*model.User, error)

	// ListSteamIDs returns every known external id.
	ListSteamIDs(ctx context.Context) ([]string, error)

	// SetPhone stores an unverified phone number.
	SetPhone(ctx context.Context, userID int64, phoneE164 string) error

	// MarkPhoneVerified flags the stored number as verified.
	MarkPhoneVerified(ctx context.Context, userID int64) error
}

// SnapshotRepository defines snapshot data access methods.
type SnapshotRepository interface {
	// LatestSnapshotAt returns the newest snapshot time; ok is false when none exist.
	LatestSnapshotAt(ctx context.Context, userID int64) (t time.Time, ok bool, err error)

	// CreateSnapshot writes the snapshot row and all item rows in one transaction.
	CreateSnapshot(ctx context.Context, snap *model.Snapshot) (int64, error)

	// ListSnapshots returns up to limit snapshot headers, newest first.
	ListSnapshots(ctx context.Context, userID int64, limit int) ([]model.Snapshot, error)

	// History returns every snapshot total, oldest first.
	History(ctx context.Context, userID int64) ([]model.HistoryPoint, error)

	// SnapshotItems returns the valued items stored with a snapshot.
	SnapshotItems(ctx context.Context, snapshotID int64) ([]model.ValuedItem, error)

	// ItemValueSeries returns qty x effective price of itemName in each of the
	// latest limit snapshots, newest first, 0 where the item is absent.
	ItemValueSeries(ctx context.Context, userID int64, itemName string, limit int) ([]float64, error)

	// CategoryTotals sums qty x effective price per category for one snapshot.
	CategoryTotals(ctx context.Context, snapshotID int64) ([]model.AllocationSlice, error)
}

// OverrideRepository defines per-item override data access methods.
type OverrideRepository interface {
	// GetOverride returns nil when no override exists.
	GetOverride(ctx context.Context, userID int64, itemName string) (*model.ItemOverride, error)
	SetOverride(ctx context.Context, o *model.ItemOverride) error
	// DeleteOverride returns a not-found error when nothing was removed.
	DeleteOverride(ctx context.Context, userID int64, itemName string) error
	ListOverrides(ctx context.Context, userID int64) ([]model.ItemOverride, error)
}

// AlertRepository defines alert and alert event data access methods.
type AlertRepository interface {
	CreateAlert(ctx context.Context, a *model.Alert) (int64, error)
	ListAlerts(ctx context.Context, userID int64) ([]model.Alert, error)
	ListActiveAlerts(ctx context.Context, userID int64) ([]model.Alert, error)
	// SetAlertActive returns a not-found error when the alert does not belong to userID.
	SetAlertActive(ctx context.Context, userID, alertID int64, active bool) error

	// HasAlertEventSince reports whether alertID fired strictly after since.
	HasAlertEventSince(ctx context.Context, alertID int64, since time.Time) (bool, error)
	InsertAlertEvent(ctx context.Context, e *model.AlertEvent) (int64, error)
	ListAlertEvents(ctx context.Context, alertID int64, limit int) ([]model.AlertEvent, error)
}

// PhoneRepository defines phone verification data access methods.
type PhoneRepository interface {
	CreatePhoneVerification(ctx context.Context, userID int64, code string, at time.Time) error
	// LatestPhoneVerification returns nil when no code was issued.
	LatestPhoneVerification(ctx context.Context, userID int64) (*model.PhoneVerification, error)
}

// Store is the full relational store.
type Store interface {
	UserRepository
	SnapshotRepository
	OverrideRepository
	AlertRepository
	PhoneRepository

	Migrate(ctx context.Context) error
	Stats(ctx context.Context) (map[string]interface{}, error)
	Ping(ctx context.Context) error
	Close() error
}
