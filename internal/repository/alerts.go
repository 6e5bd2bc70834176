package repository

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"strconv"
	"time"

	"skinsignal-api/internal/apperror"
	"skinsignal-api/internal/model"
)

const alertColumns = `id, user_id, item_name, price_lte, float_min, float_max, paint_seed, active, created_at`

func scanAlert(row interface{ Scan(...interface{}) error }) (model.Alert, error) {
	var (
		a                 model.Alert
		price, fmin, fmax sql.NullFloat64
		seed              sql.NullInt64
	)
	err := row.Scan(&a.ID, &a.UserID, &a.ItemName, &price, &fmin, &fmax, &seed, &a.Active, &a.CreatedAt)
	if err != nil {
		return a, err
	}
	a.PriceLTE = nullFloat(price)
	a.FloatMin = nullFloat(fmin)
	a.FloatMax = nullFloat(fmax)
	if seed.Valid {
		v := int(seed.Int64)
		a.PaintSeed = &v
	}
	return a, nil
}

// CreateAlert stores a new rule and returns its id.
func (s *SQLStore) CreateAlert(ctx context.Context, a *model.Alert) (int64, error) {
	if a.CreatedAt.IsZero() {
		a.CreatedAt = s.now()
	}
	id, err := s.insertReturningID(ctx, s.db, `
		INSERT INTO alerts (user_id, item_name, price_lte, float_min, float_max, paint_seed, active, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		a.UserID, a.ItemName, floatArg(a.PriceLTE), floatArg(a.FloatMin), floatArg(a.FloatMax), intArg(a.PaintSeed), a.Active, utc(a.CreatedAt))
	if err != nil {
		return 0, apperror.Persistence("failed to create alert", err)
	}
	a.ID = id
	return id, nil
}

// ListAlerts returns every alert of the user, newest first.
func (s *SQLStore) ListAlerts(ctx context.Context, userID int64) ([]model.Alert, error) {
	return s.queryAlerts(ctx, `SELECT `+alertColumns+` FROM alerts WHERE user_id = ? ORDER BY id DESC`, userID)
}

// ListActiveAlerts returns the user's active alerts in creation order.
func (s *SQLStore) ListActiveAlerts(ctx context.Context, userID int64) ([]model.Alert, error) {
	return s.queryAlerts(ctx, `SELECT `+alertColumns+` FROM alerts WHERE user_id = ? AND active = ? ORDER BY id`, userID, true)
}

func (s *SQLStore) queryAlerts(ctx context.Context, query string, args ...interface{}) ([]model.Alert, error) {
	rows, err := s.db.QueryContext(ctx, s.q(query), args...)
	if err != nil {
		return nil, apperror.Persistence("failed to list alerts", err)
	}
	defer rows.Close()

	alerts := make([]model.Alert, 0)
	for rows.Next() {
		a, err := scanAlert(rows)
		if err != nil {
			return nil, apperror.Persistence("failed to scan alert", err)
		}
		alerts = append(alerts, a)
	}
	if err := rows.Err(); err != nil {
		return nil, apperror.Persistence("failed to list alerts", err)
	}
	return alerts, nil
}

// SetAlertActive toggles an alert owned by userID.
func (s *SQLStore) SetAlertActive(ctx context.Context, userID, alertID int64, active bool) error {
	var current bool
	err := s.db.QueryRowContext(ctx, s.q(`SELECT active FROM alerts WHERE id = ? AND user_id = ?`), alertID, userID).Scan(&current)
	if errors.Is(err, sql.ErrNoRows) {
		return apperror.NotFound("alert", strconv.FormatInt(alertID, 10))
	}
	if err != nil {
		return apperror.Persistence("failed to read alert", err)
	}
	if current == active {
		return nil
	}
	if _, err := s.db.ExecContext(ctx, s.q(`UPDATE alerts SET active = ? WHERE id = ? AND user_id = ?`), active, alertID, userID); err != nil {
		return apperror.Persistence("failed to update alert", err)
	}
	return nil
}

// HasAlertEventSince reports whether the alert fired after since.
func (s *SQLStore) HasAlertEventSince(ctx context.Context, alertID int64, since time.Time) (bool, error) {
	var n int64
	err := s.db.QueryRowContext(ctx,
		s.q(`SELECT COUNT(*) FROM alert_events WHERE alert_id = ? AND fired_at > ?`),
		alertID, utc(since),
	).Scan(&n)
	if err != nil {
		return false, apperror.Persistence("failed to read alert events", err)
	}
	return n > 0, nil
}

// InsertAlertEvent appends a firing record.
func (s *SQLStore) InsertAlertEvent(ctx context.Context, e *model.AlertEvent) (int64, error) {
	payload, err := json.Marshal(e.Payload)
	if err != nil {
		return 0, apperror.Persistence("failed to encode alert payload", err)
	}
	if e.FiredAt.IsZero() {
		e.FiredAt = s.now()
	}
	id, err := s.insertReturningID(ctx, s.db,
		`INSERT INTO alert_events (alert_id, fired_at, payload_json) VALUES (?, ?, ?)`,
		e.AlertID, utc(e.FiredAt), string(payload))
	if err != nil {
		return 0, apperror.Persistence("failed to insert alert event", err)
	}
	e.ID = id
	return id, nil
}

// ListAlertEvents returns up to limit events of one alert, newest first.
func (s *SQLStore) ListAlertEvents(ctx context.Context, alertID int64, limit int) ([]model.AlertEvent, error) {
	rows, err := s.db.QueryContext(ctx,
		s.q(`SELECT id, alert_id, fired_at, payload_json FROM alert_events WHERE alert_id = ? ORDER BY fired_at DESC, id DESC LIMIT ?`),
		alertID, limit)
	if err != nil {
		return nil, apperror.Persistence("failed to list alert events", err)
	}
	defer rows.Close()

	events := make([]model.AlertEvent, 0)
	for rows.Next() {
		var e model.AlertEvent
		var payload []byte
		if err := rows.Scan(&e.ID, &e.AlertID, &e.FiredAt, &payload); err != nil {
			return nil, apperror.Persistence("failed to scan alert event", err)
		}
		if len(payload) > 0 {
			if err := json.Unmarshal(payload, &e.Payload); err != nil {
				s.log.Warn("unreadable alert payload")
			}
		}
		events = append(events, e)
	}
	if err := rows.Err(); err != nil {
		return nil, apperror.Persistence("failed to list alert events", err)
	}
	return events, nil
}
