package repository

import (
	"context"
	"database/sql"
	"errors"

	"skinsignal-api/internal/apperror"
	"skinsignal-api/internal/model"
)

// GetOverride returns the user's override for itemName, or nil.
func (s *SQLStore) GetOverride(ctx context.Context, userID int64, itemName string) (*model.ItemOverride, error) {
	o := model.ItemOverride{UserID: userID, ItemName: itemName}
	var value sql.NullFloat64
	var note sql.NullString

	err := s.db.QueryRowContext(ctx,
		s.q(`SELECT custom_value_usd, note, updated_at FROM item_overrides WHERE user_id = ? AND item_name = ? LIMIT 1`),
		userID, itemName,
	).Scan(&value, &note, &o.UpdatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, apperror.Persistence("failed to get override", err)
	}
	o.CustomValueUSD = nullFloat(value)
	o.Note = note.String
	return &o, nil
}

// SetOverride creates or replaces the override for (user, item).
func (s *SQLStore) SetOverride(ctx context.Context, o *model.ItemOverride) error {
	if o.UpdatedAt.IsZero() {
		o.UpdatedAt = s.now()
	}
	query := `INSERT INTO item_overrides (user_id, item_name, custom_value_usd, note, updated_at) VALUES (?, ?, ?, ?, ?)` +
		s.dialect.upsertClause([]string{"user_id", "item_name"}, []string{"custom_value_usd", "note", "updated_at"})

	_, err := s.db.ExecContext(ctx, s.q(query), o.UserID, o.ItemName, floatArg(o.CustomValueUSD), o.Note, utc(o.UpdatedAt))
	if err != nil {
		return apperror.Persistence("failed to set override", err)
	}
	return nil
}

// DeleteOverride removes the override for (user, item).
func (s *SQLStore) DeleteOverride(ctx context.Context, userID int64, itemName string) error {
	res, err := s.db.ExecContext(ctx, s.q(`DELETE FROM item_overrides WHERE user_id = ? AND item_name = ?`), userID, itemName)
	if err != nil {
		return apperror.Persistence("failed to delete override", err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return apperror.NotFound("override", itemName)
	}
	return nil
}

// ListOverrides returns all overrides for a user ordered by item name.
func (s *SQLStore) ListOverrides(ctx context.Context, userID int64) ([]model.ItemOverride, error) {
	rows, err := s.db.QueryContext(ctx,
		s.q(`SELECT item_name, custom_value_usd, note, updated_at FROM item_overrides WHERE user_id = ? ORDER BY item_name`),
		userID)
	if err != nil {
		return nil, apperror.Persistence("failed to list overrides", err)
	}
	defer rows.Close()

	out := make([]model.ItemOverride, 0)
	for rows.Next() {
		o := model.ItemOverride{UserID: userID}
		var value sql.NullFloat64
		var note sql.NullString
		if err := rows.Scan(&o.ItemName, &value, &note, &o.UpdatedAt); err != nil {
			return nil, apperror.Persistence("failed to scan override", err)
		}
		o.CustomValueUSD = nullFloat(value)
		o.Note = note.String
		out = append(out, o)
	}
	if err := rows.Err(); err != nil {
		return nil, apperror.Persistence("failed to list overrides", err)
	}
	return out, nil
}
