package repository

import (
	"context"
	"database/sql"
	"errors"
	"strconv"

	"skinsignal-api/internal/apperror"
	"skinsignal-api/internal/model"
)

const userColumns = `id, steam_id, phone_e164, phone_verified, created_at`

func scanUser(row interface{ Scan(...interface{}) error }) (*model.User, error) {
	var u model.User
	var phone sql.NullString
	if err := row.Scan(&u.ID, &u.SteamID, &phone, &u.PhoneVerified, &u.CreatedAt); err != nil {
		return nil, err
	}
	u.PhoneE164 = phone.String
	return &u, nil
}

// UpsertUser inserts the user if missing, then reads it back.
func (s *SQLStore) UpsertUser(ctx context.Context, steamID string) (*model.User, error) {
	insert := s.dialect.insertIgnore("users", "steam_id, phone_verified, created_at", "?, ?, ?")
	if _, err := s.db.ExecContext(ctx, s.q(insert), steamID, false, utc(s.now())); err != nil {
		return nil, apperror.Persistence("failed to upsert user", err)
	}
	return s.GetUserBySteamID(ctx, steamID)
}

// GetUser finds a user by internal id.
func (s *SQLStore) GetUser(ctx context.Context, id int64) (*model.User, error) {
	row := s.db.QueryRowContext(ctx, s.q(`SELECT `+userColumns+` FROM users WHERE id = ?`), id)
	u, err := scanUser(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, apperror.NotFound("user", strconv.FormatInt(id, 10))
	}
	if err != nil {
		return nil, apperror.Persistence("failed to get user", err)
	}
	return u, nil
}

// GetUserBySteamID finds a user by external id.
func (s *SQLStore) GetUserBySteamID(ctx context.Context, steamID string) (*model.User, error) {
	row := s.db.QueryRowContext(ctx, s.q(`SELECT `+userColumns+` FROM users WHERE steam_id = ?`), steamID)
	u, err := scanUser(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, apperror.NotFound("user", steamID)
	}
	if err != nil {
		return nil, apperror.Persistence("failed to get user", err)
	}
	return u, nil
}

// ListSteamIDs returns all external ids in creation order.
func (s *SQLStore) ListSteamIDs(ctx context.Context) ([]string, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT steam_id FROM users ORDER BY id`)
	if err != nil {
		return nil, apperror.Persistence("failed to list users", err)
	}
	defer rows.Close()

	ids := make([]string, 0)
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, apperror.Persistence("failed to scan user", err)
		}
		ids = append(ids, id)
	}
	if err := rows.Err(); err != nil {
		return nil, apperror.Persistence("failed to list users", err)
	}
	return ids, nil
}

// SetPhone stores a new number and clears the verified flag.
func (s *SQLStore) SetPhone(ctx context.Context, userID int64, phoneE164 string) error {
	return s.updateUser(ctx, `UPDATE users SET phone_e164 = ?, phone_verified = ? WHERE id = ?`, phoneE164, false, userID)
}

// MarkPhoneVerified sets the verified flag.
func (s *SQLStore) MarkPhoneVerified(ctx context.Context, userID int64) error {
	return s.updateUser(ctx, `UPDATE users SET phone_verified = ? WHERE id = ?`, true, userID)
}

func (s *SQLStore) updateUser(ctx context.Context, query string, args ...interface{}) error {
	res, err := s.db.ExecContext(ctx, s.q(query), args...)
	if err != nil {
		return apperror.Persistence("failed to update user", err)
	}
	// MySQL reports 0 affected rows when values are unchanged, so only trust a positive count.
	if n, err := res.RowsAffected(); err == nil && n > 0 {
		return nil
	}
	var exists int
	err = s.db.QueryRowContext(ctx, s.q(`SELECT 1 FROM users WHERE id = ?`), args[len(args)-1]).Scan(&exists)
	if errors.Is(err, sql.ErrNoRows) {
		return apperror.NotFound("user", strconv.FormatInt(args[len(args)-1].(int64), 10))
	}
	if err != nil {
		return apperror.Persistence("failed to update user", err)
	}
	return nil
}
