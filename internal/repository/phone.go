package repository

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"skinsignal-api/internal/apperror"
	"skinsignal-api/internal/model"
)

// CreatePhoneVerification records an issued one-time code.
func (s *SQLStore) CreatePhoneVerification(ctx context.Context, userID int64, code string, at time.Time) error {
	_, err := s.db.ExecContext(ctx,
		s.q(`INSERT INTO phone_verifications (user_id, code, created_at) VALUES (?, ?, ?)`),
		userID, code, utc(at))
	if err != nil {
		return apperror.Persistence("failed to store verification code", err)
	}
	return nil
}

// LatestPhoneVerification returns the most recently issued code, or nil.
func (s *SQLStore) LatestPhoneVerification(ctx context.Context, userID int64) (*model.PhoneVerification, error) {
	var v model.PhoneVerification
	err := s.db.QueryRowContext(ctx,
		s.q(`SELECT id, user_id, code, created_at FROM phone_verifications WHERE user_id = ? ORDER BY created_at DESC, id DESC LIMIT 1`),
		userID,
	).Scan(&v.ID, &v.UserID, &v.Code, &v.CreatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, apperror.Persistence("failed to read verification code", err)
	}
	return &v, nil
}
