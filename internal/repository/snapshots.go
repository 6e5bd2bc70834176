package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"skinsignal-api/internal/apperror"
	"skinsignal-api/internal/model"
)

// LatestSnapshotAt returns the time of the user's most recent snapshot.
func (s *SQLStore) LatestSnapshotAt(ctx context.Context, userID int64) (time.Time, bool, error) {
	var t time.Time
	err := s.db.QueryRowContext(ctx,
		s.q(`SELECT taken_at FROM inventory_snapshots WHERE user_id = ? ORDER BY taken_at DESC, id DESC LIMIT 1`),
		userID,
	).Scan(&t)
	if errors.Is(err, sql.ErrNoRows) {
		return time.Time{}, false, nil
	}
	if err != nil {
		return time.Time{}, false, apperror.Persistence("failed to read latest snapshot", err)
	}
	return t, true, nil
}

// CreateSnapshot persists the header and every item row atomically.
// Any failure rolls the whole snapshot back.
func (s *SQLStore) CreateSnapshot(ctx context.Context, snap *model.Snapshot) (int64, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, apperror.Persistence("failed to begin transaction", err)
	}
	defer tx.Rollback()

	id, err := s.insertReturningID(ctx, tx,
		`INSERT INTO inventory_snapshots (user_id, taken_at, total_value) VALUES (?, ?, ?)`,
		snap.UserID, utc(snap.TakenAt), snap.TotalValue)
	if err != nil {
		return 0, apperror.Persistence("failed to insert snapshot", err)
	}

	stmt, err := tx.PrepareContext(ctx, s.q(`
		INSERT INTO item_snapshots (
			snapshot_id, name, qty, category, base_price_usd, sticker_premium_pct, sticker_premium_usd,
			valued_price_usd_market, valued_price_usd_effective, override_applied
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`))
	if err != nil {
		return 0, apperror.Persistence("failed to prepare item insert", err)
	}
	defer stmt.Close()

	for _, it := range snap.Items {
		_, err := stmt.ExecContext(ctx, id, it.Name, it.Qty, it.Category, it.BasePriceUSD,
			floatArg(it.StickerPremiumPct), floatArg(it.StickerPremiumUSD), it.ValuedPriceUSDMarket, it.ValuedPriceUSDEffective,
			it.OverrideApplied)
		if err != nil {
			return 0, apperror.Persistence(fmt.Sprintf("failed to insert item %q", it.Name), err)
		}
	}

	if err := tx.Commit(); err != nil {
		return 0, apperror.Persistence("failed to commit snapshot", err)
	}
	snap.ID = id
	return id, nil
}

// ListSnapshots returns snapshot headers, newest first.
func (s *SQLStore) ListSnapshots(ctx context.Context, userID int64, limit int) ([]model.Snapshot, error) {
	rows, err := s.db.QueryContext(ctx, s.q(`
		SELECT id, user_id, taken_at, total_value FROM inventory_snapshots
		WHERE user_id = ? ORDER BY taken_at DESC, id DESC LIMIT ?`), userID, limit)
	if err != nil {
		return nil, apperror.Persistence("failed to list snapshots", err)
	}
	defer rows.Close()

	snaps := make([]model.Snapshot, 0)
	for rows.Next() {
		var sn model.Snapshot
		if err := rows.Scan(&sn.ID, &sn.UserID, &sn.TakenAt, &sn.TotalValue); err != nil {
			return nil, apperror.Persistence("failed to scan snapshot", err)
		}
		snaps = append(snaps, sn)
	}
	if err := rows.Err(); err != nil {
		return nil, apperror.Persistence("failed to list snapshots", err)
	}
	return snaps, nil
}

// History returns snapshot totals oldest first.
func (s *SQLStore) History(ctx context.Context, userID int64) ([]model.HistoryPoint, error) {
	rows, err := s.db.QueryContext(ctx, s.q(`
		SELECT taken_at, total_value FROM inventory_snapshots
		WHERE user_id = ? ORDER BY taken_at ASC, id ASC`), userID)
	if err != nil {
		return nil, apperror.Persistence("failed to read history", err)
	}
	defer rows.Close()

	points := make([]model.HistoryPoint, 0)
	for rows.Next() {
		var p model.HistoryPoint
		if err := rows.Scan(&p.TakenAt, &p.TotalValue); err != nil {
			return nil, apperror.Persistence("failed to scan history", err)
		}
		points = append(points, p)
	}
	if err := rows.Err(); err != nil {
		return nil, apperror.Persistence("failed to read history", err)
	}
	return points, nil
}

// SnapshotItems returns the item rows of one snapshot in insert order.
func (s *SQLStore) SnapshotItems(ctx context.Context, snapshotID int64) ([]model.ValuedItem, error) {
	rows, err := s.db.QueryContext(ctx, s.q(`
		SELECT name, qty, category, base_price_usd, sticker_premium_pct, sticker_premium_usd,
			valued_price_usd_market, valued_price_usd_effective, override_applied
		FROM item_snapshots WHERE snapshot_id = ? ORDER BY id`), snapshotID)
	if err != nil {
		return nil, apperror.Persistence("failed to read snapshot items", err)
	}
	defer rows.Close()

	items := make([]model.ValuedItem, 0)
	for rows.Next() {
		var (
			it                      model.ValuedItem
			category                sql.NullString
			base, market, effective sql.NullFloat64
			pct, premium            sql.NullFloat64
		)
		if err := rows.Scan(&it.Name, &it.Qty, &category, &base, &pct, &premium,
			&market, &effective, &it.OverrideApplied); err != nil {
			return nil, apperror.Persistence("failed to scan snapshot item", err)
		}
		it.Category = category.String
		it.BasePriceUSD = base.Float64
		it.ValuedPriceUSDMarket = market.Float64
		it.ValuedPriceUSDEffective = effective.Float64
		it.StickerPremiumPct = nullFloat(pct)
		it.StickerPremiumUSD = nullFloat(premium)
		items = append(items, it)
	}
	if err := rows.Err(); err != nil {
		return nil, apperror.Persistence("failed to read snapshot items", err)
	}
	return items, nil
}

// ItemValueSeries returns the item's line value per recent snapshot, newest first.
func (s *SQLStore) ItemValueSeries(ctx context.Context, userID int64, itemName string, limit int) ([]float64, error) {
	rows, err := s.db.QueryContext(ctx, s.q(`
		SELECT s.id, COALESCE(SUM(i.qty * i.valued_price_usd_effective), 0)
		FROM inventory_snapshots s
		LEFT JOIN item_snapshots i ON i.snapshot_id = s.id AND i.name = ?
		WHERE s.user_id = ?
		GROUP BY s.id, s.taken_at
		ORDER BY s.taken_at DESC, s.id DESC
		LIMIT ?`), itemName, userID, limit)
	if err != nil {
		return nil, apperror.Persistence("failed to read item series", err)
	}
	defer rows.Close()

	series := make([]float64, 0, limit)
	for rows.Next() {
		var id int64
		var v float64
		if err := rows.Scan(&id, &v); err != nil {
			return nil, apperror.Persistence("failed to scan item series", err)
		}
		series = append(series, v)
	}
	if err := rows.Err(); err != nil {
		return nil, apperror.Persistence("failed to read item series", err)
	}
	return series, nil
}

// CategoryTotals groups one snapshot's value by category, largest first.
func (s *SQLStore) CategoryTotals(ctx context.Context, snapshotID int64) ([]model.AllocationSlice, error) {
	rows, err := s.db.QueryContext(ctx, s.q(`
		SELECT category, SUM(qty * valued_price_usd_effective) AS value
		FROM item_snapshots WHERE snapshot_id = ?
		GROUP BY category ORDER BY value DESC`), snapshotID)
	if err != nil {
		return nil, apperror.Persistence("failed to read allocation", err)
	}
	defer rows.Close()

	slices := make([]model.AllocationSlice, 0)
	for rows.Next() {
		var label sql.NullString
		var value sql.NullFloat64
		if err := rows.Scan(&label, &value); err != nil {
			return nil, apperror.Persistence("failed to scan allocation", err)
		}
		slices = append(slices, model.AllocationSlice{Label: label.String, Value: value.Float64})
	}
	if err := rows.Err(); err != nil {
		return nil, apperror.Persistence("failed to read allocation", err)
	}
	return slices, nil
}

func nullFloat(n sql.NullFloat64) *float64 {
	if !n.Valid {
		return nil
	}
	v := n.Float64
	return &v
}
