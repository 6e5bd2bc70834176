package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"skinsignal-api/internal/apperror"
	"skinsignal-api/internal/config"

	"github.com/go-sql-driver/mysql"
	_ "github.com/lib/pq" // PostgreSQL driver
	"go.uber.org/zap"
	_ "modernc.org/sqlite" // Pure Go SQLite driver - no CGO required
)

// mysqlDuplicateKeyName is returned by CREATE INDEX when the index exists.
const mysqlDuplicateKeyName = 1061

// SQLStore implements Store on database/sql for SQLite, PostgreSQL and MySQL.
type SQLStore struct {
	db      *sql.DB
	dialect Dialect
	now     func() time.Time
	log     *zap.Logger
}

// execQuerier is satisfied by both *sql.DB and *sql.Tx.
type execQuerier interface {
	ExecContext(ctx context.Context, query string, args ...interface{}) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...interface{}) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...interface{}) *sql.Row
}

// Open connects to the database described by cfg and tunes the pool per dialect.
// It does not run migrations.
func Open(cfg config.DatabaseConfig, log *zap.Logger) (*SQLStore, error) {
	dialect, err := ParseDialect(cfg.Type)
	if err != nil {
		return nil, err
	}

	var dsn string
	switch dialect {
	case SQLite:
		if dir := filepath.Dir(cfg.Path); dir != "." && dir != "" {
			if err := os.MkdirAll(dir, 0o755); err != nil {
				return nil, fmt.Errorf("failed to create data directory: %w", err)
			}
		}
		dsn = "file:" + cfg.Path + "?_pragma=busy_timeout(5000)&_pragma=journal_mode(WAL)&_pragma=foreign_keys(1)&_time_format=sqlite"
	case Postgres:
		dsn = cfg.PostgresDSN()
	case MySQL:
		dsn = cfg.MySQLDSN()
	}

	db, err := sql.Open(dialect.driverName(), dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open %s: %w", dialect, err)
	}

	switch dialect {
	case SQLite:
		db.SetMaxOpenConns(1) // SQLite only supports 1 writer
		db.SetMaxIdleConns(1)
		db.SetConnMaxLifetime(0)
	default:
		db.SetMaxOpenConns(25)
		db.SetMaxIdleConns(10)
		db.SetConnMaxLifetime(5 * time.Minute)
		db.SetConnMaxIdleTime(time.Minute)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to ping %s: %w", dialect, err)
	}

	log.Info("database connected", zap.String("dialect", string(dialect)))
	return NewSQLStore(db, dialect, log), nil
}

// NewSQLStore wraps an open database handle.
func NewSQLStore(db *sql.DB, dialect Dialect, log *zap.Logger) *SQLStore {
	return &SQLStore{db: db, dialect: dialect, now: time.Now, log: log.Named("store")}
}

// q rebinds placeholders for the active dialect.
func (s *SQLStore) q(query string) string {
	return s.dialect.rebind(query)
}

// utc normalizes timestamps so text-backed SQLite columns sort chronologically.
func utc(t time.Time) time.Time {
	return t.UTC()
}

// insertReturningID runs an INSERT and returns the new row id.
func (s *SQLStore) insertReturningID(ctx context.Context, eq execQuerier, query string, args ...interface{}) (int64, error) {
	if s.dialect == Postgres {
		var id int64
		err := eq.QueryRowContext(ctx, s.q(query+" RETURNING id"), args...).Scan(&id)
		return id, err
	}
	res, err := eq.ExecContext(ctx, s.q(query), args...)
	if err != nil {
		return 0, err
	}
	return res.LastInsertId()
}

// Migrate creates every table and index if missing. Safe to run repeatedly.
func (s *SQLStore) Migrate(ctx context.Context) error {
	for _, stmt := range schema(s.dialect) {
		if _, err := s.db.ExecContext(ctx, stmt); err != nil {
			var myErr *mysql.MySQLError
			if errors.As(err, &myErr) && myErr.Number == mysqlDuplicateKeyName {
				continue
			}
			return apperror.Persistence("migrate failed", err)
		}
	}
	s.log.Info("schema migrated", zap.String("dialect", string(s.dialect)))
	return nil
}

// Stats returns row counts and, on SQLite, the approximate file size.
func (s *SQLStore) Stats(ctx context.Context) (map[string]interface{}, error) {
	stats := make(map[string]interface{})

	for _, table := range []string{"users", "inventory_snapshots", "item_snapshots", "alerts", "alert_events"} {
		var count int64
		if err := s.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM "+table).Scan(&count); err != nil {
			return nil, apperror.Persistence("failed to read stats", err)
		}
		stats[table] = count
	}

	var last time.Time
	err := s.db.QueryRowContext(ctx, "SELECT taken_at FROM inventory_snapshots ORDER BY taken_at DESC LIMIT 1").Scan(&last)
	if err == nil {
		stats["last_snapshot_at"] = last
	}

	if s.dialect == SQLite {
		var pageCount, pageSize int64
		s.db.QueryRowContext(ctx, "PRAGMA page_count").Scan(&pageCount)
		s.db.QueryRowContext(ctx, "PRAGMA page_size").Scan(&pageSize)
		stats["db_size_bytes"] = pageCount * pageSize
	}
	stats["dialect"] = string(s.dialect)

	return stats, nil
}

// Ping checks the connection.
func (s *SQLStore) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

// Close closes the database connection.
func (s *SQLStore) Close() error {
	return s.db.Close()
}

// Ensure SQLStore implements Store
var _ Store = (*SQLStore)(nil)

// floatArg passes nil pointers as SQL NULL.
func floatArg(p *float64) interface{} {
	if p == nil {
		return nil
	}
	return *p
}

func intArg(p *int) interface{} {
	if p == nil {
		return nil
	}
	return int64(*p)
}
