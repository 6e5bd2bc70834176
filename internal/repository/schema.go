package repository

import "strings"

// columnTypes fills the {{...}} slots in the shared DDL per dialect.
var columnTypes = map[Dialect]*strings.Replacer{
	SQLite: strings.NewReplacer(
		"{{pk}}", "INTEGER PRIMARY KEY AUTOINCREMENT",
		"{{ref}}", "INTEGER",
		"{{ts}}", "DATETIME",
		"{{money}}", "REAL",
		"{{ratio}}", "REAL",
		"{{bool}}", "BOOLEAN",
		"{{json}}", "TEXT",
		"{{key}}", "TEXT",
	),
	Postgres: strings.NewReplacer(
		"{{pk}}", "BIGSERIAL PRIMARY KEY",
		"{{ref}}", "BIGINT",
		"{{ts}}", "TIMESTAMPTZ",
		"{{money}}", "NUMERIC(14,2)",
		"{{ratio}}", "NUMERIC(10,5)",
		"{{bool}}", "BOOLEAN",
		"{{json}}", "JSONB",
		"{{key}}", "TEXT",
	),
	MySQL: strings.NewReplacer(
		"{{pk}}", "BIGINT AUTO_INCREMENT PRIMARY KEY",
		"{{ref}}", "BIGINT",
		"{{ts}}", "DATETIME(6)",
		"{{money}}", "DECIMAL(14,2)",
		"{{ratio}}", "DECIMAL(10,5)",
		"{{bool}}", "BOOLEAN",
		"{{json}}", "JSON",
		"{{key}}", "VARCHAR(255)",
	),
}

var tableDDL = []string{
	`CREATE TABLE IF NOT EXISTS users (
		id {{pk}},
		steam_id {{key}} NOT NULL UNIQUE,
		phone_e164 {{key}},
		phone_verified {{bool}} NOT NULL DEFAULT FALSE,
		created_at {{ts}} NOT NULL
	)`,
	`CREATE TABLE IF NOT EXISTS inventory_snapshots (
		id {{pk}},
		user_id {{ref}} NOT NULL REFERENCES users(id) ON DELETE CASCADE,
		taken_at {{ts}} NOT NULL,
		total_value {{money}} NOT NULL
	)`,
	`CREATE TABLE IF NOT EXISTS item_snapshots (
		id {{pk}},
		snapshot_id {{ref}} NOT NULL REFERENCES inventory_snapshots(id) ON DELETE CASCADE,
		name {{key}} NOT NULL,
		qty INTEGER NOT NULL CHECK (qty > 0),
		category {{key}},
		base_price_usd {{money}},
		sticker_premium_pct {{ratio}},
		sticker_premium_usd {{money}},
		valued_price_usd_market {{money}},
		valued_price_usd_effective {{money}},
		override_applied {{bool}} NOT NULL DEFAULT FALSE
	)`,
	`CREATE TABLE IF NOT EXISTS item_overrides (
		id {{pk}},
		user_id {{ref}} NOT NULL REFERENCES users(id) ON DELETE CASCADE,
		item_name {{key}} NOT NULL,
		custom_value_usd {{money}},
		note TEXT,
		updated_at {{ts}} NOT NULL,
		UNIQUE (user_id, item_name)
	)`,
	`CREATE TABLE IF NOT EXISTS alerts (
		id {{pk}},
		user_id {{ref}} NOT NULL REFERENCES users(id) ON DELETE CASCADE,
		item_name {{key}} NOT NULL,
		price_lte {{money}},
		float_min {{ratio}},
		float_max {{ratio}},
		paint_seed INTEGER,
		active {{bool}} NOT NULL DEFAULT TRUE,
		created_at {{ts}} NOT NULL
	)`,
	`CREATE TABLE IF NOT EXISTS alert_events (
		id {{pk}},
		alert_id {{ref}} NOT NULL REFERENCES alerts(id) ON DELETE CASCADE,
		fired_at {{ts}} NOT NULL,
		payload_json {{json}}
	)`,
	`CREATE TABLE IF NOT EXISTS phone_verifications (
		id {{pk}},
		user_id {{ref}} NOT NULL REFERENCES users(id) ON DELETE CASCADE,
		code {{key}} NOT NULL,
		created_at {{ts}} NOT NULL
	)`,
}

// indexDDL is name, table and column list. MySQL has no CREATE INDEX IF NOT EXISTS,
// so Migrate tolerates duplicate-name errors there instead.
var indexDDL = [][3]string{
	{"idx_snapshots_user_time", "inventory_snapshots", "user_id, taken_at"},
	{"idx_items_snapshot", "item_snapshots", "snapshot_id"},
	{"idx_items_snapshot_name", "item_snapshots", "snapshot_id, name"},
	{"idx_alerts_user_item", "alerts", "user_id, item_name"},
	{"idx_alert_events_alert_time", "alert_events", "alert_id, fired_at"},
	{"idx_phone_verifications_user", "phone_verifications", "user_id, created_at"},
}

// schema returns the DDL statements for d, tables first.
func schema(d Dialect) []string {
	r := columnTypes[d]
	stmts := make([]string, 0, len(tableDDL)+len(indexDDL))
	for _, t := range tableDDL {
		stmts = append(stmts, r.Replace(t))
	}
	for _, idx := range indexDDL {
		if d == MySQL {
			stmts = append(stmts, "CREATE INDEX "+idx[0]+" ON "+idx[1]+" ("+idx[2]+")")
		} else {
			stmts = append(stmts, "CREATE INDEX IF NOT EXISTS "+idx[0]+" ON "+idx[1]+" ("+idx[2]+")")
		}
	}
	return stmts
}
