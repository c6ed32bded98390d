package repository

import (
	"database/sql"
	"fmt"

	_ "modernc.org/sqlite"
)

// DBTX is satisfied by both *sql.DB and *sql.Tx, so repositories can run
// either standalone or inside a caller-managed transaction.
type DBTX interface {
	Exec(query string, args ...any) (sql.Result, error)
	Query(query string, args ...any) (*sql.Rows, error)
	QueryRow(query string, args ...any) *sql.Row
}

// InitDB opens (or creates) a SQLite database at the given path and ensures
// all required tables exist. Pass ":memory:" for an in-memory database.
func InitDB(dsn string) (*sql.DB, error) {
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("open db: %w", err)
	}

	// WAL keeps calculation reads isolated from in-flight write transactions.
	if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		db.Close()
		return nil, fmt.Errorf("set wal mode: %w", err)
	}

	if _, err := db.Exec("PRAGMA foreign_keys=ON"); err != nil {
		db.Close()
		return nil, fmt.Errorf("enable foreign keys: %w", err)
	}

	if err := createTables(db); err != nil {
		db.Close()
		return nil, fmt.Errorf("create tables: %w", err)
	}

	return db, nil
}

func createTables(db *sql.DB) error {
	stmts := []string{
		`CREATE TABLE IF NOT EXISTS owners (
			id TEXT PRIMARY KEY,
			name TEXT NOT NULL,
			default_fee_percent TEXT NOT NULL,
			last_payout_date DATETIME,
			active INTEGER NOT NULL DEFAULT 1
		)`,
		`CREATE INDEX IF NOT EXISTS idx_owners_active ON owners(active)`,

		`CREATE TABLE IF NOT EXISTS tax_jurisdictions (
			id TEXT PRIMARY KEY,
			name TEXT NOT NULL,
			tax_type TEXT NOT NULL,
			tax_rate TEXT NOT NULL,
			remittance_frequency TEXT NOT NULL,
			remittance_due_day INTEGER NOT NULL,
			last_remittance_date DATETIME,
			active INTEGER NOT NULL DEFAULT 1
		)`,

		`CREATE TABLE IF NOT EXISTS properties (
			id TEXT PRIMARY KEY,
			name TEXT NOT NULL,
			address_line TEXT NOT NULL DEFAULT '',
			city TEXT NOT NULL DEFAULT '',
			region TEXT NOT NULL DEFAULT '',
			postal_code TEXT NOT NULL DEFAULT '',
			fee_percent_override TEXT,
			owner_id TEXT REFERENCES owners(id),
			tax_jurisdiction_id TEXT REFERENCES tax_jurisdictions(id),
			external_listing_id TEXT UNIQUE,
			active INTEGER NOT NULL DEFAULT 1
		)`,
		`CREATE INDEX IF NOT EXISTS idx_properties_owner ON properties(owner_id)`,
		`CREATE INDEX IF NOT EXISTS idx_properties_listing ON properties(external_listing_id)`,

		`CREATE TABLE IF NOT EXISTS reservations (
			id TEXT PRIMARY KEY,
			property_id TEXT REFERENCES properties(id),
			guest_name TEXT NOT NULL DEFAULT '',
			guest_email TEXT NOT NULL DEFAULT '',
			check_in DATETIME NOT NULL,
			check_out DATETIME NOT NULL,
			cancelled INTEGER NOT NULL DEFAULT 0,
			total_amount TEXT NOT NULL DEFAULT '0',
			tax_amount TEXT NOT NULL DEFAULT '0',
			host_service_fee TEXT NOT NULL DEFAULT '0',
			accommodation_fare TEXT NOT NULL DEFAULT '0',
			cleaning_fee TEXT NOT NULL DEFAULT '0',
			deposit_received TEXT NOT NULL DEFAULT '0',
			confirmation_code TEXT UNIQUE NOT NULL,
			source TEXT NOT NULL DEFAULT 'manual',
			owner_paid_out INTEGER NOT NULL DEFAULT 0,
			owner_paid_out_date DATETIME,
			tax_remitted INTEGER NOT NULL DEFAULT 0,
			tax_remitted_date DATETIME,
			management_fee TEXT NOT NULL DEFAULT '0',
			owner_payout TEXT NOT NULL DEFAULT '0'
		)`,
		`CREATE INDEX IF NOT EXISTS idx_reservations_property ON reservations(property_id)`,
		`CREATE INDEX IF NOT EXISTS idx_reservations_checkin ON reservations(check_in)`,
		`CREATE INDEX IF NOT EXISTS idx_reservations_checkout ON reservations(check_out)`,

		`CREATE TABLE IF NOT EXISTS processor_balance_snapshots (
			id TEXT PRIMARY KEY,
			snapshot_date DATETIME NOT NULL,
			available_balance TEXT NOT NULL,
			pending_balance TEXT NOT NULL,
			reserve_balance TEXT NOT NULL,
			total_balance TEXT NOT NULL,
			reconciliation_snapshot_id TEXT
		)`,
		`CREATE INDEX IF NOT EXISTS idx_balance_snapshots_date ON processor_balance_snapshots(snapshot_date)`,

		`CREATE TABLE IF NOT EXISTS reconciliation_snapshots (
			id TEXT PRIMARY KEY,
			reconciliation_date DATETIME NOT NULL,
			status TEXT NOT NULL,
			expected_balance TEXT NOT NULL,
			actual_balance TEXT,
			variance_amount TEXT NOT NULL,
			future_deposit_items TEXT NOT NULL,
			unpaid_payout_items TEXT NOT NULL,
			unpaid_tax_items TEXT NOT NULL,
			created_at DATETIME NOT NULL
		)`,
		`CREATE INDEX IF NOT EXISTS idx_recon_snapshots_date ON reconciliation_snapshots(reconciliation_date)`,
		`CREATE INDEX IF NOT EXISTS idx_recon_snapshots_status ON reconciliation_snapshots(status)`,

		`CREATE TABLE IF NOT EXISTS app_settings (
			id INTEGER PRIMARY KEY CHECK (id = 1),
			default_fee_percent TEXT NOT NULL,
			variance_alert_threshold TEXT NOT NULL,
			reminder_interval_days INTEGER NOT NULL
		)`,

		`CREATE TABLE IF NOT EXISTS sync_batches (
			id TEXT PRIMARY KEY,
			digest TEXT UNIQUE NOT NULL,
			properties_created INTEGER NOT NULL,
			properties_updated INTEGER NOT NULL,
			reservations_created INTEGER NOT NULL,
			reservations_updated INTEGER NOT NULL,
			merged_at DATETIME NOT NULL
		)`,
	}

	for _, stmt := range stmts {
		if _, err := db.Exec(stmt); err != nil {
			return fmt.Errorf("exec %q: %w", stmt[:60], err)
		}
	}

	return nil
}
