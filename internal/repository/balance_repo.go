package repository

import (
	"database/sql"
	"errors"
	"fmt"

	"github.com/shopspring/decimal"

	"github.com/lodgeledger/trustbooks/internal/domain"
)

// BalanceRepo stores processor balance snapshots. Only the manually entered
// reserve component has an update path; everything else is append-only.
type BalanceRepo struct {
	db *sql.DB
}

func NewBalanceRepo(db *sql.DB) *BalanceRepo {
	return &BalanceRepo{db: db}
}

func (r *BalanceRepo) Insert(s *domain.ProcessorBalanceSnapshot) error {
	if err := s.Validate(); err != nil {
		return err
	}
	_, err := r.db.Exec(
		`INSERT INTO processor_balance_snapshots
		(id, snapshot_date, available_balance, pending_balance, reserve_balance,
		 total_balance, reconciliation_snapshot_id)
		VALUES (?,?,?,?,?,?,?)`,
		s.ID, formatTime(s.SnapshotDate), decToDB(s.AvailableBalance),
		decToDB(s.PendingBalance), decToDB(s.ReserveBalance), decToDB(s.TotalBalance),
		nullStrToDB(s.ReconciliationSnapshotID),
	)
	if err != nil {
		return fmt.Errorf("insert balance snapshot: %w", err)
	}
	return nil
}

// Latest returns the most recent snapshot, or nil if none exist yet.
func (r *BalanceRepo) Latest() (*domain.ProcessorBalanceSnapshot, error) {
	row := r.db.QueryRow(
		`SELECT id, snapshot_date, available_balance, pending_balance,
		 reserve_balance, total_balance, reconciliation_snapshot_id
		 FROM processor_balance_snapshots
		 ORDER BY snapshot_date DESC, id DESC LIMIT 1`)

	s, err := scanBalanceSnapshot(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	return s, err
}

func (r *BalanceRepo) GetByID(id string) (*domain.ProcessorBalanceSnapshot, error) {
	row := r.db.QueryRow(
		`SELECT id, snapshot_date, available_balance, pending_balance,
		 reserve_balance, total_balance, reconciliation_snapshot_id
		 FROM processor_balance_snapshots WHERE id = ?`, id)
	return scanBalanceSnapshot(row)
}

// UpdateReserve replaces the manual reserve and re-derives the total in the
// same transaction, so total_balance can never drift from its components.
func (r *BalanceRepo) UpdateReserve(id string, reserve decimal.Decimal) (*domain.ProcessorBalanceSnapshot, error) {
	if reserve.IsNegative() {
		return nil, &domain.ValidationError{
			Entity: "processor_balance_snapshot", ID: id,
			Field: "reserve_balance", Msg: "must not be negative",
		}
	}

	tx, err := r.db.Begin()
	if err != nil {
		return nil, fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback()

	row := tx.QueryRow(
		`SELECT id, snapshot_date, available_balance, pending_balance,
		 reserve_balance, total_balance, reconciliation_snapshot_id
		 FROM processor_balance_snapshots WHERE id = ?`, id)
	s, err := scanBalanceSnapshot(row)
	if err != nil {
		return nil, fmt.Errorf("load snapshot %s: %w", id, err)
	}

	s.ReserveBalance = reserve
	s.TotalBalance = s.AvailableBalance.Add(s.PendingBalance).Add(reserve)

	if _, err := tx.Exec(
		"UPDATE processor_balance_snapshots SET reserve_balance = ?, total_balance = ? WHERE id = ?",
		decToDB(s.ReserveBalance), decToDB(s.TotalBalance), id,
	); err != nil {
		return nil, fmt.Errorf("update reserve %s: %w", id, err)
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("commit: %w", err)
	}
	return s, nil
}

// LinkReconciliation records which reconciliation snapshot consumed this
// balance snapshot.
func (r *BalanceRepo) LinkReconciliation(id, reconciliationID string) error {
	_, err := r.db.Exec(
		"UPDATE processor_balance_snapshots SET reconciliation_snapshot_id = ? WHERE id = ?",
		reconciliationID, id,
	)
	return err
}

func scanBalanceSnapshot(row *sql.Row) (*domain.ProcessorBalanceSnapshot, error) {
	var s domain.ProcessorBalanceSnapshot
	var date, available, pending, reserve, total string
	var reconID sql.NullString

	err := row.Scan(&s.ID, &date, &available, &pending, &reserve, &total, &reconID)
	if err != nil {
		return nil, err
	}
	s.SnapshotDate = parseTime(date)
	s.AvailableBalance = decFromDB(available)
	s.PendingBalance = decFromDB(pending)
	s.ReserveBalance = decFromDB(reserve)
	s.TotalBalance = decFromDB(total)
	s.ReconciliationSnapshotID = nullStrFromDB(reconID)
	return &s, nil
}
