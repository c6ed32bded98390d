package repository

import (
	"database/sql"
	"encoding/json"
	"fmt"

	"github.com/lodgeledger/trustbooks/internal/domain"
)

// SnapshotRepo stores reconciliation snapshots. There are deliberately no
// update or delete methods: snapshots are an append-only audit trail and
// corrections happen by creating a new one.
type SnapshotRepo struct {
	db DBTX
}

func NewSnapshotRepo(db DBTX) *SnapshotRepo {
	return &SnapshotRepo{db: db}
}

func (r *SnapshotRepo) Insert(s *domain.ReconciliationSnapshot) error {
	futureItems, err := marshalLineItems(s.FutureDepositItems)
	if err != nil {
		return fmt.Errorf("marshal future deposit items: %w", err)
	}
	payoutItems, err := marshalLineItems(s.UnpaidPayoutItems)
	if err != nil {
		return fmt.Errorf("marshal unpaid payout items: %w", err)
	}
	taxItems, err := marshalLineItems(s.UnpaidTaxItems)
	if err != nil {
		return fmt.Errorf("marshal unpaid tax items: %w", err)
	}

	var actual any
	if s.ActualBalance != nil {
		actual = decToDB(*s.ActualBalance)
	}

	_, err = r.db.Exec(
		`INSERT INTO reconciliation_snapshots
		(id, reconciliation_date, status, expected_balance, actual_balance,
		 variance_amount, future_deposit_items, unpaid_payout_items,
		 unpaid_tax_items, created_at)
		VALUES (?,?,?,?,?,?,?,?,?,?)`,
		s.ID, formatTime(s.ReconciliationDate), string(s.Status),
		decToDB(s.ExpectedBalance), actual, decToDB(s.VarianceAmount),
		futureItems, payoutItems, taxItems, formatTime(s.CreatedAt),
	)
	if err != nil {
		return fmt.Errorf("insert reconciliation snapshot: %w", err)
	}
	return nil
}

func (r *SnapshotRepo) GetByID(id string) (*domain.ReconciliationSnapshot, error) {
	row := r.db.QueryRow(
		`SELECT id, reconciliation_date, status, expected_balance, actual_balance,
		 variance_amount, future_deposit_items, unpaid_payout_items,
		 unpaid_tax_items, created_at
		 FROM reconciliation_snapshots WHERE id = ?`, id)
	return scanSnapshotFrom(row)
}

func (r *SnapshotRepo) List(limit int) ([]domain.ReconciliationSnapshot, error) {
	if limit <= 0 {
		limit = 50
	}
	rows, err := r.db.Query(
		`SELECT id, reconciliation_date, status, expected_balance, actual_balance,
		 variance_amount, future_deposit_items, unpaid_payout_items,
		 unpaid_tax_items, created_at
		 FROM reconciliation_snapshots
		 ORDER BY reconciliation_date DESC, created_at DESC LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("query snapshots: %w", err)
	}
	defer rows.Close()

	var snapshots []domain.ReconciliationSnapshot
	for rows.Next() {
		s, err := scanSnapshotFrom(rows)
		if err != nil {
			return nil, fmt.Errorf("scan snapshot: %w", err)
		}
		snapshots = append(snapshots, *s)
	}
	return snapshots, rows.Err()
}

func (r *SnapshotRepo) Count() (int, error) {
	var count int
	err := r.db.QueryRow("SELECT COUNT(*) FROM reconciliation_snapshots").Scan(&count)
	return count, err
}

func marshalLineItems(items []domain.LineItem) (string, error) {
	if items == nil {
		items = []domain.LineItem{}
	}
	b, err := json.Marshal(items)
	if err != nil {
		return "", err
	}
	return string(b), nil
}

func scanSnapshotFrom(s interface{ Scan(dest ...any) error }) (*domain.ReconciliationSnapshot, error) {
	var snap domain.ReconciliationSnapshot
	var date, status, expected, variance, createdAt string
	var actual sql.NullString
	var futureItems, payoutItems, taxItems string

	err := s.Scan(&snap.ID, &date, &status, &expected, &actual, &variance,
		&futureItems, &payoutItems, &taxItems, &createdAt)
	if err != nil {
		return nil, err
	}

	snap.ReconciliationDate = parseTime(date)
	snap.Status = domain.SnapshotStatus(status)
	snap.ExpectedBalance = decFromDB(expected)
	snap.ActualBalance = nullDecFromDB(actual)
	snap.VarianceAmount = decFromDB(variance)
	snap.CreatedAt = parseTime(createdAt)

	if err := json.Unmarshal([]byte(futureItems), &snap.FutureDepositItems); err != nil {
		return nil, fmt.Errorf("unmarshal future deposit items: %w", err)
	}
	if err := json.Unmarshal([]byte(payoutItems), &snap.UnpaidPayoutItems); err != nil {
		return nil, fmt.Errorf("unmarshal unpaid payout items: %w", err)
	}
	if err := json.Unmarshal([]byte(taxItems), &snap.UnpaidTaxItems); err != nil {
		return nil, fmt.Errorf("unmarshal unpaid tax items: %w", err)
	}

	return &snap, nil
}
