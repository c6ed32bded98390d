package repository

import (
	"database/sql"
	"fmt"
	"time"
)

// SettlementRepo performs the transactional settlement writes. Each method is
// one sql.Tx: either every qualifying reservation flips and the parent record
// is stamped, or nothing changes.
type SettlementRepo struct {
	db *sql.DB
}

func NewSettlementRepo(db *sql.DB) *SettlementRepo {
	return &SettlementRepo{db: db}
}

// SettleOwnerPayouts marks every completed, non-cancelled, unpaid reservation
// belonging to ownerID as paid out on payoutDate, then stamps the owner's
// last payout date. The owner_paid_out = 0 guard makes re-runs count-0 no-ops
// and keeps existing settlement dates untouched.
func (r *SettlementRepo) SettleOwnerPayouts(ownerID string, payoutDate, asOf time.Time) (int, error) {
	tx, err := r.db.Begin()
	if err != nil {
		return 0, fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback()

	res, err := tx.Exec(
		`UPDATE reservations SET owner_paid_out = 1, owner_paid_out_date = ?
		WHERE owner_paid_out = 0 AND cancelled = 0 AND check_out <= ?
		  AND property_id IN (SELECT id FROM properties WHERE owner_id = ?)`,
		formatTime(payoutDate), formatTime(asOf), ownerID,
	)
	if err != nil {
		return 0, fmt.Errorf("settle payouts for owner %s: %w", ownerID, err)
	}
	count, _ := res.RowsAffected()
	if count == 0 {
		return 0, nil
	}

	if _, err := tx.Exec(
		"UPDATE owners SET last_payout_date = ? WHERE id = ?",
		formatTime(payoutDate), ownerID,
	); err != nil {
		return 0, fmt.Errorf("stamp owner %s: %w", ownerID, err)
	}

	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("commit: %w", err)
	}
	return int(count), nil
}

// SettleTaxRemittances marks every completed, non-cancelled reservation with
// unremitted tax attributable to jurisdictionID (via its property) as
// remitted on remittanceDate, then stamps the jurisdiction.
func (r *SettlementRepo) SettleTaxRemittances(jurisdictionID string, remittanceDate, asOf time.Time) (int, error) {
	tx, err := r.db.Begin()
	if err != nil {
		return 0, fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback()

	res, err := tx.Exec(
		`UPDATE reservations SET tax_remitted = 1, tax_remitted_date = ?
		WHERE tax_remitted = 0 AND cancelled = 0 AND check_out <= ?
		  AND CAST(tax_amount AS REAL) > 0
		  AND property_id IN (SELECT id FROM properties WHERE tax_jurisdiction_id = ?)`,
		formatTime(remittanceDate), formatTime(asOf), jurisdictionID,
	)
	if err != nil {
		return 0, fmt.Errorf("settle tax for jurisdiction %s: %w", jurisdictionID, err)
	}
	count, _ := res.RowsAffected()
	if count == 0 {
		return 0, nil
	}

	if _, err := tx.Exec(
		"UPDATE tax_jurisdictions SET last_remittance_date = ? WHERE id = ?",
		formatTime(remittanceDate), jurisdictionID,
	); err != nil {
		return 0, fmt.Errorf("stamp jurisdiction %s: %w", jurisdictionID, err)
	}

	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("commit: %w", err)
	}
	return int(count), nil
}
