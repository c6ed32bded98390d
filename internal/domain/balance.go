package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// ProcessorBalanceSnapshot is a point-in-time record of the funds the payment
// processor holds for the account. Available and pending come from the
// processor; the reserve (holdback) is entered manually by an operator and is
// the only component with an update path. TotalBalance is always re-derived
// as available + pending + reserve.
type ProcessorBalanceSnapshot struct {
	ID                       string          `json:"id"`
	SnapshotDate             time.Time       `json:"snapshot_date"`
	AvailableBalance         decimal.Decimal `json:"available_balance"`
	PendingBalance           decimal.Decimal `json:"pending_balance"`
	ReserveBalance           decimal.Decimal `json:"reserve_balance"`
	TotalBalance             decimal.Decimal `json:"total_balance"`
	ReconciliationSnapshotID *string         `json:"reconciliation_snapshot_id,omitempty"`
}

// Validate rejects snapshots with any negative component before they reach
// the store.
func (s *ProcessorBalanceSnapshot) Validate() error {
	for _, c := range []struct {
		field string
		v     decimal.Decimal
	}{
		{"available_balance", s.AvailableBalance},
		{"pending_balance", s.PendingBalance},
		{"reserve_balance", s.ReserveBalance},
	} {
		if c.v.IsNegative() {
			return &ValidationError{Entity: "processor_balance_snapshot", ID: s.ID, Field: c.field, Msg: "must not be negative"}
		}
	}
	return nil
}

// Holdback is the portion of processor funds not available to the business:
// pending settlement plus the manual reserve.
func (s *ProcessorBalanceSnapshot) Holdback() decimal.Decimal {
	return s.PendingBalance.Add(s.ReserveBalance)
}
