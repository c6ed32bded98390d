package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

type SnapshotStatus string

const (
	// SnapshotDraft means no processor balance existed at creation time, so
	// the comparison could not be made.
	SnapshotDraft SnapshotStatus = "draft"
	// SnapshotBalanced means |variance| was within the alert threshold.
	SnapshotBalanced SnapshotStatus = "balanced"
	// SnapshotVariance means the variance exceeded the alert threshold.
	SnapshotVariance SnapshotStatus = "variance"
)

// statusDisplay keeps presentation metadata for each status in one table
// instead of scattered switches.
var statusDisplay = map[SnapshotStatus]struct {
	Label    string
	Severity string
}{
	SnapshotDraft:    {"Draft", "info"},
	SnapshotBalanced: {"Balanced", "ok"},
	SnapshotVariance: {"Variance", "alert"},
}

func (s SnapshotStatus) Label() string {
	if d, ok := statusDisplay[s]; ok {
		return d.Label
	}
	return string(s)
}

func (s SnapshotStatus) Severity() string {
	if d, ok := statusDisplay[s]; ok {
		return d.Severity
	}
	return "info"
}

// LineItem is one row of a snapshot's audit payload. Amount marshals as a
// decimal string and Date as RFC 3339, which is what the audit format wants.
type LineItem struct {
	ID             string          `json:"id"`
	Label          string          `json:"label"`
	SecondaryLabel string          `json:"secondaryLabel"`
	Date           time.Time       `json:"date"`
	Amount         decimal.Decimal `json:"amount"`
}

// ReconciliationSnapshot is an immutable audit record comparing the expected
// trust balance against the processor-reported balance. Corrections require
// a new snapshot; existing snapshots are never mutated.
type ReconciliationSnapshot struct {
	ID                 string           `json:"id"`
	ReconciliationDate time.Time        `json:"reconciliation_date"`
	Status             SnapshotStatus   `json:"status"`
	ExpectedBalance    decimal.Decimal  `json:"expected_balance"`
	ActualBalance      *decimal.Decimal `json:"actual_balance,omitempty"`
	VarianceAmount     decimal.Decimal  `json:"variance_amount"`
	FutureDepositItems []LineItem       `json:"future_deposit_items"`
	UnpaidPayoutItems  []LineItem       `json:"unpaid_payout_items"`
	UnpaidTaxItems     []LineItem       `json:"unpaid_tax_items"`
	CreatedAt          time.Time        `json:"created_at"`
}
