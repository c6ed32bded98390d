package provider

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/lodgeledger/trustbooks/internal/domain"
)

// BookingProvider supplies normalized property and reservation records. The
// implementation owns paging and timeouts; Merge only ever sees complete
// batches.
type BookingProvider interface {
	FetchBatch(ctx context.Context) (*domain.SyncBatch, error)
}

// PaymentProcessor reports the account's available and pending balances in
// integer minor units (cents). The reserve holdback is entered manually by
// an operator, never fetched.
type PaymentProcessor interface {
	FetchBalances(ctx context.Context) (BalanceReport, error)
}

type BalanceReport struct {
	AvailableMinor int64  `json:"available_minor"`
	PendingMinor   int64  `json:"pending_minor"`
	Currency       string `json:"currency"`
}

// CaptureBalanceSnapshot fetches the processor's current balances and
// combines them with the manually entered reserve into a snapshot dated
// snapshotDate.
func CaptureBalanceSnapshot(ctx context.Context, p PaymentProcessor, reserve decimal.Decimal, snapshotDate time.Time) (*domain.ProcessorBalanceSnapshot, error) {
	report, err := p.FetchBalances(ctx)
	if err != nil {
		return nil, err
	}
	return NewBalanceSnapshot(report, reserve, snapshotDate)
}

// NewBalanceSnapshot converts a processor balance report plus the manually
// entered reserve into a snapshot, dividing minor units by 100 exactly.
func NewBalanceSnapshot(report BalanceReport, reserve decimal.Decimal, snapshotDate time.Time) (*domain.ProcessorBalanceSnapshot, error) {
	available := decimal.New(report.AvailableMinor, -2)
	pending := decimal.New(report.PendingMinor, -2)

	s := &domain.ProcessorBalanceSnapshot{
		ID:               uuid.NewString(),
		SnapshotDate:     snapshotDate,
		AvailableBalance: available,
		PendingBalance:   pending,
		ReserveBalance:   reserve,
		TotalBalance:     available.Add(pending).Add(reserve),
	}
	if err := s.Validate(); err != nil {
		return nil, err
	}
	return s, nil
}
