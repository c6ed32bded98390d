package reconciliation

import (
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"

	"github.com/lodgeledger/trustbooks/internal/domain"
	"github.com/lodgeledger/trustbooks/internal/repository"
	"github.com/lodgeledger/trustbooks/internal/trust"
)

// Engine builds and stores immutable reconciliation snapshots: expected trust
// balance versus the processor-reported balance, with the line items that
// made up the expectation captured for audit drill-down.
type Engine struct {
	calculator   *trust.Calculator
	snapshotRepo *repository.SnapshotRepo
	balanceRepo  *repository.BalanceRepo

	// Serializes snapshot creation; two concurrent runs against the same
	// data would produce confusingly interleaved audit records.
	mu  sync.Mutex
	log *logrus.Entry
}

func NewEngine(
	calculator *trust.Calculator,
	snapshotRepo *repository.SnapshotRepo,
	balanceRepo *repository.BalanceRepo,
	log *logrus.Logger,
) *Engine {
	return &Engine{
		calculator:   calculator,
		snapshotRepo: snapshotRepo,
		balanceRepo:  balanceRepo,
		log:          log.WithField("component", "reconciliation"),
	}
}

// CreateSnapshot compares the expected trust balance as of asOf against the
// latest processor balance and persists the comparison as a new snapshot.
//
// With no processor balance on file the comparison cannot be made: the
// snapshot is stored as draft with a zero variance. Otherwise the variance
// is signed (positive means the processor holds more than expected) and the
// status is balanced when |variance| <= varianceThreshold.
//
// A snapshot's status never changes after creation; a correction is a new
// snapshot.
func (e *Engine) CreateSnapshot(asOf time.Time, varianceThreshold decimal.Decimal) (*domain.ReconciliationSnapshot, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	expected, err := e.calculator.CalculateExpectedBalance(asOf)
	if err != nil {
		return nil, fmt.Errorf("calculate expected balance: %w", err)
	}

	latest, err := e.balanceRepo.Latest()
	if err != nil {
		return nil, fmt.Errorf("load latest balance snapshot: %w", err)
	}

	snapshot := &domain.ReconciliationSnapshot{
		ID:                 uuid.NewString(),
		ReconciliationDate: asOf,
		Status:             domain.SnapshotDraft,
		ExpectedBalance:    expected.ExpectedBalance,
		VarianceAmount:     decimal.Zero,
		FutureDepositItems: expected.FutureDepositItems,
		UnpaidPayoutItems:  expected.UnpaidPayoutItems,
		UnpaidTaxItems:     expected.UnpaidTaxItems,
		CreatedAt:          time.Now().UTC(),
	}

	if latest != nil {
		actual := latest.TotalBalance
		snapshot.ActualBalance = &actual
		snapshot.VarianceAmount = actual.Sub(expected.ExpectedBalance)
		if snapshot.VarianceAmount.Abs().LessThanOrEqual(varianceThreshold) {
			snapshot.Status = domain.SnapshotBalanced
		} else {
			snapshot.Status = domain.SnapshotVariance
		}
	}

	if err := e.snapshotRepo.Insert(snapshot); err != nil {
		return nil, fmt.Errorf("persist snapshot: %w", err)
	}

	if latest != nil {
		if err := e.balanceRepo.LinkReconciliation(latest.ID, snapshot.ID); err != nil {
			// The snapshot itself is already durable; the back-link is
			// informational only.
			e.log.WithError(err).Warn("failed to link balance snapshot")
		}
	}

	e.log.WithFields(logrus.Fields{
		"snapshot_id": snapshot.ID,
		"status":      snapshot.Status,
		"expected":    snapshot.ExpectedBalance,
		"variance":    snapshot.VarianceAmount,
	}).Info("created reconciliation snapshot")

	return snapshot, nil
}

// GetSnapshot returns a stored snapshot by id.
func (e *Engine) GetSnapshot(id string) (*domain.ReconciliationSnapshot, error) {
	return e.snapshotRepo.GetByID(id)
}

// ListSnapshots returns the most recent snapshots, newest first.
func (e *Engine) ListSnapshots(limit int) ([]domain.ReconciliationSnapshot, error) {
	return e.snapshotRepo.List(limit)
}
