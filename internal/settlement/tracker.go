package settlement

import (
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/lodgeledger/trustbooks/internal/domain"
	"github.com/lodgeledger/trustbooks/internal/repository"
)

// Tracker records owner payouts and tax remittances. Operations are
// idempotent: reservations already settled are never revisited, and a run
// that settles nothing returns count 0 without touching parent records.
type Tracker struct {
	settlementRepo   *repository.SettlementRepo
	ownerRepo        *repository.OwnerRepo
	jurisdictionRepo *repository.JurisdictionRepo

	// One lock per owner/jurisdiction id. Concurrent settlement against the
	// same key would race on the same reservation rows.
	locks sync.Map
	now   func() time.Time
	log   *logrus.Entry
}

func NewTracker(
	settlementRepo *repository.SettlementRepo,
	ownerRepo *repository.OwnerRepo,
	jurisdictionRepo *repository.JurisdictionRepo,
	log *logrus.Logger,
) *Tracker {
	return &Tracker{
		settlementRepo:   settlementRepo,
		ownerRepo:        ownerRepo,
		jurisdictionRepo: jurisdictionRepo,
		now:              time.Now,
		log:              log.WithField("component", "settlement"),
	}
}

// RecordOwnerPayout marks every completed, unpaid reservation of the owner
// as paid out on payoutDate and stamps the owner's last payout date, all in
// one transaction. Returns the number of reservations settled.
func (t *Tracker) RecordOwnerPayout(ownerID string, payoutDate time.Time) (int, error) {
	if _, err := t.ownerRepo.GetByID(ownerID); err != nil {
		return 0, fmt.Errorf("load owner %s: %w", ownerID, err)
	}

	unlock := t.lock("owner:" + ownerID)
	defer unlock()

	count, err := t.withRetry("owner:"+ownerID, func() (int, error) {
		return t.settlementRepo.SettleOwnerPayouts(ownerID, payoutDate, t.now())
	})
	if err != nil {
		return 0, err
	}

	t.log.WithFields(logrus.Fields{
		"owner_id":    ownerID,
		"payout_date": payoutDate.Format("2006-01-02"),
		"count":       count,
	}).Info("recorded owner payout")
	return count, nil
}

// RecordTaxRemittance marks every completed reservation with unremitted tax
// in the jurisdiction as remitted on remittanceDate and stamps the
// jurisdiction's last remittance date. Returns the number settled.
func (t *Tracker) RecordTaxRemittance(jurisdictionID string, remittanceDate time.Time) (int, error) {
	if _, err := t.jurisdictionRepo.GetByID(jurisdictionID); err != nil {
		return 0, fmt.Errorf("load jurisdiction %s: %w", jurisdictionID, err)
	}

	unlock := t.lock("jurisdiction:" + jurisdictionID)
	defer unlock()

	count, err := t.withRetry("jurisdiction:"+jurisdictionID, func() (int, error) {
		return t.settlementRepo.SettleTaxRemittances(jurisdictionID, remittanceDate, t.now())
	})
	if err != nil {
		return 0, err
	}

	t.log.WithFields(logrus.Fields{
		"jurisdiction_id": jurisdictionID,
		"remittance_date": remittanceDate.Format("2006-01-02"),
		"count":           count,
	}).Info("recorded tax remittance")
	return count, nil
}

func (t *Tracker) lock(key string) func() {
	v, _ := t.locks.LoadOrStore(key, &sync.Mutex{})
	mu := v.(*sync.Mutex)
	mu.Lock()
	return mu.Unlock
}

// withRetry retries once on a busy database, then surfaces a ConflictError.
func (t *Tracker) withRetry(key string, fn func() (int, error)) (int, error) {
	count, err := fn()
	if err == nil {
		return count, nil
	}
	if !isBusy(err) {
		return 0, err
	}

	t.log.WithField("key", key).Warn("settlement hit busy database, retrying once")
	count, err = fn()
	if err == nil {
		return count, nil
	}
	return 0, &domain.ConflictError{Key: key, Err: err}
}

func isBusy(err error) bool {
	if err == nil {
		return false
	}
	msg := err.Error()
	return strings.Contains(msg, "SQLITE_BUSY") || strings.Contains(msg, "database is locked")
}
