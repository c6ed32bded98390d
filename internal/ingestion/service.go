package ingestion

import (
	"context"
	"crypto/sha256"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"

	"github.com/lodgeledger/trustbooks/internal/domain"
	"github.com/lodgeledger/trustbooks/internal/finance"
	"github.com/lodgeledger/trustbooks/internal/provider"
	"github.com/lodgeledger/trustbooks/internal/repository"
)

// Reconciler merges normalized booking-provider records into the local store
// by stable external identifier: listing id for properties, confirmation
// code for reservations. Each batch merges in a single transaction, so a
// failure mid-batch leaves no partial state. Settlement flags and fee
// overrides are operator-owned and are never touched by a merge.
type Reconciler struct {
	db                *sql.DB
	defaultFeePercent decimal.Decimal
	log               *logrus.Entry
}

func NewReconciler(db *sql.DB, defaultFeePercent decimal.Decimal, log *logrus.Logger) *Reconciler {
	return &Reconciler{
		db:                db,
		defaultFeePercent: defaultFeePercent,
		log:               log.WithField("component", "ingestion"),
	}
}

// Pull fetches one complete batch from the booking provider and merges it.
func (s *Reconciler) Pull(ctx context.Context, p provider.BookingProvider) (*domain.MergeResult, error) {
	batch, err := p.FetchBatch(ctx)
	if err != nil {
		return nil, &domain.SyncError{Stage: "fetch", Err: err}
	}
	return s.Merge(ctx, batch)
}

// Merge applies one complete provider batch. Re-running the identical batch
// is a no-op: the batch digest short-circuits exact replays, and a changed
// batch only counts records whose fields genuinely differ as updated.
func (s *Reconciler) Merge(ctx context.Context, batch *domain.SyncBatch) (*domain.MergeResult, error) {
	// The caller may cancel while the provider fetch is still in flight;
	// once the transaction begins the batch goes in whole.
	if err := ctx.Err(); err != nil {
		return nil, &domain.SyncError{Stage: "pre-merge", Err: err}
	}

	digest, err := batchDigest(batch)
	if err != nil {
		return nil, &domain.SyncError{Stage: "digest", Err: err}
	}

	syncRepo := repository.NewSyncRepo(s.db)
	exists, err := syncRepo.BatchExists(digest)
	if err != nil {
		return nil, &domain.SyncError{Stage: "digest", Err: err}
	}
	if exists {
		s.log.WithField("digest", digest[:12]).Info("batch already merged, skipping")
		return &domain.MergeResult{}, nil
	}

	tx, err := s.db.Begin()
	if err != nil {
		return nil, &domain.SyncError{Stage: "begin", Err: err}
	}
	defer tx.Rollback()

	result, err := mergeBatch(tx, batch, s.defaultFeePercent)
	if err != nil {
		return nil, err
	}

	if err := repository.NewSyncRepo(tx).RecordBatch(uuid.NewString(), digest, *result, time.Now().UTC()); err != nil {
		return nil, &domain.SyncError{Stage: "record-batch", Err: err}
	}

	if err := tx.Commit(); err != nil {
		return nil, &domain.SyncError{Stage: "commit", Err: err}
	}

	s.log.WithFields(logrus.Fields{
		"properties_created":   result.PropertiesCreated,
		"properties_updated":   result.PropertiesUpdated,
		"reservations_created": result.ReservationsCreated,
		"reservations_updated": result.ReservationsUpdated,
	}).Info("merged provider batch")

	return result, nil
}

func mergeBatch(tx *sql.Tx, batch *domain.SyncBatch, defaultFeePercent decimal.Decimal) (*domain.MergeResult, error) {
	propertyRepo := repository.NewPropertyRepo(tx)
	ownerRepo := repository.NewOwnerRepo(tx)
	reservationRepo := repository.NewReservationRepo(tx)
	result := &domain.MergeResult{}

	for i := range batch.Properties {
		ext := &batch.Properties[i]
		existing, err := propertyRepo.GetByListingID(ext.ListingID)
		switch {
		case errors.Is(err, sql.ErrNoRows):
			p := &domain.Property{
				ID:                uuid.NewString(),
				Name:              ext.Name,
				AddressLine:       ext.AddressLine,
				City:              ext.City,
				Region:            ext.Region,
				PostalCode:        ext.PostalCode,
				ExternalListingID: ext.ListingID,
				Active:            ext.Active,
			}
			if err := propertyRepo.Insert(p); err != nil {
				return nil, &domain.SyncError{Stage: "property:" + ext.ListingID, Applied: *result, Err: err}
			}
			result.PropertiesCreated++
		case err != nil:
			return nil, &domain.SyncError{Stage: "property:" + ext.ListingID, Applied: *result, Err: err}
		case propertyChanged(existing, ext):
			if err := propertyRepo.UpdateExternalFields(existing.ID, ext); err != nil {
				return nil, &domain.SyncError{Stage: "property:" + ext.ListingID, Applied: *result, Err: err}
			}
			result.PropertiesUpdated++
		}
	}

	for i := range batch.Reservations {
		ext := &batch.Reservations[i]
		propertyID, err := resolvePropertyID(propertyRepo, ext.ListingID)
		if err != nil {
			return nil, &domain.SyncError{Stage: "reservation:" + ext.ConfirmationCode, Applied: *result, Err: err}
		}

		existing, err := reservationRepo.GetByConfirmationCode(ext.ConfirmationCode)
		switch {
		case errors.Is(err, sql.ErrNoRows):
			r := &domain.Reservation{
				ID:                uuid.NewString(),
				PropertyID:        propertyID,
				GuestName:         ext.GuestName,
				GuestEmail:        ext.GuestEmail,
				CheckIn:           ext.CheckIn,
				CheckOut:          ext.CheckOut,
				Cancelled:         ext.Cancelled,
				TotalAmount:       ext.TotalAmount,
				TaxAmount:         ext.TaxAmount,
				HostServiceFee:    ext.HostServiceFee,
				AccommodationFare: ext.AccommodationFare,
				CleaningFee:       ext.CleaningFee,
				DepositReceived:   ext.DepositReceived,
				ConfirmationCode:  ext.ConfirmationCode,
				Source:            ext.Source,
			}
			if err := reservationRepo.Insert(r); err != nil {
				return nil, &domain.SyncError{Stage: "reservation:" + ext.ConfirmationCode, Applied: *result, Err: err}
			}
			if err := refreshDerivedCache(propertyRepo, ownerRepo, reservationRepo, r, defaultFeePercent); err != nil {
				return nil, &domain.SyncError{Stage: "reservation:" + ext.ConfirmationCode, Applied: *result, Err: err}
			}
			result.ReservationsCreated++
		case err != nil:
			return nil, &domain.SyncError{Stage: "reservation:" + ext.ConfirmationCode, Applied: *result, Err: err}
		case reservationChanged(existing, ext, propertyID):
			if err := reservationRepo.UpdateExternalFields(existing.ID, ext, propertyID); err != nil {
				return nil, &domain.SyncError{Stage: "reservation:" + ext.ConfirmationCode, Applied: *result, Err: err}
			}
			updated := &domain.Reservation{
				ID:             existing.ID,
				PropertyID:     propertyID,
				TotalAmount:    ext.TotalAmount,
				TaxAmount:      ext.TaxAmount,
				HostServiceFee: ext.HostServiceFee,
			}
			if err := refreshDerivedCache(propertyRepo, ownerRepo, reservationRepo, updated, defaultFeePercent); err != nil {
				return nil, &domain.SyncError{Stage: "reservation:" + ext.ConfirmationCode, Applied: *result, Err: err}
			}
			result.ReservationsUpdated++
		}
	}

	return result, nil
}

// refreshDerivedCache recomputes the stored management fee and owner payout
// for a reservation after its monetary fields change. The cache exists for
// display; the reconciliation path always recomputes from raw amounts.
func refreshDerivedCache(
	propertyRepo *repository.PropertyRepo,
	ownerRepo *repository.OwnerRepo,
	reservationRepo *repository.ReservationRepo,
	r *domain.Reservation,
	defaultFeePercent decimal.Decimal,
) error {
	var property *domain.Property
	var owner *domain.Owner

	if r.PropertyID != nil {
		p, err := propertyRepo.GetByID(*r.PropertyID)
		if err != nil && !errors.Is(err, sql.ErrNoRows) {
			return err
		}
		property = p
	}
	if property != nil && property.OwnerID != nil {
		o, err := ownerRepo.GetByID(*property.OwnerID)
		if err != nil && !errors.Is(err, sql.ErrNoRows) {
			return err
		}
		owner = o
	}

	pct := finance.ResolveFeePercent(property, owner, defaultFeePercent)
	split := finance.Compute(r, pct)
	return reservationRepo.UpdateDerivedCache(r.ID, split.ManagementFee, split.OwnerPayout)
}

func resolvePropertyID(repo *repository.PropertyRepo, listingID string) (*string, error) {
	if listingID == "" {
		return nil, nil
	}
	p, err := repo.GetByListingID(listingID)
	if errors.Is(err, sql.ErrNoRows) {
		// Reservation for a listing we have not seen; keep it unlinked
		// rather than dropping it.
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &p.ID, nil
}

func propertyChanged(p *domain.Property, ext *domain.ExternalProperty) bool {
	return p.Name != ext.Name ||
		p.AddressLine != ext.AddressLine ||
		p.City != ext.City ||
		p.Region != ext.Region ||
		p.PostalCode != ext.PostalCode ||
		p.Active != ext.Active
}

func reservationChanged(r *domain.Reservation, ext *domain.ExternalReservation, propertyID *string) bool {
	if !equalStrPtr(r.PropertyID, propertyID) {
		return true
	}
	// Stored times are RFC 3339 at second precision; compare at the same
	// granularity so a replayed batch does not look changed.
	return r.GuestName != ext.GuestName ||
		r.GuestEmail != ext.GuestEmail ||
		!r.CheckIn.Equal(ext.CheckIn.Truncate(time.Second)) ||
		!r.CheckOut.Equal(ext.CheckOut.Truncate(time.Second)) ||
		r.Cancelled != ext.Cancelled ||
		!r.TotalAmount.Equal(ext.TotalAmount) ||
		!r.TaxAmount.Equal(ext.TaxAmount) ||
		!r.HostServiceFee.Equal(ext.HostServiceFee) ||
		!r.AccommodationFare.Equal(ext.AccommodationFare) ||
		!r.CleaningFee.Equal(ext.CleaningFee) ||
		!r.DepositReceived.Equal(ext.DepositReceived) ||
		r.Source != ext.Source
}

func equalStrPtr(a, b *string) bool {
	if a == nil || b == nil {
		return a == b
	}
	return *a == *b
}

func batchDigest(batch *domain.SyncBatch) (string, error) {
	b, err := json.Marshal(batch)
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("%x", sha256.Sum256(b)), nil
}
