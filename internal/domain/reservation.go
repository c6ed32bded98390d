package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// ReservationSource identifies the booking channel a reservation came from.
type ReservationSource string

const (
	SourceAirbnb ReservationSource = "airbnb"
	SourceVrbo   ReservationSource = "vrbo"
	SourceDirect ReservationSource = "direct"
	SourceManual ReservationSource = "manual"
)

type Reservation struct {
	ID                string            `json:"id"`
	PropertyID        *string           `json:"property_id,omitempty"`
	GuestName         string            `json:"guest_name"`
	GuestEmail        string            `json:"guest_email,omitempty"`
	CheckIn           time.Time         `json:"check_in"`
	CheckOut          time.Time         `json:"check_out"`
	Cancelled         bool              `json:"cancelled"`
	TotalAmount       decimal.Decimal   `json:"total_amount"`
	TaxAmount         decimal.Decimal   `json:"tax_amount"`
	HostServiceFee    decimal.Decimal   `json:"host_service_fee"`
	AccommodationFare decimal.Decimal   `json:"accommodation_fare"`
	CleaningFee       decimal.Decimal   `json:"cleaning_fee"`
	DepositReceived   decimal.Decimal   `json:"deposit_received"`
	ConfirmationCode  string            `json:"confirmation_code"`
	Source            ReservationSource `json:"source"`
	OwnerPaidOut      bool              `json:"owner_paid_out"`
	OwnerPaidOutDate  *time.Time        `json:"owner_paid_out_date,omitempty"`
	TaxRemitted       bool              `json:"tax_remitted"`
	TaxRemittedDate   *time.Time        `json:"tax_remitted_date,omitempty"`

	// ManagementFee and OwnerPayout are a display cache. The reconciliation
	// path always recomputes them from the raw monetary fields.
	ManagementFee decimal.Decimal `json:"management_fee"`
	OwnerPayout   decimal.Decimal `json:"owner_payout"`
}

// IsFuture reports whether the stay has not started as of asOf.
// Cancelled reservations are never future.
func (r *Reservation) IsFuture(asOf time.Time) bool {
	return !r.Cancelled && r.CheckIn.After(asOf)
}

// IsActive reports whether asOf falls within [check-in, check-out).
func (r *Reservation) IsActive(asOf time.Time) bool {
	return !r.Cancelled && !asOf.Before(r.CheckIn) && asOf.Before(r.CheckOut)
}

// IsCompleted reports whether the stay has ended as of asOf.
func (r *Reservation) IsCompleted(asOf time.Time) bool {
	return !r.Cancelled && !r.CheckOut.After(asOf)
}
