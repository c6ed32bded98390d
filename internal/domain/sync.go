package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// ExternalProperty is a normalized listing record from a booking provider.
type ExternalProperty struct {
	ListingID   string `json:"listing_id" validate:"required"`
	Name        string `json:"name" validate:"required"`
	AddressLine string `json:"address_line"`
	City        string `json:"city"`
	Region      string `json:"region"`
	PostalCode  string `json:"postal_code"`
	Active      bool   `json:"active"`
}

// ExternalReservation is a normalized booking record from a booking provider.
// Monetary fields may be absent upstream; absent means zero.
type ExternalReservation struct {
	ConfirmationCode  string            `json:"confirmation_code" validate:"required"`
	ListingID         string            `json:"listing_id"`
	GuestName         string            `json:"guest_name"`
	GuestEmail        string            `json:"guest_email"`
	CheckIn           time.Time         `json:"check_in" validate:"required"`
	CheckOut          time.Time         `json:"check_out" validate:"required"`
	Cancelled         bool              `json:"cancelled"`
	TotalAmount       decimal.Decimal   `json:"total_amount"`
	TaxAmount         decimal.Decimal   `json:"tax_amount"`
	HostServiceFee    decimal.Decimal   `json:"host_service_fee"`
	AccommodationFare decimal.Decimal   `json:"accommodation_fare"`
	CleaningFee       decimal.Decimal   `json:"cleaning_fee"`
	DepositReceived   decimal.Decimal   `json:"deposit_received"`
	Source            ReservationSource `json:"source"`
}

// SyncBatch is one complete page of provider records. Merge only runs on
// complete batches; a partially fetched page must not reach the merge step.
type SyncBatch struct {
	Properties   []ExternalProperty    `json:"properties" validate:"dive"`
	Reservations []ExternalReservation `json:"reservations" validate:"dive"`
}

// MergeResult reports per-entity-type created/updated counts for one batch.
type MergeResult struct {
	PropertiesCreated   int `json:"properties_created"`
	PropertiesUpdated   int `json:"properties_updated"`
	ReservationsCreated int `json:"reservations_created"`
	ReservationsUpdated int `json:"reservations_updated"`
}
