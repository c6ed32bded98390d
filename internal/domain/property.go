package domain

import "github.com/shopspring/decimal"

type Property struct {
	ID                 string           `json:"id"`
	Name               string           `json:"name"`
	AddressLine        string           `json:"address_line"`
	City               string           `json:"city"`
	Region             string           `json:"region"`
	PostalCode         string           `json:"postal_code"`
	FeePercentOverride *decimal.Decimal `json:"fee_percent_override,omitempty"`
	OwnerID            *string          `json:"owner_id,omitempty"`
	TaxJurisdictionID  *string          `json:"tax_jurisdiction_id,omitempty"`
	ExternalListingID  string           `json:"external_listing_id"`
	Active             bool             `json:"active"`
}
