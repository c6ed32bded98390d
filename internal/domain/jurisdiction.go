package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

type TaxType string

const (
	TaxOccupancy TaxType = "occupancy"
	TaxSales     TaxType = "sales"
	TaxLodging   TaxType = "lodging"
	TaxTransient TaxType = "transient_occupancy"
)

type RemittanceFrequency string

const (
	RemitMonthly   RemittanceFrequency = "monthly"
	RemitQuarterly RemittanceFrequency = "quarterly"
	RemitAnnually  RemittanceFrequency = "annually"
)

type TaxJurisdiction struct {
	ID                  string              `json:"id"`
	Name                string              `json:"name"`
	TaxType             TaxType             `json:"tax_type"`
	TaxRate             decimal.Decimal     `json:"tax_rate"`
	RemittanceFrequency RemittanceFrequency `json:"remittance_frequency"`
	RemittanceDueDay    int                 `json:"remittance_due_day"`
	LastRemittanceDate  *time.Time          `json:"last_remittance_date,omitempty"`
	Active              bool                `json:"active"`
}
