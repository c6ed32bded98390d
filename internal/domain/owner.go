package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// DefaultManagementFeePercent applies when neither a property override nor
// an owner default is configured.
var DefaultManagementFeePercent = decimal.NewFromInt(20)

type Owner struct {
	ID                string          `json:"id"`
	Name              string          `json:"name"`
	DefaultFeePercent decimal.Decimal `json:"default_fee_percent"`
	LastPayoutDate    *time.Time      `json:"last_payout_date,omitempty"`
	Active            bool            `json:"active"`
}
