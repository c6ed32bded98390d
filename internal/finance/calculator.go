package finance

import (
	"github.com/shopspring/decimal"

	"github.com/lodgeledger/trustbooks/internal/domain"
)

var oneHundred = decimal.NewFromInt(100)

// Split is the derived financial breakdown of a single reservation.
type Split struct {
	NetRevenue    decimal.Decimal `json:"net_revenue"`
	ManagementFee decimal.Decimal `json:"management_fee"`
	OwnerPayout   decimal.Decimal `json:"owner_payout"`
}

// Compute derives net revenue, management fee, and owner payout from the
// reservation's raw monetary fields. All arithmetic is exact decimal.
//
// Net revenue is deliberately NOT clamped at zero: when taxes plus the host
// service fee exceed the total, the negative payout surfaces in aggregates
// instead of being hidden, so a data-entry error shows up in reconciliation.
//
// The fee is rounded to cents and the payout takes the remainder, so
// ManagementFee + OwnerPayout == NetRevenue exactly for any fee percent.
func Compute(r *domain.Reservation, feePercent decimal.Decimal) Split {
	net := r.TotalAmount.Sub(r.TaxAmount).Sub(r.HostServiceFee)
	fee := net.Mul(feePercent).Div(oneHundred).Round(2)
	return Split{
		NetRevenue:    net,
		ManagementFee: fee,
		OwnerPayout:   net.Sub(fee),
	}
}
