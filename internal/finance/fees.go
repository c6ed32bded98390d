package finance

import (
	"github.com/shopspring/decimal"

	"github.com/lodgeledger/trustbooks/internal/domain"
)

// ResolveFeePercent returns the effective management-fee percentage for a
// reservation's property and owner. Precedence is total: a property override
// wins when present and strictly positive, then the owner default when the
// owner exists, then the global default. It is evaluated fresh on every call
// so fee edits take effect immediately.
func ResolveFeePercent(property *domain.Property, owner *domain.Owner, globalDefault decimal.Decimal) decimal.Decimal {
	if property != nil && property.FeePercentOverride != nil && property.FeePercentOverride.IsPositive() {
		return *property.FeePercentOverride
	}
	if owner != nil {
		return owner.DefaultFeePercent
	}
	return globalDefault
}
