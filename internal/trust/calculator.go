package trust

import (
	"fmt"
	"time"

	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"

	"github.com/lodgeledger/trustbooks/internal/domain"
	"github.com/lodgeledger/trustbooks/internal/finance"
	"github.com/lodgeledger/trustbooks/internal/repository"
)

// ExpectedBalance is the derived trust position as of a point in time:
// deposits held for undelivered stays, minus funds the processor is already
// holding back, plus money owed out to owners and tax authorities.
type ExpectedBalance struct {
	AsOf               time.Time         `json:"as_of"`
	FutureDeposits     decimal.Decimal   `json:"future_deposits"`
	ProcessorHoldback  decimal.Decimal   `json:"processor_holdback"`
	UnpaidOwnerPayouts decimal.Decimal   `json:"unpaid_owner_payouts"`
	UnpaidTaxAmount    decimal.Decimal   `json:"unpaid_tax_amount"`
	ExpectedBalance    decimal.Decimal   `json:"expected_balance"`
	FutureDepositItems []domain.LineItem `json:"future_deposit_items"`
	UnpaidPayoutItems  []domain.LineItem `json:"unpaid_payout_items"`
	UnpaidTaxItems     []domain.LineItem `json:"unpaid_tax_items"`
}

// Calculator aggregates reservations and the latest processor balance into
// the expected trust balance.
type Calculator struct {
	reservationRepo *repository.ReservationRepo
	propertyRepo    *repository.PropertyRepo
	ownerRepo       *repository.OwnerRepo
	balanceRepo     *repository.BalanceRepo

	defaultFeePercent decimal.Decimal
	log               *logrus.Entry
}

func NewCalculator(
	reservationRepo *repository.ReservationRepo,
	propertyRepo *repository.PropertyRepo,
	ownerRepo *repository.OwnerRepo,
	balanceRepo *repository.BalanceRepo,
	defaultFeePercent decimal.Decimal,
	log *logrus.Logger,
) *Calculator {
	return &Calculator{
		reservationRepo:   reservationRepo,
		propertyRepo:      propertyRepo,
		ownerRepo:         ownerRepo,
		balanceRepo:       balanceRepo,
		defaultFeePercent: defaultFeePercent,
		log:               log.WithField("component", "trust"),
	}
}

// CalculateExpectedBalance derives the trust position as of asOf. An empty
// store yields an all-zero result, not an error. Owner payouts are
// recomputed from raw monetary fields on every run; the cached per-
// reservation fee fields are never read here.
func (c *Calculator) CalculateExpectedBalance(asOf time.Time) (*ExpectedBalance, error) {
	result := &ExpectedBalance{
		AsOf:               asOf,
		FutureDepositItems: []domain.LineItem{},
		UnpaidPayoutItems:  []domain.LineItem{},
		UnpaidTaxItems:     []domain.LineItem{},
	}

	properties, err := c.propertyRepo.PropertiesByID()
	if err != nil {
		return nil, fmt.Errorf("load properties: %w", err)
	}
	owners, err := c.ownerRepo.OwnersByID()
	if err != nil {
		return nil, fmt.Errorf("load owners: %w", err)
	}

	// 1. Deposits for stays not yet delivered.
	future, err := c.reservationRepo.ListFuture(asOf)
	if err != nil {
		return nil, fmt.Errorf("list future reservations: %w", err)
	}
	for i := range future {
		r := &future[i]
		result.FutureDeposits = result.FutureDeposits.Add(r.DepositReceived)
		result.FutureDepositItems = append(result.FutureDepositItems, domain.LineItem{
			ID:             r.ID,
			Label:          r.GuestName,
			SecondaryLabel: r.ConfirmationCode,
			Date:           r.CheckIn,
			Amount:         r.DepositReceived,
		})
	}

	// 2. Funds the processor is already holding back.
	latest, err := c.balanceRepo.Latest()
	if err != nil {
		return nil, fmt.Errorf("load latest balance snapshot: %w", err)
	}
	if latest != nil {
		result.ProcessorHoldback = latest.Holdback()
	}

	// 3. Owner payouts not yet settled, recomputed via fee precedence.
	unpaid, err := c.reservationRepo.ListUnpaidCompleted(asOf)
	if err != nil {
		return nil, fmt.Errorf("list unpaid completed: %w", err)
	}
	for i := range unpaid {
		r := &unpaid[i]
		split := finance.Compute(r, c.feeFor(r, properties, owners))
		result.UnpaidOwnerPayouts = result.UnpaidOwnerPayouts.Add(split.OwnerPayout)
		result.UnpaidPayoutItems = append(result.UnpaidPayoutItems, domain.LineItem{
			ID:             r.ID,
			Label:          r.GuestName,
			SecondaryLabel: propertyName(r, properties),
			Date:           r.CheckOut,
			Amount:         split.OwnerPayout,
		})
	}

	// 4. Collected taxes not yet remitted.
	unremitted, err := c.reservationRepo.ListUnremittedTax(asOf)
	if err != nil {
		return nil, fmt.Errorf("list unremitted tax: %w", err)
	}
	for i := range unremitted {
		r := &unremitted[i]
		result.UnpaidTaxAmount = result.UnpaidTaxAmount.Add(r.TaxAmount)
		result.UnpaidTaxItems = append(result.UnpaidTaxItems, domain.LineItem{
			ID:             r.ID,
			Label:          r.GuestName,
			SecondaryLabel: propertyName(r, properties),
			Date:           r.CheckOut,
			Amount:         r.TaxAmount,
		})
	}

	result.ExpectedBalance = result.FutureDeposits.
		Sub(result.ProcessorHoldback).
		Add(result.UnpaidOwnerPayouts).
		Add(result.UnpaidTaxAmount)

	c.log.WithFields(logrus.Fields{
		"future_deposits":      result.FutureDeposits,
		"processor_holdback":   result.ProcessorHoldback,
		"unpaid_owner_payouts": result.UnpaidOwnerPayouts,
		"unpaid_tax_amount":    result.UnpaidTaxAmount,
		"expected_balance":     result.ExpectedBalance,
	}).Info("calculated expected trust balance")

	return result, nil
}

func (c *Calculator) feeFor(
	r *domain.Reservation,
	properties map[string]*domain.Property,
	owners map[string]*domain.Owner,
) decimal.Decimal {
	var property *domain.Property
	var owner *domain.Owner
	if r.PropertyID != nil {
		property = properties[*r.PropertyID]
	}
	if property != nil && property.OwnerID != nil {
		owner = owners[*property.OwnerID]
	}
	return finance.ResolveFeePercent(property, owner, c.defaultFeePercent)
}

func propertyName(r *domain.Reservation, properties map[string]*domain.Property) string {
	if r.PropertyID != nil {
		if p := properties[*r.PropertyID]; p != nil {
			return p.Name
		}
	}
	return r.ConfirmationCode
}
