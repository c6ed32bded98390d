package trust

import (
	"io"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"

	"github.com/lodgeledger/trustbooks/internal/domain"
	"github.com/lodgeledger/trustbooks/internal/repository"
)

func dec(s string) decimal.Decimal {
	d, err := decimal.NewFromString(s)
	if err != nil {
		panic(err)
	}
	return d
}

func quietLogger() *logrus.Logger {
	log := logrus.New()
	log.SetOutput(io.Discard)
	return log
}

type fixture struct {
	calc         *Calculator
	owners       *repository.OwnerRepo
	properties   *repository.PropertyRepo
	reservations *repository.ReservationRepo
	balances     *repository.BalanceRepo
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	db, err := repository.InitDB(":memory:")
	if err != nil {
		t.Fatalf("InitDB() error = %v", err)
	}
	t.Cleanup(func() { db.Close() })

	f := &fixture{
		owners:       repository.NewOwnerRepo(db),
		properties:   repository.NewPropertyRepo(db),
		reservations: repository.NewReservationRepo(db),
		balances:     repository.NewBalanceRepo(db),
	}
	f.calc = NewCalculator(f.reservations, f.properties, f.owners, f.balances,
		dec("20"), quietLogger())
	return f
}

var asOf = time.Date(2025, time.June, 15, 12, 0, 0, 0, time.UTC)

func day(offset int) time.Time { return asOf.AddDate(0, 0, offset) }

func (f *fixture) mustInsertReservation(t *testing.T, r *domain.Reservation) {
	t.Helper()
	if err := f.reservations.Insert(r); err != nil {
		t.Fatalf("insert reservation %s: %v", r.ID, err)
	}
}

func TestCalculateExpectedBalance_EmptyStore(t *testing.T) {
	f := newFixture(t)

	got, err := f.calc.CalculateExpectedBalance(asOf)
	if err != nil {
		t.Fatalf("CalculateExpectedBalance() error = %v", err)
	}
	if !got.ExpectedBalance.IsZero() || !got.FutureDeposits.IsZero() ||
		!got.UnpaidOwnerPayouts.IsZero() || !got.UnpaidTaxAmount.IsZero() ||
		!got.ProcessorHoldback.IsZero() {
		t.Errorf("empty store should be all-zero, got %+v", got)
	}
	if len(got.FutureDepositItems)+len(got.UnpaidPayoutItems)+len(got.UnpaidTaxItems) != 0 {
		t.Errorf("empty store should have no line items")
	}
}

func TestCalculateExpectedBalance(t *testing.T) {
	f := newFixture(t)

	if err := f.owners.Insert(&domain.Owner{
		ID: "own-1", Name: "Dana", DefaultFeePercent: dec("20"), Active: true,
	}); err != nil {
		t.Fatalf("insert owner: %v", err)
	}

	ownerID := "own-1"
	if err := f.properties.Insert(&domain.Property{
		ID: "prop-1", Name: "Lake House", OwnerID: &ownerID,
		ExternalListingID: "LST-1", Active: true,
	}); err != nil {
		t.Fatalf("insert property: %v", err)
	}
	override := dec("30")
	if err := f.properties.Insert(&domain.Property{
		ID: "prop-2", Name: "City Loft", FeePercentOverride: &override,
		ExternalListingID: "LST-2", Active: true,
	}); err != nil {
		t.Fatalf("insert property: %v", err)
	}

	prop1, prop2 := "prop-1", "prop-2"

	// Future stay holding a 500 deposit.
	f.mustInsertReservation(t, &domain.Reservation{
		ID: "res-future", PropertyID: &prop1, GuestName: "Future Guest",
		CheckIn: day(10), CheckOut: day(14),
		DepositReceived: dec("500"), ConfirmationCode: "HM001",
	})

	// Completed, unpaid, owner fee 20%: net 900, payout 720, tax 100 owed.
	// The cached fields hold garbage on purpose: the calculator must
	// recompute from raw amounts, not trust the cache.
	f.mustInsertReservation(t, &domain.Reservation{
		ID: "res-c1", PropertyID: &prop1, GuestName: "Alice",
		CheckIn: day(-10), CheckOut: day(-5),
		TotalAmount: dec("1000"), TaxAmount: dec("100"),
		ConfirmationCode: "HM002",
		ManagementFee:    dec("999"), OwnerPayout: dec("999"),
	})

	// Completed, unpaid, property override 30%: net 950, payout 665.
	f.mustInsertReservation(t, &domain.Reservation{
		ID: "res-c2", PropertyID: &prop2, GuestName: "Bob",
		CheckIn: day(-8), CheckOut: day(-3),
		TotalAmount: dec("1000"), HostServiceFee: dec("50"),
		ConfirmationCode: "HM003",
	})

	// Already settled: excluded from both unpaid aggregates.
	paidDate := day(-1)
	f.mustInsertReservation(t, &domain.Reservation{
		ID: "res-paid", PropertyID: &prop1, GuestName: "Carol",
		CheckIn: day(-20), CheckOut: day(-15),
		TotalAmount: dec("800"), TaxAmount: dec("80"),
		ConfirmationCode: "HM004",
		OwnerPaidOut:     true, OwnerPaidOutDate: &paidDate,
		TaxRemitted: true, TaxRemittedDate: &paidDate,
	})

	// Cancelled: never future, active, or completed.
	f.mustInsertReservation(t, &domain.Reservation{
		ID: "res-cancelled", PropertyID: &prop1, GuestName: "Dave",
		CheckIn: day(5), CheckOut: day(9), Cancelled: true,
		DepositReceived: dec("400"), TotalAmount: dec("400"),
		ConfirmationCode: "HM005",
	})

	// In-progress stay: neither future deposit nor unpaid payout.
	f.mustInsertReservation(t, &domain.Reservation{
		ID: "res-active", PropertyID: &prop1, GuestName: "Eve",
		CheckIn: day(-1), CheckOut: day(3),
		TotalAmount: dec("600"), DepositReceived: dec("600"),
		ConfirmationCode: "HM006",
	})

	// Holdback = pending 200 + reserve 300.
	if err := f.balances.Insert(&domain.ProcessorBalanceSnapshot{
		ID: "bal-1", SnapshotDate: day(-1),
		AvailableBalance: dec("1000"), PendingBalance: dec("200"),
		ReserveBalance: dec("300"), TotalBalance: dec("1500"),
	}); err != nil {
		t.Fatalf("insert balance snapshot: %v", err)
	}

	got, err := f.calc.CalculateExpectedBalance(asOf)
	if err != nil {
		t.Fatalf("CalculateExpectedBalance() error = %v", err)
	}

	if !got.FutureDeposits.Equal(dec("500")) {
		t.Errorf("FutureDeposits = %s, want 500", got.FutureDeposits)
	}
	if !got.ProcessorHoldback.Equal(dec("500")) {
		t.Errorf("ProcessorHoldback = %s, want 500", got.ProcessorHoldback)
	}
	if !got.UnpaidOwnerPayouts.Equal(dec("1385")) {
		t.Errorf("UnpaidOwnerPayouts = %s, want 1385 (720 + 665)", got.UnpaidOwnerPayouts)
	}
	if !got.UnpaidTaxAmount.Equal(dec("100")) {
		t.Errorf("UnpaidTaxAmount = %s, want 100", got.UnpaidTaxAmount)
	}
	// 500 - 500 + 1385 + 100
	if !got.ExpectedBalance.Equal(dec("1485")) {
		t.Errorf("ExpectedBalance = %s, want 1485", got.ExpectedBalance)
	}

	if len(got.FutureDepositItems) != 1 || got.FutureDepositItems[0].ID != "res-future" {
		t.Errorf("FutureDepositItems = %+v, want one item for res-future", got.FutureDepositItems)
	}
	if len(got.UnpaidPayoutItems) != 2 {
		t.Errorf("UnpaidPayoutItems count = %d, want 2", len(got.UnpaidPayoutItems))
	}
	if len(got.UnpaidTaxItems) != 1 || !got.UnpaidTaxItems[0].Amount.Equal(dec("100")) {
		t.Errorf("UnpaidTaxItems = %+v, want one 100 item", got.UnpaidTaxItems)
	}
}

// A snapshot with only available funds contributes nothing to the holdback.
func TestCalculateExpectedBalance_HoldbackIgnoresAvailable(t *testing.T) {
	f := newFixture(t)

	if err := f.balances.Insert(&domain.ProcessorBalanceSnapshot{
		ID: "bal-1", SnapshotDate: day(-1),
		AvailableBalance: dec("5000"), PendingBalance: decimal.Zero,
		ReserveBalance: decimal.Zero, TotalBalance: dec("5000"),
	}); err != nil {
		t.Fatalf("insert balance snapshot: %v", err)
	}

	got, err := f.calc.CalculateExpectedBalance(asOf)
	if err != nil {
		t.Fatalf("CalculateExpectedBalance() error = %v", err)
	}
	if !got.ProcessorHoldback.IsZero() {
		t.Errorf("ProcessorHoldback = %s, want 0", got.ProcessorHoldback)
	}
	if !got.ExpectedBalance.IsZero() {
		t.Errorf("ExpectedBalance = %s, want 0", got.ExpectedBalance)
	}
}
