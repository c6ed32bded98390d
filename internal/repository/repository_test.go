package repository

import (
	"database/sql"
	"errors"
	"testing"
	"time"

	"github.com/shopspring/decimal"

	"github.com/lodgeledger/trustbooks/internal/domain"
)

func testDB(t *testing.T) *sql.DB {
	t.Helper()
	db, err := InitDB(":memory:")
	if err != nil {
		t.Fatalf("InitDB() error = %v", err)
	}
	t.Cleanup(func() { db.Close() })
	return db
}

func mustDec(s string) decimal.Decimal { return decimal.RequireFromString(s) }

func TestBalanceRepo_UpdateReserveRederivesTotal(t *testing.T) {
	repo := NewBalanceRepo(testDB(t))

	if err := repo.Insert(&domain.ProcessorBalanceSnapshot{
		ID:               "bal-1",
		SnapshotDate:     time.Date(2025, time.June, 1, 0, 0, 0, 0, time.UTC),
		AvailableBalance: mustDec("1000"),
		PendingBalance:   mustDec("200"),
		ReserveBalance:   mustDec("50"),
		TotalBalance:     mustDec("1250"),
	}); err != nil {
		t.Fatalf("Insert() error = %v", err)
	}

	updated, err := repo.UpdateReserve("bal-1", mustDec("300"))
	if err != nil {
		t.Fatalf("UpdateReserve() error = %v", err)
	}
	if !updated.TotalBalance.Equal(mustDec("1500")) {
		t.Errorf("TotalBalance = %s, want 1500", updated.TotalBalance)
	}

	loaded, err := repo.GetByID("bal-1")
	if err != nil {
		t.Fatalf("GetByID() error = %v", err)
	}
	if !loaded.ReserveBalance.Equal(mustDec("300")) || !loaded.TotalBalance.Equal(mustDec("1500")) {
		t.Errorf("stored reserve/total = %s/%s, want 300/1500", loaded.ReserveBalance, loaded.TotalBalance)
	}
}

func TestBalanceRepo_RejectsNegative(t *testing.T) {
	repo := NewBalanceRepo(testDB(t))

	err := repo.Insert(&domain.ProcessorBalanceSnapshot{
		ID:               "bal-1",
		SnapshotDate:     time.Now().UTC(),
		AvailableBalance: mustDec("-1"),
	})
	var vErr *domain.ValidationError
	if !errors.As(err, &vErr) {
		t.Fatalf("Insert() error = %v, want validation error", err)
	}

	if _, err := repo.UpdateReserve("bal-1", mustDec("-5")); !errors.As(err, &vErr) {
		t.Fatalf("UpdateReserve() error = %v, want validation error", err)
	}
}

func TestBalanceRepo_LatestPicksMostRecent(t *testing.T) {
	repo := NewBalanceRepo(testDB(t))

	latest, err := repo.Latest()
	if err != nil {
		t.Fatalf("Latest() error = %v", err)
	}
	if latest != nil {
		t.Fatalf("Latest() on empty table = %+v, want nil", latest)
	}

	base := time.Date(2025, time.June, 1, 0, 0, 0, 0, time.UTC)
	snapshots := []struct {
		id     string
		offset int
	}{
		{"bal-old", 0},
		{"bal-new", 10},
		{"bal-mid", 5},
	}
	for _, s := range snapshots {
		if err := repo.Insert(&domain.ProcessorBalanceSnapshot{
			ID:           s.id,
			SnapshotDate: base.AddDate(0, 0, s.offset),
		}); err != nil {
			t.Fatalf("Insert(%s) error = %v", s.id, err)
		}
	}

	latest, err = repo.Latest()
	if err != nil {
		t.Fatalf("Latest() error = %v", err)
	}
	if latest == nil || latest.ID != "bal-new" {
		t.Errorf("Latest() = %+v, want bal-new", latest)
	}
}

func TestSettingsRepo_GetOrCreate(t *testing.T) {
	repo := NewSettingsRepo(testDB(t))

	settings, err := repo.GetOrCreate()
	if err != nil {
		t.Fatalf("GetOrCreate() error = %v", err)
	}
	if !settings.DefaultFeePercent.Equal(mustDec("20")) {
		t.Errorf("DefaultFeePercent = %s, want 20", settings.DefaultFeePercent)
	}
	if !settings.VarianceAlertThreshold.Equal(mustDec("100")) {
		t.Errorf("VarianceAlertThreshold = %s, want 100", settings.VarianceAlertThreshold)
	}

	settings.DefaultFeePercent = mustDec("18")
	if err := repo.Update(settings); err != nil {
		t.Fatalf("Update() error = %v", err)
	}

	reloaded, err := repo.GetOrCreate()
	if err != nil {
		t.Fatalf("GetOrCreate() after update error = %v", err)
	}
	if !reloaded.DefaultFeePercent.Equal(mustDec("18")) {
		t.Errorf("DefaultFeePercent = %s, want 18", reloaded.DefaultFeePercent)
	}
}

func TestReservationRepo_RoundTrip(t *testing.T) {
	repo := NewReservationRepo(testDB(t))

	checkIn := time.Date(2025, time.July, 1, 15, 0, 0, 0, time.UTC)
	paid := time.Date(2025, time.July, 20, 0, 0, 0, 0, time.UTC)
	original := &domain.Reservation{
		ID:               "res-1",
		GuestName:        "Alice",
		GuestEmail:       "alice@example.com",
		CheckIn:          checkIn,
		CheckOut:         checkIn.AddDate(0, 0, 4),
		TotalAmount:      mustDec("1234.56"),
		TaxAmount:        mustDec("86.42"),
		HostServiceFee:   mustDec("37.04"),
		DepositReceived:  mustDec("1234.56"),
		ConfirmationCode: "HM001",
		Source:           domain.SourceAirbnb,
		OwnerPaidOut:     true,
		OwnerPaidOutDate: &paid,
	}
	if err := repo.Insert(original); err != nil {
		t.Fatalf("Insert() error = %v", err)
	}

	loaded, err := repo.GetByID("res-1")
	if err != nil {
		t.Fatalf("GetByID() error = %v", err)
	}
	if !loaded.TotalAmount.Equal(original.TotalAmount) ||
		!loaded.TaxAmount.Equal(original.TaxAmount) ||
		!loaded.HostServiceFee.Equal(original.HostServiceFee) {
		t.Errorf("monetary fields did not round-trip exactly")
	}
	if !loaded.CheckIn.Equal(checkIn) {
		t.Errorf("CheckIn = %s, want %s", loaded.CheckIn, checkIn)
	}
	if !loaded.OwnerPaidOut || loaded.OwnerPaidOutDate == nil || !loaded.OwnerPaidOutDate.Equal(paid) {
		t.Errorf("settlement fields did not round-trip")
	}
}
