package provider

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/shopspring/decimal"

	"github.com/lodgeledger/trustbooks/internal/domain"
)

func TestNewBalanceSnapshot(t *testing.T) {
	date := time.Date(2025, time.June, 15, 0, 0, 0, 0, time.UTC)
	reserve := decimal.RequireFromString("250.50")

	s, err := NewBalanceSnapshot(BalanceReport{
		AvailableMinor: 123456,
		PendingMinor:   789,
	}, reserve, date)
	if err != nil {
		t.Fatalf("NewBalanceSnapshot() error = %v", err)
	}

	if got := s.AvailableBalance.String(); got != "1234.56" {
		t.Errorf("AvailableBalance = %s, want 1234.56", got)
	}
	if got := s.PendingBalance.String(); got != "7.89" {
		t.Errorf("PendingBalance = %s, want 7.89", got)
	}
	if !s.ReserveBalance.Equal(reserve) {
		t.Errorf("ReserveBalance = %s, want %s", s.ReserveBalance, reserve)
	}
	want := decimal.RequireFromString("1492.95")
	if !s.TotalBalance.Equal(want) {
		t.Errorf("TotalBalance = %s, want %s", s.TotalBalance, want)
	}
	if s.ID == "" {
		t.Error("snapshot id not assigned")
	}
}

type stubProcessor struct {
	report BalanceReport
	err    error
}

func (p *stubProcessor) FetchBalances(ctx context.Context) (BalanceReport, error) {
	return p.report, p.err
}

func TestCaptureBalanceSnapshot(t *testing.T) {
	date := time.Date(2025, time.June, 15, 0, 0, 0, 0, time.UTC)
	processor := &stubProcessor{report: BalanceReport{AvailableMinor: 50000, PendingMinor: 2500}}

	s, err := CaptureBalanceSnapshot(context.Background(), processor, decimal.Zero, date)
	if err != nil {
		t.Fatalf("CaptureBalanceSnapshot() error = %v", err)
	}
	if got := s.TotalBalance.String(); got != "525" {
		t.Errorf("TotalBalance = %s, want 525", got)
	}

	_, err = CaptureBalanceSnapshot(context.Background(), &stubProcessor{err: errors.New("processor down")}, decimal.Zero, date)
	if err == nil {
		t.Fatal("expected fetch error to propagate")
	}
}

func TestNewBalanceSnapshot_RejectsNegatives(t *testing.T) {
	date := time.Date(2025, time.June, 15, 0, 0, 0, 0, time.UTC)

	testCases := []struct {
		name    string
		report  BalanceReport
		reserve decimal.Decimal
	}{
		{"negative available", BalanceReport{AvailableMinor: -1}, decimal.Zero},
		{"negative pending", BalanceReport{PendingMinor: -50}, decimal.Zero},
		{"negative reserve", BalanceReport{}, decimal.RequireFromString("-10")},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := NewBalanceSnapshot(tc.report, tc.reserve, date)
			if err == nil {
				t.Fatal("expected validation error")
			}
			var vErr *domain.ValidationError
			if !errors.As(err, &vErr) {
				t.Fatalf("error = %T, want *domain.ValidationError", err)
			}
		})
	}
}
