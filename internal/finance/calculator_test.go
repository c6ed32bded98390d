package finance

import (
	"testing"

	"github.com/shopspring/decimal"

	"github.com/lodgeledger/trustbooks/internal/domain"
)

func dec(s string) decimal.Decimal {
	d, err := decimal.NewFromString(s)
	if err != nil {
		panic(err)
	}
	return d
}

func reservation(total, tax, hostFee string) *domain.Reservation {
	return &domain.Reservation{
		TotalAmount:    dec(total),
		TaxAmount:      dec(tax),
		HostServiceFee: dec(hostFee),
	}
}

func TestCompute(t *testing.T) {
	testCases := []struct {
		name       string
		total      string
		tax        string
		hostFee    string
		feePercent string
		wantNet    string
		wantFee    string
		wantPayout string
	}{
		{"plain 20 percent", "1000", "0", "0", "20", "1000", "200", "800"},
		{"tax excluded", "1000", "100", "0", "20", "900", "180", "720"},
		{"host fee excluded", "1000", "0", "50", "20", "950", "190", "760"},
		{"tax and host fee", "1000", "100", "50", "20", "850", "170", "680"},
		{"zero total", "0", "0", "0", "20", "0", "0", "0"},
		{"zero fee percent", "1000", "0", "0", "0", "1000", "0", "1000"},
		{"full fee percent", "1000", "0", "0", "100", "1000", "1000", "0"},
		{"tax equals total", "1000", "1000", "0", "20", "0", "0", "0"},
		{"fee rounds to cents", "100.33", "0", "0", "15", "100.33", "15.05", "85.28"},
		// Deductions above total are not clamped; the negative surfaces.
		{"deductions exceed total", "100", "80", "40", "20", "-20", "-4", "-16"},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			got := Compute(reservation(tc.total, tc.tax, tc.hostFee), dec(tc.feePercent))
			if !got.NetRevenue.Equal(dec(tc.wantNet)) {
				t.Errorf("NetRevenue = %s, want %s", got.NetRevenue, tc.wantNet)
			}
			if !got.ManagementFee.Equal(dec(tc.wantFee)) {
				t.Errorf("ManagementFee = %s, want %s", got.ManagementFee, tc.wantFee)
			}
			if !got.OwnerPayout.Equal(dec(tc.wantPayout)) {
				t.Errorf("OwnerPayout = %s, want %s", got.OwnerPayout, tc.wantPayout)
			}
		})
	}
}

// Fee plus payout must reassemble net revenue exactly for any fee percent,
// otherwise cents leak out of the trust ledger.
func TestComputeSplitIsExact(t *testing.T) {
	r := reservation("987.65", "73.21", "12.34")
	for pct := 0; pct <= 100; pct++ {
		split := Compute(r, decimal.NewFromInt(int64(pct)))
		if sum := split.ManagementFee.Add(split.OwnerPayout); !sum.Equal(split.NetRevenue) {
			t.Fatalf("fee %d%%: fee+payout = %s, want %s", pct, sum, split.NetRevenue)
		}
	}
}

func TestResolveFeePercent(t *testing.T) {
	override := dec("30")
	zero := decimal.Zero
	globalDefault := dec("20")

	owner := &domain.Owner{ID: "own-1", DefaultFeePercent: dec("25")}

	testCases := []struct {
		name     string
		property *domain.Property
		owner    *domain.Owner
		want     string
	}{
		{"property override wins", &domain.Property{FeePercentOverride: &override}, owner, "30"},
		{"zero override falls through", &domain.Property{FeePercentOverride: &zero}, owner, "25"},
		{"no override uses owner default", &domain.Property{}, owner, "25"},
		{"no owner uses global default", &domain.Property{}, nil, "20"},
		{"no property no owner", nil, nil, "20"},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			got := ResolveFeePercent(tc.property, tc.owner, globalDefault)
			if !got.Equal(dec(tc.want)) {
				t.Errorf("ResolveFeePercent() = %s, want %s", got, tc.want)
			}
		})
	}
}

// Precedence end to end: owner at 20%, property override at 30%, 1000 total
// pays out 700.
func TestFeePrecedenceAffectsPayout(t *testing.T) {
	override := dec("30")
	property := &domain.Property{FeePercentOverride: &override}
	owner := &domain.Owner{DefaultFeePercent: dec("20")}

	pct := ResolveFeePercent(property, owner, dec("20"))
	split := Compute(reservation("1000", "0", "0"), pct)
	if !split.OwnerPayout.Equal(dec("700")) {
		t.Errorf("OwnerPayout = %s, want 700", split.OwnerPayout)
	}
}
