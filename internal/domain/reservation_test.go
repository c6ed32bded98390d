package domain

import (
	"testing"
	"time"
)

// The lifecycle predicates define the boundary semantics the store queries
// must agree with: check-in at asOf is no longer future, check-out at asOf
// is already completed, and a cancelled stay is in no phase at all.
func TestReservationLifecycle(t *testing.T) {
	asOf := time.Date(2025, time.June, 15, 12, 0, 0, 0, time.UTC)
	day := func(offset int) time.Time { return asOf.AddDate(0, 0, offset) }

	testCases := []struct {
		name          string
		checkIn       time.Time
		checkOut      time.Time
		cancelled     bool
		wantFuture    bool
		wantActive    bool
		wantCompleted bool
	}{
		{"upcoming stay", day(5), day(9), false, true, false, false},
		{"check-in exactly at asOf", asOf, day(4), false, false, true, false},
		{"in progress", day(-1), day(3), false, false, true, false},
		{"check-out exactly at asOf", day(-4), asOf, false, false, false, true},
		{"finished stay", day(-9), day(-5), false, false, false, true},
		{"cancelled upcoming", day(5), day(9), true, false, false, false},
		{"cancelled finished", day(-9), day(-5), true, false, false, false},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			r := &Reservation{CheckIn: tc.checkIn, CheckOut: tc.checkOut, Cancelled: tc.cancelled}
			if got := r.IsFuture(asOf); got != tc.wantFuture {
				t.Errorf("IsFuture() = %v, want %v", got, tc.wantFuture)
			}
			if got := r.IsActive(asOf); got != tc.wantActive {
				t.Errorf("IsActive() = %v, want %v", got, tc.wantActive)
			}
			if got := r.IsCompleted(asOf); got != tc.wantCompleted {
				t.Errorf("IsCompleted() = %v, want %v", got, tc.wantCompleted)
			}
		})
	}
}
