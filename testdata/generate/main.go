package main

import (
	"encoding/json"
	"fmt"
	"math/rand"
	"os"
	"path/filepath"
	"time"

	"github.com/shopspring/decimal"

	"github.com/lodgeledger/trustbooks/internal/domain"
)

// Generates testdata/sync_batch.json: a provider batch of demo listings and
// reservations spanning past, current, and future stays. Deterministic seed
// so regenerating yields the same file.
func main() {
	rng := rand.New(rand.NewSource(42))
	baseDir := findTestdataDir()

	now := time.Now().UTC().Truncate(24 * time.Hour)

	cities := []struct {
		city   string
		region string
	}{
		{"Asheville", "NC"},
		{"Savannah", "GA"},
		{"Charleston", "SC"},
		{"Gatlinburg", "TN"},
	}

	var properties []domain.ExternalProperty
	for i := 1; i <= 8; i++ {
		loc := cities[rng.Intn(len(cities))]
		properties = append(properties, domain.ExternalProperty{
			ListingID:   fmt.Sprintf("LST-%04d", i),
			Name:        fmt.Sprintf("Cottage %d on Main", i),
			AddressLine: fmt.Sprintf("%d Main St", 100+i),
			City:        loc.city,
			Region:      loc.region,
			PostalCode:  fmt.Sprintf("2%04d", 8000+i),
			Active:      true,
		})
	}

	sources := []domain.ReservationSource{domain.SourceAirbnb, domain.SourceVrbo, domain.SourceDirect}

	var reservations []domain.ExternalReservation
	for i := 1; i <= 60; i++ {
		listing := properties[rng.Intn(len(properties))]

		// Spread check-ins from 90 days back to 45 days ahead.
		offset := rng.Intn(135) - 90
		checkIn := now.AddDate(0, 0, offset)
		nights := 2 + rng.Intn(6)
		checkOut := checkIn.AddDate(0, 0, nights)

		nightly := decimal.NewFromInt(int64(120 + rng.Intn(280)))
		fare := nightly.Mul(decimal.NewFromInt(int64(nights)))
		cleaning := decimal.NewFromInt(int64(60 + rng.Intn(90)))
		total := fare.Add(cleaning)
		tax := total.Mul(decimal.NewFromFloat(0.07)).Round(2)
		total = total.Add(tax)
		hostFee := total.Mul(decimal.NewFromFloat(0.03)).Round(2)

		deposit := decimal.Zero
		if checkIn.After(now) {
			deposit = total
		}

		reservations = append(reservations, domain.ExternalReservation{
			ConfirmationCode:  fmt.Sprintf("HM%08d", 10000000+i),
			ListingID:         listing.ListingID,
			GuestName:         fmt.Sprintf("Guest %02d", i),
			GuestEmail:        fmt.Sprintf("guest%02d@example.com", i),
			CheckIn:           checkIn,
			CheckOut:          checkOut,
			Cancelled:         rng.Intn(20) == 0,
			TotalAmount:       total,
			TaxAmount:         tax,
			HostServiceFee:    hostFee,
			AccommodationFare: fare,
			CleaningFee:       cleaning,
			DepositReceived:   deposit,
			Source:            sources[rng.Intn(len(sources))],
		})
	}

	batch := domain.SyncBatch{
		Properties:   properties,
		Reservations: reservations,
	}

	out := filepath.Join(baseDir, "sync_batch.json")
	data, err := json.MarshalIndent(batch, "", "  ")
	if err != nil {
		fmt.Fprintf(os.Stderr, "marshal: %v\n", err)
		os.Exit(1)
	}
	if err := os.WriteFile(out, data, 0o644); err != nil {
		fmt.Fprintf(os.Stderr, "write %s: %v\n", out, err)
		os.Exit(1)
	}
	fmt.Printf("wrote %s: %d properties, %d reservations\n",
		out, len(batch.Properties), len(batch.Reservations))
}

func findTestdataDir() string {
	for _, candidate := range []string{"testdata", filepath.Join("..", "..", "testdata")} {
		if info, err := os.Stat(candidate); err == nil && info.IsDir() {
			return candidate
		}
	}
	return "testdata"
}
