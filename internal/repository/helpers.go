package repository

import (
	"database/sql"
	"time"

	"github.com/shopspring/decimal"
)

// Decimals are stored as TEXT. REAL columns would round-trip through binary
// floats, which the audited money path must not do.

func decToDB(d decimal.Decimal) string { return d.String() }

// decFromDB parses a stored decimal. Absent or malformed values read as
// zero: the absent-monetary-field-means-zero rule.
func decFromDB(s string) decimal.Decimal {
	d, err := decimal.NewFromString(s)
	if err != nil {
		return decimal.Zero
	}
	return d
}

func nullDecToDB(d *decimal.Decimal) any {
	if d == nil {
		return nil
	}
	return d.String()
}

func nullDecFromDB(ns sql.NullString) *decimal.Decimal {
	if !ns.Valid {
		return nil
	}
	d := decFromDB(ns.String)
	return &d
}

func formatTime(t time.Time) string { return t.UTC().Format(time.RFC3339) }

func parseTime(s string) time.Time {
	t, _ := time.Parse(time.RFC3339, s)
	return t
}

func formatNullableTime(t *time.Time) any {
	if t == nil {
		return nil
	}
	return t.UTC().Format(time.RFC3339)
}

func nullTimeFromDB(ns sql.NullString) *time.Time {
	if !ns.Valid || ns.String == "" {
		return nil
	}
	t := parseTime(ns.String)
	return &t
}

func nullStrToDB(s *string) any {
	if s == nil {
		return nil
	}
	return *s
}

func nullStrFromDB(ns sql.NullString) *string {
	if !ns.Valid {
		return nil
	}
	s := ns.String
	return &s
}

func boolToDB(b bool) int {
	if b {
		return 1
	}
	return 0
}
