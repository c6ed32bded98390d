package repository

import (
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/lodgeledger/trustbooks/internal/domain"
)

type ReservationRepo struct {
	db DBTX
}

func NewReservationRepo(db DBTX) *ReservationRepo {
	return &ReservationRepo{db: db}
}

const reservationCols = `id, property_id, guest_name, guest_email, check_in, check_out,
	cancelled, total_amount, tax_amount, host_service_fee, accommodation_fare,
	cleaning_fee, deposit_received, confirmation_code, source,
	owner_paid_out, owner_paid_out_date, tax_remitted, tax_remitted_date,
	management_fee, owner_payout`

func (r *ReservationRepo) Insert(res *domain.Reservation) error {
	_, err := r.db.Exec(
		`INSERT INTO reservations (`+reservationCols+`)
		VALUES (?,?,?,?,?,?,?,?,?,?,?,?,?,?,?,?,?,?,?,?,?)`,
		res.ID, nullStrToDB(res.PropertyID), res.GuestName, res.GuestEmail,
		formatTime(res.CheckIn), formatTime(res.CheckOut), boolToDB(res.Cancelled),
		decToDB(res.TotalAmount), decToDB(res.TaxAmount), decToDB(res.HostServiceFee),
		decToDB(res.AccommodationFare), decToDB(res.CleaningFee), decToDB(res.DepositReceived),
		res.ConfirmationCode, string(res.Source),
		boolToDB(res.OwnerPaidOut), formatNullableTime(res.OwnerPaidOutDate),
		boolToDB(res.TaxRemitted), formatNullableTime(res.TaxRemittedDate),
		decToDB(res.ManagementFee), decToDB(res.OwnerPayout),
	)
	if err != nil {
		return fmt.Errorf("insert reservation: %w", err)
	}
	return nil
}

func (r *ReservationRepo) GetByID(id string) (*domain.Reservation, error) {
	row := r.db.QueryRow("SELECT "+reservationCols+" FROM reservations WHERE id = ?", id)
	return scanReservation(row)
}

func (r *ReservationRepo) GetByConfirmationCode(code string) (*domain.Reservation, error) {
	row := r.db.QueryRow("SELECT "+reservationCols+" FROM reservations WHERE confirmation_code = ?", code)
	return scanReservation(row)
}

type ReservationFilter struct {
	PropertyID string
	OwnerID    string
	Cancelled  *bool
	From       *time.Time
	To         *time.Time
	Page       int
	Limit      int
}

func (r *ReservationRepo) List(f ReservationFilter) ([]domain.Reservation, int, error) {
	where, args := buildReservationWhere(f)

	var total int
	countSQL := "SELECT COUNT(*) FROM reservations" + where
	if err := r.db.QueryRow(countSQL, args...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("count: %w", err)
	}

	if f.Limit <= 0 {
		f.Limit = 50
	}
	if f.Page <= 0 {
		f.Page = 1
	}
	offset := (f.Page - 1) * f.Limit

	querySQL := "SELECT " + reservationCols + " FROM reservations" + where +
		" ORDER BY check_in DESC LIMIT ? OFFSET ?"
	args = append(args, f.Limit, offset)

	rows, err := r.db.Query(querySQL, args...)
	if err != nil {
		return nil, 0, fmt.Errorf("query: %w", err)
	}
	defer rows.Close()

	reservations, err := collectReservations(rows)
	if err != nil {
		return nil, 0, err
	}
	return reservations, total, nil
}

// ListFuture returns non-cancelled reservations whose stay has not started
// as of asOf. Their deposits are still held in trust.
func (r *ReservationRepo) ListFuture(asOf time.Time) ([]domain.Reservation, error) {
	rows, err := r.db.Query(
		"SELECT "+reservationCols+" FROM reservations WHERE cancelled = 0 AND check_in > ? ORDER BY check_in",
		formatTime(asOf),
	)
	if err != nil {
		return nil, fmt.Errorf("query future: %w", err)
	}
	defer rows.Close()
	return collectReservations(rows)
}

// ListUnpaidCompleted returns completed, non-cancelled reservations whose
// owner payout has not been settled as of asOf.
func (r *ReservationRepo) ListUnpaidCompleted(asOf time.Time) ([]domain.Reservation, error) {
	rows, err := r.db.Query(
		`SELECT `+reservationCols+` FROM reservations
		WHERE cancelled = 0 AND owner_paid_out = 0 AND check_out <= ?
		ORDER BY check_out`,
		formatTime(asOf),
	)
	if err != nil {
		return nil, fmt.Errorf("query unpaid completed: %w", err)
	}
	defer rows.Close()
	return collectReservations(rows)
}

// ListUnremittedTax returns completed, non-cancelled reservations carrying
// unremitted tax as of asOf. Zero-tax reservations are excluded.
func (r *ReservationRepo) ListUnremittedTax(asOf time.Time) ([]domain.Reservation, error) {
	rows, err := r.db.Query(
		`SELECT `+reservationCols+` FROM reservations
		WHERE cancelled = 0 AND tax_remitted = 0 AND check_out <= ?
		  AND CAST(tax_amount AS REAL) > 0
		ORDER BY check_out`,
		formatTime(asOf),
	)
	if err != nil {
		return nil, fmt.Errorf("query unremitted tax: %w", err)
	}
	defer rows.Close()
	return collectReservations(rows)
}

// UpdateExternalFields refreshes the fields a booking provider owns. The
// settlement flags and the derived-fee cache are never touched by ingestion.
func (r *ReservationRepo) UpdateExternalFields(id string, ext *domain.ExternalReservation, propertyID *string) error {
	_, err := r.db.Exec(
		`UPDATE reservations SET property_id = ?, guest_name = ?, guest_email = ?,
		 check_in = ?, check_out = ?, cancelled = ?, total_amount = ?, tax_amount = ?,
		 host_service_fee = ?, accommodation_fare = ?, cleaning_fee = ?,
		 deposit_received = ?, source = ? WHERE id = ?`,
		nullStrToDB(propertyID), ext.GuestName, ext.GuestEmail,
		formatTime(ext.CheckIn), formatTime(ext.CheckOut), boolToDB(ext.Cancelled),
		decToDB(ext.TotalAmount), decToDB(ext.TaxAmount), decToDB(ext.HostServiceFee),
		decToDB(ext.AccommodationFare), decToDB(ext.CleaningFee), decToDB(ext.DepositReceived),
		string(ext.Source), id,
	)
	if err != nil {
		return fmt.Errorf("update reservation %s: %w", id, err)
	}
	return nil
}

// UpdateDerivedCache stores recomputed management fee and payout for display.
// The reconciliation path never reads these back.
func (r *ReservationRepo) UpdateDerivedCache(id string, managementFee, ownerPayout decimal.Decimal) error {
	_, err := r.db.Exec(
		"UPDATE reservations SET management_fee = ?, owner_payout = ? WHERE id = ?",
		decToDB(managementFee), decToDB(ownerPayout), id,
	)
	return err
}

func (r *ReservationRepo) Count() (int, error) {
	var count int
	err := r.db.QueryRow("SELECT COUNT(*) FROM reservations").Scan(&count)
	return count, err
}

// --- helpers ---

func buildReservationWhere(f ReservationFilter) (string, []any) {
	var clauses []string
	var args []any

	if f.PropertyID != "" {
		clauses = append(clauses, "property_id = ?")
		args = append(args, f.PropertyID)
	}
	if f.OwnerID != "" {
		clauses = append(clauses, "property_id IN (SELECT id FROM properties WHERE owner_id = ?)")
		args = append(args, f.OwnerID)
	}
	if f.Cancelled != nil {
		clauses = append(clauses, "cancelled = ?")
		args = append(args, boolToDB(*f.Cancelled))
	}
	if f.From != nil {
		clauses = append(clauses, "check_in >= ?")
		args = append(args, formatTime(*f.From))
	}
	if f.To != nil {
		clauses = append(clauses, "check_in <= ?")
		args = append(args, formatTime(*f.To))
	}

	if len(clauses) == 0 {
		return "", nil
	}
	return " WHERE " + strings.Join(clauses, " AND "), args
}

func collectReservations(rows *sql.Rows) ([]domain.Reservation, error) {
	var reservations []domain.Reservation
	for rows.Next() {
		res, err := scanReservationRows(rows)
		if err != nil {
			return nil, fmt.Errorf("scan reservation: %w", err)
		}
		reservations = append(reservations, *res)
	}
	return reservations, rows.Err()
}

type reservationScanner interface {
	Scan(dest ...any) error
}

func scanReservationFrom(s reservationScanner) (*domain.Reservation, error) {
	var res domain.Reservation
	var propertyID, paidOutDate, remittedDate sql.NullString
	var checkIn, checkOut, source string
	var total, tax, hostFee, fare, cleaning, deposit, mgmtFee, payout string
	var cancelled, paidOut, remitted int

	err := s.Scan(
		&res.ID, &propertyID, &res.GuestName, &res.GuestEmail, &checkIn, &checkOut,
		&cancelled, &total, &tax, &hostFee, &fare, &cleaning, &deposit,
		&res.ConfirmationCode, &source, &paidOut, &paidOutDate,
		&remitted, &remittedDate, &mgmtFee, &payout,
	)
	if err != nil {
		return nil, err
	}

	res.PropertyID = nullStrFromDB(propertyID)
	res.CheckIn = parseTime(checkIn)
	res.CheckOut = parseTime(checkOut)
	res.Cancelled = cancelled == 1
	res.TotalAmount = decFromDB(total)
	res.TaxAmount = decFromDB(tax)
	res.HostServiceFee = decFromDB(hostFee)
	res.AccommodationFare = decFromDB(fare)
	res.CleaningFee = decFromDB(cleaning)
	res.DepositReceived = decFromDB(deposit)
	res.Source = domain.ReservationSource(source)
	res.OwnerPaidOut = paidOut == 1
	res.OwnerPaidOutDate = nullTimeFromDB(paidOutDate)
	res.TaxRemitted = remitted == 1
	res.TaxRemittedDate = nullTimeFromDB(remittedDate)
	res.ManagementFee = decFromDB(mgmtFee)
	res.OwnerPayout = decFromDB(payout)

	return &res, nil
}

func scanReservation(row *sql.Row) (*domain.Reservation, error) {
	return scanReservationFrom(row)
}

func scanReservationRows(rows *sql.Rows) (*domain.Reservation, error) {
	return scanReservationFrom(rows)
}
