package repository

import (
	"database/sql"
	"fmt"

	"github.com/lodgeledger/trustbooks/internal/domain"
)

type OwnerRepo struct {
	db DBTX
}

func NewOwnerRepo(db DBTX) *OwnerRepo {
	return &OwnerRepo{db: db}
}

func (r *OwnerRepo) Insert(o *domain.Owner) error {
	_, err := r.db.Exec(
		`INSERT INTO owners (id, name, default_fee_percent, last_payout_date, active)
		VALUES (?,?,?,?,?)`,
		o.ID, o.Name, decToDB(o.DefaultFeePercent),
		formatNullableTime(o.LastPayoutDate), boolToDB(o.Active),
	)
	if err != nil {
		return fmt.Errorf("insert owner: %w", err)
	}
	return nil
}

func (r *OwnerRepo) GetByID(id string) (*domain.Owner, error) {
	row := r.db.QueryRow(
		"SELECT id, name, default_fee_percent, last_payout_date, active FROM owners WHERE id = ?", id)
	return scanOwner(row)
}

func (r *OwnerRepo) List() ([]domain.Owner, error) {
	rows, err := r.db.Query(
		"SELECT id, name, default_fee_percent, last_payout_date, active FROM owners ORDER BY name")
	if err != nil {
		return nil, fmt.Errorf("query owners: %w", err)
	}
	defer rows.Close()

	var owners []domain.Owner
	for rows.Next() {
		var o domain.Owner
		var fee string
		var payout sql.NullString
		var active int
		if err := rows.Scan(&o.ID, &o.Name, &fee, &payout, &active); err != nil {
			return nil, fmt.Errorf("scan owner: %w", err)
		}
		o.DefaultFeePercent = decFromDB(fee)
		o.LastPayoutDate = nullTimeFromDB(payout)
		o.Active = active == 1
		owners = append(owners, o)
	}
	return owners, rows.Err()
}

// OwnersByID returns all owners keyed by id, for fee resolution passes.
func (r *OwnerRepo) OwnersByID() (map[string]*domain.Owner, error) {
	owners, err := r.List()
	if err != nil {
		return nil, err
	}
	m := make(map[string]*domain.Owner, len(owners))
	for i := range owners {
		m[owners[i].ID] = &owners[i]
	}
	return m, nil
}

func (r *OwnerRepo) Count() (int, error) {
	var count int
	err := r.db.QueryRow("SELECT COUNT(*) FROM owners").Scan(&count)
	return count, err
}

func scanOwner(row *sql.Row) (*domain.Owner, error) {
	var o domain.Owner
	var fee string
	var payout sql.NullString
	var active int

	err := row.Scan(&o.ID, &o.Name, &fee, &payout, &active)
	if err != nil {
		return nil, err
	}
	o.DefaultFeePercent = decFromDB(fee)
	o.LastPayoutDate = nullTimeFromDB(payout)
	o.Active = active == 1
	return &o, nil
}
