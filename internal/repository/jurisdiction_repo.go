package repository

import (
	"database/sql"
	"fmt"

	"github.com/lodgeledger/trustbooks/internal/domain"
)

type JurisdictionRepo struct {
	db DBTX
}

func NewJurisdictionRepo(db DBTX) *JurisdictionRepo {
	return &JurisdictionRepo{db: db}
}

func (r *JurisdictionRepo) Insert(j *domain.TaxJurisdiction) error {
	_, err := r.db.Exec(
		`INSERT INTO tax_jurisdictions
		(id, name, tax_type, tax_rate, remittance_frequency, remittance_due_day,
		 last_remittance_date, active)
		VALUES (?,?,?,?,?,?,?,?)`,
		j.ID, j.Name, string(j.TaxType), decToDB(j.TaxRate),
		string(j.RemittanceFrequency), j.RemittanceDueDay,
		formatNullableTime(j.LastRemittanceDate), boolToDB(j.Active),
	)
	if err != nil {
		return fmt.Errorf("insert jurisdiction: %w", err)
	}
	return nil
}

func (r *JurisdictionRepo) GetByID(id string) (*domain.TaxJurisdiction, error) {
	row := r.db.QueryRow(
		`SELECT id, name, tax_type, tax_rate, remittance_frequency,
		 remittance_due_day, last_remittance_date, active
		 FROM tax_jurisdictions WHERE id = ?`, id)

	var j domain.TaxJurisdiction
	var taxType, frequency, rate string
	var lastRemit sql.NullString
	var active int

	err := row.Scan(&j.ID, &j.Name, &taxType, &rate, &frequency,
		&j.RemittanceDueDay, &lastRemit, &active)
	if err != nil {
		return nil, err
	}
	j.TaxType = domain.TaxType(taxType)
	j.TaxRate = decFromDB(rate)
	j.RemittanceFrequency = domain.RemittanceFrequency(frequency)
	j.LastRemittanceDate = nullTimeFromDB(lastRemit)
	j.Active = active == 1
	return &j, nil
}

func (r *JurisdictionRepo) List() ([]domain.TaxJurisdiction, error) {
	rows, err := r.db.Query(
		`SELECT id, name, tax_type, tax_rate, remittance_frequency,
		 remittance_due_day, last_remittance_date, active
		 FROM tax_jurisdictions ORDER BY name`)
	if err != nil {
		return nil, fmt.Errorf("query jurisdictions: %w", err)
	}
	defer rows.Close()

	var result []domain.TaxJurisdiction
	for rows.Next() {
		var j domain.TaxJurisdiction
		var taxType, frequency, rate string
		var lastRemit sql.NullString
		var active int
		if err := rows.Scan(&j.ID, &j.Name, &taxType, &rate, &frequency,
			&j.RemittanceDueDay, &lastRemit, &active); err != nil {
			return nil, fmt.Errorf("scan jurisdiction: %w", err)
		}
		j.TaxType = domain.TaxType(taxType)
		j.TaxRate = decFromDB(rate)
		j.RemittanceFrequency = domain.RemittanceFrequency(frequency)
		j.LastRemittanceDate = nullTimeFromDB(lastRemit)
		j.Active = active == 1
		result = append(result, j)
	}
	return result, rows.Err()
}
