package repository

import (
	"database/sql"
	"fmt"

	"github.com/shopspring/decimal"

	"github.com/lodgeledger/trustbooks/internal/domain"
)

type PropertyRepo struct {
	db DBTX
}

func NewPropertyRepo(db DBTX) *PropertyRepo {
	return &PropertyRepo{db: db}
}

const propertyCols = `id, name, address_line, city, region, postal_code,
	fee_percent_override, owner_id, tax_jurisdiction_id, external_listing_id, active`

func (r *PropertyRepo) Insert(p *domain.Property) error {
	_, err := r.db.Exec(
		`INSERT INTO properties
		(id, name, address_line, city, region, postal_code, fee_percent_override,
		 owner_id, tax_jurisdiction_id, external_listing_id, active)
		VALUES (?,?,?,?,?,?,?,?,?,?,?)`,
		p.ID, p.Name, p.AddressLine, p.City, p.Region, p.PostalCode,
		nullDecToDB(p.FeePercentOverride), nullStrToDB(p.OwnerID),
		nullStrToDB(p.TaxJurisdictionID), p.ExternalListingID, boolToDB(p.Active),
	)
	if err != nil {
		return fmt.Errorf("insert property: %w", err)
	}
	return nil
}

func (r *PropertyRepo) GetByID(id string) (*domain.Property, error) {
	row := r.db.QueryRow("SELECT "+propertyCols+" FROM properties WHERE id = ?", id)
	return scanProperty(row)
}

func (r *PropertyRepo) GetByListingID(listingID string) (*domain.Property, error) {
	row := r.db.QueryRow("SELECT "+propertyCols+" FROM properties WHERE external_listing_id = ?", listingID)
	return scanProperty(row)
}

func (r *PropertyRepo) List() ([]domain.Property, error) {
	rows, err := r.db.Query("SELECT " + propertyCols + " FROM properties ORDER BY name")
	if err != nil {
		return nil, fmt.Errorf("query properties: %w", err)
	}
	defer rows.Close()

	var props []domain.Property
	for rows.Next() {
		p, err := scanPropertyRows(rows)
		if err != nil {
			return nil, fmt.Errorf("scan property: %w", err)
		}
		props = append(props, *p)
	}
	return props, rows.Err()
}

// PropertiesByID returns all properties keyed by id, for fee resolution and
// jurisdiction attribution passes.
func (r *PropertyRepo) PropertiesByID() (map[string]*domain.Property, error) {
	props, err := r.List()
	if err != nil {
		return nil, err
	}
	m := make(map[string]*domain.Property, len(props))
	for i := range props {
		m[props[i].ID] = &props[i]
	}
	return m, nil
}

// UpdateExternalFields refreshes the fields a booking provider owns. The fee
// override, owner link, and jurisdiction link are operator-managed and are
// deliberately not in the statement.
func (r *PropertyRepo) UpdateExternalFields(id string, ext *domain.ExternalProperty) error {
	_, err := r.db.Exec(
		`UPDATE properties SET name = ?, address_line = ?, city = ?, region = ?,
		 postal_code = ?, active = ? WHERE id = ?`,
		ext.Name, ext.AddressLine, ext.City, ext.Region, ext.PostalCode,
		boolToDB(ext.Active), id,
	)
	if err != nil {
		return fmt.Errorf("update property %s: %w", id, err)
	}
	return nil
}

// SetFeeOverride sets or clears the property-level management fee override.
func (r *PropertyRepo) SetFeeOverride(id string, override *decimal.Decimal) error {
	_, err := r.db.Exec(
		"UPDATE properties SET fee_percent_override = ? WHERE id = ?",
		nullDecToDB(override), id,
	)
	if err != nil {
		return fmt.Errorf("set fee override %s: %w", id, err)
	}
	return nil
}

func (r *PropertyRepo) Count() (int, error) {
	var count int
	err := r.db.QueryRow("SELECT COUNT(*) FROM properties").Scan(&count)
	return count, err
}

func scanProperty(row *sql.Row) (*domain.Property, error) {
	var p domain.Property
	var feeOverride, ownerID, jurisdictionID, listingID sql.NullString
	var active int

	err := row.Scan(&p.ID, &p.Name, &p.AddressLine, &p.City, &p.Region,
		&p.PostalCode, &feeOverride, &ownerID, &jurisdictionID, &listingID, &active)
	if err != nil {
		return nil, err
	}
	fillProperty(&p, feeOverride, ownerID, jurisdictionID, listingID, active)
	return &p, nil
}

func scanPropertyRows(rows *sql.Rows) (*domain.Property, error) {
	var p domain.Property
	var feeOverride, ownerID, jurisdictionID, listingID sql.NullString
	var active int

	err := rows.Scan(&p.ID, &p.Name, &p.AddressLine, &p.City, &p.Region,
		&p.PostalCode, &feeOverride, &ownerID, &jurisdictionID, &listingID, &active)
	if err != nil {
		return nil, err
	}
	fillProperty(&p, feeOverride, ownerID, jurisdictionID, listingID, active)
	return &p, nil
}

func fillProperty(p *domain.Property, feeOverride, ownerID, jurisdictionID, listingID sql.NullString, active int) {
	p.FeePercentOverride = nullDecFromDB(feeOverride)
	p.OwnerID = nullStrFromDB(ownerID)
	p.TaxJurisdictionID = nullStrFromDB(jurisdictionID)
	if listingID.Valid {
		p.ExternalListingID = listingID.String
	}
	p.Active = active == 1
}
