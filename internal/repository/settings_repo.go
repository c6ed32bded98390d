package repository

import (
	"database/sql"
	"errors"
	"fmt"

	"github.com/lodgeledger/trustbooks/internal/domain"
)

type SettingsRepo struct {
	db DBTX
}

func NewSettingsRepo(db DBTX) *SettingsRepo {
	return &SettingsRepo{db: db}
}

// GetOrCreate returns the singleton settings row, inserting defaults on
// first access. Callers resolve this once at startup and pass the values
// into the engines explicitly.
func (r *SettingsRepo) GetOrCreate() (domain.AppSettings, error) {
	s, err := r.get()
	if err == nil {
		return s, nil
	}
	if !errors.Is(err, sql.ErrNoRows) {
		return domain.AppSettings{}, err
	}

	s = domain.DefaultSettings()
	if _, err := r.db.Exec(
		`INSERT INTO app_settings (id, default_fee_percent, variance_alert_threshold, reminder_interval_days)
		VALUES (1,?,?,?)`,
		decToDB(s.DefaultFeePercent), decToDB(s.VarianceAlertThreshold), s.ReminderIntervalDays,
	); err != nil {
		return domain.AppSettings{}, fmt.Errorf("insert default settings: %w", err)
	}
	return s, nil
}

func (r *SettingsRepo) Update(s domain.AppSettings) error {
	if s.DefaultFeePercent.IsNegative() {
		return &domain.ValidationError{Entity: "app_settings", Field: "default_fee_percent", Msg: "must not be negative"}
	}
	if s.VarianceAlertThreshold.IsNegative() {
		return &domain.ValidationError{Entity: "app_settings", Field: "variance_alert_threshold", Msg: "must not be negative"}
	}
	_, err := r.db.Exec(
		`UPDATE app_settings SET default_fee_percent = ?, variance_alert_threshold = ?,
		 reminder_interval_days = ? WHERE id = 1`,
		decToDB(s.DefaultFeePercent), decToDB(s.VarianceAlertThreshold), s.ReminderIntervalDays,
	)
	if err != nil {
		return fmt.Errorf("update settings: %w", err)
	}
	return nil
}

func (r *SettingsRepo) get() (domain.AppSettings, error) {
	var s domain.AppSettings
	var fee, threshold string
	err := r.db.QueryRow(
		"SELECT default_fee_percent, variance_alert_threshold, reminder_interval_days FROM app_settings WHERE id = 1",
	).Scan(&fee, &threshold, &s.ReminderIntervalDays)
	if err != nil {
		return domain.AppSettings{}, err
	}
	s.DefaultFeePercent = decFromDB(fee)
	s.VarianceAlertThreshold = decFromDB(threshold)
	return s, nil
}
