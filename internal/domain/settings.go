package domain

import "github.com/shopspring/decimal"

// AppSettings is the process-wide configuration row. It is created lazily
// with defaults on first access and passed into the engines as plain values
// after startup.
type AppSettings struct {
	DefaultFeePercent      decimal.Decimal `json:"default_fee_percent"`
	VarianceAlertThreshold decimal.Decimal `json:"variance_alert_threshold"`
	ReminderIntervalDays   int             `json:"reminder_interval_days"`
}

func DefaultSettings() AppSettings {
	return AppSettings{
		DefaultFeePercent:      DefaultManagementFeePercent,
		VarianceAlertThreshold: decimal.NewFromInt(100),
		ReminderIntervalDays:   7,
	}
}
