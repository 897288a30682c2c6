package domain

import "time"

// Workspace is the top-level tenant grouping. Billing defaults and rounding
// settings are stored as-is; no billing arithmetic happens in this system.
type Workspace struct {
	ID                          int64
	Name                        string `validate:"required"`
	Premium                     bool
	Admin                       bool
	DefaultHourlyRate           float64
	DefaultCurrency             string
	OnlyAdminsMayCreateProjects bool
	OnlyAdminsSeeBillableRates  bool
	Rounding                    int64
	RoundingMinutes             int64 `validate:"gte=0"`
	At                          time.Time
	LogoURL                     *string
	UserID                      int64 `validate:"required"`
}
