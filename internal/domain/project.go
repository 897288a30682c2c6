package domain

import "time"

// Project represents a Toggl project in the domain layer.
type Project struct {
	ID             int64
	Name           string `validate:"required"`
	WorkspaceID    int64  `validate:"required"`
	ClientID       *int64
	Active         bool
	Private        bool
	Template       *bool
	TemplateID     *int64
	Billable       *bool
	AutoEstimates  *bool
	EstimatedHours *int64
	At             time.Time // Last update timestamp from Toggl
	Color          string
	Rate           *float64
	CreatedAt      time.Time
}
