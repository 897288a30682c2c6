package domain

import "time"

// TimeEntry represents a Toggl time entry in the domain. Tags carries tag
// names from the API; the store materializes them into the join table.
type TimeEntry struct {
	ID          int64
	Description string
	WorkspaceID *int64
	ProjectID   *int64
	Billable    *bool
	Start       time.Time `validate:"required"`
	Stop        *time.Time
	DurationSec int64 // Negative means running in Toggl API semantics
	CreatedWith *string
	Duronly     *bool
	At          *time.Time
	Tags        []string
}
