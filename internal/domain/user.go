package domain

import "time"

// User represents a Toggl account in the domain layer. The preference fields
// mirror the upstream profile verbatim; we store them, we do not interpret them.
type User struct {
	ID                     int64
	APIToken               string
	DefaultWorkspaceID     int64
	Email                  string `validate:"required,email"`
	Fullname               string `validate:"required"`
	JqueryTimeofdayFormat  string
	JqueryDateFormat       string
	TimeofdayFormat        string
	DateFormat             string
	StoreStartAndStopTime  bool
	BeginningOfWeek        int64 `validate:"gte=0,lte=6"`
	Language               string
	ImageURL               string
	SidebarPiechart        bool
	At                     time.Time
	SendProductEmails      bool
	SendWeeklyReport       bool
	SendTimerNotifications bool
	OpenIDEnabled          bool
	Timezone               string
}
