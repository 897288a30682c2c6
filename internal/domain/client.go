package domain

import "time"

// Client is a customer record scoped to a workspace.
type Client struct {
	ID          int64
	WorkspaceID int64  `validate:"required"`
	Name        string `validate:"required"`
	At          time.Time
	UserID      int64 `validate:"required"`
}
