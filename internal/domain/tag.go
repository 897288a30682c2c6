package domain

// Tag is a user- and workspace-scoped label. Names are unique within a
// workspace; the store enforces that.
type Tag struct {
	ID          int64
	Name        string `validate:"required"`
	WorkspaceID int64  `validate:"required"`
	UserID      int64  `validate:"required"`
}
