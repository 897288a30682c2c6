package ports

import (
	"context"
	"time"

	"toggl-mirror/internal/domain"
)

// TogglClient defines the slice of the Toggl Track API this system reads from.
// CreateTimeEntry is the one write the upstream library exposes.
type TogglClient interface {
	CurrentUser(ctx context.Context) (domain.User, error)
	ListWorkspaces(ctx context.Context) ([]domain.Workspace, error)
	ListClients(ctx context.Context, workspaceID int64) ([]domain.Client, error)
	ListProjects(ctx context.Context, workspaceID int64) ([]domain.Project, error)
	ListTags(ctx context.Context, workspaceID int64) ([]domain.Tag, error)
	ListTimeEntries(ctx context.Context, from, to time.Time) ([]domain.TimeEntry, error)
	CreateTimeEntry(ctx context.Context, workspaceID int64, entry domain.TimeEntry) (domain.TimeEntry, error)
}

// Store persists mirrored entities into the local schema. Upserts are
// batch-transactional; re-running them with the same rows is a no-op.
type Store interface {
	UpsertUsers(ctx context.Context, users []domain.User) error
	UpsertWorkspaces(ctx context.Context, workspaces []domain.Workspace) error
	UpsertClients(ctx context.Context, clients []domain.Client) error
	UpsertProjects(ctx context.Context, projects []domain.Project) error
	UpsertTags(ctx context.Context, tags []domain.Tag) error
	UpsertTimeEntries(ctx context.Context, entries []domain.TimeEntry) error

	// ReplaceEntryTags rewrites the tag associations of a time entry to
	// exactly the named tags, creating missing tags in the workspace on
	// behalf of userID.
	ReplaceEntryTags(ctx context.Context, entryID, workspaceID, userID int64, names []string) error

	TagByName(ctx context.Context, workspaceID int64, name string) (domain.Tag, error)
	EntryTagIDs(ctx context.Context, entryID int64) ([]int64, error)
	CountTimeEntries(ctx context.Context) (int64, error)
}
