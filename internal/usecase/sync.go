package usecase

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"toggl-mirror/internal/domain"
	"toggl-mirror/internal/ports"
)

// SyncUseCase mirrors a Toggl account into the local store: account profile,
// workspaces, per-workspace clients/projects/tags, and the time entries of the
// requested window, in foreign-key-safe order.
type SyncUseCase struct {
	Log   *slog.Logger
	Toggl ports.TogglClient
	Store ports.Store
}

func (uc *SyncUseCase) Run(ctx context.Context, from, to time.Time) error {
	if uc.Toggl == nil || uc.Store == nil {
		return errors.New("usecase not initialized: missing dependencies")
	}
	uc.Log.Info("mirroring account", slog.Time("from", from), slog.Time("to", to))

	user, err := uc.Toggl.CurrentUser(ctx)
	if err != nil {
		return fmt.Errorf("fetch current user: %w", err)
	}
	if err := uc.Store.UpsertUsers(ctx, []domain.User{user}); err != nil {
		return fmt.Errorf("store user: %w", err)
	}

	workspaces, err := uc.Toggl.ListWorkspaces(ctx)
	if err != nil {
		return fmt.Errorf("fetch workspaces: %w", err)
	}
	knownWS := make(map[int64]bool, len(workspaces))
	for i := range workspaces {
		// The API does not expose an owner; the mirror attributes each
		// workspace to the syncing user.
		workspaces[i].UserID = user.ID
		knownWS[workspaces[i].ID] = true
	}
	if err := uc.Store.UpsertWorkspaces(ctx, workspaces); err != nil {
		return fmt.Errorf("store workspaces: %w", err)
	}

	knownProjects := make(map[int64]bool)
	for _, ws := range workspaces {
		clients, err := uc.Toggl.ListClients(ctx, ws.ID)
		if err != nil {
			return fmt.Errorf("fetch clients for workspace %d: %w", ws.ID, err)
		}
		for i := range clients {
			clients[i].UserID = user.ID
		}
		if err := uc.Store.UpsertClients(ctx, clients); err != nil {
			return fmt.Errorf("store clients: %w", err)
		}

		projects, err := uc.Toggl.ListProjects(ctx, ws.ID)
		if err != nil {
			return fmt.Errorf("fetch projects for workspace %d: %w", ws.ID, err)
		}
		for _, p := range projects {
			knownProjects[p.ID] = true
		}
		if err := uc.Store.UpsertProjects(ctx, projects); err != nil {
			return fmt.Errorf("store projects: %w", err)
		}

		tags, err := uc.Toggl.ListTags(ctx, ws.ID)
		if err != nil {
			return fmt.Errorf("fetch tags for workspace %d: %w", ws.ID, err)
		}
		for i := range tags {
			tags[i].UserID = user.ID
		}
		if err := uc.Store.UpsertTags(ctx, tags); err != nil {
			return fmt.Errorf("store tags: %w", err)
		}
	}

	entries, err := uc.Toggl.ListTimeEntries(ctx, from, to)
	if err != nil {
		return fmt.Errorf("fetch time entries: %w", err)
	}
	for i := range entries {
		// An entry referencing a workspace or project this token cannot see
		// keeps a NULL reference instead of failing the whole run on the FK.
		if wid := entries[i].WorkspaceID; wid != nil && !knownWS[*wid] {
			uc.Log.Warn("entry references unknown workspace, storing NULL",
				slog.Int64("entry", entries[i].ID), slog.Int64("wid", *wid))
			entries[i].WorkspaceID = nil
		}
		if pid := entries[i].ProjectID; pid != nil && !knownProjects[*pid] {
			uc.Log.Warn("entry references unknown project, storing NULL",
				slog.Int64("entry", entries[i].ID), slog.Int64("pid", *pid))
			entries[i].ProjectID = nil
		}
	}
	if err := uc.Store.UpsertTimeEntries(ctx, entries); err != nil {
		return fmt.Errorf("store time entries: %w", err)
	}

	tagged := 0
	for _, e := range entries {
		if len(e.Tags) == 0 {
			continue
		}
		wid := user.DefaultWorkspaceID
		if e.WorkspaceID != nil {
			wid = *e.WorkspaceID
		}
		if err := uc.Store.ReplaceEntryTags(ctx, e.ID, wid, user.ID, e.Tags); err != nil {
			return fmt.Errorf("store tags for entry %d: %w", e.ID, err)
		}
		tagged++
	}

	uc.Log.Info("mirror completed",
		slog.Int("workspaces", len(workspaces)),
		slog.Int("entries", len(entries)),
		slog.Int("tagged_entries", tagged),
	)
	return nil
}
