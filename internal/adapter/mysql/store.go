package mysql

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/go-sql-driver/mysql"

	"toggl-mirror/internal/domain"
)

// MySQL server error codes we translate into domain errors.
const (
	errDupEntry     = 1062
	errNoReferenced = 1452
)

// Store implements ports.Store on top of the mirrored relational schema.
type Store struct {
	db  *sql.DB
	log *slog.Logger
}

// NewStore opens a MySQL connection using the provided DSN.
// Example DSN: user:pass@tcp(host:3306)/dbname?parseTime=true&multiStatements=true
func NewStore(ctx context.Context, dsn string, log *slog.Logger) (*Store, error) {
	if dsn == "" {
		return nil, errors.New("mysql: DSN is required")
	}
	db, err := sql.Open("mysql", dsn)
	if err != nil {
		return nil, err
	}
	// Conservative pool defaults; can be adjusted via env later.
	db.SetMaxOpenConns(10)
	db.SetMaxIdleConns(5)
	db.SetConnMaxLifetime(30 * time.Minute)

	c, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := db.PingContext(c); err != nil {
		db.Close()
		return nil, err
	}
	return &Store{db: db, log: log}, nil
}

// Close closes the underlying DB. Not part of ports.Store to keep it minimal.
func (s *Store) Close() error { return s.db.Close() }

// translateErr maps driver constraint violations onto domain sentinels so
// callers can errors.Is against them.
func translateErr(err error) error {
	if err == nil {
		return nil
	}
	var me *mysql.MySQLError
	if errors.As(err, &me) {
		switch me.Number {
		case errDupEntry:
			return fmt.Errorf("%w: %s", domain.ErrDuplicate, me.Message)
		case errNoReferenced:
			return fmt.Errorf("%w: %s", domain.ErrMissingReference, me.Message)
		}
	}
	return err
}

// upsertBatch runs one prepared statement per row inside a transaction.
func (s *Store) upsertBatch(ctx context.Context, query string, n int, args func(i int) []any) error {
	if n == 0 {
		return nil
	}
	tx, err := s.db.BeginTx(ctx, &sql.TxOptions{})
	if err != nil {
		return err
	}
	stmt, err := tx.PrepareContext(ctx, query)
	if err != nil {
		tx.Rollback()
		return err
	}
	defer stmt.Close()

	for i := 0; i < n; i++ {
		if _, err := stmt.ExecContext(ctx, args(i)...); err != nil {
			tx.Rollback()
			return translateErr(err)
		}
	}
	return tx.Commit()
}

// UpsertUsers upserts user rows keyed by upstream id.
func (s *Store) UpsertUsers(ctx context.Context, users []domain.User) error {
	for i := range users {
		if err := domain.Validate(&users[i]); err != nil {
			return err
		}
	}
	const q = `
INSERT INTO users
  (id, api_token, default_wid_id, email, fullname,
   jquery_timeofday_format, jquery_date_format, timeofday_format, date_format,
   store_start_and_stop_time, beginning_of_week, ` + "`language`" + `, image_url,
   sidebar_piechart, ` + "`at`" + `, send_product_emails, send_weekly_report,
   send_timer_notifications, openid_enabled, timezone)
VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
ON DUPLICATE KEY UPDATE
  api_token=VALUES(api_token),
  default_wid_id=VALUES(default_wid_id),
  email=VALUES(email),
  fullname=VALUES(fullname),
  jquery_timeofday_format=VALUES(jquery_timeofday_format),
  jquery_date_format=VALUES(jquery_date_format),
  timeofday_format=VALUES(timeofday_format),
  date_format=VALUES(date_format),
  store_start_and_stop_time=VALUES(store_start_and_stop_time),
  beginning_of_week=VALUES(beginning_of_week),
  ` + "`language`" + `=VALUES(` + "`language`" + `),
  image_url=VALUES(image_url),
  sidebar_piechart=VALUES(sidebar_piechart),
  ` + "`at`" + `=VALUES(` + "`at`" + `),
  send_product_emails=VALUES(send_product_emails),
  send_weekly_report=VALUES(send_weekly_report),
  send_timer_notifications=VALUES(send_timer_notifications),
  openid_enabled=VALUES(openid_enabled),
  timezone=VALUES(timezone);`
	err := s.upsertBatch(ctx, q, len(users), func(i int) []any {
		u := users[i]
		return []any{
			u.ID, u.APIToken, u.DefaultWorkspaceID, u.Email, u.Fullname,
			u.JqueryTimeofdayFormat, u.JqueryDateFormat, u.TimeofdayFormat, u.DateFormat,
			u.StoreStartAndStopTime, u.BeginningOfWeek, u.Language, u.ImageURL,
			u.SidebarPiechart, u.At.UTC(), u.SendProductEmails, u.SendWeeklyReport,
			u.SendTimerNotifications, u.OpenIDEnabled, u.Timezone,
		}
	})
	if err != nil {
		return err
	}
	s.log.Info("store upserted users", slog.Int("count", len(users)))
	return nil
}

// UpsertWorkspaces upserts workspace rows keyed by upstream id.
func (s *Store) UpsertWorkspaces(ctx context.Context, workspaces []domain.Workspace) error {
	for i := range workspaces {
		if err := domain.Validate(&workspaces[i]); err != nil {
			return err
		}
	}
	const q = `
INSERT INTO workspaces
  (id, name, premium, admin, default_hourly_rate, default_currency,
   only_admins_may_create_projects, only_admins_see_billable_rates,
   rounding, rounding_minutes, ` + "`at`" + `, logo_url, user_id)
VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
ON DUPLICATE KEY UPDATE
  name=VALUES(name),
  premium=VALUES(premium),
  admin=VALUES(admin),
  default_hourly_rate=VALUES(default_hourly_rate),
  default_currency=VALUES(default_currency),
  only_admins_may_create_projects=VALUES(only_admins_may_create_projects),
  only_admins_see_billable_rates=VALUES(only_admins_see_billable_rates),
  rounding=VALUES(rounding),
  rounding_minutes=VALUES(rounding_minutes),
  ` + "`at`" + `=VALUES(` + "`at`" + `),
  logo_url=VALUES(logo_url),
  user_id=VALUES(user_id);`
	err := s.upsertBatch(ctx, q, len(workspaces), func(i int) []any {
		w := workspaces[i]
		return []any{
			w.ID, w.Name, w.Premium, w.Admin, w.DefaultHourlyRate, w.DefaultCurrency,
			w.OnlyAdminsMayCreateProjects, w.OnlyAdminsSeeBillableRates,
			w.Rounding, w.RoundingMinutes, w.At.UTC(), nullStr(w.LogoURL), w.UserID,
		}
	})
	if err != nil {
		return err
	}
	s.log.Info("store upserted workspaces", slog.Int("count", len(workspaces)))
	return nil
}

// UpsertClients upserts client rows keyed by upstream id.
func (s *Store) UpsertClients(ctx context.Context, clients []domain.Client) error {
	for i := range clients {
		if err := domain.Validate(&clients[i]); err != nil {
			return err
		}
	}
	const q = `
INSERT INTO clients (id, wid, name, ` + "`at`" + `, user_id)
VALUES (?, ?, ?, ?, ?)
ON DUPLICATE KEY UPDATE
  wid=VALUES(wid),
  name=VALUES(name),
  ` + "`at`" + `=VALUES(` + "`at`" + `),
  user_id=VALUES(user_id);`
	err := s.upsertBatch(ctx, q, len(clients), func(i int) []any {
		c := clients[i]
		return []any{c.ID, c.WorkspaceID, c.Name, c.At.UTC(), c.UserID}
	})
	if err != nil {
		return err
	}
	s.log.Info("store upserted clients", slog.Int("count", len(clients)))
	return nil
}

// UpsertProjects upserts project rows keyed by upstream id.
func (s *Store) UpsertProjects(ctx context.Context, projects []domain.Project) error {
	for i := range projects {
		if err := domain.Validate(&projects[i]); err != nil {
			return err
		}
	}
	const q = `
INSERT INTO projects
  (id, name, wid, cid, active, is_private, template, template_id,
   billable, auto_estimates, estimated_hours, ` + "`at`" + `, color, rate, created_at)
VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
ON DUPLICATE KEY UPDATE
  name=VALUES(name),
  wid=VALUES(wid),
  cid=VALUES(cid),
  active=VALUES(active),
  is_private=VALUES(is_private),
  template=VALUES(template),
  template_id=VALUES(template_id),
  billable=VALUES(billable),
  auto_estimates=VALUES(auto_estimates),
  estimated_hours=VALUES(estimated_hours),
  ` + "`at`" + `=VALUES(` + "`at`" + `),
  color=VALUES(color),
  rate=VALUES(rate),
  created_at=VALUES(created_at);`
	err := s.upsertBatch(ctx, q, len(projects), func(i int) []any {
		p := projects[i]
		return []any{
			p.ID, p.Name, p.WorkspaceID, nullI64(p.ClientID), p.Active, p.Private,
			nullBool(p.Template), nullI64(p.TemplateID), nullBool(p.Billable),
			nullBool(p.AutoEstimates), nullI64(p.EstimatedHours), p.At.UTC(),
			p.Color, nullF64(p.Rate), p.CreatedAt.UTC(),
		}
	})
	if err != nil {
		return err
	}
	s.log.Info("store upserted projects", slog.Int("count", len(projects)))
	return nil
}

// UpsertTags upserts tag rows keyed by upstream id. Tags carry two unique
// keys (id and (wid, name)), so a blind ON DUPLICATE KEY UPDATE would absorb
// a name collision between different ids. Insert first, then classify: an id
// hit is an update, a (wid, name) hit on a foreign id is domain.ErrDuplicate.
func (s *Store) UpsertTags(ctx context.Context, tags []domain.Tag) error {
	for i := range tags {
		if err := domain.Validate(&tags[i]); err != nil {
			return err
		}
	}
	if len(tags) == 0 {
		return nil
	}
	tx, err := s.db.BeginTx(ctx, &sql.TxOptions{})
	if err != nil {
		return err
	}
	defer tx.Rollback()

	for _, t := range tags {
		_, err := tx.ExecContext(ctx,
			"INSERT INTO tags (id, name, wid, user_id) VALUES (?, ?, ?, ?)",
			t.ID, t.Name, t.WorkspaceID, t.UserID)
		if err == nil {
			continue
		}
		if !errors.Is(translateErr(err), domain.ErrDuplicate) {
			return translateErr(err)
		}
		var exists bool
		if err := tx.QueryRowContext(ctx,
			"SELECT EXISTS(SELECT 1 FROM tags WHERE id = ?)", t.ID).Scan(&exists); err != nil {
			return err
		}
		if !exists {
			return fmt.Errorf("%w: tag %q already exists in workspace %d",
				domain.ErrDuplicate, t.Name, t.WorkspaceID)
		}
		if _, err := tx.ExecContext(ctx,
			"UPDATE tags SET name = ?, wid = ?, user_id = ? WHERE id = ?",
			t.Name, t.WorkspaceID, t.UserID, t.ID); err != nil {
			return translateErr(err)
		}
	}
	if err := tx.Commit(); err != nil {
		return err
	}
	s.log.Info("store upserted tags", slog.Int("count", len(tags)))
	return nil
}

// UpsertTimeEntries upserts entry rows keyed by upstream id. Tag names on the
// entries are not written here; see ReplaceEntryTags.
func (s *Store) UpsertTimeEntries(ctx context.Context, entries []domain.TimeEntry) error {
	for i := range entries {
		if err := domain.Validate(&entries[i]); err != nil {
			return err
		}
	}
	const q = `
INSERT INTO time_entrys
  (id, description, wid, pid, billable, ` + "`start`" + `, ` + "`stop`" + `,
   duration, created_with, duronly, ` + "`at`" + `)
VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
ON DUPLICATE KEY UPDATE
  description=VALUES(description),
  wid=VALUES(wid),
  pid=VALUES(pid),
  billable=VALUES(billable),
  ` + "`start`" + `=VALUES(` + "`start`" + `),
  ` + "`stop`" + `=VALUES(` + "`stop`" + `),
  duration=VALUES(duration),
  created_with=VALUES(created_with),
  duronly=VALUES(duronly),
  ` + "`at`" + `=VALUES(` + "`at`" + `);`
	err := s.upsertBatch(ctx, q, len(entries), func(i int) []any {
		e := entries[i]
		return []any{
			e.ID, e.Description, nullI64(e.WorkspaceID), nullI64(e.ProjectID),
			nullBool(e.Billable), e.Start.UTC(), nullTime(e.Stop),
			e.DurationSec, nullStr(e.CreatedWith), nullBool(e.Duronly), nullTime(e.At),
		}
	})
	if err != nil {
		return err
	}
	s.log.Info("store upserted time entries", slog.Int("count", len(entries)))
	return nil
}

// ReplaceEntryTags rewrites an entry's join rows to exactly the named tags.
// Missing tags are created in the workspace under userID; the (wid, name)
// uniqueness constraint makes the ensure step idempotent.
func (s *Store) ReplaceEntryTags(ctx context.Context, entryID, workspaceID, userID int64, names []string) error {
	tx, err := s.db.BeginTx(ctx, &sql.TxOptions{})
	if err != nil {
		return err
	}
	defer tx.Rollback()

	tagIDs := make([]int64, 0, len(names))
	for _, name := range names {
		if name == "" {
			continue
		}
		if _, err := tx.ExecContext(ctx,
			"INSERT INTO tags (name, wid, user_id) VALUES (?, ?, ?) ON DUPLICATE KEY UPDATE user_id=user_id",
			name, workspaceID, userID,
		); err != nil {
			return translateErr(err)
		}
		var id int64
		if err := tx.QueryRowContext(ctx,
			"SELECT id FROM tags WHERE wid = ? AND name = ?", workspaceID, name,
		).Scan(&id); err != nil {
			return err
		}
		tagIDs = append(tagIDs, id)
	}

	if _, err := tx.ExecContext(ctx,
		"DELETE FROM time_entry_tag_join WHERE time_entry_id = ?", entryID,
	); err != nil {
		return err
	}
	for _, tagID := range tagIDs {
		if _, err := tx.ExecContext(ctx,
			"INSERT INTO time_entry_tag_join (time_entry_id, tag_id) VALUES (?, ?)",
			entryID, tagID,
		); err != nil {
			return translateErr(err)
		}
	}
	return tx.Commit()
}

// TagByName looks up a tag by its (workspace, name) pair.
func (s *Store) TagByName(ctx context.Context, workspaceID int64, name string) (domain.Tag, error) {
	var t domain.Tag
	err := s.db.QueryRowContext(ctx,
		"SELECT id, name, wid, user_id FROM tags WHERE wid = ? AND name = ?",
		workspaceID, name,
	).Scan(&t.ID, &t.Name, &t.WorkspaceID, &t.UserID)
	if errors.Is(err, sql.ErrNoRows) {
		return domain.Tag{}, fmt.Errorf("tag %q in workspace %d: %w", name, workspaceID, domain.ErrNotFound)
	}
	if err != nil {
		return domain.Tag{}, err
	}
	return t, nil
}

// EntryTagIDs returns the tag ids associated with a time entry, ordered.
func (s *Store) EntryTagIDs(ctx context.Context, entryID int64) ([]int64, error) {
	rows, err := s.db.QueryContext(ctx,
		"SELECT tag_id FROM time_entry_tag_join WHERE time_entry_id = ? ORDER BY tag_id", entryID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var ids []int64
	for rows.Next() {
		var id int64
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}

// CountTimeEntries reports the number of stored entries.
func (s *Store) CountTimeEntries(ctx context.Context) (int64, error) {
	var n int64
	err := s.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM time_entrys").Scan(&n)
	return n, err
}

func nullStr(v *string) any {
	if v == nil {
		return nil
	}
	return *v
}

func nullI64(v *int64) any {
	if v == nil {
		return nil
	}
	return *v
}

func nullF64(v *float64) any {
	if v == nil {
		return nil
	}
	return *v
}

func nullBool(v *bool) any {
	if v == nil {
		return nil
	}
	return *v
}

func nullTime(t *time.Time) any {
	if t == nil {
		return nil
	}
	return t.UTC()
}
