package toggl

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"time"

	"toggl-mirror/internal/domain"
)

// Client implements ports.TogglClient using the Toggl Track API v9.
type Client struct {
	baseURL  string
	apiToken string
	http     *http.Client
	log      *slog.Logger
}

func NewClient(baseURL, apiToken string, log *slog.Logger) *Client {
	if baseURL == "" {
		baseURL = "https://api.track.toggl.com"
	}
	return &Client{
		baseURL:  baseURL,
		apiToken: apiToken,
		http: &http.Client{
			Timeout: 30 * time.Second,
		},
		log: log,
	}
}

// do performs an authenticated request against the API and decodes the JSON
// response into out. Basic auth uses token:api_token per the Toggl docs.
func (c *Client) do(ctx context.Context, method, path string, query url.Values, body, out any) error {
	if c.apiToken == "" {
		return errors.New("missing api token")
	}
	u, err := url.Parse(c.baseURL)
	if err != nil {
		return err
	}
	u.Path = path
	if query != nil {
		u.RawQuery = query.Encode()
	}

	var reader io.Reader
	if body != nil {
		buf, err := json.Marshal(body)
		if err != nil {
			return err
		}
		reader = bytes.NewReader(buf)
	}
	req, err := http.NewRequestWithContext(ctx, method, u.String(), reader)
	if err != nil {
		return err
	}
	auth := base64.StdEncoding.EncodeToString([]byte(fmt.Sprintf("%s:%s", c.apiToken, "api_token")))
	req.Header.Set("Authorization", "Basic "+auth)
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		msg, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return fmt.Errorf("toggl: unexpected status %d: %s", resp.StatusCode, string(msg))
	}
	return json.NewDecoder(resp.Body).Decode(out)
}

// CurrentUser fetches the profile of the authenticated user.
// GET /api/v9/me
func (c *Client) CurrentUser(ctx context.Context) (domain.User, error) {
	var raw rawUser
	if err := c.do(ctx, http.MethodGet, "/api/v9/me", nil, nil, &raw); err != nil {
		return domain.User{}, err
	}
	return domain.User{
		ID:                     raw.ID,
		APIToken:               raw.APIToken,
		DefaultWorkspaceID:     raw.DefaultWorkspaceID,
		Email:                  raw.Email,
		Fullname:               raw.Fullname,
		BeginningOfWeek:        raw.BeginningOfWeek,
		Language:               raw.Language,
		ImageURL:               raw.ImageURL,
		At:                     raw.At,
		OpenIDEnabled:          raw.OpenIDEnabled,
		Timezone:               raw.Timezone,
		TimeofdayFormat:        raw.TimeofdayFormat,
		DateFormat:             raw.DateFormat,
		StoreStartAndStopTime:  true,
		SendProductEmails:      raw.SendProductEmails,
		SendWeeklyReport:       raw.SendWeeklyReport,
		SendTimerNotifications: raw.SendTimerNotifications,
	}, nil
}

// ListWorkspaces fetches workspaces accessible to the configured token.
// GET /api/v9/workspaces
func (c *Client) ListWorkspaces(ctx context.Context) ([]domain.Workspace, error) {
	var raw []rawWorkspace
	if err := c.do(ctx, http.MethodGet, "/api/v9/workspaces", nil, nil, &raw); err != nil {
		return nil, err
	}
	out := make([]domain.Workspace, 0, len(raw))
	for _, w := range raw {
		out = append(out, domain.Workspace{
			ID:                          w.ID,
			Name:                        w.Name,
			Premium:                     w.Premium,
			Admin:                       w.Admin,
			DefaultHourlyRate:           w.DefaultHourlyRate,
			DefaultCurrency:             w.DefaultCurrency,
			OnlyAdminsMayCreateProjects: w.OnlyAdminsMayCreateProjects,
			OnlyAdminsSeeBillableRates:  w.OnlyAdminsSeeBillableRates,
			Rounding:                    w.Rounding,
			RoundingMinutes:             w.RoundingMinutes,
			At:                          w.At,
			LogoURL:                     w.LogoURL,
			// UserID is assigned by the sync layer: the API does not expose
			// a workspace owner, the mirror records the syncing user.
		})
	}
	return out, nil
}

// ListClients fetches the clients of one workspace.
// GET /api/v9/workspaces/{wid}/clients
func (c *Client) ListClients(ctx context.Context, workspaceID int64) ([]domain.Client, error) {
	var raw []rawClient
	path := fmt.Sprintf("/api/v9/workspaces/%d/clients", workspaceID)
	if err := c.do(ctx, http.MethodGet, path, nil, nil, &raw); err != nil {
		return nil, err
	}
	out := make([]domain.Client, 0, len(raw))
	for _, cl := range raw {
		out = append(out, domain.Client{
			ID:          cl.ID,
			WorkspaceID: cl.WorkspaceID,
			Name:        cl.Name,
			At:          cl.At,
		})
	}
	return out, nil
}

// ListProjects fetches the projects of one workspace.
// GET /api/v9/workspaces/{wid}/projects
func (c *Client) ListProjects(ctx context.Context, workspaceID int64) ([]domain.Project, error) {
	var raw []rawProject
	path := fmt.Sprintf("/api/v9/workspaces/%d/projects", workspaceID)
	if err := c.do(ctx, http.MethodGet, path, nil, nil, &raw); err != nil {
		return nil, err
	}
	out := make([]domain.Project, 0, len(raw))
	for _, p := range raw {
		out = append(out, domain.Project{
			ID:             p.ID,
			Name:           p.Name,
			WorkspaceID:    p.WorkspaceID,
			ClientID:       p.ClientID,
			Active:         p.Active,
			Private:        p.Private,
			Template:       p.Template,
			TemplateID:     p.TemplateID,
			Billable:       p.Billable,
			AutoEstimates:  p.AutoEstimates,
			EstimatedHours: p.EstimatedHours,
			At:             p.At,
			Color:          p.Color,
			Rate:           p.Rate,
			CreatedAt:      p.CreatedAt,
		})
	}
	return out, nil
}

// ListTags fetches the tags of one workspace.
// GET /api/v9/workspaces/{wid}/tags
func (c *Client) ListTags(ctx context.Context, workspaceID int64) ([]domain.Tag, error) {
	var raw []rawTag
	path := fmt.Sprintf("/api/v9/workspaces/%d/tags", workspaceID)
	if err := c.do(ctx, http.MethodGet, path, nil, nil, &raw); err != nil {
		return nil, err
	}
	out := make([]domain.Tag, 0, len(raw))
	for _, t := range raw {
		out = append(out, domain.Tag{
			ID:          t.ID,
			Name:        t.Name,
			WorkspaceID: t.WorkspaceID,
		})
	}
	return out, nil
}

// ListTimeEntries fetches entries in [from, to].
// GET /api/v9/me/time_entries?start_date=...&end_date=...
func (c *Client) ListTimeEntries(ctx context.Context, from, to time.Time) ([]domain.TimeEntry, error) {
	q := url.Values{}
	q.Set("start_date", from.Format(time.RFC3339))
	q.Set("end_date", to.Format(time.RFC3339))
	var raw []rawTimeEntry
	if err := c.do(ctx, http.MethodGet, "/api/v9/me/time_entries", q, nil, &raw); err != nil {
		return nil, err
	}
	out := make([]domain.TimeEntry, 0, len(raw))
	for _, r := range raw {
		out = append(out, r.toDomain())
	}
	return out, nil
}

// CreateTimeEntry creates an entry in the given workspace and returns the
// stored representation.
// POST /api/v9/workspaces/{wid}/time_entries
func (c *Client) CreateTimeEntry(ctx context.Context, workspaceID int64, entry domain.TimeEntry) (domain.TimeEntry, error) {
	createdWith := "toggl-mirror"
	if entry.CreatedWith != nil {
		createdWith = *entry.CreatedWith
	}
	body := rawTimeEntryRequest{
		CreatedWith: createdWith,
		Description: entry.Description,
		WorkspaceID: workspaceID,
		ProjectID:   entry.ProjectID,
		Billable:    entry.Billable,
		Start:       entry.Start.UTC().Format(time.RFC3339),
		Duration:    entry.DurationSec,
		Tags:        entry.Tags,
	}
	if entry.Stop != nil {
		stop := entry.Stop.UTC().Format(time.RFC3339)
		body.Stop = &stop
	}
	var raw rawTimeEntry
	path := fmt.Sprintf("/api/v9/workspaces/%d/time_entries", workspaceID)
	if err := c.do(ctx, http.MethodPost, path, nil, body, &raw); err != nil {
		return domain.TimeEntry{}, err
	}
	c.log.Debug("created time entry", slog.Int64("id", raw.ID))
	return raw.toDomain(), nil
}

// Wire structs mirror the JSON from Toggl v9.

type rawUser struct {
	ID                     int64     `json:"id"`
	APIToken               string    `json:"api_token"`
	DefaultWorkspaceID     int64     `json:"default_workspace_id"`
	Email                  string    `json:"email"`
	Fullname               string    `json:"fullname"`
	BeginningOfWeek        int64     `json:"beginning_of_week"`
	Language               string    `json:"language"`
	ImageURL               string    `json:"image_url"`
	At                     time.Time `json:"at"`
	OpenIDEnabled          bool      `json:"openid_enabled"`
	Timezone               string    `json:"timezone"`
	TimeofdayFormat        string    `json:"timeofday_format"`
	DateFormat             string    `json:"date_format"`
	SendProductEmails      bool      `json:"send_product_emails"`
	SendWeeklyReport       bool      `json:"send_weekly_report"`
	SendTimerNotifications bool      `json:"send_timer_notifications"`
}

type rawWorkspace struct {
	ID                          int64     `json:"id"`
	Name                        string    `json:"name"`
	Premium                     bool      `json:"premium"`
	Admin                       bool      `json:"admin"`
	DefaultHourlyRate           float64   `json:"default_hourly_rate"`
	DefaultCurrency             string    `json:"default_currency"`
	OnlyAdminsMayCreateProjects bool      `json:"only_admins_may_create_projects"`
	OnlyAdminsSeeBillableRates  bool      `json:"only_admins_see_billable_rates"`
	Rounding                    int64     `json:"rounding"`
	RoundingMinutes             int64     `json:"rounding_minutes"`
	At                          time.Time `json:"at"`
	LogoURL                     *string   `json:"logo_url"`
}

type rawClient struct {
	ID          int64     `json:"id"`
	WorkspaceID int64     `json:"wid"`
	Name        string    `json:"name"`
	At          time.Time `json:"at"`
}

type rawTag struct {
	ID          int64  `json:"id"`
	Name        string `json:"name"`
	WorkspaceID int64  `json:"workspace_id"`
}

type rawProject struct {
	ID             int64     `json:"id"`
	WorkspaceID    int64     `json:"workspace_id"`
	Name           string    `json:"name"`
	Active         bool      `json:"active"`
	Private        bool      `json:"is_private"`
	Template       *bool     `json:"template"`
	TemplateID     *int64    `json:"template_id"`
	Billable       *bool     `json:"billable"`
	AutoEstimates  *bool     `json:"auto_estimates"`
	EstimatedHours *int64    `json:"estimated_hours"`
	Color          string    `json:"color"`
	ClientID       *int64    `json:"client_id"`
	Rate           *float64  `json:"rate"`
	At             time.Time `json:"at"`
	CreatedAt      time.Time `json:"created_at"`
}

type rawTimeEntry struct {
	ID          int64      `json:"id"`
	Description string     `json:"description"`
	ProjectID   *int64     `json:"project_id"`
	WorkspaceID *int64     `json:"workspace_id"`
	Billable    *bool      `json:"billable"`
	Tags        []string   `json:"tags"`
	Start       time.Time  `json:"start"`
	Stop        *time.Time `json:"stop"`
	Duration    int64      `json:"duration"`
	Duronly     *bool      `json:"duronly"`
	At          *time.Time `json:"at"`
}

func (r rawTimeEntry) toDomain() domain.TimeEntry {
	return domain.TimeEntry{
		ID:          r.ID,
		Description: r.Description,
		ProjectID:   r.ProjectID,
		WorkspaceID: r.WorkspaceID,
		Billable:    r.Billable,
		Tags:        r.Tags,
		Start:       r.Start,
		Stop:        r.Stop,
		DurationSec: r.Duration,
		Duronly:     r.Duronly,
		At:          r.At,
	}
}

type rawTimeEntryRequest struct {
	CreatedWith string   `json:"created_with"`
	Description string   `json:"description,omitempty"`
	WorkspaceID int64    `json:"workspace_id"`
	ProjectID   *int64   `json:"project_id,omitempty"`
	Billable    *bool    `json:"billable,omitempty"`
	Start       string   `json:"start"`
	Stop        *string  `json:"stop,omitempty"`
	Duration    int64    `json:"duration"`
	Tags        []string `json:"tags,omitempty"`
}
