package toggl

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"toggl-mirror/internal/domain"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// newTestServer serves canned JSON per path and records the last request.
func newTestServer(t *testing.T, routes map[string]string) (*httptest.Server, *http.Request) {
	t.Helper()
	var last http.Request
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		last = *r
		body, ok := routes[r.URL.Path]
		if !ok {
			http.NotFound(w, r)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(body))
	}))
	t.Cleanup(srv.Close)
	return srv, &last
}

func TestCurrentUser(t *testing.T) {
	srv, last := newTestServer(t, map[string]string{
		"/api/v9/me": `{
			"id": 9000,
			"api_token": "abcdef",
			"default_workspace_id": 777,
			"email": "jane@example.com",
			"fullname": "Jane Doe",
			"beginning_of_week": 1,
			"timezone": "Europe/Berlin",
			"at": "2025-08-01T10:00:00Z"
		}`,
	})
	c := NewClient(srv.URL, "token123", testLogger())

	u, err := c.CurrentUser(context.Background())
	require.NoError(t, err)
	assert.Equal(t, int64(9000), u.ID)
	assert.Equal(t, "abcdef", u.APIToken)
	assert.Equal(t, int64(777), u.DefaultWorkspaceID)
	assert.Equal(t, "jane@example.com", u.Email)
	assert.Equal(t, "Europe/Berlin", u.Timezone)

	user, pass, ok := last.BasicAuth()
	require.True(t, ok)
	assert.Equal(t, "token123", user)
	assert.Equal(t, "api_token", pass)
}

func TestListWorkspaces(t *testing.T) {
	srv, _ := newTestServer(t, map[string]string{
		"/api/v9/workspaces": `[{
			"id": 777,
			"name": "Acme",
			"premium": true,
			"admin": true,
			"default_hourly_rate": 95.5,
			"default_currency": "EUR",
			"only_admins_may_create_projects": true,
			"rounding": 1,
			"rounding_minutes": 6,
			"at": "2025-08-01T10:00:00Z",
			"logo_url": "https://assets.example.com/logo.png"
		}]`,
	})
	c := NewClient(srv.URL, "tok", testLogger())

	ws, err := c.ListWorkspaces(context.Background())
	require.NoError(t, err)
	require.Len(t, ws, 1)
	assert.Equal(t, int64(777), ws[0].ID)
	assert.Equal(t, "Acme", ws[0].Name)
	assert.True(t, ws[0].Premium)
	assert.Equal(t, 95.5, ws[0].DefaultHourlyRate)
	assert.Equal(t, int64(6), ws[0].RoundingMinutes)
	require.NotNil(t, ws[0].LogoURL)
	assert.Equal(t, "https://assets.example.com/logo.png", *ws[0].LogoURL)
	assert.Zero(t, ws[0].UserID, "owner is assigned by the sync layer, not the client")
}

func TestListClientsAndTags(t *testing.T) {
	srv, _ := newTestServer(t, map[string]string{
		"/api/v9/workspaces/777/clients": `[
			{"id": 5, "wid": 777, "name": "Globex", "at": "2025-08-01T10:00:00Z"}
		]`,
		"/api/v9/workspaces/777/tags": `[
			{"id": 31, "name": "dev", "workspace_id": 777},
			{"id": 32, "name": "meeting", "workspace_id": 777}
		]`,
	})
	c := NewClient(srv.URL, "tok", testLogger())

	clients, err := c.ListClients(context.Background(), 777)
	require.NoError(t, err)
	require.Len(t, clients, 1)
	assert.Equal(t, "Globex", clients[0].Name)
	assert.Equal(t, int64(777), clients[0].WorkspaceID)

	tags, err := c.ListTags(context.Background(), 777)
	require.NoError(t, err)
	require.Len(t, tags, 2)
	assert.Equal(t, "dev", tags[0].Name)
	assert.Equal(t, int64(777), tags[1].WorkspaceID)
}

func TestListProjects(t *testing.T) {
	srv, _ := newTestServer(t, map[string]string{
		"/api/v9/workspaces/777/projects": `[{
			"id": 123,
			"workspace_id": 777,
			"name": "Website",
			"active": true,
			"is_private": false,
			"billable": true,
			"estimated_hours": 40,
			"color": "#06aaf5",
			"client_id": 5,
			"rate": 120.0,
			"at": "2025-08-01T10:00:00Z",
			"created_at": "2025-07-01T08:00:00Z"
		}]`,
	})
	c := NewClient(srv.URL, "tok", testLogger())

	projects, err := c.ListProjects(context.Background(), 777)
	require.NoError(t, err)
	require.Len(t, projects, 1)
	p := projects[0]
	assert.Equal(t, int64(123), p.ID)
	assert.Equal(t, int64(777), p.WorkspaceID)
	require.NotNil(t, p.ClientID)
	assert.Equal(t, int64(5), *p.ClientID)
	require.NotNil(t, p.Rate)
	assert.Equal(t, 120.0, *p.Rate)
	require.NotNil(t, p.EstimatedHours)
	assert.Equal(t, int64(40), *p.EstimatedHours)
	assert.Nil(t, p.Template)
}

func TestListTimeEntries(t *testing.T) {
	srv, last := newTestServer(t, map[string]string{
		"/api/v9/me/time_entries": `[{
			"id": 1,
			"description": "deep work",
			"project_id": 123,
			"workspace_id": 777,
			"billable": false,
			"tags": ["dev", "feature"],
			"start": "2025-08-01T09:00:00Z",
			"stop": "2025-08-01T10:30:00Z",
			"duration": 5400
		}, {
			"id": 2,
			"description": "running entry",
			"workspace_id": 777,
			"start": "2025-08-01T11:00:00Z",
			"duration": -1754038800
		}]`,
	})
	c := NewClient(srv.URL, "tok", testLogger())

	from := time.Date(2025, 8, 1, 0, 0, 0, 0, time.UTC)
	to := from.Add(24 * time.Hour)
	entries, err := c.ListTimeEntries(context.Background(), from, to)
	require.NoError(t, err)
	require.Len(t, entries, 2)

	assert.Equal(t, from.Format(time.RFC3339), last.URL.Query().Get("start_date"))
	assert.Equal(t, to.Format(time.RFC3339), last.URL.Query().Get("end_date"))

	assert.Equal(t, []string{"dev", "feature"}, entries[0].Tags)
	require.NotNil(t, entries[0].Stop)
	assert.Equal(t, int64(5400), entries[0].DurationSec)

	assert.Nil(t, entries[1].Stop)
	assert.Negative(t, entries[1].DurationSec, "running entries carry negative duration")
}

func TestCreateTimeEntry(t *testing.T) {
	var gotBody rawTimeEntryRequest
	var gotMethod, gotPath string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotMethod = r.Method
		gotPath = r.URL.Path
		require.NoError(t, json.NewDecoder(r.Body).Decode(&gotBody))
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{
			"id": 999,
			"description": "standup",
			"workspace_id": 777,
			"start": "2025-08-01T09:00:00Z",
			"duration": 900,
			"tags": ["meeting"]
		}`))
	}))
	t.Cleanup(srv.Close)
	c := NewClient(srv.URL, "tok", testLogger())

	created, err := c.CreateTimeEntry(context.Background(), 777, domain.TimeEntry{
		Description: "standup",
		Start:       time.Date(2025, 8, 1, 9, 0, 0, 0, time.UTC),
		DurationSec: 900,
		Tags:        []string{"meeting"},
	})
	require.NoError(t, err)

	assert.Equal(t, http.MethodPost, gotMethod)
	assert.Equal(t, "/api/v9/workspaces/777/time_entries", gotPath)
	assert.Equal(t, "toggl-mirror", gotBody.CreatedWith)
	assert.Equal(t, int64(777), gotBody.WorkspaceID)
	assert.Equal(t, "standup", gotBody.Description)
	assert.Equal(t, int64(999), created.ID)
	require.NotNil(t, created.WorkspaceID)
	assert.Equal(t, int64(777), *created.WorkspaceID)
}

func TestErrorStatusIncludesBody(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusForbidden)
		_, _ = w.Write([]byte(`["workspace not accessible"]`))
	}))
	t.Cleanup(srv.Close)
	c := NewClient(srv.URL, "tok", testLogger())

	_, err := c.ListWorkspaces(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "403")
	assert.Contains(t, err.Error(), "workspace not accessible")
}

func TestMissingTokenRejectedLocally(t *testing.T) {
	c := NewClient("http://127.0.0.1:1", "", testLogger())
	_, err := c.ListWorkspaces(context.Background())
	require.EqualError(t, err, "missing api token")
}
