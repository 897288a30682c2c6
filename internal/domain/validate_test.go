package domain

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestValidateWorkspace(t *testing.T) {
	ws := Workspace{
		ID:              1,
		Name:            "Acme",
		DefaultCurrency: "EUR",
		RoundingMinutes: 5,
		At:              time.Now(),
		UserID:          7,
	}
	require.NoError(t, Validate(&ws))

	t.Run("missing name", func(t *testing.T) {
		bad := ws
		bad.Name = ""
		err := Validate(&bad)
		require.Error(t, err)
		assert.Contains(t, err.Error(), "name is required")
	})

	t.Run("negative rounding minutes", func(t *testing.T) {
		bad := ws
		bad.RoundingMinutes = -1
		err := Validate(&bad)
		require.Error(t, err)
		assert.Contains(t, err.Error(), "roundingminutes must be >= 0")
	})

	t.Run("missing owner", func(t *testing.T) {
		bad := ws
		bad.UserID = 0
		assert.Error(t, Validate(&bad))
	})
}

func TestValidateUser(t *testing.T) {
	u := User{
		ID:       1,
		Email:    "jane@example.com",
		Fullname: "Jane Doe",
		Timezone: "Europe/Berlin",
	}
	require.NoError(t, Validate(&u))

	t.Run("bad email", func(t *testing.T) {
		bad := u
		bad.Email = "not-an-email"
		err := Validate(&bad)
		require.Error(t, err)
		assert.Contains(t, err.Error(), "email must be a valid email")
	})

	t.Run("beginning of week out of range", func(t *testing.T) {
		bad := u
		bad.BeginningOfWeek = 9
		assert.Error(t, Validate(&bad))
	})
}

func TestValidateTimeEntry(t *testing.T) {
	entry := TimeEntry{
		ID:          42,
		Description: "deep work",
		Start:       time.Date(2025, 8, 1, 9, 0, 0, 0, time.UTC),
		DurationSec: 3600,
	}
	require.NoError(t, Validate(&entry))

	t.Run("zero start", func(t *testing.T) {
		bad := entry
		bad.Start = time.Time{}
		err := Validate(&bad)
		require.Error(t, err)
		assert.Contains(t, err.Error(), "start is required")
	})
}

func TestValidateTag(t *testing.T) {
	require.NoError(t, Validate(&Tag{ID: 1, Name: "dev", WorkspaceID: 2, UserID: 3}))
	assert.Error(t, Validate(&Tag{ID: 1, WorkspaceID: 2, UserID: 3}))
}
