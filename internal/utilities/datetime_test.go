package utilities

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCurrentDatetime(t *testing.T) {
	svc := NewDateTimeService()
	svc.now = func() time.Time {
		return time.Date(2025, time.July, 1, 12, 0, 0, 0, time.UTC)
	}

	got := svc.CurrentDatetime()
	assert.Equal(t, "2025-07-01T12:00:00Z", got.UTC)

	// July is BST, one hour ahead of UTC.
	local, err := time.Parse(time.RFC3339, got.Local)
	require.NoError(t, err)
	assert.True(t, local.Equal(time.Date(2025, time.July, 1, 12, 0, 0, 0, time.UTC)))
	if svc.london != time.UTC {
		assert.Equal(t, "2025-07-01T13:00:00+01:00", got.Local)
	}
}

func TestCurrentDatetimeWinterMatchesUTC(t *testing.T) {
	svc := NewDateTimeService()
	svc.now = func() time.Time {
		return time.Date(2025, time.January, 15, 9, 30, 0, 0, time.UTC)
	}

	got := svc.CurrentDatetime()
	local, err := time.Parse(time.RFC3339, got.Local)
	require.NoError(t, err)
	assert.True(t, local.Equal(time.Date(2025, time.January, 15, 9, 30, 0, 0, time.UTC)))
}
