package service

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/moviezone/linkgate/internal/model"
)

func TestRecordAdClearedUpserts(t *testing.T) {
	svc, mem := newTestService(t)
	ctx := context.Background()
	ip := "198.51.100.1"

	now := time.Date(2025, 6, 1, 9, 0, 0, 0, time.UTC)
	mem.Now = func() time.Time { return now }

	require.NoError(t, svc.RecordAdCleared(ctx, ip, "abc123", model.KindSingle))
	require.NoError(t, svc.RecordAdCleared(ctx, ip, "abc123", model.KindSingle))
	assert.Equal(t, 1, mem.SessionCount(), "repeat clears reuse the row")

	// A different kind under the same code is its own session
	require.NoError(t, svc.RecordAdCleared(ctx, ip, "abc123", model.KindQuality))
	assert.Equal(t, 2, mem.SessionCount())
}

func TestRecordAdClearedRefreshesExpiry(t *testing.T) {
	svc, mem := newTestService(t)
	ctx := context.Background()
	ip := "198.51.100.2"

	now := time.Date(2025, 6, 1, 9, 0, 0, 0, time.UTC)
	mem.Now = func() time.Time { return now }

	require.NoError(t, svc.RecordAdCleared(ctx, ip, "abc123", model.KindSingle))

	// Clear again 4 minutes in; the window restarts from the second clear
	now = now.Add(4 * time.Minute)
	require.NoError(t, svc.RecordAdCleared(ctx, ip, "abc123", model.KindSingle))

	now = now.Add(4 * time.Minute)
	active, err := svc.HasActiveSession(ctx, ip, "abc123", model.KindSingle)
	require.NoError(t, err)
	assert.True(t, active, "8 minutes after first clear, 4 after refresh")

	now = now.Add(2 * time.Minute)
	active, err = svc.HasActiveSession(ctx, ip, "abc123", model.KindSingle)
	require.NoError(t, err)
	assert.False(t, active)
}

func TestPurgeExpiredSessions(t *testing.T) {
	svc, mem := newTestService(t)
	ctx := context.Background()

	now := time.Date(2025, 6, 1, 9, 0, 0, 0, time.UTC)
	mem.Now = func() time.Time { return now }

	require.NoError(t, svc.RecordAdCleared(ctx, "198.51.100.3", "old111", model.KindSingle))

	now = now.Add(3 * time.Minute)
	require.NoError(t, svc.RecordAdCleared(ctx, "198.51.100.3", "new222", model.KindSingle))

	now = now.Add(3 * time.Minute)
	purged, err := mem.PurgeExpiredSessions(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(1), purged)
	assert.Equal(t, 1, mem.SessionCount())

	active, err := svc.HasActiveSession(ctx, "198.51.100.3", "new222", model.KindSingle)
	require.NoError(t, err)
	assert.True(t, active)
}

func TestExpiredUnpurgedSessionCountsAsAbsent(t *testing.T) {
	svc, mem := newTestService(t)
	ctx := context.Background()
	ip := "198.51.100.4"

	now := time.Date(2025, 6, 1, 9, 0, 0, 0, time.UTC)
	mem.Now = func() time.Time { return now }

	require.NoError(t, svc.RecordAdCleared(ctx, ip, "abc123", model.KindSingle))

	now = now.Add(10 * time.Minute)
	// No purge ran; the stale row must still read as no session
	assert.Equal(t, 1, mem.SessionCount())
	active, err := svc.HasActiveSession(ctx, ip, "abc123", model.KindSingle)
	require.NoError(t, err)
	assert.False(t, active)
}
