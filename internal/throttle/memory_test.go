package throttle

import (
	"context"
	"strconv"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestMemoryDropsExpiredKeys(t *testing.T) {
	now := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	m := NewMemory(3, time.Minute).WithClock(func() time.Time { return now })
	ctx := context.Background()

	for i := 0; i < 1000; i++ {
		require.NoError(t, m.Failed(ctx, "user-"+strconv.Itoa(i)))
	}
	require.Len(t, m.windows, 1000)

	now = now.Add(time.Minute)
	require.NoError(t, m.Failed(ctx, "latecomer"))
	require.Len(t, m.windows, 1)

	ok, err := m.Allowed(ctx, "user-0")
	require.NoError(t, err)
	require.True(t, ok)
}

func TestMemoryKeepsLiveWindowsOnSweep(t *testing.T) {
	now := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	m := NewMemory(1, time.Minute).WithClock(func() time.Time { return now })
	ctx := context.Background()

	require.NoError(t, m.Failed(ctx, "old"))
	now = now.Add(50 * time.Second)
	require.NoError(t, m.Failed(ctx, "fresh"))
	now = now.Add(20 * time.Second)
	require.NoError(t, m.Failed(ctx, "other"))

	require.NotContains(t, m.windows, "old")
	ok, err := m.Allowed(ctx, "fresh")
	require.NoError(t, err)
	require.False(t, ok, "fresh window still open")
}
