package backup

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/atinyakov/Perseverance/internal/client/storage"
)

var day = 24 * time.Hour

func TestShouldRemind(t *testing.T) {
	now := time.Date(2024, 3, 15, 12, 0, 0, 0, time.UTC)

	tests := []struct {
		name   string
		last   *time.Time
		snooze *time.Time
		want   bool
	}{
		{name: "never backed up", want: true},
		{name: "recent backup", last: ptr(now.Add(-6 * day)), want: false},
		{name: "backup a week old", last: ptr(now.Add(-7 * day)), want: true},
		{name: "snoozed yesterday", last: ptr(now.Add(-30 * day)), snooze: ptr(now.Add(-1 * day)), want: false},
		{name: "snooze expired", last: ptr(now.Add(-30 * day)), snooze: ptr(now.Add(-3 * day)), want: true},
		{name: "snooze expired but backup fresh", last: ptr(now.Add(-2 * day)), snooze: ptr(now.Add(-5 * day)), want: false},
		{name: "never backed up but snoozed", snooze: ptr(now.Add(-1 * day)), want: false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cache := storage.NewMemoryCache()
			if tt.last != nil {
				_ = cache.Set(KeyLastBackup, tt.last.Format(time.RFC3339Nano))
			}
			if tt.snooze != nil {
				_ = cache.Set(KeySnooze, tt.snooze.Format(time.RFC3339Nano))
			}
			got, err := NewReminder(cache).ShouldRemind(now)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestSnoozeThenMarkBackedUp(t *testing.T) {
	now := time.Date(2024, 3, 15, 12, 0, 0, 0, time.UTC)
	cache := storage.NewMemoryCache()
	r := NewReminder(cache)

	require.NoError(t, r.Snooze(now))
	remind, err := r.ShouldRemind(now.Add(day))
	require.NoError(t, err)
	assert.False(t, remind)

	require.NoError(t, r.MarkBackedUp(now.Add(day), 512))
	_, snoozed, _ := cache.Get(KeySnooze)
	assert.False(t, snoozed, "MarkBackedUp clears the snooze")

	remind, err = r.ShouldRemind(now.Add(9 * day))
	require.NoError(t, err)
	assert.True(t, remind)
}

func TestHistoryKeepsLastFive(t *testing.T) {
	r := NewReminder(storage.NewMemoryCache())
	start := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	for i := 0; i < 7; i++ {
		require.NoError(t, r.MarkBackedUp(start.Add(time.Duration(i)*day), 100+i))
	}
	h, err := r.History()
	require.NoError(t, err)
	require.Len(t, h, MaxHistory)
	assert.Equal(t, 106, h[0].Size, "newest first")
	assert.Equal(t, 102, h[4].Size)
	assert.Equal(t, Version, h[0].Version)
}

func TestHistory_Corrupt(t *testing.T) {
	cache := storage.NewMemoryCache()
	_ = cache.Set(KeyHistory, "oops")
	h, err := NewReminder(cache).History()
	require.NoError(t, err)
	assert.Empty(t, h)
}

func TestCheckAutoBackup(t *testing.T) {
	now := time.Date(2024, 3, 15, 12, 0, 0, 0, time.UTC)
	cache := storage.NewMemoryCache()
	r := NewReminder(cache)

	got, err := r.CheckAutoBackup(now)
	require.NoError(t, err)
	assert.Equal(t, AutoBackup{ShouldBackup: true, Reason: "No backup found", Never: true}, got)

	_ = cache.Set(KeyLastBackup, now.Add(-10*day).Format(time.RFC3339Nano))
	got, err = r.CheckAutoBackup(now)
	require.NoError(t, err)
	assert.Equal(t, AutoBackup{ShouldBackup: true, Reason: "Last backup was 10 days ago", DaysSinceBackup: 10}, got)

	_ = cache.Set(KeyLastBackup, now.Add(-2*day).Format(time.RFC3339Nano))
	got, err = r.CheckAutoBackup(now)
	require.NoError(t, err)
	assert.Equal(t, AutoBackup{DaysSinceBackup: 2}, got)
}

func TestRestored(t *testing.T) {
	cache := storage.NewMemoryCache()
	r := NewReminder(cache)
	require.NoError(t, r.Restored(Document{ExportDate: time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC)}))
	v, ok, _ := cache.Get(KeyLastBackup)
	assert.True(t, ok)
	assert.Equal(t, "2024-03-01T00:00:00Z", v)
}

func ptr(t time.Time) *time.Time { return &t }
