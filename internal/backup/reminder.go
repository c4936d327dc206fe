package backup

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/atinyakov/Perseverance/internal/client/storage"
)

// Cache keys owned by the reminder policy.
const (
	KeyLastBackup = "last_backup_date"
	KeySnooze     = "backup_reminder_snooze"
	KeyHistory    = "backup_history"
)

const (
	RemindAfterDays = 7
	SnoozeDays      = 3
	MaxHistory      = 5
)

// HistoryEntry records one export.
type HistoryEntry struct {
	Timestamp time.Time `json:"timestamp"`
	Size      int       `json:"size"`
	Version   string    `json:"version"`
}

// Reminder decides when to nag the user about backups. State lives in
// the same cache as the entity store.
type Reminder struct {
	cache storage.Cache
}

func NewReminder(cache storage.Cache) *Reminder {
	return &Reminder{cache: cache}
}

func (r *Reminder) readTime(key string) (time.Time, bool, error) {
	v, ok, err := r.cache.Get(key)
	if err != nil || !ok {
		return time.Time{}, false, err
	}
	t, err := time.Parse(time.RFC3339Nano, v)
	if err != nil {
		// unreadable timestamps count as absent
		return time.Time{}, false, nil
	}
	return t, true, nil
}

func wholeDays(from, to time.Time) int {
	return int(to.Sub(from) / (24 * time.Hour))
}

// ShouldRemind is true once RemindAfterDays have passed since the last
// backup (or there never was one) and no snooze is within SnoozeDays.
func (r *Reminder) ShouldRemind(now time.Time) (bool, error) {
	snoozed, ok, err := r.readTime(KeySnooze)
	if err != nil {
		return false, err
	}
	if ok && wholeDays(snoozed, now) < SnoozeDays {
		return false, nil
	}

	last, ok, err := r.readTime(KeyLastBackup)
	if err != nil {
		return false, err
	}
	if !ok {
		return true, nil
	}
	return wholeDays(last, now) >= RemindAfterDays, nil
}

// Snooze silences the reminder for SnoozeDays from now.
func (r *Reminder) Snooze(now time.Time) error {
	return r.cache.Set(KeySnooze, now.UTC().Format(time.RFC3339Nano))
}

// MarkBackedUp records a completed export of size bytes, clears any
// snooze and prepends the export to the history.
func (r *Reminder) MarkBackedUp(now time.Time, size int) error {
	if err := r.cache.Set(KeyLastBackup, now.UTC().Format(time.RFC3339Nano)); err != nil {
		return fmt.Errorf("save last backup date: %w", err)
	}
	if err := r.cache.Delete(KeySnooze); err != nil {
		return fmt.Errorf("clear snooze: %w", err)
	}

	history, err := r.History()
	if err != nil {
		return err
	}
	history = append([]HistoryEntry{{Timestamp: now.UTC(), Size: size, Version: Version}}, history...)
	if len(history) > MaxHistory {
		history = history[:MaxHistory]
	}
	b, err := json.Marshal(history)
	if err != nil {
		return err
	}
	return r.cache.Set(KeyHistory, string(b))
}

// History lists recorded exports, newest first. A corrupt history is empty.
func (r *Reminder) History() ([]HistoryEntry, error) {
	v, ok, err := r.cache.Get(KeyHistory)
	if err != nil {
		return nil, err
	}
	var out []HistoryEntry
	if !ok {
		return out, nil
	}
	if err := json.Unmarshal([]byte(v), &out); err != nil {
		return nil, nil
	}
	return out, nil
}

// AutoBackup is the result of CheckAutoBackup.
type AutoBackup struct {
	ShouldBackup    bool
	Reason          string
	DaysSinceBackup int
	// Never is set when no backup has been recorded.
	Never bool
}

// CheckAutoBackup reports whether a backup is due, ignoring snoozes.
func (r *Reminder) CheckAutoBackup(now time.Time) (AutoBackup, error) {
	last, ok, err := r.readTime(KeyLastBackup)
	if err != nil {
		return AutoBackup{}, err
	}
	if !ok {
		return AutoBackup{ShouldBackup: true, Reason: "No backup found", Never: true}, nil
	}
	days := wholeDays(last, now)
	if days >= RemindAfterDays {
		return AutoBackup{
			ShouldBackup:    true,
			Reason:          fmt.Sprintf("Last backup was %d days ago", days),
			DaysSinceBackup: days,
		}, nil
	}
	return AutoBackup{DaysSinceBackup: days}, nil
}

// Restored records the export date of an imported document as the last
// backup, matching the data now in the store.
func (r *Reminder) Restored(doc Document) error {
	if doc.ExportDate.IsZero() {
		return nil
	}
	return r.cache.Set(KeyLastBackup, doc.ExportDate.UTC().Format(time.RFC3339Nano))
}
