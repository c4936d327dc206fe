package backup

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/atinyakov/Perseverance/internal/apperr"
	"github.com/atinyakov/Perseverance/internal/client/storage"
	"github.com/atinyakov/Perseverance/internal/models"
)

var exportTime = time.Date(2024, 3, 15, 9, 30, 0, 0, time.UTC)

func sampleSnapshot() storage.Snapshot {
	mood := 4
	settings := models.DefaultSettings()
	settings.UserName = "Ada"
	return storage.Snapshot{
		Habits: []models.Habit{
			{ID: "h1", Name: "Read", Category: "learning", Color: "#F59E0B", Icon: "📚", Frequency: models.Daily, Target: 7, IsActive: true, CreatedDate: "2024-03-01",
				Extra: map[string]json.RawMessage{"reminderTime": json.RawMessage(`"08:00"`)}},
			{ID: "h2", Name: "Run", Category: "health", Frequency: models.Weekly, Target: 3, IsActive: false, CreatedDate: "2024-02-01"},
		},
		Completions: []models.Completion{
			{ID: "c1", HabitID: "h1", Date: "2024-03-14", Completed: true, Note: "ch. 3", Mood: &mood, Timestamp: exportTime.Add(-24 * time.Hour)},
			{ID: "c2", HabitID: "h2", Date: "2024-03-10", Completed: false, Timestamp: exportTime.Add(-120 * time.Hour)},
		},
		Settings: settings,
	}
}

func TestExportImportRoundTrip(t *testing.T) {
	snap := sampleSnapshot()
	data, err := Marshal(Export(snap, exportTime))
	require.NoError(t, err)

	doc, err := Decode(data)
	require.NoError(t, err)

	assert.Equal(t, Version, doc.Version)
	assert.True(t, doc.ExportDate.Equal(exportTime))
	assert.ElementsMatch(t, snap.Habits, doc.Habits)
	assert.ElementsMatch(t, snap.Completions, doc.Completions)
	assert.Equal(t, snap.Settings, doc.Settings)

	// restore into a fresh store
	s := storage.NewStore(nil, nil)
	s.ReplaceAll(doc.Habits, doc.Completions, doc.Settings)
	assert.ElementsMatch(t, snap.Habits, s.Habits())
	assert.ElementsMatch(t, snap.Completions, s.Completions())
}

func TestExport_EmptyCollectionsAreArrays(t *testing.T) {
	data, err := Marshal(Export(storage.Snapshot{Settings: models.DefaultSettings()}, exportTime))
	require.NoError(t, err)
	assert.Contains(t, string(data), `"habits": []`)
	assert.Contains(t, string(data), `"completions": []`)
	assert.Contains(t, string(data), `"version": "1.0"`)
}

func habitJSON(id, name string, target int) string {
	return fmt.Sprintf(`{"id": %q, "name": %q, "frequency": "daily", "target": %d, "isActive": true, "createdDate": "2024-03-01"}`, id, name, target)
}

func TestDecode_Errors(t *testing.T) {
	tests := []struct {
		name      string
		input     string
		malformed bool
		field     string
	}{
		{"not json", `{"habits": [`, true, ""},
		{"array", `[]`, false, ""},
		{"null document", `null`, false, ""},
		{"missing completions", `{"habits": [], "settings": {}}`, false, "completions"},
		{"missing habits", `{"completions": [], "settings": {}}`, false, "habits"},
		{"null settings", `{"habits": [], "completions": [], "settings": null}`, false, "settings"},
		{"wrong type", `{"habits": {}, "completions": [], "settings": {}}`, false, "habits"},
		{"bad version", `{"habits": [], "completions": [], "settings": {}, "version": "2.0"}`, false, "version"},
		{"habit without id", `{"habits": [{"name": "x"}], "completions": [], "settings": {}}`, false, "habits"},
		{"completion with bad date", `{"habits": [], "completions": [{"habitId": "h", "date": "15/03/2024"}], "settings": {}}`, false, "completions"},
		{"habit target out of range", `{"habits": [` + habitJSON("h1", "Read", 99) + `], "completions": [], "settings": {}}`, false, "habits"},
		{"habit without name", `{"habits": [` + habitJSON("h1", "", 7) + `], "completions": [], "settings": {}}`, false, "habits"},
		{"duplicate habit id", `{"habits": [` + habitJSON("h1", "Read", 7) + `, ` + habitJSON("h1", "Run", 3) + `], "completions": [], "settings": {}}`, false, "habits"},
		{"duplicate completion pair", `{"habits": [` + habitJSON("h1", "Read", 7) + `], "completions": [
			{"id": "c1", "habitId": "h1", "date": "2024-03-15", "completed": true},
			{"id": "c2", "habitId": "h1", "date": "2024-03-15", "completed": false}], "settings": {}}`, false, "completions"},
		{"bad export date", `{"habits": [], "completions": [], "settings": {}, "exportDate": "yesterday"}`, false, "exportDate"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Decode([]byte(tt.input))
			require.Error(t, err)
			if tt.malformed {
				assert.ErrorIs(t, err, ErrMalformed)
				assert.NotErrorIs(t, err, apperr.ErrValidation)
				return
			}
			assert.ErrorIs(t, err, apperr.ErrValidation)
			var ve *apperr.ValidationError
			require.True(t, errors.As(err, &ve))
			assert.Equal(t, tt.field, ve.Field)
		})
	}
}

func TestDecode_VersionOptional(t *testing.T) {
	doc, err := Read(strings.NewReader(`{"habits": [], "completions": [], "settings": {"theme": "light"}}`))
	require.NoError(t, err)
	assert.Equal(t, "light", doc.Settings.Theme)
}

func TestDecode_NullExportDate(t *testing.T) {
	doc, err := Decode([]byte(`{"habits": [], "completions": [], "settings": {}, "exportDate": null}`))
	require.NoError(t, err)
	assert.True(t, doc.ExportDate.IsZero())
}

func TestFilename(t *testing.T) {
	assert.Equal(t, "perseverance-backup-2024-03-15.json", Filename(exportTime))
}
