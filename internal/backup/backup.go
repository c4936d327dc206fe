// Package backup encodes the client's data as a portable JSON document,
// validates documents on import, and tracks when the user last backed up.
package backup

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/atinyakov/Perseverance/internal/apperr"
	"github.com/atinyakov/Perseverance/internal/client/storage"
	"github.com/atinyakov/Perseverance/internal/models"
)

const (
	// Version is written into every exported document.
	Version = "1.0"
	// FilePrefix names exported files: perseverance-backup-YYYY-MM-DD.json.
	FilePrefix = "perseverance-backup-"
)

// ErrMalformed is returned when an import is not parseable JSON.
var ErrMalformed = errors.New("backup is not valid JSON")

// Document is the on-disk backup shape.
type Document struct {
	Habits      []models.Habit      `json:"habits"`
	Completions []models.Completion `json:"completions"`
	Settings    models.Settings     `json:"settings"`
	ExportDate  time.Time           `json:"exportDate"`
	Version     string              `json:"version"`
}

// Export captures snap as a document stamped with now.
func Export(snap storage.Snapshot, now time.Time) Document {
	doc := Document{
		Habits:      snap.Habits,
		Completions: snap.Completions,
		Settings:    snap.Settings,
		ExportDate:  now.UTC(),
		Version:     Version,
	}
	if doc.Habits == nil {
		doc.Habits = []models.Habit{}
	}
	if doc.Completions == nil {
		doc.Completions = []models.Completion{}
	}
	return doc
}

// Encode writes doc as indented JSON.
func Encode(w io.Writer, doc Document) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if err := enc.Encode(doc); err != nil {
		return fmt.Errorf("encode backup: %w", err)
	}
	return nil
}

// Marshal is Encode into a byte slice.
func Marshal(doc Document) ([]byte, error) {
	var buf bytes.Buffer
	if err := Encode(&buf, doc); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// Filename is the conventional name for a backup taken at now.
func Filename(now time.Time) string {
	return FilePrefix + models.FormatDate(now) + ".json"
}

var requiredKeys = []string{"habits", "completions", "settings"}

// Decode parses and validates a backup. It returns an error wrapping
// ErrMalformed for unparseable input and an *apperr.ValidationError for
// a well-formed document of the wrong shape. Nothing is applied here.
func Decode(data []byte) (Document, error) {
	var raw map[string]json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		if json.Valid(data) {
			return Document{}, apperr.Validation("", "backup must be a JSON object")
		}
		return Document{}, fmt.Errorf("%w: %v", ErrMalformed, err)
	}
	if raw == nil {
		return Document{}, apperr.Validation("", "backup must be a JSON object")
	}
	for _, k := range requiredKeys {
		if v, ok := raw[k]; !ok || string(bytes.TrimSpace(v)) == "null" {
			return Document{}, apperr.Validation(k, "missing from backup")
		}
	}

	var doc Document
	if err := json.Unmarshal(raw["habits"], &doc.Habits); err != nil {
		return Document{}, apperr.Validation("habits", "invalid: %v", err)
	}
	if err := json.Unmarshal(raw["completions"], &doc.Completions); err != nil {
		return Document{}, apperr.Validation("completions", "invalid: %v", err)
	}
	if err := json.Unmarshal(raw["settings"], &doc.Settings); err != nil {
		return Document{}, apperr.Validation("settings", "invalid: %v", err)
	}
	if v, ok := raw["version"]; ok {
		if err := json.Unmarshal(v, &doc.Version); err != nil || doc.Version != Version {
			return Document{}, apperr.Validation("version", "unsupported backup version %s", string(v))
		}
	}
	if v, ok := raw["exportDate"]; ok && string(bytes.TrimSpace(v)) != "null" {
		if err := json.Unmarshal(v, &doc.ExportDate); err != nil {
			return Document{}, apperr.Validation("exportDate", "must be an RFC 3339 timestamp, got %s", string(v))
		}
	}

	if err := validateEntries(doc); err != nil {
		return Document{}, err
	}
	return doc, nil
}

// validateEntries holds a document to the same rules the store keeps:
// valid habits with unique ids, at most one completion per habit and day.
func validateEntries(doc Document) error {
	habitIDs := make(map[string]bool, len(doc.Habits))
	for i, h := range doc.Habits {
		if h.ID == "" {
			return apperr.Validation("habits", "entry %d has no id", i)
		}
		if habitIDs[h.ID] {
			return apperr.Validation("habits", "entry %d repeats id %q", i, h.ID)
		}
		habitIDs[h.ID] = true
		if err := models.ValidateHabit(h); err != nil {
			return apperr.Validation("habits", "entry %d: %v", i, err)
		}
	}

	type key struct{ habitID, date string }
	seen := make(map[key]bool, len(doc.Completions))
	for i, c := range doc.Completions {
		if c.HabitID == "" || !models.ValidDate(c.Date) {
			return apperr.Validation("completions", "entry %d needs a habitId and a YYYY-MM-DD date", i)
		}
		k := key{c.HabitID, c.Date}
		if seen[k] {
			return apperr.Validation("completions", "entry %d repeats habit %q on %s", i, c.HabitID, c.Date)
		}
		seen[k] = true
	}
	return nil
}

// Read decodes a backup from r.
func Read(r io.Reader) (Document, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return Document{}, fmt.Errorf("read backup: %w", err)
	}
	return Decode(data)
}
