// Package models defines the core data structures for users, habits,
// completions and settings shared by the client and the server.
package models

import (
	"encoding/json"
	"time"
)

// User represents an application account.
type User struct {
	// ID is the unique identifier for the user.
	ID string `json:"id"`
	// Name is the display name chosen at registration.
	Name string `json:"name"`
	// Email is the login, stored lowercased.
	Email string `json:"email"`
	// PasswordHash is the bcrypt hash of the password. Never serialized.
	PasswordHash []byte `json:"-"`
	// Settings are the synchronized user preferences.
	Settings Settings `json:"settings"`
	// CreatedAt is assigned by the server.
	CreatedAt time.Time `json:"createdAt"`
}

// AuthResponse is returned by register and login: the user plus a bearer token.
type AuthResponse struct {
	User
	Token string `json:"token"`
}

// Frequency describes how often a habit is meant to be performed.
type Frequency string

const (
	// Daily habits are expected every day.
	Daily Frequency = "daily"
	// Weekly habits are expected Target times per week.
	Weekly Frequency = "weekly"
	// Custom habits carry a user-chosen Target.
	Custom Frequency = "custom"
)

// Valid reports whether f is one of the persisted frequencies.
func (f Frequency) Valid() bool {
	switch f {
	case Daily, Weekly, Custom:
		return true
	}
	return false
}

// Defaults applied to new habits.
const (
	DefaultCategory  = "Personal"
	DefaultColor     = "#6366F1"
	DefaultFrequency = Daily
	DefaultTarget    = 7
	DefaultIcon      = "🎯"

	MinTarget = 1
	MaxTarget = 7
)

// Habit is a recurring user-defined activity.
type Habit struct {
	ID          string     `json:"id"`
	OwnerID     string     `json:"ownerId,omitempty"`
	Name        string     `json:"name"`
	Description string     `json:"description"`
	Category    string     `json:"category"`
	Color       string     `json:"color"`
	Icon        string     `json:"icon"`
	Frequency   Frequency  `json:"frequency"`
	Target      int        `json:"target"`
	IsActive    bool       `json:"isActive"`
	CreatedDate string     `json:"createdDate"`
	CreatedAt   *time.Time `json:"createdAt,omitempty"`
	UpdatedAt   *time.Time `json:"updatedAt,omitempty"`

	// Extra keeps fields this version does not model so they survive a round trip.
	Extra map[string]json.RawMessage `json:"-"`
}

var habitFields = []string{
	"id", "ownerId", "name", "description", "category", "color", "icon",
	"frequency", "target", "isActive", "createdDate", "createdAt", "updatedAt",
}

type habitAlias Habit

// MarshalJSON writes the known fields and any preserved unknown ones.
func (h Habit) MarshalJSON() ([]byte, error) {
	known, err := json.Marshal(habitAlias(h))
	if err != nil {
		return nil, err
	}
	return mergeExtra(known, h.Extra)
}

// UnmarshalJSON reads the known fields and stashes the rest in Extra.
func (h *Habit) UnmarshalJSON(data []byte) error {
	var a habitAlias
	if err := json.Unmarshal(data, &a); err != nil {
		return err
	}
	extra, err := splitExtra(data, habitFields)
	if err != nil {
		return err
	}
	*h = Habit(a)
	h.Extra = extra
	return nil
}

// Completion records whether a habit was done on a calendar date.
// A record may exist with Completed=false.
type Completion struct {
	ID        string     `json:"id"`
	HabitID   string     `json:"habitId"`
	OwnerID   string     `json:"ownerId,omitempty"`
	Date      string     `json:"date"`
	Completed bool       `json:"completed"`
	Note      string     `json:"note"`
	Mood      *int       `json:"mood,omitempty"`
	Timestamp time.Time  `json:"timestamp"`
	CreatedAt *time.Time `json:"createdAt,omitempty"`
	UpdatedAt *time.Time `json:"updatedAt,omitempty"`
}

// HabitCompletions is the per-habit summary served by the remote API.
// Only completed records are included.
type HabitCompletions struct {
	HabitID          string       `json:"habitId"`
	TotalCompletions int          `json:"totalCompletions"`
	Completions      []Completion `json:"completions"`
}

// Settings are per-user preferences. FontSize and AccentColor are
// client-local and never reach the remote store.
type Settings struct {
	Theme              string `json:"theme"`
	UserName           string `json:"userName"`
	MotivationalQuotes bool   `json:"motivationalQuotes"`
	StartOfWeek        string `json:"startOfWeek"`
	Notifications      bool   `json:"notifications"`

	FontSize    string `json:"fontSize,omitempty"`
	AccentColor string `json:"accentColor,omitempty"`
}

// DefaultSettings returns the settings used when nothing is stored.
func DefaultSettings() Settings {
	return Settings{
		Theme:              "dark",
		UserName:           "Champion",
		MotivationalQuotes: true,
		StartOfWeek:        "monday",
		Notifications:      true,
	}
}

// Shared strips the client-local preferences.
func (s Settings) Shared() Settings {
	s.FontSize = ""
	s.AccentColor = ""
	return s
}

// WithLocal copies the client-local preferences from other into s.
func (s Settings) WithLocal(other Settings) Settings {
	s.FontSize = other.FontSize
	s.AccentColor = other.AccentColor
	return s
}

func mergeExtra(known []byte, extra map[string]json.RawMessage) ([]byte, error) {
	if len(extra) == 0 {
		return known, nil
	}
	var fields map[string]json.RawMessage
	if err := json.Unmarshal(known, &fields); err != nil {
		return nil, err
	}
	for k, v := range extra {
		if _, ok := fields[k]; !ok {
			fields[k] = v
		}
	}
	return json.Marshal(fields)
}

func splitExtra(data []byte, known []string) (map[string]json.RawMessage, error) {
	var fields map[string]json.RawMessage
	if err := json.Unmarshal(data, &fields); err != nil {
		return nil, err
	}
	for _, k := range known {
		delete(fields, k)
	}
	if len(fields) == 0 {
		return nil, nil
	}
	return fields, nil
}
