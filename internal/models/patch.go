package models

import (
	"encoding/json"
	"strings"

	"github.com/atinyakov/Perseverance/internal/apperr"
)

// HabitPatch is a partial update. Nil fields are left unchanged and Extra
// passes through untouched.
type HabitPatch struct {
	Name        *string    `json:"name,omitempty"`
	Description *string    `json:"description,omitempty"`
	Category    *string    `json:"category,omitempty"`
	Color       *string    `json:"color,omitempty"`
	Icon        *string    `json:"icon,omitempty"`
	Frequency   *Frequency `json:"frequency,omitempty"`
	Target      *int       `json:"target,omitempty"`
	IsActive    *bool      `json:"isActive,omitempty"`

	Extra map[string]json.RawMessage `json:"-"`
}

type habitPatchAlias HabitPatch

var habitPatchFields = []string{
	"name", "description", "category", "color", "icon", "frequency", "target", "isActive",
}

// MarshalJSON includes Extra alongside the set fields.
func (p HabitPatch) MarshalJSON() ([]byte, error) {
	known, err := json.Marshal(habitPatchAlias(p))
	if err != nil {
		return nil, err
	}
	return mergeExtra(known, p.Extra)
}

// UnmarshalJSON collects unknown keys into Extra.
func (p *HabitPatch) UnmarshalJSON(data []byte) error {
	var a habitPatchAlias
	if err := json.Unmarshal(data, &a); err != nil {
		return err
	}
	extra, err := splitExtra(data, habitPatchFields)
	if err != nil {
		return err
	}
	*p = HabitPatch(a)
	p.Extra = extra
	return nil
}

// Validate checks the fields that are set.
func (p HabitPatch) Validate() error {
	if p.Name != nil && strings.TrimSpace(*p.Name) == "" {
		return apperr.Validation("name", "must not be empty")
	}
	if p.Target != nil && (*p.Target < MinTarget || *p.Target > MaxTarget) {
		return apperr.Validation("target", "must be between %d and %d, got %d", MinTarget, MaxTarget, *p.Target)
	}
	if p.Frequency != nil && !p.Frequency.Valid() {
		return apperr.Validation("frequency", "unknown frequency %q", *p.Frequency)
	}
	return nil
}

// Apply returns h with the patch merged in.
func (p HabitPatch) Apply(h Habit) Habit {
	if p.Name != nil {
		h.Name = strings.TrimSpace(*p.Name)
	}
	if p.Description != nil {
		h.Description = *p.Description
	}
	if p.Category != nil {
		h.Category = *p.Category
	}
	if p.Color != nil {
		h.Color = *p.Color
	}
	if p.Icon != nil {
		h.Icon = *p.Icon
	}
	if p.Frequency != nil {
		h.Frequency = *p.Frequency
	}
	if p.Target != nil {
		h.Target = *p.Target
	}
	if p.IsActive != nil {
		h.IsActive = *p.IsActive
	}
	if len(p.Extra) > 0 {
		merged := make(map[string]json.RawMessage, len(h.Extra)+len(p.Extra))
		for k, v := range h.Extra {
			merged[k] = v
		}
		for k, v := range p.Extra {
			merged[k] = v
		}
		h.Extra = merged
	}
	return h
}

// ValidateHabit checks the invariants of a complete habit.
func ValidateHabit(h Habit) error {
	if strings.TrimSpace(h.Name) == "" {
		return apperr.Validation("name", "must not be empty")
	}
	if h.Target < MinTarget || h.Target > MaxTarget {
		return apperr.Validation("target", "must be between %d and %d, got %d", MinTarget, MaxTarget, h.Target)
	}
	if !h.Frequency.Valid() {
		return apperr.Validation("frequency", "unknown frequency %q", h.Frequency)
	}
	if !ValidDate(h.CreatedDate) {
		return apperr.Validation("createdDate", "must be YYYY-MM-DD, got %q", h.CreatedDate)
	}
	return nil
}

// CompletionPatch is a partial update of a completion, used for adding
// notes or mood after the fact.
type CompletionPatch struct {
	Completed *bool   `json:"completed,omitempty"`
	Note      *string `json:"note,omitempty"`
	Mood      *int    `json:"mood,omitempty"`
}

// Validate checks the fields that are set.
func (p CompletionPatch) Validate() error {
	if p.Mood != nil && (*p.Mood < 1 || *p.Mood > 5) {
		return apperr.Validation("mood", "must be between 1 and 5, got %d", *p.Mood)
	}
	return nil
}

// Apply returns c with the patch merged in.
func (p CompletionPatch) Apply(c Completion) Completion {
	if p.Completed != nil {
		c.Completed = *p.Completed
	}
	if p.Note != nil {
		c.Note = *p.Note
	}
	if p.Mood != nil {
		m := *p.Mood
		c.Mood = &m
	}
	return c
}

// ValidateSettings checks the enumerated settings fields.
func ValidateSettings(s Settings) error {
	if s.Theme != "light" && s.Theme != "dark" {
		return apperr.Validation("theme", "must be light or dark, got %q", s.Theme)
	}
	if s.StartOfWeek != "sunday" && s.StartOfWeek != "monday" {
		return apperr.Validation("startOfWeek", "must be sunday or monday, got %q", s.StartOfWeek)
	}
	return nil
}
