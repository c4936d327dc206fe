// Package achievements maps aggregate statistics onto the fixed badge catalog.
package achievements

import (
	"github.com/atinyakov/Perseverance/internal/stats"
)

// Snapshot is the aggregate input every badge predicate reads.
type Snapshot struct {
	TotalHabits        int `json:"totalHabits"`
	TotalCompletions   int `json:"totalCompletions"`
	DaysTracking       int `json:"daysTracking"`
	LongestStreak      int `json:"longestStreak"`
	PerfectDays        int `json:"perfectDays"`
	CompletionRate     int `json:"completionRate"`
	MorningCompletions int `json:"morningCompletions"`
	EveningCompletions int `json:"eveningCompletions"`
}

// Badge is one catalog entry.
type Badge struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	Description string `json:"description"`
	Icon        string `json:"icon"`

	unlocked func(Snapshot) bool
}

// Unlocked reports whether s satisfies the badge.
func (b Badge) Unlocked(s Snapshot) bool { return b.unlocked(s) }

var catalog = []Badge{
	{"first-habit", "First Steps", "Create your first habit", "🎯",
		func(s Snapshot) bool { return s.TotalHabits >= 1 }},
	{"five-habits", "Building Momentum", "Create 5 habits", "🚀",
		func(s Snapshot) bool { return s.TotalHabits >= 5 }},
	{"first-week", "Week Warrior", "Track habits for 7 days", "📅",
		func(s Snapshot) bool { return s.DaysTracking >= 7 }},
	{"first-month", "Monthly Master", "Track habits for 30 days", "🏆",
		func(s Snapshot) bool { return s.DaysTracking >= 30 }},
	{"hundred-days", "Century Club", "Track habits for 100 days", "💯",
		func(s Snapshot) bool { return s.DaysTracking >= 100 }},
	{"perfect-day", "Perfect Day", "Complete all habits in a day", "⭐",
		func(s Snapshot) bool { return s.PerfectDays >= 1 }},
	{"ten-perfect", "Perfection Seeker", "Achieve 10 perfect days", "🌟",
		func(s Snapshot) bool { return s.PerfectDays >= 10 }},
	{"week-streak", "On Fire", "Maintain a 7-day streak", "🔥",
		func(s Snapshot) bool { return s.LongestStreak >= 7 }},
	{"month-streak", "Unstoppable", "Maintain a 30-day streak", "⚡",
		func(s Snapshot) bool { return s.LongestStreak >= 30 }},
	{"fifty-completions", "Half Century", "Complete 50 habits", "🎊",
		func(s Snapshot) bool { return s.TotalCompletions >= 50 }},
	{"hundred-completions", "Completion Champion", "Complete 100 habits", "🎉",
		func(s Snapshot) bool { return s.TotalCompletions >= 100 }},
	{"five-hundred-completions", "Legend", "Complete 500 habits", "👑",
		func(s Snapshot) bool { return s.TotalCompletions >= 500 }},
	{"high-completion-rate", "Consistency King", "Achieve 80% completion rate", "💪",
		func(s Snapshot) bool { return s.CompletionRate >= 80 }},
	{"early-bird", "Early Bird", "Complete 10 morning habits", "🌅",
		func(s Snapshot) bool { return s.MorningCompletions >= 10 }},
	{"night-owl", "Night Owl", "Complete 10 evening habits", "🌙",
		func(s Snapshot) bool { return s.EveningCompletions >= 10 }},
}

// Catalog returns the badges in display order.
func Catalog() []Badge {
	return append([]Badge(nil), catalog...)
}

// Result partitions the catalog. Both slices keep catalog order.
type Result struct {
	Unlocked []Badge `json:"unlocked"`
	Locked   []Badge `json:"locked"`
}

// Evaluate checks every badge against s.
func Evaluate(s Snapshot) Result {
	r := Result{Unlocked: []Badge{}, Locked: []Badge{}}
	for _, b := range catalog {
		if b.unlocked(s) {
			r.Unlocked = append(r.Unlocked, b)
		} else {
			r.Locked = append(r.Locked, b)
		}
	}
	return r
}

// Progress is the unlocked share of the catalog, rounded half-up.
func (r Result) Progress() int {
	return stats.Percent(len(r.Unlocked), len(r.Unlocked)+len(r.Locked))
}

// Build derives a Snapshot from the statistics engine as of today.
// The completion rate is completions over habits times tracked days.
func Build(e *stats.Engine, today string) Snapshot {
	s := Snapshot{
		TotalHabits:   e.HabitCount(),
		DaysTracking:  e.DaysTracking(today),
		LongestStreak: e.LongestActivityRun(today),
		PerfectDays:   len(e.PerfectDays()),
	}
	s.TotalCompletions = e.CompletedCount()
	s.MorningCompletions, s.EveningCompletions = e.EarlyAndLate()
	s.CompletionRate = stats.Percent(s.TotalCompletions, s.TotalHabits*s.DaysTracking)
	return s
}
