// Package stats derives streaks, progress and completion rates from habits
// and completions. Every function is pure and recomputed on each call;
// degenerate inputs yield 0 rather than errors.
package stats

import (
	"sort"
	"time"

	"github.com/atinyakov/Perseverance/internal/models"
)

const (
	weekDays  = 7
	monthDays = 30
	// ActivityWindow bounds the backward scan used for achievement streaks.
	ActivityWindow = 365
)

// Progress is a completed/total ratio over a trailing window.
type Progress struct {
	Completed  int `json:"completed"`
	Total      int `json:"total"`
	Percentage int `json:"percentage"`
}

// HabitStats summarizes a single habit.
type HabitStats struct {
	TotalCompletions int      `json:"totalCompletions"`
	CurrentStreak    int      `json:"currentStreak"`
	WeeklyProgress   Progress `json:"weeklyProgress"`
	MonthlyProgress  Progress `json:"monthlyProgress"`
	CompletionRate   int      `json:"completionRate"`
}

// Overall is the dashboard summary for today.
type Overall struct {
	TotalHabits    int `json:"totalHabits"`
	ActiveHabits   int `json:"activeHabits"`
	CompletedToday int `json:"completedToday"`
	TodayProgress  int `json:"todayProgress"`
}

// Engine answers statistics queries over a fixed view of the data.
// Completions whose habit is missing are dropped on construction.
type Engine struct {
	habits      []models.Habit
	completions []models.Completion
	byID        map[string]models.Habit
	// done[habitID][date] is set for completed records.
	done map[string]map[string]bool
	loc  *time.Location
}

// New builds an Engine. Time-of-day analytics use loc (UTC when nil).
func New(habits []models.Habit, completions []models.Completion, loc *time.Location) *Engine {
	if loc == nil {
		loc = time.UTC
	}
	e := &Engine{
		habits: habits,
		byID:   make(map[string]models.Habit, len(habits)),
		done:   make(map[string]map[string]bool, len(habits)),
		loc:    loc,
	}
	for _, h := range habits {
		e.byID[h.ID] = h
	}
	for _, c := range completions {
		if _, ok := e.byID[c.HabitID]; !ok {
			continue
		}
		e.completions = append(e.completions, c)
		if !c.Completed {
			continue
		}
		days := e.done[c.HabitID]
		if days == nil {
			days = make(map[string]bool)
			e.done[c.HabitID] = days
		}
		days[c.Date] = true
	}
	return e
}

// Today returns the calendar day of now in the engine's location.
func (e *Engine) Today(now time.Time) string {
	return models.FormatDate(now.In(e.loc))
}

// Percent rounds num/den*100 half-up. It returns 0 when den <= 0.
func Percent(num, den int) int {
	if den <= 0 || num <= 0 {
		return 0
	}
	return (200*num + den) / (2 * den)
}

// CurrentStreak counts consecutive completed days ending today. It is 0
// whenever today itself is not completed.
func (e *Engine) CurrentStreak(habitID, today string) int {
	days := e.done[habitID]
	if len(days) == 0 {
		return 0
	}
	t, err := models.ParseDate(today)
	if err != nil {
		return 0
	}
	streak := 0
	for days[models.FormatDate(t)] {
		streak++
		t = t.AddDate(0, 0, -1)
	}
	return streak
}

// WeeklyProgress covers today and the 6 prior days. The habit's target
// does not change the denominator.
func (e *Engine) WeeklyProgress(habitID, today string) Progress {
	return e.trailing(habitID, today, weekDays)
}

// MonthlyProgress covers today and the 29 prior days.
func (e *Engine) MonthlyProgress(habitID, today string) Progress {
	return e.trailing(habitID, today, monthDays)
}

func (e *Engine) trailing(habitID, today string, window int) Progress {
	p := Progress{Total: window}
	t, err := models.ParseDate(today)
	if err != nil {
		return p
	}
	days := e.done[habitID]
	for i := 0; i < window; i++ {
		if days[models.FormatDate(t.AddDate(0, 0, -i))] {
			p.Completed++
		}
	}
	p.Percentage = Percent(p.Completed, p.Total)
	return p
}

// TotalCompletions counts the habit's completed records.
func (e *Engine) TotalCompletions(habitID string) int {
	return len(e.done[habitID])
}

// HabitStats reports the per-habit summary. The completion rate divides
// by whole days elapsed since createdDate and is 0 until a full day has
// passed. Backfilled completions can push it above 100.
func (e *Engine) HabitStats(habitID, today string) HabitStats {
	total := e.TotalCompletions(habitID)
	st := HabitStats{
		TotalCompletions: total,
		CurrentStreak:    e.CurrentStreak(habitID, today),
		WeeklyProgress:   e.WeeklyProgress(habitID, today),
		MonthlyProgress:  e.MonthlyProgress(habitID, today),
	}
	h, ok := e.byID[habitID]
	if !ok {
		return st
	}
	elapsed, err := models.DaysBetween(h.CreatedDate, today)
	if err != nil {
		return st
	}
	if elapsed <= 0 {
		return st
	}
	st.CompletionRate = Percent(total, elapsed)
	return st
}

// Overall summarizes today across active habits.
func (e *Engine) Overall(today string) Overall {
	o := Overall{TotalHabits: len(e.habits)}
	for _, h := range e.habits {
		if !h.IsActive {
			continue
		}
		o.ActiveHabits++
		if e.done[h.ID][today] {
			o.CompletedToday++
		}
	}
	o.TodayProgress = Percent(o.CompletedToday, o.ActiveHabits)
	return o
}

// LongestStreakAcrossHabits is the best current streak among all habits.
func (e *Engine) LongestStreakAcrossHabits(today string) int {
	best := 0
	for _, h := range e.habits {
		best = max(best, e.CurrentStreak(h.ID, today))
	}
	return best
}

// LongestActivityRun scans the last ActivityWindow days, today included,
// for the longest run of days with at least one completed record.
func (e *Engine) LongestActivityRun(today string) int {
	t, err := models.ParseDate(today)
	if err != nil {
		return 0
	}
	active := e.activeDates()
	best, run := 0, 0
	for i := 0; i < ActivityWindow; i++ {
		if active[models.FormatDate(t.AddDate(0, 0, -i))] {
			run++
			best = max(best, run)
		} else {
			run = 0
		}
	}
	return best
}

// activeDates is the set of dates with any completed record.
func (e *Engine) activeDates() map[string]bool {
	out := make(map[string]bool)
	for _, days := range e.done {
		for d := range days {
			out[d] = true
		}
	}
	return out
}

// completedPerDate counts completed records of active habits per date.
func (e *Engine) completedPerDate() map[string]int {
	out := make(map[string]int)
	for _, h := range e.habits {
		if !h.IsActive {
			continue
		}
		for d := range e.done[h.ID] {
			out[d]++
		}
	}
	return out
}

func (e *Engine) activeHabitCount() int {
	n := 0
	for _, h := range e.habits {
		if h.IsActive {
			n++
		}
	}
	return n
}

// PerfectDays lists, in ascending order, the dates on which every active
// habit was completed. With no active habits there are none.
func (e *Engine) PerfectDays() []string {
	active := e.activeHabitCount()
	if active == 0 {
		return nil
	}
	var out []string
	for d, n := range e.completedPerDate() {
		if n == active {
			out = append(out, d)
		}
	}
	sort.Strings(out)
	return out
}

// DaysTracking counts days from the earliest recorded completion through
// today, inclusive. It is 0 when nothing has been recorded.
func (e *Engine) DaysTracking(today string) int {
	first := ""
	for _, c := range e.completions {
		if first == "" || c.Date < first {
			first = c.Date
		}
	}
	if first == "" {
		return 0
	}
	n, err := models.DaysBetween(first, today)
	if err != nil || n < 0 {
		return 0
	}
	return n + 1
}

// CompletedCount is the number of completed records across all habits.
func (e *Engine) CompletedCount() int {
	n := 0
	for _, days := range e.done {
		n += len(days)
	}
	return n
}

// HabitCount is the number of habits, archived ones included.
func (e *Engine) HabitCount() int { return len(e.habits) }
