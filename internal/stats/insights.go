package stats

import (
	"sort"
	"time"

	"github.com/atinyakov/Perseverance/internal/models"
)

// DayCount pairs a calendar day with a number of completions.
type DayCount struct {
	Date  string `json:"date"`
	Count int    `json:"count"`
}

// MostProductiveDay returns the date with the most completed records.
// Ties go to the earliest date. ok is false when nothing is completed.
func (e *Engine) MostProductiveDay() (DayCount, bool) {
	counts := make(map[string]int)
	for _, days := range e.done {
		for d := range days {
			counts[d]++
		}
	}
	var best DayCount
	for d, n := range counts {
		if n > best.Count || (n == best.Count && d < best.Date) {
			best = DayCount{Date: d, Count: n}
		}
	}
	return best, best.Count > 0
}

// PerfectWeeks counts, over the last 52 seven-day blocks ending today,
// the blocks in which every day had at least as many completions as
// there are active habits.
func (e *Engine) PerfectWeeks(today string) int {
	active := e.activeHabitCount()
	if active == 0 {
		return 0
	}
	t, err := models.ParseDate(today)
	if err != nil {
		return 0
	}
	perDay := make(map[string]int)
	for _, days := range e.done {
		for d := range days {
			perDay[d]++
		}
	}

	perfect := 0
	for w := 0; w < 52; w++ {
		end := t.AddDate(0, 0, -w*7)
		ok := true
		for d := 0; d < 7; d++ {
			if perDay[models.FormatDate(end.AddDate(0, 0, -d))] < active {
				ok = false
				break
			}
		}
		if ok {
			perfect++
		}
	}
	return perfect
}

// CategoryCount is the number of completed records for a category.
type CategoryCount struct {
	Category    string `json:"category"`
	Name        string `json:"name"`
	Completions int    `json:"completions"`
}

// CategoryBreakdown totals completions per habit category in order of
// first appearance among the habits.
func (e *Engine) CategoryBreakdown() []CategoryCount {
	index := make(map[string]int)
	var out []CategoryCount
	for _, h := range e.habits {
		i, ok := index[h.Category]
		if !ok {
			i = len(out)
			index[h.Category] = i
			out = append(out, CategoryCount{Category: h.Category, Name: models.CategoryName(h.Category)})
		}
		out[i].Completions += len(e.done[h.ID])
	}
	return out
}

// WeekdayCount is the number of completed records falling on a weekday.
type WeekdayCount struct {
	Day   time.Weekday `json:"day"`
	Count int          `json:"count"`
}

// BestDayOfWeek returns the weekday with the most completions. Ties go
// to the earlier weekday, Sunday first.
func (e *Engine) BestDayOfWeek() WeekdayCount {
	var counts [7]int
	for _, days := range e.done {
		for d := range days {
			t, err := models.ParseDate(d)
			if err != nil {
				continue
			}
			counts[t.Weekday()]++
		}
	}
	best := WeekdayCount{Day: time.Sunday, Count: counts[0]}
	for wd := time.Monday; wd <= time.Saturday; wd++ {
		if counts[wd] > best.Count {
			best = WeekdayCount{Day: wd, Count: counts[wd]}
		}
	}
	return best
}

// TimeSplit divides completed records by the hour they were marked.
type TimeSplit struct {
	Morning           int `json:"morning"`
	Evening           int `json:"evening"`
	MorningPercentage int `json:"morningPercentage"`
}

// MorningEvening splits completions at noon. MorningPercentage is 50
// when there is nothing to split.
func (e *Engine) MorningEvening() TimeSplit {
	var s TimeSplit
	for _, c := range e.completions {
		if !c.Completed || c.Timestamp.IsZero() {
			continue
		}
		if c.Timestamp.In(e.loc).Hour() < 12 {
			s.Morning++
		} else {
			s.Evening++
		}
	}
	s.MorningPercentage = 50
	if total := s.Morning + s.Evening; total > 0 {
		s.MorningPercentage = Percent(s.Morning, total)
	}
	return s
}

// EarlyAndLate counts completed records marked in [05:00, 12:00) and
// [18:00, 24:00) local time.
func (e *Engine) EarlyAndLate() (early, late int) {
	for _, c := range e.completions {
		if !c.Completed || c.Timestamp.IsZero() {
			continue
		}
		h := c.Timestamp.In(e.loc).Hour()
		switch {
		case h >= 5 && h < 12:
			early++
		case h >= 18:
			late++
		}
	}
	return early, late
}

// MonthSummary describes one calendar month.
type MonthSummary struct {
	Year             int        `json:"year"`
	Month            time.Month `json:"month"`
	CompletionRate   int        `json:"completionRate"`
	TotalCompletions int        `json:"totalCompletions"`
	StreaksStarted   int        `json:"streaksStarted"`
	StreaksBroken    int        `json:"streaksBroken"`
	PerfectDays      []int      `json:"perfectDays"`
}

// Month summarizes the given month against the currently active habits.
func (e *Engine) Month(year int, month time.Month) MonthSummary {
	s := MonthSummary{Year: year, Month: month}
	first := time.Date(year, month, 1, 0, 0, 0, 0, time.UTC)
	daysIn := first.AddDate(0, 1, -1).Day()
	prefix := first.Format("2006-01-")

	var active []models.Habit
	for _, h := range e.habits {
		if h.IsActive {
			active = append(active, h)
		}
	}

	inMonth := func(d string) (int, bool) {
		t, err := models.ParseDate(d)
		if err != nil || t.Year() != year || t.Month() != month {
			return 0, false
		}
		return t.Day(), true
	}

	for _, days := range e.done {
		for d := range days {
			if _, ok := inMonth(d); ok {
				s.TotalCompletions++
			}
		}
	}
	s.CompletionRate = Percent(s.TotalCompletions, daysIn*len(active))

	for _, h := range active {
		var dom []int
		for d := range e.done[h.ID] {
			if day, ok := inMonth(d); ok {
				dom = append(dom, day)
			}
		}
		sort.Ints(dom)
		for i, day := range dom {
			if i == 0 || day != dom[i-1]+1 {
				s.StreaksStarted++
			}
			if i > 0 && day != dom[i-1]+1 {
				s.StreaksBroken++
			}
		}
	}

	if len(active) > 0 {
		perDay := e.completedPerDate()
		for day := 1; day <= daysIn; day++ {
			if perDay[prefix+twoDigits(day)] == len(active) {
				s.PerfectDays = append(s.PerfectDays, day)
			}
		}
	}
	return s
}

func twoDigits(n int) string {
	return string([]byte{byte('0' + n/10), byte('0' + n%10)})
}

// HabitRow is a habit with its stats, used for ranked listings.
type HabitRow struct {
	Habit models.Habit `json:"habit"`
	HabitStats
}

// Performance ranks habits by completion rate, best first.
func (e *Engine) Performance(today string) []HabitRow {
	rows := make([]HabitRow, 0, len(e.habits))
	for _, h := range e.habits {
		rows = append(rows, HabitRow{Habit: h, HabitStats: e.HabitStats(h.ID, today)})
	}
	sort.SliceStable(rows, func(i, j int) bool {
		return rows[i].CompletionRate > rows[j].CompletionRate
	})
	return rows
}
