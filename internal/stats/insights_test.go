package stats

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/atinyakov/Perseverance/internal/models"
)

func at(c models.Completion, hour int) models.Completion {
	d, _ := models.ParseDate(c.Date)
	c.Timestamp = d.Add(time.Duration(hour) * time.Hour)
	return c
}

func TestMostProductiveDay(t *testing.T) {
	e := New(
		[]models.Habit{habit("a", "2024-01-01"), habit("b", "2024-01-01")},
		[]models.Completion{done("a", "2024-03-02"), done("b", "2024-03-02"), done("a", "2024-03-01"), done("b", "2024-03-01"), done("a", "2024-03-05")},
		nil,
	)
	got, ok := e.MostProductiveDay()
	assert.True(t, ok)
	assert.Equal(t, DayCount{Date: "2024-03-01", Count: 2}, got)

	_, ok = New(nil, nil, nil).MostProductiveDay()
	assert.False(t, ok)
}

func TestPerfectWeeks(t *testing.T) {
	var cs []models.Completion
	for i := 0; i < 7; i++ {
		cs = append(cs, done("a", daysAgo(i)))
	}
	// second block missing one day
	for i := 7; i < 13; i++ {
		cs = append(cs, done("a", daysAgo(i)))
	}
	e := New([]models.Habit{habit("a", "2023-01-01")}, cs, nil)
	assert.Equal(t, 1, e.PerfectWeeks(today))

	assert.Equal(t, 0, New(nil, nil, nil).PerfectWeeks(today))
}

func TestCategoryBreakdown(t *testing.T) {
	learn := habit("l", "2024-01-01")
	learn.Category = "learning"
	custom := habit("x", "2024-01-01")
	custom.Category = "chess"
	e := New(
		[]models.Habit{habit("a", "2024-01-01"), learn, habit("b", "2024-01-01"), custom},
		[]models.Completion{done("a", today), done("b", today), done("l", today), {HabitID: "l", Date: daysAgo(1)}},
		nil,
	)
	assert.Equal(t, []CategoryCount{
		{Category: "health", Name: "Health & Fitness", Completions: 2},
		{Category: "learning", Name: "Learning", Completions: 1},
		{Category: "chess", Name: "chess", Completions: 0},
	}, e.CategoryBreakdown())
}

func TestBestDayOfWeek(t *testing.T) {
	// 2024-03-15 is a Friday
	e := New([]models.Habit{habit("a", "2024-01-01"), habit("b", "2024-01-01")}, []models.Completion{
		done("a", today), done("b", today), done("a", daysAgo(7)), done("a", daysAgo(1)),
	}, nil)
	assert.Equal(t, WeekdayCount{Day: time.Friday, Count: 3}, e.BestDayOfWeek())

	assert.Equal(t, WeekdayCount{Day: time.Sunday}, New(nil, nil, nil).BestDayOfWeek())
}

func TestMorningEveningAndEarlyLate(t *testing.T) {
	h := []models.Habit{habit("a", "2024-01-01")}
	e := New(h, []models.Completion{
		at(done("a", daysAgo(1)), 4),  // morning, not early
		at(done("a", daysAgo(2)), 7),  // morning, early
		at(done("a", daysAgo(3)), 13), // evening, neither
		at(done("a", daysAgo(4)), 19), // evening, late
		at(done("a", daysAgo(5)), 23), // evening, late
		done("a", daysAgo(6)),         // no timestamp
		at(models.Completion{HabitID: "a", Date: daysAgo(7)}, 8),
	}, nil)

	assert.Equal(t, TimeSplit{Morning: 2, Evening: 3, MorningPercentage: 40}, e.MorningEvening())
	early, late := e.EarlyAndLate()
	assert.Equal(t, 1, early)
	assert.Equal(t, 2, late)

	assert.Equal(t, 50, New(nil, nil, nil).MorningEvening().MorningPercentage)
}

func TestEarlyAndLate_UsesLocation(t *testing.T) {
	loc := time.FixedZone("UTC-8", -8*3600)
	c := done("a", today)
	c.Timestamp = time.Date(2024, 3, 15, 15, 0, 0, 0, time.UTC) // 07:00 local
	e := New([]models.Habit{habit("a", "2024-01-01")}, []models.Completion{c}, loc)
	early, late := e.EarlyAndLate()
	assert.Equal(t, 1, early)
	assert.Equal(t, 0, late)
}

func TestMonth(t *testing.T) {
	archived := habit("z", "2024-01-01")
	archived.IsActive = false
	e := New(
		[]models.Habit{habit("a", "2024-01-01"), habit("b", "2024-01-01"), archived},
		[]models.Completion{
			done("a", "2024-02-01"), done("a", "2024-02-02"), done("a", "2024-02-04"),
			done("b", "2024-02-02"),
			done("a", "2024-03-01"),
		},
		nil,
	)
	got := e.Month(2024, time.February)

	assert.Equal(t, 4, got.TotalCompletions)
	// 4 / (29 days * 2 habits)
	assert.Equal(t, 7, got.CompletionRate)
	assert.Equal(t, 3, got.StreaksStarted)
	assert.Equal(t, 1, got.StreaksBroken)
	assert.Equal(t, []int{2}, got.PerfectDays)
}

func TestPerformance_SortedByRate(t *testing.T) {
	e := New(
		[]models.Habit{habit("low", daysAgo(10)), habit("high", daysAgo(1))},
		[]models.Completion{done("low", today), done("high", today)},
		nil,
	)
	rows := e.Performance(today)
	if assert.Len(t, rows, 2) {
		assert.Equal(t, "high", rows[0].Habit.ID)
		assert.Equal(t, 100, rows[0].CompletionRate)
		assert.Equal(t, 10, rows[1].CompletionRate)
	}
}
