package cli

import (
	"fmt"
	"time"
)

type StatsCmd struct {
	Habit string `arg:"" optional:"" help:"Habit id or name. Shows the overview when omitted."`
}

func (c *StatsCmd) Run(ctx *Context) error {
	today := ctx.Gateway.Today()
	engine := ctx.Gateway.Stats()

	if c.Habit != "" {
		h, err := findHabit(ctx, c.Habit)
		if err != nil {
			return err
		}
		s := engine.HabitStats(h.ID, today)
		ctx.printf("%s %s\n", h.Icon, h.Name)
		ctx.printf("  total completions  %d\n", s.TotalCompletions)
		ctx.printf("  current streak     %d\n", s.CurrentStreak)
		ctx.printf("  last 7 days        %d/%d (%d%%)\n", s.WeeklyProgress.Completed, s.WeeklyProgress.Total, s.WeeklyProgress.Percentage)
		ctx.printf("  last 30 days       %d/%d (%d%%)\n", s.MonthlyProgress.Completed, s.MonthlyProgress.Total, s.MonthlyProgress.Percentage)
		ctx.printf("  completion rate    %d%%\n", s.CompletionRate)
		return nil
	}

	overall := engine.Overall(today)
	ctx.printf("Habits: %d (%d active)\n", overall.TotalHabits, overall.ActiveHabits)
	ctx.printf("Today: %d/%d (%d%%)\n", overall.CompletedToday, overall.ActiveHabits, overall.TodayProgress)
	ctx.printf("Days tracking: %d\n", engine.DaysTracking(today))
	ctx.printf("Best current streak: %d\n", engine.LongestStreakAcrossHabits(today))
	ctx.printf("Perfect days: %d, perfect weeks: %d\n", len(engine.PerfectDays()), engine.PerfectWeeks(today))
	if d, ok := engine.MostProductiveDay(); ok {
		ctx.printf("Most productive day: %s (%d)\n", d.Date, d.Count)
	}
	if best := engine.BestDayOfWeek(); best.Count > 0 {
		ctx.printf("Best weekday: %s (%d)\n", best.Day, best.Count)
	}
	split := engine.MorningEvening()
	ctx.printf("Morning/evening: %d/%d (%d%% mornings)\n", split.Morning, split.Evening, split.MorningPercentage)

	if cats := engine.CategoryBreakdown(); len(cats) > 0 {
		ctx.printf("\nBy category:\n")
		w := ctx.table()
		for _, cat := range cats {
			fmt.Fprintf(w, "  %s\t%d\n", cat.Name, cat.Completions)
		}
		if err := w.Flush(); err != nil {
			return err
		}
	}

	rows := engine.Performance(today)
	if len(rows) > 0 {
		ctx.printf("\nPerformance:\n")
		w := ctx.table()
		for _, r := range rows {
			fmt.Fprintf(w, "  %s %s\t%d%%\t%d streak\n", r.Habit.Icon, r.Habit.Name, r.CompletionRate, r.CurrentStreak)
		}
		return w.Flush()
	}
	return nil
}

type MonthCmd struct {
	Month string `arg:"" optional:"" help:"Month as YYYY-MM (default current)."`
}

func (c *MonthCmd) Run(ctx *Context) error {
	t := ctx.Now()
	if c.Month != "" {
		parsed, err := time.Parse("2006-01", c.Month)
		if err != nil {
			return fmt.Errorf("month must be YYYY-MM, got %q", c.Month)
		}
		t = parsed
	}
	s := ctx.Gateway.Stats().Month(t.Year(), t.Month())
	ctx.printf("%s %d\n", s.Month, s.Year)
	ctx.printf("  completion rate   %d%%\n", s.CompletionRate)
	ctx.printf("  completions       %d\n", s.TotalCompletions)
	ctx.printf("  streaks started   %d\n", s.StreaksStarted)
	ctx.printf("  streaks broken    %d\n", s.StreaksBroken)
	ctx.printf("  perfect days      %v\n", s.PerfectDays)
	return nil
}

type AchievementsCmd struct {
	Locked bool `short:"l" help:"Also list locked badges."`
}

func (c *AchievementsCmd) Run(ctx *Context) error {
	res := ctx.Gateway.Achievements()
	ctx.printf("%d of %d unlocked (%d%%)\n", len(res.Unlocked), len(res.Unlocked)+len(res.Locked), res.Progress())
	for _, b := range res.Unlocked {
		ctx.printf("  %s %s - %s\n", b.Icon, b.Name, b.Description)
	}
	if c.Locked {
		for _, b := range res.Locked {
			ctx.printf("  %s %s (locked) - %s\n", check(false), b.Name, b.Description)
		}
	}
	return nil
}
