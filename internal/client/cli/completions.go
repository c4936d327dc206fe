package cli

import (
	"fmt"

	"github.com/atinyakov/Perseverance/internal/models"
)

type MarkCmd struct {
	Habit string  `arg:"" help:"Habit id or name."`
	Date  string  `short:"d" help:"Day as YYYY-MM-DD (default today)."`
	Note  *string `short:"m" help:"Note to store with the completion."`
}

func (c *MarkCmd) Run(ctx *Context) error {
	h, err := findHabit(ctx, c.Habit)
	if err != nil {
		return err
	}
	comp, err := ctx.Gateway.MarkCompletion(ctx, h.ID, c.Date, c.Note)
	if err != nil {
		return err
	}
	if comp.Completed {
		ctx.printf("%s %s done for %s\n", check(true), h.Name, comp.Date)
	} else {
		ctx.printf("%s %s not done for %s\n", check(false), h.Name, comp.Date)
	}
	return nil
}

type NoteCmd struct {
	Habit string  `arg:"" help:"Habit id or name."`
	Date  string  `short:"d" help:"Day as YYYY-MM-DD (default today)."`
	Note  *string `short:"m" help:"Note text."`
	Mood  *int    `help:"Mood from 1 to 5."`
}

func (c *NoteCmd) Run(ctx *Context) error {
	if c.Note == nil && c.Mood == nil {
		return fmt.Errorf("nothing to change, pass --note or --mood")
	}
	comp, err := completionFor(ctx, c.Habit, c.Date)
	if err != nil {
		return err
	}
	if _, err := ctx.Gateway.UpdateCompletion(ctx, comp.ID, models.CompletionPatch{Note: c.Note, Mood: c.Mood}); err != nil {
		return err
	}
	ctx.printf("Saved\n")
	return nil
}

type UnmarkCmd struct {
	Habit string `arg:"" help:"Habit id or name."`
	Date  string `short:"d" help:"Day as YYYY-MM-DD (default today)."`
}

func (c *UnmarkCmd) Run(ctx *Context) error {
	comp, err := completionFor(ctx, c.Habit, c.Date)
	if err != nil {
		return err
	}
	if err := ctx.Gateway.DeleteCompletion(ctx, comp.ID); err != nil {
		return err
	}
	ctx.printf("Removed the record for %s\n", comp.Date)
	return nil
}

type HistoryCmd struct {
	Habit string `arg:"" help:"Habit id or name."`
	Limit int    `short:"l" default:"14" help:"Number of records to show."`
}

func (c *HistoryCmd) Run(ctx *Context) error {
	h, err := findHabit(ctx, c.Habit)
	if err != nil {
		return err
	}
	records := ctx.Gateway.CompletionsForHabit(h.ID)
	if len(records) == 0 {
		ctx.printf("No history for %s\n", h.Name)
		return nil
	}
	if c.Limit > 0 && len(records) > c.Limit {
		records = records[:c.Limit]
	}
	w := ctx.table()
	for _, r := range records {
		mood := ""
		if r.Mood != nil {
			mood = fmt.Sprintf("mood %d", *r.Mood)
		}
		fmt.Fprintf(w, "%s\t%s\t%s\t%s\n", r.Date, check(r.Completed), mood, r.Note)
	}
	return w.Flush()
}

// completionFor finds the record of habitRef on date (today when empty).
func completionFor(ctx *Context, habitRef, date string) (models.Completion, error) {
	h, err := findHabit(ctx, habitRef)
	if err != nil {
		return models.Completion{}, err
	}
	if date == "" {
		date = ctx.Gateway.Today()
	}
	for _, comp := range ctx.Gateway.CompletionsForDate(date) {
		if comp.HabitID == h.ID {
			return comp, nil
		}
	}
	return models.Completion{}, fmt.Errorf("%s has no record for %s", h.Name, date)
}
