package cli

import (
	"fmt"
	"strings"

	"github.com/atinyakov/Perseverance/internal/models"
)

type TodayCmd struct{}

func (c *TodayCmd) Run(ctx *Context) error {
	today := ctx.Gateway.Today()
	active := ctx.Gateway.ActiveHabits()
	if len(active) == 0 {
		ctx.printf("No active habits. Add one with `habit add`.\n")
		return nil
	}

	engine := ctx.Gateway.Stats()
	overall := engine.Overall(today)
	ctx.printf("%s  %d/%d done (%d%%)\n\n", today, overall.CompletedToday, overall.ActiveHabits, overall.TodayProgress)

	w := ctx.table()
	for _, h := range active {
		fmt.Fprintf(w, "%s\t%s %s\t%d day streak\t%s\n",
			check(ctx.Gateway.IsHabitCompleteForDate(h.ID, today)), h.Icon, h.Name,
			engine.CurrentStreak(h.ID, today), h.ID)
	}
	if err := w.Flush(); err != nil {
		return err
	}

	if due, err := ctx.Gateway.Reminder().ShouldRemind(ctx.Now()); err == nil && due {
		ctx.printf("\nIt has been a while since your last backup. Run `backup export`.\n")
	}
	return nil
}

type HabitAddCmd struct {
	Name        string `arg:"" optional:"" help:"Habit name. Prompts for all fields when omitted."`
	Template    string `short:"t" help:"Create from a template id (see templates)."`
	Description string `short:"D" help:"Description."`
	Category    string `short:"c" help:"Category."`
	Color       string `help:"Color as #RRGGBB."`
	Icon        string `short:"i" help:"Icon."`
	Frequency   string `short:"f" help:"Frequency (daily|weekly|custom)."`
	Target      int    `short:"n" help:"Target days per week (1-7)."`
}

func (c *HabitAddCmd) Run(ctx *Context) error {
	var (
		h   models.Habit
		err error
	)
	switch {
	case c.Template != "":
		h, err = ctx.Gateway.AddTemplate(ctx, c.Template)
	case c.Name == "":
		h, err = ctx.Gateway.AddHabit(ctx, ctx.Prompt.Habit())
	default:
		h, err = ctx.Gateway.AddHabit(ctx, models.Habit{
			Name:        c.Name,
			Description: c.Description,
			Category:    c.Category,
			Color:       c.Color,
			Icon:        c.Icon,
			Frequency:   models.Frequency(c.Frequency),
			Target:      c.Target,
		})
	}
	if err != nil {
		return err
	}
	ctx.printf("Created %s %s (%s)\n", h.Icon, h.Name, h.ID)
	return nil
}

type HabitListCmd struct {
	All bool `short:"a" help:"Include paused habits."`
}

func (c *HabitListCmd) Run(ctx *Context) error {
	habits := ctx.Gateway.ActiveHabits()
	if c.All {
		habits = ctx.Gateway.Habits()
	}
	if len(habits) == 0 {
		ctx.printf("No habits.\n")
		return nil
	}
	w := ctx.table()
	fmt.Fprintln(w, "ID\tNAME\tCATEGORY\tFREQUENCY\tTARGET\tSTATUS")
	for _, h := range habits {
		status := "active"
		if !h.IsActive {
			status = "paused"
		}
		fmt.Fprintf(w, "%s\t%s %s\t%s\t%s\t%d\t%s\n",
			h.ID, h.Icon, h.Name, models.CategoryName(h.Category), h.Frequency, h.Target, status)
	}
	return w.Flush()
}

type HabitEditCmd struct {
	Habit       string  `arg:"" help:"Habit id or name."`
	Name        *string `help:"New name."`
	Description *string `short:"D" help:"New description."`
	Category    *string `short:"c" help:"New category."`
	Color       *string `help:"New color."`
	Icon        *string `short:"i" help:"New icon."`
	Frequency   *string `short:"f" help:"New frequency."`
	Target      *int    `short:"n" help:"New weekly target."`
}

func (c *HabitEditCmd) Run(ctx *Context) error {
	h, err := findHabit(ctx, c.Habit)
	if err != nil {
		return err
	}
	patch := models.HabitPatch{
		Name:        c.Name,
		Description: c.Description,
		Category:    c.Category,
		Color:       c.Color,
		Icon:        c.Icon,
		Target:      c.Target,
	}
	if c.Frequency != nil {
		f := models.Frequency(*c.Frequency)
		patch.Frequency = &f
	}
	updated, err := ctx.Gateway.UpdateHabit(ctx, h.ID, patch)
	if err != nil {
		return err
	}
	ctx.printf("Updated %s\n", updated.Name)
	return nil
}

type HabitArchiveCmd struct {
	Habit string `arg:"" help:"Habit id or name."`
}

func (c *HabitArchiveCmd) Run(ctx *Context) error {
	h, err := findHabit(ctx, c.Habit)
	if err != nil {
		return err
	}
	updated, err := ctx.Gateway.ToggleActive(ctx, h.ID)
	if err != nil {
		return err
	}
	if updated.IsActive {
		ctx.printf("Resumed %s\n", updated.Name)
	} else {
		ctx.printf("Paused %s\n", updated.Name)
	}
	return nil
}

type HabitDeleteCmd struct {
	Habit string `arg:"" help:"Habit id or name."`
	Yes   bool   `short:"y" help:"Do not ask for confirmation."`
}

func (c *HabitDeleteCmd) Run(ctx *Context) error {
	h, err := findHabit(ctx, c.Habit)
	if err != nil {
		return err
	}
	if !c.Yes && !ctx.Prompt.Confirm(fmt.Sprintf("Delete %q and all of its history?", h.Name)) {
		ctx.printf("Cancelled\n")
		return nil
	}
	if err := ctx.Gateway.DeleteHabit(ctx, h.ID); err != nil {
		return err
	}
	ctx.printf("Deleted %s\n", h.Name)
	return nil
}

type TemplatesCmd struct{}

func (c *TemplatesCmd) Run(ctx *Context) error {
	w := ctx.table()
	fmt.Fprintln(w, "ID\tNAME\tCATEGORY\tTARGET")
	for _, t := range models.Templates {
		fmt.Fprintf(w, "%s\t%s %s\t%s\t%d\n", t.ID, t.Icon, t.Name, models.CategoryName(t.Category), t.Target)
	}
	if err := w.Flush(); err != nil {
		return err
	}
	ids := make([]string, 0, len(models.Categories))
	for _, cat := range models.Categories {
		ids = append(ids, cat.ID)
	}
	ctx.printf("\nCategories: %s\n", strings.Join(ids, ", "))
	return nil
}
