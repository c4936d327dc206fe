// Package cli implements the perseverance command-line client on top of
// the client gateway.
package cli

import (
	"context"
	"fmt"
	"io"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/alecthomas/kong"

	"github.com/atinyakov/Perseverance/internal/client/gateway"
	"github.com/atinyakov/Perseverance/internal/client/prompt"
	"github.com/atinyakov/Perseverance/internal/models"
)

// Context is passed to every command's Run.
type Context struct {
	context.Context
	Gateway *gateway.Gateway
	Prompt  *prompt.Prompter
	Out     io.Writer
	Now     func() time.Time
}

func (c *Context) printf(format string, args ...any) {
	fmt.Fprintf(c.Out, format, args...)
}

func (c *Context) table() *tabwriter.Writer {
	return tabwriter.NewWriter(c.Out, 0, 4, 2, ' ', 0)
}

// CLI is the kong grammar. Globals are read by main before any command
// runs.
type CLI struct {
	Version      kong.VersionFlag `help:"Show build version and exit."`
	URL          string           `help:"Remote API base URL." env:"PERSEVERANCE_URL" default:"http://localhost:8080/api"`
	Cache        string           `help:"Local cache path." env:"PERSEVERANCE_CACHE" type:"path" default:"~/.perseverance/cache.json"`
	CacheBackend string           `help:"Local cache backend (file|sqlite)." env:"PERSEVERANCE_CACHE_BACKEND" enum:"file,sqlite" default:"file"`
	CA           string           `help:"PEM file with an extra CA to trust for HTTPS." env:"PERSEVERANCE_CA" type:"path"`
	LogLevel     string           `help:"Log level." default:"warn"`

	Today  TodayCmd `cmd:"" help:"Show today's habits and their status." default:"1"`
	Habit  struct {
		Add     HabitAddCmd     `cmd:"" help:"Create a habit."`
		List    HabitListCmd    `cmd:"" help:"List habits."`
		Edit    HabitEditCmd    `cmd:"" help:"Edit a habit."`
		Archive HabitArchiveCmd `cmd:"" help:"Pause or resume a habit."`
		Delete  HabitDeleteCmd  `cmd:"" help:"Delete a habit and its history."`
	} `cmd:"" help:"Manage habits."`
	Templates TemplatesCmd `cmd:"" help:"List quick-start habit templates."`

	Mark    MarkCmd    `cmd:"" help:"Toggle completion of a habit for a day."`
	Note    NoteCmd    `cmd:"" help:"Set the note or mood of a completion."`
	History HistoryCmd `cmd:"" help:"Show the completion history of a habit."`
	Unmark  UnmarkCmd  `cmd:"" help:"Delete a completion record."`

	Stats        StatsCmd        `cmd:"" help:"Show statistics."`
	Month        MonthCmd        `cmd:"" help:"Summarize a calendar month."`
	Achievements AchievementsCmd `cmd:"" help:"Show unlocked and locked badges."`

	Backup struct {
		Export BackupExportCmd `cmd:"" help:"Write a backup file."`
		Import BackupImportCmd `cmd:"" help:"Replace all data with a backup file."`
		Status BackupStatusCmd `cmd:"" help:"Show backup reminder state and history."`
		Snooze BackupSnoozeCmd `cmd:"" help:"Silence the backup reminder for a few days."`
	} `cmd:"" help:"Export and restore data."`
	Clear ClearCmd `cmd:"" help:"Reset local data to the starter habits."`

	Register RegisterCmd `cmd:"" help:"Create an account and sign in."`
	Login    LoginCmd    `cmd:"" help:"Sign in."`
	Logout   LogoutCmd   `cmd:"" help:"Sign out and continue as guest."`
	Whoami   WhoamiCmd   `cmd:"" help:"Show the signed-in account."`
	Settings SettingsCmd `cmd:"" help:"Show or change settings."`
}

// findHabit resolves an id or, failing that, a case-insensitive name.
func findHabit(ctx *Context, ref string) (models.Habit, error) {
	var byName []models.Habit
	for _, h := range ctx.Gateway.Habits() {
		if h.ID == ref {
			return h, nil
		}
		if strings.EqualFold(h.Name, ref) {
			byName = append(byName, h)
		}
	}
	switch len(byName) {
	case 1:
		return byName[0], nil
	case 0:
		return models.Habit{}, fmt.Errorf("no habit matches %q", ref)
	}
	return models.Habit{}, fmt.Errorf("%d habits are named %q, use the id", len(byName), ref)
}

func check(done bool) string {
	if done {
		return "[x]"
	}
	return "[ ]"
}
