package cli

import (
	"fmt"
	"os"
	"path/filepath"
)

type BackupExportCmd struct {
	Dir string `short:"o" type:"path" default:"." help:"Directory to write the backup into."`
}

func (c *BackupExportCmd) Run(ctx *Context) error {
	data, name, err := ctx.Gateway.Export()
	if err != nil {
		return err
	}
	path := filepath.Join(c.Dir, name)
	if err := os.WriteFile(path, data, 0o600); err != nil {
		return fmt.Errorf("write backup: %w", err)
	}
	ctx.printf("Wrote %s (%d bytes)\n", path, len(data))
	return nil
}

type BackupImportCmd struct {
	File string `arg:"" type:"existingfile" help:"Backup file to restore."`
	Yes  bool   `short:"y" help:"Do not ask for confirmation."`
}

func (c *BackupImportCmd) Run(ctx *Context) error {
	data, err := os.ReadFile(c.File)
	if err != nil {
		return fmt.Errorf("read backup: %w", err)
	}
	if !c.Yes && !ctx.Prompt.Confirm("Replace all current data with this backup?") {
		ctx.printf("Cancelled\n")
		return nil
	}
	doc, err := ctx.Gateway.Import(data)
	if err != nil {
		return err
	}
	ctx.printf("Restored %d habits and %d completions\n", len(doc.Habits), len(doc.Completions))
	return nil
}

type BackupStatusCmd struct{}

func (c *BackupStatusCmd) Run(ctx *Context) error {
	r := ctx.Gateway.Reminder()
	auto, err := r.CheckAutoBackup(ctx.Now())
	if err != nil {
		return err
	}
	switch {
	case auto.Never:
		ctx.printf("No backup has been made yet.\n")
	case auto.ShouldBackup:
		ctx.printf("%s.\n", auto.Reason)
	default:
		ctx.printf("Last backup %d day(s) ago.\n", auto.DaysSinceBackup)
	}
	if due, err := r.ShouldRemind(ctx.Now()); err == nil && !due && auto.ShouldBackup {
		ctx.printf("Reminder snoozed.\n")
	}

	history, err := r.History()
	if err != nil {
		return err
	}
	if len(history) == 0 {
		return nil
	}
	ctx.printf("\nRecent exports:\n")
	w := ctx.table()
	for _, h := range history {
		fmt.Fprintf(w, "  %s\t%d bytes\tv%s\n", h.Timestamp.Local().Format("2006-01-02 15:04"), h.Size, h.Version)
	}
	return w.Flush()
}

type BackupSnoozeCmd struct{}

func (c *BackupSnoozeCmd) Run(ctx *Context) error {
	if err := ctx.Gateway.Reminder().Snooze(ctx.Now()); err != nil {
		return err
	}
	ctx.printf("Backup reminder snoozed.\n")
	return nil
}

type ClearCmd struct {
	Yes bool `short:"y" help:"Do not ask for confirmation."`
}

func (c *ClearCmd) Run(ctx *Context) error {
	if !c.Yes && !ctx.Prompt.Confirm("Erase all local habits and history?") {
		ctx.printf("Cancelled\n")
		return nil
	}
	if err := ctx.Gateway.ClearAllData(); err != nil {
		return err
	}
	ctx.printf("Local data reset.\n")
	return nil
}
