package cli

import (
	"github.com/atinyakov/Perseverance/internal/apperr"
)

type RegisterCmd struct {
	Name  string `arg:"" help:"Display name."`
	Email string `short:"e" help:"Account email. Prompted when omitted."`
}

func (c *RegisterCmd) Run(ctx *Context) error {
	email, password := c.Email, ""
	if email == "" {
		email, password = ctx.Prompt.Credentials()
	} else {
		password = ctx.Prompt.Line("Password: ")
	}
	user, err := ctx.Gateway.Register(ctx, c.Name, email, password)
	if err != nil {
		return err
	}
	ctx.printf("Welcome, %s. Your habits now sync to your account.\n", user.Name)
	return nil
}

type LoginCmd struct {
	Email string `short:"e" help:"Account email. Prompted when omitted."`
}

func (c *LoginCmd) Run(ctx *Context) error {
	email, password := c.Email, ""
	if email == "" {
		email, password = ctx.Prompt.Credentials()
	} else {
		password = ctx.Prompt.Line("Password: ")
	}
	user, err := ctx.Gateway.Login(ctx, email, password)
	if err != nil {
		return err
	}
	ctx.printf("Signed in as %s (%d habits)\n", user.Email, len(ctx.Gateway.Habits()))
	return nil
}

type LogoutCmd struct{}

func (c *LogoutCmd) Run(ctx *Context) error {
	if !ctx.Gateway.IsAuthenticated() {
		ctx.printf("Not signed in.\n")
		return nil
	}
	if err := ctx.Gateway.Logout(); err != nil {
		return err
	}
	ctx.printf("Signed out. Continuing as guest.\n")
	return nil
}

type WhoamiCmd struct{}

func (c *WhoamiCmd) Run(ctx *Context) error {
	user, ok := ctx.Gateway.User()
	if !ok {
		ctx.printf("Guest (data stays on this device)\n")
		return nil
	}
	ctx.printf("%s <%s>\n", user.Name, user.Email)
	if err := ctx.Gateway.CheckIntegrity(); err != nil {
		ctx.printf("warning: %s\n", apperr.Message(err))
	}
	return nil
}

type SettingsCmd struct {
	Theme              *string `help:"light or dark."`
	Name               *string `help:"Name shown in greetings."`
	MotivationalQuotes *bool   `name:"quotes" help:"Show motivational quotes."`
	StartOfWeek        *string `name:"week-start" help:"sunday or monday."`
	Notifications      *bool   `help:"Enable reminders."`
	FontSize           *string `help:"Font size (local only)."`
	AccentColor        *string `help:"Accent color (local only)."`
}

func (c *SettingsCmd) Run(ctx *Context) error {
	s := ctx.Gateway.Settings()
	changed := false
	set := func(dst *string, v *string) {
		if v != nil {
			*dst = *v
			changed = true
		}
	}
	set(&s.Theme, c.Theme)
	set(&s.UserName, c.Name)
	set(&s.StartOfWeek, c.StartOfWeek)
	set(&s.FontSize, c.FontSize)
	set(&s.AccentColor, c.AccentColor)
	if c.MotivationalQuotes != nil {
		s.MotivationalQuotes = *c.MotivationalQuotes
		changed = true
	}
	if c.Notifications != nil {
		s.Notifications = *c.Notifications
		changed = true
	}

	if changed {
		var err error
		if s, err = ctx.Gateway.UpdateSettings(ctx, s); err != nil {
			return err
		}
	}

	ctx.printf("theme          %s\n", s.Theme)
	ctx.printf("name           %s\n", s.UserName)
	ctx.printf("quotes         %t\n", s.MotivationalQuotes)
	ctx.printf("week starts    %s\n", s.StartOfWeek)
	ctx.printf("notifications  %t\n", s.Notifications)
	if s.FontSize != "" {
		ctx.printf("font size      %s\n", s.FontSize)
	}
	if s.AccentColor != "" {
		ctx.printf("accent color   %s\n", s.AccentColor)
	}
	return nil
}
