// Package prompt reads interactive answers for the command-line client.
package prompt

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/atinyakov/Perseverance/internal/models"
)

// Prompter asks questions on Out and reads line answers from In.
type Prompter struct {
	in  *bufio.Scanner
	out io.Writer
}

func New(in io.Reader, out io.Writer) *Prompter {
	return &Prompter{in: bufio.NewScanner(in), out: out}
}

// Stdio prompts on the terminal.
func Stdio() *Prompter {
	return New(os.Stdin, os.Stdout)
}

// Line prints label and returns the trimmed answer. EOF yields "".
func (p *Prompter) Line(label string) string {
	fmt.Fprint(p.out, label)
	if !p.in.Scan() {
		return ""
	}
	return strings.TrimSpace(p.in.Text())
}

// Confirm asks a yes/no question; only "y" or "yes" count as yes.
func (p *Prompter) Confirm(question string) bool {
	switch strings.ToLower(p.Line(question + " [y/N]: ")) {
	case "y", "yes":
		return true
	}
	return false
}

// Habit asks for the fields of a new habit. Empty answers keep the
// zero value so the gateway defaults apply.
func (p *Prompter) Habit() models.Habit {
	var h models.Habit
	h.Name = p.Line("Name: ")
	h.Description = p.Line("Description: ")
	h.Category = p.Line("Category (leave empty for default): ")
	h.Icon = p.Line("Icon (leave empty for default): ")

	if f := p.Line("Frequency (daily/weekly/custom): "); f != "" {
		h.Frequency = models.Frequency(strings.ToLower(f))
	}
	if t := p.Line("Target per week (1-7): "); t != "" {
		n, err := strconv.Atoi(t)
		if err != nil {
			fmt.Fprintf(p.out, "Ignoring target %q: not a number\n", t)
		} else {
			h.Target = n
		}
	}
	return h
}

// Credentials asks for an email and password.
func (p *Prompter) Credentials() (email, password string) {
	email = p.Line("Email: ")
	password = p.Line("Password: ")
	return email, password
}
