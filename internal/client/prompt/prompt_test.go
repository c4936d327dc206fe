package prompt

import (
	"bytes"
	"strings"
	"testing"
)

func TestHabit(t *testing.T) {
	input := "Stretch\nfive minutes\nhealth\n\nweekly\n3\n"
	var out bytes.Buffer

	h := New(strings.NewReader(input), &out).Habit()

	if h.Name != "Stretch" || h.Description != "five minutes" || h.Category != "health" {
		t.Errorf("habit = %+v", h)
	}
	if h.Icon != "" {
		t.Errorf("Icon = %q; want empty so the default applies", h.Icon)
	}
	if h.Frequency != "weekly" || h.Target != 3 {
		t.Errorf("frequency/target = %q/%d", h.Frequency, h.Target)
	}
	if !strings.Contains(out.String(), "Name: ") {
		t.Errorf("expected prompts in output, got %q", out.String())
	}
}

func TestHabit_BadTarget(t *testing.T) {
	var out bytes.Buffer
	h := New(strings.NewReader("Read\n\n\n\n\nlots\n"), &out).Habit()

	if h.Target != 0 {
		t.Errorf("Target = %d; want 0", h.Target)
	}
	if !strings.Contains(out.String(), "not a number") {
		t.Errorf("expected warning, got %q", out.String())
	}
}

func TestConfirm(t *testing.T) {
	cases := map[string]bool{"y\n": true, "YES\n": true, "n\n": false, "\n": false, "": false}
	for in, want := range cases {
		var out bytes.Buffer
		if got := New(strings.NewReader(in), &out).Confirm("Replace all data?"); got != want {
			t.Errorf("Confirm(%q) = %v; want %v", in, got, want)
		}
	}
}

func TestCredentials(t *testing.T) {
	var out bytes.Buffer
	email, pass := New(strings.NewReader(" ada@example.com \nsecret\n"), &out).Credentials()
	if email != "ada@example.com" || pass != "secret" {
		t.Errorf("got %q / %q", email, pass)
	}
}
