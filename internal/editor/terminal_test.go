package editor

import (
	"bytes"
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/mzeryck/widgetsched/internal/exporter"
	"github.com/mzeryck/widgetsched/pkg/slot"
)

func terminal(input string) (*Terminal, *bytes.Buffer) {
	out := &bytes.Buffer{}
	return NewTerminal(strings.NewReader(input), out), out
}

func TestTerminalConfirm(t *testing.T) {
	tests := []struct {
		input string
		want  bool
	}{
		{"yes\n", true},
		{"Y\n", true},
		{"no\n", false},
		{"\n", false},
		{"", false},
	}
	for _, tt := range tests {
		term, _ := terminal(tt.input)
		got, err := term.Confirm(context.Background(), "Overwrite?", "Continue")
		if err != nil {
			t.Fatalf("Confirm(%q): %v", tt.input, err)
		}
		if got != tt.want {
			t.Errorf("Confirm(%q) = %v, want %v", tt.input, got, tt.want)
		}
	}
}

func TestTerminalPickTime(t *testing.T) {
	q := TimeQuery{Label: "End time", Initial: 20, Min: 19, Max: slot.EndOfDay}

	term, out := terminal("07:15\n08:00\n10:30\n")
	got, err := term.PickTime(context.Background(), q)
	if err != nil {
		t.Fatal(err)
	}
	if got != 21 {
		t.Errorf("picked %v, want 21 (10:30)", got)
	}
	if !strings.Contains(out.String(), "between 09:30 and 24:00") {
		t.Errorf("out-of-range answer not reported: %q", out.String())
	}

	term, _ = terminal("\n")
	if got, _ := term.PickTime(context.Background(), q); got != 20 {
		t.Errorf("empty answer should pick the initial slot, got %v", got)
	}
	term, _ = terminal("24:00\n")
	if got, _ := term.PickTime(context.Background(), q); got != slot.EndOfDay {
		t.Errorf("24:00 = %v, want EndOfDay", got)
	}
	term, _ = terminal("")
	if _, err := term.PickTime(context.Background(), q); !errors.Is(err, ErrUserCancelled) {
		t.Errorf("EOF error = %v, want ErrUserCancelled", err)
	}
}

func TestTerminalPickWidget(t *testing.T) {
	widgets := []exporter.Widget{{Name: "Clock"}, {Name: "News"}}

	term, _ := terminal("2\n")
	if got, err := term.PickWidget(context.Background(), widgets); err != nil || got != "News" {
		t.Errorf("by number = %q, %v", got, err)
	}
	term, out := terminal("Nope\nClock\n")
	if got, err := term.PickWidget(context.Background(), widgets); err != nil || got != "Clock" {
		t.Errorf("by name = %q, %v", got, err)
	}
	if !strings.Contains(out.String(), `no widget called "Nope"`) {
		t.Errorf("unknown name not reported: %q", out.String())
	}
	term, _ = terminal("q\n")
	if _, err := term.PickWidget(context.Background(), widgets); !errors.Is(err, ErrUserCancelled) {
		t.Errorf("q error = %v", err)
	}
}

func TestPresetFallsBack(t *testing.T) {
	fallback := &scripted{confirms: []bool{true}, times: []slot.Index{30}}
	p := &Preset{Times: []slot.Index{4}, Fallback: fallback}

	if i, _ := p.PickTime(context.Background(), TimeQuery{}); i != 4 {
		t.Errorf("first time = %v, want preset 4", i)
	}
	if i, _ := p.PickTime(context.Background(), TimeQuery{}); i != 30 {
		t.Errorf("second time = %v, want fallback 30", i)
	}
	if ok, _ := p.Confirm(context.Background(), "m", "a"); !ok {
		t.Error("fallback confirm not consulted")
	}
	yes := &Preset{Yes: true}
	if ok, _ := yes.Confirm(context.Background(), "m", "a"); !ok {
		t.Error("Yes should accept")
	}
	if ok, _ := (&Preset{}).Confirm(context.Background(), "m", "a"); ok {
		t.Error("bare preset should decline")
	}
}
