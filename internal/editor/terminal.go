package editor

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/mzeryck/widgetsched/internal/exporter"
	"github.com/mzeryck/widgetsched/pkg/slot"
)

// Terminal prompts on a line-oriented terminal. End of input dismisses
// the current prompt.
type Terminal struct {
	in  *bufio.Reader
	out io.Writer
}

func NewTerminal(in io.Reader, out io.Writer) *Terminal {
	return &Terminal{in: bufio.NewReader(in), out: out}
}

func (t *Terminal) readLine(ctx context.Context) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	line, err := t.in.ReadString('\n')
	if err != nil && (!errors.Is(err, io.EOF) || line == "") {
		if errors.Is(err, io.EOF) {
			return "", ErrUserCancelled
		}
		return "", err
	}
	return strings.TrimSpace(line), nil
}

func (t *Terminal) Confirm(ctx context.Context, message, action string) (bool, error) {
	fmt.Fprintf(t.out, "%s\n%s? (yes/no): ", message, action)
	in, err := t.readLine(ctx)
	if errors.Is(err, ErrUserCancelled) {
		fmt.Fprintln(t.out)
		return false, nil
	}
	if err != nil {
		return false, err
	}
	switch strings.ToLower(in) {
	case "yes", "y", "true", "1":
		return true, nil
	}
	fmt.Fprintf(t.out, "Cancelled %s.\n", strings.ToLower(action))
	return false, nil
}

func (t *Terminal) PickTime(ctx context.Context, q TimeQuery) (slot.Index, error) {
	for {
		fmt.Fprintf(t.out, "%s (%s-%s) [%s]: ", q.Label, q.Min.Clock(), q.Max.Clock(), q.Initial.Clock())
		in, err := t.readLine(ctx)
		if err != nil {
			return slot.None, err
		}
		if in == "" {
			return q.Initial, nil
		}
		if in == "q" {
			return slot.None, ErrUserCancelled
		}
		i, err := slot.ParseBoundary(in)
		if err != nil {
			fmt.Fprintln(t.out, err)
			continue
		}
		if !q.Contains(i) {
			fmt.Fprintf(t.out, "pick a time between %s and %s\n", q.Min.Clock(), q.Max.Clock())
			continue
		}
		return i, nil
	}
}

func (t *Terminal) PickWidget(ctx context.Context, widgets []exporter.Widget) (string, error) {
	for i, w := range widgets {
		fmt.Fprintf(t.out, "%3d) %s\n", i+1, w.Name)
	}
	for {
		fmt.Fprint(t.out, "Widget (number or name): ")
		in, err := t.readLine(ctx)
		if err != nil {
			return "", err
		}
		if in == "" || in == "q" {
			return "", ErrUserCancelled
		}
		if n, err := strconv.Atoi(in); err == nil && n >= 1 && n <= len(widgets) {
			return widgets[n-1].Name, nil
		}
		for _, w := range widgets {
			if w.Name == in {
				return w.Name, nil
			}
		}
		fmt.Fprintf(t.out, "no widget called %q\n", in)
	}
}

func (t *Terminal) Notify(_ context.Context, message string) error {
	_, err := fmt.Fprintln(t.out, message)
	return err
}

var _ Prompter = (*Terminal)(nil)
