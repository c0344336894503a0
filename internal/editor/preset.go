package editor

import (
	"context"
	"fmt"

	"github.com/mzeryck/widgetsched/internal/exporter"
	"github.com/mzeryck/widgetsched/pkg/slot"
)

// Preset answers prompts from values given up front, such as command
// line arguments, and defers to Fallback for anything it cannot answer.
// With no Fallback, unanswered pickers are cancelled and unanswered
// confirmations declined.
type Preset struct {
	// Yes accepts every confirmation.
	Yes bool
	// Times are handed out in order, one per PickTime.
	Times []slot.Index
	// Widget answers PickWidget when set.
	Widget   string
	Fallback Prompter
}

func (p *Preset) Confirm(ctx context.Context, message, action string) (bool, error) {
	if p.Yes {
		return true, nil
	}
	if p.Fallback == nil {
		return false, nil
	}
	return p.Fallback.Confirm(ctx, message, action)
}

func (p *Preset) PickTime(ctx context.Context, q TimeQuery) (slot.Index, error) {
	if len(p.Times) > 0 {
		i := p.Times[0]
		p.Times = p.Times[1:]
		return i, nil
	}
	if p.Fallback == nil {
		return slot.None, ErrUserCancelled
	}
	return p.Fallback.PickTime(ctx, q)
}

func (p *Preset) PickWidget(ctx context.Context, widgets []exporter.Widget) (string, error) {
	if p.Widget != "" {
		name := p.Widget
		p.Widget = ""
		for _, w := range widgets {
			if w.Name == name {
				return name, nil
			}
		}
		return "", fmt.Errorf("%w: %q", ErrUnknownWidget, name)
	}
	if p.Fallback == nil {
		return "", ErrUserCancelled
	}
	return p.Fallback.PickWidget(ctx, widgets)
}

func (p *Preset) Notify(ctx context.Context, message string) error {
	if p.Fallback == nil {
		return nil
	}
	return p.Fallback.Notify(ctx, message)
}

var _ Prompter = (*Preset)(nil)
