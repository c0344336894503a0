package cmd

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"time"

	"github.com/urfave/cli"

	"github.com/mzeryck/widgetsched/cmd/common"
	"github.com/mzeryck/widgetsched/internal/exporter"
	"github.com/mzeryck/widgetsched/internal/server"
	"github.com/mzeryck/widgetsched/pkg/schedule"
	"github.com/mzeryck/widgetsched/pkg/slot"
)

var (
	atFlag = cli.StringFlag{
		Name:  "at",
		Usage: "use this time of day (HH:MM) instead of now",
	}
	jsonFlag = cli.BoolFlag{
		Name:  "json",
		Usage: "print the full result as JSON",
	}
)

// atTime resolves --at against today, defaulting to now.
func atTime(ctx *cli.Context) (time.Time, error) {
	now := time.Now()
	v := ctx.String("at")
	if v == "" {
		return now, nil
	}
	i, err := slot.Parse(v)
	if err != nil {
		return time.Time{}, fmt.Errorf("--at %q: %w", v, err)
	}
	t, _ := i.Time(now)
	return t, nil
}

func widgets(ctx *cli.Context) error {
	env, err := loadEnv(ctx, true)
	if err != nil {
		common.PrintRuntimeErr(ctx, "widgets", "load_config", err)
		return nil
	}
	defer env.Close()
	ws, err := env.sources.List()
	if err != nil {
		common.PrintRuntimeErr(ctx, "widgets", "list", err)
		return nil
	}
	if len(ws) == 0 {
		fmt.Fprintf(env.out, "widgetsched: no widgets found in %s\n", env.cfg.Documents)
		return nil
	}
	for _, w := range ws {
		fmt.Fprintf(env.out, "%s", common.Pad(w.Name, 24))
		if w.IconGlyph != "" || w.IconColor != "" {
			fmt.Fprintf(env.out, " %s %s", w.IconGlyph, w.IconColor)
		}
		fmt.Fprintln(env.out)
	}
	return nil
}

func current(ctx *cli.Context) error {
	env, err := loadEnv(ctx, true)
	if err != nil {
		common.PrintRuntimeErr(ctx, "current", "load_config", err)
		return nil
	}
	defer env.Close()
	at, err := atTime(ctx)
	if err != nil {
		common.PrintRuntimeErr(ctx, "current", "parse_time", err)
		return nil
	}
	s, err := schedule.Load(env.store, env.cfg.Schedule)
	if errors.Is(err, schedule.ErrNotConfigured) {
		notSetUp(env.out, env.cfg.Schedule)
		return nil
	}
	if err != nil {
		common.PrintRuntimeErr(ctx, "current", "load_schedule", err)
		return nil
	}
	i := slot.FromTime(at)
	fmt.Fprintf(env.out, "%s (%s-%s)\n", s.Resolve(at), i.Clock(), (i + 1).Clock())
	return nil
}

func render(ctx *cli.Context) error {
	env, err := loadEnv(ctx, true)
	if err != nil {
		common.PrintRuntimeErr(ctx, "render", "load_config", err)
		return nil
	}
	defer env.Close()
	c, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	at, err := atTime(ctx)
	if err != nil {
		common.PrintRuntimeErr(ctx, "render", "parse_time", err)
		return nil
	}
	exp, err := env.exporter(c)
	if err != nil {
		common.PrintRuntimeErr(ctx, "render", "open_cache", err)
		return nil
	}
	exp.Observe = func(s exporter.State, widget string) {
		env.log.Debug("exporter: %s %s", s, widget)
	}

	var res *exporter.Result
	if name := ctx.Args().First(); name != "" {
		res, err = exp.Render(c, name)
	} else {
		var s *schedule.Schedule
		s, err = schedule.Load(env.store, env.cfg.Schedule)
		if errors.Is(err, schedule.ErrNotConfigured) {
			notSetUp(env.out, env.cfg.Schedule)
			return nil
		}
		if err == nil {
			res, err = exp.Run(c, s, at)
		}
	}
	if err != nil {
		common.PrintRuntimeErr(ctx, "render", "run", err)
		return nil
	}

	if ctx.Bool("json") {
		b, err := json.MarshalIndent(server.RenderResponse(res), "", "  ")
		if err != nil {
			common.PrintRuntimeErr(ctx, "render", "encode", err)
			return nil
		}
		fmt.Fprintln(env.out, string(b))
		return nil
	}
	b, err := json.Marshal(res.Value)
	if err != nil {
		b = []byte(fmt.Sprint(res.Value))
	}
	fmt.Fprintf(env.out, "%s: %s\n", res.Widget, b)
	return nil
}
