package cmd

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strconv"
	"time"

	"github.com/spf13/afero"
	"github.com/urfave/cli"

	"github.com/mzeryck/widgetsched/cmd/common"
	"github.com/mzeryck/widgetsched/internal/editor"
	"github.com/mzeryck/widgetsched/internal/update"
	"github.com/mzeryck/widgetsched/pkg/schedule"
	"github.com/mzeryck/widgetsched/pkg/slot"
)

var errMissingRow = errors.New("a row number is required, see \"widgetsched show\"")

// editFunc applies one edit. Prompts it triggers are answered from p
// first, so positional arguments go there.
type editFunc func(c context.Context, sess *editor.Session, args cli.Args, p *editor.Preset) (bool, error)

// report prints err unless the user simply cancelled a prompt.
func report(ctx *cli.Context, cmd, action string, err error) {
	if errors.Is(err, editor.ErrUserCancelled) {
		return
	}
	common.PrintRuntimeErr(ctx, cmd, action, err)
}

func editAction(name string, fn editFunc) cli.ActionFunc {
	return func(ctx *cli.Context) error {
		if ctx.Args().First() == "help" {
			return cli.ShowCommandHelp(ctx, ctx.Command.Name)
		}
		env, err := loadEnv(ctx, true)
		if err != nil {
			common.PrintRuntimeErr(ctx, name, "load_config", err)
			return nil
		}
		defer env.Close()
		c := context.Background()
		yes := ctx.Bool("yes")

		sess, err := env.session(c, env.prompter(&editor.Preset{Yes: yes}))
		if err != nil {
			report(ctx, name, "open_schedule", err)
			return nil
		}
		p := &editor.Preset{Yes: yes}
		sess.UI = env.prompter(p)
		applied, err := fn(c, sess, ctx.Args(), p)
		if err != nil {
			report(ctx, name, "edit", err)
			return nil
		}
		if !applied {
			fmt.Fprintln(env.out, "No changes made.")
			return nil
		}
		printSchedule(env.out, sess.Schedule, time.Now())
		return nil
	}
}

func rowArg(args cli.Args) (int, error) {
	v := args.First()
	if v == "" {
		return 0, errMissingRow
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return 0, fmt.Errorf("%w: %q", editor.ErrNoSuchRow, v)
	}
	return n, nil
}

func timeArgs(args []string) ([]slot.Index, error) {
	var out []slot.Index
	for _, a := range args {
		i, err := slot.ParseBoundary(a)
		if err != nil {
			return nil, fmt.Errorf("%q: %w", a, err)
		}
		out = append(out, i)
	}
	return out, nil
}

func addEdit(c context.Context, sess *editor.Session, args cli.Args, p *editor.Preset) (bool, error) {
	p.Widget = args.Get(0)
	times, err := timeArgs(args.Tail())
	if err != nil {
		return false, err
	}
	p.Times = times
	return sess.Add(c)
}

func startEdit(c context.Context, sess *editor.Session, args cli.Args, p *editor.Preset) (bool, error) {
	n, err := rowArg(args)
	if err != nil {
		return false, err
	}
	e, err := sess.Entry(n)
	if err != nil {
		return false, err
	}
	if p.Times, err = timeArgs(args.Tail()); err != nil {
		return false, err
	}
	return sess.MoveStart(c, e)
}

func endEdit(c context.Context, sess *editor.Session, args cli.Args, p *editor.Preset) (bool, error) {
	n, err := rowArg(args)
	if err != nil {
		return false, err
	}
	e, err := sess.Entry(n)
	if err != nil {
		return false, err
	}
	if p.Times, err = timeArgs(args.Tail()); err != nil {
		return false, err
	}
	return sess.MoveEnd(c, e)
}

func deleteEdit(c context.Context, sess *editor.Session, args cli.Args, _ *editor.Preset) (bool, error) {
	n, err := rowArg(args)
	if err != nil {
		return false, err
	}
	e, err := sess.Entry(n)
	if err != nil {
		return false, err
	}
	return sess.Delete(c, e)
}

func changeEdit(c context.Context, sess *editor.Session, args cli.Args, p *editor.Preset) (bool, error) {
	n, err := rowArg(args)
	if err != nil {
		return false, err
	}
	row, err := sess.Row(n)
	if err != nil {
		return false, err
	}
	p.Widget = args.Get(1)
	return sess.ChangeWidget(c, row)
}

func defaultEdit(c context.Context, sess *editor.Session, args cli.Args, p *editor.Preset) (bool, error) {
	p.Widget = args.First()
	if err := sess.SetDefault(c); err != nil {
		return false, err
	}
	return true, nil
}

// setup creates the schedule from scratch, replacing an existing one
// only after confirmation.
func setup(ctx *cli.Context) error {
	if ctx.Args().First() == "help" {
		return cli.ShowCommandHelp(ctx, ctx.Command.Name)
	}
	env, err := loadEnv(ctx, true)
	if err != nil {
		common.PrintRuntimeErr(ctx, "setup", "load_config", err)
		return nil
	}
	defer env.Close()
	c := context.Background()
	ui := env.prompter(&editor.Preset{Yes: ctx.Bool("yes"), Widget: ctx.Args().First()})

	name := env.cfg.Schedule
	exists, err := env.store.Exists(schedule.RecordKey(name))
	if err != nil {
		common.PrintRuntimeErr(ctx, "setup", "check_schedule", err)
		return nil
	}
	if exists {
		ok, err := ui.Confirm(c, fmt.Sprintf("A schedule called %q already exists.", name), "Replace it")
		if err != nil {
			report(ctx, "setup", "confirm", err)
		}
		if !ok {
			return nil
		}
	}
	sess, err := editor.Setup(c, env.store, env.sources, ui, env.log, name)
	if err != nil {
		report(ctx, "setup", "setup", err)
		return nil
	}
	if err := env.installLauncher(); err != nil {
		common.PrintRuntimeErr(ctx, "setup", "install_launcher", err)
		return nil
	}
	printSchedule(env.out, sess.Schedule, time.Now())
	return nil
}

// installLauncher writes the launcher script unless one exists.
func (e *appEnv) installLauncher() error {
	path := e.cfg.LauncherPath(e.cfg.Schedule)
	ok, err := afero.Exists(e.fs, path)
	if err != nil || ok {
		return err
	}
	if err := e.fs.MkdirAll(e.cfg.Documents, 0755); err != nil {
		return err
	}
	e.log.Info("writing launcher %s", path)
	return afero.WriteFile(e.fs, path, update.Launcher(e.cfg.Update.Marker, e.cfg.Schedule), 0644)
}

func show(ctx *cli.Context) error {
	if ctx.Args().First() == "help" {
		return cli.ShowCommandHelp(ctx, ctx.Command.Name)
	}
	env, err := loadEnv(ctx, true)
	if err != nil {
		common.PrintRuntimeErr(ctx, "show", "load_config", err)
		return nil
	}
	defer env.Close()
	s, err := schedule.Load(env.store, env.cfg.Schedule)
	if errors.Is(err, schedule.ErrNotConfigured) {
		notSetUp(env.out, env.cfg.Schedule)
		return nil
	}
	if err != nil {
		common.PrintRuntimeErr(ctx, "show", "load_schedule", err)
		return nil
	}
	printSchedule(env.out, s, time.Now())
	return nil
}

func notSetUp(w io.Writer, name string) {
	fmt.Fprintf(w, "The schedule %q is not set up yet. Run \"widgetsched setup\" to create it.\n", name)
}

// printSchedule lists the rows of s, marking the one active at now.
func printSchedule(w io.Writer, s *schedule.Schedule, now time.Time) {
	active := 0
	rows := s.Rows()
	cur := slot.FromTime(now)
	for i, r := range rows {
		if r.Kind == schedule.RowTimed && r.Entry.Start <= cur && cur <= r.Entry.End {
			active = i
		}
	}
	fmt.Fprintf(w, "%s\n\n", s.Name)
	fmt.Fprintf(w, " %s | %s | %s\n", common.Beaut("#", 3), common.Pad("Time", 17), "Widget")
	fmt.Fprintln(w, "-----|-------------------|----------------------")
	for i, r := range rows {
		mark := ""
		if i == active {
			mark = " *"
		}
		fmt.Fprintf(w, " %s | %s | %s%s\n", common.Beaut(strconv.Itoa(i), 3), common.Pad(r.Description(), 17), r.Widget, mark)
	}
}
