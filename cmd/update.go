package cmd

import (
	"context"
	"fmt"
	"os"
	"os/signal"

	"github.com/urfave/cli"

	"github.com/mzeryck/widgetsched/cmd/common"
	"github.com/mzeryck/widgetsched/internal/update"
)

func updateLauncher(ctx *cli.Context) error {
	if ctx.Args().First() == "help" {
		return cli.ShowCommandHelp(ctx, ctx.Command.Name)
	}
	env, err := loadEnv(ctx, true)
	if err != nil {
		common.PrintRuntimeErr(ctx, "update", "load_config", err)
		return nil
	}
	defer env.Close()
	c, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	u := &update.Updater{
		URL:      env.cfg.Update.URL,
		Marker:   env.cfg.Update.Marker,
		Dest:     env.cfg.LauncherPath(env.cfg.Schedule),
		Fs:       env.fs,
		Proxy:    env.cfg.Update.Proxy,
		Progress: stderr,
		Timeout:  env.cfg.Update.Timeout.Std(),
		Log:      env.log,
	}
	n, err := u.Update(c)
	if err != nil {
		common.PrintRuntimeErr(ctx, "update", "download", err)
		return nil
	}
	fmt.Fprintf(env.out, "Updated %s (%d bytes).\n", u.Dest, n)
	return nil
}
