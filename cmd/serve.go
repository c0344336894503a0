package cmd

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/urfave/cli"

	"github.com/mzeryck/widgetsched/cmd/common"
	shared "github.com/mzeryck/widgetsched/common"
	"github.com/mzeryck/widgetsched/internal/daemon"
	"github.com/mzeryck/widgetsched/internal/server"
)

const shutdownTimeout = 10 * time.Second

var serveFlags = []cli.Flag{
	cli.IntFlag{
		Name:  "port, p",
		Usage: "JSON-RPC port (default from config)",
	},
	cli.BoolFlag{
		Name:  "listen-all",
		Usage: "accept JSON-RPC connections from other hosts",
	},
}

func serve(ctx *cli.Context) error {
	if ctx.Args().First() == "help" {
		return cli.ShowCommandHelp(ctx, ctx.Command.Name)
	}
	env, err := loadEnv(ctx, false)
	if err != nil {
		common.PrintRuntimeErr(ctx, "serve", "load_config", err)
		return nil
	}
	defer env.Close()
	c, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	exp, err := env.exporter(c)
	if err != nil {
		common.PrintRuntimeErr(ctx, "serve", "open_cache", err)
		return nil
	}
	// Widget output goes to the log while serving.
	exp.Out = nil
	exp.InWidget = true
	state := daemon.NewState(env.store, env.cfg.Schedule, exp, env.log)

	deps := &daemon.Dependencies{State: state, Log: env.log}
	rc := env.cfg.RPC
	if ctx.IsSet("port") {
		rc.Port = ctx.Int("port")
	}
	if ctx.Bool("listen-all") {
		rc.ListenAll = true
	}
	if rc.Secret == "" {
		env.log.Warning("rpc: %s is not set, JSON-RPC is disabled", shared.RPCSecretEnv)
	} else {
		n := server.NewNotifier(env.log)
		rpc := server.NewRPCServer(server.RPCConfig{
			Secret:    rc.Secret,
			Version:   build.Version,
			Commit:    build.Commit,
			BuildType: build.BuildType,
		}, state, n, env.log)
		srv := server.NewServer(env.log, rpc, rc.Port, rc.ListenAll)
		deps.Notifier = n
		deps.Serve = srv.Start
		deps.ShutdownFunc = srv.Shutdown
	}

	r := daemon.New(&daemon.Config{
		WatchDirs:       []string{env.cfg.Documents, env.cfg.ScheduleDir()},
		ShutdownTimeout: shutdownTimeout,
	}, deps)
	env.log.Info("serving schedule %q from %s", env.cfg.Schedule, env.cfg.Documents)
	if err := r.Start(c); err != nil {
		common.PrintRuntimeErr(ctx, "serve", "run", err)
	}
	return nil
}
