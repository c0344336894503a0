package cmd

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/spf13/afero"
	"github.com/urfave/cli"

	"github.com/mzeryck/widgetsched/cmd/common"
	"github.com/mzeryck/widgetsched/internal/config"
	"github.com/mzeryck/widgetsched/internal/editor"
	"github.com/mzeryck/widgetsched/internal/exporter"
	"github.com/mzeryck/widgetsched/pkg/logger"
	"github.com/mzeryck/widgetsched/pkg/schedule"
)

// Overridden in tests.
var (
	appFs  afero.Fs  = afero.NewOsFs()
	stdin  io.Reader = os.Stdin
	stderr io.Writer = os.Stderr
)

// appEnv is everything a command needs, built from config and global
// flags.
type appEnv struct {
	cfg     *config.Config
	fs      afero.Fs
	log     logger.Logger
	out     io.Writer
	store   *schedule.FileStore
	sources *exporter.DirSources
	cache   exporter.Cache
	term    *editor.Terminal
	closers []io.Closer
}

// loadEnv reads the config file and applies the global flags over it.
// quiet raises the console log level to warnings unless --debug is set.
func loadEnv(ctx *cli.Context, quiet bool) (*appEnv, error) {
	cfg, err := config.Load(appFs, ctx.GlobalString("config"))
	if err != nil {
		return nil, err
	}
	if v := ctx.GlobalString("schedule"); v != "" {
		cfg.Schedule = v
	}
	if v := ctx.GlobalString("documents"); v != "" {
		cfg.Documents = v
	}
	if err := schedule.ValidateName(cfg.Schedule); err != nil {
		return nil, err
	}
	debug := ctx.GlobalBool("debug")
	if debug {
		cfg.Log.Level = "debug"
	}

	e := &appEnv{
		cfg:     cfg,
		fs:      appFs,
		out:     common.Writer(ctx),
		store:   schedule.NewFileStore(appFs, cfg.ScheduleDir()),
		sources: exporter.NewDirSources(appFs, cfg.Documents),
	}
	level := cfg.Log.Level
	if quiet && !debug {
		level = "warn"
	}
	if e.log, err = e.newLogger(level); err != nil {
		return nil, err
	}
	return e, nil
}

// consoleWriter keeps the logger from closing stderr.
type consoleWriter struct{ io.Writer }

func (e *appEnv) newLogger(level string) (logger.Logger, error) {
	console := logger.NewZerologLogger(consoleWriter{stderr}, e.cfg.Log.Format, level)
	if e.cfg.Log.File == "" {
		return console, nil
	}
	if err := e.fs.MkdirAll(filepath.Dir(e.cfg.Log.File), 0755); err != nil {
		return nil, err
	}
	f, err := e.fs.OpenFile(e.cfg.Log.File, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0644)
	if err != nil {
		return nil, fmt.Errorf("open log file: %w", err)
	}
	file := logger.NewZerologLogger(f, logger.FormatJSON, e.cfg.Log.Level)
	return logger.NewMultiLogger(console, file), nil
}

func (e *appEnv) openCache(ctx context.Context) (exporter.Cache, error) {
	if e.cache != nil {
		return e.cache, nil
	}
	switch e.cfg.Cache.Backend {
	case config.CacheSQLite:
		path := e.cfg.CachePath()
		// sqlite opens path on the real disk, whatever e.fs is.
		if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
			return nil, err
		}
		c, err := exporter.OpenSQLiteCache(ctx, path)
		if err != nil {
			return nil, err
		}
		e.closers = append(e.closers, c)
		e.cache = c
	default:
		e.cache = exporter.NewFileCache(e.fs, e.cfg.ScheduleDir())
	}
	return e.cache, nil
}

func (e *appEnv) exporter(ctx context.Context) (*exporter.Exporter, error) {
	c, err := e.openCache(ctx)
	if err != nil {
		return nil, err
	}
	exp := exporter.New(e.sources, c, e.log)
	exp.Out = e.out
	exp.Timeout = e.cfg.RenderTimeout.Std()
	return exp, nil
}

// prompter answers from the preset first, then from the terminal. All
// prompters of one command share a single terminal reader.
func (e *appEnv) prompter(p *editor.Preset) editor.Prompter {
	if e.term == nil {
		e.term = editor.NewTerminal(stdin, e.out)
	}
	p.Fallback = e.term
	return p
}

// session opens the configured schedule for editing, running setup first
// when it does not exist yet.
func (e *appEnv) session(ctx context.Context, ui editor.Prompter) (*editor.Session, error) {
	s, err := schedule.Load(e.store, e.cfg.Schedule)
	switch {
	case errors.Is(err, schedule.ErrNotConfigured):
		sess, err := editor.Setup(ctx, e.store, e.sources, ui, e.log, e.cfg.Schedule)
		if err != nil {
			return nil, err
		}
		return sess, e.installLauncher()
	case err != nil:
		return nil, err
	}
	return editor.NewSession(s, e.sources, ui, e.log), nil
}

func (e *appEnv) Close() error {
	var first error
	for _, c := range e.closers {
		if err := c.Close(); err != nil && first == nil {
			first = err
		}
	}
	if err := e.log.Close(); err != nil && first == nil {
		first = err
	}
	return first
}
