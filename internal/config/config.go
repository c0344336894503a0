// Package config loads widgetsched settings from a YAML (or JSON) file,
// then applies environment overrides. Every field has a default, so a
// missing file is not an error.
package config

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/spf13/afero"

	"github.com/mzeryck/widgetsched/common"
	"github.com/mzeryck/widgetsched/internal/exporter"
	"github.com/mzeryck/widgetsched/pkg/schedule"
)

const (
	CacheFile   = "file"
	CacheSQLite = "sqlite"
)

type Config struct {
	// Documents is the directory holding widget sources.
	Documents string `json:"documents"`
	// Folder is the directory below Documents that keeps schedule
	// records and compiled artifacts.
	Folder string `json:"folder"`
	// Schedule is the schedule used when none is named on the command
	// line.
	Schedule      string       `json:"schedule"`
	RenderTimeout Duration     `json:"render_timeout"`
	Cache         CacheConfig  `json:"cache"`
	Update        UpdateConfig `json:"update"`
	RPC           RPCConfig    `json:"rpc"`
	Log           LogConfig    `json:"log"`
}

type CacheConfig struct {
	// Backend is CacheFile or CacheSQLite.
	Backend string `json:"backend"`
	// Path of the sqlite database, relative paths resolve against the
	// schedule folder.
	Path string `json:"path"`
}

type UpdateConfig struct {
	URL     string   `json:"url"`
	Marker  string   `json:"marker"`
	Proxy   string   `json:"proxy"`
	Timeout Duration `json:"timeout"`
}

type RPCConfig struct {
	Port      int    `json:"port"`
	Secret    string `json:"secret"`
	ListenAll bool   `json:"listen_all"`
}

type LogConfig struct {
	Level  string `json:"level"`
	Format string `json:"format"`
	// File, when set, receives JSON records in addition to the console.
	File string `json:"file"`
}

const (
	DefaultScheduleName = "Widget Schedule"
	DefaultUpdateURL    = "https://raw.githubusercontent.com/mzeryck/Widget-Schedule/main/widget-schedule.js"
	DefaultUpdateMarker = "// widgetsched launcher"
)

// Default returns the configuration used when nothing is set.
func Default() *Config {
	home, err := os.UserHomeDir()
	if err != nil {
		home = "."
	}
	return &Config{
		Documents:     filepath.Join(home, "Documents", "widgets"),
		Folder:        schedule.DefaultFolder,
		Schedule:      DefaultScheduleName,
		RenderTimeout: Duration(exporter.DefaultTimeout),
		Cache:         CacheConfig{Backend: CacheFile, Path: "artifacts.db"},
		Update: UpdateConfig{
			URL:     DefaultUpdateURL,
			Marker:  DefaultUpdateMarker,
			Timeout: Duration(time.Minute),
		},
		RPC: RPCConfig{Port: common.DefaultRPCPort},
		Log: LogConfig{Level: "info", Format: "console"},
	}
}

// DefaultPath returns the config file location, honouring ConfigEnv.
func DefaultPath() (string, error) {
	if p := os.Getenv(common.ConfigEnv); p != "" {
		return p, nil
	}
	dir, err := os.UserConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, "widgetsched", "config.yaml"), nil
}

// Load reads path from fsys over the defaults and applies environment
// overrides. An empty path means DefaultPath.
func Load(fsys afero.Fs, path string) (*Config, error) {
	if path == "" {
		p, err := DefaultPath()
		if err != nil {
			return nil, err
		}
		path = p
	}
	c := Default()
	b, err := afero.ReadFile(fsys, path)
	switch {
	case errors.Is(err, fs.ErrNotExist):
	case err != nil:
		return nil, err
	default:
		if err := c.decode(path, b); err != nil {
			return nil, fmt.Errorf("config %s: %w", path, err)
		}
	}
	if err := c.applyEnv(os.Getenv); err != nil {
		return nil, err
	}
	if err := c.Validate(); err != nil {
		return nil, fmt.Errorf("config %s: %w", path, err)
	}
	return c, nil
}

func (c *Config) decode(path string, data []byte) error {
	j, err := toJSON(path, data)
	if err != nil {
		return err
	}
	dec := json.NewDecoder(bytes.NewReader(j))
	dec.DisallowUnknownFields()
	return dec.Decode(c)
}

func (c *Config) applyEnv(getenv func(string) string) error {
	if v := getenv(common.DocumentsEnv); v != "" {
		c.Documents = v
	}
	if v := getenv(common.ScheduleEnv); v != "" {
		c.Schedule = v
	}
	if v := getenv(common.RPCSecretEnv); v != "" {
		c.RPC.Secret = v
	}
	if v := getenv(common.RPCPortEnv); v != "" {
		port, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("%s: %w", common.RPCPortEnv, err)
		}
		c.RPC.Port = port
	}
	if v := getenv(common.DebugEnv); v != "" && v != "0" && v != "false" {
		c.Log.Level = "debug"
	}
	return nil
}

func (c *Config) Validate() error {
	if c.Documents == "" {
		return errors.New("documents: must not be empty")
	}
	if err := schedule.ValidateName(c.Schedule); err != nil {
		return fmt.Errorf("schedule: %w", err)
	}
	if c.Folder == "" {
		return errors.New("folder: must not be empty")
	}
	switch c.Cache.Backend {
	case CacheFile, CacheSQLite:
	default:
		return fmt.Errorf("cache.backend: unknown backend %q", c.Cache.Backend)
	}
	if c.RPC.Port < 0 || c.RPC.Port > 65535 {
		return fmt.Errorf("rpc.port: %d out of range", c.RPC.Port)
	}
	return nil
}

// ScheduleDir is where schedule records and artifacts live.
func (c *Config) ScheduleDir() string {
	return filepath.Join(c.Documents, c.Folder)
}

// CachePath resolves the sqlite cache location.
func (c *Config) CachePath() string {
	if filepath.IsAbs(c.Cache.Path) {
		return c.Cache.Path
	}
	return filepath.Join(c.ScheduleDir(), c.Cache.Path)
}

// LauncherPath is the launcher script of the named schedule.
func (c *Config) LauncherPath(name string) string {
	return filepath.Join(c.Documents, name+exporter.SourceExt)
}
