package main

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"
	"time"

	"github.com/alecthomas/kong"

	"git.home.luguber.info/inful/quire/internal/config"
	"git.home.luguber.info/inful/quire/internal/foundation/errors"
	"git.home.luguber.info/inful/quire/internal/metrics"
)

// Global is bound into every command's Run.
type Global struct {
	Logger *slog.Logger
	// Stdout receives progress dots, the summary line and command output.
	Stdout io.Writer
}

// CLI is the root command and its global flags.
type CLI struct {
	LogLevel    string           `name:"log-level" default:"info" enum:"debug,info,warn,warning,error" help:"Log level (${enum})."`
	LogFormat   string           `name:"log-format" default:"text" enum:"text,json" help:"Log output format (${enum})."`
	Verbose     bool             `short:"v" help:"Shortcut for --log-level=debug; also prints full error details."`
	MetricsFile string           `name:"metrics-file" type:"path" help:"Write build metrics in Prometheus text format to this file."`
	Version     kong.VersionFlag `name:"version" help:"Show version and exit."`

	Build      BuildCmd      `cmd:"" default:"withargs" help:"Build the site in a project directory."`
	Serve      ServeCmd      `cmd:"" help:"Build, serve the output and rebuild on changes."`
	Quickstart QuickstartCmd `cmd:"" help:"Create a new project."`
	VersionCmd VersionCmd    `cmd:"" name:"version" help:"Print version information."`
}

// AfterApply runs after flag parsing; setup logging once.
// nolint:unparam // AfterApply currently never returns an error.
func (c *CLI) AfterApply() error {
	level := config.NormalizeLogLevel(c.LogLevel)
	if c.Verbose {
		level = config.LogLevelDebug
	}
	slog.SetDefault(config.NewLogger(os.Stderr, level, config.NormalizeLogFormat(c.LogFormat)))
	return nil
}

// recorder returns a Prometheus recorder when a metrics file was requested.
func (c *CLI) recorder() (metrics.Recorder, func() error) {
	if c.MetricsFile == "" {
		return metrics.NoopRecorder{}, func() error { return nil }
	}
	rec := metrics.NewPrometheusRecorder(nil)
	return rec, func() error {
		if err := rec.WriteTextfile(c.MetricsFile); err != nil {
			return errors.WrapError(err, errors.CategoryFileSystem, "write metrics file").
				WithContext("path", c.MetricsFile).Build()
		}
		return nil
	}
}

// ProjectFlags select the project and how it is built. Shared by build and serve.
type ProjectFlags struct {
	ProjectDir       string `arg:"" optional:"" name:"project-dir" default:"." type:"path" help:"Project directory."`
	TemplatingEngine string `name:"templating-engine" short:"t" help:"Templating engine (gotemplate, pongo2, jinja2). Overrides _config.yml."`
	Source           string `name:"source" help:"Data source (filesystem, git). Overrides _config.yml."`
	Hardlinks        bool   `name:"hardlinks" help:"Hardlink static files instead of copying them."`
	Gzip             bool   `name:"gzip" help:"Write a .gz copy next to every page and compressible static file."`
	BuildTime        string `name:"build-time" help:"Pin the build time (RFC 3339 or YYYY-MM-DD[ HH:MM:SS]) for reproducible output."`
}

var buildTimeLayouts = []string{time.RFC3339, "2006-01-02 15:04:05", "2006-01-02T15:04:05", "2006-01-02"}

func (f *ProjectFlags) buildTime() (time.Time, error) {
	raw := strings.TrimSpace(f.BuildTime)
	if raw == "" {
		return time.Time{}, nil
	}
	for _, layout := range buildTimeLayouts {
		if t, err := time.Parse(layout, raw); err == nil {
			return t, nil
		}
	}
	return time.Time{}, errors.ConfigError(fmt.Sprintf("invalid --build-time %q", raw)).Build()
}

// loadSettings resolves the configuration for one build.
func (f *ProjectFlags) loadSettings(logger *slog.Logger) (*config.Settings, error) {
	bt, err := f.buildTime()
	if err != nil {
		return nil, err
	}
	return config.Load(config.Options{
		ProjectDir:       f.ProjectDir,
		TemplatingEngine: f.TemplatingEngine,
		Source:           f.Source,
		Hardlinks:        f.Hardlinks,
		Gzip:             f.Gzip,
		BuildTime:        bt,
		Logger:           logger,
	})
}
