package main

import (
	"context"
	"fmt"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"
	"time"

	"git.home.luguber.info/inful/quire/internal/logfields"
	"git.home.luguber.info/inful/quire/internal/preview"
)

// ServeCmd builds the project, serves the output and rebuilds on changes.
type ServeCmd struct {
	ProjectFlags `embed:""`

	Host         string        `name:"host" default:"localhost" help:"Interface to listen on."`
	Port         int           `name:"port" short:"p" default:"8000" help:"Port to listen on."`
	RebuildEvery time.Duration `name:"rebuild-every" help:"Also rebuild on this interval, so scheduled pages appear without edits (e.g. 10m)."`
}

func (c *ServeCmd) Run(g *Global, root *CLI) error {
	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	settings, err := c.loadSettings(g.Logger)
	if err != nil {
		return err
	}
	rec, flush := root.recorder()

	// Each rebuild reloads the configuration so edits to _config.yml apply.
	build := func(ctx context.Context, outputDir string) error {
		s, err := c.loadSettings(g.Logger)
		if err != nil {
			return err
		}
		s.OutputDir = outputDir
		report, err := runBuild(ctx, g, s, rec)
		if flushErr := flush(); flushErr != nil {
			g.Logger.Warn("Metrics not written", logfields.Error(flushErr))
		}
		if err != nil {
			return err
		}
		_, _ = fmt.Fprintln(g.Stdout, report.Summary())
		return nil
	}

	watch := []string{settings.ProjectDir}
	for _, dir := range []string{settings.TemplateDir, settings.LibDir} {
		if !within(settings.ProjectDir, dir) {
			watch = append(watch, dir)
		}
	}

	srv := preview.New(preview.Options{
		Host:         c.Host,
		Port:         c.Port,
		OutputDir:    settings.OutputDir,
		WatchDirs:    watch,
		RebuildEvery: c.RebuildEvery,
		Logger:       g.Logger,
	}, build)
	return srv.Run(ctx)
}

func within(root, path string) bool {
	rel, err := filepath.Rel(root, path)
	return err == nil && rel != ".." && !strings.HasPrefix(rel, ".."+string(filepath.Separator))
}
