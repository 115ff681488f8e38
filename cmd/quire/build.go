package main

import (
	"context"
	"fmt"
	"os/signal"
	"syscall"

	"github.com/google/uuid"

	"git.home.luguber.info/inful/quire/internal/config"
	"git.home.luguber.info/inful/quire/internal/logfields"
	"git.home.luguber.info/inful/quire/internal/metrics"
	"git.home.luguber.info/inful/quire/internal/site"
	"git.home.luguber.info/inful/quire/internal/version"
)

// BuildCmd implements the 'build' command.
type BuildCmd struct {
	ProjectFlags `embed:""`
}

func (b *BuildCmd) Run(g *Global, root *CLI) error {
	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	settings, err := b.loadSettings(g.Logger)
	if err != nil {
		return err
	}
	rec, flush := root.recorder()
	report, err := runBuild(ctx, g, settings, rec)
	if flushErr := flush(); flushErr != nil {
		g.Logger.Warn("Metrics not written", logfields.Error(flushErr))
	}
	if err != nil {
		return err
	}
	_, _ = fmt.Fprintln(g.Stdout, report.Summary())
	return nil
}

// runBuild opens and runs one build of settings.
func runBuild(ctx context.Context, g *Global, settings *config.Settings, rec metrics.Recorder) (*site.Report, error) {
	s, err := site.Open(settings, site.Options{
		Logger:   g.Logger,
		Recorder: rec,
		Progress: g.Stdout,
		BuildID:  uuid.NewString(),
		Version:  version.Version,
	})
	if err != nil {
		return nil, err
	}
	return s.Run(ctx)
}
