package site

import (
	"io"
	"log/slog"

	"git.home.luguber.info/inful/quire/internal/config"
	"git.home.luguber.info/inful/quire/internal/foundation/errors"
	"git.home.luguber.info/inful/quire/internal/metrics"
	"git.home.luguber.info/inful/quire/internal/parser"
	"git.home.luguber.info/inful/quire/internal/processor"
	"git.home.luguber.info/inful/quire/internal/source"
	"git.home.luguber.info/inful/quire/internal/template"
	"git.home.luguber.info/inful/quire/internal/urls"
)

// Options are the per-run inputs of Open besides the settings.
type Options struct {
	Logger   *slog.Logger
	Recorder metrics.Recorder
	Progress io.Writer
	BuildID  string
	Version  string
}

// Open builds the registries from the built-ins and the settings and
// returns a site ready to Run. Unknown engines, sources and invalid url
// rules are config errors.
func Open(settings *config.Settings, opts Options) (*Site, error) {
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}

	parsers := parser.NewRegistry(logger)
	parsers.RegisterAll(parser.Builtins()...)

	engine, err := template.NewRegistry().Open(settings.TemplatingEngine, template.Options{
		TemplateDir:     settings.TemplateDir,
		DefaultTemplate: settings.Site.DefaultTemplate,
		Logger:          logger,
	})
	if err != nil {
		return nil, err
	}

	ds, err := source.NewRegistry().Open(settings.Source, source.Options{
		ProjectDir:      settings.ProjectDir,
		BuildTime:       settings.BuildTime,
		Location:        settings.BuildTZ,
		DefaultTemplate: engine.DefaultTemplate(),
		PageDefaults:    settings.Site.PageDefaults,
		Classifier:      parsers,
		Logger:          logger,
	})
	if err != nil {
		return nil, err
	}

	resolver := urls.NewDefaultResolver(settings.Site.PrettyURLPattern)
	if err := resolver.RegisterConfig(settings.Site.URLs); err != nil {
		return nil, errors.WrapError(err, errors.CategoryConfig, "register url rules").Fatal().Build()
	}

	pipeline := processor.NewPipeline(processor.Env{
		Settings: settings,
		Reader:   ds,
		Logger:   logger,
	}, processor.Builtins(), settings.Site.Processors)

	return New(Deps{
		Settings: settings,
		Source:   ds,
		Parsers:  parsers,
		Resolver: resolver,
		Pipeline: pipeline,
		Engine:   engine,
		Recorder: opts.Recorder,
		Progress: opts.Progress,
		Logger:   logger,
		BuildID:  opts.BuildID,
		Version:  opts.Version,
	})
}
