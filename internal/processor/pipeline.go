package processor

import (
	"log/slog"

	"git.home.luguber.info/inful/quire/internal/foundation/errors"
	"git.home.luguber.info/inful/quire/internal/logfields"
	"git.home.luguber.info/inful/quire/internal/page"
)

// Pipeline holds the loaded processors grouped by stage.
type Pipeline struct {
	loaded []Processor
	before []BeforePageParser
	parsed []AfterPageParsedHook
	all    []AfterParsingHook
	render []AfterRenderingHook
	logger *slog.Logger
}

// NewPipeline constructs processors from factories. When enabled is non-empty
// only the named processors are loaded, in the order given. A constructor
// that fails is skipped with a debug message.
func NewPipeline(env Env, factories []Factory, enabled []string) *Pipeline {
	if env.Logger == nil {
		env.Logger = slog.Default()
	}
	pl := &Pipeline{logger: env.Logger}

	selected := factories
	if len(enabled) > 0 {
		byName := make(map[string]Factory, len(factories))
		for _, f := range factories {
			byName[f.Name] = f
		}
		selected = selected[:0:0]
		for _, name := range enabled {
			f, ok := byName[name]
			if !ok {
				env.Logger.Warn("Unknown processor in configuration", logfields.Processor(name))
				continue
			}
			selected = append(selected, f)
		}
	}

	for _, f := range selected {
		p, err := f.New(env)
		if err != nil {
			perr := errors.WrapError(err, errors.CategoryPlugin, "processor not loaded").
				WithContext("processor", f.Name).Build()
			env.Logger.Debug("Processor has not been loaded", logfields.Processor(f.Name), logfields.Error(perr))
			continue
		}
		pl.Add(p)
	}
	return pl
}

// Add registers p for every stage it implements.
func (pl *Pipeline) Add(p Processor) {
	pl.loaded = append(pl.loaded, p)
	if h, ok := p.(BeforePageParser); ok {
		pl.before = append(pl.before, h)
	}
	if h, ok := p.(AfterPageParsedHook); ok {
		pl.parsed = append(pl.parsed, h)
	}
	if h, ok := p.(AfterParsingHook); ok {
		pl.all = append(pl.all, h)
	}
	if h, ok := p.(AfterRenderingHook); ok {
		pl.render = append(pl.render, h)
	}
	pl.logger.Debug("Processor loaded", logfields.Processor(p.Name()))
}

// Names returns the loaded processor names in registration order.
func (pl *Pipeline) Names() []string {
	out := make([]string, len(pl.loaded))
	for i, p := range pl.loaded {
		out[i] = p.Name()
	}
	return out
}

// For returns the names of the processors hooked into stage.
func (pl *Pipeline) For(stage Stage) []string {
	var out []string
	for _, p := range pl.loaded {
		if implements(p, stage) {
			out = append(out, p.Name())
		}
	}
	return out
}

func implements(p Processor, stage Stage) bool {
	switch stage {
	case BeforePageParsing:
		_, ok := p.(BeforePageParser)
		return ok
	case AfterPageParsed:
		_, ok := p.(AfterPageParsedHook)
		return ok
	case AfterParsing:
		_, ok := p.(AfterParsingHook)
		return ok
	case AfterRendering:
		_, ok := p.(AfterRenderingHook)
		return ok
	}
	return false
}

func hookError(err error, p Processor, stage Stage, pg *page.Page) error {
	b := errors.WrapError(err, errors.CategoryBuild, "processor failed").
		Fatal().
		WithContext("processor", p.Name()).
		WithContext("stage", string(stage))
	if pg != nil {
		b = b.WithContext("page", pg.Path)
	}
	return b.Build()
}

// BeforePageParsing runs the before_page_parsing hooks for p.
func (pl *Pipeline) BeforePageParsing(p *page.Page) error {
	for _, h := range pl.before {
		if err := h.BeforePageParsing(p); err != nil {
			return hookError(err, h, BeforePageParsing, p)
		}
	}
	return nil
}

// AfterPageParsed runs the after_page_parsed hooks for p.
func (pl *Pipeline) AfterPageParsed(p *page.Page) error {
	for _, h := range pl.parsed {
		if err := h.AfterPageParsed(p); err != nil {
			return hookError(err, h, AfterPageParsed, p)
		}
	}
	return nil
}

// AfterParsing runs the after_parsing hooks over the whole collection.
func (pl *Pipeline) AfterParsing(pages *[]*page.Page) error {
	for _, h := range pl.all {
		if err := h.AfterParsing(pages); err != nil {
			return hookError(err, h, AfterParsing, nil)
		}
	}
	return nil
}

// AfterRendering threads rendered through every after_rendering hook.
func (pl *Pipeline) AfterRendering(p *page.Page, rendered string) (string, error) {
	for _, h := range pl.render {
		out, err := h.AfterRendering(p, rendered)
		if err != nil {
			return "", hookError(err, h, AfterRendering, p)
		}
		rendered = out
	}
	return rendered, nil
}
