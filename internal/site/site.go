// Package site runs a build: it discovers pages through a data source,
// parses them, lets processors work on the collection, renders every page
// through the templating engine and copies static files next to the output.
//
// Failures that concern a single page (parse errors, template errors) skip
// that page and are listed in the Report. Everything else aborts the build.
package site

import (
	"context"
	stderrors "errors"
	"io"
	"log/slog"
	"time"

	"git.home.luguber.info/inful/quire/internal/config"
	"git.home.luguber.info/inful/quire/internal/foundation"
	"git.home.luguber.info/inful/quire/internal/foundation/errors"
	"git.home.luguber.info/inful/quire/internal/fsutil"
	"git.home.luguber.info/inful/quire/internal/logfields"
	"git.home.luguber.info/inful/quire/internal/metrics"
	"git.home.luguber.info/inful/quire/internal/page"
	"git.home.luguber.info/inful/quire/internal/parser"
	"git.home.luguber.info/inful/quire/internal/processor"
	"git.home.luguber.info/inful/quire/internal/source"
	"git.home.luguber.info/inful/quire/internal/template"
	"git.home.luguber.info/inful/quire/internal/urls"
)

// Deps are the collaborators of a build. Recorder, Progress and Logger are
// optional.
type Deps struct {
	Settings *config.Settings
	Source   source.DataSource
	Parsers  *parser.Registry
	Resolver *urls.Resolver
	Pipeline *processor.Pipeline
	Engine   template.Engine
	Recorder metrics.Recorder
	// Progress receives one dot per parsed page.
	Progress io.Writer
	Logger   *slog.Logger
	BuildID  string
	Version  string
}

// Site is a single build. It is not reusable: create a new one per run.
type Site struct {
	settings *config.Settings
	source   source.DataSource
	parsers  *parser.Registry
	resolver *urls.Resolver
	pipeline *processor.Pipeline
	engine   template.Engine
	recorder metrics.Recorder
	progress io.Writer
	logger   *slog.Logger
	version  string

	report *Report
	tree   *source.Tree
	pages  []*page.Page
}

// New checks deps and prepares a build.
func New(d Deps) (*Site, error) {
	switch {
	case d.Settings == nil:
		return nil, errors.InternalError("site needs settings").Build()
	case d.Source == nil:
		return nil, errors.InternalError("site needs a data source").Build()
	case d.Parsers == nil:
		return nil, errors.InternalError("site needs a parser registry").Build()
	case d.Resolver == nil:
		return nil, errors.InternalError("site needs a url resolver").Build()
	case d.Engine == nil:
		return nil, errors.InternalError("site needs a templating engine").Build()
	}
	s := &Site{
		settings: d.Settings,
		source:   d.Source,
		parsers:  d.Parsers,
		resolver: d.Resolver,
		pipeline: d.Pipeline,
		engine:   d.Engine,
		recorder: d.Recorder,
		progress: d.Progress,
		logger:   d.Logger,
		version:  d.Version,
		report:   newReport(d.BuildID, time.Now()),
	}
	if s.pipeline == nil {
		s.pipeline = processor.NewPipeline(processor.Env{Settings: d.Settings, Logger: d.Logger}, nil, nil)
	}
	if s.recorder == nil {
		s.recorder = metrics.NoopRecorder{}
	}
	if s.progress == nil {
		s.progress = io.Discard
	}
	if s.logger == nil {
		s.logger = slog.Default()
	}
	return s, nil
}

// Run executes the build. The report is returned even when the build fails.
func (s *Site) Run(ctx context.Context) (*Report, error) {
	s.report.Start = time.Now()
	s.logger.Info("Build started",
		logfields.BuildID(s.report.BuildID),
		logfields.Path(s.settings.ProjectDir),
		logfields.Engine(s.engine.Name()))
	for _, stage := range processor.Stages() {
		s.logger.Debug("Processor hooks", logfields.Stage(string(stage)), slog.Any("processors", s.pipeline.For(stage)))
	}

	err := s.runStages(ctx, s.stages())
	canceled := stderrors.Is(err, context.Canceled) || stderrors.Is(err, context.DeadlineExceeded)
	s.report.finish(err, canceled)
	s.recorder.ObserveBuildDuration(s.report.Elapsed())
	s.recorder.IncBuildOutcome(s.report.Outcome)

	if err != nil {
		return s.report, err
	}
	s.logger.Info("Build finished",
		logfields.BuildID(s.report.BuildID),
		logfields.Count(s.report.Pages),
		slog.Int("written", s.report.Written),
		slog.Int("skipped", len(s.report.Skipped)),
		logfields.DurationMS(float64(s.report.Elapsed().Microseconds())/1000))
	return s.report, nil
}

// Pages returns the page collection once the build has parsed it.
func (s *Site) Pages() []*page.Page {
	return s.pages
}

func (s *Site) discover(context.Context) error {
	tree, err := s.source.ReadFiles()
	if err != nil {
		return err
	}
	s.tree = tree
	s.logger.Debug("Pages discovered", logfields.Count(len(tree.Pages())), slog.Int("dirs", len(tree.Dirs())))
	return nil
}

func (s *Site) parse(ctx context.Context) error {
	discovered := s.tree.Pages()
	pages := make([]*page.Page, 0, len(discovered))
	for _, p := range discovered {
		if err := ctx.Err(); err != nil {
			return err
		}
		ok, err := s.parsePage(p)
		if err != nil {
			return err
		}
		if !ok {
			continue
		}
		pages = append(pages, p)
		_, _ = io.WriteString(s.progress, ".")
	}
	_, _ = io.WriteString(s.progress, "\n")
	s.pages = pages
	return nil
}

// parsePage runs the per-page part of the parse stage. ok is false when the
// page leaves the collection; err is set only for failures that abort the build.
func (s *Site) parsePage(p *page.Page) (ok bool, err error) {
	prs, found := s.parsers.Lookup(p.Path)
	if !found {
		return false, errors.InternalError("no parser for discovered page").WithContext("path", p.Path).Build()
	}

	raw, err := s.source.Read(p.Path)
	if err != nil {
		if stderrors.Is(err, source.ErrNotUTF8) {
			return false, s.skipParse(p, errors.ParserError("page is not valid UTF-8").WithCause(err).Build())
		}
		return false, err
	}

	res, err := parser.Parse(prs, raw, p.Path, parser.Options{Location: s.settings.BuildTZ, Logger: s.logger})
	if err != nil {
		return false, s.skipParse(p, err)
	}
	if ext := prs.OutputExt(); ext != "" {
		p.OutputExt = ext
	}
	if err := p.Merge(res.Headers); err != nil {
		return false, s.skipParse(p, errors.ParserError("invalid header").WithCause(err).Build())
	}

	if excluded, reason := p.Excluded(s.settings.BuildTime); excluded {
		s.logger.Debug("Page not rendered", logfields.Page(p.Path), logfields.Reason(reason))
		s.report.Excluded++
		s.recorder.IncPageResult(metrics.PageExcluded)
		return false, nil
	}

	url, err := s.resolver.Resolve(p)
	if err != nil {
		return false, s.skipParse(p, errors.ParserError("no url rule for page").WithCause(err).Build())
	}
	p.URL = url

	if err := s.pipeline.BeforePageParsing(p); err != nil {
		return false, err
	}
	p.Content = foundation.Some(res.Content)
	if err := s.pipeline.AfterPageParsed(p); err != nil {
		return false, err
	}
	return true, nil
}

// skipParse records a page-scoped failure. Anything else is handed back to abort the run.
func (s *Site) skipParse(p *page.Page, err error) error {
	if !errors.IsPageScoped(err) {
		return err
	}
	s.logger.Error("Skipping page", logfields.Page(p.Path), logfields.Stage(string(StageParse)), logfields.Error(err))
	s.report.skip(p.Path, StageParse, err.Error())
	s.recorder.IncPageResult(metrics.PageParseFailed)
	return nil
}

func (s *Site) sort(context.Context) error {
	page.SortByDateDesc(s.pages)
	if err := s.pipeline.AfterParsing(&s.pages); err != nil {
		return err
	}
	s.report.Pages = len(s.pages)
	return nil
}

func (s *Site) clearOutput(context.Context) error {
	if err := fsutil.Clean(s.settings.OutputDir); err != nil {
		return errors.WrapError(err, errors.CategoryFileSystem, "clear output directory").
			Fatal().WithContext("path", s.settings.OutputDir).Build()
	}
	return nil
}

func (s *Site) write(ctx context.Context) error {
	public := page.Public(s.pages)
	written := map[string]string{}

	for _, p := range s.pages {
		if err := ctx.Err(); err != nil {
			return err
		}
		dst, err := urls.OutputPath(s.settings.OutputDir, p.URL)
		if err != nil {
			s.skipWrite(p, errors.TemplateError("page url leaves the output directory").
				WithCause(err).WithContext("url", p.URL).Build())
			continue
		}

		rendered, err := s.render(p, public)
		if err != nil {
			if !errors.IsPageScoped(err) {
				return err
			}
			s.skipWrite(p, err)
			continue
		}
		rendered, err = s.pipeline.AfterRendering(p, rendered)
		if err != nil {
			return err
		}

		if prev, ok := written[dst]; ok {
			s.logger.Warn("Output path collision, last write wins",
				logfields.Path(dst), slog.String("previous", prev), logfields.Page(p.Path))
		}
		written[dst] = p.Path

		mtime := p.MTime.In(s.settings.BuildTZ)
		if err := fsutil.WriteFile(dst, []byte(rendered), mtime); err != nil {
			return errors.WrapError(err, errors.CategoryFileSystem, "write page").
				Fatal().WithContext("path", dst).Build()
		}
		if s.settings.MakeCompressedCopy {
			if err := fsutil.Gzip(dst, mtime); err != nil {
				return errors.WrapError(err, errors.CategoryFileSystem, "compress page").
					Fatal().WithContext("path", dst).Build()
			}
		}
		s.logger.Debug("Page written", logfields.Page(p.Path), logfields.Path(dst))
		s.report.Written++
		s.recorder.IncPageResult(metrics.PageWritten)
	}
	return nil
}

func (s *Site) render(p *page.Page, public []*page.Page) (string, error) {
	b := template.Bindings{
		Page:     p,
		Pages:    public,
		Settings: s.settings.Raw,
		Version:  s.version,
	}
	if p.Template == page.TemplateSelf {
		content, _ := p.Content.Get()
		return s.engine.RenderString(content, b)
	}
	name := p.Template
	if name == "" {
		name = s.engine.DefaultTemplate()
	}
	return s.engine.RenderFile(name, b)
}

func (s *Site) skipWrite(p *page.Page, err error) {
	s.logger.Error("Skipping page", logfields.Page(p.Path), logfields.Stage(string(StageWrite)), logfields.Error(err))
	s.report.skip(p.Path, StageWrite, err.Error())
	s.recorder.IncPageResult(metrics.PageTemplateFailed)
}
