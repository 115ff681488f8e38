// Package template renders pages through a templating engine selected by
// short name. Every engine sees the same variables (see Bindings) and the
// same helpers (datetimeformat, ordinalsuffix).
package template

import (
	stderrors "errors"
	"fmt"
	"log/slog"
	"maps"
	"slices"

	"git.home.luguber.info/inful/quire/internal/foundation/errors"
	"git.home.luguber.info/inful/quire/internal/page"
)

// DefaultTemplate is the template every page starts with unless the site
// configures another one.
const DefaultTemplate = "default.html"

var (
	ErrTemplateNotFound = stderrors.New("template not found")
	ErrUnknownEngine    = stderrors.New("unknown templating engine")
)

// Engine renders pages. Failures are TemplateErrors, which are page-scoped.
type Engine interface {
	Name() string
	RenderFile(name string, b Bindings) (string, error)
	RenderString(src string, b Bindings) (string, error)
	DefaultTemplate() string
}

// Options configure an engine.
type Options struct {
	// TemplateDir is searched for named templates.
	TemplateDir string
	// DefaultTemplate overrides DefaultTemplate when set.
	DefaultTemplate string
	Logger          *slog.Logger
}

func (o Options) defaultTemplate() string {
	if o.DefaultTemplate != "" {
		return o.DefaultTemplate
	}
	return DefaultTemplate
}

func (o Options) logger() *slog.Logger {
	if o.Logger != nil {
		return o.Logger
	}
	return slog.Default()
}

// Constructor builds an engine.
type Constructor func(Options) (Engine, error)

// Registry maps engine shortnames to constructors.
type Registry struct {
	constructors map[string]Constructor
}

// Engine shortnames.
const (
	GoTemplateName = "gotemplate"
	Pongo2Name     = "pongo2"
	// Jinja2Name selects pongo2, whose syntax follows Jinja2.
	Jinja2Name = "jinja2"
)

// NewRegistry returns a registry holding the built-in engines.
func NewRegistry() *Registry {
	r := &Registry{constructors: map[string]Constructor{}}
	r.Register(GoTemplateName, NewGoTemplate)
	r.Register(Pongo2Name, NewPongo2)
	r.Register(Jinja2Name, NewPongo2)
	return r
}

// Register adds or replaces an engine.
func (r *Registry) Register(name string, c Constructor) {
	r.constructors[name] = c
}

// Names returns the registered shortnames, sorted.
func (r *Registry) Names() []string {
	return slices.Sorted(maps.Keys(r.constructors))
}

// Open constructs the engine called name. An unknown name is a config error.
func (r *Registry) Open(name string, opts Options) (Engine, error) {
	c, ok := r.constructors[name]
	if !ok {
		return nil, errors.WrapError(ErrUnknownEngine, errors.CategoryConfig, "unknown templating engine").
			Fatal().
			WithContext("engine", name).
			WithContext("available", r.Names()).
			Build()
	}
	e, err := c(opts)
	if err != nil {
		return nil, errors.WrapError(err, errors.CategoryConfig, "templating engine failed to initialize").
			Fatal().
			WithContext("engine", name).
			Build()
	}
	return e, nil
}

// Variable names visible to templates.
const (
	VarPage     = "page"
	VarPages    = "pages"
	VarSettings = "settings"
	VarVersion  = "version"
)

// Bindings is what a page is rendered with.
type Bindings struct {
	Page     *page.Page
	Pages    []*page.Page
	Settings map[string]any
	Version  string
}

// Context flattens b into template variables. Pages become header maps so
// templates address them the same way in every engine (page.title). The
// page's params are also exposed at the top level; the fixed variables win
// on a name clash. safe wraps page content so engines that escape output
// leave the rendered markup alone.
func (b Bindings) Context(safe func(string) any) map[string]any {
	ctx := map[string]any{}
	if b.Page != nil {
		for k, v := range b.Page.Params {
			ctx[k] = view(v, safe)
		}
	}
	ctx[VarPage] = view(b.Page, safe)
	ctx[VarPages] = view(b.Pages, safe)
	ctx[VarSettings] = b.Settings
	ctx[VarVersion] = b.Version
	return ctx
}

func view(v any, safe func(string) any) any {
	switch x := v.(type) {
	case *page.Page:
		if x == nil {
			return nil
		}
		fields := x.Fields()
		if content, ok := fields[page.FieldContent].(string); ok && safe != nil {
			fields[page.FieldContent] = safe(content)
		}
		if x.Params != nil {
			fields[page.FieldParams] = view(x.Params, safe)
		}
		return fields
	case []*page.Page:
		out := make([]any, len(x))
		for i, p := range x {
			out[i] = view(p, safe)
		}
		return out
	case map[string]any:
		out := make(map[string]any, len(x))
		for k, item := range x {
			out[k] = view(item, safe)
		}
		return out
	case []any:
		out := make([]any, len(x))
		for i, item := range x {
			out[i] = view(item, safe)
		}
		return out
	default:
		return v
	}
}

func notFound(engine, name string, cause error) error {
	if cause == nil {
		cause = ErrTemplateNotFound
	} else {
		cause = fmt.Errorf("%w: %w", ErrTemplateNotFound, cause)
	}
	return errors.TemplateError("template not found").
		WithCause(cause).
		WithContext("engine", engine).
		WithContext("template", name).
		Build()
}

func renderFailed(engine, name string, cause error) error {
	return errors.TemplateError("template evaluation failed").
		WithCause(cause).
		WithContext("engine", engine).
		WithContext("template", name).
		Build()
}
