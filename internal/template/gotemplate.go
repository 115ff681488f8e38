package template

import (
	"bytes"
	"errors"
	"fmt"
	"html/template"
	"io/fs"
	"log/slog"
	"os"
	"path"
	"path/filepath"
	"strings"
	"sync"

	"git.home.luguber.info/inful/quire/internal/logfields"
)

// GoTemplate renders with html/template. A named template is parsed
// together with every other file in the template directory, so layouts can
// pull in shared templates by their slash path ({{template "base.html" .}}).
// The named file is parsed last and its blocks win.
type GoTemplate struct {
	dir             string
	defaultTemplate string
	logger          *slog.Logger

	mu    sync.Mutex
	files map[string]*template.Template
}

// NewGoTemplate creates the gotemplate engine. Templates load lazily.
func NewGoTemplate(opts Options) (Engine, error) {
	return &GoTemplate{
		dir:             opts.TemplateDir,
		defaultTemplate: opts.defaultTemplate(),
		logger:          opts.logger(),
		files:           map[string]*template.Template{},
	}, nil
}

func (*GoTemplate) Name() string { return GoTemplateName }

func (g *GoTemplate) DefaultTemplate() string { return g.defaultTemplate }

func (g *GoTemplate) RenderFile(name string, b Bindings) (string, error) {
	t, err := g.load(name)
	if err != nil {
		return "", err
	}
	return g.execute(t, name, b)
}

func (g *GoTemplate) RenderString(src string, b Bindings) (string, error) {
	t, err := template.New("self").Funcs(goFuncs()).Parse(src)
	if err != nil {
		return "", renderFailed(GoTemplateName, "self", err)
	}
	return g.execute(t, "self", b)
}

func (g *GoTemplate) execute(t *template.Template, name string, b Bindings) (string, error) {
	var buf bytes.Buffer
	if err := t.Execute(&buf, b.Context(safeHTML)); err != nil {
		return "", renderFailed(GoTemplateName, name, err)
	}
	return buf.String(), nil
}

func (g *GoTemplate) load(name string) (*template.Template, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	if t, ok := g.files[name]; ok {
		return t, nil
	}

	clean := path.Clean(strings.TrimPrefix(filepath.ToSlash(name), "/"))
	if g.dir == "" || clean == ".." || strings.HasPrefix(clean, "../") {
		return nil, notFound(GoTemplateName, name, nil)
	}
	main, err := os.ReadFile(filepath.Join(g.dir, filepath.FromSlash(clean)))
	if err != nil {
		return nil, notFound(GoTemplateName, name, err)
	}

	root := template.New(clean).Funcs(goFuncs())
	err = filepath.WalkDir(g.dir, func(p string, d fs.DirEntry, walkErr error) error {
		if walkErr != nil {
			return walkErr
		}
		if d.IsDir() {
			if p != g.dir && strings.HasPrefix(d.Name(), ".") {
				return filepath.SkipDir
			}
			return nil
		}
		rel, relErr := filepath.Rel(g.dir, p)
		if relErr != nil {
			return relErr
		}
		rel = filepath.ToSlash(rel)
		if rel == clean || strings.HasPrefix(d.Name(), ".") {
			return nil
		}
		data, readErr := os.ReadFile(p)
		if readErr != nil {
			return readErr
		}
		if _, parseErr := root.New(rel).Parse(string(data)); parseErr != nil {
			return fmt.Errorf("%s: %w", rel, parseErr)
		}
		return nil
	})
	if err != nil {
		return nil, renderFailed(GoTemplateName, name, err)
	}
	if _, err := root.Parse(string(main)); err != nil {
		return nil, renderFailed(GoTemplateName, name, err)
	}

	g.logger.Debug("Template loaded", logfields.Engine(GoTemplateName), logfields.Template(clean))
	g.files[name] = root
	return root, nil
}

func safeHTML(s string) any { return template.HTML(s) } //nolint:gosec // rendered page content is trusted markup

func goFuncs() template.FuncMap {
	return template.FuncMap{
		// datetimeformat accepts the date alone or a layout followed by the
		// date, so both {{datetimeformat .page.date}} and
		// {{.page.date | datetimeformat "%Y"}} work.
		"datetimeformat": func(args ...any) (string, error) {
			var format string
			switch len(args) {
			case 1:
			case 2:
				f, ok := args[0].(string)
				if !ok {
					return "", fmt.Errorf("datetimeformat: layout must be a string, got %T", args[0])
				}
				format = f
			default:
				return "", errors.New("datetimeformat: expected a date and an optional layout")
			}
			t, err := toTime(args[len(args)-1])
			if err != nil {
				return "", fmt.Errorf("datetimeformat: %w", err)
			}
			return DatetimeFormat(t, format), nil
		},
		"ordinalsuffix": func(v any) (string, error) {
			day, err := toInt(v)
			if err != nil {
				return "", fmt.Errorf("ordinalsuffix: %w", err)
			}
			return OrdinalSuffix(day), nil
		},
		"safe": func(s string) template.HTML { return template.HTML(s) }, //nolint:gosec // explicit opt-in
	}
}
