package template

import (
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"sync"

	"github.com/flosch/pongo2/v6"

	"git.home.luguber.info/inful/quire/internal/logfields"
)

// pongo2 keeps filters and the autoescape switch in process-wide state.
var setupPongo2 sync.Once

// Output is not escaped, as in Jinja2's default environment: page content
// is already markup.
func pongo2Globals() {
	setupPongo2.Do(func() {
		pongo2.SetAutoescape(false)
		_ = pongo2.RegisterFilter("datetimeformat", filterDatetimeFormat)
		_ = pongo2.RegisterFilter("ordinalsuffix", filterOrdinalSuffix)
	})
}

// Pongo2 renders with pongo2, whose syntax follows Jinja2/Django
// ({{ page.date|datetimeformat:"%Y" }}). Includes and extends resolve
// against the template directory.
type Pongo2 struct {
	set             *pongo2.TemplateSet
	defaultTemplate string
	logger          *slog.Logger
}

// NewPongo2 creates the pongo2 engine. A missing template directory is not
// an error until a named template is requested.
func NewPongo2(opts Options) (Engine, error) {
	pongo2Globals()

	var loader pongo2.TemplateLoader
	if fi, err := os.Stat(opts.TemplateDir); err == nil && fi.IsDir() {
		local, err := pongo2.NewLocalFileSystemLoader(opts.TemplateDir)
		if err != nil {
			return nil, err
		}
		loader = local
	} else {
		opts.logger().Debug("Template directory not found", logfields.Path(opts.TemplateDir), logfields.Engine(Pongo2Name))
		loader = pongo2.NewFSLoader(emptyFS{})
	}

	return &Pongo2{
		set:             pongo2.NewSet(Pongo2Name, loader),
		defaultTemplate: opts.defaultTemplate(),
		logger:          opts.logger(),
	}, nil
}

func (*Pongo2) Name() string { return Pongo2Name }

func (e *Pongo2) DefaultTemplate() string { return e.defaultTemplate }

func (e *Pongo2) RenderFile(name string, b Bindings) (string, error) {
	t, err := e.set.FromCache(name)
	if err != nil {
		var perr *pongo2.Error
		if errors.As(err, &perr) && perr.Sender == "fromfile" {
			return "", notFound(Pongo2Name, name, perr.OrigError)
		}
		return "", renderFailed(Pongo2Name, name, err)
	}
	return e.execute(t, name, b)
}

func (e *Pongo2) RenderString(src string, b Bindings) (string, error) {
	t, err := e.set.FromString(src)
	if err != nil {
		return "", renderFailed(Pongo2Name, "self", err)
	}
	return e.execute(t, "self", b)
}

func (e *Pongo2) execute(t *pongo2.Template, name string, b Bindings) (string, error) {
	out, err := t.Execute(pongo2.Context(b.Context(nil)))
	if err != nil {
		return "", renderFailed(Pongo2Name, name, err)
	}
	return out, nil
}

type emptyFS struct{}

func (emptyFS) Open(name string) (fs.File, error) {
	return nil, &fs.PathError{Op: "open", Path: name, Err: fs.ErrNotExist}
}

func filterDatetimeFormat(in, param *pongo2.Value) (*pongo2.Value, *pongo2.Error) {
	t, err := toTime(in.Interface())
	if err != nil {
		return nil, &pongo2.Error{Sender: "filter:datetimeformat", OrigError: err}
	}
	format := ""
	if !param.IsNil() {
		format = param.String()
	}
	return pongo2.AsValue(DatetimeFormat(t, format)), nil
}

func filterOrdinalSuffix(in, _ *pongo2.Value) (*pongo2.Value, *pongo2.Error) {
	day, err := toInt(in.Interface())
	if err != nil {
		return nil, &pongo2.Error{Sender: "filter:ordinalsuffix", OrigError: fmt.Errorf("ordinalsuffix: %w", err)}
	}
	return pongo2.AsValue(OrdinalSuffix(day)), nil
}
