// Package source reads a project directory into pages and static files.
package source

import (
	"fmt"
	"io/fs"
	"log/slog"
	"maps"
	"os"
	"path"
	"path/filepath"
	"strings"
	"time"
	"unicode/utf8"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"git.home.luguber.info/inful/quire/internal/logfields"
	"git.home.luguber.info/inful/quire/internal/page"
)

// DataSource produces the pages of a build.
type DataSource interface {
	// ReadFiles walks the project and returns pages with default headers
	// and their associated static files.
	ReadFiles() (*Tree, error)
	// Read returns the text of a project-relative path.
	Read(path string) (string, error)
}

// Classifier decides whether a file is a page. *parser.Registry satisfies it.
type Classifier interface {
	Parses(path string) bool
}

// Options configure a data source.
type Options struct {
	ProjectDir      string
	BuildTime       time.Time
	Location        *time.Location
	DefaultTemplate string
	// PageDefaults are applied over the derived default headers.
	PageDefaults map[string]any
	Classifier   Classifier
	Logger       *slog.Logger
}

// ignored reports whether a file or directory name is pruned from the walk.
func ignored(name string) bool {
	return strings.HasPrefix(name, ".") ||
		strings.HasSuffix(name, "~") ||
		strings.HasPrefix(name, "#") ||
		strings.HasPrefix(name, "_")
}

// dateFunc returns the modification time of a project file.
type dateFunc func(rel, abs string) (time.Time, error)

// walker is shared by the filesystem and git sources; they differ only in
// where page dates come from.
type walker struct {
	opts  Options
	dates dateFunc
	title cases.Caser
}

func newWalker(opts Options, dates dateFunc) *walker {
	if opts.Logger == nil {
		opts.Logger = slog.Default()
	}
	if opts.Location == nil {
		opts.Location = time.UTC
	}
	if opts.BuildTime.IsZero() {
		opts.BuildTime = time.Now()
	}
	return &walker{opts: opts, dates: dates, title: cases.Title(language.Und)}
}

func (w *walker) ReadFiles() (*Tree, error) {
	root := w.opts.ProjectDir
	var dirs []string
	files := map[string][]string{}

	err := filepath.WalkDir(root, func(abs string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if abs != root && ignored(d.Name()) {
			if d.IsDir() {
				return filepath.SkipDir
			}
			return nil
		}
		rel, err := filepath.Rel(root, abs)
		if err != nil {
			return err
		}
		rel = filepath.ToSlash(rel)
		if d.IsDir() {
			dirs = append(dirs, rel)
			return nil
		}
		if !d.Type().IsRegular() {
			return nil
		}
		dir := path.Dir(rel)
		files[dir] = append(files[dir], rel)
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %w", ErrWalkFailed, root, err)
	}

	tree := NewTree()
	for _, dir := range dirs {
		var pages []*page.Page
		var static []string
		for _, rel := range files[dir] {
			if w.opts.Classifier != nil && w.opts.Classifier.Parses(rel) {
				p, err := w.newPage(rel)
				if err != nil {
					return nil, err
				}
				pages = append(pages, p)
			} else {
				static = append(static, rel)
			}
		}
		tree.add(dir, pages, static)
	}
	tree.attachStatic()

	w.opts.Logger.Debug("Project read",
		logfields.Path(root),
		logfields.Count(len(tree.Pages())),
		slog.Int("assets", len(tree.Root().Static)))
	return tree, nil
}

func (w *walker) Read(rel string) (string, error) {
	abs := filepath.Join(w.opts.ProjectDir, filepath.FromSlash(rel))
	// #nosec G304 - rel comes from the project walk
	data, err := os.ReadFile(abs)
	if err != nil {
		return "", fmt.Errorf("%w: %s: %w", ErrReadFailed, rel, err)
	}
	if !utf8.Valid(data) {
		return "", fmt.Errorf("%w: %s", ErrNotUTF8, rel)
	}
	return string(data), nil
}

// newPage creates a page for rel carrying the default headers.
func (w *walker) newPage(rel string) (*page.Page, error) {
	ext := path.Ext(rel)
	dir, file := path.Split(strings.TrimSuffix(rel, ext))
	dir = strings.TrimSuffix(dir, "/")

	slug := file
	if file == "index" && dir != "" {
		slug = path.Base(dir)
	}

	date, err := w.dates(rel, filepath.Join(w.opts.ProjectDir, filepath.FromSlash(rel)))
	if err != nil {
		w.opts.Logger.Debug("Modification time unavailable, using build time",
			logfields.Page(rel), logfields.Error(err))
		date = w.opts.BuildTime
	}
	date = date.In(w.opts.Location)

	p := page.New(rel)
	p.Title = w.title.String(file)
	p.Slug = slug
	p.Date = date
	p.MTime = date
	p.Template = w.opts.DefaultTemplate
	p.OutputExt = strings.TrimPrefix(ext, ".")

	if len(w.opts.PageDefaults) > 0 {
		defaults := maps.Clone(w.opts.PageDefaults)
		delete(defaults, page.FieldPath)
		if err := p.Merge(defaults); err != nil {
			return nil, fmt.Errorf("page_defaults: %w", err)
		}
	}
	return p, nil
}

// Filesystem reads pages from disk and dates them by file modification time.
type Filesystem struct {
	*walker
}

// NewFilesystem creates the filesystem data source.
func NewFilesystem(opts Options) *Filesystem {
	return &Filesystem{walker: newWalker(opts, fileModTime)}
}

func fileModTime(_, abs string) (time.Time, error) {
	info, err := os.Stat(abs)
	if err != nil {
		return time.Time{}, err
	}
	return info.ModTime(), nil
}
