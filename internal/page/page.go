// Package page defines the Page record that flows through a build: created
// with default headers by a data source, filled by a parser, mutated by
// processors and finally handed read-only to a templating engine.
package page

import (
	"fmt"
	"maps"
	"slices"
	"strings"
	"time"

	"git.home.luguber.info/inful/quire/internal/foundation"
)

// Status is the publication state of a page.
type Status string

const (
	StatusLive   Status = "live"
	StatusHidden Status = "hidden"
	StatusDraft  Status = "draft"
)

var statusNormalizer = foundation.NewNormalizer(map[string]Status{
	"live":   StatusLive,
	"hidden": StatusHidden,
	"draft":  StatusDraft,
}, StatusLive)

// NormalizeStatus maps a header value onto a Status. Anything unrecognized is live.
func NormalizeStatus(raw string) Status {
	return statusNormalizer.Normalize(raw)
}

// Known header names.
const (
	FieldPath        = "path"
	FieldTitle       = "title"
	FieldDate        = "date"
	FieldMTime       = "mtime"
	FieldStatus      = "status"
	FieldSlug        = "slug"
	FieldTemplate    = "template"
	FieldURL         = "url"
	FieldOutputExt   = "output_ext"
	FieldContent     = "content"
	FieldStaticFiles = "static_files"
	FieldParams      = "params"

	FieldExpires   = "expires"
	FieldPublished = "published"
	FieldTimezone  = "timezone"
)

const (
	// TemplateSelf renders a page's own content as its template.
	TemplateSelf = "self"
	// DefaultURL is the rule name every page starts with.
	DefaultURL = "default"
)

// Page is one output document and its metadata. Known headers have typed
// fields; anything else a user writes into the front matter lands in Extra.
type Page struct {
	Path        string
	Title       string
	Date        time.Time
	MTime       time.Time
	Status      Status
	Slug        string
	Template    string
	URL         string
	OutputExt   string
	Content     foundation.Option[string]
	StaticFiles []string
	Params      map[string]any
	Extra       map[string]any
}

// New creates a page for path with the status and url defaults applied.
func New(path string) *Page {
	return &Page{
		Path:   path,
		Status: StatusLive,
		URL:    DefaultURL,
		Extra:  map[string]any{},
	}
}

// IsPublic reports whether the page shows up in listings (status is not hidden).
func (p *Page) IsPublic() bool {
	return p.Status != StatusHidden
}

// IsParsed reports whether content has been populated.
func (p *Page) IsParsed() bool {
	return p.Content.IsSome()
}

// Excluded reports whether the page must not be rendered at instant now, and why.
func (p *Page) Excluded(now time.Time) (bool, string) {
	if p.Status == StatusDraft {
		return true, "draft"
	}
	if published, ok := p.Extra[FieldPublished].(bool); ok && !published {
		return true, "unpublished"
	}
	if p.Date.After(now) {
		return true, "future date"
	}
	if expires, ok := p.Extra[FieldExpires].(time.Time); ok && expires.Before(now) {
		return true, "expired"
	}
	return false, ""
}

// Has reports whether a header is present. Typed fields count as present once non-zero.
func (p *Page) Has(name string) bool {
	return p.Get(name).IsSome()
}

// Get returns a header by name.
func (p *Page) Get(name string) foundation.Option[any] {
	switch name {
	case FieldPath:
		return nonZero(p.Path)
	case FieldTitle:
		return nonZero(p.Title)
	case FieldDate:
		return nonZeroTime(p.Date)
	case FieldMTime:
		return nonZeroTime(p.MTime)
	case FieldStatus:
		return nonZero(string(p.Status))
	case FieldSlug:
		return nonZero(p.Slug)
	case FieldTemplate:
		return nonZero(p.Template)
	case FieldURL:
		return nonZero(p.URL)
	case FieldOutputExt:
		return nonZero(p.OutputExt)
	case FieldContent:
		return foundation.MapOption(p.Content, func(s string) any { return s })
	case FieldStaticFiles:
		return foundation.OptionOf[any](p.StaticFiles, p.StaticFiles != nil)
	case FieldParams:
		return foundation.OptionOf[any](p.Params, p.Params != nil)
	}
	v, ok := p.Extra[name]
	return foundation.OptionOf(v, ok)
}

// Set assigns a header. Known names are coerced onto their typed field;
// everything else is stored in Extra.
func (p *Page) Set(name string, value any) error {
	switch name {
	case FieldPath:
		p.Path = stringify(value)
	case FieldTitle:
		p.Title = stringify(value)
	case FieldStatus:
		p.Status = NormalizeStatus(stringify(value))
	case FieldSlug:
		p.Slug = stringify(value)
	case FieldTemplate:
		p.Template = stringify(value)
	case FieldURL:
		p.URL = stringify(value)
	case FieldOutputExt:
		p.OutputExt = strings.TrimPrefix(stringify(value), ".")
	case FieldContent:
		p.Content = foundation.Some(stringify(value))
	case FieldDate, FieldMTime:
		t, ok := value.(time.Time)
		if !ok {
			return fmt.Errorf("header %q must be a date, got %T", name, value)
		}
		if name == FieldDate {
			p.Date = t
		} else {
			p.MTime = t
		}
	case FieldStaticFiles:
		files, err := toStrings(value)
		if err != nil {
			return fmt.Errorf("header %q: %w", name, err)
		}
		p.StaticFiles = files
	case FieldParams:
		m, ok := value.(map[string]any)
		if !ok {
			return fmt.Errorf("header %q must be a mapping, got %T", name, value)
		}
		p.Params = m
	default:
		if p.Extra == nil {
			p.Extra = map[string]any{}
		}
		p.Extra[name] = value
	}
	return nil
}

// Delete removes an extension header.
func (p *Page) Delete(name string) {
	delete(p.Extra, name)
}

// Merge applies every header in fields via Set, in sorted key order so
// coercion errors are reported deterministically.
func (p *Page) Merge(fields map[string]any) error {
	for _, k := range slices.Sorted(maps.Keys(fields)) {
		if err := p.Set(k, fields[k]); err != nil {
			return err
		}
	}
	return nil
}

// Fields returns a flat map view of the page for templates and hashing.
func (p *Page) Fields() map[string]any {
	out := make(map[string]any, len(p.Extra)+12)
	maps.Copy(out, p.Extra)
	out[FieldPath] = p.Path
	out[FieldTitle] = p.Title
	out[FieldDate] = p.Date
	out[FieldMTime] = p.MTime
	out[FieldStatus] = string(p.Status)
	out[FieldSlug] = p.Slug
	out[FieldTemplate] = p.Template
	out[FieldURL] = p.URL
	out[FieldOutputExt] = p.OutputExt
	out[FieldStaticFiles] = p.StaticFiles
	if p.Params != nil {
		out[FieldParams] = p.Params
	}
	if content, ok := p.Content.Get(); ok {
		out[FieldContent] = content
	}
	return out
}

// Clone returns a deep copy. Pages referenced from Params are shared, not copied.
func (p *Page) Clone() *Page {
	cp := *p
	cp.StaticFiles = slices.Clone(p.StaticFiles)
	cp.Params = deepCopyMap(p.Params)
	cp.Extra = deepCopyMap(p.Extra)
	if cp.Extra == nil {
		cp.Extra = map[string]any{}
	}
	return &cp
}

func (p *Page) String() string {
	return fmt.Sprintf("<Page %s>", p.Path)
}

func deepCopyMap(m map[string]any) map[string]any {
	if m == nil {
		return nil
	}
	result := make(map[string]any, len(m))
	for k, v := range m {
		result[k] = deepCopyValue(v)
	}
	return result
}

func deepCopyValue(v any) any {
	switch val := v.(type) {
	case map[string]any:
		return deepCopyMap(val)
	case []any:
		result := make([]any, len(val))
		for i, item := range val {
			result[i] = deepCopyValue(item)
		}
		return result
	case []string:
		return slices.Clone(val)
	default:
		return v
	}
}

func nonZero(s string) foundation.Option[any] {
	return foundation.OptionOf[any](s, s != "")
}

func nonZeroTime(t time.Time) foundation.Option[any] {
	return foundation.OptionOf[any](t, !t.IsZero())
}

func stringify(v any) string {
	switch val := v.(type) {
	case nil:
		return ""
	case string:
		return val
	case fmt.Stringer:
		return val.String()
	default:
		return fmt.Sprint(val)
	}
}

func toStrings(v any) ([]string, error) {
	switch val := v.(type) {
	case []string:
		return slices.Clone(val), nil
	case []any:
		out := make([]string, 0, len(val))
		for _, item := range val {
			out = append(out, stringify(item))
		}
		return out, nil
	default:
		return nil, fmt.Errorf("expected a list, got %T", v)
	}
}
