package processor

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"log/slog"
	"maps"
	"slices"
	"strings"

	"git.home.luguber.info/inful/quire/internal/logfields"
	"git.home.luguber.info/inful/quire/internal/page"
	"git.home.luguber.info/inful/quire/internal/urls"
)

const (
	TagsName     = "tags"
	CategoryName = "category"
	// IndexField marks the hidden page that serves as template for an index.
	IndexField = "index"
	// Uncategorized collects public pages without a category.
	Uncategorized = "Uncategorized"
)

// Index params handed to the synthetic pages.
const (
	ParamField      = "field"
	ParamFieldValue = "field_value"
	ParamCollection = "collection"
)

// Index groups public pages by the values of one header (tags: [a, b]) and
// injects one page per value, cloned from the hidden page whose index
// header names the field.
type Index struct {
	field string
	// empty is the bucket for pages without the field; "" drops them.
	empty   string
	buckets map[string][]*page.Page
	logger  *slog.Logger
}

// NewTags indexes the tags header.
func NewTags(env Env) (Processor, error) {
	return NewIndex(TagsName, "", env.logger()), nil
}

// NewCategory indexes the category header, collecting pages without one
// under Uncategorized.
func NewCategory(env Env) (Processor, error) {
	return NewIndex(CategoryName, Uncategorized, env.logger()), nil
}

// NewIndex creates an index over field.
func NewIndex(field, empty string, logger *slog.Logger) *Index {
	if logger == nil {
		logger = slog.Default()
	}
	return &Index{field: field, empty: empty, buckets: map[string][]*page.Page{}, logger: logger}
}

func (ix *Index) Name() string { return ix.field }

// AfterPageParsed adds a public page to the bucket of every value it carries.
func (ix *Index) AfterPageParsed(p *page.Page) error {
	if !p.IsPublic() {
		return nil
	}
	for _, v := range ix.values(p) {
		ix.buckets[v] = append(ix.buckets[v], p)
	}
	return nil
}

func (ix *Index) values(p *page.Page) []string {
	raw, ok := p.Get(ix.field).Get()
	if !ok || raw == nil {
		if ix.empty != "" {
			return []string{ix.empty}
		}
		return nil
	}
	switch v := raw.(type) {
	case []any:
		out := make([]string, 0, len(v))
		for _, item := range v {
			out = append(out, fmt.Sprint(item))
		}
		return out
	case []string:
		return v
	default:
		return []string{fmt.Sprint(v)}
	}
}

// AfterParsing injects one page per bucket, sorted by value.
func (ix *Index) AfterParsing(pages *[]*page.Page) error {
	tmpl := ix.popIndexPage(pages)
	if tmpl == nil {
		ix.logger.Warn("Index page could not be found, no index pages generated",
			logfields.Processor(ix.field),
			slog.String("hint", fmt.Sprintf("create a page with {status: hidden, index: %s}", ix.field)))
		return nil
	}

	taken := map[string]bool{}
	for _, value := range slices.Sorted(maps.Keys(ix.buckets)) {
		members := slices.Clone(ix.buckets[value])
		page.SortByDateURLDesc(members)

		p := tmpl.Clone()
		p.Params = map[string]any{
			ParamField:      ix.field,
			ParamFieldValue: value,
			ParamCollection: members,
		}
		p.URL = ix.field + "/" + ix.segment(value, taken) + "/index.html"
		p.Title = expandTitle(tmpl.Title, ix.field, value)
		*pages = append(*pages, p)
	}
	ix.logger.Debug("Index pages injected", logfields.Processor(ix.field), logfields.Count(len(ix.buckets)))
	return nil
}

// segment returns the URL segment for value, unique among taken. Values
// that slugify to nothing get a segment derived from their hash.
func (ix *Index) segment(value string, taken map[string]bool) string {
	base := urls.Slugify(value)
	if !urls.SafeSegment(base) {
		sum := sha256.Sum256([]byte(value))
		base = hex.EncodeToString(sum[:4])
		ix.logger.Warn("Index value has no usable slug",
			logfields.Processor(ix.field),
			slog.String("value", value),
			slog.String("segment", base))
	}
	seg := base
	for n := 2; taken[seg]; n++ {
		seg = fmt.Sprintf("%s-%d", base, n)
	}
	taken[seg] = true
	return seg
}

// popIndexPage finds the page whose index header names the field. A page
// that only serves this index leaves the collection; one serving several
// just loses this field from its list.
func (ix *Index) popIndexPage(pages *[]*page.Page) *page.Page {
	for i, p := range *pages {
		raw, ok := p.Extra[IndexField]
		if !ok {
			continue
		}
		switch v := raw.(type) {
		case []any:
			pos := slices.IndexFunc(v, func(item any) bool { return fmt.Sprint(item) == ix.field })
			if pos < 0 {
				continue
			}
			if len(v) <= 1 {
				*pages = slices.Delete(*pages, i, i+1)
			} else {
				p.Extra[IndexField] = slices.Delete(slices.Clone(v), pos, pos+1)
			}
			return p
		default:
			if fmt.Sprint(v) == ix.field {
				*pages = slices.Delete(*pages, i, i+1)
				return p
			}
		}
	}
	return nil
}

// expandTitle fills %(field)s and %(field_value)s placeholders.
func expandTitle(title, field, value string) string {
	return strings.NewReplacer(
		"%("+ParamField+")s", field,
		"%("+ParamFieldValue+")s", value,
		"%%", "%",
	).Replace(title)
}
