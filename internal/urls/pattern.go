package urls

import (
	"fmt"
	"os"
	"path"
	"strings"
	"sync"

	"github.com/goliatone/go-slug"

	"git.home.luguber.info/inful/quire/internal/page"
)

// PatternRule returns a rule that expands pattern against the page.
func PatternRule(pattern string) Rule {
	return func(p *page.Page) string {
		return Expand(pattern, p)
	}
}

// Expand substitutes permalink placeholders in pattern:
//
//	$year $month $day  page date, zero padded
//	$slug              page slug
//	$title             slugified title
//	$path              source path without extension
//
// ${name} is accepted as well. Unknown placeholders are left as written.
func Expand(pattern string, p *page.Page) string {
	return os.Expand(pattern, func(name string) string {
		switch name {
		case "year":
			return fmt.Sprintf("%04d", p.Date.Year())
		case "month":
			return fmt.Sprintf("%02d", int(p.Date.Month()))
		case "day":
			return fmt.Sprintf("%02d", p.Date.Day())
		case "slug":
			return p.Slug
		case "title":
			return Slugify(p.Title)
		case "path":
			return strings.TrimSuffix(p.Path, path.Ext(p.Path))
		default:
			return "$" + name
		}
	})
}

// slugCharMap is the go-slug transliteration table with German umlauts
// spelled out and the symbols that tell tags like C++ and C# apart.
var slugCharMap = sync.OnceValue(func() map[string]string {
	m, err := slug.GetCharMap()
	if err != nil {
		m = map[string]string{}
	}
	for k, v := range map[string]string{
		"ä": "ae", "ö": "oe", "ü": "ue", "Ä": "Ae", "Ö": "Oe", "Ü": "Ue", "ß": "ss",
		"+": "plus", "#": "sharp", "@": "at", "_": " ", ".": " ",
	} {
		m[k] = v
	}
	return m
})

// Slugify normalizes s for use as a URL segment: transliterated to ASCII,
// lower case, words joined by dashes. Input with nothing left to keep
// yields "".
func Slugify(s string) string {
	s = strings.TrimSpace(s)
	if t, err := slug.HashNormalizeWithCharMap(s, slugCharMap()); err == nil {
		s = t
	}
	normalized, err := slug.Normalize(s)
	if err != nil {
		return ""
	}
	return normalized
}

// SafeSegment reports whether s can be used as one path segment below
// another without escaping it.
func SafeSegment(s string) bool {
	return s != "" && s != "." && s != ".." && !strings.ContainsAny(s, `/\`)
}
