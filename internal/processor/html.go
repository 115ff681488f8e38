package processor

import (
	"errors"
	"io"
	"log/slog"
	"path/filepath"
	"regexp"
	"slices"
	"strings"

	"golang.org/x/net/html"

	"git.home.luguber.info/inful/quire/internal/hyphen"
	"git.home.luguber.info/inful/quire/internal/logfields"
	"git.home.luguber.info/inful/quire/internal/page"
)

const (
	HTMLName = "html"
	// DefaultPatternsDir is the hyphenation pattern directory below the lib dir.
	DefaultPatternsDir = "hyphenation"
)

var (
	// wordPattern matches words long enough to be worth hyphenating.
	wordPattern = regexp.MustCompile(`[\p{L}\p{N}_]{5,}`)
	// entityPattern matches character references, which must stay intact.
	entityPattern = regexp.MustCompile(`&(?:#[0-9]+|#[xX][0-9a-fA-F]+|[A-Za-z][A-Za-z0-9]*);`)

	noHyphenation = []string{"head", "pre", "code", "script", "style"}

	voidElements = map[string]bool{
		"area": true, "base": true, "br": true, "col": true, "embed": true,
		"hr": true, "img": true, "input": true, "link": true, "meta": true,
		"param": true, "source": true, "track": true, "wbr": true,
	}
)

// HTML inserts soft hyphens into the text of rendered pages. Only text
// below an element with a lang (or xml:lang) attribute is touched, using the
// hyphenator for the innermost such language.
type HTML struct {
	cache  *hyphen.Cache
	logger *slog.Logger
}

// NewHTML loads hyphenation patterns from the configured patterns directory,
// by default <lib_dir>/hyphenation.
func NewHTML(env Env) (Processor, error) {
	dir := ""
	if s := env.Settings; s != nil {
		dir = s.Site.Hyphenation.PatternsDir
		switch {
		case dir == "":
			dir = filepath.Join(s.LibDir, DefaultPatternsDir)
		case !filepath.IsAbs(dir):
			dir = filepath.Join(s.ProjectDir, dir)
		}
	}
	return NewHTMLWithCache(hyphen.NewCache(dir, env.logger()), env.logger()), nil
}

// NewHTMLWithCache uses an existing hyphenator cache.
func NewHTMLWithCache(cache *hyphen.Cache, logger *slog.Logger) *HTML {
	if logger == nil {
		logger = slog.Default()
	}
	return &HTML{cache: cache, logger: logger}
}

func (*HTML) Name() string { return HTMLName }

type langScope struct {
	depth int
	lang  string
}

func (h *HTML) AfterRendering(p *page.Page, rendered string) (string, error) {
	z := html.NewTokenizer(strings.NewReader(rendered))
	var out strings.Builder
	out.Grow(len(rendered) + len(rendered)/16)

	var path []string
	var langs []langScope
	warned := false

	for {
		tt := z.Next()
		if tt == html.ErrorToken {
			if errors.Is(z.Err(), io.EOF) {
				return out.String(), nil
			}
			return "", z.Err()
		}
		raw := string(z.Raw())

		switch tt {
		case html.StartTagToken:
			tok := z.Token()
			out.WriteString(raw)
			if voidElements[tok.Data] {
				continue
			}
			path = append(path, tok.Data)
			if lang, ok := langAttr(tok.Attr); ok {
				langs = append(langs, langScope{depth: len(path), lang: lang})
			}

		case html.EndTagToken:
			tok := z.Token()
			out.WriteString(raw)
			var ok bool
			path, ok = closeTag(path, tok.Data)
			if !ok && !warned {
				warned = true
				expected := ""
				if len(path) > 0 {
					expected = path[len(path)-1]
				}
				h.logger.Warn("Unexpected end tag while hyphenating",
					logfields.Page(p.Path), logfields.URL(p.URL),
					slog.String("got", tok.Data), slog.String("expected", expected))
			}
			for len(langs) > 0 && len(path) < langs[len(langs)-1].depth {
				langs = langs[:len(langs)-1]
			}

		case html.TextToken:
			if len(langs) == 0 || strings.TrimSpace(raw) == "" || skipped(path) {
				out.WriteString(raw)
				continue
			}
			out.WriteString(hyphenateText(raw, h.cache.Get(langs[len(langs)-1].lang)))

		default:
			out.WriteString(raw)
		}
	}
}

// closeTag pops tag from the open element path. A tag that is not on top
// unwinds the path down to it; one that is not open at all leaves the path
// unchanged. ok is false for both mismatches.
func closeTag(path []string, tag string) ([]string, bool) {
	if len(path) > 0 && path[len(path)-1] == tag {
		return path[:len(path)-1], true
	}
	for i := len(path) - 1; i >= 0; i-- {
		if path[i] == tag {
			return path[:i], false
		}
	}
	return path, false
}

func langAttr(attrs []html.Attribute) (string, bool) {
	for _, a := range attrs {
		if a.Key == "lang" || a.Key == "xml:lang" {
			return a.Val, true
		}
	}
	return "", false
}

func skipped(path []string) bool {
	for _, tag := range path {
		if slices.Contains(noHyphenation, tag) {
			return true
		}
	}
	return false
}

// hyphenateText hyphenates raw text, leaving character references untouched.
func hyphenateText(raw string, hy hyphen.Hyphenator) string {
	if _, ok := hy.(hyphen.Identity); ok {
		return raw
	}
	var b strings.Builder
	last := 0
	for _, loc := range entityPattern.FindAllStringIndex(raw, -1) {
		b.WriteString(wordPattern.ReplaceAllStringFunc(raw[last:loc[0]], hy.Hyphenate))
		b.WriteString(raw[loc[0]:loc[1]])
		last = loc[1]
	}
	b.WriteString(wordPattern.ReplaceAllStringFunc(raw[last:], hy.Hyphenate))
	return b.String()
}
