package processor

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/inful/mdfp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"git.home.luguber.info/inful/quire/internal/config"
	"git.home.luguber.info/inful/quire/internal/foundation"
	ferrors "git.home.luguber.info/inful/quire/internal/foundation/errors"
	"git.home.luguber.info/inful/quire/internal/hyphen"
	"git.home.luguber.info/inful/quire/internal/page"
)

var quiet = slog.New(slog.NewTextHandler(io.Discard, nil))

type mapReader map[string]string

func (m mapReader) Read(path string) (string, error) {
	if s, ok := m[path]; ok {
		return s, nil
	}
	return "", fmt.Errorf("%s: not found", path)
}

type recorder struct {
	name  string
	calls *[]string
}

func (r recorder) Name() string { return r.name }
func (r recorder) AfterPageParsed(p *page.Page) error {
	*r.calls = append(*r.calls, r.name+":"+p.Path)
	return nil
}

type failing struct{}

func (failing) Name() string                       { return "failing" }
func (failing) BeforePageParsing(*page.Page) error { return errors.New("boom") }

func newTestPage(path string, date time.Time) *page.Page {
	p := page.New(path)
	p.Slug = strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))
	p.Title = p.Slug
	p.Date = date
	p.URL = strings.TrimSuffix(path, filepath.Ext(path)) + ".html"
	p.Content = foundation.Some("<p>" + path + "</p>")
	return p
}

func TestNewPipeline_SkipsFailedConstructorsAndHonorsEnabled(t *testing.T) {
	var logs bytes.Buffer
	logger := slog.New(slog.NewTextHandler(&logs, &slog.HandlerOptions{Level: slog.LevelDebug}))
	var calls []string

	factories := []Factory{
		{Name: "a", New: func(Env) (Processor, error) { return recorder{"a", &calls}, nil }},
		{Name: "broken", New: func(Env) (Processor, error) { return nil, errors.New("missing dependency") }},
		{Name: "b", New: func(Env) (Processor, error) { return recorder{"b", &calls}, nil }},
	}

	pl := NewPipeline(Env{Logger: logger}, factories, nil)
	assert.Equal(t, []string{"a", "b"}, pl.Names())
	assert.Contains(t, logs.String(), "missing dependency")

	pl = NewPipeline(Env{Logger: logger}, factories, []string{"b", "a", "nope"})
	assert.Equal(t, []string{"b", "a"}, pl.Names())
	assert.Equal(t, []string{"b", "a"}, pl.For(AfterPageParsed))
	assert.Empty(t, pl.For(AfterRendering))
	assert.Contains(t, logs.String(), "Unknown processor")

	require.NoError(t, pl.AfterPageParsed(page.New("x.md")))
	assert.Equal(t, []string{"b:x.md", "a:x.md"}, calls)
}

func TestPipeline_HookErrorsAreBuildErrors(t *testing.T) {
	pl := NewPipeline(Env{Logger: quiet}, nil, nil)
	pl.Add(failing{})
	err := pl.BeforePageParsing(page.New("x.md"))
	require.Error(t, err)
	assert.True(t, ferrors.HasCategory(err, ferrors.CategoryBuild))
	assert.False(t, ferrors.IsPageScoped(err))
}

func TestBuiltins_Order(t *testing.T) {
	var names []string
	for _, f := range Builtins() {
		names = append(names, f.Name)
	}
	assert.Equal(t, []string{"comments", "tags", "category", "fingerprint", "html"}, names)

	// Without a reader the comments processor cannot run and is skipped.
	pl := NewPipeline(Env{Logger: quiet}, Builtins(), nil)
	assert.Equal(t, []string{"tags", "category", "fingerprint", "html"}, pl.Names())
}

func TestComments(t *testing.T) {
	reader := mapReader{
		"blog/post.comments":  "- author: Ann\n  text: Nice\n- author: Bob\n  text: Meh\n",
		"blog/other.comments": "[not: closed",
	}
	proc, err := NewComments(Env{Reader: reader, Logger: quiet})
	require.NoError(t, err)
	c := proc.(*Comments)

	p := newTestPage("blog/post.md", time.Now())
	p.StaticFiles = []string{"blog/img.png", "blog/post.comments", "blog/other.comments"}
	p.Extra[CommentsField] = []any{"earlier"}
	require.NoError(t, c.BeforePageParsing(p))

	comments, ok := p.Extra[CommentsField].([]any)
	require.True(t, ok)
	require.Len(t, comments, 3)
	assert.Equal(t, "earlier", comments[0])
	assert.Equal(t, "Ann", comments[1].(map[string]any)["author"])

	broken := newTestPage("blog/other.md", time.Now())
	broken.StaticFiles = []string{"blog/other.comments"}
	require.NoError(t, c.BeforePageParsing(broken))
	assert.NotContains(t, broken.Extra, CommentsField)

	none := newTestPage("blog/none.md", time.Now())
	require.NoError(t, c.BeforePageParsing(none))
	assert.NotContains(t, none.Extra, CommentsField)
}

func collect(t *testing.T, ix *Index, pages []*page.Page) {
	t.Helper()
	for _, p := range pages {
		require.NoError(t, ix.AfterPageParsed(p))
	}
}

func TestTags_InjectsOnePagePerValue(t *testing.T) {
	base := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	a := newTestPage("a.md", base.Add(2*time.Hour))
	a.Extra["tags"] = []any{"x", "y"}
	b := newTestPage("b.md", base.Add(time.Hour))
	b.Extra["tags"] = []any{"x"}
	hidden := newTestPage("tag.md", base)
	hidden.Status = page.StatusHidden
	hidden.Title = "Tagged %(field_value)s (%(field)s)"
	hidden.Extra[IndexField] = TagsName
	hidden.Extra["tags"] = []any{"x"}

	ix := NewIndex(TagsName, "", quiet)
	pages := []*page.Page{a, b, hidden}
	collect(t, ix, pages)
	require.NoError(t, ix.AfterParsing(&pages))

	require.Len(t, pages, 4)
	assert.NotContains(t, pages, hidden)
	injected := pages[2:]

	x, y := injected[0], injected[1]
	assert.Equal(t, "x", x.Params[ParamFieldValue])
	assert.Equal(t, TagsName, x.Params[ParamField])
	assert.Equal(t, []*page.Page{a, b}, x.Params[ParamCollection])
	assert.Equal(t, []*page.Page{a}, y.Params[ParamCollection])
	assert.Equal(t, "Tagged x (tags)", x.Title)

	assert.True(t, strings.HasPrefix(x.URL, "tags/"))
	assert.True(t, strings.HasSuffix(x.URL, "/index.html"))
	assert.NotEqual(t, x.URL, y.URL)
	assert.Equal(t, "tags/x/index.html", x.URL)
}

func TestTags_SegmentsAreDistinctAndStayBelowField(t *testing.T) {
	now := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	a := newTestPage("a.md", now)
	a.Extra["tags"] = []any{"C++", "C#", "Übersicht", "..", "Cplusplus"}
	hidden := newTestPage("tag.md", now)
	hidden.Status = page.StatusHidden
	hidden.Extra[IndexField] = TagsName

	var logs bytes.Buffer
	ix := NewIndex(TagsName, "", slog.New(slog.NewTextHandler(&logs, nil)))
	pages := []*page.Page{a, hidden}
	collect(t, ix, pages)
	require.NoError(t, ix.AfterParsing(&pages))
	require.Len(t, pages, 6)

	byValue := map[string]string{}
	for _, p := range pages[1:] {
		byValue[p.Params[ParamFieldValue].(string)] = p.URL
		cleaned := path.Clean(p.URL)
		assert.True(t, strings.HasPrefix(cleaned, "tags/"), "%q escapes tags/", p.URL)
		assert.Equal(t, 3, strings.Count(cleaned, "/")+1, "%q is not tags/<segment>/index.html", p.URL)
	}
	assert.Equal(t, "tags/cplusplus/index.html", byValue["C++"])
	assert.Equal(t, "tags/cplusplus-2/index.html", byValue["Cplusplus"])
	assert.Equal(t, "tags/csharp/index.html", byValue["C#"])
	assert.Equal(t, "tags/uebersicht/index.html", byValue["Übersicht"])
	assert.NotEqual(t, "tags/../index.html", byValue[".."])
	assert.Len(t, byValue, 5)
	assert.Contains(t, logs.String(), "Index value has no usable slug")
}

func TestCategory_UncategorizedAndSharedIndexPage(t *testing.T) {
	now := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	a := newTestPage("a.md", now)
	a.Extra["category"] = "News"
	b := newTestPage("b.md", now)
	shared := newTestPage("index-template.md", now)
	shared.Status = page.StatusHidden
	shared.Extra[IndexField] = []any{"tags", "category"}

	tags := NewIndex(TagsName, "", quiet)
	category := NewIndex(CategoryName, Uncategorized, quiet)
	pages := []*page.Page{a, b, shared}
	collect(t, tags, pages)
	collect(t, category, pages)

	require.NoError(t, tags.AfterParsing(&pages))
	assert.Contains(t, pages, shared, "page still serves the category index")
	assert.Equal(t, []any{"category"}, shared.Extra[IndexField])

	require.NoError(t, category.AfterParsing(&pages))
	assert.NotContains(t, pages, shared)

	var values []string
	for _, p := range pages {
		if p.Params != nil {
			values = append(values, p.Params[ParamFieldValue].(string))
		}
	}
	assert.Equal(t, []string{"News", Uncategorized}, values)
}

func TestIndex_MissingIndexPageWarns(t *testing.T) {
	var logs bytes.Buffer
	ix := NewIndex(TagsName, "", slog.New(slog.NewTextHandler(&logs, nil)))
	a := newTestPage("a.md", time.Now())
	a.Extra["tags"] = "solo"
	pages := []*page.Page{a}
	collect(t, ix, pages)

	require.NoError(t, ix.AfterParsing(&pages))
	assert.Len(t, pages, 1)
	assert.Contains(t, logs.String(), "Index page could not be found")
}

func TestFingerprint(t *testing.T) {
	p := newTestPage("a.md", time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC))
	require.NoError(t, Fingerprint{}.AfterPageParsed(p))
	fp, ok := p.Extra[mdfp.FingerprintField].(string)
	require.True(t, ok)
	assert.NotEmpty(t, fp)

	again, err := ComputeFingerprint(p)
	require.NoError(t, err)
	assert.Equal(t, fp, again, "the stored fingerprint is excluded from its own input")

	p.MTime = time.Now()
	again, err = ComputeFingerprint(p)
	require.NoError(t, err)
	assert.Equal(t, fp, again, "mtime does not affect the fingerprint")

	p.Content = foundation.Some("<p>changed</p>")
	changed, err := ComputeFingerprint(p)
	require.NoError(t, err)
	assert.NotEqual(t, fp, changed)

	own := newTestPage("b.md", time.Now())
	own.Extra[mdfp.FingerprintField] = "pinned"
	require.NoError(t, Fingerprint{}.AfterPageParsed(own))
	assert.Equal(t, "pinned", own.Extra[mdfp.FingerprintField])
}

const samplePatterns = "hy3ph he2n hena4 hen5at 1na n2at 1tio 2io o2n"

func newHTMLProcessor(t *testing.T, logger *slog.Logger) *HTML {
	t.Helper()
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "en.pat"), []byte(samplePatterns), 0o600))
	return NewHTMLWithCache(hyphen.NewCache(dir, logger), logger)
}

func TestHTML_HyphenatesTextUnderLang(t *testing.T) {
	h := newHTMLProcessor(t, quiet)
	in := `<html lang="en"><head><title>hyphenation</title></head>` +
		`<body><p class="x">hyphenation &amp; nation<br>nation&nbsp;hyphenation</p>` +
		`<pre>hyphenation</pre><code>nation</code></body></html>`

	out, err := h.AfterRendering(page.New("a.md"), in)
	require.NoError(t, err)

	shy := hyphen.SoftHyphen
	assert.Contains(t, out, "<title>hyphenation</title>")
	assert.Contains(t, out, `<p class="x">hy`+shy+"phen"+shy+"ation &amp; na"+shy+"tion<br>")
	assert.Contains(t, out, "na"+shy+"tion&nbsp;hy"+shy+"phen"+shy+"ation</p>")
	assert.Contains(t, out, "<pre>hyphenation</pre><code>nation</code>")
}

func TestHTML_NoLangLeavesTextAlone(t *testing.T) {
	h := newHTMLProcessor(t, quiet)
	in := `<div><p>hyphenation</p></div><p lang="fr">nation</p>`
	out, err := h.AfterRendering(page.New("a.md"), in)
	require.NoError(t, err)
	assert.Equal(t, in, out)
}

func TestHTML_LanguageScopeEndsWithElement(t *testing.T) {
	h := newHTMLProcessor(t, quiet)
	in := `<div><span lang="en">nation</span> nation</div>`
	out, err := h.AfterRendering(page.New("a.md"), in)
	require.NoError(t, err)
	assert.Equal(t, `<div><span lang="en">na`+hyphen.SoftHyphen+`tion</span> nation</div>`, out)
}

func TestHTML_WarnsOnceOnTagMismatch(t *testing.T) {
	var logs bytes.Buffer
	h := newHTMLProcessor(t, slog.New(slog.NewTextHandler(&logs, nil)))
	in := `<div lang="en"><p><b>nation</p></i></div>`
	out, err := h.AfterRendering(page.New("a.md"), in)
	require.NoError(t, err)
	assert.Equal(t, 1, strings.Count(logs.String(), "Unexpected end tag"))
	assert.Contains(t, out, "</p></i></div>")
}

func TestNewHTML_PatternsDirFromSettings(t *testing.T) {
	project := t.TempDir()
	require.NoError(t, os.MkdirAll(filepath.Join(project, "patterns"), 0o750))
	require.NoError(t, os.WriteFile(filepath.Join(project, "patterns", "en.pat"), []byte(samplePatterns), 0o600))

	settings := &config.Settings{ProjectDir: project, LibDir: filepath.Join(project, "_lib")}
	settings.Site.Hyphenation.PatternsDir = "patterns"

	proc, err := NewHTML(Env{Settings: settings, Logger: quiet})
	require.NoError(t, err)
	out, err := proc.(*HTML).AfterRendering(page.New("a.md"), `<p lang="en">nation</p>`)
	require.NoError(t, err)
	assert.Equal(t, `<p lang="en">na`+hyphen.SoftHyphen+`tion</p>`, out)
}
