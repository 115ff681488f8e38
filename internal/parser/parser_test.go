package parser

import (
	"bytes"
	"errors"
	"io"
	"log/slog"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	ferrors "git.home.luguber.info/inful/quire/internal/foundation/errors"
	"git.home.luguber.info/inful/quire/internal/frontmatter"
	"git.home.luguber.info/inful/quire/internal/page"
)

type failingParser struct{}

func (failingParser) Name() string         { return "failing" }
func (failingParser) Extensions() []string { return []string{"bad"} }
func (failingParser) OutputExt() string    { return "html" }
func (failingParser) Transform(string, string) (string, error) {
	return "", errors.New("unbalanced markup")
}

func quietOptions(loc *time.Location) Options {
	return Options{Location: loc, Logger: slog.New(slog.NewTextHandler(io.Discard, nil))}
}

func TestParse_FencedFrontMatter(t *testing.T) {
	res, err := Parse(Trivial{}, "---\ntitle: Hi\n---\nBody text", "a.txt", quietOptions(time.UTC))
	require.NoError(t, err)
	assert.Equal(t, map[string]any{"title": "Hi"}, res.Headers)
	assert.Equal(t, "Body text", res.Content)
	assert.Equal(t, frontmatter.Fenced, res.Delimiter)
}

func TestParse_NoHeaderWarns(t *testing.T) {
	var logs bytes.Buffer
	opts := Options{Location: time.UTC, Logger: slog.New(slog.NewTextHandler(&logs, nil))}

	res, err := Parse(Trivial{}, "just text", "a.txt", opts)
	require.NoError(t, err)
	assert.Empty(t, res.Headers)
	assert.Equal(t, "just text", res.Content)
	assert.Contains(t, logs.String(), "no headers")
}

func TestParse_BlankLineHeuristicRejectsProse(t *testing.T) {
	res, err := Parse(Trivial{}, "Hello world\n\nSecond paragraph", "a.txt", quietOptions(time.UTC))
	require.NoError(t, err)
	assert.Empty(t, res.Headers)
	assert.Equal(t, "Hello world\n\nSecond paragraph", res.Content)
	assert.Equal(t, frontmatter.None, res.Delimiter)
}

func TestParse_BlankLineHeader(t *testing.T) {
	res, err := Parse(Trivial{}, "title: Hi\nstatus: bogus\n\nBody", "a.txt", quietOptions(time.UTC))
	require.NoError(t, err)
	assert.Equal(t, "Hi", res.Headers["title"])
	assert.Equal(t, page.StatusLive, res.Headers["status"])
	assert.Equal(t, "Body", res.Content)
}

func TestParse_MalformedFencedHeaderIsParserError(t *testing.T) {
	_, err := Parse(Trivial{}, "---\ntitle: [oops\n---\nBody", "a.txt", quietOptions(time.UTC))
	require.Error(t, err)
	assert.True(t, ferrors.HasCategory(err, ferrors.CategoryParser))
	assert.True(t, ferrors.IsPageScoped(err))
}

func TestParse_TransformFailureIsParserError(t *testing.T) {
	_, err := Parse(failingParser{}, "---\ntitle: x\n---\n<b>", "broken.bad", quietOptions(time.UTC))
	require.Error(t, err)
	assert.True(t, ferrors.HasCategory(err, ferrors.CategoryParser))
	assert.Contains(t, err.Error(), "unbalanced markup")
}

func TestParse_DateHeaders(t *testing.T) {
	berlin, err := time.LoadLocation("Europe/Berlin")
	require.NoError(t, err)
	tokyo, err := time.LoadLocation("Asia/Tokyo")
	require.NoError(t, err)

	tests := []struct {
		name  string
		input string
		want  time.Time
	}{
		{"bare date is midnight in site zone", "---\ndate: 2024-01-02\n---\n", time.Date(2024, 1, 2, 0, 0, 0, 0, berlin)},
		{"zone-less datetime is localized", "---\ndate: 2024-01-02 10:30:00\n---\n", time.Date(2024, 1, 2, 10, 30, 0, 0, berlin)},
		{"zoned value passes through", "---\ndate: 2024-01-02T10:30:00Z\n---\n", time.Date(2024, 1, 2, 10, 30, 0, 0, time.UTC)},
		{"offset after space passes through", "---\ndate: 2012-03-04 05:06:07+01:00\n---\n", time.Date(2012, 3, 4, 4, 6, 7, 0, time.UTC)},
		{"offset after blank passes through", "---\ndate: 2012-03-04 05:06:07 +01:00\n---\n", time.Date(2012, 3, 4, 4, 6, 7, 0, time.UTC)},
		{"zone-less T form is localized", "---\ndate: 2012-03-04T05:06:07\n---\n", time.Date(2012, 3, 4, 5, 6, 7, 0, berlin)},
		{"page timezone overrides site", "---\ndate: 2024-01-02\ntimezone: Asia/Tokyo\n---\n", time.Date(2024, 1, 2, 0, 0, 0, 0, tokyo)},
		{"unknown page timezone falls back", "---\ndate: 2024-01-02\ntimezone: Mars/Base\n---\n", time.Date(2024, 1, 2, 0, 0, 0, 0, berlin)},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			res, err := Parse(Trivial{}, tt.input, "a.txt", quietOptions(berlin))
			require.NoError(t, err)
			got, ok := res.Headers["date"].(time.Time)
			require.True(t, ok)
			assert.True(t, got.Equal(tt.want), "got %s want %s", got, tt.want)
		})
	}
}

func TestParse_ExpiresIsLocalized(t *testing.T) {
	res, err := Parse(Trivial{}, "---\nexpires: 2030-05-01\n---\n", "a.txt", quietOptions(time.UTC))
	require.NoError(t, err)
	assert.Equal(t, time.Date(2030, 5, 1, 0, 0, 0, 0, time.UTC), res.Headers["expires"])
}

func TestParse_StringDateRejected(t *testing.T) {
	var logs bytes.Buffer
	opts := Options{Location: time.UTC, Logger: slog.New(slog.NewTextHandler(&logs, nil))}
	_, err := Parse(Trivial{}, "---\ndate: \"2024-01-02\"\n---\n", "a.txt", opts)
	require.Error(t, err)
	assert.True(t, ferrors.HasCategory(err, ferrors.CategoryParser))
	assert.True(t, strings.Contains(err.Error(), "string"))
}

func TestRegistry(t *testing.T) {
	var logs bytes.Buffer
	r := NewRegistry(slog.New(slog.NewTextHandler(&logs, nil)))
	md := NewMarkdown(MarkdownOptions{})
	r.RegisterAll(Trivial{}, md)

	p, ok := r.Lookup("blog/post.MD")
	require.True(t, ok)
	assert.Equal(t, "markdown", p.Name())

	p, ok = r.Lookup("index.html")
	require.True(t, ok)
	assert.Equal(t, "trivial", p.Name())

	assert.False(t, r.Parses("style.css"))
	assert.False(t, r.Parses("Makefile"))
	assert.Contains(t, r.Extensions(), "htm")
	assert.Empty(t, logs.String())
}

type override struct{ Trivial }

func (override) Name() string { return "zz-html" }

func TestRegistry_LastRegistrationWins(t *testing.T) {
	var logs bytes.Buffer
	r := NewRegistry(slog.New(slog.NewTextHandler(&logs, nil)))

	// RegisterAll sorts by name, so the outcome is independent of argument order.
	r.RegisterAll(override{}, Trivial{})

	p, ok := r.Lookup("a.html")
	require.True(t, ok)
	assert.Equal(t, "zz-html", p.Name())
	assert.Contains(t, logs.String(), "last registration wins")
}

func TestMarkdown_Transform(t *testing.T) {
	md := NewMarkdown(MarkdownOptions{})
	out, err := md.Transform("# Hello\n\nSome *text* and a table:\n\n| a | b |\n|---|---|\n| 1 | 2 |\n", "a.md")
	require.NoError(t, err)
	assert.Contains(t, out, `<h1 id="hello">Hello</h1>`)
	assert.Contains(t, out, "<em>text</em>")
	assert.Contains(t, out, "<table>")
	assert.Equal(t, "html", md.OutputExt())
}

func TestMarkdown_HighlightsWithClasses(t *testing.T) {
	md := NewMarkdown(MarkdownOptions{})
	out, err := md.Transform("```go\npackage main\n```\n", "a.md")
	require.NoError(t, err)
	assert.Contains(t, out, `class="chroma"`)
}
