package parser

import (
	"log/slog"
	"maps"
	"path/filepath"
	"slices"
	"strings"

	"git.home.luguber.info/inful/quire/internal/logfields"
)

// Registry maps file extensions to parsers. It is populated during startup
// and read-only while a build runs.
type Registry struct {
	byExt  map[string]Parser
	logger *slog.Logger
}

// NewRegistry creates an empty registry.
func NewRegistry(logger *slog.Logger) *Registry {
	if logger == nil {
		logger = slog.Default()
	}
	return &Registry{byExt: map[string]Parser{}, logger: logger}
}

// Register claims every extension of p. When another parser already holds
// an extension the later registration wins and a warning is logged.
func (r *Registry) Register(p Parser) {
	for _, ext := range p.Extensions() {
		ext = normalizeExt(ext)
		if prev, ok := r.byExt[ext]; ok && prev.Name() != p.Name() {
			r.logger.Warn("Parser extension claimed twice, last registration wins",
				slog.String("extension", ext),
				slog.String("previous", prev.Name()),
				logfields.Parser(p.Name()))
		}
		r.byExt[ext] = p
	}
}

// RegisterAll registers parsers sorted by name, which makes overrides
// between them independent of the order they were collected in.
func (r *Registry) RegisterAll(parsers ...Parser) {
	sorted := slices.Clone(parsers)
	slices.SortStableFunc(sorted, func(a, b Parser) int { return strings.Compare(a.Name(), b.Name()) })
	for _, p := range sorted {
		r.Register(p)
	}
}

// Lookup returns the parser for path's extension.
func (r *Registry) Lookup(path string) (Parser, bool) {
	p, ok := r.byExt[normalizeExt(filepath.Ext(path))]
	return p, ok
}

// Parses reports whether path would be handled by a parser.
func (r *Registry) Parses(path string) bool {
	_, ok := r.Lookup(path)
	return ok
}

// Extensions returns every registered extension in sorted order.
func (r *Registry) Extensions() []string {
	return slices.Sorted(maps.Keys(r.byExt))
}

func normalizeExt(ext string) string {
	return strings.ToLower(strings.TrimPrefix(ext, "."))
}

// Builtins returns the shipped parsers.
func Builtins() []Parser {
	return []Parser{NewMarkdown(MarkdownOptions{}), Trivial{}}
}
