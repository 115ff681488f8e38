// Package urls turns a page's url header into a concrete output URL.
//
// Rules are grouped by the source-path glob they apply to. A page's url
// header names the rule to use; groups are searched newest first, so a rule
// registered for "blog/*" after the built-ins shadows them for blog pages.
package urls

import (
	"errors"
	"fmt"
	"path"
	"strings"

	"github.com/gobwas/glob"

	"git.home.luguber.info/inful/quire/internal/config"
	"git.home.luguber.info/inful/quire/internal/page"
)

// Wildcard is the pattern that matches every source path.
const Wildcard = "*"

// Built-in rule names.
const (
	RuleDefault = page.DefaultURL
	RulePretty  = "pretty"
)

// ErrNoRule is returned when no registered group can produce a URL for a page.
var ErrNoRule = errors.New("no url rule matches page")

// Rule maps a page to its output URL.
type Rule func(p *page.Page) string

type group struct {
	pattern string
	matcher glob.Glob
	rules   map[string]Rule
}

// Resolver holds the rule table. It is filled during startup and read-only
// while pages are resolved.
type Resolver struct {
	groups []*group
	byPat  map[string]*group
}

// NewResolver returns an empty resolver.
func NewResolver() *Resolver {
	return &Resolver{byPat: map[string]*group{}}
}

// NewDefaultResolver returns a resolver carrying the default and pretty rules
// in the wildcard group. An empty prettyPattern uses config.DefaultPrettyURLPattern.
func NewDefaultResolver(prettyPattern string) *Resolver {
	if prettyPattern == "" {
		prettyPattern = config.DefaultPrettyURLPattern
	}
	r := NewResolver()
	// The wildcard always compiles.
	_ = r.Register(Wildcard, RuleDefault, Default)
	_ = r.Register(Wildcard, RulePretty, PatternRule(prettyPattern))
	return r
}

// Register adds rule under name to the group for pattern. A new pattern is
// appended to the search order; an existing one keeps its position.
func (r *Resolver) Register(pattern, name string, rule Rule) error {
	g, ok := r.byPat[pattern]
	if !ok {
		m, err := glob.Compile(pattern)
		if err != nil {
			return fmt.Errorf("compile url pattern %q: %w", pattern, err)
		}
		g = &group{pattern: pattern, matcher: m, rules: map[string]Rule{}}
		r.byPat[pattern] = g
		r.groups = append(r.groups, g)
	}
	g.rules[name] = rule
	return nil
}

// RegisterConfig registers declarative rules from the site configuration
// in the order they were written.
func (r *Resolver) RegisterConfig(rules []config.URLRule) error {
	for _, rule := range rules {
		if err := r.Register(rule.Match, rule.Name, PatternRule(rule.Pattern)); err != nil {
			return err
		}
	}
	return nil
}

// Patterns returns the registered patterns in search order (newest first).
func (r *Resolver) Patterns() []string {
	out := make([]string, 0, len(r.groups))
	for i := len(r.groups) - 1; i >= 0; i-- {
		out = append(out, r.groups[i].pattern)
	}
	return out
}

// Resolve computes the URL for p. The first group whose pattern matches
// p.Path decides:
//   - a rule named by p.URL is applied
//   - in the wildcard group an unknown, non-default url is taken literally
//   - otherwise the group's default rule is applied, if it has one
//
// A matching group that cannot decide passes on to the next one.
func (r *Resolver) Resolve(p *page.Page) (string, error) {
	for i := len(r.groups) - 1; i >= 0; i-- {
		g := r.groups[i]
		if !g.matcher.Match(p.Path) {
			continue
		}
		if rule, ok := g.rules[p.URL]; ok {
			return rule(p), nil
		}
		if g.pattern == Wildcard && p.URL != RuleDefault {
			return p.URL, nil
		}
		if rule, ok := g.rules[RuleDefault]; ok {
			return rule(p), nil
		}
	}
	return "", fmt.Errorf("%w: path=%s url=%s", ErrNoRule, p.Path, p.URL)
}

// Default maps a/b/c.md to a/b/c.<output_ext>. A resulting index.html
// collapses to its directory, so a/index.md becomes a/.
func Default(p *page.Page) string {
	stem := strings.TrimSuffix(p.Path, path.Ext(p.Path))
	url := stem
	if p.OutputExt != "" {
		url += "." + p.OutputExt
	}
	dir, file := path.Split(url)
	if file != "index.html" {
		return url
	}
	if dir == "" {
		return "/"
	}
	return dir
}
