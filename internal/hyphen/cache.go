package hyphen

import (
	"errors"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"golang.org/x/text/language"

	"git.home.luguber.info/inful/quire/internal/logfields"
)

// PatternExt is the file extension of pattern lists in the patterns directory.
const PatternExt = ".pat"

// Cache loads one hyphenator per language on first use and keeps it.
type Cache struct {
	dir    string
	logger *slog.Logger

	mu    sync.Mutex
	byTag map[string]Hyphenator
}

// NewCache returns a cache reading <dir>/<lang>.pat files.
func NewCache(dir string, logger *slog.Logger) *Cache {
	if logger == nil {
		logger = slog.Default()
	}
	return &Cache{dir: dir, logger: logger, byTag: map[string]Hyphenator{}}
}

// Get returns the hyphenator for lang, loading it if needed. Languages
// without a pattern file get Identity.
func (c *Cache) Get(lang string) Hyphenator {
	key := strings.ToLower(strings.TrimSpace(lang))
	c.mu.Lock()
	defer c.mu.Unlock()
	if h, ok := c.byTag[key]; ok {
		return h
	}
	h := c.load(lang)
	c.byTag[key] = h
	return h
}

func (c *Cache) load(lang string) Hyphenator {
	if c.dir == "" {
		return Identity{}
	}
	for _, name := range Candidates(lang) {
		path := filepath.Join(c.dir, name+PatternExt)
		// #nosec G304 - path is built from the configured patterns directory
		f, err := os.Open(path)
		if errors.Is(err, fs.ErrNotExist) {
			continue
		}
		if err != nil {
			c.logger.Warn("Cannot open hyphenation patterns", logfields.Path(path), logfields.Error(err))
			continue
		}
		p, err := Parse(f)
		_ = f.Close()
		if err != nil {
			c.logger.Warn("Invalid hyphenation patterns", logfields.Path(path), logfields.Error(err))
			continue
		}
		c.logger.Debug("Loaded hyphenation patterns", logfields.Language(lang), logfields.Path(path))
		return p
	}
	c.logger.Debug("No hyphenation patterns for language", logfields.Language(lang))
	return Identity{}
}

// Candidates lists the pattern file names tried for lang, most specific
// first: en_US yields en-us then en. Values that are not plain names
// yield nothing.
func Candidates(lang string) []string {
	raw := strings.ToLower(strings.ReplaceAll(strings.TrimSpace(lang), "_", "-"))
	if raw == "" || strings.ContainsAny(raw, `/\.`) {
		return nil
	}
	out := []string{raw}
	if tag, err := language.Parse(raw); err == nil {
		base, _ := tag.Base()
		out = appendUnique(out, strings.ToLower(tag.String()))
		out = appendUnique(out, base.String())
	} else if i := strings.IndexByte(raw, '-'); i > 0 {
		out = appendUnique(out, raw[:i])
	}
	return out
}

func appendUnique(list []string, s string) []string {
	for _, v := range list {
		if v == s {
			return list
		}
	}
	return append(list, s)
}
