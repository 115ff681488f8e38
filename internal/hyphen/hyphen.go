// Package hyphen inserts soft hyphens into words using Liang's pattern
// algorithm, the scheme TeX and most office suites use.
package hyphen

import (
	"bufio"
	"fmt"
	"io"
	"slices"
	"strings"
	"unicode"

	"github.com/speedata/hyphenation"
)

// SoftHyphen is U+00AD, rendered only where a browser breaks the line.
const SoftHyphen = "\u00ad"

// Hyphenator marks the break points of a single word.
type Hyphenator interface {
	Hyphenate(word string) string
}

// Identity returns words unchanged. It stands in for languages without patterns.
type Identity struct{}

func (Identity) Hyphenate(word string) string { return word }

// Patterns hyphenates with a TeX pattern list plus whole-word exceptions.
type Patterns struct {
	lang       *hyphenation.Lang
	exceptions map[string][]int
	// LeftMin and RightMin are the shortest fragments kept at either end.
	LeftMin  int
	RightMin int
	// Mark is inserted at every break point.
	Mark string
}

// Parse reads a pattern list: whitespace separated entries such as "1ba"
// or ".ach4". Entries with a hyphen and no digits ("ta-ble") are
// exceptions spelling out the break points of a whole word. Lines starting
// with % are comments.
func Parse(r io.Reader) (*Patterns, error) {
	p := &Patterns{
		exceptions: map[string][]int{},
		LeftMin:    2,
		RightMin:   2,
		Mark:       SoftHyphen,
	}
	var patterns strings.Builder
	scanner := bufio.NewScanner(r)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "%") {
			continue
		}
		for _, entry := range strings.Fields(line) {
			switch {
			case strings.Contains(entry, "-") && !strings.ContainsAny(entry, "0123456789"):
				p.addException(entry)
			case strings.TrimFunc(entry, unicode.IsDigit) == "":
				return nil, fmt.Errorf("pattern %q has no letters", entry)
			default:
				patterns.WriteString(strings.ToLower(entry))
				patterns.WriteByte('\n')
			}
		}
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("read patterns: %w", err)
	}

	lang, err := hyphenation.New(strings.NewReader(patterns.String()))
	if err != nil {
		return nil, fmt.Errorf("load patterns: %w", err)
	}
	p.lang = lang
	return p, nil
}

func (p *Patterns) addException(entry string) {
	var letters []rune
	var breaks []int
	for _, r := range entry {
		if r == '-' {
			breaks = append(breaks, len(letters))
			continue
		}
		letters = append(letters, unicode.ToLower(r))
	}
	p.exceptions[string(letters)] = breaks
}

// Breaks returns the rune offsets at which word may be split.
func (p *Patterns) Breaks(word string) []int {
	lower := strings.ToLower(word)
	if breaks, ok := p.exceptions[lower]; ok {
		return breaks
	}
	n := len([]rune(word))
	if n < p.LeftMin+p.RightMin {
		return nil
	}

	var breaks []int
	for _, at := range p.lang.Hyphenate(lower) {
		if at >= p.LeftMin && at <= n-p.RightMin && !slices.Contains(breaks, at) {
			breaks = append(breaks, at)
		}
	}
	slices.Sort(breaks)
	return breaks
}

// Hyphenate inserts Mark at every break point of word, keeping its case.
func (p *Patterns) Hyphenate(word string) string {
	breaks := p.Breaks(word)
	if len(breaks) == 0 {
		return word
	}
	runes := []rune(word)
	var b strings.Builder
	b.Grow(len(word) + len(breaks)*len(p.Mark))
	prev := 0
	for _, at := range breaks {
		b.WriteString(string(runes[prev:at]))
		b.WriteString(p.Mark)
		prev = at
	}
	b.WriteString(string(runes[prev:]))
	return b.String()
}
