// Package frontmatter separates a page's header block from its body and
// decodes the header as YAML.
package frontmatter

import (
	"errors"
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// Delimiter records how a header block was recognized.
type Delimiter int

const (
	// None means no header block: the whole document is body.
	None Delimiter = iota
	// Fenced is a block between a leading "---" line and a closing "---" line.
	Fenced
	// BlankLine is everything before the first empty line.
	BlankLine
	// Trailing is everything before the first "---" line, for documents
	// that close their header without opening it.
	Trailing
)

func (d Delimiter) String() string {
	switch d {
	case Fenced:
		return "fenced"
	case BlankLine:
		return "blank-line"
	case Trailing:
		return "trailing"
	default:
		return "none"
	}
}

// Block is a document split into header and body.
type Block struct {
	Header    string
	Body      string
	Delimiter Delimiter
}

// ErrNotMapping is returned by ParseYAML when the header decodes to something
// other than a mapping.
var ErrNotMapping = errors.New("front matter is not a mapping")

// Split separates the header block from the body.
//
// A fenced block wins when the document starts with "---" and a closing
// "---" line follows. Otherwise the first blank line splits the document.
// Failing that, a "---" line closes the header. Without any of these,
// Delimiter is None and Body is the full input.
func Split(content string) Block {
	nl := detectNewline(content)

	open := "---" + nl
	if strings.HasPrefix(content, open) {
		rest := content[len(open):]
		if strings.HasPrefix(rest, open) {
			return Block{Body: rest[len(open):], Delimiter: Fenced}
		}
		closeSeq := nl + "---" + nl
		if idx := strings.Index(rest, closeSeq); idx >= 0 {
			return Block{
				Header:    rest[:idx+len(nl)],
				Body:      rest[idx+len(closeSeq):],
				Delimiter: Fenced,
			}
		}
		if strings.HasSuffix(rest, nl+"---") {
			return Block{Header: strings.TrimSuffix(rest, "---"), Delimiter: Fenced}
		}
	}

	if idx := strings.Index(content, nl+nl); idx >= 0 {
		return Block{
			Header:    content[:idx+len(nl)],
			Body:      content[idx+2*len(nl):],
			Delimiter: BlankLine,
		}
	}

	rule := "---" + nl
	if idx := strings.Index(content, nl+rule); idx >= 0 {
		return Block{
			Header:    content[:idx+len(nl)],
			Body:      content[idx+len(nl)+len(rule):],
			Delimiter: Trailing,
		}
	}

	return Block{Body: content, Delimiter: None}
}

// LocalTime is a timestamp written without a zone. The wall clock is kept
// so callers can place it in the page or site timezone.
type LocalTime struct {
	Wall     time.Time
	DateOnly bool
}

// In returns the wall-clock time interpreted in loc.
func (l LocalTime) In(loc *time.Location) time.Time {
	w := l.Wall
	return time.Date(w.Year(), w.Month(), w.Day(), w.Hour(), w.Minute(), w.Second(), w.Nanosecond(), loc)
}

// ParseYAML decodes a header block into a mapping. An empty block yields an
// empty mapping. Top-level timestamps without zone information decode as
// LocalTime; zoned timestamps decode as time.Time.
func ParseYAML(header string) (map[string]any, error) {
	if strings.TrimSpace(header) == "" {
		return map[string]any{}, nil
	}

	var doc yaml.Node
	if err := yaml.Unmarshal([]byte(header), &doc); err != nil {
		return nil, err
	}
	if len(doc.Content) == 0 {
		return map[string]any{}, nil
	}
	root := doc.Content[0]
	if root.Kind != yaml.MappingNode {
		if root.Kind == yaml.ScalarNode && root.Tag == "!!null" {
			return map[string]any{}, nil
		}
		return nil, fmt.Errorf("%w: got %s", ErrNotMapping, root.Tag)
	}

	fields := map[string]any{}
	if err := root.Decode(&fields); err != nil {
		return nil, err
	}

	for i := 0; i+1 < len(root.Content); i += 2 {
		key, val := root.Content[i], root.Content[i+1]
		if val.Kind != yaml.ScalarNode || val.Style != 0 {
			continue
		}
		if ts, ok := parseTimestamp(val.Value); ok {
			fields[key.Value] = ts
			continue
		}
		if t, ok := fields[key.Value].(time.Time); ok && !strings.ContainsAny(val.Value, "Tt :") {
			fields[key.Value] = LocalTime{Wall: t, DateOnly: true}
		}
	}
	return fields, nil
}

// timestampRE is the YAML 1.1 timestamp form with a time of day. The zone
// may follow the time directly or after blanks.
var timestampRE = regexp.MustCompile(`^(\d{4})-(\d{1,2})-(\d{1,2})(?:[Tt]|[ \t]+)(\d{1,2}):(\d{2}):(\d{2})(?:\.(\d*))?(?:[ \t]*(Z|[-+]\d{1,2}(?::?\d{2})?))?$`)

// parseTimestamp reads a plain scalar as a YAML 1.1 timestamp. Zoned values
// become time.Time, zone-less values LocalTime.
func parseTimestamp(s string) (any, bool) {
	m := timestampRE.FindStringSubmatch(s)
	if m == nil {
		return nil, false
	}
	n := func(i int) int {
		v, _ := strconv.Atoi(m[i])
		return v
	}
	nsec := 0
	if frac := m[7]; frac != "" {
		if len(frac) > 9 {
			frac = frac[:9]
		}
		nsec, _ = strconv.Atoi(frac + strings.Repeat("0", 9-len(frac)))
	}

	loc := time.UTC
	zoned := m[8] != ""
	if zoned && m[8] != "Z" {
		zone := strings.ReplaceAll(m[8][1:], ":", "")
		hh, mm := zone, ""
		if len(zone) > 2 {
			hh, mm = zone[:len(zone)-2], zone[len(zone)-2:]
		}
		hours, _ := strconv.Atoi(hh)
		minutes, _ := strconv.Atoi(mm)
		offset := hours*3600 + minutes*60
		if m[8][0] == '-' {
			offset = -offset
		}
		loc = time.FixedZone("", offset)
	}

	t := time.Date(n(1), time.Month(n(2)), n(3), n(4), n(5), n(6), nsec, loc)
	if int(t.Month()) != n(2) || t.Day() != n(3) || t.Hour() != n(4) || t.Minute() != n(5) || t.Second() != n(6) {
		return nil, false
	}
	if zoned {
		return t, true
	}
	return LocalTime{Wall: t}, true
}

func detectNewline(content string) string {
	if i := strings.IndexByte(content, '\n'); i > 0 && content[i-1] == '\r' {
		return "\r\n"
	}
	return "\n"
}
