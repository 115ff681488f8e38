// Package parser turns a page's raw text into headers plus rendered content.
//
// A Parser only owns the markup transform. Splitting the header block,
// decoding it and coercing well-known headers is shared by every parser and
// lives in Parse.
package parser

import (
	"log/slog"
	"time"

	"git.home.luguber.info/inful/quire/internal/foundation/errors"
	"git.home.luguber.info/inful/quire/internal/frontmatter"
	"git.home.luguber.info/inful/quire/internal/logfields"
)

// Parser converts one markup language into HTML (or passes text through).
type Parser interface {
	// Name identifies the parser in logs and registration order.
	Name() string
	// Extensions lists the file extensions handled, without the leading dot.
	Extensions() []string
	// OutputExt is the extension of the rendered file. Empty keeps the source extension.
	OutputExt() string
	// Transform converts the body text of the page at path.
	Transform(text, path string) (string, error)
}

// Options carry the site-wide inputs of a parse.
type Options struct {
	// Location is the site timezone used for dates written without a zone.
	Location *time.Location
	Logger   *slog.Logger
}

// Result is a parsed page.
type Result struct {
	Headers   map[string]any
	Content   string
	Delimiter frontmatter.Delimiter
}

// Parse splits raw into header and body, decodes and coerces the headers and
// runs the parser's transform on the body. Failures are page-scoped parser errors.
func Parse(p Parser, raw, path string, opts Options) (*Result, error) {
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	loc := opts.Location
	if loc == nil {
		loc = time.UTC
	}

	block := frontmatter.Split(raw)
	headers, body, err := decodeBlock(block, raw)
	if err != nil {
		return nil, errors.ParserError("invalid front matter").
			WithContext("path", path).WithCause(err).Build()
	}
	if len(headers) == 0 && block.Delimiter != frontmatter.Fenced {
		logger.Warn("Page has no headers, only content - at least 'title' will be missing",
			logfields.Page(path))
		block.Delimiter = frontmatter.None
	}

	if err := coerceHeaders(headers, path, loc, logger); err != nil {
		return nil, errors.ParserError("invalid header").
			WithContext("path", path).WithCause(err).Build()
	}

	content, err := p.Transform(body, path)
	if err != nil {
		return nil, errors.ParserError(p.Name()+" transform failed").
			WithContext("path", path).WithCause(err).Build()
	}

	return &Result{Headers: headers, Content: content, Delimiter: block.Delimiter}, nil
}

// decodeBlock decodes the header of block. A fenced header must decode; the
// blank-line and trailing-rule forms are heuristics, so a header that is not
// a YAML mapping means the document has no header at all.
func decodeBlock(block frontmatter.Block, raw string) (map[string]any, string, error) {
	switch block.Delimiter {
	case frontmatter.Fenced:
		headers, err := frontmatter.ParseYAML(block.Header)
		if err != nil {
			return nil, "", err
		}
		return headers, block.Body, nil
	case frontmatter.BlankLine, frontmatter.Trailing:
		headers, err := frontmatter.ParseYAML(block.Header)
		if err != nil || len(headers) == 0 {
			return map[string]any{}, raw, nil
		}
		return headers, block.Body, nil
	default:
		return map[string]any{}, raw, nil
	}
}
