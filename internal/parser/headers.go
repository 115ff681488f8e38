package parser

import (
	"fmt"
	"log/slog"
	"time"

	"git.home.luguber.info/inful/quire/internal/frontmatter"
	"git.home.luguber.info/inful/quire/internal/logfields"
	"git.home.luguber.info/inful/quire/internal/page"
)

// dateHeaders are localized and must hold structured dates.
var dateHeaders = []string{page.FieldDate, page.FieldExpires, page.FieldMTime}

// coerceHeaders applies the per-header rules in place:
//   - date headers written without a zone are placed in the page's timezone
//     header (when known) or the site timezone; zoned values pass through;
//     strings are rejected
//   - status collapses onto live, hidden or draft
//   - any other zone-less timestamp is placed in the site timezone
func coerceHeaders(headers map[string]any, path string, site *time.Location, logger *slog.Logger) error {
	loc := pageLocation(headers, path, site, logger)

	for _, name := range dateHeaders {
		v, ok := headers[name]
		if !ok || v == nil {
			continue
		}
		t, err := coerceDate(name, v, loc)
		if err != nil {
			return err
		}
		headers[name] = t
	}

	if v, ok := headers[page.FieldStatus]; ok && v != nil {
		headers[page.FieldStatus] = page.NormalizeStatus(fmt.Sprint(v))
	}

	for k, v := range headers {
		if lt, ok := v.(frontmatter.LocalTime); ok {
			headers[k] = lt.In(site)
		}
	}
	return nil
}

func coerceDate(name string, v any, loc *time.Location) (time.Time, error) {
	switch val := v.(type) {
	case time.Time:
		return val, nil
	case frontmatter.LocalTime:
		return val.In(loc), nil
	case string:
		return time.Time{}, fmt.Errorf("header %q is the string %q; write an unquoted date such as 2024-01-31 or 2024-01-31 18:00:00", name, val)
	default:
		return time.Time{}, fmt.Errorf("header %q must be a date, got %T", name, v)
	}
}

func pageLocation(headers map[string]any, path string, site *time.Location, logger *slog.Logger) *time.Location {
	raw, ok := headers[page.FieldTimezone]
	if !ok || raw == nil {
		return site
	}
	name := fmt.Sprint(raw)
	loc, err := time.LoadLocation(name)
	if err != nil || name == "" || name == "Local" {
		logger.Warn("Unknown timezone in page header, using site timezone",
			logfields.Page(path),
			slog.String("timezone", name),
			slog.String("fallback", site.String()))
		return site
	}
	return loc
}
