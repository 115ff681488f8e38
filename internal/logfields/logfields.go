package logfields

import "log/slog"

// Canonical log field name constants to avoid drift across packages.
const (
	KeyBuildID    = "build_id"
	KeyPage       = "page"
	KeyPath       = "path"
	KeyURL        = "url"
	KeyStage      = "stage"
	KeyProcessor  = "processor"
	KeyParser     = "parser"
	KeyEngine     = "engine"
	KeyTemplate   = "template"
	KeyLanguage   = "lang"
	KeyDurationMS = "duration_ms"
	KeyCount      = "count"
	KeyReason     = "reason"
	KeyError      = "error"
)

// Simple helpers returning slog.Attr. Keeping each granular means callers can compose.
func BuildID(id string) slog.Attr     { return slog.String(KeyBuildID, id) }
func Page(path string) slog.Attr      { return slog.String(KeyPage, path) }
func Path(p string) slog.Attr         { return slog.String(KeyPath, p) }
func URL(u string) slog.Attr          { return slog.String(KeyURL, u) }
func Stage(name string) slog.Attr     { return slog.String(KeyStage, name) }
func Processor(name string) slog.Attr { return slog.String(KeyProcessor, name) }
func Parser(name string) slog.Attr    { return slog.String(KeyParser, name) }
func Engine(name string) slog.Attr    { return slog.String(KeyEngine, name) }
func Template(name string) slog.Attr  { return slog.String(KeyTemplate, name) }
func Language(lang string) slog.Attr  { return slog.String(KeyLanguage, lang) }
func DurationMS(ms float64) slog.Attr { return slog.Float64(KeyDurationMS, ms) }
func Count(n int) slog.Attr           { return slog.Int(KeyCount, n) }
func Reason(r string) slog.Attr       { return slog.String(KeyReason, r) }
func Error(err error) slog.Attr {
	if err == nil {
		return slog.String(KeyError, "")
	}
	return slog.String(KeyError, err.Error())
}
