package parser

// Trivial passes text through unchanged and keeps the source extension.
type Trivial struct{}

func (Trivial) Name() string         { return "trivial" }
func (Trivial) Extensions() []string { return []string{"html", "htm", "xml", "txt"} }
func (Trivial) OutputExt() string    { return "" }

func (Trivial) Transform(text, _ string) (string, error) {
	return text, nil
}
