package processor

import (
	"strings"

	"github.com/inful/mdfp"

	"git.home.luguber.info/inful/quire/internal/frontmatter"
	"git.home.luguber.info/inful/quire/internal/page"
)

const FingerprintName = "fingerprint"

// Headers that change without the page changing, or that are not headers at all.
var fingerprintSkip = map[string]bool{
	mdfp.FingerprintField: true,
	page.FieldContent:     true,
	page.FieldMTime:       true,
	page.FieldStaticFiles: true,
	page.FieldParams:      true,
	CommentsField:         true,
}

// Fingerprint stores a content fingerprint of the headers and parsed body
// in the fingerprint header, so templates can emit cache keys or ETags.
// A fingerprint written by the author is kept.
type Fingerprint struct{}

func NewFingerprint(Env) (Processor, error) { return Fingerprint{}, nil }

func (Fingerprint) Name() string { return FingerprintName }

func (Fingerprint) AfterPageParsed(p *page.Page) error {
	if _, ok := p.Extra[mdfp.FingerprintField]; ok {
		return nil
	}
	fp, err := ComputeFingerprint(p)
	if err != nil {
		return err
	}
	return p.Set(mdfp.FingerprintField, fp)
}

// ComputeFingerprint hashes the serialized headers of p together with its content.
func ComputeFingerprint(p *page.Page) (string, error) {
	fields := p.Fields()
	for k := range fields {
		if fingerprintSkip[k] {
			delete(fields, k)
		}
	}
	serialized, err := frontmatter.SerializeYAML(fields)
	if err != nil {
		return "", err
	}
	body, _ := p.Content.Get()
	return mdfp.CalculateFingerprintFromParts(strings.TrimSuffix(string(serialized), "\n"), body), nil
}
