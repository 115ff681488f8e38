package hyphen

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// Patterns from Liang's thesis, enough for "hyphenation".
const liang = `% sample
hy3ph he2n hena4 hen5at
1na n2at 1tio 2io o2n
ta-ble`

func TestPatterns_Hyphenate(t *testing.T) {
	p, err := Parse(strings.NewReader(liang))
	require.NoError(t, err)
	p.Mark = "-"

	assert.Equal(t, "hy-phen-ation", p.Hyphenate("hyphenation"))
	assert.Equal(t, "Hy-phen-ation", p.Hyphenate("Hyphenation"))
	assert.Equal(t, "na-tion", p.Hyphenate("nation"))
	assert.Equal(t, "ta-ble", p.Hyphenate("table"))
	assert.Equal(t, "on", p.Hyphenate("on"))
}

func TestPatterns_DefaultMarkIsSoftHyphen(t *testing.T) {
	p, err := Parse(strings.NewReader(liang))
	require.NoError(t, err)
	assert.Equal(t, "na\u00adtion", p.Hyphenate("nation"))
}

func TestPatterns_RespectsMinimumFragments(t *testing.T) {
	p, err := Parse(strings.NewReader("1b"))
	require.NoError(t, err)
	p.Mark = "-"
	frags := strings.Split(p.Hyphenate("abbbbb"), "-")
	require.Greater(t, len(frags), 1)
	assert.Equal(t, "ab", frags[0])
	assert.GreaterOrEqual(t, len(frags[len(frags)-1]), 2)
	assert.Equal(t, "abb", p.Hyphenate("abb"))
}

func TestParse_RejectsDigitOnlyEntries(t *testing.T) {
	_, err := Parse(strings.NewReader("12"))
	assert.Error(t, err)
}

func TestIdentity(t *testing.T) {
	assert.Equal(t, "hyphenation", Identity{}.Hyphenate("hyphenation"))
}

func TestCandidates(t *testing.T) {
	assert.Equal(t, []string{"en-us", "en"}, Candidates("en_US"))
	assert.Equal(t, []string{"de"}, Candidates("de"))
	assert.Nil(t, Candidates(""))
	for _, bad := range []string{"../../x", "en/../../x", `..\x`, "..", "."} {
		assert.Nil(t, Candidates(bad), bad)
	}
}

func TestCache_IgnoresPathsInLanguage(t *testing.T) {
	root := t.TempDir()
	dir := filepath.Join(root, "patterns")
	require.NoError(t, os.MkdirAll(dir, 0o750))
	require.NoError(t, os.WriteFile(filepath.Join(root, "x.pat"), []byte(liang), 0o600))

	assert.Equal(t, Identity{}, NewCache(dir, nil).Get("../x"))
}

func TestCache(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "en.pat"), []byte(liang), 0o600))

	c := NewCache(dir, nil)
	h := c.Get("en_GB")
	_, ok := h.(*Patterns)
	require.True(t, ok)
	assert.Same(t, h, c.Get("en_GB"))

	assert.Equal(t, Identity{}, c.Get("fr"))
	assert.Equal(t, Identity{}, NewCache("", nil).Get("en"))
}
