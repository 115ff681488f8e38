package config

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"git.home.luguber.info/inful/quire/internal/foundation/errors"
)

func writeProject(t *testing.T, cfg string) string {
	t.Helper()
	dir := t.TempDir()
	if cfg != "" {
		require.NoError(t, os.WriteFile(filepath.Join(dir, DefaultSettingsFile), []byte(cfg), 0o600))
	}
	return dir
}

func TestLoad_Defaults(t *testing.T) {
	dir := writeProject(t, `
quire:
  author:
    name: Jane
    email: jane@example.org
  website_url: https://example.org
  timezone: Europe/Berlin
  page_defaults:
    layout: post
`)
	pinned := time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)

	s, err := Load(Options{ProjectDir: dir, BuildTime: pinned})
	require.NoError(t, err)

	assert.Equal(t, filepath.Join(dir, "_output"), s.OutputDir)
	assert.Equal(t, filepath.Join(dir, "_templates"), s.TemplateDir)
	assert.Equal(t, filepath.Join(dir, "_lib"), s.LibDir)
	assert.Equal(t, DefaultTemplatingEngine, s.TemplatingEngine)
	assert.Equal(t, DefaultSource, s.Source)
	assert.Equal(t, "Jane", s.Site.Author.Name)
	assert.Equal(t, "post", s.Site.PageDefaults["layout"])
	assert.Equal(t, DefaultCompressEndings, s.CompressIfEnding)
	assert.Equal(t, "Europe/Berlin", s.BuildTZ.String())
	assert.True(t, s.BuildTime.Equal(pinned))
	assert.Equal(t, "Europe/Berlin", s.BuildTime.Location().String())
	assert.Contains(t, s.Raw, Namespace)
}

func TestLoad_CLIOverridesFile(t *testing.T) {
	dir := writeProject(t, "quire:\n  timezone: UTC\n  templating_engine: pongo2\n  source: git\n")

	s, err := Load(Options{ProjectDir: dir, TemplatingEngine: "gotemplate", Gzip: true, Hardlinks: true, OutputDir: "public"})
	require.NoError(t, err)
	assert.Equal(t, "gotemplate", s.TemplatingEngine)
	assert.Equal(t, "git", s.Source)
	assert.True(t, s.MakeCompressedCopy)
	assert.True(t, s.Hardlinks)
	assert.Equal(t, filepath.Join(dir, "public"), s.OutputDir)
}

func TestLoad_LegacyNamespace(t *testing.T) {
	dir := writeProject(t, "thot:\n  timezone: UTC\n  website_url: http://www.example.org\n")

	s, err := Load(Options{ProjectDir: dir})
	require.NoError(t, err)
	assert.Equal(t, "http://www.example.org", s.Site.WebsiteURL)
	assert.Contains(t, s.Raw, Namespace)
}

func TestLoad_MissingTimezoneWarnsAndUsesUTC(t *testing.T) {
	dir := writeProject(t, "quire:\n  website_url: x\n")
	var logs bytes.Buffer

	s, err := Load(Options{ProjectDir: dir, Logger: NewLogger(&logs, LogLevelDebug, LogFormatText)})
	require.NoError(t, err)
	assert.Equal(t, time.UTC.String(), s.BuildTZ.String())
	assert.Contains(t, logs.String(), "No timezone configured")
}

func TestLoad_ConfigErrors(t *testing.T) {
	tests := []struct {
		name string
		cfg  string
	}{
		{"missing settings file", ""},
		{"unknown timezone", "quire:\n  timezone: Mars/Olympus_Mons\n"},
		{"malformed yaml", "quire: [\n"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			dir := writeProject(t, tt.cfg)
			_, err := Load(Options{ProjectDir: dir})
			require.Error(t, err)
			assert.True(t, errors.HasCategory(err, errors.CategoryConfig), "got %v", err)
		})
	}
}

func TestLoad_ExpandsEnvironment(t *testing.T) {
	dir := writeProject(t, "quire:\n  timezone: UTC\n  website_url: ${QUIRE_TEST_URL}\n")
	require.NoError(t, os.WriteFile(filepath.Join(dir, ".env"), []byte("QUIRE_TEST_URL=https://env.example.org\n"), 0o600))
	t.Cleanup(func() { _ = os.Unsetenv("QUIRE_TEST_URL") })

	s, err := Load(Options{ProjectDir: dir})
	require.NoError(t, err)
	assert.Equal(t, "https://env.example.org", s.Site.WebsiteURL)
}

func TestValidate_URLRules(t *testing.T) {
	dir := writeProject(t, "quire:\n  timezone: UTC\n  urls:\n    - match: \"blog/*\"\n      name: default\n")
	_, err := Load(Options{ProjectDir: dir})
	require.Error(t, err)
	assert.True(t, errors.HasCategory(err, errors.CategoryValidation))
}

func TestNormalizeLogging(t *testing.T) {
	assert.Equal(t, LogLevelWarn, NormalizeLogLevel("WARNING"))
	assert.Equal(t, LogLevelInfo, NormalizeLogLevel("loud"))
	assert.Equal(t, LogFormatJSON, NormalizeLogFormat(" json "))
	assert.Equal(t, LogFormatText, NormalizeLogFormat("xml"))
}
