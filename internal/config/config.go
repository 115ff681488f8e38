package config

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/gobwas/glob"
	"gopkg.in/yaml.v3"

	"git.home.luguber.info/inful/quire/internal/foundation/errors"
)

// Namespace is the top-level key of the site block in _config.yml.
const Namespace = "quire"

// LegacyNamespace is accepted when Namespace is absent.
const LegacyNamespace = "thot"

// Author identifies the site author.
type Author struct {
	Name  string `yaml:"name"`
	Email string `yaml:"email"`
}

// URLRule declares an extra URL rule registered after the built-ins.
type URLRule struct {
	Match   string `yaml:"match"`   // source path glob
	Name    string `yaml:"name"`    // rule name selected by a page's url header
	Pattern string `yaml:"pattern"` // permalink template, see urls.Expand
}

// Hyphenation configures the html processor.
type Hyphenation struct {
	PatternsDir string `yaml:"patterns_dir"`
}

// Site is the namespaced block of the site configuration file.
type Site struct {
	Author           Author         `yaml:"author"`
	WebsiteURL       string         `yaml:"website_url"`
	Timezone         string         `yaml:"timezone"`
	Language         string         `yaml:"language"`
	TemplatingEngine string         `yaml:"templating_engine"`
	Source           string         `yaml:"source"`
	DefaultTemplate  string         `yaml:"default_template"`
	PageDefaults     map[string]any `yaml:"page_defaults"`
	Processors       []string       `yaml:"processors"`
	PrettyURLPattern string         `yaml:"pretty_url_pattern"`
	CompressIfEnding []string       `yaml:"compress_if_ending"`
	Hyphenation      Hyphenation    `yaml:"hyphenation"`
	URLs             []URLRule      `yaml:"urls"`
}

// Options are the CLI-level inputs to Load. Empty fields fall back to the
// configuration file, then to defaults.
type Options struct {
	ProjectDir       string
	OutputDir        string
	TemplateDir      string
	LibDir           string
	SettingsPath     string
	TemplatingEngine string
	Source           string
	Hardlinks        bool
	Gzip             bool
	BuildTime        time.Time
	Logger           *slog.Logger
}

// Settings is the fully resolved configuration of one build.
type Settings struct {
	ProjectDir         string
	OutputDir          string
	TemplateDir        string
	LibDir             string
	SettingsPath       string
	Hardlinks          bool
	MakeCompressedCopy bool
	CompressIfEnding   []string
	TemplatingEngine   string
	Source             string
	BuildTime          time.Time
	BuildTZ            *time.Location
	Site               Site

	// Raw holds the whole decoded configuration file. It is handed to
	// templates as the settings binding.
	Raw map[string]any
}

// Load resolves Settings from CLI options and the site configuration file.
func Load(opts Options) (*Settings, error) {
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}

	projectDir := opts.ProjectDir
	if projectDir == "" {
		projectDir = "."
	}
	projectDir, err := filepath.Abs(projectDir)
	if err != nil {
		return nil, errors.WrapError(err, errors.CategoryConfig, "resolve project directory").Fatal().Build()
	}
	if fi, statErr := os.Stat(projectDir); statErr != nil || !fi.IsDir() {
		return nil, errors.ConfigError("project directory does not exist").
			WithContext("path", projectDir).WithCause(statErr).Build()
	}

	if envFile, envErr := loadEnvFiles(projectDir); envErr == nil {
		logger.Debug("Loaded environment file", "file", envFile)
	}

	s := &Settings{
		ProjectDir:         projectDir,
		OutputDir:          resolveIn(projectDir, opts.OutputDir, DefaultOutputDir),
		TemplateDir:        resolveIn(projectDir, opts.TemplateDir, DefaultTemplateDir),
		LibDir:             resolveIn(projectDir, opts.LibDir, DefaultLibDir),
		SettingsPath:       resolveIn(projectDir, opts.SettingsPath, DefaultSettingsFile),
		Hardlinks:          opts.Hardlinks,
		MakeCompressedCopy: opts.Gzip,
	}

	data, err := os.ReadFile(s.SettingsPath)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, errors.ConfigError("settings file not found").
				WithContext("path", s.SettingsPath).Build()
		}
		return nil, errors.WrapError(err, errors.CategoryConfig, "read settings file").Fatal().Build()
	}

	site, raw, err := decode([]byte(os.ExpandEnv(string(data))))
	if err != nil {
		return nil, errors.WrapError(err, errors.CategoryConfig, "parse settings file").
			Fatal().WithContext("path", s.SettingsPath).Build()
	}
	s.Site = site
	s.Raw = raw

	s.TemplatingEngine = firstNonEmpty(opts.TemplatingEngine, site.TemplatingEngine, DefaultTemplatingEngine)
	s.Source = firstNonEmpty(opts.Source, site.Source, DefaultSource)
	s.CompressIfEnding = site.CompressIfEnding
	if len(s.CompressIfEnding) == 0 {
		s.CompressIfEnding = append([]string(nil), DefaultCompressEndings...)
	}

	if site.Timezone == "" {
		logger.Warn("No timezone configured, falling back to UTC", "settings", s.SettingsPath)
		s.Site.Timezone = "UTC"
	}
	s.BuildTZ, err = time.LoadLocation(s.Site.Timezone)
	if err != nil {
		return nil, errors.WrapError(err, errors.CategoryConfig, fmt.Sprintf("unknown timezone %q", s.Site.Timezone)).
			Fatal().Build()
	}

	buildTime := opts.BuildTime
	if buildTime.IsZero() {
		buildTime = time.Now()
	}
	s.BuildTime = buildTime.In(s.BuildTZ)

	if err := s.Validate(); err != nil {
		return nil, err
	}
	return s, nil
}

// Validate checks cross-field constraints that decoding cannot express.
func (s *Settings) Validate() error {
	for i, r := range s.Site.URLs {
		if r.Match == "" || r.Name == "" || r.Pattern == "" {
			return errors.ValidationError("url rule needs match, name and pattern").
				WithContext("index", i).Build()
		}
		if _, err := glob.Compile(r.Match); err != nil {
			return errors.ValidationError("invalid url rule glob").
				WithContext("match", r.Match).WithCause(err).Build()
		}
	}
	rel, err := filepath.Rel(s.OutputDir, s.ProjectDir)
	if err == nil && rel == "." {
		return errors.ValidationError("output directory must not be the project directory").
			WithContext("path", s.OutputDir).Build()
	}
	return nil
}

func decode(data []byte) (Site, map[string]any, error) {
	var doc struct {
		Quire *Site `yaml:"quire"`
		Thot  *Site `yaml:"thot"`
	}
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return Site{}, nil, err
	}
	raw := map[string]any{}
	if err := yaml.Unmarshal(data, &raw); err != nil {
		return Site{}, nil, err
	}
	if raw == nil {
		raw = map[string]any{}
	}
	switch {
	case doc.Quire != nil:
		return *doc.Quire, raw, nil
	case doc.Thot != nil:
		raw[Namespace] = raw[LegacyNamespace]
		return *doc.Thot, raw, nil
	default:
		return Site{}, raw, nil
	}
}

func resolveIn(base, value, fallback string) string {
	if value == "" {
		value = fallback
	}
	if filepath.IsAbs(value) {
		return filepath.Clean(value)
	}
	return filepath.Join(base, value)
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}
