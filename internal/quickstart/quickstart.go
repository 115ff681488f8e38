// Package quickstart writes a new project: a scaffold for the chosen
// templating engine plus a _config.yml built from the given answers.
package quickstart

import (
	"embed"
	stderrors "errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"os/user"
	"path"
	"path/filepath"
	"slices"
	"time"

	"gopkg.in/yaml.v3"

	"git.home.luguber.info/inful/quire/internal/config"
	"git.home.luguber.info/inful/quire/internal/foundation/errors"
	"git.home.luguber.info/inful/quire/internal/logfields"
)

//go:embed all:scaffold
var scaffolds embed.FS

const (
	DefaultWebsiteURL = "http://www.example.org"
	DefaultTimezone   = "UTC"
	DefaultLanguage   = "de"
)

// engineScaffold maps engine aliases onto the scaffold that serves them.
var engineScaffold = map[string]string{
	"gotemplate": "gotemplate",
	"pongo2":     "pongo2",
	"jinja2":     "pongo2",
}

// Options are the quickstart answers. Empty fields take the defaults.
type Options struct {
	ProjectDir       string
	TemplatingEngine string
	Source           string
	AuthorName       string
	AuthorEmail      string
	WebsiteURL       string
	Timezone         string
	Language         string
	// Force overwrites an existing configuration and scaffold files.
	Force  bool
	Logger *slog.Logger
}

// withDefaults fills empty answers: the login name as author,
// <login>@localhost as email.
func (o Options) withDefaults() Options {
	login := loginName()
	if o.ProjectDir == "" {
		o.ProjectDir = "."
	}
	if o.TemplatingEngine == "" {
		o.TemplatingEngine = config.DefaultTemplatingEngine
	}
	if o.Source == "" {
		o.Source = config.DefaultSource
	}
	if o.AuthorName == "" {
		o.AuthorName = login
	}
	if o.AuthorEmail == "" {
		o.AuthorEmail = login + "@localhost"
	}
	if o.WebsiteURL == "" {
		o.WebsiteURL = DefaultWebsiteURL
	}
	if o.Timezone == "" {
		o.Timezone = DefaultTimezone
	}
	if o.Language == "" {
		o.Language = DefaultLanguage
	}
	if o.Logger == nil {
		o.Logger = slog.Default()
	}
	return o
}

func loginName() string {
	if u, err := user.Current(); err == nil && u.Username != "" {
		return u.Username
	}
	if name := os.Getenv("USER"); name != "" {
		return name
	}
	return "quire"
}

type siteBlock struct {
	WebsiteURL       string         `yaml:"website_url"`
	Timezone         string         `yaml:"timezone"`
	TemplatingEngine string         `yaml:"templating_engine"`
	Source           string         `yaml:"source"`
	Author           config.Author  `yaml:"author"`
	PageDefaults     map[string]any `yaml:"page_defaults"`
}

// Result lists what Run wrote, relative to the project directory.
type Result struct {
	ProjectDir string
	Files      []string
	Kept       []string
}

// Run writes the scaffold and the configuration file.
func Run(opts Options) (*Result, error) {
	opts = opts.withDefaults()

	name, ok := engineScaffold[opts.TemplatingEngine]
	if !ok {
		return nil, errors.ScaffoldError("no quickstart scaffold for templating engine").
			WithContext("engine", opts.TemplatingEngine).Build()
	}
	root := path.Join("scaffold", name)
	if _, err := fs.Stat(scaffolds, root); err != nil {
		return nil, errors.ScaffoldError("quickstart scaffold missing").
			WithContext("engine", opts.TemplatingEngine).WithCause(err).Build()
	}
	if _, err := time.LoadLocation(opts.Timezone); err != nil {
		return nil, errors.ConfigError(fmt.Sprintf("unknown timezone %q", opts.Timezone)).WithCause(err).Build()
	}

	projectDir, err := filepath.Abs(opts.ProjectDir)
	if err != nil {
		return nil, errors.WrapError(err, errors.CategoryConfig, "resolve project directory").Fatal().Build()
	}
	cfgPath := filepath.Join(projectDir, config.DefaultSettingsFile)
	if _, err := os.Stat(cfgPath); err == nil && !opts.Force {
		return nil, errors.ConfigError("configuration file already exists (use --force to overwrite)").
			WithContext("path", cfgPath).Build()
	}

	res := &Result{ProjectDir: projectDir}
	err = fs.WalkDir(scaffolds, root, func(p string, d fs.DirEntry, walkErr error) error {
		if walkErr != nil || d.IsDir() {
			return walkErr
		}
		rel := p[len(root)+1:]
		data, err := scaffolds.ReadFile(p)
		if err != nil {
			return err
		}
		written, err := writeFile(projectDir, rel, data, opts.Force)
		if err != nil {
			return err
		}
		if written {
			res.Files = append(res.Files, rel)
		} else {
			opts.Logger.Info("Keeping existing file", logfields.Path(rel))
			res.Kept = append(res.Kept, rel)
		}
		return nil
	})
	if err != nil {
		return nil, errors.WrapError(err, errors.CategoryScaffold, "write quickstart scaffold").
			Fatal().WithContext("path", projectDir).Build()
	}

	if err := os.MkdirAll(filepath.Join(projectDir, config.DefaultLibDir), 0o750); err != nil {
		return nil, errors.WrapError(err, errors.CategoryFileSystem, "create lib directory").Fatal().Build()
	}

	data, err := yaml.Marshal(map[string]siteBlock{config.Namespace: {
		WebsiteURL:       opts.WebsiteURL,
		Timezone:         opts.Timezone,
		TemplatingEngine: opts.TemplatingEngine,
		Source:           opts.Source,
		Author:           config.Author{Name: opts.AuthorName, Email: opts.AuthorEmail},
		PageDefaults:     map[string]any{"language": opts.Language},
	}})
	if err != nil {
		return nil, errors.WrapError(err, errors.CategoryInternal, "encode configuration").Fatal().Build()
	}
	if _, err := writeFile(projectDir, config.DefaultSettingsFile, data, true); err != nil {
		return nil, errors.WrapError(err, errors.CategoryFileSystem, "write configuration").
			Fatal().WithContext("path", cfgPath).Build()
	}
	res.Files = append(res.Files, config.DefaultSettingsFile)

	opts.Logger.Info("Project created",
		logfields.Path(projectDir),
		logfields.Engine(opts.TemplatingEngine),
		logfields.Count(len(res.Files)))
	return res, nil
}

// writeFile writes rel below dir. Without overwrite an existing file is
// left alone and written is false.
func writeFile(dir, rel string, data []byte, overwrite bool) (written bool, err error) {
	full := filepath.Join(dir, filepath.FromSlash(rel))
	if err := os.MkdirAll(filepath.Dir(full), 0o750); err != nil {
		return false, fmt.Errorf("create directory: %w", err)
	}
	flags := os.O_WRONLY | os.O_CREATE | os.O_TRUNC
	if !overwrite {
		flags = os.O_WRONLY | os.O_CREATE | os.O_EXCL
	}
	// #nosec G304 -- rel comes from the embedded scaffold.
	f, err := os.OpenFile(full, flags, 0o644)
	if err != nil {
		if stderrors.Is(err, os.ErrExist) {
			return false, nil
		}
		return false, fmt.Errorf("write %s: %w", rel, err)
	}
	defer func() { _ = f.Close() }()
	if _, err := f.Write(data); err != nil {
		return false, fmt.Errorf("write %s: %w", rel, err)
	}
	return true, nil
}

// Engines lists the templating engines that have a scaffold.
func Engines() []string {
	names := make([]string, 0, len(engineScaffold))
	for name := range engineScaffold {
		names = append(names, name)
	}
	slices.Sort(names)
	return names
}
