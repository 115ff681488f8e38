package source

import (
	"maps"
	"slices"

	"git.home.luguber.info/inful/quire/internal/foundation/errors"
)

// Constructor builds a data source.
type Constructor func(Options) (DataSource, error)

// Registry maps data source shortnames to constructors.
type Registry struct {
	constructors map[string]Constructor
}

// NewRegistry returns a registry holding the built-in sources.
func NewRegistry() *Registry {
	r := &Registry{constructors: map[string]Constructor{}}
	r.Register("filesystem", func(o Options) (DataSource, error) { return NewFilesystem(o), nil })
	r.Register("git", func(o Options) (DataSource, error) { return NewGit(o) })
	return r
}

// Register adds or replaces a source.
func (r *Registry) Register(name string, c Constructor) {
	r.constructors[name] = c
}

// Names returns the registered shortnames, sorted.
func (r *Registry) Names() []string {
	return slices.Sorted(maps.Keys(r.constructors))
}

// Open constructs the source called name. An unknown name is a config error.
func (r *Registry) Open(name string, opts Options) (DataSource, error) {
	c, ok := r.constructors[name]
	if !ok {
		return nil, errors.WrapError(ErrUnknownSource, errors.CategoryConfig, "unknown data source").
			Fatal().
			WithContext("source", name).
			WithContext("available", r.Names()).
			Build()
	}
	ds, err := c(opts)
	if err != nil {
		return nil, errors.WrapError(err, errors.CategoryConfig, "data source failed to initialize").
			Fatal().
			WithContext("source", name).
			Build()
	}
	return ds, nil
}
