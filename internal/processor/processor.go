// Package processor runs page hooks at fixed points of a build.
//
// A processor implements any subset of the stage interfaces below; the
// pipeline dispatches to whichever it implements, in registration order.
package processor

import (
	"log/slog"

	"git.home.luguber.info/inful/quire/internal/config"
	"git.home.luguber.info/inful/quire/internal/page"
)

// Stage names a hook point.
type Stage string

const (
	BeforePageParsing Stage = "before_page_parsing"
	AfterPageParsed   Stage = "after_page_parsed"
	AfterParsing      Stage = "after_parsing"
	AfterRendering    Stage = "after_rendering"
)

// Stages returns the hook points in execution order.
func Stages() []Stage {
	return []Stage{BeforePageParsing, AfterPageParsed, AfterParsing, AfterRendering}
}

// Processor is the common part of every hook implementation.
type Processor interface {
	Name() string
}

// BeforePageParser runs per page before its content is parsed.
type BeforePageParser interface {
	Processor
	BeforePageParsing(p *page.Page) error
}

// AfterPageParsedHook runs per page after parsing and URL assignment.
type AfterPageParsedHook interface {
	Processor
	AfterPageParsed(p *page.Page) error
}

// AfterParsingHook runs once with the sorted page collection. It may remove
// pages from or append pages to the slice.
type AfterParsingHook interface {
	Processor
	AfterParsing(pages *[]*page.Page) error
}

// AfterRenderingHook transforms the rendered output of a page.
type AfterRenderingHook interface {
	Processor
	AfterRendering(p *page.Page, rendered string) (string, error)
}

// Reader gives processors access to project files. Every source.DataSource is one.
type Reader interface {
	Read(path string) (string, error)
}

// Env is what a processor constructor gets to work with.
type Env struct {
	Settings *config.Settings
	Reader   Reader
	Logger   *slog.Logger
}

// Constructor creates a processor. Returning an error skips the processor.
type Constructor func(Env) (Processor, error)

// Factory pairs a processor name with its constructor.
type Factory struct {
	Name string
	New  Constructor
}

// Builtins returns the shipped processors in registration order.
func Builtins() []Factory {
	return []Factory{
		{Name: CommentsName, New: NewComments},
		{Name: TagsName, New: NewTags},
		{Name: CategoryName, New: NewCategory},
		{Name: FingerprintName, New: NewFingerprint},
		{Name: HTMLName, New: NewHTML},
	}
}

func (e Env) logger() *slog.Logger {
	if e.Logger == nil {
		return slog.Default()
	}
	return e.Logger
}
