package source

import (
	"path"
	"slices"

	"git.home.luguber.info/inful/quire/internal/page"
)

// RootDir is the key of the project root group.
const RootDir = "."

// Group is the content of one directory: its pages and the static files
// associated with them.
type Group struct {
	Dir    string
	Pages  []*page.Page
	Static []string
}

// Tree is the page/asset grouping produced by a data source. Directories
// are kept in walk order; paths are slash separated and relative to the
// project directory.
type Tree struct {
	order  []string
	groups map[string]*Group
}

// NewTree returns a tree holding only the (empty) root group.
func NewTree() *Tree {
	t := &Tree{groups: map[string]*Group{}}
	t.ensure(RootDir)
	return t
}

func (t *Tree) ensure(dir string) *Group {
	if g, ok := t.groups[dir]; ok {
		return g
	}
	g := &Group{Dir: dir}
	t.groups[dir] = g
	t.order = append(t.order, dir)
	return g
}

// Root returns the project root group. Its Static list holds assets that
// are copied independently of any page.
func (t *Tree) Root() *Group {
	return t.groups[RootDir]
}

// Dirs returns the directories that hold pages or assets, in walk order.
func (t *Tree) Dirs() []string {
	return slices.Clone(t.order)
}

// Group returns the group for dir.
func (t *Tree) Group(dir string) (*Group, bool) {
	g, ok := t.groups[dir]
	return g, ok
}

// Pages returns every page in walk order.
func (t *Tree) Pages() []*page.Page {
	var out []*page.Page
	for _, dir := range t.order {
		out = append(out, t.groups[dir].Pages...)
	}
	return out
}

// add files of one directory. Pages in dir receive dir's static files;
// a directory without pages hands its static files to the nearest ancestor
// that has pages, or to the root. Pages in the root get no static files.
func (t *Tree) add(dir string, pages []*page.Page, static []string) {
	if len(pages) > 0 {
		g := t.ensure(dir)
		g.Pages = append(g.Pages, pages...)
		g.Static = append(g.Static, static...)
		return
	}
	if len(static) == 0 {
		return
	}
	if dir != RootDir {
		for parent := path.Dir(dir); parent != RootDir; parent = path.Dir(parent) {
			if g, ok := t.groups[parent]; ok && len(g.Pages) > 0 {
				g.Static = append(g.Static, static...)
				return
			}
		}
	}
	root := t.Root()
	root.Static = append(root.Static, static...)
}

// attachStatic hands every non-root group's final static list to its pages.
func (t *Tree) attachStatic() {
	for dir, g := range t.groups {
		if dir == RootDir {
			continue
		}
		for _, p := range g.Pages {
			p.StaticFiles = slices.Clone(g.Static)
		}
	}
}
