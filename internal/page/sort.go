package page

import (
	"cmp"
	"slices"
)

// SortByDateDesc orders pages newest first. Pages with equal dates keep
// their relative order.
func SortByDateDesc(pages []*Page) {
	slices.SortStableFunc(pages, func(a, b *Page) int {
		return b.Date.Compare(a.Date)
	})
}

// SortByDateURLDesc orders pages by (date, url) descending. Tag and category
// collections use it so equal-date members have a stable position.
func SortByDateURLDesc(pages []*Page) {
	slices.SortStableFunc(pages, func(a, b *Page) int {
		if c := b.Date.Compare(a.Date); c != 0 {
			return c
		}
		return cmp.Compare(b.URL, a.URL)
	})
}

// Public filters pages down to those that appear in listings.
func Public(pages []*Page) []*Page {
	out := make([]*Page, 0, len(pages))
	for _, p := range pages {
		if p.IsPublic() {
			out = append(out, p)
		}
	}
	return out
}
