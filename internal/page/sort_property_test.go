//go:build property

package page

import (
	"fmt"
	"testing"
	"time"

	"github.com/leanovate/gopter"
	"github.com/leanovate/gopter/gen"
	"github.com/leanovate/gopter/prop"
)

// TestSortProperties checks the ordering guarantees pages rely on when listed.
func TestSortProperties(t *testing.T) {
	parameters := gopter.DefaultTestParameters()
	parameters.Rng.Seed(1234)
	parameters.MinSuccessfulTests = 200

	properties := gopter.NewProperties(parameters)
	base := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)

	build := func(offsets []int) []*Page {
		pages := make([]*Page, len(offsets))
		for i, off := range offsets {
			pages[i] = New(fmt.Sprintf("%03d.md", i))
			pages[i].Date = base.Add(time.Duration(off) * time.Hour)
		}
		return pages
	}

	properties.Property("dates are non-increasing after sort", prop.ForAll(
		func(offsets []int) bool {
			pages := build(offsets)
			SortByDateDesc(pages)
			for i := 1; i < len(pages); i++ {
				if pages[i].Date.After(pages[i-1].Date) {
					return false
				}
			}
			return true
		},
		gen.SliceOf(gen.IntRange(0, 5)),
	))

	properties.Property("equal dates keep discovery order", prop.ForAll(
		func(offsets []int) bool {
			pages := build(offsets)
			SortByDateDesc(pages)
			for i := 1; i < len(pages); i++ {
				if pages[i].Date.Equal(pages[i-1].Date) && pages[i].Path < pages[i-1].Path {
					return false
				}
			}
			return true
		},
		gen.SliceOf(gen.IntRange(0, 3)),
	))

	properties.Property("sort is a permutation", prop.ForAll(
		func(offsets []int) bool {
			pages := build(offsets)
			seen := map[*Page]bool{}
			for _, p := range pages {
				seen[p] = true
			}
			SortByDateDesc(pages)
			for _, p := range pages {
				if !seen[p] {
					return false
				}
				delete(seen, p)
			}
			return len(seen) == 0
		},
		gen.SliceOf(gen.IntRange(0, 10)),
	))

	properties.TestingRun(t)
}
