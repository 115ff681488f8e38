//go:build property

package urls

import (
	"path/filepath"
	"strings"
	"testing"

	"github.com/leanovate/gopter"
	"github.com/leanovate/gopter/gen"
	"github.com/leanovate/gopter/prop"
)

// TestDefaultRuleProperties checks the default rule and output mapping on
// arbitrary source paths.
func TestDefaultRuleProperties(t *testing.T) {
	parameters := gopter.DefaultTestParameters()
	parameters.Rng.Seed(4321)
	parameters.MinSuccessfulTests = 300

	properties := gopter.NewProperties(parameters)
	segments := gen.SliceOfN(3, gen.OneConstOf("a", "b", "index", "post", "x-y"))
	out := filepath.Join("root", "_output")

	properties.Property("default URL is a file with the output ext or a directory", prop.ForAll(
		func(parts []string) bool {
			url := Default(newPage(strings.Join(parts, "/")+".md", RuleDefault, "html"))
			return strings.HasSuffix(url, ".html") || strings.HasSuffix(url, "/")
		},
		segments,
	))

	properties.Property("directory URLs only come from index pages", prop.ForAll(
		func(parts []string) bool {
			url := Default(newPage(strings.Join(parts, "/")+".md", RuleDefault, "html"))
			return strings.HasSuffix(url, "/") == (parts[len(parts)-1] == "index")
		},
		segments,
	))

	properties.Property("output paths stay below the output root", prop.ForAll(
		func(parts []string) bool {
			url := Default(newPage(strings.Join(parts, "/")+".md", RuleDefault, "html"))
			got, err := OutputPath(out, url)
			if err != nil {
				return false
			}
			rel, err := filepath.Rel(out, got)
			return err == nil && !strings.HasPrefix(rel, "..") && strings.HasSuffix(got, ".html")
		},
		segments,
	))

	properties.TestingRun(t)
}
