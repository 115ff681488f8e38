package urls

import (
	"errors"
	"fmt"
	"path"
	"path/filepath"
	"strings"
)

// ErrOutsideOutput is returned when a URL would be written outside the output root.
var ErrOutsideOutput = errors.New("url escapes output directory")

// IndexFile is written for URLs that name a directory.
const IndexFile = "index.html"

// OutputPath maps url onto a file below outputDir. A leading slash is
// ignored and a URL ending in "/" (or empty) gets IndexFile appended.
func OutputPath(outputDir, url string) (string, error) {
	rel := strings.TrimLeft(url, "/")
	if rel == "" || strings.HasSuffix(rel, "/") {
		rel += IndexFile
	}
	rel = path.Clean(rel)
	if rel == ".." || strings.HasPrefix(rel, "../") {
		return "", fmt.Errorf("%w: %s", ErrOutsideOutput, url)
	}
	return filepath.Join(outputDir, filepath.FromSlash(rel)), nil
}
