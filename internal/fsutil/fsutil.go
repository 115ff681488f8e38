// Package fsutil holds the file mechanics of writing a site: rendered
// pages with their source timestamps, static assets copied or hard-linked
// into place, and gzip sidecars for servers that serve precompressed files.
package fsutil

import (
	"bytes"
	"crypto/sha256"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"time"

	"github.com/klauspost/compress/gzip"
)

// GzipExt is appended to the name of a compressed sidecar.
const GzipExt = ".gz"

var ErrNotRegular = errors.New("not a regular file")

// WriteFile writes data to dst, creating missing parents, and stamps it
// with mtime so unchanged pages keep their timestamps across builds.
func WriteFile(dst string, data []byte, mtime time.Time) error {
	if err := os.MkdirAll(filepath.Dir(dst), 0o755); err != nil {
		return err
	}
	if err := os.WriteFile(dst, data, 0o644); err != nil { //nolint:gosec // site output is world readable
		return err
	}
	return Touch(dst, mtime)
}

// Touch sets access and modification time of path. A zero mtime is ignored.
func Touch(path string, mtime time.Time) error {
	if mtime.IsZero() {
		return nil
	}
	return os.Chtimes(path, mtime, mtime)
}

// Copy puts src at dst, keeping mode and timestamps. With hardlink it links
// first and copies when the link fails (for example across devices). A dst
// that already is src, or has identical content, is left alone and copied
// is false.
func Copy(src, dst string, hardlink bool) (copied bool, err error) {
	info, err := os.Stat(src)
	if err != nil {
		return false, err
	}
	if !info.Mode().IsRegular() {
		return false, fmt.Errorf("%w: %s", ErrNotRegular, src)
	}
	if same, _ := Same(src, dst); same {
		return false, nil
	}
	if err := os.MkdirAll(filepath.Dir(dst), 0o755); err != nil {
		return false, err
	}
	if _, statErr := os.Lstat(dst); statErr == nil {
		if err := os.Remove(dst); err != nil {
			return false, err
		}
	}
	if hardlink && os.Link(src, dst) == nil {
		return true, nil
	}
	if err := copyContents(src, dst, info); err != nil {
		return false, err
	}
	return true, nil
}

func copyContents(src, dst string, info os.FileInfo) error {
	in, err := os.Open(src) //nolint:gosec // paths come from the project walk
	if err != nil {
		return err
	}
	defer func() {
		_ = in.Close()
	}()

	out, err := os.OpenFile(dst, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, info.Mode().Perm())
	if err != nil {
		return err
	}
	if _, err := io.Copy(out, in); err != nil {
		_ = out.Close()
		return err
	}
	if err := out.Close(); err != nil {
		return err
	}
	return Touch(dst, info.ModTime())
}

// Same reports whether a and b are the same file (one inode) or regular
// files with identical content. A missing file is never the same.
func Same(a, b string) (bool, error) {
	ia, err := os.Stat(a)
	if err != nil {
		return false, err
	}
	ib, err := os.Stat(b)
	if err != nil {
		return false, err
	}
	if os.SameFile(ia, ib) {
		return true, nil
	}
	if !ia.Mode().IsRegular() || !ib.Mode().IsRegular() || ia.Size() != ib.Size() {
		return false, nil
	}
	ha, err := hashFile(a)
	if err != nil {
		return false, err
	}
	hb, err := hashFile(b)
	if err != nil {
		return false, err
	}
	return bytes.Equal(ha, hb), nil
}

func hashFile(path string) ([]byte, error) {
	f, err := os.Open(path) //nolint:gosec // paths come from the project walk
	if err != nil {
		return nil, err
	}
	defer func() {
		_ = f.Close()
	}()
	h := sha256.New()
	if _, err := io.Copy(h, f); err != nil {
		return nil, err
	}
	return h.Sum(nil), nil
}

// Gzip writes path+".gz" next to path. The sidecar records mtime in its
// header and on disk.
func Gzip(path string, mtime time.Time) error {
	in, err := os.Open(path) //nolint:gosec // paths come from the output tree
	if err != nil {
		return err
	}
	defer func() {
		_ = in.Close()
	}()

	dst := path + GzipExt
	out, err := os.Create(dst) //nolint:gosec // paths come from the output tree
	if err != nil {
		return err
	}
	zw, err := gzip.NewWriterLevel(out, gzip.BestCompression)
	if err != nil {
		_ = out.Close()
		return err
	}
	zw.Name = filepath.Base(path)
	zw.ModTime = mtime
	if _, err := io.Copy(zw, in); err != nil {
		_ = zw.Close()
		_ = out.Close()
		return err
	}
	if err := zw.Close(); err != nil {
		_ = out.Close()
		return err
	}
	if err := out.Close(); err != nil {
		return err
	}
	return Touch(dst, mtime)
}

// ShouldCompress reports whether name ends with one of endings.
func ShouldCompress(name string, endings []string) bool {
	return slices.ContainsFunc(endings, func(e string) bool {
		return e != "" && strings.HasSuffix(name, e)
	})
}

// Exists reports whether path exists.
func Exists(path string) bool {
	_, err := os.Stat(path)
	return err == nil
}

// Clean removes dir and everything below it. A missing dir is fine.
func Clean(dir string) error {
	if err := os.RemoveAll(dir); err != nil && !os.IsNotExist(err) {
		return err
	}
	return nil
}
