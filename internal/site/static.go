package site

import (
	"cmp"
	"context"
	"log/slog"
	"os"
	"path"
	"path/filepath"
	"slices"
	"strings"

	"git.home.luguber.info/inful/quire/internal/fsutil"
	"git.home.luguber.info/inful/quire/internal/logfields"
	"git.home.luguber.info/inful/quire/internal/urls"
)

type copyJob struct {
	src string // project-relative, slash separated
	dst string // absolute
}

// copyStatic copies root assets relative to the output root and page
// assets relative to their page's output directory. A (src, dst) pair is
// copied once however many pages share it. Copy failures are logged.
func (s *Site) copyStatic(ctx context.Context) error {
	jobs := s.staticJobs()
	copied, compressed := 0, 0
	for _, job := range jobs {
		if err := ctx.Err(); err != nil {
			return err
		}
		c, z := s.copyStaticFile(job)
		if c {
			copied++
		}
		if z {
			compressed++
		}
	}
	s.report.StaticCopied = copied
	s.report.StaticCompressed = compressed
	s.recorder.AddStaticFiles(copied, compressed)
	s.logger.Debug("Static files copied", logfields.Count(copied), slog.Int("compressed", compressed))
	return nil
}

func (s *Site) staticJobs() []copyJob {
	var root []copyJob
	for _, rel := range s.tree.Root().Static {
		root = append(root, copyJob{src: rel, dst: filepath.Join(s.settings.OutputDir, filepath.FromSlash(rel))})
	}

	seen := map[copyJob]bool{}
	var byPage []copyJob
	for _, p := range s.pages {
		if len(p.StaticFiles) == 0 {
			continue
		}
		dst, err := urls.OutputPath(s.settings.OutputDir, p.URL)
		if err != nil {
			continue
		}
		outDir := filepath.Dir(dst)
		for _, rel := range p.StaticFiles {
			sub, ok := relativeTo(rel, path.Dir(p.Path))
			if !ok {
				s.logger.Warn("Static file outside its page directory, not copied",
					logfields.Path(rel), logfields.Page(p.Path))
				continue
			}
			job := copyJob{src: rel, dst: filepath.Join(outDir, filepath.FromSlash(sub))}
			if seen[job] {
				continue
			}
			seen[job] = true
			byPage = append(byPage, job)
		}
	}
	slices.SortFunc(byPage, func(a, b copyJob) int {
		return cmp.Or(cmp.Compare(a.src, b.src), cmp.Compare(a.dst, b.dst))
	})
	return append(root, byPage...)
}

// relativeTo returns rel relative to dir when it lies below dir.
func relativeTo(rel, dir string) (string, bool) {
	if dir == "." {
		return rel, true
	}
	sub, found := strings.CutPrefix(rel, dir+"/")
	return sub, found
}

// copyStaticFile copies one asset and writes its gzip sidecar when the
// ending asks for one and the project does not ship its own.
func (s *Site) copyStaticFile(job copyJob) (copied, compressed bool) {
	src := filepath.Join(s.settings.ProjectDir, filepath.FromSlash(job.src))
	copied, err := fsutil.Copy(src, job.dst, s.settings.Hardlinks)
	if err != nil {
		s.logger.Error("Static file not copied", logfields.Path(job.src), slog.String("dst", job.dst), logfields.Error(err))
		return false, false
	}
	if !copied || !s.settings.MakeCompressedCopy || !fsutil.ShouldCompress(job.src, s.settings.CompressIfEnding) {
		return copied, false
	}
	if fsutil.Exists(src + fsutil.GzipExt) {
		return copied, false
	}
	info, err := os.Stat(src)
	if err != nil {
		s.logger.Error("Static file not compressed", logfields.Path(job.src), logfields.Error(err))
		return copied, false
	}
	if err := fsutil.Gzip(job.dst, info.ModTime()); err != nil {
		s.logger.Error("Static file not compressed", logfields.Path(job.src), logfields.Error(err))
		return copied, false
	}
	return copied, true
}
