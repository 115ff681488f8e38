package site

import (
	"fmt"
	"math"
	"strconv"
	"time"

	"git.home.luguber.info/inful/quire/internal/metrics"
)

// SkippedPage is a page that did not make it into the output.
type SkippedPage struct {
	Path   string
	Stage  StageName
	Reason string
}

// Report summarizes one build.
type Report struct {
	BuildID string
	Start   time.Time
	End     time.Time

	// Pages is the size of the page collection after parsing, including
	// pages injected by processors.
	Pages            int
	Written          int
	Excluded         int
	Skipped          []SkippedPage
	StaticCopied     int
	StaticCompressed int

	StageDurations map[StageName]time.Duration
	Outcome        metrics.BuildOutcomeLabel
}

func newReport(buildID string, start time.Time) *Report {
	return &Report{
		BuildID:        buildID,
		Start:          start,
		StageDurations: map[StageName]time.Duration{},
	}
}

func (r *Report) skip(path string, stage StageName, reason string) {
	r.Skipped = append(r.Skipped, SkippedPage{Path: path, Stage: stage, Reason: reason})
}

// Elapsed is the wall time of the build.
func (r *Report) Elapsed() time.Duration {
	if r.End.IsZero() {
		return time.Since(r.Start)
	}
	return r.End.Sub(r.Start)
}

// Summary renders the one-line result, e.g. "OK (12 pages; 0.35 seconds)".
func (r *Report) Summary() string {
	noun := "pages"
	if r.Pages == 1 {
		noun = "page"
	}
	secs := math.Round(r.Elapsed().Seconds()*100) / 100
	return fmt.Sprintf("OK (%d %s; %s seconds)", r.Pages, noun, strconv.FormatFloat(secs, 'f', -1, 64))
}

func (r *Report) finish(err error, canceled bool) {
	r.End = time.Now()
	switch {
	case canceled:
		r.Outcome = metrics.BuildOutcomeCanceled
	case err != nil:
		r.Outcome = metrics.BuildOutcomeFailed
	case len(r.Skipped) > 0:
		r.Outcome = metrics.BuildOutcomeWarning
	default:
		r.Outcome = metrics.BuildOutcomeSuccess
	}
}
