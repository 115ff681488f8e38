package site

import (
	"context"
	"time"

	"git.home.luguber.info/inful/quire/internal/foundation/errors"
	"git.home.luguber.info/inful/quire/internal/logfields"
	"git.home.luguber.info/inful/quire/internal/metrics"
)

// StageName identifies a build stage. Each stage moves the build one state
// further; no state is entered twice.
type StageName string

const (
	StageDiscover    StageName = "discover"
	StageParse       StageName = "parse"
	StageSort        StageName = "sort"
	StageClearOutput StageName = "clear_output"
	StageWrite       StageName = "write"
	StageCopyStatic  StageName = "copy_static"
)

// Stage is one pass over the page collection.
type Stage func(ctx context.Context) error

// StageDef pairs a stage name with its executing function.
type StageDef struct {
	Name StageName
	Fn   Stage
}

func (s *Site) stages() []StageDef {
	return []StageDef{
		{StageDiscover, s.discover},
		{StageParse, s.parse},
		{StageSort, s.sort},
		{StageClearOutput, s.clearOutput},
		{StageWrite, s.write},
		{StageCopyStatic, s.copyStatic},
	}
}

// runStages executes stages in order, recording timing and stopping on the
// first error. Cancellation is checked between stages.
func (s *Site) runStages(ctx context.Context, stages []StageDef) error {
	for _, st := range stages {
		select {
		case <-ctx.Done():
			s.recorder.IncStageResult(string(st.Name), metrics.ResultCanceled)
			return errors.WrapError(ctx.Err(), errors.CategoryBuild, "build canceled").
				Fatal().
				WithContext("stage", string(st.Name)).
				Build()
		default:
		}

		t0 := time.Now()
		err := st.Fn(ctx)
		dur := time.Since(t0)

		s.report.StageDurations[st.Name] = dur
		s.recorder.ObserveStageDuration(string(st.Name), dur)
		s.logger.Debug("Stage finished",
			logfields.BuildID(s.report.BuildID),
			logfields.Stage(string(st.Name)),
			logfields.DurationMS(float64(dur.Microseconds())/1000))

		if err != nil {
			s.recorder.IncStageResult(string(st.Name), metrics.ResultFatal)
			if _, ok := errors.AsClassified(err); ok {
				return err
			}
			return errors.WrapError(err, errors.CategoryBuild, "stage failed").
				Fatal().
				WithContext("stage", string(st.Name)).
				Build()
		}
		s.recorder.IncStageResult(string(st.Name), metrics.ResultSuccess)
	}
	return nil
}
