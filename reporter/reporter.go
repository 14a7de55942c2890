// Package reporter collects test results over a run and emails a summary
// when the run ends.
package reporter

import (
	"context"
	"maps"
	"slices"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/cheerchampion/e2email/model"
)

// Materializer persists the media of failed tests.
type Materializer interface {
	PrepareRunDirectory() (string, error)
	SaveAttachments(rec *model.TestRecord) model.SavedArtifacts
}

type state uint8

const (
	stateNotStarted state = iota
	stateRunning
	stateEnded
)

func (s state) String() string {
	switch s {
	case stateNotStarted:
		return "not started"
	case stateRunning:
		return "running"
	default:
		return "ended"
	}
}

// RunInfo describes the invocation for run.json.
type RunInfo struct {
	Args    []string
	WorkDir string
	Git     *model.Git
}

// EmailReporter aggregates lifecycle events and sends one report email when
// the run ends. OnTestEnd is safe for concurrent use.
type EmailReporter struct {
	logger     zerolog.Logger
	artifacts  Materializer
	dispatcher *Dispatcher
	info       RunInfo
	now        func() time.Time

	mu      sync.Mutex
	state   state
	runID   string
	start   time.Time
	runDir  string
	summary model.RunSummary
	failed  []*model.TestRecord
	passed  []*model.TestRecord
	skipped []*model.TestRecord
	saved   map[string]model.SavedArtifacts
}

// New creates an EmailReporter.
func New(logger zerolog.Logger, artifacts Materializer, dispatcher *Dispatcher, info RunInfo) *EmailReporter {
	return &EmailReporter{
		logger:     logger.With().Str("component", "reporter").Logger(),
		artifacts:  artifacts,
		dispatcher: dispatcher,
		info:       info,
		now:        time.Now,
		saved:      make(map[string]model.SavedArtifacts),
	}
}

// OnBegin starts the run with the number of planned tests.
func (r *EmailReporter) OnBegin(planned int) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.state != stateNotStarted {
		r.logger.Warn().Stringer("state", r.state).Msg("OnBegin called twice, ignoring")
		return
	}

	r.state = stateRunning
	r.runID = uuid.NewString()
	r.start = r.now()
	r.summary.TotalTests = planned

	dir, err := r.artifacts.PrepareRunDirectory()
	if err != nil {
		r.logger.Warn().Err(err).Msg("Failed to prepare artifact directory, failure media will not be attached")
		return
	}
	r.runDir = dir
	r.logger.Info().Str("dir", dir).Int("planned", planned).Msg("Artifacts will be saved to run directory")
}

// OnTestEnd records the final result of one test.
func (r *EmailReporter) OnTestEnd(rec *model.TestRecord) {
	if rec == nil {
		return
	}

	r.mu.Lock()
	st := r.state
	r.mu.Unlock()
	if st != stateRunning {
		r.logger.Warn().Stringer("state", st).Str("test", rec.Title).Msg("Test result outside of a running run, ignoring")
		return
	}

	switch rec.Outcome {
	case model.OutcomeFailed, model.OutcomeTimedOut:
		saved := r.artifacts.SaveAttachments(rec)
		r.record(rec, func() {
			if !saved.IsEmpty() {
				r.saved[rec.ID] = saved
			}
			r.failed = append(r.failed, rec)
			r.summary.FailedTests++
		})
	case model.OutcomePassed:
		r.record(rec, func() {
			r.passed = append(r.passed, rec)
			r.summary.PassedTests++
		})
	case model.OutcomeSkipped:
		r.record(rec, func() {
			r.skipped = append(r.skipped, rec)
			r.summary.SkippedTests++
		})
	default:
		r.logger.Warn().Str("test", rec.Title).Str("outcome", string(rec.Outcome)).Msg("Unclassified test outcome, excluded from report")
		r.record(rec, func() {
			r.summary.Unclassified++
		})
	}
}

func (r *EmailReporter) record(rec *model.TestRecord, update func()) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.state != stateRunning {
		r.logger.Warn().Str("test", rec.Title).Msg("Run ended while saving test result, dropping it")
		return
	}
	update()
}

// OnEnd finishes the run, writes run.json and dispatches the report. It
// never returns an error; reporting failures are logged only.
func (r *EmailReporter) OnEnd(ctx context.Context) {
	r.mu.Lock()
	if r.state != stateRunning {
		r.mu.Unlock()
		r.logger.Warn().Stringer("state", r.state).Msg("OnEnd called outside of a running run, ignoring")
		return
	}
	r.state = stateEnded
	r.summary.Duration = r.now().Sub(r.start)
	run := Run{
		ID:      r.runID,
		Summary: r.summary,
		Failed:  slices.Clone(r.failed),
		Passed:  slices.Clone(r.passed),
		Saved:   maps.Clone(r.saved),
	}
	runDir := r.runDir
	start := r.start
	r.mu.Unlock()

	r.logger.Info().
		Int("total", run.Summary.TotalTests).
		Int("passed", run.Summary.PassedTests).
		Int("failed", run.Summary.FailedTests).
		Int("skipped", run.Summary.SkippedTests).
		Int("unclassified", run.Summary.Unclassified).
		Dur("duration", run.Summary.Duration).
		Msg("Test run finished")

	meta := &model.RunMetadata{
		ID:        run.ID,
		Timestamp: start,
		Args:      r.info.Args,
		WorkDir:   r.info.WorkDir,
		Git:       r.info.Git,
		Summary:   run.Summary,
		Report:    run.Kind().String(),
		Artifacts: run.Saved,
	}
	if err := writeRunMetadata(runDir, meta); err != nil {
		r.logger.Warn().Err(err).Msg("Failed to record run metadata")
	} else {
		r.logger.Debug().Str("dir", runDir).Str("id", run.ID).Msg("Recorded run metadata")
	}

	if r.dispatcher.Dispatch(ctx, run) {
		r.logger.Info().Str("report", run.Kind().String()).Msg("Report email sent")
	}
}

// Summary returns a snapshot of the counters.
func (r *EmailReporter) Summary() model.RunSummary {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.summary
}
