// Package runner executes browser end-to-end suites with playwright-go and
// reports each test to a Reporter.
package runner

import (
	"context"
	"sync"

	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"

	"github.com/cheerchampion/e2email/config"
	"github.com/cheerchampion/e2email/model"
)

// Status is the overall result of a run.
type Status string

const (
	StatusPassed      Status = "passed"
	StatusFailed      Status = "failed"
	StatusInterrupted Status = "interrupted"
)

// job is one test scheduled under one project.
type job struct {
	c       *Case
	project config.Project
}

func (j job) record(retry int) *model.TestRecord {
	return &model.TestRecord{
		ID:         j.c.ID(j.project.Name),
		Title:      j.c.Title,
		TitleChain: j.c.TitleChain(),
		Location:   j.c.Location,
		Retry:      retry,
		Project:    j.project.Name,
	}
}

// Runner schedules tests over workers and retries failed attempts.
type Runner struct {
	logger   zerolog.Logger
	opts     Options
	browsers *browserPool
	execute  func(ctx context.Context, j job, retry int) *model.TestRecord
}

// New creates a Runner.
func New(logger zerolog.Logger, opts Options) *Runner {
	if opts.Workers < 1 {
		opts.Workers = 1
	}
	r := &Runner{
		logger:   logger.With().Str("component", "runner").Logger(),
		opts:     opts,
		browsers: newBrowserPool(opts.Headless),
	}
	r.execute = r.executeInBrowser
	return r
}

// plan returns the tests that will run, per project, after grep filtering.
func (r *Runner) plan(root *Suite) []job {
	var jobs []job
	for _, project := range r.opts.Projects {
		for _, c := range root.AllTests() {
			if r.opts.Grep != nil && !r.opts.Grep.MatchString(c.FullTitle()) {
				continue
			}
			jobs = append(jobs, job{c: c, project: project})
		}
	}
	return jobs
}

// Run executes every planned test and reports to rep. OnBegin and OnEnd are
// always called exactly once. The returned status only reflects test
// outcomes; reporter behaviour never changes it.
func (r *Runner) Run(ctx context.Context, root *Suite, rep Reporter) (Status, error) {
	jobs := r.plan(root)
	rep.OnBegin(len(jobs))

	r.logger.Debug().
		Int("tests", len(jobs)).
		Int("workers", r.opts.Workers).
		Int("retries", r.opts.Retries).
		Msg("Starting run")

	var (
		mu     sync.Mutex
		failed bool
	)

	var g errgroup.Group
	g.SetLimit(r.opts.Workers)
	for _, j := range jobs {
		g.Go(func() error {
			rec := r.runJob(ctx, j)
			if rec.Outcome != model.OutcomePassed && rec.Outcome != model.OutcomeSkipped {
				mu.Lock()
				failed = true
				mu.Unlock()
			}
			rep.OnTestEnd(rec)
			return nil
		})
	}
	_ = g.Wait()

	if err := r.browsers.close(); err != nil {
		r.logger.Warn().Err(err).Msg("Failed to shut down browsers")
	}

	rep.OnEnd(context.WithoutCancel(ctx))

	switch {
	case ctx.Err() != nil:
		return StatusInterrupted, ctx.Err()
	case failed:
		return StatusFailed, nil
	default:
		return StatusPassed, nil
	}
}

// runJob runs a test until it passes or its retries are used up. Only the
// final attempt is returned.
func (r *Runner) runJob(ctx context.Context, j job) *model.TestRecord {
	if j.c.Skipped {
		rec := j.record(0)
		rec.Outcome = model.OutcomeSkipped
		return rec
	}

	var rec *model.TestRecord
	for retry := 0; retry <= r.opts.Retries; retry++ {
		if ctx.Err() != nil {
			rec = j.record(retry)
			rec.Outcome = model.OutcomeInterrupted
			return rec
		}

		rec = r.execute(ctx, j, retry)
		if rec.Outcome == model.OutcomePassed || rec.Outcome == model.OutcomeInterrupted {
			return rec
		}
		if retry < r.opts.Retries {
			r.logger.Debug().
				Str("test", j.c.FullTitle()).
				Str("project", j.project.Name).
				Int("retry", retry+1).
				Msg("Retrying failed test")
		}
	}
	return rec
}
