package runner

import (
	"bytes"
	"context"
	"errors"
	"regexp"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cheerchampion/e2email/config"
	"github.com/cheerchampion/e2email/model"
)

type recordingReporter struct {
	mu      sync.Mutex
	planned int
	begins  int
	ends    int
	records []*model.TestRecord
}

func (r *recordingReporter) OnBegin(planned int) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.begins++
	r.planned = planned
}

func (r *recordingReporter) OnTestEnd(rec *model.TestRecord) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.records = append(r.records, rec)
}

func (r *recordingReporter) OnEnd(context.Context) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.ends++
}

func (r *recordingReporter) byTitle(title string) *model.TestRecord {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, rec := range r.records {
		if rec.Title == title {
			return rec
		}
	}
	return nil
}

func testOptions() Options {
	return Options{
		Projects: []config.Project{{Name: "chromium", Browser: "chromium"}},
		Workers:  2,
		Timeout:  time.Second,
	}
}

// fakeRunner replaces browser execution with outcomes keyed by test title.
func fakeRunner(opts Options, outcome func(title string, retry int) model.Outcome) *Runner {
	r := New(zerolog.Nop(), opts)
	r.execute = func(_ context.Context, j job, retry int) *model.TestRecord {
		rec := j.record(retry)
		rec.Outcome = outcome(j.c.Title, retry)
		if rec.Outcome == model.OutcomeFailed {
			rec.Errors = []model.TestError{{Message: "boom"}}
		}
		return rec
	}
	return r
}

func sampleSuite() *Suite {
	root := NewSuite("")
	root.Test("top level", func(t *T) error { return nil })
	root.Describe("kudos", func(s *Suite) {
		s.Test("send", func(t *T) error { return nil })
		s.Describe("feed", func(s *Suite) {
			s.Test("view received", func(t *T) error { return nil })
		})
		s.Skip("delete", func(t *T) error { return nil })
	})
	return root
}

func TestSuite_RegistrationOrderAndChains(t *testing.T) {
	root := sampleSuite()
	tests := root.AllTests()

	var titles []string
	for _, c := range tests {
		titles = append(titles, c.Title)
	}
	assert.Equal(t, []string{"top level", "send", "view received", "delete"}, titles)

	assert.Empty(t, tests[0].TitleChain())
	assert.Equal(t, []string{"kudos", "feed"}, tests[2].TitleChain())
	assert.Equal(t, "kudos feed view received", tests[2].FullTitle())
	assert.True(t, tests[3].Skipped)
}

func TestSuite_CapturesCallSite(t *testing.T) {
	root := NewSuite("")
	c := root.Test("located", func(t *T) error { return nil })

	assert.True(t, strings.HasSuffix(c.Location.File, "runner_test.go"), c.Location.File)
	assert.Positive(t, c.Location.Line)
}

func TestCase_IDStableAndProjectScoped(t *testing.T) {
	root := sampleSuite()
	c := root.AllTests()[1]

	assert.Equal(t, c.ID("chromium"), c.ID("chromium"))
	assert.NotEqual(t, c.ID("chromium"), c.ID("firefox"))
	assert.NotEqual(t, c.ID("chromium"), root.AllTests()[0].ID("chromium"))
}

func TestRun_ReportsEveryPlannedTest(t *testing.T) {
	opts := testOptions()
	opts.Projects = append(opts.Projects, config.Project{Name: "firefox", Browser: "firefox"})
	r := fakeRunner(opts, func(string, int) model.Outcome { return model.OutcomePassed })
	rep := &recordingReporter{}

	status, err := r.Run(context.Background(), sampleSuite(), rep)
	require.NoError(t, err)

	assert.Equal(t, StatusPassed, status)
	assert.Equal(t, 1, rep.begins)
	assert.Equal(t, 1, rep.ends)
	assert.Equal(t, 8, rep.planned)
	assert.Len(t, rep.records, 8)

	skipped := rep.byTitle("delete")
	require.NotNil(t, skipped)
	assert.Equal(t, model.OutcomeSkipped, skipped.Outcome)
}

func TestRun_GrepFilters(t *testing.T) {
	opts := testOptions()
	opts.Grep = regexp.MustCompile(`^kudos feed`)
	r := fakeRunner(opts, func(string, int) model.Outcome { return model.OutcomePassed })
	rep := &recordingReporter{}

	_, err := r.Run(context.Background(), sampleSuite(), rep)
	require.NoError(t, err)

	assert.Equal(t, 1, rep.planned)
	require.Len(t, rep.records, 1)
	assert.Equal(t, "view received", rep.records[0].Title)
	assert.Equal(t, []string{"kudos", "feed"}, rep.records[0].TitleChain)
}

func TestRun_RetriesUntilPass(t *testing.T) {
	opts := testOptions()
	opts.Retries = 2

	var attempts atomic.Int32
	r := fakeRunner(opts, func(title string, retry int) model.Outcome {
		if title != "send" {
			return model.OutcomePassed
		}
		attempts.Add(1)
		if retry < 2 {
			return model.OutcomeFailed
		}
		return model.OutcomePassed
	})
	rep := &recordingReporter{}

	status, err := r.Run(context.Background(), sampleSuite(), rep)
	require.NoError(t, err)

	assert.Equal(t, StatusPassed, status)
	assert.EqualValues(t, 3, attempts.Load())
	assert.Len(t, rep.records, 4, "one report per test, not per attempt")

	send := rep.byTitle("send")
	require.NotNil(t, send)
	assert.Equal(t, 2, send.Retry)
	assert.Equal(t, model.OutcomePassed, send.Outcome)
}

func TestRun_FinalFailureReported(t *testing.T) {
	opts := testOptions()
	opts.Retries = 1
	r := fakeRunner(opts, func(title string, _ int) model.Outcome {
		if title == "top level" {
			return model.OutcomeFailed
		}
		return model.OutcomePassed
	})
	rep := &recordingReporter{}

	status, err := r.Run(context.Background(), sampleSuite(), rep)
	require.NoError(t, err)

	assert.Equal(t, StatusFailed, status)
	failed := rep.byTitle("top level")
	require.NotNil(t, failed)
	assert.Equal(t, model.OutcomeFailed, failed.Outcome)
	assert.Equal(t, 1, failed.Retry)
}

func TestRun_RespectsWorkerLimit(t *testing.T) {
	opts := testOptions()
	opts.Workers = 2

	root := NewSuite("")
	for i := 0; i < 10; i++ {
		root.Test(strings.Repeat("t", i+1), func(t *T) error { return nil })
	}

	var running, peak atomic.Int32
	r := New(zerolog.Nop(), opts)
	r.execute = func(_ context.Context, j job, retry int) *model.TestRecord {
		n := running.Add(1)
		for {
			p := peak.Load()
			if n <= p || peak.CompareAndSwap(p, n) {
				break
			}
		}
		time.Sleep(5 * time.Millisecond)
		running.Add(-1)
		rec := j.record(retry)
		rec.Outcome = model.OutcomePassed
		return rec
	}

	_, err := r.Run(context.Background(), root, &recordingReporter{})
	require.NoError(t, err)
	assert.LessOrEqual(t, peak.Load(), int32(2))
}

func TestRun_Interrupted(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	r := fakeRunner(testOptions(), func(string, int) model.Outcome { return model.OutcomePassed })
	rep := &recordingReporter{}

	status, err := r.Run(ctx, sampleSuite(), rep)
	assert.ErrorIs(t, err, context.Canceled)
	assert.Equal(t, StatusInterrupted, status)
	assert.Equal(t, 1, rep.ends, "OnEnd runs even when interrupted")
	for _, rec := range rep.records {
		if rec.Title == "delete" {
			continue
		}
		assert.Equal(t, model.OutcomeInterrupted, rec.Outcome, rec.Title)
	}
}

func TestStep_RecordsStepsAndErrors(t *testing.T) {
	tt := &T{}

	require.NoError(t, tt.Step("open site", func() error { return nil }))
	err := tt.Step("send kudo", func() error { return errors.New("button not found") })
	require.Error(t, err)

	var failure *Error
	require.ErrorAs(t, err, &failure)
	assert.Contains(t, failure.Stack, "TestStep_RecordsStepsAndErrors")
	assert.Equal(t, "button not found", err.Error())

	steps := tt.Steps()
	require.Len(t, steps, 2)
	assert.Equal(t, "open site", steps[0].Title)
	assert.Nil(t, steps[0].Error)
	assert.Equal(t, "send kudo", steps[1].Title)
	require.NotNil(t, steps[1].Error)
	assert.Equal(t, "button not found", steps[1].Error.Message)
	assert.True(t, strings.HasPrefix(steps[1].Error.Stack, "Error: button not found\n    at "))
}

func TestStep_RecoversPanic(t *testing.T) {
	tt := &T{}

	err := tt.Step("explode", func() error {
		var m map[string]int
		m["x"] = 1
		return nil
	})

	var failure *Error
	require.ErrorAs(t, err, &failure)
	assert.Contains(t, err.Error(), "panic:")
	assert.Contains(t, failure.Stack, "TestStep_RecoversPanic")
	assert.Len(t, tt.Steps(), 1)
}

func TestStep_StopsWhenContextDone(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	tt := &T{ctx: ctx}

	called := false
	err := tt.Step("never", func() error { called = true; return nil })
	assert.ErrorIs(t, err, context.Canceled)
	assert.False(t, called)
}

func TestMulti_FansOut(t *testing.T) {
	a, b := &recordingReporter{}, &recordingReporter{}
	m := Multi(a, b)

	m.OnBegin(1)
	m.OnTestEnd(&model.TestRecord{Title: "x", Outcome: model.OutcomePassed})
	m.OnEnd(context.Background())

	for _, r := range []*recordingReporter{a, b} {
		assert.Equal(t, 1, r.begins)
		assert.Len(t, r.records, 1)
		assert.Equal(t, 1, r.ends)
	}
}

func TestOptionsFromSuite(t *testing.T) {
	s := &config.Suite{}
	s.ApplyDefaults(true)

	opts := OptionsFromSuite(s)
	assert.Equal(t, 2, opts.Retries)
	assert.Equal(t, 1, opts.Workers)
	assert.True(t, opts.Headless)
	assert.Equal(t, 3000*time.Second, opts.Timeout)
	assert.Equal(t, 5*time.Second, opts.ExpectTimeout)
	assert.Equal(t, "test-results", opts.OutputDir)

	assert.True(t, opts.captureScreenshot(true))
	assert.False(t, opts.captureScreenshot(false))
	assert.True(t, opts.recordVideo())
	assert.True(t, opts.keepVideo(true))
	assert.False(t, opts.keepVideo(false))
}

func TestAttemptDir(t *testing.T) {
	root := sampleSuite()
	c := root.AllTests()[2]

	dir := attemptDir("out", c, "chromium", "abcdef12", 0)
	assert.Equal(t, "out/kudos-feed-view-received-abcde-chromium", dir)
	assert.Equal(t, dir+"-retry1", attemptDir("out", c, "chromium", "abcdef12", 1))
}

func TestLineReporter(t *testing.T) {
	var buf bytes.Buffer
	l := NewLineReporter(zerolog.New(&buf))

	l.OnBegin(2)
	l.OnTestEnd(&model.TestRecord{
		Title:      "send",
		TitleChain: []string{"kudos"},
		Project:    "chromium",
		Location:   model.Location{File: "scenarios/kudos.go", Line: 20},
		Outcome:    model.OutcomeFailed,
		Errors:     []model.TestError{{Message: "locator not visible\ncall log"}},
	})
	l.OnTestEnd(&model.TestRecord{Title: "view", Outcome: model.OutcomePassed})
	l.OnEnd(context.Background())

	out := buf.String()
	assert.Contains(t, out, `"test":"kudos > send"`)
	assert.Contains(t, out, `"error":"locator not visible"`)
	assert.Contains(t, out, `"level":"error"`)
	assert.Contains(t, out, `"passed":1`)
	assert.Contains(t, out, `"failed":1`)
}

func TestAwaitTest(t *testing.T) {
	t.Run("returns when the body finishes", func(t *testing.T) {
		done := make(chan error, 1)
		go func() { done <- nil }()
		assert.True(t, awaitTest(done, time.Second))
	})

	t.Run("gives up on a blocked body", func(t *testing.T) {
		done := make(chan error, 1)
		block := make(chan struct{})
		defer close(block)
		go func() {
			<-block
			done <- nil
		}()

		start := time.Now()
		assert.False(t, awaitTest(done, 20*time.Millisecond))
		assert.Less(t, time.Since(start), time.Second)
	})
}
