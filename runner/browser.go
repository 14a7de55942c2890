package runner

// This file contains the browser pool and the per-attempt browser session:
// context creation, screenshot and video capture.

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/playwright-community/playwright-go"

	"github.com/cheerchampion/e2email/config"
	"github.com/cheerchampion/e2email/model"
)

// browserPool starts the driver once and one browser per project, on
// first use.
type browserPool struct {
	headless bool

	mu       sync.Mutex
	pw       *playwright.Playwright
	browsers map[string]playwright.Browser
}

func newBrowserPool(headless bool) *browserPool {
	return &browserPool{
		headless: headless,
		browsers: make(map[string]playwright.Browser),
	}
}

func (p *browserPool) get(project config.Project) (playwright.Browser, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if b, ok := p.browsers[project.Name]; ok {
		return b, nil
	}

	if p.pw == nil {
		pw, err := playwright.Run()
		if err != nil {
			return nil, fmt.Errorf("could not start playwright (run `e2email install` first): %w", err)
		}
		p.pw = pw
	}

	var browserType playwright.BrowserType
	switch project.Browser {
	case "chromium":
		browserType = p.pw.Chromium
	case "firefox":
		browserType = p.pw.Firefox
	case "webkit":
		browserType = p.pw.WebKit
	default:
		return nil, fmt.Errorf("unknown browser %q for project %s", project.Browser, project.Name)
	}

	b, err := browserType.Launch(playwright.BrowserTypeLaunchOptions{
		Headless: playwright.Bool(p.headless),
	})
	if err != nil {
		return nil, fmt.Errorf("could not launch %s: %w", project.Browser, err)
	}
	p.browsers[project.Name] = b
	return b, nil
}

func (p *browserPool) close() error {
	p.mu.Lock()
	defer p.mu.Unlock()

	var errs []error
	for name, b := range p.browsers {
		if err := b.Close(); err != nil {
			errs = append(errs, fmt.Errorf("failed to close browser %s: %w", name, err))
		}
	}
	p.browsers = make(map[string]playwright.Browser)
	if p.pw != nil {
		if err := p.pw.Stop(); err != nil {
			errs = append(errs, fmt.Errorf("failed to stop playwright: %w", err))
		}
		p.pw = nil
	}
	return errors.Join(errs...)
}

// abandonAfter bounds the wait for a test body that is still running when
// its attempt times out or is interrupted.
const abandonAfter = 30 * time.Second

// awaitTest waits up to grace for the test goroutine to report. It returns
// false if the goroutine is still running.
func awaitTest(done <-chan error, grace time.Duration) bool {
	timer := time.NewTimer(grace)
	defer timer.Stop()
	select {
	case <-done:
		return true
	case <-timer.C:
		return false
	}
}

var unsafePathChars = regexp.MustCompile(`[^a-zA-Z0-9]+`)

// attemptDir is the scratch directory for one attempt's media.
func attemptDir(outputDir string, c *Case, project string, id string, retry int) string {
	name := strings.Trim(unsafePathChars.ReplaceAllString(strings.ToLower(c.FullTitle()), "-"), "-")
	if len(name) > 60 {
		name = strings.TrimRight(name[:60], "-")
	}
	name += "-" + id[:5] + "-" + project
	if retry > 0 {
		name += "-retry" + strconv.Itoa(retry)
	}
	return filepath.Join(outputDir, name)
}

// executeInBrowser runs one attempt of j in a fresh browser context.
func (r *Runner) executeInBrowser(ctx context.Context, j job, retry int) *model.TestRecord {
	rec := j.record(retry)
	start := time.Now()
	fail := func(err error) *model.TestRecord {
		rec.Outcome = model.OutcomeFailed
		rec.Errors = append(rec.Errors, testError(err))
		rec.Duration = time.Since(start)
		return rec
	}

	browser, err := r.browsers.get(j.project)
	if err != nil {
		return fail(err)
	}

	dir := attemptDir(r.opts.OutputDir, j.c, j.project.Name, rec.ID, retry)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fail(fmt.Errorf("failed to create output directory: %w", err))
	}

	contextOpts := playwright.BrowserNewContextOptions{
		BaseURL: playwright.String(r.opts.BaseURL),
	}
	if r.opts.recordVideo() {
		contextOpts.RecordVideo = &playwright.RecordVideo{Dir: dir}
	}
	bctx, err := browser.NewContext(contextOpts)
	if err != nil {
		return fail(fmt.Errorf("could not create browser context: %w", err))
	}
	bctx.SetDefaultTimeout(float64(r.opts.Timeout.Milliseconds()))
	bctx.SetDefaultNavigationTimeout(float64(r.opts.Timeout.Milliseconds()))

	page, err := bctx.NewPage()
	if err != nil {
		_ = bctx.Close()
		return fail(fmt.Errorf("could not create page: %w", err))
	}

	tctx, cancel := context.WithTimeout(ctx, r.opts.Timeout)
	defer cancel()

	t := &T{
		Page:    page,
		Context: bctx,
		Expect:  playwright.NewPlaywrightAssertions(float64(r.opts.ExpectTimeout.Milliseconds())),
		BaseURL: r.opts.BaseURL,
		Project: j.project.Name,
		Retry:   retry,
		ctx:     tctx,
	}

	done := make(chan error, 1)
	go func() {
		done <- call(func() error { return j.c.fn(t) })
	}()

	var runErr error
	finished := false
	select {
	case runErr = <-done:
		finished = true
	case <-tctx.Done():
	}

	switch {
	case ctx.Err() != nil:
		rec.Outcome = model.OutcomeInterrupted
		rec.Errors = append(rec.Errors, model.TestError{Message: "Test was interrupted."})
	case tctx.Err() != nil:
		rec.Outcome = model.OutcomeTimedOut
		rec.Errors = append(rec.Errors, model.TestError{
			Message: fmt.Sprintf("Test timeout of %dms exceeded.", r.opts.Timeout.Milliseconds()),
		})
	case runErr != nil:
		rec.Outcome = model.OutcomeFailed
		rec.Errors = append(rec.Errors, testError(runErr))
	default:
		rec.Outcome = model.OutcomePassed
	}
	failed := rec.Outcome != model.OutcomePassed

	if r.opts.captureScreenshot(failed) {
		name := "test-finished-1.png"
		if failed {
			name = "test-failed-1.png"
		}
		path := filepath.Join(dir, name)
		if _, err := page.Screenshot(playwright.PageScreenshotOptions{Path: playwright.String(path)}); err != nil {
			r.logger.Debug().Err(err).Str("test", j.c.Title).Msg("Failed to capture screenshot")
		} else {
			rec.Attachments = append(rec.Attachments, model.Attachment{
				Name:        model.AttachmentScreenshot,
				ContentType: "image/png",
				Path:        path,
			})
		}
	}

	var video playwright.Video
	if r.opts.recordVideo() {
		video = page.Video()
	}
	if err := bctx.Close(); err != nil {
		r.logger.Debug().Err(err).Str("test", j.c.Title).Msg("Failed to close browser context")
	}

	// a body blocked outside playwright ignores the closed context
	if !finished && !awaitTest(done, abandonAfter) {
		r.logger.Warn().
			Str("test", j.c.FullTitle()).
			Str("project", j.project.Name).
			Dur("waited", abandonAfter).
			Msg("Test body did not return after its attempt ended, abandoning it")
	}
	rec.Steps = t.Steps()

	if video != nil {
		if r.opts.keepVideo(failed) {
			if path, err := video.Path(); err == nil {
				rec.Attachments = append(rec.Attachments, model.Attachment{
					Name:        model.AttachmentVideo,
					ContentType: "video/webm",
					Path:        path,
				})
			}
		} else if err := video.Delete(); err != nil {
			r.logger.Debug().Err(err).Msg("Failed to delete video")
		}
	}

	rec.Duration = time.Since(start)
	return rec
}
