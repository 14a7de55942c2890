package runner

import (
	"context"
	"errors"
	"fmt"
	"runtime"
	"strings"
	"sync"
	"time"

	"github.com/playwright-community/playwright-go"

	"github.com/cheerchampion/e2email/model"
)

// T is handed to every test attempt.
type T struct {
	Page    playwright.Page
	Context playwright.BrowserContext
	Expect  playwright.PlaywrightAssertions
	BaseURL string
	Project string
	Retry   int

	ctx   context.Context
	mu    sync.Mutex
	steps []model.TestStep
}

// Ctx is cancelled when the attempt times out or the run is interrupted.
func (t *T) Ctx() context.Context {
	if t.ctx == nil {
		return context.Background()
	}
	return t.ctx
}

// Step runs fn as a titled step and records its duration and error. A
// failing step's error carries the stack of the Step call.
func (t *T) Step(title string, fn func() error) error {
	if err := t.Ctx().Err(); err != nil {
		return err
	}

	start := time.Now()
	err := call(fn)
	step := model.TestStep{Title: title, Duration: time.Since(start)}

	if err != nil {
		var failure *Error
		if !errors.As(err, &failure) {
			err = &Error{Err: err, Stack: captureStack(2)}
		}
		te := testError(err)
		step.Error = &te
	}

	t.mu.Lock()
	t.steps = append(t.steps, step)
	t.mu.Unlock()
	return err
}

// Steps returns the steps recorded so far.
func (t *T) Steps() []model.TestStep {
	t.mu.Lock()
	defer t.mu.Unlock()
	return append([]model.TestStep(nil), t.steps...)
}

// Error is a test failure with the stack captured where it was detected.
type Error struct {
	Err   error
	Stack string
}

func (e *Error) Error() string {
	return e.Err.Error()
}

func (e *Error) Unwrap() error {
	return e.Err
}

// call runs fn and converts a panic into an *Error.
func call(fn func() error) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = &Error{Err: fmt.Errorf("panic: %v", r), Stack: captureStack(3)}
		}
	}()
	return fn()
}

func testError(err error) model.TestError {
	te := model.TestError{Message: err.Error()}
	var failure *Error
	if errors.As(err, &failure) {
		te.Stack = "Error: " + te.Message + "\n" + failure.Stack
	}
	return te
}

// captureStack formats the calling goroutine's stack as
// "    at <func> (<file>:<line>)" lines, skipping runtime frames.
func captureStack(skip int) string {
	pcs := make([]uintptr, 32)
	n := runtime.Callers(skip+1, pcs)
	frames := runtime.CallersFrames(pcs[:n])

	var b strings.Builder
	for {
		frame, more := frames.Next()
		if !strings.HasPrefix(frame.Function, "runtime.") && frame.Function != "" {
			fmt.Fprintf(&b, "    at %s (%s:%d)\n", shortFunc(frame.Function), frame.File, frame.Line)
		}
		if !more {
			break
		}
	}
	return strings.TrimSuffix(b.String(), "\n")
}

// shortFunc strips the import path from a qualified function name.
func shortFunc(name string) string {
	if i := strings.LastIndex(name, "/"); i >= 0 {
		return name[i+1:]
	}
	return name
}
