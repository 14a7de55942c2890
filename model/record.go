package model

import "time"

// Outcome is the final status the runner assigned to a test.
type Outcome string

const (
	OutcomePassed      Outcome = "passed"
	OutcomeFailed      Outcome = "failed"
	OutcomeSkipped     Outcome = "skipped"
	OutcomeTimedOut    Outcome = "timedOut"
	OutcomeInterrupted Outcome = "interrupted"
)

// AttachmentKind tags a raw attachment captured by the runner.
type AttachmentKind string

const (
	AttachmentScreenshot AttachmentKind = "screenshot"
	AttachmentVideo      AttachmentKind = "video"
)

// TestRecord represents a single completed test as reported by the runner.
// It is never mutated after being handed to a reporter.
type TestRecord struct {
	// Stable identifier (UUIDv5 of project, file and title chain)
	ID string `json:"id"`
	// Test title
	Title string `json:"title"`
	// Ancestor suite titles, outermost first
	TitleChain []string `json:"title_chain,omitempty"`
	// Source location where the test was registered
	Location Location `json:"location"`
	// Duration of the reported attempt
	Duration time.Duration `json:"duration"`
	// Zero-based attempt index (0 for the first run)
	Retry int `json:"retry"`
	// Project (browser configuration) the test ran under
	Project string `json:"project"`
	// Final outcome
	Outcome Outcome `json:"outcome"`
	// Errors captured during the attempt, in order
	Errors []TestError `json:"errors,omitempty"`
	// Steps executed during the attempt, in order
	Steps []TestStep `json:"steps,omitempty"`
	// Raw attachments written by the runner
	Attachments []Attachment `json:"attachments,omitempty"`
}

// Location points to the file, line and column of a test.
type Location struct {
	File   string `json:"file"`
	Line   int    `json:"line"`
	Column int    `json:"column"`
}

// TestError is one error captured for a test.
type TestError struct {
	Message string `json:"message"`
	Stack   string `json:"stack,omitempty"`
}

// TestStep is a titled unit of work inside a test.
type TestStep struct {
	Title    string        `json:"title"`
	Duration time.Duration `json:"duration"`
	Error    *TestError    `json:"error,omitempty"`
}

// Attachment describes a file the runner produced for a test.
type Attachment struct {
	Name        AttachmentKind `json:"name"`
	ContentType string         `json:"content_type,omitempty"`
	Path        string         `json:"path,omitempty"`
}

// FirstError returns the first captured error, or nil.
func (r *TestRecord) FirstError() *TestError {
	if len(r.Errors) == 0 {
		return nil
	}
	return &r.Errors[0]
}

// SavedArtifacts holds the materialized copies of a failed test's media.
type SavedArtifacts struct {
	Screenshot string `json:"screenshot,omitempty"`
	Video      string `json:"video,omitempty"`
}

// IsEmpty reports whether no media was saved.
func (s SavedArtifacts) IsEmpty() bool {
	return s.Screenshot == "" && s.Video == ""
}
