package model

import "time"

// ReportKind selects which email body is rendered for a run.
type ReportKind uint8

const (
	ReportSuccess ReportKind = iota
	ReportFailure
)

func (k ReportKind) String() string {
	if k == ReportFailure {
		return "failure"
	}
	return "success"
}

// RunSummary aggregates the counters of a test run.
type RunSummary struct {
	TotalTests   int `json:"total_tests"`
	PassedTests  int `json:"passed_tests"`
	FailedTests  int `json:"failed_tests"`
	SkippedTests int `json:"skipped_tests"`
	// Tests reported with an outcome outside passed/failed/skipped
	Unclassified int           `json:"unclassified,omitempty"`
	Duration     time.Duration `json:"duration"`
}

// EmailAttachment is a file attached to the report email.
type EmailAttachment struct {
	Filename    string
	Path        string
	ContentID   string
	ContentType string
}

// RunMetadata represents a single reporter run, written as run.json
// into the run's artifact directory.
type RunMetadata struct {
	// Unique ID for this run (random UUID)
	ID string `json:"id"`
	// Timestamp when the run started
	Timestamp time.Time `json:"timestamp"`
	// Command-line arguments (including command name)
	Args []string `json:"args"`
	// Working directory of the runner process
	WorkDir string `json:"workdir"`
	// Git information
	Git *Git `json:"git,omitempty"`
	// Final counters
	Summary RunSummary `json:"summary"`
	// Report that was selected for dispatch
	Report string `json:"report,omitempty"`
	// Media saved for failed tests, keyed by test ID
	Artifacts map[string]SavedArtifacts `json:"artifacts,omitempty"`
}

// Git contains git repository information
type Git struct {
	// Git commit hash at time of execution
	Commit string `json:"commit,omitempty"`
	// Git branch at time of execution
	Branch string `json:"branch,omitempty"`
}

// ShortCommit returns the first 8 characters of the commit hash.
func (g *Git) ShortCommit() string {
	if g == nil {
		return ""
	}
	if len(g.Commit) > 8 {
		return g.Commit[:8]
	}
	return g.Commit
}
