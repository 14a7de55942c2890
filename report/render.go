// Package report renders the HTML body and subject of the run report email.
// Rendering is pure: the same Data always yields the same output.
package report

import (
	"fmt"
	"html"
	"path/filepath"
	"strings"
	"time"

	"github.com/cheerchampion/e2email/model"
)

const footerTimeLayout = "Mon, 02 Jan 2006 15:04:05 MST"

// Data is everything a report body is built from.
type Data struct {
	Summary model.RunSummary
	Failed  []*model.TestRecord
	Passed  []*model.TestRecord
	// Saved media of failed tests, keyed by test ID
	Saved       map[string]model.SavedArtifacts
	GeneratedAt time.Time
	RunID       string
	Git         *model.Git
	// Binary name used in re-run hints
	Command string
}

// Subject returns the email subject line for kind.
func Subject(kind model.ReportKind, summary model.RunSummary) string {
	if kind == model.ReportFailure {
		return fmt.Sprintf("[TEST FAILURE] %d test(s) failed", summary.FailedTests)
	}
	return fmt.Sprintf("[TEST SUCCESS] All %d test(s) passed", summary.PassedTests)
}

// Render builds the complete HTML document for kind.
func Render(kind model.ReportKind, data Data) string {
	var content strings.Builder
	if kind == model.ReportFailure {
		writeSummary(&content, data.Summary)
		fmt.Fprintf(&content, `<div class="failure-details"><h2>Failed Tests (%d)</h2>`, len(data.Failed))
		for _, rec := range data.Failed {
			writeFailure(&content, rec, data.Saved[rec.ID], data.Command)
		}
		content.WriteString("</div>\n")
		return document(kind, "❌ E2E Test Failure Report", content.String(), data)
	}

	content.WriteString(`<div class="success-message"><h2>All Tests Passed Successfully! 🎉</h2>`)
	fmt.Fprintf(&content, "<p>All %d tests have completed successfully without any failures.</p></div>\n", data.Summary.PassedTests)
	writeSummary(&content, data.Summary)
	fmt.Fprintf(&content, `<div class="success-details"><h2>Passed Tests (%d)</h2>`, len(data.Passed))
	for _, rec := range data.Passed {
		writeSuccess(&content, rec)
	}
	content.WriteString("</div>\n")
	return document(kind, "✅ E2E Test Success Report", content.String(), data)
}

func document(kind model.ReportKind, title, content string, data Data) string {
	style := successStyle
	if kind == model.ReportFailure {
		style = failureStyle
	}

	var b strings.Builder
	b.WriteString("<!DOCTYPE html>\n<html>\n<head>\n")
	b.WriteString(`<meta charset="UTF-8">` + "\n")
	b.WriteString(`<meta name="viewport" content="width=device-width, initial-scale=1.0">` + "\n")
	b.WriteString("<style>")
	b.WriteString(style)
	b.WriteString("</style>\n</head>\n<body>\n")
	b.WriteString(`<div class="container">` + "\n")
	fmt.Fprintf(&b, "<div class=\"header\"><h1>%s</h1></div>\n", title)
	b.WriteString(content)

	b.WriteString(`<div class="footer">` + "\n")
	b.WriteString("<p>This is an automated message from the E2E Test Runner.</p>\n")
	fmt.Fprintf(&b, "<p>Generated on: %s</p>\n", data.GeneratedAt.Format(footerTimeLayout))
	fmt.Fprintf(&b, "<p>Test run completed in: %s</p>\n", FormatDuration(data.Summary.Duration))
	if data.RunID != "" {
		fmt.Fprintf(&b, "<p>Run ID: %s</p>\n", html.EscapeString(data.RunID))
	}
	if commit := data.Git.ShortCommit(); commit != "" {
		line := commit
		if data.Git.Branch != "" {
			line += " (" + data.Git.Branch + ")"
		}
		fmt.Fprintf(&b, "<p>Commit: %s</p>\n", html.EscapeString(line))
	}
	b.WriteString("</div>\n</div>\n</body>\n</html>\n")
	return b.String()
}

func writeSummary(b *strings.Builder, s model.RunSummary) {
	b.WriteString(`<div class="summary"><h2 class="summary-title">Test Run Summary</h2><div class="summary-grid">`)
	writeCard(b, "total", "Total Tests", s.TotalTests)
	writeCard(b, "passed", "Passed", s.PassedTests)
	writeCard(b, "failed", "Failed", s.FailedTests)
	writeCard(b, "skipped", "Skipped", s.SkippedTests)
	b.WriteString("</div></div>\n")
}

func writeCard(b *strings.Builder, class, label string, n int) {
	fmt.Fprintf(b, `<div class="summary-card %s"><h3>%s</h3><div class="number">%d</div></div>`, class, label, n)
}

func writeTestHeader(b *strings.Builder, heading string, rec *model.TestRecord) {
	b.WriteString(`<div class="test-header">`)
	fmt.Fprintf(b, "<h3>%s</h3>", heading)
	fmt.Fprintf(b, `<div class="test-meta"><span class="project-badge">%s</span><span class="duration-badge">%s</span></div>`,
		html.EscapeString(rec.Project), FormatDuration(rec.Duration))
	b.WriteString("</div>\n")
}

func writeFailure(b *strings.Builder, rec *model.TestRecord, saved model.SavedArtifacts, command string) {
	id := html.EscapeString(rec.ID)

	b.WriteString(`<div class="test-failure">` + "\n")
	writeTestHeader(b, "❌ Failed Test: "+html.EscapeString(rec.Title), rec)
	fmt.Fprintf(b, "<div class=\"test-path\"><span class=\"label\">Test Path:</span> %s</div>\n",
		html.EscapeString(TitleChain(rec.TitleChain)))
	fmt.Fprintf(b, "<div class=\"test-location\"><span class=\"label\">File:</span> %s:%d:%d</div>\n",
		html.EscapeString(rec.Location.File), rec.Location.Line, rec.Location.Column)
	fmt.Fprintf(b, "<div class=\"rerun\"><span class=\"label\">Re-run:</span> <code>%s</code></div>\n",
		html.EscapeString(RerunCommand(command, rec)))
	if rec.Retry > 0 {
		fmt.Fprintf(b, "<div class=\"retry-info\">Retry attempt: %d</div>\n", rec.Retry)
	}

	message := "Unknown error"
	stack := "No stack trace available"
	if first := rec.FirstError(); first != nil {
		if first.Message != "" {
			message = first.Message
		}
		if first.Stack != "" {
			stack = first.Stack
		}
	}
	b.WriteString(`<div class="error-section"><h4>Error:</h4>`)
	fmt.Fprintf(b, `<div class="error-message">%s</div>`, FormatErrorMessage(message))
	b.WriteString(`<div class="collapsible">`)
	fmt.Fprintf(b, `<input id="stack-%s" class="toggle" type="checkbox">`, id)
	fmt.Fprintf(b, `<label for="stack-%s" class="toggle-label">Stack Trace</label>`, id)
	fmt.Fprintf(b, `<div class="collapsible-content"><div class="stack-trace">%s</div></div>`, FormatStackTrace(stack))
	b.WriteString("</div></div>\n")

	if len(rec.Steps) > 0 {
		b.WriteString(`<div class="test-steps"><h4>Test Steps:</h4>`)
		for i, step := range rec.Steps {
			marker := "✅"
			if step.Error != nil {
				marker = "❌"
			}
			fmt.Fprintf(b, `<div class="test-step">%s %d. %s (%s)</div>`,
				marker, i+1, html.EscapeString(step.Title), FormatDuration(step.Duration))
		}
		b.WriteString("</div>\n")
	}

	b.WriteString(`<div class="attachments-section">`)
	if saved.Screenshot != "" {
		b.WriteString(`<div class="screenshot"><h4>Screenshot at Failure:</h4>`)
		fmt.Fprintf(b, `<img src="cid:screenshot-%s" alt="Test Failure Screenshot" />`, id)
		b.WriteString("</div>")
	}
	if saved.Video != "" {
		b.WriteString(`<div class="video"><h4>Test Execution Video:</h4><div class="video-link">`)
		b.WriteString("<p>Video attachment included. If your email client doesn't display the video below, please check the attachments.</p>")
		videoType := model.ContentTypeForExtension(filepath.Ext(saved.Video))
		if videoType == "" {
			videoType = "video/webm"
		}
		fmt.Fprintf(b, `<video controls width="600"><source src="cid:video-%s" type="%s">`, id, videoType)
		b.WriteString("Your email client doesn't support embedded videos.</video>")
		b.WriteString("</div></div>")
	}
	b.WriteString("</div>\n</div>\n")
}

func writeSuccess(b *strings.Builder, rec *model.TestRecord) {
	b.WriteString(`<div class="test-success">` + "\n")
	writeTestHeader(b, "✅ "+html.EscapeString(rec.Title), rec)
	fmt.Fprintf(b, "<div class=\"test-location\"><span class=\"label\">File:</span> %s:%d</div>\n",
		html.EscapeString(rec.Location.File), rec.Location.Line)
	b.WriteString("</div>\n")
}
