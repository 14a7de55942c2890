package reporter

// This file contains the dispatch step: choosing the report kind, collecting
// attachments, rendering and sending the email.

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/rs/zerolog"

	"github.com/cheerchampion/e2email/model"
	"github.com/cheerchampion/e2email/report"
)

// Mailer sends the report email.
type Mailer interface {
	IsConfigured() bool
	Recipients() []string
	SendEmail(ctx context.Context, recipients []string, subject, html string, attachments []model.EmailAttachment) error
}

// Run is the aggregated state of a finished run handed to the dispatcher.
type Run struct {
	ID      string
	Summary model.RunSummary
	Failed  []*model.TestRecord
	Passed  []*model.TestRecord
	Saved   map[string]model.SavedArtifacts
}

// Kind returns the report kind for the run.
func (r Run) Kind() model.ReportKind {
	if len(r.Failed) > 0 {
		return model.ReportFailure
	}
	return model.ReportSuccess
}

// Dispatcher turns a finished run into exactly one email.
type Dispatcher struct {
	logger  zerolog.Logger
	mailer  Mailer
	git     *model.Git
	command string
	now     func() time.Time
}

// NewDispatcher creates a Dispatcher. git may be nil.
func NewDispatcher(logger zerolog.Logger, mailer Mailer, git *model.Git, command string) *Dispatcher {
	return &Dispatcher{
		logger:  logger,
		mailer:  mailer,
		git:     git,
		command: command,
		now:     time.Now,
	}
}

// Dispatch sends the report for run. It never fails: configuration problems,
// send errors and panics are logged. The return value reports whether the
// mailer accepted the message.
func (d *Dispatcher) Dispatch(ctx context.Context, run Run) (sent bool) {
	defer func() {
		if r := recover(); r != nil {
			d.logger.Error().Interface("panic", r).Msg("Failed to send email report")
			sent = false
		}
	}()

	if !d.mailer.IsConfigured() {
		d.logger.Error().Msg("Email configuration is not set up, make sure GMAIL_USER and GMAIL_APP_PASSWORD are set")
		return false
	}
	recipients := d.mailer.Recipients()
	if len(recipients) == 0 {
		d.logger.Error().Msg("No recipient emails specified, cannot send test report")
		return false
	}

	kind := run.Kind()
	var attachments []model.EmailAttachment
	if kind == model.ReportFailure {
		attachments = BuildAttachments(run.Failed, run.Saved)
	}

	html := report.Render(kind, report.Data{
		Summary:     run.Summary,
		Failed:      run.Failed,
		Passed:      run.Passed,
		Saved:       run.Saved,
		GeneratedAt: d.now(),
		RunID:       run.ID,
		Git:         d.git,
		Command:     d.command,
	})
	subject := report.Subject(kind, run.Summary)

	d.logger.Debug().
		Str("kind", kind.String()).
		Int("recipients", len(recipients)).
		Int("attachments", len(attachments)).
		Msg("Dispatching report")

	if err := d.mailer.SendEmail(ctx, recipients, subject, html, attachments); err != nil {
		d.logger.Error().Err(err).Str("kind", kind.String()).Msg("Failed to send email report")
		return false
	}
	return true
}

// BuildAttachments lists the saved media of failed tests in run order,
// screenshot before video, skipping files that no longer exist.
func BuildAttachments(failed []*model.TestRecord, saved map[string]model.SavedArtifacts) []model.EmailAttachment {
	var attachments []model.EmailAttachment
	for _, rec := range failed {
		s, ok := saved[rec.ID]
		if !ok {
			continue
		}
		if att, ok := attachmentFor(model.AttachmentScreenshot, rec.ID, s.Screenshot); ok {
			attachments = append(attachments, att)
		}
		if att, ok := attachmentFor(model.AttachmentVideo, rec.ID, s.Video); ok {
			attachments = append(attachments, att)
		}
	}
	return attachments
}

func attachmentFor(kind model.AttachmentKind, testID, path string) (model.EmailAttachment, bool) {
	if path == "" {
		return model.EmailAttachment{}, false
	}
	if _, err := os.Stat(path); err != nil {
		return model.EmailAttachment{}, false
	}
	return model.EmailAttachment{
		Filename:    fmt.Sprintf("%s-%s", kind, filepath.Base(path)),
		Path:        path,
		ContentID:   fmt.Sprintf("%s-%s", kind, testID),
		ContentType: model.ContentTypeForExtension(filepath.Ext(path)),
	}, true
}
