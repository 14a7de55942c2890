// Package mailer sends the run report as a single MIME message over SMTP.
package mailer

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/emersion/go-message"
	"github.com/emersion/go-message/mail"
	"github.com/rs/zerolog"

	"github.com/cheerchampion/e2email/config"
	"github.com/cheerchampion/e2email/model"
)

// Transport delivers an already assembled message.
type Transport interface {
	Send(ctx context.Context, from string, to []string, msg []byte) error
}

// Mailer validates configuration, assembles the report message and hands it
// to a Transport exactly once.
type Mailer struct {
	logger    zerolog.Logger
	cfg       config.Mail
	transport Transport
	now       func() time.Time
}

// New creates a Mailer. A nil transport defaults to SMTP.
func New(logger zerolog.Logger, cfg config.Mail, transport Transport) *Mailer {
	logger = logger.With().Str("component", "mailer").Logger()
	if transport == nil {
		transport = NewSMTPTransport(logger, cfg)
	}
	return &Mailer{
		logger:    logger,
		cfg:       cfg,
		transport: transport,
		now:       time.Now,
	}
}

// IsConfigured reports whether both sender identity and credential are set.
func (m *Mailer) IsConfigured() bool {
	hasUser := m.cfg.User != ""
	hasPassword := m.cfg.Password != ""
	m.logger.Debug().
		Bool("user", hasUser).
		Bool("password", hasPassword).
		Msg("Email config check")
	return hasUser && hasPassword
}

// Recipients returns the configured addresses in order. Entries are trimmed
// and empty ones dropped; duplicates are kept.
func (m *Mailer) Recipients() []string {
	return ParseRecipients(m.cfg.Recipients)
}

// ParseRecipients splits a comma separated address list.
func ParseRecipients(raw string) []string {
	recipients := []string{}
	for _, part := range strings.Split(raw, ",") {
		if addr := strings.TrimSpace(part); addr != "" {
			recipients = append(recipients, addr)
		}
	}
	return recipients
}

// SendEmail sends one HTML message with the given attachments.
func (m *Mailer) SendEmail(ctx context.Context, recipients []string, subject, html string, attachments []model.EmailAttachment) error {
	if !m.IsConfigured() {
		return &ConfigurationError{Reason: "GMAIL_USER and GMAIL_APP_PASSWORD must be set"}
	}
	if len(recipients) == 0 {
		return &ConfigurationError{Reason: "no recipients specified"}
	}

	to := make([]*mail.Address, 0, len(recipients))
	for _, r := range recipients {
		addr, err := mail.ParseAddress(r)
		if err != nil {
			return &TransportError{Op: "parse recipient", Err: fmt.Errorf("%q: %w", r, err)}
		}
		to = append(to, addr)
	}

	msg, err := m.buildMessage(to, subject, html, attachments)
	if err != nil {
		return &TransportError{Op: "build message", Err: err}
	}

	rcpt := make([]string, len(to))
	for i, addr := range to {
		rcpt[i] = addr.Address
	}

	m.logger.Info().
		Str("from", m.cfg.User).
		Strs("to", rcpt).
		Str("subject", subject).
		Int("attachments", len(attachments)).
		Msg("Attempting to send email")

	if err := m.transport.Send(ctx, m.cfg.User, rcpt, msg); err != nil {
		m.logger.Error().Err(err).Msg("Failed to send email")
		return &TransportError{Op: "deliver", Err: err}
	}

	m.logger.Info().Int("bytes", len(msg)).Msg("Email sent successfully")
	return nil
}

// buildMessage assembles the report. Attachments with a content ID are
// inline parts of a multipart/related body so the HTML can reference them;
// the rest are regular attachments next to it in multipart/mixed.
func (m *Mailer) buildMessage(to []*mail.Address, subject, html string, attachments []model.EmailAttachment) ([]byte, error) {
	var h mail.Header
	h.SetDate(m.now())
	h.SetAddressList("From", []*mail.Address{{Name: m.cfg.FromName, Address: m.cfg.User}})
	h.SetAddressList("To", to)
	h.SetSubject(subject)
	h.Set("MIME-Version", "1.0")
	if err := h.GenerateMessageID(); err != nil {
		return nil, fmt.Errorf("failed to generate message id: %w", err)
	}

	var inline, attached []model.EmailAttachment
	for _, att := range attachments {
		if att.ContentID != "" {
			inline = append(inline, att)
		} else {
			attached = append(attached, att)
		}
	}

	if len(attached) > 0 {
		h.SetContentType("multipart/mixed", nil)
	} else {
		h.SetContentType("multipart/related", map[string]string{"type": "text/html"})
	}

	var buf bytes.Buffer
	mw, err := message.CreateWriter(&buf, h.Header)
	if err != nil {
		return nil, fmt.Errorf("failed to create message writer: %w", err)
	}

	related := mw
	if len(attached) > 0 {
		var rh message.Header
		rh.SetContentType("multipart/related", map[string]string{"type": "text/html"})
		related, err = mw.CreatePart(rh)
		if err != nil {
			return nil, fmt.Errorf("failed to create related part: %w", err)
		}
	}

	if err := writeHTML(related, html); err != nil {
		return nil, err
	}
	for _, att := range inline {
		if err := writeAttachment(related, att, "inline"); err != nil {
			return nil, err
		}
	}

	if len(attached) > 0 {
		if err := related.Close(); err != nil {
			return nil, fmt.Errorf("failed to close related part: %w", err)
		}
		for _, att := range attached {
			if err := writeAttachment(mw, att, "attachment"); err != nil {
				return nil, err
			}
		}
	}

	if err := mw.Close(); err != nil {
		return nil, fmt.Errorf("failed to close message writer: %w", err)
	}
	return buf.Bytes(), nil
}

func writeHTML(w *message.Writer, html string) error {
	var bh message.Header
	bh.SetContentType("text/html", map[string]string{"charset": "utf-8"})
	bh.SetContentDisposition("inline", nil)
	bh.Set("Content-Transfer-Encoding", "quoted-printable")

	bw, err := w.CreatePart(bh)
	if err != nil {
		return fmt.Errorf("failed to create body part: %w", err)
	}
	if _, err := io.WriteString(bw, html); err != nil {
		bw.Close()
		return fmt.Errorf("failed to write body: %w", err)
	}
	if err := bw.Close(); err != nil {
		return fmt.Errorf("failed to close body part: %w", err)
	}
	return nil
}

func writeAttachment(w *message.Writer, att model.EmailAttachment, disposition string) error {
	f, err := os.Open(att.Path)
	if err != nil {
		return fmt.Errorf("failed to open attachment %s: %w", att.Filename, err)
	}
	defer f.Close()

	contentType := att.ContentType
	if contentType == "" {
		contentType = "application/octet-stream"
	}

	var ah message.Header
	ah.SetContentType(contentType, nil)
	ah.SetContentDisposition(disposition, map[string]string{"filename": att.Filename})
	ah.Set("Content-Transfer-Encoding", "base64")
	if att.ContentID != "" {
		ah.Set("Content-ID", "<"+att.ContentID+">")
	}

	aw, err := w.CreatePart(ah)
	if err != nil {
		return fmt.Errorf("failed to create attachment part %s: %w", att.Filename, err)
	}
	if _, err := io.Copy(aw, f); err != nil {
		aw.Close()
		return fmt.Errorf("failed to write attachment %s: %w", att.Filename, err)
	}
	return aw.Close()
}
