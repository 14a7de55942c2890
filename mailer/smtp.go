package mailer

// This file contains the SMTP transport used to deliver report messages.

import (
	"context"
	"crypto/tls"
	"fmt"
	"net"
	"net/smtp"
	"strconv"

	"github.com/rs/zerolog"

	"github.com/cheerchampion/e2email/config"
)

// SMTPTransport delivers messages through an SMTP relay such as Gmail.
type SMTPTransport struct {
	logger zerolog.Logger
	cfg    config.Mail
}

// NewSMTPTransport creates an SMTP transport for cfg.
func NewSMTPTransport(logger zerolog.Logger, cfg config.Mail) *SMTPTransport {
	return &SMTPTransport{logger: logger, cfg: cfg}
}

// trace logs SMTP conversation steps; DEBUG_EMAIL promotes them to info.
func (s *SMTPTransport) trace() *zerolog.Event {
	if s.cfg.Debug {
		return s.logger.Info()
	}
	return s.logger.Debug()
}

// Send performs one SMTP session: connect, authenticate, MAIL, RCPT, DATA.
func (s *SMTPTransport) Send(ctx context.Context, from string, to []string, msg []byte) error {
	if len(to) == 0 {
		return fmt.Errorf("no recipients specified")
	}

	client, err := s.dial(ctx)
	if err != nil {
		return err
	}
	defer client.Close()

	if err := s.authenticate(client); err != nil {
		return err
	}

	s.trace().Str("from", from).Msg("SMTP MAIL FROM")
	if err := client.Mail(from); err != nil {
		return fmt.Errorf("failed to set sender: %w", err)
	}

	for _, rcpt := range to {
		s.trace().Str("to", rcpt).Msg("SMTP RCPT TO")
		if err := client.Rcpt(rcpt); err != nil {
			return fmt.Errorf("failed to set recipient %s: %w", rcpt, err)
		}
	}

	w, err := client.Data()
	if err != nil {
		return fmt.Errorf("failed to initiate data transfer: %w", err)
	}
	if _, err := w.Write(msg); err != nil {
		return fmt.Errorf("failed to write message: %w", err)
	}
	if err := w.Close(); err != nil {
		return fmt.Errorf("failed to close data transfer: %w", err)
	}
	s.trace().Int("bytes", len(msg)).Msg("SMTP DATA accepted")

	if err := client.Quit(); err != nil {
		return fmt.Errorf("failed to quit SMTP session: %w", err)
	}
	return nil
}

func (s *SMTPTransport) dial(ctx context.Context) (*smtp.Client, error) {
	addr := net.JoinHostPort(s.cfg.SMTPHost, strconv.Itoa(s.cfg.SMTPPort))
	tlsConfig := &tls.Config{ServerName: s.cfg.SMTPHost}

	s.trace().Str("addr", addr).Str("mode", s.cfg.TLSMode).Msg("SMTP connect")

	var conn net.Conn
	var err error
	if s.cfg.TLSMode == config.TLSModeSMTPS {
		dialer := &tls.Dialer{Config: tlsConfig}
		conn, err = dialer.DialContext(ctx, "tcp", addr)
	} else {
		var dialer net.Dialer
		conn, err = dialer.DialContext(ctx, "tcp", addr)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to connect to SMTP server %s: %w", addr, err)
	}
	if deadline, ok := ctx.Deadline(); ok {
		_ = conn.SetDeadline(deadline)
	}

	client, err := smtp.NewClient(conn, s.cfg.SMTPHost)
	if err != nil {
		conn.Close()
		return nil, fmt.Errorf("failed to create SMTP client: %w", err)
	}

	if s.cfg.TLSMode == config.TLSModeStartTLS {
		if ok, _ := client.Extension("STARTTLS"); !ok {
			client.Close()
			return nil, fmt.Errorf("SMTP server %s does not support STARTTLS", addr)
		}
		s.trace().Msg("SMTP STARTTLS")
		if err := client.StartTLS(tlsConfig); err != nil {
			client.Close()
			return nil, fmt.Errorf("failed to start TLS: %w", err)
		}
	}

	return client, nil
}

func (s *SMTPTransport) authenticate(client *smtp.Client) error {
	if s.cfg.User == "" || s.cfg.Password == "" {
		return nil
	}
	if ok, _ := client.Extension("AUTH"); !ok {
		s.trace().Msg("SMTP server does not advertise AUTH, skipping")
		return nil
	}

	s.trace().Str("user", s.cfg.User).Msg("SMTP AUTH PLAIN")
	auth := smtp.PlainAuth("", s.cfg.User, s.cfg.Password, s.cfg.SMTPHost)
	if err := client.Auth(auth); err != nil {
		return fmt.Errorf("SMTP authentication failed: %w", err)
	}
	return nil
}
