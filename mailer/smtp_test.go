package mailer

import (
	"context"
	"net"
	"net/textproto"
	"strconv"
	"strings"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cheerchampion/e2email/config"
)

type smtpSession struct {
	commands []string
	data     string
}

// startSMTPServer serves a single scripted SMTP session on localhost.
// rcptReply overrides the reply to RCPT commands when non-empty.
func startSMTPServer(t *testing.T, rcptReply string) (config.Mail, <-chan smtpSession) {
	t.Helper()

	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	t.Cleanup(func() { ln.Close() })

	done := make(chan smtpSession, 1)
	go func() {
		var session smtpSession
		defer func() { done <- session }()

		conn, err := ln.Accept()
		if err != nil {
			return
		}
		defer conn.Close()
		_ = conn.SetDeadline(time.Now().Add(5 * time.Second))

		tp := textproto.NewConn(conn)
		_ = tp.PrintfLine("220 localhost ESMTP ready")
		for {
			line, err := tp.ReadLine()
			if err != nil {
				return
			}
			cmd := strings.ToUpper(line)
			session.commands = append(session.commands, strings.Fields(cmd)[0])

			switch {
			case strings.HasPrefix(cmd, "EHLO"):
				_ = tp.PrintfLine("250-localhost")
				_ = tp.PrintfLine("250 8BITMIME")
			case strings.HasPrefix(cmd, "HELO"):
				_ = tp.PrintfLine("250 localhost")
			case strings.HasPrefix(cmd, "RCPT") && rcptReply != "":
				_ = tp.PrintfLine("%s", rcptReply)
			case strings.HasPrefix(cmd, "MAIL"), strings.HasPrefix(cmd, "RCPT"), strings.HasPrefix(cmd, "RSET"):
				_ = tp.PrintfLine("250 OK")
			case strings.HasPrefix(cmd, "DATA"):
				_ = tp.PrintfLine("354 End data with <CR><LF>.<CR><LF>")
				data, err := tp.ReadDotBytes()
				if err != nil {
					return
				}
				session.data = string(data)
				_ = tp.PrintfLine("250 OK queued")
			case strings.HasPrefix(cmd, "QUIT"):
				_ = tp.PrintfLine("221 Bye")
				return
			default:
				_ = tp.PrintfLine("502 Command not implemented")
			}
		}
	}()

	host, portStr, err := net.SplitHostPort(ln.Addr().String())
	require.NoError(t, err)
	port, err := strconv.Atoi(portStr)
	require.NoError(t, err)

	return config.Mail{
		User:     "runner@example.com",
		SMTPHost: host,
		SMTPPort: port,
		TLSMode:  config.TLSModeNone,
	}, done
}

func TestSMTPTransport_Send(t *testing.T) {
	cfg, done := startSMTPServer(t, "")
	transport := NewSMTPTransport(zerolog.Nop(), cfg)

	msg := []byte("Subject: hello\r\n\r\nbody line\r\n")
	err := transport.Send(context.Background(), "runner@example.com", []string{"a@example.com", "b@example.com"}, msg)
	require.NoError(t, err)

	session := <-done
	assert.Equal(t, []string{"EHLO", "MAIL", "RCPT", "RCPT", "DATA", "QUIT"}, session.commands)
	assert.Contains(t, session.data, "body line")
}

func TestSMTPTransport_RecipientRejected(t *testing.T) {
	cfg, done := startSMTPServer(t, "550 No such user")
	transport := NewSMTPTransport(zerolog.Nop(), cfg)

	err := transport.Send(context.Background(), "runner@example.com", []string{"ghost@example.com"}, []byte("Subject: x\r\n\r\nx\r\n"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "ghost@example.com")

	session := <-done
	assert.NotContains(t, session.commands, "DATA")
}

func TestSMTPTransport_ConnectionRefused(t *testing.T) {
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	addr := ln.Addr().(*net.TCPAddr)
	require.NoError(t, ln.Close())

	transport := NewSMTPTransport(zerolog.Nop(), config.Mail{
		SMTPHost: "127.0.0.1",
		SMTPPort: addr.Port,
		TLSMode:  config.TLSModeNone,
	})

	err = transport.Send(context.Background(), "runner@example.com", []string{"a@example.com"}, []byte("x"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to connect")
}

func TestSMTPTransport_StartTLSUnsupported(t *testing.T) {
	cfg, _ := startSMTPServer(t, "")
	cfg.TLSMode = config.TLSModeStartTLS
	transport := NewSMTPTransport(zerolog.Nop(), cfg)

	err := transport.Send(context.Background(), "runner@example.com", []string{"a@example.com"}, []byte("x"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "STARTTLS")
}
