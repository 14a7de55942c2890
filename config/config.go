// Package config loads the mail transport settings from the environment
// (and an optional .env file) and the suite settings from a YAML file.
//
// Business logic never reads the environment directly: Load builds a Config
// once at startup and it is passed down explicitly.
package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
)

const (
	defaultSMTPHost = "smtp.gmail.com"
	defaultSMTPPort = 587
	defaultFromName = "E2E Test Runner"
)

// TLS modes understood by the SMTP transport.
const (
	TLSModeStartTLS = "starttls"
	TLSModeSMTPS    = "smtps"
	TLSModeNone     = "none"
)

// Config holds the process-wide settings.
type Config struct {
	Mail Mail
	// CI is true when running under a CI system (CI env var set)
	CI bool
	// BaseURL overrides the suite base URL when non-empty
	BaseURL string
	// Kudo scenario credentials
	Kudo Kudo
}

// Mail holds the mail transport settings.
type Mail struct {
	User       string // GMAIL_USER, sender identity
	Password   string // GMAIL_APP_PASSWORD, sender credential
	Recipients string // TEST_TEAM_EMAILS, comma separated
	FromName   string // MAIL_FROM_NAME
	SMTPHost   string // SMTP_HOST
	SMTPPort   int    // SMTP_PORT
	TLSMode    string // SMTP_TLS_MODE: starttls, smtps or none
	Debug      bool   // DEBUG_EMAIL
}

// Kudo holds the account used by the kudos scenarios.
type Kudo struct {
	LoginEmail string // KUDO_LOGIN_EMAIL
	LoginOTP   string // KUDO_LOGIN_OTP
	Recipient  string // KUDO_RECIPIENT
}

// Load reads the .env file (if present) into the process environment and
// builds a Config from it.
func Load() (*Config, error) {
	if err := godotenv.Load(); err != nil {
		// It's okay if the file doesn't exist
		if !errors.Is(err, os.ErrNotExist) {
			return nil, fmt.Errorf("error loading .env file: %w", err)
		}
	}
	return FromEnv(os.Getenv)
}

// FromEnv builds a Config using getenv for lookups.
func FromEnv(getenv func(string) string) (*Config, error) {
	get := func(key, fallback string) string {
		if v := strings.TrimSpace(getenv(key)); v != "" {
			return v
		}
		return fallback
	}

	cfg := &Config{
		Mail: Mail{
			User:       strings.TrimSpace(getenv("GMAIL_USER")),
			Password:   getenv("GMAIL_APP_PASSWORD"),
			Recipients: getenv("TEST_TEAM_EMAILS"),
			FromName:   get("MAIL_FROM_NAME", defaultFromName),
			SMTPHost:   get("SMTP_HOST", defaultSMTPHost),
			TLSMode:    strings.ToLower(get("SMTP_TLS_MODE", TLSModeStartTLS)),
			Debug:      parseBool(getenv("DEBUG_EMAIL")),
		},
		CI:      parseBool(getenv("CI")),
		BaseURL: get("BASE_URL", ""),
		Kudo: Kudo{
			LoginEmail: get("KUDO_LOGIN_EMAIL", ""),
			LoginOTP:   get("KUDO_LOGIN_OTP", ""),
			Recipient:  get("KUDO_RECIPIENT", ""),
		},
	}

	port, err := strconv.Atoi(get("SMTP_PORT", strconv.Itoa(defaultSMTPPort)))
	if err != nil {
		return nil, fmt.Errorf("invalid SMTP_PORT: %w", err)
	}
	cfg.Mail.SMTPPort = port

	switch cfg.Mail.TLSMode {
	case TLSModeStartTLS, TLSModeSMTPS, TLSModeNone:
	default:
		return nil, fmt.Errorf("invalid SMTP_TLS_MODE %q (want %s, %s or %s)", cfg.Mail.TLSMode, TLSModeStartTLS, TLSModeSMTPS, TLSModeNone)
	}

	return cfg, nil
}

// parseBool treats any value other than "", 0, false, no and off as true.
func parseBool(v string) bool {
	switch strings.ToLower(strings.TrimSpace(v)) {
	case "", "0", "false", "no", "off":
		return false
	default:
		return true
	}
}

func (c *Config) String() string {
	passwordDisplay := "(not set)"
	if c.Mail.Password != "" {
		passwordDisplay = "********"
	}
	userDisplay := c.Mail.User
	if userDisplay == "" {
		userDisplay = "(not set)"
	}
	recipientsDisplay := c.Mail.Recipients
	if strings.TrimSpace(recipientsDisplay) == "" {
		recipientsDisplay = "(none)"
	}

	return fmt.Sprintf(`Current Configuration:
======================
Sender:        %s
Credential:    %s
Recipients:    %s
From Name:     %s
SMTP Server:   %s:%d (%s)
Debug Email:   %t
CI:            %t
`, userDisplay, passwordDisplay, recipientsDisplay, c.Mail.FromName,
		c.Mail.SMTPHost, c.Mail.SMTPPort, c.Mail.TLSMode, c.Mail.Debug, c.CI)
}
