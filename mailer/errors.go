package mailer

import "fmt"

// ConfigurationError reports that a message cannot be sent because sender
// credentials or recipients are missing. It is returned before any network
// activity.
type ConfigurationError struct {
	Reason string
}

func (e *ConfigurationError) Error() string {
	return "email configuration is not set up: " + e.Reason
}

// TransportError reports a failed dispatch attempt: malformed address,
// message assembly, connection, authentication or delivery.
type TransportError struct {
	Op  string
	Err error
}

func (e *TransportError) Error() string {
	return fmt.Sprintf("failed to send email (%s): %v", e.Op, e.Err)
}

func (e *TransportError) Unwrap() error {
	return e.Err
}
