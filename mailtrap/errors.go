package mailtrap

import (
	"errors"
	"fmt"
)

// Predefined sentinel errors for common cases.
var (
	// ErrMissingToken indicates MAILTRAP_TOKEN is unset or blank.
	ErrMissingToken = errors.New("MAILTRAP_TOKEN is required for sending emails")

	// ErrMissingSenderEmail indicates the sender email resolved to an empty value.
	ErrMissingSenderEmail = errors.New("a sender email is required for outgoing emails")

	// ErrMissingEndpoint indicates the API endpoint resolved to an empty value.
	ErrMissingEndpoint = errors.New("a Mailtrap endpoint is required")

	// ErrInvalidConfiguration indicates invalid configuration.
	ErrInvalidConfiguration = errors.New("invalid configuration")

	// ErrClientClosed indicates the client has been closed.
	ErrClientClosed = errors.New("client closed")
)

// ConfigError is a fatal configuration problem detected at startup.
type ConfigError struct {
	// Variable is the environment variable at fault.
	Variable string

	// Hint tells the operator how to fix it.
	Hint string

	// Cause is the sentinel error describing the problem.
	Cause error
}

// Error implements the error interface.
func (e *ConfigError) Error() string {
	return fmt.Sprintf("mailtrap config: %s: %v", e.Variable, e.Cause)
}

// Unwrap returns the underlying error.
func (e *ConfigError) Unwrap() error {
	return e.Cause
}

func newConfigError(variable, hint string, cause error) *ConfigError {
	return &ConfigError{
		Variable: variable,
		Hint:     hint,
		Cause:    cause,
	}
}
