package mailtrap

import (
	"context"

	"github.com/Karrrthik7/authshield/internal/core"
)

// Type aliases to re-export core types for the public API.
type (
	Provider         = core.Provider
	ProviderSettings = core.ProviderSettings
	Email            = core.Email
	Address          = core.Address
	Attachment       = core.Attachment
	SendResult       = core.SendResult
	ValidationError  = core.ValidationError
	ProviderError    = core.ProviderError
	Response         = core.Response
)

// Error helpers
var (
	NewValidationError = core.NewValidationError
	NewProviderError   = core.NewProviderError
	StatusOf           = core.StatusOf
)

// Mailer defines the email sending interface exposed to callers.
// All methods are safe for concurrent use.
type Mailer interface {
	// Send sends a single email. An empty From is filled with Sender().
	Send(ctx context.Context, email *Email) (*SendResult, error)

	// Sender returns the default "from" identity.
	Sender() Address

	// Close closes the mailer. After calling Close, Send fails with ErrClientClosed.
	Close() error
}

var _ Mailer = (*Client)(nil)
