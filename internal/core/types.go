package core

import (
	"context"
	"errors"
	"fmt"
	"mime"
	"net/mail"
	"strconv"
	"strings"
	"time"

	"github.com/gabriel-vasile/mimetype"
)

// Provider defines the interface for Mailtrap transports.
// Implementations handle transport-specific logic for delivering emails.
type Provider interface {
	// Send sends a single email through the transport.
	Send(ctx context.Context, email *Email) (*SendResult, error)

	// ValidateConfig validates the provider configuration.
	ValidateConfig() error

	// Name returns the provider's name for identification and logging.
	Name() string
}

// ProviderSettings represents configuration settings for transports.
type ProviderSettings map[string]string

// Get retrieves a configuration value by key.
func (ps ProviderSettings) Get(key string) string {
	return ps[key]
}

// Address represents an email address with optional display name.
type Address struct {
	Name  string `json:"name,omitempty"` // Display name (optional)
	Email string `json:"email"`          // Email address (required)
}

// String returns the formatted email address.
// If Name is provided, returns "Name <email@domain.com>"
// Otherwise returns just "email@domain.com"
func (a Address) String() string {
	if a.Name != "" {
		return mime.QEncoding.Encode("UTF-8", a.Name) + " <" + a.Email + ">"
	}
	return a.Email
}

// Valid checks if the address has a valid email format.
func (a Address) Valid() bool {
	if a.Email == "" {
		return false
	}
	_, err := mail.ParseAddress(a.String())
	return err == nil
}

// Attachment is a file sent along with the email.
type Attachment struct {
	Filename    string
	ContentType string
	Content     []byte
	// Inline attachments are referenced from HTML with cid:<ContentID>.
	Inline    bool
	ContentID string
}

// MediaType returns ContentType, or the type sniffed from Content when it is empty.
func (a Attachment) MediaType() string {
	if a.ContentType != "" {
		return a.ContentType
	}
	return mimetype.Detect(a.Content).String()
}

// Email represents an email message.
type Email struct {
	From            Address           `json:"from"`
	To              []Address         `json:"to"`
	CC              []Address         `json:"cc"`
	BCC             []Address         `json:"bcc"`
	Subject         string            `json:"subject"`
	HTMLBody        string            `json:"html_body"`
	TextBody        string            `json:"text_body"`
	Category        string            `json:"category"` // Mailtrap analytics category
	Headers         map[string]string `json:"headers"`
	CustomVariables map[string]string `json:"custom_variables"`
	Attachments     []Attachment      `json:"-"`
}

// Validate checks if the email has valid structure and required fields.
func (e *Email) Validate() error {
	if !e.From.Valid() {
		return &ValidationError{Field: "from", Message: "invalid or missing sender address"}
	}

	if len(e.To) == 0 {
		return &ValidationError{Field: "to", Message: "at least one recipient required"}
	}

	for i, to := range e.To {
		if !to.Valid() {
			return &ValidationError{
				Field:   "to",
				Message: "invalid recipient address at index " + strconv.Itoa(i),
			}
		}
	}

	for i, cc := range e.CC {
		if !cc.Valid() {
			return &ValidationError{
				Field:   "cc",
				Message: "invalid CC address at index " + strconv.Itoa(i),
			}
		}
	}

	for i, bcc := range e.BCC {
		if !bcc.Valid() {
			return &ValidationError{
				Field:   "bcc",
				Message: "invalid BCC address at index " + strconv.Itoa(i),
			}
		}
	}

	if strings.TrimSpace(e.Subject) == "" {
		return &ValidationError{Field: "subject", Message: "subject is required"}
	}

	if strings.TrimSpace(e.TextBody) == "" && strings.TrimSpace(e.HTMLBody) == "" {
		return &ValidationError{Field: "body", Message: "either text or HTML body is required"}
	}

	if hasLineBreak(e.Subject) {
		return &ValidationError{Field: "subject", Message: "subject must not contain line breaks"}
	}

	if hasLineBreak(e.Category) {
		return &ValidationError{Field: "category", Message: "category must not contain line breaks"}
	}

	for key, value := range e.Headers {
		if !validHeaderName(key) {
			return &ValidationError{Field: "headers", Message: "invalid header name " + strconv.Quote(key)}
		}
		if hasLineBreak(value) {
			return &ValidationError{Field: "headers", Message: "header " + key + " must not contain line breaks"}
		}
	}

	for i, att := range e.Attachments {
		if att.Filename == "" {
			return &ValidationError{
				Field:   "attachments",
				Message: "missing filename at index " + strconv.Itoa(i),
			}
		}
		if hasLineBreak(att.Filename) || hasLineBreak(att.ContentID) || hasLineBreak(att.ContentType) {
			return &ValidationError{
				Field:   "attachments",
				Message: "line break in attachment at index " + strconv.Itoa(i),
			}
		}
	}

	return nil
}

func hasLineBreak(s string) bool {
	return strings.ContainsAny(s, "\r\n")
}

// validHeaderName reports whether name is a non-empty RFC 5322 field name:
// printable ASCII without spaces or colons.
func validHeaderName(name string) bool {
	if name == "" {
		return false
	}
	for i := 0; i < len(name); i++ {
		c := name[i]
		if c < '!' || c > '~' || c == ':' {
			return false
		}
	}
	return true
}

// AllRecipients returns all recipients combined into a single slice.
func (e *Email) AllRecipients() []Address {
	all := make([]Address, 0, len(e.To)+len(e.CC)+len(e.BCC))
	all = append(all, e.To...)
	all = append(all, e.CC...)
	all = append(all, e.BCC...)
	return all
}

// SendResult contains the result of sending a single email.
type SendResult struct {
	// MessageID is the first identifier assigned by Mailtrap.
	MessageID string

	// MessageIDs holds one identifier per recipient when the API returns several.
	MessageIDs []string

	// Provider is the name of the transport that sent the email.
	Provider string

	// Timestamp when the email was accepted.
	Timestamp time.Time
}

// ValidationError represents a validation error with specific field information.
type ValidationError struct {
	// Field is the name of the field that failed validation.
	Field string

	// Message is the validation error message.
	Message string
}

// Error implements the error interface.
func (e *ValidationError) Error() string {
	return fmt.Sprintf("validation error in %s: %s", e.Field, e.Message)
}

// Is implements error matching for errors.Is.
func (e *ValidationError) Is(target error) bool {
	_, ok := target.(*ValidationError)
	return ok
}

// Response describes the HTTP response that produced a ProviderError.
type Response struct {
	StatusCode int
	Body       string
}

// ProviderError represents an error returned by a transport.
type ProviderError struct {
	// Provider is the name of the transport that generated the error.
	Provider string

	// Code is a short machine-readable error code.
	Code string

	// Message is the error message.
	Message string

	// StatusCode is the status reported by the remote service, if any.
	StatusCode int

	// Response is the raw response, when one was received.
	Response *Response

	// Cause is the underlying error.
	Cause error
}

// Error implements the error interface.
func (e *ProviderError) Error() string {
	if e.StatusCode > 0 {
		return fmt.Sprintf("provider %s error [%s] (status: %d): %s",
			e.Provider, e.Code, e.StatusCode, e.Message)
	}
	return fmt.Sprintf("provider %s error [%s]: %s", e.Provider, e.Code, e.Message)
}

// Unwrap returns the underlying error.
func (e *ProviderError) Unwrap() error {
	return e.Cause
}

// Is implements error matching for errors.Is.
func (e *ProviderError) Is(target error) bool {
	pe, ok := target.(*ProviderError)
	if !ok {
		return false
	}
	return e.Provider == pe.Provider && e.Code == pe.Code
}

// NewProviderError creates a new provider error.
func NewProviderError(provider, code, message string) *ProviderError {
	return &ProviderError{
		Provider: provider,
		Code:     code,
		Message:  message,
	}
}

// NewValidationError creates a new validation error.
func NewValidationError(field, message string) *ValidationError {
	return &ValidationError{
		Field:   field,
		Message: message,
	}
}

// StatusOf extracts the remote status from err. It prefers the error's own
// status, then the status of the nested response, and reports "unknown"
// when neither is set.
func StatusOf(err error) string {
	if err == nil {
		return "unknown"
	}

	var pe *ProviderError
	if errors.As(err, &pe) {
		if pe.StatusCode > 0 {
			return strconv.Itoa(pe.StatusCode)
		}
		if pe.Response != nil && pe.Response.StatusCode > 0 {
			return strconv.Itoa(pe.Response.StatusCode)
		}
	}

	var sc interface{ StatusCode() int }
	if errors.As(err, &sc) && sc.StatusCode() > 0 {
		return strconv.Itoa(sc.StatusCode())
	}

	return "unknown"
}
