package mailtrap

import (
	"context"
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/sirupsen/logrus"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/Karrrthik7/authshield/internal/providers"
)

const tracerName = "github.com/Karrrthik7/authshield/mailtrap"

// Client is the shared handle to Mailtrap, bound to one endpoint and token.
// All methods are safe for concurrent use.
type Client struct {
	config     Config
	sender     Address
	provider   Provider
	httpClient *http.Client
	logger     logrus.FieldLogger
	tracer     trace.Tracer
	checkOnce  sync.Once
	mu         sync.RWMutex
	closed     bool
}

// New creates a client from cfg. Blank fields take their defaults before
// validation, so a missing token is the only way a zero Config fails.
func New(cfg Config, opts ...Option) (*Client, error) {
	cfg.normalize()

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	client := &Client{
		config: cfg,
		sender: cfg.Sender(),
		tracer: otel.Tracer(tracerName),
	}

	for _, opt := range opts {
		opt(client)
	}

	if client.logger == nil {
		client.logger = NewLogger(cfg.Logging)
	}

	if client.provider == nil {
		if client.httpClient == nil {
			client.httpClient = &http.Client{Timeout: cfg.Timeout}
		}
		provider, err := providers.New(cfg.Transport, cfg.providerSettings(), client.httpClient)
		if err != nil {
			return nil, fmt.Errorf("failed to create %s transport: %w", cfg.Transport, err)
		}
		client.provider = provider
	}

	return client, nil
}

// Send sends a single email.
func (c *Client) Send(ctx context.Context, email *Email) (*SendResult, error) {
	ctx, span := c.tracer.Start(ctx, "mailtrap.Client.Send")
	defer span.End()

	c.mu.RLock()
	closed := c.closed
	c.mu.RUnlock()
	if closed {
		span.RecordError(ErrClientClosed)
		span.SetStatus(codes.Error, ErrClientClosed.Error())
		return nil, ErrClientClosed
	}

	if email == nil {
		err := NewValidationError("email", "email is required")
		span.RecordError(err)
		span.SetStatus(codes.Error, "validation failed")
		return nil, err
	}

	msg := *email
	if msg.From.Email == "" {
		msg.From = c.sender
	}
	email = &msg

	span.SetAttributes(
		attribute.String("mailtrap.from", email.From.Email),
		attribute.Int("mailtrap.recipients", len(email.AllRecipients())),
		attribute.String("mailtrap.category", email.Category),
		attribute.String("mailtrap.provider", c.provider.Name()),
	)

	if err := email.Validate(); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "validation failed")
		return nil, err
	}

	start := time.Now()
	result, err := c.provider.Send(ctx, email)
	span.SetAttributes(attribute.Int64("mailtrap.provider.duration_ms", time.Since(start).Milliseconds()))

	if err != nil {
		span.SetAttributes(attribute.String("mailtrap.status", StatusOf(err)))
		span.RecordError(err)
		span.SetStatus(codes.Error, "send failed")
		return nil, err
	}

	span.SetAttributes(attribute.String("mailtrap.message_id", result.MessageID))
	span.SetStatus(codes.Ok, "email sent successfully")

	return result, nil
}

// Sender returns the sender identity for the "from" field of outgoing mail.
func (c *Client) Sender() Address {
	return c.sender
}

// Config returns a copy of the resolved configuration. It contains the raw
// token; log it through Config.String, which masks it.
func (c *Client) Config() Config {
	return c.config
}

// Close marks the client closed. It is safe to call more than once.
func (c *Client) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.closed = true
	return nil
}
