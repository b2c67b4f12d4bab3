package mailtrap

import (
	"errors"
	"fmt"
	"sync"

	"github.com/sirupsen/logrus"
)

// Process-wide client published by Setup.
var (
	defaultMu     sync.RWMutex
	defaultClient *Client
)

// Setup resolves the configuration from the environment, builds the shared
// client and publishes it for Default and DefaultSender. When the credential
// check is enabled it is scheduled in the background after publication.
//
// A configuration error is logged with its remediation hint and returned;
// nothing is published in that case. Once a client has been published,
// later calls return it unchanged.
func Setup(opts ...Option) (*Client, error) {
	defaultMu.Lock()
	defer defaultMu.Unlock()

	if defaultClient != nil {
		return defaultClient, nil
	}

	cfg, err := LoadConfig()
	client, err := build(cfg, err, opts...)
	if err != nil {
		return nil, err
	}

	defaultClient = client
	if client.config.CredentialCheck {
		client.StartCredentialCheck()
	}

	return client, nil
}

// MustSetup works like Setup but panics if the client cannot be built.
// Use it where the process must not start without working email.
func MustSetup(opts ...Option) *Client {
	client, err := Setup(opts...)
	if err != nil {
		panic(fmt.Sprintf("mailtrap: failed to set up client: %v", err))
	}
	return client
}

// Default returns the client published by Setup, or nil before a successful Setup.
func Default() *Client {
	defaultMu.RLock()
	defer defaultMu.RUnlock()
	return defaultClient
}

// DefaultSender returns the sender identity of the published client, or the
// zero Address before a successful Setup.
func DefaultSender() Address {
	if c := Default(); c != nil {
		return c.Sender()
	}
	return Address{}
}

// build turns a loaded configuration into a client, logging fatal
// configuration problems before returning them.
func build(cfg Config, loadErr error, opts ...Option) (*Client, error) {
	if loadErr == nil {
		client, err := New(cfg, opts...)
		if err == nil {
			return client, nil
		}
		loadErr = err
	}

	entry := startupLogger(cfg, opts).WithError(loadErr)

	var ce *ConfigError
	if errors.As(loadErr, &ce) {
		entry.WithField("variable", ce.Variable).Error(ce.Hint)
	} else {
		entry.Error("Mailtrap client setup failed")
	}

	return nil, loadErr
}

// startupLogger returns the logger supplied through opts, or one built from cfg.
func startupLogger(cfg Config, opts []Option) logrus.FieldLogger {
	if logger := loggerFrom(opts); logger != nil {
		return logger
	}
	return NewLogger(cfg.Logging)
}

// loggerFrom returns the logger set by WithLogger in opts, if any.
func loggerFrom(opts []Option) logrus.FieldLogger {
	var scratch Client
	for _, opt := range opts {
		opt(&scratch)
	}
	return scratch.logger
}
