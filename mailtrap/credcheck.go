package mailtrap

import (
	"context"
	"fmt"

	"github.com/sirupsen/logrus"
)

const (
	credentialCheckSubject  = "Mailtrap credential verification"
	credentialCheckCategory = "Credential Check"
	credentialCheckHTML     = "<p>This is an automated credential check sent by AuthShield at startup.</p>" +
		"<p>If you are reading this, the Mailtrap token and endpoint are accepted.</p>"

	unauthorizedHint = "Mailtrap rejected the token (401 Unauthorized). Regenerate or copy a valid Send API token " +
		"from the Mailtrap dashboard (Sending Domains > API Tokens), update MAILTRAP_TOKEN and restart the server."
	genericHint = "Check MAILTRAP_ENDPOINT and network connectivity, or regenerate the token in the Mailtrap dashboard."
)

// MaskToken renders a token safe for logs: its first and last four characters
// joined by "...", or "(none)" when empty. Characters are counted as runes.
// Tokens of eight characters or fewer overlap and are not hidden.
func MaskToken(token string) string {
	if token == "" {
		return "(none)"
	}

	runes := []rune(token)
	head, tail := runes, runes
	if len(head) > 4 {
		head = head[:4]
	}
	if len(tail) > 4 {
		tail = tail[len(tail)-4:]
	}

	return string(head) + "..." + string(tail)
}

// credentialCheckEmail builds the self-addressed diagnostic message.
func credentialCheckEmail(sender Address) *Email {
	return &Email{
		From:     sender,
		To:       []Address{{Email: sender.Email}},
		Subject:  credentialCheckSubject,
		HTMLBody: credentialCheckHTML,
		Category: credentialCheckCategory,
	}
}

// VerifyCredentials sends one diagnostic email to the sender's own address and
// logs the outcome with the token masked. The error is returned for callers
// that want it; panics during the attempt are recovered and reported as errors.
func (c *Client) VerifyCredentials(ctx context.Context) (err error) {
	masked := MaskToken(c.config.Token)

	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("credential check panicked: %v", r)
			c.logger.WithFields(logrus.Fields{
				"status": "unknown",
				"token":  masked,
			}).WithError(err).Error("Mailtrap credential check failed")
			c.logger.Warn(genericHint)
		}
	}()

	if _, err = c.Send(ctx, credentialCheckEmail(c.sender)); err != nil {
		status := StatusOf(err)
		c.logger.WithFields(logrus.Fields{
			"status": status,
			"token":  masked,
		}).WithError(err).Error("Mailtrap credential check failed")

		if status == "401" {
			c.logger.Error(unauthorizedHint)
		} else {
			c.logger.Warn(genericHint)
		}
		return err
	}

	c.logger.WithFields(logrus.Fields{
		"token":    masked,
		"endpoint": c.config.Endpoint,
	}).Info("Mailtrap credentials verified")

	return nil
}

// StartCredentialCheck runs VerifyCredentials once in a detached goroutine.
// It returns immediately; repeated calls are no-ops.
func (c *Client) StartCredentialCheck() {
	c.checkOnce.Do(func() {
		go func() {
			_ = c.VerifyCredentials(context.Background())
		}()
	})
}
