package smtp

import (
	"context"
	"crypto/tls"
	"encoding/base64"
	"errors"
	"fmt"
	"mime"
	"net"
	"net/smtp"
	"net/textproto"
	"strconv"
	"strings"
	"time"

	"github.com/Karrrthik7/authshield/internal/core"
)

// base64LineLength keeps encoded attachment lines within RFC 2045 limits.
const base64LineLength = 76

// Provider implements the core.Provider interface for the Mailtrap SMTP relay.
type Provider struct {
	config core.ProviderSettings
	dialer *net.Dialer
}

// NewProvider creates a new SMTP provider. The Mailtrap API token doubles as
// the SMTP password.
func NewProvider(settings core.ProviderSettings, timeout time.Duration) (core.Provider, error) {
	p := &Provider{
		config: settings,
		dialer: &net.Dialer{Timeout: timeout},
	}
	if err := p.ValidateConfig(); err != nil {
		return nil, err
	}
	return p, nil
}

// Send sends a single email through the relay.
func (p *Provider) Send(ctx context.Context, email *core.Email) (*core.SendResult, error) {
	if err := email.Validate(); err != nil {
		return nil, err
	}

	host := p.config.Get("host")
	addr := net.JoinHostPort(host, p.config.Get("port"))

	message := p.buildMessage(email)

	var recipients []string
	for _, r := range email.AllRecipients() {
		recipients = append(recipients, r.Email)
	}

	if err := p.deliver(ctx, addr, host, email.From.Email, recipients, message); err != nil {
		pe := core.NewProviderError(p.Name(), "send_error", "failed to send email: "+err.Error())
		pe.Cause = err
		if code, ok := replyCode(err); ok {
			pe.StatusCode = code
		}
		return nil, pe
	}

	// SMTP doesn't return a message ID, so generate one.
	messageID := fmt.Sprintf("%d@%s", time.Now().UnixNano(), host)

	return &core.SendResult{
		MessageID:  messageID,
		MessageIDs: []string{messageID},
		Provider:   p.Name(),
		Timestamp:  time.Now(),
	}, nil
}

// deliver runs one SMTP session: STARTTLS, PLAIN auth, envelope, data.
func (p *Provider) deliver(ctx context.Context, addr, host, from string, to []string, msg []byte) error {
	conn, err := p.dialer.DialContext(ctx, "tcp", addr)
	if err != nil {
		return err
	}
	if deadline, ok := ctx.Deadline(); ok {
		_ = conn.SetDeadline(deadline)
	}

	c, err := smtp.NewClient(conn, host)
	if err != nil {
		conn.Close()
		return err
	}
	defer c.Close()

	if ok, _ := c.Extension("STARTTLS"); ok {
		tlsConfig := &tls.Config{
			ServerName: host,
			MinVersion: tls.VersionTLS12,
		}
		if err := c.StartTLS(tlsConfig); err != nil {
			return err
		}
	}

	if ok, _ := c.Extension("AUTH"); ok {
		auth := smtp.PlainAuth("", p.config.Get("username"), p.config.Get("password"), host)
		if err := c.Auth(auth); err != nil {
			return err
		}
	}

	if err := c.Mail(from); err != nil {
		return err
	}
	for _, rcpt := range to {
		if err := c.Rcpt(rcpt); err != nil {
			return err
		}
	}

	w, err := c.Data()
	if err != nil {
		return err
	}
	if _, err := w.Write(msg); err != nil {
		return err
	}
	if err := w.Close(); err != nil {
		return err
	}

	return c.Quit()
}

// ValidateConfig validates the provider configuration.
func (p *Provider) ValidateConfig() error {
	if p.config.Get("host") == "" {
		return core.NewValidationError("host", "SMTP host is required")
	}

	port := p.config.Get("port")
	if port == "" {
		return core.NewValidationError("port", "SMTP port is required")
	}

	if _, err := strconv.Atoi(port); err != nil {
		return core.NewValidationError("port", "invalid port number: "+port)
	}

	if p.config.Get("password") == "" {
		return core.NewValidationError("password", "Mailtrap API token is required")
	}

	return nil
}

// Name returns the provider name.
func (p *Provider) Name() string {
	return "mailtrap_smtp"
}

// buildMessage builds the email message in RFC 5322 format. Attachments turn
// the message into multipart/mixed with the body as its first part.
func (p *Provider) buildMessage(email *core.Email) []byte {
	var message strings.Builder

	message.WriteString("From: " + email.From.String() + "\r\n")

	if len(email.To) > 0 {
		message.WriteString("To: " + joinAddresses(email.To) + "\r\n")
	}

	if len(email.CC) > 0 {
		message.WriteString("Cc: " + joinAddresses(email.CC) + "\r\n")
	}

	message.WriteString("Subject: " + mime.QEncoding.Encode("UTF-8", email.Subject) + "\r\n")
	message.WriteString("Date: " + time.Now().Format(time.RFC1123Z) + "\r\n")
	message.WriteString("MIME-Version: 1.0\r\n")

	// Mailtrap reads the category from this header on the SMTP relay.
	if email.Category != "" {
		message.WriteString("X-MT-Category: " + mime.QEncoding.Encode("UTF-8", email.Category) + "\r\n")
	}

	for key, value := range email.Headers {
		message.WriteString(key + ": " + mime.QEncoding.Encode("UTF-8", value) + "\r\n")
	}

	if len(email.Attachments) == 0 {
		writeBody(&message, email)
		return []byte(message.String())
	}

	mixed := newBoundary("mixed")
	message.WriteString("Content-Type: multipart/mixed; boundary=" + mixed + "\r\n")
	message.WriteString("\r\n")

	message.WriteString("--" + mixed + "\r\n")
	writeBody(&message, email)

	for _, att := range email.Attachments {
		message.WriteString("--" + mixed + "\r\n")
		writeAttachment(&message, att)
	}
	message.WriteString("--" + mixed + "--\r\n")

	return []byte(message.String())
}

// writeBody writes the Content-Type header, a blank line and the text/HTML content.
func writeBody(b *strings.Builder, email *core.Email) {
	switch {
	case email.HTMLBody != "" && email.TextBody != "":
		boundary := newBoundary("alt")
		b.WriteString("Content-Type: multipart/alternative; boundary=" + boundary + "\r\n")
		b.WriteString("\r\n")
		writePart(b, boundary, "text/plain", email.TextBody)
		writePart(b, boundary, "text/html", email.HTMLBody)
		b.WriteString("--" + boundary + "--\r\n")
	case email.HTMLBody != "":
		b.WriteString("Content-Type: text/html; charset=UTF-8\r\n")
		b.WriteString("\r\n")
		b.WriteString(email.HTMLBody + "\r\n")
	default:
		b.WriteString("Content-Type: text/plain; charset=UTF-8\r\n")
		b.WriteString("\r\n")
		b.WriteString(email.TextBody + "\r\n")
	}
}

func writePart(b *strings.Builder, boundary, contentType, body string) {
	b.WriteString("--" + boundary + "\r\n")
	b.WriteString("Content-Type: " + contentType + "; charset=UTF-8\r\n")
	b.WriteString("\r\n")
	b.WriteString(body + "\r\n")
	b.WriteString("\r\n")
}

// writeAttachment writes one base64 part. Inline parts carry a Content-ID so
// HTML can reference them as cid:<ContentID>.
func writeAttachment(b *strings.Builder, att core.Attachment) {
	mediaType := "application/octet-stream"
	if mt, _, err := mime.ParseMediaType(att.MediaType()); err == nil {
		mediaType = mt
	}

	disposition := "attachment"
	if att.Inline {
		disposition = "inline"
	}

	b.WriteString("Content-Type: " + mime.FormatMediaType(mediaType, map[string]string{"name": att.Filename}) + "\r\n")
	b.WriteString("Content-Transfer-Encoding: base64\r\n")
	b.WriteString("Content-Disposition: " + mime.FormatMediaType(disposition, map[string]string{"filename": att.Filename}) + "\r\n")
	if att.Inline && att.ContentID != "" {
		b.WriteString("Content-ID: <" + att.ContentID + ">\r\n")
	}
	b.WriteString("\r\n")

	encoded := base64.StdEncoding.EncodeToString(att.Content)
	for len(encoded) > base64LineLength {
		b.WriteString(encoded[:base64LineLength] + "\r\n")
		encoded = encoded[base64LineLength:]
	}
	b.WriteString(encoded + "\r\n")
}

func newBoundary(kind string) string {
	return fmt.Sprintf("%s_%d", kind, time.Now().UnixNano())
}

func joinAddresses(addresses []core.Address) string {
	parts := make([]string, len(addresses))
	for i, a := range addresses {
		parts[i] = a.String()
	}
	return strings.Join(parts, ", ")
}

// replyCode pulls the SMTP reply code out of a protocol error.
func replyCode(err error) (int, bool) {
	var tpErr *textproto.Error
	if errors.As(err, &tpErr) {
		return tpErr.Code, true
	}
	return 0, false
}
