package mailtrap

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/Karrrthik7/authshield/internal/core"
)

const (
	sendPath = "/api/send"

	// maxErrorBody bounds how much of an error response is kept.
	maxErrorBody = 64 << 10
)

// Provider implements the core.Provider interface for the Mailtrap Send API.
type Provider struct {
	client   *http.Client
	endpoint string
	token    string
	config   core.ProviderSettings
}

// NewProvider creates a new Mailtrap Send API provider.
func NewProvider(settings core.ProviderSettings, client *http.Client) (core.Provider, error) {
	token := settings.Get("token")
	if token == "" {
		return nil, core.NewValidationError("token", "Mailtrap API token is required")
	}

	endpoint := settings.Get("endpoint")
	if endpoint == "" {
		return nil, core.NewValidationError("endpoint", "Mailtrap endpoint is required")
	}

	if client == nil {
		client = http.DefaultClient
	}

	return &Provider{
		client:   client,
		endpoint: endpoint,
		token:    token,
		config:   settings,
	}, nil
}

type address struct {
	Email string `json:"email"`
	Name  string `json:"name,omitempty"`
}

type attachment struct {
	Content     string `json:"content"`
	Filename    string `json:"filename"`
	Type        string `json:"type,omitempty"`
	Disposition string `json:"disposition,omitempty"`
	ContentID   string `json:"content_id,omitempty"`
}

type sendRequest struct {
	From            address           `json:"from"`
	To              []address         `json:"to"`
	CC              []address         `json:"cc,omitempty"`
	BCC             []address         `json:"bcc,omitempty"`
	Subject         string            `json:"subject"`
	Text            string            `json:"text,omitempty"`
	HTML            string            `json:"html,omitempty"`
	Category        string            `json:"category,omitempty"`
	Headers         map[string]string `json:"headers,omitempty"`
	CustomVariables map[string]string `json:"custom_variables,omitempty"`
	Attachments     []attachment      `json:"attachments,omitempty"`
}

type sendResponse struct {
	Success    bool     `json:"success"`
	MessageIDs []string `json:"message_ids"`
	Errors     []string `json:"errors"`
}

// Send sends a single email through the Mailtrap Send API.
func (p *Provider) Send(ctx context.Context, email *core.Email) (*core.SendResult, error) {
	if len(email.To) == 0 {
		return nil, core.NewValidationError("to", "at least one recipient is required")
	}

	payload, err := json.Marshal(buildRequest(email))
	if err != nil {
		return nil, core.NewProviderError(p.Name(), "encode_error", "failed to encode request: "+err.Error())
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, p.endpoint+sendPath, bytes.NewReader(payload))
	if err != nil {
		return nil, core.NewProviderError(p.Name(), "request_error", "failed to build request: "+err.Error())
	}
	req.Header.Set("Authorization", "Bearer "+p.token)
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")
	if ua := p.config.Get("user_agent"); ua != "" {
		req.Header.Set("User-Agent", ua)
	}

	resp, err := p.client.Do(req)
	if err != nil {
		pe := core.NewProviderError(p.Name(), "send_error", "failed to send email: "+err.Error())
		pe.Cause = err
		return nil, pe
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
	if err != nil {
		pe := core.NewProviderError(p.Name(), "read_error", "failed to read response: "+err.Error())
		pe.Cause = err
		pe.Response = &core.Response{StatusCode: resp.StatusCode}
		return nil, pe
	}

	var decoded sendResponse
	decodeErr := json.Unmarshal(body, &decoded)

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		message := http.StatusText(resp.StatusCode)
		if decodeErr == nil && len(decoded.Errors) > 0 {
			message = strings.Join(decoded.Errors, ", ")
		}
		pe := core.NewProviderError(p.Name(), "api_error", message)
		pe.StatusCode = resp.StatusCode
		pe.Response = &core.Response{StatusCode: resp.StatusCode, Body: string(body)}
		return nil, pe
	}

	if decodeErr != nil {
		pe := core.NewProviderError(p.Name(), "decode_error", "failed to decode response: "+decodeErr.Error())
		pe.Cause = decodeErr
		pe.Response = &core.Response{StatusCode: resp.StatusCode, Body: string(body)}
		return nil, pe
	}

	// A rejection inside a 2xx carries no meaningful status.
	if !decoded.Success {
		return nil, core.NewProviderError(p.Name(), "api_error", strings.Join(decoded.Errors, ", "))
	}

	result := &core.SendResult{
		MessageID:  "unknown",
		MessageIDs: decoded.MessageIDs,
		Provider:   p.Name(),
		Timestamp:  time.Now(),
	}
	if len(decoded.MessageIDs) > 0 {
		result.MessageID = decoded.MessageIDs[0]
	}

	return result, nil
}

// ValidateConfig validates the provider configuration.
func (p *Provider) ValidateConfig() error {
	if p.token == "" {
		return core.NewValidationError("token", "Mailtrap API token is required")
	}
	if p.endpoint == "" {
		return core.NewValidationError("endpoint", "Mailtrap endpoint is required")
	}
	return nil
}

// Name returns the provider name.
func (p *Provider) Name() string {
	return "mailtrap"
}

func buildRequest(email *core.Email) sendRequest {
	req := sendRequest{
		From:            convertAddress(email.From),
		To:              convertAddresses(email.To),
		CC:              convertAddresses(email.CC),
		BCC:             convertAddresses(email.BCC),
		Subject:         email.Subject,
		Text:            email.TextBody,
		HTML:            email.HTMLBody,
		Category:        email.Category,
		Headers:         email.Headers,
		CustomVariables: email.CustomVariables,
	}

	for _, att := range email.Attachments {
		a := attachment{
			Content:  base64.StdEncoding.EncodeToString(att.Content),
			Filename: att.Filename,
			Type:     att.MediaType(),
		}
		if att.Inline {
			a.Disposition = "inline"
			a.ContentID = att.ContentID
		}
		req.Attachments = append(req.Attachments, a)
	}

	return req
}

func convertAddress(a core.Address) address {
	return address{Email: a.Email, Name: a.Name}
}

func convertAddresses(addresses []core.Address) []address {
	if len(addresses) == 0 {
		return nil
	}
	result := make([]address, len(addresses))
	for i, a := range addresses {
		result[i] = convertAddress(a)
	}
	return result
}

// String describes the provider without exposing the token.
func (p *Provider) String() string {
	return fmt.Sprintf("mailtrap(%s)", p.endpoint)
}
