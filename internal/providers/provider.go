package providers

import (
	"fmt"
	"net/http"
	"time"

	"github.com/Karrrthik7/authshield/internal/core"
	"github.com/Karrrthik7/authshield/internal/providers/mailtrap"
	"github.com/Karrrthik7/authshield/internal/providers/smtp"
)

// Transport names accepted by New.
const (
	TransportAPI  = "api"
	TransportSMTP = "smtp"
)

// New creates the provider for the given transport.
func New(transport string, settings core.ProviderSettings, httpClient *http.Client) (core.Provider, error) {
	switch transport {
	case TransportAPI, "":
		return mailtrap.NewProvider(settings, httpClient)
	case TransportSMTP:
		var timeout time.Duration
		if httpClient != nil {
			timeout = httpClient.Timeout
		}
		return smtp.NewProvider(settings, timeout)
	default:
		return nil, fmt.Errorf("unsupported transport: %s", transport)
	}
}
