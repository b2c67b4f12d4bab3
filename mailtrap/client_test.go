package mailtrap_test

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"

	logtest "github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Karrrthik7/authshield/mailtrap"
)

func resetEmail() *mailtrap.Email {
	return &mailtrap.Email{
		To:       []mailtrap.Address{{Email: "user@example.com"}},
		Subject:  "Reset your password",
		HTMLBody: "<p>Click the link to reset your password.</p>",
		Category: "Password Reset",
	}
}

func TestNew_MissingToken(t *testing.T) {
	t.Parallel()

	client, err := mailtrap.New(mailtrap.Config{})
	assert.Nil(t, client)
	assert.ErrorIs(t, err, mailtrap.ErrMissingToken)
}

func TestNew_AppliesDefaults(t *testing.T) {
	t.Parallel()

	client, err := mailtrap.New(mailtrap.Config{Token: " abc123 ", Endpoint: "https://x/"}, mailtrap.WithProvider(&fakeProvider{}))
	require.NoError(t, err)

	assert.Equal(t, mailtrap.Address{Email: "mailtrap@demomailtrap.com", Name: "AuthShield"}, client.Sender())
	assert.Equal(t, "abc123", client.Config().Token)
	assert.Equal(t, "https://x", client.Config().Endpoint)
}

func TestNew_UnsupportedTransport(t *testing.T) {
	t.Parallel()

	cfg := testConfig()
	cfg.Transport = "fax"

	_, err := mailtrap.New(cfg)
	assert.ErrorIs(t, err, mailtrap.ErrInvalidConfiguration)
}

func TestClient_Send_ThroughAPI(t *testing.T) {
	t.Parallel()

	var body map[string]any
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/send", r.URL.Path)
		assert.Equal(t, "Bearer "+testToken, r.Header.Get("Authorization"))
		assert.Contains(t, r.Header.Get("User-Agent"), "authshield-mailtrap/")
		_ = json.NewDecoder(r.Body).Decode(&body)
		_, _ = w.Write([]byte(`{"success":true,"message_ids":["0c7fd939-02cf-11ed-88c2-0a58a9feac02"]}`))
	}))
	defer srv.Close()

	cfg := testConfig()
	cfg.Endpoint = srv.URL + "/"

	logger, _ := logtest.NewNullLogger()
	client, err := mailtrap.New(cfg, mailtrap.WithLogger(logger), mailtrap.WithHTTPClient(srv.Client()))
	require.NoError(t, err)

	email := resetEmail()
	result, err := client.Send(context.Background(), email)
	require.NoError(t, err)

	assert.Equal(t, "0c7fd939-02cf-11ed-88c2-0a58a9feac02", result.MessageID)
	assert.Equal(t, map[string]any{"email": "mailtrap@demomailtrap.com", "name": "AuthShield"}, body["from"])
	assert.Equal(t, "Password Reset", body["category"])
	assert.Empty(t, email.From.Email, "the caller's email is not modified")
}

func TestClient_Send_KeepsExplicitFrom(t *testing.T) {
	t.Parallel()

	provider := &fakeProvider{}
	client, _ := newTestClient(t, provider)

	email := resetEmail()
	email.From = mailtrap.Address{Email: "security@authshield.dev", Name: "Security"}

	_, err := client.Send(context.Background(), email)
	require.NoError(t, err)
	assert.Equal(t, "security@authshield.dev", provider.lastSent().From.Email)
}

func TestClient_Send_Validation(t *testing.T) {
	t.Parallel()

	provider := &fakeProvider{}
	client, _ := newTestClient(t, provider)

	_, err := client.Send(context.Background(), nil)
	assert.ErrorIs(t, err, &mailtrap.ValidationError{})

	email := resetEmail()
	email.To = nil
	_, err = client.Send(context.Background(), email)
	assert.ErrorIs(t, err, &mailtrap.ValidationError{})

	assert.Zero(t, provider.sentCount())
}

func TestClient_Send_ProviderError(t *testing.T) {
	t.Parallel()

	want := &mailtrap.ProviderError{Provider: "mailtrap", Code: "api_error", StatusCode: 429}
	client, _ := newTestClient(t, &fakeProvider{err: want})

	_, err := client.Send(context.Background(), resetEmail())
	assert.ErrorIs(t, err, want)
	assert.Equal(t, "429", mailtrap.StatusOf(err))
}

func TestClient_Close(t *testing.T) {
	t.Parallel()

	provider := &fakeProvider{}
	client, _ := newTestClient(t, provider)

	require.NoError(t, client.Close())
	require.NoError(t, client.Close())

	_, err := client.Send(context.Background(), resetEmail())
	assert.ErrorIs(t, err, mailtrap.ErrClientClosed)
	assert.Zero(t, provider.sentCount())
}

func TestClient_ConcurrentSends(t *testing.T) {
	t.Parallel()

	provider := &fakeProvider{}
	client, _ := newTestClient(t, provider)

	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := client.Send(context.Background(), resetEmail())
			assert.NoError(t, err)
			assert.Equal(t, "AuthShield", client.Sender().Name)
		}()
	}
	wg.Wait()

	assert.Equal(t, 20, provider.sentCount())
}
