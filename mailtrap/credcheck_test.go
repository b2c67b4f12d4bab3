package mailtrap_test

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"
	"unicode/utf8"

	"github.com/sirupsen/logrus"
	logtest "github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Karrrthik7/authshield/mailtrap"
)

func TestMaskToken(t *testing.T) {
	t.Parallel()

	tests := []struct {
		token string
		want  string
	}{
		{token: "abcdef123456", want: "abcd...3456"},
		{token: "", want: "(none)"},
		{token: "abcdefgh", want: "abcd...efgh"},
		{token: "abc", want: "abc...abc"},
		{token: "äöüßtoken€€€€", want: "äöüß...€€€€"},
	}

	for _, tt := range tests {
		got := mailtrap.MaskToken(tt.token)
		assert.Equal(t, tt.want, got, "token %q", tt.token)
		assert.True(t, utf8.ValidString(got), "token %q", tt.token)
	}
}

func TestVerifyCredentials_Success(t *testing.T) {
	t.Parallel()

	provider := &fakeProvider{}
	client, hook := newTestClient(t, provider)

	require.NoError(t, client.VerifyCredentials(context.Background()))

	sent := provider.lastSent()
	require.NotNil(t, sent)
	assert.Equal(t, client.Sender(), sent.From)
	require.Len(t, sent.To, 1)
	assert.Equal(t, "mailtrap@demomailtrap.com", sent.To[0].Email)
	assert.Equal(t, "Mailtrap credential verification", sent.Subject)
	assert.Equal(t, "Credential Check", sent.Category)
	assert.NotEmpty(t, sent.HTMLBody)

	entry := hook.LastEntry()
	require.NotNil(t, entry)
	assert.Equal(t, logrus.InfoLevel, entry.Level)
	assert.Equal(t, "abcd...3456", entry.Data["token"])
	assert.False(t, leaksToken(hook, testToken))
}

func TestVerifyCredentials_Failures(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name       string
		err        error
		wantStatus string
		want401    bool
	}{
		{
			name:       "unauthorized",
			err:        &mailtrap.ProviderError{Provider: "mailtrap", Code: "api_error", Message: "Unauthorized", StatusCode: 401},
			wantStatus: "401",
			want401:    true,
		},
		{
			name:       "unauthorized in nested response",
			err:        &mailtrap.ProviderError{Provider: "mailtrap", Code: "decode_error", Response: &mailtrap.Response{StatusCode: 401}},
			wantStatus: "401",
			want401:    true,
		},
		{
			name:       "server error",
			err:        &mailtrap.ProviderError{Provider: "mailtrap", Code: "api_error", Message: "Internal Server Error", StatusCode: 500},
			wantStatus: "500",
		},
		{
			name:       "no status",
			err:        errors.New("dial tcp: connection refused"),
			wantStatus: "unknown",
		},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			client, hook := newTestClient(t, &fakeProvider{err: tt.err})

			err := client.VerifyCredentials(context.Background())
			require.ErrorIs(t, err, tt.err)

			var failure *logrus.Entry
			for _, e := range hook.AllEntries() {
				if e.Message == "Mailtrap credential check failed" {
					failure = e
				}
			}
			require.NotNil(t, failure)
			assert.Equal(t, logrus.ErrorLevel, failure.Level)
			assert.Equal(t, tt.wantStatus, failure.Data["status"])
			assert.Equal(t, "abcd...3456", failure.Data["token"])
			assert.Equal(t, tt.err, failure.Data[logrus.ErrorKey])

			assert.Equal(t, tt.want401, logged(hook, logrus.ErrorLevel, "Regenerate or copy a valid Send API token"))
			assert.Equal(t, !tt.want401, logged(hook, logrus.WarnLevel, "Check MAILTRAP_ENDPOINT and network connectivity"))
			assert.False(t, leaksToken(hook, testToken))
		})
	}
}

func TestVerifyCredentials_RecoversPanic(t *testing.T) {
	t.Parallel()

	client, hook := newTestClient(t, &fakeProvider{panic: "transport exploded"})

	var err error
	require.NotPanics(t, func() {
		err = client.VerifyCredentials(context.Background())
	})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "transport exploded")
	assert.True(t, logged(hook, logrus.ErrorLevel, "Mailtrap credential check failed"))
}

func TestVerifyCredentials_AgainstAPI(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("Authorization") != "Bearer "+testToken {
			t.Errorf("unexpected authorization header %q", r.Header.Get("Authorization"))
		}
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusUnauthorized)
		_, _ = w.Write([]byte(`{"success":false,"errors":["Unauthorized"]}`))
	}))
	defer srv.Close()

	cfg := testConfig()
	cfg.Endpoint = srv.URL + "/"

	logger, hook := logtest.NewNullLogger()
	client, err := mailtrap.New(cfg, mailtrap.WithLogger(logger))
	require.NoError(t, err)

	err = client.VerifyCredentials(context.Background())
	require.Error(t, err)
	assert.Equal(t, "401", mailtrap.StatusOf(err))
	assert.True(t, logged(hook, logrus.ErrorLevel, "Regenerate or copy a valid Send API token"))
	assert.False(t, leaksToken(hook, testToken))
}

func TestStartCredentialCheck_DoesNotBlock(t *testing.T) {
	t.Parallel()

	provider := &fakeProvider{
		block: make(chan struct{}),
		err:   &mailtrap.ProviderError{Provider: "mailtrap", Code: "api_error", StatusCode: 401},
	}
	client, hook := newTestClient(t, provider)

	done := make(chan struct{})
	go func() {
		client.StartCredentialCheck()
		client.StartCredentialCheck()
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("StartCredentialCheck blocked on the send")
	}

	// The shared client stays usable while the check is in flight.
	assert.Equal(t, "mailtrap@demomailtrap.com", client.Sender().Email)

	close(provider.block)

	assert.Eventually(t, func() bool {
		return logged(hook, logrus.ErrorLevel, "Regenerate or copy a valid Send API token")
	}, 2*time.Second, 10*time.Millisecond)
	assert.Equal(t, 1, provider.sentCount(), "the check runs once")
}
