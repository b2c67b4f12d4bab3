package mailtrap_test

import (
	"context"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/sirupsen/logrus"
	logtest "github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/require"

	"github.com/Karrrthik7/authshield/mailtrap"
)

const testToken = "abcdef123456"

// fakeProvider records sent emails and answers with a canned outcome.
type fakeProvider struct {
	mu    sync.Mutex
	sent  []*mailtrap.Email
	err   error
	panic string
	block chan struct{}
}

func (p *fakeProvider) Send(ctx context.Context, email *mailtrap.Email) (*mailtrap.SendResult, error) {
	if p.block != nil {
		<-p.block
	}
	if p.panic != "" {
		panic(p.panic)
	}

	p.mu.Lock()
	p.sent = append(p.sent, email)
	p.mu.Unlock()

	if p.err != nil {
		return nil, p.err
	}
	return &mailtrap.SendResult{MessageID: "msg-1", Provider: p.Name(), Timestamp: time.Now()}, nil
}

func (p *fakeProvider) ValidateConfig() error { return nil }

func (p *fakeProvider) Name() string { return "fake" }

func (p *fakeProvider) sentCount() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return len(p.sent)
}

func (p *fakeProvider) lastSent() *mailtrap.Email {
	p.mu.Lock()
	defer p.mu.Unlock()
	if len(p.sent) == 0 {
		return nil
	}
	return p.sent[len(p.sent)-1]
}

func testConfig() mailtrap.Config {
	cfg := mailtrap.DefaultConfig()
	cfg.Token = testToken
	return cfg
}

func newTestClient(t *testing.T, provider mailtrap.Provider) (*mailtrap.Client, *logtest.Hook) {
	t.Helper()

	logger, hook := logtest.NewNullLogger()
	client, err := mailtrap.New(testConfig(), mailtrap.WithLogger(logger), mailtrap.WithProvider(provider))
	require.NoError(t, err)
	return client, hook
}

// logged reports whether any captured entry at level contains substr.
func logged(hook *logtest.Hook, level logrus.Level, substr string) bool {
	for _, e := range hook.AllEntries() {
		if e.Level == level && strings.Contains(e.Message, substr) {
			return true
		}
	}
	return false
}

// leaksToken reports whether the raw token appears anywhere in the captured logs.
func leaksToken(hook *logtest.Hook, token string) bool {
	for _, e := range hook.AllEntries() {
		line, err := e.String()
		if err != nil || strings.Contains(line, token) {
			return true
		}
	}
	return false
}
