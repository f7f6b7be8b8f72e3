package email

import (
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewMailer_ProviderSelection(t *testing.T) {
	logger := slog.New(slog.DiscardHandler)

	tests := []struct {
		name     string
		provider string
		wantSES  bool
	}{
		{"ses", "ses", true},
		{"noop", "noop", false},
		{"empty defaults to noop", "", false},
		{"unknown falls back to noop", "pigeon", false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m, err := NewMailer(MailerConfig{
				Provider:    tt.provider,
				FromAddress: "events@communityhub.test",
				FromName:    "Community Hub",
				SES:         SESConfig{Region: "eu-west-1"},
			}, logger)
			require.NoError(t, err)
			_, isSES := m.(*sesMailer)
			assert.Equal(t, tt.wantSES, isSES)
		})
	}
}

func TestNoopMailer_Send(t *testing.T) {
	m, err := NewMailer(MailerConfig{Provider: "noop"}, slog.New(slog.DiscardHandler))
	require.NoError(t, err)
	require.NoError(t, m.Send("someone@communityhub.test", "Welcome", "<p>hi</p>", "hi"))
}

func TestSESMailer_FromHeader(t *testing.T) {
	named := newSESMailer(MailerConfig{
		FromAddress: "events@communityhub.test",
		FromName:    "Community Hub",
	}, slog.New(slog.DiscardHandler))
	assert.Equal(t, "Community Hub <events@communityhub.test>", named.from)

	bare := newSESMailer(MailerConfig{
		FromAddress: "events@communityhub.test",
	}, slog.New(slog.DiscardHandler))
	assert.Equal(t, "events@communityhub.test", bare.from)
}
