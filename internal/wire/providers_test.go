package wire

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sevigo/patch-warden/internal/config"
	"github.com/sevigo/patch-warden/internal/notify"
)

func TestAPIURL(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"https://patchwork.kernel.org", "https://patchwork.kernel.org/api/1.1"},
		{"https://patchwork.kernel.org/", "https://patchwork.kernel.org/api/1.1"},
		{"https://patchwork.kernel.org/api/1.2/", "https://patchwork.kernel.org/api/1.2"},
		{"https://patchwork.example.com/api", "https://patchwork.example.com/api"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, apiURL(tt.in), tt.in)
	}
}

func testConfig(t *testing.T) *config.Config {
	t.Helper()
	return &config.Config{
		Tracker: config.TrackerConfig{URL: "https://patchwork.example.com", Project: "test", Timeout: time.Second},
		SMTP:    config.SMTPConfig{Host: "localhost", Port: 25, FromEmail: "me@example.com", Timeout: time.Second},
		Git:     config.GitConfig{Backend: "git", Path: t.TempDir(), Branch: "pending"},
		Review:  config.ReviewConfig{Theme: "plain"},
	}
}

func TestProvideTransport(t *testing.T) {
	cfg := testConfig(t)
	_, ok := provideTransport(cfg, nil).(*notify.SMTPTransport)
	assert.True(t, ok)

	cfg.SMTP.QueueDir = t.TempDir()
	_, ok = provideTransport(cfg, nil).(*notify.QueueTransport)
	assert.True(t, ok)
}

func TestInitializeApp(t *testing.T) {
	cfg := testConfig(t)
	cfg.Logger.Output = "file"
	cfg.Logger.File = filepath.Join(t.TempDir(), "pw.log")

	a, cleanup, err := InitializeApp(context.Background(), cfg)
	require.NoError(t, err)
	defer cleanup()
	assert.Same(t, cfg, a.Config())
	assert.FileExists(t, cfg.Logger.File)

	cfg = testConfig(t)
	cfg.Git.Backend = "quilt"
	_, _, err = InitializeApp(context.Background(), cfg)
	assert.Error(t, err)
}
