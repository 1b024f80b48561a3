package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeFile(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	return path
}

func validConfig() *Config {
	return &Config{
		Tracker: TrackerConfig{
			URL:     "https://patchwork.example.com",
			Token:   "secret",
			Project: "linux-wireless",
			Timeout: 10 * time.Second,
		},
		SMTP: SMTPConfig{Host: "localhost", Port: 25, FromEmail: "maintainer@example.com", Timeout: time.Second},
		Git:  GitConfig{Backend: "git", Branch: "pending"},
		Review: ReviewConfig{
			States: []string{"new", "under-review"},
		},
	}
}

func TestLoadConfig_Defaults(t *testing.T) {
	t.Setenv("VISUAL", "nano")
	dir := t.TempDir()
	path := writeFile(t, dir, "config.yaml", "tracker:\n  url: https://patchwork.example.com\n")

	cfg, err := LoadConfig(viper.New(), path)
	require.NoError(t, err)

	assert.Equal(t, "https://patchwork.example.com", cfg.Tracker.URL)
	assert.Equal(t, 10*time.Second, cfg.Tracker.Timeout)
	assert.Equal(t, "git", cfg.Git.Backend)
	assert.Equal(t, "pending", cfg.Git.Branch)
	assert.True(t, cfg.Git.Signoff)
	assert.Equal(t, 25, cfg.SMTP.Port)
	assert.Equal(t, []string{"new", "under-review"}, cfg.Review.States)
	assert.Equal(t, "nano", cfg.Review.Editor)
	assert.Equal(t, "info", cfg.Logger.Level)
	assert.Equal(t, "stderr", cfg.Logger.Output)
}

func TestLoadConfig_FileValues(t *testing.T) {
	dir := t.TempDir()
	path := writeFile(t, dir, "config.yaml", `
tracker:
  url: https://patchwork.kernel.org
  project: linux-wireless
  delegate: 42
  timeout: 30s
smtp:
  host: mail.example.com
  port: 587
  from_name: Kalle Valo
  from_email: kvalo@example.com
git:
  backend: stgit
  conflict_limit: 3
notify:
  accept: true
  signature: "https://wireless.wiki.kernel.org/en/developers/documentation/submittingpatches"
review:
  states: [new, deferred]
  editor: vim
`)

	cfg, err := LoadConfig(viper.New(), path)
	require.NoError(t, err)

	assert.Equal(t, "linux-wireless", cfg.Tracker.Project)
	assert.Equal(t, 42, cfg.Tracker.Delegate)
	assert.Equal(t, 30*time.Second, cfg.Tracker.Timeout)
	assert.Equal(t, "mail.example.com", cfg.SMTP.Host)
	assert.Equal(t, 587, cfg.SMTP.Port)
	assert.Equal(t, "Kalle Valo", cfg.SMTP.FromName)
	assert.Equal(t, "stgit", cfg.Git.Backend)
	assert.Equal(t, 3, cfg.Git.ConflictLimit)
	assert.True(t, cfg.Notify.Accept)
	assert.False(t, cfg.Notify.Defer)
	assert.Equal(t, []string{"new", "deferred"}, cfg.Review.States)
	assert.Equal(t, "vim", cfg.Review.Editor)
}

func TestLoadConfig_EnvOverrides(t *testing.T) {
	dir := t.TempDir()
	path := writeFile(t, dir, "config.yaml", "tracker:\n  token: from-file\n")
	t.Setenv("PW_TRACKER_TOKEN", "from-env")
	t.Setenv("PW_GIT_BRANCH", "review")
	t.Setenv("PW_SMTP_PASSWORD", "hunter2")

	cfg, err := LoadConfig(viper.New(), path)
	require.NoError(t, err)

	assert.Equal(t, "from-env", cfg.Tracker.Token)
	assert.Equal(t, "review", cfg.Git.Branch)
	assert.Equal(t, "hunter2", cfg.SMTP.Password)
}

func TestLoadConfig_Errors(t *testing.T) {
	dir := t.TempDir()

	_, err := LoadConfig(viper.New(), filepath.Join(dir, "missing.yaml"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to read config file")

	bad := writeFile(t, dir, "bad.yaml", "tracker: [unclosed\n")
	_, err = LoadConfig(viper.New(), bad)
	require.Error(t, err)

	wrongType := writeFile(t, dir, "types.yaml", "git:\n  conflict_limit: many\n")
	_, err = LoadConfig(viper.New(), wrongType)
	require.ErrorIs(t, err, ErrConfigParsing)
}

func TestConfig_Validate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(c *Config)
		wantErr string
	}{
		{name: "valid", mutate: func(*Config) {}},
		{
			name:    "missing url",
			mutate:  func(c *Config) { c.Tracker.URL = "" },
			wantErr: "tracker.url must be set",
		},
		{
			name:    "relative url",
			mutate:  func(c *Config) { c.Tracker.URL = "patchwork/api" },
			wantErr: "is not an absolute URL",
		},
		{
			name:    "missing project",
			mutate:  func(c *Config) { c.Tracker.Project = "" },
			wantErr: "tracker.project must be set",
		},
		{
			name:    "missing token",
			mutate:  func(c *Config) { c.Tracker.Token = "" },
			wantErr: "tracker.token must be set",
		},
		{
			name:    "unknown backend",
			mutate:  func(c *Config) { c.Git.Backend = "quilt" },
			wantErr: `git.backend "quilt" must be git or stgit`,
		},
		{
			name:    "negative conflict limit",
			mutate:  func(c *Config) { c.Git.ConflictLimit = -1 },
			wantErr: "git.conflict_limit must not be negative",
		},
		{
			name:    "missing sender",
			mutate:  func(c *Config) { c.SMTP.FromEmail = "" },
			wantErr: "smtp.from_email must be set",
		},
		{
			name:    "no delivery",
			mutate:  func(c *Config) { c.SMTP.Host = "" },
			wantErr: "smtp.host or smtp.queue_dir must be set",
		},
		{
			name: "queue without host",
			mutate: func(c *Config) {
				c.SMTP.Host = ""
				c.SMTP.QueueDir = "/tmp/queue"
			},
		},
		{
			name:    "empty state",
			mutate:  func(c *Config) { c.Review.States = []string{"new", ""} },
			wantErr: "review.states",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := validConfig()
			tt.mutate(cfg)
			err := cfg.Validate()
			if tt.wantErr == "" {
				assert.NoError(t, err)
				return
			}
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}

func TestConfig_ValidateTrackerOnly(t *testing.T) {
	cfg := validConfig()
	cfg.Tracker.Token = ""
	cfg.SMTP.FromEmail = ""
	assert.NoError(t, cfg.ValidateTracker())
	assert.Error(t, cfg.Validate())
}

func TestLoadRepoConfig(t *testing.T) {
	t.Run("not found", func(t *testing.T) {
		rc, err := LoadRepoConfig(t.TempDir())
		require.ErrorIs(t, err, ErrConfigNotFound)
		assert.NotNil(t, rc)
	})

	t.Run("parse error", func(t *testing.T) {
		dir := t.TempDir()
		writeFile(t, dir, RepoConfigFile, "branch: [oops\n")
		_, err := LoadRepoConfig(dir)
		require.ErrorIs(t, err, ErrConfigParsing)
	})

	t.Run("overrides", func(t *testing.T) {
		dir := t.TempDir()
		writeFile(t, dir, RepoConfigFile, "branch: wireless-next\nbackend: stgit\nsignature: \"-- \\nwireless\"\n")

		rc, err := LoadRepoConfig(dir)
		require.NoError(t, err)

		cfg := validConfig()
		cfg.ApplyRepoConfig(rc)
		assert.Equal(t, "wireless-next", cfg.Git.Branch)
		assert.Equal(t, "stgit", cfg.Git.Backend)
		assert.Equal(t, "-- \nwireless", cfg.Notify.Signature)
		assert.Equal(t, "linux-wireless", cfg.Tracker.Project)
	})
}
