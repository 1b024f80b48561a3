package config

import (
	"errors"
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/spf13/viper"

	"github.com/sevigo/patch-warden/internal/core"
	"github.com/sevigo/patch-warden/internal/logger"
)

const EnvPrefix = "PW"

// Config holds the application's configuration values.
type Config struct {
	Tracker TrackerConfig `mapstructure:"tracker"`
	SMTP    SMTPConfig    `mapstructure:"smtp"`
	Git     GitConfig     `mapstructure:"git"`
	Notify  NotifyConfig  `mapstructure:"notify"`
	Review  ReviewConfig  `mapstructure:"review"`
	GitHub  GitHubConfig  `mapstructure:"github"`
	Logger  logger.Config `mapstructure:"logger"`
}

type TrackerConfig struct {
	URL     string `mapstructure:"url"`
	Token   string `mapstructure:"token"`
	Project string `mapstructure:"project"`
	// User is the operator's tracker username, used to filter listings.
	User string `mapstructure:"user"`
	// Delegate is the user id decided patches are delegated to. Zero leaves
	// delegation alone.
	Delegate int           `mapstructure:"delegate"`
	Timeout  time.Duration `mapstructure:"timeout"`
}

type SMTPConfig struct {
	Host               string        `mapstructure:"host"`
	Port               int           `mapstructure:"port"`
	Username           string        `mapstructure:"username"`
	Password           string        `mapstructure:"password"`
	FromName           string        `mapstructure:"from_name"`
	FromEmail          string        `mapstructure:"from_email"`
	Timeout            time.Duration `mapstructure:"timeout"`
	InsecureSkipVerify bool          `mapstructure:"insecure_skip_verify"`
	// QueueDir, when set, stores replies as files instead of sending them.
	QueueDir string `mapstructure:"queue_dir"`
}

type GitConfig struct {
	Backend       string `mapstructure:"backend"`
	Path          string `mapstructure:"path"`
	Branch        string `mapstructure:"branch"`
	DryRun        bool   `mapstructure:"dry_run"`
	Signoff       bool   `mapstructure:"signoff"`
	ConflictLimit int    `mapstructure:"conflict_limit"`
}

type NotifyConfig struct {
	Accept    bool   `mapstructure:"accept"`
	Defer     bool   `mapstructure:"defer"`
	Signature string `mapstructure:"signature"`
	Variant   string `mapstructure:"variant"`
}

type ReviewConfig struct {
	States []string `mapstructure:"states"`
	Series bool     `mapstructure:"series"`
	Theme  string   `mapstructure:"theme"`
	Editor string   `mapstructure:"editor"`
	// Censor pins the mbox envelope date so repeated runs are reproducible.
	Censor bool `mapstructure:"censor"`
}

type GitHubConfig struct {
	Token string `mapstructure:"token"`
}

var defaults = map[string]any{
	"tracker.url":               "",
	"tracker.token":             "",
	"tracker.project":           "",
	"tracker.user":              "",
	"tracker.delegate":          0,
	"tracker.timeout":           10 * time.Second,
	"smtp.host":                 "localhost",
	"smtp.port":                 25,
	"smtp.username":             "",
	"smtp.password":             "",
	"smtp.from_name":            "",
	"smtp.from_email":           "",
	"smtp.timeout":              10 * time.Second,
	"smtp.insecure_skip_verify": false,
	"smtp.queue_dir":            "",
	"git.backend":               "git",
	"git.path":                  ".",
	"git.branch":                "pending",
	"git.dry_run":               false,
	"git.signoff":               true,
	"git.conflict_limit":        0,
	"notify.accept":             false,
	"notify.defer":              false,
	"notify.signature":          "",
	"notify.variant":            "default",
	"review.states":             []string{"new", "under-review"},
	"review.series":             false,
	"review.theme":              "cyan",
	"review.editor":             "",
	"review.censor":             false,
	"github.token":              "",
	"logger.level":              "info",
	"logger.format":             "text",
	"logger.output":             "stderr",
	"logger.file":               "",
}

// SetDefaults registers every known key, which also lets environment
// variables override keys absent from the config file.
func SetDefaults(v *viper.Viper) {
	for key, value := range defaults {
		v.SetDefault(key, value)
	}
}

// LoadConfig reads configuration from configFile, or from config.yaml in the
// usual places when configFile is empty, with PW_ environment variables
// taking precedence.
func LoadConfig(v *viper.Viper, configFile string) (*Config, error) {
	SetDefaults(v)

	if configFile != "" {
		v.SetConfigFile(configFile)
	} else {
		v.SetConfigName("config")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
		v.AddConfigPath("$HOME/.patch-warden")
		v.AddConfigPath("/etc/patch-warden")
	}

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_", "-", "_"))
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if configFile != "" || !errors.As(err, &notFound) {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
	}

	cfg := &Config{}
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrConfigParsing, err)
	}
	if editor := v.GetString("review.editor"); editor == "" {
		cfg.Review.Editor = lookupEditor()
	}
	return cfg, nil
}

// ValidateTracker checks the settings every command needs.
func (c *Config) ValidateTracker() error {
	var errs []error
	if c.Tracker.URL == "" {
		errs = append(errs, errors.New("tracker.url must be set"))
	} else if u, err := url.Parse(c.Tracker.URL); err != nil || u.Scheme == "" || u.Host == "" {
		errs = append(errs, fmt.Errorf("tracker.url %q is not an absolute URL", c.Tracker.URL))
	}
	if c.Tracker.Project == "" {
		errs = append(errs, errors.New("tracker.project must be set"))
	}
	if c.Tracker.Timeout <= 0 {
		errs = append(errs, errors.New("tracker.timeout must be positive"))
	}
	return errors.Join(errs...)
}

// Validate checks the settings needed for a review session.
func (c *Config) Validate() error {
	errs := []error{c.ValidateTracker()}

	if c.Tracker.Token == "" {
		errs = append(errs, errors.New("tracker.token must be set to update patches"))
	}
	switch c.Git.Backend {
	case "git", "stgit":
	default:
		errs = append(errs, fmt.Errorf("git.backend %q must be git or stgit", c.Git.Backend))
	}
	if c.Git.Branch == "" {
		errs = append(errs, errors.New("git.branch must be set"))
	}
	if c.Git.ConflictLimit < 0 {
		errs = append(errs, errors.New("git.conflict_limit must not be negative"))
	}
	if c.SMTP.FromEmail == "" {
		errs = append(errs, errors.New("smtp.from_email must be set"))
	}
	if c.SMTP.QueueDir == "" && c.SMTP.Host == "" {
		errs = append(errs, errors.New("smtp.host or smtp.queue_dir must be set"))
	}
	if c.SMTP.Timeout <= 0 {
		errs = append(errs, errors.New("smtp.timeout must be positive"))
	}
	for _, s := range c.Review.States {
		if _, err := core.ParseState(s); err != nil {
			errs = append(errs, fmt.Errorf("review.states: %w", err))
		}
	}
	return errors.Join(errs...)
}
