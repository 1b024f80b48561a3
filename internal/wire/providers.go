package wire

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"

	"github.com/google/wire"

	"github.com/sevigo/patch-warden/internal/app"
	"github.com/sevigo/patch-warden/internal/config"
	"github.com/sevigo/patch-warden/internal/core"
	"github.com/sevigo/patch-warden/internal/github"
	"github.com/sevigo/patch-warden/internal/gitutil"
	"github.com/sevigo/patch-warden/internal/logger"
	"github.com/sevigo/patch-warden/internal/notify"
	"github.com/sevigo/patch-warden/internal/patch"
	"github.com/sevigo/patch-warden/internal/patchwork"
	"github.com/sevigo/patch-warden/internal/prompt"
	"github.com/sevigo/patch-warden/internal/repomanager"
	"github.com/sevigo/patch-warden/internal/review"
)

const apiPath = "/api/1.1"

var AppSet = wire.NewSet(
	app.NewApp,
	patchwork.NewSyncer,
	notify.NewTemplateManager,
	github.NewDescriber,
	provideLoggerConfig,
	provideLogWriter,
	provideSlogLogger,
	providePatchworkClient,
	provideGitClient,
	provideRepository,
	provideTransport,
	provideOracle,
	provideSender,
	provideGitHubClient,
	provideSession,
	wire.Bind(new(app.Reviewer), new(*review.Session)),
)

func provideLoggerConfig(cfg *config.Config) logger.Config {
	return cfg.Logger
}

func provideLogWriter(cfg *config.Config) (io.Writer, func(), error) {
	switch cfg.Logger.Output {
	case "stdout":
		return os.Stdout, func() {}, nil
	case "file":
		name := cfg.Logger.File
		if name == "" {
			name = "patch-warden.log"
		}
		f, err := os.OpenFile(name, os.O_WRONLY|os.O_CREATE|os.O_APPEND, 0o600)
		if err != nil {
			return nil, nil, fmt.Errorf("failed to open log file: %w", err)
		}
		return f, func() { _ = f.Close() }, nil
	default:
		return os.Stderr, func() {}, nil
	}
}

func provideSlogLogger(loggerConfig logger.Config, writer io.Writer) *slog.Logger {
	return logger.NewLogger(loggerConfig, writer)
}

// apiURL turns the configured tracker address into the REST API root.
func apiURL(base string) string {
	base = strings.TrimRight(base, "/")
	if strings.Contains(base, "/api/") || strings.HasSuffix(base, "/api") {
		return base
	}
	return base + apiPath
}

func providePatchworkClient(ctx context.Context, cfg *config.Config, logger *slog.Logger) patchwork.Client {
	return patchwork.NewClient(ctx, patchwork.Options{
		BaseURL: apiURL(cfg.Tracker.URL),
		Token:   cfg.Tracker.Token,
		Timeout: cfg.Tracker.Timeout,
	}, logger)
}

func provideGitClient(cfg *config.Config, logger *slog.Logger) *gitutil.Client {
	return gitutil.NewClient(logger, gitutil.ExecRunner{}, cfg.Git.Path)
}

func provideRepository(cfg *config.Config, client *gitutil.Client, logger *slog.Logger) (repomanager.Repository, error) {
	return repomanager.New(repomanager.Backend(cfg.Git.Backend), client, repomanager.Options{
		DryRun:  cfg.Git.DryRun,
		Signoff: cfg.Git.Signoff,
	}, logger)
}

func provideTransport(cfg *config.Config, logger *slog.Logger) notify.Transport {
	if cfg.SMTP.QueueDir != "" {
		return notify.NewQueueTransport(cfg.SMTP.QueueDir, logger)
	}
	return notify.NewSMTPTransport(notify.SMTPConfig{
		Host:               cfg.SMTP.Host,
		Port:               cfg.SMTP.Port,
		Username:           cfg.SMTP.Username,
		Password:           cfg.SMTP.Password,
		Timeout:            cfg.SMTP.Timeout,
		InsecureSkipVerify: cfg.SMTP.InsecureSkipVerify,
	}, logger)
}

func provideOracle(cfg *config.Config, logger *slog.Logger) core.Oracle {
	return prompt.New(prompt.Options{
		Theme:  prompt.ThemeName(cfg.Review.Theme),
		Editor: cfg.Review.Editor,
	}, logger)
}

func provideSender(cfg *config.Config, transport notify.Transport, oracle core.Oracle, templates *notify.TemplateManager, logger *slog.Logger) *notify.Sender {
	return notify.NewSender(transport, oracle, templates, notify.Config{
		FromName:  cfg.SMTP.FromName,
		FromEmail: cfg.SMTP.FromEmail,
		Policy:    notify.Policy{Accept: cfg.Notify.Accept, Defer: cfg.Notify.Defer},
		Signature: cfg.Notify.Signature,
		Variant:   notify.Variant(cfg.Notify.Variant),
		Branch:    cfg.Git.Branch,
	}, logger)
}

func provideGitHubClient(ctx context.Context, cfg *config.Config, logger *slog.Logger) github.Client {
	return github.NewPATClient(ctx, cfg.GitHub.Token, logger)
}

func provideSession(
	cfg *config.Config,
	repo repomanager.Repository,
	syncer *patchwork.Syncer,
	sender *notify.Sender,
	oracle core.Oracle,
	describer *github.Describer,
	logger *slog.Logger,
) *review.Session {
	var delegate *patch.User
	if cfg.Tracker.Delegate != 0 {
		delegate = &patch.User{ID: cfg.Tracker.Delegate, Username: cfg.Tracker.User}
	}
	return review.NewSession(repo, syncer, sender, oracle, describer, review.Config{
		Series:        cfg.Review.Series,
		ConflictLimit: cfg.Git.ConflictLimit,
		Delegate:      delegate,
		Censor:        cfg.Review.Censor,
		Branch:        cfg.Git.Branch,
	}, logger)
}
