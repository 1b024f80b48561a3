package main

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/sevigo/patch-warden/internal/config"
)

var (
	cfgFile  string
	logLevel string
	repoPath string
)

var rootCmd = &cobra.Command{
	Use:   "patch-warden",
	Short: "patch-warden reviews patches tracked by Patchwork.",
	Long: `A maintainer's tool for reviewing mailing list patches tracked by a
Patchwork instance: apply them to the pending branch, decide on each one,
reply to the submitter and keep the tracker state in sync.`,
	SilenceUsage: true,
}

func init() { //nolint:gochecknoinits // Cobra's init function for command registration
	cobra.OnInitialize(initConfig)

	rootCmd.PersistentFlags().StringVarP(&cfgFile, "config", "c", "", "config file (default ./config.yaml, $HOME/.patch-warden/config.yaml)")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "", "log level (debug, info, warn, error)")
	rootCmd.PersistentFlags().StringVarP(&repoPath, "repo", "C", "", "path of the git working tree")

	mustBindFlags(rootCmd, true, map[string]string{
		"logger.level": "log-level",
		"git.path":     "repo",
	})
}

// mustBindFlags binds config keys to the named flags of cmd.
func mustBindFlags(cmd *cobra.Command, persistent bool, keys map[string]string) {
	flags := cmd.Flags()
	if persistent {
		flags = cmd.PersistentFlags()
	}
	for key, name := range keys {
		if err := viper.BindPFlag(key, flags.Lookup(name)); err != nil {
			slog.Error("Error binding flag", "flag", name, "error", err)
			os.Exit(1)
		}
	}
}

// initConfig reads ENV variables if set. The config file itself is read by
// loadConfig once the flags are parsed.
func initConfig() {
	viper.SetEnvPrefix(config.EnvPrefix)
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_", "-", "_"))
	viper.AutomaticEnv()
}

// loadConfig builds the configuration from file, environment and flags and
// applies the overrides of the repository being worked on.
func loadConfig() (*config.Config, error) {
	cfg, err := config.LoadConfig(viper.GetViper(), cfgFile)
	if err != nil {
		return nil, err
	}

	rc, err := config.LoadRepoConfig(cfg.Git.Path)
	switch {
	case err == nil:
		cfg.ApplyRepoConfig(rc)
	case errors.Is(err, config.ErrConfigNotFound):
	default:
		return nil, fmt.Errorf("failed to load %s: %w", config.RepoConfigFile, err)
	}
	return cfg, nil
}
