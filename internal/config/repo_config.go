package config

import (
	"errors"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

// RepoConfigFile is the name of the per-repository override file.
const RepoConfigFile = ".patch-warden.yml"

var (
	ErrConfigNotFound = errors.New("config file not found")
	ErrConfigParsing  = errors.New("config parsing failed")
)

// RepoConfig holds the settings a repository may override. Nil fields keep
// the global value.
type RepoConfig struct {
	Branch    *string `yaml:"branch"`
	Backend   *string `yaml:"backend"`
	Signature *string `yaml:"signature"`
	Project   *string `yaml:"project"`
}

// LoadRepoConfig loads and parses the .patch-warden.yml file from a repository path.
func LoadRepoConfig(repoPath string) (*RepoConfig, error) {
	configPath := filepath.Join(repoPath, RepoConfigFile)
	data, err := os.ReadFile(configPath)
	if err != nil {
		if os.IsNotExist(err) {
			return &RepoConfig{}, ErrConfigNotFound
		}
		return nil, fmt.Errorf("failed to read %s: %w", RepoConfigFile, err)
	}

	config := &RepoConfig{}
	if err := yaml.Unmarshal(data, config); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrConfigParsing, err)
	}
	return config, nil
}

// ApplyRepoConfig overrides c with the fields set in rc.
func (c *Config) ApplyRepoConfig(rc *RepoConfig) {
	if rc == nil {
		return
	}
	if rc.Branch != nil {
		c.Git.Branch = *rc.Branch
	}
	if rc.Backend != nil {
		c.Git.Backend = *rc.Backend
	}
	if rc.Signature != nil {
		c.Notify.Signature = *rc.Signature
	}
	if rc.Project != nil {
		c.Tracker.Project = *rc.Project
	}
}

func lookupEditor() string {
	for _, env := range []string{"VISUAL", "EDITOR"} {
		if editor := os.Getenv(env); editor != "" {
			return editor
		}
	}
	if _, err := exec.LookPath("vi"); err == nil {
		return "vi"
	}
	return ""
}
