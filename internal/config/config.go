package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"
)

// DefaultFile is the config file looked up in the working directory
const DefaultFile = "daykit.yml"

// ProtectionConfig specifies the branch protection applied to the base branch
type ProtectionConfig struct {
	Strict                       bool `yaml:"strict"`
	EnforceAdmins                bool `yaml:"enforce_admins"`
	RequiredApprovingReviewCount int  `yaml:"required_approving_review_count"`
	DismissStaleReviews          bool `yaml:"dismiss_stale_reviews"`
}

// Config represents the daykit.yml configuration shared by daykit and prflow
type Config struct {
	ProjectRoot  string           `yaml:"project_root"`
	LogFile      string           `yaml:"log_file"`      // relative to project_root unless absolute
	HelperBinary string           `yaml:"helper_binary"` // invoked by the generated git helper script
	BaseBranch   string           `yaml:"base_branch"`
	BranchPrefix string           `yaml:"branch_prefix"`
	Owner        string           `yaml:"owner,omitempty"` // empty = detect from git remote
	Repo         string           `yaml:"repo,omitempty"`
	Assignee     string           `yaml:"assignee"`
	Labels       []string         `yaml:"labels"`
	MaxCommits   int              `yaml:"max_commits"`
	Protection   ProtectionConfig `yaml:"protection"`
}

// Default returns the configuration used when no file is present
func Default() *Config {
	return &Config{
		ProjectRoot:  ".",
		LogFile:      "automation.log",
		HelperBinary: "daykit",
		BaseBranch:   "develop",
		BranchPrefix: "feature/",
		Assignee:     "@me",
		Labels:       []string{"security", "enhancement", "ready-for-review"},
		MaxCommits:   10,
		Protection: ProtectionConfig{
			Strict:                       true,
			EnforceAdmins:                false,
			RequiredApprovingReviewCount: 1,
			DismissStaleReviews:          true,
		},
	}
}

// Load reads path on top of the defaults.
// A missing file is not an error unless required is true.
func Load(path string, required bool) (*Config, error) {
	cfg := Default()

	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) && !required {
			return cfg, nil
		}
		return nil, fmt.Errorf("failed to read %s: %w", path, err)
	}

	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse %s: %w", path, err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration in %s: %w", path, err)
	}

	return cfg, nil
}

// Validate performs strict validation on the configuration
func (c *Config) Validate() error {
	if strings.TrimSpace(c.ProjectRoot) == "" {
		return fmt.Errorf("project_root is required")
	}

	if strings.TrimSpace(c.LogFile) == "" {
		return fmt.Errorf("log_file is required")
	}

	if strings.TrimSpace(c.HelperBinary) == "" {
		return fmt.Errorf("helper_binary is required")
	}

	if strings.TrimSpace(c.BaseBranch) == "" {
		return fmt.Errorf("base_branch is required")
	}

	if strings.ContainsAny(c.BaseBranch, " \t") || strings.Contains(c.BaseBranch, "..") {
		return fmt.Errorf("invalid base_branch: %s", c.BaseBranch)
	}

	if c.BranchPrefix == "" {
		return fmt.Errorf("branch_prefix is required")
	}

	if c.MaxCommits <= 0 {
		return fmt.Errorf("max_commits must be > 0, got %d", c.MaxCommits)
	}

	// owner and repo are detected together; a half-specified pair is ambiguous
	if (c.Owner == "") != (c.Repo == "") {
		return fmt.Errorf("owner and repo must be set together (owner=%q, repo=%q)", c.Owner, c.Repo)
	}

	for i, label := range c.Labels {
		if strings.TrimSpace(label) == "" || strings.Contains(label, ",") {
			return fmt.Errorf("labels[%d]: invalid label %q", i, label)
		}
	}

	if c.Protection.RequiredApprovingReviewCount < 0 || c.Protection.RequiredApprovingReviewCount > 6 {
		return fmt.Errorf("protection.required_approving_review_count must be between 0 and 6, got %d",
			c.Protection.RequiredApprovingReviewCount)
	}

	return nil
}

// LogPath returns the log file location, resolved against the project root
func (c *Config) LogPath() string {
	if filepath.IsAbs(c.LogFile) {
		return c.LogFile
	}
	return filepath.Join(c.ProjectRoot, c.LogFile)
}
