// Package config holds the workspace configuration read from .specs.yml.
package config

import (
	"fmt"
	"os"
	"strings"

	"github.com/felixgeelhaar/specsync/pkg/domain/spec"
	"github.com/felixgeelhaar/specsync/pkg/domain/tracker"
)

// FileName is the configuration file at the workspace root.
const FileName = ".specs.yml"

// DefaultStatusField is the project field holding the board column.
const DefaultStatusField = "Status"

// Config is the full workspace configuration.
type Config struct {
	Specs   SpecsConfig   `yaml:"specs" json:"specs"`
	GitHub  GitHubConfig  `yaml:"github" json:"github"`
	Codex   CodexConfig   `yaml:"codex" json:"codex"`
	SpecKit SpecKitConfig `yaml:"spec_kit" json:"spec_kit"`
}

// SpecsConfig locates spec files.
type SpecsConfig struct {
	Paths  []string `yaml:"paths" json:"paths"`
	Format string   `yaml:"format,omitempty" json:"format,omitempty"`
}

// GitHubConfig configures the issue tracker and project board.
type GitHubConfig struct {
	// Repo is "owner/name". Falls back to GITHUB_REPOSITORY, then GITHUB_REPO.
	Repo string `yaml:"repo,omitempty" json:"repo,omitempty"`

	// ProjectName selects a board by title only (no status updates).
	ProjectName string `yaml:"project_name,omitempty" json:"project_name,omitempty"`
	// ProjectOwner and ProjectNumber select a board with status updates.
	ProjectOwner  string `yaml:"project_owner,omitempty" json:"project_owner,omitempty"`
	ProjectNumber int    `yaml:"project_number,omitempty" json:"project_number,omitempty"`

	StatusField   string            `yaml:"status_field,omitempty" json:"status_field,omitempty"`
	StatusOptions map[string]string `yaml:"status_options,omitempty" json:"status_options,omitempty"`

	IssueLabels        []string `yaml:"issue_labels" json:"issue_labels"`
	DiscussionCategory string   `yaml:"discussion_category,omitempty" json:"discussion_category,omitempty"`

	// MergeMethod is used by ship: merge, squash or rebase.
	MergeMethod string `yaml:"merge_method,omitempty" json:"merge_method,omitempty"`

	// APIURL and WebURL point at a GitHub Enterprise host.
	APIURL string `yaml:"api_url,omitempty" json:"api_url,omitempty"`
	WebURL string `yaml:"web_url,omitempty" json:"web_url,omitempty"`
}

// MergeMethods lists the accepted values of merge_method.
var MergeMethods = []string{"merge", "squash", "rebase"}

// CodexConfig lists paths handed to coding agents as context.
type CodexConfig struct {
	ContextPaths []string `yaml:"context_paths" json:"context_paths"`
}

// SpecKitConfig locates upstream spec templates.
type SpecKitConfig struct {
	Repo      string   `yaml:"repo" json:"repo"`
	Ref       string   `yaml:"ref" json:"ref"`
	Templates []string `yaml:"templates" json:"templates"`
}

// Default returns the configuration used when no file exists.
func Default() *Config {
	return &Config{
		Specs: SpecsConfig{
			Paths:  []string{"specs/**/*.md"},
			Format: "markdown+yaml",
		},
		GitHub: GitHubConfig{
			StatusField:        DefaultStatusField,
			IssueLabels:        []string{"spec"},
			DiscussionCategory: "Ideas",
			MergeMethod:        "squash",
		},
		Codex: CodexConfig{
			ContextPaths: []string{"src", "tests"},
		},
		SpecKit: SpecKitConfig{
			Repo: "github/spec-kit",
			Ref:  "main",
			Templates: []string{
				"templates/spec-template.md",
				"templates/plan-template.md",
				"templates/tasks-template.md",
				"spec-driven.md",
			},
		},
	}
}

// Normalize fills fields a partial file left empty with their defaults.
func (c *Config) Normalize() {
	d := Default()
	if len(c.Specs.Paths) == 0 {
		c.Specs.Paths = d.Specs.Paths
	}
	if c.Specs.Format == "" {
		c.Specs.Format = d.Specs.Format
	}
	if c.GitHub.StatusField == "" {
		c.GitHub.StatusField = d.GitHub.StatusField
	}
	if c.GitHub.IssueLabels == nil {
		c.GitHub.IssueLabels = d.GitHub.IssueLabels
	}
	if c.GitHub.DiscussionCategory == "" {
		c.GitHub.DiscussionCategory = d.GitHub.DiscussionCategory
	}
	if c.GitHub.MergeMethod == "" {
		c.GitHub.MergeMethod = d.GitHub.MergeMethod
	}
	if c.Codex.ContextPaths == nil {
		c.Codex.ContextPaths = d.Codex.ContextPaths
	}
	if c.SpecKit.Repo == "" {
		c.SpecKit.Repo = d.SpecKit.Repo
	}
	if c.SpecKit.Ref == "" {
		c.SpecKit.Ref = d.SpecKit.Ref
	}
	if len(c.SpecKit.Templates) == 0 {
		c.SpecKit.Templates = d.SpecKit.Templates
	}
}

// RepoSlug returns owner and name of the tracked repository.
func (g GitHubConfig) RepoSlug() (owner, name string, err error) {
	repo := g.Repo
	if repo == "" {
		repo = os.Getenv("GITHUB_REPOSITORY")
	}
	if repo == "" {
		repo = os.Getenv("GITHUB_REPO")
	}
	parts := strings.Split(strings.TrimSpace(repo), "/")
	if len(parts) != 2 || parts[0] == "" || parts[1] == "" {
		return "", "", fmt.Errorf("github.repo must be \"owner/name\", got %q", repo)
	}
	return parts[0], parts[1], nil
}

// Project returns the configured board. The owner defaults to the repository owner.
func (g GitHubConfig) Project() tracker.ProjectRef {
	ref := tracker.ProjectRef{
		Owner:  g.ProjectOwner,
		Number: g.ProjectNumber,
		Name:   g.ProjectName,
	}
	if ref.Owner == "" {
		if owner, _, err := g.RepoSlug(); err == nil {
			ref.Owner = owner
		}
	}
	return ref
}

// StatusOption returns the option name configured for stage, or the literal default.
func (g GitHubConfig) StatusOption(stage spec.Stage) string {
	if name := g.StatusOptions[string(stage)]; name != "" {
		return name
	}
	switch stage {
	case spec.StageInProgress:
		return "In Progress"
	case spec.StageDone:
		return "Done"
	default:
		return "Backlog"
	}
}

// StatusFieldName returns the configured status field or the default.
func (g GitHubConfig) StatusFieldName() string {
	if g.StatusField != "" {
		return g.StatusField
	}
	return DefaultStatusField
}

// MergeMethodName returns the validated merge method, defaulting to squash.
func (g GitHubConfig) MergeMethodName() (string, error) {
	method := strings.ToLower(strings.TrimSpace(g.MergeMethod))
	if method == "" {
		return "squash", nil
	}
	for _, m := range MergeMethods {
		if m == method {
			return method, nil
		}
	}
	return "", fmt.Errorf("github.merge_method must be one of %s, got %q", strings.Join(MergeMethods, ", "), g.MergeMethod)
}
