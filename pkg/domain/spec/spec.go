package spec

import (
	"fmt"
	"strings"
)

// IssueTitlePrefix is prepended to every spec title on the remote tracker.
const IssueTitlePrefix = "Spec: "

// Document is a spec file loaded from disk. It is immutable for the duration of a run.
type Document struct {
	ID       string    `json:"spec_id" yaml:"spec_id"`
	Title    string    `json:"title,omitempty" yaml:"title,omitempty"`
	Features []Feature `json:"features" yaml:"features"`
	Body     string    `json:"-" yaml:"-"`
	// Source is the path of the file relative to the workspace root.
	Source string `json:"source,omitempty" yaml:"-"`
}

// Feature is a named unit of acceptance criteria within a spec.
type Feature struct {
	ID     string   `json:"id" yaml:"id"`
	Accept []string `json:"accept,omitempty" yaml:"accept,omitempty"`
}

// DisplayTitle returns the title, or the spec ID when no title is set.
func (d *Document) DisplayTitle() string {
	if strings.TrimSpace(d.Title) != "" {
		return d.Title
	}
	return d.ID
}

// IssueTitle is the canonical title of the remote issue tracking this spec.
func (d *Document) IssueTitle() string {
	return IssueTitlePrefix + d.DisplayTitle()
}

// Tag is the body marker used to find the issue when its title has drifted.
func (d *Document) Tag() string {
	return "spec_id:" + d.ID
}

// FeatureIDs returns the feature ids in declaration order.
func (d *Document) FeatureIDs() []string {
	ids := make([]string, 0, len(d.Features))
	for _, f := range d.Features {
		ids = append(ids, f.ID)
	}
	return ids
}

// Validate checks the spec for structural integrity.
func (d *Document) Validate() []error {
	var errs []error
	if strings.TrimSpace(d.ID) == "" {
		errs = append(errs, fmt.Errorf("spec ID is required"))
	}
	for i, f := range d.Features {
		if strings.TrimSpace(f.ID) == "" {
			errs = append(errs, fmt.Errorf("feature at index %d missing ID", i))
		}
	}
	return errs
}

// Warnings reports problems that do not prevent syncing. Duplicate feature ids
// render as the same checklist line and share completion.
func (d *Document) Warnings() []string {
	var warnings []string
	seen := make(map[string]bool)
	for _, f := range d.Features {
		if seen[f.ID] {
			warnings = append(warnings, fmt.Sprintf("duplicate feature ID: %s", f.ID))
		}
		seen[f.ID] = true
	}
	return warnings
}
