// Package issuebody renders spec documents into the checklist body stored on a
// remote issue and parses that body back into completion state.
//
// The body is the only persisted record of progress. Its grammar is versionless:
// lines that are not understood are ignored, so older and hand-edited bodies
// stay readable.
package issuebody

import (
	"regexp"
	"strings"

	"github.com/felixgeelhaar/specsync/pkg/domain/spec"
)

// Section headers and line prefixes of the body format.
const (
	LinksHeader    = "Links:"
	PhasesHeader   = "Phases:"
	FeaturesHeader = "Features:"

	adrLabel  = "ADR:"
	wikiLabel = "Wiki:"

	checked   = "- [x] "
	unchecked = "- [ ] "
)

var (
	checkedLine = regexp.MustCompile(`(?i)-\s\[x\]`)
	adrLink     = regexp.MustCompile(`ADR:\s*(https://\S+)`)
	wikiLink    = regexp.MustCompile(`Wiki:\s*(https://\S+)`)
)

// Links are optional cross-references rendered at the top of the body.
type Links struct {
	DesignReviewURL string `json:"adr,omitempty"`
	WikiURL         string `json:"wiki,omitempty"`
}

// Empty reports whether no link is set.
func (l Links) Empty() bool {
	return l.DesignReviewURL == "" && l.WikiURL == ""
}

// Merge returns l with every field that is set in override replaced.
func (l Links) Merge(override Links) Links {
	if override.DesignReviewURL != "" {
		l.DesignReviewURL = override.DesignReviewURL
	}
	if override.WikiURL != "" {
		l.WikiURL = override.WikiURL
	}
	return l
}

// State is the completion state recovered from a remote body.
type State struct {
	CompletedFeatures map[string]bool
	CompletedPhases   map[spec.Phase]bool
	Links             Links
}

// NewState returns an empty state.
func NewState() State {
	return State{
		CompletedFeatures: make(map[string]bool),
		CompletedPhases:   make(map[spec.Phase]bool),
	}
}

// CompleteAll returns a state with every feature of doc and every phase checked.
func CompleteAll(doc *spec.Document, links Links) State {
	s := NewState()
	for _, f := range doc.Features {
		s.CompletedFeatures[f.ID] = true
	}
	for _, p := range spec.Phases() {
		s.CompletedPhases[p] = true
	}
	s.Links = links
	return s
}

// Progress counts checked lines of doc against the total rendered checklist lines.
func (s State) Progress(doc *spec.Document) (completed, total int) {
	for _, f := range doc.Features {
		total++
		if s.CompletedFeatures[f.ID] {
			completed++
		}
	}
	for _, p := range spec.Phases() {
		total++
		if s.CompletedPhases[p] {
			completed++
		}
	}
	return completed, total
}

// Render produces the issue body for doc. It is deterministic: equal inputs
// give byte-identical output.
func Render(doc *spec.Document, state State) string {
	var b strings.Builder

	b.WriteString(doc.Tag() + "\n")
	if doc.Source != "" {
		b.WriteString("Source: " + doc.Source + "\n")
	}
	b.WriteString("\n")

	if !state.Links.Empty() {
		b.WriteString(LinksHeader + "\n")
		if state.Links.DesignReviewURL != "" {
			b.WriteString(adrLabel + " " + state.Links.DesignReviewURL + "\n")
		}
		if state.Links.WikiURL != "" {
			b.WriteString(wikiLabel + " " + state.Links.WikiURL + "\n")
		}
		b.WriteString("\n")
	}

	b.WriteString(PhasesHeader + "\n")
	for _, p := range spec.Phases() {
		b.WriteString(checkbox(state.CompletedPhases[p]) + string(p) + "\n")
	}
	b.WriteString("\n")

	b.WriteString(FeaturesHeader + "\n")
	for _, f := range doc.Features {
		b.WriteString(checkbox(state.CompletedFeatures[f.ID]) + f.ID)
		if len(f.Accept) > 0 {
			b.WriteString(" (accept: " + strings.Join(f.Accept, "; ") + ")")
		}
		b.WriteString("\n")
	}

	return b.String()
}

func checkbox(done bool) string {
	if done {
		return checked
	}
	return unchecked
}

// Parse recovers completion state from body for the features of doc.
//
// A checked line marks every feature id and phase name that occurs in it as a
// substring. An id contained in another id, or in surrounding text such as the
// acceptance criteria, is therefore also marked. Parse never fails; lines it
// does not understand are skipped.
func Parse(body string, doc *spec.Document) State {
	state := NewState()

	for _, line := range strings.Split(body, "\n") {
		line = strings.TrimRight(line, "\r")

		if state.Links.DesignReviewURL == "" {
			if m := adrLink.FindStringSubmatch(line); m != nil {
				state.Links.DesignReviewURL = m[1]
			}
		}
		if state.Links.WikiURL == "" {
			if m := wikiLink.FindStringSubmatch(line); m != nil {
				state.Links.WikiURL = m[1]
			}
		}

		if !checkedLine.MatchString(line) {
			continue
		}
		for _, f := range doc.Features {
			if f.ID != "" && strings.Contains(line, f.ID) {
				state.CompletedFeatures[f.ID] = true
			}
		}
		for _, p := range spec.Phases() {
			if strings.Contains(line, string(p)) {
				state.CompletedPhases[p] = true
			}
		}
	}

	return state
}

// Recognize reports whether body follows the checklist format closely enough
// for its state to be trusted. Bodies written by older versions carry only a
// Features section and are still recognized.
func Recognize(body string) bool {
	for _, line := range strings.Split(body, "\n") {
		switch strings.TrimSpace(line) {
		case PhasesHeader, FeaturesHeader:
			return true
		}
	}
	return false
}
