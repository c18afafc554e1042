package application

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/felixgeelhaar/specsync/pkg/domain/issuebody"
	"github.com/felixgeelhaar/specsync/pkg/domain/spec"
	"github.com/felixgeelhaar/specsync/pkg/domain/tracker"
)

// ReviewOptions sets the cross-links of a spec issue.
type ReviewOptions struct {
	ADRURL  string
	WikiURL string
	// OpenDiscussion creates a design-review discussion when no ADR link is given.
	OpenDiscussion bool
	Category       string
	Labels         []string
}

// ReviewResult reports a review run.
type ReviewResult struct {
	IssueNumber   int
	DiscussionURL string
}

// ReviewService links a spec issue to its design review and wiki page.
type ReviewService struct {
	discussions tracker.Discussions
	sync        *SyncService
	logger      *slog.Logger
}

func NewReviewService(discussions tracker.Discussions, sync *SyncService, logger *slog.Logger) *ReviewService {
	if logger == nil {
		logger = slog.Default()
	}
	return &ReviewService{discussions: discussions, sync: sync, logger: logger}
}

// DiscussionTitle is the title of the design-review discussion for doc.
func DiscussionTitle(doc *spec.Document) string {
	return "Design review: " + doc.DisplayTitle()
}

func discussionBody(doc *spec.Document) string {
	body := fmt.Sprintf("Design review for spec `%s`.\n", doc.ID)
	if doc.Source != "" {
		body += fmt.Sprintf("\nSource: %s\n", doc.Source)
	}
	if len(doc.Features) > 0 {
		body += "\nFeatures:\n"
		for _, f := range doc.Features {
			body += "- " + f.ID + "\n"
		}
	}
	return body
}

// Review updates the links on the issue of doc, creating the issue when needed.
// Links that are not given keep their remote value.
func (s *ReviewService) Review(ctx context.Context, doc *spec.Document, opts ReviewOptions) (*ReviewResult, error) {
	if err := s.sync.tracker.EnsureAuth(ctx); err != nil {
		return nil, err
	}

	result := &ReviewResult{}
	links := issuebody.Links{DesignReviewURL: opts.ADRURL, WikiURL: opts.WikiURL}

	if opts.OpenDiscussion && links.DesignReviewURL == "" {
		url, err := s.discussions.EnsureDiscussion(ctx, DiscussionTitle(doc), discussionBody(doc), opts.Category)
		if err != nil {
			return nil, fmt.Errorf("failed to open design review for spec %s: %w", doc.ID, err)
		}
		s.logger.Debug("design review discussion", "spec_id", doc.ID, "url", url)
		result.DiscussionURL = url
		links.DesignReviewURL = url
	}

	number, err := s.sync.Upsert(ctx, doc, opts.Labels, links)
	if err != nil {
		return nil, err
	}
	result.IssueNumber = number
	return result, nil
}
