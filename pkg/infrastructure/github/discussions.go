package github

import (
	"context"
	"fmt"
	"strings"

	"github.com/felixgeelhaar/specsync/pkg/domain/tracker"
)

const discussionSearchQuery = `query($q: String!) {
  search(query: $q, type: DISCUSSION, first: 10) {
    nodes {
      ... on Discussion { title url }
    }
  }
}`

const discussionCategoriesQuery = `query($owner: String!, $name: String!) {
  repository(owner: $owner, name: $name) {
    id
    discussionCategories(first: 50) {
      nodes { id name }
    }
  }
}`

const createDiscussionMutation = `mutation($repo: ID!, $category: ID!, $title: String!, $body: String!) {
  createDiscussion(input: {repositoryId: $repo, categoryId: $category, title: $title, body: $body}) {
    discussion { url }
  }
}`

// EnsureDiscussion returns the URL of the discussion titled title, creating it
// in category when none exists.
func (c *Client) EnsureDiscussion(ctx context.Context, title, body, category string) (string, error) {
	type searchData struct {
		Search struct {
			Nodes []struct {
				Title string `json:"title"`
				URL   string `json:"url"`
			} `json:"nodes"`
		} `json:"search"`
	}
	found, err := graphql[searchData](ctx, c, "EnsureDiscussion", true, discussionSearchQuery, map[string]any{
		"q": fmt.Sprintf("repo:%s/%s in:title %q", c.owner, c.repo, title),
	})
	if err != nil {
		return "", err
	}
	for _, n := range found.Search.Nodes {
		if n.Title == title && n.URL != "" {
			return n.URL, nil
		}
	}

	type repoData struct {
		Repository *struct {
			ID                   string `json:"id"`
			DiscussionCategories struct {
				Nodes []struct {
					ID   string `json:"id"`
					Name string `json:"name"`
				} `json:"nodes"`
			} `json:"discussionCategories"`
		} `json:"repository"`
	}
	repo, err := graphql[repoData](ctx, c, "EnsureDiscussion", true, discussionCategoriesQuery, map[string]any{
		"owner": c.owner,
		"name":  c.repo,
	})
	if err != nil {
		return "", err
	}
	if repo.Repository == nil {
		return "", tracker.Remote("EnsureDiscussion", fmt.Errorf("repository %s/%s not found", c.owner, c.repo))
	}

	categoryID := ""
	for _, n := range repo.Repository.DiscussionCategories.Nodes {
		if strings.EqualFold(n.Name, category) {
			categoryID = n.ID
			break
		}
	}
	if categoryID == "" {
		return "", fmt.Errorf("discussion category %q not found in %s/%s", category, c.owner, c.repo)
	}

	type createData struct {
		CreateDiscussion struct {
			Discussion struct {
				URL string `json:"url"`
			} `json:"discussion"`
		} `json:"createDiscussion"`
	}
	created, err := graphql[createData](ctx, c, "EnsureDiscussion", false, createDiscussionMutation, map[string]any{
		"repo":     repo.Repository.ID,
		"category": categoryID,
		"title":    title,
		"body":     body,
	})
	if err != nil {
		return "", err
	}
	return created.CreateDiscussion.Discussion.URL, nil
}
