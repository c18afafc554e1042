package github

import (
	"context"
	"fmt"

	"github.com/felixgeelhaar/specsync/pkg/domain/tracker"
)

const projectFieldQuery = `query($owner: String!, $number: Int!, $field: String!) {
  repositoryOwner(login: $owner) {
    ... on ProjectV2Owner {
      projectV2(number: $number) {
        id
        field(name: $field) {
          ... on ProjectV2SingleSelectField {
            id
            options { id name }
          }
        }
      }
    }
  }
}`

const projectIDQuery = `query($owner: String!, $number: Int!) {
  repositoryOwner(login: $owner) {
    ... on ProjectV2Owner {
      projectV2(number: $number) { id }
    }
  }
}`

const projectsByNameQuery = `query($owner: String!, $name: String!) {
  repositoryOwner(login: $owner) {
    ... on ProjectV2Owner {
      projectsV2(first: 20, query: $name) {
        nodes { id title }
      }
    }
  }
}`

const issueNodeQuery = `query($url: URI!) {
  resource(url: $url) {
    ... on Issue { id }
  }
}`

const addItemMutation = `mutation($project: ID!, $content: ID!) {
  addProjectV2ItemById(input: {projectId: $project, contentId: $content}) {
    item { id }
  }
}`

const setFieldMutation = `mutation($project: ID!, $item: ID!, $field: ID!, $option: String!) {
  updateProjectV2ItemFieldValue(input: {projectId: $project, itemId: $item, fieldId: $field, value: {singleSelectOptionId: $option}}) {
    projectV2Item { id }
  }
}`

type projectNode struct {
	ID    string `json:"id"`
	Title string `json:"title"`
	Field *struct {
		ID      string `json:"id"`
		Options []struct {
			ID   string `json:"id"`
			Name string `json:"name"`
		} `json:"options"`
	} `json:"field"`
}

type projectOwnerData struct {
	RepositoryOwner *struct {
		ProjectV2  *projectNode `json:"projectV2"`
		ProjectsV2 *struct {
			Nodes []projectNode `json:"nodes"`
		} `json:"projectsV2"`
	} `json:"repositoryOwner"`
}

func (c *Client) GetProjectField(ctx context.Context, owner string, number int, fieldName string) (*tracker.ProjectField, error) {
	data, err := graphql[projectOwnerData](ctx, c, "GetProjectField", true, projectFieldQuery, map[string]any{
		"owner":  owner,
		"number": number,
		"field":  fieldName,
	})
	if err != nil {
		return nil, err
	}
	if data.RepositoryOwner == nil || data.RepositoryOwner.ProjectV2 == nil {
		return nil, fmt.Errorf("project %s/%d: %w", owner, number, tracker.ErrProjectMetadataUnavailable)
	}
	p := data.RepositoryOwner.ProjectV2
	if p.Field == nil || p.Field.ID == "" {
		return nil, fmt.Errorf("single-select field %q on project %s/%d: %w", fieldName, owner, number, tracker.ErrProjectMetadataUnavailable)
	}

	field := &tracker.ProjectField{ProjectID: p.ID, FieldID: p.Field.ID}
	for _, o := range p.Field.Options {
		field.Options = append(field.Options, tracker.FieldOption{ID: o.ID, Name: o.Name})
	}
	return field, nil
}

func (c *Client) projectID(ctx context.Context, project tracker.ProjectRef) (string, error) {
	if !project.Legacy() {
		data, err := graphql[projectOwnerData](ctx, c, "AddProjectItem", true, projectIDQuery, map[string]any{
			"owner":  project.Owner,
			"number": project.Number,
		})
		if err != nil {
			return "", err
		}
		if data.RepositoryOwner == nil || data.RepositoryOwner.ProjectV2 == nil {
			return "", fmt.Errorf("project %s/%d: %w", project.Owner, project.Number, tracker.ErrProjectMetadataUnavailable)
		}
		return data.RepositoryOwner.ProjectV2.ID, nil
	}

	data, err := graphql[projectOwnerData](ctx, c, "AddProjectItem", true, projectsByNameQuery, map[string]any{
		"owner": project.Owner,
		"name":  project.Name,
	})
	if err != nil {
		return "", err
	}
	if data.RepositoryOwner != nil && data.RepositoryOwner.ProjectsV2 != nil {
		for _, n := range data.RepositoryOwner.ProjectsV2.Nodes {
			if n.Title == project.Name {
				return n.ID, nil
			}
		}
	}
	return "", fmt.Errorf("project %q owned by %s: %w", project.Name, project.Owner, tracker.ErrProjectMetadataUnavailable)
}

// AddProjectItem adds the issue at issueURL to the project. The API returns the
// existing item when the issue is already on the board.
func (c *Client) AddProjectItem(ctx context.Context, project tracker.ProjectRef, issueURL string) (string, error) {
	projectID, err := c.projectID(ctx, project)
	if err != nil {
		return "", err
	}

	type resourceData struct {
		Resource *struct {
			ID string `json:"id"`
		} `json:"resource"`
	}
	res, err := graphql[resourceData](ctx, c, "AddProjectItem", true, issueNodeQuery, map[string]any{"url": issueURL})
	if err != nil {
		return "", err
	}
	if res.Resource == nil || res.Resource.ID == "" {
		return "", tracker.Remote("AddProjectItem", fmt.Errorf("no issue at %s", issueURL))
	}

	type addData struct {
		AddProjectV2ItemByID struct {
			Item struct {
				ID string `json:"id"`
			} `json:"item"`
		} `json:"addProjectV2ItemById"`
	}
	added, err := graphql[addData](ctx, c, "AddProjectItem", true, addItemMutation, map[string]any{
		"project": projectID,
		"content": res.Resource.ID,
	})
	if err != nil {
		return "", err
	}
	return added.AddProjectV2ItemByID.Item.ID, nil
}

func (c *Client) SetProjectItemFieldOption(ctx context.Context, projectID, itemID, fieldID, optionID string) error {
	type setData struct {
		UpdateProjectV2ItemFieldValue struct {
			ProjectV2Item struct {
				ID string `json:"id"`
			} `json:"projectV2Item"`
		} `json:"updateProjectV2ItemFieldValue"`
	}
	_, err := graphql[setData](ctx, c, "SetProjectItemFieldOption", true, setFieldMutation, map[string]any{
		"project": projectID,
		"item":    itemID,
		"field":   fieldID,
		"option":  optionID,
	})
	return err
}
