package databricks

import (
	"context"
	"net/http"
	"strconv"

	"github.com/databricks/databricks-sdk-go/service/workspace"
)

// Repo is a Git folder in the workspace.
type Repo struct {
	ID           int64  `json:"id"`
	Path         string `json:"path"`
	URL          string `json:"url"`
	Provider     string `json:"provider"`
	Branch       string `json:"branch,omitempty"`
	HeadCommitID string `json:"head_commit_id,omitempty"`
}

// CreateRepoRequest clones a Git repository into the workspace.
type CreateRepoRequest struct {
	URL      string `json:"url"`
	Provider string `json:"provider"`
	Path     string `json:"path"`
}

// UpdateRepoRequest checks out a branch or a tag. Exactly one of them should be set.
type UpdateRepoRequest struct {
	Branch string `json:"branch,omitempty"`
	Tag    string `json:"tag,omitempty"`
}

func repoFromSDK(info *workspace.RepoInfo) Repo {
	return Repo{
		ID:           info.Id,
		Path:         info.Path,
		URL:          info.Url,
		Provider:     info.Provider,
		Branch:       info.Branch,
		HeadCommitID: info.HeadCommitId,
	}
}

// ListRepos returns every repo whose path starts with pathPrefix.
func (c *Client) ListRepos(ctx context.Context, pathPrefix string) ([]Repo, error) {
	var repos []Repo
	err := c.call(ctx, http.MethodGet, "/api/2.0/repos", func(ctx context.Context) error {
		listed, err := c.ws.Repos.ListAll(ctx, workspace.ListReposRequest{PathPrefix: pathPrefix})
		if err != nil {
			return err
		}
		repos = make([]Repo, 0, len(listed))
		for i := range listed {
			repos = append(repos, repoFromSDK(&listed[i]))
		}
		return nil
	})
	return repos, err
}

// GetRepo returns the repo with id.
func (c *Client) GetRepo(ctx context.Context, id int64) (Repo, error) {
	var repo Repo
	err := c.call(ctx, http.MethodGet, "/api/2.0/repos/"+strconv.FormatInt(id, 10), func(ctx context.Context) error {
		info, err := c.ws.Repos.GetByRepoId(ctx, id)
		if err != nil {
			return err
		}
		repo = repoFromSDK(info)
		return nil
	})
	return repo, err
}

// CreateRepo clones a repository into the workspace.
func (c *Client) CreateRepo(ctx context.Context, req CreateRepoRequest) (Repo, error) {
	var repo Repo
	err := c.call(ctx, http.MethodPost, "/api/2.0/repos", func(ctx context.Context) error {
		info, err := c.ws.Repos.Create(ctx, workspace.CreateRepo{Url: req.URL, Provider: req.Provider, Path: req.Path})
		if err != nil {
			return err
		}
		repo = repoFromSDK(info)
		return nil
	})
	return repo, err
}

// UpdateRepo checks out the branch or tag of req in the repo with id.
func (c *Client) UpdateRepo(ctx context.Context, id int64, req UpdateRepoRequest) error {
	return c.call(ctx, http.MethodPatch, "/api/2.0/repos/"+strconv.FormatInt(id, 10), func(ctx context.Context) error {
		return c.ws.Repos.Update(ctx, workspace.UpdateRepo{RepoId: id, Branch: req.Branch, Tag: req.Tag})
	})
}
