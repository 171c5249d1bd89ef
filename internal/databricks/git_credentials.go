package databricks

import (
	"context"
	"net/http"
	"strconv"

	"github.com/databricks/databricks-sdk-go/service/workspace"
)

// GitCredential holds the Git provider credentials of the calling user.
type GitCredential struct {
	CredentialID        int64  `json:"credential_id,omitempty"`
	GitProvider         string `json:"git_provider"`
	GitUsername         string `json:"git_username,omitempty"`
	PersonalAccessToken string `json:"personal_access_token,omitempty"`
}

// ListGitCredentials returns the Git credentials of the calling user.
func (c *Client) ListGitCredentials(ctx context.Context) ([]GitCredential, error) {
	var creds []GitCredential
	err := c.call(ctx, http.MethodGet, "/api/2.0/git-credentials", func(ctx context.Context) error {
		listed, err := c.ws.GitCredentials.ListAll(ctx)
		if err != nil {
			return err
		}
		creds = make([]GitCredential, 0, len(listed))
		for _, cred := range listed {
			creds = append(creds, GitCredential{
				CredentialID: cred.CredentialId,
				GitProvider:  cred.GitProvider,
				GitUsername:  cred.GitUsername,
			})
		}
		return nil
	})
	return creds, err
}

// CreateGitCredential stores a new Git credential.
func (c *Client) CreateGitCredential(ctx context.Context, cred GitCredential) (GitCredential, error) {
	var created GitCredential
	err := c.call(ctx, http.MethodPost, "/api/2.0/git-credentials", func(ctx context.Context) error {
		res, err := c.ws.GitCredentials.Create(ctx, workspace.CreateCredentials{
			GitProvider:         cred.GitProvider,
			GitUsername:         cred.GitUsername,
			PersonalAccessToken: cred.PersonalAccessToken,
		})
		if err != nil {
			return err
		}
		created = GitCredential{
			CredentialID: res.CredentialId,
			GitProvider:  res.GitProvider,
			GitUsername:  res.GitUsername,
		}
		return nil
	})
	return created, err
}

// UpdateGitCredential replaces the credential identified by cred.CredentialID.
func (c *Client) UpdateGitCredential(ctx context.Context, cred GitCredential) error {
	path := "/api/2.0/git-credentials/" + strconv.FormatInt(cred.CredentialID, 10)
	return c.call(ctx, http.MethodPatch, path, func(ctx context.Context) error {
		return c.ws.GitCredentials.Update(ctx, workspace.UpdateCredentials{
			CredentialId:        cred.CredentialID,
			GitProvider:         cred.GitProvider,
			GitUsername:         cred.GitUsername,
			PersonalAccessToken: cred.PersonalAccessToken,
		})
	})
}
