package databricks

import (
	"context"
	"net/http"

	"github.com/databricks/databricks-sdk-go/service/workspace"
)

// ScopeBackendDatabricks is the Databricks managed secret scope backend.
const ScopeBackendDatabricks = string(workspace.ScopeBackendTypeDatabricks)

// SecretScope is a named collection of secrets.
type SecretScope struct {
	Name        string `json:"name"`
	BackendType string `json:"backend_type,omitempty"`
}

// ListSecretScopes returns every secret scope of the workspace.
func (c *Client) ListSecretScopes(ctx context.Context) ([]SecretScope, error) {
	var scopes []SecretScope
	err := c.call(ctx, http.MethodGet, "/api/2.0/secrets/scopes/list", func(ctx context.Context) error {
		listed, err := c.ws.Secrets.ListScopesAll(ctx)
		if err != nil {
			return err
		}
		scopes = make([]SecretScope, 0, len(listed))
		for _, s := range listed {
			scopes = append(scopes, SecretScope{Name: s.Name, BackendType: string(s.BackendType)})
		}
		return nil
	})
	return scopes, err
}

// CreateSecretScope creates a Databricks backed secret scope. initialManagePrincipal is granted
// MANAGE permission on the scope.
func (c *Client) CreateSecretScope(ctx context.Context, scope, initialManagePrincipal string) error {
	return c.call(ctx, http.MethodPost, "/api/2.0/secrets/scopes/create", func(ctx context.Context) error {
		return c.ws.Secrets.CreateScope(ctx, workspace.CreateScope{
			Scope:                  scope,
			InitialManagePrincipal: initialManagePrincipal,
			ScopeBackendType:       workspace.ScopeBackendTypeDatabricks,
		})
	})
}

// PutSecret creates or overwrites the secret key in scope.
func (c *Client) PutSecret(ctx context.Context, scope, key, value string) error {
	return c.call(ctx, http.MethodPost, "/api/2.0/secrets/put", func(ctx context.Context) error {
		return c.ws.Secrets.PutSecret(ctx, workspace.PutSecret{Scope: scope, Key: key, StringValue: value})
	})
}
