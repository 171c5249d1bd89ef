// Package deploy applies validated pipeline configurations to a Databricks workspace. It keeps the
// Pushcart runtime repo and secrets up to date, writes stage definitions to metadata tables and
// reconciles the Delta Live Tables pipelines and jobs Pushcart manages.
package deploy

import (
	"context"
	"io"

	"github.com/pushcart/pushcart-deploy/internal/databricks"
)

// ReposAPI is the part of the workspace API used to manage the runtime repo.
type ReposAPI interface {
	Mkdirs(ctx context.Context, path string) error
	ListRepos(ctx context.Context, pathPrefix string) ([]databricks.Repo, error)
	CreateRepo(ctx context.Context, req databricks.CreateRepoRequest) (databricks.Repo, error)
	UpdateRepo(ctx context.Context, id int64, req databricks.UpdateRepoRequest) error
	ListGitCredentials(ctx context.Context) ([]databricks.GitCredential, error)
	CreateGitCredential(ctx context.Context, cred databricks.GitCredential) (databricks.GitCredential, error)
	UpdateGitCredential(ctx context.Context, cred databricks.GitCredential) error
}

// SecretsAPI is the part of the workspace API used to manage secrets.
type SecretsAPI interface {
	ListSecretScopes(ctx context.Context) ([]databricks.SecretScope, error)
	CreateSecretScope(ctx context.Context, scope, initialManagePrincipal string) error
	PutSecret(ctx context.Context, scope, key, value string) error
}

// PipelinesAPI is the part of the workspace API used to manage Delta Live Tables pipelines.
type PipelinesAPI interface {
	ListPipelines(ctx context.Context) ([]databricks.PipelineStateInfo, error)
	GetPipeline(ctx context.Context, id string) (databricks.Pipeline, error)
	CreatePipeline(ctx context.Context, settings map[string]interface{}) (string, error)
	EditPipeline(ctx context.Context, id string, settings map[string]interface{}) error
	DeletePipeline(ctx context.Context, id string) error
	DeletePath(ctx context.Context, path string, recursive bool) error
}

// JobsAPI is the part of the workspace API used to manage jobs.
type JobsAPI interface {
	ListJobs(ctx context.Context, name string) ([]databricks.Job, error)
	CreateJob(ctx context.Context, settings map[string]interface{}) (int64, error)
	ResetJob(ctx context.Context, id int64, settings map[string]interface{}) error
	DeleteJob(ctx context.Context, id int64) error
}

// MetadataAPI is the part of the workspace API used to write metadata tables.
type MetadataAPI interface {
	WaitClusterRunning(ctx context.Context, id string) (databricks.ClusterInfo, error)
	PutFile(ctx context.Context, path string, r io.Reader, overwrite bool) error
	NewCommandRunner(ctx context.Context, clusterID, language string) (*databricks.CommandRunner, error)
}
