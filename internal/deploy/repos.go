package deploy

import (
	"context"
	"strings"

	"github.com/go-logr/logr"
	"github.com/pkg/errors"
	"github.com/pushcart/pushcart-deploy/internal/databricks"
	"github.com/pushcart/pushcart-deploy/internal/metrics"
	"github.com/pushcart/pushcart-deploy/internal/settings"
)

// Environment variables holding the Git credentials used to clone the runtime repo.
const (
	EnvGitUsername = "PUSHCART_CONFIG_GIT_USERNAME"
	EnvGitToken    = "PUSHCART_CONFIG_GIT_TOKEN"
	EnvGitProvider = "PUSHCART_CONFIG_GIT_PROVIDER"
)

var (
	// ErrNoGitCredentials indicates the Git credential environment variables are not set.
	ErrNoGitCredentials = errors.New("git credentials not configured, set " + EnvGitUsername + " and " + EnvGitToken)

	// ErrGitURLRequired indicates the repo does not exist and no git_url was configured to create it.
	ErrGitURLRequired = errors.New("repo does not exist and git_url is not configured")

	// ErrRepoNotInitialized indicates Update was called before GetOrCreateRepo.
	ErrRepoNotInitialized = errors.New("repo not initialized, call GetOrCreateRepo first")
)

// ReposManager keeps the runtime repo of the workspace checked out at the configured branch or tag.
type ReposManager struct {
	api      ReposAPI
	settings settings.RepoSettings
	getenv   func(string) string
	log      logr.Logger
	metrics  *metrics.Recorder

	repoID int64
}

// NewReposManager creates a ReposManager. getenv provides the Git credential environment variables.
func NewReposManager(
	api ReposAPI,
	repo settings.RepoSettings,
	getenv func(string) string,
	logger logr.Logger,
	recorder *metrics.Recorder,
) *ReposManager {
	return &ReposManager{
		api:      api,
		settings: repo,
		getenv:   getenv,
		log:      logger.WithName("repos"),
		metrics:  recorder,
	}
}

// RepoPath returns the workspace path of the repo.
func (m *ReposManager) RepoPath() string {
	return m.settings.RepoPath()
}

// GetOrCreateGitCredentials stores the Git credentials from the environment in the workspace and
// returns their id. Credentials already stored for the same provider are replaced.
func (m *ReposManager) GetOrCreateGitCredentials(ctx context.Context) (int64, error) {
	username := m.getenv(EnvGitUsername)
	token := m.getenv(EnvGitToken)
	if username == "" || token == "" {
		return 0, ErrNoGitCredentials
	}

	provider := m.getenv(EnvGitProvider)
	if provider == "" {
		provider = m.settings.GitProvider
	}

	cred := databricks.GitCredential{
		GitProvider:         provider,
		GitUsername:         username,
		PersonalAccessToken: token,
	}

	existing, err := m.api.ListGitCredentials(ctx)
	if err != nil {
		return 0, errors.Wrap(err, "list git credentials")
	}

	for _, e := range existing {
		if strings.EqualFold(e.GitProvider, provider) {
			cred.CredentialID = e.CredentialID
			if err := m.api.UpdateGitCredential(ctx, cred); err != nil {
				return 0, errors.Wrap(err, "update git credentials")
			}
			m.metrics.Resource(metrics.KindGitCredential, metrics.ActionUpdate)
			m.log.Info("updated git credentials", "provider", provider, "credential_id", e.CredentialID)
			return e.CredentialID, nil
		}
	}

	created, err := m.api.CreateGitCredential(ctx, cred)
	if err != nil {
		return 0, errors.Wrap(err, "create git credentials")
	}
	m.metrics.Resource(metrics.KindGitCredential, metrics.ActionCreate)
	m.log.Info("created git credentials", "provider", provider, "credential_id", created.CredentialID)

	return created.CredentialID, nil
}

// GetOrCreateRepo finds the repo at the configured path, cloning it from git_url when missing,
// and returns its id.
func (m *ReposManager) GetOrCreateRepo(ctx context.Context) (int64, error) {
	path := m.settings.RepoPath()

	repos, err := m.api.ListRepos(ctx, path)
	if err != nil {
		return 0, errors.Wrap(err, "list repos")
	}

	for _, r := range repos {
		if r.Path == path {
			m.repoID = r.ID
			m.log.Info("found repo", "path", path, "repo_id", r.ID)
			return r.ID, nil
		}
	}

	if m.settings.GitURL == "" {
		return 0, errors.Wrap(ErrGitURLRequired, path)
	}

	if err := m.api.Mkdirs(ctx, m.settings.RepoFolder); err != nil {
		return 0, errors.Wrapf(err, "create repo folder %v", m.settings.RepoFolder)
	}

	repo, err := m.api.CreateRepo(ctx, databricks.CreateRepoRequest{
		URL:      m.settings.GitURL,
		Provider: m.settings.GitProvider,
		Path:     path,
	})
	if err != nil {
		return 0, errors.Wrapf(err, "create repo %v", path)
	}
	m.metrics.Resource(metrics.KindRepo, metrics.ActionCreate)
	m.log.Info("created repo", "path", path, "repo_id", repo.ID, "url", m.settings.GitURL)

	m.repoID = repo.ID
	return repo.ID, nil
}

// Update checks out the configured tag or, when there is none, the configured branch.
func (m *ReposManager) Update(ctx context.Context) error {
	if m.repoID == 0 {
		return ErrRepoNotInitialized
	}

	req := databricks.UpdateRepoRequest{Branch: m.settings.GitBranch}
	if m.settings.GitTag != "" {
		req = databricks.UpdateRepoRequest{Tag: m.settings.GitTag}
	}

	if err := m.api.UpdateRepo(ctx, m.repoID, req); err != nil {
		return errors.Wrapf(err, "update repo %v", m.settings.RepoPath())
	}
	m.metrics.Resource(metrics.KindRepo, metrics.ActionUpdate)
	m.log.Info("updated repo", "repo_id", m.repoID, "branch", req.Branch, "tag", req.Tag)

	return nil
}
