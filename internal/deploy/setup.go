package deploy

import (
	"context"
	"sort"

	"github.com/go-logr/logr"
	"github.com/google/uuid"
	"github.com/pkg/errors"
	"github.com/pushcart/pushcart-deploy/internal/databricks"
	"github.com/pushcart/pushcart-deploy/internal/metadata"
	"github.com/pushcart/pushcart-deploy/internal/metrics"
	"github.com/pushcart/pushcart-deploy/internal/settings"
	"github.com/spf13/afero"
)

// Report describes a completed deployment.
type Report struct {
	DeploymentID string             `json:"deployment_id"`
	Workspace    string             `json:"workspace"`
	MetadataRows map[string]int     `json:"metadata_rows"`
	RepoID       int64              `json:"repo_id"`
	Secrets      int                `json:"secrets"`
	Pipelines    []DeployedPipeline `json:"pipelines"`
	JobIDs       []int64            `json:"job_ids"`
	Deleted      []ManagedPipeline  `json:"deleted"`
}

// RepoPlan describes the runtime repo a deployment would check out.
type RepoPlan struct {
	Path   string `json:"path"`
	URL    string `json:"url,omitempty"`
	Branch string `json:"branch,omitempty"`
	Tag    string `json:"tag,omitempty"`
	Exists bool   `json:"exists"`
}

// Plan describes what a deployment would change.
type Plan struct {
	Workspace    string         `json:"workspace"`
	MetadataRows map[string]int `json:"metadata_rows"`
	Repo         RepoPlan       `json:"repo"`
	SecretScope  string         `json:"secret_scope"`
	Secrets      []string       `json:"secrets"`
	Pipelines    PipelinePlan   `json:"pipelines"`
}

// Setup deploys a configuration directory to a workspace.
type Setup struct {
	fs        afero.Fs
	configDir string
	client    *databricks.Client
	log       logr.Logger
	metrics   *metrics.Recorder

	// Getenv looks up the Git credential environment variables.
	Getenv func(string) string

	// NewDeploymentID generates the id tagging the metadata rows of a deployment.
	NewDeploymentID func() string
}

// NewSetup creates a Setup deploying configDir with client. Getenv defaults to returning empty
// strings; callers wire it to the process environment.
func NewSetup(
	fs afero.Fs,
	configDir string,
	client *databricks.Client,
	logger logr.Logger,
	recorder *metrics.Recorder,
) *Setup {
	return &Setup{
		fs:              fs,
		configDir:       configDir,
		client:          client,
		log:             logger,
		metrics:         recorder,
		Getenv:          func(string) string { return "" },
		NewDeploymentID: uuid.NewString,
	}
}

// Deploy writes the metadata tables, brings the runtime repo and secrets up to date and
// reconciles the pipelines and jobs of the workspace with the configuration directory.
func (s *Setup) Deploy(ctx context.Context) (Report, error) {
	configs, repo, err := s.prepare(ctx)
	if err != nil {
		return Report{}, err
	}

	report := Report{DeploymentID: s.NewDeploymentID(), Workspace: s.client.Host()}
	log := s.log.WithValues("deployment_id", report.DeploymentID)
	log.Info("deploying pushcart", "workspace", report.Workspace, "pipelines", len(configs))

	writer := NewMetadataWriter(s.client, s.client.ClusterID(), log, s.metrics)
	if report.MetadataRows, err = writer.Write(ctx, configs, report.DeploymentID); err != nil {
		return Report{}, errors.Wrap(err, "write metadata")
	}

	repos := NewReposManager(s.client, repo, s.Getenv, log, s.metrics)
	if _, err := repos.GetOrCreateGitCredentials(ctx); err != nil {
		if !errors.Is(err, ErrNoGitCredentials) {
			return Report{}, err
		}
		log.Info("skipping git credentials", "reason", err.Error())
	}
	if report.RepoID, err = repos.GetOrCreateRepo(ctx); err != nil {
		return Report{}, err
	}
	if err := repos.Update(ctx); err != nil {
		return Report{}, err
	}

	secrets, err := settings.LoadSecrets(s.fs, s.configDir)
	if err != nil {
		return Report{}, err
	}
	if err := NewSecretsManager(s.client, log, s.metrics).PushSecrets(ctx, repo.SecretScope, secrets); err != nil {
		return Report{}, err
	}
	report.Secrets = len(secrets)

	result, err := s.scheduler(log).Apply(ctx, repo.NotebookPath(), configs)
	if err != nil {
		return Report{}, err
	}
	report.Pipelines = result.Pipelines
	report.JobIDs = result.JobIDs
	report.Deleted = result.Deleted

	log.Info("deployed pushcart", "pipelines", len(report.Pipelines), "deleted", len(report.Deleted))

	return report, nil
}

// Plan computes what Deploy would change without changing the workspace.
func (s *Setup) Plan(ctx context.Context) (Plan, error) {
	configs, repo, err := s.prepare(ctx)
	if err != nil {
		return Plan{}, err
	}

	plan := Plan{
		Workspace:   s.client.Host(),
		SecretScope: repo.SecretScope,
		Repo: RepoPlan{
			Path:   repo.RepoPath(),
			URL:    repo.GitURL,
			Branch: repo.GitBranch,
			Tag:    repo.GitTag,
		},
	}
	if repo.GitTag != "" {
		plan.Repo.Branch = ""
	}

	if plan.MetadataRows, err = Rows(configs); err != nil {
		return Plan{}, err
	}

	repos, err := s.client.ListRepos(ctx, plan.Repo.Path)
	if err != nil {
		return Plan{}, errors.Wrap(err, "list repos")
	}
	for _, r := range repos {
		if r.Path == plan.Repo.Path {
			plan.Repo.Exists = true
		}
	}

	secrets, err := settings.LoadSecrets(s.fs, s.configDir)
	if err != nil {
		return Plan{}, err
	}
	plan.Secrets = make([]string, 0, len(secrets))
	for k := range secrets {
		plan.Secrets = append(plan.Secrets, k)
	}
	sort.Strings(plan.Secrets)

	if plan.Pipelines, err = s.scheduler(s.log).Plan(ctx, configs); err != nil {
		return Plan{}, err
	}

	return plan, nil
}

// prepare checks the workspace is reachable and loads the configuration directory.
func (s *Setup) prepare(ctx context.Context) ([]metadata.PipelineConfig, settings.RepoSettings, error) {
	if _, err := s.client.GetStatus(ctx, "/"); err != nil {
		return nil, settings.RepoSettings{}, errors.Wrapf(err, "connect to workspace %v", s.client.Host())
	}

	md, err := metadata.New(s.fs, s.configDir, s.log)
	if err != nil {
		return nil, settings.RepoSettings{}, err
	}

	configs, err := md.Load(ctx)
	if err != nil {
		return nil, settings.RepoSettings{}, err
	}

	repo, err := settings.LoadRepoSettings(s.fs, s.configDir)
	if err != nil {
		return nil, settings.RepoSettings{}, err
	}

	return configs, repo, nil
}

func (s *Setup) scheduler(log logr.Logger) *Scheduler {
	return NewScheduler(
		NewPipelinesManager(s.client, log, s.metrics),
		NewJobsManager(s.client, log, s.metrics),
		settings.NewPipelineSettings(s.fs, s.configDir, s.client, log),
		settings.NewJobSettings(s.fs, s.configDir, log),
		log,
	)
}
