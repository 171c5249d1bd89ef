package deploy

import (
	"context"

	"github.com/go-logr/logr"
	"github.com/pkg/errors"
	"github.com/pushcart/pushcart-deploy/internal/metadata"
	"github.com/pushcart/pushcart-deploy/internal/settings"
)

// PipelineStore manages the pipelines of a workspace. It is implemented by PipelinesManager.
type PipelineStore interface {
	List(ctx context.Context) ([]ManagedPipeline, error)
	PipelineID(ctx context.Context, name string) (string, error)
	Create(ctx context.Context, settings map[string]interface{}) (string, error)
	Update(ctx context.Context, id string, settings map[string]interface{}) error
	Delete(ctx context.Context, id string) error
}

// JobStore manages the jobs of a workspace. It is implemented by JobsManager.
type JobStore interface {
	JobID(ctx context.Context, name string) (int64, error)
	Create(ctx context.Context, settings map[string]interface{}) (int64, error)
	Update(ctx context.Context, id int64, settings map[string]interface{}) error
	Delete(ctx context.Context, id int64) error
}

// PipelineSettingsLoader builds the settings of a pipeline. It is implemented by
// settings.PipelineSettings.
type PipelineSettingsLoader interface {
	Load(
		ctx context.Context,
		catalog, schema, pipeline string,
		libraries []interface{},
		configuration map[string]string,
		pipelineID string,
	) (map[string]interface{}, error)
}

// JobSettingsLoader builds the settings of the job scheduling a pipeline. It is implemented by
// settings.JobSettings.
type JobSettingsLoader interface {
	Load(catalog, schema, pipeline, pipelineID string) (map[string]interface{}, error)
}

// DeployedPipeline is a pipeline configuration and the id of the workspace pipeline running it.
type DeployedPipeline struct {
	TargetCatalogName string `json:"target_catalog_name"`
	TargetSchemaName  string `json:"target_schema_name"`
	PipelineName      string `json:"pipeline_name"`
	PipelineID        string `json:"pipeline_id"`
}

// PipelinePlan is the set of changes reconciling the workspace pipelines with the configuration.
// Adopt lists configurations without a managed pipeline whose name is taken by a pipeline
// Pushcart did not deploy. Apply updates that pipeline and marks it as managed.
type PipelinePlan struct {
	Create []DeployedPipeline `json:"create"`
	Adopt  []DeployedPipeline `json:"adopt,omitempty"`
	Update []DeployedPipeline `json:"update"`
	Delete []ManagedPipeline  `json:"delete"`
}

// ApplyResult describes the pipelines and jobs after a reconciliation.
type ApplyResult struct {
	Pipelines []DeployedPipeline `json:"pipelines"`
	JobIDs    []int64            `json:"job_ids"`
	Deleted   []ManagedPipeline  `json:"deleted"`
}

// Scheduler reconciles the pipelines and jobs of a workspace with pipeline configurations.
type Scheduler struct {
	pipelines        PipelineStore
	jobs             JobStore
	pipelineSettings PipelineSettingsLoader
	jobSettings      JobSettingsLoader
	log              logr.Logger
}

// NewScheduler creates a Scheduler.
func NewScheduler(
	pipelines PipelineStore,
	jobs JobStore,
	pipelineSettings PipelineSettingsLoader,
	jobSettings JobSettingsLoader,
	logger logr.Logger,
) *Scheduler {
	return &Scheduler{
		pipelines:        pipelines,
		jobs:             jobs,
		pipelineSettings: pipelineSettings,
		jobSettings:      jobSettings,
		log:              logger.WithName("scheduler"),
	}
}

func configuredNames(configs []metadata.PipelineConfig) map[string]struct{} {
	names := make(map[string]struct{}, len(configs))
	for _, c := range configs {
		names[c.PipelineName] = struct{}{}
	}
	return names
}

func managedNames(managed []ManagedPipeline) map[string]struct{} {
	names := make(map[string]struct{}, len(managed))
	for _, m := range managed {
		names[m.PipelineName] = struct{}{}
	}
	return names
}

// ObsoletePipelines returns the managed pipelines no configuration refers to.
func ObsoletePipelines(configs []metadata.PipelineConfig, managed []ManagedPipeline) []ManagedPipeline {
	names := configuredNames(configs)

	var obsolete []ManagedPipeline
	for _, m := range managed {
		if _, ok := names[m.PipelineName]; !ok {
			obsolete = append(obsolete, m)
		}
	}
	return obsolete
}

// NewPipelines returns the configurations without a managed pipeline.
func NewPipelines(configs []metadata.PipelineConfig, managed []ManagedPipeline) []metadata.PipelineConfig {
	names := managedNames(managed)

	var created []metadata.PipelineConfig
	for _, c := range configs {
		if _, ok := names[c.PipelineName]; !ok {
			created = append(created, c)
		}
	}
	return created
}

// MatchingPipelines returns the configurations with a managed pipeline.
func MatchingPipelines(configs []metadata.PipelineConfig, managed []ManagedPipeline) []metadata.PipelineConfig {
	names := managedNames(managed)

	var matching []metadata.PipelineConfig
	for _, c := range configs {
		if _, ok := names[c.PipelineName]; ok {
			matching = append(matching, c)
		}
	}
	return matching
}

// CreateOrUpdatePipelines deploys one pipeline per configuration, running the notebook at
// notebookPath. Pipelines are matched by name.
func (s *Scheduler) CreateOrUpdatePipelines(
	ctx context.Context,
	notebookPath string,
	configs []metadata.PipelineConfig,
) ([]DeployedPipeline, error) {
	libraries := settings.NotebookLibraries(notebookPath)

	deployed := make([]DeployedPipeline, 0, len(configs))
	for _, c := range configs {
		id, err := s.pipelines.PipelineID(ctx, c.PipelineName)
		if err != nil {
			return nil, err
		}

		spec, err := s.pipelineSettings.Load(
			ctx,
			c.TargetCatalogName,
			c.TargetSchemaName,
			c.PipelineName,
			libraries,
			map[string]string{ManagedPipelineKey: c.PipelineName},
			id,
		)
		if err != nil {
			return nil, errors.Wrapf(err, "pipeline settings %v", c.PipelineName)
		}

		if id == "" {
			if id, err = s.pipelines.Create(ctx, spec); err != nil {
				return nil, err
			}
		} else if err := s.pipelines.Update(ctx, id, spec); err != nil {
			return nil, err
		}

		deployed = append(deployed, deployedPipeline(c, id))
	}

	return deployed, nil
}

// CreateOrUpdateJobs deploys the job scheduling each pipeline and returns the job ids in
// pipeline order. Jobs are named after their pipeline.
func (s *Scheduler) CreateOrUpdateJobs(ctx context.Context, pipelines []DeployedPipeline) ([]int64, error) {
	ids := make([]int64, 0, len(pipelines))
	for _, p := range pipelines {
		spec, err := s.jobSettings.Load(p.TargetCatalogName, p.TargetSchemaName, p.PipelineName, p.PipelineID)
		if err != nil {
			return nil, errors.Wrapf(err, "job settings %v", p.PipelineName)
		}

		id, err := s.jobs.JobID(ctx, p.PipelineName)
		if err != nil {
			return nil, err
		}

		if id == 0 {
			if id, err = s.jobs.Create(ctx, spec); err != nil {
				return nil, err
			}
		} else if err := s.jobs.Update(ctx, id, spec); err != nil {
			return nil, err
		}

		ids = append(ids, id)
	}

	return ids, nil
}

// DeleteObsoletePipelines deletes each pipeline and the job scheduling it.
func (s *Scheduler) DeleteObsoletePipelines(ctx context.Context, obsolete []ManagedPipeline) error {
	for _, p := range obsolete {
		jobID, err := s.jobs.JobID(ctx, p.PipelineName)
		if err != nil {
			return err
		}
		if jobID != 0 {
			if err := s.jobs.Delete(ctx, jobID); err != nil {
				return err
			}
		}

		if err := s.pipelines.Delete(ctx, p.PipelineID); err != nil {
			return err
		}
	}
	return nil
}

// Plan computes the pipeline changes Apply would make without changing the workspace.
func (s *Scheduler) Plan(ctx context.Context, configs []metadata.PipelineConfig) (PipelinePlan, error) {
	managed, err := s.pipelines.List(ctx)
	if err != nil {
		return PipelinePlan{}, err
	}

	ids := make(map[string]string, len(managed))
	for _, m := range managed {
		ids[m.PipelineName] = m.PipelineID
	}

	plan := PipelinePlan{Delete: ObsoletePipelines(configs, managed)}
	for _, c := range NewPipelines(configs, managed) {
		// Apply resolves pipelines by name, so an unmanaged namesake is updated, not created.
		id, err := s.pipelines.PipelineID(ctx, c.PipelineName)
		if err != nil {
			return PipelinePlan{}, err
		}
		if id != "" {
			plan.Adopt = append(plan.Adopt, deployedPipeline(c, id))
			continue
		}
		plan.Create = append(plan.Create, deployedPipeline(c, ""))
	}
	for _, c := range MatchingPipelines(configs, managed) {
		plan.Update = append(plan.Update, deployedPipeline(c, ids[c.PipelineName]))
	}

	return plan, nil
}

// Apply deploys the pipelines and jobs of configs, then deletes the managed pipelines no
// configuration refers to.
func (s *Scheduler) Apply(
	ctx context.Context,
	notebookPath string,
	configs []metadata.PipelineConfig,
) (ApplyResult, error) {
	managed, err := s.pipelines.List(ctx)
	if err != nil {
		return ApplyResult{}, err
	}

	deployed, err := s.CreateOrUpdatePipelines(ctx, notebookPath, configs)
	if err != nil {
		return ApplyResult{}, err
	}

	jobIDs, err := s.CreateOrUpdateJobs(ctx, deployed)
	if err != nil {
		return ApplyResult{}, err
	}

	obsolete := ObsoletePipelines(configs, managed)
	if err := s.DeleteObsoletePipelines(ctx, obsolete); err != nil {
		return ApplyResult{}, err
	}

	s.log.Info("reconciled pipelines", "deployed", len(deployed), "jobs", len(jobIDs), "deleted", len(obsolete))

	return ApplyResult{Pipelines: deployed, JobIDs: jobIDs, Deleted: obsolete}, nil
}

func deployedPipeline(c metadata.PipelineConfig, id string) DeployedPipeline {
	return DeployedPipeline{
		TargetCatalogName: c.TargetCatalogName,
		TargetSchemaName:  c.TargetSchemaName,
		PipelineName:      c.PipelineName,
		PipelineID:        id,
	}
}
