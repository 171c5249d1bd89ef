package deploy

import (
	"context"

	"github.com/go-logr/logr"
	"github.com/pkg/errors"
	"github.com/pushcart/pushcart-deploy/internal/databricks"
	"github.com/pushcart/pushcart-deploy/internal/metrics"
	"golang.org/x/sync/errgroup"
)

// ManagedPipelineKey is the pipeline configuration key marking pipelines deployed by Pushcart.
const ManagedPipelineKey = "pushcart.pipeline_name"

// pipelineStorageRoot holds the DBFS storage of pipelines that do not set their own.
const pipelineStorageRoot = "dbfs:/pipelines/"

// DefaultListConcurrency bounds the pipeline specs fetched in parallel by PipelinesManager.List.
const DefaultListConcurrency = 8

// ManagedPipeline identifies a pipeline deployed by Pushcart.
type ManagedPipeline struct {
	PipelineName string `json:"pipeline_name"`
	PipelineID   string `json:"pipeline_id"`
}

// PipelinesManager creates, updates and deletes Delta Live Tables pipelines.
type PipelinesManager struct {
	api         PipelinesAPI
	log         logr.Logger
	metrics     *metrics.Recorder
	concurrency int
}

// NewPipelinesManager creates a PipelinesManager.
func NewPipelinesManager(api PipelinesAPI, logger logr.Logger, recorder *metrics.Recorder) *PipelinesManager {
	return &PipelinesManager{
		api:         api,
		log:         logger.WithName("pipelines"),
		metrics:     recorder,
		concurrency: DefaultListConcurrency,
	}
}

// List returns the pipelines of the workspace that were deployed by Pushcart, in listing order.
func (m *PipelinesManager) List(ctx context.Context) ([]ManagedPipeline, error) {
	statuses, err := m.api.ListPipelines(ctx)
	if err != nil {
		return nil, errors.Wrap(err, "list pipelines")
	}

	managed := make([]*ManagedPipeline, len(statuses))

	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(m.concurrency)

	for i, status := range statuses {
		i, status := i, status
		g.Go(func() error {
			p, err := m.api.GetPipeline(ctx, status.PipelineID)
			switch {
			case databricks.IsNotFound(err):
				// Deleted since it was listed.
				return nil
			case err != nil:
				return errors.Wrapf(err, "get pipeline %v", status.PipelineID)
			}

			if _, ok := p.Configuration()[ManagedPipelineKey]; ok {
				managed[i] = &ManagedPipeline{PipelineName: status.Name, PipelineID: status.PipelineID}
			}
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}

	var pipelines []ManagedPipeline
	for _, p := range managed {
		if p != nil {
			pipelines = append(pipelines, *p)
		}
	}
	return pipelines, nil
}

// PipelineID returns the id of the pipeline named name or an empty string when there is none.
func (m *PipelinesManager) PipelineID(ctx context.Context, name string) (string, error) {
	statuses, err := m.api.ListPipelines(ctx)
	if err != nil {
		return "", errors.Wrap(err, "list pipelines")
	}

	for _, status := range statuses {
		if status.Name == name {
			return status.PipelineID, nil
		}
	}
	return "", nil
}

// Create creates a pipeline and returns its id.
func (m *PipelinesManager) Create(ctx context.Context, settings map[string]interface{}) (string, error) {
	id, err := m.api.CreatePipeline(ctx, settings)
	if err != nil {
		return "", errors.Wrapf(err, "create pipeline %v", settings["name"])
	}
	m.metrics.Resource(metrics.KindPipeline, metrics.ActionCreate)
	m.log.Info("created pipeline", "name", settings["name"], "pipeline_id", id)

	return id, nil
}

// Update replaces the settings of pipeline id.
func (m *PipelinesManager) Update(ctx context.Context, id string, settings map[string]interface{}) error {
	if err := m.api.EditPipeline(ctx, id, settings); err != nil {
		return errors.Wrapf(err, "update pipeline %v", id)
	}
	m.metrics.Resource(metrics.KindPipeline, metrics.ActionUpdate)
	m.log.Info("updated pipeline", "name", settings["name"], "pipeline_id", id)

	return nil
}

// Delete deletes pipeline id and its default storage location. Missing resources are ignored.
func (m *PipelinesManager) Delete(ctx context.Context, id string) error {
	if err := m.api.DeletePipeline(ctx, id); err != nil && !databricks.IsNotFound(err) {
		return errors.Wrapf(err, "delete pipeline %v", id)
	}

	storage := pipelineStorageRoot + id
	if err := m.api.DeletePath(ctx, storage, true); err != nil && !databricks.IsNotFound(err) {
		return errors.Wrapf(err, "delete pipeline storage %v", storage)
	}
	m.metrics.Resource(metrics.KindPipeline, metrics.ActionDelete)
	m.log.Info("deleted pipeline", "pipeline_id", id)

	return nil
}
