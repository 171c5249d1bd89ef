package deploy

import (
	"context"

	"github.com/go-logr/logr"
	"github.com/pkg/errors"
	"github.com/pushcart/pushcart-deploy/internal/metrics"
)

// JobsManager creates, updates and deletes the jobs scheduling pipelines.
type JobsManager struct {
	api     JobsAPI
	log     logr.Logger
	metrics *metrics.Recorder
}

// NewJobsManager creates a JobsManager.
func NewJobsManager(api JobsAPI, logger logr.Logger, recorder *metrics.Recorder) *JobsManager {
	return &JobsManager{api: api, log: logger.WithName("jobs"), metrics: recorder}
}

// JobID returns the id of the job named name or 0 when there is none. When several jobs share
// the name the oldest one is returned.
func (m *JobsManager) JobID(ctx context.Context, name string) (int64, error) {
	jobs, err := m.api.ListJobs(ctx, name)
	if err != nil {
		return 0, errors.Wrapf(err, "list jobs %v", name)
	}

	var id int64
	for _, j := range jobs {
		if j.Name() != name {
			continue
		}
		if id == 0 || j.JobID < id {
			id = j.JobID
		}
	}
	return id, nil
}

// Create creates a job and returns its id.
func (m *JobsManager) Create(ctx context.Context, settings map[string]interface{}) (int64, error) {
	id, err := m.api.CreateJob(ctx, settings)
	if err != nil {
		return 0, errors.Wrapf(err, "create job %v", settings["name"])
	}
	m.metrics.Resource(metrics.KindJob, metrics.ActionCreate)
	m.log.Info("created job", "name", settings["name"], "job_id", id)

	return id, nil
}

// Update replaces the settings of job id.
func (m *JobsManager) Update(ctx context.Context, id int64, settings map[string]interface{}) error {
	if err := m.api.ResetJob(ctx, id, settings); err != nil {
		return errors.Wrapf(err, "update job %v", id)
	}
	m.metrics.Resource(metrics.KindJob, metrics.ActionUpdate)
	m.log.Info("updated job", "name", settings["name"], "job_id", id)

	return nil
}

// Delete deletes job id.
func (m *JobsManager) Delete(ctx context.Context, id int64) error {
	if err := m.api.DeleteJob(ctx, id); err != nil {
		return errors.Wrapf(err, "delete job %v", id)
	}
	m.metrics.Resource(metrics.KindJob, metrics.ActionDelete)
	m.log.Info("deleted job", "job_id", id)

	return nil
}
