package databricks

import (
	"context"
	"net/http"

	"github.com/databricks/databricks-sdk-go/service/jobs"
)

// Job is a workflow job and its settings. Settings stay free-form so they round trip unchanged.
type Job struct {
	JobID    int64                  `json:"job_id"`
	Settings map[string]interface{} `json:"settings,omitempty"`
}

// Name returns the name of the job from its settings.
func (j Job) Name() string {
	name, _ := j.Settings["name"].(string)
	return name
}

const jobsPageSize = 25

// listJobsRequest is encoded as the query string of the jobs list request.
type listJobsRequest struct {
	Limit     int    `json:"-" url:"limit,omitempty"`
	Name      string `json:"-" url:"name,omitempty"`
	PageToken string `json:"-" url:"page_token,omitempty"`
}

// ListJobs returns every job named name. An empty name lists every job.
func (c *Client) ListJobs(ctx context.Context, name string) ([]Job, error) {
	var jobs []Job
	req := listJobsRequest{Limit: jobsPageSize, Name: name}

	for {
		var res struct {
			Jobs          []Job  `json:"jobs"`
			HasMore       bool   `json:"has_more"`
			NextPageToken string `json:"next_page_token"`
		}
		if err := c.do(ctx, http.MethodGet, "/api/2.1/jobs/list", req, &res); err != nil {
			return nil, err
		}

		jobs = append(jobs, res.Jobs...)
		if !res.HasMore || res.NextPageToken == "" {
			return jobs, nil
		}
		req.PageToken = res.NextPageToken
	}
}

// CreateJob creates a job from settings and returns its id.
func (c *Client) CreateJob(ctx context.Context, settings map[string]interface{}) (int64, error) {
	var res jobs.CreateResponse
	err := c.do(ctx, http.MethodPost, "/api/2.1/jobs/create", settings, &res)
	return res.JobId, err
}

// ResetJob replaces every setting of the job with id.
func (c *Client) ResetJob(ctx context.Context, id int64, settings map[string]interface{}) error {
	body := map[string]interface{}{
		"job_id":       id,
		"new_settings": settings,
	}
	return c.do(ctx, http.MethodPost, "/api/2.1/jobs/reset", body, nil)
}

// DeleteJob deletes the job with id.
func (c *Client) DeleteJob(ctx context.Context, id int64) error {
	return c.call(ctx, http.MethodPost, "/api/2.1/jobs/delete", func(ctx context.Context) error {
		return c.ws.Jobs.DeleteByJobId(ctx, id)
	})
}
