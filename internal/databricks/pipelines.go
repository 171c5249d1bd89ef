package databricks

import (
	"context"
	"net/http"
	"net/url"

	"github.com/databricks/databricks-sdk-go/listing"
	"github.com/databricks/databricks-sdk-go/service/pipelines"
)

// PipelineStateInfo summarizes a Delta Live Tables pipeline as listed by the workspace.
type PipelineStateInfo struct {
	PipelineID      string `json:"pipeline_id"`
	Name            string `json:"name"`
	State           string `json:"state,omitempty"`
	ClusterID       string `json:"cluster_id,omitempty"`
	CreatorUserName string `json:"creator_user_name,omitempty"`
}

// Pipeline is a Delta Live Tables pipeline and its settings. The settings stay free-form so
// they round trip unchanged.
type Pipeline struct {
	PipelineID string                 `json:"pipeline_id"`
	Name       string                 `json:"name"`
	State      string                 `json:"state,omitempty"`
	Spec       map[string]interface{} `json:"spec,omitempty"`
}

// Configuration returns the string configuration of the pipeline settings.
func (p Pipeline) Configuration() map[string]string {
	raw, _ := p.Spec["configuration"].(map[string]interface{})

	configuration := make(map[string]string, len(raw))
	for k, v := range raw {
		if s, ok := v.(string); ok {
			configuration[k] = s
		}
	}
	return configuration
}

const pipelinesPageSize = 100

// ListPipelines returns every pipeline of the workspace, following pagination.
func (c *Client) ListPipelines(ctx context.Context) ([]PipelineStateInfo, error) {
	var result []PipelineStateInfo
	err := c.call(ctx, http.MethodGet, "/api/2.0/pipelines", func(ctx context.Context) error {
		it := c.ws.Pipelines.ListPipelines(ctx, pipelines.ListPipelinesRequest{MaxResults: pipelinesPageSize})
		listed, err := listing.ToSlice[pipelines.PipelineStateInfo](ctx, it)
		if err != nil {
			return err
		}

		result = make([]PipelineStateInfo, 0, len(listed))
		for _, p := range listed {
			result = append(result, PipelineStateInfo{
				PipelineID:      p.PipelineId,
				Name:            p.Name,
				State:           string(p.State),
				ClusterID:       p.ClusterId,
				CreatorUserName: p.CreatorUserName,
			})
		}
		return nil
	})
	return result, err
}

// GetPipeline returns the pipeline with id, including its settings.
func (c *Client) GetPipeline(ctx context.Context, id string) (Pipeline, error) {
	var p Pipeline
	err := c.do(ctx, http.MethodGet, "/api/2.0/pipelines/"+url.PathEscape(id), nil, &p)
	return p, err
}

// CreatePipeline creates a pipeline from settings and returns its id.
func (c *Client) CreatePipeline(ctx context.Context, settings map[string]interface{}) (string, error) {
	var res pipelines.CreatePipelineResponse
	err := c.do(ctx, http.MethodPost, "/api/2.0/pipelines", settings, &res)
	return res.PipelineId, err
}

// EditPipeline replaces the settings of the pipeline with id.
func (c *Client) EditPipeline(ctx context.Context, id string, settings map[string]interface{}) error {
	body := make(map[string]interface{}, len(settings)+1)
	for k, v := range settings {
		body[k] = v
	}
	body["id"] = id

	return c.do(ctx, http.MethodPut, "/api/2.0/pipelines/"+url.PathEscape(id), body, nil)
}

// DeletePipeline deletes the pipeline with id.
func (c *Client) DeletePipeline(ctx context.Context, id string) error {
	return c.call(ctx, http.MethodDelete, "/api/2.0/pipelines/"+url.PathEscape(id), func(ctx context.Context) error {
		return c.ws.Pipelines.DeleteByPipelineId(ctx, id)
	})
}
