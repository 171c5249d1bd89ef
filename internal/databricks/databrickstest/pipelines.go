package databrickstest

import (
	"net/http"
	"sort"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/pushcart/pushcart-deploy/internal/databricks"
)

// AddPipeline adds a pipeline with settings and returns its id.
func (w *Workspace) AddPipeline(settings map[string]interface{}) string {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.addPipeline(settings)
}

func (w *Workspace) addPipeline(settings map[string]interface{}) string {
	w.nextPipelineID++
	id := "pipeline-" + strconv.Itoa(w.nextPipelineID)

	spec := copyMap(settings)
	spec["id"] = id
	name, _ := spec["name"].(string)

	w.pipelines[id] = &databricks.Pipeline{PipelineID: id, Name: name, State: "IDLE", Spec: spec}
	return id
}

// Pipelines returns every pipeline sorted by id.
func (w *Workspace) Pipelines() []databricks.Pipeline {
	w.mu.Lock()
	defer w.mu.Unlock()

	pipelines := make([]databricks.Pipeline, 0, len(w.pipelines))
	for _, id := range w.pipelineIDs() {
		pipelines = append(pipelines, *w.pipelines[id])
	}
	return pipelines
}

func (w *Workspace) pipelineIDs() []string {
	ids := make([]string, 0, len(w.pipelines))
	for id := range w.pipelines {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}

func (w *Workspace) listPipelines(c *gin.Context) {
	w.mu.Lock()
	defer w.mu.Unlock()

	size := w.PipelinesPageSize
	if n, err := strconv.Atoi(c.Query("max_results")); err == nil && n < size {
		size = n
	}

	start, _ := strconv.Atoi(c.Query("page_token"))
	ids := w.pipelineIDs()
	if start > len(ids) {
		start = len(ids)
	}
	end := min(start+size, len(ids))

	statuses := make([]databricks.PipelineStateInfo, 0, end-start)
	for _, id := range ids[start:end] {
		p := w.pipelines[id]
		statuses = append(statuses, databricks.PipelineStateInfo{PipelineID: p.PipelineID, Name: p.Name, State: p.State})
	}

	res := gin.H{"statuses": statuses}
	if end < len(ids) {
		res["next_page_token"] = strconv.Itoa(end)
	}
	c.JSON(http.StatusOK, res)
}

func (w *Workspace) createPipeline(c *gin.Context) {
	var settings map[string]interface{}
	if !bind(c, &settings) {
		return
	}

	w.mu.Lock()
	defer w.mu.Unlock()

	name, _ := settings["name"].(string)
	if name == "" {
		badRequest(c, "pipeline name is required")
		return
	}
	for _, p := range w.pipelines {
		if p.Name == name {
			apiError(c, http.StatusBadRequest, databricks.ErrorCodeResourceAlreadyExist, "pipeline "+name+" already exists")
			return
		}
	}

	c.JSON(http.StatusOK, gin.H{"pipeline_id": w.addPipeline(settings)})
}

func (w *Workspace) getPipeline(c *gin.Context) {
	w.mu.Lock()
	defer w.mu.Unlock()

	p, ok := w.pipelines[c.Param("id")]
	if !ok {
		notFound(c, "pipeline "+c.Param("id")+" does not exist")
		return
	}
	c.JSON(http.StatusOK, p)
}

func (w *Workspace) editPipeline(c *gin.Context) {
	var settings map[string]interface{}
	if !bind(c, &settings) {
		return
	}

	w.mu.Lock()
	defer w.mu.Unlock()

	id := c.Param("id")
	p, ok := w.pipelines[id]
	if !ok {
		notFound(c, "pipeline "+id+" does not exist")
		return
	}
	if settings["id"] != id {
		badRequest(c, "pipeline id in body does not match the path")
		return
	}

	p.Spec = copyMap(settings)
	p.Name, _ = settings["name"].(string)
	c.JSON(http.StatusOK, gin.H{})
}

func (w *Workspace) deletePipeline(c *gin.Context) {
	w.mu.Lock()
	defer w.mu.Unlock()

	id := c.Param("id")
	if _, ok := w.pipelines[id]; !ok {
		notFound(c, "pipeline "+id+" does not exist")
		return
	}
	delete(w.pipelines, id)
	c.JSON(http.StatusOK, gin.H{})
}

func copyMap(m map[string]interface{}) map[string]interface{} {
	out := make(map[string]interface{}, len(m))
	for k, v := range m {
		out[k] = v
	}
	return out
}
