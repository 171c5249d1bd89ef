package databrickstest

import (
	"net/http"
	"sort"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/pushcart/pushcart-deploy/internal/databricks"
)

// AddJob adds a job with settings and returns its id.
func (w *Workspace) AddJob(settings map[string]interface{}) int64 {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.addJob(settings)
}

func (w *Workspace) addJob(settings map[string]interface{}) int64 {
	w.nextJobID++
	w.jobs[w.nextJobID] = &databricks.Job{JobID: w.nextJobID, Settings: copyMap(settings)}
	return w.nextJobID
}

// Jobs returns every job sorted by id.
func (w *Workspace) Jobs() []databricks.Job {
	w.mu.Lock()
	defer w.mu.Unlock()

	jobs := make([]databricks.Job, 0, len(w.jobs))
	for _, id := range w.jobIDs() {
		jobs = append(jobs, *w.jobs[id])
	}
	return jobs
}

func (w *Workspace) jobIDs() []int64 {
	ids := make([]int64, 0, len(w.jobs))
	for id := range w.jobs {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	return ids
}

func (w *Workspace) listJobs(c *gin.Context) {
	w.mu.Lock()
	defer w.mu.Unlock()

	name := c.Query("name")
	var matching []databricks.Job
	for _, id := range w.jobIDs() {
		if job := w.jobs[id]; name == "" || job.Name() == name {
			matching = append(matching, *job)
		}
	}

	size := w.JobsPageSize
	if n, err := strconv.Atoi(c.Query("limit")); err == nil && n < size {
		size = n
	}

	start, _ := strconv.Atoi(c.Query("page_token"))
	if start > len(matching) {
		start = len(matching)
	}
	end := min(start+size, len(matching))

	res := gin.H{"jobs": matching[start:end], "has_more": end < len(matching)}
	if end < len(matching) {
		res["next_page_token"] = strconv.Itoa(end)
	}
	c.JSON(http.StatusOK, res)
}

func (w *Workspace) createJob(c *gin.Context) {
	var settings map[string]interface{}
	if !bind(c, &settings) {
		return
	}

	w.mu.Lock()
	defer w.mu.Unlock()
	c.JSON(http.StatusOK, gin.H{"job_id": w.addJob(settings)})
}

func (w *Workspace) resetJob(c *gin.Context) {
	var req struct {
		JobID       int64                  `json:"job_id"`
		NewSettings map[string]interface{} `json:"new_settings"`
	}
	if !bind(c, &req) {
		return
	}

	w.mu.Lock()
	defer w.mu.Unlock()

	job, ok := w.jobs[req.JobID]
	if !ok {
		notFound(c, "job "+strconv.FormatInt(req.JobID, 10)+" does not exist")
		return
	}
	job.Settings = copyMap(req.NewSettings)
	c.JSON(http.StatusOK, gin.H{})
}

func (w *Workspace) deleteJob(c *gin.Context) {
	var req struct {
		JobID int64 `json:"job_id"`
	}
	if !bind(c, &req) {
		return
	}

	w.mu.Lock()
	defer w.mu.Unlock()

	if _, ok := w.jobs[req.JobID]; !ok {
		notFound(c, "job "+strconv.FormatInt(req.JobID, 10)+" does not exist")
		return
	}
	delete(w.jobs, req.JobID)
	c.JSON(http.StatusOK, gin.H{})
}
