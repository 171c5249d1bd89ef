package databrickstest

import (
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/pushcart/pushcart-deploy/internal/databricks"
)

// AddNodeType makes a node type available in the workspace.
func (w *Workspace) AddNodeType(nt databricks.NodeType) {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.nodeTypes = append(w.nodeTypes, nt)
}

// AddCluster adds an all-purpose cluster. A cluster that is started moves to PENDING, then to
// RUNNING on the next read.
func (w *Workspace) AddCluster(info databricks.ClusterInfo) {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.clusters[info.ClusterID] = &info
}

// SetClusterStates queues states the cluster with id moves through, one per read of the cluster.
// The current state is reported first.
func (w *Workspace) SetClusterStates(id string, states ...string) {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.clusterStates[id] = append([]string(nil), states...)
}

// Cluster returns the cluster with id.
func (w *Workspace) Cluster(id string) (databricks.ClusterInfo, bool) {
	w.mu.Lock()
	defer w.mu.Unlock()

	info, ok := w.clusters[id]
	if !ok {
		return databricks.ClusterInfo{}, false
	}
	return *info, true
}

// FailCommandsContaining makes every command containing substr finish with an error result.
func (w *Workspace) FailCommandsContaining(substr string) {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.failCmds = append(w.failCmds, substr)
}

// Commands returns every command executed, in order.
func (w *Workspace) Commands() []string {
	w.mu.Lock()
	defer w.mu.Unlock()
	return append([]string(nil), w.executed...)
}

// OpenContexts returns the number of execution contexts not destroyed yet.
func (w *Workspace) OpenContexts() int {
	w.mu.Lock()
	defer w.mu.Unlock()
	return len(w.contexts)
}

func (w *Workspace) listNodeTypes(c *gin.Context) {
	w.mu.Lock()
	defer w.mu.Unlock()
	c.JSON(http.StatusOK, gin.H{"node_types": w.nodeTypes})
}

func (w *Workspace) getCluster(c *gin.Context) {
	w.mu.Lock()
	defer w.mu.Unlock()

	info, ok := w.clusters[c.Query("cluster_id")]
	if !ok {
		apiError(c, http.StatusBadRequest, databricks.ErrorCodeInvalidParameter, "cluster does not exist")
		return
	}

	c.JSON(http.StatusOK, info)
	if queued := w.clusterStates[info.ClusterID]; len(queued) > 0 {
		info.State, w.clusterStates[info.ClusterID] = queued[0], queued[1:]
		return
	}
	if info.State == databricks.ClusterStatePending {
		info.State = databricks.ClusterStateRunning
	}
}

func (w *Workspace) startCluster(c *gin.Context) {
	var req struct {
		ClusterID string `json:"cluster_id"`
	}
	if !bind(c, &req) {
		return
	}

	w.mu.Lock()
	defer w.mu.Unlock()

	info, ok := w.clusters[req.ClusterID]
	if !ok {
		apiError(c, http.StatusBadRequest, databricks.ErrorCodeInvalidParameter, "cluster does not exist")
		return
	}
	if info.State != databricks.ClusterStateTerminated {
		apiError(c, http.StatusBadRequest, databricks.ErrorCodeInvalidState, "cluster is in unexpected state "+info.State)
		return
	}

	info.State = databricks.ClusterStatePending
	c.JSON(http.StatusOK, gin.H{})
}

func (w *Workspace) createContext(c *gin.Context) {
	var req struct {
		ClusterID string `json:"clusterId"`
		Language  string `json:"language"`
	}
	if !bind(c, &req) {
		return
	}

	w.mu.Lock()
	defer w.mu.Unlock()

	info, ok := w.clusters[req.ClusterID]
	if !ok || info.State != databricks.ClusterStateRunning {
		badRequest(c, "cluster "+req.ClusterID+" is not running")
		return
	}

	w.nextCmdID++
	id := "ctx-" + strconv.Itoa(w.nextCmdID)
	w.contexts[id] = 0
	c.JSON(http.StatusOK, gin.H{"id": id})
}

func (w *Workspace) contextStatus(c *gin.Context) {
	w.mu.Lock()
	defer w.mu.Unlock()

	id := c.Query("contextId")
	polls, ok := w.contexts[id]
	if !ok {
		notFound(c, "context "+id+" does not exist")
		return
	}

	status := databricks.ContextStatusPending
	if polls > 0 {
		status = databricks.ContextStatusRunning
	}
	w.contexts[id] = polls + 1
	c.JSON(http.StatusOK, gin.H{"id": id, "status": status})
}

func (w *Workspace) destroyContext(c *gin.Context) {
	var req struct {
		ContextID string `json:"contextId"`
	}
	if !bind(c, &req) {
		return
	}

	w.mu.Lock()
	defer w.mu.Unlock()

	delete(w.contexts, req.ContextID)
	c.JSON(http.StatusOK, gin.H{"id": req.ContextID})
}

func (w *Workspace) execute(c *gin.Context) {
	var req struct {
		ContextID string `json:"contextId"`
		Language  string `json:"language"`
		Command   string `json:"command"`
	}
	if !bind(c, &req) {
		return
	}

	w.mu.Lock()
	defer w.mu.Unlock()

	if _, ok := w.contexts[req.ContextID]; !ok {
		notFound(c, "context "+req.ContextID+" does not exist")
		return
	}

	w.nextCmdID++
	id := "cmd-" + strconv.Itoa(w.nextCmdID)
	w.executed = append(w.executed, req.Command)

	status := &databricks.CommandStatus{
		ID:      id,
		Status:  databricks.CommandStatusRunning,
		Results: &databricks.CommandResults{ResultType: "text", Data: "OK"},
	}
	for _, substr := range w.failCmds {
		if strings.Contains(req.Command, substr) {
			status.Results = &databricks.CommandResults{
				ResultType: databricks.ResultTypeError,
				Summary:    "AnalysisException",
				Cause:      "command failed: " + substr,
			}
		}
	}
	w.commands[id] = status

	c.JSON(http.StatusOK, gin.H{"id": id})
}

func (w *Workspace) commandStatus(c *gin.Context) {
	w.mu.Lock()
	defer w.mu.Unlock()

	status, ok := w.commands[c.Query("commandId")]
	if !ok {
		notFound(c, "command does not exist")
		return
	}

	res := *status
	if status.Status == databricks.CommandStatusRunning {
		res.Results = nil
		status.Status = databricks.CommandStatusFinished
	}
	c.JSON(http.StatusOK, res)
}
