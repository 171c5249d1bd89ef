// Package databrickstest provides an in-process fake of the Databricks workspace APIs used by
// pushcart-deploy.
package databrickstest

import (
	"net/http"
	"net/http/httptest"
	"sort"
	"strings"
	"sync"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/go-logr/logr"
	"github.com/go-logr/logr/testr"
	"github.com/pushcart/pushcart-deploy/internal/databricks"
	"github.com/pushcart/pushcart-deploy/internal/logger"
)

// Token is the personal access token accepted by the fake workspace.
const Token = "dapi-test-token"

// Workspace is a fake workspace served over HTTP. The zero value is not usable, create one with
// New.
type Workspace struct {
	*httptest.Server

	// PipelinesPageSize and JobsPageSize bound list responses to exercise pagination.
	PipelinesPageSize int
	JobsPageSize      int

	mu sync.Mutex

	nodeTypes     []databricks.NodeType
	clusters      map[string]*databricks.ClusterInfo
	clusterStates map[string][]string

	pipelines      map[string]*databricks.Pipeline
	nextPipelineID int

	jobs      map[int64]*databricks.Job
	nextJobID int64

	dirs      map[string]bool
	repos     map[int64]*databricks.Repo
	nextRepo  int64
	creds     map[int64]*databricks.GitCredential
	nextCred  int64
	scopes    map[string]*scope
	files     map[string][]byte
	handles   map[int64]*handle
	nextFH    int64
	contexts  map[string]int
	commands  map[string]*databricks.CommandStatus
	executed  []string
	failCmds  []string
	nextCmdID int

	failures []*failure
}

type scope struct {
	principal string
	secrets   map[string]string
}

type handle struct {
	path string
	data []byte
}

type failure struct {
	method string
	path   string
	status int
	times  int
}

// New starts a fake workspace. It is closed when the test completes.
func New(t testing.TB) *Workspace {
	t.Helper()

	gin.SetMode(gin.ReleaseMode)

	w := &Workspace{
		PipelinesPageSize: 100,
		JobsPageSize:      25,
		clusters:          map[string]*databricks.ClusterInfo{},
		clusterStates:     map[string][]string{},
		pipelines:         map[string]*databricks.Pipeline{},
		jobs:              map[int64]*databricks.Job{},
		dirs:              map[string]bool{"/": true},
		repos:             map[int64]*databricks.Repo{},
		creds:             map[int64]*databricks.GitCredential{},
		scopes:            map[string]*scope{},
		files:             map[string][]byte{},
		handles:           map[int64]*handle{},
		contexts:          map[string]int{},
		commands:          map[string]*databricks.CommandStatus{},
	}

	w.Server = httptest.NewServer(w.router(testr.NewWithInterface(t, testr.Options{})))
	t.Cleanup(w.Close)

	return w
}

// Config returns a client configuration pointing at w.
func (w *Workspace) Config() databricks.Config {
	return databricks.Config{Host: w.URL, Token: Token}
}

func (w *Workspace) router(log logr.Logger) *gin.Engine {
	router := gin.New()
	router.Use(gin.Recovery(), logger.Middleware(log), w.authenticate, w.injectFailures)

	api := router.Group("/api")

	api.GET("/2.0/workspace/get-status", w.getStatus)
	api.POST("/2.0/workspace/mkdirs", w.mkdirs)

	api.GET("/2.0/clusters/list-node-types", w.listNodeTypes)
	api.GET("/2.0/clusters/get", w.getCluster)
	api.POST("/2.0/clusters/start", w.startCluster)

	api.GET("/2.0/pipelines", w.listPipelines)
	api.POST("/2.0/pipelines", w.createPipeline)
	api.GET("/2.0/pipelines/:id", w.getPipeline)
	api.PUT("/2.0/pipelines/:id", w.editPipeline)
	api.DELETE("/2.0/pipelines/:id", w.deletePipeline)

	api.GET("/2.1/jobs/list", w.listJobs)
	api.POST("/2.1/jobs/create", w.createJob)
	api.POST("/2.1/jobs/reset", w.resetJob)
	api.POST("/2.1/jobs/delete", w.deleteJob)

	api.GET("/2.0/repos", w.listRepos)
	api.POST("/2.0/repos", w.createRepo)
	api.GET("/2.0/repos/:id", w.getRepo)
	api.PATCH("/2.0/repos/:id", w.updateRepo)

	api.GET("/2.0/git-credentials", w.listGitCredentials)
	api.POST("/2.0/git-credentials", w.createGitCredential)
	api.PATCH("/2.0/git-credentials/:id", w.updateGitCredential)

	api.GET("/2.0/secrets/scopes/list", w.listScopes)
	api.POST("/2.0/secrets/scopes/create", w.createScope)
	api.POST("/2.0/secrets/put", w.putSecret)

	api.POST("/2.0/dbfs/create", w.dbfsCreate)
	api.POST("/2.0/dbfs/add-block", w.dbfsAddBlock)
	api.POST("/2.0/dbfs/close", w.dbfsClose)
	api.POST("/2.0/dbfs/delete", w.dbfsDelete)

	api.POST("/1.2/contexts/create", w.createContext)
	api.GET("/1.2/contexts/status", w.contextStatus)
	api.POST("/1.2/contexts/destroy", w.destroyContext)
	api.POST("/1.2/commands/execute", w.execute)
	api.GET("/1.2/commands/status", w.commandStatus)

	return router
}

func (w *Workspace) authenticate(c *gin.Context) {
	token, err := databricks.TokenFromAuthHeader(c.GetHeader("Authorization"))
	if err != nil {
		apiError(c, http.StatusUnauthorized, "UNAUTHENTICATED", err.Error())
		return
	}
	if token != Token {
		apiError(c, http.StatusForbidden, "PERMISSION_DENIED", "invalid access token")
	}
}

func (w *Workspace) injectFailures(c *gin.Context) {
	w.mu.Lock()
	defer w.mu.Unlock()

	for _, f := range w.failures {
		if f.times > 0 && f.method == c.Request.Method && f.path == c.Request.URL.Path {
			f.times--
			apiError(c, f.status, "TEMPORARILY_UNAVAILABLE", "injected failure")
			return
		}
	}
}

// FailNext makes the next times requests for method and path fail with status.
func (w *Workspace) FailNext(method, path string, status, times int) {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.failures = append(w.failures, &failure{method: method, path: path, status: status, times: times})
}

func apiError(c *gin.Context, status int, code, msg string) {
	c.AbortWithStatusJSON(status, gin.H{"error_code": code, "message": msg})
}

func notFound(c *gin.Context, msg string) {
	apiError(c, http.StatusNotFound, databricks.ErrorCodeResourceDoesNotExist, msg)
}

func badRequest(c *gin.Context, msg string) {
	apiError(c, http.StatusBadRequest, databricks.ErrorCodeInvalidParameter, msg)
}

func bind(c *gin.Context, v interface{}) bool {
	if err := c.ShouldBindJSON(v); err != nil {
		badRequest(c, err.Error())
		return false
	}
	return true
}

func sortedKeys[K string | int64](m map[K]bool) []K {
	keys := make([]K, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Slice(keys, func(i, j int) bool { return keys[i] < keys[j] })
	return keys
}

// Dirs returns every workspace directory.
func (w *Workspace) Dirs() []string {
	w.mu.Lock()
	defer w.mu.Unlock()
	return sortedKeys(w.dirs)
}

func (w *Workspace) getStatus(c *gin.Context) {
	w.mu.Lock()
	defer w.mu.Unlock()

	path := c.Query("path")
	if w.dirs[path] {
		c.JSON(http.StatusOK, databricks.ObjectInfo{ObjectType: databricks.ObjectTypeDirectory, Path: path})
		return
	}
	for _, r := range w.repos {
		if r.Path == path {
			c.JSON(http.StatusOK, databricks.ObjectInfo{ObjectID: r.ID, ObjectType: databricks.ObjectTypeRepo, Path: path})
			return
		}
	}
	notFound(c, "path ("+path+") doesn't exist")
}

func (w *Workspace) mkdirs(c *gin.Context) {
	var req struct {
		Path string `json:"path"`
	}
	if !bind(c, &req) {
		return
	}

	w.mu.Lock()
	defer w.mu.Unlock()

	if !strings.HasPrefix(req.Path, "/") {
		badRequest(c, "path must be absolute")
		return
	}
	for p := req.Path; p != "/" && p != ""; p = p[:strings.LastIndex(p, "/")] {
		w.dirs[p] = true
		if strings.LastIndex(p, "/") == 0 {
			break
		}
	}
	c.JSON(http.StatusOK, gin.H{})
}
