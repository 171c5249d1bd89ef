package databrickstest

import (
	"net/http"
	"path"
	"sort"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/pushcart/pushcart-deploy/internal/databricks"
)

// AddRepo adds a repo and returns its id. Its parent directory is created.
func (w *Workspace) AddRepo(repo databricks.Repo) int64 {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.addRepo(repo)
}

func (w *Workspace) addRepo(repo databricks.Repo) int64 {
	w.nextRepo++
	repo.ID = w.nextRepo
	if repo.Branch == "" {
		repo.Branch = "main"
	}
	w.repos[repo.ID] = &repo
	w.dirs[path.Dir(repo.Path)] = true
	return repo.ID
}

// Repos returns every repo sorted by id.
func (w *Workspace) Repos() []databricks.Repo {
	w.mu.Lock()
	defer w.mu.Unlock()

	ids := make([]int64, 0, len(w.repos))
	for id := range w.repos {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })

	repos := make([]databricks.Repo, 0, len(ids))
	for _, id := range ids {
		repos = append(repos, *w.repos[id])
	}
	return repos
}

// AddGitCredential stores a Git credential and returns its id.
func (w *Workspace) AddGitCredential(cred databricks.GitCredential) int64 {
	w.mu.Lock()
	defer w.mu.Unlock()

	w.nextCred++
	cred.CredentialID = w.nextCred
	w.creds[cred.CredentialID] = &cred
	return cred.CredentialID
}

// GitCredentials returns every stored Git credential, including tokens.
func (w *Workspace) GitCredentials() []databricks.GitCredential {
	w.mu.Lock()
	defer w.mu.Unlock()

	var creds []databricks.GitCredential
	for id := int64(1); id <= w.nextCred; id++ {
		if cred, ok := w.creds[id]; ok {
			creds = append(creds, *cred)
		}
	}
	return creds
}

func (w *Workspace) listRepos(c *gin.Context) {
	w.mu.Lock()
	defer w.mu.Unlock()

	prefix := c.Query("path_prefix")
	repos := []databricks.Repo{}
	for id := int64(1); id <= w.nextRepo; id++ {
		if r, ok := w.repos[id]; ok && strings.HasPrefix(r.Path, prefix) {
			repos = append(repos, *r)
		}
	}
	c.JSON(http.StatusOK, gin.H{"repos": repos})
}

func (w *Workspace) getRepo(c *gin.Context) {
	w.mu.Lock()
	defer w.mu.Unlock()

	id, _ := strconv.ParseInt(c.Param("id"), 10, 64)
	repo, ok := w.repos[id]
	if !ok {
		notFound(c, "repo "+c.Param("id")+" does not exist")
		return
	}
	c.JSON(http.StatusOK, repo)
}

func (w *Workspace) createRepo(c *gin.Context) {
	var req databricks.CreateRepoRequest
	if !bind(c, &req) {
		return
	}

	w.mu.Lock()
	defer w.mu.Unlock()

	if req.URL == "" || req.Provider == "" {
		badRequest(c, "url and provider are required")
		return
	}
	if !w.dirs[path.Dir(req.Path)] {
		apiError(c, http.StatusBadRequest, databricks.ErrorCodeResourceDoesNotExist, "parent folder "+path.Dir(req.Path)+" does not exist")
		return
	}
	for _, r := range w.repos {
		if r.Path == req.Path {
			apiError(c, http.StatusBadRequest, databricks.ErrorCodeResourceAlreadyExist, "repo "+req.Path+" already exists")
			return
		}
	}

	id := w.addRepo(databricks.Repo{Path: req.Path, URL: req.URL, Provider: req.Provider})
	c.JSON(http.StatusOK, w.repos[id])
}

func (w *Workspace) updateRepo(c *gin.Context) {
	var req databricks.UpdateRepoRequest
	if !bind(c, &req) {
		return
	}

	w.mu.Lock()
	defer w.mu.Unlock()

	id, _ := strconv.ParseInt(c.Param("id"), 10, 64)
	repo, ok := w.repos[id]
	if !ok {
		notFound(c, "repo "+c.Param("id")+" does not exist")
		return
	}

	switch {
	case req.Branch != "" && req.Tag != "":
		badRequest(c, "only one of branch or tag may be set")
		return
	case req.Tag != "":
		repo.Branch = ""
		repo.HeadCommitID = "tag:" + req.Tag
	case req.Branch != "":
		repo.Branch = req.Branch
		repo.HeadCommitID = "branch:" + req.Branch
	default:
		badRequest(c, "branch or tag is required")
		return
	}
	c.JSON(http.StatusOK, gin.H{})
}

func (w *Workspace) listGitCredentials(c *gin.Context) {
	w.mu.Lock()
	defer w.mu.Unlock()

	creds := []databricks.GitCredential{}
	for id := int64(1); id <= w.nextCred; id++ {
		if cred, ok := w.creds[id]; ok {
			listed := *cred
			listed.PersonalAccessToken = ""
			creds = append(creds, listed)
		}
	}
	c.JSON(http.StatusOK, gin.H{"credentials": creds})
}

func (w *Workspace) createGitCredential(c *gin.Context) {
	var cred databricks.GitCredential
	if !bind(c, &cred) {
		return
	}

	w.mu.Lock()
	defer w.mu.Unlock()

	for _, existing := range w.creds {
		if strings.EqualFold(existing.GitProvider, cred.GitProvider) {
			apiError(c, http.StatusBadRequest, databricks.ErrorCodeResourceAlreadyExist, "credential for "+cred.GitProvider+" already exists")
			return
		}
	}

	w.nextCred++
	cred.CredentialID = w.nextCred
	w.creds[cred.CredentialID] = &cred

	created := cred
	created.PersonalAccessToken = ""
	c.JSON(http.StatusOK, created)
}

func (w *Workspace) updateGitCredential(c *gin.Context) {
	var cred databricks.GitCredential
	if !bind(c, &cred) {
		return
	}

	w.mu.Lock()
	defer w.mu.Unlock()

	id, _ := strconv.ParseInt(c.Param("id"), 10, 64)
	if _, ok := w.creds[id]; !ok {
		notFound(c, "credential "+c.Param("id")+" does not exist")
		return
	}

	cred.CredentialID = id
	w.creds[id] = &cred
	c.JSON(http.StatusOK, gin.H{})
}
