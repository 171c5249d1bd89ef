package databrickstest

import (
	"encoding/base64"
	"net/http"
	"sort"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/pushcart/pushcart-deploy/internal/databricks"
)

// AddSecretScope creates an empty secret scope.
func (w *Workspace) AddSecretScope(name string) {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.scopes[name] = &scope{secrets: map[string]string{}}
}

// Secrets returns the secrets stored in scope and whether the scope exists.
func (w *Workspace) Secrets(name string) (map[string]string, bool) {
	w.mu.Lock()
	defer w.mu.Unlock()

	s, ok := w.scopes[name]
	if !ok {
		return nil, false
	}

	secrets := make(map[string]string, len(s.secrets))
	for k, v := range s.secrets {
		secrets[k] = v
	}
	return secrets, true
}

// ScopePrincipal returns the initial manage principal of scope.
func (w *Workspace) ScopePrincipal(name string) string {
	w.mu.Lock()
	defer w.mu.Unlock()

	if s, ok := w.scopes[name]; ok {
		return s.principal
	}
	return ""
}

// PutFile stores a DBFS file.
func (w *Workspace) PutFile(path string, data []byte) {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.files[dbfsPath(path)] = data
}

// File returns the content of the DBFS file at path.
func (w *Workspace) File(path string) ([]byte, bool) {
	w.mu.Lock()
	defer w.mu.Unlock()

	data, ok := w.files[dbfsPath(path)]
	return data, ok
}

// Files returns every DBFS file path, sorted.
func (w *Workspace) Files() []string {
	w.mu.Lock()
	defer w.mu.Unlock()

	paths := make([]string, 0, len(w.files))
	for p := range w.files {
		paths = append(paths, p)
	}
	sort.Strings(paths)
	return paths
}

// dbfsPath strips the dbfs: scheme so both path forms address the same file.
func dbfsPath(path string) string {
	return strings.TrimPrefix(path, "dbfs:")
}

func (w *Workspace) listScopes(c *gin.Context) {
	w.mu.Lock()
	defer w.mu.Unlock()

	names := make([]string, 0, len(w.scopes))
	for name := range w.scopes {
		names = append(names, name)
	}
	sort.Strings(names)

	scopes := make([]databricks.SecretScope, 0, len(names))
	for _, name := range names {
		scopes = append(scopes, databricks.SecretScope{Name: name, BackendType: databricks.ScopeBackendDatabricks})
	}
	c.JSON(http.StatusOK, gin.H{"scopes": scopes})
}

func (w *Workspace) createScope(c *gin.Context) {
	var req struct {
		Scope                  string `json:"scope"`
		InitialManagePrincipal string `json:"initial_manage_principal"`
		ScopeBackendType       string `json:"scope_backend_type"`
	}
	if !bind(c, &req) {
		return
	}

	w.mu.Lock()
	defer w.mu.Unlock()

	if _, ok := w.scopes[req.Scope]; ok {
		apiError(c, http.StatusBadRequest, databricks.ErrorCodeResourceAlreadyExist, "scope "+req.Scope+" already exists")
		return
	}
	if req.ScopeBackendType != databricks.ScopeBackendDatabricks {
		badRequest(c, "unsupported scope backend "+req.ScopeBackendType)
		return
	}

	w.scopes[req.Scope] = &scope{principal: req.InitialManagePrincipal, secrets: map[string]string{}}
	c.JSON(http.StatusOK, gin.H{})
}

func (w *Workspace) putSecret(c *gin.Context) {
	var req struct {
		Scope       string `json:"scope"`
		Key         string `json:"key"`
		StringValue string `json:"string_value"`
	}
	if !bind(c, &req) {
		return
	}

	w.mu.Lock()
	defer w.mu.Unlock()

	s, ok := w.scopes[req.Scope]
	if !ok {
		notFound(c, "scope "+req.Scope+" does not exist")
		return
	}
	s.secrets[req.Key] = req.StringValue
	c.JSON(http.StatusOK, gin.H{})
}

func (w *Workspace) dbfsCreate(c *gin.Context) {
	var req struct {
		Path      string `json:"path"`
		Overwrite bool   `json:"overwrite"`
	}
	if !bind(c, &req) {
		return
	}

	w.mu.Lock()
	defer w.mu.Unlock()

	if _, ok := w.files[dbfsPath(req.Path)]; ok && !req.Overwrite {
		apiError(c, http.StatusBadRequest, databricks.ErrorCodeResourceAlreadyExist, "file "+req.Path+" already exists")
		return
	}

	w.nextFH++
	w.handles[w.nextFH] = &handle{path: dbfsPath(req.Path)}
	c.JSON(http.StatusOK, gin.H{"handle": w.nextFH})
}

func (w *Workspace) dbfsAddBlock(c *gin.Context) {
	var req struct {
		Handle int64  `json:"handle"`
		Data   string `json:"data"`
	}
	if !bind(c, &req) {
		return
	}

	w.mu.Lock()
	defer w.mu.Unlock()

	h, ok := w.handles[req.Handle]
	if !ok {
		notFound(c, "handle "+strconv.FormatInt(req.Handle, 10)+" does not exist")
		return
	}

	data, err := base64.StdEncoding.DecodeString(req.Data)
	if err != nil {
		badRequest(c, err.Error())
		return
	}
	h.data = append(h.data, data...)
	c.JSON(http.StatusOK, gin.H{})
}

func (w *Workspace) dbfsClose(c *gin.Context) {
	var req struct {
		Handle int64 `json:"handle"`
	}
	if !bind(c, &req) {
		return
	}

	w.mu.Lock()
	defer w.mu.Unlock()

	h, ok := w.handles[req.Handle]
	if !ok {
		notFound(c, "handle "+strconv.FormatInt(req.Handle, 10)+" does not exist")
		return
	}
	delete(w.handles, req.Handle)
	w.files[h.path] = h.data
	c.JSON(http.StatusOK, gin.H{})
}

func (w *Workspace) dbfsDelete(c *gin.Context) {
	var req struct {
		Path      string `json:"path"`
		Recursive bool   `json:"recursive"`
	}
	if !bind(c, &req) {
		return
	}

	w.mu.Lock()
	defer w.mu.Unlock()

	target := dbfsPath(req.Path)
	deleted := false
	for p := range w.files {
		if p == target || (req.Recursive && strings.HasPrefix(p, strings.TrimSuffix(target, "/")+"/")) {
			delete(w.files, p)
			deleted = true
		}
	}
	if !deleted {
		notFound(c, "no file or directory exists on path "+req.Path)
		return
	}
	c.JSON(http.StatusOK, gin.H{})
}
