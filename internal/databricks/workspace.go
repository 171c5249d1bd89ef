package databricks

import (
	"context"
	"net/http"

	"github.com/databricks/databricks-sdk-go/service/workspace"
)

// Workspace object types.
const (
	ObjectTypeDirectory = string(workspace.ObjectTypeDirectory)
	ObjectTypeNotebook  = string(workspace.ObjectTypeNotebook)
	ObjectTypeRepo      = string(workspace.ObjectTypeRepo)
)

// ObjectInfo describes a workspace object.
type ObjectInfo struct {
	ObjectID   int64  `json:"object_id"`
	ObjectType string `json:"object_type"`
	Path       string `json:"path"`
	Language   string `json:"language,omitempty"`
}

// GetStatus returns the workspace object at path.
func (c *Client) GetStatus(ctx context.Context, path string) (ObjectInfo, error) {
	var info ObjectInfo
	err := c.call(ctx, http.MethodGet, "/api/2.0/workspace/get-status", func(ctx context.Context) error {
		res, err := c.ws.Workspace.GetStatus(ctx, workspace.GetStatusRequest{Path: path})
		if err != nil {
			return err
		}
		info = ObjectInfo{
			ObjectID:   res.ObjectId,
			ObjectType: string(res.ObjectType),
			Path:       res.Path,
			Language:   string(res.Language),
		}
		return nil
	})
	return info, err
}

// Mkdirs creates path and any missing parents. Existing directories are not an error.
func (c *Client) Mkdirs(ctx context.Context, path string) error {
	return c.call(ctx, http.MethodPost, "/api/2.0/workspace/mkdirs", func(ctx context.Context) error {
		return c.ws.Workspace.Mkdirs(ctx, workspace.Mkdirs{Path: path})
	})
}
