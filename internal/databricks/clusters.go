package databricks

import (
	"context"
	"net/http"

	"github.com/databricks/databricks-sdk-go/service/compute"
	"github.com/pkg/errors"
)

// Cluster states.
const (
	ClusterStatePending     = string(compute.StatePending)
	ClusterStateRunning     = string(compute.StateRunning)
	ClusterStateRestarting  = string(compute.StateRestarting)
	ClusterStateResizing    = string(compute.StateResizing)
	ClusterStateTerminating = string(compute.StateTerminating)
	ClusterStateTerminated  = string(compute.StateTerminated)
	ClusterStateError       = string(compute.StateError)
	ClusterStateUnknown     = string(compute.StateUnknown)
)

// ErrClusterFailed indicates a cluster entered a state it cannot run commands from.
var ErrClusterFailed = errors.New("cluster failed to start")

// NodeType is a cluster node type available in the workspace.
type NodeType struct {
	NodeTypeID          string  `json:"node_type_id"`
	MemoryMB            int64   `json:"memory_mb"`
	NumCores            float64 `json:"num_cores"`
	NumGPUs             int     `json:"num_gpus"`
	Description         string  `json:"description,omitempty"`
	IsDeprecated        bool    `json:"is_deprecated"`
	IsHidden            bool    `json:"is_hidden"`
	PhotonDriverCapable bool    `json:"photon_driver_capable"`
	PhotonWorkerCapable bool    `json:"photon_worker_capable"`
}

// ClusterInfo is the state of an all-purpose cluster.
type ClusterInfo struct {
	ClusterID    string `json:"cluster_id"`
	ClusterName  string `json:"cluster_name"`
	State        string `json:"state"`
	StateMessage string `json:"state_message,omitempty"`
}

// ListNodeTypes returns every node type of the workspace.
func (c *Client) ListNodeTypes(ctx context.Context) ([]NodeType, error) {
	var nodeTypes []NodeType
	err := c.call(ctx, http.MethodGet, "/api/2.0/clusters/list-node-types", func(ctx context.Context) error {
		res, err := c.ws.Clusters.ListNodeTypes(ctx)
		if err != nil {
			return err
		}

		nodeTypes = make([]NodeType, 0, len(res.NodeTypes))
		for _, nt := range res.NodeTypes {
			nodeTypes = append(nodeTypes, NodeType{
				NodeTypeID:          nt.NodeTypeId,
				MemoryMB:            int64(nt.MemoryMb),
				NumCores:            nt.NumCores,
				NumGPUs:             nt.NumGpus,
				Description:         nt.Description,
				IsDeprecated:        nt.IsDeprecated,
				IsHidden:            nt.IsHidden,
				PhotonDriverCapable: nt.PhotonDriverCapable,
				PhotonWorkerCapable: nt.PhotonWorkerCapable,
			})
		}
		return nil
	})
	return nodeTypes, err
}

// GetCluster returns the cluster with id.
func (c *Client) GetCluster(ctx context.Context, id string) (ClusterInfo, error) {
	var info ClusterInfo
	err := c.call(ctx, http.MethodGet, "/api/2.0/clusters/get", func(ctx context.Context) error {
		details, err := c.ws.Clusters.GetByClusterId(ctx, id)
		if err != nil {
			return err
		}
		info = ClusterInfo{
			ClusterID:    details.ClusterId,
			ClusterName:  details.ClusterName,
			State:        string(details.State),
			StateMessage: details.StateMessage,
		}
		return nil
	})
	return info, err
}

// StartCluster starts a terminated cluster.
func (c *Client) StartCluster(ctx context.Context, id string) error {
	return c.call(ctx, http.MethodPost, "/api/2.0/clusters/start", func(ctx context.Context) error {
		_, err := c.ws.Clusters.Start(ctx, compute.StartCluster{ClusterId: id})
		return err
	})
}

// startTerminated starts the cluster with id. A cluster that is not terminated yet cannot be
// started and is left for the next poll.
func (c *Client) startTerminated(ctx context.Context, id, state string) error {
	c.log.Info("starting cluster", "cluster_id", id, "state", state)
	if err := c.StartCluster(ctx, id); err != nil && !HasErrorCode(err, ErrorCodeInvalidState) {
		return err
	}
	return nil
}

// WaitClusterRunning starts the cluster with id if it is terminated and waits until it is running.
// A cluster that is still terminating is started once it has terminated.
func (c *Client) WaitClusterRunning(ctx context.Context, id string) (ClusterInfo, error) {
	info, err := c.GetCluster(ctx, id)
	if err != nil {
		return ClusterInfo{}, err
	}

	if info.State == ClusterStateTerminated || info.State == ClusterStateTerminating {
		if err := c.startTerminated(ctx, id, info.State); err != nil {
			return ClusterInfo{}, err
		}
	}

	err = c.poll(ctx, func() (bool, error) {
		if info.State == ClusterStateRunning {
			return true, nil
		}

		var err error
		if info, err = c.GetCluster(ctx, id); err != nil {
			return false, err
		}

		switch info.State {
		case ClusterStateRunning:
			return true, nil
		case ClusterStateTerminated:
			return false, c.startTerminated(ctx, id, info.State)
		case ClusterStateError, ClusterStateUnknown:
			return false, errors.Wrapf(ErrClusterFailed, "%v: %v %v", id, info.State, info.StateMessage)
		default:
			c.log.V(1).Info("waiting for cluster", "cluster_id", id, "state", info.State)
			return false, nil
		}
	})
	if err != nil {
		return ClusterInfo{}, errors.Wrapf(err, "wait for cluster %v", id)
	}

	return info, nil
}
