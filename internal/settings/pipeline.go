package settings

import (
	"context"
	"sort"

	"github.com/go-logr/logr"
	"github.com/pkg/errors"
	"github.com/pushcart/pushcart-deploy/internal/databricks"
	"github.com/spf13/afero"
)

// ErrNoPhotonNodeType indicates the workspace offers no node type able to run Photon.
var ErrNoPhotonNodeType = errors.New("no photon capable node type available")

// NodeTypeLister lists the node types of a workspace.
type NodeTypeLister interface {
	ListNodeTypes(ctx context.Context) ([]databricks.NodeType, error)
}

// PipelineSettings resolves the settings of Delta Live Tables pipelines.
type PipelineSettings struct {
	fs        afero.Fs
	configDir string
	nodeTypes NodeTypeLister
	log       logr.Logger
}

// NewPipelineSettings creates a PipelineSettings reading from configDir. nodeTypes is used to pick
// the cluster node type of pipelines without a settings file.
func NewPipelineSettings(fs afero.Fs, configDir string, nodeTypes NodeTypeLister, logger logr.Logger) PipelineSettings {
	return PipelineSettings{
		fs:        fs,
		configDir: configDir,
		nodeTypes: nodeTypes,
		log:       logger.WithName("pipeline-settings"),
	}
}

// Load returns the settings of a pipeline. They are read from the pipeline's _pipeline_settings
// file, or defaulted to a triggered pipeline on an autoscaling cluster of the smallest Photon node
// type. Name, catalog, target, libraries and configuration are always overwritten. The id is set
// when pipelineID is not empty.
func (p PipelineSettings) Load(
	ctx context.Context,
	catalog, schema, pipeline string,
	libraries []interface{},
	configuration map[string]string,
	pipelineID string,
) (map[string]interface{}, error) {
	doc, err := loadOptional(p.fs, p.log, pipelineDir(p.configDir, catalog, schema, pipeline), PipelineSettingsFile)
	if err != nil {
		return nil, err
	}

	if doc == nil {
		nodeType, err := SmallestPhotonNodeType(ctx, p.nodeTypes)
		if err != nil {
			return nil, err
		}
		doc = DefaultPipelineSettings(nodeType)
	}

	Override(doc, catalog, schema, pipeline, libraries, configuration, pipelineID)
	return doc, nil
}

// DefaultPipelineSettings returns settings of a triggered pipeline on the preview channel,
// autoscaling between one and five workers of nodeType.
func DefaultPipelineSettings(nodeType string) map[string]interface{} {
	return map[string]interface{}{
		"channel": "PREVIEW",
		"clusters": []interface{}{
			map[string]interface{}{
				"label":        "default",
				"node_type_id": nodeType,
				"autoscale": map[string]interface{}{
					"min_workers": 1,
					"max_workers": 5,
				},
			},
		},
		"continuous": false,
	}
}

// Override sets the fields of settings that identify a deployed pipeline.
func Override(
	settings map[string]interface{},
	catalog, schema, pipeline string,
	libraries []interface{},
	configuration map[string]string,
	pipelineID string,
) {
	settings["name"] = pipeline
	settings["catalog"] = catalog
	settings["target"] = schema
	settings["libraries"] = libraries

	conf := make(map[string]interface{}, len(configuration))
	for k, v := range configuration {
		conf[k] = v
	}
	settings["configuration"] = conf

	if pipelineID != "" {
		settings["id"] = pipelineID
	}
}

// NotebookLibraries returns the libraries of a pipeline running a single notebook.
func NotebookLibraries(path string) []interface{} {
	return []interface{}{
		map[string]interface{}{
			"notebook": map[string]interface{}{"path": path},
		},
	}
}

// SmallestPhotonNodeType returns the smallest node type, by cores, memory and GPUs, that can run
// Photon as driver and as worker. Deprecated and hidden node types are never picked.
func SmallestPhotonNodeType(ctx context.Context, lister NodeTypeLister) (string, error) {
	nodeTypes, err := lister.ListNodeTypes(ctx)
	if err != nil {
		return "", errors.Wrap(err, "list node types")
	}

	var candidates []databricks.NodeType
	for _, nt := range nodeTypes {
		if nt.PhotonDriverCapable && nt.PhotonWorkerCapable && !nt.IsDeprecated && !nt.IsHidden {
			candidates = append(candidates, nt)
		}
	}

	if len(candidates) == 0 {
		return "", ErrNoPhotonNodeType
	}

	sort.SliceStable(candidates, func(i, j int) bool {
		a, b := candidates[i], candidates[j]
		if a.NumCores != b.NumCores {
			return a.NumCores < b.NumCores
		}
		if a.MemoryMB != b.MemoryMB {
			return a.MemoryMB < b.MemoryMB
		}
		return a.NumGPUs < b.NumGPUs
	})

	return candidates[0].NodeTypeID, nil
}
