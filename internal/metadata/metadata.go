// Package metadata discovers pipeline definitions in a Pushcart configuration directory and turns
// them into validated pipeline configurations.
//
// Pipeline definitions live under <config-dir>/pipelines/<catalog>/<schema>/<pipeline>/. Every
// JSON, TOML or YAML file in a pipeline directory contributes stages to that pipeline. Files whose
// name starts with an underscore hold settings and are not read as stage definitions.
package metadata

import (
	"context"
	"path/filepath"

	"github.com/go-logr/logr"
	"github.com/pkg/errors"
	"github.com/pushcart/pushcart-deploy/internal/configuration"
	"github.com/spf13/afero"
)

// PipelinesDir is the directory, relative to the configuration directory, holding pipeline
// definitions.
const PipelinesDir = "pipelines"

// DefaultConcurrency is the number of configuration files loaded in parallel.
const DefaultConcurrency = 8

// ErrConfigDirNotFound indicates the configuration directory does not exist.
var ErrConfigDirNotFound = errors.New("configuration directory not found")

// ErrDuplicatePipelineName indicates two pipelines in different schemas or catalogs share a name.
var ErrDuplicatePipelineName = errors.New("duplicate pipeline name")

// PipelineConfig is a validated pipeline configuration and the names identifying it.
type PipelineConfig struct {
	TargetCatalogName string `json:"target_catalog_name"`
	TargetSchemaName  string `json:"target_schema_name"`
	PipelineName      string `json:"pipeline_name"`

	configuration.Configuration
}

// RawPipelineConfig is a pipeline definition document before validation.
type RawPipelineConfig struct {
	TargetCatalogName string
	TargetSchemaName  string
	PipelineName      string

	// Path of the file the document was loaded from. Empty once documents have been grouped.
	Path string

	Document map[string]interface{}
}

func (r RawPipelineConfig) key() string {
	return filepath.Join(r.TargetCatalogName, r.TargetSchemaName, r.PipelineName)
}

// Metadata reads pipeline definitions from a configuration directory.
type Metadata struct {
	fs          afero.Fs
	configDir   string
	log         logr.Logger
	concurrency int
}

// New creates a Metadata for configDir. It returns ErrConfigDirNotFound if configDir is not an
// existing directory.
func New(fs afero.Fs, configDir string, logger logr.Logger) (*Metadata, error) {
	ok, err := afero.DirExists(fs, configDir)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, errors.Wrap(ErrConfigDirNotFound, configDir)
	}

	return &Metadata{
		fs:          fs,
		configDir:   configDir,
		log:         logger.WithName("metadata"),
		concurrency: DefaultConcurrency,
	}, nil
}

// ConfigDir returns the configuration directory.
func (m *Metadata) ConfigDir() string {
	return m.configDir
}

// Load collects, enriches, groups and validates every pipeline definition in the configuration
// directory.
func (m *Metadata) Load(ctx context.Context) ([]PipelineConfig, error) {
	raws, err := m.CollectPipelineConfigs(ctx)
	if err != nil {
		return nil, err
	}

	if err := m.EnrichPipelineConfigs(ctx, raws); err != nil {
		return nil, err
	}

	configs, err := ValidatePipelineConfigs(GroupPipelineConfigs(raws))
	if err != nil {
		return nil, err
	}

	m.log.Info("loaded pipeline configurations", "pipelines", len(configs), "files", len(raws))
	return configs, nil
}
