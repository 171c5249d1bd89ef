// Package settings resolves the workspace settings of a deployment: repo and secret settings of the
// configuration directory, and the Delta Live Tables pipeline and job settings of every pipeline.
// Settings files are optional, missing ones fall back to defaults.
package settings

import (
	"path/filepath"

	"github.com/go-logr/logr"
	"github.com/pkg/errors"
	"github.com/pushcart/pushcart-deploy/internal/configuration"
	"github.com/pushcart/pushcart-deploy/internal/metadata"
	"github.com/spf13/afero"
)

// Settings file base names inside a pipeline directory.
const (
	PipelineSettingsFile = "_pipeline_settings"
	JobSettingsFile      = "_job_settings"
)

// pipelineDir returns the directory holding the definition of a pipeline.
func pipelineDir(configDir, catalog, schema, pipeline string) string {
	return filepath.Join(configDir, metadata.PipelinesDir, catalog, schema, pipeline)
}

// loadOptional reads the settings file named base from dir. It returns nil when there is no such
// file or when it cannot be loaded, the latter being logged.
func loadOptional(fs afero.Fs, log logr.Logger, dir, base string) (map[string]interface{}, error) {
	path, err := configuration.FindFile(fs, dir, base)
	if err != nil {
		if errors.Is(err, configuration.ErrNotFound) {
			return nil, nil
		}
		return nil, err
	}

	doc, err := configuration.LoadFile(fs, path)
	if err != nil {
		log.Error(err, "could not load settings file, using defaults", "path", path)
		return nil, nil
	}
	return doc, nil
}
