package settings

import (
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/mitchellh/mapstructure"
	"github.com/pkg/errors"
	"github.com/pushcart/pushcart-deploy/internal/configuration"
	"github.com/spf13/afero"
)

// RepoSettingsFile is the base name of the repo settings file in the configuration directory.
const RepoSettingsFile = "repo_settings"

// RepoSettings describe the Git repository holding the Pushcart runtime notebook and the secret
// scope of a deployment.
type RepoSettings struct {
	GitURL           string `mapstructure:"git_url" json:"git_url,omitempty" validate:"omitempty,url"`
	GitProvider      string `mapstructure:"git_provider" json:"git_provider" validate:"required"`
	GitBranch        string `mapstructure:"git_branch" json:"git_branch,omitempty"`
	GitTag           string `mapstructure:"git_tag" json:"git_tag,omitempty"`
	RepoName         string `mapstructure:"repo_name" json:"repo_name" validate:"required,excludesall=/"`
	RepoFolder       string `mapstructure:"repo_folder" json:"repo_folder" validate:"required,startswith=/"`
	PipelineNotebook string `mapstructure:"pipeline_notebook" json:"pipeline_notebook" validate:"required"`
	SecretScope      string `mapstructure:"secret_scope" json:"secret_scope" validate:"required"`
}

// DefaultRepoSettings returns the settings used for every key missing from the repo settings file.
func DefaultRepoSettings() RepoSettings {
	return RepoSettings{
		GitProvider:      "gitHub",
		GitBranch:        "main",
		RepoName:         "pushcart-config",
		RepoFolder:       "/Repos/pushcart",
		PipelineNotebook: "pushcart_pipeline",
		SecretScope:      "pushcart",
	}
}

// RepoPath returns the workspace path of the repo.
func (r RepoSettings) RepoPath() string {
	return strings.TrimRight(r.RepoFolder, "/") + "/" + r.RepoName
}

// NotebookPath returns the workspace path of the pipeline notebook.
func (r RepoSettings) NotebookPath() string {
	return r.RepoPath() + "/" + strings.TrimLeft(r.PipelineNotebook, "/")
}

// LoadRepoSettings reads the repo_settings file of configDir. Keys missing from the file, or the
// whole file, default to DefaultRepoSettings.
func LoadRepoSettings(fs afero.Fs, configDir string) (RepoSettings, error) {
	settings := DefaultRepoSettings()

	path, err := configuration.FindFile(fs, configDir, RepoSettingsFile)
	if errors.Is(err, configuration.ErrNotFound) {
		return settings, nil
	}
	if err != nil {
		return RepoSettings{}, err
	}

	doc, err := configuration.LoadFile(fs, path)
	if err != nil {
		return RepoSettings{}, err
	}

	decoder, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		ErrorUnused: true,
		Result:      &settings,
	})
	if err != nil {
		return RepoSettings{}, err
	}

	if err := decoder.Decode(doc); err != nil {
		return RepoSettings{}, errors.Wrapf(configuration.ErrInvalidFile, "%v: %v", path, err)
	}

	if err := validator.New().Struct(settings); err != nil {
		return RepoSettings{}, errors.Wrapf(configuration.ErrInvalidFile, "%v: %v", path, err)
	}

	return settings, nil
}
