package configuration

import (
	"encoding/json"
	"os"
	"path/filepath"
	"strings"

	"github.com/pelletier/go-toml/v2"
	"github.com/pkg/errors"
	"github.com/spf13/afero"
	"sigs.k8s.io/yaml"
)

type loader func([]byte) (map[string]interface{}, error)

var loaders = map[string]loader{
	".json": loadJSON,
	".toml": loadTOML,
	".yaml": loadYAML,
	".yml":  loadYAML,
}

// Extensions returns the file extensions LoadFile understands.
func Extensions() []string {
	return []string{".json", ".toml", ".yaml", ".yml"}
}

// IsSupported reports whether path has an extension LoadFile understands.
func IsSupported(path string) bool {
	_, ok := loaders[strings.ToLower(filepath.Ext(path))]
	return ok
}

// LoadFile reads the configuration file at path into a generic document. The format is chosen by
// file extension: JSON, TOML and YAML are supported. The document must be a mapping.
func LoadFile(fs afero.Fs, path string) (map[string]interface{}, error) {
	load, ok := loaders[strings.ToLower(filepath.Ext(path))]
	if !ok {
		return nil, errors.Wrap(ErrUnsupportedFileType, path)
	}

	data, err := afero.ReadFile(fs, path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, errors.Wrap(ErrNotFound, path)
		}
		return nil, errors.Wrapf(err, "could not open file: %v", path)
	}

	doc, err := load(data)
	if err != nil {
		return nil, errors.Wrapf(ErrInvalidFile, "%v: %v", path, err)
	}

	if doc == nil {
		return nil, errors.Wrapf(ErrInvalidFile, "%v: empty document", path)
	}

	return doc, nil
}

// FindFile looks for a file named base with any supported extension in dir and returns the first
// one found. It returns ErrNotFound when there is none.
func FindFile(fs afero.Fs, dir, base string) (string, error) {
	for _, ext := range Extensions() {
		path := filepath.Join(dir, base+ext)
		ok, err := afero.Exists(fs, path)
		if err != nil {
			return "", err
		}
		if ok {
			return path, nil
		}
	}
	return "", errors.Wrap(ErrNotFound, filepath.Join(dir, base))
}

func loadJSON(data []byte) (map[string]interface{}, error) {
	var doc map[string]interface{}
	if err := json.Unmarshal(data, &doc); err != nil {
		return nil, err
	}
	return doc, nil
}

func loadTOML(data []byte) (map[string]interface{}, error) {
	var doc map[string]interface{}
	if err := toml.Unmarshal(data, &doc); err != nil {
		return nil, err
	}
	return doc, nil
}

func loadYAML(data []byte) (map[string]interface{}, error) {
	var doc map[string]interface{}
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, err
	}
	return doc, nil
}
