package metadata

import (
	"context"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/pushcart/pushcart-deploy/internal/configuration"
	"github.com/spf13/afero"
	"golang.org/x/sync/errgroup"
)

// CollectPipelineConfigs loads every pipeline definition file. Files that cannot be loaded are
// logged and skipped. Relative transformation sheet paths are resolved against the directory of
// the file referencing them.
func (m *Metadata) CollectPipelineConfigs(ctx context.Context) ([]RawPipelineConfig, error) {
	paths, err := m.pipelineFiles()
	if err != nil {
		return nil, err
	}

	results := make([]*RawPipelineConfig, len(paths))

	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(m.concurrency)
	for i, path := range paths {
		i, path := i, path
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			results[i] = m.loadPipelineFile(path)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	raws := make([]RawPipelineConfig, 0, len(results))
	for _, r := range results {
		if r != nil {
			raws = append(raws, *r)
		}
	}
	return raws, nil
}

// pipelineFiles returns the sorted paths of all stage definition files.
func (m *Metadata) pipelineFiles() ([]string, error) {
	root := filepath.Join(m.configDir, PipelinesDir)

	ok, err := afero.DirExists(m.fs, root)
	if err != nil || !ok {
		m.log.Info("no pipelines directory found", "path", root)
		return nil, err
	}

	var paths []string
	err = afero.Walk(m.fs, root, func(path string, info os.FileInfo, err error) error {
		if err != nil {
			return err
		}
		if info.IsDir() || strings.HasPrefix(info.Name(), "_") || !configuration.IsSupported(path) {
			return nil
		}

		rel, err := filepath.Rel(root, path)
		if err != nil {
			return err
		}
		if len(strings.Split(filepath.ToSlash(rel), "/")) != 4 {
			m.log.Info("skipping file outside of a <catalog>/<schema>/<pipeline> directory", "path", path)
			return nil
		}

		paths = append(paths, path)
		return nil
	})
	if err != nil {
		return nil, err
	}

	sort.Strings(paths)
	return paths, nil
}

func (m *Metadata) loadPipelineFile(path string) *RawPipelineConfig {
	doc, err := configuration.LoadFile(m.fs, path)
	if err != nil {
		m.log.Error(err, "skipping pipeline configuration file", "path", path)
		return nil
	}

	pipelineDir := filepath.Dir(path)
	schemaDir := filepath.Dir(pipelineDir)

	m.resolveTransformationSheets(doc, pipelineDir)

	return &RawPipelineConfig{
		TargetCatalogName: filepath.Base(filepath.Dir(schemaDir)),
		TargetSchemaName:  filepath.Base(schemaDir),
		PipelineName:      filepath.Base(pipelineDir),
		Path:              path,
		Document:          doc,
	}
}

func (m *Metadata) resolveTransformationSheets(doc map[string]interface{}, dir string) {
	transformations, ok := doc[configuration.StageTransformations].([]interface{})
	if !ok {
		return
	}

	for _, t := range transformations {
		transformation, ok := t.(map[string]interface{})
		if !ok {
			continue
		}

		sheet, ok := transformation[transformationSheetKey].(string)
		if !ok || sheet == "" {
			continue
		}

		if exists, _ := afero.Exists(m.fs, sheet); exists {
			continue
		}
		transformation[transformationSheetKey] = filepath.Join(dir, sheet)
	}
}
