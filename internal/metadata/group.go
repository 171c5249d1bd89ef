package metadata

import (
	"sort"

	"github.com/pkg/errors"
	"github.com/pushcart/pushcart-deploy/internal/configuration"
	"go.uber.org/multierr"
)

// GroupPipelineConfigs merges documents belonging to the same pipeline. List values are
// concatenated in file order, any other value is taken from the last file defining it. The result
// is sorted by catalog, schema and pipeline name.
func GroupPipelineConfigs(raws []RawPipelineConfig) []RawPipelineConfig {
	sorted := make([]RawPipelineConfig, len(raws))
	copy(sorted, raws)
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].key() < sorted[j].key()
	})

	var grouped []RawPipelineConfig
	for _, raw := range sorted {
		if n := len(grouped); n > 0 && grouped[n-1].key() == raw.key() {
			merge(grouped[n-1].Document, raw.Document)
			continue
		}

		merged := RawPipelineConfig{
			TargetCatalogName: raw.TargetCatalogName,
			TargetSchemaName:  raw.TargetSchemaName,
			PipelineName:      raw.PipelineName,
			Document:          map[string]interface{}{},
		}
		merge(merged.Document, raw.Document)
		grouped = append(grouped, merged)
	}

	return grouped
}

func merge(dst, src map[string]interface{}) {
	for k, v := range src {
		list, ok := v.([]interface{})
		if !ok {
			dst[k] = v
			continue
		}

		existing, _ := dst[k].([]interface{})
		combined := make([]interface{}, 0, len(existing)+len(list))
		combined = append(combined, existing...)
		dst[k] = append(combined, list...)
	}
}

// ValidatePipelineConfigs decodes every grouped document into a PipelineConfig. Every pipeline is
// validated; the returned error combines the failures of all invalid pipelines. Pipeline names
// must be unique across catalogs and schemas.
func ValidatePipelineConfigs(grouped []RawPipelineConfig) ([]PipelineConfig, error) {
	var (
		configs []PipelineConfig
		errs    error
	)

	seen := map[string]string{}
	for _, raw := range grouped {
		if other, ok := seen[raw.PipelineName]; ok {
			errs = multierr.Append(errs, errors.Wrapf(
				ErrDuplicatePipelineName, "%q defined in %v and %v", raw.PipelineName, other, raw.key(),
			))
			continue
		}
		seen[raw.PipelineName] = raw.key()

		cfg, err := configuration.Decode(raw.Document)
		if err != nil {
			errs = multierr.Append(errs, errors.Wrapf(err, "pipeline %v", raw.key()))
			continue
		}

		configs = append(configs, PipelineConfig{
			TargetCatalogName: raw.TargetCatalogName,
			TargetSchemaName:  raw.TargetSchemaName,
			PipelineName:      raw.PipelineName,
			Configuration:     cfg,
		})
	}

	if errs != nil {
		return nil, errs
	}
	return configs, nil
}
