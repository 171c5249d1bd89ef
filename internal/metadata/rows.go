package metadata

import (
	"encoding/json"

	"github.com/pkg/errors"
	"github.com/pushcart/pushcart-deploy/internal/configuration"
	"github.com/pushcart/pushcart-deploy/internal/sanitize"
)

// ErrUnknownStage indicates a stage name other than sources, transformations or destinations.
var ErrUnknownStage = errors.New("unknown stage")

// StageRows flattens one stage of every pipeline into metadata table rows. Each row is tagged
// with the pipeline it belongs to and the deployment that wrote it. Empty values are dropped.
func StageRows(configs []PipelineConfig, stage, deploymentID string) ([]map[string]interface{}, error) {
	var rows []map[string]interface{}

	for _, cfg := range configs {
		elements, err := stageElements(cfg.Configuration, stage)
		if err != nil {
			return nil, err
		}

		for _, element := range elements {
			row, err := toDocument(element)
			if err != nil {
				return nil, err
			}

			row["target_catalog_name"] = cfg.TargetCatalogName
			row["target_schema_name"] = cfg.TargetSchemaName
			row["pipeline_name"] = cfg.PipelineName
			row["deployment_id"] = deploymentID

			sanitized, err := sanitize.EmptyObjects(row, true)
			if err != nil {
				return nil, err
			}
			rows = append(rows, sanitized.(map[string]interface{}))
		}
	}

	return rows, nil
}

func stageElements(c configuration.Configuration, stage string) ([]interface{}, error) {
	var elements []interface{}

	switch stage {
	case configuration.StageSources:
		for _, s := range c.Sources {
			elements = append(elements, s)
		}
	case configuration.StageTransformations:
		for _, t := range c.Transformations {
			elements = append(elements, t)
		}
	case configuration.StageDestinations:
		for _, d := range c.Destinations {
			elements = append(elements, d)
		}
	default:
		return nil, errors.Wrap(ErrUnknownStage, stage)
	}

	return elements, nil
}

func toDocument(v interface{}) (map[string]interface{}, error) {
	data, err := json.Marshal(v)
	if err != nil {
		return nil, err
	}

	var doc map[string]interface{}
	if err := json.Unmarshal(data, &doc); err != nil {
		return nil, err
	}
	return doc, nil
}
