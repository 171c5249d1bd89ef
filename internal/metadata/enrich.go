package metadata

import (
	"context"
	"encoding/json"
	"strconv"

	"github.com/pkg/errors"
	"github.com/pushcart/pushcart-deploy/internal/configuration"
)

// transformationSheetKey is the transformation key referencing a CSV transformation sheet.
const transformationSheetKey = "config"

// EnrichPipelineConfigs prepares raw documents for validation. Source params given as a mapping
// are encoded as JSON strings. Transformations referencing a CSV sheet are replaced by one
// transformation per sheet row, inheriting origin and target from the referencing entry.
func (m *Metadata) EnrichPipelineConfigs(ctx context.Context, raws []RawPipelineConfig) error {
	for _, raw := range raws {
		if err := ctx.Err(); err != nil {
			return err
		}

		if err := enrichSources(raw.Document); err != nil {
			return errors.Wrapf(err, "enrich sources of %v", raw.Path)
		}

		if err := m.enrichTransformations(raw.Document); err != nil {
			return errors.Wrapf(err, "enrich transformations of %v", raw.Path)
		}
	}
	return nil
}

func enrichSources(doc map[string]interface{}) error {
	sources, ok := doc[configuration.StageSources].([]interface{})
	if !ok {
		return nil
	}

	for _, s := range sources {
		source, ok := s.(map[string]interface{})
		if !ok {
			continue
		}

		params, ok := source["params"].(map[string]interface{})
		if !ok {
			continue
		}

		encoded, err := json.Marshal(params)
		if err != nil {
			return err
		}
		source["params"] = string(encoded)
	}
	return nil
}

func (m *Metadata) enrichTransformations(doc map[string]interface{}) error {
	transformations, ok := doc[configuration.StageTransformations].([]interface{})
	if !ok {
		return nil
	}

	enriched := make([]interface{}, 0, len(transformations))
	for _, t := range transformations {
		transformation, ok := t.(map[string]interface{})
		if !ok {
			enriched = append(enriched, t)
			continue
		}

		sheet, ok := transformation[transformationSheetKey].(string)
		if !ok || sheet == "" {
			enriched = append(enriched, transformation)
			continue
		}

		rows, err := configuration.TransformationsFromCSV(m.fs, sheet)
		if err != nil {
			return err
		}

		for _, row := range rows {
			enriched = append(enriched, sheetRowToTransformation(row, transformation))
		}
	}

	doc[configuration.StageTransformations] = enriched
	return nil
}

func sheetRowToTransformation(row, parent map[string]interface{}) map[string]interface{} {
	if order, ok := row["column_order"].(string); ok {
		if n, err := strconv.Atoi(order); err == nil && n >= 0 {
			row["column_order"] = n
		} else {
			delete(row, "column_order")
		}
	}

	row["origin"] = parent["origin"]
	row["target"] = parent["target"]

	rule, hasRule := row["validation_rule"]
	action, hasAction := row["validation_action"]
	if hasRule && hasAction {
		row["validations"] = []interface{}{
			map[string]interface{}{
				"validation_rule":   rule,
				"validation_action": action,
			},
		}
	}
	delete(row, "validation_rule")
	delete(row, "validation_action")

	return row
}
