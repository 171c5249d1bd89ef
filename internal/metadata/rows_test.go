package metadata_test

import (
	"errors"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/pushcart/pushcart-deploy/internal/configuration"
	. "github.com/pushcart/pushcart-deploy/internal/metadata"
)

func TestStageRows(t *testing.T) {
	order := 1
	configs := []PipelineConfig{{
		TargetCatalogName: "cat",
		TargetSchemaName:  "sch",
		PipelineName:      "pipe",
		Configuration: configuration.Configuration{
			Sources: []configuration.Source{{Origin: "o", Datatype: "json", Target: "t"}},
			Transformations: []configuration.Transformation{
				{Origin: "t", Target: "u", ColumnOrder: &order, DestColumnName: "id"},
			},
		},
	}}

	cases := []struct {
		Name     string
		Stage    string
		Expected []map[string]interface{}
	}{
		{
			Name:  "Sources",
			Stage: configuration.StageSources,
			Expected: []map[string]interface{}{{
				"origin":              "o",
				"datatype":            "json",
				"target":              "t",
				"target_catalog_name": "cat",
				"target_schema_name":  "sch",
				"pipeline_name":       "pipe",
				"deployment_id":       "dep-1",
			}},
		},
		{
			Name:  "Transformations",
			Stage: configuration.StageTransformations,
			Expected: []map[string]interface{}{{
				"origin":              "t",
				"target":              "u",
				"column_order":        float64(1),
				"dest_column_name":    "id",
				"target_catalog_name": "cat",
				"target_schema_name":  "sch",
				"pipeline_name":       "pipe",
				"deployment_id":       "dep-1",
			}},
		},
		{
			Name:     "NoDestinations",
			Stage:    configuration.StageDestinations,
			Expected: nil,
		},
	}

	for _, tc := range cases {
		t.Run(tc.Name, func(t *testing.T) {
			rows, err := StageRows(configs, tc.Stage, "dep-1")
			if err != nil {
				t.Fatal(err)
			}

			if !cmp.Equal(rows, tc.Expected) {
				t.Fatal(cmp.Diff(tc.Expected, rows))
			}
		})
	}
}

func TestStageRowsUnknownStage(t *testing.T) {
	_, err := StageRows([]PipelineConfig{{}}, "clusters", "dep-1")
	if !errors.Is(err, ErrUnknownStage) {
		t.Fatalf("Expected: %v; Received: %v", ErrUnknownStage, err)
	}
}
