package metadata_test

import (
	"testing"

	"github.com/google/go-cmp/cmp"
	. "github.com/pushcart/pushcart-deploy/internal/metadata"
)

func TestGroupPipelineConfigs(t *testing.T) {
	raws := []RawPipelineConfig{
		{
			TargetCatalogName: "c", TargetSchemaName: "s", PipelineName: "p2",
			Document: map[string]interface{}{"sources": []interface{}{"s3"}},
		},
		{
			TargetCatalogName: "c", TargetSchemaName: "s", PipelineName: "p1",
			Document: map[string]interface{}{"sources": []interface{}{"s1"}},
		},
		{
			TargetCatalogName: "c", TargetSchemaName: "s", PipelineName: "p1",
			Document: map[string]interface{}{"sources": []interface{}{"s2"}, "destinations": []interface{}{"d1"}},
		},
	}

	expected := []RawPipelineConfig{
		{
			TargetCatalogName: "c", TargetSchemaName: "s", PipelineName: "p1",
			Document: map[string]interface{}{
				"sources":      []interface{}{"s1", "s2"},
				"destinations": []interface{}{"d1"},
			},
		},
		{
			TargetCatalogName: "c", TargetSchemaName: "s", PipelineName: "p2",
			Document: map[string]interface{}{"sources": []interface{}{"s3"}},
		},
	}

	got := GroupPipelineConfigs(raws)
	if !cmp.Equal(got, expected) {
		t.Fatal(cmp.Diff(expected, got))
	}
}
