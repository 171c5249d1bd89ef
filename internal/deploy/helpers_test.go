package deploy_test

import (
	"context"
	"testing"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/go-logr/logr"
	"github.com/pushcart/pushcart-deploy/internal/databricks"
	"github.com/pushcart/pushcart-deploy/internal/databricks/databrickstest"
	"github.com/pushcart/pushcart-deploy/internal/metadata"
	"github.com/spf13/afero"
	"github.com/stretchr/testify/require"
)

const (
	configDir   = "/cfg"
	pipelineDir = "/cfg/pipelines/sample_catalog/sample_schema/sample_pipeline"
	clusterID   = "0101-000000-pushcart"
)

func newTestClient(t *testing.T, ws *databrickstest.Workspace) *databricks.Client {
	t.Helper()

	cfg := ws.Config()
	cfg.ClusterID = clusterID

	client, err := databricks.NewClient(
		cfg,
		databricks.WithRetryBackOff(func() backoff.BackOff {
			return backoff.NewConstantBackOff(time.Millisecond)
		}, 3),
		databricks.WithPollBackOff(func() backoff.BackOff {
			return backoff.WithMaxRetries(backoff.NewConstantBackOff(time.Millisecond), 20)
		}),
		databricks.WithRateLimit(1000),
	)
	require.NoError(t, err)
	return client
}

func newFs(t *testing.T, files map[string]string) afero.Fs {
	t.Helper()

	fs := afero.NewMemMapFs()
	require.NoError(t, fs.MkdirAll(configDir, 0o755))
	for path, content := range files {
		require.NoError(t, afero.WriteFile(fs, path, []byte(content), 0o644))
	}
	return fs
}

func sampleFiles() map[string]string {
	return map[string]string{
		pipelineDir + "/sources.yaml": `
sources:
  - origin: s3://bucket/data
    datatype: json
    target: raw_data
`,
		pipelineDir + "/transformations.json": `{
  "transformations": [
    {"origin": "raw_data", "target": "clean_data", "sql_query": "SELECT * FROM raw_data"}
  ]
}`,
		pipelineDir + "/destinations.toml": `
[[destinations]]
origin = "clean_data"
target = "final_data"
mode = "append"
`,
	}
}

func loadConfigs(t *testing.T, fs afero.Fs) []metadata.PipelineConfig {
	t.Helper()

	m, err := metadata.New(fs, configDir, logr.Discard())
	require.NoError(t, err)

	configs, err := m.Load(context.Background())
	require.NoError(t, err)
	return configs
}

func photonNodeType() databricks.NodeType {
	return databricks.NodeType{
		NodeTypeID:          "Standard_E4ds_v4",
		MemoryMB:            32768,
		NumCores:            4,
		PhotonDriverCapable: true,
		PhotonWorkerCapable: true,
	}
}
