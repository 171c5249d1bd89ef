package deploy

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/go-logr/logr"
	"github.com/pkg/errors"
	"github.com/pushcart/pushcart-deploy/internal/databricks"
	"github.com/pushcart/pushcart-deploy/internal/metadata"
	"github.com/pushcart/pushcart-deploy/internal/metrics"
)

// MetadataSchema is the schema holding the metadata tables.
const MetadataSchema = "pushcart"

// DefaultMetadataRoot is the DBFS directory metadata files are uploaded to, one directory per
// deployment.
const DefaultMetadataRoot = "dbfs:/pushcart/metadata"

// Stages are the metadata tables written for every deployment.
var Stages = []string{"sources", "transformations", "destinations"}

// ErrNoCluster indicates no cluster was configured to create the metadata tables on.
var ErrNoCluster = errors.New("a cluster id is required to create metadata tables")

// MetadataWriter writes the stages of pipeline configurations to the metadata tables.
type MetadataWriter struct {
	api       MetadataAPI
	clusterID string
	root      string
	log       logr.Logger
	metrics   *metrics.Recorder
}

// NewMetadataWriter creates a MetadataWriter running its commands on clusterID.
func NewMetadataWriter(api MetadataAPI, clusterID string, logger logr.Logger, recorder *metrics.Recorder) *MetadataWriter {
	return &MetadataWriter{
		api:       api,
		clusterID: clusterID,
		root:      DefaultMetadataRoot,
		log:       logger.WithName("metadata"),
		metrics:   recorder,
	}
}

// StageFile returns the DBFS path of the rows of stage for a deployment.
func (w *MetadataWriter) StageFile(deploymentID, stage string) string {
	return fmt.Sprintf("%s/%s/%s.json", strings.TrimSuffix(w.root, "/"), deploymentID, stage)
}

// Rows returns the number of metadata rows of each stage.
func Rows(configs []metadata.PipelineConfig) (map[string]int, error) {
	counts := make(map[string]int, len(Stages))
	for _, stage := range Stages {
		rows, err := metadata.StageRows(configs, stage, "")
		if err != nil {
			return nil, err
		}
		counts[stage] = len(rows)
	}
	return counts, nil
}

// Write replaces every metadata table with the rows of configs, tagged with deploymentID, and
// returns the number of rows written per stage.
func (w *MetadataWriter) Write(
	ctx context.Context,
	configs []metadata.PipelineConfig,
	deploymentID string,
) (map[string]int, error) {
	if w.clusterID == "" {
		return nil, ErrNoCluster
	}

	counts := make(map[string]int, len(Stages))
	for _, stage := range Stages {
		rows, err := metadata.StageRows(configs, stage, deploymentID)
		if err != nil {
			return nil, err
		}
		counts[stage] = len(rows)

		if len(rows) == 0 {
			continue
		}

		data, err := jsonLines(rows)
		if err != nil {
			return nil, errors.Wrapf(err, "encode %v rows", stage)
		}

		path := w.StageFile(deploymentID, stage)
		if err := w.api.PutFile(ctx, path, bytes.NewReader(data), true); err != nil {
			return nil, errors.Wrapf(err, "upload %v", path)
		}
		w.log.V(1).Info("uploaded metadata", "stage", stage, "path", path, "rows", len(rows))
	}

	if _, err := w.api.WaitClusterRunning(ctx, w.clusterID); err != nil {
		return nil, errors.Wrapf(err, "start cluster %v", w.clusterID)
	}

	runner, err := w.api.NewCommandRunner(ctx, w.clusterID, databricks.LanguageSQL)
	if err != nil {
		return nil, err
	}
	defer func() {
		if err := runner.Close(ctx); err != nil {
			w.log.Error(err, "failed to destroy execution context", "cluster_id", w.clusterID)
		}
	}()

	if _, err := runner.Run(ctx, "CREATE SCHEMA IF NOT EXISTS "+MetadataSchema); err != nil {
		return nil, errors.Wrapf(err, "create schema %v", MetadataSchema)
	}

	for _, stage := range Stages {
		statement := w.createTable(stage, deploymentID, counts[stage])
		if _, err := runner.Run(ctx, statement); err != nil {
			return nil, errors.Wrapf(err, "create table %v.%v", MetadataSchema, stage)
		}
		w.metrics.Resource(metrics.KindMetadataTable, metrics.ActionUpdate)
		w.log.Info("wrote metadata table", "table", MetadataSchema+"."+stage, "rows", counts[stage])
	}

	return counts, nil
}

// createTable returns the statement replacing the table of stage. Stages without rows get an
// empty table holding only the pipeline columns.
func (w *MetadataWriter) createTable(stage, deploymentID string, rows int) string {
	table := MetadataSchema + "." + stage
	if rows == 0 {
		return fmt.Sprintf(
			"CREATE OR REPLACE TABLE %s (target_catalog_name STRING, target_schema_name STRING, "+
				"pipeline_name STRING, deployment_id STRING) USING DELTA",
			table,
		)
	}
	return fmt.Sprintf(
		"CREATE OR REPLACE TABLE %s USING DELTA AS SELECT * FROM json.`%s`",
		table,
		w.StageFile(deploymentID, stage),
	)
}

func jsonLines(rows []map[string]interface{}) ([]byte, error) {
	var buf bytes.Buffer

	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	for _, row := range rows {
		if err := enc.Encode(row); err != nil {
			return nil, err
		}
	}
	return buf.Bytes(), nil
}
