package deploy_test

import (
	"context"
	"testing"

	"github.com/go-logr/logr"
	"github.com/google/go-cmp/cmp"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/pushcart/pushcart-deploy/internal/databricks"
	"github.com/pushcart/pushcart-deploy/internal/databricks/databrickstest"
	. "github.com/pushcart/pushcart-deploy/internal/deploy"
	"github.com/pushcart/pushcart-deploy/internal/metrics"
	"github.com/stretchr/testify/require"
)

const notebookPath = "/Repos/pushcart/pushcart-config/pushcart_pipeline"

func deployFiles() map[string]string {
	files := sampleFiles()
	files[configDir+"/repo_settings.yaml"] = "git_url: https://github.com/pushcart/pushcart-config\ngit_tag: v1.2.0\n"
	files[configDir+"/secrets.env"] = "API_KEY=s3cr3t\nDB_PASSWORD=hunter2\n"
	return files
}

func newWorkspace(t *testing.T) (*databrickstest.Workspace, string) {
	t.Helper()

	ws := databrickstest.New(t)
	ws.AddNodeType(photonNodeType())
	ws.AddCluster(databricks.ClusterInfo{ClusterID: clusterID, State: databricks.ClusterStateTerminated})

	obsolete := ws.AddPipeline(map[string]interface{}{
		"name":          "old_pipeline",
		"configuration": map[string]interface{}{ManagedPipelineKey: "old_pipeline"},
	})
	ws.AddJob(map[string]interface{}{"name": "old_pipeline"})
	ws.AddPipeline(map[string]interface{}{"name": "someone_elses_pipeline"})

	return ws, obsolete
}

func TestSetupDeploy(t *testing.T) {
	ws, obsolete := newWorkspace(t)
	registry := prometheus.NewRegistry()

	s := NewSetup(newFs(t, deployFiles()), configDir, newTestClient(t, ws), logr.Discard(), metrics.NewRecorder(registry))
	s.Getenv = env(map[string]string{EnvGitUsername: "user", EnvGitToken: "token"})
	s.NewDeploymentID = func() string { return "dep-1" }

	report, err := s.Deploy(context.Background())
	require.NoError(t, err)

	require.Equal(t, "dep-1", report.DeploymentID)
	require.Equal(t, 2, report.Secrets)
	require.Equal(t, map[string]int{"sources": 1, "transformations": 1, "destinations": 1}, report.MetadataRows)
	require.Equal(t, []ManagedPipeline{{PipelineName: "old_pipeline", PipelineID: obsolete}}, report.Deleted)
	require.Len(t, report.Pipelines, 1)
	require.Len(t, report.JobIDs, 1)

	// Pipelines: the obsolete one is gone, unmanaged ones are left alone.
	var names []string
	for _, p := range ws.Pipelines() {
		names = append(names, p.Name)
	}
	require.ElementsMatch(t, []string{"someone_elses_pipeline", "sample_pipeline"}, names)

	// Jobs: the job of the obsolete pipeline is replaced by the job of the new one.
	jobs := ws.Jobs()
	require.Len(t, jobs, 1)
	require.Equal(t, "sample_pipeline", jobs[0].Name())
	require.Equal(t, report.JobIDs[0], jobs[0].JobID)

	repos := ws.Repos()
	require.Len(t, repos, 1)
	require.Equal(t, report.RepoID, repos[0].ID)
	require.Equal(t, "tag:v1.2.0", repos[0].HeadCommitID)

	secrets, _ := ws.Secrets("pushcart")
	require.Equal(t, map[string]string{"API_KEY": "s3cr3t", "DB_PASSWORD": "hunter2"}, secrets)
	require.Len(t, ws.GitCredentials(), 1)

	for _, p := range ws.Pipelines() {
		if p.Name != "sample_pipeline" {
			continue
		}
		require.Equal(t, "sample_catalog", p.Spec["catalog"])
		require.Equal(t, "sample_schema", p.Spec["target"])
		require.Equal(t, map[string]string{ManagedPipelineKey: "sample_pipeline"}, p.Configuration())

		libraries := p.Spec["libraries"].([]interface{})
		notebook := libraries[0].(map[string]interface{})["notebook"].(map[string]interface{})
		require.Equal(t, notebookPath, notebook["path"])
	}

	count, err := testutil.GatherAndCount(registry, "pushcart_deploy_resources_total")
	require.NoError(t, err)
	require.NotZero(t, count)

	// A second deployment updates everything in place.
	s.NewDeploymentID = func() string { return "dep-2" }
	again, err := s.Deploy(context.Background())
	require.NoError(t, err)
	require.Empty(t, again.Deleted)
	require.Equal(t, report.Pipelines, again.Pipelines)
	require.Equal(t, report.JobIDs, again.JobIDs)
	require.Len(t, ws.Pipelines(), 2)
	require.Len(t, ws.Jobs(), 1)
}

func TestSetupDeployWithoutGitCredentials(t *testing.T) {
	ws, _ := newWorkspace(t)

	s := NewSetup(newFs(t, deployFiles()), configDir, newTestClient(t, ws), logr.Discard(), nil)

	_, err := s.Deploy(context.Background())
	require.NoError(t, err)
	require.Empty(t, ws.GitCredentials())
}

func TestSetupPlan(t *testing.T) {
	ws, obsolete := newWorkspace(t)
	before := ws.Pipelines()

	s := NewSetup(newFs(t, deployFiles()), configDir, newTestClient(t, ws), logr.Discard(), nil)

	plan, err := s.Plan(context.Background())
	require.NoError(t, err)

	expect := Plan{
		Workspace:    ws.URL,
		MetadataRows: map[string]int{"sources": 1, "transformations": 1, "destinations": 1},
		Repo: RepoPlan{
			Path: "/Repos/pushcart/pushcart-config",
			URL:  "https://github.com/pushcart/pushcart-config",
			Tag:  "v1.2.0",
		},
		SecretScope: "pushcart",
		Secrets:     []string{"API_KEY", "DB_PASSWORD"},
		Pipelines: PipelinePlan{
			Create: []DeployedPipeline{{
				TargetCatalogName: "sample_catalog",
				TargetSchemaName:  "sample_schema",
				PipelineName:      "sample_pipeline",
			}},
			Delete: []ManagedPipeline{{PipelineName: "old_pipeline", PipelineID: obsolete}},
		},
	}
	if diff := cmp.Diff(expect, plan); diff != "" {
		t.Fatal(diff)
	}

	// Planning changes nothing.
	require.Equal(t, before, ws.Pipelines())
	require.Empty(t, ws.Commands())
	require.Empty(t, ws.Repos())
}

func TestSetupInvalidConfiguration(t *testing.T) {
	ws, _ := newWorkspace(t)

	files := deployFiles()
	files[pipelineDir+"/destinations.toml"] = `
[[destinations]]
origin = "clean_data"
target = "final_data"
mode = "upsert"
`
	s := NewSetup(newFs(t, files), configDir, newTestClient(t, ws), logr.Discard(), nil)

	_, err := s.Deploy(context.Background())
	require.Error(t, err)
	require.Empty(t, ws.Commands())
	require.Len(t, ws.Pipelines(), 2)
}

func TestSetupPlanMatchesDeployForUnmanagedNamesake(t *testing.T) {
	ws, _ := newWorkspace(t)
	namesake := ws.AddPipeline(map[string]interface{}{"name": "sample_pipeline"})

	s := NewSetup(newFs(t, deployFiles()), configDir, newTestClient(t, ws), logr.Discard(), nil)

	plan, err := s.Plan(context.Background())
	require.NoError(t, err)
	require.Empty(t, plan.Pipelines.Create)
	require.Equal(t, []DeployedPipeline{{
		TargetCatalogName: "sample_catalog",
		TargetSchemaName:  "sample_schema",
		PipelineName:      "sample_pipeline",
		PipelineID:        namesake,
	}}, plan.Pipelines.Adopt)

	report, err := s.Deploy(context.Background())
	require.NoError(t, err)
	require.Equal(t, plan.Pipelines.Adopt, report.Pipelines)

	var adopted databricks.Pipeline
	for _, p := range ws.Pipelines() {
		if p.PipelineID == namesake {
			adopted = p
		}
	}
	require.Equal(t, "sample_pipeline", adopted.Configuration()[ManagedPipelineKey])
}
