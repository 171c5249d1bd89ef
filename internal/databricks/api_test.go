package databricks_test

import (
	"bytes"
	"context"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"
	. "github.com/pushcart/pushcart-deploy/internal/databricks"
	"github.com/pushcart/pushcart-deploy/internal/databricks/databrickstest"
	"github.com/stretchr/testify/require"
)

func TestWorkspaceDirectories(t *testing.T) {
	ws := databrickstest.New(t)
	client := newTestClient(t, ws)
	ctx := context.Background()

	_, err := client.GetStatus(ctx, "/Repos/pushcart")
	require.True(t, IsNotFound(err), "expected not found, got %v", err)

	require.NoError(t, client.Mkdirs(ctx, "/Repos/pushcart"))

	info, err := client.GetStatus(ctx, "/Repos/pushcart")
	require.NoError(t, err)
	require.Equal(t, ObjectTypeDirectory, info.ObjectType)
	require.Equal(t, []string{"/", "/Repos", "/Repos/pushcart"}, ws.Dirs())
}

func TestListNodeTypes(t *testing.T) {
	ws := databrickstest.New(t)
	nt := NodeType{NodeTypeID: "m5.large", MemoryMB: 8192, NumCores: 2, PhotonDriverCapable: true}
	ws.AddNodeType(nt)

	got, err := newTestClient(t, ws).ListNodeTypes(context.Background())
	require.NoError(t, err)
	require.Equal(t, []NodeType{nt}, got)
}

func TestWaitClusterRunning(t *testing.T) {
	cases := []struct {
		Name  string
		State string
		Err   error
	}{
		{Name: "Running", State: ClusterStateRunning},
		{Name: "Terminated", State: ClusterStateTerminated},
		{Name: "Pending", State: ClusterStatePending},
		{Name: "Error", State: ClusterStateError, Err: ErrClusterFailed},
		{Name: "StuckRestarting", State: ClusterStateRestarting, Err: ErrTimeout},
	}

	for _, tc := range cases {
		t.Run(tc.Name, func(t *testing.T) {
			ws := databrickstest.New(t)
			ws.AddCluster(ClusterInfo{ClusterID: "0101-abc", State: tc.State})

			info, err := newTestClient(t, ws).WaitClusterRunning(context.Background(), "0101-abc")
			if tc.Err != nil {
				require.ErrorIs(t, err, tc.Err)
				return
			}

			require.NoError(t, err)
			require.Equal(t, ClusterStateRunning, info.State)
		})
	}
}

func TestWaitClusterRunningStartsOnceTerminated(t *testing.T) {
	ws := databrickstest.New(t)
	ws.AddCluster(ClusterInfo{ClusterID: "0101-abc", State: ClusterStateTerminating})
	// Starting fails while the cluster is terminating, it terminates on the second read.
	ws.SetClusterStates("0101-abc", ClusterStateTerminating, ClusterStateTerminated)

	info, err := newTestClient(t, ws).WaitClusterRunning(context.Background(), "0101-abc")
	require.NoError(t, err)
	require.Equal(t, ClusterStateRunning, info.State)

	cluster, ok := ws.Cluster("0101-abc")
	require.True(t, ok)
	require.Equal(t, ClusterStateRunning, cluster.State)
}

func TestPipelines(t *testing.T) {
	ws := databrickstest.New(t)
	ws.PipelinesPageSize = 2
	for _, name := range []string{"a", "b", "c"} {
		ws.AddPipeline(map[string]interface{}{"name": name})
	}

	client := newTestClient(t, ws)
	ctx := context.Background()

	listed, err := client.ListPipelines(ctx)
	require.NoError(t, err)
	require.Len(t, listed, 3)

	id, err := client.CreatePipeline(ctx, map[string]interface{}{
		"name":          "orders",
		"configuration": map[string]interface{}{"pushcart.pipeline_name": "orders"},
	})
	require.NoError(t, err)
	require.NotEmpty(t, id)

	p, err := client.GetPipeline(ctx, id)
	require.NoError(t, err)
	require.Equal(t, "orders", p.Name)
	require.Equal(t, map[string]string{"pushcart.pipeline_name": "orders"}, p.Configuration())

	require.NoError(t, client.EditPipeline(ctx, id, map[string]interface{}{"name": "orders", "continuous": true}))
	p, err = client.GetPipeline(ctx, id)
	require.NoError(t, err)
	require.Equal(t, true, p.Spec["continuous"])
	require.Empty(t, p.Configuration())

	require.NoError(t, client.DeletePipeline(ctx, id))
	_, err = client.GetPipeline(ctx, id)
	require.True(t, IsNotFound(err), "expected not found, got %v", err)
}

func TestJobs(t *testing.T) {
	ws := databrickstest.New(t)
	ws.JobsPageSize = 1
	ws.AddJob(map[string]interface{}{"name": "orders"})
	ws.AddJob(map[string]interface{}{"name": "customers"})
	ws.AddJob(map[string]interface{}{"name": "orders"})

	client := newTestClient(t, ws)
	ctx := context.Background()

	all, err := client.ListJobs(ctx, "")
	require.NoError(t, err)
	require.Len(t, all, 3)

	orders, err := client.ListJobs(ctx, "orders")
	require.NoError(t, err)
	require.Len(t, orders, 2)
	for _, j := range orders {
		require.Equal(t, "orders", j.Name())
	}

	id, err := client.CreateJob(ctx, map[string]interface{}{"name": "payments"})
	require.NoError(t, err)

	require.NoError(t, client.ResetJob(ctx, id, map[string]interface{}{"name": "payments", "max_concurrent_runs": 2}))
	jobs := ws.Jobs()
	require.Equal(t, float64(2), jobs[len(jobs)-1].Settings["max_concurrent_runs"])

	require.NoError(t, client.DeleteJob(ctx, id))
	require.Len(t, ws.Jobs(), 3)

	require.True(t, IsNotFound(client.DeleteJob(ctx, id)))
}

func TestRepos(t *testing.T) {
	ws := databrickstest.New(t)
	ws.AddRepo(Repo{Path: "/Repos/other/tools", URL: "https://github.com/acme/tools", Provider: "gitHub"})

	client := newTestClient(t, ws)
	ctx := context.Background()

	require.NoError(t, client.Mkdirs(ctx, "/Repos/pushcart"))
	created, err := client.CreateRepo(ctx, CreateRepoRequest{
		URL:      "https://github.com/acme/pushcart-config",
		Provider: "gitHub",
		Path:     "/Repos/pushcart/pushcart-config",
	})
	require.NoError(t, err)
	require.NotZero(t, created.ID)

	repos, err := client.ListRepos(ctx, "/Repos/pushcart")
	require.NoError(t, err)
	require.Len(t, repos, 1)
	require.Equal(t, created.ID, repos[0].ID)

	require.NoError(t, client.UpdateRepo(ctx, created.ID, UpdateRepoRequest{Tag: "v1.0.0"}))
	repo, err := client.GetRepo(ctx, created.ID)
	require.NoError(t, err)
	require.Equal(t, "tag:v1.0.0", repo.HeadCommitID)
}

func TestGitCredentials(t *testing.T) {
	ws := databrickstest.New(t)
	client := newTestClient(t, ws)
	ctx := context.Background()

	created, err := client.CreateGitCredential(ctx, GitCredential{
		GitProvider:         "gitHub",
		GitUsername:         "octocat",
		PersonalAccessToken: "ghp_1",
	})
	require.NoError(t, err)
	require.Empty(t, created.PersonalAccessToken)

	created.PersonalAccessToken = "ghp_2"
	require.NoError(t, client.UpdateGitCredential(ctx, created))

	listed, err := client.ListGitCredentials(ctx)
	require.NoError(t, err)
	require.Equal(t, []GitCredential{{CredentialID: created.CredentialID, GitProvider: "gitHub", GitUsername: "octocat"}}, listed)
	require.Equal(t, "ghp_2", ws.GitCredentials()[0].PersonalAccessToken)
}

func TestSecrets(t *testing.T) {
	ws := databrickstest.New(t)
	client := newTestClient(t, ws)
	ctx := context.Background()

	require.NoError(t, client.CreateSecretScope(ctx, "pushcart", "users"))
	require.NoError(t, client.PutSecret(ctx, "pushcart", "api_key", "s3cr3t"))

	scopes, err := client.ListSecretScopes(ctx)
	require.NoError(t, err)
	require.Len(t, scopes, 1)

	secrets, ok := ws.Secrets("pushcart")
	require.True(t, ok)
	require.Equal(t, map[string]string{"api_key": "s3cr3t"}, secrets)
	require.Equal(t, "users", ws.ScopePrincipal("pushcart"))

	err = client.CreateSecretScope(ctx, "pushcart", "users")
	require.True(t, HasErrorCode(err, ErrorCodeResourceAlreadyExist), "got %v", err)
}

func TestPutFile(t *testing.T) {
	cases := []struct {
		Name string
		Data []byte
	}{
		{Name: "Empty", Data: []byte{}},
		{Name: "Small", Data: []byte(`{"origin":"s3://bucket"}` + "\n")},
		{Name: "MultipleBlocks", Data: bytes.Repeat([]byte("x"), 2<<20+17)},
	}

	for _, tc := range cases {
		t.Run(tc.Name, func(t *testing.T) {
			ws := databrickstest.New(t)
			client := newTestClient(t, ws)

			err := client.PutFile(context.Background(), "dbfs:/pushcart/sources.json", bytes.NewReader(tc.Data), true)
			require.NoError(t, err)

			got, ok := ws.File("/pushcart/sources.json")
			require.True(t, ok)
			if !bytes.Equal(got, tc.Data) {
				t.Fatalf("Expected %d bytes; Received %d bytes", len(tc.Data), len(got))
			}
		})
	}
}

func TestDeletePath(t *testing.T) {
	ws := databrickstest.New(t)
	ws.PutFile("/pipelines/p-1/system/events", []byte("e"))
	ws.PutFile("/pipelines/p-1/tables/t", []byte("t"))
	ws.PutFile("/pipelines/p-2/tables/t", []byte("t"))

	client := newTestClient(t, ws)
	ctx := context.Background()

	require.NoError(t, client.DeletePath(ctx, "dbfs:/pipelines/p-1", true))
	if diff := cmp.Diff([]string{"/pipelines/p-2/tables/t"}, ws.Files()); diff != "" {
		t.Fatal(diff)
	}

	require.True(t, IsNotFound(client.DeletePath(ctx, "dbfs:/pipelines/p-1", true)))
}

func TestCommandRunner(t *testing.T) {
	ws := databrickstest.New(t)
	ws.AddCluster(ClusterInfo{ClusterID: "0101-abc", State: ClusterStateRunning})
	ws.FailCommandsContaining("DROP")

	client := newTestClient(t, ws)
	ctx := context.Background()

	runner, err := client.NewCommandRunner(ctx, "0101-abc", LanguageSQL)
	require.NoError(t, err)

	results, err := runner.Run(ctx, "CREATE SCHEMA IF NOT EXISTS pushcart")
	require.NoError(t, err)
	require.Equal(t, "OK", results.Data)

	_, err = runner.Run(ctx, "DROP TABLE pushcart.sources")
	require.ErrorIs(t, err, ErrCommandFailed)
	require.True(t, strings.Contains(err.Error(), "AnalysisException"), err.Error())

	require.Equal(t, 1, ws.OpenContexts())
	require.NoError(t, runner.Close(ctx))
	require.Zero(t, ws.OpenContexts())

	require.Equal(t, []string{"CREATE SCHEMA IF NOT EXISTS pushcart", "DROP TABLE pushcart.sources"}, ws.Commands())
}

func TestCommandRunnerClusterNotRunning(t *testing.T) {
	ws := databrickstest.New(t)
	ws.AddCluster(ClusterInfo{ClusterID: "0101-abc", State: ClusterStateTerminated})

	_, err := newTestClient(t, ws).NewCommandRunner(context.Background(), "0101-abc", LanguageSQL)
	require.Error(t, err)
}
