package databricks_test

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	. "github.com/pushcart/pushcart-deploy/internal/databricks"
	"github.com/pushcart/pushcart-deploy/internal/databricks/databrickstest"
	"github.com/stretchr/testify/require"
)

func TestNewClientValidatesConfig(t *testing.T) {
	cases := []struct {
		Name   string
		Config Config
		Err    error
	}{
		{Name: "MissingHost", Config: Config{Token: "t"}, Err: ErrMissingHost},
		{Name: "MissingToken", Config: Config{Host: "https://example.com"}, Err: ErrMissingToken},
	}

	for _, tc := range cases {
		t.Run(tc.Name, func(t *testing.T) {
			_, err := NewClient(tc.Config)
			if !errors.Is(err, tc.Err) {
				t.Fatalf("Expected: %v; Received: %v", tc.Err, err)
			}
		})
	}
}

func TestClientHost(t *testing.T) {
	client, err := NewClient(Config{Host: "adb-123.azuredatabricks.net/", Token: "t", ClusterID: "c-1"})
	require.NoError(t, err)
	require.Equal(t, "https://adb-123.azuredatabricks.net", client.Host())
	require.Equal(t, "c-1", client.ClusterID())
}

func TestClientRetriesTransientErrors(t *testing.T) {
	ws := databrickstest.New(t)
	ws.AddSecretScope("pushcart")
	ws.FailNext(http.MethodGet, "/api/2.0/secrets/scopes/list", http.StatusServiceUnavailable, 2)

	client := newTestClient(t, ws)

	scopes, err := client.ListSecretScopes(context.Background())
	require.NoError(t, err)
	require.Equal(t, []SecretScope{{Name: "pushcart", BackendType: ScopeBackendDatabricks}}, scopes)
}

func TestClientGivesUpAfterMaxRetries(t *testing.T) {
	ws := databrickstest.New(t)
	ws.FailNext(http.MethodGet, "/api/2.0/secrets/scopes/list", http.StatusTooManyRequests, 10)

	client := newTestClient(t, ws)

	_, err := client.ListSecretScopes(context.Background())

	var apiErr *APIError
	require.ErrorAs(t, err, &apiErr)
	require.Equal(t, http.StatusTooManyRequests, apiErr.StatusCode)
}

func TestClientRetriesServerErrors(t *testing.T) {
	cases := []struct {
		Name    string
		Method  string
		Path    string
		Send    func(context.Context, *Client) error
		Retried bool
	}{
		{
			Name:   "IdempotentGet",
			Method: http.MethodGet,
			Path:   "/api/2.1/jobs/list",
			Send: func(ctx context.Context, client *Client) error {
				_, err := client.ListJobs(ctx, "")
				return err
			},
			Retried: true,
		},
		{
			Name:   "IdempotentPost",
			Method: http.MethodPost,
			Path:   "/api/2.1/jobs/reset",
			Send: func(ctx context.Context, client *Client) error {
				return client.ResetJob(ctx, 1, map[string]interface{}{"name": "orders"})
			},
			Retried: true,
		},
		{
			Name:   "CreateIsSentOnce",
			Method: http.MethodPost,
			Path:   "/api/2.1/jobs/create",
			Send: func(ctx context.Context, client *Client) error {
				_, err := client.CreateJob(ctx, map[string]interface{}{"name": "payments"})
				return err
			},
		},
	}

	for _, tc := range cases {
		t.Run(tc.Name, func(t *testing.T) {
			ws := databrickstest.New(t)
			ws.AddJob(map[string]interface{}{"name": "orders"})
			ws.FailNext(tc.Method, tc.Path, http.StatusInternalServerError, 2)

			client := newTestClient(t, ws)
			err := tc.Send(context.Background(), client)
			if tc.Retried {
				require.NoError(t, err)
				require.Len(t, ws.Jobs(), 1)
				return
			}

			var apiErr *APIError
			require.ErrorAs(t, err, &apiErr)
			require.Equal(t, http.StatusInternalServerError, apiErr.StatusCode)

			// Each call consumed exactly one injected failure.
			require.Error(t, tc.Send(context.Background(), client))
			require.NoError(t, tc.Send(context.Background(), client))
			require.Len(t, ws.Jobs(), 2)
		})
	}
}

func TestClientDoesNotRetryClientErrors(t *testing.T) {
	ws := databrickstest.New(t)
	ws.FailNext(http.MethodGet, "/api/2.0/secrets/scopes/list", http.StatusBadRequest, 1)
	ws.AddSecretScope("pushcart")

	client := newTestClient(t, ws)

	_, err := client.ListSecretScopes(context.Background())
	require.Error(t, err)

	// The injected failure was consumed by the only attempt.
	_, err = client.ListSecretScopes(context.Background())
	require.NoError(t, err)
}

func TestClientRejectsInvalidToken(t *testing.T) {
	ws := databrickstest.New(t)

	client, err := NewClient(Config{Host: ws.URL, Token: "wrong"})
	require.NoError(t, err)

	_, err = client.ListSecretScopes(context.Background())

	var apiErr *APIError
	require.ErrorAs(t, err, &apiErr)
	require.Equal(t, http.StatusForbidden, apiErr.StatusCode)
	require.Equal(t, "PERMISSION_DENIED", apiErr.ErrorCode)
}

func TestClientCancelledContext(t *testing.T) {
	ws := databrickstest.New(t)
	client := newTestClient(t, ws)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := client.ListSecretScopes(ctx)
	require.ErrorIs(t, err, context.Canceled)
}

func TestClientMetrics(t *testing.T) {
	ws := databrickstest.New(t)
	registry := prometheus.NewRegistry()

	client := newTestClient(t, ws, WithMetrics(registry))

	_, err := client.ListSecretScopes(context.Background())
	require.NoError(t, err)

	expected := `
# HELP databricks_api_requests_total Count of Databricks workspace API requests
# TYPE databricks_api_requests_total counter
databricks_api_requests_total{code="200",method="get"} 1
`
	err = testutil.GatherAndCompare(registry, strings.NewReader(expected), "databricks_api_requests_total")
	require.NoError(t, err)
}

func TestIsNotFound(t *testing.T) {
	cases := []struct {
		Name   string
		Err    error
		Expect bool
	}{
		{Name: "StatusNotFound", Err: &APIError{StatusCode: http.StatusNotFound}, Expect: true},
		{Name: "ErrorCode", Err: &APIError{StatusCode: http.StatusBadRequest, ErrorCode: ErrorCodeResourceDoesNotExist}, Expect: true},
		{Name: "Wrapped", Err: errors.Join(errors.New("context"), &APIError{StatusCode: http.StatusNotFound}), Expect: true},
		{Name: "OtherAPIError", Err: &APIError{StatusCode: http.StatusBadRequest}, Expect: false},
		{Name: "NotAnAPIError", Err: errors.New("boom"), Expect: false},
		{Name: "Nil", Err: nil, Expect: false},
	}

	for _, tc := range cases {
		t.Run(tc.Name, func(t *testing.T) {
			if got := IsNotFound(tc.Err); got != tc.Expect {
				t.Fatalf("Expected: %v; Received: %v", tc.Expect, got)
			}
		})
	}
}

func TestAPIErrorMessage(t *testing.T) {
	err := &APIError{StatusCode: http.StatusNotFound, ErrorCode: ErrorCodeResourceDoesNotExist, Message: "gone"}
	require.Equal(t, "databricks api: 404 RESOURCE_DOES_NOT_EXIST: gone", err.Error())

	err = &APIError{StatusCode: http.StatusBadGateway, Message: "<html>"}
	require.Equal(t, "databricks api: 502 Bad Gateway: <html>", err.Error())
}
