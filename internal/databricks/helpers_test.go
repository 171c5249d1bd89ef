package databricks_test

import (
	"testing"
	"time"

	"github.com/cenkalti/backoff/v4"
	. "github.com/pushcart/pushcart-deploy/internal/databricks"
	"github.com/pushcart/pushcart-deploy/internal/databricks/databrickstest"
)

func newTestClient(t *testing.T, ws *databrickstest.Workspace, opts ...Option) *Client {
	t.Helper()

	fast := []Option{
		WithRetryBackOff(func() backoff.BackOff {
			return backoff.NewConstantBackOff(time.Millisecond)
		}, 3),
		WithPollBackOff(func() backoff.BackOff {
			return backoff.WithMaxRetries(backoff.NewConstantBackOff(time.Millisecond), 20)
		}),
		WithRateLimit(1000),
	}

	client, err := NewClient(ws.Config(), append(fast, opts...)...)
	if err != nil {
		t.Fatal(err)
	}
	return client
}
