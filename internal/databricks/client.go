// Package databricks is a client for the Databricks workspace APIs used to deploy Pushcart:
// workspace, clusters, Delta Live Tables pipelines, jobs, repos, git credentials, secrets, DBFS
// and command execution. Requests go through the Databricks SDK for Go.
package databricks

import (
	"context"
	"net/http"
	"time"

	"github.com/cenkalti/backoff/v4"
	sdk "github.com/databricks/databricks-sdk-go"
	sdkclient "github.com/databricks/databricks-sdk-go/client"
	"github.com/databricks/databricks-sdk-go/config"
	"github.com/go-logr/logr"
	"github.com/pkg/errors"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/pushcart/pushcart-deploy/internal/build"
	"github.com/pushcart/pushcart-deploy/internal/metrics"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
)

// DefaultMaxRetries is the number of times a failed request is retried.
const DefaultMaxRetries = 5

// Client talks to a single workspace.
type Client struct {
	cfg       *config.Config
	ws        *sdk.WorkspaceClient
	api       *sdkclient.DatabricksClient
	clusterID string

	transport http.RoundTripper
	rateLimit int
	log       logr.Logger

	maxRetries  uint64
	retryPolicy func() backoff.BackOff
	pollPolicy  func() backoff.BackOff
}

// Option configures a Client.
type Option func(*Client)

// WithTransport sets the transport requests are sent through.
func WithTransport(rt http.RoundTripper) Option {
	return func(client *Client) {
		client.transport = rt
	}
}

// WithLogger sets the logger.
func WithLogger(logger logr.Logger) Option {
	return func(client *Client) {
		client.log = logger
	}
}

// WithMetrics instruments requests with collectors registered on registrar. It wraps the current
// transport, so it must follow WithTransport.
func WithMetrics(registrar prometheus.Registerer) Option {
	return func(client *Client) {
		client.transport = metrics.InstrumentRoundTripper(registrar, client.transport)
	}
}

// WithRateLimit bounds the requests sent per second. Zero keeps the SDK default.
func WithRateLimit(perSecond int) Option {
	return func(client *Client) {
		client.rateLimit = perSecond
	}
}

// WithRetryBackOff sets the backoff between retries of failed requests and the maximum number of
// retries.
func WithRetryBackOff(policy func() backoff.BackOff, maxRetries uint64) Option {
	return func(client *Client) {
		client.retryPolicy = policy
		client.maxRetries = maxRetries
	}
}

// WithPollBackOff sets the backoff used while waiting for clusters, contexts and commands to reach
// a terminal state. The backoff's elapsed time limit bounds how long Client waits.
func WithPollBackOff(policy func() backoff.BackOff) Option {
	return func(client *Client) {
		client.pollPolicy = policy
	}
}

// NewClient creates a Client for the workspace described by cfg. cfg must already be resolved,
// the SDK does not read the environment or the CLI profile again.
func NewClient(cfg Config, opts ...Option) (*Client, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	client := &Client{
		clusterID:   cfg.ClusterID,
		transport:   otelhttp.NewTransport(http.DefaultTransport),
		log:         logr.Discard(),
		maxRetries:  DefaultMaxRetries,
		retryPolicy: defaultRetryBackOff,
		pollPolicy:  defaultPollBackOff,
	}

	for _, opt := range opts {
		opt(client)
	}

	client.log = client.log.WithName("databricks")
	client.cfg = &config.Config{
		Host:               normalizeHost(cfg.Host),
		Token:              cfg.Token,
		ClusterID:          cfg.ClusterID,
		Credentials:        config.PatCredentials{},
		Loaders:            []config.Loader{resolved{}},
		HTTPTransport:      userAgentTransport{next: client.transport},
		HTTPTimeoutSeconds: 120,
		// Retries are decided by Client.call, which knows which requests are idempotent.
		// The SDK backs off at least a second before retrying, so a one second budget never
		// lets it resend.
		RetryTimeoutSeconds: 1,
		RateLimitPerSecond:  client.rateLimit,
	}

	ws, err := sdk.NewWorkspaceClient((*sdk.Config)(client.cfg))
	if err != nil {
		return nil, errors.Wrap(err, "create workspace client")
	}
	client.ws = ws

	if client.api, err = sdkclient.New(client.cfg); err != nil {
		return nil, errors.Wrap(err, "create api client")
	}

	return client, nil
}

// Host returns the workspace URL.
func (c *Client) Host() string {
	return c.cfg.Host
}

// ClusterID returns the cluster configured for running metadata commands.
func (c *Client) ClusterID() string {
	return c.clusterID
}

// resolved is an SDK config loader for configurations already resolved by Config.Resolve.
type resolved struct{}

func (resolved) Name() string { return "pushcart-deploy" }

func (resolved) Configure(*config.Config) error { return nil }

// userAgentTransport prefixes the SDK User-Agent with the pushcart-deploy one.
type userAgentTransport struct {
	next http.RoundTripper
}

func (t userAgentTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	req = req.Clone(req.Context())
	req.Header.Set("User-Agent", build.UserAgent()+" "+req.Header.Get("User-Agent"))
	return t.next.RoundTrip(req)
}

func defaultRetryBackOff() backoff.BackOff {
	b := backoff.NewExponentialBackOff()
	b.InitialInterval = 500 * time.Millisecond
	b.MaxInterval = 10 * time.Second
	return b
}

func defaultPollBackOff() backoff.BackOff {
	b := backoff.NewExponentialBackOff()
	b.InitialInterval = time.Second
	b.MaxInterval = 15 * time.Second
	b.MaxElapsedTime = 30 * time.Minute
	return b
}

// call runs the request fn sends for method and path, retrying failures the request can be sent
// again for. See retryable.
func (c *Client) call(ctx context.Context, method, path string, fn func(context.Context) error) error {
	operation := func() error {
		err := fromSDK(fn(ctx))
		switch {
		case err == nil:
			return nil
		case ctx.Err() != nil:
			return backoff.Permanent(ctx.Err())
		case retryable(method, path, err):
			return err
		default:
			return backoff.Permanent(err)
		}
	}

	notify := func(err error, wait time.Duration) {
		c.log.V(1).Info("retrying request", "method", method, "path", path, "wait", wait, "error", err.Error())
	}

	policy := backoff.WithContext(backoff.WithMaxRetries(c.retryPolicy(), c.maxRetries), ctx)
	if err := backoff.RetryNotify(operation, policy, notify); err != nil {
		return errors.Wrapf(err, "%v %v", method, path)
	}
	return nil
}

// do sends in to path and decodes the response into out, for payloads kept as free-form maps.
func (c *Client) do(ctx context.Context, method, path string, in, out interface{}) error {
	return c.call(ctx, method, path, func(ctx context.Context) error {
		return c.api.Do(ctx, method, path, nil, in, out)
	})
}

// poll calls check until it reports done, an error that is not errNotReady, or the poll backoff
// gives up.
func (c *Client) poll(ctx context.Context, check func() (bool, error)) error {
	operation := func() error {
		done, err := check()
		if err != nil {
			return backoff.Permanent(err)
		}
		if !done {
			return errNotReady
		}
		return nil
	}

	err := backoff.Retry(operation, backoff.WithContext(c.pollPolicy(), ctx))
	if errors.Is(err, errNotReady) {
		return ErrTimeout
	}
	return err
}

var errNotReady = errors.New("not ready")

// ErrTimeout indicates a resource did not reach the expected state in time.
var ErrTimeout = errors.New("timed out waiting for resource")
