// Package metrics instruments workspace API calls and deployed resources with prometheus
// collectors. Collected metrics can be written to a node_exporter textfile once a run completes.
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const (
	methodLabel = "method"
	codeLabel   = "code"
	kindLabel   = "kind"
	actionLabel = "action"
)

// Resource kinds recorded by Recorder.
const (
	KindPipeline      = "pipeline"
	KindJob           = "job"
	KindRepo          = "repo"
	KindGitCredential = "git_credential"
	KindSecretScope   = "secret_scope"
	KindSecret        = "secret"
	KindMetadataTable = "metadata_table"
)

// Actions recorded by Recorder.
const (
	ActionCreate = "create"
	ActionUpdate = "update"
	ActionDelete = "delete"
)

// InstrumentRoundTripper adds a request counter and a request duration histogram to registrar
// and returns a RoundTripper that records every request made through next.
func InstrumentRoundTripper(registrar prometheus.Registerer, next http.RoundTripper) http.RoundTripper {
	count := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "databricks_api_requests_total",
			Help: "Count of Databricks workspace API requests",
		},
		[]string{methodLabel, codeLabel},
	)

	duration := prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "databricks_api_request_duration_seconds",
			Help:    "Histogram of Databricks workspace API response times in seconds",
			Buckets: []float64{.005, .01, .025, .05, .1, .25, .5, 1, 2.5, 5, 10},
		},
		[]string{methodLabel, codeLabel},
	)

	registrar.MustRegister(count, duration)

	return promhttp.InstrumentRoundTripperCounter(
		count,
		promhttp.InstrumentRoundTripperDuration(duration, next),
	)
}

// Recorder counts workspace resources changed by a deployment. A nil Recorder discards
// everything.
type Recorder struct {
	resources *prometheus.CounterVec
}

// NewRecorder adds the deployed resources counter to registrar.
func NewRecorder(registrar prometheus.Registerer) *Recorder {
	resources := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "pushcart_deploy_resources_total",
			Help: "Count of workspace resources changed by pushcart-deploy",
		},
		[]string{kindLabel, actionLabel},
	)

	registrar.MustRegister(resources)

	return &Recorder{resources: resources}
}

// Resource records action being applied to a resource of kind.
func (r *Recorder) Resource(kind, action string) {
	if r == nil {
		return
	}
	r.resources.WithLabelValues(kind, action).Inc()
}

// WriteTextfile writes every metric gathered by g to path in the prometheus text format.
func WriteTextfile(path string, g prometheus.Gatherer) error {
	return prometheus.WriteToTextfile(path, g)
}
