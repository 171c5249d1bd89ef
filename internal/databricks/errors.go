package databricks

import (
	"fmt"
	"net"
	"net/http"
	"net/url"

	"github.com/databricks/databricks-sdk-go/apierr"
	"github.com/pkg/errors"
)

// Databricks error codes handled by callers.
const (
	ErrorCodeResourceDoesNotExist = "RESOURCE_DOES_NOT_EXIST"
	ErrorCodeResourceAlreadyExist = "RESOURCE_ALREADY_EXISTS"
	ErrorCodeInvalidState         = "INVALID_STATE"
	ErrorCodeInvalidParameter     = "INVALID_PARAMETER_VALUE"
)

// APIError is an error response of the workspace REST API.
type APIError struct {
	StatusCode int    `json:"-"`
	ErrorCode  string `json:"error_code"`
	Message    string `json:"message"`

	err error
}

// Error satisfies the error interface.
func (e *APIError) Error() string {
	code := e.ErrorCode
	if code == "" {
		code = http.StatusText(e.StatusCode)
	}
	return fmt.Sprintf("databricks api: %d %s: %s", e.StatusCode, code, e.Message)
}

// Unwrap returns the SDK error e was translated from, if any.
func (e *APIError) Unwrap() error {
	return e.err
}

// fromSDK translates SDK API errors into APIError. Other errors are returned unchanged.
func fromSDK(err error) error {
	var sdkErr *apierr.APIError
	if !errors.As(err, &sdkErr) {
		return err
	}
	return &APIError{
		StatusCode: sdkErr.StatusCode,
		ErrorCode:  sdkErr.ErrorCode,
		Message:    sdkErr.Message,
		err:        sdkErr,
	}
}

// idempotentPosts are POST endpoints that can be sent more than once with the same effect.
var idempotentPosts = map[string]bool{
	"/api/1.2/contexts/destroy": true,
	"/api/2.0/clusters/start":   true,
	"/api/2.0/dbfs/delete":      true,
	"/api/2.0/secrets/put":      true,
	"/api/2.0/workspace/mkdirs": true,
	"/api/2.1/jobs/delete":      true,
	"/api/2.1/jobs/reset":       true,
}

// idempotent reports whether sending the request for method and path twice has the effect of
// sending it once.
func idempotent(method, path string) bool {
	switch method {
	case http.MethodGet, http.MethodHead, http.MethodPut, http.MethodPatch, http.MethodDelete:
		return true
	case http.MethodPost:
		return idempotentPosts[path]
	default:
		return false
	}
}

// retryable reports whether a request for method and path that failed with err may be sent
// again. Throttled requests were not processed and are always retried. Server errors and
// transport failures are retried for idempotent requests only, unless the connection could not
// be established at all.
func retryable(method, path string, err error) bool {
	var apiErr *APIError
	if errors.As(err, &apiErr) {
		switch {
		case apiErr.StatusCode == http.StatusTooManyRequests:
			return true
		case apiErr.StatusCode >= http.StatusInternalServerError:
			return idempotent(method, path)
		default:
			return false
		}
	}

	var urlErr *url.Error
	if !errors.As(err, &urlErr) {
		return false
	}

	var opErr *net.OpError
	if errors.As(err, &opErr) && opErr.Op == "dial" {
		return true
	}
	return idempotent(method, path)
}

// IsNotFound reports whether err is an APIError for a missing resource.
func IsNotFound(err error) bool {
	var apiErr *APIError
	if !errors.As(err, &apiErr) {
		return false
	}
	return apiErr.StatusCode == http.StatusNotFound || apiErr.ErrorCode == ErrorCodeResourceDoesNotExist
}

// HasErrorCode reports whether err is an APIError carrying code.
func HasErrorCode(err error, code string) bool {
	var apiErr *APIError
	return errors.As(err, &apiErr) && apiErr.ErrorCode == code
}
