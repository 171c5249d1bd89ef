package databricks

import (
	"strings"

	"github.com/pkg/errors"
)

const bearerPrefix = "Bearer "

// ErrInvalidAuthorization indicates an Authorization header that does not carry a bearer token.
var ErrInvalidAuthorization = errors.New("authorization header must carry a bearer token")

// AuthHeader returns the Authorization header value for token.
func AuthHeader(token string) string {
	return bearerPrefix + token
}

// TokenFromAuthHeader extracts the bearer token from an Authorization header value.
func TokenFromAuthHeader(header string) (string, error) {
	if !strings.HasPrefix(header, bearerPrefix) {
		return "", ErrInvalidAuthorization
	}

	token := strings.TrimSpace(strings.TrimPrefix(header, bearerPrefix))
	if token == "" {
		return "", ErrInvalidAuthorization
	}
	return token, nil
}
