package logger_test

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/go-logr/logr/funcr"
	. "github.com/pushcart/pushcart-deploy/internal/logger"
)

func init() {
	gin.SetMode(gin.ReleaseMode)
}

func TestNew(t *testing.T) {
	cases := []struct {
		Name  string
		Level string
		Debug bool
		Err   bool
	}{
		{Name: "Default", Level: "", Debug: false},
		{Name: "Debug", Level: "debug", Debug: true},
		{Name: "UpperCase", Level: "INFO", Debug: false},
		{Name: "Error", Level: "error", Debug: false},
		{Name: "Invalid", Level: "verbose", Err: true},
	}

	for _, tc := range cases {
		t.Run(tc.Name, func(t *testing.T) {
			logger, flush, err := New("test", tc.Level)
			defer flush()

			if tc.Err {
				if !errors.Is(err, ErrInvalidLevel) {
					t.Fatalf("Expected: %v; Received: %v", ErrInvalidLevel, err)
				}
				return
			}
			if err != nil {
				t.Fatal(err)
			}

			if enabled := logger.V(1).Enabled(); enabled != tc.Debug {
				t.Fatalf("Expected V(1) enabled: %v; Received: %v", tc.Debug, enabled)
			}
		})
	}
}

func TestMiddleware(t *testing.T) {
	cases := []struct {
		Name   string
		Status int
		Error  bool
	}{
		{Name: "Success", Status: http.StatusOK},
		{Name: "ClientError", Status: http.StatusNotFound},
		{Name: "ServerError", Status: http.StatusInternalServerError, Error: true},
	}

	for _, tc := range cases {
		t.Run(tc.Name, func(t *testing.T) {
			var lines []string
			logger := funcr.New(func(prefix, args string) {
				lines = append(lines, args)
			}, funcr.Options{Verbosity: 1})

			router := gin.New()
			router.Use(Middleware(logger))
			router.GET("/", func(c *gin.Context) {
				if tc.Status >= 500 {
					_ = c.AbortWithError(tc.Status, errors.New("boom"))
					return
				}
				c.Status(tc.Status)
			})

			w := httptest.NewRecorder()
			router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/?a=b", nil))

			if len(lines) != 1 {
				t.Fatalf("Expected: 1 log line; Received: %v", lines)
			}

			if !strings.Contains(lines[0], `"path"="/?a=b"`) {
				t.Fatalf("Expected path in log line; Received: %v", lines[0])
			}

			if isError := strings.Contains(lines[0], `"error"="boom"`); isError != tc.Error {
				t.Fatalf("Expected error: %v; Received: %v", tc.Error, lines[0])
			}
		})
	}
}
