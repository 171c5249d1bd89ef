// Package logger builds the process logger and a gin middleware that logs requests with it.
package logger

import (
	"errors"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/go-logr/logr"
	"github.com/go-logr/zapr"
	pkgerrors "github.com/pkg/errors"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// Levels accepted by New.
const (
	LevelDebug = "debug"
	LevelInfo  = "info"
	LevelWarn  = "warn"
	LevelError = "error"
)

// ErrInvalidLevel indicates an unknown log level.
var ErrInvalidLevel = errors.New("invalid log level")

// New creates a JSON logger writing to stderr at level. Debug enables V(1) messages. The returned
// function flushes buffered entries.
func New(name, level string) (logr.Logger, func(), error) {
	lvl, err := parseLevel(level)
	if err != nil {
		return logr.Discard(), func() {}, err
	}

	cfg := zap.NewProductionConfig()
	cfg.Level = zap.NewAtomicLevelAt(lvl)
	cfg.EncoderConfig.EncodeTime = zapcore.RFC3339TimeEncoder
	cfg.Sampling = nil

	zl, err := cfg.Build()
	if err != nil {
		return logr.Discard(), func() {}, pkgerrors.Wrap(err, "build zap logger")
	}

	return zapr.NewLogger(zl).WithName(name), func() { _ = zl.Sync() }, nil
}

func parseLevel(level string) (zapcore.Level, error) {
	switch strings.ToLower(level) {
	case LevelDebug:
		// zapr maps logr V(n) to zap level -n.
		return zapcore.Level(-1), nil
	case LevelInfo, "":
		return zapcore.InfoLevel, nil
	case LevelWarn:
		return zapcore.WarnLevel, nil
	case LevelError:
		return zapcore.ErrorLevel, nil
	default:
		return zapcore.InfoLevel, pkgerrors.Wrapf(ErrInvalidLevel, "%q", level)
	}
}

// Middleware creates a gin middleware that logs requests. It includes method, status_code, path
// and latency.
func Middleware(logger logr.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		end := time.Now()

		path := c.Request.URL.Path
		if c.Request.URL.RawQuery != "" {
			path += "?" + c.Request.URL.RawQuery
		}

		event := logger.WithValues(
			"method", c.Request.Method,
			"status_code", c.Writer.Status(),
			"path", path,
			"latency", end.Sub(start),
		)

		if c.Writer.Status() < 500 {
			event.V(1).Info("request")
			return
		}

		msg := "No error message specified"
		if len(c.Errors.Errors()) > 0 {
			msg = c.Errors.Errors()[0]
		}
		event.Error(errors.New(msg), "request failed", "all_errors", strings.Join(c.Errors.Errors(), "; "))
	}
}
