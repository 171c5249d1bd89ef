package configuration

import (
	"strings"

	"github.com/pkg/errors"
)

var (
	// ErrNotFound indicates a configuration file does not exist.
	ErrNotFound = errors.New("file not found")

	// ErrUnsupportedFileType indicates a configuration file has an extension that has no loader.
	ErrUnsupportedFileType = errors.New("unsupported file type")

	// ErrInvalidFile indicates a configuration file could not be decoded into a document.
	ErrInvalidFile = errors.New("file is not valid")

	// ErrNoStage indicates a configuration defines none of sources, transformations or
	// destinations.
	ErrNoStage = errors.New(
		"no stage definition found, please define at least one of: sources, transformations, destinations",
	)
)

// ValidationError lists every rule a configuration violates.
type ValidationError struct {
	Problems []string
}

func (e *ValidationError) Error() string {
	return "invalid configuration:\n  " + strings.Join(e.Problems, "\n  ")
}
