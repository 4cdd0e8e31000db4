// Package apperr defines the error taxonomy shared by the graph store,
// resolver, index, search, reasoner and merge pipeline.
package apperr

import (
	"errors"
	"fmt"
)

// Sentinel kinds. Match with errors.Is.
var (
	ErrLoad                = errors.New("load error")
	ErrUnresolvedConstruct = errors.New("unresolved construct")
	ErrNotFound            = errors.New("not found")
	ErrInvalidArgument     = errors.New("invalid argument")
)

// LoadError reports malformed or unreadable graph, tabular or artifact input.
type LoadError struct {
	Path string
	Err  error
}

func (e *LoadError) Error() string {
	if e.Path == "" {
		return fmt.Sprintf("load: %v", e.Err)
	}
	return fmt.Sprintf("load %s: %v", e.Path, e.Err)
}

func (e *LoadError) Unwrap() []error { return []error{ErrLoad, e.Err} }

// NewLoadError wraps err with the offending input path.
func NewLoadError(path string, err error) *LoadError {
	return &LoadError{Path: path, Err: err}
}

// InvalidArgument builds an ErrInvalidArgument with context.
func InvalidArgument(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrInvalidArgument, fmt.Sprintf(format, args...))
}

// NotFound builds an ErrNotFound naming what was looked up.
func NotFound(kind, key string) error {
	return fmt.Errorf("%w: %s %q", ErrNotFound, kind, key)
}

// UnresolvedConstruct reports a construct label with no match in the schema.
type UnresolvedConstruct struct {
	Label string
	Key   string
}

func (e *UnresolvedConstruct) Error() string {
	return fmt.Sprintf("unresolved construct %q (key %q)", e.Label, e.Key)
}

func (e *UnresolvedConstruct) Unwrap() error { return ErrUnresolvedConstruct }

// IsNotFound reports whether err is a read-path lookup miss.
func IsNotFound(err error) bool { return errors.Is(err, ErrNotFound) }
