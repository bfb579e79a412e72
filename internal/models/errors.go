package models

import (
	"errors"
	"fmt"
	"strings"
)

// Sentinel errors for the load, mutate and write pipelines. Typed errors
// below match their sentinel through errors.Is.
var (
	ErrEmptyModelData         = errors.New("compiler output contains no namespaces")
	ErrMultipleSystemSections = errors.New("more than one system section in compiler output")
	ErrMalformedTypeReference = errors.New("malformed type reference")
	ErrPortResolution         = errors.New("port resolution failed")
	ErrInvalidTypeFormat      = errors.New("component reference must be namespace.name")
	ErrExternalProcessFailure = errors.New("external process failed")
	ErrFileWriteFailure       = errors.New("failed to write model files")
)

// MalformedTypeReferenceError carries the offending instance type string.
type MalformedTypeReferenceError struct {
	Value string
}

func (e *MalformedTypeReferenceError) Error() string {
	return fmt.Sprintf("malformed type reference %q: expected namespace.component", e.Value)
}

func (e *MalformedTypeReferenceError) Is(target error) bool {
	return target == ErrMalformedTypeReference
}

// PortResolutionError is returned when a connection names an instance or
// port that does not exist.
type PortResolutionError struct {
	Instance string
	Port     string
}

func (e *PortResolutionError) Error() string {
	return fmt.Sprintf("cannot resolve port %q on instance %q", e.Port, e.Instance)
}

func (e *PortResolutionError) Is(target error) bool {
	return target == ErrPortResolution
}

// ExternalProcessError wraps a failed compiler or analyzer run.
type ExternalProcessError struct {
	Name   string
	Stderr string
	Err    error
}

func (e *ExternalProcessError) Error() string {
	msg := fmt.Sprintf("%s failed: %v", e.Name, e.Err)
	if stderr := strings.TrimSpace(e.Stderr); stderr != "" {
		msg += ": " + stderr
	}
	return msg
}

func (e *ExternalProcessError) Unwrap() error {
	return e.Err
}

func (e *ExternalProcessError) Is(target error) bool {
	return target == ErrExternalProcessFailure
}

// FileWriteError reports a single file that could not be written.
type FileWriteError struct {
	Path string
	Err  error
}

func (e *FileWriteError) Error() string {
	return fmt.Sprintf("writing %s: %v", e.Path, e.Err)
}

func (e *FileWriteError) Unwrap() error {
	return e.Err
}

func (e *FileWriteError) Is(target error) bool {
	return target == ErrFileWriteFailure
}
