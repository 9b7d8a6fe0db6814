package entities

import (
	"errors"
	"fmt"
)

// ErrorKind classifies pipeline failures
type ErrorKind string

// Error kinds
const (
	ErrEnvironmentUnavailable ErrorKind = "EnvironmentUnavailable"
	ErrToolchainAmbiguous     ErrorKind = "ToolchainAmbiguous"
	ErrToolRepairFailure      ErrorKind = "ToolRepairFailure"
	ErrBuildInvocationFailure ErrorKind = "BuildInvocationFailure"
	ErrArtifactMissing        ErrorKind = "ArtifactMissing"
	ErrInvalidConfiguration   ErrorKind = "InvalidConfiguration"
)

// Fatal reports whether errors of this kind stop the pipeline
func (k ErrorKind) Fatal() bool {
	switch k {
	case ErrToolchainAmbiguous, ErrArtifactMissing:
		return false
	default:
		return true
	}
}

// PipelineError is a classified failure of one pipeline stage
type PipelineError struct {
	Kind     ErrorKind
	Stage    string
	ExitCode int      // set for BuildInvocationFailure
	Tools    []string // set for ToolRepairFailure
	Err      error
}

func (e *PipelineError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s (%s): %v", e.Kind, e.Stage, e.Err)
	}
	return fmt.Sprintf("%s (%s)", e.Kind, e.Stage)
}

// Unwrap returns the underlying cause
func (e *PipelineError) Unwrap() error {
	return e.Err
}

// NewPipelineError creates a PipelineError
func NewPipelineError(kind ErrorKind, stage string, err error) *PipelineError {
	return &PipelineError{Kind: kind, Stage: stage, Err: err}
}

// KindOf returns the kind of the first PipelineError in err's chain
func KindOf(err error) (ErrorKind, bool) {
	var pe *PipelineError
	if errors.As(err, &pe) {
		return pe.Kind, true
	}
	return "", false
}

// IsKind reports whether err carries a PipelineError of kind
func IsKind(err error, kind ErrorKind) bool {
	k, ok := KindOf(err)
	return ok && k == kind
}
