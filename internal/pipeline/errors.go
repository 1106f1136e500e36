package pipeline

import "fmt"

// ErrorKind classifies a stage failure for policy decisions. The runner
// never inspects kinds; stages use them to decide partial vs fatal, and
// callers use them for retry classification.
type ErrorKind string

const (
	ErrorAuth               ErrorKind = "auth"
	ErrorNetwork            ErrorKind = "network"
	ErrorParse              ErrorKind = "parse"
	ErrorServiceUnavailable ErrorKind = "service_unavailable"
	ErrorRateLimited        ErrorKind = "rate_limited"
	ErrorRender             ErrorKind = "render"
	ErrorBuild              ErrorKind = "build"
	ErrorConfiguration      ErrorKind = "configuration"
	ErrorInternal           ErrorKind = "internal"
)

// Retryable reports whether failures of this kind may succeed on retry.
// Retries happen inside the owning stage with bounded backoff before the
// failure is escalated to a partial or fatal outcome.
func (k ErrorKind) Retryable() bool {
	return k == ErrorRateLimited || k == ErrorServiceUnavailable || k == ErrorNetwork
}

// StageError is one entry in the run's append-only error log, attributed
// to the stage that recorded it.
type StageError struct {
	Stage   string    `json:"stage"`
	Kind    ErrorKind `json:"kind"`
	Message string    `json:"message"`
}

func (e StageError) Error() string {
	return fmt.Sprintf("%s: [%s] %s", e.Stage, e.Kind, e.Message)
}

// NewStageError builds a StageError from a wrapped cause.
func NewStageError(stage string, kind ErrorKind, err error) StageError {
	return StageError{Stage: stage, Kind: kind, Message: err.Error()}
}
