package engine

import "errors"

// InferenceError marks a transcription failure as recoverable at the
// pipeline level: the chunk is lost, the run continues.
type InferenceError struct {
	Engine string
	Err    error
}

func (e *InferenceError) Error() string {
	if e == nil || e.Err == nil {
		return "inference error"
	}
	return e.Engine + ": " + e.Err.Error()
}

func (e *InferenceError) Unwrap() error {
	if e == nil {
		return nil
	}
	return e.Err
}

func newInferenceError(engine string, err error) error {
	if err == nil {
		return nil
	}
	return &InferenceError{Engine: engine, Err: err}
}

// IsInferenceError reports whether err is a per-chunk inference failure.
func IsInferenceError(err error) bool {
	var ie *InferenceError
	return errors.As(err, &ie)
}
