package diarize

import "errors"

// ModelUnavailableError reports that the speaker model cannot be loaded.
// Remediation carries user-facing download guidance; the pipeline surfaces
// it once and continues with unlabeled segments.
type ModelUnavailableError struct {
	Model       string
	Remediation string
	Err         error
}

func (e *ModelUnavailableError) Error() string {
	if e == nil {
		return "speaker model unavailable"
	}
	msg := "speaker model unavailable: " + e.Model
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

func (e *ModelUnavailableError) Unwrap() error {
	if e == nil {
		return nil
	}
	return e.Err
}

// IsModelUnavailable reports whether err means the speaker model is
// missing rather than the configuration being invalid.
func IsModelUnavailable(err error) (*ModelUnavailableError, bool) {
	var mu *ModelUnavailableError
	if errors.As(err, &mu) {
		return mu, true
	}
	return nil, false
}
