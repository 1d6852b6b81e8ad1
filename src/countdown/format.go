package countdown

import (
	"errors"
	"fmt"
)

var (
	// ErrCapture marks a cycle that failed before the model was queried.
	ErrCapture = errors.New("capture failed")
	// ErrQuery marks a cycle whose model query failed.
	ErrQuery = errors.New("query failed")
)

type cycleError struct {
	kind error
	err  error
}

func (e *cycleError) Error() string   { return e.kind.Error() + ": " + e.err.Error() }
func (e *cycleError) Unwrap() []error { return []error{e.kind, e.err} }

// CaptureFailure tags err as a screenshot failure.
func CaptureFailure(err error) error { return &cycleError{kind: ErrCapture, err: err} }

// QueryFailure tags err as a model query failure.
func QueryFailure(err error) error { return &cycleError{kind: ErrQuery, err: err} }

// FormatRemaining renders seconds as M:SS. Negative values render as 0:00.
func FormatRemaining(seconds int) string {
	if seconds < 0 {
		seconds = 0
	}
	return fmt.Sprintf("%d:%02d", seconds/60, seconds%60)
}

// DisplayText is what the response panel shows for an outcome.
func DisplayText(out Outcome) string {
	if out.Err == nil {
		return out.Text
	}
	var ce *cycleError
	if errors.As(out.Err, &ce) {
		if ce.kind == ErrCapture {
			return "Failed to take screenshot: " + ce.err.Error()
		}
		return "Error: " + ce.err.Error()
	}
	return "Error: " + out.Err.Error()
}
