package prediction

import (
	"errors"
	"fmt"

	"github.com/Brownie44l1/skinsense-api/internal/preprocess"
)

// Error kinds returned by Service.Predict. Match them with errors.Is.
var (
	// ErrInvalidImage means the upload could not be decoded. The caller is at
	// fault. It is the decoder's own sentinel.
	ErrInvalidImage = preprocess.ErrInvalidImage
	// ErrRuntimeUnavailable means the classifier failed to load at startup.
	// Every request fails the same way until the process is restarted.
	ErrRuntimeUnavailable = errors.New("model not loaded")
	// ErrInferenceTimeout means inference did not finish in time. Retryable.
	ErrInferenceTimeout = errors.New("inference timed out")
	// ErrInternal covers everything else. Details are logged, not returned.
	ErrInternal = errors.New("internal error")
)

// Error carries the kind of a prediction failure together with its cause.
type Error struct {
	Kind error
	Op   string
	Err  error
}

func (e *Error) Error() string {
	if e.Err == nil {
		return fmt.Sprintf("%s: %v", e.Op, e.Kind)
	}
	if errors.Is(e.Err, e.Kind) {
		return fmt.Sprintf("%s: %v", e.Op, e.Err)
	}
	return fmt.Sprintf("%s: %v: %v", e.Op, e.Kind, e.Err)
}

func (e *Error) Is(target error) bool {
	return target == e.Kind
}

func (e *Error) Unwrap() error {
	return e.Err
}
