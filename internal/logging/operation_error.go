package logging

import (
	"errors"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// OperationError records which step of a prediction failed and for which
// request. Logged through ErrorField it becomes a structured object instead
// of a flat string.
type OperationError struct {
	Operation string
	RequestID string
	Err       error
}

func (e *OperationError) Error() string {
	if e == nil || e.Err == nil {
		return ""
	}
	return e.Operation + ": " + e.Err.Error()
}

func (e *OperationError) Unwrap() error {
	if e == nil {
		return nil
	}
	return e.Err
}

// MarshalLogObject implements zapcore.ObjectMarshaler.
func (e *OperationError) MarshalLogObject(enc zapcore.ObjectEncoder) error {
	enc.AddString("operation", e.Operation)
	if e.RequestID != "" {
		enc.AddString("request_id", e.RequestID)
	}
	if e.Err != nil {
		enc.AddString("cause", e.Err.Error())
	}
	return nil
}

// NewOperationError wraps an error with the operation it happened in.
// A nil err yields nil.
func NewOperationError(operation, requestID string, err error) error {
	if err == nil {
		return nil
	}
	return &OperationError{Operation: operation, RequestID: requestID, Err: err}
}

// ErrorField logs err under the "error" key. When err carries an
// OperationError anywhere in its chain, the field is that object.
func ErrorField(err error) zap.Field {
	var opErr *OperationError
	if errors.As(err, &opErr) {
		return zap.Object("error", opErr)
	}
	return zap.Error(err)
}
