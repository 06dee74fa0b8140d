package oracle

import (
	"context"
	"errors"
	"fmt"
)

// Request describes a single completion call against the text oracle.
type Request struct {
	Prompt        string
	SystemMessage string
	Temperature   float32
	MaxTokens     int32
}

// Completer is the narrow contract every oracle-backed component consumes.
// Implementations are expected to be slow, external and fallible; callers
// must pass a context with a deadline and be prepared for TransientError.
type Completer interface {
	Complete(ctx context.Context, req Request) (string, error)
	Model() string
}

// TransientError marks an oracle failure as retryable or recoverable by
// degrading, as opposed to a programming error.
type TransientError struct {
	Err error
}

func (e *TransientError) Error() string {
	return fmt.Sprintf("oracle temporarily unavailable: %v", e.Err)
}

func (e *TransientError) Unwrap() error { return e.Err }

// Transient wraps err as a TransientError. A nil err returns nil.
func Transient(err error) error {
	if err == nil {
		return nil
	}
	return &TransientError{Err: err}
}

// IsTransient reports whether err is (or wraps) a TransientError.
func IsTransient(err error) bool {
	var te *TransientError
	return errors.As(err, &te)
}
