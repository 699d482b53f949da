package errs

import (
	"errors"
	"fmt"
)

// Sentinel errors for room operations. Handlers translate these into soft
// error frames or HTTP status codes; none of them tear down the dispatcher.
var (
	ErrNotFound   = errors.New("room not found")
	ErrCapacity   = errors.New("room is full")
	ErrConflict   = errors.New("room code already in use")
	ErrValidation = errors.New("invalid payload")
)

// StorageError wraps a failure from the durable store. The operation that hit
// it reports back to the originating connection only; nothing is retried.
type StorageError struct {
	Op  string
	Err error
}

func (e *StorageError) Error() string {
	return fmt.Sprintf("storage: %s: %v", e.Op, e.Err)
}

func (e *StorageError) Unwrap() error { return e.Err }

// Storage wraps err as a StorageError for the named operation.
func Storage(op string, err error) error {
	if err == nil {
		return nil
	}
	return &StorageError{Op: op, Err: err}
}

// IsStorage reports whether err is (or wraps) a StorageError.
func IsStorage(err error) bool {
	var se *StorageError
	return errors.As(err, &se)
}
