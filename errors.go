package stroming

import (
	"errors"
	"fmt"
)

var (
	// ErrInvalidStreamName is returned when a stream name is empty.
	ErrInvalidStreamName = errors.New("invalid stream name")

	// ErrStoreClosed is returned by every operation after Close.
	ErrStoreClosed = errors.New("stream store closed")

	// ErrInvalidExpectedVersion is returned when an expected version cannot be parsed.
	ErrInvalidExpectedVersion = errors.New("invalid expected version")

	// ErrInvalidDirection is returned when a read direction cannot be parsed.
	ErrInvalidDirection = errors.New("invalid read direction")

	// ErrWrongExpectedVersion matches any WrongExpectedVersion with errors.Is.
	ErrWrongExpectedVersion = errors.New("wrong expected version")
)

// StoreError wraps infrastructure failures of a StreamStore.
type StoreError struct {
	Err error
}

func (e *StoreError) Error() string {
	return fmt.Sprintf("stream store error: %v", e.Err)
}

func (e *StoreError) Unwrap() error {
	return e.Err
}

// WrapStoreError wraps err in a StoreError. A nil err stays nil.
func WrapStoreError(err error) error {
	if err == nil {
		return nil
	}
	return &StoreError{Err: err}
}
