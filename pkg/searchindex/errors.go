package searchindex

import (
	"errors"
	"fmt"
)

// ErrTimeout indicates the index did not answer within the deadline.
type ErrTimeout struct {
	Err error
}

func (e ErrTimeout) Error() string {
	return fmt.Errorf("timeout: %w", e.Err).Error()
}

func (e ErrTimeout) Unwrap() error {
	return e.Err
}

// ErrConnection indicates a network connectivity failure.
type ErrConnection struct {
	Err error
}

func (e ErrConnection) Error() string {
	return fmt.Errorf("connection: %w", e.Err).Error()
}

func (e ErrConnection) Unwrap() error {
	return e.Err
}

// ErrBadStatus indicates a non-2xx response from the index.
type ErrBadStatus struct {
	StatusCode int
}

func (e ErrBadStatus) Error() string {
	return fmt.Sprintf("bad status: %d", e.StatusCode)
}

// ErrMalformed indicates an undecodable response body.
type ErrMalformed struct {
	Err error
}

func (e ErrMalformed) Error() string {
	return fmt.Errorf("malformed response: %w", e.Err).Error()
}

func (e ErrMalformed) Unwrap() error {
	return e.Err
}

// IsTransient reports whether the error is recoverable by falling back to
// another provider. Every index failure mode (timeout, connection loss, a
// server error, garbage in the body) is recoverable; only programmer errors
// such as a nil request are not.
func IsTransient(err error) bool {
	if err == nil {
		return false
	}
	var (
		timeout   ErrTimeout
		conn      ErrConnection
		status    ErrBadStatus
		malformed ErrMalformed
	)
	return errors.As(err, &timeout) ||
		errors.As(err, &conn) ||
		errors.As(err, &status) ||
		errors.As(err, &malformed)
}
