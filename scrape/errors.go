package scrape

import (
	"context"
	"errors"
	"fmt"
	"net"
)

// ErrTimeout indicates a request deadline expired before a response arrived.
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

// ErrHTTPStatus indicates the page responded with a non-2xx status. The
// whole class is one failure mode here: the target is unreachable as a
// product page regardless of which status came back.
type ErrHTTPStatus struct {
	Code int
	Err  error
}

func (e ErrHTTPStatus) Error() string {
	return fmt.Errorf("http status %d: %w", e.Code, e.Err).Error()
}

func (e ErrHTTPStatus) Unwrap() error {
	return e.Err
}

// classifyError wraps a transport failure in its typed category.
func classifyError(err error, statusCode int) error {
	if err == nil && statusCode == 0 {
		return nil
	}

	if errors.Is(err, context.DeadlineExceeded) {
		return ErrTimeout{Err: err}
	}
	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return ErrTimeout{Err: err}
	}
	var opErr *net.OpError
	if errors.As(err, &opErr) {
		return ErrConnection{Err: err}
	}

	if statusCode != 0 {
		wrapped := err
		if wrapped == nil {
			wrapped = fmt.Errorf("http status %d", statusCode)
		}
		return ErrHTTPStatus{Code: statusCode, Err: wrapped}
	}

	return err
}

// errorTypeLabel maps a classified error to its metrics/log label.
func errorTypeLabel(err error) string {
	if err == nil {
		return "unknown"
	}
	var timeout ErrTimeout
	if errors.As(err, &timeout) {
		return "timeout"
	}
	var conn ErrConnection
	if errors.As(err, &conn) {
		return "connection"
	}
	var status ErrHTTPStatus
	if errors.As(err, &status) {
		return fmt.Sprintf("http_%d", status.Code)
	}
	return "other"
}
