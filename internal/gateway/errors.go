package gateway

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/url"
)

// AppError is an explicit rejection from the remote endpoint: the request
// arrived and the server said no. It carries the server's human-readable
// message and an optional numeric code.
type AppError struct {
	Message string
	Code    int
}

func (e *AppError) Error() string {
	if e.Code != 0 {
		return fmt.Sprintf("%s (code %d)", e.Message, e.Code)
	}
	return e.Message
}

var (
	// ErrUnreachable means the request could not be completed because the
	// network was unavailable. The request may never have left the device.
	ErrUnreachable = errors.New("gateway unreachable")
	// ErrTimeout means the request was sent but no response arrived in time.
	// The server may or may not have processed it.
	ErrTimeout = errors.New("gateway timeout")
)

// Classify maps an arbitrary error onto the gateway taxonomy. AppError and
// already-classified errors pass through; timeouts and dead connections map
// to ErrTimeout/ErrUnreachable; anything else becomes a generic AppError so
// an unexpected failure can never escape the taxonomy.
func Classify(err error) error {
	if err == nil {
		return nil
	}
	var app *AppError
	if errors.As(err, &app) {
		return err
	}
	if errors.Is(err, ErrUnreachable) || errors.Is(err, ErrTimeout) {
		return err
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return fmt.Errorf("%w: %v", ErrTimeout, err)
	}
	var ne net.Error
	if errors.As(err, &ne) && ne.Timeout() {
		return fmt.Errorf("%w: %v", ErrTimeout, err)
	}
	var ue *url.Error
	if errors.As(err, &ue) {
		return fmt.Errorf("%w: %v", ErrUnreachable, err)
	}
	var oe *net.OpError
	if errors.As(err, &oe) {
		return fmt.Errorf("%w: %v", ErrUnreachable, err)
	}
	return &AppError{Message: fmt.Sprintf("unexpected gateway error: %v", err)}
}

// IsTransient reports whether the error is a connectivity failure or timeout:
// conditions under which a send stays PENDING for the next retry cycle.
func IsTransient(err error) bool {
	return errors.Is(err, ErrUnreachable) || errors.Is(err, ErrTimeout)
}

// AsAppError extracts an AppError, if the error is one.
func AsAppError(err error) (*AppError, bool) {
	var app *AppError
	if errors.As(err, &app) {
		return app, true
	}
	return nil, false
}
