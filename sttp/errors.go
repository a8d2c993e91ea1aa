package sttp

import (
	"context"
	"fmt"
	"net"

	"github.com/pkg/errors"
)

// ErrInvalidArgument is matched by every configuration error, e.g. a base URL
// that is not an absolute URL or an option value of the wrong type.
var ErrInvalidArgument = errors.New("invalid argument")

func invalidArgument(format string, args ...interface{}) error {
	return errors.Wrapf(ErrInvalidArgument, format, args...)
}

// TransportError reports an exchange that never produced an HTTP response:
// connection refused, DNS failure, timeout, and so on. Err is the error
// returned by the transport, unchanged.
type TransportError struct {
	Method string
	URL    string
	Err    error
}

// Error implements the error interface.
func (e *TransportError) Error() string {
	return fmt.Sprintf("sttp: %s %s: %v", e.Method, e.URL, e.Err)
}

// Unwrap returns the original transport error.
func (e *TransportError) Unwrap() error {
	return e.Err
}

// Timeout reports whether the exchange failed because a deadline expired.
func (e *TransportError) Timeout() bool {
	if errors.Is(e.Err, context.DeadlineExceeded) {
		return true
	}
	var netErr net.Error
	return errors.As(e.Err, &netErr) && netErr.Timeout()
}
