package muhimbi

import (
	"errors"
	"fmt"
	"io/fs"
	"strings"
)

// maxCauseDepth caps how many nested causes a TransportError records.
const maxCauseDepth = 10

// ErrClientClosed is returned by every operation issued after Close.
var ErrClientClosed = errors.New("muhimbi: client is closed")

// NotFoundError reports a missing local source file. It matches fs.ErrNotExist.
type NotFoundError struct {
	Path string
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("source file not found: %s", e.Path)
}

func (e *NotFoundError) Is(target error) bool {
	return target == fs.ErrNotExist
}

// Cause is one level of a transport failure's cause chain.
type Cause struct {
	Kind    string
	Message string
}

// TransportError wraps a network level failure (timeout, refused connection,
// TLS handshake...) together with its flattened cause chain.
type TransportError struct {
	Op     string
	Causes []Cause
	Err    error
}

func newTransportError(op string, err error) *TransportError {
	return &TransportError{Op: op, Causes: causeChain(err), Err: err}
}

func causeChain(err error) []Cause {
	var causes []Cause
	for err != nil && len(causes) < maxCauseDepth {
		causes = append(causes, Cause{Kind: fmt.Sprintf("%T", err), Message: err.Error()})
		err = errors.Unwrap(err)
	}
	return causes
}

func (e *TransportError) Error() string {
	parts := make([]string, 0, len(e.Causes))
	for _, c := range e.Causes {
		parts = append(parts, fmt.Sprintf("%s: %s", c.Kind, c.Message))
	}
	return fmt.Sprintf("%s request failed: %s", e.Op, strings.Join(parts, " -> "))
}

func (e *TransportError) Unwrap() error { return e.Err }

// HTTPStatusError is returned for any non-2xx answer from the service.
type HTTPStatusError struct {
	Op         string
	StatusCode int
	Reason     string
	Body       string
}

func (e *HTTPStatusError) Error() string {
	return fmt.Sprintf("%s returned HTTP %d %s: %s", e.Op, e.StatusCode, e.Reason, e.Body)
}

// ParseError reports a response body that could not be decoded.
type ParseError struct {
	Op   string
	Body string
	Err  error
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("%s: unable to parse response: %v", e.Op, e.Err)
}

func (e *ParseError) Unwrap() error { return e.Err }

// ResultError carries a result code the service reported as a failure, or a
// success that came without a usable payload. Code and Details are verbatim.
type ResultError struct {
	Code    string
	Details string
	Reason  string
}

func (e *ResultError) Error() string {
	msg := fmt.Sprintf("ocr failed with result code %q", e.Code)
	if e.Reason != "" {
		msg += " (" + e.Reason + ")"
	}
	if e.Details != "" {
		msg += ": " + e.Details
	}
	return msg
}

// CancelledError is returned when the caller's context ends before a terminal
// result. It unwraps to context.Canceled or context.DeadlineExceeded.
type CancelledError struct {
	TaskID string
	Polls  int
	Err    error
}

func (e *CancelledError) Error() string {
	if e.TaskID == "" {
		return fmt.Sprintf("ocr cancelled: %v", e.Err)
	}
	return fmt.Sprintf("ocr cancelled while polling task %s after %d poll(s): %v", e.TaskID, e.Polls, e.Err)
}

func (e *CancelledError) Unwrap() error { return e.Err }
