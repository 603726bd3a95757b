package provider

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
)

// FailureKind classifies a failed provider call
type FailureKind int

const (
	// FailureNone means the call succeeded
	FailureNone FailureKind = iota
	// FailureTransient failures may succeed on retry
	FailureTransient
	// FailurePermanent failures will not succeed on retry
	FailurePermanent
)

// String returns the label used in logs and metrics
func (k FailureKind) String() string {
	switch k {
	case FailureNone:
		return "none"
	case FailureTransient:
		return "transient"
	case FailurePermanent:
		return "permanent"
	default:
		return fmt.Sprintf("FailureKind(%d)", int(k))
	}
}

// Classifier maps an error from Client.Search to a FailureKind
type Classifier func(error) FailureKind

// ErrMalformedResponse is returned when a response body cannot be decoded
var ErrMalformedResponse = errors.New("malformed provider response")

// HTTPError represents a non-200 provider response
type HTTPError struct {
	StatusCode int
	Message    string
	URL        string
}

// Error returns the error message
func (e *HTTPError) Error() string {
	return fmt.Sprintf("HTTP %d for URL %s: %s", e.StatusCode, e.URL, e.Message)
}

// NewHTTPError creates a new HTTP error
func NewHTTPError(statusCode int, url, message string) error {
	return &HTTPError{
		StatusCode: statusCode,
		URL:        url,
		Message:    message,
	}
}

// TransientFailure wraps an error that is worth retrying
type TransientFailure struct {
	Attempt int
	Err     error
}

func (e *TransientFailure) Error() string {
	return fmt.Sprintf("transient provider failure on attempt %d: %v", e.Attempt, e.Err)
}

func (e *TransientFailure) Unwrap() error {
	return e.Err
}

// PermanentFailure is the only error RetryingFetcher returns.
// Exhausted is set when every attempt failed transiently.
type PermanentFailure struct {
	Keyword   string
	Attempts  int
	Exhausted bool
	Err       error
}

func (e *PermanentFailure) Error() string {
	if e.Exhausted {
		return fmt.Sprintf("provider fetch for %q failed after %d attempts: %v", e.Keyword, e.Attempts, e.Err)
	}
	return fmt.Sprintf("provider fetch for %q failed permanently: %v", e.Keyword, e.Err)
}

func (e *PermanentFailure) Unwrap() error {
	return e.Err
}

// Classify is the default Classifier.
//
// Timeouts, connection failures, HTTP 5xx and HTTP 429 are transient.
// Other HTTP statuses, undecodable bodies and cancellation are permanent,
// as is anything unrecognised.
func Classify(err error) FailureKind {
	if err == nil {
		return FailureNone
	}

	var httpErr *HTTPError
	if errors.As(err, &httpErr) {
		if httpErr.StatusCode >= http.StatusInternalServerError ||
			httpErr.StatusCode == http.StatusTooManyRequests {
			return FailureTransient
		}
		return FailurePermanent
	}

	if errors.Is(err, ErrMalformedResponse) || errors.Is(err, context.Canceled) {
		return FailurePermanent
	}

	var transient *TransientFailure
	if errors.As(err, &transient) {
		return FailureTransient
	}

	if errors.Is(err, context.DeadlineExceeded) {
		return FailureTransient
	}

	var opErr *net.OpError
	if errors.As(err, &opErr) {
		return FailureTransient
	}

	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return FailureTransient
	}

	// Server hung up mid-response
	if errors.Is(err, io.EOF) || errors.Is(err, io.ErrUnexpectedEOF) {
		return FailureTransient
	}

	return FailurePermanent
}
