package sync

import "fmt"

// Reason classifies why a keyword did not sync
type Reason string

const (
	// ReasonLockUnavailable means another instance held the keyword lock
	ReasonLockUnavailable Reason = "LockUnavailable"

	// ReasonLockBackend means the lock backend itself failed
	ReasonLockBackend Reason = "LockBackend"

	// ReasonFetchFailed means the provider failed permanently
	ReasonFetchFailed Reason = "FetchFailed"

	// ReasonStoreFailed means reading or writing the posting store failed
	ReasonStoreFailed Reason = "StoreFailed"

	// ReasonCancelled means the caller's context ended before the run finished
	ReasonCancelled Reason = "Cancelled"
)

// Error represents a keyword sync failure
type Error struct {
	Err     error
	Message string
	Reason  Reason
	Keyword string
}

func newError(reason Reason, keyword, message string, err error) *Error {
	return &Error{
		Err:     err,
		Message: fmt.Sprintf("%s: %v", message, err),
		Reason:  reason,
		Keyword: keyword,
	}
}

func (e *Error) Error() string {
	return e.Message
}

func (e *Error) Unwrap() error {
	return e.Err
}
