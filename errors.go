package wdkit

import "fmt"

// ConfigError reports an invalid Config. It is returned before any resource
// is touched and is never retried.
type ConfigError struct {
	Field  string
	Reason string
}

func (e *ConfigError) Error() string {
	return fmt.Sprintf("wdkit: invalid config: %s: %s", e.Field, e.Reason)
}

// SessionError reports a failure to establish or tear down a session.
// Transient is set when the failure was classified as retryable; for an
// acquisition that exhausted its retries, Err holds the last underlying
// cause.
type SessionError struct {
	// Op is the operation that failed: "connect", "start" or "teardown".
	Op string
	// Endpoint is the remote grid URL, or empty for a local session.
	Endpoint string
	// Transient reports whether the failure was classified transient.
	Transient bool
	// Err is the underlying cause.
	Err error
}

func (e *SessionError) Error() string {
	target := e.Endpoint
	if target == "" {
		target = "local driver"
	}
	return fmt.Sprintf("wdkit: session %s failed (%s): %v", e.Op, target, e.Err)
}

func (e *SessionError) Unwrap() error { return e.Err }

// CancelledError reports that session acquisition was aborted by the
// caller's context. It wraps the context's error, so
// errors.Is(err, context.Canceled) holds for an external cancellation.
type CancelledError struct {
	Err error
}

func (e *CancelledError) Error() string {
	return fmt.Sprintf("wdkit: session acquisition cancelled: %v", e.Err)
}

func (e *CancelledError) Unwrap() error { return e.Err }

// StatusError reports a non-2xx reply from the grid status endpoint. The
// default classifier treats codes of 500 and above as transient and
// everything else as permanent.
type StatusError struct {
	URL  string
	Code int
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("wdkit: grid returned HTTP %d for %s", e.Code, e.URL)
}
