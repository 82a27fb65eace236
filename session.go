package wdkit

import (
	"errors"
	"sync/atomic"

	"github.com/tebeka/selenium"
)

// Session is a handle to one live browser automation session. It owns
// exactly one underlying browser process (local) or grid session (remote)
// and is always owned by the caller that acquired it; wdkit keeps no
// reference after Acquire returns.
//
// A Session must not be shared across concurrent tasks. Acquire one Session
// per task instead.
type Session struct {
	wd       selenium.WebDriver
	stop     func() error // stops the local driver service; nil for remote
	endpoint string
	released uint32
}

// Driver returns the underlying WebDriver. The caller drives the browser
// through it directly.
func (s *Session) Driver() selenium.WebDriver { return s.wd }

// Endpoint returns the remote grid URL the session was opened against, or
// the empty string for a local session.
func (s *Session) Endpoint() string { return s.endpoint }

// Released reports whether Release has been called.
func (s *Session) Released() bool { return atomic.LoadUint32(&s.released) == 1 }

// Release tears down the session: the WebDriver session is quit and, for
// local sessions, the driver service is stopped. Release is idempotent; the
// second and later calls are no-ops returning nil. Teardown runs at most
// once: if it fails, the error is reported but the session stays marked
// released, so a broken handle cannot block later acquisitions.
func (s *Session) Release() error {
	if !atomic.CompareAndSwapUint32(&s.released, 0, 1) {
		return nil
	}
	atomic.AddInt64(&counters.released, 1)

	var quitErr, stopErr error
	if s.wd != nil {
		quitErr = s.wd.Quit()
	}
	if s.stop != nil {
		stopErr = s.stop()
	}
	if quitErr == nil && stopErr == nil {
		return nil
	}
	return &SessionError{Op: "teardown", Endpoint: s.endpoint, Err: errors.Join(quitErr, stopErr)}
}
