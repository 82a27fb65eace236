package wdkit

import (
	"context"
	"errors"
	"io"
	"net"
	"syscall"
)

// Transient is the default Classifier. It reports true for failures that may
// succeed on a later attempt: network timeouts, refused or reset
// connections, truncated replies and grid 5xx status replies. DNS failures
// are only transient when the resolver itself timed out or reported a
// temporary condition; a name that does not resolve is treated as a
// configuration problem. Everything else, including grid 4xx replies and
// WebDriver-level rejections such as malformed capabilities, is permanent.
func Transient(err error) bool {
	if err == nil {
		return false
	}
	// Context expiry is handled by the retry loop itself, never retried.
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return false
	}

	var status *StatusError
	if errors.As(err, &status) {
		return status.Code >= 500
	}

	var dns *net.DNSError
	if errors.As(err, &dns) {
		return dns.IsTimeout || dns.IsTemporary
	}

	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return true
	}

	if errors.Is(err, syscall.ECONNREFUSED) ||
		errors.Is(err, syscall.ECONNRESET) ||
		errors.Is(err, syscall.EPIPE) ||
		errors.Is(err, io.EOF) ||
		errors.Is(err, io.ErrUnexpectedEOF) {
		return true
	}

	// Any other failure at the socket level, e.g. no route to host.
	var op *net.OpError
	return errors.As(err, &op)
}
