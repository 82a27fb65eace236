package wdkit

import (
	"context"
	"sync/atomic"
	"time"

	"github.com/tebeka/selenium"
)

// Manager converts Configs into Sessions. It holds no per-session state;
// a single Manager may be used from any number of goroutines, each call
// owning the Session it acquired.
type Manager struct {
	// The capability provider, split so tests can substitute deterministic
	// fakes for the underlying library.
	probe      func(ctx context.Context, endpoint string) error
	openRemote func(endpoint string, caps selenium.Capabilities) (selenium.WebDriver, error)
	openLocal  func(ctx context.Context, cfg Config, caps selenium.Capabilities) (selenium.WebDriver, func() error, error)
	sleep      func(ctx context.Context, d time.Duration) error
}

// NewManager returns a Manager backed by the real selenium client.
func NewManager() *Manager {
	return &Manager{
		probe:      gridStatus,
		openRemote: openRemote,
		openLocal:  openLocal,
		sleep:      sleepContext,
	}
}

var defaultManager = NewManager()

// Process-wide diagnostic counters. They carry no semantics beyond
// observability; see Counters.
var counters struct {
	acquired int64
	released int64
	retries  int64
}

// Counters reports the process-wide number of sessions acquired, sessions
// released and remote retry waits performed since startup.
func Counters() (acquired, released, retries int64) {
	return atomic.LoadInt64(&counters.acquired),
		atomic.LoadInt64(&counters.released),
		atomic.LoadInt64(&counters.retries)
}

// Acquire converts cfg into a live Session using the default Manager.
func Acquire(ctx context.Context, cfg Config) (*Session, error) {
	return defaultManager.Acquire(ctx, cfg)
}

// Scoped acquires a session, runs body and releases the session using the
// default Manager. See Manager.Scoped.
func Scoped(ctx context.Context, cfg Config, body func(context.Context, *Session) error) error {
	return defaultManager.Scoped(ctx, cfg, body)
}

// Acquire validates cfg and opens a session. Local startup failures are
// surfaced immediately as *SessionError. Remote connection failures
// classified as transient are retried up to cfg.MaxRetries times with
// exponential backoff seeded by cfg.RetryBackoff, the whole acquisition
// capped at cfg.ConnectTimeout; non-transient failures are surfaced after a
// single attempt. Cancelling ctx aborts the acquisition, including any
// backoff wait in progress, with *CancelledError.
//
// The returned Session is owned by the caller, who must call Release.
func (m *Manager) Acquire(ctx context.Context, cfg Config) (*Session, error) {
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	if err := ctx.Err(); err != nil {
		return nil, &CancelledError{Err: err}
	}
	caps := cfg.capabilities()
	if cfg.Endpoint == "" {
		return m.acquireLocal(ctx, cfg, caps)
	}
	return m.acquireRemote(ctx, cfg, caps)
}

// Scoped acquires a session, invokes body with it, and releases the session
// on every exit path of body: normal return, error return and panic.
// Release always completes before Scoped returns or the panic propagates.
//
// If body fails, its error is returned and a release failure is only
// logged; a release failure is returned only when body itself succeeded. If
// acquisition fails, body is never invoked.
func (m *Manager) Scoped(ctx context.Context, cfg Config, body func(context.Context, *Session) error) (err error) {
	s, err := m.Acquire(ctx, cfg)
	if err != nil {
		return err
	}
	defer func() {
		if relErr := s.Release(); relErr != nil {
			if err == nil {
				err = relErr
			} else {
				debugLog("release failed after body error (primary error wins): %v", relErr)
			}
		}
	}()
	return body(ctx, s)
}

// acquireLocal opens a session against a locally started driver service.
// There is no retry: a missing or incompatible local install cannot succeed
// on a second attempt.
func (m *Manager) acquireLocal(ctx context.Context, cfg Config, caps selenium.Capabilities) (*Session, error) {
	wd, stop, err := m.openLocal(ctx, cfg, caps)
	if err != nil {
		if cerr := ctx.Err(); cerr != nil {
			return nil, &CancelledError{Err: cerr}
		}
		return nil, &SessionError{Op: "start", Err: err}
	}
	atomic.AddInt64(&counters.acquired, 1)
	return &Session{wd: wd, stop: stop}, nil
}

// acquireRemote opens a session against the grid at cfg.Endpoint. Each
// attempt first probes the grid status endpoint so that retry decisions are
// made on real HTTP status codes, then opens the session proper.
func (m *Manager) acquireRemote(ctx context.Context, cfg Config, caps selenium.Capabilities) (*Session, error) {
	classify := cfg.classifier()

	connectCtx, cancel := context.WithTimeout(ctx, cfg.connectTimeout())
	defer cancel()

	delay := cfg.retryBackoff()
	var last error
	for attempt := 0; ; attempt++ {
		wd, err := m.attemptRemote(connectCtx, cfg, caps)
		if err == nil {
			atomic.AddInt64(&counters.acquired, 1)
			return &Session{wd: wd, endpoint: cfg.Endpoint}, nil
		}
		last = err

		if cerr := ctx.Err(); cerr != nil {
			return nil, &CancelledError{Err: cerr}
		}
		if connectCtx.Err() != nil {
			// The connect budget expired mid-attempt.
			return nil, &SessionError{Op: "connect", Endpoint: cfg.Endpoint, Transient: true, Err: last}
		}
		if !classify(err) {
			return nil, &SessionError{Op: "connect", Endpoint: cfg.Endpoint, Err: err}
		}
		if attempt >= cfg.MaxRetries {
			return nil, &SessionError{Op: "connect", Endpoint: cfg.Endpoint, Transient: true, Err: last}
		}

		debugLog("transient failure connecting to %s (attempt %d, retrying in %s): %v", cfg.Endpoint, attempt+1, delay, err)
		atomic.AddInt64(&counters.retries, 1)
		if err := m.sleep(connectCtx, delay); err != nil {
			if cerr := ctx.Err(); cerr != nil {
				return nil, &CancelledError{Err: cerr}
			}
			return nil, &SessionError{Op: "connect", Endpoint: cfg.Endpoint, Transient: true, Err: last}
		}
		delay *= 2
	}
}

func (m *Manager) attemptRemote(ctx context.Context, cfg Config, caps selenium.Capabilities) (selenium.WebDriver, error) {
	if err := m.probe(ctx, cfg.Endpoint); err != nil {
		return nil, err
	}
	return m.openRemote(cfg.Endpoint, caps)
}

// sleepContext waits for d or until ctx is done, whichever comes first.
func sleepContext(ctx context.Context, d time.Duration) error {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}
