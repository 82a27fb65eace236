package wdkit

import (
	"net/url"
	"time"

	"github.com/tebeka/selenium"

	"github.com/wdkit/wdkit/chrome"
	"github.com/wdkit/wdkit/firefox"
)

// Kind identifies the browser a session should drive.
type Kind string

// The recognized browsers. Other defers entirely to Capabilities; the
// "browserName" capability must be set by the caller and the session must be
// remote, since no local driver service can be chosen for an unknown browser.
const (
	Chrome  Kind = "chrome"
	Firefox Kind = "firefox"
	Other   Kind = "other"
)

// Defaults applied by Acquire when the corresponding Config field is zero.
const (
	DefaultConnectTimeout = 30 * time.Second
	DefaultRetryBackoff   = 500 * time.Millisecond
)

// Classifier reports whether a remote acquisition failure is transient, i.e.
// worth retrying. See Transient for the default policy.
type Classifier func(error) bool

// Config describes how to obtain a browser session. The zero value is not
// usable; at minimum Browser must be set. Config values are never mutated by
// this package and may be reused across Acquire calls.
type Config struct {
	// Browser selects the browser to drive.
	Browser Kind

	// Endpoint is the URL of a remote grid hub, e.g.
	// "http://hub:4444/wd/hub". Empty means a local session: a driver
	// service is started on this machine and the session is opened against
	// it.
	Endpoint string

	// Headless runs the browser without a visible window. Applied through
	// the chrome and firefox option presets; ignored for Other.
	Headless bool

	// Capabilities are merged verbatim into the WebDriver capabilities after
	// the browser presets, so entries here override anything wdkit sets.
	Capabilities selenium.Capabilities

	// ConnectTimeout caps the total time spent establishing a remote
	// session, including retries and backoff waits. Zero means
	// DefaultConnectTimeout.
	ConnectTimeout time.Duration

	// MaxRetries is the number of additional attempts made after the first
	// remote connection failure classified as transient. Ignored for local
	// sessions: a broken local install cannot be fixed by retrying.
	MaxRetries int

	// RetryBackoff seeds the exponential backoff between remote attempts.
	// Zero means DefaultRetryBackoff.
	RetryBackoff time.Duration

	// Classify overrides the transient-failure policy for remote
	// acquisition. Nil means Transient.
	Classify Classifier

	// DriverPath is the path to the driver binary (chromedriver or
	// geckodriver) for local sessions. Empty means the binary is looked up
	// on $PATH and then under a vendor/ directory.
	DriverPath string

	// BrowserPath is the path to the browser binary itself, when the
	// default installation should not be used.
	BrowserPath string

	// MinDriverVersion, when non-empty, is the minimum acceptable driver
	// binary version for local sessions, e.g. "102.0.0". The driver's
	// --version output is checked before the service is started.
	MinDriverVersion string

	// Port is the port the local driver service listens on. Zero means an
	// unused port is picked.
	Port int

	// ServiceOptions are passed through to the driver service for local
	// sessions, e.g. selenium.StartFrameBuffer().
	ServiceOptions []selenium.ServiceOption
}

func (c Config) connectTimeout() time.Duration {
	if c.ConnectTimeout <= 0 {
		return DefaultConnectTimeout
	}
	return c.ConnectTimeout
}

func (c Config) retryBackoff() time.Duration {
	if c.RetryBackoff <= 0 {
		return DefaultRetryBackoff
	}
	return c.RetryBackoff
}

func (c Config) classifier() Classifier {
	if c.Classify == nil {
		return Transient
	}
	return c.Classify
}

// validate checks the parts of a Config that can be rejected before any
// resource is touched.
func (c Config) validate() error {
	switch c.Browser {
	case Chrome, Firefox:
	case Other:
		if _, ok := c.Capabilities["browserName"]; !ok {
			return &ConfigError{Field: "Capabilities", Reason: `browser "other" requires a "browserName" capability`}
		}
		if c.Endpoint == "" {
			return &ConfigError{Field: "Endpoint", Reason: `browser "other" requires a remote endpoint`}
		}
	case "":
		return &ConfigError{Field: "Browser", Reason: "must be set"}
	default:
		return &ConfigError{Field: "Browser", Reason: "unrecognized browser " + string(c.Browser)}
	}

	if c.Endpoint != "" {
		u, err := url.Parse(c.Endpoint)
		if err != nil {
			return &ConfigError{Field: "Endpoint", Reason: err.Error()}
		}
		if u.Scheme != "http" && u.Scheme != "https" {
			return &ConfigError{Field: "Endpoint", Reason: "URL must use http or https"}
		}
		if u.Host == "" {
			return &ConfigError{Field: "Endpoint", Reason: "URL has no host"}
		}
	}

	if c.MaxRetries < 0 {
		return &ConfigError{Field: "MaxRetries", Reason: "must not be negative"}
	}
	if c.ConnectTimeout < 0 {
		return &ConfigError{Field: "ConnectTimeout", Reason: "must not be negative"}
	}
	if c.RetryBackoff < 0 {
		return &ConfigError{Field: "RetryBackoff", Reason: "must not be negative"}
	}
	if c.Port < 0 || c.Port > 65535 {
		return &ConfigError{Field: "Port", Reason: "must be a valid port number"}
	}
	return nil
}

// capabilities assembles the WebDriver capabilities for this config: the
// browser name, the browser-specific preset, then the caller's Capabilities
// verbatim.
func (c Config) capabilities() selenium.Capabilities {
	caps := selenium.Capabilities{}
	switch c.Browser {
	case Chrome:
		caps["browserName"] = "chrome"
		caps.AddChrome(chrome.Options{
			Headless:   c.Headless,
			BinaryPath: c.BrowserPath,
		}.Capabilities())
	case Firefox:
		caps["browserName"] = "firefox"
		caps.AddFirefox(firefox.Options{
			Headless:   c.Headless,
			BinaryPath: c.BrowserPath,
		}.Capabilities())
	}
	for k, v := range c.Capabilities {
		caps[k] = v
	}
	return caps
}
