package wdkit

import (
	"errors"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/tebeka/selenium"
	tchrome "github.com/tebeka/selenium/chrome"
	tfirefox "github.com/tebeka/selenium/firefox"

	"github.com/wdkit/wdkit/chrome"
	"github.com/wdkit/wdkit/firefox"
)

func TestConfigValidate(t *testing.T) {
	tests := []struct {
		desc      string
		cfg       Config
		wantField string // empty means the config is valid
	}{
		{"chrome local", Config{Browser: Chrome}, ""},
		{"firefox remote", Config{Browser: Firefox, Endpoint: "http://hub:4444/wd/hub"}, ""},
		{"other remote with browserName", Config{
			Browser:      Other,
			Endpoint:     "http://hub:4444/wd/hub",
			Capabilities: selenium.Capabilities{"browserName": "MicrosoftEdge"},
		}, ""},
		{"missing browser", Config{}, "Browser"},
		{"unknown browser", Config{Browser: "safari"}, "Browser"},
		{"other without browserName", Config{Browser: Other, Endpoint: "http://hub:4444"}, "Capabilities"},
		{"other without endpoint", Config{
			Browser:      Other,
			Capabilities: selenium.Capabilities{"browserName": "MicrosoftEdge"},
		}, "Endpoint"},
		{"endpoint without scheme", Config{Browser: Chrome, Endpoint: "hub:4444"}, "Endpoint"},
		{"endpoint with bad scheme", Config{Browser: Chrome, Endpoint: "ftp://hub:4444"}, "Endpoint"},
		{"negative retries", Config{Browser: Chrome, MaxRetries: -1}, "MaxRetries"},
		{"negative timeout", Config{Browser: Chrome, ConnectTimeout: -time.Second}, "ConnectTimeout"},
		{"negative backoff", Config{Browser: Chrome, RetryBackoff: -time.Millisecond}, "RetryBackoff"},
		{"port out of range", Config{Browser: Chrome, Port: 70000}, "Port"},
	}
	for _, test := range tests {
		t.Run(test.desc, func(t *testing.T) {
			err := test.cfg.validate()
			if test.wantField == "" {
				if err != nil {
					t.Fatalf("validate returned error: %v", err)
				}
				return
			}
			var ce *ConfigError
			if !errors.As(err, &ce) {
				t.Fatalf("validate returned %v, want a *ConfigError", err)
			}
			if ce.Field != test.wantField {
				t.Errorf("ConfigError.Field = %q, want %q", ce.Field, test.wantField)
			}
		})
	}
}

func TestConfigCapabilitiesChrome(t *testing.T) {
	cfg := Config{Browser: Chrome, Headless: true, BrowserPath: "/opt/chrome/chrome"}
	got := cfg.capabilities()

	want := selenium.Capabilities{"browserName": "chrome"}
	want.AddChrome(chrome.Options{Headless: true, BinaryPath: "/opt/chrome/chrome"}.Capabilities())
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("capabilities() returned diff (-want/+got):\n%s", diff)
	}

	opts, ok := got[tchrome.CapabilitiesKey].(tchrome.Capabilities)
	if !ok {
		t.Fatalf("capabilities() did not populate %q", tchrome.CapabilitiesKey)
	}
	if opts.Path != "/opt/chrome/chrome" {
		t.Errorf("chrome binary path = %q, want %q", opts.Path, "/opt/chrome/chrome")
	}
	if !contains(opts.Args, "--headless") {
		t.Errorf("chrome args %v do not include --headless", opts.Args)
	}
}

func TestConfigCapabilitiesFirefox(t *testing.T) {
	cfg := Config{Browser: Firefox, Headless: true}
	got := cfg.capabilities()

	opts, ok := got[tfirefox.CapabilitiesKey].(tfirefox.Capabilities)
	if !ok {
		t.Fatalf("capabilities() did not populate %q", tfirefox.CapabilitiesKey)
	}
	if !contains(opts.Args, "--headless") {
		t.Errorf("firefox args %v do not include --headless", opts.Args)
	}
	if diff := cmp.Diff(firefox.Options{Headless: true}.Capabilities(), opts); diff != "" {
		t.Errorf("firefox options returned diff (-want/+got):\n%s", diff)
	}
}

func TestConfigCapabilitiesVerbatimOverride(t *testing.T) {
	// Caller-supplied capabilities are merged last and win, including over
	// the chromeOptions preset.
	cfg := Config{
		Browser: Chrome,
		Capabilities: selenium.Capabilities{
			"browserName":           "chrome-beta",
			"acceptInsecureCerts":   true,
			tchrome.CapabilitiesKey: tchrome.Capabilities{Args: []string{"--user-data-dir=/tmp/profile"}},
		},
	}
	got := cfg.capabilities()

	if got["browserName"] != "chrome-beta" {
		t.Errorf("browserName = %v, want the caller's value", got["browserName"])
	}
	if got["acceptInsecureCerts"] != true {
		t.Errorf("acceptInsecureCerts = %v, want true", got["acceptInsecureCerts"])
	}
	opts, ok := got[tchrome.CapabilitiesKey].(tchrome.Capabilities)
	if !ok {
		t.Fatalf("capabilities() did not keep the caller's %q entry", tchrome.CapabilitiesKey)
	}
	if diff := cmp.Diff([]string{"--user-data-dir=/tmp/profile"}, opts.Args); diff != "" {
		t.Errorf("chrome args returned diff (-want/+got):\n%s", diff)
	}
}

func TestConfigDefaults(t *testing.T) {
	var cfg Config
	if got, want := cfg.connectTimeout(), DefaultConnectTimeout; got != want {
		t.Errorf("connectTimeout() = %v, want %v", got, want)
	}
	if got, want := cfg.retryBackoff(), DefaultRetryBackoff; got != want {
		t.Errorf("retryBackoff() = %v, want %v", got, want)
	}
	if cfg.classifier() == nil {
		t.Error("classifier() = nil, want the default policy")
	}
}

func contains(list []string, s string) bool {
	for _, v := range list {
		if v == s {
			return true
		}
	}
	return false
}
