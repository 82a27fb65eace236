// Package chrome builds Chrome-specific WebDriver capabilities from a small
// set of common options.
package chrome

import (
	"fmt"

	"github.com/tebeka/selenium/chrome"
)

// Default window size applied when Options does not specify one.
const (
	DefaultWindowWidth  = 1920
	DefaultWindowHeight = 1080
)

// Options are the Chrome settings wdkit knows how to translate into
// capabilities. Anything not covered here can be added through Args, Prefs
// or a verbatim capabilities entry.
type Options struct {
	// Headless runs Chrome without a visible window.
	Headless bool
	// BinaryPath is the path to the Chrome binary; empty lets chromedriver
	// find the default installation.
	BinaryPath string
	// WindowWidth and WindowHeight set the browser window size. Zero means
	// the defaults above.
	WindowWidth  int
	WindowHeight int
	// DisableImages turns off image loading for faster page loads.
	DisableImages bool
	// Args are extra command-line arguments, appended after the preset
	// stability flags.
	Args []string
	// ExcludeSwitches removes chromedriver-supplied default flags, without
	// the leading "--".
	ExcludeSwitches []string
	// Prefs are user-profile preferences, merged over the preset ones.
	Prefs map[string]interface{}
}

// Capabilities renders the options into the chromeOptions capability
// structure. The preset disables sandboxing, /dev/shm usage, extensions and
// the automation-controlled blink feature, which keeps Chrome stable inside
// containers and less detectable as automated.
func (o Options) Capabilities() chrome.Capabilities {
	w, h := o.WindowWidth, o.WindowHeight
	if w <= 0 {
		w = DefaultWindowWidth
	}
	if h <= 0 {
		h = DefaultWindowHeight
	}

	args := []string{
		fmt.Sprintf("--window-size=%d,%d", w, h),
		"--no-sandbox",
		"--disable-dev-shm-usage",
		"--disable-extensions",
		"--disable-blink-features=AutomationControlled",
	}
	if o.Headless {
		args = append(args, "--headless")
	}
	args = append(args, o.Args...)

	prefs := map[string]interface{}{}
	if o.DisableImages {
		prefs["profile.managed_default_content_settings.images"] = 2
	}
	for k, v := range o.Prefs {
		prefs[k] = v
	}
	if len(prefs) == 0 {
		prefs = nil
	}

	return chrome.Capabilities{
		Path:            o.BinaryPath,
		Args:            args,
		ExcludeSwitches: append([]string{"enable-logging"}, o.ExcludeSwitches...),
		Prefs:           prefs,
		W3C:             true,
	}
}
