// Package firefox builds Firefox-specific WebDriver capabilities from a
// small set of common options.
package firefox

import (
	"github.com/tebeka/selenium/firefox"
)

// Options are the Firefox settings wdkit knows how to translate into
// capabilities.
type Options struct {
	// Headless runs Firefox without a visible window.
	Headless bool
	// BinaryPath is the path to the Firefox binary; empty lets geckodriver
	// deduce the default installation.
	BinaryPath string
	// Args are extra command-line arguments, including the leading "--".
	Args []string
	// Prefs are profile preferences; values may be strings, booleans or
	// integers.
	Prefs map[string]interface{}
}

// Capabilities renders the options into the moz:firefoxOptions capability
// structure.
func (o Options) Capabilities() firefox.Capabilities {
	var args []string
	if o.Headless {
		args = append(args, "--headless")
	}
	args = append(args, o.Args...)

	return firefox.Capabilities{
		Binary: o.BinaryPath,
		Args:   args,
		Prefs:  o.Prefs,
	}
}
