// Local session acquisition: resolve a driver binary, start it as a
// service, and open a session against it. None of this is ever retried;
// retrying a missing binary or an incompatible install cannot succeed.

package wdkit

import (
	"context"
	"fmt"
	"net"
	"os"
	"os/exec"
	"path/filepath"
	"regexp"
	"sort"

	"github.com/blang/semver"
	"github.com/tebeka/selenium"
)

// driverBinaries maps a browser to the name of its WebDriver binary.
var driverBinaries = map[Kind]string{
	Chrome:  "chromedriver",
	Firefox: "geckodriver",
}

// vendorDir is searched for driver binaries after $PATH. The fetch-drivers
// tool downloads into it.
const vendorDir = "vendor"

// openLocal starts a driver service for cfg.Browser and opens a session
// against it. The returned stop function terminates the service.
func openLocal(ctx context.Context, cfg Config, caps selenium.Capabilities) (selenium.WebDriver, func() error, error) {
	path, err := resolveDriver(cfg)
	if err != nil {
		return nil, nil, err
	}
	if err := checkDriverVersion(path, cfg.MinDriverVersion); err != nil {
		return nil, nil, err
	}

	port := cfg.Port
	if port == 0 {
		if port, err = pickUnusedPort(); err != nil {
			return nil, nil, err
		}
	}

	var (
		service *selenium.Service
		addr    string
	)
	switch cfg.Browser {
	case Chrome:
		service, err = selenium.NewChromeDriverService(path, port, cfg.ServiceOptions...)
		addr = fmt.Sprintf("http://localhost:%d/wd/hub", port)
	case Firefox:
		service, err = selenium.NewGeckoDriverService(path, port, cfg.ServiceOptions...)
		addr = fmt.Sprintf("http://localhost:%d", port)
	default:
		return nil, nil, fmt.Errorf("no local driver service for browser %q", cfg.Browser)
	}
	if err != nil {
		return nil, nil, fmt.Errorf("starting %s: %w", filepath.Base(path), err)
	}

	wd, err := selenium.NewRemote(caps, addr)
	if err != nil {
		service.Stop()
		return nil, nil, fmt.Errorf("opening session on %s: %w", addr, err)
	}
	return wd, service.Stop, nil
}

// resolveDriver locates the driver binary for cfg.Browser: an explicit
// DriverPath wins, then $PATH, then the newest executable matching
// vendor/<name>*.
func resolveDriver(cfg Config) (string, error) {
	if cfg.DriverPath != "" {
		fi, err := os.Stat(cfg.DriverPath)
		if err != nil {
			return "", fmt.Errorf("driver binary: %w", err)
		}
		if fi.IsDir() {
			return "", fmt.Errorf("driver binary %q is a directory", cfg.DriverPath)
		}
		return cfg.DriverPath, nil
	}

	name := driverBinaries[cfg.Browser]
	if path, err := exec.LookPath(name); err == nil {
		return path, nil
	}
	if path := findBestPath(filepath.Join(vendorDir, name+"*")); path != "" {
		return path, nil
	}
	return "", fmt.Errorf("no %s binary found on $PATH or under %s/; set Config.DriverPath or run fetch-drivers", name, vendorDir)
}

// findBestPath returns the newest-versioned regular executable file matching
// glob, or the empty string.
func findBestPath(glob string) string {
	matches, err := filepath.Glob(glob)
	if err != nil || len(matches) == 0 {
		return ""
	}
	// Iterate backwards: newer versions sort to the end.
	sort.Strings(matches)
	for i := len(matches) - 1; i >= 0; i-- {
		fi, err := os.Stat(matches[i])
		if err != nil || !fi.Mode().IsRegular() {
			continue
		}
		if fi.Mode().Perm()&0111 == 0 {
			continue
		}
		return matches[i]
	}
	return ""
}

var versionPattern = regexp.MustCompile(`\d+\.\d+(?:\.\d+)?`)

// parseVersionOutput extracts a semantic version from a driver's --version
// output, e.g. "ChromeDriver 103.0.5060.53 (...)" or
// "geckodriver 0.31.0 (...)".
func parseVersionOutput(out string) (semver.Version, error) {
	m := versionPattern.FindString(out)
	if m == "" {
		return semver.Version{}, fmt.Errorf("no version number in %q", out)
	}
	v, err := semver.ParseTolerant(m)
	if err != nil {
		return semver.Version{}, fmt.Errorf("parsing version %q: %w", m, err)
	}
	return v, nil
}

// checkDriverVersion enforces Config.MinDriverVersion against the binary's
// --version output. An empty minimum disables the check.
func checkDriverVersion(path, min string) error {
	if min == "" {
		return nil
	}
	want, err := semver.ParseTolerant(min)
	if err != nil {
		return &ConfigError{Field: "MinDriverVersion", Reason: err.Error()}
	}
	out, err := exec.Command(path, "--version").Output()
	if err != nil {
		return fmt.Errorf("running %s --version: %w", path, err)
	}
	got, err := parseVersionOutput(string(out))
	if err != nil {
		return fmt.Errorf("%s --version: %w", path, err)
	}
	if got.LT(want) {
		return fmt.Errorf("driver %s version %s is below required %s", path, got, want)
	}
	return nil
}

// pickUnusedPort asks the kernel for a free TCP port.
func pickUnusedPort() (int, error) {
	addr, err := net.ResolveTCPAddr("tcp", "127.0.0.1:0")
	if err != nil {
		return 0, err
	}
	l, err := net.ListenTCP("tcp", addr)
	if err != nil {
		return 0, err
	}
	port := l.Addr().(*net.TCPAddr).Port
	if err := l.Close(); err != nil {
		return 0, err
	}
	return port, nil
}
