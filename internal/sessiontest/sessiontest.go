// Package sessiontest provides the shared fixtures for integration tests
// that drive real browsers through wdkit. Tests using it skip themselves
// when the binaries they need are not installed.
package sessiontest

import (
	"context"
	"flag"
	"fmt"
	"net"
	"os"
	"os/exec"
	"path/filepath"
	"sync/atomic"
	"testing"

	"github.com/BurntSushi/xgbutil"
	socks5 "github.com/armon/go-socks5"

	"github.com/wdkit/wdkit"
)

var (
	chromeDriverPath = flag.String("chromedriver_path", "", "The path to the chromedriver binary. If empty, $PATH and vendor/ are searched; Chrome tests are skipped when nothing is found.")
	geckoDriverPath  = flag.String("geckodriver_path", "", "The path to the geckodriver binary. If empty, $PATH and vendor/ are searched; Firefox tests are skipped when nothing is found.")
	chromeBinary     = flag.String("chrome_binary", "", "The path to the Chrome binary. If empty, chromedriver picks the default installation.")
	firefoxBinary    = flag.String("firefox_binary", "", "The path to the Firefox binary. If empty, geckodriver picks the default installation.")
	headless         = flag.Bool("headless", true, "Run the browsers headless.")
)

// ChromeConfig returns a local-session Config for Chrome, skipping t when no
// chromedriver is available.
func ChromeConfig(t *testing.T) wdkit.Config {
	t.Helper()
	cfg := wdkit.Config{
		Browser:     wdkit.Chrome,
		Headless:    *headless,
		DriverPath:  *chromeDriverPath,
		BrowserPath: *chromeBinary,
	}
	requireDriver(t, cfg, "chromedriver")
	return cfg
}

// FirefoxConfig returns a local-session Config for Firefox, skipping t when
// no geckodriver is available.
func FirefoxConfig(t *testing.T) wdkit.Config {
	t.Helper()
	cfg := wdkit.Config{
		Browser:     wdkit.Firefox,
		Headless:    *headless,
		DriverPath:  *geckoDriverPath,
		BrowserPath: *firefoxBinary,
	}
	requireDriver(t, cfg, "geckodriver")
	return cfg
}

func requireDriver(t *testing.T, cfg wdkit.Config, name string) {
	t.Helper()
	if cfg.DriverPath != "" {
		return
	}
	if _, err := exec.LookPath(name); err == nil {
		return
	}
	if _, err := os.Stat(filepath.Join("vendor", name)); err == nil {
		return
	}
	t.Skipf("Skipping: no %s binary found; run fetch-drivers or pass -%s_path", name, name)
}

// RequireXvfb skips t when no Xvfb binary is installed.
func RequireXvfb(t *testing.T) {
	t.Helper()
	if _, err := exec.LookPath("Xvfb"); err != nil {
		t.Skip("Skipping: no Xvfb binary found")
	}
}

// Proxy is a SOCKS5 proxy fixture that counts the connections it handles,
// so a test can prove browser traffic actually went through it.
type Proxy struct {
	Addr  string
	conns int64
	ln    net.Listener
}

// StartProxy runs a SOCKS5 proxy on a loopback port until the test ends.
func StartProxy(t *testing.T) *Proxy {
	t.Helper()
	p := &Proxy{}
	server, err := socks5.New(&socks5.Config{Rules: (*countingRules)(&p.conns)})
	if err != nil {
		t.Fatalf("socks5.New returned error: %v", err)
	}
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatalf("net.Listen returned error: %v", err)
	}
	p.ln = ln
	p.Addr = ln.Addr().String()
	go server.Serve(ln)
	t.Cleanup(func() { ln.Close() })
	return p
}

// Connections returns the number of connections the proxy has allowed.
func (p *Proxy) Connections() int64 {
	return atomic.LoadInt64(&p.conns)
}

type countingRules int64

func (c *countingRules) Allow(ctx context.Context, req *socks5.Request) (context.Context, bool) {
	atomic.AddInt64((*int64)(c), 1)
	return ctx, true
}

// CheckDisplay connects to an X display and verifies its screen has the
// given size. Used to assert that a frame-buffer session really runs inside
// the Xvfb instance started for it.
func CheckDisplay(display string, wantWidth, wantHeight int) error {
	d, err := xgbutil.NewConnDisplay(":" + display)
	if err != nil {
		return fmt.Errorf("connecting to display %q: %v", display, err)
	}
	defer d.Conn().Close()
	s := d.Screen()
	if int(s.WidthInPixels) != wantWidth || int(s.HeightInPixels) != wantHeight {
		return fmt.Errorf("display %q is %dx%d, want %dx%d",
			display, s.WidthInPixels, s.HeightInPixels, wantWidth, wantHeight)
	}
	return nil
}
