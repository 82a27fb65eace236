// Remote grid session acquisition. The WebDriver protocol itself is the
// selenium package's job; this file only decides whether a grid is worth
// talking to.

package wdkit

import (
	"context"
	"io"
	"net/http"
	"strings"

	"github.com/tebeka/selenium"
)

// gridStatus probes the grid's /status endpoint. A reply of 200 means the
// grid is up; 400 and 403 are also accepted because Selenium servers before
// version 3 answered /status with those while perfectly healthy. Any other
// status is returned as a *StatusError so the classifier can separate 5xx
// (grid overloaded or mid-restart, transient) from 4xx (wrong URL or
// protocol mismatch, permanent).
func gridStatus(ctx context.Context, endpoint string) error {
	statusURL := strings.TrimRight(endpoint, "/") + "/status"
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, statusURL, nil)
	if err != nil {
		return err
	}
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	io.Copy(io.Discard, resp.Body)

	switch resp.StatusCode {
	case http.StatusOK, http.StatusBadRequest, http.StatusForbidden:
		return nil
	}
	return &StatusError{URL: statusURL, Code: resp.StatusCode}
}

// openRemote opens a session on the grid. Failures here occur after a
// successful status probe and are therefore WebDriver-level (e.g. malformed
// capabilities); the default classifier treats them as permanent.
func openRemote(endpoint string, caps selenium.Capabilities) (selenium.WebDriver, error) {
	return selenium.NewRemote(caps, endpoint)
}
