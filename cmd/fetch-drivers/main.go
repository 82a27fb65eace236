// Binary fetch-drivers downloads the chromedriver and geckodriver binaries
// (and optionally the matching Chromium package) into a directory that wdkit
// local sessions search, so that automation can run without a system-wide
// driver install.
package main

import (
	"context"
	"flag"
	"os"

	"github.com/golang/glog"

	"github.com/wdkit/wdkit/internal/download"
)

var (
	dir             = flag.String("dir", "vendor", "The directory to download into. It is created if absent.")
	downloadBrowser = flag.Bool("download_browser", false, "If set, also download the Chromium package matching the fetched chromedriver.")
)

func main() {
	flag.Parse()
	ctx := context.Background()

	if err := os.MkdirAll(*dir, 0o755); err != nil {
		glog.Exitf("Unable to create %q: %v", *dir, err)
	}

	var files []download.File

	chromium, err := download.LatestChromium(ctx, *downloadBrowser)
	if err != nil {
		glog.Errorf("Unable to determine the latest Chromium snapshot: %v", err)
	} else {
		files = append(files, chromium...)
	}

	gecko, err := download.LatestGeckodriver(ctx)
	if err != nil {
		glog.Errorf("Unable to determine the latest geckodriver release: %v", err)
	} else {
		files = append(files, gecko)
	}

	if len(files) == 0 {
		glog.Exit("Nothing to download.")
	}
	if err := download.FetchAll(ctx, files, *dir); err != nil {
		glog.Exit(err)
	}
}
