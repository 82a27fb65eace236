// Package download fetches WebDriver binaries into a local directory,
// normally vendor/, so that wdkit local sessions can resolve them without a
// system-wide install.
package download

import (
	"context"
	"crypto/md5"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"hash"
	"io"
	"net/http"
	"os"
	"os/exec"
	"path"
	"path/filepath"
	"regexp"
	"strings"

	"cloud.google.com/go/storage"
	"github.com/golang/glog"
	"github.com/google/go-github/v27/github"
	"golang.org/x/sync/errgroup"
	"google.golang.org/api/option"
)

// File describes one downloadable artifact and how to install it.
type File struct {
	// Name is the filename the artifact is stored under.
	Name string
	// URL is where to fetch it from.
	URL string
	// Hash is the expected hex digest of the artifact; empty disables
	// verification. HashType selects the algorithm, sha256 by default.
	Hash     string
	HashType string
	// Rename maps an extracted path to its final name, e.g.
	// {"chromedriver_linux64/chromedriver", "chromedriver"}.
	Rename []string
	// Browser marks full browser packages, which are only fetched on
	// request; driver binaries are always fetched.
	Browser bool

	dir string
}

func (f File) path() string {
	return filepath.Join(f.dir, f.Name)
}

// LatestGeckodriver looks up the newest geckodriver release on GitHub and
// returns a File for its linux64 archive.
func LatestGeckodriver(ctx context.Context) (File, error) {
	return latestGithubRelease(ctx, "mozilla", "geckodriver", `geckodriver-.*linux64\.tar\.gz`, "geckodriver.tar.gz")
}

func latestGithubRelease(ctx context.Context, owner, repo, pattern, name string) (File, error) {
	client := github.NewClient(nil)
	release, _, err := client.Repositories.GetLatestRelease(ctx, owner, repo)
	if err != nil {
		return File{}, fmt.Errorf("fetching latest %s/%s release: %v", owner, repo, err)
	}
	re, err := regexp.Compile(pattern)
	if err != nil {
		return File{}, err
	}
	for _, asset := range release.Assets {
		if re.MatchString(asset.GetName()) {
			return File{
				Name: name,
				URL:  asset.GetBrowserDownloadURL(),
			}, nil
		}
	}
	return File{}, fmt.Errorf("no asset matching %q in the latest %s/%s release", pattern, owner, repo)
}

// ChromiumSnapshot constants. The continuous-build bucket publishes matched
// chromedriver and Chromium packages under a single build number.
const (
	snapshotBucket = "chromium-browser-snapshots"
	snapshotPrefix = "Linux_x64"
	lastChangeFile = "Linux_x64/LAST_CHANGE"
)

// LatestChromium returns Files for the newest Chromium snapshot's
// chromedriver and, when withBrowser is set, the browser package itself.
// The two always come from the same build, so they are version-compatible.
func LatestChromium(ctx context.Context, withBrowser bool) ([]File, error) {
	client, err := storage.NewClient(ctx, option.WithHTTPClient(http.DefaultClient))
	if err != nil {
		return nil, fmt.Errorf("creating storage client: %v", err)
	}
	bkt := client.Bucket(snapshotBucket)

	r, err := bkt.Object(lastChangeFile).NewReader(ctx)
	if err != nil {
		return nil, fmt.Errorf("reading gs://%s/%s: %v", snapshotBucket, lastChangeFile, err)
	}
	defer r.Close()
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("reading gs://%s/%s: %v", snapshotBucket, lastChangeFile, err)
	}
	build := strings.TrimSpace(string(data))

	var files []File
	add := func(object, name string, browser bool, rename []string) error {
		attrs, err := bkt.Object(path.Join(snapshotPrefix, build, object)).Attrs(ctx)
		if err != nil {
			return fmt.Errorf("object %s in build %s: %v", object, build, err)
		}
		files = append(files, File{
			Name:     name,
			URL:      attrs.MediaLink,
			Hash:     hex.EncodeToString(attrs.MD5),
			HashType: "md5",
			Browser:  browser,
			Rename:   rename,
		})
		return nil
	}
	if err := add("chromedriver_linux64.zip", "chromedriver.zip", false,
		[]string{"chromedriver_linux64/chromedriver", "chromedriver"}); err != nil {
		return nil, err
	}
	if withBrowser {
		if err := add("chrome-linux.zip", "chrome-linux.zip", true, nil); err != nil {
			return nil, err
		}
	}
	return files, nil
}

// Fetch downloads file into dir unless an identical copy is already there,
// then unpacks and renames it.
func Fetch(ctx context.Context, file File, dir string) error {
	file.dir = dir
	if file.Hash != "" && sameHash(file) {
		glog.Infof("Skipping %q which has already been downloaded.", file.Name)
	} else {
		glog.Infof("Downloading %q from %q", file.Name, file.URL)
		if err := fetchOne(ctx, file); err != nil {
			return err
		}
	}
	if err := unpack(file); err != nil {
		return err
	}
	if rename := file.Rename; len(rename) == 2 {
		from := filepath.Join(dir, rename[0])
		to := filepath.Join(dir, rename[1])
		glog.Infof("Renaming %q to %q", from, to)
		os.RemoveAll(to) // Ignore error.
		if err := os.Rename(from, to); err != nil {
			glog.Warningf("Error renaming %q to %q: %v", from, to, err)
		}
	}
	return nil
}

// FetchAll downloads the files concurrently into dir.
func FetchAll(ctx context.Context, files []File, dir string) error {
	var g errgroup.Group
	for _, file := range files {
		file := file
		g.Go(func() error {
			if err := Fetch(ctx, file, dir); err != nil {
				return fmt.Errorf("%s: %v", file.Name, err)
			}
			return nil
		})
	}
	return g.Wait()
}

func fetchOne(ctx context.Context, file File) (err error) {
	f, err := os.Create(file.path())
	if err != nil {
		return fmt.Errorf("creating %q: %v", file.path(), err)
	}
	defer func() {
		if closeErr := f.Close(); closeErr != nil && err == nil {
			err = fmt.Errorf("closing %q: %v", file.path(), closeErr)
		}
	}()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, file.URL, nil)
	if err != nil {
		return err
	}
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		return fmt.Errorf("downloading %q: %v", file.URL, err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("downloading %q: %s", file.URL, resp.Status)
	}

	if file.Hash == "" {
		_, err := io.Copy(f, resp.Body)
		return err
	}
	h := newHash(file.HashType)
	if _, err := io.Copy(io.MultiWriter(f, h), resp.Body); err != nil {
		return fmt.Errorf("downloading %q: %v", file.URL, err)
	}
	if sum := hex.EncodeToString(h.Sum(nil)); sum != file.Hash {
		return fmt.Errorf("got %s hash %q, want %q", hashName(file.HashType), sum, file.Hash)
	}
	return nil
}

func newHash(hashType string) hash.Hash {
	if strings.EqualFold(hashType, "md5") {
		return md5.New()
	}
	return sha256.New()
}

func hashName(hashType string) string {
	if strings.EqualFold(hashType, "md5") {
		return "md5"
	}
	return "sha256"
}

// sameHash reports whether the file on disk already matches the expected
// digest.
func sameHash(file File) bool {
	f, err := os.Open(file.path())
	if err != nil {
		return false
	}
	defer f.Close()

	h := newHash(file.HashType)
	if _, err := io.Copy(h, f); err != nil {
		return false
	}
	sum := hex.EncodeToString(h.Sum(nil))
	if sum != file.Hash {
		glog.Warningf("File %q: got hash %q, want hash %q", file.Name, sum, file.Hash)
		return false
	}
	return true
}

// unpack extracts the archive with the platform's unzip or tar. Non-archive
// files are left as they are.
func unpack(file File) error {
	var cmd []string
	switch path.Ext(file.Name) {
	case ".zip":
		cmd = []string{"unzip", "-d", file.dir, "-o", file.path()}
	case ".gz":
		cmd = []string{"tar", "-xzf", file.path(), "-C", file.dir}
	case ".bz2":
		cmd = []string{"tar", "-xjf", file.path(), "-C", file.dir}
	default:
		return nil
	}
	glog.Infof("Unpacking %q", file.path())
	if err := exec.Command(cmd[0], cmd[1:]...).Run(); err != nil {
		return fmt.Errorf("unpacking %q: %v", file.Name, err)
	}
	return nil
}
