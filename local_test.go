package wdkit

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func writeExecutable(t *testing.T, dir, name, contents string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	if err := os.WriteFile(path, []byte(contents), 0o755); err != nil {
		t.Fatalf("writing %q: %v", path, err)
	}
	return path
}

func TestResolveDriverExplicitPath(t *testing.T) {
	dir := t.TempDir()
	path := writeExecutable(t, dir, "chromedriver", "#!/bin/sh\n")

	got, err := resolveDriver(Config{Browser: Chrome, DriverPath: path})
	if err != nil {
		t.Fatalf("resolveDriver returned error: %v", err)
	}
	if got != path {
		t.Errorf("resolveDriver = %q, want %q", got, path)
	}
}

func TestResolveDriverExplicitPathMissing(t *testing.T) {
	_, err := resolveDriver(Config{Browser: Chrome, DriverPath: filepath.Join(t.TempDir(), "nope")})
	if err == nil {
		t.Fatal("resolveDriver returned nil for a missing explicit path")
	}
}

func TestResolveDriverExplicitPathIsDirectory(t *testing.T) {
	_, err := resolveDriver(Config{Browser: Chrome, DriverPath: t.TempDir()})
	if err == nil {
		t.Fatal("resolveDriver returned nil for a directory")
	}
}

func TestFindBestPath(t *testing.T) {
	dir := t.TempDir()
	writeExecutable(t, dir, "geckodriver-v0.30.0", "#!/bin/sh\n")
	want := writeExecutable(t, dir, "geckodriver-v0.31.0", "#!/bin/sh\n")
	// Non-executable and directory entries are skipped even when they sort
	// later.
	if err := os.WriteFile(filepath.Join(dir, "geckodriver-v0.32.0.tar.gz"), []byte("archive"), 0o644); err != nil {
		t.Fatal(err)
	}
	if err := os.Mkdir(filepath.Join(dir, "geckodriver-v0.33.0"), 0o755); err != nil {
		t.Fatal(err)
	}

	got := findBestPath(filepath.Join(dir, "geckodriver*"))
	if got != want {
		t.Errorf("findBestPath = %q, want %q", got, want)
	}
}

func TestFindBestPathNoMatches(t *testing.T) {
	if got := findBestPath(filepath.Join(t.TempDir(), "chromedriver*")); got != "" {
		t.Errorf("findBestPath = %q, want empty", got)
	}
}

func TestParseVersionOutput(t *testing.T) {
	tests := []struct {
		desc, in, want string
		wantErr        bool
	}{
		{"chromedriver", "ChromeDriver 103.0.5060.53 (a2aa063f0222-refs/branch-heads/5060@{#853})", "103.0.5060", false},
		{"geckodriver", "geckodriver 0.31.0 (b617178ef491 2022-04-06)", "0.31.0", false},
		{"two components", "somedriver 2.46", "2.46.0", false},
		{"no version", "not a driver", "", true},
	}
	for _, test := range tests {
		t.Run(test.desc, func(t *testing.T) {
			got, err := parseVersionOutput(test.in)
			if test.wantErr {
				if err == nil {
					t.Fatalf("parseVersionOutput(%q) returned nil error", test.in)
				}
				return
			}
			if err != nil {
				t.Fatalf("parseVersionOutput(%q) returned error: %v", test.in, err)
			}
			if got.String() != test.want {
				t.Errorf("parseVersionOutput(%q) = %s, want %s", test.in, got, test.want)
			}
		})
	}
}

func TestCheckDriverVersion(t *testing.T) {
	dir := t.TempDir()
	path := writeExecutable(t, dir, "chromedriver",
		"#!/bin/sh\necho 'ChromeDriver 102.0.5005.61 (abcdef-refs/branch-heads/5005)'\n")

	tests := []struct {
		desc, min string
		wantErr   bool
	}{
		{"no minimum", "", false},
		{"met", "100.0.0", false},
		{"met exactly", "102.0.0", false},
		{"not met", "103.0.0", true},
	}
	for _, test := range tests {
		t.Run(test.desc, func(t *testing.T) {
			err := checkDriverVersion(path, test.min)
			if test.wantErr {
				if err == nil {
					t.Fatal("checkDriverVersion returned nil, want an incompatibility error")
				}
				if !strings.Contains(err.Error(), "below required") {
					t.Errorf("checkDriverVersion error = %v, want it to report the version gap", err)
				}
				return
			}
			if err != nil {
				t.Fatalf("checkDriverVersion returned error: %v", err)
			}
		})
	}
}

func TestCheckDriverVersionBadMinimum(t *testing.T) {
	err := checkDriverVersion("/usr/bin/true", "not-a-version")
	var ce *ConfigError
	if !errors.As(err, &ce) {
		t.Fatalf("checkDriverVersion returned %v, want a *ConfigError", err)
	}
}

func TestPickUnusedPort(t *testing.T) {
	seen := map[int]bool{}
	for i := 0; i < 3; i++ {
		port, err := pickUnusedPort()
		if err != nil {
			t.Fatalf("pickUnusedPort returned error: %v", err)
		}
		if port <= 0 || port > 65535 {
			t.Errorf("pickUnusedPort = %d, want a valid port", port)
		}
		seen[port] = true
	}
	if len(seen) == 0 {
		t.Error("no ports picked")
	}
}
