// Package e2e contains end-to-end tests for the vadecode CLI.
// This package has no CGO dependencies so it can run with pre-built binaries.
package e2e

import (
	"bytes"
	"os"
	"os/exec"
	"path/filepath"
	"runtime"
	"strings"
	"testing"

	"github.com/user/vadecode/pkg/mocks"
)

// getBinaryName returns the test binary name with platform-specific extension
func getBinaryName() string {
	if runtime.GOOS == "windows" {
		return "vadecode-test.exe"
	}
	return "vadecode-test"
}

// getBinaryPath returns the path to execute the test binary
// If VADECODE_BINARY env var is set, use that instead (for CI with pre-built binaries)
func getBinaryPath() string {
	if path := os.Getenv("VADECODE_BINARY"); path != "" {
		return path
	}
	if runtime.GOOS == "windows" {
		return ".\\vadecode-test.exe"
	}
	return "./vadecode-test"
}

// setup skips unless E2E tests are enabled and builds the CLI when no
// pre-built binary is provided.
func setup(t *testing.T) {
	t.Helper()
	if os.Getenv("VADECODE_E2E") != "1" {
		t.Skip("Skipping E2E test (set VADECODE_E2E=1 to run)")
	}
	if os.Getenv("VADECODE_BINARY") != "" {
		return
	}

	root := getProjectRoot(t)
	buildCmd := exec.Command("go", "build", "-o", getBinaryName(), "./cmd/vadecode")
	buildCmd.Dir = root
	if out, err := buildCmd.CombinedOutput(); err != nil {
		t.Fatalf("Failed to build CLI: %v\n%s", err, out)
	}
	t.Cleanup(func() { os.Remove(filepath.Join(root, getBinaryName())) })
}

// writeClip writes an H.264 MP4 file into dir.
func writeClip(t *testing.T, dir string, frames int) string {
	t.Helper()
	data, err := mocks.H264MP4(frames)
	if err != nil {
		t.Fatalf("Failed to build clip: %v", err)
	}
	path := filepath.Join(dir, "clip.mp4")
	if err := os.WriteFile(path, data, 0644); err != nil {
		t.Fatalf("Failed to write clip: %v", err)
	}
	return path
}

func run(t *testing.T, args ...string) (string, string, error) {
	t.Helper()
	cmd := exec.Command(getBinaryPath(), args...)
	cmd.Dir = getProjectRoot(t)

	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr
	err := cmd.Run()
	return stdout.String(), stderr.String(), err
}

// TestDecodeCommand decodes a clip on the null accelerator
func TestDecodeCommand(t *testing.T) {
	setup(t)

	tmpDir := t.TempDir()
	clip := writeClip(t, tmpDir, 8)
	outDir := filepath.Join(tmpDir, "out")

	// Flags must come before the file arguments in urfave/cli
	stdout, stderr, err := run(t, "decode", "-b", "nullaccel", "-o", outDir, clip)
	if err != nil {
		t.Fatalf("Decode command failed: %v\nstdout: %s\nstderr: %s", err, stdout, stderr)
	}

	if !strings.Contains(stdout, "vah264dec") {
		t.Errorf("Expected decoder name in output: %s", stdout)
	}

	for _, name := range []string{"clip.stats.json", "clip.timeline.png"} {
		info, err := os.Stat(filepath.Join(outDir, name))
		if err != nil {
			t.Fatalf("Output file not found: %v", err)
		}
		if info.Size() == 0 {
			t.Errorf("%s is empty", name)
		}
	}

	png, err := os.ReadFile(filepath.Join(outDir, "clip.timeline.png"))
	if err != nil {
		t.Fatalf("Failed to read timeline: %v", err)
	}
	if len(png) < 8 || string(png[1:4]) != "PNG" {
		t.Error("Invalid PNG file")
	}
}

// TestDecodeWithDebugOutput tests the debug buffer dump
func TestDecodeWithDebugOutput(t *testing.T) {
	setup(t)

	tmpDir := t.TempDir()
	clip := writeClip(t, tmpDir, 3)
	debugDir := filepath.Join(tmpDir, "debug")

	stdout, stderr, err := run(t, "decode", "-b", "nullaccel", "-D", "--debug-dir", debugDir, clip)
	if err != nil {
		t.Fatalf("Decode command failed: %v\nstdout: %s\nstderr: %s", err, stdout, stderr)
	}

	entries, err := os.ReadDir(filepath.Join(debugDir, "clip", "frames"))
	if err != nil {
		t.Fatalf("Debug frames not found: %v", err)
	}
	if len(entries) != 3 {
		t.Errorf("Expected 3 frame directories, got %d", len(entries))
	}

	t.Logf("Debug output created with %d frames", len(entries))
}

// TestProbeCommand tests codec detection
func TestProbeCommand(t *testing.T) {
	setup(t)

	clip := writeClip(t, t.TempDir(), 1)
	stdout, stderr, err := run(t, "probe", clip)
	if err != nil {
		t.Fatalf("Probe command failed: %v\nstderr: %s", err, stderr)
	}

	for _, want := range []string{"h264", "avc1", "128x96"} {
		if !strings.Contains(stdout, want) {
			t.Errorf("Expected %q in probe output: %s", want, stdout)
		}
	}
}

// TestVersionCommand tests the version flag
func TestVersionCommand(t *testing.T) {
	setup(t)

	// urfave/cli uses --version flag instead of version subcommand
	stdout, _, err := run(t, "--version")
	if err != nil {
		t.Fatalf("Version command failed: %v", err)
	}

	if !strings.Contains(stdout, "vadecode version") {
		t.Errorf("Unexpected version output: %s", stdout)
	}
}

// TestDecodeHelp tests that the decode help lists its options
func TestDecodeHelp(t *testing.T) {
	setup(t)

	stdout, _, err := run(t, "decode", "--help")
	if err != nil {
		t.Fatalf("Help command failed: %v", err)
	}

	for _, flag := range []string{"--backend", "--policy", "--static-pool", "--output-dir", "--debug-dir"} {
		if !strings.Contains(stdout, flag) {
			t.Errorf("Expected %s option in help", flag)
		}
	}
}

// getProjectRoot returns the project root directory
func getProjectRoot(t *testing.T) string {
	// Start from current working directory and find go.mod
	dir, err := os.Getwd()
	if err != nil {
		t.Fatalf("Failed to get working directory: %v", err)
	}

	for {
		if _, err := os.Stat(filepath.Join(dir, "go.mod")); err == nil {
			return dir
		}
		parent := filepath.Dir(dir)
		if parent == dir {
			t.Fatal("Could not find project root (go.mod)")
		}
		dir = parent
	}
}
