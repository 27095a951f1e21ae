package main

import (
	"bytes"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/user/vadecode/pkg/mocks"
	"github.com/user/vadecode/pkg/ports"
)

func writeFixture(t *testing.T, dir string, frames int) string {
	t.Helper()
	data, err := mocks.H264MP4(frames)
	if err != nil {
		t.Fatalf("build fixture: %v", err)
	}
	path := filepath.Join(dir, "clip.mp4")
	if err := os.WriteFile(path, data, 0644); err != nil {
		t.Fatalf("write fixture: %v", err)
	}
	return path
}

func TestSelectDevice(t *testing.T) {
	devices := []ports.Device{
		{Index: 0, Path: "/dev/dri/renderD128"},
		{Index: 1, Path: "/dev/dri/renderD129"},
	}

	tests := []struct {
		path    string
		want    int
		wantErr bool
	}{
		{"", 0, false},
		{"/dev/dri/renderD129", 1, false},
		{"renderD129", 1, false},
		{"/dev/dri/renderD130", 0, true},
	}
	for _, tt := range tests {
		d, err := selectDevice(devices, tt.path)
		if tt.wantErr {
			if !errors.Is(err, errNoDevice) {
				t.Errorf("selectDevice(%q) error = %v, want errNoDevice", tt.path, err)
			}
			continue
		}
		if err != nil {
			t.Fatalf("selectDevice(%q) failed: %v", tt.path, err)
		}
		if d.Index != tt.want {
			t.Errorf("selectDevice(%q) = device %d, want %d", tt.path, d.Index, tt.want)
		}
	}

	if _, err := selectDevice(nil, ""); !errors.Is(err, errNoDevice) {
		t.Errorf("selectDevice with no devices error = %v", err)
	}
}

func TestBuildRegistry_SkipsFailedDevices(t *testing.T) {
	devices := []ports.Device{
		{Index: 0, Path: "/dev/dri/renderD128"},
		{Index: 1, Path: "/dev/dri/renderD129"},
	}
	released := 0
	open := func(d ports.Device) (ports.Accelerator, func(), error) {
		if d.Index == 1 {
			return nil, nil, errors.New("no driver")
		}
		accel := mocks.NewAccelerator(ports.ProfileH264Main, ports.ProfileH264High, ports.ProfileVP9Profile0)
		return accel, func() { released++ }, nil
	}

	registry, err := buildRegistry(devices, open)
	if err == nil || !strings.Contains(err.Error(), "renderD129") {
		t.Errorf("expected error naming the failed device, got %v", err)
	}
	if released != 1 {
		t.Errorf("released %d accelerators, want 1", released)
	}

	factories := registry.Factories()
	if len(factories) != 2 {
		t.Fatalf("expected 2 factories, got %d", len(factories))
	}
	if factories[0].Name != "vah264dec" || factories[1].Name != "vavp9dec" {
		t.Errorf("unexpected factories %q, %q", factories[0].Name, factories[1].Name)
	}
}

func TestDecodeCommand_NullBackend(t *testing.T) {
	dir := t.TempDir()
	path := writeFixture(t, dir, 4)
	outDir := filepath.Join(dir, "out")

	var out bytes.Buffer
	err := newApp(&out).Run([]string{"vadecode", "decode", "--quiet", "--backend", "nullaccel", "--output-dir", outDir, path})
	if err != nil {
		t.Fatalf("decode failed: %v", err)
	}

	if !strings.Contains(out.String(), "vah264dec") {
		t.Errorf("stats table does not name the decoder:\n%s", out.String())
	}
	if _, err := os.Stat(filepath.Join(outDir, "clip.stats.json")); err != nil {
		t.Errorf("stats file missing: %v", err)
	}
	if _, err := os.Stat(filepath.Join(outDir, "clip.timeline.png")); err != nil {
		t.Errorf("timeline file missing: %v", err)
	}
}

func TestDecodeCommand_DebugDir(t *testing.T) {
	dir := t.TempDir()
	path := writeFixture(t, dir, 2)
	debugDir := filepath.Join(dir, "debug")

	err := newApp(&bytes.Buffer{}).Run([]string{"vadecode", "decode", "-Q", "-b", "nullaccel", "--debug", "--debug-dir", debugDir, path})
	if err != nil {
		t.Fatalf("decode failed: %v", err)
	}

	if _, err := os.Stat(filepath.Join(debugDir, "clip", "summary.json")); err != nil {
		t.Errorf("summary missing from debug dir: %v", err)
	}
	entries, err := os.ReadDir(filepath.Join(debugDir, "clip", "frames"))
	if err != nil {
		t.Fatalf("frames dir missing: %v", err)
	}
	if len(entries) != 2 {
		t.Errorf("expected 2 frame dirs, got %d", len(entries))
	}
}

func TestDecodeCommand_RequiresFiles(t *testing.T) {
	err := newApp(&bytes.Buffer{}).Run([]string{"vadecode", "decode", "-b", "nullaccel"})
	if err == nil {
		t.Fatal("expected error without file arguments")
	}
}

func TestDecodeCommand_InvalidPolicy(t *testing.T) {
	dir := t.TempDir()
	path := writeFixture(t, dir, 1)

	err := newApp(&bytes.Buffer{}).Run([]string{"vadecode", "decode", "-Q", "-b", "nullaccel", "--policy", "guess", path})
	if err == nil {
		t.Fatal("expected error for unknown policy")
	}
}

func TestDecodeCommand_ConfigFile(t *testing.T) {
	dir := t.TempDir()
	path := writeFixture(t, dir, 2)
	outDir := filepath.Join(dir, "out")
	cfgPath := filepath.Join(dir, "vadecode.yaml")
	yaml := "backend: nullaccel\ntimeline: false\noutput_dir: " + outDir + "\n"
	if err := os.WriteFile(cfgPath, []byte(yaml), 0644); err != nil {
		t.Fatal(err)
	}

	err := newApp(&bytes.Buffer{}).Run([]string{"vadecode", "decode", "-Q", "--config", cfgPath, path})
	if err != nil {
		t.Fatalf("decode failed: %v", err)
	}
	if _, err := os.Stat(filepath.Join(outDir, "clip.stats.json")); err != nil {
		t.Errorf("stats file missing: %v", err)
	}
	if _, err := os.Stat(filepath.Join(outDir, "clip.timeline.png")); !os.IsNotExist(err) {
		t.Errorf("timeline written although disabled: %v", err)
	}
}

func TestProbeCommand(t *testing.T) {
	dir := t.TempDir()
	path := writeFixture(t, dir, 1)

	var out bytes.Buffer
	if err := newApp(&out).Run([]string{"vadecode", "probe", "--json", path}); err != nil {
		t.Fatalf("probe failed: %v", err)
	}
	for _, want := range []string{`"codec": "h264"`, `"sample_entry": "avc1"`, `"width": 128`} {
		if !strings.Contains(out.String(), want) {
			t.Errorf("probe output missing %s:\n%s", want, out.String())
		}
	}
}

func TestProbeCommand_MissingFile(t *testing.T) {
	var out bytes.Buffer
	err := newApp(&out).Run([]string{"vadecode", "probe", filepath.Join(t.TempDir(), "missing.mp4")})
	if err == nil {
		t.Fatal("expected error for missing file")
	}
	if !strings.Contains(out.String(), "missing.mp4") {
		t.Errorf("table should still list the file:\n%s", out.String())
	}
}

func TestDevicesCommand_NullBackend(t *testing.T) {
	var out bytes.Buffer
	if err := newApp(&out).Run([]string{"vadecode", "devices", "-Q", "-b", "nullaccel"}); err != nil {
		t.Fatalf("devices failed: %v", err)
	}
	for _, want := range []string{"vah264dec", "vah265dec", "vaav1dec", "null0"} {
		if !strings.Contains(out.String(), want) {
			t.Errorf("devices output missing %s:\n%s", want, out.String())
		}
	}
}

func TestDecodeCommand_Summary(t *testing.T) {
	dir := t.TempDir()
	path := writeFixture(t, dir, 3)
	summaryPath := filepath.Join(dir, "reports", "summary.md")

	err := newApp(&bytes.Buffer{}).Run([]string{"vadecode", "decode", "-Q", "-b", "nullaccel", "--summary", summaryPath, path})
	if err != nil {
		t.Fatalf("decode failed: %v", err)
	}

	data, err := os.ReadFile(summaryPath)
	if err != nil {
		t.Fatalf("summary missing: %v", err)
	}
	for _, want := range []string{"clip.mp4", "vah264dec", "nullaccel", "null0"} {
		if !strings.Contains(string(data), want) {
			t.Errorf("summary missing %s:\n%s", want, data)
		}
	}
}
