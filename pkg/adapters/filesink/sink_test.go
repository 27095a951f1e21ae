package filesink

import (
	"errors"
	"path/filepath"
	"testing"

	"github.com/user/vadecode/pkg/mocks"
	"github.com/user/vadecode/pkg/ports"
)

// testBaseDir is a platform-independent base directory for tests
var testBaseDir = filepath.Join("debug")

func TestSink_Enabled(t *testing.T) {
	sink := New(testBaseDir, mocks.NewFileSystem())

	if !sink.Enabled() {
		t.Error("expected Enabled to return true")
	}
}

func TestSink_SaveBuffer(t *testing.T) {
	fs := mocks.NewFileSystem()
	sink := New(testBaseDir, fs)

	data := []byte{0x01, 0x02, 0x03}
	if err := sink.SaveBuffer(42, 1, ports.BufferSliceData, data); err != nil {
		t.Fatalf("SaveBuffer failed: %v", err)
	}

	expectedPath := filepath.Join(testBaseDir, "frames", "frame-000042", "01-slice-data.bin")
	saved, ok := fs.GetFile(expectedPath)
	if !ok {
		t.Fatalf("expected file to be saved at %s", expectedPath)
	}
	if string(saved) != string(data) {
		t.Errorf("expected %v, got %v", data, saved)
	}
}

func TestSink_BufferPath(t *testing.T) {
	sink := New(testBaseDir, mocks.NewFileSystem())

	got := sink.BufferPath(7, 0, ports.BufferPictureParameter)
	want := filepath.Join(testBaseDir, "frames", "frame-000007", "00-picture-parameter.bin")
	if got != want {
		t.Errorf("expected %s, got %s", want, got)
	}
}

func TestSink_CreatesFrameDirOnce(t *testing.T) {
	fs := mocks.NewFileSystem()
	calls := 0
	fs.MkdirAllFunc = func(path string) error {
		calls++
		return nil
	}
	sink := New(testBaseDir, fs)

	for i := 0; i < 3; i++ {
		if err := sink.SaveBuffer(1, i, ports.BufferSliceParameter, []byte{byte(i)}); err != nil {
			t.Fatalf("SaveBuffer failed: %v", err)
		}
	}
	if err := sink.SaveBuffer(2, 0, ports.BufferSliceParameter, nil); err != nil {
		t.Fatalf("SaveBuffer failed: %v", err)
	}

	if calls != 2 {
		t.Errorf("expected 2 MkdirAll calls, got %d", calls)
	}
	if n := len(fs.GetAllFiles()); n != 4 {
		t.Errorf("expected 4 files, got %d", n)
	}
}

func TestSink_MkdirError(t *testing.T) {
	fs := mocks.NewFileSystem()
	fs.MkdirAllFunc = func(path string) error { return errors.New("read-only") }
	sink := New(testBaseDir, fs)

	if err := sink.SaveBuffer(1, 0, ports.BufferSliceData, []byte{0}); err == nil {
		t.Error("expected error when directory cannot be created")
	}
	if len(fs.GetAllFiles()) != 0 {
		t.Error("expected no files to be written")
	}
}

func TestSink_SaveSummaryJSON(t *testing.T) {
	fs := mocks.NewFileSystem()
	sink := New(testBaseDir, fs)

	data := []byte(`{"decoded": 3}`)
	if err := sink.SaveSummaryJSON("clip", data); err != nil {
		t.Fatalf("SaveSummaryJSON failed: %v", err)
	}

	expectedPath := filepath.Join(testBaseDir, "clip.json")
	saved, ok := fs.GetFile(expectedPath)
	if !ok {
		t.Fatalf("expected file to be saved at %s", expectedPath)
	}
	if string(saved) != string(data) {
		t.Errorf("expected %q, got %q", data, saved)
	}
}
