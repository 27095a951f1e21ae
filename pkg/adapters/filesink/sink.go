// Package filesink provides a file-based debug sink implementation.
package filesink

import (
	"fmt"
	"path/filepath"
	"sync"

	"github.com/user/vadecode/pkg/ports"
)

// Sink saves every accelerator buffer and the stream summaries under a base
// directory:
//
//	<base>/frames/frame-000042/00-picture-parameter.bin
//	<base>/<name>.json
type Sink struct {
	baseDir string
	fs      ports.FileSystem

	mu   sync.Mutex
	dirs map[string]bool
}

// New creates a new FileSink.
func New(baseDir string, fs ports.FileSystem) *Sink {
	return &Sink{
		baseDir: baseDir,
		fs:      fs,
		dirs:    make(map[string]bool),
	}
}

// Enabled returns true as this sink saves output.
func (s *Sink) Enabled() bool {
	return true
}

// BufferPath returns the path SaveBuffer writes a buffer to.
func (s *Sink) BufferPath(frameID uint64, index int, kind ports.BufferType) string {
	name := fmt.Sprintf("%02d-%s.bin", index, kind)
	return filepath.Join(s.frameDir(frameID), name)
}

func (s *Sink) frameDir(frameID uint64) string {
	return filepath.Join(s.baseDir, "frames", fmt.Sprintf("frame-%06d", frameID))
}

func (s *Sink) mkdir(dir string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.dirs[dir] {
		return nil
	}
	if err := s.fs.MkdirAll(dir); err != nil {
		return err
	}
	s.dirs[dir] = true
	return nil
}

// SaveBuffer saves one buffer of a picture.
func (s *Sink) SaveBuffer(frameID uint64, index int, kind ports.BufferType, data []byte) error {
	if err := s.mkdir(s.frameDir(frameID)); err != nil {
		return err
	}
	return s.fs.WriteFile(s.BufferPath(frameID, index, kind), data)
}

// SaveSummaryJSON saves a stream summary as <name>.json.
func (s *Sink) SaveSummaryJSON(name string, data []byte) error {
	if err := s.mkdir(s.baseDir); err != nil {
		return err
	}
	return s.fs.WriteFile(filepath.Join(s.baseDir, name+".json"), data)
}

// Ensure Sink implements ports.DebugSink
var _ ports.DebugSink = (*Sink)(nil)
