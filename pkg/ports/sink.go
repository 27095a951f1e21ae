package ports

// DebugSink abstracts debug output for intermediate decode results.
// It allows saving the exact buffers handed to the accelerator.
type DebugSink interface {
	// Enabled returns true if debug output is enabled.
	Enabled() bool

	// SaveBuffer saves one accelerator buffer created for a picture.
	SaveBuffer(frameID uint64, index int, kind BufferType, data []byte) error

	// SaveSummaryJSON saves a per-stream decode summary.
	SaveSummaryJSON(name string, data []byte) error
}
