package vadecode

import (
	"context"
	"fmt"
)

// Frame is the upstream metadata of one coded unit. Output and Release carry
// the decisions of the codec's DPB logic, which lives in the parser: the ids
// to hand to the consumer after this unit, in display order, and the ids no
// longer needed as references.
type Frame struct {
	ID          uint64
	TimestampMs int
	DurationMs  int
	Output      []uint64
	Release     []uint64
}

// FrameInfo lets codec units embed Frame to satisfy Unit.
func (f *Frame) FrameInfo() *Frame { return f }

// Unit is one coded picture as supplied by the upstream parser.
type Unit interface {
	FrameInfo() *Frame
	// HasSequence reports whether the unit carries a new sequence header.
	HasSequence() bool
	// SliceCount returns the number of slices or tile groups to decode.
	SliceCount() int
}

// Driver is implemented once per codec. The hooks run in order for every unit:
// NewSequence (only when HasSequence), NewPicture, StartPicture, DecodeSlice
// once per slice in bitstream order, then EndPicture, which submits.
//
// NewPicture may return a nil picture for a unit that carries no picture.
type Driver[U Unit] interface {
	Base() *Base
	NewSequence(u U) error
	NewPicture(u U) (*Picture, error)
	StartPicture(pic *Picture, u U) error
	DecodeSlice(pic *Picture, u U, index int) error
	EndPicture(pic *Picture, u U) error
}

// Stats counts what a stream did with its units.
type Stats struct {
	Decoded    int `json:"decoded"`
	Dropped    int `json:"dropped"`
	Duplicated int `json:"duplicated"`
	Output     int `json:"output"`
	Gaps       int `json:"gaps"`
}

// Stream drives a Driver through the picture pipeline for one coded stream.
// Picture-scoped failures drop the picture and return a *PictureError; the
// next unit decodes normally. Session-scoped failures return a *StreamError
// and every later unit fails with ErrStreamFailed until Reset.
//
// A Stream is not safe for concurrent use.
type Stream[U Unit] struct {
	driver Driver[U]
	base   *Base

	failed *StreamError
	stats  Stats
}

// NewStream creates a stream over a codec driver.
func NewStream[U Unit](driver Driver[U]) *Stream[U] {
	return &Stream[U]{driver: driver, base: driver.Base()}
}

// Stats returns the counters accumulated since the stream was created.
func (s *Stream[U]) Stats() Stats { return s.stats }

// Failed returns the error that ended the stream, or nil.
func (s *Stream[U]) Failed() error {
	if s.failed == nil {
		return nil
	}
	return s.failed
}

// Decode runs one unit through the pipeline, stores the decoded picture, then
// outputs and releases the ids the unit lists.
func (s *Stream[U]) Decode(ctx context.Context, u U) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if s.failed != nil {
		return fmt.Errorf("%w: %w", ErrStreamFailed, s.failed)
	}

	frame := u.FrameInfo()
	decodeErr := s.decode(u, frame)
	if IsFatal(decodeErr) {
		return decodeErr
	}

	outputErr := s.outputAndRelease(frame)
	if decodeErr != nil {
		return decodeErr
	}
	return outputErr
}

func (s *Stream[U]) decode(u U, frame *Frame) error {
	if u.HasSequence() {
		if err := s.driver.NewSequence(u); err != nil {
			return s.classify(frame.ID, "new sequence", err)
		}
	}

	pic, err := s.driver.NewPicture(u)
	if err != nil {
		return s.classify(frame.ID, "new picture", err)
	}
	if pic == nil {
		return nil
	}

	if stage, err := s.run(pic, u); err != nil {
		pic.Free()
		return s.classify(frame.ID, stage, err)
	}

	s.base.store.Insert(*frame, pic, s.stats.Decoded)
	s.stats.Decoded++
	if pic.IsDuplicate() {
		s.stats.Duplicated++
	}
	return nil
}

func (s *Stream[U]) run(pic *Picture, u U) (string, error) {
	if err := s.driver.StartPicture(pic, u); err != nil {
		return "start picture", err
	}
	for i := 0; i < u.SliceCount(); i++ {
		if err := s.driver.DecodeSlice(pic, u, i); err != nil {
			return fmt.Sprintf("decode slice %d", i), err
		}
	}
	if err := s.driver.EndPicture(pic, u); err != nil {
		return "end picture", err
	}
	return "", nil
}

func (s *Stream[U]) classify(frameID uint64, stage string, err error) error {
	if isSessionScoped(err) {
		s.failed = &StreamError{FrameID: frameID, Stage: stage, Err: err}
		s.base.logger.Error("Stream failed at frame %d in %s: %s", frameID, stage, err)
		return s.failed
	}
	s.stats.Dropped++
	s.base.logger.Warn("Dropped frame %d in %s: %s", frameID, stage, err)
	return &PictureError{FrameID: frameID, Stage: stage, Err: err}
}

func (s *Stream[U]) outputAndRelease(frame *Frame) error {
	var firstErr error
	for _, id := range frame.Output {
		e, ok := s.base.store.entry(id)
		if !ok {
			s.stats.Gaps++
			s.base.logger.Warn("Frame %d has no decoded picture, leaving a gap", id)
			continue
		}
		if err := s.base.Output(e, s.stats.Output); err != nil {
			if firstErr == nil {
				firstErr = &PictureError{FrameID: id, Stage: "output", Err: err}
			}
			continue
		}
		s.stats.Output++
	}
	s.base.store.Release(frame.Release...)
	return firstErr
}

// Flush frees every stored picture without outputting anything.
func (s *Stream[U]) Flush() {
	if n := s.base.store.Len(); n > 0 {
		s.base.logger.Debug("Flushing %d stored pictures", n)
	}
	s.base.store.Clear()
}

// Reset closes the session and clears the failed state. Decoding resumes at
// the next unit carrying a sequence header.
func (s *Stream[U]) Reset() error {
	s.failed = nil
	return s.base.Reset()
}

// Close flushes the stream and closes the session.
func (s *Stream[U]) Close() error {
	s.Flush()
	return s.base.Close()
}
