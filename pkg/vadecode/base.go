package vadecode

import (
	"errors"
	"fmt"

	"github.com/user/vadecode/pkg/ports"
)

// Options configures the parts of Base every codec shares.
type Options struct {
	// Policy applies when a reference picture is absent.
	Policy MissingRefPolicy
	// StaticPool binds the pool's surfaces to the context at creation.
	StaticPool bool
	// ExtraSurfaces are allocated on top of the stream's minimum.
	ExtraSurfaces int
	// Debug receives every buffer handed to the accelerator, if set.
	Debug ports.DebugSink
}

// DefaultExtraSurfaces covers the pictures held by the consumer.
const DefaultExtraSurfaces = 4

// Base holds the state every codec driver shares: the session, the surface
// pool, the picture store and output negotiation. Codec drivers own one.
type Base struct {
	codec   ports.Codec
	session *Session
	sink    ports.FrameSink
	logger  ports.Logger
	opts    Options

	pool  *SurfacePool
	store *PictureStore

	target          OutputInfo
	current         OutputInfo
	configured      bool
	needNegotiation bool
}

// NewBase creates the shared driver state on an accelerator.
func NewBase(codec ports.Codec, accel ports.Accelerator, sink ports.FrameSink, logger ports.Logger, opts Options) *Base {
	log := logger.WithComponent(string(codec))
	session := NewSession(accel, log)
	if opts.Debug != nil {
		session.SetDebugSink(opts.Debug)
	}
	return &Base{
		codec:   codec,
		session: session,
		sink:    sink,
		logger:  log,
		opts:    opts,
		store:   NewPictureStore(),
	}
}

// Codec returns the codec the driver decodes.
func (b *Base) Codec() ports.Codec { return b.codec }

// Session returns the decode session.
func (b *Base) Session() *Session { return b.session }

// Store returns the decoded picture store.
func (b *Base) Store() *PictureStore { return b.store }

// Logger returns the codec-scoped logger.
func (b *Base) Logger() ports.Logger { return b.logger }

// Policy returns the missing-reference policy.
func (b *Base) Policy() MissingRefPolicy { return b.opts.Policy }

// Pool returns the current surface pool, or nil before negotiation.
func (b *Base) Pool() *SurfacePool { return b.pool }

// Target returns the configuration requested by the last sequence header.
func (b *Base) Target() OutputInfo { return b.target }

// NeedsNegotiation reports whether the next picture triggers negotiation.
func (b *Base) NeedsNegotiation() bool { return b.needNegotiation }

// Configure records the configuration of a new sequence. It never reopens the
// session; that happens in Negotiate, on the next picture, so pictures of the
// previous configuration can finish first. The latest sequence always replaces
// the pending one. It reports whether negotiation is now pending.
func (b *Base) Configure(out OutputInfo) bool {
	formatChanged := !b.session.ConfigIsEqual(out.Profile, out.RTFormat, out.Width, out.Height)
	if formatChanged && (!b.configured || out.Format != b.target.Format) {
		b.logger.Info("Format changed to %s", out.Format)
	}

	b.target = out
	b.configured = true
	b.needNegotiation = formatChanged || b.pool == nil || !out.outputEqual(b.current)
	return b.needNegotiation
}

// ResizeInPlace changes the coded size inside the existing context. A frame
// that fits the context keeps the session and its surfaces; only the consumer
// is renegotiated. A larger frame reopens the session on the next picture.
func (b *Base) ResizeInPlace(width, height int) error {
	if !b.session.HasContext() {
		return ErrNoContext
	}
	if cw, ch := b.session.ContextSize(); width > cw || height > ch {
		b.logger.Info("Resolution %dx%d exceeds the %dx%d context", width, height, cw, ch)
	} else {
		if err := b.session.UpdateFrameSize(width, height); err != nil {
			return err
		}
		b.logger.Info("Resolution changed in place to %dx%d", width, height)
	}
	b.target.Width = width
	b.target.Height = height
	b.target.DisplayWidth = width
	b.target.DisplayHeight = height
	b.needNegotiation = true
	return nil
}

// surfaceSize is the size of pool surfaces: the context's once one exists, so
// frames resized in place decode into surfaces the context accepts.
func (b *Base) surfaceSize(t OutputInfo) (width, height int) {
	if w, h := b.session.ContextSize(); w > 0 && h > 0 {
		return w, h
	}
	return t.Width, t.Height
}

func (b *Base) poolSize() int {
	extra := b.opts.ExtraSurfaces
	if extra <= 0 {
		extra = DefaultExtraSurfaces
	}
	return b.target.MinBuffers + extra
}

// Negotiate reopens the session if the target configuration differs from the
// open one, recreates the surface pool if needed and tells the consumer.
func (b *Base) Negotiate() error {
	if !b.configured {
		return ErrNoSequence
	}
	t := b.target

	reopen := !b.session.ConfigIsEqual(t.Profile, t.RTFormat, t.Width, t.Height)
	if !reopen && b.opts.StaticPool && (b.pool == nil || b.pool.Size() < b.poolSize()) {
		// a static pool is bound to the context; growing it takes a new context
		reopen = true
	}

	if reopen {
		if err := b.reopen(t); err != nil {
			return err
		}
	} else if w, h := b.surfaceSize(t); b.pool == nil || !b.pool.Fits(t.RTFormat, w, h) || b.pool.Size() < b.poolSize() {
		if err := b.replacePool(t); err != nil {
			return err
		}
	}

	width, height := t.display()
	format := ports.OutputFormat{
		Codec:         b.codec,
		Profile:       t.Profile,
		RTFormat:      t.RTFormat,
		FourCC:        t.RTFormat.FourCC(),
		CodedWidth:    t.Width,
		CodedHeight:   t.Height,
		DisplayWidth:  width,
		DisplayHeight: height,
		CropX:         t.CropX,
		CropY:         t.CropY,
		Interlaced:    t.Interlaced,
		MinBuffers:    t.MinBuffers,
	}
	if err := b.sink.Negotiate(format); err != nil {
		return &SessionError{Op: "negotiate output", Err: err}
	}

	b.current = t
	b.needNegotiation = false
	b.logger.Info("Negotiated %s output %dx%d", format.FourCC, width, height)
	return nil
}

func (b *Base) reopen(t OutputInfo) error {
	if b.session.IsOpen() {
		if err := b.session.Close(); err != nil {
			return err
		}
	}
	if err := b.session.Open(t.Profile, t.RTFormat); err != nil {
		return err
	}

	if caps, err := b.session.SurfaceCaps(); err == nil && !caps.Supports(t.Width, t.Height) {
		return &SessionError{Op: "open", Err: fmt.Errorf("coded size %dx%d outside %dx%d..%dx%d",
			t.Width, t.Height, caps.MinWidth, caps.MinHeight, caps.MaxWidth, caps.MaxHeight)}
	}

	if err := b.replacePool(t); err != nil {
		return err
	}

	var surfaces []ports.SurfaceID
	if b.opts.StaticPool {
		surfaces = b.pool.IDs()
	}
	return b.session.SetFrameSizeWithSurfaces(t.Width, t.Height, surfaces)
}

func (b *Base) replacePool(t OutputInfo) error {
	if b.pool != nil {
		if err := b.pool.Destroy(); err != nil {
			b.logger.Warn("Failed to destroy surface pool: %s", err)
		}
		b.pool = nil
	}
	width, height := b.surfaceSize(t)
	pool, err := NewSurfacePool(b.session.Accelerator(), t.RTFormat, width, height, b.poolSize())
	if err != nil {
		return &SessionError{Op: "create surface pool", Err: err}
	}
	b.pool = pool
	b.logger.Debug("Allocated %d surfaces of %dx%d", pool.Size(), width, height)
	return nil
}

// AllocatePicture negotiates if a new configuration is pending, then binds a
// fresh surface to a new picture.
func (b *Base) AllocatePicture(frameID uint64) (*Picture, error) {
	if b.needNegotiation {
		if err := b.Negotiate(); err != nil {
			return nil, err
		}
	}
	if b.pool == nil {
		return nil, ErrNoSequence
	}
	surface, err := b.pool.Acquire()
	if err != nil {
		return nil, err
	}
	return NewPicture(b.session, surface, frameID), nil
}

// AllocateAuxSurface acquires an extra surface from the pool.
func (b *Base) AllocateAuxSurface() (*Surface, error) {
	if b.pool == nil {
		return nil, ErrNoSequence
	}
	return b.pool.Acquire()
}

// DuplicatePicture shares the surface of the stored picture ref for a new frame.
func (b *Base) DuplicatePicture(ref FrameRef, frameID uint64) (*Picture, error) {
	if !ref.Valid {
		return nil, fmt.Errorf("duplicate of frame %d: %w", frameID, ErrMissingReference)
	}
	src, ok := b.store.Lookup(ref.ID)
	if !ok {
		return nil, fmt.Errorf("duplicate of frame %d: %w", ref.ID, ErrMissingReference)
	}
	return src.Duplicate(frameID), nil
}

// Submit hands the picture's buffers to the accelerator.
func (b *Base) Submit(pic *Picture) error {
	return b.session.Submit(pic)
}

// SubmitWithAux decodes into the picture's auxiliary surface when useAux is set.
func (b *Base) SubmitWithAux(pic *Picture, useAux bool) error {
	return b.session.SubmitWithAux(pic, useAux)
}

// Output hands a stored picture's surface to the consumer, which takes its own
// surface reference. The reference is dropped again if the consumer refuses it.
func (b *Base) Output(e *storedPicture, outputIndex int) error {
	pic := e.pic
	if pic.Surface() == nil {
		return fmt.Errorf("output frame %d: picture already freed", e.frame.ID)
	}
	handle := pic.Surface().Handle()
	err := b.sink.PushFrame(ports.OutputFrame{
		FrameID:     e.frame.ID,
		TimestampMs: e.frame.TimestampMs,
		Duration:    e.frame.DurationMs,
		Surface:     handle,
		DecodeIndex: e.decodeIndex,
		OutputIndex: outputIndex,
		Duplicate:   pic.IsDuplicate(),
	})
	if err != nil {
		handle.Release()
		return fmt.Errorf("push frame %d: %w", e.frame.ID, err)
	}
	return nil
}

// Close frees every stored picture, the surface pool and the session.
func (b *Base) Close() error {
	b.store.Clear()
	var errs []error
	if b.pool != nil {
		if err := b.pool.Destroy(); err != nil {
			errs = append(errs, err)
		}
		b.pool = nil
	}
	if err := b.session.Close(); err != nil {
		errs = append(errs, err)
	}
	b.configured = false
	b.needNegotiation = false
	return errors.Join(errs...)
}

// Reset closes everything and requires the next sequence header to start over.
func (b *Base) Reset() error {
	err := b.Close()
	b.target = OutputInfo{}
	b.current = OutputInfo{}
	return err
}
