package vadecode

import (
	"errors"
	"fmt"
	"slices"

	"github.com/user/vadecode/pkg/ports"
)

// Caps is the profile-scoped capability set of an open session.
type Caps struct {
	Profile   ports.Profile
	RTFormat  ports.RTFormat
	Formats   []string
	MinWidth  int
	MinHeight int
	MaxWidth  int
	MaxHeight int
}

// Supports reports whether a coded size fits the limits.
func (c Caps) Supports(width, height int) bool {
	if width < c.MinWidth || height < c.MinHeight {
		return false
	}
	if c.MaxWidth > 0 && width > c.MaxWidth {
		return false
	}
	if c.MaxHeight > 0 && height > c.MaxHeight {
		return false
	}
	return true
}

// Session owns one accelerator config and context. Profile, RT format and
// coded size are fixed for the lifetime of a context; changing any of them
// takes Close followed by Open and SetFrameSize.
//
// A Session is not safe for concurrent use.
type Session struct {
	accel  ports.Accelerator
	logger ports.Logger
	debug  ports.DebugSink

	profile     ports.Profile
	rtFormat    ports.RTFormat
	codedWidth  int
	codedHeight int

	// contextWidth and contextHeight stay at the creation size when the
	// coded size is updated in place.
	contextWidth  int
	contextHeight int
	config        ports.ConfigID
	context       ports.ContextID

	profiles []ports.Profile
	caps     *Caps
}

// NewSession creates a closed session on an accelerator.
func NewSession(accel ports.Accelerator, logger ports.Logger) *Session {
	return &Session{
		accel:   accel,
		logger:  logger.WithComponent("session"),
		profile: ports.ProfileNone,
		config:  ports.InvalidID,
		context: ports.InvalidID,
	}
}

// SetDebugSink makes every created buffer visible to a debug sink.
func (s *Session) SetDebugSink(sink ports.DebugSink) {
	s.debug = sink
}

// Accelerator returns the underlying accelerator.
func (s *Session) Accelerator() ports.Accelerator { return s.accel }

// IsOpen reports whether a config exists for a valid profile.
func (s *Session) IsOpen() bool {
	return s.config != ports.InvalidID && s.profile != ports.ProfileNone
}

// HasContext reports whether a decode context exists.
func (s *Session) HasContext() bool {
	return s.context != ports.InvalidID
}

// Profile returns the open profile, or ProfileNone.
func (s *Session) Profile() ports.Profile { return s.profile }

// RTFormat returns the open RT format, or 0.
func (s *Session) RTFormat() ports.RTFormat { return s.rtFormat }

// CodedSize returns the coded size recorded for the context.
func (s *Session) CodedSize() (width, height int) { return s.codedWidth, s.codedHeight }

// ContextSize returns the size the context was created with, or zero without one.
func (s *Session) ContextSize() (width, height int) { return s.contextWidth, s.contextHeight }

// Profiles returns the profiles the accelerator advertises. The list is
// queried once and cached.
func (s *Session) Profiles() ([]ports.Profile, error) {
	if s.profiles != nil {
		return s.profiles, nil
	}
	profiles, err := s.accel.QueryProfiles()
	if err != nil {
		return nil, &DriverError{Op: "query profiles", Err: err}
	}
	s.profiles = profiles
	return profiles, nil
}

// HasProfile reports whether the accelerator advertises a profile.
func (s *Session) HasProfile(profile ports.Profile) bool {
	profiles, err := s.Profiles()
	if err != nil {
		s.logger.Warn("Failed to query profiles: %s", err)
		return false
	}
	return slices.Contains(profiles, profile)
}

// Open creates the decode config. It is a no-op when the session is already open.
func (s *Session) Open(profile ports.Profile, rtFormat ports.RTFormat) error {
	if s.IsOpen() {
		return nil
	}
	if !s.HasProfile(profile) {
		return &SessionError{Op: "open", Err: fmt.Errorf("%w: %s", ErrUnsupportedProfile, profile)}
	}

	config, err := s.accel.CreateConfig(profile, ports.EntrypointVLD, rtFormat)
	if err != nil {
		return &SessionError{Op: "open", Err: &DriverError{Op: "create config", Err: err}}
	}

	s.config = config
	s.profile = profile
	s.rtFormat = rtFormat
	s.caps = nil

	s.logger.Info("Opened %s session (%s)", profile, rtFormat)
	return nil
}

// Close destroys the context and the config. Local state is reset even when
// a destroy call fails, so the session can be opened again.
func (s *Session) Close() error {
	if !s.IsOpen() {
		return nil
	}

	var errs []error
	if s.context != ports.InvalidID {
		if err := s.accel.DestroyContext(s.context); err != nil {
			s.logger.Error("Failed to destroy context: %s", err)
			errs = append(errs, &DriverError{Op: "destroy context", Err: err})
		}
	}
	if err := s.accel.DestroyConfig(s.config); err != nil {
		s.logger.Error("Failed to destroy config: %s", err)
		errs = append(errs, &DriverError{Op: "destroy config", Err: err})
	}

	s.logger.Debug("Closed %s session", s.profile)
	s.reset()

	if len(errs) > 0 {
		return &SessionError{Op: "close", Err: errors.Join(errs...)}
	}
	return nil
}

func (s *Session) reset() {
	s.config = ports.InvalidID
	s.context = ports.InvalidID
	s.profile = ports.ProfileNone
	s.rtFormat = 0
	s.codedWidth = 0
	s.codedHeight = 0
	s.contextWidth = 0
	s.contextHeight = 0
	s.caps = nil
}

// SetFrameSize creates the decode context. See SetFrameSizeWithSurfaces.
func (s *Session) SetFrameSize(width, height int) error {
	return s.SetFrameSizeWithSurfaces(width, height, nil)
}

// SetFrameSizeWithSurfaces creates the decode context, bound to surfaces when
// the pool is static. Once a context exists the call changes nothing.
func (s *Session) SetFrameSizeWithSurfaces(width, height int, surfaces []ports.SurfaceID) error {
	if !s.IsOpen() {
		return &SessionError{Op: "set frame size", Err: ErrNotOpen}
	}
	if s.context != ports.InvalidID {
		s.logger.Warn("Session already has a context, keeping %dx%d", s.codedWidth, s.codedHeight)
		return nil
	}

	context, err := s.accel.CreateContext(s.config, width, height, surfaces)
	if err != nil {
		return &SessionError{Op: "set frame size", Err: &DriverError{Op: "create context", Err: err}}
	}

	s.context = context
	s.codedWidth = width
	s.codedHeight = height
	s.contextWidth = width
	s.contextHeight = height

	s.logger.Info("Created %dx%d context with %d bound surfaces", width, height, len(surfaces))
	return nil
}

// UpdateFrameSize records a new coded size without touching the context.
// Only codecs whose resolution may change inside one context use it.
func (s *Session) UpdateFrameSize(width, height int) error {
	if !s.IsOpen() {
		return &SessionError{Op: "update frame size", Err: ErrNotOpen}
	}
	if s.context == ports.InvalidID {
		return &SessionError{Op: "update frame size", Err: ErrNoContext}
	}
	s.codedWidth = width
	s.codedHeight = height
	return nil
}

// ConfigIsEqual reports whether the session is open with exactly this
// profile, RT format and coded size.
func (s *Session) ConfigIsEqual(profile ports.Profile, rtFormat ports.RTFormat, width, height int) bool {
	return s.IsOpen() &&
		s.profile == profile &&
		s.rtFormat == rtFormat &&
		s.codedWidth == width &&
		s.codedHeight == height
}

// SurfaceCaps returns the surface formats and size limits of the open config.
// The result is cached until the next Open.
func (s *Session) SurfaceCaps() (Caps, error) {
	if !s.IsOpen() {
		return Caps{}, ErrNotOpen
	}
	if s.caps != nil {
		return *s.caps, nil
	}
	attrs, err := s.accel.QuerySurfaceAttributes(s.config)
	if err != nil {
		return Caps{}, &DriverError{Op: "query surface attributes", Err: err}
	}
	s.caps = &Caps{
		Profile:   s.profile,
		RTFormat:  s.rtFormat,
		Formats:   attrs.Formats,
		MinWidth:  attrs.MinWidth,
		MinHeight: attrs.MinHeight,
		MaxWidth:  attrs.MaxWidth,
		MaxHeight: attrs.MaxHeight,
	}
	return *s.caps, nil
}

// Submit runs the picture protocol against the picture's own surface.
func (s *Session) Submit(pic *Picture) error {
	return s.SubmitWithAux(pic, false)
}

// SubmitWithAux runs BeginPicture, RenderPicture for the parameter buffers,
// RenderPicture for the slice buffers and EndPicture. When useAux is set the
// picture is decoded into its auxiliary surface.
//
// EndPicture runs even when an earlier step fails, and the picture's buffers
// are destroyed whatever the outcome.
func (s *Session) SubmitWithAux(pic *Picture, useAux bool) error {
	defer pic.destroyBuffers()

	if s.context == ports.InvalidID {
		return ErrNoContext
	}

	target := pic.SurfaceID()
	if useAux {
		target = pic.AuxSurfaceID()
	}
	if target == ports.InvalidSurface {
		return errors.New("vadecode: picture has no target surface")
	}

	s.logger.Debug("Submitting frame %d to surface %d: %d parameter, %d slice buffers",
		pic.frameID, target, len(pic.params), len(pic.slices))

	if err := s.accel.BeginPicture(s.context, target); err != nil {
		return s.endAfterFailure("begin picture", err)
	}
	if len(pic.params) > 0 {
		if err := s.accel.RenderPicture(s.context, pic.params); err != nil {
			return s.endAfterFailure("render parameters", err)
		}
	}
	if len(pic.slices) > 0 {
		if err := s.accel.RenderPicture(s.context, pic.slices); err != nil {
			return s.endAfterFailure("render slices", err)
		}
	}
	if err := s.accel.EndPicture(s.context); err != nil {
		return &DriverError{Op: "end picture", Err: err}
	}
	return nil
}

// endAfterFailure balances a BeginPicture that may or may not have succeeded.
func (s *Session) endAfterFailure(op string, cause error) error {
	if err := s.accel.EndPicture(s.context); err != nil {
		s.logger.Warn("EndPicture after failed %s also failed: %s", op, err)
	}
	return &DriverError{Op: op, Err: cause}
}

func (s *Session) createBuffer(frameID uint64, index int, kind ports.BufferType, data []byte, count int) (ports.BufferID, error) {
	if s.context == ports.InvalidID {
		return ports.InvalidID, ErrNoContext
	}
	id, err := s.accel.CreateBuffer(s.context, kind, data, count)
	if err != nil {
		return ports.InvalidID, &DriverError{Op: "create " + kind.String() + " buffer", Err: err}
	}
	if s.debug != nil && s.debug.Enabled() {
		if err := s.debug.SaveBuffer(frameID, index, kind, data); err != nil {
			s.logger.Debug("Failed to save debug buffer: %s", err)
		}
	}
	return id, nil
}

func (s *Session) destroyBuffer(id ports.BufferID) {
	if err := s.accel.DestroyBuffer(id); err != nil {
		s.logger.Warn("Failed to destroy buffer %d: %s", id, err)
	}
}
