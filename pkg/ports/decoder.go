package ports

// OutputFormat is what the decoder negotiates with its downstream consumer.
type OutputFormat struct {
	Codec         Codec
	Profile       Profile
	RTFormat      RTFormat
	FourCC        string
	CodedWidth    int
	CodedHeight   int
	DisplayWidth  int
	DisplayHeight int
	CropX         int
	CropY         int
	Interlaced    bool
	// MinBuffers is the number of surfaces the decoder keeps as references.
	MinBuffers int
}

// SurfaceRef is a counted reference to a decoded surface held by a consumer.
// The surface returns to its pool after the last Release.
type SurfaceRef interface {
	ID() SurfaceID
	Release()
}

// OutputFrame is a finished picture handed to the consumer.
type OutputFrame struct {
	FrameID     uint64
	TimestampMs int
	Duration    int
	Surface     SurfaceRef
	// DecodeIndex and OutputIndex are positions in decode and output order.
	DecodeIndex int
	OutputIndex int
	// Duplicate marks a redisplay of an already decoded surface.
	Duplicate bool
}

// FrameSink abstracts the downstream consumer of decoded pictures.
type FrameSink interface {
	// Negotiate is called before the first picture of a new output format is allocated.
	Negotiate(format OutputFormat) error

	// PushFrame hands one finished picture to the consumer. The consumer owns
	// frame.Surface and must release it.
	PushFrame(frame OutputFrame) error
}
