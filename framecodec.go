package mucab

import "io"

// frameSize is the uncompressed size of each frame written to the data
// segment (spec §4.1: "fixed uncompressed frame size (128 KiB
// recommended)"). A frameWriter buffers its input and emits one frame per
// frameSize bytes; the last frame, flushed by Close, may be shorter.
const frameSize = 128 * 1024

// frameWriter is the write side of the opaque, seekable, frame-based
// compressor wrapping the MUCA data segment (spec §4.1, §6). The
// compiler never talks to the concrete compression library directly —
// only to this interface — so the codec can be swapped without touching
// compiler.go.
type frameWriter interface {
	io.Writer
	io.Closer
}

// frameReader is the read side: a decompressed view over the data
// segment that can be sought to an arbitrary decompressed byte offset,
// as required by the loader's entries_for/read_reading operations
// (spec §4.2, §5).
type frameReader interface {
	io.Reader
	io.Seeker
	io.Closer
}

// FrameCodecOption configures the frame codec ahead of streaming the data
// segment (spec §4.1: "Compression level is a build parameter"). Level
// follows zstd's own convention: higher is slower and smaller; zero
// selects the codec's built-in default.
type FrameCodecOption func(*frameCodecConfig)

type frameCodecConfig struct {
	level int
}

// WithFrameCompressionLevel overrides the zstd compression level used
// when streaming the data segment.
func WithFrameCompressionLevel(level int) FrameCodecOption {
	return func(c *frameCodecConfig) { c.level = level }
}

// newFrameWriter returns a frameWriter that writes its input to w as a
// sequence of checksum-free, frameSize-uncompressed-byte zstd frames.
func newFrameWriter(w io.Writer, opts ...FrameCodecOption) (frameWriter, error) {
	var cfg frameCodecConfig
	for _, opt := range opts {
		opt(&cfg)
	}
	return newZstdSeekableWriter(w, cfg)
}

// newFrameReader returns a frameReader over a compressed segment that
// occupies rs from offset 0 to its end; Open passes a subOffsetSeeker
// rebased to the segment's start in the MUCA file.
func newFrameReader(rs io.ReadSeeker) (frameReader, error) {
	return newZstdSeekableReader(rs)
}
