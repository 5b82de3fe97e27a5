package mucab

import (
	"io"

	"github.com/SaveTheRbtz/zstd-seekable-format-go/pkg/seekable"
	"github.com/klauspost/compress/zstd"
)

// zstdSeekableWriter implements frameWriter by chunking its input into
// frameSize-byte pieces and issuing one seekable.Writer.Write call per
// piece; in the seekable zstd format, each Write call becomes its own
// independently-decompressible frame, which is how this package gets
// the "fixed uncompressed frame size" behavior spec.md §4.1 asks for.
type zstdSeekableWriter struct {
	enc *zstd.Encoder
	w   seekable.Writer
	buf []byte
	n   int
}

func newZstdSeekableWriter(w io.Writer, cfg frameCodecConfig) (frameWriter, error) {
	level := zstd.SpeedDefault
	if cfg.level != 0 {
		level = zstd.EncoderLevelFromZstd(cfg.level)
	}
	enc, err := zstd.NewWriter(nil,
		zstd.WithEncoderLevel(level),
		zstd.WithEncoderCRC(false),
	)
	if err != nil {
		return nil, err
	}
	sw, err := seekable.NewWriter(w, enc)
	if err != nil {
		enc.Close()
		return nil, err
	}
	return &zstdSeekableWriter{enc: enc, w: sw, buf: make([]byte, frameSize)}, nil
}

func (z *zstdSeekableWriter) Write(p []byte) (int, error) {
	written := 0
	for len(p) > 0 {
		n := copy(z.buf[z.n:], p)
		z.n += n
		p = p[n:]
		written += n
		if z.n == frameSize {
			if _, err := z.w.Write(z.buf[:z.n]); err != nil {
				return written, err
			}
			z.n = 0
		}
	}
	return written, nil
}

func (z *zstdSeekableWriter) Close() error {
	if z.n > 0 {
		if _, err := z.w.Write(z.buf[:z.n]); err != nil {
			return err
		}
		z.n = 0
	}
	if err := z.w.Close(); err != nil {
		return err
	}
	z.enc.Close()
	return nil
}

// zstdSeekableReader implements frameReader over a decompressed view of
// an already-open, seekable compressed stream.
type zstdSeekableReader struct {
	dec *zstd.Decoder
	r   seekable.Reader
}

func newZstdSeekableReader(rs io.ReadSeeker) (frameReader, error) {
	dec, err := zstd.NewReader(nil)
	if err != nil {
		return nil, err
	}
	sr, err := seekable.NewReader(rs, dec)
	if err != nil {
		dec.Close()
		return nil, err
	}
	return &zstdSeekableReader{dec: dec, r: sr}, nil
}

func (z *zstdSeekableReader) Read(p []byte) (int, error) { return z.r.Read(p) }

func (z *zstdSeekableReader) Seek(offset int64, whence int) (int64, error) {
	return z.r.Seek(offset, whence)
}

func (z *zstdSeekableReader) Close() error {
	err := z.r.Close()
	z.dec.Close()
	return err
}
