package mucab

import (
	"fmt"
	"io"
	"os"
	"sync"
	"unicode/utf8"
)

// subOffsetSeeker rebases Seek(io.SeekStart, ...) calls by a fixed base
// offset so a decoder can treat an arbitrary byte range of an
// already-open file as if it started at position 0. This is the Go
// equivalent of the original implementation's OffsetFile wrapper: the
// compressed data segment is not a separate file, it's a sub-stream of
// the MUCA file starting immediately after the index directory.
type subOffsetSeeker struct {
	rs   io.ReadSeeker
	base int64
}

func newSubOffsetSeeker(rs io.ReadSeeker, base int64) (*subOffsetSeeker, error) {
	if _, err := rs.Seek(base, io.SeekStart); err != nil {
		return nil, err
	}
	return &subOffsetSeeker{rs: rs, base: base}, nil
}

func (s *subOffsetSeeker) Read(p []byte) (int, error) { return s.rs.Read(p) }

func (s *subOffsetSeeker) Seek(offset int64, whence int) (int64, error) {
	switch whence {
	case io.SeekStart:
		abs, err := s.rs.Seek(s.base+offset, io.SeekStart)
		if err != nil {
			return 0, err
		}
		return abs - s.base, nil
	default:
		abs, err := s.rs.Seek(offset, whence)
		if err != nil {
			return 0, err
		}
		return abs - s.base, nil
	}
}

// Dictionary is a loaded MUCA file: the connection matrix and
// first-character index are resident; entries are paged in lazily, one
// first-character group at a time, and kept forever once read (spec
// §5: "the entry cache is append-only; entries once inserted ... for
// the loader's lifetime").
//
// A Dictionary owns its underlying file and decoder for its entire
// lifetime (spec §5) and must be closed with Close when no longer
// needed. It is not safe for concurrent use without external
// synchronization beyond the serialization this type already performs
// internally for its own I/O (spec §5: "an implementation must
// serialize these operations").
type Dictionary struct {
	mu            sync.Mutex
	file          *os.File
	frames        frameReader
	matrix        *Matrix
	index         map[rune]indexEntry
	stringsOffset uint32
	numEntries    int
	cache         map[rune][]DictEntry
}

// NumEntries returns the total number of entries in the dictionary, as
// recorded in the header at compile time.
func (d *Dictionary) NumEntries() int { return d.numEntries }

// MatrixCost returns the bounds-checked bigram connection cost between
// two pos_ids.
func (d *Dictionary) MatrixCost(prev, curr uint16) int16 {
	return d.matrix.Cost(prev, curr)
}

// Open reads and validates a MUCA file's header, matrix, and index
// directory, and prepares a seekable view of the compressed data
// segment for lazy entry/reading reads. Any structural inconsistency
// (bad magic, unsupported version, truncated section) is fatal and
// returned as a *FormatError (spec §4.2, §7).
func Open(path string) (*Dictionary, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("mucab: open %s: %w", path, err)
	}

	hdr, err := readHeader(f)
	if err != nil {
		f.Close()
		return nil, err
	}

	matrix, err := readMatrix(f, int(hdr.S))
	if err != nil {
		f.Close()
		return nil, err
	}

	index, err := readIndexDirectory(f)
	if err != nil {
		f.Close()
		return nil, err
	}

	segmentStart, err := f.Seek(0, io.SeekCurrent)
	if err != nil {
		f.Close()
		return nil, &FormatError{Section: "data segment", Err: err}
	}

	sub, err := newSubOffsetSeeker(f, segmentStart)
	if err != nil {
		f.Close()
		return nil, &FormatError{Section: "data segment", Err: err}
	}

	frames, err := newFrameReader(sub)
	if err != nil {
		f.Close()
		return nil, &FormatError{Section: "data segment", Err: err}
	}

	return &Dictionary{
		file:          f,
		frames:        frames,
		matrix:        matrix,
		index:         index,
		stringsOffset: hdr.StringsOffset,
		numEntries:    int(hdr.EntryCount),
		cache:         make(map[rune][]DictEntry),
	}, nil
}

// Close releases the dictionary's underlying file and decoder.
func (d *Dictionary) Close() error {
	d.mu.Lock()
	defer d.mu.Unlock()
	if err := d.frames.Close(); err != nil {
		d.file.Close()
		return err
	}
	return d.file.Close()
}

// entriesFor returns the entries whose surface begins with c, triggering
// a bulk read from the compressed data segment and populating the
// per-character cache on first call (spec §4.2, §4.3).
func (d *Dictionary) entriesFor(c rune) ([]DictEntry, error) {
	d.mu.Lock()
	defer d.mu.Unlock()

	if cached, ok := d.cache[c]; ok {
		return cached, nil
	}
	idx, ok := d.index[c]
	if !ok {
		return nil, nil
	}

	if _, err := d.frames.Seek(int64(idx.ByteOffset), io.SeekStart); err != nil {
		return nil, &FormatError{Section: "entries", Err: err}
	}

	entries := make([]DictEntry, 0, idx.Count)
	for i := uint16(0); i < idx.Count; i++ {
		surface, readOff, readLen, posID, cost, err := readEntryRecord(d.frames)
		if err != nil {
			return nil, err
		}
		entries = append(entries, DictEntry{
			Surface:  surface,
			PosID:    posID,
			WordCost: cost,
			readOff:  readOff,
			readLen:  readLen,
		})
	}

	d.cache[c] = entries
	return entries, nil
}

// readingFor resolves the reading string for an already-cached entry
// handle, seeking into the string pool on demand. This is the read_reading
// suspension point of spec §4.2/§5: it runs only for entries a Viterbi
// backtrack actually visits (§4.4), not for every lattice candidate.
func (d *Dictionary) readingFor(h EntryHandle) (string, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	e := d.cache[h.FirstChar][h.LocalIdx]
	return d.readReadingLocked(e.readOff, e.readLen)
}

// readReadingLocked reads a reading string from the string pool. Callers
// must already hold d.mu.
func (d *Dictionary) readReadingLocked(offset uint32, length uint8) (string, error) {
	pos := int64(d.stringsOffset) + int64(offset)
	if _, err := d.frames.Seek(pos, io.SeekStart); err != nil {
		return "", &FormatError{Section: "strings", Err: err}
	}
	buf := make([]byte, length)
	if _, err := io.ReadFull(d.frames, buf); err != nil {
		return "", &FormatError{Section: "strings", Err: err}
	}
	if !utf8.Valid(buf) {
		return "", &FormatError{Section: "strings", Err: fmt.Errorf("reading is not valid UTF-8")}
	}
	return string(buf), nil
}

// ReadReading reads a reading string at the given offset/length within
// the string pool (spec §4.2 read_reading). Exposed for callers that
// already have raw (offset, length) handles; Transliterate instead goes
// through readingFor, which resolves the offset/length from a cached
// DictEntry by EntryHandle.
func (d *Dictionary) ReadReading(offset uint32, length uint8) (string, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.readReadingLocked(offset, length)
}
