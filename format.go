package mucab

import (
	"encoding/binary"
	"errors"
	"io"
	"unicode/utf8"
)

// Binary layout constants for the MUCA container (spec §6). All integers
// are little-endian.
const (
	magicMUCA    = "MUCA"
	formatVer    = uint16(1)
	headerSize   = 16 // magic(4) + version(2) + S(2) + entryCount(4) + stringsOffset(4)
	indexRecSize = 10 // scalar(4) + byteOffset(4) + count(2)

	entryMetaSize = 9 // readOff(4) + readLen(1) + posID(2) + wordCost(2), after surf_len+surface
)

// header is the fixed 16-byte MUCA header (spec §6 table).
type header struct {
	Version       uint16
	S             uint16 // pos_id space size
	EntryCount    uint32
	StringsOffset uint32 // within the decompressed data segment
}

// writeHeader writes the 16-byte MUCA header to w.
func writeHeader(w io.Writer, h header) error {
	var buf [headerSize]byte
	copy(buf[0:4], magicMUCA)
	binary.LittleEndian.PutUint16(buf[4:6], h.Version)
	binary.LittleEndian.PutUint16(buf[6:8], h.S)
	binary.LittleEndian.PutUint32(buf[8:12], h.EntryCount)
	binary.LittleEndian.PutUint32(buf[12:16], h.StringsOffset)
	_, err := w.Write(buf[:])
	return err
}

// readHeader parses and validates the 16-byte MUCA header from r.
func readHeader(r io.Reader) (header, error) {
	var buf [headerSize]byte
	if _, err := io.ReadFull(r, buf[:]); err != nil {
		return header{}, &FormatError{Section: "header", Err: err}
	}
	if string(buf[0:4]) != magicMUCA {
		return header{}, &FormatError{Section: "header", Err: ErrBadMagic}
	}
	ver := binary.LittleEndian.Uint16(buf[4:6])
	if ver != formatVer {
		return header{}, &FormatError{Section: "header", Err: ErrBadVersion}
	}
	return header{
		Version:       ver,
		S:             binary.LittleEndian.Uint16(buf[6:8]),
		EntryCount:    binary.LittleEndian.Uint32(buf[8:12]),
		StringsOffset: binary.LittleEndian.Uint32(buf[12:16]),
	}, nil
}

// writeMatrix writes the S×S little-endian i16 matrix body (no header).
func writeMatrix(w io.Writer, m *Matrix) error {
	buf := make([]byte, len(m.cost)*2)
	for i, v := range m.cost {
		binary.LittleEndian.PutUint16(buf[i*2:], uint16(v))
	}
	_, err := w.Write(buf)
	return err
}

// readMatrix reads an S×S little-endian i16 matrix body (no header).
func readMatrix(r io.Reader, size int) (*Matrix, error) {
	n := size * size
	buf := make([]byte, n*2)
	if _, err := io.ReadFull(r, buf); err != nil {
		return nil, &FormatError{Section: "matrix", Err: err}
	}
	m := NewMatrix(size)
	for i := 0; i < n; i++ {
		m.cost[i] = int16(binary.LittleEndian.Uint16(buf[i*2:]))
	}
	return m, nil
}

// indexEntry is one record of the first-character index directory:
// where the contiguous entry block for a first character starts in the
// decompressed data segment, and how many entries it contains.
type indexEntry struct {
	ByteOffset uint32
	Count      uint16
}

// writeIndexDirectory writes the index directory section: u32 num_keys
// followed by num_keys (scalar, byteOffset, count) records, in the order
// given by keys/entries.
func writeIndexDirectory(w io.Writer, keys []rune, entries []indexEntry) error {
	var countBuf [4]byte
	binary.LittleEndian.PutUint32(countBuf[:], uint32(len(keys)))
	if _, err := w.Write(countBuf[:]); err != nil {
		return err
	}
	rec := make([]byte, indexRecSize)
	for i, k := range keys {
		binary.LittleEndian.PutUint32(rec[0:4], uint32(k))
		binary.LittleEndian.PutUint32(rec[4:8], entries[i].ByteOffset)
		binary.LittleEndian.PutUint16(rec[8:10], entries[i].Count)
		if _, err := w.Write(rec); err != nil {
			return err
		}
	}
	return nil
}

// readIndexDirectory reads the index directory section into an unordered
// first-character → (byte_offset, count) mapping.
func readIndexDirectory(r io.Reader) (map[rune]indexEntry, error) {
	var countBuf [4]byte
	if _, err := io.ReadFull(r, countBuf[:]); err != nil {
		return nil, &FormatError{Section: "index", Err: err}
	}
	numKeys := binary.LittleEndian.Uint32(countBuf[:])

	idx := make(map[rune]indexEntry, numKeys)
	rec := make([]byte, indexRecSize)
	for i := uint32(0); i < numKeys; i++ {
		if _, err := io.ReadFull(r, rec); err != nil {
			return nil, &FormatError{Section: "index", Err: err}
		}
		scalar := binary.LittleEndian.Uint32(rec[0:4])
		ch := rune(scalar)
		idx[ch] = indexEntry{
			ByteOffset: binary.LittleEndian.Uint32(rec[4:8]),
			Count:      binary.LittleEndian.Uint16(rec[8:10]),
		}
	}
	return idx, nil
}

// writeEntryRecord writes one variable-length entry record to the
// decompressed data segment: u8 surf_len, surface bytes, u32
// reading_offset, u8 reading_len, u16 pos_id, i16 word_cost.
func writeEntryRecord(w io.Writer, surface string, readOff uint32, readLen uint8, posID uint16, cost int16) error {
	surf := []byte(surface)
	if len(surf) > 255 {
		return errors.New("mucab: surface exceeds 255 bytes")
	}
	out := make([]byte, 1+len(surf)+entryMetaSize)
	out[0] = byte(len(surf))
	copy(out[1:], surf)
	meta := out[1+len(surf):]
	binary.LittleEndian.PutUint32(meta[0:4], readOff)
	meta[4] = readLen
	binary.LittleEndian.PutUint16(meta[5:7], posID)
	binary.LittleEndian.PutUint16(meta[7:9], uint16(cost))
	_, err := w.Write(out)
	return err
}

// readEntryRecord reads one variable-length entry record from r. The
// reading is not resolved here: its raw pool offset and length are
// returned, and strings_offset-relative reads are performed by the
// caller, which owns the seekable decoder.
func readEntryRecord(r io.Reader) (surface string, readOff uint32, readLen uint8, posID uint16, cost int16, err error) {
	var lenBuf [1]byte
	if _, err = io.ReadFull(r, lenBuf[:]); err != nil {
		return "", 0, 0, 0, 0, &FormatError{Section: "entries", Err: err}
	}
	surfLen := int(lenBuf[0])
	surfBuf := make([]byte, surfLen)
	if _, err = io.ReadFull(r, surfBuf); err != nil {
		return "", 0, 0, 0, 0, &FormatError{Section: "entries", Err: err}
	}
	if !utf8.Valid(surfBuf) {
		return "", 0, 0, 0, 0, &FormatError{Section: "entries", Err: errors.New("surface is not valid UTF-8")}
	}
	var meta [entryMetaSize]byte
	if _, err = io.ReadFull(r, meta[:]); err != nil {
		return "", 0, 0, 0, 0, &FormatError{Section: "entries", Err: err}
	}
	readOff = binary.LittleEndian.Uint32(meta[0:4])
	readLen = meta[4]
	posID = binary.LittleEndian.Uint16(meta[5:7])
	cost = int16(binary.LittleEndian.Uint16(meta[7:9]))
	return string(surfBuf), readOff, readLen, posID, cost, nil
}
