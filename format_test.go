package mucab

import (
	"bytes"
	"errors"
	"testing"
)

func TestHeaderRoundTrip(t *testing.T) {
	want := header{Version: formatVer, S: 3, EntryCount: 42, StringsOffset: 1024}

	var buf bytes.Buffer
	if err := writeHeader(&buf, want); err != nil {
		t.Fatalf("writeHeader: %v", err)
	}
	if buf.Len() != headerSize {
		t.Fatalf("wrote %d bytes, want %d", buf.Len(), headerSize)
	}

	got, err := readHeader(&buf)
	if err != nil {
		t.Fatalf("readHeader: %v", err)
	}
	if got != want {
		t.Fatalf("got %+v, want %+v", got, want)
	}
}

func TestReadHeaderBadMagic(t *testing.T) {
	var buf bytes.Buffer
	buf.WriteString("XXXX")
	buf.Write(make([]byte, headerSize-4))

	_, err := readHeader(&buf)
	var fe *FormatError
	if !errors.As(err, &fe) {
		t.Fatalf("expected *FormatError, got %v", err)
	}
	if !errors.Is(err, ErrBadMagic) {
		t.Fatalf("expected ErrBadMagic, got %v", fe.Unwrap())
	}
}

func TestReadHeaderBadVersion(t *testing.T) {
	hdr := header{Version: formatVer + 1, S: 1, EntryCount: 0, StringsOffset: 0}
	var buf bytes.Buffer
	if err := writeHeader(&buf, hdr); err != nil {
		t.Fatalf("writeHeader: %v", err)
	}

	_, err := readHeader(&buf)
	if !errors.Is(err, ErrBadVersion) {
		t.Fatalf("expected ErrBadVersion, got %v", err)
	}
}

func TestReadHeaderTruncated(t *testing.T) {
	var buf bytes.Buffer
	buf.WriteString("MUCA")

	_, err := readHeader(&buf)
	var fe *FormatError
	if !errors.As(err, &fe) {
		t.Fatalf("expected *FormatError, got %v", err)
	}
	if fe.Section != "header" {
		t.Fatalf("got section %q, want %q", fe.Section, "header")
	}
}

func TestMatrixRoundTrip(t *testing.T) {
	m := NewMatrix(3)
	m.Set(0, 1, 500)
	m.Set(2, 2, -7)
	m.Set(1, 0, 32767)

	var buf bytes.Buffer
	if err := writeMatrix(&buf, m); err != nil {
		t.Fatalf("writeMatrix: %v", err)
	}

	got, err := readMatrix(&buf, 3)
	if err != nil {
		t.Fatalf("readMatrix: %v", err)
	}
	for prev := uint16(0); prev < 3; prev++ {
		for curr := uint16(0); curr < 3; curr++ {
			if got.Cost(prev, curr) != m.Cost(prev, curr) {
				t.Fatalf("Cost(%d,%d) = %d, want %d", prev, curr, got.Cost(prev, curr), m.Cost(prev, curr))
			}
		}
	}
}

func TestMatrixOutOfRangeIsZero(t *testing.T) {
	m := NewMatrix(2)
	m.Set(5, 5, 999) // out of range: no-op
	if got := m.Cost(5, 5); got != 0 {
		t.Fatalf("Cost(5,5) = %d, want 0", got)
	}
	if got := m.Cost(0, 0); got != 0 {
		t.Fatalf("Cost(0,0) = %d, want 0", got)
	}
}

func TestIndexDirectoryRoundTrip(t *testing.T) {
	keys := []rune{'北', '山', '京'}
	entries := []indexEntry{
		{ByteOffset: 0, Count: 2},
		{ByteOffset: 20, Count: 1},
		{ByteOffset: 35, Count: 5},
	}

	var buf bytes.Buffer
	if err := writeIndexDirectory(&buf, keys, entries); err != nil {
		t.Fatalf("writeIndexDirectory: %v", err)
	}

	got, err := readIndexDirectory(&buf)
	if err != nil {
		t.Fatalf("readIndexDirectory: %v", err)
	}
	if len(got) != len(keys) {
		t.Fatalf("got %d keys, want %d", len(got), len(keys))
	}
	for i, k := range keys {
		ie, ok := got[k]
		if !ok {
			t.Fatalf("missing key %q", k)
		}
		if ie != entries[i] {
			t.Fatalf("key %q: got %+v, want %+v", k, ie, entries[i])
		}
	}
}

func TestEntryRecordRoundTrip(t *testing.T) {
	var buf bytes.Buffer
	if err := writeEntryRecord(&buf, "北海道", 128, 18, 7, -250); err != nil {
		t.Fatalf("writeEntryRecord: %v", err)
	}

	surface, readOff, readLen, posID, cost, err := readEntryRecord(&buf)
	if err != nil {
		t.Fatalf("readEntryRecord: %v", err)
	}
	if surface != "北海道" {
		t.Fatalf("surface = %q, want %q", surface, "北海道")
	}
	if readOff != 128 || readLen != 18 || posID != 7 || cost != -250 {
		t.Fatalf("got (%d,%d,%d,%d), want (128,18,7,-250)", readOff, readLen, posID, cost)
	}
}

func TestWriteEntryRecordRejectsOversizeSurface(t *testing.T) {
	oversize := make([]byte, 256)
	for i := range oversize {
		oversize[i] = 'a'
	}
	var buf bytes.Buffer
	err := writeEntryRecord(&buf, string(oversize), 0, 0, 0, 0)
	if err == nil {
		t.Fatal("expected error for 256-byte surface, got nil")
	}
}

func TestReadEntryRecordRejectsInvalidUTF8(t *testing.T) {
	var buf bytes.Buffer
	buf.WriteByte(2)                    // surf_len
	buf.Write([]byte{0xff, 0xfe})       // invalid UTF-8 surface bytes
	buf.Write(make([]byte, entryMetaSize))

	_, _, _, _, _, err := readEntryRecord(&buf)
	var fe *FormatError
	if !errors.As(err, &fe) {
		t.Fatalf("expected *FormatError, got %v", err)
	}
}
