package mucab

import (
	"bufio"
	"context"
	"encoding/csv"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"regexp"
	"sort"
	"strconv"
	"strings"

	"golang.org/x/text/encoding/japanese"
	"golang.org/x/text/transform"
)

// hanPrefix matches a surface that begins with at least one Han
// character (spec §3, §4.1).
var hanPrefix = regexp.MustCompile(`^\p{Han}+`)

const (
	csvMinFields          = 13
	maxSurfOrReadingBytes = 255
	maxPosIDs             = 1 << 16 // uint16 range; at most maxPosIDs-1 = 65535 distinct ids (0..65534)
)

// CompileOption configures Compile. The zero value of compileConfig
// matches the spec's defaults: no logger (slog.Default() is used),
// zstd's default compression level.
type CompileOption func(*compileConfig)

type compileConfig struct {
	logger    *slog.Logger
	frameOpts []FrameCodecOption
}

// WithLogger overrides the *slog.Logger used for compiler progress and
// validation-warning output (spec §6: "progress and byte-accounting
// messages are printed to standard error").
func WithLogger(l *slog.Logger) CompileOption {
	return func(c *compileConfig) { c.logger = l }
}

// WithCompressionLevel overrides the zstd compression level used for the
// compiled dictionary's data segment (spec §4.1: "Compression level is a
// build parameter"), forwarding to the frame codec's own FrameCodecOption.
func WithCompressionLevel(level int) CompileOption {
	return func(c *compileConfig) {
		c.frameOpts = append(c.frameOpts, WithFrameCompressionLevel(level))
	}
}

// Compile reads every *.csv file plus matrix.def from inputDir and
// writes a compiled MUCA dictionary to outputPath (spec §4.1, §6).
//
// Per-record anomalies are skipped and compilation continues: rows with
// too few fields or a non-Han surface are dropped silently, while
// oversize surface/reading strings and out-of-range word costs are
// logged as a ValidationWarning first (spec §4.1, §7 ValidationWarn). A
// left/right context-id mismatch within a row, or more than 65535
// distinct pos_ids, is fatal (spec §7 CapacityExceeded).
func Compile(ctx context.Context, inputDir, outputPath string, opts ...CompileOption) error {
	cfg := compileConfig{logger: slog.Default()}
	for _, opt := range opts {
		opt(&cfg)
	}

	posIDs := newPosIDTable()
	entries, err := loadCSVLexicon(ctx, inputDir, &cfg, posIDs)
	if err != nil {
		return err
	}
	cfg.logger.Info("processed lexicon", "pos_ids", posIDs.len(), "entries", len(entries))

	matrix, err := loadMatrixDef(filepath.Join(inputDir, "matrix.def"), posIDs, &cfg)
	if err != nil {
		return err
	}
	cfg.logger.Info("loaded connection matrix", "size", matrix.Size(), "bytes", matrix.Size()*matrix.Size()*2)

	sortEntries(entries)

	out, err := os.Create(outputPath)
	if err != nil {
		return fmt.Errorf("mucab: create %s: %w", outputPath, err)
	}
	defer out.Close()

	if err := emit(out, entries, matrix, &cfg); err != nil {
		return err
	}
	cfg.logger.Info("wrote dictionary", "path", outputPath)
	return nil
}

// posIDTable interns the string form of a CSV context id into a dense,
// insertion-ordered uint16 pos_id (spec §4.1 "ID interning").
type posIDTable struct {
	ids map[string]uint16
}

func newPosIDTable() *posIDTable { return &posIDTable{ids: make(map[string]uint16)} }

func (t *posIDTable) len() int { return len(t.ids) }

// intern returns the dense id for s, allocating a new one if s hasn't
// been seen before. It is fatal (CapacityError) past 65535 ids.
func (t *posIDTable) intern(s string) (uint16, error) {
	if id, ok := t.ids[s]; ok {
		return id, nil
	}
	if len(t.ids) >= maxPosIDs-1 {
		return 0, &CapacityError{Reason: "more than 65535 distinct pos_ids"}
	}
	id := uint16(len(t.ids))
	t.ids[s] = id
	return id, nil
}

func (t *posIDTable) lookup(s string) (uint16, bool) {
	id, ok := t.ids[s]
	return id, ok
}

// loadCSVLexicon walks inputDir/*.csv (spec §4.1 input) and returns the
// compiled entry list (surface, pos_id, cost, reading), filtered and
// validated per-record.
func loadCSVLexicon(ctx context.Context, inputDir string, cfg *compileConfig, posIDs *posIDTable) ([]compiledEntry, error) {
	pattern := filepath.Join(inputDir, "*.csv")
	paths, err := filepath.Glob(pattern)
	if err != nil {
		return nil, fmt.Errorf("mucab: glob %s: %w", pattern, err)
	}

	var entries []compiledEntry
	for _, path := range paths {
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		default:
		}
		cfg.logger.Info("processing csv", "path", path)
		fileEntries, err := loadCSVFile(path, cfg, posIDs)
		if err != nil {
			return nil, err
		}
		entries = append(entries, fileEntries...)
	}
	return entries, nil
}

// compiledEntry is a CSV row after validation, the left==right assertion
// and pos_id interning: the two-sided context is reduced to a single
// pos_id (spec §4.1).
type compiledEntry struct {
	surface string
	posID   uint16
	cost    int16
	reading string
}

func loadCSVFile(path string, cfg *compileConfig, posIDs *posIDTable) ([]compiledEntry, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("mucab: open %s: %w", path, err)
	}
	defer f.Close()

	decoded := transform.NewReader(bufio.NewReader(f), japanese.EUCJP.NewDecoder())
	r := csv.NewReader(decoded)
	r.FieldsPerRecord = -1 // rows have varying field counts in practice; we validate width ourselves
	r.LazyQuotes = true

	var entries []compiledEntry
	lineNum := 0
	for {
		record, err := r.Read()
		if err == io.EOF {
			break
		}
		lineNum++
		if err != nil {
			cfg.logger.Warn("csv parse error", "file", path, "line", lineNum, "err", err)
			continue
		}

		entry, ok, err := compileRecord(path, lineNum, record, posIDs, cfg)
		if err != nil {
			return nil, err
		}
		if !ok {
			continue
		}
		entries = append(entries, entry)
	}
	return entries, nil
}

// warn logs a ValidationWarning for a skipped CSV row (spec §7
// ValidationWarn: "Logged, row skipped, compile continues").
func warn(cfg *compileConfig, path string, line int, reason string) {
	w := &ValidationWarning{File: path, Line: line, Reason: reason}
	cfg.logger.Warn("skipping csv row", "file", w.File, "line", w.Line, "reason", w.Reason)
}

// compileRecord validates and narrows a single CSV row per spec §4.1's
// filtering rules, returning ok=false for any per-record anomaly. Rows
// with too few fields or a non-Han surface are skipped silently per
// spec; oversize surface/reading and out-of-range cost are logged via
// warn before being skipped (spec §4.1, §7 ValidationWarn).
func compileRecord(path string, line int, record []string, posIDs *posIDTable, cfg *compileConfig) (compiledEntry, bool, error) {
	if len(record) < csvMinFields {
		return compiledEntry{}, false, nil
	}

	surface := record[0]
	if !hanPrefix.MatchString(surface) {
		return compiledEntry{}, false, nil
	}
	if len(surface) > maxSurfOrReadingBytes {
		warn(cfg, path, line, fmt.Sprintf("surface %q exceeds 255 bytes", surface))
		return compiledEntry{}, false, nil
	}

	leftID, rightID := record[1], record[2]
	if leftID != rightID {
		return compiledEntry{}, false, &CapacityError{Reason: fmt.Sprintf("left/right context id mismatch for %q: %q != %q", surface, leftID, rightID)}
	}

	costVal, err := strconv.ParseInt(record[3], 10, 32)
	if err != nil {
		warn(cfg, path, line, fmt.Sprintf("word cost %q is not an integer", record[3]))
		return compiledEntry{}, false, nil
	}
	if costVal < -32768 || costVal > 32767 {
		warn(cfg, path, line, fmt.Sprintf("word cost %d out of i16 range", costVal))
		return compiledEntry{}, false, nil
	}

	reading := record[12]
	if len(reading) > maxSurfOrReadingBytes {
		warn(cfg, path, line, fmt.Sprintf("reading %q exceeds 255 bytes", reading))
		return compiledEntry{}, false, nil
	}

	posID, err := posIDs.intern(leftID)
	if err != nil {
		return compiledEntry{}, false, err
	}

	return compiledEntry{
		surface: surface,
		posID:   posID,
		cost:    int16(costVal),
		reading: reading,
	}, true, nil
}

// loadMatrixDef reads matrix.def (spec §4.1 "Matrix ingestion"): a
// header line, then whitespace-delimited (prev, curr, cost) triples.
// Triples referencing an id never seen in the CSV lexicon are ignored,
// per spec; malformed numeric fields are logged and skipped the same
// way a CSV row anomaly would be (see DESIGN.md Open Question
// decisions).
func loadMatrixDef(path string, posIDs *posIDTable, cfg *compileConfig) (*Matrix, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("mucab: open %s: %w", path, err)
	}
	defer f.Close()

	m := NewMatrix(posIDs.len())
	scanner := bufio.NewScanner(f)
	lineNum := 0
	if scanner.Scan() {
		lineNum++ // skip header line
	}
	for scanner.Scan() {
		lineNum++
		fields := strings.Fields(scanner.Text())
		if len(fields) < 3 {
			continue
		}
		prevID, ok1 := posIDs.lookup(fields[0])
		currID, ok2 := posIDs.lookup(fields[1])
		if !ok1 || !ok2 {
			continue
		}
		cost, err := strconv.ParseInt(fields[2], 10, 32)
		if err != nil {
			cfg.logger.Warn("matrix.def parse error", "line", lineNum, "err", err)
			continue
		}
		m.Set(prevID, currID, int16(cost))
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("mucab: read %s: %w", path, err)
	}
	return m, nil
}

// sortEntries sorts entries by (first Unicode scalar of surface)
// ascending, breaking ties by full surface lexicographic order (spec
// §4.1 "Sort and group"). This is the contract that makes
// first-character grouping a contiguous slice.
func sortEntries(entries []compiledEntry) {
	sort.SliceStable(entries, func(i, j int) bool {
		ri := []rune(entries[i].surface)[0]
		rj := []rune(entries[j].surface)[0]
		if ri != rj {
			return ri < rj
		}
		return entries[i].surface < entries[j].surface
	})
}

// emit writes the full MUCA container: header, matrix, index directory,
// then the compressed data segment (entry records followed by the
// reading string pool), per spec §4.1 "Emit".
func emit(w io.Writer, entries []compiledEntry, matrix *Matrix, cfg *compileConfig) error {
	keys, indexEntries, entryArraySize := buildIndex(entries)

	hdr := header{
		Version:       formatVer,
		S:             uint16(matrix.Size()),
		EntryCount:    uint32(len(entries)),
		StringsOffset: entryArraySize,
	}
	if err := writeHeader(w, hdr); err != nil {
		return err
	}
	if err := writeMatrix(w, matrix); err != nil {
		return err
	}
	if err := writeIndexDirectory(w, keys, indexEntries); err != nil {
		return err
	}
	cfg.logger.Info("wrote index", "keys", len(keys))

	fw, err := newFrameWriter(w, cfg.frameOpts...)
	if err != nil {
		return fmt.Errorf("mucab: open frame writer: %w", err)
	}

	pool := newReadingPool()
	for _, e := range entries {
		readOff, readLen := pool.add(e.reading)
		if err := writeEntryRecord(fw, e.surface, readOff, readLen, e.posID, e.cost); err != nil {
			fw.Close()
			return err
		}
	}
	if _, err := fw.Write(pool.bytes()); err != nil {
		fw.Close()
		return err
	}
	if err := fw.Close(); err != nil {
		return err
	}
	cfg.logger.Info("wrote data segment", "entries", len(entries), "pool_bytes", pool.len())
	return nil
}

// buildIndex walks entries in sorted order and records, for each run of
// identical first characters, (scalar, byte_offset_within_data_segment,
// count); byte_offset tracks the running size of previously-emitted
// entry records (spec §4.1 "Build the index").
func buildIndex(entries []compiledEntry) (keys []rune, entryIdx []indexEntry, entryArraySize uint32) {
	var byteOffset uint32
	var curChar rune
	var curOffset uint32
	var curCount uint16
	haveGroup := false

	flush := func() {
		if haveGroup {
			keys = append(keys, curChar)
			entryIdx = append(entryIdx, indexEntry{ByteOffset: curOffset, Count: curCount})
		}
	}

	for _, e := range entries {
		first := []rune(e.surface)[0]
		if !haveGroup || first != curChar {
			flush()
			curChar = first
			curOffset = byteOffset
			curCount = 0
			haveGroup = true
		}
		curCount++
		byteOffset += 1 + uint32(len(e.surface)) + entryMetaSize
	}
	flush()

	return keys, entryIdx, byteOffset
}

// readingPool accumulates reading bytes with suffix-overlap coalescing
// (spec §4.1 "Emit"): before appending a new reading, find the longest
// suffix of the pool equal to a prefix of the reading and reuse it. This
// is a greedy shortest-common-supersequence heuristic, not an optimum —
// it is still correct because the returned (offset, len) always points
// to the right span.
type readingPool struct {
	data []byte
}

func newReadingPool() *readingPool { return &readingPool{} }

func (p *readingPool) add(reading string) (offset uint32, length uint8) {
	b := []byte(reading)
	overlap := p.longestSuffixPrefixOverlap(b)
	offset = uint32(len(p.data) - overlap)
	p.data = append(p.data, b[overlap:]...)
	return offset, uint8(len(b))
}

// longestSuffixPrefixOverlap finds the longest suffix of p.data that
// equals a prefix of b, searching from the longest candidate down so the
// first match found is the longest.
func (p *readingPool) longestSuffixPrefixOverlap(b []byte) int {
	maxLen := len(b)
	if maxLen > len(p.data) {
		maxLen = len(p.data)
	}
	for l := maxLen; l > 0; l-- {
		suffix := p.data[len(p.data)-l:]
		if string(suffix) == string(b[:l]) {
			return l
		}
	}
	return 0
}

func (p *readingPool) bytes() []byte { return p.data }
func (p *readingPool) len() int      { return len(p.data) }
