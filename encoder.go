package huffc

import (
	"bytes"
	"fmt"
	"io"
)

// Mode selects which of the two coders (spec §4.2, §4.3) an Encoder or
// Decoder drives. The wire formats carry no mode byte of their own (spec
// §6): the caller always knows which one it asked for, the same way the
// teacher's CLI already knows whether it's compressing or decompressing
// before it ever looks at the file.
type Mode int

const (
	ModeStatic Mode = iota
	ModeAdaptive
)

func (m Mode) String() string {
	switch m {
	case ModeStatic:
		return "static"
	case ModeAdaptive:
		return "adaptive"
	default:
		return "unknown"
	}
}

// Config holds the invocation-contract parameters from spec §6.
type Config struct {
	BytesPerSymbol int // default 1
	Mode           Mode
	ChunkSizeMB    int // adaptive only; 0 disables shrinking
	ShrinkFactor   int // adaptive only; default 2, must be 2..255 when ChunkSizeMB > 0
}

func (c Config) validate() error {
	if err := checkSymbolWidth(c.BytesPerSymbol); err != nil {
		return err
	}
	if c.Mode != ModeStatic && c.Mode != ModeAdaptive {
		return fmt.Errorf("%w: unknown mode %d", ErrInvalidHeader, c.Mode)
	}
	if c.ChunkSizeMB < 0 || c.ChunkSizeMB > 255 {
		return fmt.Errorf("%w: chunk size %d out of range [0,255]", ErrInvalidHeader, c.ChunkSizeMB)
	}
	if c.ChunkSizeMB > 0 && (c.ShrinkFactor != 0 && (c.ShrinkFactor < 2 || c.ShrinkFactor > 255)) {
		return fmt.Errorf("%w: shrink factor %d out of range [2,255]", ErrInvalidHeader, c.ShrinkFactor)
	}
	return nil
}

// Stats reports counters gathered during the last Encode/Decode call,
// supplementing the spec with the kind of summary the teacher's -info mode
// prints (ncrlite's doDecompress prints size/overhead to a side writer).
type Stats struct {
	Mode            Mode
	InputBytes      int64
	OutputBytes     int64
	Symbols         uint64
	DistinctSymbols int
	Shrinks         int
}

// countingWriter tracks bytes written through it, used to populate
// Stats.OutputBytes without requiring the underlying writer to expose one.
type countingWriter struct {
	w io.Writer
	n int64
}

func (c *countingWriter) Write(p []byte) (int, error) {
	n, err := c.w.Write(p)
	c.n += int64(n)
	return n, err
}

// splitSymbols chops data into w-byte big-endian symbols, zero-padding the
// final partial chunk (spec §4.1). dummySymbolBytes is always in [0, w).
func splitSymbols(data []byte, w int) (symbols []uint64, dummySymbolBytes int) {
	n := len(data) / w
	rem := len(data) % w
	if rem > 0 {
		dummySymbolBytes = w - rem
	}
	symbols = make([]uint64, 0, n+1)
	for i := 0; i+w <= len(data); i += w {
		symbols = append(symbols, decodeSymbol(data[i:i+w]))
	}
	if rem > 0 {
		chunk := make([]byte, w)
		copy(chunk, data[n*w:])
		symbols = append(symbols, decodeSymbol(chunk))
	}
	return symbols, dummySymbolBytes
}

// periodSymbols converts a progress period given in input bytes into a
// period given in symbols, at least 1 when reporting is enabled.
func periodSymbols(periodBytes, width int) int {
	if periodBytes <= 0 {
		return 0
	}
	n := periodBytes / width
	if n < 1 {
		n = 1
	}
	return n
}

// Encoder compresses a byte stream under either coder (spec §4.2/§4.3).
type Encoder struct {
	cfg            Config
	progress       io.Writer
	progressPeriod int
	stats          Stats
}

func NewEncoder(cfg Config) (*Encoder, error) {
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return &Encoder{cfg: cfg}, nil
}

// SetProgressWriter enables periodic progress reports written to w every
// periodBytes of input consumed, mirroring the teacher's -info side
// channel (ncrlite's NewDecompressorWithLogging) generalized to periodic
// rather than one-shot reporting, per SPEC_FULL's supplemented features.
func (e *Encoder) SetProgressWriter(w io.Writer, periodBytes int) {
	e.progress = w
	e.progressPeriod = periodBytes
}

func (e *Encoder) Stats() Stats { return e.stats }

// Encode reads all of r and writes the compressed form to w. It reads the
// whole input into memory first: the static coder's two-pass design
// requires it (distribution must be known before the header can be
// written), and the adaptive coder's one-pass design is preserved over the
// input even though the output is buffered once to allow writing
// dummy_codeword_bits into a header that precedes the stream it describes.
func (e *Encoder) Encode(r io.Reader, w io.Writer) error {
	data, err := io.ReadAll(r)
	if err != nil {
		return err
	}
	e.stats = Stats{Mode: e.cfg.Mode, InputBytes: int64(len(data))}

	switch e.cfg.Mode {
	case ModeStatic:
		return e.encodeStatic(data, w)
	case ModeAdaptive:
		return e.encodeAdaptive(data, w)
	default:
		return fmt.Errorf("%w: unknown mode %d", ErrInvalidHeader, e.cfg.Mode)
	}
}

func (e *Encoder) encodeStatic(data []byte, out io.Writer) error {
	width := e.cfg.BytesPerSymbol
	syms, dummySymbolBytes := splitSymbols(data, width)

	cw := &countingWriter{w: out}
	bw := newBitWriter(cw)

	if len(syms) == 0 {
		bw.WriteByte(staticSentinelEmpty)
		if err := bw.Close(); err != nil {
			return err
		}
		e.stats.OutputBytes = cw.n
		return nil
	}

	freq := make(map[uint64]uint64, len(syms))
	for _, s := range syms {
		freq[s]++
	}

	tree, lengths, err := NewStaticTreeFromFrequencies(freq)
	if err != nil {
		return err
	}

	totalBits := staticContentBits(freq, lengths)
	dummyBits := dummyBitsFor(totalBits)

	writeStaticHeader(bw, byte(width*8), byte(dummySymbolBytes), lengths, dummyBits)

	period := periodSymbols(e.progressPeriod, width)
	for i, s := range syms {
		code, length, ok := tree.Encode(s)
		if !ok {
			return fmt.Errorf("%w: symbol %d missing from frequency table", ErrInvariantViolation, s)
		}
		bw.WriteBits(code, length)
		if e.progress != nil && period > 0 && (i+1)%period == 0 {
			fmt.Fprintf(e.progress, "huffc: static: encoded %d/%d symbols\n", i+1, len(syms))
		}
	}

	flushed := bw.Flush()
	if byte(flushed) != dummyBits {
		return fmt.Errorf("%w: dummy bit accounting mismatch (computed %d, flushed %d)", ErrInvariantViolation, dummyBits, flushed)
	}
	if err := bw.Close(); err != nil {
		return err
	}

	e.stats.Symbols = uint64(len(syms))
	e.stats.DistinctSymbols = len(freq)
	e.stats.OutputBytes = cw.n
	return nil
}

func (e *Encoder) encodeAdaptive(data []byte, out io.Writer) error {
	width := e.cfg.BytesPerSymbol
	syms, dummySymbolBytes := splitSymbols(data, width)

	shrinkFactor := e.cfg.ShrinkFactor
	if shrinkFactor == 0 {
		shrinkFactor = 2
	}

	// Buffer the codeword stream so dummy_codeword_bits - known only once
	// every symbol has been encoded - can still be written into a header
	// that precedes it, without requiring a seekable sink. Analogous to
	// original_source's header-placeholder-then-seek-back strategy, but
	// adapted for a plain io.Writer.
	var content bytes.Buffer
	cbw := newBitWriter(&content)

	tree := NewAdaptiveTree(width, e.cfg.ChunkSizeMB, shrinkFactor)

	seen := make(map[uint64]bool)
	period := periodSymbols(e.progressPeriod, width)
	for i, s := range syms {
		tree.EncodeSymbol(cbw, s)
		seen[s] = true
		if e.progress != nil && period > 0 && (i+1)%period == 0 {
			fmt.Fprintf(e.progress, "huffc: adaptive: encoded %d/%d symbols (%d shrinks)\n", i+1, len(syms), tree.ShrinkCount())
		}
	}
	dummyBits := cbw.Flush()
	if err := cbw.Close(); err != nil {
		return err
	}

	h := adaptiveHeader{
		bitsPerSymbol:     byte(width * 8),
		dummyCodewordBits: byte(dummyBits),
		dummySymbolBytes:  byte(dummySymbolBytes),
		chunkSizeMB:       byte(e.cfg.ChunkSizeMB),
		shrinkFactor:      byte(shrinkFactor),
	}

	cw := &countingWriter{w: out}
	hbw := newBitWriter(cw)
	writeAdaptiveHeader(hbw, h)
	if err := hbw.Close(); err != nil {
		return err
	}
	if _, err := cw.Write(content.Bytes()); err != nil {
		return err
	}

	e.stats.Symbols = tree.TotalSymbols()
	e.stats.DistinctSymbols = len(seen)
	e.stats.Shrinks = tree.ShrinkCount()
	e.stats.OutputBytes = cw.n
	return nil
}
