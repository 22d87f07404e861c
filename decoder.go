package huffc

import (
	"fmt"
	"io"
)

// Decoder reverses an Encoder of the matching Mode (spec §4.2/§4.3, §6).
// Like the encoder, the decoder carries no dictionary/tree state between
// calls to Decode; each call is self-contained.
type Decoder struct {
	mode           Mode
	progress       io.Writer
	progressPeriod int
	stats          Stats
}

func NewDecoder(mode Mode) *Decoder {
	return &Decoder{mode: mode}
}

func (d *Decoder) SetProgressWriter(w io.Writer, periodBytes int) {
	d.progress = w
	d.progressPeriod = periodBytes
}

func (d *Decoder) Stats() Stats { return d.stats }

// Decode reads all of r into memory and writes the decompressed form to w.
// Buffering fully - mirroring the Encoder's own "read everything up front"
// design - lets the decoder compute the exact number of real codeword bits
// up front (total bits minus the header's dummy_codeword_bits) instead of
// guessing where trailing zero padding starts.
func (d *Decoder) Decode(r io.Reader, w io.Writer) error {
	data, err := io.ReadAll(r)
	if err != nil {
		return err
	}
	br := newBitReaderBytes(data)
	d.stats = Stats{Mode: d.mode}

	switch d.mode {
	case ModeStatic:
		return d.decodeStatic(br, w)
	case ModeAdaptive:
		return d.decodeAdaptive(br, w)
	default:
		return fmt.Errorf("%w: unknown mode %d", ErrInvalidHeader, d.mode)
	}
}

// combineSymbols reassembles w-byte symbols back into bytes, dropping the
// dummySymbolBytes zero padding appended to the final symbol (spec §4.1).
func combineSymbols(symbols []uint64, width int, dummySymbolBytes int) []byte {
	out := make([]byte, 0, len(symbols)*width)
	for _, s := range symbols {
		out = append(out, encodeSymbol(s, width)...)
	}
	if dummySymbolBytes > 0 && len(out) >= dummySymbolBytes {
		out = out[:len(out)-dummySymbolBytes]
	}
	return out
}

func (d *Decoder) decodeStatic(br *bitReader, out io.Writer) error {
	first, err := br.ReadByte()
	if err != nil {
		return fmt.Errorf("%w: empty input: %v", ErrInvalidHeader, err)
	}
	if first == staticSentinelEmpty {
		d.stats.OutputBytes = 0
		return nil
	}

	dummySymbolBytes, lengths, dummyCodewordBits, err := readStaticHeader(br, first)
	if err != nil {
		return err
	}
	width := int(first) / 8

	tree, err := NewStaticTreeFromLengths(lengths)
	if err != nil {
		return err
	}

	// The header's trailing dummy_codeword_bits is the only way to know
	// where real codeword content ends, since code lengths are variable: the
	// remaining bit count right after the header, minus the dummy padding,
	// is the exact number of real content bits still to come (spec §6). This
	// sidesteps peeking ahead in the bit stream to look for the padding.
	realBits := br.remainingBits() - int(dummyCodewordBits)
	if realBits < 0 {
		return fmt.Errorf("%w: dummy codeword bits exceed stream length", ErrInvalidHeader)
	}

	symbols := make([]uint64, 0, 1024)
	period := periodSymbols(d.progressPeriod, width)
	for i := 0; i < realBits; i++ {
		bit, err := br.ReadBit()
		if err != nil {
			return fmt.Errorf("%w: stream ended mid-codeword: %v", ErrMalformedStream, err)
		}

		sym, emitted := tree.DecodeBit(bit)
		if emitted {
			symbols = append(symbols, sym)
			if d.progress != nil && period > 0 && len(symbols)%period == 0 {
				fmt.Fprintf(d.progress, "huffc: static: decoded %d symbols\n", len(symbols))
			}
		}
	}

	if !tree.AtRoot() {
		return fmt.Errorf("%w: decoder did not end at root", ErrMalformedStream)
	}

	data := combineSymbols(symbols, width, int(dummySymbolBytes))
	if _, err := out.Write(data); err != nil {
		return err
	}

	d.stats.Symbols = uint64(len(symbols))
	d.stats.DistinctSymbols = len(lengths)
	d.stats.OutputBytes = int64(len(data))
	return nil
}

func (d *Decoder) decodeAdaptive(br *bitReader, out io.Writer) error {
	h, err := readAdaptiveHeader(br)
	if err != nil {
		return err
	}
	width := int(h.bitsPerSymbol / 8)

	tree := NewAdaptiveTree(width, int(h.chunkSizeMB), int(h.shrinkFactor))

	// As in decodeStatic, the remaining bit count right after the header,
	// minus dummy_codeword_bits, is the exact number of real codeword bits:
	// without this, trailing zero padding would be fed into the tree walk
	// as if it were the start of another codeword.
	realBits := br.remainingBits() - int(h.dummyCodewordBits)
	if realBits < 0 {
		return fmt.Errorf("%w: dummy codeword bits exceed stream length", ErrInvalidHeader)
	}

	symbols := make([]uint64, 0, 1024)
	period := periodSymbols(d.progressPeriod, width)
	for i := 0; i < realBits; i++ {
		bit, err := br.ReadBit()
		if err != nil {
			return fmt.Errorf("%w: stream ended mid-codeword: %v", ErrMalformedStream, err)
		}

		sym, emitted := tree.DecodeBit(bit)
		if emitted {
			symbols = append(symbols, sym)
			if d.progress != nil && period > 0 && len(symbols)%period == 0 {
				fmt.Fprintf(d.progress, "huffc: adaptive: decoded %d symbols (%d shrinks)\n", len(symbols), tree.ShrinkCount())
			}
		}
	}

	if !tree.AtNYTBoundary() {
		return fmt.Errorf("%w: decoder did not end at a clean boundary", ErrMalformedStream)
	}

	data := combineSymbols(symbols, width, int(h.dummySymbolBytes))
	if _, err := out.Write(data); err != nil {
		return err
	}

	d.stats.Symbols = tree.TotalSymbols()
	d.stats.Shrinks = tree.ShrinkCount()
	d.stats.OutputBytes = int64(len(data))
	return nil
}
