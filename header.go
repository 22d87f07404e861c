package huffc

import (
	"fmt"
	"slices"
)

// adaptiveHeaderSize is the fixed 5-byte adaptive header (spec §6).
const adaptiveHeaderSize = 5

// staticSentinelEmpty is a reserved bits_per_symbol value (otherwise
// invalid: spec requires it be a positive multiple of 8) marking a static
// stream that encodes zero symbols. The static layout's code_dict_size
// field can't represent "zero used symbols" on its own, since its own
// wraparound convention ("0 denotes 2^(8W)") already claims the value 0
// for the full-alphabet case; see DESIGN.md for this Open Question's
// resolution. This mirrors the teacher's own short-circuit for trivial
// sizes (ncrlite.go's explicit len(set)==0/1 cases ahead of the normal
// Huffman-dictionary path).
const staticSentinelEmpty = 0

type adaptiveHeader struct {
	bitsPerSymbol     byte
	dummyCodewordBits byte
	dummySymbolBytes  byte
	chunkSizeMB       byte
	shrinkFactor      byte
}

func writeAdaptiveHeader(bw *bitWriter, h adaptiveHeader) {
	bw.WriteByte(h.bitsPerSymbol)
	bw.WriteByte(h.dummyCodewordBits)
	bw.WriteByte(h.dummySymbolBytes)
	bw.WriteByte(h.chunkSizeMB)
	bw.WriteByte(h.shrinkFactor)
}

func readAdaptiveHeader(br *bitReader) (adaptiveHeader, error) {
	var h adaptiveHeader
	fields := []*byte{&h.bitsPerSymbol, &h.dummyCodewordBits, &h.dummySymbolBytes, &h.chunkSizeMB, &h.shrinkFactor}
	for _, f := range fields {
		b, err := br.ReadByte()
		if err != nil {
			return h, fmt.Errorf("%w: truncated adaptive header: %v", ErrInvalidHeader, err)
		}
		*f = b
	}

	if h.bitsPerSymbol == 0 || h.bitsPerSymbol%8 != 0 || h.bitsPerSymbol > maxSymbolWidth*8 {
		return h, fmt.Errorf("%w: bits-per-symbol %d", ErrInvalidHeader, h.bitsPerSymbol)
	}
	w := int(h.bitsPerSymbol / 8)
	if h.dummyCodewordBits > 7 {
		return h, fmt.Errorf("%w: dummy codeword bits %d", ErrInvalidHeader, h.dummyCodewordBits)
	}
	if int(h.dummySymbolBytes) >= w {
		return h, fmt.Errorf("%w: dummy symbol bytes %d >= width %d", ErrInvalidHeader, h.dummySymbolBytes, w)
	}
	if h.shrinkFactor < 2 {
		return h, fmt.Errorf("%w: shrink factor %d < 2", ErrInvalidHeader, h.shrinkFactor)
	}

	return h, nil
}

// writeWBytes writes v as a w-byte big-endian field.
func writeWBytes(bw *bitWriter, v uint64, w int) {
	for _, b := range encodeSymbol(v, w) {
		bw.WriteByte(b)
	}
}

// readWBytes reads a w-byte big-endian field.
func readWBytes(br *bitReader, w int) (uint64, error) {
	buf := make([]byte, w)
	for i := range buf {
		b, err := br.ReadByte()
		if err != nil {
			return 0, err
		}
		buf[i] = b
	}
	return decodeSymbol(buf), nil
}

// wraparoundField encodes a count/length value using the static layout's
// "0 denotes 2^(8W)" convention (spec §6): values in [1, limit] are stored
// as-is except `limit` itself, which wraps to 0. limit == 0 means W == 8,
// where no wraparound is needed (2^64 doesn't fit in uint64 anyway).
func wraparoundField(v uint64, limit uint64) uint64 {
	if limit != 0 && v == limit {
		return 0
	}
	return v
}

// unwraparoundField reverses wraparoundField.
func unwraparoundField(stored uint64, limit uint64) uint64 {
	if stored == 0 && limit != 0 {
		return limit
	}
	return stored
}

// writeStaticHeader writes the full fixed-layout static header (spec §6),
// including the dummy_codeword_bits field: the caller must already know
// the total encoded bit length, which for the static coder is computable
// analytically from the frequency table and code lengths before the
// content re-scan (sum of freq[s]*length[s] over all symbols).
func writeStaticHeader(bw *bitWriter, bitsPerSymbol byte, dummySymbolBytes byte, lengths map[uint64]int, dummyCodewordBits byte) {
	w := int(bitsPerSymbol / 8)
	limit := symbolLimit(w)

	bw.WriteByte(bitsPerSymbol)
	bw.WriteByte(dummySymbolBytes)

	writeWBytes(bw, wraparoundField(uint64(len(lengths)), limit), w)

	syms := make([]uint64, 0, len(lengths))
	for s := range lengths {
		syms = append(syms, s)
	}
	slices.Sort(syms)

	for _, s := range syms {
		writeWBytes(bw, s, w)
		writeWBytes(bw, wraparoundField(uint64(lengths[s]), limit), w)
	}

	bw.WriteByte(dummyCodewordBits)
}

// readStaticHeader reads the static header's remaining fields, given the
// bits_per_symbol byte the caller already read and checked against
// staticSentinelEmpty.
func readStaticHeader(br *bitReader, bitsPerSymbol byte) (dummySymbolBytes byte, lengths map[uint64]int, dummyCodewordBits byte, err error) {
	if bitsPerSymbol == 0 || bitsPerSymbol%8 != 0 || bitsPerSymbol > maxSymbolWidth*8 {
		return 0, nil, 0, fmt.Errorf("%w: bits-per-symbol %d", ErrInvalidHeader, bitsPerSymbol)
	}
	w := int(bitsPerSymbol / 8)
	limit := symbolLimit(w)

	dummySymbolBytes, err = br.ReadByte()
	if err != nil {
		return 0, nil, 0, fmt.Errorf("%w: truncated static header: %v", ErrInvalidHeader, err)
	}
	if int(dummySymbolBytes) >= w {
		return 0, nil, 0, fmt.Errorf("%w: dummy symbol bytes %d >= width %d", ErrInvalidHeader, dummySymbolBytes, w)
	}

	rawDictSize, err := readWBytes(br, w)
	if err != nil {
		return 0, nil, 0, fmt.Errorf("%w: truncated code dictionary size: %v", ErrInvalidHeader, err)
	}
	dictSize := unwraparoundField(rawDictSize, limit)

	lengths = make(map[uint64]int, dictSize)
	for i := uint64(0); i < dictSize; i++ {
		sym, err := readWBytes(br, w)
		if err != nil {
			return 0, nil, 0, fmt.Errorf("%w: truncated code dictionary: %v", ErrInvalidHeader, err)
		}
		rawLen, err := readWBytes(br, w)
		if err != nil {
			return 0, nil, 0, fmt.Errorf("%w: truncated code dictionary: %v", ErrInvalidHeader, err)
		}
		lengths[sym] = int(unwraparoundField(rawLen, limit))
	}

	dummyCodewordBits, err = br.ReadByte()
	if err != nil {
		return 0, nil, 0, fmt.Errorf("%w: truncated static header: %v", ErrInvalidHeader, err)
	}
	if dummyCodewordBits > 7 {
		return 0, nil, 0, fmt.Errorf("%w: dummy codeword bits %d", ErrInvalidHeader, dummyCodewordBits)
	}

	return dummySymbolBytes, lengths, dummyCodewordBits, nil
}

// staticContentBits returns the total number of codeword bits the content
// re-scan will emit, computed analytically from frequency counts and code
// lengths so the header's dummy_codeword_bits field can be written before
// that re-scan happens.
func staticContentBits(freq map[uint64]uint64, lengths map[uint64]int) uint64 {
	var total uint64
	for sym, count := range freq {
		total += count * uint64(lengths[sym])
	}
	return total
}

func dummyBitsFor(totalBits uint64) byte {
	rem := totalBits % 8
	if rem == 0 {
		return 0
	}
	return byte(8 - rem)
}
