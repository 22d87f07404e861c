package huffc

// StaticTree is the canonical two-pass Huffman coder of spec §4.2: built
// once from a frequency table (encoder side) or a code-length table
// (decoder side), then used to encode/decode a whole stream without
// further restructuring.
type StaticTree struct {
	a     *arena
	root  int
	codes map[uint64]codeEntry
	cur   int
}

// NewStaticTreeFromFrequencies builds the canonical tree from a {symbol:
// count} map (spec §4.2 "Construction from frequencies" + "Canonical
// rebuild"). It returns the resulting code-length table too, since the
// encoder needs it to write the static header.
func NewStaticTreeFromFrequencies(freq map[uint64]uint64) (*StaticTree, map[uint64]int, error) {
	lengths := computeCodeLengths(freq)
	t, err := NewStaticTreeFromLengths(lengths)
	if err != nil {
		return nil, nil, err
	}
	return t, lengths, nil
}

// NewStaticTreeFromLengths builds the canonical tree directly from a
// code-length table, the path the decoder takes after reading the static
// header's (symbol, length) dictionary.
func NewStaticTreeFromLengths(lengths map[uint64]int) (*StaticTree, error) {
	a, root, err := canonicalBuild(lengths)
	if err != nil {
		return nil, err
	}
	return &StaticTree{
		a:     a,
		root:  root,
		codes: deriveCodeTable(a, root),
		cur:   root,
	}, nil
}

// Encode returns the codeword for sym, MSB first. ok is false if sym never
// appeared in the frequency table the tree was built from.
func (t *StaticTree) Encode(sym uint64) (code uint64, length int, ok bool) {
	e, found := t.codes[sym]
	if !found {
		return 0, 0, false
	}
	return e.code, e.length, true
}

// DecodeBit descends one bit (spec §4.2 "Decode"). When the walk reaches a
// leaf it returns that leaf's symbol and resets to root for the next
// codeword.
func (t *StaticTree) DecodeBit(bit byte) (symbol uint64, emitted bool) {
	n := &t.a.nodes[t.cur]
	if bit == 0 {
		t.cur = n.left
	} else {
		t.cur = n.right
	}

	leaf := &t.a.nodes[t.cur]
	if leaf.kind == nodeLeaf {
		symbol = leaf.symbol
		t.cur = t.root
		return symbol, true
	}
	return 0, false
}

// AtRoot reports whether the decode walk pointer currently sits at the
// root, i.e. no partial codeword is pending. The decoder must observe
// this true at end-of-stream (spec §4.2, §7 MalformedStream).
func (t *StaticTree) AtRoot() bool {
	return t.cur == t.root
}
