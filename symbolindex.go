package huffc

// symbolIndex maps a symbol value to its leaf's arena index on the encoder
// side. Design notes §9: a dense array is cheap enough for W<=2 (at most
// 65536 slots); wider symbols fall back to a hash map.
type symbolIndex interface {
	get(sym uint64) (int, bool)
	set(sym uint64, leaf int)
}

type denseIndex struct {
	slots []int
}

func newDenseIndex(w int) *denseIndex {
	n := int(symbolLimit(w))
	slots := make([]int, n)
	for i := range slots {
		slots[i] = -1
	}
	return &denseIndex{slots: slots}
}

func (d *denseIndex) get(sym uint64) (int, bool) {
	v := d.slots[sym]
	return v, v >= 0
}

func (d *denseIndex) set(sym uint64, leaf int) {
	d.slots[sym] = leaf
}

type hashIndex struct {
	m map[uint64]int
}

func newHashIndex() *hashIndex {
	return &hashIndex{m: make(map[uint64]int)}
}

func (h *hashIndex) get(sym uint64) (int, bool) {
	v, ok := h.m[sym]
	return v, ok
}

func (h *hashIndex) set(sym uint64, leaf int) {
	h.m[sym] = leaf
}

func newSymbolIndex(w int) symbolIndex {
	if w <= 2 {
		return newDenseIndex(w)
	}
	return newHashIndex()
}
