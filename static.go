package huffc

import (
	"container/heap"
	"fmt"
	"slices"
)

// codeEntry is a codeword: the low `length` bits of code, MSB first.
type codeEntry struct {
	code   uint64
	length int
}

// freqNode is a node of the naive merge tree built from a frequency table.
// Only used transiently to derive code lengths; discarded once lengths are
// known (spec §4.2: "derive code-lengths by depth, discard the tree").
type freqNode struct {
	symbol      uint64
	isLeaf      bool
	seq         int // tiebreak for internal nodes: creation order
	weight      uint64
	left, right *freqNode
	depth       int
}

// freqHeap is a min-priority-queue over freqNode, ordered by (weight,
// tiebreak). Leaves tie-break by ascending symbol value (spec §4.2: "among
// equal weights, lower symbol value wins"); internal nodes tie-break by
// creation order, and any leaf outranks any internal node of equal weight.
// Modeled on the teacher's htHeap (container/heap over *htNode).
type freqHeap []*freqNode

func (h freqHeap) Len() int { return len(h) }

func (h freqHeap) Less(i, j int) bool {
	a, b := h[i], h[j]
	if a.weight != b.weight {
		return a.weight < b.weight
	}
	if a.isLeaf != b.isLeaf {
		return a.isLeaf
	}
	if a.isLeaf {
		return a.symbol < b.symbol
	}
	return a.seq < b.seq
}

func (h freqHeap) Swap(i, j int) { h[i], h[j] = h[j], h[i] }

func (h *freqHeap) Push(x any) { *h = append(*h, x.(*freqNode)) }

func (h *freqHeap) Pop() any {
	old := *h
	n := len(old)
	item := old[n-1]
	old[n-1] = nil
	*h = old[:n-1]
	return item
}

// computeCodeLengths runs the standard two-smallest merge (spec §4.2:
// "Standard two-smallest merge using a min-priority queue") and returns the
// depth of every symbol in the resulting tree.
func computeCodeLengths(freq map[uint64]uint64) map[uint64]int {
	lengths := make(map[uint64]int, len(freq))

	if len(freq) == 1 {
		for sym := range freq {
			lengths[sym] = 1
		}
		return lengths
	}

	h := make(freqHeap, 0, len(freq))
	for sym, w := range freq {
		h = append(h, &freqNode{symbol: sym, isLeaf: true, weight: w})
	}
	heap.Init(&h)

	seq := 0
	for len(h) > 1 {
		n1 := heap.Pop(&h).(*freqNode)
		n2 := heap.Pop(&h).(*freqNode)
		heap.Push(&h, &freqNode{
			weight: n1.weight + n2.weight,
			left:   n1,
			right:  n2,
			seq:    seq,
		})
		seq++
	}

	var walk func(n *freqNode, depth int)
	walk = func(n *freqNode, depth int) {
		if n.isLeaf {
			lengths[n.symbol] = depth
			return
		}
		walk(n.left, depth+1)
		walk(n.right, depth+1)
	}
	walk(h[0], 0)

	return lengths
}

// codeLenSortable pairs a symbol with its code length for the canonical
// sort described in spec §4.2 step 1.
type codeLenSortable struct {
	symbol uint64
	length int
}

// sortedByLengthDescSymbolDesc implements spec §4.2 step 1: "Sort leaves by
// (length descending, symbol descending)". Grounded on
// original_source/huffman_tree.py's CodeLenNode.__lt__ /
// _build_by_code_len, which sorts into exactly this order.
func sortedByLengthDescSymbolDesc(lengths map[uint64]int) []codeLenSortable {
	out := make([]codeLenSortable, 0, len(lengths))
	for sym, l := range lengths {
		out = append(out, codeLenSortable{symbol: sym, length: l})
	}
	slices.SortFunc(out, func(a, b codeLenSortable) int {
		if a.length != b.length {
			return b.length - a.length
		}
		if a.symbol > b.symbol {
			return -1
		}
		if a.symbol < b.symbol {
			return 1
		}
		return 0
	})
	return out
}

// canonicalBuild constructs the canonical tree shape described in spec
// §4.2 steps 2-3, as an arena of nodes, and returns that arena and the
// index of the root. It is a direct generalisation (uint64
// symbols, arbitrary W) of original_source/huffman_tree.py's
// _build_by_code_len level-by-level frontier construction.
func canonicalBuild(lengths map[uint64]int) (*arena, int, error) {
	a := newArena()

	if len(lengths) == 0 {
		return a, -1, fmt.Errorf("%w: empty code-length table", ErrInvalidCodeLengths)
	}

	if len(lengths) == 1 {
		root := a.newInternal(-1)
		for sym := range lengths {
			leaf := a.newLeaf(root, sym)
			a.nodes[root].left = leaf
		}
		return a, root, nil
	}

	sorted := sortedByLengthDescSymbolDesc(lengths)
	maxLen := sorted[0].length
	if maxLen < 1 {
		return nil, -1, fmt.Errorf("%w: non-positive code length", ErrInvalidCodeLengths)
	}

	root := a.newInternal(-1)
	parents := []int{root}
	pending := sorted // tail (smallest remaining length) consumed first

	for length := 1; length <= maxLen; length++ {
		var group []codeLenSortable
		if len(pending) > 0 && pending[len(pending)-1].length == length {
			idx := len(pending) - 1
			for idx > 0 && pending[idx-1].length == length {
				idx--
			}
			group = pending[idx:]
			pending = pending[:idx]
		}

		var nextParents []int
		for _, p := range parents {
			if len(group) > 0 {
				sym := group[len(group)-1].symbol
				group = group[:len(group)-1]
				a.nodes[p].left = a.newLeaf(p, sym)
			} else {
				child := a.newInternal(p)
				a.nodes[p].left = child
				nextParents = append(nextParents, child)
			}

			if len(group) > 0 {
				sym := group[len(group)-1].symbol
				group = group[:len(group)-1]
				a.nodes[p].right = a.newLeaf(p, sym)
			} else {
				child := a.newInternal(p)
				a.nodes[p].right = child
				nextParents = append(nextParents, child)
			}
		}
		if len(group) != 0 {
			return nil, -1, fmt.Errorf("%w: more code lengths of %d than free slots", ErrInvalidCodeLengths, length)
		}
		parents = nextParents
	}

	if len(pending) != 0 {
		return nil, -1, fmt.Errorf("%w: code lengths left unconsumed", ErrInvalidCodeLengths)
	}

	return a, root, nil
}

// deriveCodeTable walks the canonical tree computing each leaf's root-to-
// leaf bit path (0 on a left edge, 1 on a right edge), matching spec
// §4.2's "Encode: walk the precomputed symbol -> bitstring table."
func deriveCodeTable(a *arena, root int) map[uint64]codeEntry {
	table := make(map[uint64]codeEntry)

	var walk func(idx int, code uint64, length int)
	walk = func(idx int, code uint64, length int) {
		n := &a.nodes[idx]
		if n.kind == nodeLeaf {
			table[n.symbol] = codeEntry{code: code, length: length}
			return
		}
		if n.left >= 0 {
			walk(n.left, code<<1, length+1)
		}
		if n.right >= 0 {
			walk(n.right, code<<1|1, length+1)
		}
	}
	walk(root, 0, 0)

	return table
}
