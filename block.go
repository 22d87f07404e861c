package huffc

import "slices"

// block is an equivalence class of arena nodes sharing a weight (spec
// §3 "Block", §4.4). Nodes are kept in a plain slice with a dirty flag
// rather than a balanced ordered container: design notes §9 endorse this
// ("a list with marked re-sort... acceptable because only blocks touched
// by the current update are dirty"), following original_source/block.py's
// heap-per-block approach but without paying a re-sort on every touch.
type block struct {
	weight uint64
	nodes  []int // arena indices
	dirty  bool
}

// blockManager maintains weight -> block and holds only weak references
// (arena indices) to nodes; it never owns them (spec §3 "Ownership").
// Grounded on original_source/block.py's BlockManager, generalized from
// Python object identity to arena indices.
type blockManager struct {
	a      *arena
	blocks map[uint64]*block
	// owner[idx] is the weight of the block idx currently belongs to, so
	// remove() doesn't need to scan every block.
	owner map[int]uint64
}

func newBlockManager(a *arena) *blockManager {
	return &blockManager{
		a:      a,
		blocks: make(map[uint64]*block),
		owner:  make(map[int]uint64),
	}
}

// insert adds idx into the block for its current weight, creating the
// block if needed.
func (bm *blockManager) insert(idx int) {
	w := bm.a.nodes[idx].weight
	b, ok := bm.blocks[w]
	if !ok {
		b = &block{weight: w}
		bm.blocks[w] = b
	}
	b.nodes = append(b.nodes, idx)
	b.dirty = true
	bm.owner[idx] = w
}

// remove takes idx out of whichever block it currently belongs to.
func (bm *blockManager) remove(idx int) {
	w, ok := bm.owner[idx]
	if !ok {
		return
	}
	delete(bm.owner, idx)

	b := bm.blocks[w]
	for i, n := range b.nodes {
		if n == idx {
			b.nodes = slices.Delete(b.nodes, i, i+1)
			break
		}
	}
	if len(b.nodes) == 0 {
		delete(bm.blocks, w)
	}
}

// increment removes idx from its block, bumps its weight by one, and
// reinserts it into the w+1 block (spec §4.4 "increment").
func (bm *blockManager) increment(idx int) {
	bm.remove(idx)
	bm.a.nodes[idx].weight++
	bm.insert(idx)
}

// markUpdate signals that depth mutations touched the block at weight w;
// its ordering is re-established lazily, on the next query that needs it.
func (bm *blockManager) markUpdate(w uint64) {
	if b, ok := bm.blocks[w]; ok {
		b.dirty = true
	}
}

// sortOrder orders nodes by (depth ascending, then rightmost-first among
// equal depths): the block's front is the shallowest node, tie-broken by
// actual tree position via arena.siblingOrder rather than creation order
// (node `id` reflects when a node was allocated, not where it sits in the
// tree, and using it as a rightmost proxy is wrong - see arena.siblingOrder
// for why). This is the representative.
func (bm *blockManager) sortOrder(b *block) {
	if !b.dirty {
		return
	}
	slices.SortFunc(b.nodes, func(x, y int) int {
		nx, ny := &bm.a.nodes[x], &bm.a.nodes[y]
		if nx.depth != ny.depth {
			return nx.depth - ny.depth
		}
		if x == y {
			return 0
		}
		return -bm.a.siblingOrder(x, y)
	})
	b.dirty = false
}

// representative returns the highest-ordered node sharing idx's weight
// (spec §4.4 "representative"): the shallowest, and at equal depth the
// rightmost (by actual tree position).
func (bm *blockManager) representative(idx int) int {
	w := bm.a.nodes[idx].weight
	b := bm.blocks[w]
	bm.sortOrder(b)
	return b.nodes[0]
}

// flush re-sorts every dirty block and drops any that emptied out (spec
// §4.4 "flush").
func (bm *blockManager) flush() {
	for w, b := range bm.blocks {
		if len(b.nodes) == 0 {
			delete(bm.blocks, w)
			continue
		}
		bm.sortOrder(b)
	}
}

// rebuild discards every block and reinserts every node in the arena,
// used after a shrink pass renumbers weights (spec §4.4 "rebuild").
// nodeIndices lists every node currently live in the tree.
func (bm *blockManager) rebuild(nodeIndices []int) {
	bm.blocks = make(map[uint64]*block)
	bm.owner = make(map[int]uint64)
	for _, idx := range nodeIndices {
		bm.insert(idx)
	}
}
