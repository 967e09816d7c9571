// Package avl implements a height-balanced binary search tree ordered
// map keyed by uint32, per spec.md §4.3. It backs the simulator's
// population-by-head-left map; the "first time fully ancestral at a
// locus" bookkeeping is kept in each segment's Samples count instead
// (see arg/segment.go), not in a Map.
package avl

import "github.com/jeromekelleher/coalescent/pool"

// node is one AVL tree node, pool-allocated rather than held in a
// private slice: left/right are pool.Handles into the same arena
// discipline spec.md §9 requires of segments, so the tree's memory
// draws against the simulator's shared max_memory budget exactly the
// way segRecord does (see arg/segment.go).
type node[V any] struct {
	key         uint32
	value       V
	left, right pool.Handle
	height      int8
}

// Map is an ordered map from uint32 to V, implemented as an AVL tree
// backed by a pool.Pool[node[V]].
type Map[V any] struct {
	pool *pool.Pool[node[V]]
	root pool.Handle
	size int
}

// New creates an empty Map whose node arena grows in blocks of
// blockSize, reserving against budget exactly as a segment pool does.
// A nil budget is unbounded.
func New[V any](blockSize int, budget *pool.Budget) *Map[V] {
	if blockSize < 1 {
		blockSize = 64
	}
	return &Map[V]{pool: pool.New[node[V]](blockSize, budget), root: pool.NoHandle}
}

// Len returns the number of entries.
func (m *Map[V]) Len() int { return m.size }

// Find returns the value stored at key and whether it was present.
func (m *Map[V]) Find(key uint32) (V, bool) {
	idx := m.root
	for idx != pool.NoHandle {
		n := m.pool.Get(idx)
		switch {
		case key < n.key:
			idx = n.left
		case key > n.key:
			idx = n.right
		default:
			return n.value, true
		}
	}
	var zero V
	return zero, false
}

// Has reports whether key is present.
func (m *Map[V]) Has(key uint32) bool {
	_, ok := m.Find(key)
	return ok
}

// Insert adds or overwrites the value at key. inserted reports whether
// key was newly added (false if an existing entry was overwritten). err
// is non-nil only if growing the node arena would exceed its budget, in
// which case the map is left unchanged.
func (m *Map[V]) Insert(key uint32, value V) (inserted bool, err error) {
	m.root, inserted, err = m.insert(m.root, key, value)
	if err != nil {
		return false, err
	}
	if inserted {
		m.size++
	}
	return inserted, nil
}

func (m *Map[V]) insert(idx pool.Handle, key uint32, value V) (pool.Handle, bool, error) {
	if idx == pool.NoHandle {
		n, err := m.newNode(key, value)
		if err != nil {
			return pool.NoHandle, false, err
		}
		return n, true, nil
	}

	n := m.pool.Get(idx)
	var inserted bool
	var err error
	switch {
	case key < n.key:
		n.left, inserted, err = m.insert(n.left, key, value)
	case key > n.key:
		n.right, inserted, err = m.insert(n.right, key, value)
	default:
		n.value = value
		return idx, false, nil
	}
	if err != nil {
		return idx, false, err
	}

	return m.rebalance(idx), inserted, nil
}

// Delete removes key, returning whether it was present.
func (m *Map[V]) Delete(key uint32) bool {
	var removed bool
	m.root, removed = m.remove(m.root, key)
	if removed {
		m.size--
	}
	return removed
}

func (m *Map[V]) remove(idx pool.Handle, key uint32) (pool.Handle, bool) {
	if idx == pool.NoHandle {
		return pool.NoHandle, false
	}

	n := m.pool.Get(idx)
	var removed bool
	switch {
	case key < n.key:
		n.left, removed = m.remove(n.left, key)
	case key > n.key:
		n.right, removed = m.remove(n.right, key)
	default:
		removed = true
		switch {
		case n.left == pool.NoHandle:
			right := n.right
			m.release(idx)
			return right, true
		case n.right == pool.NoHandle:
			left := n.left
			m.release(idx)
			return left, true
		default:
			succIdx := n.right
			for m.pool.Get(succIdx).left != pool.NoHandle {
				succIdx = m.pool.Get(succIdx).left
			}
			succKey := m.pool.Get(succIdx).key
			succVal := m.pool.Get(succIdx).value
			n.right, _ = m.remove(n.right, succKey)
			n.key = succKey
			n.value = succVal
		}
	}

	if idx == pool.NoHandle {
		return pool.NoHandle, removed
	}
	return m.rebalance(idx), removed
}

// Min returns the smallest key and its value. ok is false for an empty
// map.
func (m *Map[V]) Min() (key uint32, value V, ok bool) {
	if m.root == pool.NoHandle {
		return 0, value, false
	}
	idx := m.root
	for m.pool.Get(idx).left != pool.NoHandle {
		idx = m.pool.Get(idx).left
	}
	n := m.pool.Get(idx)
	return n.key, n.value, true
}

// Ascend calls fn for every entry in ascending key order, stopping early
// if fn returns false. Traversal uses an explicit stack, mirroring the
// teacher's cursor style (database/btree/cursor.go) rather than
// recursion, so arbitrarily deep trees don't risk stack exhaustion.
func (m *Map[V]) Ascend(fn func(key uint32, value V) bool) {
	var stack []pool.Handle
	idx := m.root
	for idx != pool.NoHandle || len(stack) > 0 {
		for idx != pool.NoHandle {
			stack = append(stack, idx)
			idx = m.pool.Get(idx).left
		}
		idx = stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		n := m.pool.Get(idx)
		if !fn(n.key, n.value) {
			return
		}
		idx = n.right
	}
}

func (m *Map[V]) newNode(key uint32, value V) (pool.Handle, error) {
	h, err := m.pool.Alloc()
	if err != nil {
		return pool.NoHandle, err
	}
	n := m.pool.Get(h)
	n.key, n.value, n.left, n.right, n.height = key, value, pool.NoHandle, pool.NoHandle, 1
	return h, nil
}

func (m *Map[V]) release(idx pool.Handle) {
	m.pool.Free(idx)
}

func (m *Map[V]) heightOf(idx pool.Handle) int8 {
	if idx == pool.NoHandle {
		return 0
	}
	return m.pool.Get(idx).height
}

func (m *Map[V]) updateHeight(idx pool.Handle) {
	n := m.pool.Get(idx)
	lh, rh := m.heightOf(n.left), m.heightOf(n.right)
	if lh > rh {
		n.height = lh + 1
	} else {
		n.height = rh + 1
	}
}

func (m *Map[V]) balanceFactor(idx pool.Handle) int {
	n := m.pool.Get(idx)
	return int(m.heightOf(n.left)) - int(m.heightOf(n.right))
}

func (m *Map[V]) rebalance(idx pool.Handle) pool.Handle {
	m.updateHeight(idx)
	bf := m.balanceFactor(idx)

	if bf > 1 {
		if m.balanceFactor(m.pool.Get(idx).left) < 0 {
			m.pool.Get(idx).left = m.rotateLeft(m.pool.Get(idx).left)
		}
		return m.rotateRight(idx)
	}
	if bf < -1 {
		if m.balanceFactor(m.pool.Get(idx).right) > 0 {
			m.pool.Get(idx).right = m.rotateRight(m.pool.Get(idx).right)
		}
		return m.rotateLeft(idx)
	}
	return idx
}

func (m *Map[V]) rotateLeft(idx pool.Handle) pool.Handle {
	n := m.pool.Get(idx)
	newRoot := n.right
	n.right = m.pool.Get(newRoot).left
	m.pool.Get(newRoot).left = idx
	m.updateHeight(idx)
	m.updateHeight(newRoot)
	return newRoot
}

func (m *Map[V]) rotateRight(idx pool.Handle) pool.Handle {
	n := m.pool.Get(idx)
	newRoot := n.left
	n.left = m.pool.Get(newRoot).right
	m.pool.Get(newRoot).right = idx
	m.updateHeight(idx)
	m.updateHeight(newRoot)
	return newRoot
}
