package repository

import (
	"hash/fnv"
	"time"
)

// Treap-based leaderboard index for the memory store.
//
// Ordering: score DESC, then created_at ASC, then id ASC, so in-order
// traversal yields the leaderboard from best to worst. Nodes are never
// mutated once published: insert and remove copy the path they touch, which
// lets a transaction share the committed tree and discard its own on rollback.

// rankKey is the sort key of one user.
type rankKey struct {
	score   int64
	created int64 // unix nanos
	id      string
}

func keyOf(score int64, created time.Time, id string) rankKey {
	return rankKey{score: score, created: created.UnixNano(), id: id}
}

// before reports whether a ranks ahead of b.
func (a rankKey) before(b rankKey) bool {
	if a.score != b.score {
		return a.score > b.score
	}
	if a.created != b.created {
		return a.created < b.created
	}
	return a.id < b.id
}

// treap node
type rankNode struct {
	key   rankKey
	prio  uint64
	left  *rankNode
	right *rankNode
	size  int
}

func nsize(n *rankNode) int {
	if n == nil {
		return 0
	}
	return n.size
}

func fix(n *rankNode) {
	n.size = 1 + nsize(n.left) + nsize(n.right)
}

// priorityOf derives a stable pseudo-random heap priority from the id.
func priorityOf(id string) uint64 {
	h := fnv.New64a()
	_, _ = h.Write([]byte(id))
	return h.Sum64()
}

// split returns the keys ranking before k and the rest.
func split(n *rankNode, k rankKey) (*rankNode, *rankNode) {
	if n == nil {
		return nil, nil
	}
	c := *n
	if n.key.before(k) {
		var r *rankNode
		c.right, r = split(n.right, k)
		fix(&c)
		return &c, r
	}
	var l *rankNode
	l, c.left = split(n.left, k)
	fix(&c)
	return l, &c
}

// merge joins two trees where every key of a ranks before every key of b.
func merge(a, b *rankNode) *rankNode {
	if a == nil {
		return b
	}
	if b == nil {
		return a
	}
	if a.prio > b.prio {
		c := *a
		c.right = merge(a.right, b)
		fix(&c)
		return &c
	}
	c := *b
	c.left = merge(a, b.left)
	fix(&c)
	return &c
}

func rankInsert(root *rankNode, k rankKey) *rankNode {
	l, r := split(root, k)
	return merge(merge(l, &rankNode{key: k, prio: priorityOf(k.id), size: 1}), r)
}

func rankRemove(root *rankNode, k rankKey) *rankNode {
	l, r := split(root, k)
	if r != nil && first(r) == k {
		r = removeFirst(r)
	}
	return merge(l, r)
}

func first(n *rankNode) rankKey {
	if n == nil {
		return rankKey{}
	}
	for n.left != nil {
		n = n.left
	}
	return n.key
}

func removeFirst(n *rankNode) *rankNode {
	if n.left == nil {
		return n.right
	}
	c := *n
	c.left = removeFirst(n.left)
	fix(&c)
	return &c
}

// collectTop visits keys in rank order and appends the ids accepted by keep
// until limit ids are collected.
func collectTop(n *rankNode, limit int, keep func(id string) bool, out *[]string) {
	if n == nil || len(*out) >= limit {
		return
	}
	collectTop(n.left, limit, keep, out)
	if len(*out) < limit && keep(n.key.id) {
		*out = append(*out, n.key.id)
	}
	if len(*out) < limit {
		collectTop(n.right, limit, keep, out)
	}
}
