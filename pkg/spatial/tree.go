// Package spatial provides a binary search tree over 2D points with
// branch-and-bound nearest-neighbour search.
//
// Keys are ordered lexicographically (X, then Y). The tree is not
// self-balancing: Insert costs O(log n) on random input but degrades to O(n)
// on sorted input. Use Build to construct a balanced tree from a known point
// set by recursive median split.
//
// Nearest prunes a subtree whenever the vertical plane through the splitting
// node is farther from the query than the current best distance. Every point
// in the left subtree has X <= node.X and every point in the right subtree has
// X >= node.X, so the plane distance is a lower bound for the whole subtree.
package spatial

import (
	"math"
	"sort"

	"github.com/OpenTraceLab/OpenTrace3D/pkg/geom"
)

// Entry is a point stored in the tree together with a caller-defined handle.
type Entry struct {
	Point geom.Point
	ID    int
}

type node struct {
	entry       Entry
	left, right *node
}

// Tree is an unbalanced binary search tree keyed by point.
type Tree struct {
	root *node
	size int
}

// New returns an empty tree.
func New() *Tree {
	return &Tree{}
}

// Build returns a balanced tree containing entries. The input slice is not
// modified.
func Build(entries []Entry) *Tree {
	sorted := make([]Entry, len(entries))
	copy(sorted, entries)
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].Point.Less(sorted[j].Point)
	})

	return &Tree{
		root: buildMedian(sorted),
		size: len(sorted),
	}
}

func buildMedian(sorted []Entry) *node {
	if len(sorted) == 0 {
		return nil
	}
	mid := len(sorted) / 2
	return &node{
		entry: sorted[mid],
		left:  buildMedian(sorted[:mid]),
		right: buildMedian(sorted[mid+1:]),
	}
}

// Len returns the number of entries in the tree.
func (t *Tree) Len() int { return t.size }

// Insert adds an entry. Equal keys go to the right subtree.
func (t *Tree) Insert(e Entry) {
	t.size++
	n := &node{entry: e}
	if t.root == nil {
		t.root = n
		return
	}

	cur := t.root
	for {
		if e.Point.Less(cur.entry.Point) {
			if cur.left == nil {
				cur.left = n
				return
			}
			cur = cur.left
		} else {
			if cur.right == nil {
				cur.right = n
				return
			}
			cur = cur.right
		}
	}
}

// Find returns an entry whose point equals q.
func (t *Tree) Find(q geom.Point) (Entry, bool) {
	cur := t.root
	for cur != nil {
		if cur.entry.Point == q {
			return cur.entry, true
		}
		if q.Less(cur.entry.Point) {
			cur = cur.left
		} else {
			cur = cur.right
		}
	}
	return Entry{}, false
}

// Closest descends towards q as an insertion would and returns the last
// entry on that path (or the exact match if one is met first). It is a cheap
// approximation; use Nearest for the true nearest neighbour.
func (t *Tree) Closest(q geom.Point) (Entry, bool) {
	if t.root == nil {
		return Entry{}, false
	}

	cur := t.root
	for {
		if cur.entry.Point == q {
			return cur.entry, true
		}
		next := cur.right
		if q.Less(cur.entry.Point) {
			next = cur.left
		}
		if next == nil {
			return cur.entry, true
		}
		cur = next
	}
}

// Nearest returns the entry closest to q in Euclidean distance.
func (t *Tree) Nearest(q geom.Point) (Entry, float64, bool) {
	return t.NearestFunc(q, nil)
}

// NearestFunc returns the closest entry to q among those accepted by keep.
// A nil keep accepts every entry.
func (t *Tree) NearestFunc(q geom.Point, keep func(Entry) bool) (Entry, float64, bool) {
	s := search{query: q, keep: keep, best: math.Inf(1)}
	s.visit(t.root)
	return s.found, s.best, s.ok
}

type search struct {
	query geom.Point
	keep  func(Entry) bool
	found Entry
	best  float64
	ok    bool
}

func (s *search) visit(n *node) {
	if n == nil {
		return
	}

	if s.keep == nil || s.keep(n.entry) {
		if d := s.query.Distance(n.entry.Point); d < s.best {
			s.best, s.found, s.ok = d, n.entry, true
		}
	}

	near, far := n.right, n.left
	if s.query.Less(n.entry.Point) {
		near, far = n.left, n.right
	}

	s.visit(near)

	// The splitting plane is the vertical line x = node.X.
	if math.Abs(s.query.X-n.entry.Point.X) <= s.best {
		s.visit(far)
	}
}

// Within calls fn for every entry whose point lies in r (boundary
// included). Subtrees entirely left or right of r are skipped.
func (t *Tree) Within(r geom.Rect, fn func(Entry)) {
	var walk func(n *node)
	walk = func(n *node) {
		if n == nil {
			return
		}
		x := n.entry.Point.X
		if x >= r.Min.X {
			walk(n.left)
		}
		if r.Contains(n.entry.Point) {
			fn(n.entry)
		}
		if x <= r.Max.X {
			walk(n.right)
		}
	}
	walk(t.root)
}
