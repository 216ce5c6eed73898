package rope

import (
	"strings"
	"unicode/utf8"
)

// Tree shape constants.
const (
	// MaxLeafRunes is the largest leaf produced when building or merging.
	MaxLeafRunes = 512

	// maxDepth triggers a rebuild of the tree when exceeded.
	maxDepth = 48
)

// node is a rope tree node. Leaves have no children and carry text.
// Nodes are never mutated after construction.
type node struct {
	left, right *node
	text        string

	runes int
	lines int // newline count
	depth int
}

func newLeaf(s string) *node {
	return &node{
		text:  s,
		runes: utf8.RuneCountInString(s),
		lines: strings.Count(s, "\n"),
	}
}

func newBranch(left, right *node) *node {
	return &node{
		left:  left,
		right: right,
		runes: left.runes + right.runes,
		lines: left.lines + right.lines,
		depth: max(left.depth, right.depth) + 1,
	}
}

func (n *node) isLeaf() bool {
	return n.left == nil && n.right == nil
}

// concat joins two subtrees, merging small leaves.
func concat(a, b *node) *node {
	switch {
	case a == nil || a.runes == 0:
		return b
	case b == nil || b.runes == 0:
		return a
	}

	if a.isLeaf() && b.isLeaf() && a.runes+b.runes <= MaxLeafRunes {
		return newLeaf(a.text + b.text)
	}

	// Fold a small leaf into an adjacent small leaf to keep leaves dense.
	if b.isLeaf() && !a.isLeaf() && a.right.isLeaf() && a.right.runes+b.runes <= MaxLeafRunes {
		return newBranch(a.left, newLeaf(a.right.text+b.text))
	}
	if a.isLeaf() && !b.isLeaf() && b.left.isLeaf() && a.runes+b.left.runes <= MaxLeafRunes {
		return newBranch(newLeaf(a.text+b.left.text), b.right)
	}

	n := newBranch(a, b)
	if n.depth > maxDepth {
		return rebuild(n)
	}
	return n
}

// split divides the subtree at rune offset i.
func split(n *node, i int) (*node, *node) {
	if n == nil {
		return nil, nil
	}
	if i <= 0 {
		return nil, n
	}
	if i >= n.runes {
		return n, nil
	}

	if n.isLeaf() {
		b := runeByteOffset(n.text, i)
		return newLeaf(n.text[:b]), newLeaf(n.text[b:])
	}

	if i < n.left.runes {
		l, r := split(n.left, i)
		return l, concat(r, n.right)
	}
	l, r := split(n.right, i-n.left.runes)
	return concat(n.left, l), r
}

// rebuild produces a balanced tree from the leaves of n.
func rebuild(n *node) *node {
	var leaves []*node
	collectLeaves(n, &leaves)
	return buildBalanced(leaves)
}

func collectLeaves(n *node, out *[]*node) {
	if n == nil {
		return
	}
	if n.isLeaf() {
		if n.runes > 0 {
			*out = append(*out, n)
		}
		return
	}
	collectLeaves(n.left, out)
	collectLeaves(n.right, out)
}

func buildBalanced(leaves []*node) *node {
	switch len(leaves) {
	case 0:
		return nil
	case 1:
		return leaves[0]
	}
	mid := len(leaves) / 2
	return newBranch(buildBalanced(leaves[:mid]), buildBalanced(leaves[mid:]))
}

// newlineOffset returns the rune offset of the k-th newline (1-based) in n.
func (n *node) newlineOffset(k int) int {
	offset := 0
	for !n.isLeaf() {
		if k <= n.left.lines {
			n = n.left
			continue
		}
		k -= n.left.lines
		offset += n.left.runes
		n = n.right
	}

	idx := 0
	for _, r := range n.text {
		if r == '\n' {
			k--
			if k == 0 {
				return offset + idx
			}
		}
		idx++
	}
	return offset + idx
}

// newlinesBefore counts newlines in the first i runes of n.
func (n *node) newlinesBefore(i int) int {
	count := 0
	for !n.isLeaf() {
		if i <= n.left.runes {
			n = n.left
			continue
		}
		count += n.left.lines
		i -= n.left.runes
		n = n.right
	}

	b := runeByteOffset(n.text, i)
	return count + strings.Count(n.text[:b], "\n")
}

func (n *node) appendTo(sb *strings.Builder) {
	if n == nil {
		return
	}
	if n.isLeaf() {
		sb.WriteString(n.text)
		return
	}
	n.left.appendTo(sb)
	n.right.appendTo(sb)
}

// appendRange writes runes [start, end) of n.
func (n *node) appendRange(sb *strings.Builder, start, end int) {
	if n == nil || start >= end || end <= 0 || start >= n.runes {
		return
	}
	if start <= 0 && end >= n.runes {
		n.appendTo(sb)
		return
	}
	if n.isLeaf() {
		from := runeByteOffset(n.text, max(start, 0))
		to := runeByteOffset(n.text, min(end, n.runes))
		sb.WriteString(n.text[from:to])
		return
	}
	n.left.appendRange(sb, start, end)
	n.right.appendRange(sb, start-n.left.runes, end-n.left.runes)
}

func (n *node) runeAt(i int) rune {
	for !n.isLeaf() {
		if i < n.left.runes {
			n = n.left
			continue
		}
		i -= n.left.runes
		n = n.right
	}
	r, _ := utf8.DecodeRuneInString(n.text[runeByteOffset(n.text, i):])
	return r
}

// runeByteOffset converts a rune index within s to a byte index.
func runeByteOffset(s string, runeIdx int) int {
	if runeIdx <= 0 {
		return 0
	}
	count := 0
	for b := range s {
		if count == runeIdx {
			return b
		}
		count++
	}
	return len(s)
}

// chunkString splits s into leaves of at most MaxLeafRunes runes.
func chunkString(s string) []*node {
	var leaves []*node
	for len(s) > 0 {
		b := runeByteOffset(s, MaxLeafRunes)
		leaves = append(leaves, newLeaf(s[:b]))
		s = s[b:]
	}
	return leaves
}
