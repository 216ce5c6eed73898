package rope

import "strings"

// Rope is an immutable rope data structure for efficient text storage.
// Operations return new Rope values; the original is never modified.
// The zero value is an empty rope.
type Rope struct {
	root *node
}

// New creates an empty rope.
func New() Rope {
	return Rope{}
}

// FromString creates a rope from a string.
func FromString(s string) Rope {
	if s == "" {
		return New()
	}
	return Rope{root: buildBalanced(chunkString(s))}
}

// Len returns the total number of runes.
func (r Rope) Len() int {
	if r.root == nil {
		return 0
	}
	return r.root.runes
}

// LineCount returns the number of lines (newlines + 1).
func (r Rope) LineCount() int {
	if r.root == nil {
		return 1
	}
	return r.root.lines + 1
}

// IsEmpty returns true if the rope contains no text.
func (r Rope) IsEmpty() bool {
	return r.Len() == 0
}

// String returns the full text as a string.
// Use sparingly for large ropes.
func (r Rope) String() string {
	if r.root == nil {
		return ""
	}
	var sb strings.Builder
	r.root.appendTo(&sb)
	return sb.String()
}

// Slice returns the text in the rune range [start, end).
func (r Rope) Slice(start, end int) string {
	start, end = r.clampRange(start, end)
	if start >= end {
		return ""
	}
	var sb strings.Builder
	r.root.appendRange(&sb, start, end)
	return sb.String()
}

// RuneAt returns the rune at offset i.
// Returns 0 and false if i is out of range.
func (r Rope) RuneAt(i int) (rune, bool) {
	if i < 0 || i >= r.Len() {
		return 0, false
	}
	return r.root.runeAt(i), true
}

// Insert returns a new rope with s inserted at rune offset at.
// Offsets past the end append.
func (r Rope) Insert(at int, s string) Rope {
	if s == "" {
		return r
	}
	at = min(max(at, 0), r.Len())

	var ins *node
	if leaves := chunkString(s); len(leaves) == 1 {
		ins = leaves[0]
	} else {
		ins = buildBalanced(leaves)
	}

	left, right := split(r.root, at)
	return Rope{root: concat(concat(left, ins), right)}
}

// InsertRune returns a new rope with ch inserted at rune offset at.
func (r Rope) InsertRune(at int, ch rune) Rope {
	return r.Insert(at, string(ch))
}

// Delete returns a new rope with the rune range [start, end) removed.
func (r Rope) Delete(start, end int) Rope {
	start, end = r.clampRange(start, end)
	if start >= end {
		return r
	}
	left, rest := split(r.root, start)
	_, right := split(rest, end-start)
	return Rope{root: concat(left, right)}
}

// CharToLine returns the line containing rune offset i.
// Offsets past the end map to the last line.
func (r Rope) CharToLine(i int) int {
	if r.root == nil || i <= 0 {
		return 0
	}
	if i >= r.root.runes {
		return r.root.lines
	}
	return r.root.newlinesBefore(i)
}

// LineToChar returns the rune offset at which line starts.
// Lines past the end map to Len().
func (r Rope) LineToChar(line int) int {
	if r.root == nil || line <= 0 {
		return 0
	}
	if line > r.root.lines {
		return r.root.runes
	}
	return r.root.newlineOffset(line) + 1
}

// Line returns the text of the given line including its trailing newline,
// if any. Returns "" for out-of-range lines.
func (r Rope) Line(line int) string {
	if line < 0 || line >= r.LineCount() {
		return ""
	}
	return r.Slice(r.LineToChar(line), r.LineToChar(line+1))
}

// Lines returns every line without trailing newlines.
func (r Rope) Lines() []string {
	return strings.Split(r.String(), "\n")
}

// Depth reports the height of the underlying tree.
func (r Rope) Depth() int {
	if r.root == nil {
		return 0
	}
	return r.root.depth
}

func (r Rope) clampRange(start, end int) (int, int) {
	n := r.Len()
	start = min(max(start, 0), n)
	end = min(max(end, 0), n)
	return start, end
}
