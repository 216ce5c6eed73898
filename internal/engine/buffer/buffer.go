package buffer

import (
	"github.com/marc2332/freya-editor/internal/engine/rope"
)

// Buffer holds the text of one open file and its cursor.
// The zero value is an empty, unnamed buffer.
type Buffer struct {
	path   string
	text   rope.Rope
	cursor Cursor
	edited bool
}

// New creates a buffer for path with the given contents.
// The cursor starts at the origin.
func New(path, text string) Buffer {
	return Buffer{path: path, text: rope.FromString(text)}
}

// Path returns the path the buffer was opened from.
func (b Buffer) Path() string { return b.path }

// Text returns the full contents.
func (b Buffer) Text() string { return b.text.String() }

// Rope returns the underlying rope.
func (b Buffer) Rope() rope.Rope { return b.text }

// Len returns the number of runes in the buffer.
func (b Buffer) Len() int { return b.text.Len() }

// Cursor returns the current cursor.
func (b Buffer) Cursor() Cursor { return b.cursor }

// Edited reports whether the text changed since the buffer was opened.
func (b Buffer) Edited() bool { return b.edited }

// LineCount returns the number of lines. An empty buffer has one line.
func (b Buffer) LineCount() int { return b.text.LineCount() }

// Line returns the text of row without its trailing newline.
func (b Buffer) Line(row int) string {
	s := b.text.Line(row)
	if n := len(s); n > 0 && s[n-1] == '\n' {
		return s[:n-1]
	}
	return s
}

// LineLen returns the number of runes in row, excluding the newline.
// Out-of-range rows have length zero.
func (b Buffer) LineLen(row int) int {
	if row < 0 || row >= b.LineCount() {
		return 0
	}
	end := b.text.LineToChar(row + 1)
	if row+1 < b.LineCount() {
		end-- // newline
	}
	return end - b.text.LineToChar(row)
}

// CharToLine returns the row containing rune offset i.
func (b Buffer) CharToLine(i int) int { return b.text.CharToLine(i) }

// LineToChar returns the rune offset at which row starts.
func (b Buffer) LineToChar(row int) int { return b.text.LineToChar(row) }

// Offset returns the rune offset of c after clamping.
func (b Buffer) Offset(c Cursor) int {
	c = b.Clamp(c)
	return b.text.LineToChar(c.Row) + c.Col
}

// CursorAt returns the cursor for rune offset i.
func (b Buffer) CursorAt(i int) Cursor {
	i = min(max(i, 0), b.text.Len())
	row := b.text.CharToLine(i)
	return Cursor{Row: row, Col: i - b.text.LineToChar(row)}
}

// Clamp returns c moved into the buffer: the row is clamped to the last
// line and the column to that line's length.
func (b Buffer) Clamp(c Cursor) Cursor {
	c.Row = min(max(c.Row, 0), b.LineCount()-1)
	c.Col = min(max(c.Col, 0), b.LineLen(c.Row))
	return c
}

// SetCursor moves the cursor to the clamped position of c.
// Reports whether the cursor changed.
func (b *Buffer) SetCursor(c Cursor) bool {
	c = b.Clamp(c)
	if c == b.cursor {
		return false
	}
	b.cursor = c
	return true
}

// Insert inserts s at rune offset at.
func (b *Buffer) Insert(at int, s string) {
	if s == "" {
		return
	}
	b.text = b.text.Insert(at, s)
	b.edited = true
}

// InsertChar inserts ch at rune offset at.
func (b *Buffer) InsertChar(ch rune, at int) {
	b.Insert(at, string(ch))
}

// Remove deletes the rune range [start, end).
func (b *Buffer) Remove(start, end int) {
	if start >= end {
		return
	}
	before := b.text.Len()
	b.text = b.text.Delete(start, end)
	if b.text.Len() != before {
		b.edited = true
	}
}

// MarkSaved clears the edited flag.
func (b *Buffer) MarkSaved() { b.edited = false }
