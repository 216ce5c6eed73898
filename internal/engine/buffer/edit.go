package buffer

import (
	"github.com/marc2332/freya-editor/internal/input/key"
)

// ProcessKey applies a single key event at the cursor and reports what
// changed. Modifier repetition (jumping several lines) is the caller's
// concern; ProcessKey always acts once.
func (b *Buffer) ProcessKey(ev key.Event) TextEvent {
	start := b.Clamp(b.cursor)
	moved := start != b.cursor
	b.cursor = start

	switch ev.Key {
	case key.KeyUp, key.KeyDown, key.KeyLeft, key.KeyRight, key.KeyHome, key.KeyEnd:
		if b.move(ev.Key) || moved {
			return CursorMoved
		}
		return NoChange

	case key.KeyEnter:
		b.insertAtCursor("\n")
		return TextChanged

	case key.KeyTab:
		b.insertAtCursor("\t")
		return TextChanged

	case key.KeyBackspace:
		off := b.Offset(b.cursor)
		if off == 0 {
			return b.noEdit(moved)
		}
		b.Remove(off-1, off)
		b.cursor = b.CursorAt(off - 1)
		return TextChanged

	case key.KeyDelete:
		off := b.Offset(b.cursor)
		if off >= b.text.Len() {
			return b.noEdit(moved)
		}
		b.Remove(off, off+1)
		return TextChanged

	case key.KeyRune:
		if !ev.IsChar() {
			return b.noEdit(moved)
		}
		b.insertAtCursor(string(ev.Rune))
		return TextChanged
	}

	return b.noEdit(moved)
}

func (b *Buffer) noEdit(moved bool) TextEvent {
	if moved {
		return CursorMoved
	}
	return NoChange
}

func (b *Buffer) insertAtCursor(s string) {
	off := b.Offset(b.cursor)
	b.Insert(off, s)
	b.cursor = b.CursorAt(off + len([]rune(s)))
}

// move applies a navigation key. Reports whether the cursor changed.
func (b *Buffer) move(k key.Key) bool {
	c := b.cursor
	last := b.LineCount() - 1

	switch k {
	case key.KeyUp:
		if c.Row == 0 {
			c.Col = 0
		} else {
			c.Row--
			c.Col = min(c.Col, b.LineLen(c.Row))
		}
	case key.KeyDown:
		if c.Row == last {
			c.Col = b.LineLen(c.Row)
		} else {
			c.Row++
			c.Col = min(c.Col, b.LineLen(c.Row))
		}
	case key.KeyLeft:
		if c.Col > 0 {
			c.Col--
		} else if c.Row > 0 {
			c.Row--
			c.Col = b.LineLen(c.Row)
		}
	case key.KeyRight:
		if c.Col < b.LineLen(c.Row) {
			c.Col++
		} else if c.Row < last {
			c.Row++
			c.Col = 0
		}
	case key.KeyHome:
		c.Col = 0
	case key.KeyEnd:
		c.Col = b.LineLen(c.Row)
	}

	if c == b.cursor {
		return false
	}
	b.cursor = c
	return true
}
