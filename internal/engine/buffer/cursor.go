package buffer

import "fmt"

// Cursor is a position in a buffer.
type Cursor struct {
	Row int
	Col int
}

// String returns the cursor in "row:col" form.
func (c Cursor) String() string {
	return fmt.Sprintf("%d:%d", c.Row, c.Col)
}

// TextEvent describes the effect of an edit or key on a buffer.
type TextEvent uint8

const (
	// NoChange means neither text nor cursor changed.
	NoChange TextEvent = iota
	// CursorMoved means only the cursor changed.
	CursorMoved
	// TextChanged means the text changed (the cursor may have moved too).
	TextChanged
)

// String returns a readable name for the event.
func (e TextEvent) String() string {
	switch e {
	case NoChange:
		return "NoChange"
	case CursorMoved:
		return "CursorMoved"
	case TextChanged:
		return "TextChanged"
	default:
		return fmt.Sprintf("TextEvent(%d)", e)
	}
}
