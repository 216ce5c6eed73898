// Package buffer provides the editor's text buffer: a persistent rope plus
// a single cursor.
//
// Buffer is a value type. Copying a Buffer shares the underlying rope, so
// state snapshots holding buffers are cheap and never observe later edits.
// Mutating methods have pointer receivers and replace the rope in place.
//
// All positions are rune offsets. Rows are zero based; a column is the rune
// offset within the row, excluding the trailing newline.
//
// Basic usage:
//
//	b := buffer.New("main.rs", "fn main() {\n}\n")
//	b.SetCursor(buffer.Cursor{Row: 1, Col: 0})
//	ev := b.ProcessKey(key.NewRuneEvent('x', key.ModNone))
//	// ev == buffer.TextChanged
package buffer
