// Package rope provides an immutable rope for editor text storage.
//
// A rope is a binary tree whose leaves hold short runs of text and whose
// internal nodes cache the rune and newline counts of their subtrees.
// All positions are rune (character) offsets, which is what cursors and
// language servers index by in this editor.
//
// Key features:
//   - O(log n) insertion, deletion, char-to-line and line-to-char lookups
//   - Immutable operations return new ropes; originals are never modified
//   - Unchanged subtrees are shared, so copying a Rope is free
//   - Safe for concurrent read access
//
// Basic usage:
//
//	r := rope.FromString("hello world")
//	r = r.Insert(5, ",")      // "hello, world"
//	r = r.Delete(0, 7)        // "world"
//	line := r.CharToLine(3)   // 0
package rope
