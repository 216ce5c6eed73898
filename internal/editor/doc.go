// Package editor drives one code editor surface: the tab at a fixed
// (panel, tab) position in the state store.
//
// A surface runs independent loops, each consuming one ordered queue:
//
//   - Keypress applies key events to the buffer in arrival order.
//   - CursorSync turns clicks into cursor positions through the layout
//     engine's measurement pass.
//   - HoverLoop asks the language server for hover text.
//
// Loops never open write guards directly. Every mutation goes through
// the store's writer loop and notifies observers of the surface's tab
// scope only.
package editor
