// Package tui draws the editor in a terminal and feeds terminal input
// back into it.
//
// The screen is laid out as follows:
//
//	┌──────────────┬───────────────────────┬───────────────────────┐
//	│ explorer     │ tab bar               │ tab bar               │
//	│              │ gutter │ text         │ gutter │ text         │
//	│              │        │              │        │              │
//	├──────────────┴───────────────────────┴───────────────────────┤
//	│ > command line (while focused)                               │
//	├──────────────────────────────────────────────────────────────┤
//	│ status line                                                  │
//	└──────────────────────────────────────────────────────────────┘
package tui
