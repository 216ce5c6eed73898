// Package key provides the key event types consumed by the keypress pipeline.
//
// This package defines the fundamental types for representing keyboard input:
//
//   - Key: Identifies a keyboard key (special keys or runes)
//   - Modifier: Represents modifier keys (Ctrl, Alt, Shift, Meta)
//   - Event: A single key press with modifiers and timestamp
//
// Events can be written as specifications such as "a", "Enter", "Alt+Up"
// or "Ctrl+Down" and parsed with Parse. Terminal front ends convert
// tcell key events with FromTcell.
package key
