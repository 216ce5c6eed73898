// Package lsp runs language server sessions and shares them between editors.
//
// One session is started per language server id (for example
// "rust-analyzer") the first time an editor of that language asks for it.
// The session is wrapped in a Bridge that every editor of that language
// shares. The bridge carries an atomic "indexed" flag that the session's
// notification goroutine sets once the server reports it finished
// indexing; hover requests are withheld until then.
//
// # Components
//
//   - Transport: JSON-RPC 2.0 over stdio with Content-Length framing
//   - Server: a language server process implementing Session
//   - Bridge: a shared session plus its indexed flag and opened documents
//   - Manager: lazily creates bridges, deduplicating concurrent creation
//
// # Hover
//
// Hover responses are raw JSON. HoverText collapses the different shapes a
// server may send (markup content, a marked string, an array of marked
// strings) into plain text.
//
// # Thread Safety
//
// Transport, Server, Bridge and Manager are safe for concurrent use.
package lsp
