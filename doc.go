// Package arbor turns a parsed syntax tree of a source document into a
// navigable presentation tree and keeps it synchronized with document edits
// and editor selections. It supports 11 tree-sitter languages: Go,
// JavaScript, TypeScript, TSX, Python, Rust, C, C++, Java, PHP, and Ruby.
//
// # Pipeline
//
// Every refresh runs the same two steps:
//
//  1. Parse: a [Provider] turns document text into a syntax tree. The
//     default provider is tree-sitter.
//
//  2. Project: the tree is walked under a traversal mode (structural or
//     semantic) and converted into presentation nodes annotated with the
//     current selections, which are handed to the session's Renderer.
//
// # Usage
//
// Create a Manager with a provider, an Editor, and a RendererFactory, then
// open a session per document and forward editor events:
//
//	m := arbor.New(arbor.NewTreeSitter(nil), editor, renderers)
//	defer m.Close()
//
//	info, err := m.OpenSession(ctx, arbor.Document{URI: uri, Text: text}, arbor.Structural)
//	if err != nil { ... }
//
//	m.DocumentChanged(uri, newText)
//	m.SelectionChanged(uri, selections)
//	err = m.Dispatch(ctx, uri, arbor.NodeCommand(arbor.NodeActivatedCommand, pair))
//
// Types from the internal packages are re-exported as aliases (Mode, Node,
// Pair, Command, Provider, ...) so callers outside this module can implement
// Editor and Renderer and build commands.
//
// # Sessions
//
// A document has at most one session. [Manager.OpenSession] fails with
// [AlreadyOpenError] for a document that already has one. Change
// notifications for documents without a session are ignored.
//
// Refreshes run on their own goroutines. Each session numbers its refreshes,
// and only the result of the most recently triggered refresh is delivered;
// results that complete after a newer refresh was triggered, or after the
// session was closed, are discarded. Use [WithJournal] to record every
// outcome.
//
// # Commands
//
// Renderers report interactions as [Command] values. [Manager.Dispatch]
// routes mode changes back into the session and node interactions to the
// [Editor] (reveal and select, transient highlight).
//
// # Semantic filter
//
// Semantic traversal hides node kinds chosen by a Risor script. The embedded
// default hides comments. See the internal/filter package for the globals
// exposed to filter scripts.
package arbor
