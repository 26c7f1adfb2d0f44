package rpc

import (
	"go.lsp.dev/protocol"

	"github.com/jward/arbor/internal/command"
	"github.com/jward/arbor/internal/position"
)

// Methods the client sends.
const (
	MethodInitialize       = "initialize"
	MethodInitialized      = "initialized"
	MethodShutdown         = "shutdown"
	MethodExit             = "exit"
	MethodDidOpen          = "textDocument/didOpen"
	MethodDidChange        = "textDocument/didChange"
	MethodDidClose         = "textDocument/didClose"
	MethodSelectionChanged = "arbor/selectionChanged"
	MethodVisualize        = "arbor/visualize"
	MethodCommand          = "arbor/command"
	MethodClose            = "arbor/close"
)

// Notifications the server sends.
const (
	MethodRender          = "arbor/render"
	MethodRevealAndSelect = "arbor/revealAndSelect"
	MethodSetHighlight    = "arbor/setHighlight"
	MethodShowMessage     = "window/showMessage"
)

// SelectionChangedParams carries a document's selections, primary first.
type SelectionChangedParams struct {
	URI        protocol.DocumentURI `json:"uri"`
	Selections []protocol.Range     `json:"selections"`
}

// VisualizeParams opens a session for an open document.
type VisualizeParams struct {
	TextDocument protocol.TextDocumentIdentifier `json:"textDocument"`
	// Mode is the initial traversal mode; empty selects the configured default.
	Mode string `json:"mode,omitempty"`
}

// VisualizeResult identifies the document's session. AlreadyOpen is set when
// the session existed before the request.
type VisualizeResult struct {
	Session     string `json:"session"`
	Language    string `json:"language"`
	Mode        string `json:"mode"`
	AlreadyOpen bool   `json:"alreadyOpen"`
}

// CommandParams carries one renderer command for a document's session.
type CommandParams struct {
	URI     protocol.DocumentURI `json:"uri"`
	Command command.Command      `json:"command"`
}

// CloseParams closes a document's session.
type CloseParams struct {
	URI protocol.DocumentURI `json:"uri"`
}

// RevealParams asks the client to reveal and select a range.
type RevealParams struct {
	URI      protocol.DocumentURI `json:"uri"`
	Range    protocol.Range       `json:"range"`
	Position position.Serialized  `json:"position"`
}

// HighlightParams sets, or clears when Range is nil, a transient highlight.
type HighlightParams struct {
	URI   protocol.DocumentURI `json:"uri"`
	Range *protocol.Range      `json:"range"`
}
