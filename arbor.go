package arbor

import (
	"context"

	"go.lsp.dev/protocol"

	"github.com/jward/arbor/internal/journal"
	"github.com/jward/arbor/internal/position"
	"github.com/jward/arbor/internal/projector"
)

// Document identifies an editor document and its current contents.
type Document struct {
	URI protocol.DocumentURI
	// LanguageID is the editor's language identifier, e.g. "typescriptreact".
	// It may be empty; the URI's extension is used then.
	LanguageID string
	Text       string
}

// SessionInfo describes an open session.
type SessionInfo struct {
	ID       string
	URI      protocol.DocumentURI
	Language string
	Mode     projector.Mode
}

// View is one presentation tree delivered to a Renderer.
type View struct {
	URI       protocol.DocumentURI `json:"uri"`
	SessionID string               `json:"session"`
	Language  string               `json:"language"`
	Mode      projector.Mode       `json:"mode"`
	Seq       uint64               `json:"seq"`
	Tree      *projector.Node      `json:"tree"`
}

// Renderer displays presentation trees for one session.
type Renderer interface {
	Render(ctx context.Context, v View) error
}

// RendererFunc adapts a function to the Renderer interface.
type RendererFunc func(ctx context.Context, v View) error

// Render implements Renderer.
func (f RendererFunc) Render(ctx context.Context, v View) error { return f(ctx, v) }

// RendererFactory creates the Renderer for a new session.
type RendererFactory func(info SessionInfo) (Renderer, error)

// Editor performs editor-side actions on behalf of a session.
type Editor interface {
	// RevealAndSelect scrolls the range into view and makes it the active
	// selection.
	RevealAndSelect(ctx context.Context, uri protocol.DocumentURI, p position.Pair) error
	// SetHighlight applies a transient highlight over r, or clears it when r
	// is nil.
	SetHighlight(ctx context.Context, uri protocol.DocumentURI, r *protocol.Range) error
	// ActiveSelections returns the document's current selections, primary
	// first.
	ActiveSelections(uri protocol.DocumentURI) []protocol.Range
	// ShowError reports a failure to the user.
	ShowError(ctx context.Context, uri protocol.DocumentURI, err error)
}

// Journal records refresh outcomes. *journal.Store implements it.
type Journal interface {
	Record(e *journal.Entry) (int64, error)
}
