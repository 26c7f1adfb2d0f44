package arbor

import (
	"errors"
	"fmt"

	"go.lsp.dev/protocol"
)

// ErrStaleRefresh marks a refresh whose result was discarded because a newer
// refresh was triggered for the same session.
var ErrStaleRefresh = errors.New("arbor: stale refresh discarded")

// errSessionClosed marks a refresh that completed after its session closed.
var errSessionClosed = errors.New("arbor: session closed")

// AlreadyOpenError is returned by OpenSession for a document that already has
// a session. Callers route to the existing session instead.
type AlreadyOpenError struct {
	URI       protocol.DocumentURI
	SessionID string
}

func (e *AlreadyOpenError) Error() string {
	return fmt.Sprintf("arbor: session %s already open for %s", e.SessionID, e.URI)
}
