package arbor

import (
	"context"
	"fmt"

	"go.lsp.dev/protocol"

	"github.com/jward/arbor/internal/command"
)

// Dispatch routes a renderer command for uri. Mode changes re-project the
// session; node interactions go to the Editor. Commands for documents without
// a session are ignored.
//
// A malformed or missing position pair drops the command with a
// *position.MalformedPositionError, and an unknown kind or mode with a
// *command.UnknownError. Neither affects the session.
func (m *Manager) Dispatch(ctx context.Context, uri protocol.DocumentURI, cmd command.Command) error {
	if _, ok := m.Session(uri); !ok {
		return nil
	}
	if err := cmd.Validate(); err != nil {
		return m.drop(uri, cmd, err)
	}

	switch cmd.Kind {
	case command.ModeChanged:
		mode, err := cmd.TraversalMode()
		if err != nil {
			return m.drop(uri, cmd, err)
		}
		return m.ModeChanged(uri, mode)

	case command.NodeActivated:
		pair, err := cmd.Pair()
		if err != nil {
			return m.drop(uri, cmd, err)
		}
		if err := m.editor.RevealAndSelect(ctx, uri, pair); err != nil {
			return fmt.Errorf("arbor: reveal %s: %w", uri, err)
		}

	case command.NodeHoverStart:
		pair, err := cmd.Pair()
		if err != nil {
			return m.drop(uri, cmd, err)
		}
		r := pair.Range()
		if err := m.editor.SetHighlight(ctx, uri, &r); err != nil {
			return fmt.Errorf("arbor: highlight %s: %w", uri, err)
		}

	case command.NodeHoverEnd:
		if err := m.editor.SetHighlight(ctx, uri, nil); err != nil {
			return fmt.Errorf("arbor: clear highlight %s: %w", uri, err)
		}
	}
	return nil
}

func (m *Manager) drop(uri protocol.DocumentURI, cmd command.Command, err error) error {
	m.logger.Printf("arbor: dropped %s command for %s: %v", cmd.Kind, uri, err)
	return err
}
