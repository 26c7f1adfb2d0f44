// Package rpc bridges arbor to an editor over JSON-RPC 2.0 with LSP framing.
// The client mirrors its documents with the textDocument/* notifications,
// reports selections, and opens sessions with arbor/visualize. The server
// pushes presentation trees and editor actions back as notifications.
package rpc

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log"
	"sync"

	"github.com/sourcegraph/jsonrpc2"
	"go.lsp.dev/protocol"

	"github.com/jward/arbor"
	"github.com/jward/arbor/internal/position"
	"github.com/jward/arbor/internal/projector"
	"github.com/jward/arbor/internal/syntax"
)

// Version is reported to clients in the initialize result.
const Version = "0.1.0"

// Server serves one client connection. It implements arbor.Editor and
// creates a Renderer per session, both of which notify the client.
type Server struct {
	logger      *log.Logger
	managerOpts []arbor.Option
	mgr         *arbor.Manager

	mu         sync.Mutex
	conn       *jsonrpc2.Conn
	docs       map[protocol.DocumentURI]*document
	selections map[protocol.DocumentURI][]protocol.Range
	shutdown   bool
}

type document struct {
	languageID string
	version    int32
	text       string
}

// Option configures a Server.
type Option func(*Server)

// WithLogger sets the server's logger. Defaults to log.Default(). stdout
// carries the protocol, so the logger must not write there.
func WithLogger(l *log.Logger) Option {
	return func(s *Server) {
		s.logger = l
	}
}

// WithManagerOptions passes options through to the session Manager.
func WithManagerOptions(opts ...arbor.Option) Option {
	return func(s *Server) {
		s.managerOpts = append(s.managerOpts, opts...)
	}
}

// NewServer creates a Server whose sessions parse with provider.
func NewServer(provider syntax.Provider, opts ...Option) *Server {
	s := &Server{
		logger:     log.Default(),
		docs:       make(map[protocol.DocumentURI]*document),
		selections: make(map[protocol.DocumentURI][]protocol.Range),
	}
	for _, opt := range opts {
		opt(s)
	}
	mopts := append([]arbor.Option{arbor.WithLogger(s.logger)}, s.managerOpts...)
	s.mgr = arbor.New(provider, s, s.newRenderer, mopts...)
	return s
}

// Manager returns the session manager behind the server.
func (s *Server) Manager() *arbor.Manager {
	return s.mgr
}

// Serve handles requests on rwc until the client disconnects, sends exit, or
// ctx is cancelled. In-flight refreshes are cancelled before it returns.
func (s *Server) Serve(ctx context.Context, rwc io.ReadWriteCloser) error {
	stream := jsonrpc2.NewBufferedStream(rwc, jsonrpc2.VSCodeObjectCodec{})
	conn := jsonrpc2.NewConn(ctx, stream, jsonrpc2.HandlerWithError(s.handle).SuppressErrClosed(), jsonrpc2.SetLogger(s.logger))
	s.setConn(conn)

	select {
	case <-conn.DisconnectNotify():
	case <-ctx.Done():
		conn.Close()
	}
	s.mgr.Close()
	return nil
}

func (s *Server) setConn(conn *jsonrpc2.Conn) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.conn == nil {
		s.conn = conn
	}
}

func (s *Server) notify(ctx context.Context, method string, params any) error {
	s.mu.Lock()
	conn := s.conn
	s.mu.Unlock()
	if conn == nil {
		return errors.New("rpc: not connected")
	}
	return conn.Notify(ctx, method, params)
}

// handle runs on the connection's read goroutine, one message at a time.
// It must never wait on the client, so outbound traffic is notifications
// only.
func (s *Server) handle(ctx context.Context, conn *jsonrpc2.Conn, req *jsonrpc2.Request) (any, error) {
	s.setConn(conn)

	s.mu.Lock()
	shutdown := s.shutdown
	s.mu.Unlock()
	if shutdown && req.Method != MethodExit {
		if req.Notif {
			return nil, nil
		}
		return nil, &jsonrpc2.Error{Code: jsonrpc2.CodeInvalidRequest, Message: "server is shut down"}
	}

	switch req.Method {
	case MethodInitialize:
		return protocol.InitializeResult{
			Capabilities: protocol.ServerCapabilities{
				TextDocumentSync: protocol.TextDocumentSyncKindFull,
			},
			ServerInfo: &protocol.ServerInfo{Name: "arbor", Version: Version},
		}, nil

	case MethodInitialized:
		return nil, nil

	case MethodShutdown:
		s.mu.Lock()
		s.shutdown = true
		s.mu.Unlock()
		s.mgr.Close()
		return nil, nil

	case MethodExit:
		conn.Close()
		return nil, nil

	case MethodDidOpen:
		var params protocol.DidOpenTextDocumentParams
		if err := decode(req, &params); err != nil {
			return nil, err
		}
		s.didOpen(params)
		return nil, nil

	case MethodDidChange:
		var params protocol.DidChangeTextDocumentParams
		if err := decode(req, &params); err != nil {
			return nil, err
		}
		s.didChange(params)
		return nil, nil

	case MethodDidClose:
		var params protocol.DidCloseTextDocumentParams
		if err := decode(req, &params); err != nil {
			return nil, err
		}
		s.mu.Lock()
		delete(s.docs, params.TextDocument.URI)
		delete(s.selections, params.TextDocument.URI)
		s.mu.Unlock()
		return nil, nil

	case MethodSelectionChanged:
		var params SelectionChangedParams
		if err := decode(req, &params); err != nil {
			return nil, err
		}
		s.mu.Lock()
		s.selections[params.URI] = params.Selections
		s.mu.Unlock()
		s.mgr.SelectionChanged(params.URI, params.Selections)
		return nil, nil

	case MethodVisualize:
		var params VisualizeParams
		if err := decode(req, &params); err != nil {
			return nil, err
		}
		return s.visualize(ctx, params)

	case MethodCommand:
		var params CommandParams
		if err := decode(req, &params); err != nil {
			return nil, err
		}
		// Dispatch logs dropped commands; a bad command never fails the
		// connection.
		if err := s.mgr.Dispatch(ctx, params.URI, params.Command); err != nil && !req.Notif {
			return nil, &jsonrpc2.Error{Code: jsonrpc2.CodeInvalidParams, Message: err.Error()}
		}
		return nil, nil

	case MethodClose:
		var params CloseParams
		if err := decode(req, &params); err != nil {
			return nil, err
		}
		s.mgr.CloseSession(params.URI)
		return nil, nil
	}

	if req.Notif {
		return nil, nil
	}
	return nil, &jsonrpc2.Error{Code: jsonrpc2.CodeMethodNotFound, Message: fmt.Sprintf("method not found: %s", req.Method)}
}

func decode(req *jsonrpc2.Request, v any) error {
	if req.Params == nil {
		return &jsonrpc2.Error{Code: jsonrpc2.CodeInvalidParams, Message: "missing params"}
	}
	if err := json.Unmarshal(*req.Params, v); err != nil {
		return &jsonrpc2.Error{Code: jsonrpc2.CodeInvalidParams, Message: err.Error()}
	}
	return nil
}

func (s *Server) didOpen(params protocol.DidOpenTextDocumentParams) {
	item := params.TextDocument
	s.mu.Lock()
	s.docs[item.URI] = &document{
		languageID: string(item.LanguageID),
		version:    item.Version,
		text:       item.Text,
	}
	s.mu.Unlock()
	s.mgr.DocumentChanged(item.URI, item.Text)
}

// didChange applies full-document changes; the server advertises full sync,
// so the last change carries the whole text.
func (s *Server) didChange(params protocol.DidChangeTextDocumentParams) {
	if len(params.ContentChanges) == 0 {
		return
	}
	uri := params.TextDocument.URI
	text := params.ContentChanges[len(params.ContentChanges)-1].Text

	s.mu.Lock()
	doc, ok := s.docs[uri]
	if !ok {
		doc = &document{}
		s.docs[uri] = doc
	}
	doc.version = params.TextDocument.Version
	doc.text = text
	s.mu.Unlock()

	s.mgr.DocumentChanged(uri, text)
}

func (s *Server) visualize(ctx context.Context, params VisualizeParams) (*VisualizeResult, error) {
	uri := params.TextDocument.URI

	s.mu.Lock()
	doc, ok := s.docs[uri]
	var snapshot document
	if ok {
		snapshot = *doc
	}
	s.mu.Unlock()
	if !ok {
		return nil, &jsonrpc2.Error{Code: jsonrpc2.CodeInvalidParams, Message: fmt.Sprintf("document not open: %s", uri)}
	}

	var mode projector.Mode
	if params.Mode != "" {
		m, err := projector.ParseMode(params.Mode)
		if err != nil {
			return nil, &jsonrpc2.Error{Code: jsonrpc2.CodeInvalidParams, Message: err.Error()}
		}
		mode = m
	}

	info, err := s.mgr.OpenSession(ctx, arbor.Document{URI: uri, LanguageID: snapshot.languageID, Text: snapshot.text}, mode)
	var aoe *arbor.AlreadyOpenError
	if errors.As(err, &aoe) {
		existing, ok := s.mgr.Session(uri)
		if !ok {
			// Closed between the two lookups.
			return nil, &jsonrpc2.Error{Code: jsonrpc2.CodeInternalError, Message: err.Error()}
		}
		return &VisualizeResult{
			Session:     existing.ID,
			Language:    existing.Language,
			Mode:        string(existing.Mode),
			AlreadyOpen: true,
		}, nil
	}
	if err != nil {
		s.ShowError(ctx, uri, err)
		return nil, &jsonrpc2.Error{Code: jsonrpc2.CodeInternalError, Message: err.Error()}
	}
	return &VisualizeResult{Session: info.ID, Language: info.Language, Mode: string(info.Mode)}, nil
}

// --- arbor.Editor ---

// RevealAndSelect implements arbor.Editor.
func (s *Server) RevealAndSelect(ctx context.Context, uri protocol.DocumentURI, p position.Pair) error {
	return s.notify(ctx, MethodRevealAndSelect, &RevealParams{URI: uri, Range: p.Range(), Position: p.Serialize()})
}

// SetHighlight implements arbor.Editor.
func (s *Server) SetHighlight(ctx context.Context, uri protocol.DocumentURI, r *protocol.Range) error {
	return s.notify(ctx, MethodSetHighlight, &HighlightParams{URI: uri, Range: r})
}

// ActiveSelections implements arbor.Editor with the last selections the
// client reported.
func (s *Server) ActiveSelections(uri protocol.DocumentURI) []protocol.Range {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.selections[uri]
}

// ShowError implements arbor.Editor.
func (s *Server) ShowError(ctx context.Context, uri protocol.DocumentURI, err error) {
	msg := fmt.Sprintf("arbor: %s: %v", uri, err)
	if nerr := s.notify(ctx, MethodShowMessage, &protocol.ShowMessageParams{Type: protocol.MessageTypeError, Message: msg}); nerr != nil {
		s.logger.Printf("rpc: show message: %v", nerr)
	}
}

func (s *Server) newRenderer(info arbor.SessionInfo) (arbor.Renderer, error) {
	return arbor.RendererFunc(func(ctx context.Context, v arbor.View) error {
		return s.notify(ctx, MethodRender, v)
	}), nil
}
