package arbor

import (
	"context"
	"errors"
	"fmt"
	"log"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.lsp.dev/protocol"

	"github.com/jward/arbor/internal/journal"
	"github.com/jward/arbor/internal/projector"
	"github.com/jward/arbor/internal/syntax"
)

var errNoLanguage = errors.New("no grammar for document")

// Manager owns the session registry: at most one session per document. It is
// safe for concurrent use.
type Manager struct {
	provider    syntax.Provider
	editor      Editor
	renderers   RendererFactory
	resolver    *syntax.Resolver
	journal     Journal
	logger      *log.Logger
	defaultMode projector.Mode

	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup

	mu       sync.Mutex
	sessions map[protocol.DocumentURI]*session
	closed   bool
}

// session is one live visualization. Fields below deliver are guarded by
// Manager.mu.
type session struct {
	id       string
	uri      protocol.DocumentURI
	language string
	renderer Renderer

	// deliver serializes renders so that delivery order matches the order of
	// the staleness checks.
	deliver sync.Mutex

	text        string
	mode        projector.Mode
	selections  []protocol.Range
	seq         uint64
	errReported bool
}

func (s *session) info() SessionInfo {
	return SessionInfo{ID: s.id, URI: s.uri, Language: s.language, Mode: s.mode}
}

// Option configures a Manager.
type Option func(*Manager)

// WithLogger sets the logger for dropped commands, discarded refreshes, and
// renderer failures. Defaults to log.Default().
func WithLogger(l *log.Logger) Option {
	return func(m *Manager) {
		m.logger = l
	}
}

// WithJournal records the outcome of every refresh.
func WithJournal(j Journal) Option {
	return func(m *Manager) {
		m.journal = j
	}
}

// WithResolver sets how documents are mapped to languages. The default
// resolver uses the editor language ID, then the file extension.
func WithResolver(r *syntax.Resolver) Option {
	return func(m *Manager) {
		m.resolver = r
	}
}

// WithDefaultMode sets the traversal mode used when OpenSession is called
// with an empty mode.
func WithDefaultMode(mode projector.Mode) Option {
	return func(m *Manager) {
		m.defaultMode = mode
	}
}

// New creates a Manager. Refreshes parse with provider, render through
// renderers created per session, and route node interactions to editor.
func New(provider syntax.Provider, editor Editor, renderers RendererFactory, opts ...Option) *Manager {
	ctx, cancel := context.WithCancel(context.Background())
	m := &Manager{
		provider:    provider,
		editor:      editor,
		renderers:   renderers,
		logger:      log.Default(),
		defaultMode: projector.Structural,
		ctx:         ctx,
		cancel:      cancel,
		sessions:    make(map[protocol.DocumentURI]*session),
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// OpenSession projects doc once under mode with the editor's current
// selections, creates its Renderer, registers the session, and renders the
// first tree. It fails with *AlreadyOpenError if doc already has a session
// and with *syntax.ProviderUnavailableError if no provider serves its
// language.
func (m *Manager) OpenSession(ctx context.Context, doc Document, mode projector.Mode) (SessionInfo, error) {
	if existing, ok := m.Session(doc.URI); ok {
		return SessionInfo{}, &AlreadyOpenError{URI: doc.URI, SessionID: existing.ID}
	}
	if mode == "" {
		mode = m.defaultMode
	}
	if !mode.Valid() {
		return SessionInfo{}, fmt.Errorf("arbor: unknown traversal mode %q", mode)
	}

	lang, ok := m.resolver.Resolve(doc.LanguageID, string(doc.URI))
	if !ok {
		return SessionInfo{}, &syntax.ProviderUnavailableError{Language: doc.LanguageID, Err: errNoLanguage}
	}

	selections := cloneRanges(m.editor.ActiveSelections(doc.URI))
	start := time.Now()
	root, err := m.project(ctx, doc.Text, lang, mode, selections)
	if err != nil {
		return SessionInfo{}, err
	}

	s := &session{
		id:         uuid.NewString(),
		uri:        doc.URI,
		language:   lang,
		text:       doc.Text,
		mode:       mode,
		selections: selections,
	}
	s.renderer, err = m.renderers(s.info())
	if err != nil {
		return SessionInfo{}, fmt.Errorf("arbor: create renderer: %w", err)
	}

	// Hold deliver across registration so that no refresh can render before
	// the first tree.
	s.deliver.Lock()
	defer s.deliver.Unlock()

	m.mu.Lock()
	if m.closed {
		m.mu.Unlock()
		return SessionInfo{}, errors.New("arbor: manager closed")
	}
	if existing, ok := m.sessions[doc.URI]; ok {
		m.mu.Unlock()
		return SessionInfo{}, &AlreadyOpenError{URI: doc.URI, SessionID: existing.id}
	}
	m.sessions[doc.URI] = s
	info := s.info()
	m.mu.Unlock()

	view := View{URI: s.uri, SessionID: s.id, Language: lang, Mode: mode, Seq: 0, Tree: root}
	if err := s.renderer.Render(ctx, view); err != nil {
		m.logger.Printf("arbor: render %s: %v", s.uri, err)
	}
	m.record(s, refresh{seq: 0, mode: mode}, journal.Delivered, root.Count(), time.Since(start), nil)
	return info, nil
}

// DocumentChanged re-projects the document's session against text. Documents
// without a session are ignored.
func (m *Manager) DocumentChanged(uri protocol.DocumentURI, text string) {
	m.mu.Lock()
	s, ok := m.sessions[uri]
	if !ok {
		m.mu.Unlock()
		return
	}
	s.text = text
	r := m.schedule(s)
	m.mu.Unlock()

	m.start(s, r)
}

// SelectionChanged stores the document's selections and re-projects when the
// primary selection changed. Documents without a session are ignored.
func (m *Manager) SelectionChanged(uri protocol.DocumentURI, selections []protocol.Range) {
	m.mu.Lock()
	s, ok := m.sessions[uri]
	if !ok {
		m.mu.Unlock()
		return
	}
	changed := primaryChanged(s.selections, selections)
	s.selections = cloneRanges(selections)
	if !changed {
		m.mu.Unlock()
		return
	}
	r := m.schedule(s)
	m.mu.Unlock()

	m.start(s, r)
}

// ModeChanged switches the session's traversal mode and re-projects.
// Documents without a session are ignored.
func (m *Manager) ModeChanged(uri protocol.DocumentURI, mode projector.Mode) error {
	if !mode.Valid() {
		return fmt.Errorf("arbor: unknown traversal mode %q", mode)
	}
	m.mu.Lock()
	s, ok := m.sessions[uri]
	if !ok {
		m.mu.Unlock()
		return nil
	}
	s.mode = mode
	r := m.schedule(s)
	m.mu.Unlock()

	m.start(s, r)
	return nil
}

// CloseSession removes the document's session. Refreshes still in flight for
// it are discarded when they complete. It reports whether a session was
// removed.
func (m *Manager) CloseSession(uri protocol.DocumentURI) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.sessions[uri]; !ok {
		return false
	}
	delete(m.sessions, uri)
	return true
}

// Session returns the document's session, if any.
func (m *Manager) Session(uri protocol.DocumentURI) (SessionInfo, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	s, ok := m.sessions[uri]
	if !ok {
		return SessionInfo{}, false
	}
	return s.info(), true
}

// Sessions returns every open session ordered by URI.
func (m *Manager) Sessions() []SessionInfo {
	m.mu.Lock()
	out := make([]SessionInfo, 0, len(m.sessions))
	for _, s := range m.sessions {
		out = append(out, s.info())
	}
	m.mu.Unlock()

	sort.Slice(out, func(i, j int) bool { return out[i].URI < out[j].URI })
	return out
}

// Wait blocks until every in-flight refresh has completed.
func (m *Manager) Wait() {
	m.wg.Wait()
}

// Close cancels in-flight refreshes, waits for them, and drops every session.
func (m *Manager) Close() {
	m.mu.Lock()
	m.closed = true
	m.sessions = make(map[protocol.DocumentURI]*session)
	m.mu.Unlock()

	m.cancel()
	m.wg.Wait()
}

// refresh is a snapshot of the inputs to one re-projection.
type refresh struct {
	seq        uint64
	text       string
	mode       projector.Mode
	selections []protocol.Range
}

// schedule assigns the next sequence number. Caller holds m.mu.
func (m *Manager) schedule(s *session) refresh {
	s.seq++
	return refresh{
		seq:        s.seq,
		text:       s.text,
		mode:       s.mode,
		selections: s.selections,
	}
}

func (m *Manager) start(s *session, r refresh) {
	m.mu.Lock()
	if m.closed {
		m.mu.Unlock()
		return
	}
	m.wg.Add(1)
	m.mu.Unlock()

	go func() {
		defer m.wg.Done()
		m.run(s, r)
	}()
}

func (m *Manager) run(s *session, r refresh) {
	start := time.Now()
	root, err := m.project(m.ctx, r.text, s.language, r.mode, r.selections)

	s.deliver.Lock()
	defer s.deliver.Unlock()

	deliverErr := m.check(s, r, err)
	switch {
	case errors.Is(deliverErr, errSessionClosed):
		m.record(s, r, journal.Closed, 0, time.Since(start), err)
	case errors.Is(deliverErr, ErrStaleRefresh):
		m.record(s, r, journal.Stale, 0, time.Since(start), err)
	case err != nil:
		m.record(s, r, journal.Failed, 0, time.Since(start), err)
	default:
		view := View{URI: s.uri, SessionID: s.id, Language: s.language, Mode: r.mode, Seq: r.seq, Tree: root}
		if rerr := s.renderer.Render(m.ctx, view); rerr != nil {
			m.logger.Printf("arbor: render %s: %v", s.uri, rerr)
		}
		m.record(s, r, journal.Delivered, root.Count(), time.Since(start), nil)
	}
}

// check decides whether a completed refresh may be delivered. It returns
// errSessionClosed or ErrStaleRefresh for results that must be discarded. A
// failed latest refresh is reported to the user once; a later success re-arms
// the report.
func (m *Manager) check(s *session, r refresh, projectErr error) error {
	m.mu.Lock()
	if current, ok := m.sessions[s.uri]; !ok || current != s {
		m.mu.Unlock()
		return errSessionClosed
	}
	if r.seq != s.seq {
		m.mu.Unlock()
		return ErrStaleRefresh
	}
	if projectErr == nil {
		s.errReported = false
		m.mu.Unlock()
		return nil
	}
	report := !s.errReported
	s.errReported = true
	m.mu.Unlock()

	m.logger.Printf("arbor: refresh %s #%d: %v", s.uri, r.seq, projectErr)
	if report {
		m.editor.ShowError(m.ctx, s.uri, projectErr)
	}
	return nil
}

func (m *Manager) project(ctx context.Context, text, lang string, mode projector.Mode, selections []protocol.Range) (*projector.Node, error) {
	tree, err := m.provider.Parse(ctx, text, syntax.Config{Language: lang})
	if err != nil {
		return nil, err
	}
	return projector.Project(tree, mode, selections)
}

func (m *Manager) record(s *session, r refresh, outcome journal.Outcome, nodes int, d time.Duration, err error) {
	if m.journal == nil {
		return
	}
	e := &journal.Entry{
		SessionID: s.id,
		URI:       string(s.uri),
		Seq:       r.seq,
		Mode:      string(r.mode),
		Outcome:   outcome,
		NodeCount: nodes,
		Duration:  d,
	}
	if err != nil {
		e.Error = err.Error()
	}
	if _, jerr := m.journal.Record(e); jerr != nil {
		m.logger.Printf("arbor: journal %s #%d: %v", s.uri, r.seq, jerr)
	}
}

// primaryChanged compares the primary (first) selection of two sets.
func primaryChanged(old, cur []protocol.Range) bool {
	if len(old) == 0 || len(cur) == 0 {
		return len(old) != len(cur)
	}
	return old[0] != cur[0]
}

func cloneRanges(rs []protocol.Range) []protocol.Range {
	if rs == nil {
		return nil
	}
	out := make([]protocol.Range, len(rs))
	copy(out, rs)
	return out
}
