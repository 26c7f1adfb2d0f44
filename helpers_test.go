package arbor

import (
	"context"
	"errors"
	"io"
	"log"
	"sync"
	"testing"

	"github.com/stretchr/testify/require"
	"go.lsp.dev/protocol"

	"github.com/jward/arbor/internal/journal"
	"github.com/jward/arbor/internal/position"
	"github.com/jward/arbor/internal/projector"
	"github.com/jward/arbor/internal/syntax"
)

const testURI = protocol.DocumentURI("file:///src/app.js")

var errBadText = errors.New("refusing to parse")

// gatedProvider parses with tree-sitter but blocks on texts that have a gate
// until the gate is closed, and fails on texts registered as bad.
type gatedProvider struct {
	inner syntax.Provider

	mu    sync.Mutex
	gates map[string]chan struct{}
	bad   map[string]bool
	calls int
}

func newGatedProvider() *gatedProvider {
	return &gatedProvider{
		inner: syntax.NewTreeSitter(),
		gates: make(map[string]chan struct{}),
		bad:   make(map[string]bool),
	}
}

func (p *gatedProvider) gate(text string) chan struct{} {
	p.mu.Lock()
	defer p.mu.Unlock()
	ch := make(chan struct{})
	p.gates[text] = ch
	return ch
}

func (p *gatedProvider) fail(text string) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.bad[text] = true
}

func (p *gatedProvider) callCount() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.calls
}

func (p *gatedProvider) Parse(ctx context.Context, text string, cfg syntax.Config) (*syntax.Tree, error) {
	p.mu.Lock()
	p.calls++
	gate := p.gates[text]
	bad := p.bad[text]
	p.mu.Unlock()

	if gate != nil {
		select {
		case <-gate:
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
	if bad {
		return nil, &syntax.ProviderUnavailableError{Language: cfg.Language, Err: errBadText}
	}
	return p.inner.Parse(ctx, text, cfg)
}

// fakeEditor records every action it is asked to perform.
type fakeEditor struct {
	mu         sync.Mutex
	selections map[protocol.DocumentURI][]protocol.Range
	reveals    []position.Pair
	highlights []*protocol.Range
	errs       []error
}

func newFakeEditor() *fakeEditor {
	return &fakeEditor{selections: make(map[protocol.DocumentURI][]protocol.Range)}
}

func (e *fakeEditor) RevealAndSelect(_ context.Context, _ protocol.DocumentURI, p position.Pair) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.reveals = append(e.reveals, p)
	return nil
}

func (e *fakeEditor) SetHighlight(_ context.Context, _ protocol.DocumentURI, r *protocol.Range) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.highlights = append(e.highlights, r)
	return nil
}

func (e *fakeEditor) ActiveSelections(uri protocol.DocumentURI) []protocol.Range {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.selections[uri]
}

func (e *fakeEditor) ShowError(_ context.Context, _ protocol.DocumentURI, err error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.errs = append(e.errs, err)
}

func (e *fakeEditor) errorCount() int {
	e.mu.Lock()
	defer e.mu.Unlock()
	return len(e.errs)
}

// recordingRenderer collects every view rendered for any session.
type recordingRenderer struct {
	mu    sync.Mutex
	views []View
}

func (r *recordingRenderer) Render(_ context.Context, v View) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.views = append(r.views, v)
	return nil
}

func (r *recordingRenderer) snapshot() []View {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]View(nil), r.views...)
}

func (r *recordingRenderer) count() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.views)
}

func (r *recordingRenderer) last() View {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.views[len(r.views)-1]
}

// memJournal keeps journal entries in memory.
type memJournal struct {
	mu      sync.Mutex
	entries []journal.Entry
}

func (j *memJournal) Record(e *journal.Entry) (int64, error) {
	j.mu.Lock()
	defer j.mu.Unlock()
	j.entries = append(j.entries, *e)
	return int64(len(j.entries)), nil
}

func (j *memJournal) outcomes() map[uint64]journal.Outcome {
	j.mu.Lock()
	defer j.mu.Unlock()
	out := make(map[uint64]journal.Outcome)
	for _, e := range j.entries {
		out[e.Seq] = e.Outcome
	}
	return out
}

type testEnv struct {
	m        *Manager
	provider *gatedProvider
	editor   *fakeEditor
	renderer *recordingRenderer
	journal  *memJournal
}

func newTestEnv(t *testing.T, opts ...Option) *testEnv {
	t.Helper()
	env := &testEnv{
		provider: newGatedProvider(),
		editor:   newFakeEditor(),
		renderer: &recordingRenderer{},
		journal:  &memJournal{},
	}
	factory := func(SessionInfo) (Renderer, error) { return env.renderer, nil }
	opts = append([]Option{
		WithLogger(log.New(io.Discard, "", 0)),
		WithJournal(env.journal),
	}, opts...)
	env.m = New(env.provider, env.editor, factory, opts...)
	t.Cleanup(env.m.Close)
	return env
}

func (env *testEnv) open(t *testing.T, text string, mode projector.Mode) SessionInfo {
	t.Helper()
	info, err := env.m.OpenSession(context.Background(), Document{URI: testURI, LanguageID: "javascript", Text: text}, mode)
	require.NoError(t, err)
	return info
}

func find(root *projector.Node, label string) []*projector.Node {
	var out []*projector.Node
	var walk func(n *projector.Node)
	walk = func(n *projector.Node) {
		if n.Label == label {
			out = append(out, n)
		}
		for _, c := range n.Children {
			walk(c)
		}
	}
	walk(root)
	return out
}

func rng(l1, c1, l2, c2 uint32) protocol.Range {
	return protocol.Range{
		Start: protocol.Position{Line: l1, Character: c1},
		End:   protocol.Position{Line: l2, Character: c2},
	}
}
