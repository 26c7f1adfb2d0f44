// Package filter runs Risor scripts that decide which node kinds semantic
// traversal hides.
//
// A filter script is evaluated once per (language, kind) pair with these
// globals:
//
//	language  canonical language name, e.g. "javascript"
//	kind      named node kind, e.g. "comment"
//	log       log.Info / log.Warn / log.Error
//
// The value of the script's last expression decides: truthy hides the kind.
// Decisions are memoized for the lifetime of the Runtime.
package filter

import (
	"context"
	"fmt"
	"io/fs"
	"log"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/risor-io/risor"
	"github.com/risor-io/risor/importer"
	"github.com/risor-io/risor/object"
)

// Runtime evaluates a semantic filter script. It is safe for concurrent use.
type Runtime struct {
	scriptsDir string
	script     string
	fsys       fs.FS
	logger     *log.Logger

	mu        sync.Mutex
	source    string
	loaded    bool
	decisions map[string]map[string]bool // language -> kind -> hidden
}

// Option configures a Runtime.
type Option func(*Runtime)

// WithFS configures the Runtime to load scripts from an fs.FS instead of
// from disk. Also configures the Risor importer to use FSImporter for import
// statement resolution.
func WithFS(fsys fs.FS) Option {
	return func(r *Runtime) {
		r.fsys = fsys
	}
}

// WithLogger sets the logger behind the script's log global.
func WithLogger(l *log.Logger) Option {
	return func(r *Runtime) {
		r.logger = l
	}
}

// NewRuntime creates a Runtime for the filter script at scriptPath. Relative
// paths resolve against scriptsDir, or against the fs.FS when WithFS is set.
func NewRuntime(scriptsDir, scriptPath string, opts ...Option) *Runtime {
	r := &Runtime{
		scriptsDir: scriptsDir,
		script:     scriptPath,
		logger:     log.Default(),
		decisions:  make(map[string]map[string]bool),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// HiddenKinds returns the subset of kinds the script hides for language. The
// returned map is owned by the caller.
func (r *Runtime) HiddenKinds(ctx context.Context, language string, kinds []string) (map[string]bool, error) {
	hidden := make(map[string]bool)
	for _, kind := range kinds {
		h, err := r.Hidden(ctx, language, kind)
		if err != nil {
			return nil, err
		}
		if h {
			hidden[kind] = true
		}
	}
	return hidden, nil
}

// Hidden reports whether the script hides kind for language.
func (r *Runtime) Hidden(ctx context.Context, language, kind string) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if byKind, ok := r.decisions[language]; ok {
		if h, ok := byKind[kind]; ok {
			return h, nil
		}
	}

	if !r.loaded {
		src, err := r.LoadScript(r.script)
		if err != nil {
			return false, err
		}
		r.source = src
		r.loaded = true
	}

	result, err := r.eval(ctx, r.source, r.script, map[string]any{
		"language": language,
		"kind":     kind,
	})
	if err != nil {
		return false, err
	}

	h := result.IsTruthy()
	if r.decisions[language] == nil {
		r.decisions[language] = make(map[string]bool)
	}
	r.decisions[language][kind] = h
	return h, nil
}

func (r *Runtime) eval(ctx context.Context, source, label string, extraGlobals map[string]any) (object.Object, error) {
	globals := r.buildGlobals(extraGlobals)

	var opts []risor.Option
	for name, val := range globals {
		opts = append(opts, risor.WithGlobal(name, val))
	}

	// Wire importer so Risor import statements resolve correctly.
	if imp := r.buildImporter(globals); imp != nil {
		opts = append(opts, risor.WithImporter(imp))
	}

	result, err := risor.Eval(ctx, source, opts...)
	if err != nil {
		return nil, fmt.Errorf("filter: script %s: %w", label, err)
	}
	return result, nil
}

// buildImporter returns a Risor importer configured for the Runtime's script
// source. Returns nil if neither fs.FS nor scriptsDir is configured.
func (r *Runtime) buildImporter(globals map[string]any) importer.Importer {
	globalNames := make([]string, 0, len(globals))
	for name := range globals {
		globalNames = append(globalNames, name)
	}

	if r.fsys != nil {
		return importer.NewFSImporter(importer.FSImporterOptions{
			GlobalNames: globalNames,
			SourceFS:    r.fsys,
			Extensions:  []string{".risor"},
		})
	}
	if r.scriptsDir != "" {
		return importer.NewLocalImporter(importer.LocalImporterOptions{
			GlobalNames: globalNames,
			SourceDir:   r.scriptsDir,
			Extensions:  []string{".risor"},
		})
	}
	return nil
}

// LoadScript reads a .risor file and returns its source code.
// When an fs.FS is configured, uses fs.ReadFile on the embedded filesystem.
// Otherwise, uses os.ReadFile with scriptsDir as the base directory.
func (r *Runtime) LoadScript(path string) (string, error) {
	if r.fsys != nil {
		fsPath := strings.TrimPrefix(filepath.ToSlash(path), "/")
		data, err := fs.ReadFile(r.fsys, fsPath)
		if err != nil {
			return "", fmt.Errorf("filter: loading script %s from fs: %w", fsPath, err)
		}
		return string(data), nil
	}

	fullPath := path
	if !filepath.IsAbs(path) {
		fullPath = filepath.Join(r.scriptsDir, path)
	}

	data, err := os.ReadFile(fullPath)
	if err != nil {
		return "", fmt.Errorf("filter: loading script %s: %w", fullPath, err)
	}
	return string(data), nil
}

// buildGlobals constructs the full set of globals exposed to filter scripts.
func (r *Runtime) buildGlobals(extra map[string]any) map[string]any {
	globals := map[string]any{
		"log": mustProxy(&logObject{logger: r.logger}),
	}
	for k, v := range extra {
		globals[k] = v
	}
	return globals
}

func mustProxy(v any) object.Object {
	p, err := object.NewProxy(v)
	if err != nil {
		panic(fmt.Sprintf("filter: proxy error: %v", err))
	}
	return p
}

// logObject provides log.Info/Warn/Error methods for Risor scripts.
type logObject struct {
	logger *log.Logger
}

func (l *logObject) Info(msg string) {
	l.logger.Printf("filter: INFO: %s", msg)
}

func (l *logObject) Warn(msg string) {
	l.logger.Printf("filter: WARN: %s", msg)
}

func (l *logObject) Error(msg string) {
	l.logger.Printf("filter: ERROR: %s", msg)
}
