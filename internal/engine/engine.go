package engine

import (
	"context"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"runtime"
	"sort"
	"strings"
	"sync"

	"github.com/gobwas/glob"
	"golang.org/x/sync/errgroup"

	"github.com/dkeller/pylens-mcp/internal/parser"
	"github.com/dkeller/pylens-mcp/internal/storage"
	"github.com/dkeller/pylens-mcp/pkg/types"
)

// Options configures engine construction. The zero value of an individual
// field is honored as given; use DefaultOptions as a starting point.
type Options struct {
	// MaxEagerFiles is the maximum number of files indexed at construction,
	// smallest first.
	MaxEagerFiles int

	// MaxEagerBytes is the total-size threshold under which the whole
	// project is indexed at construction.
	MaxEagerBytes int64

	// Workers bounds concurrent parsing during the eager phase. Zero means
	// one worker per CPU.
	Workers int

	// Excludes filters the discovery sweep by project-root-relative glob.
	Excludes []glob.Glob
}

// DefaultOptions returns the standard indexing budget.
func DefaultOptions() *Options {
	return &Options{
		MaxEagerFiles: 200,
		MaxEagerBytes: 5_000_000,
	}
}

// Engine owns all indexed state for one project and serves the query
// operations. Files are indexed at most once per process lifetime; index
// maps grow monotonically and are never invalidated.
//
// All exported methods are safe for concurrent use: a single mutex
// serializes every read and mutation of the index maps.
type Engine struct {
	projectRoot   string
	maxEagerFiles int
	maxEagerBytes int64
	workers       int
	excludes      []glob.Glob

	parser *parser.Parser
	store  storage.Storage

	mu sync.Mutex

	// file path -> module outline root, one entry per indexed file
	outlineIndex map[string]*types.OutlineNode
	// qualified name -> definition (global symbol table)
	symbolIndex map[string]*types.SymbolDefinition
	// simple name -> qualified names sharing it, in indexing order
	simpleNames map[string][]string
	// qualified name -> outline node
	nodeIndex map[string]*types.OutlineNode

	// Discovery state: ordered universe, sizes, running total
	allFiles   []string
	fileSizes  map[string]int64
	totalBytes int64

	// Files already indexed; grows monotonically, never shrinks
	indexedFiles map[string]bool

	refCount int
}

// Stats summarizes the engine's index state.
type Stats struct {
	DiscoveredFiles int
	IndexedFiles    int
	TotalBytes      int64
	Definitions     int
	References      int
}

// New constructs an engine for the project rooted at projectRoot, runs file
// discovery, and indexes the eager subset. Per-file parse failures during
// the eager phase are logged and skipped; they do not fail construction.
func New(ctx context.Context, projectRoot string, store storage.Storage, opts *Options) (*Engine, error) {
	if opts == nil {
		opts = DefaultOptions()
	}

	root := canonicalPath(projectRoot)
	info, err := os.Stat(root)
	if err != nil {
		return nil, fmt.Errorf("project root not accessible: %w", err)
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("project root is not a directory: %s", root)
	}

	workers := opts.Workers
	if workers <= 0 {
		workers = runtime.NumCPU()
	}

	e := &Engine{
		projectRoot:   root,
		maxEagerFiles: opts.MaxEagerFiles,
		maxEagerBytes: opts.MaxEagerBytes,
		workers:       workers,
		excludes:      opts.Excludes,
		parser:        parser.New(),
		store:         store,
		outlineIndex:  make(map[string]*types.OutlineNode),
		symbolIndex:   make(map[string]*types.SymbolDefinition),
		simpleNames:   make(map[string][]string),
		nodeIndex:     make(map[string]*types.OutlineNode),
		fileSizes:     make(map[string]int64),
		indexedFiles:  make(map[string]bool),
	}

	if err := e.discoverFiles(); err != nil {
		return nil, fmt.Errorf("file discovery failed: %w", err)
	}

	if err := e.initialIndex(ctx); err != nil {
		return nil, err
	}

	return e, nil
}

// ProjectRoot returns the canonical project root.
func (e *Engine) ProjectRoot() string {
	return e.projectRoot
}

// Stats returns a snapshot of the index state.
func (e *Engine) Stats() Stats {
	e.mu.Lock()
	defer e.mu.Unlock()
	return Stats{
		DiscoveredFiles: len(e.allFiles),
		IndexedFiles:    len(e.indexedFiles),
		TotalBytes:      e.totalBytes,
		Definitions:     len(e.symbolIndex),
		References:      e.refCount,
	}
}

// initialIndex parses the eager subset concurrently and merges results in
// ascending-size order, so indexing order is deterministic.
func (e *Engine) initialIndex(ctx context.Context) error {
	toIndex := e.eagerSubset()
	if len(toIndex) == 0 {
		return nil
	}

	results := make([]*types.ParseResult, len(toIndex))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(e.workers)
	for i, path := range toIndex {
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			res, err := e.parser.ParseFile(path, e.projectRoot)
			if err != nil {
				// A failing file is left unindexed; the rest proceed.
				log.Printf("eager index: skipping %s: %v", path, err)
				return nil
			}
			results[i] = res
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return err
	}

	e.mu.Lock()
	defer e.mu.Unlock()
	for i, path := range toIndex {
		if results[i] == nil {
			continue
		}
		if err := e.mergeLocked(ctx, path, results[i]); err != nil {
			log.Printf("eager index: failed to merge %s: %v", path, err)
		}
	}

	return nil
}

// indexFileLocked indexes a single file if it has not been indexed yet.
// No-op when the path is already indexed or the file no longer exists on
// disk. The caller must hold e.mu.
func (e *Engine) indexFileLocked(ctx context.Context, path string) error {
	if e.indexedFiles[path] {
		return nil
	}

	if _, err := os.Stat(path); err != nil {
		return nil
	}

	res, err := e.parser.ParseFile(path, e.projectRoot)
	if err != nil {
		return err
	}

	return e.mergeLocked(ctx, path, res)
}

// mergeLocked registers one file's parse result: definitions and references
// go to the store inside a transaction, then the in-memory maps are updated
// and the file is marked indexed. On store failure the transaction rolls
// back and no in-memory state changes, so prior state is never corrupted.
// The caller must hold e.mu.
func (e *Engine) mergeLocked(ctx context.Context, path string, res *types.ParseResult) error {
	if e.indexedFiles[path] {
		return nil
	}

	if res.HasErrors() {
		log.Printf("index: %s parsed with errors: %v", path, res.Errors[0].Message)
	}

	tx, err := e.store.BeginTx(ctx)
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback() }()

	// Walk the outline so definitions are stored in declaration order.
	var storeErr error
	res.Module.Walk(func(node *types.OutlineNode) bool {
		if err := tx.InsertDefinition(ctx, node.Symbol); err != nil {
			storeErr = err
			return false
		}
		return true
	})
	if storeErr != nil {
		return storeErr
	}

	for i := range res.References {
		if err := tx.InsertReference(ctx, &res.References[i]); err != nil {
			return err
		}
	}

	if err := tx.Commit(); err != nil {
		return err
	}

	e.outlineIndex[path] = res.Module
	res.Module.Walk(func(node *types.OutlineNode) bool {
		defn := node.Symbol
		e.nodeIndex[defn.QualifiedName] = node
		e.symbolIndex[defn.QualifiedName] = defn
		e.simpleNames[defn.Name] = append(e.simpleNames[defn.Name], defn.QualifiedName)
		return true
	})
	e.refCount += len(res.References)
	e.indexedFiles[path] = true

	return nil
}

// ensureFileIndexedLocked resolves the path to canonical form, extends the
// discovery universe if needed, and indexes the file. Returns the canonical
// path used as the index key. The caller must hold e.mu.
func (e *Engine) ensureFileIndexedLocked(ctx context.Context, rawPath string) string {
	path := canonicalPath(rawPath)
	if e.indexedFiles[path] {
		return path
	}

	e.discoverPath(path)
	if err := e.indexFileLocked(ctx, path); err != nil {
		log.Printf("index: failed to index %s: %v", path, err)
	}
	return path
}

// ensureSymbolIndexedLocked makes the symbol resolvable if any discovered
// file defines it. Files are scanned one at a time, filename-affinity
// first, then ascending size, stopping as soon as the name resolves. On a
// miss the entire unindexed remainder ends up indexed. The caller must
// hold e.mu.
func (e *Engine) ensureSymbolIndexedLocked(ctx context.Context, symbol string) {
	if e.resolvesLocked(symbol) {
		return
	}

	var remaining []string
	for _, path := range e.allFiles {
		if !e.indexedFiles[path] {
			remaining = append(remaining, path)
		}
	}
	if len(remaining) == 0 {
		return
	}

	target := strings.ToLower(symbol)
	affinity := func(path string) int {
		stem := strings.ToLower(strings.TrimSuffix(filepath.Base(path), sourceSuffix))
		if strings.Contains(stem, target) {
			return 0
		}
		return 1
	}
	sort.Slice(remaining, func(i, j int) bool {
		ai, aj := affinity(remaining[i]), affinity(remaining[j])
		if ai != aj {
			return ai < aj
		}
		si, sj := e.fileSizes[remaining[i]], e.fileSizes[remaining[j]]
		if si != sj {
			return si < sj
		}
		return remaining[i] < remaining[j]
	})

	for _, path := range remaining {
		if err := e.indexFileLocked(ctx, path); err != nil {
			log.Printf("lazy index: skipping %s: %v", path, err)
			continue
		}
		if e.resolvesLocked(symbol) {
			return
		}
	}
}

// resolvesLocked reports whether a name currently resolves, either as an
// exact qualified name or through the collision table.
func (e *Engine) resolvesLocked(symbol string) bool {
	if _, ok := e.symbolIndex[symbol]; ok {
		return true
	}
	_, ok := e.simpleNames[symbol]
	return ok
}

// resolveQualifiedNameLocked resolves a simple or qualified name to a
// qualified name. An exact symbol-table hit wins; otherwise the
// first-indexed entry of the collision list is chosen — a stable but not
// semantically privileged pick. Returns "" when unresolved.
func (e *Engine) resolveQualifiedNameLocked(symbol string) string {
	if _, ok := e.symbolIndex[symbol]; ok {
		return symbol
	}
	if quals, ok := e.simpleNames[symbol]; ok && len(quals) > 0 {
		return quals[0]
	}
	return ""
}

// canonicalPath normalizes a path to its absolute, symlink-resolved form so
// every index map keys the same file the same way.
func canonicalPath(path string) string {
	abs, err := filepath.Abs(path)
	if err != nil {
		return filepath.Clean(path)
	}
	if resolved, err := filepath.EvalSymlinks(abs); err == nil {
		return resolved
	}
	return abs
}
