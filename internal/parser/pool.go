package parser

import (
	"sync"

	sitter "github.com/tree-sitter/go-tree-sitter"
	tree_sitter_python "github.com/tree-sitter/tree-sitter-python/bindings/go"
)

// pythonLanguage is the shared Python grammar. Grammar pointers are immutable
// and safe to share across parsers.
var pythonLanguage = sitter.NewLanguage(tree_sitter_python.Language())

// parserPool recycles tree-sitter parser instances to avoid the per-file
// allocation overhead of sitter.NewParser() / parser.Close().
//
// Concurrency: safe for use by multiple goroutines simultaneously.
type parserPool struct {
	pool sync.Pool
}

func newParserPool() *parserPool {
	p := &parserPool{}
	p.pool = sync.Pool{
		New: func() any {
			sp := sitter.NewParser()
			sp.SetLanguage(pythonLanguage)
			return sp
		},
	}
	return p
}

// get retrieves a parser from the pool, or allocates a new one if the pool
// is empty. The returned parser is already configured for Python.
func (p *parserPool) get() *sitter.Parser {
	sp := p.pool.Get().(*sitter.Parser)
	// Ensure the language is set in case the parser was Reset() externally.
	sp.SetLanguage(pythonLanguage)
	return sp
}

// put returns a parser to the pool for reuse. The parser is reset so that no
// references to previous parse trees are retained. Callers must not use sp
// after calling put.
func (p *parserPool) put(sp *sitter.Parser) {
	if sp == nil {
		return
	}
	sp.Reset()
	p.pool.Put(sp)
}
