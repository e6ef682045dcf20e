package storage

import (
	"context"

	"github.com/dkeller/pylens-mcp/pkg/types"
)

// InMemory is the database location used for the process-lifetime index.
// The index is rebuilt from source on every start; nothing persists.
const InMemory = ":memory:"

// Writer defines the mutation half of the store. Both the database handle
// and transactions implement it.
type Writer interface {
	InsertDefinition(ctx context.Context, defn *types.SymbolDefinition) error
	InsertReference(ctx context.Context, ref *types.SymbolReference) error
}

// Storage defines the interface for the queryable symbol and reference
// store backing the index engine. Row order is insertion order, which the
// engine relies on for stable first-indexed-wins results.
type Storage interface {
	Writer

	// FilterSymbols returns definitions matching every provided predicate,
	// in indexing order, up to query.MaxResults.
	FilterSymbols(ctx context.Context, query FilterQuery) ([]*types.SymbolDefinition, error)

	// ListReferencesBySymbol returns all references whose simple name equals
	// symbol, in indexing order.
	ListReferencesBySymbol(ctx context.Context, symbol string) ([]*types.SymbolReference, error)

	// ListReferencesByFile returns all references occurring in the given
	// file, in indexing order.
	ListReferencesByFile(ctx context.Context, filePath string) ([]*types.SymbolReference, error)

	// Database operations
	BeginTx(ctx context.Context) (Tx, error)
	Close() error
}

// Tx represents a store transaction covering the merge of one parsed file
type Tx interface {
	Writer
	Commit() error
	Rollback() error
}

// FilterQuery narrows a definition scan. Zero-valued fields are ignored;
// the provided ones compose with logical AND. Name and TypeHint match as
// case-insensitive substrings, Kind as a case-insensitive exact match,
// FilePath as an exact match.
type FilterQuery struct {
	Name       string
	Kind       string
	TypeHint   string
	FilePath   string
	MaxResults int
}
