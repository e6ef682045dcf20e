// Package storage provides the SQLite-backed symbol and reference store
// behind the index engine.
//
// The store is opened in-memory (storage.InMemory) and lives exactly as
// long as the process: the index is rebuilt from source on every start.
// Two tables hold the queryable half of the index:
//
//   - symbols: one row per SymbolDefinition, keyed by qualified name
//   - refs:    one row per bare-name occurrence
//
// Rowid order is insertion order, which realizes the engine's
// "insertion order = indexing order" contract: FilterSymbols truncates in
// first-match order and reference listings come back in the order files
// were indexed.
//
// # Driver Selection
//
// The SQLite driver is chosen at build time. The default build uses the
// pure Go modernc.org/sqlite driver; building with the cgo_sqlite tag
// switches to github.com/mattn/go-sqlite3. See build_purego.go and
// build_cgo.go.
package storage
