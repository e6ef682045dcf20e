// Package engine implements the demand-driven indexing core: file
// discovery, budgeted eager indexing, lazy per-symbol and per-file
// indexing, name resolution, and the query operations served over MCP.
//
// The engine never watches the filesystem and never re-indexes a file;
// its view of the project is the state of each file at first parse.
package engine
