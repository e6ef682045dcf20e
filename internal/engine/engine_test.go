package engine

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/gobwas/glob"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dkeller/pylens-mcp/internal/storage"
)

// writeSource creates a Python file under dir, creating subdirectories as
// needed, and returns its absolute path.
func writeSource(t *testing.T, dir, rel, content string) string {
	t.Helper()
	path := filepath.Join(dir, rel)
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0755))
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))
	return path
}

// newTestEngine builds an engine over dir with an in-memory store.
func newTestEngine(t *testing.T, dir string, opts *Options) *Engine {
	t.Helper()
	store, err := storage.NewSQLiteStorage(storage.InMemory)
	require.NoError(t, err)
	t.Cleanup(func() { _ = store.Close() })

	eng, err := New(context.Background(), dir, store, opts)
	require.NoError(t, err)
	return eng
}

const modelsSource = `"""Models for the test project."""


class MyClass:
    """A class that does things and has quite a lengthy docstring indeed."""

    def __init__(self, value):
        """Build one with a value."""
        self.value = value

    def method(self):
        return self.value


def helper(x: int) -> int:
    """Helps out."""
    return x + 1


COUNT: int = 0
`

// TestEagerIndexing verifies a small project is fully indexed at
// construction.
func TestEagerIndexing(t *testing.T) {
	dir := t.TempDir()
	writeSource(t, dir, "models.py", modelsSource)
	writeSource(t, dir, "util.py", "def util_fn():\n    return 2\n")

	eng := newTestEngine(t, dir, nil)

	stats := eng.Stats()
	assert.Equal(t, 2, stats.DiscoveredFiles)
	assert.Equal(t, 2, stats.IndexedFiles)
	assert.Greater(t, stats.Definitions, 0)
}

// TestEagerBudgetFileCount verifies only the smallest files are indexed
// eagerly when the project exceeds the file-count budget.
func TestEagerBudgetFileCount(t *testing.T) {
	dir := t.TempDir()
	writeSource(t, dir, "small.py", "X = 1\n")
	writeSource(t, dir, "big.py", "def big_fn():\n    \"\"\"Much longer file than the other one.\"\"\"\n    return 42\n")

	eng := newTestEngine(t, dir, &Options{MaxEagerFiles: 1, MaxEagerBytes: 5_000_000})

	stats := eng.Stats()
	assert.Equal(t, 2, stats.DiscoveredFiles)
	assert.Equal(t, 1, stats.IndexedFiles)

	// The smallest file won the eager slot.
	matches := eng.FilterSymbols(context.Background(), FilterOptions{Name: "X"})
	require.Len(t, matches, 1)
	assert.Equal(t, canonicalPath(filepath.Join(dir, "small.py")), canonicalPath(matches[0].FilePath))
}

// TestEagerBudgetTotalBytes verifies the byte budget alone can force
// partial eager indexing even under the file-count budget.
func TestEagerBudgetTotalBytes(t *testing.T) {
	dir := t.TempDir()
	writeSource(t, dir, "a.py", "A = 1\n")
	writeSource(t, dir, "b.py", "B = 1\nBB = 2\n")
	writeSource(t, dir, "c.py", "C = 1\nCC = 2\nCCC = 3\n")

	eng := newTestEngine(t, dir, &Options{MaxEagerFiles: 2, MaxEagerBytes: 1})

	stats := eng.Stats()
	assert.Equal(t, 3, stats.DiscoveredFiles)
	assert.Equal(t, 2, stats.IndexedFiles)
}

// TestLazySymbolIndexing verifies an unindexed symbol is found on demand,
// and that files whose name contains the symbol are tried first.
func TestLazySymbolIndexing(t *testing.T) {
	dir := t.TempDir()
	writeSource(t, dir, "other.py", "def unrelated():\n    return None\n")
	writeSource(t, dir, "widget.py", "class Widget:\n    \"\"\"A widget.\"\"\"\n")

	eng := newTestEngine(t, dir, &Options{MaxEagerFiles: 0, MaxEagerBytes: 0})
	require.Equal(t, 0, eng.Stats().IndexedFiles)

	defn := eng.GetDefinitionShort(context.Background(), "Widget", "", 0)
	require.NotNil(t, defn)
	assert.Equal(t, "Widget", defn.Name)
	assert.Equal(t, "class", defn.Kind)

	// Filename affinity: widget.py resolved the symbol, other.py was
	// never touched.
	assert.Equal(t, 1, eng.Stats().IndexedFiles)
}

// TestLazyMissIndexesEverything verifies that a symbol found nowhere leaves
// the entire project indexed.
func TestLazyMissIndexesEverything(t *testing.T) {
	dir := t.TempDir()
	writeSource(t, dir, "a.py", "A = 1\n")
	writeSource(t, dir, "b.py", "B = 2\n")

	eng := newTestEngine(t, dir, &Options{MaxEagerFiles: 0, MaxEagerBytes: 0})

	defn := eng.GetDefinitionShort(context.Background(), "Nonexistent", "", 0)
	assert.Nil(t, defn)
	assert.Equal(t, 2, eng.Stats().IndexedFiles)
}

// TestIndexingIsIdempotent verifies repeated lookups never re-index and
// always return the same answer.
func TestIndexingIsIdempotent(t *testing.T) {
	dir := t.TempDir()
	writeSource(t, dir, "models.py", modelsSource)

	eng := newTestEngine(t, dir, nil)
	before := eng.Stats()

	first := eng.GetDefinitionShort(context.Background(), "MyClass", "", 0)
	second := eng.GetDefinitionShort(context.Background(), "MyClass", "", 0)
	require.NotNil(t, first)
	assert.Equal(t, first, second)
	assert.Equal(t, before, eng.Stats())
}

// TestGetDefinitionShort verifies the compact view fields and docstring
// truncation.
func TestGetDefinitionShort(t *testing.T) {
	dir := t.TempDir()
	writeSource(t, dir, "models.py", modelsSource)
	eng := newTestEngine(t, dir, nil)

	t.Run("class with docstrings", func(t *testing.T) {
		defn := eng.GetDefinitionShort(context.Background(), "MyClass", "", 0)
		require.NotNil(t, defn)
		assert.Equal(t, "class", defn.Kind)
		assert.Equal(t, canonicalPath(filepath.Join(dir, "models.py")), canonicalPath(defn.FilePath))
		assert.Equal(t, "A class that does things and has quite a lengthy docstring indeed.", defn.Docstring)
		assert.Equal(t, "Build one with a value.", defn.InitDocstring)
	})

	t.Run("docstring truncated to budget", func(t *testing.T) {
		defn := eng.GetDefinitionShort(context.Background(), "MyClass", "", 10)
		require.NotNil(t, defn)
		runes := []rune(defn.Docstring)
		assert.LessOrEqual(t, len(runes), 11)
		assert.True(t, strings.HasSuffix(defn.Docstring, "…"))
	})

	t.Run("variable carries type annotation", func(t *testing.T) {
		defn := eng.GetDefinitionShort(context.Background(), "COUNT", "", 0)
		require.NotNil(t, defn)
		assert.Equal(t, "variable", defn.Kind)
		assert.Equal(t, "int", defn.TypeAnnotation)
	})

	t.Run("file path alone returns the module", func(t *testing.T) {
		defn := eng.GetDefinitionShort(context.Background(), "", filepath.Join(dir, "models.py"), 0)
		require.NotNil(t, defn)
		assert.Equal(t, "module", defn.Kind)
		assert.Equal(t, "models", defn.Name)
		assert.Equal(t, "Models for the test project.", defn.Docstring)
	})

	t.Run("qualified name lookup", func(t *testing.T) {
		defn := eng.GetDefinitionShort(context.Background(), "models.MyClass.method", "", 0)
		require.NotNil(t, defn)
		assert.Equal(t, "method", defn.Name)
	})

	t.Run("neither input returns nil", func(t *testing.T) {
		assert.Nil(t, eng.GetDefinitionShort(context.Background(), "", "", 0))
	})
}

// TestGetDefinitionFull verifies the full view: position, whole docstrings,
// and source truncation with its marker.
func TestGetDefinitionFull(t *testing.T) {
	dir := t.TempDir()
	writeSource(t, dir, "models.py", modelsSource)
	eng := newTestEngine(t, dir, nil)

	t.Run("source and position", func(t *testing.T) {
		defn := eng.GetDefinitionFull(context.Background(), "MyClass", "", 0)
		require.NotNil(t, defn)
		assert.Contains(t, defn.Source, "class MyClass")
		assert.Equal(t, 4, defn.Line)
		assert.Equal(t, 0, defn.Column)
	})

	t.Run("docstrings are never truncated", func(t *testing.T) {
		defn := eng.GetDefinitionFull(context.Background(), "MyClass", "", 10)
		require.NotNil(t, defn)
		assert.Equal(t, "A class that does things and has quite a lengthy docstring indeed.", defn.Docstring)
	})

	t.Run("source truncated with marker", func(t *testing.T) {
		defn := eng.GetDefinitionFull(context.Background(), "MyClass", "", 20)
		require.NotNil(t, defn)
		assert.True(t, strings.HasSuffix(defn.Source, "\n…(truncated)"))
		body := strings.TrimSuffix(defn.Source, "\n…(truncated)")
		assert.LessOrEqual(t, len([]rune(body)), 20)
	})
}

// TestGetOutline verifies the outline lists the children of the resolved
// node with nesting preserved.
func TestGetOutline(t *testing.T) {
	dir := t.TempDir()
	writeSource(t, dir, "models.py", modelsSource)
	eng := newTestEngine(t, dir, nil)

	t.Run("module outline", func(t *testing.T) {
		entries := eng.GetOutline(context.Background(), "", filepath.Join(dir, "models.py"), 0)
		require.Len(t, entries, 3)
		assert.Equal(t, "MyClass", entries[0].Name)
		assert.Equal(t, "helper", entries[1].Name)
		assert.Equal(t, "COUNT", entries[2].Name)

		// Class children nested under the class entry.
		require.Len(t, entries[0].Children, 2)
		assert.Equal(t, "__init__", entries[0].Children[0].Name)
		assert.Equal(t, "method", entries[0].Children[1].Name)
	})

	t.Run("class outline lists methods only", func(t *testing.T) {
		entries := eng.GetOutline(context.Background(), "MyClass", "", 0)
		require.Len(t, entries, 2)
		assert.Equal(t, "__init__", entries[0].Name)
		assert.Equal(t, "method", entries[1].Name)
	})

	t.Run("unknown symbol yields empty slice", func(t *testing.T) {
		entries := eng.GetOutline(context.Background(), "Nonexistent", "", 0)
		require.NotNil(t, entries)
		assert.Empty(t, entries)
	})
}

// TestGetReferences verifies symbol and file reference queries.
func TestGetReferences(t *testing.T) {
	dir := t.TempDir()
	writeSource(t, dir, "models.py", "class MyClass:\n    pass\n")
	writeSource(t, dir, "app.py", "from models import MyClass\n\nfirst = MyClass()\nsecond = MyClass()\n")
	eng := newTestEngine(t, dir, nil)

	t.Run("by symbol", func(t *testing.T) {
		refs := eng.GetReferences(context.Background(), "MyClass", "", 0)
		require.Len(t, refs, 2)
		for _, ref := range refs {
			assert.Equal(t, "MyClass", ref.Symbol)
			assert.Equal(t, canonicalPath(filepath.Join(dir, "app.py")), canonicalPath(ref.FilePath))
			assert.Greater(t, ref.Line, 0)
		}
	})

	t.Run("by file", func(t *testing.T) {
		refs := eng.GetReferences(context.Background(), "", filepath.Join(dir, "app.py"), 0)
		// MyClass twice plus the first/second binding names.
		require.Len(t, refs, 4)
	})

	t.Run("unknown symbol yields empty slice", func(t *testing.T) {
		refs := eng.GetReferences(context.Background(), "Nonexistent", "", 0)
		require.NotNil(t, refs)
		assert.Empty(t, refs)
	})
}

// TestFilterSymbols verifies predicates compose with AND and results stop
// at the budget in indexing order.
func TestFilterSymbols(t *testing.T) {
	dir := t.TempDir()
	writeSource(t, dir, "models.py", modelsSource)
	eng := newTestEngine(t, dir, nil)

	t.Run("name substring is case-insensitive", func(t *testing.T) {
		matches := eng.FilterSymbols(context.Background(), FilterOptions{Name: "myclass"})
		require.Len(t, matches, 1)
		assert.Equal(t, "MyClass", matches[0].Name)
	})

	t.Run("predicates compose conjunctively", func(t *testing.T) {
		matches := eng.FilterSymbols(context.Background(), FilterOptions{Name: "o", Kind: "variable"})
		require.Len(t, matches, 1)
		assert.Equal(t, "COUNT", matches[0].Name)
	})

	t.Run("type hint substring", func(t *testing.T) {
		matches := eng.FilterSymbols(context.Background(), FilterOptions{TypeHint: "int"})
		require.Len(t, matches, 1)
		assert.Equal(t, "COUNT", matches[0].Name)
	})

	t.Run("max results cuts off in indexing order", func(t *testing.T) {
		all := eng.FilterSymbols(context.Background(), FilterOptions{})
		require.Greater(t, len(all), 2)

		limited := eng.FilterSymbols(context.Background(), FilterOptions{MaxResults: 2})
		require.Len(t, limited, 2)
		assert.Equal(t, all[0], limited[0])
		assert.Equal(t, all[1], limited[1])
	})

	t.Run("no match yields empty slice", func(t *testing.T) {
		matches := eng.FilterSymbols(context.Background(), FilterOptions{Name: "zzz"})
		require.NotNil(t, matches)
		assert.Empty(t, matches)
	})
}

// TestCollisionResolutionIsStable verifies a simple name defined in several
// files resolves to the same definition on every call.
func TestCollisionResolutionIsStable(t *testing.T) {
	dir := t.TempDir()
	writeSource(t, dir, "a.py", "class Widget:\n    \"\"\"From a.\"\"\"\n")
	writeSource(t, dir, "b.py", "class Widget:\n    \"\"\"From b.\"\"\"\n")
	eng := newTestEngine(t, dir, nil)

	first := eng.GetDefinitionShort(context.Background(), "Widget", "", 0)
	require.NotNil(t, first)
	for i := 0; i < 5; i++ {
		again := eng.GetDefinitionShort(context.Background(), "Widget", "", 0)
		require.NotNil(t, again)
		assert.Equal(t, first.FilePath, again.FilePath)
	}

	// Both remain reachable by qualified name.
	assert.NotNil(t, eng.GetDefinitionShort(context.Background(), "a.Widget", "", 0))
	assert.NotNil(t, eng.GetDefinitionShort(context.Background(), "b.Widget", "", 0))
}

// TestSubdirectoryQualifiedNames verifies dotting follows the directory
// layout.
func TestSubdirectoryQualifiedNames(t *testing.T) {
	dir := t.TempDir()
	writeSource(t, dir, "pkg/sub/mod.py", "class Deep:\n    pass\n")
	eng := newTestEngine(t, dir, nil)

	defn := eng.GetDefinitionShort(context.Background(), "pkg.sub.mod.Deep", "", 0)
	require.NotNil(t, defn)
	assert.Equal(t, "Deep", defn.Name)
}

// TestSyntaxErrorFileStillIndexes verifies a file with a syntax error
// contributes the definitions that did parse.
func TestSyntaxErrorFileStillIndexes(t *testing.T) {
	dir := t.TempDir()
	writeSource(t, dir, "broken.py", "class Good:\n    pass\n\ndef broken(:\n    pass\n")
	eng := newTestEngine(t, dir, nil)

	defn := eng.GetDefinitionShort(context.Background(), "Good", "", 0)
	require.NotNil(t, defn)
	assert.Equal(t, "class", defn.Kind)
}

// TestExcludedFilesNotDiscovered verifies exclude globs remove files from
// the discovery universe entirely.
func TestExcludedFilesNotDiscovered(t *testing.T) {
	dir := t.TempDir()
	writeSource(t, dir, "keep.py", "KEEP = 1\n")
	writeSource(t, dir, "__pycache__/skip.py", "SKIP = 1\n")

	excludes := defaultTestExcludes(t)
	eng := newTestEngine(t, dir, &Options{MaxEagerFiles: 200, MaxEagerBytes: 5_000_000, Excludes: excludes})

	assert.Equal(t, 1, eng.Stats().DiscoveredFiles)
	assert.Nil(t, eng.GetDefinitionShort(context.Background(), "SKIP", "", 0))
}

func defaultTestExcludes(t *testing.T) []glob.Glob {
	t.Helper()
	g, err := glob.Compile("**/__pycache__/**", '/')
	require.NoError(t, err)
	return []glob.Glob{g}
}

// TestTruncationHardLimit verifies budgets above the ceiling are clamped.
func TestTruncationHardLimit(t *testing.T) {
	long := strings.Repeat("a", 2000)
	out := truncateEllipsis(long, 100000)
	assert.Equal(t, HardMaxChars+1, len([]rune(out)))
	assert.True(t, strings.HasSuffix(out, "…"))

	// Within budget, text passes through untouched.
	assert.Equal(t, "short", truncateEllipsis("short", 100))
}
