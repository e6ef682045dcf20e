package engine

import (
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"
)

// sourceSuffix is the only extension the discovery sweep enumerates.
const sourceSuffix = ".py"

// discoverFiles enumerates Python files under the project root, recording
// each file's byte size and the running total. It never reads file
// contents. Per-file stat failures are tolerated: the file is enumerated
// with size 0. The resulting list is the universe both eager and lazy
// indexing draw from; ensureFileIndexed can extend it later.
func (e *Engine) discoverFiles() error {
	return filepath.WalkDir(e.projectRoot, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			if d != nil && d.IsDir() {
				return filepath.SkipDir
			}
			return nil
		}

		if d.IsDir() {
			// Hidden directories never hold importable modules.
			if path != e.projectRoot && strings.HasPrefix(d.Name(), ".") {
				return filepath.SkipDir
			}
			return nil
		}

		if !strings.HasSuffix(d.Name(), sourceSuffix) {
			return nil
		}

		if e.isExcluded(path) {
			return nil
		}

		var size int64
		if info, err := d.Info(); err == nil {
			size = info.Size()
		}

		e.addDiscovered(path, size)
		return nil
	})
}

// isExcluded matches the project-root-relative path against the configured
// exclude globs.
func (e *Engine) isExcluded(path string) bool {
	if len(e.excludes) == 0 {
		return false
	}

	rel, err := filepath.Rel(e.projectRoot, path)
	if err != nil {
		rel = path
	}
	rel = filepath.ToSlash(rel)

	for _, g := range e.excludes {
		// The slashed form lets "**/" patterns match top-level directories.
		if g.Match(rel) || g.Match("/"+rel) {
			return true
		}
	}
	return false
}

// addDiscovered appends a file to the discovery universe. Already-known
// paths are ignored.
func (e *Engine) addDiscovered(path string, size int64) {
	if _, ok := e.fileSizes[path]; ok {
		return
	}
	e.allFiles = append(e.allFiles, path)
	e.fileSizes[path] = size
	e.totalBytes += size
}

// discoverPath adds a single file outside the original sweep to the
// universe, computing its size lazily. Stat failures record size 0.
func (e *Engine) discoverPath(path string) {
	if _, ok := e.fileSizes[path]; ok {
		return
	}

	var size int64
	if info, err := os.Stat(path); err == nil {
		size = info.Size()
	}
	e.addDiscovered(path, size)
}

// eagerSubset returns the files to index at construction: everything when
// the project fits under both the file-count and byte budgets, otherwise
// the smallest maxEagerFiles files. The ascending-size order favors breadth
// of coverage per unit of indexing cost.
func (e *Engine) eagerSubset() []string {
	sorted := make([]string, len(e.allFiles))
	copy(sorted, e.allFiles)
	sort.Slice(sorted, func(i, j int) bool {
		si, sj := e.fileSizes[sorted[i]], e.fileSizes[sorted[j]]
		if si != sj {
			return si < sj
		}
		return sorted[i] < sorted[j]
	})

	if len(sorted) <= e.maxEagerFiles && e.totalBytes <= e.maxEagerBytes {
		return sorted
	}
	if e.maxEagerFiles >= len(sorted) {
		return sorted
	}
	return sorted[:e.maxEagerFiles]
}
