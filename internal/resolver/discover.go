package resolver

import (
	"io/fs"
	"iter"
	"os"
	"path/filepath"
	"strings"
)

// Discover lazily walks inputDir and yields source files ending in ext.
// Traversal is lexical, so the order is stable for a fixed filesystem state,
// and each range over the sequence walks the tree again.
// When outputDir lives inside inputDir its subtree is never entered.
func Discover(inputDir, outputDir, ext string, recursive bool) iter.Seq2[string, error] {
	return func(yield func(string, error) bool) {
		skip := nestedDir(inputDir, outputDir)

		err := filepath.WalkDir(inputDir, func(path string, d fs.DirEntry, err error) error {
			if err != nil {
				if !yield(path, err) {
					return fs.SkipAll
				}
				if d != nil && d.IsDir() {
					return fs.SkipDir
				}
				return nil
			}

			if d.IsDir() {
				if path == inputDir {
					return nil
				}
				if !recursive || path == skip {
					return fs.SkipDir
				}
				return nil
			}

			if !strings.HasSuffix(d.Name(), ext) || !isRegularFile(path, d) {
				return nil
			}
			if !yield(path, nil) {
				return fs.SkipAll
			}
			return nil
		})
		if err != nil {
			yield(inputDir, err)
		}
	}
}

// nestedDir returns dir as a walk path under root, or "" if it is not strictly inside root.
func nestedDir(root, dir string) string {
	rel, err := filepath.Rel(filepath.Clean(root), filepath.Clean(dir))
	if err != nil || rel == "." || rel == ".." || strings.HasPrefix(rel, ".."+string(filepath.Separator)) {
		return ""
	}
	return filepath.Join(root, rel)
}

func isRegularFile(path string, d fs.DirEntry) bool {
	if d.Type().IsRegular() {
		return true
	}
	if d.Type()&fs.ModeSymlink == 0 {
		return false
	}
	info, err := os.Stat(path)
	return err == nil && info.Mode().IsRegular()
}
