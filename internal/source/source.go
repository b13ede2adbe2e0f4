package source

import (
	"fmt"
	"os"
	"path/filepath"
)

// Resolves a project root to an absolute directory path.
//
// Empty input means the current directory. The path must exist and be a
// directory.
func Resolve(root string) (string, error) {
	if root == "" {
		root = "."
	}

	abs, err := filepath.Abs(root)
	if err != nil {
		return "", fmt.Errorf("resolve project root %q: %w", root, err)
	}

	info, err := os.Stat(abs)
	if err != nil {
		return "", fmt.Errorf("project root %q: %w", abs, err)
	}
	if !info.IsDir() {
		return "", fmt.Errorf("project root %q is not a directory", abs)
	}

	return abs, nil
}

// Resolves a build specification path against the project root.
//
// Absolute paths are used as-is; relative paths are joined to the root.
func SpecPath(root, path string) string {
	if filepath.IsAbs(path) {
		return path
	}
	return filepath.Join(root, path)
}
