package sandbox

import (
	"fmt"
	"path/filepath"
	"strings"
)

// validateName checks that name is a single path segment: not empty, not "." or "..",
// without separators.
func validateName(name string) error {
	if name == "" {
		return fmt.Errorf("empty name")
	}
	if name == "." || name == ".." {
		return fmt.Errorf("invalid name: %q", name)
	}
	if strings.ContainsAny(name, `/\`) {
		return fmt.Errorf("name must not contain path separators: %q", name)
	}
	if filepath.IsAbs(name) {
		return fmt.Errorf("absolute paths are not allowed: %q", name)
	}
	return nil
}

// safeJoin joins root and parts and makes sure the result stays inside root.
func safeJoin(root string, parts ...string) (string, error) {
	p := filepath.Join(append([]string{root}, parts...)...)
	cleanRoot := filepath.Clean(root)
	cleanP := filepath.Clean(p)

	rel, err := filepath.Rel(cleanRoot, cleanP)
	if err != nil {
		return "", err
	}
	relSl := filepath.ToSlash(rel)
	if relSl == ".." || strings.HasPrefix(relSl, "../") {
		return "", fmt.Errorf("path escapes root: %s", p)
	}
	return cleanP, nil
}
