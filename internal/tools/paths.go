package tools

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// ErrOutsideProject is returned for any path that does not resolve to a
// location inside the project directory.
var ErrOutsideProject = errors.New("path is outside the project directory")

// Resolver turns model-supplied paths into absolute paths confined to a
// project root.
type Resolver struct {
	root string // canonical project root
}

// NewResolver canonicalizes root. The root must exist.
func NewResolver(root string) (*Resolver, error) {
	abs, err := filepath.Abs(root)
	if err != nil {
		return nil, fmt.Errorf("resolving project directory %s: %w", root, err)
	}
	canon, err := filepath.EvalSymlinks(abs)
	if err != nil {
		return nil, fmt.Errorf("resolving project directory %s: %w", root, err)
	}
	return &Resolver{root: canon}, nil
}

// Root returns the canonical project root.
func (r *Resolver) Root() string {
	return r.root
}

// Resolve joins relative paths onto the root, leaves absolute paths as
// they are, and rejects the result unless its canonical form lies inside
// the root. Only metadata is read; nothing is created or opened.
func (r *Resolver) Resolve(path string) (string, error) {
	if strings.TrimSpace(path) == "" {
		return "", fmt.Errorf("%w: empty path", ErrInvalidArguments)
	}

	var target string
	if filepath.IsAbs(path) {
		target = filepath.Clean(path)
	} else {
		target = filepath.Join(r.root, path)
	}

	canon, err := canonicalize(target)
	if err != nil {
		return "", fmt.Errorf("resolving %s: %w", path, err)
	}
	if !within(r.root, canon) {
		return "", fmt.Errorf("%w: %s (project: %s)", ErrOutsideProject, path, r.root)
	}
	return canon, nil
}

// within reports whether target equals root or lies beneath it.
func within(root, target string) bool {
	rel, err := filepath.Rel(root, target)
	if err != nil {
		return false
	}
	return rel == "." || (rel != ".." && !strings.HasPrefix(rel, ".."+string(filepath.Separator)))
}

// canonicalize resolves symlinks in the longest existing prefix of a clean
// absolute path and re-appends the components that do not exist yet, so
// paths of files about to be created are checked the same way as
// existing ones.
func canonicalize(path string) (string, error) {
	path = filepath.Clean(path)
	var missing []string
	cur := path
	for {
		resolved, err := filepath.EvalSymlinks(cur)
		if err == nil {
			for i := len(missing) - 1; i >= 0; i-- {
				resolved = filepath.Join(resolved, missing[i])
			}
			return resolved, nil
		}
		if !errors.Is(err, os.ErrNotExist) {
			return "", err
		}
		// A dangling symlink exists but cannot be resolved; writing
		// through it could land anywhere.
		if _, lerr := os.Lstat(cur); lerr == nil {
			return "", fmt.Errorf("%w: dangling symlink %s", ErrOutsideProject, cur)
		}
		parent := filepath.Dir(cur)
		if parent == cur {
			return path, nil
		}
		missing = append(missing, filepath.Base(cur))
		cur = parent
	}
}
