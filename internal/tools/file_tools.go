package tools

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
)

// fileTool carries what every file tool needs: path confinement and a way
// to ask before destructive changes.
type fileTool struct {
	paths   *Resolver
	confirm Confirmer
}

// ensureParent creates the parent of path after confirmation. It returns
// false if the operator declined.
func (ft fileTool) ensureParent(path string) (bool, error) {
	parent := filepath.Dir(path)
	if _, err := os.Stat(parent); err == nil {
		return true, nil
	} else if !errors.Is(err, fs.ErrNotExist) {
		return false, fmt.Errorf("checking %s: %w", parent, err)
	}

	ok, err := ft.confirm.Confirm(fmt.Sprintf("Parent directory %s does not exist. Create it?", parent))
	if err != nil || !ok {
		return false, err
	}
	if err := os.MkdirAll(parent, 0755); err != nil {
		return false, fmt.Errorf("creating directory %s: %w", parent, err)
	}
	return true, nil
}

// ---------- read_file ----------

// ReadFileTool returns a file's contents.
type ReadFileTool struct{ fileTool }

func NewReadFileTool(paths *Resolver) *ReadFileTool {
	return &ReadFileTool{fileTool{paths: paths}}
}

func (t *ReadFileTool) Name() string { return "read_file" }
func (t *ReadFileTool) Description() string {
	return "Read the contents of a file. Accepts a path relative to the project directory or an absolute path inside it."
}

func (t *ReadFileTool) Execute(ctx context.Context, args []string) (string, error) {
	if err := requireArgs(t.Name(), args, 1, "one file path"); err != nil {
		return "", err
	}
	path, err := t.paths.Resolve(args[0])
	if err != nil {
		return "", err
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return "", fmt.Errorf("reading %s: %w", path, err)
	}
	return string(data), nil
}

// ---------- write_to_file ----------

// WriteFileTool replaces a file's contents.
type WriteFileTool struct{ fileTool }

func NewWriteFileTool(paths *Resolver, confirm Confirmer) *WriteFileTool {
	return &WriteFileTool{fileTool{paths: paths, confirm: confirm}}
}

func (t *WriteFileTool) Name() string { return "write_to_file" }
func (t *WriteFileTool) Description() string {
	return "Write content to a file, replacing what is there. Takes the file path and the content. Accepts relative or absolute paths inside the project directory."
}

func (t *WriteFileTool) Execute(ctx context.Context, args []string) (string, error) {
	if err := requireArgs(t.Name(), args, 2, "a file path and the content"); err != nil {
		return "", err
	}
	path, err := t.paths.Resolve(args[0])
	if err != nil {
		return "", err
	}
	content := args[1]

	// Overwriting an empty file (e.g. one made by create_file) needs no prompt.
	if info, err := os.Stat(path); err == nil && !info.IsDir() && info.Size() > 0 {
		ok, err := t.confirm.Confirm(fmt.Sprintf("File %s already has content. Overwrite it?", path))
		if err != nil {
			return "", err
		}
		if !ok {
			return CancelledResult, nil
		}
	}

	ok, err := t.ensureParent(path)
	if err != nil {
		return "", err
	}
	if !ok {
		return CancelledResult, nil
	}

	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		return "", fmt.Errorf("writing %s: %w", path, err)
	}
	return fmt.Sprintf("write succeeded: %s", path), nil
}

// ---------- create_file ----------

// CreateFileTool creates an empty file.
type CreateFileTool struct{ fileTool }

func NewCreateFileTool(paths *Resolver, confirm Confirmer) *CreateFileTool {
	return &CreateFileTool{fileTool{paths: paths, confirm: confirm}}
}

func (t *CreateFileTool) Name() string { return "create_file" }
func (t *CreateFileTool) Description() string {
	return "Create an empty file, asking before creating missing parent directories or replacing an existing file. Use write_to_file afterwards to add content."
}

func (t *CreateFileTool) Execute(ctx context.Context, args []string) (string, error) {
	if err := requireArgs(t.Name(), args, 1, "one file path"); err != nil {
		return "", err
	}
	path, err := t.paths.Resolve(args[0])
	if err != nil {
		return "", err
	}

	if _, err := os.Stat(path); err == nil {
		ok, err := t.confirm.Confirm(fmt.Sprintf("File %s already exists. Overwrite it?", path))
		if err != nil {
			return "", err
		}
		if !ok {
			return CancelledResult, nil
		}
	}

	ok, err := t.ensureParent(path)
	if err != nil {
		return "", err
	}
	if !ok {
		return CancelledResult, nil
	}

	if err := os.WriteFile(path, nil, 0644); err != nil {
		return "", fmt.Errorf("creating %s: %w", path, err)
	}
	return fmt.Sprintf("file created: %s", path), nil
}

// ---------- create_directory ----------

// CreateDirectoryTool creates a directory.
type CreateDirectoryTool struct{ fileTool }

func NewCreateDirectoryTool(paths *Resolver, confirm Confirmer) *CreateDirectoryTool {
	return &CreateDirectoryTool{fileTool{paths: paths, confirm: confirm}}
}

func (t *CreateDirectoryTool) Name() string { return "create_directory" }
func (t *CreateDirectoryTool) Description() string {
	return "Create a directory, asking before creating missing parent directories."
}

func (t *CreateDirectoryTool) Execute(ctx context.Context, args []string) (string, error) {
	if err := requireArgs(t.Name(), args, 1, "one directory path"); err != nil {
		return "", err
	}
	path, err := t.paths.Resolve(args[0])
	if err != nil {
		return "", err
	}

	if info, err := os.Stat(path); err == nil && info.IsDir() {
		return fmt.Sprintf("directory already exists: %s", path), nil
	}

	ok, err := t.ensureParent(path)
	if err != nil {
		return "", err
	}
	if !ok {
		return CancelledResult, nil
	}

	if err := os.Mkdir(path, 0755); err != nil {
		return "", fmt.Errorf("creating directory %s: %w", path, err)
	}
	return fmt.Sprintf("directory created: %s", path), nil
}
