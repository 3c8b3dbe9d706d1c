package tools

import "time"

// Options tune the built-in tools.
type Options struct {
	ShellTimeout   time.Duration
	MaxOutputBytes int
}

// NewDefaultRegistry registers the built-in tools bound to projectDir.
// A nil confirm declines every prompt.
func NewDefaultRegistry(projectDir string, confirm Confirmer, opts Options) (*Registry, error) {
	if confirm == nil {
		confirm = AutoConfirm(false)
	}
	paths, err := NewResolver(projectDir)
	if err != nil {
		return nil, err
	}

	r := NewRegistry()
	r.Register(NewReadFileTool(paths))
	r.Register(NewWriteFileTool(paths, confirm))
	r.Register(NewCreateFileTool(paths, confirm))
	r.Register(NewCreateDirectoryTool(paths, confirm))
	r.Register(NewShellTool(ShellConfig{
		WorkingDir:     paths.Root(),
		Timeout:        opts.ShellTimeout,
		MaxOutputBytes: opts.MaxOutputBytes,
	}))
	return r, nil
}
