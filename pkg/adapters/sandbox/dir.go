package sandbox

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"sync"

	"github.com/aretw0/forge/internal/logging"
	"github.com/aretw0/forge/pkg/domain"
)

const (
	DefaultDirPerm  os.FileMode = 0o755
	DefaultFilePerm os.FileMode = 0o644
)

// Dir mounts descriptors into a directory on disk. Mounting overlays: entries are
// created or overwritten, files absent from the descriptor are left alone.
type Dir struct {
	root     string
	dirPerm  os.FileMode
	filePerm os.FileMode
	logger   *slog.Logger

	mu     sync.Mutex
	closed bool
}

// DirOption configures a Dir sandbox.
type DirOption func(*Dir)

// WithPerms overrides DefaultDirPerm and DefaultFilePerm.
func WithPerms(dir, file os.FileMode) DirOption {
	return func(d *Dir) {
		d.dirPerm = dir
		d.filePerm = file
	}
}

// WithLogger configures a logger for the sandbox.
func WithLogger(logger *slog.Logger) DirOption {
	return func(d *Dir) {
		d.logger = logger
	}
}

// NewDir creates a sandbox rooted at root. The directory is created on first mount.
func NewDir(root string, opts ...DirOption) *Dir {
	d := &Dir{
		root:     root,
		dirPerm:  DefaultDirPerm,
		filePerm: DefaultFilePerm,
		logger:   logging.NewNop(),
	}
	for _, opt := range opts {
		opt(d)
	}
	return d
}

// Root returns the directory the sandbox writes into.
func (d *Dir) Root() string {
	return d.root
}

// Mount writes every entry of the descriptor below the root directory.
func (d *Dir) Mount(ctx context.Context, mount domain.MountDescriptor) error {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.closed {
		return ErrClosed
	}
	if err := os.MkdirAll(d.root, d.dirPerm); err != nil {
		return fmt.Errorf("mkdir %s: %w", d.root, err)
	}
	if err := d.writeDir(ctx, nil, mount); err != nil {
		return err
	}
	d.logger.Debug("mounted descriptor", "root", d.root, "entries", len(mount))
	return nil
}

func (d *Dir) writeDir(ctx context.Context, parents []string, entries domain.MountDescriptor) error {
	// Sorted for deterministic error reporting.
	names := make([]string, 0, len(entries))
	for name := range entries {
		names = append(names, name)
	}
	sort.Strings(names)

	for _, name := range names {
		if err := ctx.Err(); err != nil {
			return err
		}
		if err := validateName(name); err != nil {
			return err
		}
		parts := append(append([]string(nil), parents...), name)
		target, err := safeJoin(d.root, parts...)
		if err != nil {
			return err
		}

		entry := entries[name]
		if entry.IsDir() {
			if err := d.ensureDir(target); err != nil {
				return err
			}
			if err := d.writeDir(ctx, parts, entry.Directory); err != nil {
				return err
			}
			continue
		}
		if err := d.writeFile(target, entry.File.Contents); err != nil {
			return err
		}
	}
	return nil
}

func (d *Dir) ensureDir(path string) error {
	info, err := os.Lstat(path)
	switch {
	case err == nil && info.IsDir():
		return nil
	case err == nil:
		return fmt.Errorf("conflict: a file already exists at %s", path)
	case os.IsNotExist(err):
		if err := os.MkdirAll(path, d.dirPerm); err != nil {
			return fmt.Errorf("mkdir %s: %w", path, err)
		}
		return nil
	default:
		return fmt.Errorf("stat %s: %w", path, err)
	}
}

func (d *Dir) writeFile(path, contents string) error {
	info, err := os.Lstat(path)
	switch {
	case err == nil && info.IsDir():
		return fmt.Errorf("conflict: a directory already exists at %s", path)
	case err != nil && !os.IsNotExist(err):
		return fmt.Errorf("stat %s: %w", path, err)
	}

	// Write to a temp file then rename so readers never see a partial file.
	tmp, err := os.CreateTemp(filepath.Dir(path), ".forge-*")
	if err != nil {
		return fmt.Errorf("create temp for %s: %w", path, err)
	}
	tmpName := tmp.Name()
	if _, err := tmp.WriteString(contents); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return fmt.Errorf("write %s: %w", path, err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("close %s: %w", path, err)
	}
	if err := os.Chmod(tmpName, d.filePerm); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("chmod %s: %w", path, err)
	}
	if err := os.Rename(tmpName, path); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("rename %s: %w", path, err)
	}
	return nil
}

// Close stops further mounts. Files already written stay on disk.
func (d *Dir) Close() error {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.closed = true
	return nil
}
