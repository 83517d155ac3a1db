// Package fsutil holds the file system helpers shared by the renderer,
// merger and archiver: ownership-aware directory creation and moves that
// survive crossing devices.
package fsutil

import (
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"syscall"
)

// Owner is the uid/gid applied to everything the pipeline writes. A
// negative id leaves that part of the ownership unchanged.
type Owner struct {
	UID int
	GID int
}

// NoOwner never changes ownership.
var NoOwner = Owner{UID: -1, GID: -1}

// ErrOwnership marks failures that only concern file ownership. The file
// itself was written; callers log these and carry on.
var ErrOwnership = errors.New("ownership not applied")

func (o Owner) enabled() bool {
	return o.UID >= 0 || o.GID >= 0
}

// Chown applies the owner to path. It is a no-op when the owner is unset
// or the platform has no ownership semantics.
func (o Owner) Chown(path string) error {
	if !o.enabled() {
		return nil
	}
	if err := chown(path, o.UID, o.GID); err != nil {
		return fmt.Errorf("%w: %s: %w", ErrOwnership, path, err)
	}
	return nil
}

// MkdirAll creates path and any missing parents. Only directories that did
// not exist before are chowned; ownership failures are joined and returned
// after every directory was attempted.
func MkdirAll(path string, owner Owner) error {
	var created []string
	for dir := filepath.Clean(path); ; dir = filepath.Dir(dir) {
		if _, err := os.Stat(dir); err == nil {
			break
		} else if !errors.Is(err, os.ErrNotExist) {
			return fmt.Errorf("failed to stat %s: %w", dir, err)
		}
		created = append(created, dir)
		if parent := filepath.Dir(dir); parent == dir {
			break
		}
	}

	if err := os.MkdirAll(path, 0o755); err != nil {
		return fmt.Errorf("failed to create directory: %w", err)
	}

	var errs []error
	for i := len(created) - 1; i >= 0; i-- {
		if err := owner.Chown(created[i]); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// Exists reports whether path exists. Only a missing path counts as
// absent; any other stat failure is returned.
func Exists(path string) (bool, error) {
	_, err := os.Stat(path)
	switch {
	case err == nil:
		return true, nil
	case errors.Is(err, fs.ErrNotExist):
		return false, nil
	default:
		return false, err
	}
}

// Move renames src to dst, falling back to copy and remove when they live
// on different devices.
func Move(src, dst string) error {
	err := os.Rename(src, dst)
	if err == nil {
		return nil
	}

	var linkErr *os.LinkError
	if !errors.As(err, &linkErr) || !errors.Is(linkErr.Err, syscall.EXDEV) {
		return fmt.Errorf("failed to move %s: %w", filepath.Base(src), err)
	}

	if err := copyFile(src, dst); err != nil {
		return fmt.Errorf("failed to copy %s across devices: %w", filepath.Base(src), err)
	}
	if err := os.Remove(src); err != nil {
		return fmt.Errorf("failed to remove %s after copy: %w", filepath.Base(src), err)
	}
	return nil
}

func copyFile(src, dst string) (err error) {
	in, err := os.Open(src)
	if err != nil {
		return err
	}
	defer in.Close()

	info, err := in.Stat()
	if err != nil {
		return err
	}

	out, err := os.OpenFile(dst, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, info.Mode().Perm())
	if err != nil {
		return err
	}
	defer func() {
		if cerr := out.Close(); err == nil {
			err = cerr
		}
	}()

	_, err = io.Copy(out, in)
	return err
}
