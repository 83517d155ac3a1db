package archiver

import (
	"errors"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/pevans/newsdocs/errs"
	"github.com/pevans/newsdocs/fsutil"
	"github.com/pevans/newsdocs/library"
)

// Archiver moves processed documents into dated folders.
type Archiver struct {
	owner  fsutil.Owner
	logger *slog.Logger
}

// NewArchiver creates an Archiver that applies owner to the folders it
// creates.
func NewArchiver(owner fsutil.Owner, logger *slog.Logger) *Archiver {
	return &Archiver{owner: owner, logger: logger.With("stage", "archive")}
}

// Archive creates dst and moves every .docx file directly inside src into
// it. A file that fails to move stays in src and does not stop the others.
// It returns the number of files moved.
func (a *Archiver) Archive(src, dst string) (int, error) {
	if err := a.mkdir(dst); err != nil {
		return 0, err
	}

	names, err := library.Documents(src)
	if errors.Is(err, os.ErrNotExist) {
		return 0, nil
	}
	if err != nil {
		return 0, errs.FileSystem("list "+src, err)
	}
	return a.move(src, dst, names)
}

// ArchiveFiles moves the named files of src into dst, creating dst only
// when there is something to move.
func (a *Archiver) ArchiveFiles(src, dst string, names []string) (int, error) {
	if len(names) == 0 {
		return 0, nil
	}
	if err := a.mkdir(dst); err != nil {
		return 0, err
	}
	return a.move(src, dst, names)
}

func (a *Archiver) mkdir(dst string) error {
	if err := fsutil.MkdirAll(dst, a.owner); err != nil {
		if !errors.Is(err, fsutil.ErrOwnership) {
			return errs.FileSystem("create "+dst, err)
		}
		a.logger.Warn("failed to change folder owner", "dir", dst, "error", err)
	}
	return nil
}

func (a *Archiver) move(src, dst string, names []string) (int, error) {
	var (
		moved    int
		failures []error
	)
	for _, name := range names {
		if err := fsutil.Move(filepath.Join(src, name), filepath.Join(dst, name)); err != nil {
			a.logger.Warn("failed to archive document", "file", name, "error", err)
			failures = append(failures, errs.FileSystem("move "+name, err))
			continue
		}
		moved++
	}

	if moved > 0 {
		a.logger.Info("archived documents", "count", moved, "dir", dst)
	}
	return moved, errors.Join(failures...)
}
