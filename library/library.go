// Package library manages the per-site folder of rendered article
// documents.
package library

import (
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"slices"
	"strings"

	"github.com/pevans/newsdocs/errs"
	"github.com/pevans/newsdocs/fsutil"
	"github.com/pevans/newsdocs/paper"
)

// Library is the document folder of one site.
type Library struct {
	dir    string
	owner  fsutil.Owner
	logger *slog.Logger
}

// Index is the set of document names already stored in a library.
type Index map[string]struct{}

// Has reports whether name is in the index.
func (i Index) Has(name string) bool {
	_, ok := i[name]
	return ok
}

// Add records name as present.
func (i Index) Add(name string) {
	i[name] = struct{}{}
}

// New opens the library at dir, creating it with the given ownership if it
// doesn't exist.
func New(dir string, owner fsutil.Owner, logger *slog.Logger) (*Library, error) {
	if err := fsutil.MkdirAll(dir, owner); err != nil {
		if !errors.Is(err, fsutil.ErrOwnership) {
			return nil, fmt.Errorf("failed to create library directory: %w", err)
		}
		logger.Warn("failed to change folder owner", "dir", dir, "error", err)
	}

	return &Library{
		dir:    dir,
		owner:  owner,
		logger: logger,
	}, nil
}

// Dir returns the library folder.
func (l *Library) Dir() string {
	return l.dir
}

// Index walks the library, archive subfolders included, and returns the
// names of every file in it. A document that was already merged or read
// must not be fetched again.
func (l *Library) Index() (Index, error) {
	idx := Index{}
	err := filepath.WalkDir(l.dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if !d.IsDir() {
			idx.Add(d.Name())
		}
		return nil
	})
	if err != nil {
		return nil, errs.FileSystem("index "+l.dir, err)
	}
	return idx, nil
}

// Save renders a record and writes it into the library under name.
func (l *Library) Save(name string, r paper.Record, paragraphs []paper.Paragraph) (string, error) {
	doc, err := Render(r, paragraphs)
	if err != nil {
		return "", err
	}

	path := filepath.Join(l.dir, name)
	if err := doc.Save(path); err != nil {
		return "", errs.FileSystem("save "+name, err)
	}

	if err := l.owner.Chown(path); err != nil {
		l.logger.Warn("failed to change file owner", "file", name, "error", err)
	}

	return path, nil
}

// Documents returns the sorted names of the .docx files directly inside
// dir. Office lock files are ignored.
func Documents(dir string) ([]string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("failed to read directory: %w", err)
	}

	var names []string
	for _, entry := range entries {
		name := entry.Name()
		if entry.IsDir() || filepath.Ext(name) != paper.DocExt || strings.HasPrefix(name, "~$") {
			continue
		}
		names = append(names, name)
	}

	slices.Sort(names)
	return names, nil
}
