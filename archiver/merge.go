package archiver

import (
	"errors"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/pevans/newsdocs/docx"
	"github.com/pevans/newsdocs/errs"
	"github.com/pevans/newsdocs/fsutil"
	"github.com/pevans/newsdocs/library"
	"github.com/pevans/newsdocs/paper"
)

// MergeOptions controls how a folder is merged.
type MergeOptions struct {
	// ByCategory writes one output per category instead of one for the
	// whole folder.
	ByCategory bool
	// PageBreaks separates documents with page breaks where allowed;
	// otherwise every document is followed by an empty paragraph.
	PageBreaks bool
	// Date is stamped into output names. Defaults to today.
	Date string
}

// Merger concatenates the documents of a folder.
type Merger struct {
	owner  fsutil.Owner
	logger *slog.Logger
}

// NewMerger creates a Merger that applies owner to what it writes.
func NewMerger(owner fsutil.Owner, logger *slog.Logger) *Merger {
	return &Merger{owner: owner, logger: logger.With("stage", "merge")}
}

type accumulator struct {
	key     string
	doc     *docx.Document
	sources []string
}

type opened struct {
	name     string
	category string
	doc      *docx.Document
}

// MergeResult lists what a merge wrote and which inputs ended up in a
// written output. Inputs not in Sources were not merged.
type MergeResult struct {
	Outputs []string
	Sources []string
}

// Merge combines the .docx files of srcDir in file name order and writes
// the result to outDir as {prefix}-{category}-{date}.docx, or
// {prefix}-{date}.docx when not grouping by category. Unreadable inputs
// are skipped, and the separator rule applies to the documents that
// opened: each is followed by a page break when page breaks are on, it is
// not the last, and (when grouping) the next has the same category; any
// other document is followed by an empty paragraph.
func (m *Merger) Merge(srcDir, outDir, prefix string, opts MergeOptions) (MergeResult, error) {
	var res MergeResult
	if opts.Date == "" {
		opts.Date = time.Now().Format(time.DateOnly)
	}

	names, err := library.Documents(srcDir)
	if err != nil && !errors.Is(err, os.ErrNotExist) {
		return res, errs.FileSystem("list "+srcDir, err)
	}
	if len(names) == 0 {
		m.logger.Info("no documents to merge", "prefix", prefix, "dir", srcDir)
		return res, nil
	}

	var (
		failures []error
		docs     []opened
	)
	for _, name := range names {
		doc, err := docx.Open(filepath.Join(srcDir, name))
		if err != nil {
			m.logger.Warn("skipping unreadable document", "file", name, "error", err)
			failures = append(failures, errs.FileSystem("open "+name, err))
			continue
		}
		docs = append(docs, opened{name: name, category: paper.CategoryOf(name), doc: doc})
	}

	var (
		order []*accumulator
		byKey = map[string]*accumulator{}
	)
	for i, d := range docs {
		last := i == len(docs)-1
		sameNext := !last && docs[i+1].category == d.category
		if opts.PageBreaks && !last && (!opts.ByCategory || sameNext) {
			d.doc.AddPageBreak()
		} else {
			d.doc.AddEmptyParagraph()
		}

		key := ""
		if opts.ByCategory {
			key = d.category
		}
		acc, ok := byKey[key]
		if !ok {
			acc = &accumulator{key: key, doc: docx.New()}
			byKey[key] = acc
			order = append(order, acc)
		}
		acc.doc.Append(d.doc)
		acc.sources = append(acc.sources, d.name)
	}

	if len(order) == 0 {
		return res, errors.Join(failures...)
	}

	if err := fsutil.MkdirAll(outDir, m.owner); err != nil {
		if !errors.Is(err, fsutil.ErrOwnership) {
			failures = append(failures, errs.FileSystem("create "+outDir, err))
			return res, errors.Join(failures...)
		}
		m.logger.Warn("failed to change folder owner", "dir", outDir, "error", err)
	}

	for _, acc := range order {
		base := prefix + "-" + opts.Date
		if opts.ByCategory {
			base = prefix + "-" + acc.key + "-" + opts.Date
		}

		path, err := m.save(outDir, base, acc.doc)
		if err != nil {
			failures = append(failures, err)
			continue
		}
		res.Outputs = append(res.Outputs, path)
		res.Sources = append(res.Sources, acc.sources...)
	}

	return res, errors.Join(failures...)
}

func (m *Merger) save(dir, base string, doc *docx.Document) (string, error) {
	name, err := UniqueName(dir, base)
	if err != nil {
		return "", errs.FileSystem("name "+base, err)
	}

	path := filepath.Join(dir, name)
	if err := doc.Save(path); err != nil {
		return "", errs.FileSystem("save "+name, err)
	}
	if err := m.owner.Chown(path); err != nil {
		m.logger.Warn("failed to change file owner", "file", name, "error", err)
	}

	m.logger.Info("merged documents", "file", name)
	return path, nil
}
