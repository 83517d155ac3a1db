// Package archiver merges and archives the rendered documents of every
// site: the move, combine and stars modes of the command line.
package archiver

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/pevans/newsdocs/errs"
	"github.com/pevans/newsdocs/fsutil"
	"github.com/pevans/newsdocs/notify"
)

// Mode selects what a run does.
type Mode string

const (
	// ModeMove archives documents that were read into 已读的文件/{date}.
	ModeMove Mode = "move"
	// ModeCombine merges each site's documents by category and archives
	// them into 合并过的文件/{date}.
	ModeCombine Mode = "combine"
	// ModeStars merges each site's starred documents into one file and
	// archives them into 合并过的文件/加星-{date}.
	ModeStars Mode = "stars"
)

// Folder names of the on-disk layout.
const (
	ReadFolder        = "已读的文件"
	MergedFolder      = "合并过的文件"
	StarredFolder     = "加星"
	CategoryOutputDir = "合并文档-按类别"
	StarredOutputDir  = "合并文档-加星"
)

var ErrUnknownMode = errors.New("unknown mode, expected move, combine or stars")

// ParseMode validates a mode name.
func ParseMode(s string) (Mode, error) {
	switch m := Mode(s); m {
	case ModeMove, ModeCombine, ModeStars:
		return m, nil
	default:
		return "", fmt.Errorf("%w: %q", ErrUnknownMode, s)
	}
}

// Site is the part of a site's configuration the archiver needs.
type Site struct {
	Name   string
	NameCN string
}

// StarSyncer pulls starred files on the NAS into their starred folders.
type StarSyncer interface {
	Sync(ctx context.Context) error
}

// Runner executes modes over the save folder.
type Runner struct {
	Root     string
	Sites    []Site
	Merger   *Merger
	Archiver *Archiver
	Stars    StarSyncer      // optional
	Signaler notify.Signaler // optional
	Logger   *slog.Logger
	Now      func() time.Time
}

// NewRunner creates a Runner with its own merger and archiver.
func NewRunner(root string, sites []Site, owner fsutil.Owner, logger *slog.Logger) *Runner {
	return &Runner{
		Root:     root,
		Sites:    sites,
		Merger:   NewMerger(owner, logger),
		Archiver: NewArchiver(owner, logger),
		Logger:   logger,
		Now:      time.Now,
	}
}

// Run syncs stars, executes mode, and finally signals that the drive
// changed. Star-sync and signal failures are logged only; the returned
// error joins the per-file failures of the mode itself. combine and stars
// archive only the inputs that made it into a written merge, so the rest
// stay in place for the next run.
func (r *Runner) Run(ctx context.Context, mode Mode, pageBreaks bool) error {
	if r.Stars != nil {
		r.Logger.Info("moving starred files into their folders")
		if err := r.Stars.Sync(ctx); err != nil {
			r.Logger.Error("star sync failed", "error", err)
		}
	}

	date := r.Now().Format(time.DateOnly)

	var err error
	switch mode {
	case ModeMove:
		err = r.move(date)
	case ModeCombine:
		err = r.combine(date, pageBreaks)
	case ModeStars:
		err = r.stars(date, pageBreaks)
	default:
		return fmt.Errorf("%w: %q", ErrUnknownMode, mode)
	}

	if r.Signaler != nil {
		if serr := r.Signaler.Signal(ctx, notify.DriveUpdated); serr != nil {
			r.Logger.Warn("failed to signal drive update", "error", serr)
		}
	}

	return err
}

func (r *Runner) move(date string) error {
	var failures []error
	for _, site := range r.Sites {
		dir := filepath.Join(r.Root, site.Name)
		if _, err := r.Archiver.Archive(dir, filepath.Join(dir, ReadFolder, date)); err != nil {
			failures = append(failures, err)
		}
	}
	return errors.Join(failures...)
}

func (r *Runner) combine(date string, pageBreaks bool) error {
	out := filepath.Join(r.Root, CategoryOutputDir)

	var failures []error
	for _, site := range r.Sites {
		dir := filepath.Join(r.Root, site.Name)
		logger := r.Logger.With("site", site.Name)

		res, err := r.Merger.Merge(dir, out, site.NameCN, MergeOptions{
			ByCategory: true,
			PageBreaks: pageBreaks,
			Date:       date,
		})
		if err != nil {
			logger.Error("merge failed", "kind", errs.KindOf(err), "error", err)
			failures = append(failures, err)
		}

		archive := filepath.Join(dir, MergedFolder, date)
		if _, err := r.Archiver.ArchiveFiles(dir, archive, res.Sources); err != nil {
			failures = append(failures, err)
		}
	}
	return errors.Join(failures...)
}

func (r *Runner) stars(date string, pageBreaks bool) error {
	out := filepath.Join(r.Root, StarredOutputDir)

	var failures []error
	for _, site := range r.Sites {
		dir := filepath.Join(r.Root, site.Name, StarredFolder)
		if _, err := os.Stat(dir); err != nil {
			continue
		}
		logger := r.Logger.With("site", site.Name)

		res, err := r.Merger.Merge(dir, out, site.NameCN+"-"+StarredFolder, MergeOptions{
			PageBreaks: pageBreaks,
			Date:       date,
		})
		if err != nil {
			logger.Error("merge failed", "kind", errs.KindOf(err), "error", err)
			failures = append(failures, err)
		}

		archive := filepath.Join(r.Root, site.Name, MergedFolder, StarredFolder+"-"+date)
		if _, err := r.Archiver.ArchiveFiles(dir, archive, res.Sources); err != nil {
			failures = append(failures, err)
		}
	}
	return errors.Join(failures...)
}
