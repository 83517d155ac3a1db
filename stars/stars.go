// Package stars moves files starred in Synology Drive into the starred
// folder of their site folder, so the stars mode can merge them later.
package stars

import (
	"context"
	"log/slog"
	"path"
	"strings"
	"time"

	"github.com/pevans/newsdocs/drive"
	"github.com/pevans/newsdocs/errs"
)

// State is a step of a sync.
type State string

const (
	Disconnected         State = "disconnected"
	Connected            State = "connected"
	FolderListed         State = "folder_listed"
	StarredFolderExists  State = "starred_folder_exists"
	StarredFolderCreated State = "starred_folder_created"
	FilesMoved           State = "files_moved"
)

// Session is a logged-in drive connection.
type Session interface {
	ListFolder(ctx context.Context, path string) ([]drive.Item, error)
	CreateFolder(ctx context.Context, name, parent string) error
	Move(ctx context.Context, path, destFolder string) error
	Logout(ctx context.Context) error
}

// Dialer finds a reachable NAS and logs in.
type Dialer func(ctx context.Context) (Session, error)

// Options configures a Syncer.
type Options struct {
	Root          string
	Folders       []string
	StarredFolder string
}

// Syncer runs one star-sync per call to Sync.
type Syncer struct {
	dial    Dialer
	opts    Options
	logger  *slog.Logger
	onState func(folder string, s State)
}

// New creates a Syncer that connects through dial.
func New(dial Dialer, opts Options, logger *slog.Logger) *Syncer {
	return &Syncer{
		dial:   dial,
		opts:   opts,
		logger: logger.With("stage", "stars"),
	}
}

// DriveDialer probes addresses in order and logs in to the first one that
// answers.
func DriveDialer(addresses []drive.Address, username, password string, timeout time.Duration, logger *slog.Logger) Dialer {
	return func(ctx context.Context) (Session, error) {
		addr, err := drive.Probe(ctx, addresses, timeout)
		if err != nil {
			return nil, err
		}
		logger.Debug("drive reachable", "url", addr.URL())

		client := drive.New(addr.URL(), timeout*10, logger)
		if err := client.Login(ctx, username, password); err != nil {
			return nil, err
		}
		return client, nil
	}
}

// Sync connects, moves starred files of every configured folder into its
// starred folder and disconnects. Failures inside a folder are logged and
// do not stop the other folders; only a failed connection is returned.
func (s *Syncer) Sync(ctx context.Context) error {
	sess, err := s.dial(ctx)
	if err != nil {
		s.logger.Error("no drive address reachable", "error", err)
		return errs.RemoteConnect("connect to drive", err)
	}
	s.transition("", Connected)

	defer func() {
		if err := sess.Logout(context.WithoutCancel(ctx)); err != nil {
			s.logger.Warn("failed to log out of drive", "error", err)
		}
		s.transition("", Disconnected)
	}()

	for _, folder := range s.opts.Folders {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		s.syncFolder(ctx, sess, drive.Join(s.opts.Root, folder))
	}
	return nil
}

func (s *Syncer) syncFolder(ctx context.Context, sess Session, folder string) {
	logger := s.logger.With("folder", folder)

	items, err := sess.ListFolder(ctx, folder)
	if err != nil {
		logger.Error("failed to list folder", "error", err)
		return
	}
	s.transition(folder, FolderListed)

	starred := drive.Join(folder, s.opts.StarredFolder)
	if hasPath(items, starred) {
		s.transition(folder, StarredFolderExists)
	} else {
		if err := sess.CreateFolder(ctx, s.opts.StarredFolder, folder); err != nil {
			logger.Error("failed to create starred folder", "error", err)
			return
		}
		logger.Info("created starred folder", "path", starred)
		s.transition(folder, StarredFolderCreated)
	}

	for _, item := range items {
		if !item.Starred || !item.IsFile() {
			continue
		}
		if err := sess.Move(ctx, item.DisplayPath, starred); err != nil {
			logger.Error("failed to move starred file", "file", item.DisplayPath, "error", err)
			continue
		}
		logger.Info("moved starred file", "file", path.Base(item.DisplayPath), "to", s.relative(starred))
	}
	s.transition(folder, FilesMoved)
}

func (s *Syncer) relative(p string) string {
	root := strings.TrimSuffix(s.opts.Root, "/") + "/"
	return strings.TrimPrefix(p, root)
}

func (s *Syncer) transition(folder string, state State) {
	s.logger.Debug("star sync state", "folder", folder, "state", state)
	if s.onState != nil {
		s.onState(folder, state)
	}
}

func hasPath(items []drive.Item, p string) bool {
	for _, item := range items {
		if item.DisplayPath == p {
			return true
		}
	}
	return false
}
