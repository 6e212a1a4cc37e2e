package scanner

import (
	"context"
	"io/fs"
	"log/slog"
	"os"
	"strings"

	"github.com/charlievieth/fastwalk"
	"github.com/riadafridishibly/neatfs/dupes"
)

// Entry is a regular file or directory found under the walk root.
type Entry struct {
	Path string
	Kind dupes.Kind
	Size int64
}

// Walker enumerates the tree under a root. Each call to Walk starts from
// scratch; nothing is retained between calls.
type Walker struct {
	root    string
	exclude []string
	workers int
	logger  *slog.Logger
}

func NewWalker(root string, exclude []string, workers int, logger *slog.Logger) *Walker {
	return &Walker{root: root, exclude: exclude, workers: workers, logger: logger}
}

// Walk calls fn for every regular file and directory below the root; the
// root itself is not reported. Symlinks are not followed. Entries that
// cannot be read or stat'ed are logged and skipped. fn is called from
// several goroutines at once.
func (w *Walker) Walk(ctx context.Context, fn func(Entry) error) error {
	conf := fastwalk.Config{Follow: false, NumWorkers: w.workers}
	if err := fastwalk.Walk(&conf, w.root, w.visitor(ctx, fn)); err != nil {
		return err
	}
	return ctx.Err()
}

// visitor adapts fn to fastwalk. Cancellation is returned as the context
// error, which fastwalk hands back from Walk unchanged.
func (w *Walker) visitor(ctx context.Context, fn func(Entry) error) fs.WalkDirFunc {
	return func(path string, d fs.DirEntry, err error) error {
		if err := ctx.Err(); err != nil {
			return err
		}

		if err != nil {
			w.logger.Warn("skipping unreadable entry", "path", path, "error", err)
			return nil
		}

		if path == w.root {
			return nil
		}

		if w.excluded(path) {
			if d.IsDir() {
				return fastwalk.SkipDir
			}
			return nil
		}

		switch {
		case d.IsDir():
			return fn(Entry{Path: path, Kind: dupes.Directory})
		case d.Type().IsRegular():
			info, err := d.Info()
			if err != nil {
				w.logger.Warn("skipping file that cannot be stat'ed", "path", path, "error", err)
				return nil
			}
			return fn(Entry{Path: path, Kind: dupes.File, Size: info.Size()})
		default:
			// symlinks, devices, sockets and pipes are never duplicates
			return nil
		}
	}
}

// excluded matches on whole path components so /data/a does not exclude
// /data/ab.
func (w *Walker) excluded(path string) bool {
	for _, ex := range w.exclude {
		if path == ex || strings.HasPrefix(path, ex+string(os.PathSeparator)) {
			return true
		}
	}
	return false
}
