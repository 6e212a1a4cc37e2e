package scanner

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"time"

	"github.com/riadafridishibly/neatfs/cache"
)

var (
	ErrRootNotFound     = errors.New("root path does not exist")
	ErrRootNotDir       = errors.New("root path is not a directory")
	ErrRootInaccessible = errors.New("root path is not accessible")
	ErrConflictingModes = errors.New("files-only and dirs-only are mutually exclusive")
	ErrUnknownAlgorithm = errors.New("unsupported hash algorithm")
)

const (
	DefaultChunkSize = 64 * 1024
	DefaultAlgorithm = "md5"
)

type Options struct {
	Root    string
	Exclude []string

	FilesOnly bool
	DirsOnly  bool

	// Workers bounds concurrent hashing and walking. Zero means NumCPU.
	Workers   int
	ChunkSize int
	// ReadTimeout bounds the time spent fingerprinting one file. Zero
	// disables it.
	ReadTimeout time.Duration
	Algorithm   string

	Logger *slog.Logger
	// Cache is optional; when set, digests are reused across runs.
	Cache *cache.Cache
}

func (o Options) SearchFiles() bool { return !o.DirsOnly }
func (o Options) SearchDirs() bool  { return !o.FilesOnly }

// normalize validates the options and resolves the root and exclusions to
// absolute paths with symlinks evaluated.
func (o Options) normalize() (Options, error) {
	if o.FilesOnly && o.DirsOnly {
		return o, ErrConflictingModes
	}
	if o.Algorithm == "" {
		o.Algorithm = DefaultAlgorithm
	}
	if _, err := GetAlgorithm(o.Algorithm); err != nil {
		return o, err
	}
	if o.Workers <= 0 {
		o.Workers = runtime.NumCPU()
	}
	if o.ChunkSize <= 0 {
		o.ChunkSize = DefaultChunkSize
	}
	if o.ReadTimeout < 0 {
		return o, fmt.Errorf("read timeout must not be negative: %s", o.ReadTimeout)
	}
	if o.Logger == nil {
		o.Logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}

	root, err := resolveRoot(o.Root)
	if err != nil {
		return o, err
	}
	o.Root = root

	exclude := make([]string, 0, len(o.Exclude))
	for _, e := range o.Exclude {
		if strings.TrimSpace(e) == "" {
			continue
		}
		abs, err := filepath.Abs(e)
		if err != nil {
			return o, fmt.Errorf("resolve exclude path %q: %w", e, err)
		}
		// An exclusion that does not exist yet cannot be resolved; it is
		// kept as given.
		if resolved, err := filepath.EvalSymlinks(abs); err == nil {
			abs = resolved
		}
		exclude = append(exclude, abs)
	}
	o.Exclude = exclude
	return o, nil
}

func resolveRoot(root string) (string, error) {
	if root == "" {
		root = "."
	}
	abs, err := filepath.Abs(root)
	if err != nil {
		return "", fmt.Errorf("resolve root %q: %w", root, err)
	}
	info, err := os.Stat(abs)
	switch {
	case errors.Is(err, os.ErrNotExist):
		return "", fmt.Errorf("%w: %s", ErrRootNotFound, abs)
	case err != nil:
		return "", fmt.Errorf("%w: %s: %w", ErrRootInaccessible, abs, err)
	case !info.IsDir():
		return "", fmt.Errorf("%w: %s", ErrRootNotDir, abs)
	}
	f, err := os.Open(abs)
	if err != nil {
		return "", fmt.Errorf("%w: %s: %w", ErrRootInaccessible, abs, err)
	}
	defer f.Close()
	if _, err := f.ReadDir(1); err != nil && !errors.Is(err, io.EOF) {
		return "", fmt.Errorf("%w: %s: %w", ErrRootInaccessible, abs, err)
	}
	// The walk does not follow symlinks, so a linked root is replaced by
	// its target before anything is compared against it.
	resolved, err := filepath.EvalSymlinks(abs)
	if err != nil {
		return "", fmt.Errorf("%w: %s: %w", ErrRootInaccessible, abs, err)
	}
	return resolved, nil
}
