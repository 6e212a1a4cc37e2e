package scanner

import (
	"context"
	"log/slog"
	"maps"
	"slices"
	"sync"
	"sync/atomic"

	"github.com/riadafridishibly/neatfs/dupes"
)

type DirStats struct {
	Dirs      int64 `json:"dirs"`
	WithFiles int64 `json:"dirs_with_files"`
	Signed    int64 `json:"signed"`
	Failed    int64 `json:"failed"`
}

// DirDetector groups directories whose immediate files match name for
// name, size for size and digest for digest.
type DirDetector struct {
	walker  *Walker
	builder *SignatureBuilder
	workers int
	logger  *slog.Logger

	observe func(Entry)
}

func NewDirDetector(walker *Walker, builder *SignatureBuilder, workers int, logger *slog.Logger) *DirDetector {
	if workers <= 0 {
		workers = 1
	}
	return &DirDetector{walker: walker, builder: builder, workers: workers, logger: logger}
}

type signedDir struct {
	path string
	sig  DirSignature
}

// Find returns one set per group of matching directories, ordered by
// signature. Members are sorted by path.
func (d *DirDetector) Find(ctx context.Context) ([]dupes.Set, DirStats, error) {
	var stats DirStats

	dirs := make(chan string, d.workers)
	signed := make(chan signedDir, d.workers)

	var wg sync.WaitGroup
	var walked, withFiles, failed atomic.Int64
	for range d.workers {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for dir := range dirs {
				if ctx.Err() != nil {
					continue
				}
				ok, err := hasRegularFile(dir)
				if err != nil {
					d.logger.Warn("skipping unreadable directory", "path", dir, "error", err)
					failed.Add(1)
					continue
				}
				if !ok {
					continue
				}
				withFiles.Add(1)

				sig, err := d.builder.Signature(ctx, dir)
				if err != nil {
					if ctx.Err() == nil {
						d.logger.Warn("skipping directory without signature", "path", dir, "error", err)
					}
					failed.Add(1)
					continue
				}
				signed <- signedDir{path: dir, sig: sig}
			}
		}()
	}
	go func() {
		wg.Wait()
		close(signed)
	}()

	walkErr := make(chan error, 1)
	go func() {
		defer close(dirs)
		walkErr <- d.walker.Walk(ctx, func(e Entry) error {
			if d.observe != nil {
				d.observe(e)
			}
			if e.Kind != dupes.Directory {
				return nil
			}
			walked.Add(1)
			select {
			case dirs <- e.Path:
				return nil
			case <-ctx.Done():
				return ctx.Err()
			}
		})
	}()

	// this goroutine is the only writer of bySignature
	bySignature := make(map[string][]signedDir)
	for s := range signed {
		if s.sig.Empty() || s.sig.TotalSize == 0 {
			continue
		}
		stats.Signed++
		bySignature[s.sig.Hash] = append(bySignature[s.sig.Hash], s)
	}
	err := <-walkErr

	stats.Dirs = walked.Load()
	stats.WithFiles = withFiles.Load()
	stats.Failed = failed.Load()

	return d.aggregate(bySignature), stats, err
}

func (d *DirDetector) aggregate(bySignature map[string][]signedDir) []dupes.Set {
	var sets []dupes.Set
	for _, hash := range slices.Sorted(maps.Keys(bySignature)) {
		group := bySignature[hash]
		if len(group) < 2 {
			continue
		}
		slices.SortFunc(group, func(a, b signedDir) int {
			switch {
			case a.path < b.path:
				return -1
			case a.path > b.path:
				return 1
			}
			return 0
		})
		items := make([]dupes.Item, 0, len(group))
		for _, s := range group {
			items = append(items, dupes.Item{Path: s.path, Size: s.sig.TotalSize, Kind: dupes.Directory})
		}
		set, err := dupes.NewSet(dupes.Directory, hash, items)
		if err != nil {
			d.logger.Error("dropping inconsistent directory set", "signature", hash, "error", err)
			continue
		}
		sets = append(sets, set)
	}
	return sets
}
