package scanner

import (
	"context"
	"log/slog"
	"maps"
	"slices"
	"sync"

	"github.com/riadafridishibly/neatfs/dupes"
)

type FileStats struct {
	Files      int64 `json:"files"`
	Buckets    int   `json:"size_buckets"`
	Candidates int64 `json:"candidates"`
	Hashed     int64 `json:"hashed"`
	Failed     int64 `json:"failed"`
}

// FileDetector finds files with identical content. Files are first grouped
// by size; only sizes shared by two or more files are ever hashed.
type FileDetector struct {
	walker  *Walker
	fp      Fingerprinter
	workers int
	logger  *slog.Logger

	// observe, if set, sees every walked entry; used for progress.
	observe func(Entry)
}

func NewFileDetector(walker *Walker, fp Fingerprinter, workers int, logger *slog.Logger) *FileDetector {
	if workers <= 0 {
		workers = 1
	}
	return &FileDetector{walker: walker, fp: fp, workers: workers, logger: logger}
}

// Find returns one set per group of identical files. Sets are ordered by
// size ascending then digest. On cancellation the sets aggregated so far are
// returned together with the context error.
func (d *FileDetector) Find(ctx context.Context) ([]dupes.Set, FileStats, error) {
	var stats FileStats

	groups, err := d.groupBySize(ctx)
	for _, paths := range groups {
		stats.Files += int64(len(paths))
		if len(paths) > 1 {
			stats.Buckets++
			stats.Candidates += int64(len(paths))
		}
	}
	if err != nil {
		return nil, stats, err
	}
	d.logger.Debug("size grouping done",
		"files", stats.Files,
		"buckets", stats.Buckets,
		"candidates", stats.Candidates,
	)

	byDigest, err := d.hashBuckets(ctx, groups, &stats)
	return d.aggregate(byDigest), stats, err
}

// groupBySize walks the tree once. Walk callbacks run concurrently, so
// entries are funnelled to a single goroutine that owns the map.
func (d *FileDetector) groupBySize(ctx context.Context) (map[int64][]string, error) {
	entries := make(chan Entry, 256)
	groups := make(map[int64][]string)

	collected := make(chan struct{})
	go func() {
		defer close(collected)
		for e := range entries {
			groups[e.Size] = append(groups[e.Size], e.Path)
		}
	}()

	err := d.walker.Walk(ctx, func(e Entry) error {
		if d.observe != nil {
			d.observe(e)
		}
		if e.Kind != dupes.File {
			return nil
		}
		select {
		case entries <- e:
			return nil
		case <-ctx.Done():
			return ctx.Err()
		}
	})
	close(entries)
	<-collected

	for _, paths := range groups {
		slices.Sort(paths)
	}
	return groups, err
}

type hashJob struct {
	size int64
	path string
}

type hashResult struct {
	hashJob
	digest string
	err    error
}

// hashBuckets fingerprints every file whose size bucket holds at least two
// paths and groups them by digest within the bucket.
func (d *FileDetector) hashBuckets(ctx context.Context, groups map[int64][]string, stats *FileStats) (map[int64]map[string][]string, error) {
	jobs := make(chan hashJob, d.workers)
	results := make(chan hashResult, d.workers)

	go func() {
		defer close(jobs)
		for _, size := range slices.Sorted(maps.Keys(groups)) {
			paths := groups[size]
			if len(paths) < 2 {
				continue
			}
			for _, p := range paths {
				select {
				case jobs <- hashJob{size: size, path: p}:
				case <-ctx.Done():
					return
				}
			}
		}
	}()

	var wg sync.WaitGroup
	for range d.workers {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for job := range jobs {
				if ctx.Err() != nil {
					continue
				}
				digest, err := d.fp.Fingerprint(ctx, job.path)
				results <- hashResult{hashJob: job, digest: digest, err: err}
			}
		}()
	}
	go func() {
		wg.Wait()
		close(results)
	}()

	byDigest := make(map[int64]map[string][]string)
	for r := range results {
		if r.err != nil {
			stats.Failed++
			if ctx.Err() == nil {
				d.logger.Warn("skipping file that could not be hashed", "path", r.path, "error", r.err)
			}
			continue
		}
		stats.Hashed++
		bucket, ok := byDigest[r.size]
		if !ok {
			bucket = make(map[string][]string)
			byDigest[r.size] = bucket
		}
		bucket[r.digest] = append(bucket[r.digest], r.path)
	}
	return byDigest, ctx.Err()
}

func (d *FileDetector) aggregate(byDigest map[int64]map[string][]string) []dupes.Set {
	var sets []dupes.Set
	for _, size := range slices.Sorted(maps.Keys(byDigest)) {
		bucket := byDigest[size]
		for _, digest := range slices.Sorted(maps.Keys(bucket)) {
			paths := bucket[digest]
			if len(paths) < 2 {
				continue
			}
			slices.Sort(paths)
			items := make([]dupes.Item, 0, len(paths))
			for _, p := range paths {
				items = append(items, dupes.Item{Path: p, Size: size, Kind: dupes.File})
			}
			set, err := dupes.NewSet(dupes.File, digest, items)
			if err != nil {
				d.logger.Error("dropping inconsistent file set", "digest", digest, "error", err)
				continue
			}
			sets = append(sets, set)
		}
	}
	return sets
}
