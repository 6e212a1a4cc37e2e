// Package scanner finds duplicate files and directories under a root.
//
// Files are grouped by size first and only sizes shared by several files are
// hashed. Directories are matched on a signature built from their immediate
// files (name, size and digest of each, in name order), so two directories
// match only when they hold the same names with the same content.
package scanner

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"github.com/riadafridishibly/neatfs/dupes"
)

const (
	statusIdle int32 = iota
	statusRunning
	statusFinished
)

const eventSendingFreq = 300 * time.Millisecond

type Scanner struct {
	opts   Options
	scanID string
	logger *slog.Logger

	fp   Fingerprinter
	algo Algorithm

	// Duplicate sets, sent once each detector finishes
	results chan dupes.Set

	// Progress events, sampled as we walk the tree
	progress chan *Progress

	// Closed when the scan started by Start has finished
	doneChan chan struct{}

	status int32 // idle | running | finished

	fileCount atomic.Int64

	startTime   atomic.Int64 // unix nanoseconds
	elapsedTime atomic.Int64

	lastSample atomic.Int64

	mu     sync.Mutex // guards cancel
	cancel context.CancelFunc
	err    error
	report Report
}

// New validates opts and prepares a scan. Root and configuration problems
// are reported here, before anything is walked.
func New(opts Options) (*Scanner, error) {
	opts, err := opts.normalize()
	if err != nil {
		return nil, err
	}
	algo, err := GetAlgorithm(opts.Algorithm)
	if err != nil {
		return nil, err
	}

	scanID := uuid.NewString()
	logger := opts.Logger.With("scan_id", scanID)

	var fp Fingerprinter = NewFileHasher(algo, opts.ChunkSize, opts.ReadTimeout)
	if opts.Cache != nil {
		fp = &cachedFingerprinter{
			next:      fp,
			cache:     opts.Cache,
			algorithm: algo.Name,
			onError: func(path string, err error) {
				logger.Warn("failed to update hash cache", "path", path, "error", err)
			},
		}
	}

	return &Scanner{
		opts:     opts,
		scanID:   scanID,
		logger:   logger,
		fp:       newMemoFingerprinter(fp),
		algo:     algo,
		results:  make(chan dupes.Set, 100),
		progress: make(chan *Progress, 100),
		doneChan: make(chan struct{}),
		status:   statusIdle,
	}, nil
}

func (s *Scanner) Root() string   { return s.opts.Root }
func (s *Scanner) ScanID() string { return s.scanID }

// Run scans synchronously. When ctx is cancelled the sets found so far are
// returned along with the context error.
func (s *Scanner) Run(ctx context.Context) (Report, error) {
	start := time.Now()
	s.startTime.Store(start.UnixNano())
	s.elapsedTime.Store(0)
	s.fileCount.Store(0)

	report := Report{
		ScanID:              s.scanID,
		Root:                s.opts.Root,
		SearchedFiles:       s.opts.SearchFiles(),
		SearchedDirectories: s.opts.SearchDirs(),
	}
	walker := NewWalker(s.opts.Root, s.opts.Exclude, s.opts.Workers, s.logger)

	s.logger.Info("scan started",
		"root", s.opts.Root,
		"files", s.opts.SearchFiles(),
		"directories", s.opts.SearchDirs(),
		"algorithm", s.algo.Name,
		"workers", s.opts.Workers,
	)

	var errs []error
	if s.opts.SearchFiles() {
		d := NewFileDetector(walker, s.fp, s.opts.Workers, s.logger)
		d.observe = s.observer(PhaseFiles)
		sets, stats, err := d.Find(ctx)
		report.Files, report.Stats.Files = sets, stats
		s.logger.Info("file duplicates found",
			"sets", len(sets),
			"files", stats.Files,
			"hashed", stats.Hashed,
			"failed", stats.Failed,
		)
		if err != nil {
			errs = append(errs, err)
		}
	}

	if s.opts.SearchDirs() && ctx.Err() == nil {
		builder := NewSignatureBuilder(s.fp, s.algo, s.logger)
		d := NewDirDetector(walker, builder, s.opts.Workers, s.logger)
		d.observe = s.observer(PhaseDirectories)
		sets, stats, err := d.Find(ctx)
		report.Directories, report.Stats.Directories = sets, stats
		s.logger.Info("directory duplicates found",
			"sets", len(sets),
			"dirs", stats.Dirs,
			"signed", stats.Signed,
			"failed", stats.Failed,
		)
		if err != nil {
			errs = append(errs, err)
		}
	}

	report.Stats.Elapsed = time.Since(start)
	s.elapsedTime.Store(report.Stats.Elapsed.Milliseconds())

	err := errors.Join(errs...)
	if ctx.Err() != nil {
		err = ctx.Err()
	}
	return report, err
}

// observer counts walked entries and emits a sampled progress event at most
// once per eventSendingFreq. It never blocks the walk.
func (s *Scanner) observer(phase Phase) func(Entry) {
	return func(e Entry) {
		count := s.fileCount.Add(1)

		now := time.Now().UnixNano()
		last := s.lastSample.Load()
		if now-last < int64(eventSendingFreq) || !s.lastSample.CompareAndSwap(last, now) {
			return
		}
		select {
		case s.progress <- &Progress{Phase: phase, ScannedPath: e.Path, FileCount: count}:
		default:
		}
	}
}

// Start runs the scan in the background. Results and progress are
// delivered on their channels, which are closed when the scan ends. A
// Scanner runs once; create a new one to rescan.
func (s *Scanner) Start() {
	ctx, cancel := context.WithCancel(context.Background())
	s.mu.Lock()
	if !atomic.CompareAndSwapInt32(&s.status, statusIdle, statusRunning) {
		s.mu.Unlock()
		cancel()
		return
	}
	s.cancel = cancel
	s.mu.Unlock()
	go func() {
		defer close(s.doneChan) // We're done when result is done
		defer close(s.progress)
		defer close(s.results)
		defer atomic.StoreInt32(&s.status, statusFinished)
		defer cancel()

		report, err := s.Run(ctx)
		for _, set := range report.Sets() {
			select {
			case s.results <- set:
			case <-ctx.Done():
			}
		}
		s.report, s.err = report, err

		select {
		case s.progress <- &Progress{Done: true, FileCount: s.fileCount.Load(), Error: err}:
		default:
		}
	}()
}

// Stop cancels a running scan and waits for it to drain.
func (s *Scanner) Stop() {
	s.mu.Lock()
	cancel := s.cancel
	s.mu.Unlock()
	if cancel == nil {
		return
	}
	cancel()
	<-s.doneChan
}

func (s *Scanner) IsRunning() bool {
	return atomic.LoadInt32(&s.status) == statusRunning
}

func (s *Scanner) Progress() <-chan *Progress {
	return s.progress
}

func (s *Scanner) Results() <-chan dupes.Set {
	return s.results
}

func (s *Scanner) Done() <-chan struct{} {
	return s.doneChan
}

// Err returns the error of a finished background scan. Only valid after
// Done is closed.
func (s *Scanner) Err() error {
	return s.err
}

// Report returns the full result of a finished background scan. Only valid
// after Done is closed.
func (s *Scanner) Report() Report {
	return s.report
}

func (s *Scanner) FileCount() int64 {
	return s.fileCount.Load()
}

func (s *Scanner) ElapsedTime() time.Duration {
	start := s.startTime.Load()
	if start == 0 {
		return 0
	}
	elapsed := s.elapsedTime.Load()
	if elapsed == 0 {
		return time.Since(time.Unix(0, start))
	}
	return time.Duration(elapsed) * time.Millisecond
}
