package scanner

import (
	"time"

	"github.com/riadafridishibly/neatfs/dupes"
)

type Phase string

const (
	PhaseFiles       Phase = "files"
	PhaseDirectories Phase = "directories"
)

// Progress is a sampled snapshot of a running scan.
type Progress struct {
	Phase       Phase
	ScannedPath string // entry being walked when the sample was taken
	FileCount   int64  // entries walked so far
	Error       error
	Done        bool
}

type Stats struct {
	Files       FileStats     `json:"files"`
	Directories DirStats      `json:"directories"`
	Elapsed     time.Duration `json:"elapsed"`
}

// Report is the outcome of one scan. The file and directory results are
// independent; the Searched flags tell which modes ran.
type Report struct {
	ScanID              string      `json:"scan_id"`
	Root                string      `json:"root"`
	SearchedFiles       bool        `json:"searched_files"`
	SearchedDirectories bool        `json:"searched_directories"`
	Files               []dupes.Set `json:"files"`
	Directories         []dupes.Set `json:"directories"`
	Stats               Stats       `json:"stats"`
}

func (r *Report) Sets() []dupes.Set {
	out := make([]dupes.Set, 0, len(r.Files)+len(r.Directories))
	out = append(out, r.Files...)
	return append(out, r.Directories...)
}
