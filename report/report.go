// Package report renders scan results for people (tables) and for other
// programs (JSON).
package report

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/jedib0t/go-pretty/v6/text"
	"github.com/mattn/go-isatty"
	"github.com/riadafridishibly/neatfs/dupes"
	"github.com/riadafridishibly/neatfs/scanner"
)

type Options struct {
	// Fancy selects rounded box drawing; plain ASCII otherwise.
	Fancy bool
	// SignatureWidth truncates signatures in the table. Zero keeps 12.
	SignatureWidth int
}

// IsTerminal reports whether f is attached to a terminal.
func IsTerminal(f *os.File) bool {
	fd := f.Fd()
	return isatty.IsTerminal(fd) || isatty.IsCygwinTerminal(fd)
}

// Text writes one table per kind of duplicate followed by a summary. Sets
// are listed largest waste first.
func Text(w io.Writer, r scanner.Report, opts Options) error {
	if opts.SignatureWidth <= 0 {
		opts.SignatureWidth = 12
	}

	var b strings.Builder
	fmt.Fprintf(&b, "Root: %s\n", r.Root)

	sections := []struct {
		kind dupes.Kind
		sets []dupes.Set
		ran  bool
	}{
		{dupes.File, r.Files, r.SearchedFiles},
		{dupes.Directory, r.Directories, r.SearchedDirectories},
	}
	for _, sec := range sections {
		if !sec.ran {
			continue
		}
		b.WriteString("\n")
		writeSection(&b, sec.kind, sec.sets, opts)
	}

	fmt.Fprintf(&b, "\nElapsed: %s\n", r.Stats.Elapsed.Round(time.Millisecond))
	_, err := io.WriteString(w, b.String())
	return err
}

func writeSection(b *strings.Builder, kind dupes.Kind, sets []dupes.Set, opts Options) {
	plural := pluralize(kind)
	if len(sets) == 0 {
		fmt.Fprintf(b, "No duplicate %s found.\n", plural)
		return
	}

	sorted := make([]dupes.Set, len(sets))
	copy(sorted, sets)
	dupes.SortByWaste(sorted)

	tw := table.NewWriter()
	if opts.Fancy {
		tw.SetStyle(table.StyleRounded)
	} else {
		tw.SetStyle(table.StyleDefault)
	}
	tw.SetTitle(fmt.Sprintf("Duplicate %s (%d sets)", plural, len(sorted)))
	tw.AppendHeader(table.Row{"#", "Signature", "Size", "Copies", "Wasted", "Path"})

	for i, set := range sorted {
		if i > 0 {
			tw.AppendSeparator()
		}
		for j, item := range set.Items {
			if j == 0 {
				tw.AppendRow(table.Row{
					i + 1,
					truncate(set.Signature, opts.SignatureWidth),
					humanize.IBytes(uint64(set.TotalSize())),
					len(set.Items),
					humanize.IBytes(uint64(set.WastedSpace())),
					item.Path,
				})
				continue
			}
			tw.AppendRow(table.Row{"", "", "", "", "", item.Path})
		}
		if kind == dupes.Directory && len(set.Items) > 0 {
			tw.AppendRow(table.Row{"", "", "", "", "", sampleContents(set.Items[0].Path)})
		}
	}
	tw.SetColumnConfigs([]table.ColumnConfig{
		{Number: 1, Align: text.AlignRight},
		{Number: 3, Align: text.AlignRight},
		{Number: 4, Align: text.AlignRight},
		{Number: 5, Align: text.AlignRight},
	})
	b.WriteString(tw.Render())
	b.WriteString("\n")

	sum := dupes.Summarize(sets)
	fmt.Fprintf(b, "%s summary: %d sets, %s duplicate %s, %s wasted (%s bytes)\n",
		strings.ToUpper(plural[:1])+plural[1:],
		sum.Sets,
		humanize.Comma(int64(sum.Duplicates)),
		plural,
		humanize.IBytes(uint64(sum.Wasted)),
		humanize.Comma(sum.Wasted),
	)
}

const sampleSize = 5

// sampleContents names the first few regular files of dir so a reader can
// tell what a duplicate directory holds.
func sampleContents(dir string) string {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return "Could not list sample contents"
	}
	var names []string
	for _, e := range entries {
		if e.Type().IsRegular() {
			names = append(names, e.Name())
		}
	}
	shown := names
	if len(shown) > sampleSize {
		shown = shown[:sampleSize]
	}
	line := fmt.Sprintf("Sample contents (%d files): %s", len(names), strings.Join(shown, ", "))
	if more := len(names) - len(shown); more > 0 {
		line += fmt.Sprintf(" ... and %d more", more)
	}
	return line
}

func pluralize(kind dupes.Kind) string {
	if kind == dupes.Directory {
		return "directories"
	}
	return kind.String() + "s"
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "…"
}

type jsonReport struct {
	scanner.Report
	FileSummary      dupes.Summary `json:"file_summary"`
	DirectorySummary dupes.Summary `json:"directory_summary"`
}

// JSON writes the whole report, including per-kind summaries.
func JSON(w io.Writer, r scanner.Report) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(jsonReport{
		Report:           r,
		FileSummary:      dupes.Summarize(r.Files),
		DirectorySummary: dupes.Summarize(r.Directories),
	})
}
