package tui

import (
	"context"
	"fmt"
	"log"
	"strings"

	"codeberg.org/tslocum/cview"
	"github.com/dustin/go-humanize"
	"github.com/riadafridishibly/neatfs/dupes"
	"github.com/riadafridishibly/neatfs/scanner"
)

func (a *App) IsScanning() bool {
	return a.scanner != nil && a.scanner.IsRunning()
}

func (a *App) startScanning() {
	s, err := scanner.New(a.opts)
	if err != nil {
		log.Printf("Error starting scan: %v", err)
		a.trySendUIUpdate(func() { a.header.SetText(fmt.Sprintf("[red] Error: %v", err)) })
		return
	}
	a.scanner = s
	a.items = a.items[:0]
	a.totalWasted.Store(0)
	a.trySendUIUpdate(func() { a.buildTable() })

	s.Start()

	ctx := context.Background()

	go a.processProgressEvents(ctx, s)
	go a.processResultEvents(ctx, s)
}

func (a *App) replaceHomeWithTilde(p string) string {
	if a.userHomeDir == "" {
		return p
	}
	if after, ok := strings.CutPrefix(p, a.userHomeDir); ok {
		p = "~" + after
	}
	return p
}

func (a *App) visibleItems() []*dupes.Set {
	out := make([]*dupes.Set, 0, len(a.items))
	for _, it := range a.items {
		if a.filter.match(it) {
			out = append(out, it)
		}
	}
	return out
}

func (a *App) buildTable() *cview.Table {
	theme := a.currentTheme
	table := a.table
	table.Clear()

	items := a.visibleItems()
	sets := make([]dupes.Set, len(items))
	for i, it := range items {
		sets[i] = *it
	}
	dupes.SortByWaste(sets)

	for row := range sets {
		item := &sets[row]

		// The reference always lives on column 0
		kindCell := cview.NewTableCell(" " + item.Kind.String())
		if item.Kind == dupes.Directory {
			kindCell.SetTextColor(theme.dirFg)
		} else {
			kindCell.SetTextColor(theme.fg)
		}
		kindCell.SetAlign(cview.AlignLeft)
		kindCell.SetReference(item)
		table.SetCell(row, 0, kindCell)

		countCell := cview.NewTableCell(fmt.Sprintf(" x%d ", len(item.Items)))
		countCell.SetTextColor(theme.fg)
		countCell.SetAlign(cview.AlignRight)
		table.SetCell(row, 1, countCell)

		sizeCell := cview.NewTableCell(fmt.Sprintf(" %s ", humanize.IBytes(uint64(item.TotalSize()))))
		sizeCell.SetTextColor(theme.sizeFg)
		sizeCell.SetAlign(cview.AlignRight)
		table.SetCell(row, 2, sizeCell)

		wastedCell := cview.NewTableCell(fmt.Sprintf(" %s ", humanize.IBytes(uint64(item.WastedSpace()))))
		wastedCell.SetTextColor(theme.wastedFg)
		wastedCell.SetAlign(cview.AlignRight)
		table.SetCell(row, 3, wastedCell)

		path := a.replaceHomeWithTilde(item.Items[0].Path)
		if more := len(item.Items) - 1; more > 0 {
			path = fmt.Sprintf("%s (+%d more)", path, more)
		}
		pathCell := cview.NewTableCell(cview.Escape(path))
		pathCell.SetTextColor(theme.fg)
		pathCell.SetAlign(cview.AlignLeft)
		pathCell.SetExpansion(1)
		table.SetCell(row, 4, pathCell)
	}

	table.SetBorder(false)
	table.SetBorders(false)
	table.SetSelectable(true, false)
	table.SetSeparator(' ')

	return table
}

func (a *App) handleResult(result *dupes.Set) {
	a.items = append(a.items, result)
	a.totalWasted.Add(result.WastedSpace())

	a.buildTable()
	a.updateStatus()
}

func (a *App) selectedSet() *dupes.Set {
	if a.table == nil {
		return nil
	}
	row, _ := a.table.GetSelection()
	cell := a.table.GetCell(row, 0)
	if cell == nil {
		return nil
	}
	ref, ok := cell.GetReference().(*dupes.Set)
	if !ok {
		log.Printf("Expected *dupes.Set, but found %T", cell.GetReference())
		return nil
	}
	return ref
}

func (a *App) showItemDetail() {
	set := a.selectedSet()
	if set == nil {
		return
	}

	var detail strings.Builder
	fmt.Fprintf(&detail, "Duplicate %s set\n\n", set.Kind)
	fmt.Fprintf(&detail, "Signature: %s\n", set.Signature)
	fmt.Fprintf(&detail, "Size: %s\n", humanize.IBytes(uint64(set.TotalSize())))
	fmt.Fprintf(&detail, "Wasted: %s\n\n", humanize.IBytes(uint64(set.WastedSpace())))
	for i, it := range set.Items {
		fmt.Fprintf(&detail, "%d. %s\n", i+1, cview.Escape(a.replaceHomeWithTilde(it.Path)))
	}

	a.detailModal.SetText(detail.String())
	a.showDetail = true
	a.setRoot(a.detailModal, false)
}

func (a *App) cycleFilter() {
	a.filter = (a.filter + 1) % 3
	a.buildTable()
	a.updateStatus()
}
