package tui

import (
	"fmt"
	"time"

	"codeberg.org/tslocum/cview"
	"github.com/dustin/go-humanize"
	"github.com/riadafridishibly/neatfs/scanner"
)

func headerStartupStatus(theme *Theme, root string) string {
	return fmt.Sprintf("[%s] neatfs: looking for duplicates in %s ", theme.headerFg.String(), root)
}

func footerStatusMenu(theme *Theme) string {
	return fmt.Sprintf("[%s] s: Rescan  ↑/↓: Navigate  i/Enter: Details  f: Filter  t: Theme  q: Quit", theme.footerFg.String())
}

func (a *App) updateStatus() {
	if a.scanner == nil {
		return
	}
	status := fmt.Sprintf("[white] Sets: %d | Showing: %s | Entries walked: %s | Wasted: %s ",
		len(a.items),
		a.filter,
		humanize.Comma(a.scanner.FileCount()),
		humanize.IBytes(uint64(a.totalWasted.Load())),
	)
	a.header.SetText(status)
}

func (a *App) updateFinalStatus() {
	if a.scanner == nil {
		return
	}

	elapsed := a.scanner.ElapsedTime().Round(time.Second)

	state := "Done"
	if a.scanner.IsRunning() {
		state = "Scanning"
	}

	status := fmt.Sprintf("[white] %s | Sets: %d | Showing: %s | Entries walked: %s | Elapsed: %s | Wasted: %s ",
		state,
		len(a.items),
		a.filter,
		humanize.Comma(a.scanner.FileCount()),
		elapsed,
		humanize.IBytes(uint64(a.totalWasted.Load())),
	)
	a.header.SetText(status)
	a.header.SetTextAlign(cview.AlignCenter)

	a.footer.SetText(footerStatusMenu(&a.currentTheme))
	a.footer.SetTextAlign(cview.AlignCenter)
}

func (a *App) updateProgressStatus(progress *scanner.Progress) {
	if progress.Done {
		a.updateFinalStatus()
		return
	}

	if progress.Error != nil {
		a.header.SetText(fmt.Sprintf("[red] Error: %v", progress.Error))
		return
	}

	if progress.ScannedPath != "" {
		scanPath := a.replaceHomeWithTilde(progress.ScannedPath)
		w, _ := a.app.GetScreenSize()
		w = w - 24
		if w > 0 && len(scanPath) > w {
			scanPath = "..." + scanPath[len(scanPath)-w:]
		}
		a.footer.SetText(fmt.Sprintf(" [white]Scanning %s: [black]%s", progress.Phase, scanPath))
	}
}
