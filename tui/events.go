package tui

import (
	"context"
	"time"

	"codeberg.org/tslocum/cview"
	"github.com/riadafridishibly/neatfs/scanner"
)

func (a *App) trySendUIUpdate(f func()) {
	select {
	case a.uiUpdates <- f:
	default:
	}
}

// setRoot queues a SetRoot operation to avoid data races
func (a *App) setRoot(primitive cview.Primitive, focus bool) {
	a.app.QueueUpdateDraw(func() {
		a.app.SetRoot(primitive, focus)
	})
}

func (a *App) processProgressEvents(ctx context.Context, s *scanner.Scanner) {
	progressChan := s.Progress()
	ticker := time.NewTicker(a.config.progressFreq())
	defer ticker.Stop()

	var progress *scanner.Progress
	for {
		select {
		case <-ctx.Done():
			return
		case <-s.Done():
			a.trySendUIUpdate(a.updateFinalStatus)
			return
		case p, ok := <-progressChan:
			if !ok {
				a.trySendUIUpdate(a.updateFinalStatus)
				return
			}
			progress = p
			if progress.Done {
				a.trySendUIUpdate(a.updateFinalStatus)
				return
			}
		case <-ticker.C:
			if s.IsRunning() && progress != nil {
				p := *progress
				a.trySendUIUpdate(func() { a.updateProgressStatus(&p) })
			}
		}
	}
}

// processResultEvents is the only reader of Results; sets are handed to the
// UI goroutine, which owns a.items. Sends here block rather than drop.
func (a *App) processResultEvents(ctx context.Context, s *scanner.Scanner) {
	for {
		select {
		case <-ctx.Done():
			return
		case result, ok := <-s.Results():
			if !ok {
				a.app.QueueUpdateDraw(a.updateFinalStatus)
				return
			}
			set := result
			a.app.QueueUpdateDraw(func() { a.handleResult(&set) })
		}
	}
}
