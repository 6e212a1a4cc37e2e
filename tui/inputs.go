package tui

import "github.com/gdamore/tcell/v3"

func (a *App) handleInput(event *tcell.EventKey) *tcell.EventKey {
	if a.showDetail || a.showTheme || a.showQuit {
		// vi key binding for modal button selection
		switch event.Str() {
		case "l":
			return tcell.NewEventKey(tcell.KeyRight, tcell.KeyNames[tcell.KeyRight], tcell.ModNone)
		case "h":
			return tcell.NewEventKey(tcell.KeyLeft, tcell.KeyNames[tcell.KeyLeft], tcell.ModNone)
		}

		return event
	}

	if event.Key() == tcell.KeyEnter {
		a.showItemDetail()
		return nil
	}

	switch event.Str() {
	case "s", "S":
		if !a.IsScanning() {
			a.startScanning()
		}
		return nil
	case "q", "Q":
		if a.IsScanning() {
			a.confirmQuit()
			return nil
		}
		a.Stop()
		a.app.Stop()
		return nil
	case "i", "I":
		a.showItemDetail()
		return nil
	case "f", "F":
		a.cycleFilter()
		return nil
	case "t", "T":
		a.showThemeSelector()
		return nil
	}

	return event
}
