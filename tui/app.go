// Package tui is a read-only browser for duplicate sets, filled live while
// the scan runs.
package tui

import (
	"fmt"
	"log"
	"os"
	"sync/atomic"

	"codeberg.org/tslocum/cview"
	"github.com/riadafridishibly/neatfs/dupes"
	"github.com/riadafridishibly/neatfs/scanner"
)

type kindFilter int

const (
	filterAll kindFilter = iota
	filterFiles
	filterDirs
)

func (f kindFilter) String() string {
	switch f {
	case filterFiles:
		return "files"
	case filterDirs:
		return "directories"
	default:
		return "all"
	}
}

func (f kindFilter) match(s *dupes.Set) bool {
	switch f {
	case filterFiles:
		return s.Kind == dupes.File
	case filterDirs:
		return s.Kind == dupes.Directory
	default:
		return true
	}
}

type App struct {
	app     *cview.Application
	scanner *scanner.Scanner
	opts    scanner.Options
	config  Config

	layout      *cview.Flex
	header      *cview.TextView
	footer      *cview.TextView
	table       *cview.Table
	panels      *cview.Panels
	detailModal *cview.Modal
	themeModal  *cview.Modal
	quitModal   *cview.Modal

	items      []*dupes.Set
	filter     kindFilter
	rootPath   string
	showDetail bool
	showTheme  bool
	showQuit   bool

	uiUpdates chan func()

	userHomeDir string
	totalWasted atomic.Int64

	currentTheme Theme
}

func (a *App) switchTheme(themeName string) {
	if th, ok := themes[themeName]; ok {
		a.currentTheme = th
	}
}

func (a *App) applyTheme() {
	theme := a.currentTheme

	a.header.SetBackgroundColor(theme.headerBg)
	a.header.SetTitleColor(theme.headerFg)
	a.header.SetTextColor(theme.headerFg)

	a.footer.SetBackgroundColor(theme.footerBg)
	a.footer.SetTitleColor(theme.footerFg)
	a.footer.SetTextColor(theme.footerFg)

	for _, m := range []*cview.Modal{a.detailModal, a.themeModal, a.quitModal} {
		m.SetBackgroundColor(theme.modalBg)
		m.SetTextColor(theme.modalFg)
		m.SetButtonBackgroundColor(theme.buttonBg)
		m.SetButtonTextColor(theme.buttonFg)
	}

	a.table.SetBackgroundColor(theme.bg)

	a.panels.SetBackgroundColor(theme.bg)

	a.trySendUIUpdate(func() {
		a.footer.SetText(footerStatusMenu(&theme))
		a.updateFinalStatus()
		a.buildTable()
	})
}

// NewApp builds the browser for opts. The scan starts when Run is called.
func NewApp(opts scanner.Options, cfg Config) *App {
	app := cview.NewApplication()

	theme := themeFor(cfg.Theme)

	header := cview.NewTextView()
	header.SetDynamicColors(true)

	footer := cview.NewTextView()
	footer.SetDynamicColors(true)

	detailModal := cview.NewModal()
	detailModal.SetText("")
	detailModal.AddButtons([]string{"Okay"})

	themeModal := cview.NewModal()
	themeModal.SetText("")
	themeNames := getThemeNames()
	themeModal.AddButtons(themeNames)

	quitModal := cview.NewModal()
	quitModal.SetText("")
	quitModal.AddButtons([]string{"Wait", "Stop & Quit"})

	panels := cview.NewPanels()
	table := cview.NewTable()
	panels.AddPanel("table", table, true, true)

	a := &App{
		app:          app,
		opts:         opts,
		config:       cfg,
		header:       header,
		footer:       footer,
		detailModal:  detailModal,
		themeModal:   themeModal,
		quitModal:    quitModal,
		rootPath:     opts.Root,
		panels:       panels,
		table:        table,
		items:        make([]*dupes.Set, 0),
		uiUpdates:    make(chan func(), 128),
		currentTheme: theme,
	}

	flex := cview.NewFlex()
	flex.SetDirection(cview.FlexRow)
	flex.AddItem(header, 1, 0, false)
	flex.AddItem(panels, 0, 1, true)
	flex.AddItem(footer, 1, 0, false)
	a.layout = flex

	app.SetInputCapture(a.handleInput)

	detailModal.SetDoneFunc(func(_ int, _ string) {
		a.showDetail = false
		a.setRoot(flex, true)
	})

	themeModal.SetDoneFunc(func(buttonIndex int, buttonLabel string) {
		a.showTheme = false
		a.setRoot(flex, true)

		if buttonIndex >= 0 && buttonIndex < len(themeNames) {
			a.switchTheme(buttonLabel)
			a.applyTheme()
		}
	})

	quitModal.SetDoneFunc(func(_ int, buttonLabel string) {
		a.showQuit = false
		a.setRoot(flex, true)

		if buttonLabel == "Stop & Quit" {
			a.Stop()
			a.app.Stop()
		}
	})

	if cfg.ReplaceHomeWithTilde {
		home, err := os.UserHomeDir()
		if err != nil {
			log.Println("Error getting home:", err)
		}
		a.userHomeDir = home
	}

	header.SetTextAlign(cview.AlignCenter)
	header.SetText(headerStartupStatus(&theme, a.replaceHomeWithTilde(a.rootPath)))
	footer.SetTextAlign(cview.AlignCenter)
	footer.SetText(footerStatusMenu(&theme))

	a.setRoot(flex, true)

	a.applyTheme()

	return a
}

func (a *App) showThemeSelector() {
	if a.themeModal == nil {
		return
	}
	theme := a.currentTheme
	text := fmt.Sprintf("Select Theme (Current: [%s]%s[-])", theme.headerBg.String(), theme.Name)
	a.themeModal.SetText(text)
	a.showTheme = true
	a.setRoot(a.themeModal, false)
}

func (a *App) confirmQuit() {
	a.quitModal.SetText("A scan is still running.\n\nStop it and quit?")
	a.showQuit = true
	a.setRoot(a.quitModal, false)
}

func (a *App) Scanner() *scanner.Scanner {
	return a.scanner
}

func (a *App) Stop() {
	if a.scanner != nil {
		a.scanner.Stop()
	}
}

func (a *App) Run() error {
	log.Println("CurrentTheme:", a.currentTheme.Name)
	go func() {
		for updateFn := range a.uiUpdates {
			a.app.QueueUpdateDraw(updateFn)
		}
	}()
	a.startScanning()
	return a.app.Run()
}
