package tui

import (
	"maps"
	"slices"

	"github.com/gdamore/tcell/v3"
)

// palette is the handful of colours a theme is derived from.
type palette struct {
	base    [3]int32 // background
	surface [3]int32 // bars
	text    [3]int32
	accent  [3]int32 // header and buttons
	dirs    [3]int32 // directory sets
	size    [3]int32
	wasted  [3]int32
}

type Theme struct {
	Name string

	bg       tcell.Color
	fg       tcell.Color
	headerBg tcell.Color
	headerFg tcell.Color
	footerBg tcell.Color
	footerFg tcell.Color
	dirFg    tcell.Color
	sizeFg   tcell.Color
	wastedFg tcell.Color
	buttonBg tcell.Color
	buttonFg tcell.Color
	modalBg  tcell.Color
	modalFg  tcell.Color
}

func rgb(c [3]int32) tcell.Color {
	return tcell.NewRGBColor(c[0], c[1], c[2])
}

func newTheme(name string, p palette) Theme {
	return Theme{
		Name:     name,
		bg:       rgb(p.base),
		fg:       rgb(p.text),
		headerBg: rgb(p.accent),
		headerFg: rgb(p.base),
		footerBg: rgb(p.surface),
		footerFg: rgb(p.text),
		dirFg:    rgb(p.dirs),
		sizeFg:   rgb(p.size),
		wastedFg: rgb(p.wasted),
		buttonBg: rgb(p.accent),
		buttonFg: rgb(p.base),
		modalBg:  rgb(p.base),
		modalFg:  rgb(p.text),
	}
}

var themes = map[string]Theme{
	"gruvbox-dark": newTheme("Gruvbox Dark", palette{
		base:    [3]int32{40, 40, 40},
		surface: [3]int32{60, 56, 54},
		text:    [3]int32{235, 219, 178},
		accent:  [3]int32{214, 93, 14},
		dirs:    [3]int32{131, 165, 152},
		size:    [3]int32{215, 153, 33},
		wasted:  [3]int32{251, 73, 52},
	}),
	"nord": newTheme("Nord", palette{
		base:    [3]int32{46, 52, 64},
		surface: [3]int32{67, 76, 94},
		text:    [3]int32{216, 222, 233},
		accent:  [3]int32{129, 161, 193},
		dirs:    [3]int32{143, 188, 187},
		size:    [3]int32{235, 203, 139},
		wasted:  [3]int32{191, 97, 106},
	}),
	"catppuccin": newTheme("Catppuccin Mocha", palette{
		base:    [3]int32{30, 30, 46},
		surface: [3]int32{49, 50, 68},
		text:    [3]int32{205, 214, 244},
		accent:  [3]int32{137, 180, 250},
		dirs:    [3]int32{148, 226, 213},
		size:    [3]int32{249, 226, 175},
		wasted:  [3]int32{243, 139, 168},
	}),
	"dracula": newTheme("Dracula", palette{
		base:    [3]int32{40, 42, 54},
		surface: [3]int32{68, 71, 90},
		text:    [3]int32{248, 248, 242},
		accent:  [3]int32{189, 147, 249},
		dirs:    [3]int32{139, 233, 253},
		size:    [3]int32{241, 250, 140},
		wasted:  [3]int32{255, 121, 198},
	}),
}

func getThemeNames() []string {
	return slices.Sorted(maps.Keys(themes))
}

// themeFor falls back to nord for unknown names.
func themeFor(name string) Theme {
	if th, ok := themes[name]; ok {
		return th
	}
	return themes["nord"]
}
