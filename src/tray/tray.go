// Package tray builds the system tray menu on top of fyne's desktop driver.
package tray

import (
	"log"

	"fyne.io/fyne/v2"
	"fyne.io/fyne/v2/driver/desktop"
)

// Actions are the callbacks behind the tray menu. Nil entries are omitted.
type Actions struct {
	TranslateRegion    func()
	TranslateFixedArea func()
	SetFixedArea       func()
	CopyOriginal       func()
	CopyTranslated     func()
	CopyBilingual      func()
	CopyImage          func()

	// SelectionEnabled is the initial state of the selection toggle;
	// ToggleSelection receives the new state.
	SelectionEnabled bool
	ToggleSelection  func(enabled bool)

	Quit func()
}

// Menu builds the tray menu for a.
func Menu(a Actions) *fyne.Menu {
	menu := fyne.NewMenu("Screen Translate")
	add := func(label string, fn func()) {
		if fn != nil {
			menu.Items = append(menu.Items, fyne.NewMenuItem(label, fn))
		}
	}
	add("Translate Region", a.TranslateRegion)
	add("Translate Fixed Area", a.TranslateFixedArea)
	add("Set Fixed Area", a.SetFixedArea)

	copyStart := len(menu.Items)
	add("Copy Original Text", a.CopyOriginal)
	add("Copy Translation", a.CopyTranslated)
	add("Copy Bilingual", a.CopyBilingual)
	add("Copy Translated Image", a.CopyImage)
	if len(menu.Items) > copyStart && copyStart > 0 {
		menu.Items = append(menu.Items[:copyStart], append([]*fyne.MenuItem{fyne.NewMenuItemSeparator()}, menu.Items[copyStart:]...)...)
	}

	if a.ToggleSelection != nil {
		item := fyne.NewMenuItem("Translate Selection", nil)
		item.Checked = a.SelectionEnabled
		item.Action = func() {
			item.Checked = !item.Checked
			log.Printf("Tray: selection translation enabled=%v", item.Checked)
			a.ToggleSelection(item.Checked)
			menu.Refresh()
		}
		menu.Items = append(menu.Items, fyne.NewMenuItemSeparator(), item)
	}

	if a.Quit != nil {
		quit := fyne.NewMenuItem("Quit", a.Quit)
		quit.IsQuit = true
		menu.Items = append(menu.Items, fyne.NewMenuItemSeparator(), quit)
	}
	return menu
}

// Install puts the menu into the system tray. Returns false when the
// driver has no tray support.
func Install(app fyne.App, a Actions) bool {
	desk, ok := app.(desktop.App)
	if !ok {
		log.Printf("Tray: driver has no system tray support")
		return false
	}
	desk.SetSystemTrayMenu(Menu(a))
	desk.SetSystemTrayIcon(Icon())
	log.Printf("Tray: installed")
	return true
}
