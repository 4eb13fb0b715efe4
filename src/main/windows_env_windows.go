//go:build windows

package main

import (
	"log"

	"github.com/lxn/win"
	"golang.org/x/sys/windows"
)

const processPerMonitorDPIAware = 2

// enableDPIAwareness opts into per-monitor DPI so the overlay and the
// screenshot agree on physical pixels. Falls back to system awareness.
func enableDPIAwareness() {
	proc := windows.NewLazySystemDLL("shcore.dll").NewProc("SetProcessDpiAwareness")
	if proc.Find() == nil {
		hr, _, _ := proc.Call(processPerMonitorDPIAware)
		if hr == 0 {
			log.Printf("DPI: per-monitor awareness enabled")
			return
		}
		log.Printf("DPI: SetProcessDpiAwareness failed: 0x%x", hr)
	}
	if win.SetProcessDPIAware() {
		log.Printf("DPI: system awareness enabled (fallback)")
	} else {
		log.Printf("DPI: no awareness set")
	}
}

func logMonitorConfiguration() {
	log.Printf("MONITOR: %d monitors, virtual screen x:%d y:%d w:%d h:%d, primary w:%d h:%d",
		win.GetSystemMetrics(win.SM_CMONITORS),
		win.GetSystemMetrics(win.SM_XVIRTUALSCREEN), win.GetSystemMetrics(win.SM_YVIRTUALSCREEN),
		win.GetSystemMetrics(win.SM_CXVIRTUALSCREEN), win.GetSystemMetrics(win.SM_CYVIRTUALSCREEN),
		win.GetSystemMetrics(win.SM_CXSCREEN), win.GetSystemMetrics(win.SM_CYSCREEN))
}
