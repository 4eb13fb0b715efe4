package tray

import "fyne.io/fyne/v2"

// SVGContent is the tray icon: a dashed capture frame around a glyph pair.
const SVGContent = `<svg xmlns="http://www.w3.org/2000/svg" viewBox="0 0 16 16" width="16" height="16">
  <!-- Capture frame -->
  <rect x="1.5" y="1.5" width="13" height="13" fill="none" stroke="#0078d4" stroke-width="1.2" stroke-dasharray="2,1" opacity="0.8"/>

  <!-- Source glyph -->
  <path d="M4 11 L6 5 L8 11 M4.8 9 L7.2 9" fill="none" stroke="#333333" stroke-width="1" stroke-linecap="round"/>

  <!-- Target glyph -->
  <path d="M9 6 L13 6 M11 5 L11 11 M9.5 8.5 L12.5 8.5" fill="none" stroke="#d83b01" stroke-width="1" stroke-linecap="round"/>
</svg>`

// Icon returns the tray icon resource.
func Icon() fyne.Resource {
	return fyne.NewStaticResource("screen-translate.svg", []byte(SVGContent))
}
