package tray

import "fyne.io/fyne/v2"

// SVGContent is the tray icon: a stopwatch with a small camera lens.
const SVGContent = `<svg xmlns="http://www.w3.org/2000/svg" viewBox="0 0 16 16" width="16" height="16">
  <rect x="6.5" y="0.5" width="3" height="1.5" rx="0.5" fill="#333333"/>
  <circle cx="8" cy="9" r="6" fill="#ffffff" stroke="#0078d4" stroke-width="1.5"/>
  <line x1="8" y1="9" x2="8" y2="5" stroke="#333333" stroke-width="1.2" stroke-linecap="round"/>
  <line x1="8" y1="9" x2="10.5" y2="10.5" stroke="#333333" stroke-width="1" stroke-linecap="round"/>
  <circle cx="8" cy="9" r="0.8" fill="#0078d4"/>
</svg>`

// Icon is the tray and application icon resource.
var Icon fyne.Resource = fyne.NewStaticResource("screen-timer.svg", []byte(SVGContent))
