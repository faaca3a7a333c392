package overlay

// Compose panel geometry. The sidebar is fixed-width and pinned to the
// right edge of the viewport whenever the overlay is active, so the
// panel must never be placed under it.
const (
	PanelWidth   = 280
	PanelHeight  = 180
	PanelMargin  = 12
	SidebarWidth = 320
)

// PanelPosition is the top-left corner of the compose panel in viewport
// pixel coordinates.
type PanelPosition struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

// PlacePanel floats the compose panel just below and to the right of
// the click point, then clamps it so the panel stays fully inside the
// viewport and clear of the sidebar.
func PlacePanel(clickX, clickY, viewportW, viewportH float64) PanelPosition {
	x := clickX + PanelMargin
	y := clickY + PanelMargin

	maxX := viewportW - SidebarWidth - PanelWidth - PanelMargin
	maxY := viewportH - PanelHeight - PanelMargin

	if x > maxX {
		x = maxX
	}
	if y > maxY {
		y = maxY
	}
	if x < PanelMargin {
		x = PanelMargin
	}
	if y < PanelMargin {
		y = PanelMargin
	}
	return PanelPosition{X: x, Y: y}
}
