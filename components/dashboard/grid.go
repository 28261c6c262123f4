package dashboard

import "math"

// Point is a pointer position in pixels relative to the grid origin.
type Point struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

// Grid describes the placement grid geometry. Rows == 0 means the grid grows downward without bound.
type Grid struct {
	Columns    int     `json:"columns" yaml:"columns"`
	Rows       int     `json:"rows" yaml:"rows"`
	CellWidth  float64 `json:"cell_width" yaml:"cell_width"`
	CellHeight float64 `json:"cell_height" yaml:"cell_height"`
	Gap        float64 `json:"gap" yaml:"gap"`
}

// DefaultGrid is a 12 column grid with 80px cells and 16px gutters.
func DefaultGrid() Grid {
	return Grid{Columns: 12, CellWidth: 80, CellHeight: 80, Gap: 16}
}

func (g Grid) normalized() Grid {
	def := DefaultGrid()
	if g == (Grid{}) {
		return def
	}
	if g.Columns <= 0 {
		g.Columns = def.Columns
	}
	if g.Rows < 0 {
		g.Rows = 0
	}
	if g.CellWidth <= 0 {
		g.CellWidth = def.CellWidth
	}
	if g.CellHeight <= 0 {
		g.CellHeight = def.CellHeight
	}
	if g.Gap < 0 {
		g.Gap = 0
	}
	return g
}

func (g Grid) pitchX() float64 { return g.CellWidth + g.Gap }
func (g Grid) pitchY() float64 { return g.CellHeight + g.Gap }

// SnapDelta converts a pixel offset into the nearest whole-cell offset.
func (g Grid) SnapDelta(dx, dy float64) (int, int) {
	return int(math.Round(dx / g.pitchX())), int(math.Round(dy / g.pitchY()))
}

// CellAt returns the cell containing the point. Points left of or above the
// origin map to negative cells.
func (g Grid) CellAt(p Point) (int, int) {
	return int(math.Floor(p.X / g.pitchX())), int(math.Floor(p.Y / g.pitchY()))
}

// Contains reports whether the area lies fully inside the grid.
func (g Grid) Contains(a GridArea) bool {
	if !a.Valid() || a.Right() > g.Columns {
		return false
	}
	return g.Rows == 0 || a.Bottom() <= g.Rows
}

// Collision returns the first visible widget, other than skipID, whose area overlaps a.
func Collision(widgets []WidgetInstance, skipID string, a GridArea) (string, bool) {
	for _, w := range widgets {
		if w.ID == skipID || !w.IsVisible {
			continue
		}
		if w.GridArea.Overlaps(a) {
			return w.ID, true
		}
	}
	return "", false
}

// ContentBottom returns the first row below every visible widget.
func ContentBottom(widgets []WidgetInstance) int {
	bottom := 0
	for _, w := range widgets {
		if w.IsVisible && w.GridArea.Bottom() > bottom {
			bottom = w.GridArea.Bottom()
		}
	}
	return bottom
}

// FirstFit returns the top-left-most free area of the given size. When nothing
// fits inside a bounded grid the area is appended below existing content.
func (g Grid) FirstFit(widgets []WidgetInstance, size Size) GridArea {
	if size.W <= 0 {
		size.W = defaultWidgetSize.W
	}
	if size.H <= 0 {
		size.H = defaultWidgetSize.H
	}
	if size.W > g.Columns {
		size.W = g.Columns
	}
	bottom := ContentBottom(widgets)
	for y := 0; y <= bottom; y++ {
		for x := 0; x+size.W <= g.Columns; x++ {
			candidate := GridArea{X: x, Y: y, W: size.W, H: size.H}
			if !g.Contains(candidate) {
				continue
			}
			if _, hit := Collision(widgets, "", candidate); !hit {
				return candidate
			}
		}
	}
	return GridArea{X: 0, Y: bottom, W: size.W, H: size.H}
}
