package dashboard

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestGridAreaOverlaps(t *testing.T) {
	a := GridArea{X: 0, Y: 0, W: 2, H: 2}
	assert.True(t, a.Overlaps(GridArea{X: 1, Y: 1, W: 2, H: 2}))
	assert.False(t, a.Overlaps(GridArea{X: 2, Y: 0, W: 2, H: 2}), "touching edges do not overlap")
	assert.False(t, a.Overlaps(GridArea{X: 0, Y: 2, W: 2, H: 2}))
	assert.True(t, a.Overlaps(a))
}

func TestGridContains(t *testing.T) {
	g := DefaultGrid()
	assert.True(t, g.Contains(GridArea{X: 10, Y: 40, W: 2, H: 1}))
	assert.False(t, g.Contains(GridArea{X: 11, Y: 0, W: 2, H: 1}))
	assert.False(t, g.Contains(GridArea{X: -1, Y: 0, W: 2, H: 1}))
	assert.False(t, g.Contains(GridArea{X: 0, Y: 0, W: 0, H: 1}))

	g.Rows = 4
	assert.False(t, g.Contains(GridArea{X: 0, Y: 3, W: 1, H: 2}))
}

func TestGridSnapDelta(t *testing.T) {
	g := DefaultGrid()
	cx, cy := g.SnapDelta(47, -49)
	assert.Equal(t, 0, cx)
	assert.Equal(t, -1, cy)
	cx, cy = g.SnapDelta(2*96+40, 96)
	assert.Equal(t, 2, cx)
	assert.Equal(t, 1, cy)

	x, y := g.CellAt(Point{X: 95, Y: 96})
	assert.Equal(t, 0, x)
	assert.Equal(t, 1, y)
}

func TestGridFirstFit(t *testing.T) {
	g := DefaultGrid()
	widgets := []WidgetInstance{
		{ID: "a", GridArea: GridArea{X: 0, Y: 0, W: 4, H: 2}, IsVisible: true},
		{ID: "b", GridArea: GridArea{X: 8, Y: 0, W: 4, H: 2}, IsVisible: true},
		{ID: "hidden", GridArea: GridArea{X: 4, Y: 0, W: 4, H: 2}, IsVisible: false},
	}
	assert.Equal(t, GridArea{X: 4, Y: 0, W: 4, H: 2}, g.FirstFit(widgets, Size{W: 4, H: 2}))
	assert.Equal(t, GridArea{X: 0, Y: 2, W: 6, H: 2}, g.FirstFit(widgets, Size{W: 6, H: 2}))
	assert.Equal(t, GridArea{X: 0, Y: 0, W: 4, H: 2}, g.FirstFit(nil, Size{}))
	assert.Equal(t, GridArea{X: 0, Y: 2, W: 12, H: 1}, g.FirstFit(widgets, Size{W: 20, H: 1}))
}

func TestGridZeroValueNormalizesToDefault(t *testing.T) {
	assert.Equal(t, DefaultGrid(), Grid{}.normalized())
	assert.Equal(t, DefaultGrid(), NewStore(StoreOptions{Storage: NewMemoryStorage()}).Grid())

	g := Grid{Columns: 6, Gap: -4}.normalized()
	assert.Equal(t, 6, g.Columns)
	assert.Equal(t, 0.0, g.Gap, "explicit grids keep their gap, clamped at zero")
	assert.Equal(t, 80.0, g.CellWidth)
}

func TestGridFirstFitBoundedGridAppendsBelow(t *testing.T) {
	g := Grid{Columns: 4, Rows: 2}.normalized()
	widgets := []WidgetInstance{{ID: "full", GridArea: GridArea{X: 0, Y: 0, W: 4, H: 2}, IsVisible: true}}
	assert.Equal(t, GridArea{X: 0, Y: 2, W: 2, H: 2}, g.FirstFit(widgets, Size{W: 2, H: 2}))
}

func TestCollisionSkipsSelfAndHidden(t *testing.T) {
	widgets := []WidgetInstance{
		{ID: "a", GridArea: GridArea{X: 0, Y: 0, W: 2, H: 2}, IsVisible: true},
		{ID: "b", GridArea: GridArea{X: 1, Y: 1, W: 2, H: 2}, IsVisible: false},
	}
	_, hit := Collision(widgets, "a", GridArea{X: 0, Y: 0, W: 2, H: 2})
	assert.False(t, hit)
	id, hit := Collision(widgets, "c", GridArea{X: 1, Y: 1, W: 1, H: 1})
	assert.True(t, hit)
	assert.Equal(t, "a", id)
	assert.Equal(t, 2, ContentBottom(widgets))
}
