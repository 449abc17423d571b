// Package geometry implements grid snapping, boundary clamping and the
// drag/resize math for room rectangles. Every function is pure: callers
// commit results to the store themselves, once the interaction ends.
package geometry

import "math"

const (
	// MinSnappedSize is the smallest room side while snapping to the grid.
	MinSnappedSize = 100
	// MinFreeSize is the smallest room side without snapping.
	MinFreeSize = 50

	epsilon = 1e-9
)

// Point is a position in canvas coordinates.
type Point struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

// Sub returns p - q.
func (p Point) Sub(q Point) Point { return Point{X: p.X - q.X, Y: p.Y - q.Y} }

// Add returns p + q.
func (p Point) Add(q Point) Point { return Point{X: p.X + q.X, Y: p.Y + q.Y} }

// Size is a width/height pair.
type Size struct {
	Width  float64 `json:"width"`
	Height float64 `json:"height"`
}

// Rect is a room rectangle anchored at its top-left corner.
type Rect struct {
	X      float64 `json:"x"`
	Y      float64 `json:"y"`
	Width  float64 `json:"width"`
	Height float64 `json:"height"`
}

// Origin returns the top-left corner.
func (r Rect) Origin() Point { return Point{X: r.X, Y: r.Y} }

// Size returns the rectangle dimensions.
func (r Rect) Size() Size { return Size{Width: r.Width, Height: r.Height} }

// Fits reports whether r lies entirely inside a canvas of the given size,
// within floating point tolerance.
func (r Rect) Fits(canvas Size) bool {
	return r.X >= 0 && r.Y >= 0 &&
		r.X+r.Width <= canvas.Width+epsilon && r.Y+r.Height <= canvas.Height+epsilon
}

// Grid describes the snapping configuration.
type Grid struct {
	Size float64 `json:"size"`
	Snap bool    `json:"snap"`
}

// MinSize returns the smallest allowed room side for the grid setting.
func MinSize(grid Grid) float64 {
	if grid.Snap {
		return MinSnappedSize
	}
	return MinFreeSize
}

// SnapToGrid rounds value to the nearest multiple of gridSize. Halves round
// towards positive infinity. A non-positive grid size leaves value unchanged.
func SnapToGrid(value, gridSize float64) float64 {
	if gridSize <= 0 {
		return value
	}
	return math.Floor(value/gridSize+0.5) * gridSize
}

// ClampPosition moves the top-left corner so that a width x height rectangle
// stays inside [0, canvasWidth] x [0, canvasHeight]. When the rectangle is
// larger than the canvas along an axis, that coordinate clamps to 0.
func ClampPosition(x, y, width, height, canvasWidth, canvasHeight float64) (float64, float64) {
	return clampAxis(x, width, canvasWidth), clampAxis(y, height, canvasHeight)
}

func clampAxis(v, extent, limit float64) float64 {
	return math.Max(0, math.Min(v, limit-extent))
}

// ComputeDrag returns the new top-left corner of a dragged rectangle. start is
// the pointer position when the drag began, offset the grab point inside the
// rectangle at that moment, current the pointer position now.
func ComputeDrag(start, current, offset Point, size Size, grid Grid, canvas Size) Point {
	pos := start.Sub(offset).Add(current.Sub(start))
	if grid.Snap {
		pos.X = SnapToGrid(pos.X, grid.Size)
		pos.Y = SnapToGrid(pos.Y, grid.Size)
	}
	pos.X, pos.Y = ClampPosition(pos.X, pos.Y, size.Width, size.Height, canvas.Width, canvas.Height)
	return pos
}

// ComputeResize grows or shrinks rect by the pointer delta. The result is
// snapped when enabled, never smaller than MinSize(grid) and capped to the
// canvas. When the space left of the canvas edge is below the minimum the
// rectangle keeps the minimum and moves back inside.
func ComputeResize(rect Rect, delta Point, grid Grid, canvas Size) Rect {
	minSize := MinSize(grid)
	out := rect
	out.Width = resizeAxis(rect.Width+delta.X, grid, minSize)
	out.Height = resizeAxis(rect.Height+delta.Y, grid, minSize)

	out.X, out.Width = fitAxis(out.X, out.Width, canvas.Width, minSize)
	out.Y, out.Height = fitAxis(out.Y, out.Height, canvas.Height, minSize)
	return out
}

func resizeAxis(v float64, grid Grid, minSize float64) float64 {
	if grid.Snap {
		v = SnapToGrid(v, grid.Size)
	}
	return math.Max(minSize, v)
}

func fitAxis(pos, extent, limit, minSize float64) (float64, float64) {
	pos = math.Max(0, pos)
	if avail := limit - pos; extent > avail {
		extent = math.Max(minSize, avail)
	}
	if pos+extent > limit {
		pos = math.Max(0, limit-extent)
	}
	return pos, extent
}

// Normalize forces an arbitrary rectangle into a valid room: minimum size,
// inside the canvas. It is used for geometry that did not come from a drag
// or resize session.
func Normalize(rect Rect, grid Grid, canvas Size) Rect {
	minSize := MinSize(grid)
	out := rect
	out.Width = math.Max(minSize, rect.Width)
	out.Height = math.Max(minSize, rect.Height)
	out.Width = math.Min(out.Width, math.Max(minSize, canvas.Width))
	out.Height = math.Min(out.Height, math.Max(minSize, canvas.Height))
	out.X, out.Y = ClampPosition(rect.X, rect.Y, out.Width, out.Height, canvas.Width, canvas.Height)
	return out
}
