package geometry

import (
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
)

var testCanvas = Size{Width: 1200, Height: 800}

func TestSnapToGrid(t *testing.T) {
	tests := []struct {
		name     string
		value    float64
		grid     float64
		expected float64
	}{
		{"exact multiple", 40, 20, 40},
		{"rounds down", 49, 20, 40},
		{"rounds up", 51, 20, 60},
		{"half rounds up", 50, 20, 60},
		{"negative half rounds towards positive", -50, 20, -40},
		{"zero grid leaves value", 37, 0, 37},
		{"negative grid leaves value", 37, -5, 37},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, SnapToGrid(tt.value, tt.grid))
		})
	}
}

func TestSnapToGrid_Idempotent(t *testing.T) {
	rng := rand.New(rand.NewSource(7))
	for i := 0; i < 1000; i++ {
		v := rng.Float64()*4000 - 2000
		g := float64(rng.Intn(50) + 1)
		once := SnapToGrid(v, g)
		assert.Equal(t, once, SnapToGrid(once, g), "value %v grid %v", v, g)
	}
}

func TestClampPosition(t *testing.T) {
	tests := []struct {
		name         string
		x, y, w, h   float64
		wantX, wantY float64
	}{
		{"inside", 100, 100, 200, 150, 100, 100},
		{"negative", -30, -10, 200, 150, 0, 0},
		{"past right and bottom", 1100, 700, 200, 150, 1000, 650},
		{"wider than canvas", 300, 0, 1500, 100, 0, 0},
		{"taller than canvas", 0, 300, 100, 900, 0, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			x, y := ClampPosition(tt.x, tt.y, tt.w, tt.h, testCanvas.Width, testCanvas.Height)
			assert.Equal(t, tt.wantX, x)
			assert.Equal(t, tt.wantY, y)
		})
	}
}

func TestComputeDrag(t *testing.T) {
	size := Size{Width: 200, Height: 150}

	t.Run("follows pointer minus grab offset", func(t *testing.T) {
		pos := ComputeDrag(Point{X: 70, Y: 60}, Point{X: 173, Y: 91}, Point{X: 20, Y: 10}, size, Grid{Size: 20}, testCanvas)
		assert.Equal(t, Point{X: 153, Y: 81}, pos)
	})

	t.Run("snaps when enabled", func(t *testing.T) {
		pos := ComputeDrag(Point{X: 70, Y: 60}, Point{X: 173, Y: 91}, Point{X: 20, Y: 10}, size, Grid{Size: 20, Snap: true}, testCanvas)
		assert.Equal(t, Point{X: 160, Y: 80}, pos)
	})

	t.Run("clamps to canvas", func(t *testing.T) {
		pos := ComputeDrag(Point{X: 70, Y: 60}, Point{X: 5000, Y: -300}, Point{X: 20, Y: 10}, size, Grid{Size: 20, Snap: true}, testCanvas)
		assert.Equal(t, Point{X: 1000, Y: 0}, pos)
	})
}

func TestComputeResize(t *testing.T) {
	rect := Rect{X: 50, Y: 50, Width: 200, Height: 150}

	t.Run("snapped resize", func(t *testing.T) {
		out := ComputeResize(rect, Point{X: 37, Y: -12}, Grid{Size: 20, Snap: true}, testCanvas)
		assert.Equal(t, 240.0, out.Width)
		assert.Equal(t, 140.0, out.Height)
		assert.Equal(t, rect.Origin(), out.Origin())
	})

	t.Run("snapped minimum", func(t *testing.T) {
		out := ComputeResize(rect, Point{X: -180, Y: -140}, Grid{Size: 20, Snap: true}, testCanvas)
		assert.Equal(t, 100.0, out.Width)
		assert.Equal(t, 100.0, out.Height)
	})

	t.Run("free minimum", func(t *testing.T) {
		out := ComputeResize(rect, Point{X: -180, Y: -7}, Grid{Size: 20}, testCanvas)
		assert.Equal(t, 50.0, out.Width)
		assert.Equal(t, 143.0, out.Height)
	})

	t.Run("capped to canvas", func(t *testing.T) {
		out := ComputeResize(Rect{X: 1000, Y: 600, Width: 150, Height: 150}, Point{X: 400, Y: 400}, Grid{Size: 20, Snap: true}, testCanvas)
		assert.Equal(t, Rect{X: 1000, Y: 600, Width: 200, Height: 200}, out)
	})

	t.Run("shifts back inside when minimum does not fit", func(t *testing.T) {
		out := ComputeResize(Rect{X: 1150, Y: 0, Width: 50, Height: 100}, Point{X: 0, Y: 0}, Grid{Size: 20, Snap: true}, testCanvas)
		assert.Equal(t, 1100.0, out.X)
		assert.Equal(t, 100.0, out.Width)
	})
}

func TestInteractionsStayInsideCanvas(t *testing.T) {
	rng := rand.New(rand.NewSource(42))
	for i := 0; i < 2000; i++ {
		grid := Grid{Size: float64(rng.Intn(40) + 1), Snap: rng.Intn(2) == 0}
		minSize := MinSize(grid)
		rect := Rect{
			Width:  minSize + rng.Float64()*400,
			Height: minSize + rng.Float64()*300,
		}
		rect.X = rng.Float64() * (testCanvas.Width - rect.Width)
		rect.Y = rng.Float64() * (testCanvas.Height - rect.Height)

		start := Point{X: rect.X + rng.Float64()*rect.Width, Y: rect.Y + rng.Float64()*rect.Height}
		current := Point{X: rng.Float64()*3000 - 1000, Y: rng.Float64()*3000 - 1000}

		pos := ComputeDrag(start, current, start.Sub(rect.Origin()), rect.Size(), grid, testCanvas)
		dragged := Rect{X: pos.X, Y: pos.Y, Width: rect.Width, Height: rect.Height}
		assert.True(t, dragged.Fits(testCanvas), "drag %+v -> %+v", rect, dragged)

		delta := Point{X: rng.Float64()*2000 - 1000, Y: rng.Float64()*2000 - 1000}
		resized := ComputeResize(rect, delta, grid, testCanvas)
		assert.True(t, resized.Fits(testCanvas), "resize %+v by %+v -> %+v", rect, delta, resized)
		assert.GreaterOrEqual(t, resized.Width, minSize)
		assert.GreaterOrEqual(t, resized.Height, minSize)
	}
}

func TestNormalize(t *testing.T) {
	out := Normalize(Rect{X: -5, Y: 790, Width: 10, Height: 20}, Grid{Size: 20, Snap: true}, testCanvas)
	assert.Equal(t, Rect{X: 0, Y: 700, Width: 100, Height: 100}, out)
	assert.True(t, out.Fits(testCanvas))
}
