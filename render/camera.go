package render

import (
	"github.com/jakecoffman/cp"
	"github.com/milk9111/topdown/common"
	"github.com/milk9111/topdown/physics"
)

// Camera maps world units to screen pixels. Center is the world point in
// the middle of the screen; Zoom is pixels per world unit.
type Camera struct {
	Center cp.Vector
	Zoom   float64
	Width  int
	Height int
	// Smoothing is the fraction of the gap to the target closed per Follow.
	Smoothing float64
}

func NewCamera(width, height int, zoom float64) *Camera {
	if zoom <= 0 {
		zoom = 1
	}
	return &Camera{Zoom: zoom, Width: width, Height: height, Smoothing: 0.15}
}

// WorldRect is the part of the world currently on screen.
func (c *Camera) WorldRect() common.Rect {
	w := float64(c.Width) / c.Zoom
	h := float64(c.Height) / c.Zoom
	return common.Rect{X: c.Center.X - w/2, Y: c.Center.Y - h/2, Width: w, Height: h}
}

// Visible reports whether a bounding sphere overlaps the screen.
func (c *Camera) Visible(s physics.Sphere) bool {
	return c.WorldRect().Grow(s.Radius).Contains(s.Center.X, s.Center.Y)
}

func (c *Camera) ToScreen(v cp.Vector) (float64, float64) {
	return (v.X-c.Center.X)*c.Zoom + float64(c.Width)/2, (v.Y-c.Center.Y)*c.Zoom + float64(c.Height)/2
}

func (c *Camera) ToWorld(x, y float64) cp.Vector {
	return cp.Vector{
		X: (x-float64(c.Width)/2)/c.Zoom + c.Center.X,
		Y: (y-float64(c.Height)/2)/c.Zoom + c.Center.Y,
	}
}

// Follow eases the camera toward target.
func (c *Camera) Follow(target cp.Vector) {
	t := c.Smoothing
	if t <= 0 || t > 1 {
		t = 1
	}
	c.Center = cp.Vector{X: common.Lerp(c.Center.X, target.X, t), Y: common.Lerp(c.Center.Y, target.Y, t)}
}

// Resize keeps the center and zoom while the window changes size.
func (c *Camera) Resize(width, height int) {
	c.Width, c.Height = width, height
}
